package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name string
		in   ScoreInputs
		want int
	}{
		{
			name: "complete on first attempt",
			in:   ScoreInputs{Difficulty: Easy, DigitCount: 3, CorrectDigits: 3, IsComplete: true, AttemptCount: 1, MaxAttempts: 5},
			want: 1950, // 450 + 500 + 1000
		},
		{
			name: "partial, incomplete",
			in:   ScoreInputs{Difficulty: Hard, DigitCount: 4, CorrectDigits: 2, IsComplete: false, AttemptCount: 2, MaxAttempts: 3},
			want: 1200,
		},
		{
			name: "complete on last attempt",
			in:   ScoreInputs{Difficulty: Easy, DigitCount: 2, CorrectDigits: 2, IsComplete: true, AttemptCount: 5, MaxAttempts: 5},
			want: 900, // 200 + 500 + 200
		},
		{
			name: "attempts bonus rounds to nearest",
			in:   ScoreInputs{Difficulty: Easy, DigitCount: 3, CorrectDigits: 3, IsComplete: true, AttemptCount: 2, MaxAttempts: 3},
			want: 1617, // 450 + 500 + round(666.67)
		},
		{
			name: "attempts bonus rounds half up",
			in:   ScoreInputs{Difficulty: Easy, DigitCount: 2, CorrectDigits: 2, IsComplete: true, AttemptCount: 16, MaxAttempts: 16},
			want: 763, // 200 + 500 + round(62.5)
		},
		{
			name: "crazy five digits",
			in:   ScoreInputs{Difficulty: Crazy, DigitCount: 5, CorrectDigits: 5, IsComplete: true, AttemptCount: 2, MaxAttempts: 2},
			want: 9000, // 500*4*2.5 + 2000 + 2000
		},
		{
			name: "nothing right",
			in:   ScoreInputs{Difficulty: Medium, DigitCount: 4, CorrectDigits: 0, AttemptCount: 1, MaxAttempts: 4},
			want: 0,
		},
		{
			name: "incomplete ignores max attempts",
			in:   ScoreInputs{Difficulty: Medium, DigitCount: 3, CorrectDigits: 1, AttemptCount: 9, MaxAttempts: 0},
			want: 300, // 100*2*1.5
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Score(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			again, err := Score(tt.in)
			require.NoError(t, err)
			assert.Equal(t, got, again)
		})
	}
}

func TestScoreRejectsInvalidInput(t *testing.T) {
	base := ScoreInputs{Difficulty: Medium, DigitCount: 4, CorrectDigits: 1, AttemptCount: 1, MaxAttempts: 4}
	tests := []struct {
		name   string
		mutate func(*ScoreInputs)
	}{
		{"unknown difficulty", func(in *ScoreInputs) { in.Difficulty = "insane" }},
		{"empty difficulty", func(in *ScoreInputs) { in.Difficulty = "" }},
		{"one digit", func(in *ScoreInputs) { in.DigitCount = 1; in.CorrectDigits = 0 }},
		{"six digits", func(in *ScoreInputs) { in.DigitCount = 6 }},
		{"negative correct digits", func(in *ScoreInputs) { in.CorrectDigits = -1 }},
		{"more correct digits than digits", func(in *ScoreInputs) { in.CorrectDigits = 5 }},
		{"zero attempt", func(in *ScoreInputs) { in.AttemptCount = 0 }},
		{"complete with zero max attempts", func(in *ScoreInputs) {
			in.IsComplete, in.CorrectDigits, in.MaxAttempts = true, 4, 0
		}},
		{"complete past max attempts", func(in *ScoreInputs) {
			in.IsComplete, in.CorrectDigits, in.AttemptCount = true, 4, 5
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := base
			tt.mutate(&in)
			_, err := Score(in)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestScoreMonotonicInCorrectDigits(t *testing.T) {
	for _, d := range Difficulties {
		maxAttempts, err := d.MaxAttempts()
		require.NoError(t, err)
		for digits := MinDigits; digits <= MaxDigits; digits++ {
			for attempt := 1; attempt <= maxAttempts; attempt++ {
				prev := -1
				for correct := 0; correct <= digits; correct++ {
					got, err := Score(ScoreInputs{
						Difficulty:    d,
						DigitCount:    digits,
						CorrectDigits: correct,
						IsComplete:    correct == digits,
						AttemptCount:  attempt,
						MaxAttempts:   maxAttempts,
					})
					require.NoError(t, err)
					assert.GreaterOrEqual(t, got, prev, "%s/%d digits/attempt %d/correct %d", d, digits, attempt, correct)
					assert.GreaterOrEqual(t, got, 0)
					prev = got
				}
			}
		}
	}
}

func TestDigitMultiplier(t *testing.T) {
	want := map[int]float64{2: 1, 3: 1.5, 4: 2, 5: 2.5}
	for n, m := range want {
		got, err := DigitMultiplier(n)
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
	for _, n := range []int{-1, 0, 1, 6, 10} {
		_, err := DigitMultiplier(n)
		assert.ErrorIs(t, err, ErrInvalidInput, "digits=%d", n)
	}
}

func TestDifficulty(t *testing.T) {
	tests := []struct {
		in          string
		want        Difficulty
		multiplier  int
		maxAttempts int
	}{
		{"easy", Easy, 1, 5},
		{"Medium", Medium, 2, 4},
		{" HARD ", Hard, 3, 3},
		{"crazy", Crazy, 4, 2},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			d, err := ParseDifficulty(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, d)

			m, err := d.Multiplier()
			require.NoError(t, err)
			assert.Equal(t, tt.multiplier, m)

			a, err := d.MaxAttempts()
			require.NoError(t, err)
			assert.Equal(t, tt.maxAttempts, a)
		})
	}

	_, err := ParseDifficulty("impossible")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = Difficulty("impossible").Multiplier()
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.False(t, Difficulty("").Valid())
}
