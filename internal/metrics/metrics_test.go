package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveGuess(t *testing.T) {
	hits := testutil.ToFloat64(GuessesTotal.WithLabelValues("test-mode", "hit"))
	misses := testutil.ToFloat64(GuessesTotal.WithLabelValues("test-mode", "miss"))

	ObserveGuess("test-mode", true)
	ObserveGuess("test-mode", false)
	ObserveGuess("test-mode", false)

	assert.Equal(t, hits+1, testutil.ToFloat64(GuessesTotal.WithLabelValues("test-mode", "hit")))
	assert.Equal(t, misses+2, testutil.ToFloat64(GuessesTotal.WithLabelValues("test-mode", "miss")))
}

func TestObserveFinished(t *testing.T) {
	won := testutil.ToFloat64(GamesFinished.WithLabelValues("test-finish", "won"))
	lost := testutil.ToFloat64(GamesFinished.WithLabelValues("test-finish", "lost"))

	ObserveFinished("test-finish", true, 1950)
	ObserveFinished("test-finish", false, 300)

	assert.Equal(t, won+1, testutil.ToFloat64(GamesFinished.WithLabelValues("test-finish", "won")))
	assert.Equal(t, lost+1, testutil.ToFloat64(GamesFinished.WithLabelValues("test-finish", "lost")))
	assert.Positive(t, testutil.CollectAndCount(FinalScore))
}
