package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TonyXvr/DigitGuesser/internal/game"
)

type playOptions struct {
	mode       string
	difficulty string
	digits     int
	targets    game.TargetFunc // nil draws random numbers
}

func newPlayCmd() *cobra.Command {
	opts := &playOptions{}
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return play(cmd.InOrStdin(), cmd.OutOrStdout(), opts)
		},
	}
	cmd.Flags().StringVarP(&opts.mode, "mode", "m", string(game.ModeClassic), "classic or progressive")
	cmd.Flags().StringVarP(&opts.difficulty, "difficulty", "d", string(game.Medium), "easy, medium, hard or crazy")
	cmd.Flags().IntVarP(&opts.digits, "digits", "n", 4, "number length in classic mode (2-5)")
	return cmd
}

// play runs one session reading a guess per line. Invalid guesses are reported
// and do not use up an attempt. EOF ends the session early.
func play(in io.Reader, out io.Writer, opts *playOptions) error {
	diff, err := game.ParseDifficulty(opts.difficulty)
	if err != nil {
		return err
	}
	g, err := game.New(game.Options{
		Mode:       game.Mode(strings.ToLower(opts.mode)),
		Difficulty: diff,
		DigitCount: opts.digits,
		Targets:    opts.targets,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%s game, %s: guess the %d-digit number (%d attempts).\n", g.Mode, g.Difficulty, g.DigitCount, g.MaxAttempts)
	sc := bufio.NewScanner(in)
	for !g.Finished {
		fmt.Fprintf(out, "[%d/%d] > ", len(g.Attempts)+1, g.MaxAttempts)
		if !sc.Scan() {
			fmt.Fprintln(out)
			return sc.Err()
		}
		res, err := g.ApplyGuess(sc.Text())
		if errors.Is(err, game.ErrInvalidInput) {
			fmt.Fprintf(out, "  %v\n", err)
			continue
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "  %s  %s  +%d\n", res.Feedback, marksLine(res.Marks), res.Score)
		if res.LevelComplete && res.NextDigitCount > 0 {
			fmt.Fprintf(out, "Level cleared. Next: %d digits.\n", res.NextDigitCount)
		}
	}

	if g.Won {
		fmt.Fprintf(out, "You won! Final score: %d\n", g.TotalScore)
	} else {
		fmt.Fprintf(out, "Out of attempts. The number was %s. Final score: %d\n", g.Target, g.TotalScore)
	}
	return nil
}

func marksLine(marks []game.Mark) string {
	var b strings.Builder
	for _, m := range marks {
		switch m {
		case game.MarkHit:
			b.WriteByte('O')
		case game.MarkPresent:
			b.WriteByte('~')
		default:
			b.WriteByte('.')
		}
	}
	return b.String()
}
