package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TonyXvr/DigitGuesser/internal/game"
)

func newEvalCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "eval GUESS TARGET",
		Short: "Print the bulls/cows label for a guess",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := game.Evaluate(args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out.String())
			return nil
		},
	}
}

func newScoreCmd() *cobra.Command {
	var (
		in         game.ScoreInputs
		difficulty string
	)
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Print the score for one guess",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := game.ParseDifficulty(difficulty)
			if err != nil {
				return err
			}
			in.Difficulty = d
			score, err := game.Score(in)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), score)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&difficulty, "difficulty", string(game.Medium), "easy, medium, hard or crazy")
	f.IntVar(&in.DigitCount, "digits", 4, "number length (2-5)")
	f.IntVar(&in.CorrectDigits, "correct", 0, "digits in the right position")
	f.BoolVar(&in.IsComplete, "complete", false, "the guess matched exactly")
	f.IntVar(&in.AttemptCount, "attempt", 1, "1-based attempt number")
	f.IntVar(&in.MaxAttempts, "max-attempts", 0, "attempts allowed (defaults to the difficulty's)")
	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		if in.MaxAttempts != 0 {
			return nil
		}
		d, err := game.ParseDifficulty(difficulty)
		if err != nil {
			return err
		}
		in.MaxAttempts, err = d.MaxAttempts()
		return err
	}
	return cmd
}
