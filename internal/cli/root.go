// Package cli wires the digitguess command tree.
package cli

import (
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd builds the command tree. A fresh tree per call keeps flag state
// out of tests.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "digitguess",
		Short: "Number guessing game server and tools",
		Long: `digitguess runs the DigitGuesser API and offers offline helpers.
Guess a hidden number; each guess reports bulls (right digit, right place)
and cows (right digit, wrong place).`,
		SilenceUsage: true,
	}
	root.AddCommand(newServeCmd(), newPlayCmd(), newEvalCmd(), newScoreCmd())
	return root
}

// Execute runs the CLI and exits non-zero on error.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
