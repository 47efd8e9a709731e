package main

import (
	"errors"
	"fmt"

	"github.com/aretw0/screener/internal/cli"
	"github.com/aretw0/screener/pkg/script"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [script.yaml]",
	Short: "Check an interview script for consistency",
	Long: `Parses the script, checks every prompt template and the salary policy, then
builds the interview graph to confirm all paths lead to closing.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 {
			opts.ScriptPath = args[0]
		}

		_, err := cli.NewEngine(opts, cli.NewLogger(opts))
		if err != nil {
			out := cmd.ErrOrStderr()
			for _, problem := range script.ValidationErrors(err) {
				var verr *script.ValidationError
				if errors.As(problem, &verr) {
					fmt.Fprintf(out, "  - %s: %s\n", verr.Key, verr.Reason)
					continue
				}
				fmt.Fprintf(out, "  - %v\n", problem)
			}
			return fmt.Errorf("validation failed: %w", err)
		}

		name := opts.ScriptPath
		if name == "" {
			name = "embedded script"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s is valid! ✅\n", name)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
