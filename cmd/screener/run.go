package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/screener/internal/cli"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run an interview in the terminal",
	Long: `Runs one screening interview over Stdin/Stdout. Replies are parsed with the
rule-based extractor; unclear answers are asked again.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		opts.Headless, _ = flags.GetBool("headless")
		opts.JSON, _ = flags.GetBool("json")
		opts.SessionID, _ = flags.GetString("session-id")
		if flags.Changed("max-attempts") {
			opts.MaxAttempts, _ = flags.GetInt("max-attempts")
		}

		ctx, stop := cli.WithInterrupt(context.Background())
		defer stop()

		_, err := cli.RunSession(ctx, opts, os.Stdin, os.Stdout)
		if sig := cli.Interrupted(ctx); sig != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "\ninterview stopped (%s)\n", sig)
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Bool("headless", false, "Plain output without banner or markdown rendering")
	runCmd.Flags().Bool("json", false, "Run in JSON mode (NDJSON input/output)")
	runCmd.Flags().String("session-id", "", "Session ID (default: random UUID)")
	runCmd.Flags().Int("max-attempts", 0, "Stop after this many unclear replies on one stage (0 = never)")

	rootCmd.RunE = runCmd.RunE
	rootCmd.Flags().AddFlagSet(runCmd.Flags())
}
