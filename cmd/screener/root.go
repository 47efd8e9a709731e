package main

import (
	"fmt"
	"os"

	"github.com/aretw0/screener/internal/cli"
	"github.com/aretw0/screener/internal/config"
	"github.com/spf13/cobra"
)

// opts is filled from the environment and then from flags before any command runs.
var (
	opts cli.RunOptions
	cfg  *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "screener",
	Short: "Screener runs a scripted HR screening interview",
	Long: `Screener drives a fixed voice-interview script: greeting, name, salary
expectation, motivation and a resolution or rejection, branching on the salary
threshold. Run it in the terminal, behind HTTP or as an MCP tool server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		envFile, _ := cmd.Flags().GetString("env-file")
		if err := config.LoadDotEnv(envFile); err != nil {
			return err
		}
		cfg = config.Load()
		opts = cli.OptionsFromConfig(cfg)

		flags := cmd.Flags()
		if flags.Changed("script") {
			opts.ScriptPath, _ = flags.GetString("script")
		}
		if flags.Changed("threshold") {
			threshold, _ := flags.GetFloat64("threshold")
			opts.SalaryThreshold = &threshold
		}
		if flags.Changed("debug") {
			opts.Debug, _ = flags.GetBool("debug")
		}
		if flags.Changed("log-format") {
			opts.LogFormat, _ = flags.GetString("log-format")
		}
		if flags.Changed("log-level") {
			opts.LogLevel, _ = flags.GetString("log-level")
		}
		return nil
	},
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("script", "", "Interview script YAML (default: embedded script, env "+config.EnvScript+")")
	rootCmd.PersistentFlags().Float64("threshold", 0, "Salary threshold in LPA; above it the candidate is rejected")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging and lifecycle hooks")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format: text or json")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().String("env-file", ".env", "Environment file to load if present")
}
