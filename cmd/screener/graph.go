package main

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/screener/internal/cli"
	"github.com/aretw0/screener/internal/presentation/graph"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the interview graph",
	Long:  `Outputs a Mermaid diagram (graph TD) of the interview stages and the salary branch, or the stages as JSON.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")

		engine, err := cli.NewEngine(opts, cli.NewLogger(opts))
		if err != nil {
			return err
		}

		switch format {
		case "mermaid":
			fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(engine.Inspect(), nil))
		case "json":
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(engine.Inspect())
		default:
			return fmt.Errorf("unknown format %q: use mermaid or json", format)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringP("format", "f", "mermaid", "Output format: mermaid or json")
}
