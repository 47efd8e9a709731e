package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/aretw0/screener/internal/cli"
	"github.com/aretw0/screener/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve one interview as MCP tools for a voice agent",
	Long: `Exposes one interview as MCP tools. Each script function (start_interview,
collect_name, collect_salary, collect_motivation, end_interview) becomes a tool
a voice agent calls once it has the information the stage needs.

The agent talks to the server over stdio by default, or over server-sent
events with --transport sse when it runs on another host.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		// Logs must stay off Stdout: it carries JSON-RPC under stdio.
		logger := cli.NewLogger(opts)

		engine, err := cli.NewEngine(opts, logger)
		if err != nil {
			return err
		}
		srv, err := mcp.NewServer(engine, mcp.WithLogger(logger))
		if err != nil {
			return err
		}

		switch transport {
		case "stdio":
			logger.Info("starting screener MCP server (stdio)")
			return srv.ServeStdio()
		case "sse":
			ctx, stop := cli.WithInterrupt(context.Background())
			defer stop()

			logger.Info("starting screener MCP server (sse)", "port", port)
			if err := srv.ServeSSE(ctx, port); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			logger.Info("MCP server stopped", "signal", cli.Interrupted(ctx))
			return nil
		default:
			return fmt.Errorf("unknown transport %q (want stdio or sse)", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "stdio or sse")
	mcpCmd.Flags().Int("port", 8081, "SSE listen port")
}
