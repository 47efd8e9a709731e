package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/aretw0/screener/internal/cli"
	"github.com/aretw0/screener/internal/config"
	"github.com/aretw0/screener/internal/metrics"
	httpAdapter "github.com/aretw0/screener/pkg/adapters/http"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the stateless HTTP server",
	Long: `Serves the interview as a JSON API for an external voice engine. Sessions
travel in every request, so the server keeps no per-candidate state. A
websocket endpoint (/v1/live) runs one interview per connection.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		serverCfg := cfg.Server
		if cmd.Flags().Changed("port") {
			serverCfg.Port, _ = cmd.Flags().GetInt("port")
		}
		withMetrics, _ := cmd.Flags().GetBool("metrics")

		logger := cli.NewLogger(opts)
		m := metrics.New()
		engine, err := cli.NewEngine(opts, logger, m.Hooks())
		if err != nil {
			return err
		}

		handlerOpts := []httpAdapter.Option{
			httpAdapter.WithLogger(logger),
			httpAdapter.WithMaxInputSize(opts.MaxInputSize),
		}
		if withMetrics {
			handlerOpts = append(handlerOpts, httpAdapter.WithMetricsHandler(m.Handler()))
		}
		handler, err := httpAdapter.NewHandler(engine, handlerOpts...)
		if err != nil {
			return err
		}

		srv := &http.Server{
			Addr:         serverCfg.Addr(),
			Handler:      handler,
			ReadTimeout:  serverCfg.ReadTimeout,
			WriteTimeout: serverCfg.WriteTimeout,
		}

		ctx, stop := cli.WithInterrupt(context.Background())
		defer stop()

		serverErrors := make(chan error, 1)
		go func() {
			logger.Warn("screener server listening", "addr", srv.Addr, "company", engine.Script().Company)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err

		case <-ctx.Done():
			logger.Warn("shutdown started", "signal", cli.Interrupted(ctx))

			shutdownCtx, cancel := context.WithTimeout(context.Background(), serverCfg.ShutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("graceful shutdown did not complete", "timeout", serverCfg.ShutdownTimeout, "err", err)
				return srv.Close()
			}
			logger.Warn("screener server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on (env "+config.EnvPort+")")
	serveCmd.Flags().Bool("metrics", true, "Expose Prometheus metrics on /metrics")
}
