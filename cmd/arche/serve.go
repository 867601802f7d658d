package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/aretw0/arche"
	"github.com/aretw0/arche/internal/presentation/tui"
	httpAdapter "github.com/aretw0/arche/pkg/adapters/http"
	"github.com/aretw0/arche/pkg/observability"
	"github.com/aretw0/arche/pkg/project"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Serves the configured project store over HTTP: project records, node
descriptions, event posting, summaries and SSE summary streams. Prometheus
metrics are exposed on /metrics unless disabled in arche.yaml.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		port := cfg.HTTP.Port
		if cmd.Flags().Changed("port") {
			port, _ = cmd.Flags().GetInt("port")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		b, err := openBackend(ctx, cfg)
		if err != nil {
			return err
		}
		defer b.close()

		hooks := observability.LogHooks(logger)
		var handlerOpts []httpAdapter.Option
		if cfg.HTTP.Metrics {
			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			metrics, err := observability.NewMetrics(reg)
			if err != nil {
				return err
			}
			hooks = observability.Combine(metrics.Hooks(), hooks)
			handlerOpts = append(handlerOpts, httpAdapter.WithGatherer(reg))
		}

		mgr := b.manager(cfg, project.WithProjectOptions(arche.WithLogger(logger), arche.WithHooks(hooks)))
		defer mgr.CloseAll()

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: httpAdapter.NewHandler(mgr, append(handlerOpts, httpAdapter.WithLogger(logger))...),
		}

		if term.IsTerminal(int(os.Stderr.Fd())) {
			tui.PrintBanner(os.Stderr)
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("Starting Arche Server", "address", srv.Addr, "store", cfg.Store.Backend, "metrics", cfg.HTTP.Metrics)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)

		case <-ctx.Done():
			logger.Info("Start shutdown...")

			// Live SSE streams end once their channels close.
			mgr.CloseAll()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Graceful shutdown did not complete", "timeout", 5*time.Second, "err", err)
				return srv.Close()
			}
			logger.Info("Arche Server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on (overrides config)")
}
