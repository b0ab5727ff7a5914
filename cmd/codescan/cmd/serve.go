package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/codescan/internal/config"
	"github.com/MeKo-Tech/codescan/internal/pipeline"
	"github.com/MeKo-Tech/codescan/internal/server"
)

// serveCmd represents the serve command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server for the decode API",
	Long: `Start an HTTP server that provides REST and WebSocket endpoints for
barcode decoding.

The server provides the following endpoints:
  GET  /health         - Health check endpoint
  GET  /v1/engines     - Decoder engine availability
  POST /v1/decode      - Decode an uploaded image (?format=json|overlay, ?fields=1)
  POST /v1/decode/pdf  - Decode the images of an uploaded PDF (?pages=1-3)
  GET  /v1/ws          - WebSocket streaming one message per attempt
  GET  /metrics        - Prometheus metrics

Requests never write artifacts to disk.

Examples:
  codescan serve
  codescan serve --port 8080
  codescan serve --host 0.0.0.0 --port 3000 --engine local`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if err := cfg.Validate(); err != nil {
		return err
	}

	srv, err := newDecodeServer(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	timeout := time.Duration(cfg.Server.TimeoutSec) * time.Second
	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       timeout,
		// Decoding runs inside the write window.
		WriteTimeout: timeout + 5*time.Second,
	}

	go func() {
		slog.Info("Starting decode server", "host", cfg.Server.Host, "port", cfg.Server.Port, "engine", cfg.Engine.Name)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "error", err)
			cancel()
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		slog.Info("Received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
		slog.Info("Context cancelled, initiating shutdown")
	}

	shutdownTimeout := time.Duration(cfg.Server.ShutdownTimeout) * time.Second
	slog.Info("Starting graceful shutdown", "timeout", shutdownTimeout.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
		return fmt.Errorf("shutdown: %w", err)
	}
	slog.Info("Graceful shutdown completed")
	return nil
}

// newDecodeServer builds the artifact-free pipeline and the HTTP server around it.
func newDecodeServer(cfg *config.Config) (*server.Server, error) {
	engCfg, err := cfg.ToEngineConfig()
	if err != nil {
		return nil, fmt.Errorf("invalid engine configuration: %w", err)
	}
	eng, err := selectEngine(engCfg)
	if err != nil {
		return nil, err
	}

	b, err := cfg.ToPipelineBuilder()
	if err != nil {
		return nil, err
	}
	// Fields are applied per request.
	p, err := b.WithEngine(eng).
		WithOutputDir("").
		WithFields(false).
		WithObserver(pipeline.LogProgress(slog.Default(), slog.LevelDebug)).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build pipeline: %w", err)
	}

	st, err := cfg.ToStyle()
	if err != nil {
		return nil, err
	}

	srv, err := server.NewServer(server.Config{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		CORSOrigin:     cfg.Server.CORSOrigin,
		MaxUploadMB:    int64(cfg.Server.MaxUploadMB),
		TimeoutSec:     cfg.Server.TimeoutSec,
		OverlayEnabled: cfg.Server.OverlayEnabled,
		Pipeline:       p,
		EngineConfig:   engCfg,
		Style:          st,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize server: %w", err)
	}
	return srv, nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
	addEngineFlags(serveCmd)

	serveCmd.Flags().StringP("host", "H", "localhost", "server host")
	serveCmd.Flags().IntP("port", "p", 8080, "server port")
	serveCmd.Flags().String("cors-origin", "*", "CORS allowed origins")
	serveCmd.Flags().Int("max-upload-size", 50, "maximum upload size in MB")
	serveCmd.Flags().Int("timeout", 30, "request timeout in seconds")
	serveCmd.Flags().Int("shutdown-timeout", 10, "shutdown timeout in seconds")
	serveCmd.Flags().Bool("overlay-enable", true, "enable overlay image responses")
	serveCmd.Flags().String("polygon-color", "#00FF00", "overlay polygon color (hex)")
	serveCmd.Flags().String("label-color", "#FF0000", "overlay label color (hex)")

	registerBindings(serveCmd, false,
		flagBinding{"server.host", "host"},
		flagBinding{"server.port", "port"},
		flagBinding{"server.cors_origin", "cors-origin"},
		flagBinding{"server.max_upload_mb", "max-upload-size"},
		flagBinding{"server.timeout_sec", "timeout"},
		flagBinding{"server.shutdown_timeout", "shutdown-timeout"},
		flagBinding{"server.overlay_enabled", "overlay-enable"},
		flagBinding{"output.polygon_color", "polygon-color"},
		flagBinding{"output.label_color", "label-color"},
	)
}
