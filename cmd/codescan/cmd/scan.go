package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/codescan/internal/config"
	"github.com/MeKo-Tech/codescan/internal/decode"
	"github.com/MeKo-Tech/codescan/internal/engine"
	"github.com/MeKo-Tech/codescan/internal/pipeline"
)

// selectEngine is replaced in tests to avoid probing the host.
var selectEngine = engine.Select

// buildPipeline wires the configured engine, artifacts and progress reporting.
func buildPipeline(cmd *cobra.Command, cfg *config.Config) (*pipeline.Pipeline, error) {
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
	b.WithEngine(eng).WithObserver(progressObserver(cmd, cfg))

	p, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build pipeline: %w", err)
	}
	slog.Debug("Pipeline ready", "engine", eng.Name(), "output_dir", cfg.Output.Dir)
	return p, nil
}

func progressObserver(cmd *cobra.Command, cfg *config.Config) decode.Observer {
	logged := pipeline.LogProgress(slog.Default(), slog.LevelDebug)
	if !cfg.Output.Progress {
		return logged
	}
	return pipeline.ChainObservers(pipeline.ConsoleProgress(cmd.ErrOrStderr(), ""), logged)
}

// commandContext returns the command context cancelled on SIGINT or SIGTERM.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

// writeResult prints v in the configured format and returns ErrNotFound
// when no symbol was found.
func writeResult(cmd *cobra.Command, v any, format string, found bool) error {
	out, err := pipeline.Format(v, format)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), out); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	if !found {
		return ErrNotFound
	}
	return nil
}
