package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/codescan/internal/batch"
)

// batchCmd represents the batch command.
var batchCmd = &cobra.Command{
	Use:   "batch <path>...",
	Short: "Decode barcodes from many images in parallel",
	Long: `Decode barcodes from many image files in parallel.

Directories are scanned for PNG, JPEG, GIF, BMP, TIFF and WebP files
(recursively with --recursive). Every image gets the full orientation
fallback. Results are printed in input order. No per-image artifacts are
written; use --output-file to save the report.

Exit codes: 0 when every image decoded, 2 when some image had no symbol,
1 when an image could not be scanned.

Examples:
  codescan batch scans/
  codescan batch scans/ --recursive --workers 8 --format csv --output-file codes.csv
  codescan batch a.png b.jpg --include "*.png" --fields --format json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if err := cfg.Validate(); err != nil {
		return err
	}

	bcfg := batch.DefaultConfig()
	if cmd.Flags().Changed("workers") {
		bcfg.Workers, _ = cmd.Flags().GetInt("workers")
	}
	bcfg.Recursive, _ = cmd.Flags().GetBool("recursive")
	bcfg.IncludePatterns, _ = cmd.Flags().GetStringSlice("include")
	bcfg.ExcludePatterns, _ = cmd.Flags().GetStringSlice("exclude")
	bcfg.FailFast, _ = cmd.Flags().GetBool("fail-fast")
	format, _ := cmd.Flags().GetString("format")
	outputFile, _ := cmd.Flags().GetString("output-file")
	showStats, _ := cmd.Flags().GetBool("stats")

	if !slices.Contains(batch.OutputFormats, strings.ToLower(format)) {
		return fmt.Errorf("invalid batch format: %s (must be one of: %s)", format, strings.Join(batch.OutputFormats, ", "))
	}

	files, err := batch.DiscoverImageFiles(args, bcfg.Recursive, bcfg.IncludePatterns, bcfg.ExcludePatterns)
	if err != nil {
		return fmt.Errorf("failed to discover image files: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no image files found in %s", strings.Join(args, ", "))
	}

	// Artifacts are named per run, so a batch never writes them. Progress is
	// reported per file instead of per attempt.
	showProgress := cfg.Output.Progress
	cfg.Output.Dir = ""
	cfg.Output.Progress = false
	p, err := buildPipeline(cmd, cfg)
	if err != nil {
		return err
	}

	ctx, stop := commandContext(cmd)
	defer stop()

	var progress batch.ProgressFunc
	if showProgress {
		errOut := cmd.ErrOrStderr()
		progress = func(done, total int, it batch.Item) {
			state := "not found"
			switch {
			case it.Error != "":
				state = "error"
			case it.Found():
				state = "found"
			}
			fmt.Fprintf(errOut, "[%d/%d] %s: %s\n", done, total, it.File, state)
		}
	}

	res, err := batch.Process(ctx, p, files, bcfg, progress)
	if err != nil {
		return fmt.Errorf("batch processing failed: %w", err)
	}

	out, err := res.Format(format)
	if err != nil {
		return err
	}
	if outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(out), 0o600); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		slog.Info("Batch results written", "file", outputFile)
	} else if _, err := fmt.Fprint(cmd.OutOrStdout(), out); err != nil {
		return err
	}

	st := res.Stats()
	if showStats {
		printBatchStats(cmd, st)
	}
	switch {
	case st.Failed > 0:
		return fmt.Errorf("%d of %d images could not be scanned", st.Failed, st.Total)
	case st.NotFound > 0:
		return fmt.Errorf("%d of %d images: %w", st.NotFound, st.Total, ErrNotFound)
	}
	return nil
}

func printBatchStats(cmd *cobra.Command, st batch.Stats) {
	w := cmd.ErrOrStderr()
	_, _ = fmt.Fprintf(w, "\nProcessing Statistics:\n")
	_, _ = fmt.Fprintf(w, "  Total images: %d\n", st.Total)
	_, _ = fmt.Fprintf(w, "  Found: %d\n", st.Found)
	_, _ = fmt.Fprintf(w, "  Not found: %d\n", st.NotFound)
	_, _ = fmt.Fprintf(w, "  Failed: %d\n", st.Failed)
	_, _ = fmt.Fprintf(w, "  Workers: %d\n", st.Workers)
	_, _ = fmt.Fprintf(w, "  Duration: %v\n", st.Duration.Round(time.Millisecond))
	_, _ = fmt.Fprintf(w, "  Avg per image: %v\n", st.AveragePerImage.Round(time.Millisecond))
	_, _ = fmt.Fprintf(w, "  Throughput: %.1f images/sec\n", st.ThroughputPerSec)
}

func init() {
	rootCmd.AddCommand(batchCmd)
	addEngineFlags(batchCmd)

	batchCmd.Flags().IntP("workers", "w", 0, "number of parallel workers (default: number of CPUs)")
	batchCmd.Flags().BoolP("recursive", "r", false, "scan directories recursively")
	batchCmd.Flags().StringSlice("include", nil, "file patterns to include, e.g. *.png (default: all image types)")
	batchCmd.Flags().StringSlice("exclude", nil, "file patterns to exclude")
	batchCmd.Flags().Bool("fail-fast", false, "stop at the first image that cannot be scanned")
	batchCmd.Flags().StringP("format", "f", "text", "report format: text, json, yaml or csv")
	batchCmd.Flags().String("output-file", "", "write the report to a file instead of stdout")
	batchCmd.Flags().Bool("stats", false, "print processing statistics to stderr")
	batchCmd.Flags().Bool("fields", false, "extract identifier, name and birth year from payloads")
	batchCmd.Flags().Bool("progress", false, "print one line per finished image to stderr")

	registerBindings(batchCmd, false,
		flagBinding{"output.fields", "fields"},
		flagBinding{"output.progress", "progress"},
	)
}
