package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/codescan/internal/decode"
	"github.com/MeKo-Tech/codescan/internal/fields"
	"github.com/MeKo-Tech/codescan/internal/pipeline"
)

// transcriptEngine names the pseudo engine of replayed transcripts.
const transcriptEngine = "transcript"

// transcriptCmd represents the transcript command.
var transcriptCmd = &cobra.Command{
	Use:   "transcript [file|-]",
	Short: "Parse a saved decoder transcript",
	Long: `Parse the output of a ZXing CommandLineRunner run (or of "codescan image
--engine local") and print the payload, polygon and extracted fields.

Reads standard input when no file or "-" is given.

Examples:
  java -cp ... com.google.zxing.client.j2se.CommandLineRunner card.png > card.txt
  codescan transcript card.txt --format json
  docker run ... | codescan transcript -`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTranscript,
}

func runTranscript(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	source := stdinName
	var r io.Reader = cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		source = args[0]
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open transcript: %w", err)
		}
		defer func() { _ = f.Close() }()
		r = f
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read transcript: %w", err)
	}

	res := parseTranscriptResult(string(raw), source)
	return writeResult(cmd, res, cfg.Output.Format, res.Found)
}

// parseTranscriptResult builds a scan result from one transcript. A malformed
// point line only drops the polygon.
func parseTranscriptResult(raw, source string) *pipeline.ScanResult {
	res := &pipeline.ScanResult{Source: source, Engine: transcriptEngine}
	if !decode.Accepted(raw) {
		return res
	}

	parsed, err := decode.ParseTranscript(raw)
	var formatErr *decode.TranscriptFormatError
	if errors.As(err, &formatErr) {
		slog.Warn("Transcript has a malformed point line, polygon dropped", "source", source, "error", err)
	}

	res.Found = true
	res.Payload = parsed.Payload
	res.Polygon = parsed.Polygon
	res.Fields = parsed.Fields
	f := fields.Extract(parsed.Payload)
	res.Extracted = &f
	return res
}

func init() {
	rootCmd.AddCommand(transcriptCmd)
	transcriptCmd.Flags().StringP("format", "f", "text", "result format: text, json or yaml")
	registerBindings(transcriptCmd, false, flagBinding{"output.format", "format"})
}
