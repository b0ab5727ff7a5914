package cmd

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/codescan/internal/pipeline"
)

// stdinName labels results read from standard input.
const stdinName = "stdin"

// imageCmd represents the image command.
var imageCmd = &cobra.Command{
	Use:   "image <path|->",
	Short: "Decode a barcode from an image file",
	Long: `Decode a barcode from an image file, or from standard input when the
path is "-".

The image is tried at 0°, 90° clockwise, 90° counter-clockwise and 180°.
The first orientation that decodes wins. The payload is written to
decoded_<name>.txt and, when the decoder reports corner points, an
annotated copy to annotated_<name>.<ext> in the output directory.

Supported inputs: PNG, JPEG, GIF, BMP, TIFF and WebP.

Examples:
  codescan image label.png
  codescan image scan.jpg --format json --fields
  codescan image photo.webp --engine cli --formats pdf_417 --progress
  cat label.png | codescan image - --no-annotate`,
	Args: cobra.ExactArgs(1),
	RunE: runImage,
}

func runImage(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if err := cfg.Validate(); err != nil {
		return err
	}

	p, err := buildPipeline(cmd, cfg)
	if err != nil {
		return err
	}

	ctx, stop := commandContext(cmd)
	defer stop()

	var res *pipeline.ScanResult
	if args[0] == "-" {
		res, err = p.ProcessReader(ctx, cmd.InOrStdin(), stdinName)
	} else {
		res, err = p.ProcessFile(ctx, args[0])
	}
	if err != nil {
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			return fmt.Errorf("scan interrupted: %w", err)
		}
		return fmt.Errorf("failed to scan %s: %w", args[0], err)
	}

	if res.Found {
		slog.Debug("Symbol decoded", "source", res.Source, "rotation", res.Rotation.String(),
			"text", res.TextPath, "annotated", res.ImagePath)
	}
	return writeResult(cmd, res, cfg.Output.Format, res.Found)
}

func init() {
	rootCmd.AddCommand(imageCmd)
	addEngineFlags(imageCmd)
	addOutputFlags(imageCmd)
}
