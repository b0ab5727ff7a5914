package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/codescan/internal/pdf"
)

// pdfCmd represents the pdf command.
var pdfCmd = &cobra.Command{
	Use:   "pdf <path>",
	Short: "Decode a barcode from the images embedded in a PDF",
	Long: `Extract the images embedded in a PDF and decode them page by page.

Pages are scanned in order and scanning stops at the first image that
decodes. Every image gets the full orientation fallback.

Encrypted documents need --password (user password) or --owner-password.

Examples:
  codescan pdf document.pdf
  codescan pdf scan.pdf --pages 1-3,5 --format json
  codescan pdf locked.pdf --password secret`,
	Args: cobra.ExactArgs(1),
	RunE: runPDF,
}

func runPDF(cmd *cobra.Command, args []string) error {
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

	res, err := p.ProcessPDF(ctx, args[0], cfg.PDF.Pages)
	if err != nil {
		if pdf.IsPasswordError(err) {
			return fmt.Errorf("failed to open %s: wrong or missing password (use --password): %w", args[0], err)
		}
		return fmt.Errorf("failed to scan %s: %w", args[0], err)
	}

	slog.Debug("PDF scanned", "file", args[0], "pages", res.PagesScanned, "images", res.ImagesScanned, "found", res.Found())
	return writeResult(cmd, res, cfg.Output.Format, res.Found())
}

func init() {
	rootCmd.AddCommand(pdfCmd)
	addEngineFlags(pdfCmd)
	addOutputFlags(pdfCmd)

	pdfCmd.Flags().String("pages", "", "page range to scan, e.g. 1-3,5 (default: all)")
	pdfCmd.Flags().String("password", "", "user password for encrypted PDFs")
	pdfCmd.Flags().String("owner-password", "", "owner password for encrypted PDFs")

	registerBindings(pdfCmd, false,
		flagBinding{"pdf.pages", "pages"},
		flagBinding{"pdf.user_password", "password"},
		flagBinding{"pdf.owner_password", "owner-password"},
	)
}
