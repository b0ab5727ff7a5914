package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/MeKo-Tech/codescan/internal/pdf"
)

// PDFScanResult is the outcome of scanning the embedded images of a PDF.
type PDFScanResult struct {
	Filename      string `json:"filename"       yaml:"filename"`
	PagesScanned  int    `json:"pages_scanned"  yaml:"pages_scanned"`
	ImagesScanned int    `json:"images_scanned" yaml:"images_scanned"`
	// Result is the first found symbol, or the last scanned image when none was found.
	Result       *ScanResult `json:"result,omitempty" yaml:"result,omitempty"`
	ProcessingMs int64       `json:"processing_ms"    yaml:"processing_ms"`
}

// Found reports whether any page produced a symbol.
func (r *PDFScanResult) Found() bool { return r != nil && r.Result != nil && r.Result.Found }

// ProcessPDF scans the embedded images of a PDF in page order, one at a
// time, and stops at the first found symbol. pageRange restricts pages
// ("1-3,5"); empty means all.
func (p *Pipeline) ProcessPDF(ctx context.Context, filename string, pageRange string) (*PDFScanResult, error) {
	if filename == "" {
		return nil, errors.New("filename cannot be empty")
	}
	if p == nil || p.controller == nil {
		return nil, errors.New("pipeline not initialized")
	}
	start := time.Now()

	pageImages, err := pdf.ExtractImagesWithCredentials(filename, pageRange, p.cfg.Credentials)
	if err != nil {
		return nil, err
	}

	out := &PDFScanResult{Filename: filename}
	for _, page := range pdf.SortedPages(pageImages) {
		out.PagesScanned++
		for i, img := range pageImages[page] {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			out.ImagesScanned++
			res, err := p.ProcessImage(ctx, img, "")
			if err != nil {
				return nil, fmt.Errorf("page %d image %d: %w", page, i, err)
			}
			res.Source = fmt.Sprintf("%s#page=%d", filename, page)
			res.Page = page
			out.Result = res
			if res.Found {
				out.ProcessingMs = time.Since(start).Milliseconds()
				return out, nil
			}
		}
	}

	if out.ImagesScanned == 0 {
		slog.Warn("PDF contains no extractable images", "file", filename, "pages", pageRange)
	}
	out.ProcessingMs = time.Since(start).Milliseconds()
	return out, nil
}
