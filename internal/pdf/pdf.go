package pdf

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/codescan/internal/utils"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// ErrInvalidPDF marks failures caused by the input document or the page
// range rather than by the host.
var ErrInvalidPDF = errors.New("invalid PDF input")

// ExtractImages extracts all embedded raster images from a PDF file, grouped
// by 1-based page number. pageRange restricts extraction ("1-3,5"); empty
// means every page.
func ExtractImages(filename string, pageRange string) (map[int][]image.Image, error) {
	return ExtractImagesWithCredentials(filename, pageRange, nil)
}

// ExtractImagesWithCredentials is ExtractImages for password-protected files.
func ExtractImagesWithCredentials(filename, pageRange string, creds *PasswordCredentials) (map[int][]image.Image, error) {
	pageNumbers, err := parsePageRange(pageRange)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid page range %q: %w", ErrInvalidPDF, pageRange, err)
	}

	tempDir, err := os.MkdirTemp("", "codescan-pdf-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(tempDir) }()

	var pageStrings []string
	if len(pageNumbers) > 0 {
		pageStrings = make([]string, len(pageNumbers))
		for i, pageNum := range pageNumbers {
			pageStrings[i] = strconv.Itoa(pageNum)
		}
	}

	if err := api.ExtractImagesFile(filename, tempDir, pageStrings, configuration(creds)); err != nil {
		if IsPasswordError(err) {
			return nil, fmt.Errorf("%w: failed to extract images from PDF (password required or wrong): %w", ErrInvalidPDF, err)
		}
		return nil, fmt.Errorf("%w: failed to extract images from PDF: %w", ErrInvalidPDF, err)
	}

	result, err := collectExtractedImages(tempDir, fileStem(filename))
	if err != nil {
		return nil, fmt.Errorf("failed to process extracted images: %w", err)
	}
	slog.Debug("Extracted PDF images", "file", filename, "pages", len(result))
	return result, nil
}

// SortedPages returns the page numbers of an extraction result in ascending order.
func SortedPages(images map[int][]image.Image) []int {
	pages := make([]int, 0, len(images))
	for p := range images {
		pages = append(pages, p)
	}
	slices.Sort(pages)
	return pages
}

func fileStem(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// collectExtractedImages walks dir and groups readable images by page number.
// Files that do not follow an extraction naming scheme, or do not decode, are
// skipped.
func collectExtractedImages(dir, stem string) (map[int][]image.Image, error) {
	result := make(map[int][]image.Image)

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		pageNum, err := parsePageFromFilename(info.Name(), stem)
		if err != nil {
			return nil
		}

		img, _, err := utils.LoadImage(path)
		if err != nil {
			slog.Debug("Skipping unreadable extracted image", "file", info.Name(), "error", err)
			return nil
		}
		result[pageNum] = append(result[pageNum], img)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// parsePageFromFilename extracts the page number from an extracted image name.
// Two layouts are understood: page_<n>_image_<i>.<ext> and pdfcpu's
// <stem>_<n>_<id>.<ext>, where stem is the PDF's base name.
func parsePageFromFilename(filename, stem string) (int, error) {
	var rest string
	switch {
	case stem != "" && strings.HasPrefix(filename, stem+"_"):
		rest = strings.TrimPrefix(filename, stem+"_")
	case strings.HasPrefix(filename, "page_"):
		rest = strings.TrimPrefix(filename, "page_")
	default:
		return 0, errors.New("not a page file")
	}

	token, _, _ := strings.Cut(strings.TrimSuffix(rest, filepath.Ext(rest)), "_")
	if token == "" {
		return 0, errors.New("invalid filename format")
	}
	pageNum, err := strconv.Atoi(token)
	if err != nil {
		return 0, errors.New("invalid page number")
	}
	return pageNum, nil
}

// parsePageRange parses a page range string like "1-5" or "1,3,5".
func parsePageRange(pageRange string) ([]int, error) {
	if strings.TrimSpace(pageRange) == "" {
		return nil, nil
	}

	var pages []int
	for _, part := range strings.Split(pageRange, ",") {
		tokenPages, err := parseRangeToken(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		pages = append(pages, tokenPages...)
	}
	return pages, nil
}

// parseRangeToken parses either a single page ("3") or a range ("1-5").
func parseRangeToken(part string) ([]int, error) {
	if strings.Contains(part, "-") {
		rangeParts := strings.Split(part, "-")
		if len(rangeParts) != 2 {
			return nil, fmt.Errorf("invalid range format: %s", part)
		}
		start, err := strconv.Atoi(strings.TrimSpace(rangeParts[0]))
		if err != nil {
			return nil, fmt.Errorf("invalid start page: %s", rangeParts[0])
		}
		end, err := strconv.Atoi(strings.TrimSpace(rangeParts[1]))
		if err != nil {
			return nil, fmt.Errorf("invalid end page: %s", rangeParts[1])
		}
		if start > end {
			return nil, fmt.Errorf("start page %d greater than end page %d", start, end)
		}
		out := make([]int, 0, end-start+1)
		for i := start; i <= end; i++ {
			out = append(out, i)
		}
		return out, nil
	}
	page, err := strconv.Atoi(part)
	if err != nil {
		return nil, fmt.Errorf("invalid page number: %s", part)
	}
	return []int{page}, nil
}
