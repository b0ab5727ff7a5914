package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// OutputFormats lists the result serializations supported by Format.
var OutputFormats = []string{"text", "json", "yaml"}

// Format serializes v (a *ScanResult or *PDFScanResult) as text, json or yaml.
func Format(v any, format string) (string, error) {
	switch strings.ToLower(format) {
	case "", "text":
		switch r := v.(type) {
		case *ScanResult:
			return ToPlainText(r)
		case *PDFScanResult:
			return ToPlainTextPDF(r)
		default:
			return "", fmt.Errorf("cannot render %T as text", v)
		}
	case "json":
		return ToJSON(v)
	case "yaml", "yml":
		return ToYAML(v)
	default:
		return "", fmt.Errorf("unsupported output format %q (use one of %s)", format, strings.Join(OutputFormats, ", "))
	}
}

// ToJSON serializes v to pretty JSON.
func ToJSON(v any) (string, error) {
	if v == nil {
		return "", errors.New("nil result")
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ToYAML serializes v to YAML.
func ToYAML(v any) (string, error) {
	if v == nil {
		return "", errors.New("nil result")
	}
	b, err := yaml.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ToPlainText renders the payload followed by polygon, fields and artifacts.
// Without a symbol it renders a single "No barcode found" line.
func ToPlainText(res *ScanResult) (string, error) {
	if res == nil {
		return "", errors.New("nil result")
	}
	if !res.Found {
		return "No barcode found", nil
	}

	var b strings.Builder
	b.WriteString(res.Payload)
	b.WriteString("\n")
	fmt.Fprintf(&b, "rotation: %s\n", res.Rotation)
	if len(res.Polygon) > 0 {
		pts := make([]string, len(res.Polygon))
		for i, p := range res.Polygon {
			pts[i] = fmt.Sprintf("(%d,%d)", p.X, p.Y)
		}
		fmt.Fprintf(&b, "polygon: %s\n", strings.Join(pts, " "))
	}
	if f := res.Fields["format"]; f != "" {
		fmt.Fprintf(&b, "format: %s\n", f)
	}
	if res.Extracted != nil {
		m := res.Extracted.Map()
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "%s: %s\n", k, m[k])
		}
	}
	if res.TextPath != "" {
		fmt.Fprintf(&b, "text: %s\n", res.TextPath)
	}
	if res.ImagePath != "" {
		fmt.Fprintf(&b, "annotated: %s\n", res.ImagePath)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

// ToPlainTextPDF renders a PDF scan, prefixed with the page of the hit.
func ToPlainTextPDF(res *PDFScanResult) (string, error) {
	if res == nil {
		return "", errors.New("nil result")
	}
	if !res.Found() {
		return fmt.Sprintf("No barcode found (%d pages, %d images scanned)", res.PagesScanned, res.ImagesScanned), nil
	}
	body, err := ToPlainText(res.Result)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("page: %d\n%s", res.Result.Page, body), nil
}

// ValidateScanResult performs simple consistency checks.
func ValidateScanResult(res *ScanResult) error {
	if res == nil {
		return errors.New("nil result")
	}
	if res.Found && res.Payload == "" {
		return errors.New("found result has empty payload")
	}
	if n := len(res.Polygon); n > 0 && n < 4 {
		return fmt.Errorf("polygon has %d points, need 0 or at least 4", n)
	}
	for i, p := range res.Polygon {
		if p.X < 0 || p.Y < 0 || (res.Width > 0 && p.X >= res.Width) || (res.Height > 0 && p.Y >= res.Height) {
			return fmt.Errorf("polygon point %d (%d,%d) outside %dx%d image", i, p.X, p.Y, res.Width, res.Height)
		}
	}
	return nil
}
