package barcode

import (
	"fmt"
	"strings"
)

// Format represents a barcode symbology.
type Format int

const (
	FormatUnknown Format = iota
	FormatQR
	FormatDataMatrix
	FormatAztec
	FormatPDF417
	FormatMaxiCode
	FormatCode128
	FormatCode39
	FormatCode93
	FormatEAN8
	FormatEAN13
	FormatUPCA
	FormatUPCE
	FormatITF
	FormatCodabar
)

type formatInfo struct {
	name  string // short config/CLI name
	zxing string // ZXing BarcodeFormat constant
}

var formatTable = map[Format]formatInfo{
	FormatQR:         {"qr", "QR_CODE"},
	FormatDataMatrix: {"datamatrix", "DATA_MATRIX"},
	FormatAztec:      {"aztec", "AZTEC"},
	FormatPDF417:     {"pdf417", "PDF_417"},
	FormatMaxiCode:   {"maxicode", "MAXICODE"},
	FormatCode128:    {"code128", "CODE_128"},
	FormatCode39:     {"code39", "CODE_39"},
	FormatCode93:     {"code93", "CODE_93"},
	FormatEAN8:       {"ean8", "EAN_8"},
	FormatEAN13:      {"ean13", "EAN_13"},
	FormatUPCA:       {"upca", "UPC_A"},
	FormatUPCE:       {"upce", "UPC_E"},
	FormatITF:        {"itf", "ITF"},
	FormatCodabar:    {"codabar", "CODABAR"},
}

// aliases accepted by ParseFormat in addition to the short names.
var aliases = map[string]Format{
	"qrcode":      FormatQR,
	"qr_code":     FormatQR,
	"data_matrix": FormatDataMatrix,
	"pdf_417":     FormatPDF417,
	"code_128":    FormatCode128,
	"code_39":     FormatCode39,
	"code_93":     FormatCode93,
	"ean_8":       FormatEAN8,
	"ean_13":      FormatEAN13,
	"upc_a":       FormatUPCA,
	"upc_e":       FormatUPCE,
}

// String returns the short name, e.g. "qr".
func (f Format) String() string {
	if info, ok := formatTable[f]; ok {
		return info.name
	}
	return "unknown"
}

// ZXingName returns the ZXing BarcodeFormat spelling, e.g. "QR_CODE".
func (f Format) ZXingName() string {
	if info, ok := formatTable[f]; ok {
		return info.zxing
	}
	return "UNKNOWN"
}

// IsLinear reports whether f is a one-dimensional symbology.
func (f Format) IsLinear() bool {
	switch f {
	case FormatCode128, FormatCode39, FormatCode93, FormatEAN8, FormatEAN13,
		FormatUPCA, FormatUPCE, FormatITF, FormatCodabar:
		return true
	default:
		return false
	}
}

// ParseFormat resolves a short name, alias or ZXing constant (case-insensitive).
func ParseFormat(s string) (Format, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.ReplaceAll(key, "-", "_")
	for f, info := range formatTable {
		if key == info.name || key == strings.ToLower(info.zxing) {
			return f, nil
		}
	}
	if f, ok := aliases[key]; ok {
		return f, nil
	}
	return FormatUnknown, fmt.Errorf("unknown barcode format %q", s)
}

// ParseFormats parses a list of names, skipping blanks. Duplicates are dropped
// while preserving first-seen order.
func ParseFormats(names []string) ([]Format, error) {
	out := make([]Format, 0, len(names))
	seen := make(map[Format]bool, len(names))
	for _, n := range names {
		if strings.TrimSpace(n) == "" {
			continue
		}
		f, err := ParseFormat(n)
		if err != nil {
			return nil, err
		}
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out, nil
}

// All returns every known format in declaration order.
func All() []Format {
	out := make([]Format, 0, len(formatTable))
	for f := FormatQR; f <= FormatCodabar; f++ {
		out = append(out, f)
	}
	return out
}
