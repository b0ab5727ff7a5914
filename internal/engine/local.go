package engine

import (
	"context"
	"fmt"
	"strings"

	gozxing "github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/aztec"
	"github.com/makiuchi-d/gozxing/datamatrix"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/qrcode"

	"github.com/MeKo-Tech/codescan/internal/barcode"
	"github.com/MeKo-Tech/codescan/internal/decode"
)

// localReaders maps every format gozxing can read to a reader constructor.
// Readers keep internal state, so a fresh one is built per candidate.
var localReaders = map[barcode.Format]func() gozxing.Reader{
	barcode.FormatQR:         func() gozxing.Reader { return qrcode.NewQRCodeReader() },
	barcode.FormatDataMatrix: func() gozxing.Reader { return datamatrix.NewDataMatrixReader() },
	barcode.FormatAztec:      func() gozxing.Reader { return aztec.NewAztecReader() },
	barcode.FormatCode128:    func() gozxing.Reader { return oned.NewCode128Reader() },
	barcode.FormatCode39:     func() gozxing.Reader { return oned.NewCode39Reader() },
	barcode.FormatCode93:     func() gozxing.Reader { return oned.NewCode93Reader() },
	barcode.FormatEAN8:       func() gozxing.Reader { return oned.NewEAN8Reader() },
	barcode.FormatEAN13:      func() gozxing.Reader { return oned.NewEAN13Reader() },
	barcode.FormatUPCA:       func() gozxing.Reader { return oned.NewUPCAReader() },
	barcode.FormatUPCE:       func() gozxing.Reader { return oned.NewUPCEReader() },
	barcode.FormatITF:        func() gozxing.Reader { return oned.NewITFReader() },
	barcode.FormatCodabar:    func() gozxing.Reader { return oned.NewCodaBarReader() },
}

// LocalSupports reports whether the in-process engine can read f.
func LocalSupports(f barcode.Format) bool {
	_, ok := localReaders[f]
	return ok
}

// LocalFormats returns the formats the in-process engine reads, in catalogue order.
func LocalFormats() []barcode.Format {
	var out []barcode.Format
	for _, f := range barcode.All() {
		if LocalSupports(f) {
			out = append(out, f)
		}
	}
	return out
}

// Local decodes candidates in-process with gozxing.
type Local struct {
	formats   []barcode.Format
	tryHarder bool
}

// NewLocal creates the in-process engine. An empty format list means every
// format in LocalFormats.
func NewLocal(cfg Config) (*Local, error) {
	formats := cfg.Formats
	if len(formats) == 0 {
		formats = LocalFormats()
	}
	var unsupported []string
	for _, f := range formats {
		if !LocalSupports(f) {
			unsupported = append(unsupported, f.String())
		}
	}
	if len(unsupported) > 0 {
		return nil, &decode.EngineUnavailableError{
			Engine: NameLocal,
			Reason: "gozxing cannot read " + strings.Join(unsupported, ", "),
			Remedy: "use --engine cli with the ZXing jars",
		}
	}
	return &Local{formats: formats, tryHarder: cfg.TryHarder}, nil
}

// Name implements decode.Engine.
func (l *Local) Name() string { return NameLocal }

// Formats returns the formats this engine tries, in order.
func (l *Local) Formats() []barcode.Format { return l.formats }

// Decode implements decode.Engine. The transcript mimics the ZXing
// CommandLineRunner output for the same candidate.
func (l *Local) Decode(ctx context.Context, c *decode.Candidate) (transcript string, err error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	source := candidateURI(c)

	// gozxing panics on some degenerate inputs.
	defer func() {
		if r := recover(); r != nil {
			err = &decode.EngineExecutionError{
				Engine:   NameLocal,
				Rotation: c.Rotation,
				Err:      fmt.Errorf("gozxing panic: %v", r),
			}
		}
	}()

	bmp, err := gozxing.NewBinaryBitmapFromImage(c.Image)
	if err != nil {
		return "", &decode.EngineExecutionError{Engine: NameLocal, Rotation: c.Rotation, Err: err}
	}

	hints := map[gozxing.DecodeHintType]interface{}{}
	if l.tryHarder {
		hints[gozxing.DecodeHintType_TRY_HARDER] = true
	}

	for _, f := range l.formats {
		reader := localReaders[f]()
		res, derr := reader.Decode(bmp, hints)
		if derr != nil || res == nil {
			// NotFound, Checksum and Format failures all mean "not this format".
			continue
		}
		return formatTranscript(source, f, res), nil
	}
	return fmt.Sprintf("%s: %s", source, decode.NoSymbolSentinel), nil
}

func candidateURI(c *decode.Candidate) string {
	return fmt.Sprintf("memory:candidate_%d_%s", c.Index, c.Rotation)
}

// formatTranscript renders a gozxing result the way CommandLineRunner prints it.
func formatTranscript(source string, f barcode.Format, res *gozxing.Result) string {
	text := res.GetText()
	pts := res.GetResultPoints()

	var b strings.Builder
	fmt.Fprintf(&b, "%s (format: %s, type: %s):\n", source, f.ZXingName(), resultType(text))
	b.WriteString("Raw result:\n")
	b.WriteString(text)
	b.WriteString("\nParsed result:\n")
	b.WriteString(text)
	fmt.Fprintf(&b, "\nFound %d result points.\n", len(pts))
	for i, p := range pts {
		if p == nil {
			continue
		}
		fmt.Fprintf(&b, "  Point %d: (%.1f,%.1f)\n", i, p.GetX(), p.GetY())
	}
	return b.String()
}

// resultType approximates ZXing's parsed result type for the header line.
func resultType(text string) string {
	lower := strings.ToLower(text)
	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return "URI"
	case strings.HasPrefix(lower, "wifi:"):
		return "WIFI"
	case strings.HasPrefix(lower, "begin:vcard"), strings.HasPrefix(lower, "mecard:"):
		return "ADDRESSBOOK"
	default:
		return "TEXT"
	}
}

var _ decode.Engine = (*Local)(nil)
