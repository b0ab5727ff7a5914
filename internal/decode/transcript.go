package decode

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// NoSymbolSentinel is printed by ZXing when a candidate holds no readable code.
const NoSymbolSentinel = "No barcode found"

const (
	labelRaw    = "Raw result:"
	labelParsed = "Parsed result:"
	pointPrefix = "  Point"

	minPolygonPoints = 4
)

// headerRE matches the ZXing CommandLineRunner header,
// e.g. "file:///tmp/a.png (format: QR_CODE, type: TEXT):".
var headerRE = regexp.MustCompile(`^(.*) \(format: ([A-Za-z0-9_]+), type: ([A-Za-z0-9_]+)\):$`)

// foundRE matches the line announcing the point lines, e.g. "Found 4 result points.".
var foundRE = regexp.MustCompile(`^Found \d+ result points?\.$`)

// Accepted reports whether a transcript counts as a successful decode.
func Accepted(transcript string) bool {
	t := strings.TrimSpace(transcript)
	return t != "" && !strings.Contains(t, NoSymbolSentinel)
}

// ParseTranscript turns a line-oriented engine transcript into a Result.
//
// Payload precedence: the value of "Raw result:", then "Parsed result:", then
// the plain-line rule (the first plain line, overwritten by every later plain
// line that does not start with "("). Fewer than four points yield no polygon.
//
// The only error is *TranscriptFormatError, for a point line whose payload is
// not two numbers. The returned Result is still usable in that case; its
// polygon is dropped.
func ParseTranscript(raw string) (Result, error) {
	lines := splitLines(raw)

	var (
		rawVal, parsedVal string
		plain             string
		havePlain         bool
		points            []Point
		formatErr         error
		fields            = map[string]string{}
	)
	// Lines consumed as a label's value are payload text whatever they start with.
	valueLines := map[int]bool{}

	for i, line := range lines {
		if valueLines[i] {
			continue
		}
		switch {
		case strings.HasPrefix(line, pointPrefix):
			if formatErr != nil {
				continue
			}
			p, err := parsePointLine(line)
			if err != nil {
				formatErr = &TranscriptFormatError{Line: i + 1, Text: line, Err: err}
				continue
			}
			points = append(points, p)
		case strings.HasPrefix(line, labelRaw):
			if rawVal == "" {
				rawVal = labelValue(lines, i, labelRaw, valueLines)
			}
		case strings.HasPrefix(line, labelParsed):
			if parsedVal == "" {
				parsedVal = labelValue(lines, i, labelParsed, valueLines)
			}
		case foundRE.MatchString(strings.TrimSpace(line)):
			// "Found N result points." only announces the point lines below.
		default:
			t := strings.TrimSpace(line)
			if t == "" {
				continue
			}
			if m := headerRE.FindStringSubmatch(t); m != nil && fields["format"] == "" {
				fields["source"] = m[1]
				fields["format"] = m[2]
				fields["type"] = m[3]
			}
			if !havePlain {
				plain, havePlain = t, true
			} else if !strings.HasPrefix(t, "(") {
				plain = t
			}
		}
	}

	res := Result{}
	switch {
	case rawVal != "":
		res.Payload = rawVal
	case parsedVal != "":
		res.Payload = parsedVal
	default:
		res.Payload = plain
	}
	if rawVal != "" {
		fields["raw"] = rawVal
	}
	if parsedVal != "" {
		fields["parsed"] = parsedVal
	}
	if len(fields) > 0 {
		res.Fields = fields
	}
	if formatErr == nil && len(points) >= minPolygonPoints {
		res.Polygon = points
	}
	return res, formatErr
}

// labelValue returns the value introduced by the label on lines[i]: inline text
// after the label if any, otherwise the next non-empty line, which is recorded
// in used.
func labelValue(lines []string, i int, label string, used map[int]bool) string {
	if inline := strings.TrimSpace(strings.TrimPrefix(lines[i], label)); inline != "" {
		return inline
	}
	for j := i + 1; j < len(lines); j++ {
		if t := strings.TrimSpace(lines[j]); t != "" {
			used[j] = true
			return t
		}
	}
	return ""
}

// parsePointLine parses "  Point 0: (12.5, 40.0)" into a truncated Point.
func parsePointLine(line string) (Point, error) {
	idx := strings.Index(line, ":")
	if idx < 0 {
		return Point{}, errors.New("missing ':' separator")
	}
	body := strings.NewReplacer("(", "", ")", "").Replace(line[idx+1:])
	parts := strings.Split(strings.TrimSpace(body), ",")
	if len(parts) != 2 {
		return Point{}, fmt.Errorf("want 2 coordinates, got %d", len(parts))
	}
	var xy [2]int
	for k, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return Point{}, err
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Point{}, fmt.Errorf("non-finite coordinate %q", strings.TrimSpace(part))
		}
		xy[k] = int(v)
	}
	return Point{X: xy[0], Y: xy[1]}, nil
}

func splitLines(s string) []string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, "\r")
	}
	return lines
}
