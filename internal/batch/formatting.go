package batch

import (
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/MeKo-Tech/codescan/internal/pipeline"
)

// OutputFormats lists the serializations supported by Format.
var OutputFormats = []string{"text", "json", "yaml", "csv"}

// Format renders the batch result as text, json, yaml or csv.
func (r *Result) Format(format string) (string, error) {
	switch strings.ToLower(format) {
	case "", "text":
		return formatText(r)
	case "json":
		return pipeline.ToJSON(r)
	case "yaml", "yml":
		return pipeline.ToYAML(r)
	case "csv":
		return formatCSV(r)
	default:
		return "", fmt.Errorf("unsupported batch format %q (use one of %s)", format, strings.Join(OutputFormats, ", "))
	}
}

// formatText renders one "# file" section per item.
func formatText(r *Result) (string, error) {
	var output strings.Builder
	for i, it := range r.Items {
		if i > 0 {
			output.WriteString("\n")
		}
		fmt.Fprintf(&output, "# %s\n", it.File)
		if it.Error != "" {
			fmt.Fprintf(&output, "error: %s\n", it.Error)
			continue
		}
		text, err := pipeline.ToPlainText(it.Result)
		if err != nil {
			return "", err
		}
		output.WriteString(text)
		output.WriteString("\n")
	}
	return output.String(), nil
}

// formatCSV renders one row per item.
func formatCSV(r *Result) (string, error) {
	var output strings.Builder
	writer := csv.NewWriter(&output)
	rows := [][]string{{"file", "found", "payload", "rotation", "engine", "polygon", "error"}}

	for _, it := range r.Items {
		row := []string{it.File, "false", "", "", "", "", it.Error}
		if res := it.Result; res != nil {
			row[1] = fmt.Sprint(res.Found)
			row[2] = res.Payload
			row[4] = res.Engine
			if res.Found {
				row[3] = res.Rotation.String()
			}
			pts := make([]string, len(res.Polygon))
			for i, p := range res.Polygon {
				pts[i] = fmt.Sprintf("%d %d", p.X, p.Y)
			}
			row[5] = strings.Join(pts, ";")
		}
		rows = append(rows, row)
	}

	if err := writer.WriteAll(rows); err != nil {
		return "", err
	}
	return output.String(), nil
}
