// Package batch scans many images with one pipeline, in parallel, and
// reports the results in input order.
package batch

import (
	"runtime"
	"time"

	"github.com/MeKo-Tech/codescan/internal/pipeline"
)

// Config holds all configuration for batch processing.
type Config struct {
	// Workers is the number of parallel scans (0 = runtime.NumCPU()).
	Workers int

	// File discovery settings
	Recursive       bool
	IncludePatterns []string
	ExcludePatterns []string

	// FailFast stops at the first image that cannot be scanned. Otherwise the
	// error is recorded on the item and the remaining images are scanned.
	FailFast bool
}

// DefaultConfig returns sensible defaults for batch processing.
func DefaultConfig() Config {
	return Config{Workers: runtime.NumCPU()}
}

func (c Config) workers(jobs int) int {
	n := c.Workers
	if n <= 0 {
		n = runtime.NumCPU()
	}
	if n > jobs {
		n = jobs
	}
	return max(n, 1)
}

// Item is the outcome for one input file.
type Item struct {
	File   string               `json:"file"             yaml:"file"`
	Result *pipeline.ScanResult `json:"result,omitempty" yaml:"result,omitempty"`
	Error  string               `json:"error,omitempty"  yaml:"error,omitempty"`
}

// Found reports whether the item decoded a symbol.
func (i Item) Found() bool { return i.Result != nil && i.Result.Found }

// Result holds the result of batch processing.
type Result struct {
	Items    []Item        `json:"items"       yaml:"items"`
	Workers  int           `json:"workers"     yaml:"workers"`
	Duration time.Duration `json:"duration_ns" yaml:"duration"`
}

// Stats summarizes a batch run.
type Stats struct {
	Total            int           `json:"total"`
	Found            int           `json:"found"`
	NotFound         int           `json:"not_found"`
	Failed           int           `json:"failed"`
	Workers          int           `json:"workers"`
	Duration         time.Duration `json:"duration_ns"`
	AveragePerImage  time.Duration `json:"average_per_image_ns"`
	ThroughputPerSec float64       `json:"throughput_per_sec"`
}

// Stats calculates counts and throughput for the run.
func (r *Result) Stats() Stats {
	s := Stats{Total: len(r.Items), Workers: r.Workers, Duration: r.Duration}
	for _, it := range r.Items {
		switch {
		case it.Error != "":
			s.Failed++
		case it.Found():
			s.Found++
		default:
			s.NotFound++
		}
	}
	if scanned := s.Found + s.NotFound; scanned > 0 && r.Duration > 0 {
		s.AveragePerImage = r.Duration / time.Duration(scanned)
		s.ThroughputPerSec = float64(scanned) / r.Duration.Seconds()
	}
	return s
}
