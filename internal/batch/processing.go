package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/MeKo-Tech/codescan/internal/pipeline"
)

// Scanner scans one image file. *pipeline.Pipeline satisfies it.
type Scanner interface {
	ProcessFile(ctx context.Context, path string) (*pipeline.ScanResult, error)
}

// ProgressFunc is called after every finished file with the number of
// finished files so far. Calls are serialized.
type ProgressFunc func(done, total int, item Item)

type job struct {
	index int
	path  string
}

type jobResult struct {
	index int
	item  Item
	err   error
}

// Process scans files with a pool of workers sharing s. Items are returned in
// input order. With cfg.FailFast the first scan error cancels the remaining
// work and is returned; otherwise errors are recorded per item.
func Process(ctx context.Context, s Scanner, files []string, cfg Config, progress ProgressFunc) (*Result, error) {
	if s == nil {
		return nil, errors.New("batch needs a scanner")
	}
	if len(files) == 0 {
		return nil, errors.New("no image files found")
	}

	parent := ctx
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	workers := cfg.workers(len(files))
	jobs := make(chan job)
	results := make(chan jobResult, len(files))

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go worker(ctx, s, jobs, results, &wg)
	}

	go func() {
		defer close(jobs)
		for i, path := range files {
			select {
			case jobs <- job{index: i, path: path}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	start := time.Now()
	items := make([]Item, len(files))
	done := 0
	var firstErr error

	for r := range results {
		items[r.index] = r.item
		done++
		if r.err != nil {
			slog.Warn("Batch item failed", "file", r.item.File, "error", r.err)
			if cfg.FailFast && firstErr == nil {
				firstErr = fmt.Errorf("%s: %w", r.item.File, r.err)
				cancel()
			}
		}
		if progress != nil {
			progress(done, len(files), r.item)
		}
	}

	if firstErr != nil {
		return nil, firstErr
	}
	if err := parent.Err(); err != nil {
		return nil, err
	}

	res := &Result{Items: items, Workers: workers, Duration: time.Since(start)}
	st := res.Stats()
	slog.Info("Batch finished", "files", st.Total, "found", st.Found, "failed", st.Failed,
		"workers", workers, "ms", res.Duration.Milliseconds())
	return res, nil
}

// worker scans files from the jobs channel until it is closed.
func worker(ctx context.Context, s Scanner, jobs <-chan job, results chan<- jobResult, wg *sync.WaitGroup) {
	defer wg.Done()

	for {
		select {
		case j, ok := <-jobs:
			if !ok {
				return
			}
			item := Item{File: j.path}
			res, err := s.ProcessFile(ctx, j.path)
			if err != nil {
				item.Error = err.Error()
			} else {
				item.Result = res
			}
			results <- jobResult{index: j.index, item: item, err: err}
		case <-ctx.Done():
			return
		}
	}
}
