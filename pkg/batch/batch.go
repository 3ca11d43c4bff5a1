// Package batch runs a per-file job over a directory tree with a bounded
// number of workers.
package batch

import (
	"context"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// DefaultWorkers is the pool size used when none is given
const DefaultWorkers = 5

// Gather walks root for files with one of the given extensions (compared
// case-insensitively, with the dot). It stops after max files when max > 0.
// The result is sorted.
func Gather(root string, exts []string, max int) ([]string, error) {
	want := make(map[string]bool, len(exts))
	for _, ext := range exts {
		want[strings.ToLower(ext)] = true
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if len(want) > 0 && !want[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		files = append(files, path)
		if max > 0 && len(files) >= max {
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// Result is the outcome of one job. Value is only meaningful when Err is nil.
type Result[T any] struct {
	Path  string
	Value T
	Err   error
}

// OK reports whether the job produced a value
func (r Result[T]) OK() bool {
	return r.Err == nil
}

// Progress is called after each finished job
type Progress func(done, total int)

// Run applies fn to every path with at most workers jobs in flight. A failing
// job never cancels the others; its error is kept in its Result. Results are
// in the order of paths. Run only returns an error when ctx is done.
func Run[T any](ctx context.Context, paths []string, workers int, fn func(ctx context.Context, path string) (T, error), progress Progress) ([]Result[T], error) {
	if workers <= 0 {
		workers = DefaultWorkers
	}

	results := make([]Result[T], len(paths))
	var (
		mu   sync.Mutex
		done int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i] = Result[T]{Path: path, Err: err}
				return err
			}

			value, err := fn(gctx, path)
			results[i] = Result[T]{Path: path, Value: value, Err: err}

			mu.Lock()
			done++
			if progress != nil {
				progress(done, len(paths))
			}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// Succeeded returns the values of the successful results
func Succeeded[T any](results []Result[T]) []T {
	var out []T
	for _, r := range results {
		if r.OK() {
			out = append(out, r.Value)
		}
	}
	return out
}
