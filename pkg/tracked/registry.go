package tracked

import (
	"context"
	"errors"
	"filescanner/pkg/logger"
	"filescanner/pkg/serrors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Registry is the thread-safe set of tracked files. Paths are expected to be
// absolute and clean.
type Registry struct {
	filter *Filter

	mu    sync.RWMutex
	paths map[string]struct{}
}

// NewRegistry creates an empty registry. A nil filter accepts every regular file.
func NewRegistry(filter *Filter) *Registry {
	if filter == nil {
		filter = &Filter{}
	}

	return &Registry{
		filter: filter,
		paths:  make(map[string]struct{}),
	}
}

// Track adds an existing regular file accepted by the filter. It reports
// whether the file was newly added.
func (r *Registry) Track(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, serrors.Wrap(serrors.ErrNotFound, err, "file not found")
		}

		return false, serrors.Wrap(serrors.ErrIO, err, "could not stat file")
	}
	if !r.filter.Match(path, info) {
		return false, serrors.With(serrors.ErrBadRequest, "%s is rejected by the monitor filter", path)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.paths[path]; ok {
		return false, nil
	}
	r.paths[path] = struct{}{}

	return true, nil
}

// Untrack removes a path and reports whether it was tracked.
func (r *Registry) Untrack(path string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.paths[path]
	delete(r.paths, path)

	return ok
}

// Paths returns the tracked paths in lexical order.
func (r *Registry) Paths() []string {
	r.mu.RLock()
	out := make([]string, 0, len(r.paths))
	for p := range r.paths {
		out = append(out, p)
	}
	r.mu.RUnlock()
	slices.Sort(out)

	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.paths)
}

// TrackedFiles returns the tracked files that still exist. Files that
// disappeared are untracked.
func (r *Registry) TrackedFiles(ctx context.Context) ([]string, error) {
	paths := r.Paths()
	out := paths[:0]
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err //nolint: wrapcheck
		}
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			logger.Info(ctx, "tracked file disappeared, untracking", zap.String("path", p))
			r.Untrack(p)

			continue
		}
		out = append(out, p)
	}

	return out, nil
}

// Discover walks the roots and tracks every file accepted by the filter,
// down to the filter's maximum depth. Excluded directories are skipped
// entirely. Unreadable entries are logged and skipped. It returns the number
// of newly tracked files.
func (r *Registry) Discover(ctx context.Context, roots []string) (int, error) {
	added := 0
	for _, root := range roots {
		root = filepath.Clean(root)
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if err != nil {
				if path == root {
					return err
				}
				logger.Warn(ctx, "could not read path during discovery", zap.String("path", path), zap.Error(err))

				return nil
			}

			if d.IsDir() {
				if path != root && (r.filter.Excluded(path) || r.tooDeep(root, path)) {
					return filepath.SkipDir
				}

				return nil
			}

			info, err := d.Info()
			if err != nil || !r.filter.Match(path, info) {
				return nil
			}

			r.mu.Lock()
			if _, ok := r.paths[path]; !ok {
				r.paths[path] = struct{}{}
				added++
			}
			r.mu.Unlock()

			return nil
		})
		if err != nil {
			return added, fmt.Errorf("could not discover files under %s: %w", root, err)
		}
	}

	return added, nil
}

// tooDeep reports whether files inside dir would be deeper than maxDepth.
// Files directly inside a root are at depth 1.
func (r *Registry) tooDeep(root, dir string) bool {
	if r.filter.maxDepth <= 0 {
		return false
	}
	rel, err := filepath.Rel(root, dir)
	if err != nil {
		return false
	}
	depth := strings.Count(filepath.ToSlash(rel), "/") + 2

	return depth > r.filter.maxDepth
}
