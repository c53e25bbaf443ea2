// Package tracked keeps the set of local files that the background scheduler
// rescans, and the filter deciding which files may join it.
package tracked

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar"
)

// FilterOptions configure a Filter. Zero values disable the matching check.
type FilterOptions struct {
	// Extensions restricts files to these extensions, e.g. ".exe". Matching
	// is case-insensitive and the leading dot is optional.
	Extensions []string
	// Exclude holds doublestar patterns matched against slash separated
	// absolute paths, e.g. "**/node_modules/**".
	Exclude []string
	MinSize int64
	MaxSize int64
	// MaxDepth limits discovery below a root; 0 means unlimited.
	MaxDepth int
}

// Filter decides which files are tracked.
type Filter struct {
	extensions map[string]struct{}
	exclude    []string
	minSize    int64
	maxSize    int64
	maxDepth   int
}

// NewFilter validates the patterns of opts.
func NewFilter(opts FilterOptions) (*Filter, error) {
	f := &Filter{
		exclude:  opts.Exclude,
		minSize:  opts.MinSize,
		maxSize:  opts.MaxSize,
		maxDepth: opts.MaxDepth,
	}
	if len(opts.Extensions) > 0 {
		f.extensions = make(map[string]struct{}, len(opts.Extensions))
		for _, ext := range opts.Extensions {
			ext = strings.ToLower(strings.TrimSpace(ext))
			if ext == "" {
				continue
			}
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			f.extensions[ext] = struct{}{}
		}
	}
	for _, p := range opts.Exclude {
		if _, err := doublestar.Match(p, "x"); err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", p, err)
		}
	}

	return f, nil
}

// Excluded reports whether path matches one of the exclude patterns.
func (f *Filter) Excluded(path string) bool {
	name := filepath.ToSlash(path)
	for _, p := range f.exclude {
		if ok, _ := doublestar.Match(p, name); ok {
			return true
		}
	}

	return false
}

// Match reports whether a file may be tracked.
func (f *Filter) Match(path string, info fs.FileInfo) bool {
	if !info.Mode().IsRegular() {
		return false
	}
	if f.extensions != nil {
		if _, ok := f.extensions[strings.ToLower(filepath.Ext(path))]; !ok {
			return false
		}
	}
	if f.minSize > 0 && info.Size() < f.minSize {
		return false
	}
	if f.maxSize > 0 && info.Size() > f.maxSize {
		return false
	}

	return !f.Excluded(path)
}
