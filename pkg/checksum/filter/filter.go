// Package filter selects which files of a directory tree go into a
// generated manifest.
package filter

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/gobwas/glob"
)

// ErrInvalidPattern is returned for glob patterns that do not compile.
var ErrInvalidPattern = errors.New("invalid glob pattern")

// FileInfo is the subset of file metadata the filter looks at.
type FileInfo struct {
	// Path is slash-separated and relative to the walk root.
	Path string

	// Size is the file size in bytes.
	Size int64

	// Depth is the number of directories between the root and the file.
	Depth int
}

// Filter decides whether a file is included.
type Filter struct {
	// Include patterns; when non-empty a file must match at least one.
	Include []string

	// Exclude patterns; a matching file is skipped.
	Exclude []string

	// MinSize skips files smaller than this many bytes.
	MinSize int64

	// MaxDepth skips files deeper than this. 0 means unlimited.
	MaxDepth int

	// Hidden includes dot files and files under dot directories.
	Hidden bool

	include []glob.Glob
	exclude []glob.Glob
}

// Option configures a Filter.
type Option func(*Filter)

// New builds a Filter and compiles its patterns.
func New(opts ...Option) (*Filter, error) {
	f := &Filter{}
	for _, opt := range opts {
		opt(f)
	}

	var err error
	if f.include, err = compile(f.Include); err != nil {
		return nil, err
	}
	if f.exclude, err = compile(f.Exclude); err != nil {
		return nil, err
	}
	return f, nil
}

// WithInclude sets the include patterns.
func WithInclude(patterns ...string) Option {
	return func(f *Filter) {
		f.Include = nonEmpty(patterns)
	}
}

// WithExclude sets the exclude patterns.
func WithExclude(patterns ...string) Option {
	return func(f *Filter) {
		f.Exclude = nonEmpty(patterns)
	}
}

// WithMinSize skips files smaller than minSize. Negative values become 0.
func WithMinSize(minSize int64) Option {
	return func(f *Filter) {
		f.MinSize = max(minSize, 0)
	}
}

// WithMaxDepth limits the walk depth. Negative values become 0 (unlimited).
func WithMaxDepth(depth int) Option {
	return func(f *Filter) {
		f.MaxDepth = max(depth, 0)
	}
}

// WithHidden includes dot files.
func WithHidden(hidden bool) Option {
	return func(f *Filter) {
		f.Hidden = hidden
	}
}

// Match reports whether fi passes every criterion.
func (f *Filter) Match(fi FileInfo) bool {
	if f.MinSize > 0 && fi.Size < f.MinSize {
		return false
	}
	if f.MaxDepth > 0 && fi.Depth > f.MaxDepth {
		return false
	}
	if !f.Hidden && isHidden(fi.Path) {
		return false
	}
	if matchAny(f.exclude, fi.Path) {
		return false
	}
	return len(f.include) == 0 || matchAny(f.include, fi.Path)
}

// SkipDir reports whether a directory can be pruned from the walk.
// Only exclusions and hidden directories prune; include patterns name files.
func (f *Filter) SkipDir(rel string) bool {
	if rel == "." || rel == "" {
		return false
	}
	if !f.Hidden && strings.HasPrefix(path.Base(rel), ".") {
		return true
	}
	return matchAny(f.exclude, rel)
}

// matchAny matches the whole relative path and its base name, so "*.iso"
// selects ISO files at any depth.
func matchAny(globs []glob.Glob, rel string) bool {
	base := path.Base(rel)
	for _, g := range globs {
		if g.Match(rel) || g.Match(base) {
			return true
		}
	}
	return false
}

func isHidden(rel string) bool {
	for _, part := range strings.Split(rel, "/") {
		if strings.HasPrefix(part, ".") && part != "." && part != ".." {
			return true
		}
	}
	return false
}

func compile(patterns []string) ([]glob.Glob, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("%w %q: %w", ErrInvalidPattern, p, err)
		}
		globs = append(globs, g)
	}
	return globs, nil
}

func nonEmpty(patterns []string) []string {
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
