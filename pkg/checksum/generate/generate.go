// Package generate builds checksum manifests for directory trees.
package generate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charlievieth/fastwalk"
	"github.com/jamesainslie/checksum/pkg/checksum/digest"
	"github.com/jamesainslie/checksum/pkg/checksum/filter"
	"github.com/jamesainslie/checksum/pkg/checksum/logging"
	"github.com/jamesainslie/checksum/pkg/checksum/manifest"
	"golang.org/x/sync/errgroup"
)

var logger = logging.Get("generate")

// ErrNotDirectory is returned when the root is not a directory.
var ErrNotDirectory = errors.New("not a directory")

// Options configures a Generator.
type Options struct {
	// Algorithm selects the digest. Empty means digest.DefaultAlgorithm.
	Algorithm digest.Algorithm

	// Filter selects files. Nil includes every non-hidden regular file.
	Filter *filter.Filter

	// Base is the directory manifest paths are written relative to,
	// normally the directory of the output manifest. Empty means the root.
	Base string

	// Skip lists paths never included, such as the manifest being written.
	Skip []string

	// ChunkSize is the hasher read size.
	ChunkSize int

	// Workers bounds concurrent hashing. Values below 2 hash sequentially.
	Workers int

	// OnProgress is called after each file is hashed.
	OnProgress func(done, total int, current string)
}

// File is one hashed file.
type File struct {
	// Rel is the slash-separated path written to the manifest.
	Rel string `json:"file" yaml:"file"`

	// Digest is the computed digest; Digest.Path is the path on disk.
	Digest digest.FileDigest `json:"digest" yaml:"digest"`
}

// Skipped is a file that was found but could not be hashed.
type Skipped struct {
	Path string `json:"path" yaml:"path"`
	Err  string `json:"error" yaml:"error"`
}

// Result is the outcome of a generate run.
type Result struct {
	Root      string           `json:"root" yaml:"root"`
	Algorithm digest.Algorithm `json:"algorithm" yaml:"algorithm"`
	Files     []File           `json:"files" yaml:"files"`
	Skipped   []Skipped        `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Bytes     uint64           `json:"bytes" yaml:"bytes"`
	Elapsed   time.Duration    `json:"elapsed" yaml:"elapsed"`
}

// Records converts the files into manifest records.
func (r *Result) Records() []manifest.Record {
	records := make([]manifest.Record, len(r.Files))
	for i, f := range r.Files {
		records[i] = manifest.Record{Hex: f.Digest.Hex, Path: f.Rel}
	}
	return records
}

// WriteManifest writes one line per file using template (see manifest.Styles).
func (r *Result) WriteManifest(w io.Writer, template string) error {
	mw, err := manifest.NewWriter(r.Algorithm, template)
	if err != nil {
		return err
	}
	return mw.WriteRecords(w, r.Records())
}

// Generator hashes every selected file under a root.
type Generator struct {
	opts   Options
	hasher *digest.Hasher
}

// New returns a Generator for opts.
func New(opts Options) *Generator {
	if opts.Algorithm == "" {
		opts.Algorithm = digest.DefaultAlgorithm
	}
	if opts.Filter == nil {
		// No patterns, so this cannot fail.
		opts.Filter, _ = filter.New()
	}
	return &Generator{opts: opts, hasher: digest.NewHasher(opts.ChunkSize)}
}

// Run walks root and hashes the selected files in sorted path order.
func (g *Generator) Run(ctx context.Context, root string) (*Result, error) {
	start := time.Now()

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("generate: %s: %w", root, ErrNotDirectory)
	}

	base := absRoot
	if g.opts.Base != "" {
		if base, err = filepath.Abs(g.opts.Base); err != nil {
			return nil, err
		}
	}

	paths, err := g.walk(ctx, absRoot)
	if err != nil {
		return nil, err
	}
	logger.Debug("walk complete", "root", absRoot, "files", len(paths))

	result := &Result{Root: absRoot, Algorithm: g.opts.Algorithm}
	digests, errs := g.hashAll(ctx, paths)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for i, p := range paths {
		if errs[i] != nil {
			result.Skipped = append(result.Skipped, Skipped{Path: p, Err: errs[i].Error()})
			logger.Warn("skipping file", "path", p, "error", errs[i])
			continue
		}
		result.Files = append(result.Files, File{Rel: relativeTo(base, p), Digest: digests[i]})
		result.Bytes += digests[i].Size
	}
	result.Elapsed = time.Since(start)
	return result, nil
}

// walk returns the absolute paths of selected regular files, sorted.
func (g *Generator) walk(ctx context.Context, root string) ([]string, error) {
	skip := make(map[string]bool, len(g.opts.Skip))
	for _, s := range g.opts.Skip {
		if abs, err := filepath.Abs(s); err == nil {
			skip[abs] = true
		}
	}

	var (
		mu    sync.Mutex
		paths []string
	)

	conf := fastwalk.Config{Follow: false}
	walkErr := fastwalk.Walk(&conf, root, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return fastwalk.ErrSkipFiles
		}
		if err != nil {
			logger.Warn("walk error", "path", path, "error", err)
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if g.opts.Filter.SkipDir(rel) {
				return fastwalk.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || skip[path] {
			return nil
		}

		fi := filter.FileInfo{Path: rel, Depth: strings.Count(rel, "/")}
		if g.opts.Filter.MinSize > 0 {
			info, err := d.Info()
			if err != nil {
				return nil
			}
			fi.Size = info.Size()
		}
		if !g.opts.Filter.Match(fi) {
			return nil
		}

		mu.Lock()
		paths = append(paths, path)
		mu.Unlock()
		return nil
	})

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if walkErr != nil && !errors.Is(walkErr, fastwalk.ErrSkipFiles) {
		return nil, fmt.Errorf("walking %s: %w", root, walkErr)
	}

	slices.Sort(paths)
	return paths, nil
}

// hashAll hashes paths with at most Workers goroutines. Results are indexed
// like paths.
func (g *Generator) hashAll(ctx context.Context, paths []string) ([]digest.FileDigest, []error) {
	digests := make([]digest.FileDigest, len(paths))
	errs := make([]error, len(paths))
	var done atomic.Int64

	hashOne := func(i int) {
		digests[i], errs[i] = g.hasher.Compute(paths[i], g.opts.Algorithm)
		n := int(done.Add(1))
		if g.opts.OnProgress != nil {
			g.opts.OnProgress(n, len(paths), paths[i])
		}
	}

	if g.opts.Workers < 2 {
		for i := range paths {
			if ctx.Err() != nil {
				break
			}
			hashOne(i)
		}
		return digests, errs
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.opts.Workers)
	for i := range paths {
		if egCtx.Err() != nil {
			break
		}
		eg.Go(func() error {
			hashOne(i)
			return nil
		})
	}
	_ = eg.Wait()
	return digests, errs
}

func relativeTo(base, path string) string {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
