// Package verify checks files against expected digests, either one file at
// a time or in batches listed by a checksum manifest.
//
// Basic usage:
//
//	v := verify.New(verify.Options{})
//	report, err := v.VerifyManifest(ctx, "SHA256SUMS")
//	if err != nil {
//	    return err // missing manifest or undetectable algorithm
//	}
//	if !report.OK() {
//	    // at least one entry failed or could not be checked
//	}
package verify

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/jamesainslie/checksum/pkg/checksum/digest"
	"github.com/jamesainslie/checksum/pkg/checksum/logging"
	"github.com/jamesainslie/checksum/pkg/checksum/manifest"
	"golang.org/x/sync/errgroup"
)

// logger is the package-level logger for verification.
var logger = logging.Get("verify")

// Options configures a Verifier.
type Options struct {
	// Algorithm forces the manifest algorithm. Empty means detect it from
	// the manifest name or digest length.
	Algorithm digest.Algorithm

	// Workers is the number of entries hashed concurrently.
	// Values below 2 verify entries one after another.
	Workers int

	// ChunkSize is the read size passed to the Hasher. Zero selects
	// digest.DefaultChunkSize.
	ChunkSize int

	// OnProgress is called after each manifest entry finishes.
	// It must be safe to call from multiple goroutines when Workers > 1.
	OnProgress func(Progress)
}

// Verifier verifies files and manifests. It holds no state between calls.
type Verifier struct {
	opts   Options
	hasher *digest.Hasher
}

// New creates a Verifier with the given options.
func New(opts Options) *Verifier {
	return &Verifier{
		opts:   opts,
		hasher: digest.NewHasher(opts.ChunkSize),
	}
}

// Calculate hashes the file at path. It is a direct passthrough to the Hasher.
func (v *Verifier) Calculate(path string, alg digest.Algorithm) (digest.FileDigest, error) {
	return v.hasher.Compute(path, alg)
}

// VerifySingle hashes path and compares it to expected, ignoring case.
// The length of expected is not checked against alg; a digest of the
// wrong length simply fails to match.
//
// If the file cannot be hashed the result carries a StatusError outcome
// and the error is returned as well.
func (v *Verifier) VerifySingle(path string, alg digest.Algorithm, expected string) (SingleResult, error) {
	expected = strings.ToLower(strings.TrimSpace(expected))
	result := SingleResult{Expected: expected}

	d, err := v.hasher.Compute(path, alg)
	if err != nil {
		result.Outcome = Outcome{Status: StatusError, Detail: errorDetail(err)}
		return result, err
	}

	result.Digest = d
	result.Outcome = compare(d.Hex, expected)
	return result, nil
}

// VerifyManifest verifies every entry of the manifest at path.
//
// Entries are resolved relative to the manifest's directory. Problems with
// individual entries become StatusError outcomes; only an unreadable
// manifest, an undetectable algorithm or an empty manifest return a
// *ManifestFormatError. The report lists entries in manifest order
// regardless of Workers.
func (v *Verifier) VerifyManifest(ctx context.Context, path string) (*Report, error) {
	start := time.Now()

	entries, err := readManifest(path)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, &ManifestFormatError{Path: path, Reason: ReasonNoEntries}
	}

	alg, source := v.opts.Algorithm, manifest.SourceExplicit
	if alg == "" {
		alg, source, err = manifest.Detect(path, entries)
		if err != nil {
			return nil, &ManifestFormatError{Path: path, Reason: ReasonUndetectable, Err: err}
		}
	}
	logger.Debug("verifying manifest", "path", path, "algorithm", alg, "detected_by", source,
		"entries", len(entries), "workers", v.workers())

	results := make([]EntryResult, len(entries))
	baseDir := filepath.Dir(path)

	if err := v.run(ctx, baseDir, alg, entries, results); err != nil {
		return nil, err
	}

	report := &Report{
		Manifest:   path,
		Algorithm:  alg,
		DetectedBy: source,
		Entries:    results,
		Elapsed:    time.Since(start),
	}
	for _, r := range results {
		report.Counts.add(r.Outcome.Status)
	}

	logger.Info("manifest verified", "path", path, "passed", report.Counts.Passed,
		"failed", report.Counts.Failed, "errors", report.Counts.Errored)
	return report, nil
}

// run fills results[i] for every entry, sequentially or with a bounded pool.
func (v *Verifier) run(ctx context.Context, baseDir string, alg digest.Algorithm,
	entries []manifest.Entry, results []EntryResult) error {
	var done atomic.Int64
	finish := func(i int) {
		n := int(done.Add(1))
		if v.opts.OnProgress != nil {
			v.opts.OnProgress(Progress{Done: n, Total: len(entries), Current: entries[i].Name()})
		}
	}

	workers := v.workers()
	if workers < 2 {
		for i, e := range entries {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = v.verifyEntry(baseDir, alg, e)
			finish(i)
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, e := range entries {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			results[i] = v.verifyEntry(baseDir, alg, e)
			finish(i)
			return nil
		})
	}
	_ = g.Wait()

	return ctx.Err()
}

// verifyEntry checks a single manifest entry. It never fails; every
// problem is reported in the outcome.
func (v *Verifier) verifyEntry(baseDir string, alg digest.Algorithm, e manifest.Entry) EntryResult {
	result := EntryResult{Entry: e}

	if !e.Valid() {
		result.Outcome = Outcome{Status: StatusError, Detail: e.Err}
		return result
	}

	result.Path = resolve(baseDir, e.RelativePath)

	if len(e.ExpectedHex) != alg.HexLen() {
		result.Outcome = Outcome{Status: StatusError, Detail: DetailLengthMismatch}
		return result
	}

	d, err := v.hasher.Compute(result.Path, alg)
	if err != nil {
		logger.Debug("entry not checked", "path", result.Path, "error", err)
		result.Outcome = Outcome{Status: StatusError, Detail: errorDetail(err)}
		return result
	}

	result.Digest = &d
	result.Outcome = compare(d.Hex, e.ExpectedHex)
	return result
}

// workers returns the effective worker count.
func (v *Verifier) workers() int {
	if v.opts.Workers < 1 {
		return 1
	}
	return v.opts.Workers
}

// readManifest opens and parses the manifest at path.
func readManifest(path string) ([]manifest.Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		reason := ReasonManifestRead
		if errors.Is(err, os.ErrNotExist) {
			reason = ReasonManifestNotFound
		}
		return nil, &ManifestFormatError{Path: path, Reason: reason, Err: err}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, &ManifestFormatError{Path: path, Reason: ReasonManifestRead, Err: err}
	}
	if info.IsDir() {
		return nil, &ManifestFormatError{Path: path, Reason: ReasonManifestRead, Err: errIsDirectory}
	}

	entries, err := manifest.Parse(f)
	if err != nil {
		return nil, &ManifestFormatError{Path: path, Reason: ReasonManifestRead, Err: err}
	}
	return entries, nil
}

var errIsDirectory = errors.New("is a directory")

// resolve joins a manifest path to the manifest's directory unless it is
// already absolute.
func resolve(baseDir, name string) string {
	name = filepath.FromSlash(name)
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(baseDir, name)
}

// compare classifies computed against expected, ignoring case.
func compare(computed, expected string) Outcome {
	if strings.EqualFold(computed, expected) {
		return Outcome{Status: StatusPassed, Detail: DetailOK}
	}
	return Outcome{Status: StatusFailed, Detail: DetailMismatch}
}

// errorDetail extracts a short reason from a hashing error.
func errorDetail(err error) string {
	var accessErr *digest.FileAccessError
	if errors.As(err, &accessErr) {
		return accessErr.Reason
	}
	return err.Error()
}

// defaultVerifier serves the package-level helpers.
var defaultVerifier = New(Options{})

// Calculate hashes path with default options.
func Calculate(path string, alg digest.Algorithm) (digest.FileDigest, error) {
	return defaultVerifier.Calculate(path, alg)
}

// VerifySingle verifies path against expected with default options.
func VerifySingle(path string, alg digest.Algorithm, expected string) (SingleResult, error) {
	return defaultVerifier.VerifySingle(path, alg, expected)
}

// VerifyManifest verifies the manifest at path with default options.
func VerifyManifest(ctx context.Context, path string) (*Report, error) {
	return defaultVerifier.VerifyManifest(ctx, path)
}
