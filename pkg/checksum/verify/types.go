package verify

import (
	"time"

	"github.com/jamesainslie/checksum/pkg/checksum/digest"
	"github.com/jamesainslie/checksum/pkg/checksum/manifest"
)

// Status classifies a single verification attempt.
type Status string

// Verification statuses.
const (
	// StatusPassed means the computed digest equals the expected one.
	StatusPassed Status = "passed"

	// StatusFailed means the file was hashed but the digest differs.
	StatusFailed Status = "failed"

	// StatusError means the file could not be checked at all.
	StatusError Status = "error"
)

// Outcome details. These are advisory; Status is authoritative.
const (
	DetailOK             = "OK"
	DetailMismatch       = "Mismatch"
	DetailLengthMismatch = "Digest length mismatch"
)

// Outcome is the result of comparing an expected digest with a computed one.
type Outcome struct {
	Status Status `json:"status" yaml:"status"`
	Detail string `json:"detail" yaml:"detail"`
}

// Passed reports whether the outcome is StatusPassed.
func (o Outcome) Passed() bool {
	return o.Status == StatusPassed
}

// EntryResult pairs a manifest entry with its outcome.
type EntryResult struct {
	// Entry is the parsed manifest line.
	Entry manifest.Entry `json:"entry" yaml:"entry"`

	// Path is the entry's filename resolved against the manifest directory.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`

	// Outcome is the verification result.
	Outcome Outcome `json:"outcome" yaml:"outcome"`

	// Digest is the computed digest, or nil if the file was not hashed.
	Digest *digest.FileDigest `json:"digest,omitempty" yaml:"digest,omitempty"`
}

// Counts summarizes the outcomes of a report.
// Passed+Failed+Errored always equals Total.
type Counts struct {
	Passed  int `json:"passed" yaml:"passed"`
	Failed  int `json:"failed" yaml:"failed"`
	Errored int `json:"errors" yaml:"errors"`
	Total   int `json:"total" yaml:"total"`
}

// add records one outcome.
func (c *Counts) add(s Status) {
	switch s {
	case StatusPassed:
		c.Passed++
	case StatusFailed:
		c.Failed++
	default:
		c.Errored++
	}
	c.Total++
}

// Report is the result of verifying every entry of a manifest.
type Report struct {
	// Manifest is the manifest path as given by the caller.
	Manifest string `json:"manifest" yaml:"manifest"`

	// Algorithm is the algorithm used for every entry.
	Algorithm digest.Algorithm `json:"algorithm" yaml:"algorithm"`

	// DetectedBy records how Algorithm was chosen.
	DetectedBy manifest.Source `json:"detected_by" yaml:"detected_by"`

	// Entries holds one result per data line, in manifest order.
	Entries []EntryResult `json:"entries" yaml:"entries"`

	// Counts summarizes Entries.
	Counts Counts `json:"counts" yaml:"counts"`

	// Elapsed is the wall time spent verifying.
	Elapsed time.Duration `json:"elapsed" yaml:"elapsed"`
}

// OK reports whether every entry passed.
func (r *Report) OK() bool {
	return r.Counts.Failed == 0 && r.Counts.Errored == 0
}

// SingleResult is the result of verifying one file against an expected digest.
type SingleResult struct {
	// Digest is the computed digest. It is zero when Outcome is StatusError.
	Digest digest.FileDigest `json:"digest" yaml:"digest"`

	// Expected is the expected digest as supplied, lowercased.
	Expected string `json:"expected_hash" yaml:"expected_hash"`

	// Outcome is the verification result.
	Outcome Outcome `json:"outcome" yaml:"outcome"`
}

// Progress reports how far a manifest verification has got.
type Progress struct {
	// Done is the number of entries finished so far.
	Done int

	// Total is the number of entries in the manifest.
	Total int

	// Current is the entry that just finished.
	Current string
}
