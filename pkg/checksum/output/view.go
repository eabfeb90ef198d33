package output

import (
	"strings"
	"time"

	"github.com/jamesainslie/checksum/pkg/checksum/digest"
	"github.com/jamesainslie/checksum/pkg/checksum/history"
	"github.com/jamesainslie/checksum/pkg/checksum/verify"
)

// StatusOK is reported for calc results, which have nothing to compare.
const StatusOK = "ok"

// fileView is the flat per-file shape shared by the structured formatters.
type fileView struct {
	Status       string `json:"status" yaml:"status"`
	File         string `json:"file" yaml:"file"`
	Path         string `json:"path,omitempty" yaml:"path,omitempty"`
	Line         int    `json:"line,omitempty" yaml:"line,omitempty"`
	Size         uint64 `json:"size" yaml:"size"`
	SizeHuman    string `json:"size_human,omitempty" yaml:"size_human,omitempty"`
	Algorithm    string `json:"algorithm,omitempty" yaml:"algorithm,omitempty"`
	Hash         string `json:"hash,omitempty" yaml:"hash,omitempty"`
	ExpectedHash string `json:"expected_hash,omitempty" yaml:"expected_hash,omitempty"`
	Detail       string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// fileDocument wraps a fileView for calc and single verify results.
type fileDocument struct {
	Mode     Mode `json:"mode" yaml:"mode"`
	fileView `yaml:",inline"`
}

// manifestDocument is the structured form of a manifest report.
type manifestDocument struct {
	Mode       Mode          `json:"mode" yaml:"mode"`
	Status     string        `json:"status" yaml:"status"`
	Manifest   string        `json:"manifest" yaml:"manifest"`
	Algorithm  string        `json:"algorithm" yaml:"algorithm"`
	DetectedBy string        `json:"detected_by" yaml:"detected_by"`
	Entries    []fileView    `json:"entries" yaml:"entries"`
	Counts     verify.Counts `json:"counts" yaml:"counts"`
	Elapsed    string        `json:"elapsed" yaml:"elapsed"`
}

// historyDocument is the structured form of a history listing.
type historyDocument struct {
	Mode Mode             `json:"mode" yaml:"mode"`
	Runs []history.Record `json:"runs" yaml:"runs"`
}

func calcView(d *digest.FileDigest) fileView {
	return fileView{
		Status:    StatusOK,
		File:      d.Path,
		Size:      d.Size,
		SizeHuman: d.HumanSize(),
		Algorithm: string(d.Algorithm),
		Hash:      d.Hex,
	}
}

func singleView(s *verify.SingleResult) fileView {
	v := fileView{
		Status:       string(s.Outcome.Status),
		File:         s.Digest.Path,
		Size:         s.Digest.Size,
		Algorithm:    string(s.Digest.Algorithm),
		Hash:         s.Digest.Hex,
		ExpectedHash: s.Expected,
		Detail:       s.Outcome.Detail,
	}
	if s.Digest.Hex != "" {
		v.SizeHuman = s.Digest.HumanSize()
	}
	return v
}

func entryView(e verify.EntryResult, alg digest.Algorithm) fileView {
	v := fileView{
		Status:       string(e.Outcome.Status),
		File:         e.Entry.Name(),
		Path:         e.Path,
		Line:         e.Entry.Line,
		Algorithm:    string(alg),
		ExpectedHash: e.Entry.ExpectedHex,
		Detail:       e.Outcome.Detail,
	}
	if e.Digest != nil {
		v.Size = e.Digest.Size
		v.SizeHuman = e.Digest.HumanSize()
		v.Hash = e.Digest.Hex
	}
	return v
}

func reportStatus(r *verify.Report) string {
	if r.OK() {
		return string(verify.StatusPassed)
	}
	return string(verify.StatusFailed)
}

func manifestView(r *verify.Report) manifestDocument {
	entries := make([]fileView, len(r.Entries))
	for i, e := range r.Entries {
		entries[i] = entryView(e, r.Algorithm)
	}
	return manifestDocument{
		Mode:       ModeManifest,
		Status:     reportStatus(r),
		Manifest:   r.Manifest,
		Algorithm:  string(r.Algorithm),
		DetectedBy: string(r.DetectedBy),
		Entries:    entries,
		Counts:     r.Counts,
		Elapsed:    formatElapsed(r.Elapsed),
	}
}

// document returns the structured value for r.
func document(r *Result) (any, error) {
	switch r.Mode {
	case ModeCalc:
		if r.Calc == nil {
			return nil, errMissing(r.Mode)
		}
		return fileDocument{Mode: r.Mode, fileView: calcView(r.Calc)}, nil
	case ModeVerify:
		if r.Single == nil {
			return nil, errMissing(r.Mode)
		}
		return fileDocument{Mode: r.Mode, fileView: singleView(r.Single)}, nil
	case ModeManifest:
		if r.Manifest == nil {
			return nil, errMissing(r.Mode)
		}
		return manifestView(r.Manifest), nil
	case ModeHistory:
		runs := r.Runs
		if runs == nil {
			runs = []history.Record{}
		}
		return historyDocument{Mode: r.Mode, Runs: runs}, nil
	default:
		return nil, errUnknownMode(r.Mode)
	}
}

func formatElapsed(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}
	if d < time.Millisecond {
		return d.String()
	}
	return d.Round(time.Millisecond).String()
}

func upper(s string) string {
	return strings.ToUpper(s)
}
