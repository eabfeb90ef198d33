package output

import (
	"bytes"

	"github.com/jamesainslie/checksum/pkg/checksum/verify"
)

// PathsFormatter writes one path per line: the file for calc, and only the
// files that did not pass for verify and manifest results. History results
// list each run's target. The output is meant for xargs and shell loops.
// Unparsable manifest lines have no path and are left out.
type PathsFormatter struct {
	// Null separates paths with NUL bytes instead of newlines.
	Null bool
}

// Format writes the formatted output to the buffer.
func (f *PathsFormatter) Format(w *bytes.Buffer, r *Result) error {
	paths, err := resultPaths(r)
	if err != nil {
		return err
	}
	sep := byte('\n')
	if f.Null {
		sep = 0
	}
	for _, p := range paths {
		w.WriteString(p)
		w.WriteByte(sep)
	}
	return nil
}

func resultPaths(r *Result) ([]string, error) {
	switch r.Mode {
	case ModeCalc:
		if r.Calc == nil {
			return nil, errMissing(r.Mode)
		}
		return []string{r.Calc.Path}, nil

	case ModeVerify:
		if r.Single == nil {
			return nil, errMissing(r.Mode)
		}
		if r.Single.Outcome.Passed() {
			return nil, nil
		}
		return []string{r.Single.Digest.Path}, nil

	case ModeManifest:
		if r.Manifest == nil {
			return nil, errMissing(r.Mode)
		}
		var paths []string
		for _, e := range r.Manifest.Entries {
			if e.Outcome.Status == verify.StatusPassed {
				continue
			}
			if e.Path != "" {
				paths = append(paths, e.Path)
			}
		}
		return paths, nil

	case ModeHistory:
		paths := make([]string, len(r.Runs))
		for i, run := range r.Runs {
			paths[i] = run.Target
		}
		return paths, nil
	}
	return nil, errUnknownMode(r.Mode)
}

func init() {
	Register("paths", func() Formatter {
		return &PathsFormatter{}
	})
	// For xargs -0; safe with spaces and newlines in names.
	Register("null", func() Formatter {
		return &PathsFormatter{Null: true}
	})
}

var _ Formatter = (*PathsFormatter)(nil)
