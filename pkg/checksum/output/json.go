package output

import (
	"bytes"

	"github.com/goccy/go-json"
)

// JSONFormatter writes a single indented JSON document.
type JSONFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *JSONFormatter) Format(w *bytes.Buffer, r *Result) error {
	doc, err := document(r)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(doc)
}

func init() {
	Register("json", func() Formatter {
		return &JSONFormatter{}
	})
}

var _ Formatter = (*JSONFormatter)(nil)

// JSONLFormatter writes newline-delimited JSON. Manifest reports produce one
// object per entry followed by a summary object; history produces one
// object per run.
type JSONLFormatter struct{}

// jsonlSummary is the last line of a manifest report in JSONL form.
type jsonlSummary struct {
	Mode       Mode   `json:"mode"`
	Status     string `json:"status"`
	Manifest   string `json:"manifest"`
	Algorithm  string `json:"algorithm"`
	DetectedBy string `json:"detected_by"`
	Passed     int    `json:"passed"`
	Failed     int    `json:"failed"`
	Errors     int    `json:"errors"`
	Total      int    `json:"total"`
}

// Format writes the formatted output to the buffer.
func (f *JSONLFormatter) Format(w *bytes.Buffer, r *Result) error {
	var lines []any
	switch r.Mode {
	case ModeManifest:
		if r.Manifest == nil {
			return errMissing(r.Mode)
		}
		m := manifestView(r.Manifest)
		for _, e := range m.Entries {
			lines = append(lines, e)
		}
		lines = append(lines, jsonlSummary{
			Mode:       ModeManifest,
			Status:     m.Status,
			Manifest:   m.Manifest,
			Algorithm:  m.Algorithm,
			DetectedBy: m.DetectedBy,
			Passed:     m.Counts.Passed,
			Failed:     m.Counts.Failed,
			Errors:     m.Counts.Errored,
			Total:      m.Counts.Total,
		})
	case ModeHistory:
		for _, run := range r.Runs {
			lines = append(lines, run)
		}
	default:
		doc, err := document(r)
		if err != nil {
			return err
		}
		lines = append(lines, doc)
	}

	for _, line := range lines {
		data, err := json.Marshal(line)
		if err != nil {
			return err
		}
		w.Write(data)
		w.WriteByte('\n')
	}
	return nil
}

func init() {
	Register("jsonl", func() Formatter {
		return &JSONLFormatter{}
	})
}

var _ Formatter = (*JSONLFormatter)(nil)
