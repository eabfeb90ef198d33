package manifest

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"

	"github.com/jamesainslie/checksum/pkg/checksum/digest"
	"github.com/valyala/fasttemplate"
)

// Line templates. Placeholders: {hash}, {path}, {algorithm} and
// {ALGORITHM} (uppercase name).
const (
	// GNUTemplate is the md5sum/sha256sum text format and the only one
	// Parse reads back.
	GNUTemplate = "{hash}  {path}"

	// BSDTemplate is the tagged format written by `shasum --tag` and BSD md5.
	BSDTemplate = "{ALGORITHM} ({path}) = {hash}"
)

// Styles maps style names to line templates.
var Styles = map[string]string{
	"gnu": GNUTemplate,
	"bsd": BSDTemplate,
}

// Record is one line to be written to a manifest.
type Record struct {
	Hex  string
	Path string
}

// Writer renders manifest lines from a template.
type Writer struct {
	alg  digest.Algorithm
	tmpl *fasttemplate.Template
}

// NewWriter compiles template for alg. An empty template selects GNUTemplate.
func NewWriter(alg digest.Algorithm, template string) (*Writer, error) {
	if template == "" {
		template = GNUTemplate
	}
	tmpl, err := fasttemplate.NewTemplate(template, "{", "}")
	if err != nil {
		return nil, fmt.Errorf("parsing line template: %w", err)
	}
	return &Writer{alg: alg, tmpl: tmpl}, nil
}

// Line renders a single manifest line without a trailing newline.
// Paths are written with forward slashes.
func (w *Writer) Line(r Record) string {
	return w.tmpl.ExecuteString(map[string]interface{}{
		"hash":      r.Hex,
		"path":      filepath.ToSlash(r.Path),
		"algorithm": w.alg.String(),
		"ALGORITHM": w.alg.Display(),
	})
}

// WriteRecords writes every record to out, one per line.
func (w *Writer) WriteRecords(out io.Writer, records []Record) error {
	bw := bufio.NewWriter(out)
	for _, r := range records {
		if _, err := bw.WriteString(w.Line(r) + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}
