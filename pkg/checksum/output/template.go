package output

import (
	"bytes"
	"strings"
	"sync"
	"text/template"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jamesainslie/checksum/pkg/checksum/digest"
)

// TemplateFormatter renders results with a user-supplied text/template.
//
// The template sees the structured document for the result: for calc and
// verify {{.File}}, {{.Hash}}, {{.Status}}; for manifests {{.Entries}} and
// {{.Counts}}; for history {{.Runs}}.
type TemplateFormatter struct {
	templateStr string
	template    *template.Template
	mu          sync.Mutex
}

// NewTemplateFormatter creates a formatter for templateStr.
func NewTemplateFormatter(templateStr string) *TemplateFormatter {
	return &TemplateFormatter{templateStr: templateStr}
}

// SetTemplate replaces the template string.
func (f *TemplateFormatter) SetTemplate(templateStr string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.templateStr = templateStr
	f.template = nil
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		// {{bytes .Size}} in the digest's binary units, e.g. "1.50 MB".
		"bytes": func(size uint64) string {
			return digest.FormatSize(size)
		},
		// {{ibytes .Size}} in IEC units, e.g. "1.5 MiB".
		"ibytes": func(size uint64) string {
			return humanize.IBytes(size)
		},
		"ago": func(t time.Time) string {
			return humanize.Time(t)
		},
		"date": func(t time.Time, layout string) string {
			if t.IsZero() {
				return ""
			}
			return t.Format(layout)
		},
		"upper": strings.ToUpper,
	}
}

// Format writes the formatted output to the buffer.
func (f *TemplateFormatter) Format(w *bytes.Buffer, r *Result) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.template == nil {
		tmpl, err := template.New("output").Funcs(templateFuncs()).Parse(f.templateStr)
		if err != nil {
			return err
		}
		f.template = tmpl
	}

	doc, err := document(r)
	if err != nil {
		return err
	}
	return f.template.Execute(w, doc)
}

// defaultTemplate matches the sha256sum output layout.
const defaultTemplate = `{{if eq .Mode "manifest"}}{{range .Entries}}{{.File}}: {{upper .Status}}
{{end}}{{else if eq .Mode "history"}}{{range .Runs}}{{.ID}}  {{.Status}}  {{.Target}}
{{end}}{{else}}{{.Hash}}  {{.File}}
{{end}}`

func init() {
	Register("template", func() Formatter {
		return NewTemplateFormatter(defaultTemplate)
	})
}

var _ Formatter = (*TemplateFormatter)(nil)
