package output

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/jamesainslie/checksum/pkg/checksum/digest"
	"github.com/jamesainslie/checksum/pkg/checksum/history"
	"github.com/jamesainslie/checksum/pkg/checksum/verify"
)

// PrettyFormatter renders results for a terminal with lipgloss styling.
type PrettyFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PrettyFormatter) Format(w *bytes.Buffer, r *Result) error {
	switch r.Mode {
	case ModeCalc:
		if r.Calc == nil {
			return errMissing(r.Mode)
		}
		f.formatCalc(w, r.Calc)
	case ModeVerify:
		if r.Single == nil {
			return errMissing(r.Mode)
		}
		f.formatSingle(w, r.Single, r.Verbose)
	case ModeManifest:
		if r.Manifest == nil {
			return errMissing(r.Mode)
		}
		f.formatManifest(w, r.Manifest, r.Verbose)
	case ModeHistory:
		f.formatHistory(w, r)
	default:
		return errUnknownMode(r.Mode)
	}
	return nil
}

func field(label, value string) string {
	return LabelStyle.Render(label+":") + " " + value
}

func (f *PrettyFormatter) fileFields(w *bytes.Buffer, d digest.FileDigest) {
	w.WriteString(field("File", PathStyle.Render(d.Path)) + "\n")
	w.WriteString(field("Size", WarningStyle.Render(d.HumanSize())) + "\n")
	w.WriteString(field("Algorithm", WarningStyle.Render(d.Algorithm.Display())) + "\n")
}

func (f *PrettyFormatter) formatCalc(w *bytes.Buffer, d *digest.FileDigest) {
	w.WriteString(SuccessStyle.Render(markPassed) + " Checksum calculated\n")
	f.fileFields(w, *d)

	title := TitleStyle.Render(d.Algorithm.Display() + " Checksum")
	w.WriteString("\n" + title + "\n")
	w.WriteString(HashBox.Render(d.Hex) + "\n")
}

func (f *PrettyFormatter) formatSingle(w *bytes.Buffer, s *verify.SingleResult, verbose bool) {
	switch s.Outcome.Status {
	case verify.StatusPassed:
		w.WriteString(SuccessStyle.Bold(true).Render(markPassed+" CHECKSUM VERIFIED") + "\n")
	case verify.StatusFailed:
		w.WriteString(ErrorStyle.Bold(true).Render(markFailed+" CHECKSUM MISMATCH") + "\n")
	default:
		w.WriteString(WarningStyle.Bold(true).Render(markError+" "+s.Outcome.Detail) + "\n")
		w.WriteString(field("File", PathStyle.Render(s.Digest.Path)) + "\n")
		return
	}
	f.fileFields(w, s.Digest)

	if verbose || !s.Outcome.Passed() {
		calcStyle := SuccessStyle
		if !s.Outcome.Passed() {
			calcStyle = ErrorStyle
		}
		w.WriteString("\n")
		w.WriteString(field("Expected  ", SuccessStyle.Render(s.Expected)) + "\n")
		w.WriteString(field("Calculated", calcStyle.Render(s.Digest.Hex)) + "\n")
	}
	if !s.Outcome.Passed() {
		w.WriteString("\n" + WarningStyle.Render(markError) + " " +
			lipgloss.NewStyle().Bold(true).Render("File may be corrupted or tampered with") + "\n")
	}
}

func (f *PrettyFormatter) formatManifest(w *bytes.Buffer, r *verify.Report, verbose bool) {
	w.WriteString(TitleStyle.Render("Checksum Verification Results") + "\n")
	w.WriteString(field("Manifest", PathStyle.Render(r.Manifest)) + "\n")
	alg := WarningStyle.Render(r.Algorithm.Display()) + MutedStyle.Render(" ("+string(r.DetectedBy)+")")
	w.WriteString(field("Algorithm", alg) + "\n")

	summary := strings.Join([]string{
		SuccessStyle.Render(fmt.Sprintf("%s Passed  %d", markPassed, r.Counts.Passed)),
		ErrorStyle.Render(fmt.Sprintf("%s Failed  %d", markFailed, r.Counts.Failed)),
		WarningStyle.Render(fmt.Sprintf("%s Errors  %d", markError, r.Counts.Errored)),
		TitleStyle.Render(fmt.Sprintf("  Total   %d", r.Counts.Total)),
	}, "\n")
	w.WriteString(SummaryBox.Render(summary) + "\n")

	if verbose || !r.OK() {
		f.formatEntries(w, r, verbose)
	}

	w.WriteString("\n")
	if r.OK() {
		w.WriteString(SuccessStyle.Render(markPassed) + " All files verified successfully " +
			MutedStyle.Render("("+formatElapsed(r.Elapsed)+")") + "\n")
	} else {
		w.WriteString(WarningStyle.Render(markError) + " Some files failed verification\n")
	}
}

func (f *PrettyFormatter) formatEntries(w *bytes.Buffer, r *verify.Report, verbose bool) {
	rows := make([][3]string, 0, len(r.Entries))
	width := len("FILE")
	for _, e := range r.Entries {
		if e.Outcome.Passed() && !verbose {
			continue
		}
		name := e.Entry.Name()
		if len(name) > width {
			width = len(name)
		}
		rows = append(rows, [3]string{name, string(e.Outcome.Status), e.Outcome.Detail})
	}

	w.WriteString("\n")
	w.WriteString("  " + TableHeaderStyle.Render(padRight("FILE", width)) + "  " +
		TableHeaderStyle.Render("STATUS") + "  " + TableHeaderStyle.Render("DETAIL") + "\n")
	for _, row := range rows {
		mark, style := markPassed, SuccessStyle
		switch verify.Status(row[1]) {
		case verify.StatusFailed:
			mark, style = markFailed, ErrorStyle
		case verify.StatusError:
			mark, style = markError, WarningStyle
		}
		w.WriteString("  " + PathStyle.Render(padRight(row[0], width)) + "  " +
			style.Render(padRight(mark, len("STATUS"))) + "  " + style.Render(row[2]) + "\n")
	}
}

func (f *PrettyFormatter) formatHistory(w *bytes.Buffer, r *Result) {
	if len(r.Runs) == 0 {
		w.WriteString(MutedStyle.Render("No runs recorded") + "\n")
		return
	}
	for _, run := range r.Runs {
		style := SuccessStyle
		if run.Status != string(verify.StatusPassed) && run.Status != StatusOK {
			style = ErrorStyle
		}
		counts := ""
		if run.Total > 0 {
			counts = MutedStyle.Render(" " + strconv.Itoa(run.Passed) + "/" + strconv.Itoa(run.Total))
		}
		w.WriteString(fmt.Sprintf("%s  %s  %-8s %s  %s%s  %s\n",
			MutedStyle.Render(run.ShortID()),
			LabelStyle.Render(padRight(humanize.Time(run.Timestamp), 16)),
			run.Mode,
			WarningStyle.Render(padRight(upper(run.Algorithm), 6)),
			style.Render(run.Status),
			counts,
			PathStyle.Render(run.Target),
		))
		if r.Verbose {
			f.formatRunDetail(w, run)
		}
	}
}

// formatRunDetail writes the fields the one-line summary leaves out.
func (f *PrettyFormatter) formatRunDetail(w *bytes.Buffer, run history.Record) {
	rows := [][2]string{
		{"ID", run.ID},
		{"Time", run.Timestamp.Format("2006-01-02 15:04:05 MST")},
		{"Duration", formatElapsed(run.Duration)},
		{"Counts", fmt.Sprintf("passed=%d failed=%d errors=%d total=%d", run.Passed, run.Failed, run.Errored, run.Total)},
	}
	if run.Detail != "" {
		rows = append(rows, [2]string{"Detail", run.Detail})
	}
	for _, row := range rows {
		w.WriteString("    " + LabelStyle.Render(padRight(row[0]+":", 10)) + row[1] + "\n")
	}
}

// padRight pads s with spaces to width display cells.
func padRight(s string, width int) string {
	n := lipgloss.Width(s)
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}

func init() {
	Register("pretty", func() Formatter {
		return &PrettyFormatter{}
	})
}

var _ Formatter = (*PrettyFormatter)(nil)
