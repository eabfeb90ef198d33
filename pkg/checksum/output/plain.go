package output

import (
	"bytes"
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/jamesainslie/checksum/pkg/checksum/verify"
)

// PlainFormatter writes tab-aligned text without colors, for scripts and pipes.
type PlainFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PlainFormatter) Format(w *bytes.Buffer, r *Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	switch r.Mode {
	case ModeCalc:
		if r.Calc == nil {
			return errMissing(r.Mode)
		}
		v := calcView(r.Calc)
		fmt.Fprintf(tw, "HASH\tSIZE\tALGORITHM\tFILE\n")
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", v.Hash, v.Size, v.Algorithm, v.File)
	case ModeVerify:
		if r.Single == nil {
			return errMissing(r.Mode)
		}
		v := singleView(r.Single)
		fmt.Fprintf(tw, "STATUS\tALGORITHM\tFILE\tDETAIL\n")
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", v.Status, v.Algorithm, v.File, v.Detail)
		if r.Verbose || v.Status == string(verify.StatusFailed) {
			fmt.Fprintf(tw, "\nexpected\t%s\n", v.ExpectedHash)
			fmt.Fprintf(tw, "calculated\t%s\n", v.Hash)
		}
	case ModeManifest:
		if r.Manifest == nil {
			return errMissing(r.Mode)
		}
		m := manifestView(r.Manifest)
		fmt.Fprintf(tw, "LINE\tSTATUS\tFILE\tDETAIL\n")
		for _, e := range m.Entries {
			if e.Status == string(verify.StatusPassed) && !r.Verbose {
				continue
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", e.Line, e.Status, e.File, e.Detail)
		}
		fmt.Fprintf(tw, "\npassed=%d failed=%d errors=%d total=%d algorithm=%s\n",
			m.Counts.Passed, m.Counts.Failed, m.Counts.Errored, m.Counts.Total, m.Algorithm)
	case ModeHistory:
		fmt.Fprintf(tw, "ID\tTIME\tMODE\tALGORITHM\tSTATUS\tPASSED\tTOTAL\tTARGET\n")
		for _, run := range r.Runs {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				run.ID, run.Timestamp.Format(time.RFC3339), run.Mode, run.Algorithm, run.Status,
				strconv.Itoa(run.Passed), strconv.Itoa(run.Total), run.Target)
		}
	default:
		return errUnknownMode(r.Mode)
	}

	return tw.Flush()
}

func init() {
	Register("plain", func() Formatter {
		return &PlainFormatter{}
	})
}

var _ Formatter = (*PlainFormatter)(nil)
