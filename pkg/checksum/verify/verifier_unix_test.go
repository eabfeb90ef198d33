//go:build unix

package verify

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jamesainslie/checksum/pkg/checksum/digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestVerifyManifest_NamedPipeEntry(t *testing.T) {
	dir := t.TempDir()
	fixture(t, dir, map[string]string{"after.txt": "after"})
	require.NoError(t, unix.Mkfifo(filepath.Join(dir, "pipe"), 0o644))
	path := writeManifest(t, dir, "SHA256SUMS",
		sha256Hex("")+"  pipe",
		sha256Hex("after")+"  after.txt",
	)

	type outcome struct {
		report *Report
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		r, err := New(Options{}).VerifyManifest(context.Background(), path)
		done <- outcome{r, err}
	}()

	var got outcome
	select {
	case got = <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("VerifyManifest blocked on a named pipe entry")
	}

	require.NoError(t, got.err)
	require.Len(t, got.report.Entries, 2)
	assert.Equal(t, StatusError, got.report.Entries[0].Outcome.Status)
	assert.Equal(t, digest.ReasonNotRegular, got.report.Entries[0].Outcome.Detail)
	assert.Equal(t, StatusPassed, got.report.Entries[1].Outcome.Status)
	assert.Equal(t, Counts{Passed: 1, Errored: 1, Total: 2}, got.report.Counts)
}
