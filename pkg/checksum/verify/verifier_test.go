package verify

import (
	"context"
	"crypto/md5" //nolint:gosec // test fixture
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/jamesainslie/checksum/pkg/checksum/digest"
	"github.com/jamesainslie/checksum/pkg/checksum/manifest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sha256Hex(data string) string {
	sum := sha256.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])
}

func md5Hex(data string) string {
	sum := md5.Sum([]byte(data)) //nolint:gosec // test fixture
	return hex.EncodeToString(sum[:])
}

// fixture writes files into dir and returns their contents by name.
func fixture(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func writeManifest(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return path
}

func assertCountsConsistent(t *testing.T, r *Report) {
	t.Helper()
	c := r.Counts
	assert.Equal(t, c.Total, c.Passed+c.Failed+c.Errored)
	assert.Equal(t, len(r.Entries), c.Total)
}

func TestVerifyManifest_RoundTrip(t *testing.T) {
	for _, alg := range digest.Algorithms() {
		t.Run(alg.String(), func(t *testing.T) {
			dir := t.TempDir()
			fixture(t, dir, map[string]string{"payload.bin": "round trip payload"})

			d, err := Calculate(filepath.Join(dir, "payload.bin"), alg)
			require.NoError(t, err)

			// No hint in the name: detection must come from the digest length.
			path := writeManifest(t, dir, "CHECKSUMS", d.Hex+"  payload.bin")

			report, err := VerifyManifest(context.Background(), path)
			require.NoError(t, err)
			assert.Equal(t, alg, report.Algorithm)
			assert.Equal(t, manifest.SourceDigestLength, report.DetectedBy)
			require.Len(t, report.Entries, 1)
			assert.Equal(t, StatusPassed, report.Entries[0].Outcome.Status)
			assert.Equal(t, 1, report.Counts.Passed)
			assert.True(t, report.OK())
			assertCountsConsistent(t, report)
		})
	}
}

func TestVerifyManifest_CorruptionDetected(t *testing.T) {
	dir := t.TempDir()
	fixture(t, dir, map[string]string{"a.txt": "alpha", "b.txt": "bravo"})
	path := writeManifest(t, dir, "SHA256SUMS",
		sha256Hex("alpha")+"  a.txt",
		sha256Hex("bravo")+"  b.txt",
	)

	report, err := VerifyManifest(context.Background(), path)
	require.NoError(t, err)
	require.True(t, report.OK())

	// Flip one byte of b.txt.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("Bravo"), 0o644))

	report, err = VerifyManifest(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, StatusPassed, report.Entries[0].Outcome.Status)
	assert.Equal(t, StatusFailed, report.Entries[1].Outcome.Status)
	assert.Equal(t, DetailMismatch, report.Entries[1].Outcome.Detail)
	require.NotNil(t, report.Entries[1].Digest)
	assert.Equal(t, sha256Hex("Bravo"), report.Entries[1].Digest.Hex)
	assert.False(t, report.OK())
	assertCountsConsistent(t, report)
}

func TestVerifyManifest_MissingFile(t *testing.T) {
	dir := t.TempDir()
	fixture(t, dir, map[string]string{"present.txt": "here"})
	path := writeManifest(t, dir, "SHA256SUMS",
		sha256Hex("gone")+"  missing.txt",
		sha256Hex("here")+"  present.txt",
	)

	report, err := VerifyManifest(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, report.Entries, 2)

	assert.Equal(t, StatusError, report.Entries[0].Outcome.Status)
	assert.Equal(t, digest.ReasonNotFound, report.Entries[0].Outcome.Detail)
	assert.Nil(t, report.Entries[0].Digest)
	assert.Equal(t, StatusPassed, report.Entries[1].Outcome.Status)

	assert.Equal(t, Counts{Passed: 1, Errored: 1, Total: 2}, report.Counts)
}

func TestVerifyManifest_MalformedLineTolerated(t *testing.T) {
	dir := t.TempDir()
	fixture(t, dir, map[string]string{"good.txt": "good", "bad.txt": "bad"})
	path := writeManifest(t, dir, "SHA256SUMS",
		sha256Hex("good")+"  good.txt",
		"0123456789abcdef  broken.txt",
		sha256Hex("not bad")+"  bad.txt",
	)

	report, err := VerifyManifest(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, report.Entries, 3)

	assert.Equal(t, StatusPassed, report.Entries[0].Outcome.Status)
	assert.Equal(t, StatusError, report.Entries[1].Outcome.Status)
	assert.Equal(t, manifest.ReasonUnparsable, report.Entries[1].Outcome.Detail)
	assert.Equal(t, 2, report.Entries[1].Entry.Line)
	assert.Equal(t, StatusFailed, report.Entries[2].Outcome.Status)

	assert.Equal(t, Counts{Passed: 1, Failed: 1, Errored: 1, Total: 3}, report.Counts)
}

func TestVerifyManifest_Detection(t *testing.T) {
	dir := t.TempDir()
	fixture(t, dir, map[string]string{"f": "content"})

	t.Run("filename hint", func(t *testing.T) {
		path := writeManifest(t, dir, "SHA256SUMS", sha256Hex("content")+"  f")
		report, err := VerifyManifest(context.Background(), path)
		require.NoError(t, err)
		assert.Equal(t, digest.SHA256, report.Algorithm)
		assert.Equal(t, manifest.SourceFilename, report.DetectedBy)
	})

	t.Run("md5 from digest length", func(t *testing.T) {
		path := writeManifest(t, dir, "list.txt", "# comment", md5Hex("content")+"  f")
		report, err := VerifyManifest(context.Background(), path)
		require.NoError(t, err)
		assert.Equal(t, digest.MD5, report.Algorithm)
		assert.True(t, report.OK())
	})

	t.Run("length from another algorithm", func(t *testing.T) {
		path := writeManifest(t, dir, "MD5SUMS", sha256Hex("content")+"  f")
		report, err := VerifyManifest(context.Background(), path)
		require.NoError(t, err)
		assert.Equal(t, StatusError, report.Entries[0].Outcome.Status)
		assert.Equal(t, DetailLengthMismatch, report.Entries[0].Outcome.Detail)
	})

	t.Run("explicit algorithm", func(t *testing.T) {
		path := writeManifest(t, dir, "SUMS.txt", md5Hex("content")+"  f")
		v := New(Options{Algorithm: digest.MD5})
		report, err := v.VerifyManifest(context.Background(), path)
		require.NoError(t, err)
		assert.Equal(t, manifest.SourceExplicit, report.DetectedBy)
		assert.True(t, report.OK())
	})

	t.Run("undetectable", func(t *testing.T) {
		path := writeManifest(t, dir, "CHECKSUMS.txt", "xyz  f")
		_, err := VerifyManifest(context.Background(), path)
		var formatErr *ManifestFormatError
		require.ErrorAs(t, err, &formatErr)
		assert.Equal(t, ReasonUndetectable, formatErr.Reason)
		assert.ErrorIs(t, err, manifest.ErrUndetectable)
	})
}

func TestVerifyManifest_FatalErrors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name   string
		path   string
		reason string
	}{
		{name: "missing manifest", path: filepath.Join(dir, "SHA256SUMS"), reason: ReasonManifestNotFound},
		{name: "directory", path: dir, reason: ReasonManifestRead},
		{name: "only comments", path: writeManifest(t, dir, "EMPTY.sha256", "# nothing"), reason: ReasonNoEntries},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := VerifyManifest(context.Background(), tt.path)
			assert.Nil(t, report)
			var formatErr *ManifestFormatError
			require.ErrorAs(t, err, &formatErr)
			assert.Equal(t, tt.reason, formatErr.Reason)
		})
	}
}

func TestVerifyManifest_PathsRelativeToManifest(t *testing.T) {
	root := t.TempDir()
	release := filepath.Join(root, "release")
	fixture(t, release, map[string]string{"pkg/app.tar": "app"})

	abs := filepath.Join(root, "elsewhere.txt")
	require.NoError(t, os.WriteFile(abs, []byte("abs"), 0o644))

	path := writeManifest(t, release, "SHA256SUMS",
		sha256Hex("app")+"  pkg/app.tar",
		sha256Hex("abs")+"  "+abs,
	)

	// Run from a different working directory.
	t.Chdir(t.TempDir())

	report, err := VerifyManifest(context.Background(), path)
	require.NoError(t, err)
	assert.True(t, report.OK(), "%+v", report.Entries)
	assert.Equal(t, filepath.Join(release, "pkg", "app.tar"), report.Entries[0].Path)
	assert.Equal(t, abs, report.Entries[1].Path)
}

func TestVerifyManifest_WorkersPreserveOrder(t *testing.T) {
	dir := t.TempDir()
	var lines []string
	files := map[string]string{}
	for i := 0; i < 40; i++ {
		name := "file-" + strings.Repeat("x", i%5) + string(rune('a'+i%26)) + "-" + hex.EncodeToString([]byte{byte(i)})
		content := strings.Repeat(name, i+1)
		files[name] = content
		expected := sha256Hex(content)
		if i%7 == 0 {
			expected = sha256Hex("wrong")
		}
		lines = append(lines, expected+"  "+name)
	}
	fixture(t, dir, files)
	lines = append(lines, sha256Hex("x")+"  not-there")
	path := writeManifest(t, dir, "SHA256SUMS", lines...)

	sequential, err := New(Options{Workers: 1}).VerifyManifest(context.Background(), path)
	require.NoError(t, err)

	var mu sync.Mutex
	var calls int
	parallel, err := New(Options{
		Workers: 8,
		OnProgress: func(p Progress) {
			mu.Lock()
			defer mu.Unlock()
			calls++
			assert.Equal(t, len(lines), p.Total)
		},
	}).VerifyManifest(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, len(lines), calls)
	assert.Equal(t, sequential.Counts, parallel.Counts)
	require.Len(t, parallel.Entries, len(sequential.Entries))
	for i := range sequential.Entries {
		assert.Equal(t, sequential.Entries[i].Entry, parallel.Entries[i].Entry)
		assert.Equal(t, sequential.Entries[i].Outcome, parallel.Entries[i].Outcome)
	}
	assertCountsConsistent(t, parallel)
}

func TestVerifyManifest_Canceled(t *testing.T) {
	dir := t.TempDir()
	fixture(t, dir, map[string]string{"f": "x"})
	path := writeManifest(t, dir, "SHA256SUMS", sha256Hex("x")+"  f")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := VerifyManifest(ctx, path)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestVerifySingle(t *testing.T) {
	dir := t.TempDir()
	fixture(t, dir, map[string]string{"file.txt": "single"})
	path := filepath.Join(dir, "file.txt")

	t.Run("match", func(t *testing.T) {
		res, err := VerifySingle(path, digest.SHA256, sha256Hex("single"))
		require.NoError(t, err)
		assert.True(t, res.Outcome.Passed())
		assert.Equal(t, uint64(6), res.Digest.Size)
	})

	t.Run("uppercase expected matches", func(t *testing.T) {
		res, err := VerifySingle(path, digest.SHA256, strings.ToUpper(sha256Hex("single")))
		require.NoError(t, err)
		assert.Equal(t, StatusPassed, res.Outcome.Status)
		assert.Equal(t, sha256Hex("single"), res.Expected)
	})

	t.Run("mismatch", func(t *testing.T) {
		res, err := VerifySingle(path, digest.SHA256, sha256Hex("other"))
		require.NoError(t, err)
		assert.Equal(t, StatusFailed, res.Outcome.Status)
		assert.Equal(t, DetailMismatch, res.Outcome.Detail)
	})

	t.Run("wrong length expected silently fails", func(t *testing.T) {
		res, err := VerifySingle(path, digest.SHA256, md5Hex("single"))
		require.NoError(t, err)
		assert.Equal(t, StatusFailed, res.Outcome.Status)
	})

	t.Run("missing file", func(t *testing.T) {
		res, err := VerifySingle(filepath.Join(dir, "nope"), digest.SHA256, sha256Hex("single"))
		var accessErr *digest.FileAccessError
		require.ErrorAs(t, err, &accessErr)
		assert.Equal(t, StatusError, res.Outcome.Status)
		assert.Equal(t, digest.ReasonNotFound, res.Outcome.Detail)
	})
}

func TestCalculate_MissingFileIsFatal(t *testing.T) {
	_, err := Calculate(filepath.Join(t.TempDir(), "nope"), digest.MD5)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
