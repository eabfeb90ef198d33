package manifest

import (
	"testing"

	"github.com/jamesainslie/checksum/pkg/checksum/digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectFromName(t *testing.T) {
	tests := []struct {
		path   string
		want   digest.Algorithm
		wantOK bool
	}{
		{"SHA256SUMS", digest.SHA256, true},
		{"/srv/release/MD5SUMS", digest.MD5, true},
		{"archive.sha1", digest.SHA1, true},
		{"checksums.SHA512.txt", digest.SHA512, true},
		{"/tmp/sha256/CHECKSUMS", "", false},
		{"CHECKSUMS", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := DetectFromName(tt.path)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetect(t *testing.T) {
	md5Entry := Entry{ExpectedHex: md5Hex, RelativePath: "a"}
	bad := Entry{RelativePath: "x", Err: ReasonUnparsable}

	t.Run("filename hint wins", func(t *testing.T) {
		alg, src, err := Detect("SHA256SUMS", []Entry{md5Entry})
		require.NoError(t, err)
		assert.Equal(t, digest.SHA256, alg)
		assert.Equal(t, SourceFilename, src)
	})

	t.Run("falls back to first valid entry", func(t *testing.T) {
		alg, src, err := Detect("CHECKSUMS", []Entry{bad, md5Entry})
		require.NoError(t, err)
		assert.Equal(t, digest.MD5, alg)
		assert.Equal(t, SourceDigestLength, src)
	})

	t.Run("undetectable", func(t *testing.T) {
		_, _, err := Detect("CHECKSUMS", []Entry{bad})
		assert.ErrorIs(t, err, ErrUndetectable)
	})
}
