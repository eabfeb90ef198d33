package manifest

import (
	"bytes"
	"testing"

	"github.com/jamesainslie/checksum/pkg/checksum/digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriter_Line(t *testing.T) {
	tests := []struct {
		name     string
		template string
		want     string
	}{
		{name: "default is gnu", template: "", want: md5Hex + "  dir/file.txt"},
		{name: "bsd", template: BSDTemplate, want: "MD5 (dir/file.txt) = " + md5Hex},
		{name: "custom", template: "{algorithm}:{hash}:{path}", want: "md5:" + md5Hex + ":dir/file.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := NewWriter(digest.MD5, tt.template)
			require.NoError(t, err)
			assert.Equal(t, tt.want, w.Line(Record{Hex: md5Hex, Path: "dir/file.txt"}))
		})
	}
}

func TestWriter_RoundTrip(t *testing.T) {
	w, err := NewWriter(digest.SHA256, GNUTemplate)
	require.NoError(t, err)

	var buf bytes.Buffer
	records := []Record{
		{Hex: sha256Hex, Path: "a.txt"},
		{Hex: sha256Hex, Path: "sub dir/b.txt"},
	}
	require.NoError(t, w.WriteRecords(&buf, records))

	entries, err := Parse(&buf)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for i, e := range entries {
		assert.True(t, e.Valid())
		assert.Equal(t, records[i].Hex, e.ExpectedHex)
		assert.Equal(t, records[i].Path, e.RelativePath)
	}
}

func TestNewWriter_UnclosedTag(t *testing.T) {
	_, err := NewWriter(digest.MD5, "{hash")
	assert.Error(t, err)
}
