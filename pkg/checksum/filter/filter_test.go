package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilter_Match(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
		file FileInfo
		want bool
	}{
		{"no criteria", nil, FileInfo{Path: "a/b.txt"}, true},
		{"include by extension at depth", []Option{WithInclude("*.iso")}, FileInfo{Path: "images/deep/x.iso"}, true},
		{"include miss", []Option{WithInclude("*.iso")}, FileInfo{Path: "images/x.img"}, false},
		{"include full path", []Option{WithInclude("images/**")}, FileInfo{Path: "images/deep/x.img"}, true},
		{"exclude wins", []Option{WithInclude("*.iso"), WithExclude("tmp/**")}, FileInfo{Path: "tmp/x.iso"}, false},
		{"exclude base name", []Option{WithExclude("*.part")}, FileInfo{Path: "a/b/c.part"}, false},
		{"min size", []Option{WithMinSize(10)}, FileInfo{Path: "a", Size: 9}, false},
		{"min size met", []Option{WithMinSize(10)}, FileInfo{Path: "a", Size: 10}, true},
		{"max depth", []Option{WithMaxDepth(1)}, FileInfo{Path: "a/b/c", Depth: 2}, false},
		{"hidden file skipped", nil, FileInfo{Path: ".env"}, false},
		{"hidden dir skipped", nil, FileInfo{Path: ".git/config"}, false},
		{"hidden allowed", []Option{WithHidden(true)}, FileInfo{Path: ".git/config"}, true},
		{"blank patterns ignored", []Option{WithInclude(" ", "")}, FileInfo{Path: "x"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := New(tt.opts...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, f.Match(tt.file))
		})
	}
}

func TestFilter_SkipDir(t *testing.T) {
	f, err := New(WithExclude("node_modules"), WithInclude("*.go"))
	require.NoError(t, err)

	assert.False(t, f.SkipDir("."))
	assert.True(t, f.SkipDir("web/node_modules"))
	assert.True(t, f.SkipDir(".cache"))
	assert.False(t, f.SkipDir("pkg"), "include patterns never prune directories")
}

func TestNew_InvalidPattern(t *testing.T) {
	_, err := New(WithExclude("[unclosed"))
	assert.ErrorIs(t, err, ErrInvalidPattern)
}

func TestOptions_ClampNegatives(t *testing.T) {
	f, err := New(WithMinSize(-5), WithMaxDepth(-1))
	require.NoError(t, err)
	assert.Zero(t, f.MinSize)
	assert.Zero(t, f.MaxDepth)
}
