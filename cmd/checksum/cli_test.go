package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/adrg/xdg"
	"github.com/goccy/go-json"
	"github.com/jamesainslie/checksum/pkg/checksum/digest"
	"github.com/jamesainslie/checksum/pkg/checksum/logging"
	"github.com/jamesainslie/checksum/pkg/checksum/verify"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	helloSHA256 = "5891b5b522d5df086d0ff0b110fbd9d21bb4fc7163af34d08286a2e846f6be03"
	helloMD5    = "b1946ac92492d2347c6235b4d2611184"
)

// setupCLI points every XDG directory at a temp dir and clears CHECKSUM_
// variables from the environment.
func setupCLI(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(home, "data"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(home, "state"))
	for _, kv := range os.Environ() {
		if name, _, _ := strings.Cut(kv, "="); strings.HasPrefix(name, "CHECKSUM_") {
			t.Setenv(name, "")
			require.NoError(t, os.Unsetenv(name))
		}
	}
	xdg.Reload()
	t.Cleanup(func() { _ = logging.Close() })
	return home
}

// resetFlags restores every flag in the tree to its default.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// runCLI executes the command tree with args and returns stdout and stderr.
func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	viper.Reset()
	bindFlags(viper.GetViper())
	resetFlags(rootCmd)

	var out, errOut bytes.Buffer
	oldStderr := stderr
	stderr = &errOut
	defer func() { stderr = oldStderr }()

	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCalc(t *testing.T) {
	home := setupCLI(t)
	file := writeFile(t, filepath.Join(home, "hello.txt"), "hello\n")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"flag default algorithm", []string{"calc", "-f", file}, helloSHA256},
		{"positional argument", []string{"calc", file}, helloSHA256},
		{"md5", []string{"calc", "-f", file, "-a", "md5"}, helloMD5},
		{"algorithm is case insensitive", []string{"calc", file, "-a", "MD5"}, helloMD5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append(tt.args, "-q", "--no-history", "--template", "{{.Hash}}")
			out, _, err := runCLI(t, args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestCalc_JSON(t *testing.T) {
	home := setupCLI(t)
	file := writeFile(t, filepath.Join(home, "hello.txt"), "hello\n")

	out, _, err := runCLI(t, "calc", "-f", file, "-o", "json", "-q", "--no-history")
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, helloSHA256, doc["hash"])
	assert.Equal(t, "sha256", doc["algorithm"])
	assert.EqualValues(t, 6, doc["size"])
}

func TestCalc_Errors(t *testing.T) {
	home := setupCLI(t)

	t.Run("missing file", func(t *testing.T) {
		_, _, err := runCLI(t, "calc", "-f", filepath.Join(home, "nope"), "-q", "--no-history")
		var accessErr *digest.FileAccessError
		require.ErrorAs(t, err, &accessErr)
		assert.Equal(t, digest.ReasonNotFound, accessErr.Reason)
	})

	t.Run("no file", func(t *testing.T) {
		_, _, err := runCLI(t, "calc", "-q", "--no-history")
		assert.ErrorIs(t, err, errNoFile)
	})

	t.Run("unknown algorithm", func(t *testing.T) {
		file := writeFile(t, filepath.Join(home, "a"), "a")
		_, _, err := runCLI(t, "calc", file, "-a", "crc32", "-q", "--no-history")
		assert.ErrorIs(t, err, digest.ErrUnsupportedAlgorithm)
	})

	t.Run("unknown output format", func(t *testing.T) {
		file := writeFile(t, filepath.Join(home, "a"), "a")
		_, _, err := runCLI(t, "calc", file, "-o", "xml", "-q", "--no-history")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "available formats")
	})
}

func TestVerifySingle(t *testing.T) {
	home := setupCLI(t)
	file := writeFile(t, filepath.Join(home, "hello.txt"), "hello\n")

	t.Run("match ignores case", func(t *testing.T) {
		out, _, err := runCLI(t, "verify", "-f", file, "-H", strings.ToUpper(helloSHA256),
			"-o", "plain", "-q", "--no-history")
		require.NoError(t, err)
		assert.Contains(t, out, "passed")
	})

	t.Run("mismatch", func(t *testing.T) {
		out, _, err := runCLI(t, "verify", "-f", file, "-H", strings.Repeat("0", 64),
			"-o", "plain", "-q", "--no-history")
		require.ErrorIs(t, err, verify.ErrVerificationFailed)
		assert.Contains(t, out, "failed")
		assert.Contains(t, out, helloSHA256)
	})

	t.Run("short hash warns", func(t *testing.T) {
		_, errOut, err := runCLI(t, "verify", "-f", file, "-H", helloMD5, "-q", "--no-history")
		require.ErrorIs(t, err, verify.ErrVerificationFailed)
		assert.Contains(t, errOut, "Warning: expected hash has 32 characters")
	})

	t.Run("surrounding space does not warn", func(t *testing.T) {
		_, errOut, err := runCLI(t, "verify", "-f", file, "-H", "  "+helloSHA256+" ", "-q", "--no-history")
		require.NoError(t, err)
		assert.NotContains(t, errOut, "Warning")
	})

	t.Run("file without hash", func(t *testing.T) {
		_, _, err := runCLI(t, "verify", "-f", file, "-q", "--no-history")
		assert.Error(t, err)
	})

	t.Run("file and manifest together", func(t *testing.T) {
		_, _, err := runCLI(t, "verify", "-f", file, "-H", helloSHA256, "-c", file, "-q", "--no-history")
		assert.Error(t, err)
	})

	t.Run("nothing to verify", func(t *testing.T) {
		_, _, err := runCLI(t, "verify", "-q", "--no-history")
		assert.Error(t, err)
	})
}

func TestVerifyManifest(t *testing.T) {
	home := setupCLI(t)
	dir := filepath.Join(home, "release")
	writeFile(t, filepath.Join(dir, "hello.txt"), "hello\n")
	writeFile(t, filepath.Join(dir, "changed.txt"), "changed\n")

	t.Run("all pass", func(t *testing.T) {
		sums := writeFile(t, filepath.Join(dir, "SHA256SUMS"), helloSHA256+"  hello.txt\n")
		out, _, err := runCLI(t, "verify", "-c", sums, "-o", "plain", "-q", "--no-history")
		require.NoError(t, err)
		assert.Contains(t, out, "passed=1 failed=0 errors=0 total=1 algorithm=sha256")
	})

	t.Run("failures and errors", func(t *testing.T) {
		sums := writeFile(t, filepath.Join(dir, "SHA256SUMS"), "# release\n"+
			helloSHA256+"  hello.txt\n"+
			helloSHA256+"  changed.txt\n"+
			helloSHA256+"  missing.txt\n"+
			"not a line\n")
		out, _, err := runCLI(t, "verify", "-c", sums, "-o", "plain", "-q", "--no-history")
		require.ErrorIs(t, err, verify.ErrVerificationFailed)
		assert.Contains(t, out, "passed=1 failed=1 errors=2 total=4 algorithm=sha256")
		assert.Contains(t, out, "changed.txt")
		assert.NotContains(t, out, "hello.txt")
	})

	t.Run("explicit algorithm overrides detection", func(t *testing.T) {
		sums := writeFile(t, filepath.Join(dir, "SHA256SUMS"), helloMD5+"  hello.txt\n")
		out, _, err := runCLI(t, "verify", "-c", sums, "-a", "md5", "-o", "plain", "-q", "--no-history")
		require.NoError(t, err)
		assert.Contains(t, out, "algorithm=md5")
	})

	t.Run("missing manifest is fatal", func(t *testing.T) {
		_, _, err := runCLI(t, "verify", "-c", filepath.Join(dir, "nope"), "-q", "--no-history")
		var formatErr *verify.ManifestFormatError
		require.ErrorAs(t, err, &formatErr)
		assert.NotErrorIs(t, err, verify.ErrVerificationFailed)
	})
}

func TestGenerateThenVerify(t *testing.T) {
	home := setupCLI(t)
	dir := filepath.Join(home, "tree")
	writeFile(t, filepath.Join(dir, "hello.txt"), "hello\n")
	writeFile(t, filepath.Join(dir, "sub", "b.bin"), "bbbb")
	writeFile(t, filepath.Join(dir, ".hidden"), "secret")
	writeFile(t, filepath.Join(dir, "skip.tmp"), "tmp")
	sums := filepath.Join(dir, "SHA256SUMS")

	_, _, err := runCLI(t, "generate", dir, "-o", sums, "--exclude", "*.tmp", "-q", "--no-history")
	require.NoError(t, err)

	data, err := os.ReadFile(sums)
	require.NoError(t, err)
	assert.Equal(t, helloSHA256+"  hello.txt\n"+
		"81cc5b17018674b401b42f35ba07bb79e211239c23bffe658da1577e3e646877  sub/b.bin\n", string(data))

	out, _, err := runCLI(t, "verify", "-c", sums, "-o", "plain", "-q", "--no-history")
	require.NoError(t, err)
	assert.Contains(t, out, "passed=2 failed=0 errors=0 total=2")
}

func TestGenerate_StdoutStyles(t *testing.T) {
	home := setupCLI(t)
	writeFile(t, filepath.Join(home, "hello.txt"), "hello\n")

	t.Run("bsd", func(t *testing.T) {
		out, _, err := runCLI(t, "generate", home, "--include", "*.txt", "--style", "bsd", "-a", "md5",
			"-q", "--no-history")
		require.NoError(t, err)
		assert.Contains(t, out, "MD5 (")
		assert.Contains(t, out, "hello.txt) = "+helloMD5)
	})

	t.Run("template", func(t *testing.T) {
		out, _, err := runCLI(t, "generate", home, "--include", "*.txt", "--template", "{hash} *{path}",
			"-q", "--no-history")
		require.NoError(t, err)
		assert.Contains(t, out, helloSHA256+" *")
	})

	t.Run("unknown style", func(t *testing.T) {
		_, _, err := runCLI(t, "generate", home, "--style", "xml", "-q", "--no-history")
		assert.Error(t, err)
	})
}

func TestHistory(t *testing.T) {
	home := setupCLI(t)
	file := writeFile(t, filepath.Join(home, "hello.txt"), "hello\n")

	_, _, err := runCLI(t, "calc", file, "-q")
	require.NoError(t, err)
	_, _, err = runCLI(t, "verify", "-f", file, "-H", helloSHA256, "-q")
	require.NoError(t, err)
	_, _, err = runCLI(t, "calc", file, "-q", "--no-history")
	require.NoError(t, err)

	out, _, err := runCLI(t, "history", "-o", "json", "-q")
	require.NoError(t, err)

	var doc struct {
		Runs []struct {
			ID   string `json:"id"`
			Mode string `json:"mode"`
		} `json:"runs"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	require.Len(t, doc.Runs, 2)
	assert.Equal(t, "verify", doc.Runs[0].Mode)
	assert.Equal(t, "calc", doc.Runs[1].Mode)

	out, _, err = runCLI(t, "history", "show", doc.Runs[1].ID[:8], "-o", "plain", "-q")
	require.NoError(t, err)
	assert.Contains(t, out, doc.Runs[1].ID)

	out, _, err = runCLI(t, "history", "clean", "--all", "-q")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed 2 runs")
}

func TestConfigCommands(t *testing.T) {
	home := setupCLI(t)
	want := filepath.Join(home, "config", "checksum", "config.yaml")

	out, _, err := runCLI(t, "config", "path")
	require.NoError(t, err)
	assert.Equal(t, want+"\n", out)

	_, _, err = runCLI(t, "config", "init", "-q")
	require.NoError(t, err)
	assert.FileExists(t, want)

	t.Setenv("CHECKSUM_ALGORITHM", "sha512")
	out, _, err = runCLI(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "# Config file: "+want)
	assert.Contains(t, out, "# Environment: CHECKSUM_ALGORITHM=sha512")
	assert.Contains(t, out, "algorithm: sha512")
}

func TestConfigFileSetsDefaults(t *testing.T) {
	home := setupCLI(t)
	file := writeFile(t, filepath.Join(home, "hello.txt"), "hello\n")
	cfg := writeFile(t, filepath.Join(home, "custom.yaml"), "algorithm: md5\noutput: plain\n")

	out, _, err := runCLI(t, "--config", cfg, "calc", file, "-q", "--no-history")
	require.NoError(t, err)
	assert.Contains(t, out, helloMD5)
	assert.Contains(t, out, "HASH")

	out, _, err = runCLI(t, "--config", cfg, "calc", file, "-a", "sha256", "-q", "--no-history", "--template", "{{.Hash}}")
	require.NoError(t, err)
	assert.Equal(t, helloSHA256, out)
}

func TestVersion(t *testing.T) {
	setupCLI(t)
	out, _, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "checksum dev\n"))
}
