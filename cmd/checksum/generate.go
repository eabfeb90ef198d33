package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jamesainslie/checksum/pkg/checksum/digest"
	"github.com/jamesainslie/checksum/pkg/checksum/filter"
	"github.com/jamesainslie/checksum/pkg/checksum/generate"
	"github.com/jamesainslie/checksum/pkg/checksum/history"
	"github.com/jamesainslie/checksum/pkg/checksum/manifest"
	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate [dir]",
	Short: "Write a checksum manifest for a directory",
	Long: `Hash every regular file under a directory and write a checksum manifest.

Paths in the manifest are relative to the manifest's directory, so the
result can be checked with 'checksum verify -c' or sha256sum -c. Without
--output the manifest is written to stdout with paths relative to the
current directory. Hidden files and directories are skipped unless
--hidden is set.

Examples:
  checksum generate ./release -o release/SHA256SUMS
  checksum generate . --include '*.iso' --exclude 'tmp/**'
  checksum generate dist -a sha512 --style bsd`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGenerate,
}

func init() {
	flags := generateCmd.Flags()
	flags.StringP("output", "o", "", "manifest file to write (default: stdout)")
	flags.StringSlice("include", nil, "only include files matching these glob patterns")
	flags.StringSlice("exclude", nil, "exclude files and directories matching these glob patterns")
	flags.String("style", "gnu", "line style: gnu or bsd")
	flags.String("template", "", "line template, e.g. '{hash} *{path}' (overrides --style)")
	flags.Bool("hidden", false, "include hidden files and directories")
	flags.String("min-size", "", "skip files smaller than this, e.g. 1MiB")
	flags.Int("max-depth", 0, "maximum directory depth (0 = unlimited)")
	generateCmd.MarkFlagsMutuallyExclusive("style", "template")
	rootCmd.AddCommand(generateCmd)
}

// buildFilter creates a filter.Filter from the generate flags.
func buildFilter(cmd *cobra.Command) (*filter.Filter, error) {
	flags := cmd.Flags()
	include, _ := flags.GetStringSlice("include")
	exclude, _ := flags.GetStringSlice("exclude")
	hidden, _ := flags.GetBool("hidden")
	maxDepth, _ := flags.GetInt("max-depth")

	opts := []filter.Option{
		filter.WithInclude(include...),
		filter.WithExclude(exclude...),
		filter.WithHidden(hidden),
		filter.WithMaxDepth(maxDepth),
	}

	if s, _ := flags.GetString("min-size"); s != "" {
		n, err := digest.ParseSize(s)
		if err != nil {
			return nil, fmt.Errorf("invalid min-size %q: %w", s, err)
		}
		opts = append(opts, filter.WithMinSize(n))
	}
	return filter.New(opts...)
}

// lineTemplate returns the manifest line template from --template or --style.
func lineTemplate(cmd *cobra.Command) (string, error) {
	if tmpl, _ := cmd.Flags().GetString("template"); tmpl != "" {
		return tmpl, nil
	}
	style, _ := cmd.Flags().GetString("style")
	tmpl, ok := manifest.Styles[strings.ToLower(style)]
	if !ok {
		return "", fmt.Errorf("unknown style %q: use gnu or bsd", style)
	}
	return tmpl, nil
}

func runGenerate(cmd *cobra.Command, args []string) error {
	root := "."
	if len(args) > 0 {
		root = args[0]
	}
	outPath, _ := cmd.Flags().GetString("output")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	alg, err := algorithmFor(cfg)
	if err != nil {
		return err
	}
	chunkSize, workers, err := resourceOptions(cfg)
	if err != nil {
		return err
	}
	f, err := buildFilter(cmd)
	if err != nil {
		return err
	}
	tmpl, err := lineTemplate(cmd)
	if err != nil {
		return err
	}

	opts := generate.Options{
		Algorithm: alg,
		Filter:    f,
		ChunkSize: chunkSize,
		Workers:   workers,
	}
	if outPath != "" {
		abs, err := filepath.Abs(outPath)
		if err != nil {
			return err
		}
		opts.Base = filepath.Dir(abs)
		opts.Skip = []string{abs}
	} else {
		if opts.Base, err = os.Getwd(); err != nil {
			return err
		}
	}

	progress := startProgress("Hashing " + root)
	opts.OnProgress = progress.Update

	start := time.Now()
	result, err := generate.New(opts).Run(cmd.Context(), root)
	progress.Stop()
	if err != nil {
		return err
	}

	for _, s := range result.Skipped {
		printWarn("skipped %s: %s", s.Path, s.Err)
	}

	if outPath == "" {
		if err := result.WriteManifest(cmd.OutOrStdout(), tmpl); err != nil {
			return err
		}
	} else if err := writeManifestFile(outPath, result, tmpl); err != nil {
		return err
	}

	printInfo("%d files (%s) hashed with %s in %s",
		len(result.Files), humanize.IBytes(result.Bytes), alg.Display(), result.Elapsed.Round(time.Millisecond))
	if outPath != "" {
		printInfo("Wrote %s", outPath)
	}

	recordRun(cfg, &history.Record{
		Mode:      "generate",
		Target:    result.Root,
		Algorithm: string(alg),
		Status:    status(len(result.Skipped) == 0),
		Passed:    len(result.Files),
		Errored:   len(result.Skipped),
		Total:     len(result.Files) + len(result.Skipped),
		Duration:  time.Since(start),
		Detail:    outPath,
	})
	return nil
}

// writeManifestFile writes the manifest next to its final path and renames
// it into place, so readers never see a partial file.
func writeManifestFile(path string, result *generate.Result, tmpl string) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating manifest: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if err := writeAndClose(tmp, result, tmpl); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func writeAndClose(w io.WriteCloser, result *generate.Result, tmpl string) error {
	if err := result.WriteManifest(w, tmpl); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}
