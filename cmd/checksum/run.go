package main

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jamesainslie/checksum/cmd/checksum/tui"
	"github.com/jamesainslie/checksum/pkg/checksum/config"
	"github.com/jamesainslie/checksum/pkg/checksum/digest"
	"github.com/jamesainslie/checksum/pkg/checksum/history"
	"github.com/jamesainslie/checksum/pkg/checksum/logging"
	"github.com/jamesainslie/checksum/pkg/checksum/output"
	"github.com/jamesainslie/checksum/pkg/checksum/tuner"
	"github.com/jamesainslie/checksum/pkg/checksum/verify"
	"github.com/spf13/cobra"
)

var cliLogger = logging.Get("cli")

// addOutputFlags registers the result formatting flags on cmd.
func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", "", "output format: "+strings.Join(output.Available(), ", ")+" (default from config)")
	cmd.Flags().String("template", "", "Go template for output (overrides --output)")
}

// formatterFor picks the formatter from --template, --output or the config.
func formatterFor(cmd *cobra.Command, cfg *config.Config) (output.Formatter, error) {
	name := cfg.Output
	if f := cmd.Flags().Lookup("output"); f != nil && f.Changed {
		name = f.Value.String()
	}
	tmpl, _ := cmd.Flags().GetString("template")

	formatter, err := output.Resolve(name, tmpl)
	if err != nil {
		return nil, fmt.Errorf("%w: available formats are %s", err, strings.Join(output.Available(), ", "))
	}
	return formatter, nil
}

// render formats result to the command's stdout. A result with failed or
// unreadable files returns verify.ErrVerificationFailed after printing.
func render(cmd *cobra.Command, formatter output.Formatter, result *output.Result) error {
	var buf bytes.Buffer
	if err := formatter.Format(&buf, result); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}
	if _, err := cmd.OutOrStdout().Write(buf.Bytes()); err != nil {
		return err
	}
	if !result.OK() {
		return verify.ErrVerificationFailed
	}
	return nil
}

// algorithmFor returns the configured algorithm.
func algorithmFor(cfg *config.Config) (digest.Algorithm, error) {
	if cfg.Algorithm == "" {
		return digest.DefaultAlgorithm, nil
	}
	return digest.ParseAlgorithm(cfg.Algorithm)
}

// explicitAlgorithm reports whether --algorithm was given on the command line.
func explicitAlgorithm(cmd *cobra.Command) bool {
	f := cmd.Flag("algorithm")
	return f != nil && f.Changed
}

// resourceOptions returns the chunk size and worker count for cfg.
func resourceOptions(cfg *config.Config) (chunkSize, workers int, err error) {
	chunkSize, err = cfg.ChunkSizeBytes()
	if err != nil {
		return 0, 0, err
	}
	workers = tuner.Resolve(cfg.Workers, chunkSize)
	cliLogger.Debug("resources", "chunk_size", chunkSize, "workers", workers)
	return chunkSize, workers, nil
}

// newVerifier builds a Verifier from cfg. alg forces the manifest
// algorithm when non-empty.
func newVerifier(cfg *config.Config, alg digest.Algorithm, onProgress func(verify.Progress)) (*verify.Verifier, error) {
	chunkSize, workers, err := resourceOptions(cfg)
	if err != nil {
		return nil, err
	}
	return verify.New(verify.Options{
		Algorithm:  alg,
		Workers:    workers,
		ChunkSize:  chunkSize,
		OnProgress: onProgress,
	}), nil
}

// startProgress shows a progress line on stderr when it is a terminal.
// The returned value is nil otherwise; its methods accept a nil receiver.
func startProgress(title string) *tui.Progress {
	if !tui.Enabled(getQuiet()) {
		return nil
	}
	return tui.Start(stderr, title)
}

// recordRun stores a finished run in the history. Failures are logged and
// reported as a warning; they never change the command's outcome.
func recordRun(cfg *config.Config, rec *history.Record) {
	if !cfg.History.Enabled {
		return
	}

	store, err := history.Open(cfg.History.Path)
	if err != nil {
		cliLogger.Warn("history unavailable", "path", cfg.History.Path, "error", err)
		printWarn("could not record history: %v", err)
		return
	}
	defer func() {
		if err := store.Close(); err != nil {
			cliLogger.Warn("closing history", "error", err)
		}
	}()

	if err := store.Add(rec); err != nil {
		cliLogger.Warn("history write failed", "error", err)
		printWarn("could not record history: %v", err)
	}
}

// status returns the history status for ok.
func status(ok bool) string {
	if ok {
		return string(verify.StatusPassed)
	}
	return string(verify.StatusFailed)
}

// reportRecord summarizes a manifest report for the history.
func reportRecord(mode string, r *verify.Report) *history.Record {
	return &history.Record{
		Mode:      mode,
		Target:    r.Manifest,
		Algorithm: string(r.Algorithm),
		Status:    status(r.OK()),
		Passed:    r.Counts.Passed,
		Failed:    r.Counts.Failed,
		Errored:   r.Counts.Errored,
		Total:     r.Counts.Total,
		Duration:  r.Elapsed,
		Detail:    "detected by " + string(r.DetectedBy),
	}
}

// elapsedSince rounds the time since start for display in logs.
func elapsedSince(start time.Time) time.Duration {
	return time.Since(start).Round(time.Millisecond)
}
