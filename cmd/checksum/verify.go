package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jamesainslie/checksum/pkg/checksum/config"
	"github.com/jamesainslie/checksum/pkg/checksum/digest"
	"github.com/jamesainslie/checksum/pkg/checksum/history"
	"github.com/jamesainslie/checksum/pkg/checksum/output"
	"github.com/jamesainslie/checksum/pkg/checksum/verify"
	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify a file or a checksum manifest",
	Long: `Verify a single file against a known hash, or every file listed in a
checksum manifest such as SHA256SUMS.

Manifest entries are resolved relative to the manifest's directory. The
algorithm is taken from --algorithm when given, otherwise from the manifest
name (MD5SUMS, SHA256SUMS, ...) or from the length of its digests.

The exit status is 0 only when every file passed.

Examples:
  checksum verify -f ubuntu.iso -H 3f2a...
  checksum verify -c SHA256SUMS
  checksum verify -c release.sums -a sha512 -o json`,
	Args: cobra.NoArgs,
	RunE: runVerify,
}

func init() {
	flags := verifyCmd.Flags()
	flags.StringP("file", "f", "", "file to verify")
	flags.StringP("hash", "H", "", "expected hash for --file")
	flags.StringP("check", "c", "", "manifest file to verify")
	addOutputFlags(verifyCmd)

	verifyCmd.MarkFlagsRequiredTogether("file", "hash")
	verifyCmd.MarkFlagsMutuallyExclusive("file", "check")
	verifyCmd.MarkFlagsMutuallyExclusive("hash", "check")
	verifyCmd.MarkFlagsOneRequired("file", "check")

	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	formatter, err := formatterFor(cmd, cfg)
	if err != nil {
		return err
	}

	if manifestPath, _ := cmd.Flags().GetString("check"); manifestPath != "" {
		report, err := verifyManifest(cmd.Context(), cmd, cfg, manifestPath)
		if err != nil {
			return err
		}
		return render(cmd, formatter, &output.Result{
			Mode:     output.ModeManifest,
			Verbose:  getVerbose(),
			Manifest: report,
		})
	}

	path, _ := cmd.Flags().GetString("file")
	expected, _ := cmd.Flags().GetString("hash")
	result, err := verifySingle(cfg, path, expected)
	if err != nil {
		return err
	}
	return render(cmd, formatter, &output.Result{
		Mode:    output.ModeVerify,
		Verbose: getVerbose(),
		Single:  result,
	})
}

// verifySingle checks one file against expected. An unreadable file is a
// fatal error since there is nothing else to report.
func verifySingle(cfg *config.Config, path, expected string) (*verify.SingleResult, error) {
	alg, err := algorithmFor(cfg)
	if err != nil {
		return nil, err
	}
	if n := len(strings.TrimSpace(expected)); n != alg.HexLen() {
		printWarn("expected hash has %d characters; %s digests have %d", n, alg.Display(), alg.HexLen())
		cliLogger.Warn("expected hash length differs from algorithm", "algorithm", alg, "length", n)
	}

	v, err := newVerifier(cfg, "", nil)
	if err != nil {
		return nil, err
	}

	progress := startProgress(fmt.Sprintf("Verifying %s hash", alg.Display()))
	start := time.Now()
	result, err := v.VerifySingle(path, alg, expected)
	progress.Stop()
	if err != nil {
		return nil, err
	}

	rec := &history.Record{
		Mode:      string(output.ModeVerify),
		Target:    path,
		Algorithm: string(alg),
		Status:    string(result.Outcome.Status),
		Total:     1,
		Duration:  time.Since(start),
		Detail:    result.Outcome.Detail,
	}
	if result.Outcome.Passed() {
		rec.Passed = 1
	} else {
		rec.Failed = 1
	}
	recordRun(cfg, rec)
	return &result, nil
}

// verifyManifest checks every entry of a manifest, drawing progress while
// it runs. The algorithm is forced only when --algorithm was given.
func verifyManifest(ctx context.Context, cmd *cobra.Command, cfg *config.Config, path string) (*verify.Report, error) {
	var alg digest.Algorithm
	if explicitAlgorithm(cmd) {
		var err error
		if alg, err = algorithmFor(cfg); err != nil {
			return nil, err
		}
	}

	progress := startProgress("Verifying " + path)
	v, err := newVerifier(cfg, alg, func(p verify.Progress) {
		progress.Update(p.Done, p.Total, p.Current)
	})
	if err != nil {
		progress.Stop()
		return nil, err
	}

	report, err := v.VerifyManifest(ctx, path)
	progress.Stop()
	if err != nil {
		return nil, err
	}

	recordRun(cfg, reportRecord(string(output.ModeManifest), report))
	return report, nil
}
