package main

import (
	"errors"
	"path/filepath"
	"time"

	"github.com/jamesainslie/checksum/pkg/checksum/output"
	"github.com/jamesainslie/checksum/pkg/checksum/verify"
	"github.com/jamesainslie/checksum/pkg/checksum/watch"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-verify a manifest whenever files change",
	Long: `Verify a manifest, then verify it again each time the manifest or a file
under its directory changes. Changes are batched until the directory has
been quiet for --debounce. Stop with Ctrl+C.

Examples:
  checksum watch -c SHA256SUMS
  checksum watch -c dist/SHA512SUMS --debounce 2s -o plain`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringP("check", "c", "", "manifest file to watch")
	watchCmd.Flags().Duration("debounce", watch.DefaultDebounce, "quiet period before re-verifying")
	_ = watchCmd.MarkFlagRequired("check")
	addOutputFlags(watchCmd)
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	manifestPath, _ := cmd.Flags().GetString("check")
	debounce, _ := cmd.Flags().GetDuration("debounce")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	formatter, err := formatterFor(cmd, cfg)
	if err != nil {
		return err
	}

	check := func() error {
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

	// A manifest that cannot be read at all is fatal on the first pass only.
	if err := check(); err != nil && !errors.Is(err, verify.ErrVerificationFailed) {
		return err
	}

	w, err := watch.New(debounce)
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	abs, err := filepath.Abs(manifestPath)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}
	printInfo("Watching %s (%d directories); press Ctrl+C to stop", filepath.Dir(abs), len(w.Watched()))

	w.Run(cmd.Context(), func(paths []string) {
		cliLogger.Debug("re-verifying", "manifest", manifestPath, "changed", len(paths))
		printInfo("\n%s: %d change(s), verifying again", time.Now().Format(time.TimeOnly), len(paths))
		if err := check(); err != nil && !errors.Is(err, verify.ErrVerificationFailed) {
			printWarn("%v", err)
		}
	})
	return nil
}
