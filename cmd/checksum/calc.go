package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/jamesainslie/checksum/pkg/checksum/history"
	"github.com/jamesainslie/checksum/pkg/checksum/output"
	"github.com/jamesainslie/checksum/pkg/checksum/verify"
	"github.com/spf13/cobra"
)

var errNoFile = errors.New("no file given: use --file or a path argument")

var calcCmd = &cobra.Command{
	Use:   "calc [file]",
	Short: "Calculate the checksum of a file",
	Long: `Calculate the checksum of a single file.

The file can be given with --file or as the only argument.

Examples:
  checksum calc -f ubuntu.iso
  checksum calc ubuntu.iso -a sha512
  checksum calc ubuntu.iso -o json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCalc,
}

func init() {
	calcCmd.Flags().StringP("file", "f", "", "file to hash")
	addOutputFlags(calcCmd)
	rootCmd.AddCommand(calcCmd)
}

// fileArg returns --file or the positional argument.
func fileArg(cmd *cobra.Command, args []string) (string, error) {
	file, _ := cmd.Flags().GetString("file")
	switch {
	case file != "" && len(args) > 0:
		return "", fmt.Errorf("give the file either with --file or as an argument, not both")
	case file != "":
		return file, nil
	case len(args) > 0:
		return args[0], nil
	}
	return "", errNoFile
}

func runCalc(cmd *cobra.Command, args []string) error {
	path, err := fileArg(cmd, args)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	formatter, err := formatterFor(cmd, cfg)
	if err != nil {
		return err
	}
	alg, err := algorithmFor(cfg)
	if err != nil {
		return err
	}
	v, err := newVerifier(cfg, "", nil)
	if err != nil {
		return err
	}

	progress := startProgress(fmt.Sprintf("Calculating %s hash", alg.Display()))
	start := time.Now()
	d, err := v.Calculate(path, alg)
	progress.Stop()
	if err != nil {
		return err
	}
	cliLogger.Info("calculated", "path", path, "algorithm", alg, "elapsed", elapsedSince(start))

	recordRun(cfg, &history.Record{
		Mode:      string(output.ModeCalc),
		Target:    d.Path,
		Algorithm: string(alg),
		Status:    string(verify.StatusPassed),
		Passed:    1,
		Total:     1,
		Duration:  time.Since(start),
		Detail:    d.Hex,
	})

	return render(cmd, formatter, &output.Result{
		Mode:    output.ModeCalc,
		Verbose: getVerbose(),
		Calc:    &d,
	})
}
