package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/jamesainslie/checksum/pkg/checksum/config"
	"github.com/jamesainslie/checksum/pkg/checksum/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string

	// configErr holds a failure from initConfig, reported by the first command.
	configErr error

	rootCmd = &cobra.Command{
		Use:   "checksum",
		Short: "Compute and verify file checksums",
		Long: `checksum computes and verifies MD5, SHA1, SHA256 and SHA512 digests for
single files and for manifests such as SHA256SUMS.

Examples:
  checksum calc -f ubuntu.iso                    # SHA256 of a file
  checksum calc -f ubuntu.iso -a md5 -o json     # MD5 as JSON
  checksum verify -f ubuntu.iso -H 3f2a...       # compare against a known hash
  checksum verify -c SHA256SUMS                  # verify every file in a manifest
  checksum generate ./release -o SHA256SUMS      # write a manifest
  checksum watch -c SHA256SUMS                   # re-verify on change
  checksum history                               # past runs`,
		SilenceErrors:      true,
		SilenceUsage:       true,
		PersistentPreRunE:  initializeLogging,
		PersistentPostRunE: closeLogging,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: ~/.config/checksum/config.yaml)")
	flags.StringP("algorithm", "a", "", "hash algorithm: md5, sha1, sha256, sha512 (default sha256)")
	flags.IntP("workers", "w", 0, "files hashed concurrently for manifests (0 = auto)")
	flags.String("chunk-size", "", "read buffer size, e.g. 1MiB (minimum 64KiB)")
	flags.BoolP("quiet", "q", false, "no progress display or informational messages")
	flags.BoolP("verbose", "v", false, "show hashes, passed entries and debug logs")
	flags.Bool("no-history", false, "do not record this run in the history")

	bindFlags(viper.GetViper())
}

// bindFlags ties the persistent flags to their config keys in v.
func bindFlags(v *viper.Viper) {
	flags := rootCmd.PersistentFlags()
	_ = v.BindPFlag("algorithm", flags.Lookup("algorithm"))
	_ = v.BindPFlag("workers", flags.Lookup("workers"))
	_ = v.BindPFlag("chunk_size", flags.Lookup("chunk-size"))
	_ = v.BindPFlag("quiet", flags.Lookup("quiet"))
	_ = v.BindPFlag("verbose", flags.Lookup("verbose"))
	_ = v.BindPFlag("no_history", flags.Lookup("no-history"))
}

// initConfig reads in config file and environment variables.
func initConfig() {
	configErr = config.Setup(viper.GetViper(), cfgFile)
}

// loadConfig decodes the merged flag, environment and file settings.
func loadConfig() (*config.Config, error) {
	if configErr != nil {
		return nil, configErr
	}
	cfg, err := config.Decode(viper.GetViper())
	if err != nil {
		return nil, err
	}
	if getNoHistory() {
		cfg.History.Enabled = false
	}
	return cfg, nil
}

// Execute runs the root command. Ctrl+C cancels the command's context, so
// manifest verification and watch stop cleanly.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer func() { _ = logging.Close() }()
	return rootCmd.ExecuteContext(ctx)
}

func closeLogging(cmd *cobra.Command, args []string) error {
	return logging.Close()
}

// getVerbose returns true if verbose mode is enabled.
func getVerbose() bool {
	return viper.GetBool("verbose")
}

// getQuiet returns true if quiet mode is enabled.
func getQuiet() bool {
	return viper.GetBool("quiet")
}

func getNoHistory() bool {
	return viper.GetBool("no_history")
}

// stderr receives progress, information and warnings. Tests replace it.
var stderr io.Writer = os.Stderr

// printInfo prints a message to stderr unless quiet mode is enabled.
func printInfo(format string, args ...interface{}) {
	if !getQuiet() {
		fmt.Fprintf(stderr, format+"\n", args...)
	}
}

// printWarn prints a warning to stderr.
func printWarn(format string, args ...interface{}) {
	fmt.Fprintf(stderr, "Warning: "+format+"\n", args...)
}
