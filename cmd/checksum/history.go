package main

import (
	"fmt"

	"github.com/jamesainslie/checksum/pkg/checksum/config"
	"github.com/jamesainslie/checksum/pkg/checksum/history"
	"github.com/jamesainslie/checksum/pkg/checksum/output"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View past runs",
	Long: `View the record of past calc, verify and generate runs.

History is kept for the user's reference only; verification always hashes
files again.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show details of a run",
	Long:  `Display one run. The ID may be shortened to any unique prefix.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove old runs",
	Long:  `Remove runs older than history.retention_days, or every run with --all.`,
	Args:  cobra.NoArgs,
	RunE:  runHistoryClean,
}

func init() {
	historyCmd.Flags().IntP("limit", "l", 20, "maximum number of runs to show (0 = all)")
	addOutputFlags(historyCmd)
	addOutputFlags(historyShowCmd)
	historyCleanCmd.Flags().Bool("all", false, "remove every run")

	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyCleanCmd)
	rootCmd.AddCommand(historyCmd)
}

// openHistory opens the configured store. It works even when recording is
// disabled so that old runs can still be read or cleaned.
func openHistory(cfg *config.Config) (*history.Store, error) {
	return history.Open(cfg.History.Path)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	formatter, err := formatterFor(cmd, cfg)
	if err != nil {
		return err
	}
	limit, _ := cmd.Flags().GetInt("limit")

	store, err := openHistory(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	runs, err := store.List(limit)
	if err != nil {
		return fmt.Errorf("listing history: %w", err)
	}
	if len(runs) == 0 && !cfg.History.Enabled {
		printInfo("History recording is disabled (history.enabled: false).")
	}
	return render(cmd, formatter, &output.Result{
		Mode:    output.ModeHistory,
		Verbose: getVerbose(),
		Runs:    runs,
	})
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	formatter, err := formatterFor(cmd, cfg)
	if err != nil {
		return err
	}

	store, err := openHistory(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	run, err := store.Get(args[0])
	if err != nil {
		return fmt.Errorf("run %q: %w", args[0], err)
	}
	return render(cmd, formatter, &output.Result{
		Mode:    output.ModeHistory,
		Verbose: true,
		Runs:    []history.Record{*run},
	})
}

func runHistoryClean(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	all, _ := cmd.Flags().GetBool("all")

	store, err := openHistory(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	days := cfg.History.RetentionDays
	if all {
		days = 0
	} else if days == 0 {
		printInfo("history.retention_days is 0, so runs are kept forever; use --all to remove them")
		return nil
	}
	removed, err := store.Cleanup(days)
	if err != nil {
		return err
	}

	if all {
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d runs\n", removed)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d runs older than %d days\n", removed, days)
	}
	return nil
}
