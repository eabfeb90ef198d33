package main

import (
	"fmt"
	"os"

	"github.com/jamesainslie/checksum/pkg/checksum/config"
	"github.com/jamesainslie/checksum/pkg/checksum/digest"
	"github.com/jamesainslie/checksum/pkg/checksum/logging"
	"github.com/spf13/cobra"
)

// defaultMaxLogSize is used when logging.rotation.max_size is empty or invalid.
const defaultMaxLogSize = 10 << 20

// initializeLogging is the root PersistentPreRunE hook. It creates the XDG
// directories and starts file logging; --verbose adds debug output on stderr.
// A broken logging configuration is reported but never stops the command.
func initializeLogging(cmd *cobra.Command, args []string) error {
	if err := ensureDirectories(); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		// The command reports configuration errors itself.
		cfg = &config.Config{}
	}

	logCfg := logging.Config{
		Level:      cfg.Logging.Level,
		Path:       cfg.Logging.Path,
		Rotation:   parseRotationConfig(cfg.Logging.Rotation),
		Components: cfg.Logging.Components,
	}
	if getVerbose() {
		logCfg.Level = "debug"
		logCfg.ConsoleLevel = "debug"
	}

	if err := logging.Init(logCfg); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: logging disabled: %v\n", err)
	}
	return nil
}

// ensureDirectories creates the config, data and state directories.
func ensureDirectories() error {
	configDir, err := config.ConfigDir()
	if err != nil {
		return err
	}
	for _, dir := range []string{configDir, config.DataDir(), config.StateDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return nil
}

// parseRotationConfig converts file settings to logging settings.
func parseRotationConfig(cfg config.RotationConfig) logging.RotationConfig {
	maxSize := int64(defaultMaxLogSize)
	if cfg.MaxSize != "" {
		if n, err := digest.ParseSize(cfg.MaxSize); err == nil && n > 0 {
			maxSize = n
		}
	}
	return logging.RotationConfig{
		MaxSize:    maxSize,
		MaxAge:     cfg.MaxAge,
		MaxBackups: cfg.MaxBackups,
		Daily:      cfg.Daily,
	}
}
