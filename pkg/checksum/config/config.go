package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/jamesainslie/checksum/pkg/checksum/digest"
	"github.com/spf13/viper"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// RotationConfig configures log file rotation.
type RotationConfig struct {
	MaxSize    string `mapstructure:"max_size" yaml:"max_size"`
	MaxAge     int    `mapstructure:"max_age" yaml:"max_age"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	Daily      bool   `mapstructure:"daily" yaml:"daily"`
}

// LoggingConfig configures the log file.
type LoggingConfig struct {
	Level      string            `mapstructure:"level" yaml:"level"`
	Path       string            `mapstructure:"path" yaml:"path"`
	Rotation   RotationConfig    `mapstructure:"rotation" yaml:"rotation"`
	Components map[string]string `mapstructure:"components" yaml:"components"`
}

// HistoryConfig configures the run history store.
type HistoryConfig struct {
	Enabled       bool   `mapstructure:"enabled" yaml:"enabled"`
	Path          string `mapstructure:"path" yaml:"path"`
	RetentionDays int    `mapstructure:"retention_days" yaml:"retention_days"`
}

// Config is the resolved application configuration.
type Config struct {
	Algorithm string        `mapstructure:"algorithm" yaml:"algorithm"`
	Output    string        `mapstructure:"output" yaml:"output"`
	Workers   int           `mapstructure:"workers" yaml:"workers"`
	ChunkSize string        `mapstructure:"chunk_size" yaml:"chunk_size"`
	History   HistoryConfig `mapstructure:"history" yaml:"history"`
	Logging   LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// Setup prepares v: defaults, config search paths, environment binding.
// An explicit cfgFile replaces the search paths. It then reads the config
// file; a missing file in the search paths is not an error.
func Setup(v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		dir, err := ConfigDir()
		if err != nil {
			return err
		}
		v.AddConfigPath(dir)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return nil
}

// SetDefaults registers every default value on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("algorithm", DefaultAlgorithm)
	v.SetDefault("output", DefaultOutput)
	v.SetDefault("workers", DefaultWorkers)
	v.SetDefault("chunk_size", DefaultChunkSize)

	v.SetDefault("history.enabled", true)
	v.SetDefault("history.path", "")
	v.SetDefault("history.retention_days", DefaultRetentionDays)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.path", "")
	v.SetDefault("logging.rotation.max_size", "10MiB")
	v.SetDefault("logging.rotation.max_age", 30)
	v.SetDefault("logging.rotation.max_backups", 5)
	v.SetDefault("logging.rotation.daily", true)
	v.SetDefault("logging.components", map[string]string{})
}

// Decode unmarshals v into a Config, expands ~ in paths, and validates it.
func Decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	var err error
	if cfg.History.Path, err = ExpandPath(cfg.History.Path); err != nil {
		return nil, err
	}
	if cfg.Logging.Path, err = ExpandPath(cfg.Logging.Path); err != nil {
		return nil, err
	}
	if cfg.History.Path == "" {
		cfg.History.Path = HistoryDir()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load reads configuration from cfgFile (or the default location) and the
// environment using a private viper instance.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	if err := Setup(v, cfgFile); err != nil {
		return nil, err
	}
	return Decode(v)
}

// Validate checks the values that other packages cannot repair.
func (c *Config) Validate() error {
	if _, err := digest.ParseAlgorithm(c.Algorithm); err != nil {
		return fmt.Errorf("%w: algorithm: %w", ErrInvalidConfig, err)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must be >= 0, got %d", ErrInvalidConfig, c.Workers)
	}
	if _, err := c.ChunkSizeBytes(); err != nil {
		return err
	}
	if c.History.RetentionDays < 0 {
		return fmt.Errorf("%w: history.retention_days must be >= 0", ErrInvalidConfig)
	}
	return nil
}

// ChunkSizeBytes parses ChunkSize. Empty selects the hasher default.
func (c *Config) ChunkSizeBytes() (int, error) {
	if strings.TrimSpace(c.ChunkSize) == "" {
		return digest.DefaultChunkSize, nil
	}
	n, err := digest.ParseSize(c.ChunkSize)
	if err != nil {
		return 0, fmt.Errorf("%w: chunk_size: %w", ErrInvalidConfig, err)
	}
	if n < digest.MinChunkSize {
		return 0, fmt.Errorf("%w: chunk_size %s is below the %s minimum",
			ErrInvalidConfig, c.ChunkSize, digest.FormatSize(digest.MinChunkSize))
	}
	return int(n), nil
}

// ConfigDir returns $XDG_CONFIG_HOME/checksum, falling back to ~/.config/checksum.
func ConfigDir() (string, error) {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, appName), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", appName), nil
}

// ConfigPath returns the path of the default config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// DataDir returns $XDG_DATA_HOME/checksum.
func DataDir() string {
	return filepath.Join(xdg.DataHome, appName)
}

// StateDir returns $XDG_STATE_HOME/checksum, where logs are written.
func StateDir() string {
	return filepath.Join(xdg.StateHome, appName)
}

// HistoryDir returns the default history database directory.
func HistoryDir() string {
	return filepath.Join(DataDir(), "history")
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, path[1:]), nil
}

// WriteDefault writes a commented default config file to path unless one
// already exists. It reports whether a file was written.
func WriteDefault(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("failed to check config file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}

	var components strings.Builder
	for _, name := range []string{"digest", "verify", "history", "watch"} {
		fmt.Fprintf(&components, "    %s: %s\n", name, defaultComponents[name])
	}

	content := fmt.Sprintf(`# checksum configuration

# Hash algorithm for calc and generate: md5, sha1, sha256, sha512
algorithm: %s

# Output format: pretty, plain, json, jsonl, yaml, paths, null
output: %s

# Files hashed concurrently during manifest verification (0 = auto)
workers: %d

# Read buffer used while hashing (minimum 64KiB)
chunk_size: %s

# Record of past runs
history:
  enabled: true
  # Empty means $XDG_DATA_HOME/checksum/history
  path: ""
  retention_days: %d

logging:
  # debug, info, warn, error
  level: info
  # Empty means $XDG_STATE_HOME/checksum/checksum.log
  path: ""
  rotation:
    max_size: 10MiB
    max_age: 30       # days
    max_backups: 5
    daily: true
  components:
%s`, DefaultAlgorithm, DefaultOutput, DefaultWorkers, DefaultChunkSize, DefaultRetentionDays, components.String())

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return false, fmt.Errorf("failed to write default config: %w", err)
	}
	return true, nil
}
