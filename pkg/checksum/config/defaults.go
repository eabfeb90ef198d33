// Package config loads checksum settings from the config file, CHECKSUM_
// environment variables and command line flags.
package config

// Default configuration values.
const (
	// DefaultAlgorithm is used by calc and generate when no algorithm is given.
	DefaultAlgorithm = "sha256"

	// DefaultOutput is the default output format.
	DefaultOutput = "pretty"

	// DefaultWorkers hashes one file at a time. Zero asks the tuner.
	DefaultWorkers = 1

	// DefaultChunkSize is the read buffer used while hashing.
	DefaultChunkSize = "1MiB"

	// DefaultRetentionDays is how long history records are kept.
	DefaultRetentionDays = 30

	// EnvPrefix prefixes environment overrides, e.g. CHECKSUM_ALGORITHM.
	EnvPrefix = "CHECKSUM"

	appName = "checksum"
)

// defaultComponents are the per-component log levels written by WriteDefault.
var defaultComponents = map[string]string{
	"digest":  "info",
	"verify":  "info",
	"history": "info",
	"watch":   "info",
}
