// Package digest computes file digests for the checksum tool.
// It streams file contents through MD5, SHA1, SHA256 or SHA512 and
// reports the lowercase hex digest together with the number of bytes read.
package digest

import (
	"crypto/md5"  //nolint:gosec // MD5 is a supported manifest format, not used for security
	"crypto/sha1" //nolint:gosec // SHA1 is a supported manifest format, not used for security
	"crypto/sha256"
	"crypto/sha512"
	"errors"
	"fmt"
	"hash"
	"strings"
)

// Algorithm identifies a supported digest algorithm.
type Algorithm string

// Supported algorithms.
const (
	MD5    Algorithm = "md5"
	SHA1   Algorithm = "sha1"
	SHA256 Algorithm = "sha256"
	SHA512 Algorithm = "sha512"
)

// DefaultAlgorithm is used when none is configured.
const DefaultAlgorithm = SHA256

// ErrUnsupportedAlgorithm is returned when an algorithm name is not recognized.
var ErrUnsupportedAlgorithm = errors.New("unsupported algorithm")

// algorithms lists every supported algorithm in detection order.
var algorithms = []Algorithm{MD5, SHA1, SHA256, SHA512}

// Algorithms returns all supported algorithms.
func Algorithms() []Algorithm {
	out := make([]Algorithm, len(algorithms))
	copy(out, algorithms)
	return out
}

// Names returns the names of all supported algorithms.
func Names() []string {
	names := make([]string, len(algorithms))
	for i, a := range algorithms {
		names[i] = string(a)
	}
	return names
}

// ParseAlgorithm parses an algorithm name, ignoring case and surrounding space.
func ParseAlgorithm(s string) (Algorithm, error) {
	a := Algorithm(strings.ToLower(strings.TrimSpace(s)))
	if !a.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, s)
	}
	return a, nil
}

// Valid reports whether a is a supported algorithm.
func (a Algorithm) Valid() bool {
	return a.HexLen() > 0
}

// HexLen returns the canonical digest length in hex characters, or 0 if
// the algorithm is not supported.
func (a Algorithm) HexLen() int {
	switch a {
	case MD5:
		return 32
	case SHA1:
		return 40
	case SHA256:
		return 64
	case SHA512:
		return 128
	default:
		return 0
	}
}

// New returns a fresh hash.Hash for the algorithm.
func (a Algorithm) New() (hash.Hash, error) {
	switch a {
	case MD5:
		return md5.New(), nil //nolint:gosec // see import
	case SHA1:
		return sha1.New(), nil //nolint:gosec // see import
	case SHA256:
		return sha256.New(), nil
	case SHA512:
		return sha512.New(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, string(a))
	}
}

// String returns the lowercase algorithm name.
func (a Algorithm) String() string {
	return string(a)
}

// Display returns the uppercase name used in reports (e.g. "SHA256").
func (a Algorithm) Display() string {
	return strings.ToUpper(string(a))
}

// ForHexLen returns the algorithm whose canonical digest has n hex characters.
func ForHexLen(n int) (Algorithm, bool) {
	for _, a := range algorithms {
		if a.HexLen() == n {
			return a, true
		}
	}
	return "", false
}
