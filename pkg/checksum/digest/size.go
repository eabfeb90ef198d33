package digest

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// sizeUnits are binary (1024-based) units, smallest first.
var sizeUnits = []string{"B", "KB", "MB", "GB", "TB", "PB", "EB"}

// FormatSize renders a byte count with two decimals in the largest
// 1024-based unit whose magnitude is at least one.
//
// Examples:
//   - FormatSize(0) returns "0.00 B"
//   - FormatSize(1024) returns "1.00 KB"
//   - FormatSize(1048576) returns "1.00 MB"
func FormatSize(bytes uint64) string {
	value := float64(bytes)
	unit := 0
	for value >= 1024 && unit < len(sizeUnits)-1 {
		value /= 1024
		unit++
	}
	return strconv.FormatFloat(value, 'f', 2, 64) + " " + sizeUnits[unit]
}

// ErrInvalidSize indicates that a size string could not be parsed.
var ErrInvalidSize = errors.New("invalid size format")

// ParseSize parses sizes such as "64KiB", "1MB" or "4096". Both SI and IEC
// suffixes are accepted; a bare K/M/G suffix is treated as binary.
func ParseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty string", ErrInvalidSize)
	}

	// humanize treats "1M" as 1000^2; match ls-style binary units instead.
	if last := s[len(s)-1]; strings.ContainsRune("kKmMgGtT", rune(last)) {
		s += "iB"
	}

	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}
	if n > math.MaxInt64 {
		return 0, fmt.Errorf("%w: %q is too large", ErrInvalidSize, s)
	}
	return int64(n), nil
}
