package manifest

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/jamesainslie/checksum/pkg/checksum/digest"
)

// maxLineLength bounds a single manifest line.
const maxLineLength = 1 << 20

// Parse reads manifest lines from r in order. Blank lines and '#' comments
// are skipped. Every other line yields an Entry; lines that are not
// well-formed produce an Entry with Err set rather than failing the parse.
// The returned error is only non-nil when r itself fails.
func Parse(r io.Reader) ([]Entry, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)

	var entries []Entry
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSuffix(scanner.Text(), "\r")

		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		entry := Entry{Line: lineNum, Raw: line}
		hexToken, name, ok := ParseLine(line)
		if ok {
			entry.ExpectedHex = strings.ToLower(hexToken)
			entry.RelativePath = name
		} else {
			entry.RelativePath = name
			entry.Err = ReasonUnparsable
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	return entries, nil
}

// ParseLine splits a manifest line into its digest and filename tokens.
// The tokens are separated by the first run of whitespace, which is
// normally two spaces; a single space is tolerated, and a '*' binary-mode
// marker after a single space is dropped. ok is false unless the digest
// is hex of a canonical length and the filename is non-empty. name is
// returned even when ok is false, if one was found.
func ParseLine(line string) (hexToken, name string, ok bool) {
	line = strings.TrimLeft(line, " \t")

	sep := strings.IndexAny(line, " \t")
	if sep <= 0 {
		return "", "", false
	}
	hexToken = line[:sep]

	rest := line[sep:]
	after := strings.TrimLeft(rest, " \t")
	if len(rest)-len(after) == 1 && strings.HasPrefix(after, "*") {
		after = after[1:]
	}
	name = strings.TrimRight(after, " \t")

	if name == "" || !isHex(hexToken) {
		return "", name, false
	}
	if _, known := digest.ForHexLen(len(hexToken)); !known {
		return "", name, false
	}
	return hexToken, name, true
}

// isHex reports whether s is non-empty and consists only of hex digits.
func isHex(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
