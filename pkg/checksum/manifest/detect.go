package manifest

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/jamesainslie/checksum/pkg/checksum/digest"
)

// ErrUndetectable is returned when neither the manifest name nor its
// entries identify an algorithm.
var ErrUndetectable = errors.New("cannot detect checksum algorithm")

// Source records how an algorithm was chosen.
type Source string

// Detection sources.
const (
	SourceFilename     Source = "filename"
	SourceDigestLength Source = "digest length"
	SourceExplicit     Source = "explicit"
)

// DetectFromName looks for an algorithm name in the base name of path,
// ignoring case.
func DetectFromName(path string) (digest.Algorithm, bool) {
	name := strings.ToLower(filepath.Base(path))
	for _, alg := range digest.Algorithms() {
		if strings.Contains(name, alg.String()) {
			return alg, true
		}
	}
	return "", false
}

// DetectFromEntries infers the algorithm from the digest length of the
// first valid entry.
func DetectFromEntries(entries []Entry) (digest.Algorithm, bool) {
	for _, e := range entries {
		if !e.Valid() {
			continue
		}
		return digest.ForHexLen(len(e.ExpectedHex))
	}
	return "", false
}

// Detect picks the algorithm for a manifest: a filename hint wins,
// otherwise the first valid entry's digest length decides.
func Detect(path string, entries []Entry) (digest.Algorithm, Source, error) {
	if alg, ok := DetectFromName(path); ok {
		return alg, SourceFilename, nil
	}
	if alg, ok := DetectFromEntries(entries); ok {
		return alg, SourceDigestLength, nil
	}
	return "", "", ErrUndetectable
}
