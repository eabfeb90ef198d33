// Package manifest parses and writes checksum-manifest files such as
// SHA256SUMS, in the "<hex-digest>  <filename>" format produced by the
// md5sum/sha*sum family of tools.
package manifest

// ReasonUnparsable is the detail reported for lines that are not valid entries.
const ReasonUnparsable = "Unparsable line"

// Entry is one data line of a manifest.
type Entry struct {
	// Line is the 1-based line number in the manifest.
	Line int `json:"line" yaml:"line"`

	// Raw is the line as read, without its trailing newline.
	Raw string `json:"-" yaml:"-"`

	// ExpectedHex is the expected digest, lowercased.
	ExpectedHex string `json:"expected_hash,omitempty" yaml:"expected_hash,omitempty"`

	// RelativePath is the filename token from the line.
	RelativePath string `json:"file" yaml:"file"`

	// Err is non-empty when the line could not be parsed.
	Err string `json:"parse_error,omitempty" yaml:"parse_error,omitempty"`
}

// Valid reports whether the entry was parsed successfully.
func (e Entry) Valid() bool {
	return e.Err == ""
}

// Name returns the filename, falling back to the raw line for
// entries that could not be parsed.
func (e Entry) Name() string {
	if e.RelativePath != "" {
		return e.RelativePath
	}
	return e.Raw
}
