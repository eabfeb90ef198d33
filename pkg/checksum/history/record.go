// Package history keeps a record of past calc and verify runs in a badger
// database. It is a log for the user; verification never reads from it.
package history

import (
	"time"

	"github.com/goccy/go-json"
)

// Record describes one finished run.
type Record struct {
	ID        string        `json:"id" yaml:"id"`
	Timestamp time.Time     `json:"timestamp" yaml:"timestamp"`
	Mode      string        `json:"mode" yaml:"mode"`
	Target    string        `json:"target" yaml:"target"`
	Algorithm string        `json:"algorithm" yaml:"algorithm"`
	Status    string        `json:"status" yaml:"status"`
	Passed    int           `json:"passed" yaml:"passed"`
	Failed    int           `json:"failed" yaml:"failed"`
	Errored   int           `json:"errors" yaml:"errors"`
	Total     int           `json:"total" yaml:"total"`
	Duration  time.Duration `json:"duration" yaml:"duration"`
	Detail    string        `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// ShortID returns the first eight characters of the ID.
func (r Record) ShortID() string {
	if len(r.ID) <= 8 {
		return r.ID
	}
	return r.ID[:8]
}

// Encode serializes the record.
func (r *Record) Encode() ([]byte, error) {
	return json.Marshal(r)
}

// Decode deserializes data into the record.
func (r *Record) Decode(data []byte) error {
	return json.Unmarshal(data, r)
}
