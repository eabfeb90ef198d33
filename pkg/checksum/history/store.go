package history

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/jamesainslie/checksum/pkg/checksum/logging"
)

var logger = logging.Get("history")

// Store errors.
var (
	ErrNotFound  = errors.New("history record not found")
	ErrAmbiguous = errors.New("history id prefix matches more than one record")
)

// runPrefix prefixes record keys. Keys are runPrefix + big-endian
// timestamp + ID, so key order is chronological.
var runPrefix = []byte("run/")

func makeKey(r *Record) []byte {
	key := make([]byte, 0, len(runPrefix)+8+len(r.ID))
	key = append(key, runPrefix...)
	key = binary.BigEndian.AppendUint64(key, uint64(r.Timestamp.UnixNano()))
	return append(key, r.ID...)
}

// Store is a badger-backed history database.
type Store struct {
	db  *badger.DB
	now func() time.Time
}

// Open opens or creates the store in dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	opts := badger.DefaultOptions(dir)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening history store: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the store.
func (s *Store) Close() error {
	return s.db.Close()
}

// Add stores r, assigning an ID and timestamp when they are unset.
func (s *Store) Add(r *Record) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = s.now().UTC()
	}

	value, err := r.Encode()
	if err != nil {
		return fmt.Errorf("encoding history record: %w", err)
	}
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(makeKey(r), value)
	}); err != nil {
		return fmt.Errorf("writing history record: %w", err)
	}

	logger.Debug("recorded run", "id", r.ID, "mode", r.Mode, "status", r.Status)
	return nil
}

// List returns up to limit records, newest first. A limit <= 0 returns all.
func (s *Store) List(limit int) ([]Record, error) {
	var records []Record

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = runPrefix
		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse iteration must start past the last key with the prefix.
		seek := append(append([]byte{}, runPrefix...), 0xff)
		for it.Seek(seek); it.ValidForPrefix(runPrefix); it.Next() {
			var r Record
			if err := it.Item().Value(r.Decode); err != nil {
				return err
			}
			records = append(records, r)
			if limit > 0 && len(records) >= limit {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	return records, nil
}

// Get returns the record whose ID starts with idPrefix.
func (s *Store) Get(idPrefix string) (*Record, error) {
	idPrefix = strings.TrimSpace(idPrefix)
	if idPrefix == "" {
		return nil, ErrNotFound
	}

	all, err := s.List(0)
	if err != nil {
		return nil, err
	}

	var found *Record
	for i := range all {
		if !strings.HasPrefix(all[i].ID, idPrefix) {
			continue
		}
		if all[i].ID == idPrefix {
			return &all[i], nil
		}
		if found != nil {
			return nil, fmt.Errorf("%w: %s", ErrAmbiguous, idPrefix)
		}
		found = &all[i]
	}
	if found == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, idPrefix)
	}
	return found, nil
}

// Cleanup deletes records older than retentionDays and returns how many
// were removed. A retentionDays of zero removes every record.
func (s *Store) Cleanup(retentionDays int) (int, error) {
	cutoff := s.now().AddDate(0, 0, -retentionDays)
	removed := 0

	err := s.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(runPrefix); it.ValidForPrefix(runPrefix); it.Next() {
			key := it.Item().KeyCopy(nil)
			ts := int64(binary.BigEndian.Uint64(key[len(runPrefix) : len(runPrefix)+8]))
			if retentionDays > 0 && !time.Unix(0, ts).Before(cutoff) {
				// Keys are chronological; everything after is newer.
				break
			}
			if err := txn.Delete(key); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	if err != nil {
		return removed, fmt.Errorf("cleaning history: %w", err)
	}

	logger.Debug("cleaned history", "removed", removed, "retention_days", retentionDays)
	return removed, nil
}
