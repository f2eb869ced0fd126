// Package logbook keeps a persistent journal of button activity entries.
package logbook

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.etcd.io/bbolt"
)

const entriesBucket = "entries"

// ErrClosed is returned by operations on a closed Store.
var ErrClosed = errors.New("logbook: closed")

// Entry is one journal record.
type Entry struct {
	Seq     uint64    `json:"seq"`
	Time    time.Time `json:"time"`
	Name    string    `json:"name"`
	Message string    `json:"message"`
	Domain  string    `json:"domain"`
}

// Store is a bbolt-backed logbook. Entries are keyed by a monotonically
// increasing sequence number; the oldest are pruned beyond maxEntries.
type Store struct {
	db         *bbolt.DB
	maxEntries int
	log        zerolog.Logger
	now        func() time.Time
}

// Open opens or creates the logbook at path. maxEntries <= 0 disables
// pruning.
func Open(path string, maxEntries int, log zerolog.Logger) (*Store, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open logbook %s: %w", path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(entriesBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create logbook bucket: %w", err)
	}

	return &Store{db: db, maxEntries: maxEntries, log: log, now: time.Now}, nil
}

// LogEntry appends an entry and writes it to the structured log.
func (s *Store) LogEntry(name, message, domain string) error {
	_, err := s.Append(Entry{Time: s.now(), Name: name, Message: message, Domain: domain})
	return err
}

// Append stores e, assigning its sequence number, and returns the stored
// entry.
func (s *Store) Append(e Entry) (Entry, error) {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(entriesBucket))
		if b == nil {
			return ErrClosed
		}

		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		e.Seq = seq

		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("marshal entry: %w", err)
		}
		if err := b.Put(key(seq), data); err != nil {
			return err
		}

		return s.pruneLocked(b, seq)
	})
	if err != nil {
		if errors.Is(err, bbolt.ErrDatabaseNotOpen) {
			err = ErrClosed
		}
		return Entry{}, fmt.Errorf("append logbook entry: %w", err)
	}

	s.log.Info().
		Uint64("seq", e.Seq).
		Str("name", e.Name).
		Str("message", e.Message).
		Str("domain", e.Domain).
		Msg("logbook")
	return e, nil
}

// pruneLocked deletes every entry older than the newest maxEntries.
func (s *Store) pruneLocked(b *bbolt.Bucket, newest uint64) error {
	if s.maxEntries <= 0 || newest <= uint64(s.maxEntries) {
		return nil
	}
	cutoff := newest - uint64(s.maxEntries)

	var stale [][]byte
	c := b.Cursor()
	for k, _ := c.First(); k != nil && binary.BigEndian.Uint64(k) <= cutoff; k, _ = c.Next() {
		stale = append(stale, append([]byte(nil), k...))
	}
	for _, k := range stale {
		if err := b.Delete(k); err != nil {
			return fmt.Errorf("prune entry: %w", err)
		}
	}
	return nil
}

// Recent returns up to n entries, newest first.
func (s *Store) Recent(n int) ([]Entry, error) {
	if n <= 0 {
		return nil, nil
	}

	var entries []Entry
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(entriesBucket))
		if b == nil {
			return ErrClosed
		}

		c := b.Cursor()
		for k, v := c.Last(); k != nil && len(entries) < n; k, v = c.Prev() {
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				return fmt.Errorf("unmarshal entry %d: %w", binary.BigEndian.Uint64(k), err)
			}
			entries = append(entries, e)
		}
		return nil
	})
	if errors.Is(err, bbolt.ErrDatabaseNotOpen) {
		err = ErrClosed
	}
	return entries, err
}

// Count returns the number of stored entries.
func (s *Store) Count() (int, error) {
	var n int
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(entriesBucket))
		if b == nil {
			return ErrClosed
		}
		n = b.Stats().KeyN
		return nil
	})
	if errors.Is(err, bbolt.ErrDatabaseNotOpen) {
		err = ErrClosed
	}
	return n, err
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func key(seq uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, seq)
	return k
}
