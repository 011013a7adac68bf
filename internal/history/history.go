// Package history persists finished run records in a bbolt database so
// past extraction jobs can be reviewed and re-run.
package history

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"patchlab/internal/config"
	"patchlab/internal/runner"
)

const bucketRuns = "runs"

// Record describes one finished extraction job.
type Record struct {
	ID         uint64        `json:"id"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Config     config.Config `json:"config"`
	State      string        `json:"state"`
	OK         bool          `json:"ok"`
	Message    string        `json:"message"`
	Stats      runner.Stats  `json:"stats"`
}

// Store handles run history persistence using bbolt.
type Store struct {
	db *bbolt.DB
}

// DefaultPath returns the conventional history database location under the
// user configuration directory.
func DefaultPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(configDir, "patchlab", "history.db")
}

// Open opens the history database at path, creating the file and its
// parent directory as needed.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketRuns))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Append stores rec under the next sequence number and returns the
// assigned ID. The passed record's ID field is ignored.
func (s *Store) Append(rec Record) (uint64, error) {
	var id uint64
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketRuns))
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		rec.ID = seq
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal record: %w", err)
		}
		if err := b.Put(itob(seq), data); err != nil {
			return err
		}
		id = seq
		return nil
	})
	return id, err
}

// Get retrieves one record by ID.
func (s *Store) Get(id uint64) (Record, error) {
	var rec Record
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketRuns))
		data := b.Get(itob(id))
		if data == nil {
			return fmt.Errorf("run %d not found", id)
		}
		return json.Unmarshal(data, &rec)
	})
	return rec, err
}

// List returns every record in chronological order.
func (s *Store) List() ([]Record, error) {
	var recs []Record
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketRuns))
		return b.ForEach(func(k, v []byte) error {
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			recs = append(recs, rec)
			return nil
		})
	})
	return recs, err
}

// Recent returns the newest n records, oldest first. It returns all of
// them when fewer than n exist.
func (s *Store) Recent(n int) ([]Record, error) {
	recs, err := s.List()
	if err != nil {
		return nil, err
	}
	if n > 0 && len(recs) > n {
		recs = recs[len(recs)-n:]
	}
	return recs, nil
}

// Delete removes one record by ID. Deleting an absent ID is not an error.
func (s *Store) Delete(id uint64) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketRuns))
		return b.Delete(itob(id))
	})
}

// itob encodes an ID as a big-endian key so bucket order is run order.
func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}
