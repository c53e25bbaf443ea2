// Package bolt provides a storage.HistoryStorage backed by an embedded bbolt
// database file.
package bolt

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"filescanner/pkg/domain"
	"filescanner/pkg/storage"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

var scansBucket = []byte("Scans") //nolint: gochecknoglobals

// Options configure the database file.
type Options struct {
	// Path of the database file. It is created when missing.
	Path string
	// OpenTimeout bounds the wait for the file lock held by another process.
	OpenTimeout time.Duration
}

// Bolt stores each scan result as a JSON value keyed by a monotonically
// increasing sequence number, so a cursor walk yields insertion order.
type Bolt struct {
	db *bbolt.DB
}

// New opens (or creates) the database and its bucket.
func New(opts Options) (*Bolt, error) {
	db, err := bbolt.Open(opts.Path, 0o600, &bbolt.Options{Timeout: opts.OpenTimeout})
	if err != nil {
		return nil, fmt.Errorf("could not open history database %s: %w", opts.Path, err)
	}

	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(scansBucket)

		return err //nolint: wrapcheck
	}); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("could not create scans bucket: %w", err)
	}

	return &Bolt{db: db}, nil
}

func seqKey(seq uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, seq)

	return k
}

func put(b *bbolt.Bucket, result domain.ScanResult) error {
	seq, err := b.NextSequence()
	if err != nil {
		return fmt.Errorf("could not allocate sequence: %w", err)
	}
	v, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("could not encode scan: %w", err)
	}

	return b.Put(seqKey(seq), v) //nolint: wrapcheck
}

func (s *Bolt) AppendScan(_ context.Context, result domain.ScanResult, limit int) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(scansBucket)
		if err := put(b, result); err != nil {
			return err
		}
		if limit <= 0 {
			return nil
		}

		var keys [][]byte
		c := b.Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			keys = append(keys, append([]byte(nil), k...))
		}
		if len(keys) <= limit {
			return nil
		}
		stale := keys[:len(keys)-limit]
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return fmt.Errorf("could not evict scan: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("could not append scan: %w", err)
	}

	return nil
}

func (s *Bolt) Scans(_ context.Context) ([]domain.ScanResult, error) {
	var out []domain.ScanResult
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(scansBucket).ForEach(func(k, v []byte) error {
			var res domain.ScanResult
			if err := json.Unmarshal(v, &res); err != nil {
				return fmt.Errorf("could not decode scan %x: %w", k, err)
			}
			out = append(out, res)

			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("could not read scans: %w", err)
	}

	return out, nil
}

func (s *Bolt) ReplaceScans(_ context.Context, results []domain.ScanResult) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(scansBucket); err != nil {
			return err //nolint: wrapcheck
		}
		b, err := tx.CreateBucket(scansBucket)
		if err != nil {
			return err //nolint: wrapcheck
		}
		for _, r := range results {
			if err := put(b, r); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("could not replace scans: %w", err)
	}

	return nil
}

func (s *Bolt) ClearScans(ctx context.Context) error {
	return s.ReplaceScans(ctx, nil)
}

func (s *Bolt) Close() error {
	return s.db.Close() //nolint: wrapcheck
}

var _ storage.HistoryStorage = (*Bolt)(nil)
