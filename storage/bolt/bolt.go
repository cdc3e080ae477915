// Package bolt implements storage.Storage on a bbolt database file.
package bolt

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/projecteru2/core/log"
	"go.etcd.io/bbolt"

	"github.com/projecteru2/easydoc/storage"
)

// DefaultBucket holds documents when no bucket is configured.
const DefaultBucket = "documents"

// compile-time interface checks.
var (
	_ storage.Storage = (*Store)(nil)
	_ storage.Lister  = (*Store)(nil)
)

// Store keeps every document as one key in a single bucket.
type Store struct {
	db     *bbolt.DB
	bucket []byte
}

// Open opens (or creates) the database at path and ensures the bucket exists.
// bbolt holds an exclusive file lock; Open gives up after openTimeout.
func Open(ctx context.Context, path, bucket string, openTimeout time.Duration) (*Store, error) {
	if bucket == "" {
		bucket = DefaultBucket
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, fmt.Errorf("open bolt %s: %w", path, err)
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucket))
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create bucket %s: %w", bucket, err)
	}
	log.WithFunc("bolt.Open").Infof(ctx, "bolt storage at %s (bucket %s)", path, bucket)
	return &Store{db: db, bucket: []byte(bucket)}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Read returns a copy of the value under ref; bbolt memory is only valid inside the tx.
func (s *Store) Read(_ context.Context, ref string) ([]byte, error) {
	if err := storage.ValidateRef(ref); err != nil {
		return nil, err
	}
	var content []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		if v := tx.Bucket(s.bucket).Get([]byte(ref)); v != nil {
			content = bytes.Clone(v)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", ref, err)
	}
	return content, nil
}

// Write stores content under ref.
func (s *Store) Write(_ context.Context, ref string, content []byte) error {
	if err := storage.ValidateRef(ref); err != nil {
		return err
	}
	if content == nil {
		// bbolt rejects nil values; an empty document is still a document.
		content = []byte{}
	}
	if err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(s.bucket).Put([]byte(ref), content)
	}); err != nil {
		return fmt.Errorf("write %s: %w", ref, err)
	}
	return nil
}

// Delete removes ref; bbolt treats a missing key as a no-op.
func (s *Store) Delete(_ context.Context, ref string) error {
	if err := storage.ValidateRef(ref); err != nil {
		return err
	}
	if err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(s.bucket).Delete([]byte(ref))
	}); err != nil {
		return fmt.Errorf("delete %s: %w", ref, err)
	}
	return nil
}

// List returns all keys in the bucket.
func (s *Store) List(_ context.Context) ([]string, error) {
	var refs []string
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(s.bucket).ForEach(func(k, _ []byte) error {
			refs = append(refs, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.bucket, err)
	}
	return refs, nil
}
