// Package memory implements storage.Storage on an in-memory go-memdb table,
// for tests and throwaway data.
package memory

import (
	"bytes"
	"context"
	"fmt"

	"github.com/hashicorp/go-memdb"

	"github.com/projecteru2/easydoc/storage"
)

const (
	tblDocuments = "documents"
	idxID        = "id"
)

var schema = &memdb.DBSchema{
	Tables: map[string]*memdb.TableSchema{
		tblDocuments: {
			Name: tblDocuments,
			Indexes: map[string]*memdb.IndexSchema{
				idxID: {
					Name:    idxID,
					Unique:  true,
					Indexer: &memdb.StringFieldIndex{Field: "Ref"},
				},
			},
		},
	},
}

// compile-time interface checks.
var (
	_ storage.Storage = (*Store)(nil)
	_ storage.Lister  = (*Store)(nil)
)

type record struct {
	Ref     string
	Content []byte
}

// Store keeps document content in memory.
type Store struct {
	db *memdb.MemDB
}

// New returns an empty Store.
func New() (*Store, error) {
	db, err := memdb.NewMemDB(schema)
	if err != nil {
		return nil, fmt.Errorf("new memdb: %w", err)
	}
	return &Store{db: db}, nil
}

// Read returns a copy of the content stored under ref.
func (s *Store) Read(_ context.Context, ref string) ([]byte, error) {
	if err := storage.ValidateRef(ref); err != nil {
		return nil, err
	}
	txn := s.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(tblDocuments, idxID, ref)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", ref, err)
	}
	if raw == nil {
		return nil, nil
	}
	return bytes.Clone(raw.(*record).Content), nil
}

// Write replaces the content stored under ref.
func (s *Store) Write(_ context.Context, ref string, content []byte) error {
	if err := storage.ValidateRef(ref); err != nil {
		return err
	}
	txn := s.db.Txn(true)
	defer txn.Abort()

	if err := txn.Insert(tblDocuments, &record{Ref: ref, Content: bytes.Clone(content)}); err != nil {
		return fmt.Errorf("insert %s: %w", ref, err)
	}
	txn.Commit()
	return nil
}

// Delete removes ref if present.
func (s *Store) Delete(_ context.Context, ref string) error {
	if err := storage.ValidateRef(ref); err != nil {
		return err
	}
	txn := s.db.Txn(true)
	defer txn.Abort()

	if _, err := txn.DeleteAll(tblDocuments, idxID, ref); err != nil {
		return fmt.Errorf("delete %s: %w", ref, err)
	}
	txn.Commit()
	return nil
}

// List returns every stored ref.
func (s *Store) List(_ context.Context) ([]string, error) {
	txn := s.db.Txn(false)
	defer txn.Abort()

	it, err := txn.Get(tblDocuments, idxID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	var refs []string
	for raw := it.Next(); raw != nil; raw = it.Next() {
		refs = append(refs, raw.(*record).Ref)
	}
	return refs, nil
}
