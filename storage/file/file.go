// Package file implements storage.Storage with one file per reference.
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/projecteru2/core/log"

	"github.com/projecteru2/easydoc/gc"
	"github.com/projecteru2/easydoc/lock"
	"github.com/projecteru2/easydoc/lock/flock"
	"github.com/projecteru2/easydoc/storage"
	"github.com/projecteru2/easydoc/utils"
)

const (
	// DefaultSuffix is appended to a ref to form its file name.
	DefaultSuffix = ".doc"
	lockFile      = ".lock"
	filePerm      = 0o640
)

// compile-time interface checks.
var (
	_ storage.Storage = (*Store)(nil)
	_ storage.Lister  = (*Store)(nil)
)

// Store keeps each document at {dir}/{ref}{suffix}.
// Writes and deletes hold a directory-wide flock so several processes may
// share dir; reads take no lock since writes land by atomic rename.
type Store struct {
	dir    string
	suffix string
	locker lock.Locker
}

// New creates dir if needed and returns a Store rooted there.
// An empty suffix selects DefaultSuffix.
func New(ctx context.Context, dir, suffix string) (*Store, error) {
	if err := utils.EnsureDirs(dir); err != nil {
		return nil, err
	}
	if suffix == "" {
		suffix = DefaultSuffix
	}
	log.WithFunc("file.New").Infof(ctx, "file storage at %s (suffix %s)", dir, suffix)
	return &Store{
		dir:    dir,
		suffix: suffix,
		locker: flock.New(filepath.Join(dir, lockFile)),
	}, nil
}

// Locker returns the lock guarding writes to the directory.
func (s *Store) Locker() lock.Locker { return s.locker }

func (s *Store) path(ref string) string {
	return filepath.Join(s.dir, ref+s.suffix)
}

// Read returns the file content for ref, or nil if the file does not exist.
func (s *Store) Read(_ context.Context, ref string) ([]byte, error) {
	if err := storage.ValidateRef(ref); err != nil {
		return nil, err
	}
	content, err := os.ReadFile(s.path(ref))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", ref, err)
	}
	return content, nil
}

// Write atomically replaces the file for ref.
func (s *Store) Write(ctx context.Context, ref string, content []byte) error {
	if err := storage.ValidateRef(ref); err != nil {
		return err
	}
	return lock.WithLock(ctx, s.locker, func() error {
		if err := utils.AtomicWriteFile(s.path(ref), content, filePerm); err != nil {
			return fmt.Errorf("write %s: %w", ref, err)
		}
		return nil
	})
}

// Delete removes the file for ref; a missing file is not an error.
func (s *Store) Delete(ctx context.Context, ref string) error {
	if err := storage.ValidateRef(ref); err != nil {
		return err
	}
	return lock.WithLock(ctx, s.locker, func() error {
		if err := os.Remove(s.path(ref)); err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return fmt.Errorf("delete %s: %w", ref, err)
		}
		return utils.SyncDir(s.dir)
	})
}

// List returns the refs of all stored files.
func (s *Store) List(_ context.Context) ([]string, error) {
	return utils.ScanFileStems(s.dir, s.suffix)
}

// RegisterGC registers removal of temp files left behind by interrupted
// writes and untouched for maxAge (utils.StaleTempAge if not positive).
func (s *Store) RegisterGC(o *gc.Orchestrator, maxAge time.Duration) {
	if maxAge <= 0 {
		maxAge = utils.StaleTempAge
	}
	gc.Register(o, gc.Module[[]string]{
		Name:   "file:" + s.dir,
		Locker: s.locker,
		ReadDB: func(_ context.Context) ([]string, error) {
			return utils.StaleTempFiles(s.dir, maxAge)
		},
		Resolve: func(stale []string) []string { return stale },
		Collect: func(ctx context.Context, names []string) error {
			if errs := utils.RemoveNames(ctx, s.dir, names); len(errs) > 0 {
				return fmt.Errorf("remove stale temp files: %v", errs)
			}
			return nil
		},
	})
}
