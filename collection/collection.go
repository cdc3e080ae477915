// Package collection keeps an index of the documents of one type that share a
// storage backend and codec.
package collection

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/projecteru2/core/log"
	"golang.org/x/sync/errgroup"

	"github.com/projecteru2/easydoc/document"
	"github.com/projecteru2/easydoc/progress"
	"github.com/projecteru2/easydoc/serializer"
	"github.com/projecteru2/easydoc/storage"
)

// ErrNotListable is returned by Load when the backend cannot enumerate refs.
var ErrNotListable = errors.New("storage cannot list documents")

// Collection indexes documents by ref. A document joins the index when it is
// opened or first saved, and leaves it on its first delete.
type Collection[T any] struct {
	store    storage.Storage
	codec    serializer.Serializer
	opts     []document.Option[T]
	poolSize int

	mu   sync.RWMutex
	docs map[string]*document.Document[T]
}

// New creates an empty Collection. poolSize bounds concurrent loads in Load
// (runtime.NumCPU() if not positive). opts are applied to every document; the
// collection owns the save and delete callbacks and overrides any given here.
func New[T any](store storage.Storage, codec serializer.Serializer, poolSize int, opts ...document.Option[T]) *Collection[T] {
	if poolSize <= 0 {
		poolSize = runtime.NumCPU()
	}
	return &Collection[T]{
		store:    store,
		codec:    codec,
		opts:     opts,
		poolSize: poolSize,
		docs:     make(map[string]*document.Document[T]),
	}
}

// Create returns a new document under a random ref. It is not stored, nor
// indexed, until its first successful save.
func (c *Collection[T]) Create() *document.Document[T] {
	return c.newDocument(uuid.NewString())
}

// Open returns the indexed document for ref, or initializes one from storage
// and indexes it. A ref with nothing stored yields a document holding the
// default value.
func (c *Collection[T]) Open(ctx context.Context, ref string) (*document.Document[T], error) {
	if doc, ok := c.Get(ref); ok {
		return doc, nil
	}
	if err := storage.ValidateRef(ref); err != nil {
		return nil, err
	}
	doc := c.newDocument(ref)
	if err := doc.Init(ctx); err != nil {
		return nil, fmt.Errorf("open %s: %w", ref, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// A concurrent Open may have won; hand out a single instance per ref.
	if existing, ok := c.docs[ref]; ok {
		return existing, nil
	}
	c.docs[ref] = doc
	return doc, nil
}

// Load opens every document the backend lists, poolSize at a time.
func (c *Collection[T]) Load(ctx context.Context, tracker progress.Tracker) error {
	lister, ok := c.store.(storage.Lister)
	if !ok {
		return ErrNotListable
	}
	if tracker == nil {
		tracker = progress.Nop
	}
	refs, err := lister.List(ctx)
	if err != nil {
		return fmt.Errorf("list: %w", err)
	}
	tracker.OnEvent(Event{Phase: PhaseList, Total: len(refs)})

	var loaded atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.poolSize)
	for _, ref := range refs {
		ref := ref
		g.Go(func() error {
			if _, err := c.Open(gctx, ref); err != nil {
				return err
			}
			tracker.OnEvent(Event{Phase: PhaseDocument, Ref: ref, Index: int(loaded.Add(1)), Total: len(refs)})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	tracker.OnEvent(Event{Phase: PhaseDone, Index: len(refs), Total: len(refs)})
	log.WithFunc("collection.Load").Infof(ctx, "loaded %d documents", len(refs))
	return nil
}

// Get returns the indexed document for ref.
func (c *Collection[T]) Get(ref string) (*document.Document[T], bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	doc, ok := c.docs[ref]
	return doc, ok
}

// Refs returns the indexed refs in sorted order.
func (c *Collection[T]) Refs() []string {
	c.mu.RLock()
	refs := make([]string, 0, len(c.docs))
	for ref := range c.docs {
		refs = append(refs, ref)
	}
	c.mu.RUnlock()
	sort.Strings(refs)
	return refs
}

// All returns the indexed documents ordered by ref.
func (c *Collection[T]) All() []*document.Document[T] {
	refs := c.Refs()
	c.mu.RLock()
	defer c.mu.RUnlock()
	docs := make([]*document.Document[T], 0, len(refs))
	for _, ref := range refs {
		if doc, ok := c.docs[ref]; ok {
			docs = append(docs, doc)
		}
	}
	return docs
}

// Len returns the number of indexed documents.
func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.docs)
}

func (c *Collection[T]) newDocument(ref string) *document.Document[T] {
	opts := append(append([]document.Option[T]{}, c.opts...),
		document.WithOnSave(c.add),
		document.WithOnDelete(c.remove),
	)
	return document.New(ref, c.store, c.codec, opts...)
}

func (c *Collection[T]) add(doc *document.Document[T]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.docs[doc.Ref()]; !ok {
		c.docs[doc.Ref()] = doc
	}
}

func (c *Collection[T]) remove(doc *document.Document[T]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.docs[doc.Ref()] == doc {
		delete(c.docs, doc.Ref())
	}
}
