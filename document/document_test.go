package document_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/projecteru2/easydoc/document"
	"github.com/projecteru2/easydoc/serializer/json"
	"github.com/projecteru2/easydoc/storage"
)

const ref = "test_ref"

type person struct {
	FullName string            `json:"full_name"`
	Visits   int               `json:"visits"`
	Tags     map[string]string `json:"tags"`
}

// Init implements storage.Initer.
func (p *person) Init() {
	if p.Tags == nil {
		p.Tags = make(map[string]string)
	}
}

// session mixes fields a JSON codec skips with ones it persists.
type session struct {
	Name      string    `json:"name"`
	Hits      int       `json:"hits"`
	CreatedAt time.Time `json:"created_at"`

	secret string
	events chan int
}

// fakeStore is an in-memory storage.Storage that counts calls, can fail on
// demand and tracks how many calls overlap.
type fakeStore struct {
	mu      sync.Mutex
	content map[string][]byte

	reads, writes, deletes atomic.Int32
	inFlight, maxInFlight  atomic.Int32

	writeErr  error
	deleteErr error
}

var _ storage.Storage = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{content: make(map[string][]byte)}
}

func (f *fakeStore) enter() func() {
	n := f.inFlight.Add(1)
	for {
		peak := f.maxInFlight.Load()
		if n <= peak || f.maxInFlight.CompareAndSwap(peak, n) {
			break
		}
	}
	// Widen the window for overlapping callers.
	time.Sleep(time.Millisecond)
	return func() { f.inFlight.Add(-1) }
}

func (f *fakeStore) Read(_ context.Context, ref string) ([]byte, error) {
	defer f.enter()()
	f.reads.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.content[ref], nil
}

func (f *fakeStore) Write(_ context.Context, ref string, content []byte) error {
	defer f.enter()()
	f.writes.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.content[ref] = content
	return nil
}

func (f *fakeStore) Delete(_ context.Context, ref string) error {
	defer f.enter()()
	f.deletes.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.content, ref)
	return nil
}

func (f *fakeStore) stored(ref string) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.content[ref]
}

func (f *fakeStore) setWriteErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writeErr = err
}

// failingCodec fails every Serialize call.
type failingCodec struct{ json.Codec }

var errEncode = errors.New("encode failed")

func (failingCodec) Serialize(any) ([]byte, error) { return nil, errEncode }

func TestDocument(t *testing.T) {
	ctx := context.Background()
	codec := json.New()

	t.Run("new document test", func(t *testing.T) {
		doc := document.New[person](ref, nil, nil)
		assert.Equal(t, ref, doc.Ref())
		assert.Equal(t, document.DefaultTimeout, doc.Timeout())
		assert.Equal(t, document.StateUninitialized, doc.State())
		assert.NotNil(t, doc.Data().Tags)

		withFactory := document.New(ref, nil, nil, document.WithFactory(func() person {
			return person{FullName: "anonymous"}
		}))
		assert.Equal(t, "anonymous", withFactory.Data().FullName)
		assert.NotNil(t, withFactory.Data().Tags)
	})

	t.Run("load document test", func(t *testing.T) {
		store := newFakeStore()
		store.content[ref] = []byte(`{"full_name":"test name","visits":3}`)

		doc := document.New[person](ref, store, codec)
		require.NoError(t, doc.Init(ctx))
		assert.Equal(t, "test name", doc.Data().FullName)
		assert.Equal(t, 3, doc.Data().Visits)
		assert.NotNil(t, doc.Data().Tags)
		assert.Equal(t, document.StateLoaded, doc.State())
	})

	t.Run("load absent document test", func(t *testing.T) {
		store := newFakeStore()
		doc := document.New[person]("r1", store, codec)
		require.NoError(t, doc.SyncUpdate(ctx, func(p *person) { p.FullName = "stale" }))
		store.content["r1"] = []byte("null")

		require.NoError(t, doc.Init(ctx))
		assert.Equal(t, person{Tags: map[string]string{}}, doc.Data())
		assert.Equal(t, document.StateLoaded, doc.State())
	})

	t.Run("load malformed document test", func(t *testing.T) {
		store := newFakeStore()
		store.content[ref] = []byte(`{"full_name":`)
		doc := document.New(ref, store, codec, document.WithFactory(func() person {
			return person{FullName: "default"}
		}))
		assert.Error(t, doc.Init(ctx))
		assert.Equal(t, "default", doc.Data().FullName)
		assert.Equal(t, document.StateUninitialized, doc.State())
	})

	t.Run("save document test", func(t *testing.T) {
		store := newFakeStore()
		doc := document.New[person](ref, store, codec)
		require.NoError(t, doc.SyncUpdate(ctx, func(p *person) { p.FullName = "saved" }))
		assert.EqualValues(t, 1, store.writes.Load())

		require.NoError(t, doc.Save(ctx))
		assert.EqualValues(t, 2, store.writes.Load())

		expected, err := codec.Serialize(doc.Data())
		require.NoError(t, err)
		assert.Equal(t, expected, store.stored(ref))
	})

	t.Run("save callback test", func(t *testing.T) {
		store := newFakeStore()
		calls := 0
		doc := document.New(ref, store, codec, document.WithOnSave(func(d *document.Document[person]) {
			assert.NotNil(t, d)
			calls++
		}))

		require.NoError(t, doc.Save(ctx))
		assert.Equal(t, 1, calls)

		require.NoError(t, doc.Save(ctx))
		require.NoError(t, doc.SyncUpdate(ctx, func(p *person) { p.Visits++ }))
		assert.Equal(t, 1, calls)
	})

	t.Run("save callback waits for a successful write test", func(t *testing.T) {
		store := newFakeStore()
		boom := errors.New("disk full")
		store.setWriteErr(boom)
		calls := 0
		doc := document.New(ref, store, codec, document.WithOnSave(func(*document.Document[person]) { calls++ }))

		assert.ErrorIs(t, doc.Save(ctx), boom)
		assert.Zero(t, calls)

		store.setWriteErr(nil)
		require.NoError(t, doc.Save(ctx))
		assert.Equal(t, 1, calls)
	})

	t.Run("delete callback test", func(t *testing.T) {
		store := newFakeStore()
		calls := 0
		var seen string
		doc := document.New(ref, store, codec, document.WithOnDelete(func(d *document.Document[person]) {
			calls++
			seen = d.Data().FullName
		}))
		require.NoError(t, doc.SyncUpdate(ctx, func(p *person) { p.FullName = "to delete" }))

		require.NoError(t, doc.Delete(ctx))
		assert.Equal(t, 1, calls)
		assert.Equal(t, "to delete", seen)
		assert.Equal(t, person{Tags: map[string]string{}}, doc.Data())
		assert.Nil(t, store.stored(ref))
		assert.EqualValues(t, 1, store.deletes.Load())
		assert.Equal(t, document.StateDeleted, doc.State())

		require.NoError(t, doc.Delete(ctx))
		assert.Equal(t, 1, calls)
		assert.EqualValues(t, 2, store.deletes.Load())
		assert.Equal(t, person{Tags: map[string]string{}}, doc.Data())
	})

	t.Run("save after delete recreates the record test", func(t *testing.T) {
		store := newFakeStore()
		saves := 0
		doc := document.New(ref, store, codec, document.WithOnSave(func(*document.Document[person]) { saves++ }))

		require.NoError(t, doc.Delete(ctx))
		assert.Zero(t, saves)

		require.NoError(t, doc.SyncUpdate(ctx, func(p *person) { p.FullName = "again" }))
		assert.Equal(t, 1, saves)
		assert.Equal(t, document.StateLoaded, doc.State())
		assert.NotNil(t, store.stored(ref))
	})

	t.Run("sync update scenario test", func(t *testing.T) {
		store := newFakeStore()
		doc := document.New[person]("r1", store, codec)
		require.NoError(t, doc.Init(ctx))
		assert.Equal(t, person{Tags: map[string]string{}}, doc.Data())

		require.NoError(t, doc.SyncUpdate(ctx, func(p *person) {
			p.FullName = "updated"
			p.Tags["k"] = "v"
		}))
		assert.Equal(t, "updated", doc.Data().FullName)

		var stored person
		ok, err := codec.Deserialize(store.stored("r1"), &stored)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, doc.Data(), stored)
	})

	t.Run("earlier snapshots keep their values test", func(t *testing.T) {
		doc := document.New[person](ref, newFakeStore(), codec)
		require.NoError(t, doc.SyncUpdate(ctx, func(p *person) { p.FullName = "first" }))
		before := doc.Data()

		require.NoError(t, doc.SyncUpdate(ctx, func(p *person) { p.FullName = "second" }))
		assert.Equal(t, "first", before.FullName)
		assert.Equal(t, "second", doc.Data().FullName)
	})

	t.Run("sync update keeps untouched fields test", func(t *testing.T) {
		created := time.Unix(100, 0)
		events := make(chan int, 1)
		store := newFakeStore()
		doc := document.New(ref, store, codec, document.WithFactory(func() session {
			return session{CreatedAt: created, secret: "keep", events: events}
		}))

		require.NoError(t, doc.SyncUpdate(ctx, func(s *session) { s.Name = "x" }))
		require.NoError(t, doc.SyncUpdate(ctx, func(s *session) { s.Hits++ }))

		got := doc.Data()
		assert.Equal(t, "x", got.Name)
		assert.Equal(t, 1, got.Hits)
		assert.True(t, created.Equal(got.CreatedAt))
		assert.Equal(t, "keep", got.secret)
		assert.Equal(t, events, got.events)

		var stored session
		ok, err := codec.Deserialize(store.stored(ref), &stored)
		require.NoError(t, err)
		require.True(t, ok)
		assert.True(t, created.Equal(stored.CreatedAt))
		assert.Equal(t, "x", stored.Name)
	})

	t.Run("write failure keeps the mutation in memory test", func(t *testing.T) {
		store := newFakeStore()
		boom := errors.New("disk full")
		store.setWriteErr(boom)
		doc := document.New[person](ref, store, codec)

		err := doc.SyncUpdate(ctx, func(p *person) { p.Visits = 7 })
		assert.ErrorIs(t, err, boom)
		assert.False(t, errors.Is(err, document.ErrTimeout))
		assert.Equal(t, 7, doc.Data().Visits)

		store.setWriteErr(nil)
		require.NoError(t, doc.Save(ctx))
		assert.Contains(t, string(store.stored(ref)), `"visits": 7`)
	})

	t.Run("storage and codec errors release the lock test", func(t *testing.T) {
		store := newFakeStore()
		store.deleteErr = errors.New("permission denied")
		doc := document.New(ref, store, codec, document.WithTimeout[person](50*time.Millisecond))
		assert.ErrorIs(t, doc.Delete(ctx), store.deleteErr)
		assert.NoError(t, doc.Save(ctx))

		broken := document.New(ref, newFakeStore(), failingCodec{}, document.WithTimeout[person](50*time.Millisecond))
		assert.ErrorIs(t, broken.Save(ctx), errEncode)
		assert.ErrorIs(t, broken.Save(ctx), errEncode)
	})

	t.Run("timeout test", func(t *testing.T) {
		store := newFakeStore()
		doc := document.New(ref, store, codec, document.WithTimeout[person](100*time.Millisecond))

		entered := make(chan struct{})
		release := make(chan struct{})
		done := make(chan error, 1)
		go func() {
			done <- doc.SyncUpdate(ctx, func(*person) {
				close(entered)
				<-release
			})
		}()
		<-entered

		start := time.Now()
		err := doc.Save(ctx)
		assert.ErrorIs(t, err, document.ErrTimeout)
		assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
		assert.Zero(t, store.writes.Load())

		close(release)
		assert.NoError(t, <-done)
		assert.EqualValues(t, 1, store.writes.Load())
	})

	t.Run("reentrant call times out test", func(t *testing.T) {
		doc := document.New(ref, newFakeStore(), codec, document.WithTimeout[person](20*time.Millisecond))
		var inner error
		require.NoError(t, doc.SyncUpdate(ctx, func(*person) { inner = doc.Save(ctx) }))
		assert.ErrorIs(t, inner, document.ErrTimeout)
	})

	t.Run("cancelled caller is not a timeout test", func(t *testing.T) {
		doc := document.New[person](ref, newFakeStore(), codec)
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		err := doc.Save(cancelled)
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, errors.Is(err, document.ErrTimeout))
	})

	t.Run("critical sections never overlap test", func(t *testing.T) {
		store := newFakeStore()
		doc := document.New(ref, store, codec, document.WithTimeout[person](10*time.Second))

		const workers = 16
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				switch i % 4 {
				case 0:
					assert.NoError(t, doc.Save(ctx))
				case 3:
					assert.NoError(t, doc.Init(ctx))
				default:
					assert.NoError(t, doc.SyncUpdate(ctx, func(p *person) { p.Visits++ }))
				}
				_ = doc.Data()
			}(i)
		}
		wg.Wait()

		assert.EqualValues(t, 1, store.maxInFlight.Load())
		require.NoError(t, doc.Init(ctx))
		assert.Equal(t, workers/2, doc.Data().Visits)
	})
}
