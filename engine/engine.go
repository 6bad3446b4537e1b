// Package engine implements the Database Engine: the component that owns
// a data file of fixed-size rows and an Index Store, and exposes
// create/open/close plus select/select_all/insert/update/delete/info. It
// is the only package that knows about addresses, slots, and the data
// file's header.
package engine

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/minidb/minidb/bst"
	"github.com/minidb/minidb/index"
)

// defaultCacheSize is a small, conservative default good enough to absorb
// a REPL session's repeat reads without growing unbounded.
const defaultCacheSize = 256

// bloomExpectedKeys and bloomFalsePositiveRate size the existence filter.
// The estimate is deliberately generous: a Bloom filter's only cost of
// under-provisioning is a rising false-positive rate, never a correctness
// issue, since a positive test always falls through to the real BST
// lookup.
const (
	bloomExpectedKeys      = 1_000_000
	bloomFalsePositiveRate = 0.01
)

// Option configures optional collaborators of an Engine at Create/Open
// time, following the functional-options shape used elsewhere in the
// corpus (segmentmanager.WithMaxSegmentSize).
type Option func(*Engine)

// WithLogger sets the logger used for persistence warnings. The default
// is a logger writing to io.Discard rather than nil, so every call site
// can log unconditionally without a nil check.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithCacheSize overrides the bounded read cache's row capacity. A size
// of 0 disables the cache entirely; Select still returns identical
// results either way.
func WithCacheSize(size int) Option {
	return func(e *Engine) { e.cacheSize = size }
}

// Info is the read-only snapshot returned by Engine.Info.
type Info struct {
	DataSize  uint64
	RowCount  int64
	FreeCount int64
}

// Engine is a single open MiniDb database handle. It owns two file
// handles, the Index Store's two BSTs, and every accelerator structure
// derived from them. Concurrent access to one Engine from multiple
// goroutines is guarded by mu, but this is a safety margin over an
// otherwise single-writer contract, not a promise of high-concurrency
// throughput.
type Engine struct {
	mu sync.RWMutex

	path      string
	dataPath  string
	indexPath string

	dataFile *os.File
	idx      *index.Store
	header   Header

	lock *fileLock
	log  *log.Logger

	cacheSize int
	cache     *lru.Cache[int64, []byte]
	bitmap    *freeBitmap
	filter    *bloom.BloomFilter

	closed bool
}

// Create opens path for read/write, truncating any existing contents,
// and initializes a fresh header with the given row width and zero
// counts. The sibling index file (path+"-index") is created empty.
func Create(path string, dataSize uint64, opts ...Option) (*Engine, error) {
	e, err := newEngine(path, opts...)
	if err != nil {
		return nil, err
	}

	df, err := os.OpenFile(e.dataPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		e.lock.release()
		return nil, newError(KindCannotOpenFile, "Create", e.dataPath, err)
	}
	e.dataFile = df

	idx, err := index.Open(e.indexPath, 0, 0)
	if err != nil {
		df.Close()
		e.lock.release()
		return nil, newError(KindCannotOpenFile, "Create", e.indexPath, err)
	}
	e.idx = idx

	e.header = Header{DataSize: dataSize, RowCount: 0, FreeCount: 0}
	e.filter = bloom.NewWithEstimates(bloomExpectedKeys, bloomFalsePositiveRate)
	e.bitmap.reset()

	if err := e.writeHeader(); err != nil {
		e.dataFile.Close()
		e.idx.Close()
		e.lock.release()
		return nil, err
	}

	return e, nil
}

// Open reopens an existing database: both files are opened without
// truncation, the header is read, and the Index Store is told how many
// primary and freelist entries to load from it. The free bitmap and
// Bloom filter are rebuilt from the loaded trees; the read cache starts
// empty.
func Open(path string, opts ...Option) (*Engine, error) {
	e, err := newEngine(path, opts...)
	if err != nil {
		return nil, err
	}

	df, err := os.OpenFile(e.dataPath, os.O_RDWR, 0o644)
	if err != nil {
		e.lock.release()
		return nil, newError(KindCannotOpenFile, "Open", e.dataPath, err)
	}
	e.dataFile = df

	hbuf := make([]byte, headerSize)
	if _, err := io.ReadFull(df, hbuf); err != nil {
		df.Close()
		e.lock.release()
		return nil, newError(KindGeneric, "Open", e.dataPath, fmt.Errorf("reading header: %w", err))
	}
	e.header = DecodeHeader(hbuf)

	idx, err := index.Open(e.indexPath, e.header.RowCount, e.header.FreeCount)
	if err != nil {
		df.Close()
		e.lock.release()
		kind := KindCannotOpenFile
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			// A short read of the index file is a load failure, not an
			// open failure.
			kind = KindGeneric
		}
		return nil, newError(kind, "Open", e.indexPath, err)
	}
	e.idx = idx

	e.filter = bloom.NewWithEstimates(bloomExpectedKeys, bloomFalsePositiveRate)
	e.idx.Primary.InOrder(func(n *bst.Node) bool {
		e.filter.Add(keyBytes(n.Key))
		return true
	})

	e.bitmap.reset()
	e.idx.Freelist.InOrder(func(n *bst.Node) bool {
		e.bitmap.markFree(e.header.slot(n.Value))
		return true
	})

	return e, nil
}

// newEngine builds the shared scaffolding (paths, lock, accelerators)
// used by both Create and Open.
func newEngine(path string, opts ...Option) (*Engine, error) {
	e := &Engine{
		path:      path,
		dataPath:  path,
		indexPath: path + "-index",
		log:       log.New(io.Discard, "", 0),
		cacheSize: defaultCacheSize,
		bitmap:    newFreeBitmap(),
	}
	for _, opt := range opts {
		opt(e)
	}

	lock, err := acquireLock(path)
	if err != nil {
		return nil, newError(KindCannotOpenFile, "Open", path, err)
	}
	e.lock = lock

	if e.cacheSize > 0 {
		cache, err := lru.New[int64, []byte](e.cacheSize)
		if err != nil {
			lock.release()
			return nil, newError(KindAllocationFailure, "Open", path, err)
		}
		e.cache = cache
	}

	return e, nil
}

func keyBytes(key int64) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, uint64(key))
	return buf
}

// Close writes the header, closes the Index Store (which writes the
// index file and flushes), flushes and closes the data file, and
// releases the advisory lock. Close is idempotent: calling it again on
// an already-closed Engine is a no-op.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true

	var firstErr error
	if err := e.writeHeaderLocked(); err != nil {
		firstErr = err
	}
	if err := e.idx.Close(); err != nil && firstErr == nil {
		firstErr = newError(KindGeneric, "Close", e.indexPath, err)
	}
	if err := e.dataFile.Sync(); err != nil && firstErr == nil {
		firstErr = newError(KindGeneric, "Close", e.dataPath, err)
	}
	if err := e.dataFile.Close(); err != nil && firstErr == nil {
		firstErr = newError(KindGeneric, "Close", e.dataPath, err)
	}
	e.lock.release()

	return firstErr
}

func (e *Engine) writeHeader() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.writeHeaderLocked()
}

func (e *Engine) writeHeaderLocked() error {
	buf := make([]byte, headerSize)
	e.header.Encode(buf)
	if _, err := e.dataFile.WriteAt(buf, 0); err != nil {
		e.log.Printf("engine: write header %q: %v", e.dataPath, err)
		return newError(KindGeneric, "writeHeader", e.dataPath, err)
	}
	return nil
}

// Info copies the current header fields into a caller-facing snapshot.
func (e *Engine) Info() Info {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Info{DataSize: e.header.DataSize, RowCount: e.header.RowCount, FreeCount: e.header.FreeCount}
}

// Select looks up key in the primary index and, if present, fills buf
// (which must be at least DataSize bytes) with its row. A Bloom-filter
// negative short-circuits straight to RowNotFound without touching the
// BST; a positive still performs the real lookup, since the filter can
// false-positive but never false-negative.
func (e *Engine) Select(key int64, buf []byte) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return newError(KindGeneric, "Select", e.path, errClosed)
	}
	return e.selectLocked(key, buf)
}

func (e *Engine) selectLocked(key int64, buf []byte) error {
	if e.filter != nil && !e.filter.Test(keyBytes(key)) {
		return newError(KindRowNotFound, "Select", e.path, nil)
	}

	node := e.idx.Primary.Search(key)
	if node == nil {
		return newError(KindRowNotFound, "Select", e.path, nil)
	}

	if e.cache != nil {
		if cached, ok := e.cache.Get(key); ok {
			copy(buf, cached)
			return nil
		}
	}

	if _, err := e.dataFile.ReadAt(buf[:e.header.DataSize], node.Value); err != nil {
		e.log.Printf("engine: read row %d at %d: %v", key, node.Value, err)
		return newError(KindGeneric, "Select", e.path, err)
	}

	if e.cache != nil {
		cached := make([]byte, e.header.DataSize)
		copy(cached, buf[:e.header.DataSize])
		e.cache.Add(key, cached)
	}

	return nil
}

// SelectAll traverses the primary index in ascending key order, invoking
// callback once per row with a scratch buffer reused across calls.
// Traversal (and the scratch buffer's lifetime) ends as soon as callback
// returns false.
func (e *Engine) SelectAll(callback func(key int64, buf []byte) bool) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return newError(KindGeneric, "SelectAll", e.path, errClosed)
	}

	scratch := make([]byte, e.header.DataSize)
	var opErr error
	e.idx.Primary.InOrder(func(n *bst.Node) bool {
		if err := e.selectLocked(n.Key, scratch); err != nil {
			opErr = err
			return false
		}
		return callback(n.Key, scratch)
	})
	return opErr
}

// Insert writes data (which must be exactly DataSize bytes) under key.
// It fails with DuplicatedKeyViolation if key is already present. The
// destination address is the minimum freed address if the freelist is
// non-empty, otherwise a freshly appended tail slot.
func (e *Engine) Insert(key int64, data []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return newError(KindGeneric, "Insert", e.path, errClosed)
	}

	if e.idx.Primary.Contains(key) {
		return newError(KindDuplicatedKeyViolation, "Insert", e.path, nil)
	}

	var address int64
	reused := e.idx.Freelist.Min()
	if reused != nil {
		address = reused.Value
		e.idx.Freelist.Remove(reused.Key, nil)
		e.header.FreeCount--
		e.bitmap.markUsed(e.header.slot(address))
	} else {
		address = e.header.address(e.header.RowCount)
	}

	if _, err := e.dataFile.WriteAt(data[:e.header.DataSize], address); err != nil {
		// Per the mutation-discipline contract, a failed tail write
		// leaves row_count un-incremented and the index untouched; the
		// reserved slot is simply left to be chosen again later.
		e.log.Printf("engine: write row %d at %d: %v", key, address, err)
		return newError(KindGeneric, "Insert", e.path, err)
	}

	e.header.RowCount++
	e.idx.Primary.Insert(key, address)
	e.filter.Add(keyBytes(key))

	if err := e.persist(); err != nil {
		return err
	}
	return nil
}

// Update overwrites the row stored under key with data. No counts
// change, so only the data file is touched and flushed — the index file
// is left untouched for throughput, matching the original contract.
func (e *Engine) Update(key int64, data []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return newError(KindGeneric, "Update", e.path, errClosed)
	}

	node := e.idx.Primary.Search(key)
	if node == nil {
		return newError(KindRowNotFound, "Update", e.path, nil)
	}

	if _, err := e.dataFile.WriteAt(data[:e.header.DataSize], node.Value); err != nil {
		e.log.Printf("engine: update row %d at %d: %v", key, node.Value, err)
		return newError(KindGeneric, "Update", e.path, err)
	}
	if err := e.dataFile.Sync(); err != nil {
		return newError(KindGeneric, "Update", e.path, err)
	}

	if e.cache != nil {
		e.cache.Remove(key)
	}
	return nil
}

// Delete removes key from the primary index and marks its address free
// for reuse. Deleting an absent key, or calling Delete on an empty
// database, is a tolerant no-op that returns nil — consistent with
// idempotent deletion semantics.
func (e *Engine) Delete(key int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return newError(KindGeneric, "Delete", e.path, errClosed)
	}

	if e.header.RowCount == 0 {
		return nil
	}

	var address int64
	if !e.idx.Primary.Remove(key, &address) {
		return nil
	}

	e.header.RowCount--
	e.idx.Freelist.Insert(address, address)
	e.header.FreeCount++
	e.bitmap.markFree(e.header.slot(address))

	if e.cache != nil {
		e.cache.Remove(key)
	}

	return e.persist()
}

// persist writes the header and the index file, the final step common
// to Insert and Delete.
func (e *Engine) persist() error {
	if err := e.writeHeaderLocked(); err != nil {
		return err
	}
	if err := e.idx.Write(); err != nil {
		e.log.Printf("engine: write index %q: %v", e.indexPath, err)
		return newError(KindGeneric, "persist", e.indexPath, err)
	}
	return nil
}
