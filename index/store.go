// Package index implements the persistence protocol for MiniDb's two
// in-memory ordered maps: the primary key index and the freelist of
// reusable data-file slots. It owns the index file and knows nothing
// about rows or the data file — the engine package supplies row counts
// and interprets addresses.
package index

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/natefinch/atomic"

	"github.com/minidb/minidb/bst"
)

// entrySize is the width in bytes of one serialized (key, value) pair.
const entrySize = 16

// Store owns the two BSTs and the backing index file. The on-disk format
// is the primary tree's in-order entries followed by the freelist's
// in-order entries, with no separators — both are ascending by key
// because in-order traversal of a BST visits keys in ascending order.
type Store struct {
	Primary  *bst.Tree
	Freelist *bst.Tree

	path string
	file *os.File
}

// Open loads a Store from path. If both rowCount and freeCount are zero,
// an empty file is created. Otherwise the file is reopened and exactly
// rowCount primary entries followed by freeCount freelist entries are
// read and inserted into the corresponding tree, in the order found on
// disk (which is already ascending by key, since it was written
// in-order).
func Open(path string, rowCount, freeCount int64) (*Store, error) {
	s := &Store{
		Primary:  bst.New(),
		Freelist: bst.New(),
		path:     path,
	}

	if rowCount == 0 && freeCount == 0 {
		f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
		if err != nil {
			return nil, fmt.Errorf("create index file %q: %w", path, err)
		}
		s.file = f
		return s, nil
	}

	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open index file %q: %w", path, err)
	}
	s.file = f

	r := bufio.NewReaderSize(f, 64*1024)
	if err := loadEntries(r, rowCount, s.Primary); err != nil {
		f.Close()
		return nil, fmt.Errorf("load primary index from %q: %w", path, err)
	}
	if err := loadEntries(r, freeCount, s.Freelist); err != nil {
		f.Close()
		return nil, fmt.Errorf("load freelist from %q: %w", path, err)
	}

	return s, nil
}

// loadEntries reads exactly count (key, value) pairs from r and inserts
// each into tree. A short read of any entry is a fatal, unrecoverable
// error for the index file — the file is corrupt or truncated.
func loadEntries(r io.Reader, count int64, tree *bst.Tree) error {
	buf := make([]byte, entrySize)
	for i := int64(0); i < count; i++ {
		if _, err := io.ReadFull(r, buf); err != nil {
			return fmt.Errorf("reading entry %d of %d: %w", i, count, err)
		}
		key, value := bst.DecodeEntry(buf)
		tree.Insert(key, value)
	}
	return nil
}

// Write serializes the current in-memory state — primary tree in-order,
// then freelist in-order — and atomically replaces the index file's
// contents. Staging the new contents in a temp file and renaming it into
// place (rather than rewinding and overwriting in place, as the original
// C implementation does) means a crash mid-write can never leave a torn
// index file: Open always sees either the previous complete write or
// the new one.
func (s *Store) Write() error {
	var buf bytes.Buffer
	buf.Grow(int(s.Primary.Size+s.Freelist.Size) * entrySize)

	entry := make([]byte, entrySize)
	writeErr := error(nil)
	s.Primary.InOrder(func(n *bst.Node) bool {
		n.EncodeEntry(entry)
		if _, err := buf.Write(entry); err != nil {
			writeErr = err
			return false
		}
		return true
	})
	if writeErr != nil {
		return fmt.Errorf("serialize primary index: %w", writeErr)
	}

	s.Freelist.InOrder(func(n *bst.Node) bool {
		n.EncodeEntry(entry)
		if _, err := buf.Write(entry); err != nil {
			writeErr = err
			return false
		}
		return true
	})
	if writeErr != nil {
		return fmt.Errorf("serialize freelist: %w", writeErr)
	}

	if err := atomic.WriteFile(s.path, bytes.NewReader(buf.Bytes())); err != nil {
		return fmt.Errorf("write index file %q: %w", s.path, err)
	}

	// atomic.WriteFile replaces the underlying inode; reopen our handle
	// so it refers to the new file rather than the old, now-unlinked one.
	if s.file != nil {
		s.file.Close()
	}
	f, err := os.OpenFile(s.path, os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("reopen index file %q after write: %w", s.path, err)
	}
	s.file = f

	return nil
}

// Close writes the current state, flushes and closes the file, and
// destroys both trees. Close is safe to call on a Store whose file is
// already closed.
func (s *Store) Close() error {
	if s.file == nil {
		return nil
	}
	if err := s.Write(); err != nil {
		return err
	}
	var err error
	if s.file != nil {
		err = s.file.Close()
		s.file = nil
	}
	s.Primary.Destroy()
	s.Freelist.Destroy()
	return err
}
