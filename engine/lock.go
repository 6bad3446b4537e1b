package engine

import (
	"fmt"
	"os"
	"syscall"
)

// fileLock holds an exclusive, advisory flock on a sibling ".lock" file.
// It is a safety net against opening the same database twice from the same
// process, not a concurrency primitive: the core remains single-writer,
// single-process, and the lock is never waited on — a second Open fails
// immediately instead of blocking, since there is nothing for it to wait
// for in a single-process model.
type fileLock struct {
	file *os.File
}

// acquireLock takes a non-blocking exclusive lock on path+".lock".
// MiniDb's lock exists only to catch a double Open of the same path in
// this process, so a single failed attempt is reported immediately
// rather than retried with a timeout.
func acquireLock(path string) (*fileLock, error) {
	lockPath := path + ".lock"

	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open lock file %q: %w", lockPath, err)
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		f.Close()
		return nil, fmt.Errorf("database %q is already open in this process", path)
	}

	return &fileLock{file: f}, nil
}

// release drops the lock and closes the lock file. Safe to call on a nil
// *fileLock.
func (l *fileLock) release() {
	if l == nil || l.file == nil {
		return
	}
	syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN)
	l.file.Close()
	l.file = nil
}
