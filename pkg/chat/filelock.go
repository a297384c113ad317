package chat

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"
)

// Lock tuning for the history file. Writes are short, so a lock older
// than staleLockAge belongs to a process that died mid-write.
const (
	lockTimeout    = 5 * time.Second
	lockRetryDelay = 20 * time.Millisecond
	staleLockAge   = 30 * time.Second
)

var errLockTimeout = errors.New("timed out waiting for history lock")

// fileLock is an exclusive lock on path, held through a sibling .lock
// file, so two sherpa processes never interleave history writes
type fileLock struct {
	path     string
	lockPath string
	file     *os.File
}

func newFileLock(path string) *fileLock {
	return &fileLock{path: path, lockPath: path + ".lock"}
}

// lock blocks until the lock is acquired or timeout passes
func (fl *fileLock) lock(timeout time.Duration) error {
	if fl.file != nil {
		return errors.New("history lock already held")
	}

	deadline := time.Now().Add(timeout)
	for {
		err := fl.tryLock()
		if err == nil {
			return nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return err
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: %s", errLockTimeout, fl.lockPath)
		}
		time.Sleep(lockRetryDelay)
	}
}

func (fl *fileLock) tryLock() error {
	file, err := os.OpenFile(fl.lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		if errors.Is(err, fs.ErrExist) && fl.isStale() {
			_ = os.Remove(fl.lockPath)
		}
		return err
	}

	if _, err := fmt.Fprintf(file, "pid:%d\ntime:%s\n", os.Getpid(), time.Now().Format(time.RFC3339)); err != nil {
		file.Close()
		os.Remove(fl.lockPath)
		return fmt.Errorf("failed to write history lock: %w", err)
	}

	fl.file = file
	return nil
}

func (fl *fileLock) isStale() bool {
	info, err := os.Stat(fl.lockPath)
	if err != nil {
		return false
	}
	return time.Since(info.ModTime()) > staleLockAge
}

// unlock releases the lock. It is a no-op when the lock is not held.
func (fl *fileLock) unlock() error {
	if fl.file == nil {
		return nil
	}

	err := fl.file.Close()
	fl.file = nil
	if rmErr := os.Remove(fl.lockPath); rmErr != nil && err == nil {
		err = rmErr
	}
	if err != nil {
		return fmt.Errorf("failed to release history lock: %w", err)
	}
	return nil
}
