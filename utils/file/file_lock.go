// Package file provides advisory locks on files, used to keep two processes
// from appending to the same log directory.
package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"
)

var (
	// ErrFileNotExist is returned when a file does not exist.
	ErrFileNotExist = errors.New("file not exist")
	// ErrLocked is returned when another holder owns a conflicting lock.
	ErrLocked = errors.New("file locked")
	// ErrNotLocked is returned by the unlock methods of a lock that is not held.
	ErrNotLocked = errors.New("file not locked")

	_fileMode fs.FileMode = 0o600
	_dirMode  fs.FileMode = 0o755
)

// FileLock is a non-blocking flock(2) on a file.
type FileLock struct {
	Path string   // Path is the path to the file to be locked.
	File *os.File // File is the file handle used for the lock, nil when not held.
}

// NewFileLock creates a new FileLock instance for the given path.
func NewFileLock(p string) *FileLock {
	return &FileLock{
		Path: p,
	}
}

// IsLock reports whether another holder currently owns an exclusive lock on p.
func IsLock(p string) bool {
	fl := NewFileLock(p)
	if err := fl.Lock(); err != nil {
		return errors.Is(err, ErrLocked)
	}
	_ = fl.Unlock()
	return false
}

// Lock acquires an exclusive lock on the file, creating the file and its
// directory when missing. It fails with ErrLocked instead of waiting.
func (l *FileLock) Lock() error {
	if err := os.MkdirAll(filepath.Dir(l.Path), _dirMode); err != nil {
		return err
	}
	f, err := os.OpenFile(l.Path, os.O_RDWR|os.O_CREATE, _fileMode)
	if err != nil {
		return err
	}
	return l.flock(f, syscall.LOCK_EX)
}

// RLock acquires a shared lock on an existing file. It fails with ErrLocked
// instead of waiting.
func (l *FileLock) RLock() error {
	f, err := os.OpenFile(l.Path, os.O_RDONLY, _fileMode)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrFileNotExist
		}
		return err
	}
	return l.flock(f, syscall.LOCK_SH)
}

func (l *FileLock) flock(f *os.File, how int) error {
	if err := syscall.Flock(int(f.Fd()), how|syscall.LOCK_NB); err != nil {
		_ = f.Close()
		if errors.Is(err, syscall.EWOULDBLOCK) {
			return fmt.Errorf("%w: %s", ErrLocked, l.Path)
		}
		return fmt.Errorf("flock %s: %w", l.Path, err)
	}
	l.File = f
	return nil
}

// Unlock releases the lock and closes the file handle.
func (l *FileLock) Unlock() error {
	if l.File == nil {
		return ErrNotLocked
	}
	f := l.File
	l.File = nil
	defer f.Close()
	return syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
}

// RUnlock releases a shared lock and closes the file handle.
func (l *FileLock) RUnlock() error {
	return l.Unlock()
}
