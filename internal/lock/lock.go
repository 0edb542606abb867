// Package lock serialises keg processes sharing one workspace.
package lock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"
)

// ErrLocked is returned by TryAcquire when another process holds the lock.
var ErrLocked = errors.New("workspace is locked by another keg process")

const retryInterval = 100 * time.Millisecond

// Lock is an exclusive advisory lock on a file. The kernel drops it when the
// process exits, so an orphaned lock file is harmless.
type Lock struct {
	file *os.File
}

// TryAcquire takes the lock on path without waiting.
func TryAcquire(path string) (*Lock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open lock file %s: %w", path, err)
	}
	if err := lockFile(f); err != nil {
		f.Close()
		return nil, err
	}
	return &Lock{file: f}, nil
}

// Acquire waits for the lock on path until ctx is done.
func Acquire(ctx context.Context, path string) (*Lock, error) {
	for {
		l, err := TryAcquire(path)
		if !errors.Is(err, ErrLocked) {
			return l, err
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%s: %w", path, ctx.Err())
		case <-time.After(retryInterval):
		}
	}
}

// Release unlocks and closes the lock file. It is safe to call more than once.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	err := unlockFile(l.file)
	if closeErr := l.file.Close(); err == nil {
		err = closeErr
	}
	l.file = nil
	return err
}
