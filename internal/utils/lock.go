package utils

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

const lockRetryDelay = 250 * time.Millisecond

// DBLock serializes writers of one SQLite history file across processes.
// The lock lives next to the database as "<db>.lock".
type DBLock struct {
	lock *flock.Flock
	path string
}

// NewDBLock returns the lock guarding the database at dbPath.
func NewDBLock(dbPath string) (*DBLock, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("empty database path")
	}
	abs, err := filepath.Abs(dbPath)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", dbPath, err)
	}
	path := abs + ".lock"
	return &DBLock{lock: flock.New(path), path: path}, nil
}

// Lock takes the lock, polling until it is free or ctx is done.
func (l *DBLock) Lock(ctx context.Context) error {
	ok, err := l.lock.TryLock()
	if err != nil {
		return fmt.Errorf("lock %s: %w", l.path, err)
	}
	if ok {
		return nil
	}

	Log.Warnf("Another xcdupes process is writing to %s, waiting...", l.path)
	ok, err = l.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("lock %s: %w", l.path, err)
	}
	if !ok {
		return fmt.Errorf("lock %s: not acquired", l.path)
	}
	return nil
}

// Unlock releases the lock. Unlocking a lock that is not held is a no-op.
func (l *DBLock) Unlock() error {
	if err := l.lock.Unlock(); err != nil {
		return fmt.Errorf("unlock %s: %w", l.path, err)
	}
	return nil
}

// Path returns the lock file path.
func (l *DBLock) Path() string {
	return l.path
}
