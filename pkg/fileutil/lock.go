package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// FileLock represents a directory-based file lock
type FileLock struct {
	lockDir    string
	maxRetries int
	retryDelay time.Duration
	ownerID    string
}

// NewFileLock creates a new file lock for the given file path
// The lock directory is created in the same directory as the file
func NewFileLock(filePath string) *FileLock {
	dir := filepath.Dir(filePath)
	base := filepath.Base(filePath)
	lockDir := filepath.Join(dir, "."+base+".lock")

	return &FileLock{
		lockDir:    lockDir,
		maxRetries: 5,
		retryDelay: 1 * time.Second,
	}
}

// NewLockWithRetries creates a lock with custom retry settings
func NewLockWithRetries(filePath string, maxRetries int, retryDelay time.Duration) *FileLock {
	lock := NewFileLock(filePath)
	lock.maxRetries = maxRetries
	lock.retryDelay = retryDelay
	return lock
}

// Acquire attempts to acquire the lock
// Returns error if lock cannot be acquired after max retries
func (l *FileLock) Acquire() error {
	for i := 0; i < l.maxRetries; i++ {
		// Try to create lock directory (atomic operation)
		err := os.Mkdir(l.lockDir, 0755)
		if err == nil {
			l.ownerID = uuid.NewString()
			// Best-effort: record who holds the lock, for BusyError
			// diagnostics. Failure to write it doesn't invalidate the
			// lock itself.
			_ = os.WriteFile(filepath.Join(l.lockDir, "owner"), []byte(l.ownerID), 0644)
			return nil
		}

		// Lock exists: wait and retry (stale locks are not detected)
		if os.IsExist(err) {
			// Wait and retry
			if i < l.maxRetries-1 {
				time.Sleep(l.retryDelay)
				continue
			}
		}

		// Other error or max retries exceeded
		return fmt.Errorf("failed to acquire lock after %d retries: %w", l.maxRetries, err)
	}

	return fmt.Errorf("could not acquire lock (is another process writing?)")
}

// OwnerID returns the token generated for the current holder of the
// lock, or the empty string if Acquire has not succeeded. To find the
// token of another holder after a failed Acquire, use CurrentOwnerID.
func (l *FileLock) OwnerID() string {
	return l.ownerID
}

// CurrentOwnerID reads the owner token left by whoever currently holds
// the lock, if any.
func (l *FileLock) CurrentOwnerID() string {
	data, err := os.ReadFile(filepath.Join(l.lockDir, "owner"))
	if err != nil {
		return ""
	}
	return string(data)
}

// Release releases the lock by removing the lock directory
func (l *FileLock) Release() error {
	err := os.RemoveAll(l.lockDir)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}

// WithLock executes a function while holding the lock
// Automatically acquires and releases the lock
func WithLock(filePath string, fn func() error) error {
	lock := NewFileLock(filePath)

	if err := lock.Acquire(); err != nil {
		return err
	}

	defer func() {
		_ = lock.Release() // Ignore release errors in defer
	}()

	return fn()
}
