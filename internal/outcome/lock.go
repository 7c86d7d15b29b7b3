package outcome

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrAlreadyRunning indicates another process holds the run lock.
var ErrAlreadyRunning = errors.New("another run is already in progress")

// RunLock serializes runs against the same state directory so two
// processes never race on the browser profile or the outcome database.
type RunLock struct {
	lock *flock.Flock
	path string
}

// AcquireRunLock takes the run lock or fails immediately if it is held.
func AcquireRunLock(stateDir string) (*RunLock, error) {
	path := filepath.Join(stateDir, "subseek.lock")
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (lock file %s)", ErrAlreadyRunning, path)
	}
	return &RunLock{lock: lock, path: path}, nil
}

// Path returns the lock file location.
func (l *RunLock) Path() string {
	return l.path
}

// Release drops the lock.
func (l *RunLock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}
