package process

import (
	"fmt"
	"os"

	"github.com/gofrs/flock"
)

// recorder is an open recording file plus the lock that guards it.
type recorder struct {
	path string
	file *os.File
	lock *flock.Flock
}

func openRecorder(path string) (*recorder, error) {
	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquiring recording lock for %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrRecordingLocked, path)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC|os.O_APPEND, 0o644)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("unable to open %s for recording: %w", path, err)
	}

	return &recorder{path: path, file: file, lock: lock}, nil
}

func (r *recorder) write(p []byte) error {
	_, err := r.file.Write(p)
	return err
}

func (r *recorder) close() error {
	err := r.file.Close()
	if uerr := r.lock.Unlock(); err == nil {
		err = uerr
	}
	return err
}
