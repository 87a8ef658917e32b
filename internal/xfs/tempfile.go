package xfs

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// removeRetryDelay gives platforms that keep a lock on recently closed files
// a moment before the second removal attempt.
var removeRetryDelay = 100 * time.Millisecond

// TempFile is a uniquely named temporary file owned by a single request.
// It is open for writing after acquisition and must be closed before another
// process is asked to read it.
type TempFile struct {
	path   string
	file   *os.File
	mu     sync.Mutex
	closed bool
}

// AcquireTemp creates an empty, uniquely named file in dir (the system temp
// directory when dir is empty). The returned release func closes the handle
// if still open and removes the file. Release is safe to call more than once
// and never returns an error: removal failures are logged.
func AcquireTemp(dir, prefix, suffix string) (*TempFile, func(), error) {
	f, err := os.CreateTemp(dir, prefix+"*"+suffix)
	if err != nil {
		return nil, func() {}, fmt.Errorf("xfs: failed to create temp file: %w", err)
	}

	tf := &TempFile{path: f.Name(), file: f}

	var once sync.Once
	release := func() {
		once.Do(func() {
			if err := tf.Close(); err != nil {
				slog.Warn("Failed to close temp file", "path", tf.path, "error", err)
			}
			RemoveQuietly(tf.path)
		})
	}

	return tf, release, nil
}

// WithTempFile acquires a temp file, runs fn with it and removes the file on
// every exit path, including a panic inside fn.
func WithTempFile(dir, prefix, suffix string, fn func(tf *TempFile) error) error {
	tf, release, err := AcquireTemp(dir, prefix, suffix)
	if err != nil {
		return err
	}
	defer release()

	return fn(tf)
}

// Path returns the absolute path of the file.
func (tf *TempFile) Path() string {
	return tf.path
}

// Write writes to the open handle.
func (tf *TempFile) Write(p []byte) (int, error) {
	tf.mu.Lock()
	defer tf.mu.Unlock()

	if tf.closed {
		return 0, fmt.Errorf("xfs: write to closed temp file %s: %w", tf.path, fs.ErrClosed)
	}
	return tf.file.Write(p)
}

// Close closes the write handle. Closing twice is a no-op.
func (tf *TempFile) Close() error {
	tf.mu.Lock()
	defer tf.mu.Unlock()

	if tf.closed {
		return nil
	}
	tf.closed = true
	return tf.file.Close()
}

// Closed reports whether the write handle has been closed.
func (tf *TempFile) Closed() bool {
	tf.mu.Lock()
	defer tf.mu.Unlock()

	return tf.closed
}

// ReadAll closes the write handle and reads the file back from disk.
func (tf *TempFile) ReadAll() ([]byte, error) {
	if err := tf.Close(); err != nil {
		return nil, fmt.Errorf("xfs: failed to close temp file: %w", err)
	}
	return os.ReadFile(tf.path)
}

// RemoveQuietly removes path, retrying once after a short delay. A missing
// file counts as removed. Failures are logged and swallowed.
func RemoveQuietly(path string) {
	err := os.Remove(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		slog.Debug("Removed temp file", "path", path)
		return
	}

	time.Sleep(removeRetryDelay)
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("Could not remove temp file", "path", path, "error", err)
		return
	}
	slog.Debug("Removed temp file after retry", "path", path)
}

// UniqueName returns prefix + a random 32 character hex token + suffix.
func UniqueName(prefix, suffix string) string {
	return prefix + strings.ReplaceAll(uuid.NewString(), "-", "") + suffix
}
