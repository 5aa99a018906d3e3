package booking

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"sync"
)

// WAL appends serialized store mutations for durability.
type WAL interface {
	Write(data []byte) error
}

// FileWAL appends newline-delimited entries to a file and syncs each write.
type FileWAL struct {
	mu   sync.Mutex
	path string
	f    *os.File
}

// NewFileWAL constructs a FileWAL targeting the given path.
func NewFileWAL(path string) (*FileWAL, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &FileWAL{path: path, f: f}, nil
}

// Write appends the provided data to the WAL file.
func (w *FileWAL) Write(data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	n, err := w.f.Write(append(data, '\n'))
	if err != nil {
		return err
	}
	if n != len(data)+1 {
		return fmt.Errorf("partial write: wrote %d of %d bytes", n, len(data)+1)
	}

	return w.f.Sync()
}

// Replay reads the journal from the start and invokes fn for each entry.
func (w *FileWAL) Replay(fn func(line []byte) error) error {
	f, err := os.Open(w.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if err := fn(line); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// Close releases the underlying file handle.
func (w *FileWAL) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.f.Close()
}
