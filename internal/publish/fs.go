// SPDX-License-Identifier: MPL-2.0

package publish

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// filePerm is the mode of written artifacts.
const filePerm = 0o644

type (
	// Reader reads a local file.
	Reader interface {
		ReadText(path string) ([]byte, error)
	}

	// Writer replaces a local file with data.
	Writer interface {
		WriteText(path string, data []byte) error
	}

	// Fetcher reads a file from the publishing target.
	Fetcher interface {
		FetchText(ctx context.Context, path string) ([]byte, error)
	}

	// OSFS reads and writes the local file system. Writes go through a
	// temporary file in the destination directory and a rename; the
	// directory itself is never created.
	OSFS struct{}

	// Write is one recorded write.
	Write struct {
		Path string
		Data []byte
	}

	// Recorder is a Writer that keeps writes in memory instead of touching
	// the file system. It is used for dry runs and tests.
	Recorder struct {
		mu     sync.Mutex
		writes []Write
	}
)

// ReadText implements Reader.
func (OSFS) ReadText(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// WriteText implements Writer.
func (OSFS) WriteText(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("destination directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("destination directory %s: %w", dir, fs.ErrInvalid)
	}

	tmp, err := os.CreateTemp(dir, ".specpub-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpPath) // best-effort cleanup
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err = tmp.Chmod(filePerm); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err = os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}

// WriteText implements Writer.
func (r *Recorder) WriteText(path string, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes = append(r.writes, Write{Path: path, Data: append([]byte(nil), data...)})
	return nil
}

// Writes returns the recorded writes in order.
func (r *Recorder) Writes() []Write {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Write(nil), r.writes...)
}

// Last returns the most recent data written to path.
func (r *Recorder) Last(path string) ([]byte, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.writes) - 1; i >= 0; i-- {
		if r.writes[i].Path == path {
			return r.writes[i].Data, true
		}
	}
	return nil, false
}

// isNotExist reports whether a read failed because the file is absent.
func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
