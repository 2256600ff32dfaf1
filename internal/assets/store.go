// Package assets exposes a packaged read-only resource store, the Go
// counterpart of a platform asset manager. Stores are backed by any fs.FS,
// typically an embed.FS or os.DirFS over a models directory.
package assets

import (
	"errors"
	"fmt"
	"io/fs"
)

// ErrNotFound reports a missing store entry.
var ErrNotFound = errors.New("assets: entry not found")

// Store wraps a read-only filesystem of packaged resources.
type Store struct {
	fsys fs.FS
}

// NewStore returns a store over fsys.
func NewStore(fsys fs.FS) *Store {
	return &Store{fsys: fsys}
}

// Open opens an entry in streaming mode. The returned asset tracks its
// remaining length so callers can query end-of-stream without side effects.
func (s *Store) Open(name string) (*Asset, error) {
	if s == nil || s.fsys == nil {
		return nil, ErrNotFound
	}
	f, err := s.fsys.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("assets: open %s: %w", name, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("assets: stat %s: %w", name, err)
	}
	if info.IsDir() {
		f.Close()
		return nil, fmt.Errorf("%w: %s is a directory", ErrNotFound, name)
	}
	return &Asset{f: f, remaining: info.Size()}, nil
}

// Asset is one store entry opened for streaming reads.
type Asset struct {
	f         fs.File
	remaining int64
}

// Read fills p with the next bytes of the entry.
func (a *Asset) Read(p []byte) (int, error) {
	if a.f == nil {
		return 0, errors.New("assets: read on closed asset")
	}
	n, err := a.f.Read(p)
	if n > 0 {
		a.remaining -= int64(n)
		if a.remaining < 0 {
			a.remaining = 0
		}
	}
	return n, err
}

// Remaining reports the unread length. Safe to query repeatedly.
func (a *Asset) Remaining() int64 {
	if a == nil || a.f == nil {
		return 0
	}
	return a.remaining
}

// Close releases the underlying file. Idempotent.
func (a *Asset) Close() error {
	if a == nil || a.f == nil {
		return nil
	}
	f := a.f
	a.f = nil
	a.remaining = 0
	return f.Close()
}
