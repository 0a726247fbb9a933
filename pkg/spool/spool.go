package spool

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const defaultSubdir = "snaptext"

// Spool stores per-run temporary image artifacts. Every artifact gets a
// unique key so concurrent runs never share or clobber a file.
type Spool struct {
	dir string
}

// Handle references one temporary artifact, owned by a single pipeline run.
type Handle struct {
	ID   string
	Path string
}

// New resolves the spool directory and makes sure it exists. An empty dir
// falls back to a subdirectory of the OS temp dir.
func New(dir string) (*Spool, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		dir = filepath.Join(os.TempDir(), defaultSubdir)
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create spool directory: %w", err)
	}

	return &Spool{dir: dir}, nil
}

// Dir returns the resolved spool directory.
func (s *Spool) Dir() string {
	return s.dir
}

// Put writes data under a fresh unique key and returns its handle.
func (s *Spool) Put(data []byte, ext string) (*Handle, error) {
	ext = strings.TrimSpace(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	id := uuid.NewString()
	path := filepath.Join(s.dir, id+ext)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return nil, fmt.Errorf("write spool artifact: %w", err)
	}

	return &Handle{ID: id, Path: path}, nil
}

// Remove deletes the artifact. Removing an already-removed artifact is not
// an error, so cleanup can run on every exit path.
func (h *Handle) Remove() error {
	if h == nil || h.Path == "" {
		return nil
	}

	if err := os.Remove(h.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove spool artifact: %w", err)
	}

	return nil
}
