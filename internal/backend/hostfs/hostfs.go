// Package hostfs provides filesystem backends over a host directory tree.
//
// A FileSystem maps backend names onto paths under a root directory. Names
// are cleaned before use and may not escape the root. The package also
// contains Image, a read-only filesystem over a single host file, used for
// program data mounts backed by a packed image.
package hostfs

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/nxemu/fspsrv/internal/backend"
)

// FileSystem serves a host directory as a backend.FileSystem.
type FileSystem struct {
	root string
}

// New returns a filesystem rooted at the given host directory.
func New(root string) *FileSystem {
	return &FileSystem{root: root}
}

// resolve maps a backend name to a host path under the root. Names that
// would escape the root resolve to not-found rather than to host paths.
func (h *FileSystem) resolve(name string) (string, error) {
	cleaned := path.Clean("/" + strings.ReplaceAll(name, "\\", "/"))
	if cleaned == "/.." || strings.HasPrefix(cleaned, "/../") {
		return "", backend.ErrNotFound
	}
	return filepath.Join(h.root, filepath.FromSlash(cleaned)), nil
}

// mapError folds host error classes into the backend sentinels.
func mapError(err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return backend.ErrNotFound
	case errors.Is(err, fs.ErrExist):
		return backend.ErrExists
	default:
		return err
	}
}

// CreateFile creates a zero-filled file of the given size.
func (h *FileSystem) CreateFile(name string, size uint64) error {
	p, err := h.resolve(name)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(p, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return mapError(err)
	}
	defer f.Close()

	if err := f.Truncate(int64(size)); err != nil {
		return fmt.Errorf("sizing created file: %w", err)
	}
	return nil
}

// DeleteFile removes a file.
func (h *FileSystem) DeleteFile(name string) error {
	p, err := h.resolve(name)
	if err != nil {
		return err
	}

	info, err := os.Stat(p)
	if err != nil {
		return mapError(err)
	}
	if info.IsDir() {
		return backend.ErrNotAFile
	}
	return mapError(os.Remove(p))
}

// CreateDirectory creates a directory.
func (h *FileSystem) CreateDirectory(name string) error {
	p, err := h.resolve(name)
	if err != nil {
		return err
	}
	return mapError(os.Mkdir(p, 0o755))
}

// OpenFile opens an existing file with the given access mode.
func (h *FileSystem) OpenFile(name string, mode backend.OpenMode) (backend.File, error) {
	p, err := h.resolve(name)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(p)
	if err != nil {
		return nil, mapError(err)
	}
	if info.IsDir() {
		return nil, backend.ErrNotAFile
	}

	flags := os.O_RDONLY
	if mode&(backend.ModeWrite|backend.ModeAppend) != 0 {
		flags = os.O_RDWR
	}

	f, err := os.OpenFile(p, flags, 0)
	if err != nil {
		return nil, mapError(err)
	}
	return &file{f: f, mode: mode}, nil
}

// OpenDirectory opens a directory for enumeration. The enumeration works on
// a snapshot taken at open time, in the host's lexical order.
func (h *FileSystem) OpenDirectory(name string) (backend.Directory, error) {
	p, err := h.resolve(name)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(p)
	if err != nil {
		return nil, mapError(err)
	}
	if !info.IsDir() {
		return nil, backend.ErrNotADirectory
	}

	hostEntries, err := os.ReadDir(p)
	if err != nil {
		return nil, mapError(err)
	}

	entries := make([]backend.Entry, 0, len(hostEntries))
	for _, he := range hostEntries {
		entry := backend.Entry{Name: he.Name(), Type: backend.EntryTypeDirectory}
		if !he.IsDir() {
			entry.Type = backend.EntryTypeFile
			if fi, err := he.Info(); err == nil {
				entry.Size = uint64(fi.Size())
			}
		}
		entries = append(entries, entry)
	}
	return &directory{entries: entries}, nil
}

// EntryType reports whether name refers to a file or a directory.
func (h *FileSystem) EntryType(name string) (backend.EntryType, error) {
	p, err := h.resolve(name)
	if err != nil {
		return 0, err
	}

	info, err := os.Stat(p)
	if err != nil {
		return 0, mapError(err)
	}
	if info.IsDir() {
		return backend.EntryTypeDirectory, nil
	}
	return backend.EntryTypeFile, nil
}

// ============================================================================
// File Handle
// ============================================================================

type file struct {
	f    *os.File
	mode backend.OpenMode
}

func (f *file) Read(p []byte, off int64) (uint64, error) {
	n, err := f.f.ReadAt(p, off)
	if err != nil && !errors.Is(err, io.EOF) {
		return uint64(n), err
	}
	return uint64(n), nil
}

func (f *file) Write(p []byte, off int64, flush bool) (uint64, error) {
	if f.mode&(backend.ModeWrite|backend.ModeAppend) == 0 {
		return 0, backend.ErrReadOnly
	}

	n, err := f.f.WriteAt(p, off)
	if err != nil {
		return uint64(n), err
	}
	if flush {
		if err := f.f.Sync(); err != nil {
			return uint64(n), err
		}
	}
	return uint64(n), nil
}

func (f *file) Flush() error {
	return f.f.Sync()
}

func (f *file) SetSize(size uint64) error {
	if f.mode&(backend.ModeWrite|backend.ModeAppend) == 0 {
		return backend.ErrReadOnly
	}
	return f.f.Truncate(int64(size))
}

func (f *file) Size() (uint64, error) {
	info, err := f.f.Stat()
	if err != nil {
		return 0, err
	}
	return uint64(info.Size()), nil
}

// ============================================================================
// Directory Handle
// ============================================================================

type directory struct {
	entries []backend.Entry
	cursor  int
}

func (d *directory) Read(maxEntries uint64) ([]backend.Entry, error) {
	remaining := len(d.entries) - d.cursor
	n := int(maxEntries)
	if n > remaining {
		n = remaining
	}

	out := d.entries[d.cursor : d.cursor+n]
	d.cursor += n
	return out, nil
}

func (d *directory) EntryCount() (uint64, error) {
	return uint64(len(d.entries) - d.cursor), nil
}
