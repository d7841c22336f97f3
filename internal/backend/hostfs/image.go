package hostfs

import (
	"os"

	"github.com/nxemu/fspsrv/internal/backend"
)

// Image is a read-only backend.FileSystem over a single packed image file on
// the host. Opening any name yields the whole image; this matches program
// data mounts, where the caller opens the mount's root with an empty name
// and reads it as one storage range.
type Image struct {
	path string
}

// NewImage returns a filesystem serving the image at the given host path.
func NewImage(path string) *Image {
	return &Image{path: path}
}

func (i *Image) CreateFile(name string, size uint64) error {
	return backend.ErrReadOnly
}

func (i *Image) DeleteFile(name string) error {
	return backend.ErrReadOnly
}

func (i *Image) CreateDirectory(name string) error {
	return backend.ErrReadOnly
}

// OpenFile opens the image itself, regardless of name. Write modes are
// rejected.
func (i *Image) OpenFile(name string, mode backend.OpenMode) (backend.File, error) {
	if mode&(backend.ModeWrite|backend.ModeAppend) != 0 {
		return nil, backend.ErrReadOnly
	}

	f, err := os.Open(i.path)
	if err != nil {
		return nil, mapError(err)
	}
	return &file{f: f, mode: backend.ModeRead}, nil
}

// OpenDirectory fails: the image is opaque and exposes no entry structure.
func (i *Image) OpenDirectory(name string) (backend.Directory, error) {
	return nil, backend.ErrNotADirectory
}

func (i *Image) EntryType(name string) (backend.EntryType, error) {
	return backend.EntryTypeFile, nil
}
