package hostfs

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/nxemu/fspsrv/internal/backend"
	"github.com/nxemu/fspsrv/internal/backend/memfs"
)

// Resolver maps mount kinds to host-backed filesystems.
//
// A kind with a configured root resolves to a hostfs.FileSystem over that
// directory, or to an Image when the root is a regular file. Kinds without a
// configured root resolve to process-lifetime in-memory filesystems, except
// program data, which has nothing sensible to fabricate and fails instead.
type Resolver struct {
	roots map[backend.MountKind]string

	mu        sync.Mutex
	ephemeral map[string]*memfs.FileSystem
}

// NewResolver builds a resolver from per-kind host roots. Empty strings
// leave the kind unconfigured.
func NewResolver(sdcard, savedata, romfs string) *Resolver {
	return &Resolver{
		roots: map[backend.MountKind]string{
			backend.KindSdCard:   sdcard,
			backend.KindSaveData: savedata,
			backend.KindRomFS:    romfs,
		},
		ephemeral: map[string]*memfs.FileSystem{},
	}
}

// Open resolves a mount. The path argument scopes the mount under its root,
// e.g. a per-title save directory; it is empty for whole-root mounts.
func (r *Resolver) Open(kind backend.MountKind, path string) (backend.FileSystem, error) {
	root, ok := r.roots[kind]
	if !ok {
		return nil, fmt.Errorf("unknown mount kind %d", kind)
	}

	if root == "" {
		if kind == backend.KindRomFS {
			return nil, fmt.Errorf("no %s image configured", kind)
		}
		return r.openEphemeral(kind, path), nil
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("resolving %s mount: %w", kind, err)
	}

	if !info.IsDir() {
		if kind != backend.KindRomFS {
			return nil, fmt.Errorf("%s root %q is not a directory", kind, root)
		}
		return NewImage(root), nil
	}

	dir := root
	if path != "" {
		dir = filepath.Join(root, filepath.FromSlash(path))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating %s mount directory: %w", kind, err)
		}
	}
	return New(dir), nil
}

// openEphemeral returns the in-memory filesystem for an unconfigured mount,
// creating it on first use. The same kind and path always resolve to the
// same instance, so contents persist across remounts within the process.
func (r *Resolver) openEphemeral(kind backend.MountKind, path string) *memfs.FileSystem {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := kind.String() + "/" + path
	fs, ok := r.ephemeral[key]
	if !ok {
		fs = memfs.New()
		r.ephemeral[key] = fs
	}
	return fs
}
