// Package memfs provides an in-memory filesystem backend.
//
// It backs ephemeral mounts (a save-data mount with no configured host
// directory) and the protocol test suites. Enumeration order is
// deterministic: entries are produced in lexical name order.
package memfs

import (
	"sort"
	"strings"
	"sync"

	"github.com/nxemu/fspsrv/internal/backend"
)

// node is one entry of the in-memory tree. Directories hold children by
// name; files hold their content.
type node struct {
	dir      bool
	children map[string]*node
	data     []byte
}

func newDir() *node {
	return &node{dir: true, children: map[string]*node{}}
}

// FileSystem is an in-memory backend.FileSystem. Safe for concurrent use;
// a single mutex guards the whole tree, which is plenty for a backend that
// serves one session at a time.
type FileSystem struct {
	mu   sync.RWMutex
	root *node
}

// New returns an empty in-memory filesystem.
func New() *FileSystem {
	return &FileSystem{root: newDir()}
}

// split breaks a path into segments, tolerating redundant separators.
func split(name string) []string {
	var segments []string
	for _, s := range strings.Split(name, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	return segments
}

// lookup resolves a path to its node. Callers hold fs.mu.
func (fs *FileSystem) lookup(name string) (*node, bool) {
	n := fs.root
	for _, seg := range split(name) {
		if !n.dir {
			return nil, false
		}
		child, ok := n.children[seg]
		if !ok {
			return nil, false
		}
		n = child
	}
	return n, true
}

// lookupParent resolves the parent directory and leaf name of a path.
// Callers hold fs.mu.
func (fs *FileSystem) lookupParent(name string) (*node, string, error) {
	segments := split(name)
	if len(segments) == 0 {
		return nil, "", backend.ErrNotFound
	}

	parent := fs.root
	for _, seg := range segments[:len(segments)-1] {
		child, ok := parent.children[seg]
		if !ok || !child.dir {
			return nil, "", backend.ErrNotFound
		}
		parent = child
	}
	return parent, segments[len(segments)-1], nil
}

// CreateFile creates a zero-filled file of the given size.
func (fs *FileSystem) CreateFile(name string, size uint64) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	parent, leaf, err := fs.lookupParent(name)
	if err != nil {
		return err
	}
	if _, ok := parent.children[leaf]; ok {
		return backend.ErrExists
	}

	parent.children[leaf] = &node{data: make([]byte, size)}
	return nil
}

// DeleteFile removes a file.
func (fs *FileSystem) DeleteFile(name string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	parent, leaf, err := fs.lookupParent(name)
	if err != nil {
		return err
	}
	child, ok := parent.children[leaf]
	if !ok {
		return backend.ErrNotFound
	}
	if child.dir {
		return backend.ErrNotAFile
	}

	delete(parent.children, leaf)
	return nil
}

// CreateDirectory creates a directory.
func (fs *FileSystem) CreateDirectory(name string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	parent, leaf, err := fs.lookupParent(name)
	if err != nil {
		return err
	}
	if _, ok := parent.children[leaf]; ok {
		return backend.ErrExists
	}

	parent.children[leaf] = newDir()
	return nil
}

// OpenFile opens an existing file. The mode argument is retained on the
// handle; writes through a read-only handle fail.
func (fs *FileSystem) OpenFile(name string, mode backend.OpenMode) (backend.File, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	n, ok := fs.lookup(name)
	if !ok {
		return nil, backend.ErrNotFound
	}
	if n.dir {
		return nil, backend.ErrNotAFile
	}
	return &file{fs: fs, node: n, mode: mode}, nil
}

// OpenDirectory opens a directory for enumeration. The enumeration works on
// a sorted snapshot of the directory taken at open time.
func (fs *FileSystem) OpenDirectory(name string) (backend.Directory, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	n, ok := fs.lookup(name)
	if !ok {
		return nil, backend.ErrNotFound
	}
	if !n.dir {
		return nil, backend.ErrNotADirectory
	}

	names := make([]string, 0, len(n.children))
	for childName := range n.children {
		names = append(names, childName)
	}
	sort.Strings(names)

	entries := make([]backend.Entry, 0, len(names))
	for _, childName := range names {
		child := n.children[childName]
		entry := backend.Entry{Name: childName, Type: backend.EntryTypeFile, Size: uint64(len(child.data))}
		if child.dir {
			entry.Type = backend.EntryTypeDirectory
			entry.Size = 0
		}
		entries = append(entries, entry)
	}

	return &directory{entries: entries}, nil
}

// EntryType reports whether name refers to a file or a directory.
func (fs *FileSystem) EntryType(name string) (backend.EntryType, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	n, ok := fs.lookup(name)
	if !ok {
		return 0, backend.ErrNotFound
	}
	if n.dir {
		return backend.EntryTypeDirectory, nil
	}
	return backend.EntryTypeFile, nil
}

// ============================================================================
// File Handle
// ============================================================================

type file struct {
	fs   *FileSystem
	node *node
	mode backend.OpenMode
}

func (f *file) Read(p []byte, off int64) (uint64, error) {
	f.fs.mu.RLock()
	defer f.fs.mu.RUnlock()

	if off >= int64(len(f.node.data)) {
		return 0, nil
	}
	n := copy(p, f.node.data[off:])
	return uint64(n), nil
}

func (f *file) Write(p []byte, off int64, flush bool) (uint64, error) {
	if f.mode&(backend.ModeWrite|backend.ModeAppend) == 0 {
		return 0, backend.ErrReadOnly
	}

	f.fs.mu.Lock()
	defer f.fs.mu.Unlock()

	end := off + int64(len(p))
	if end > int64(len(f.node.data)) {
		grown := make([]byte, end)
		copy(grown, f.node.data)
		f.node.data = grown
	}
	copy(f.node.data[off:], p)
	return uint64(len(p)), nil
}

// Flush is a no-op: memory writes are immediately visible.
func (f *file) Flush() error {
	return nil
}

func (f *file) SetSize(size uint64) error {
	if f.mode&(backend.ModeWrite|backend.ModeAppend) == 0 {
		return backend.ErrReadOnly
	}

	f.fs.mu.Lock()
	defer f.fs.mu.Unlock()

	resized := make([]byte, size)
	copy(resized, f.node.data)
	f.node.data = resized
	return nil
}

func (f *file) Size() (uint64, error) {
	f.fs.mu.RLock()
	defer f.fs.mu.RUnlock()
	return uint64(len(f.node.data)), nil
}

// ============================================================================
// Directory Handle
// ============================================================================

type directory struct {
	mu      sync.Mutex
	entries []backend.Entry
	cursor  int
}

func (d *directory) Read(maxEntries uint64) ([]backend.Entry, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

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
	d.mu.Lock()
	defer d.mu.Unlock()
	return uint64(len(d.entries) - d.cursor), nil
}
