// Package backend defines the capability sets the protocol sessions consume
// from storage, file, directory, and filesystem backends. Implementations
// perform the actual I/O; the protocol layer owns argument validation and
// never reaches a backend with a negative offset or length.
//
// Each backend handle is exclusively owned by exactly one session. No
// locking discipline is required of implementations beyond that ownership
// rule; the dispatch layer serializes requests per session.
package backend

// Storage is a read-only byte range, such as program data mapped for the
// current process.
type Storage interface {
	// Read fills p with bytes starting at offset off and returns the count
	// actually read. Reading at or past the end returns 0 without error;
	// short reads near the end are the normal case.
	Read(p []byte, off int64) (uint64, error)
}

// File is an open file handle.
type File interface {
	Storage

	// Write stores p at offset off and returns the count written. When
	// flush is set the data must be durable before Write returns.
	Write(p []byte, off int64, flush bool) (uint64, error)

	// Flush forces buffered writes to the underlying medium.
	Flush() error

	// SetSize truncates or extends the file to size bytes.
	SetSize(size uint64) error

	// Size returns the current file size in bytes.
	Size() (uint64, error)
}

// EntryType distinguishes directory entries.
type EntryType uint8

const (
	EntryTypeDirectory EntryType = 0
	EntryTypeFile      EntryType = 1
)

// Entry is one directory entry as produced by enumeration.
type Entry struct {
	Name string
	Type EntryType
	Size uint64
}

// Directory is an open directory enumeration handle. Enumeration is
// stateful: successive Read calls continue where the previous one stopped.
type Directory interface {
	// Read returns up to maxEntries entries, fewer when the enumeration is
	// near its end, and an empty slice once exhausted.
	Read(maxEntries uint64) ([]Entry, error)

	// EntryCount returns the number of entries remaining in the
	// enumeration.
	EntryCount() (uint64, error)
}

// OpenMode selects the access mode of an opened file.
type OpenMode uint32

const (
	ModeRead   OpenMode = 1
	ModeWrite  OpenMode = 2
	ModeAppend OpenMode = 4
)

// FileSystem is a mounted filesystem backend.
type FileSystem interface {
	// CreateFile creates a file of the given size. The file's content is
	// zero-filled.
	CreateFile(name string, size uint64) error

	// DeleteFile removes a file.
	DeleteFile(name string) error

	// CreateDirectory creates a directory.
	CreateDirectory(name string) error

	// OpenFile opens an existing file with the given access mode.
	OpenFile(name string, mode OpenMode) (File, error)

	// OpenDirectory opens a directory for enumeration.
	OpenDirectory(name string) (Directory, error)

	// EntryType reports whether name refers to a file or a directory.
	EntryType(name string) (EntryType, error)
}

// MountKind selects which backend mount a resolver should open.
type MountKind int

const (
	// KindSdCard is the removable-media mount.
	KindSdCard MountKind = iota

	// KindSaveData is the per-title save data mount.
	KindSaveData

	// KindRomFS is the read-only program data of the current process.
	KindRomFS
)

// String returns the mount kind's configuration name.
func (k MountKind) String() string {
	switch k {
	case KindSdCard:
		return "sdcard"
	case KindSaveData:
		return "savedata"
	case KindRomFS:
		return "romfs"
	default:
		return "unknown"
	}
}

// MountResolver maps a mount kind to a filesystem backend. Resolution may
// fail when the corresponding medium is absent; the caller decides whether
// and how long to cache a successful resolution.
type MountResolver interface {
	Open(kind MountKind, path string) (FileSystem, error)
}
