package fsp

import (
	"context"

	"github.com/nxemu/fspsrv/internal/backend"
	"github.com/nxemu/fspsrv/internal/logger"
	"github.com/nxemu/fspsrv/internal/protocol/ipc"
)

// FileSystemSession exposes a mounted filesystem backend. It exclusively
// owns its backend handle. OpenFile and OpenDirectory spawn child sessions
// whose ownership transfers entirely to the response.
type FileSystemSession struct {
	table   *CommandTable
	backend backend.FileSystem
}

// NewFileSystemSession wraps a mounted filesystem in a session. Ownership
// of the backend transfers to the session.
func NewFileSystemSession(b backend.FileSystem) *FileSystemSession {
	s := &FileSystemSession{backend: b}
	s.table = NewCommandTable("FileSystemSession", map[uint32]Command{
		0:  Implemented("CreateFile", s.createFile),
		1:  Implemented("DeleteFile", s.deleteFile),
		2:  Implemented("CreateDirectory", s.createDirectory),
		3:  Stub("DeleteDirectory"),
		4:  Stub("DeleteDirectoryRecursively"),
		5:  Stub("RenameFile"),
		6:  Stub("RenameDirectory"),
		7:  Implemented("GetEntryType", s.getEntryType),
		8:  Implemented("OpenFile", s.openFile),
		9:  Implemented("OpenDirectory", s.openDirectory),
		10: Implemented("Commit", s.commit),
		11: Stub("GetFreeSpaceSize"),
		12: Stub("GetTotalSpaceSize"),
		13: Stub("CleanDirectoryRecursively"),
		14: Stub("GetFileTimeStampRaw"),
		15: Stub("QueryEntry"),
	})
	return s
}

// InterfaceName implements ipc.Object.
func (s *FileSystemSession) InterfaceName() string { return s.table.Interface() }

// Commands implements Session.
func (s *FileSystemSession) Commands() *CommandTable { return s.table }

// name decodes the name argument from the request's first input buffer:
// bytes up to the first zero terminator, padding ignored.
func (s *FileSystemSession) name(req *ipc.Request) string {
	return ipc.NullTerminated(req.InBuffer(0))
}

func (s *FileSystemSession) createFile(ctx context.Context, req *ipc.Request) (*ipc.Response, error) {
	name := s.name(req)

	rp := req.Parser()
	mode := rp.U64()
	size := rp.U32()
	if err := rp.Err(); err != nil {
		return nil, err
	}

	logger.DebugCtx(ctx, "called",
		logger.Name(name), logger.Mode(mode), logger.Size(uint64(size)))

	if err := s.backend.CreateFile(name, uint64(size)); err != nil {
		return ipc.Failure(resultFromBackend(err)), nil
	}
	return ipc.Success(), nil
}

func (s *FileSystemSession) deleteFile(ctx context.Context, req *ipc.Request) (*ipc.Response, error) {
	name := s.name(req)

	logger.DebugCtx(ctx, "called", logger.Name(name))

	if err := s.backend.DeleteFile(name); err != nil {
		return ipc.Failure(resultFromBackend(err)), nil
	}
	return ipc.Success(), nil
}

func (s *FileSystemSession) createDirectory(ctx context.Context, req *ipc.Request) (*ipc.Response, error) {
	name := s.name(req)

	logger.DebugCtx(ctx, "called", logger.Name(name))

	if err := s.backend.CreateDirectory(name); err != nil {
		return ipc.Failure(resultFromBackend(err)), nil
	}
	return ipc.Success(), nil
}

func (s *FileSystemSession) getEntryType(ctx context.Context, req *ipc.Request) (*ipc.Response, error) {
	name := s.name(req)

	logger.DebugCtx(ctx, "called", logger.Name(name))

	entryType, err := s.backend.EntryType(name)
	if err != nil {
		return ipc.Failure(resultFromBackend(err)), nil
	}
	return ipc.NewBuilder(req).PushU32(uint32(entryType)).Done(), nil
}

// openFile opens a file and transfers a new FileSession to the caller. On
// backend failure the backend's code propagates and no session is created.
func (s *FileSystemSession) openFile(ctx context.Context, req *ipc.Request) (*ipc.Response, error) {
	name := s.name(req)

	rp := req.Parser()
	mode := backend.OpenMode(rp.U32())
	if err := rp.Err(); err != nil {
		return nil, err
	}

	logger.DebugCtx(ctx, "called", logger.Name(name), logger.Mode(uint64(mode)))

	file, err := s.backend.OpenFile(name, mode)
	if err != nil {
		return ipc.Failure(resultFromBackend(err)), nil
	}

	return ipc.NewBuilder(req).
		PushObject(NewFileSession(file)).
		Done(), nil
}

// openDirectory opens a directory enumeration and transfers a new
// DirectorySession to the caller. The filter flags argument is accepted but
// not applied to the enumeration; this is a known limitation of the
// protocol surface, kept as-is.
func (s *FileSystemSession) openDirectory(ctx context.Context, req *ipc.Request) (*ipc.Response, error) {
	name := s.name(req)

	rp := req.Parser()
	filterFlags := rp.U32()
	if err := rp.Err(); err != nil {
		return nil, err
	}

	logger.DebugCtx(ctx, "called", logger.Name(name), "filter", filterFlags)

	dir, err := s.backend.OpenDirectory(name)
	if err != nil {
		return ipc.Failure(resultFromBackend(err)), nil
	}

	return ipc.NewBuilder(req).
		PushObject(NewDirectorySession(dir)).
		Done(), nil
}

// commit always succeeds; the backends this core serves persist writes
// immediately, leaving nothing to commit.
func (s *FileSystemSession) commit(ctx context.Context, req *ipc.Request) (*ipc.Response, error) {
	logger.WarnCtx(ctx, "stubbed")
	return ipc.Success(), nil
}
