package fsp

import (
	"context"

	"github.com/nxemu/fspsrv/internal/backend"
	"github.com/nxemu/fspsrv/internal/logger"
	"github.com/nxemu/fspsrv/internal/protocol/ipc"
	"github.com/nxemu/fspsrv/pkg/bufpool"
)

// DirectorySession exposes a directory enumeration backend. It exclusively
// owns its backend handle.
type DirectorySession struct {
	table   *CommandTable
	backend backend.Directory
}

// NewDirectorySession wraps a directory enumeration in a session. Ownership
// of the backend transfers to the session.
func NewDirectorySession(b backend.Directory) *DirectorySession {
	s := &DirectorySession{backend: b}
	s.table = NewCommandTable("DirectorySession", map[uint32]Command{
		0: Implemented("Read", s.read),
		1: Implemented("GetEntryCount", s.getEntryCount),
	})
	return s
}

// InterfaceName implements ipc.Object.
func (s *DirectorySession) InterfaceName() string { return s.table.Interface() }

// Commands implements Session.
func (s *DirectorySession) Commands() *CommandTable { return s.table }

// read returns packed entry records. The caller's output buffer capacity
// determines the maximum entries returned: capacity divided by the fixed
// record size. The count of entries actually produced is reported as an
// out-word.
func (s *DirectorySession) read(ctx context.Context, req *ipc.Request) (*ipc.Response, error) {
	rp := req.Parser()
	reserved := rp.U64()
	if err := rp.Err(); err != nil {
		return nil, err
	}

	maxEntries := uint64(req.OutCapacity(0)) / EntryRecordSize

	logger.DebugCtx(ctx, "called",
		logger.MaxEntries(maxEntries), "reserved", reserved)

	entries, err := s.backend.Read(maxEntries)
	if err != nil {
		return ipc.Failure(resultFromBackend(err)), nil
	}

	buf := bufpool.Get(len(entries) * EntryRecordSize)
	packed := buf[:0]
	for _, e := range entries {
		packed = appendEntryRecord(packed, e)
	}

	logger.DebugCtx(ctx, "read entries", logger.Entries(uint64(len(entries))))

	return ipc.NewBuilder(req).
		PushU64(uint64(len(entries))).
		WriteBuffer(0, packed).
		ReleaseOnDone(buf).
		Done(), nil
}

func (s *DirectorySession) getEntryCount(ctx context.Context, req *ipc.Request) (*ipc.Response, error) {
	count, err := s.backend.EntryCount()
	if err != nil {
		return ipc.Failure(resultFromBackend(err)), nil
	}

	logger.DebugCtx(ctx, "called", logger.Entries(count))
	return ipc.NewBuilder(req).PushU64(count).Done(), nil
}
