package fsp

import (
	"context"

	"github.com/nxemu/fspsrv/internal/backend"
	"github.com/nxemu/fspsrv/internal/logger"
	"github.com/nxemu/fspsrv/internal/protocol/ipc"
	"github.com/nxemu/fspsrv/internal/protocol/result"
	"github.com/nxemu/fspsrv/pkg/bufpool"
)

// StorageSession exposes a read-only storage backend, such as the program
// data of the current process. It exclusively owns its backend handle.
type StorageSession struct {
	table   *CommandTable
	backend backend.Storage
}

// NewStorageSession wraps a storage backend in a session. Ownership of the
// backend transfers to the session.
func NewStorageSession(b backend.Storage) *StorageSession {
	s := &StorageSession{backend: b}
	s.table = NewCommandTable("StorageSession", map[uint32]Command{
		0: Implemented("Read", s.read),
		1: Stub("Write"),
		2: Stub("Flush"),
		3: Stub("SetSize"),
		4: Stub("GetSize"),
		5: Stub("OperateRange"),
	})
	return s
}

// InterfaceName implements ipc.Object.
func (s *StorageSession) InterfaceName() string { return s.table.Interface() }

// Commands implements Session.
func (s *StorageSession) Commands() *CommandTable { return s.table }

// read copies min(length, available) bytes at the given offset into the
// caller's output buffer. Offset and length are validated before the
// backend is touched.
func (s *StorageSession) read(ctx context.Context, req *ipc.Request) (*ipc.Response, error) {
	rp := req.Parser()
	offset := rp.I64()
	length := rp.I64()
	if err := rp.Err(); err != nil {
		return nil, err
	}

	logger.DebugCtx(ctx, "called", logger.Offset(offset), logger.Length(length))

	if length < 0 {
		return ipc.Failure(result.InvalidLength), nil
	}
	if offset < 0 {
		return ipc.Failure(result.InvalidOffset), nil
	}

	// The requested length is attacker-controlled; never allocate more than
	// the caller's declared output capacity can take.
	readLen := length
	if c := int64(req.OutCapacity(0)); readLen > c {
		readLen = c
	}

	buf := bufpool.Get(int(readLen))
	n, err := s.backend.Read(buf[:readLen], offset)
	if err != nil {
		bufpool.Put(buf)
		return ipc.Failure(resultFromBackend(err)), nil
	}

	logger.DebugCtx(ctx, "read", logger.BytesRead(n))

	return ipc.NewBuilder(req).
		WriteBuffer(0, buf[:n]).
		CountRead(n).
		ReleaseOnDone(buf).
		Done(), nil
}
