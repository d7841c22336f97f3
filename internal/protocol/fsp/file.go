package fsp

import (
	"context"

	"github.com/nxemu/fspsrv/internal/backend"
	"github.com/nxemu/fspsrv/internal/logger"
	"github.com/nxemu/fspsrv/internal/protocol/ipc"
	"github.com/nxemu/fspsrv/internal/protocol/result"
	"github.com/nxemu/fspsrv/pkg/bufpool"
)

// FileSession exposes an open file backend. It exclusively owns its backend
// handle.
type FileSession struct {
	table   *CommandTable
	backend backend.File
}

// NewFileSession wraps an open file in a session. Ownership of the backend
// transfers to the session.
func NewFileSession(b backend.File) *FileSession {
	s := &FileSession{backend: b}
	s.table = NewCommandTable("FileSession", map[uint32]Command{
		0: Implemented("Read", s.read),
		1: Implemented("Write", s.write),
		2: Implemented("Flush", s.flush),
		3: Implemented("SetSize", s.setSize),
		4: Implemented("GetSize", s.getSize),
		5: Stub("OperateRange"),
	})
	return s
}

// InterfaceName implements ipc.Object.
func (s *FileSession) InterfaceName() string { return s.table.Interface() }

// Commands implements Session.
func (s *FileSession) Commands() *CommandTable { return s.table }

// read returns the actually-read byte count as an out-word alongside the
// data; the count is distinct from the requested length and is never
// inferred from the output buffer size.
func (s *FileSession) read(ctx context.Context, req *ipc.Request) (*ipc.Response, error) {
	rp := req.Parser()
	_ = rp.U64() // reserved
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
		PushU64(n).
		WriteBuffer(0, buf[:n]).
		CountRead(n).
		ReleaseOnDone(buf).
		Done(), nil
}

// write stores the input buffer at the given offset. Writes carry an
// immediate-flush semantic: the backend is asked to make the data durable
// before the response is produced.
func (s *FileSession) write(ctx context.Context, req *ipc.Request) (*ipc.Response, error) {
	rp := req.Parser()
	_ = rp.U64() // reserved
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

	data := req.InBuffer(0)
	if int64(len(data)) > length {
		data = data[:length]
	}

	n, err := s.backend.Write(data, offset, true)
	if err != nil {
		return ipc.Failure(resultFromBackend(err)), nil
	}

	logger.DebugCtx(ctx, "written", logger.BytesWritten(n))
	return ipc.NewBuilder(req).CountWritten(n).Done(), nil
}

func (s *FileSession) flush(ctx context.Context, req *ipc.Request) (*ipc.Response, error) {
	logger.DebugCtx(ctx, "called")

	if err := s.backend.Flush(); err != nil {
		return ipc.Failure(resultFromBackend(err)), nil
	}
	return ipc.Success(), nil
}

func (s *FileSession) setSize(ctx context.Context, req *ipc.Request) (*ipc.Response, error) {
	rp := req.Parser()
	size := rp.U64()
	if err := rp.Err(); err != nil {
		return nil, err
	}

	logger.DebugCtx(ctx, "called", logger.Size(size))

	if err := s.backend.SetSize(size); err != nil {
		return ipc.Failure(resultFromBackend(err)), nil
	}
	return ipc.Success(), nil
}

func (s *FileSession) getSize(ctx context.Context, req *ipc.Request) (*ipc.Response, error) {
	size, err := s.backend.Size()
	if err != nil {
		return ipc.Failure(resultFromBackend(err)), nil
	}

	logger.DebugCtx(ctx, "called", logger.Size(size))
	return ipc.NewBuilder(req).PushU64(size).Done(), nil
}
