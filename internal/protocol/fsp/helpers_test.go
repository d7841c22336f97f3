package fsp

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/nxemu/fspsrv/internal/backend"
	"github.com/nxemu/fspsrv/internal/protocol/ipc"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Request Construction Helpers
// ============================================================================

// le appends 64-bit little-endian scalars into a parameter area.
func le(vs ...uint64) []byte {
	buf := make([]byte, 0, 8*len(vs))
	for _, v := range vs {
		buf = binary.LittleEndian.AppendUint64(buf, v)
	}
	return buf
}

// le32 appends 32-bit little-endian scalars into a parameter area.
func le32(vs ...uint32) []byte {
	buf := make([]byte, 0, 4*len(vs))
	for _, v := range vs {
		buf = binary.LittleEndian.AppendUint32(buf, v)
	}
	return buf
}

// nameBuf builds a name input buffer with terminator and trailing padding,
// the way transports deliver path arguments.
func nameBuf(name string) []byte {
	buf := make([]byte, len(name)+8)
	copy(buf, name)
	return buf
}

// dispatch runs one request through a fresh dispatcher and requires that no
// system-level fault occurred.
func dispatch(t *testing.T, s Session, req *ipc.Request) *ipc.Response {
	t.Helper()
	resp, err := NewDispatcher().Dispatch(context.Background(), s, req)
	require.NoError(t, err)
	require.NotNil(t, resp)
	return resp
}

// ============================================================================
// Backend Fakes
// ============================================================================

// fakeStorage is an in-memory storage that counts backend invocations.
type fakeStorage struct {
	data  []byte
	calls int
	err   error
}

func (f *fakeStorage) Read(p []byte, off int64) (uint64, error) {
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	if off >= int64(len(f.data)) {
		return 0, nil
	}
	return uint64(copy(p, f.data[off:])), nil
}

// fakeResolver hands out a fixed filesystem and counts resolutions.
type fakeResolver struct {
	fs    backend.FileSystem
	err   error
	calls map[backend.MountKind]int
}

func newFakeResolver(fs backend.FileSystem) *fakeResolver {
	return &fakeResolver{fs: fs, calls: map[backend.MountKind]int{}}
}

func (f *fakeResolver) Open(kind backend.MountKind, path string) (backend.FileSystem, error) {
	f.calls[kind]++
	if f.err != nil {
		return nil, f.err
	}
	return f.fs, nil
}
