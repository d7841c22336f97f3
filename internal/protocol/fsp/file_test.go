package fsp

import (
	"encoding/binary"
	"testing"

	"github.com/nxemu/fspsrv/internal/backend"
	"github.com/nxemu/fspsrv/internal/backend/memfs"
	"github.com/nxemu/fspsrv/internal/protocol/ipc"
	"github.com/nxemu/fspsrv/internal/protocol/result"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestFile creates a file of the given size and returns its session.
func openTestFile(t *testing.T, size uint64) *FileSession {
	t.Helper()
	fs := memfs.New()
	require.NoError(t, fs.CreateFile("data.bin", size))
	f, err := fs.OpenFile("data.bin", backend.ModeRead|backend.ModeWrite)
	require.NoError(t, err)
	return NewFileSession(f)
}

// fileRead builds a file Read request: reserved word, offset, length.
func fileRead(offset, length int64, capacity uint32) *ipc.Request {
	return &ipc.Request{
		CommandID:     0,
		Params:        le(0, uint64(offset), uint64(length)),
		OutCapacities: []uint32{capacity},
	}
}

// fileWrite builds a file Write request carrying data as the input buffer.
func fileWrite(offset, length int64, data []byte) *ipc.Request {
	return &ipc.Request{
		CommandID: 1,
		Params:    le(0, uint64(offset), uint64(length)),
		InBuffers: [][]byte{data},
	}
}

// readCount decodes the byte-count out-word of a file Read response.
func readCount(t *testing.T, resp *ipc.Response) uint64 {
	t.Helper()
	require.Len(t, resp.Words, 8)
	return binary.LittleEndian.Uint64(resp.Words)
}

// ============================================================================
// File Read/Write Tests
// ============================================================================

func TestFileReadWrite(t *testing.T) {
	t.Run("WriteThenReadRoundTrip", func(t *testing.T) {
		s := openTestFile(t, 0)

		resp := dispatch(t, s, fileWrite(0, 5, []byte{1, 2, 3, 4, 5}))
		require.Equal(t, result.Success, resp.Result)
		assert.Empty(t, resp.Words)

		resp = dispatch(t, s, fileRead(0, 5, 64))
		defer resp.Release()

		require.Equal(t, result.Success, resp.Result)
		assert.Equal(t, uint64(5), readCount(t, resp))
		require.Len(t, resp.OutBuffers, 1)
		assert.Equal(t, []byte{1, 2, 3, 4, 5}, resp.OutBuffers[0])
	})

	t.Run("ReadCountIsActualNotRequested", func(t *testing.T) {
		s := openTestFile(t, 10)

		resp := dispatch(t, s, fileRead(6, 8, 64))
		defer resp.Release()

		require.Equal(t, result.Success, resp.Result)
		assert.Equal(t, uint64(4), readCount(t, resp))
		assert.Len(t, resp.OutBuffers[0], 4)
	})

	t.Run("ReadLengthClampedToCapacity", func(t *testing.T) {
		s := openTestFile(t, 1024)

		resp := dispatch(t, s, fileRead(0, 1024, 16))
		defer resp.Release()

		require.Equal(t, result.Success, resp.Result)
		assert.Equal(t, uint64(16), readCount(t, resp))
	})

	t.Run("WriteTruncatesInputToDeclaredLength", func(t *testing.T) {
		s := openTestFile(t, 0)

		resp := dispatch(t, s, fileWrite(0, 2, []byte{1, 2, 3, 4, 5}))
		require.Equal(t, result.Success, resp.Result)

		resp = dispatch(t, s, &ipc.Request{CommandID: 4})
		require.Equal(t, result.Success, resp.Result)
		assert.Equal(t, uint64(2), binary.LittleEndian.Uint64(resp.Words))
	})

	t.Run("NegativeArgumentsRejected", func(t *testing.T) {
		s := openTestFile(t, 16)

		resp := dispatch(t, s, fileRead(-1, 4, 64))
		assert.Equal(t, result.InvalidOffset, resp.Result)

		resp = dispatch(t, s, fileRead(0, -4, 64))
		assert.Equal(t, result.InvalidLength, resp.Result)

		resp = dispatch(t, s, fileWrite(-1, 4, []byte{1}))
		assert.Equal(t, result.InvalidOffset, resp.Result)

		resp = dispatch(t, s, fileWrite(0, -4, []byte{1}))
		assert.Equal(t, result.InvalidLength, resp.Result)
	})
}

// ============================================================================
// File Size Tests
// ============================================================================

func TestFileSize(t *testing.T) {
	t.Run("GetSizeIsIdempotent", func(t *testing.T) {
		s := openTestFile(t, 1024)

		for i := 0; i < 3; i++ {
			resp := dispatch(t, s, &ipc.Request{CommandID: 4})
			require.Equal(t, result.Success, resp.Result)
			assert.Equal(t, uint64(1024), binary.LittleEndian.Uint64(resp.Words))
		}
	})

	t.Run("SetSizeResizes", func(t *testing.T) {
		s := openTestFile(t, 1024)

		resp := dispatch(t, s, &ipc.Request{CommandID: 3, Params: le(16)})
		require.Equal(t, result.Success, resp.Result)

		resp = dispatch(t, s, &ipc.Request{CommandID: 4})
		require.Equal(t, result.Success, resp.Result)
		assert.Equal(t, uint64(16), binary.LittleEndian.Uint64(resp.Words))
	})
}

// ============================================================================
// Flush and Stub Tests
// ============================================================================

func TestFileFlush(t *testing.T) {
	s := openTestFile(t, 4)

	resp := dispatch(t, s, &ipc.Request{CommandID: 2})
	assert.Equal(t, result.Success, resp.Result)
}

// flushRecordingFile records the flush flag of every write it receives.
type flushRecordingFile struct {
	flushes []bool
}

func (f *flushRecordingFile) Read(p []byte, off int64) (uint64, error) { return 0, nil }

func (f *flushRecordingFile) Write(p []byte, off int64, flush bool) (uint64, error) {
	f.flushes = append(f.flushes, flush)
	return uint64(len(p)), nil
}

func (f *flushRecordingFile) Flush() error              { return nil }
func (f *flushRecordingFile) SetSize(size uint64) error { return nil }
func (f *flushRecordingFile) Size() (uint64, error)     { return 0, nil }

func TestFileWriteIsDurable(t *testing.T) {
	f := &flushRecordingFile{}
	s := NewFileSession(f)

	resp := dispatch(t, s, fileWrite(0, 3, []byte{1, 2, 3}))
	require.Equal(t, result.Success, resp.Result)

	require.Len(t, f.flushes, 1)
	assert.True(t, f.flushes[0], "data must be durable before the response is produced")
}

func TestFileOperateRangeUnimplemented(t *testing.T) {
	s := openTestFile(t, 4)

	resp := dispatch(t, s, &ipc.Request{CommandID: 5})
	assert.Equal(t, result.NotImplemented, resp.Result)
}
