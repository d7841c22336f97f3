package fsp

import (
	"testing"

	"github.com/nxemu/fspsrv/internal/backend"
	"github.com/nxemu/fspsrv/internal/protocol/ipc"
	"github.com/nxemu/fspsrv/internal/protocol/result"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storageRead builds a storage Read request.
func storageRead(offset, length int64, capacity uint32) *ipc.Request {
	return &ipc.Request{
		CommandID:     0,
		Params:        le(uint64(offset), uint64(length)),
		OutCapacities: []uint32{capacity},
	}
}

// ============================================================================
// Storage Read Tests
// ============================================================================

func TestStorageRead(t *testing.T) {
	t.Run("CopiesRequestedRange", func(t *testing.T) {
		storage := &fakeStorage{data: []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}}
		s := NewStorageSession(storage)

		resp := dispatch(t, s, storageRead(2, 4, 64))
		defer resp.Release()

		assert.Equal(t, result.Success, resp.Result)
		require.Len(t, resp.OutBuffers, 1)
		assert.Equal(t, []byte{2, 3, 4, 5}, resp.OutBuffers[0])
	})

	t.Run("ShortReadNearEnd", func(t *testing.T) {
		storage := &fakeStorage{data: []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}}
		s := NewStorageSession(storage)

		resp := dispatch(t, s, storageRead(8, 8, 64))
		defer resp.Release()

		assert.Equal(t, result.Success, resp.Result)
		require.Len(t, resp.OutBuffers, 1)
		assert.Equal(t, []byte{8, 9}, resp.OutBuffers[0])
	})

	t.Run("ReadAtEndReturnsEmpty", func(t *testing.T) {
		storage := &fakeStorage{data: make([]byte, 4)}
		s := NewStorageSession(storage)

		resp := dispatch(t, s, storageRead(4, 4, 64))
		defer resp.Release()

		assert.Equal(t, result.Success, resp.Result)
		require.Len(t, resp.OutBuffers, 1)
		assert.Empty(t, resp.OutBuffers[0])
	})

	t.Run("LengthClampedToDeclaredCapacity", func(t *testing.T) {
		storage := &fakeStorage{data: make([]byte, 1024)}
		s := NewStorageSession(storage)

		resp := dispatch(t, s, storageRead(0, 1<<30, 16))
		defer resp.Release()

		assert.Equal(t, result.Success, resp.Result)
		require.Len(t, resp.OutBuffers, 1)
		assert.Len(t, resp.OutBuffers[0], 16)
	})

	t.Run("NegativeLengthRejectedBeforeBackend", func(t *testing.T) {
		storage := &fakeStorage{data: make([]byte, 16)}
		s := NewStorageSession(storage)

		resp := dispatch(t, s, storageRead(0, -1, 64))

		assert.Equal(t, result.InvalidLength, resp.Result)
		assert.Empty(t, resp.OutBuffers)
		assert.Zero(t, storage.calls)
	})

	t.Run("NegativeOffsetRejectedBeforeBackend", func(t *testing.T) {
		storage := &fakeStorage{data: make([]byte, 16)}
		s := NewStorageSession(storage)

		resp := dispatch(t, s, storageRead(-1, 4, 64))

		assert.Equal(t, result.InvalidOffset, resp.Result)
		assert.Empty(t, resp.OutBuffers)
		assert.Zero(t, storage.calls)
	})

	t.Run("NegativeLengthReportedOverNegativeOffset", func(t *testing.T) {
		s := NewStorageSession(&fakeStorage{})

		resp := dispatch(t, s, storageRead(-1, -1, 64))
		assert.Equal(t, result.InvalidLength, resp.Result)
	})

	t.Run("BackendFailurePropagatesAsCode", func(t *testing.T) {
		storage := &fakeStorage{err: backend.Status(result.OutOfRange)}
		s := NewStorageSession(storage)

		resp := dispatch(t, s, storageRead(0, 4, 64))

		assert.Equal(t, result.OutOfRange, resp.Result)
		assert.Empty(t, resp.OutBuffers)
	})
}

// ============================================================================
// Storage Table Tests
// ============================================================================

func TestStorageMutationsUnimplemented(t *testing.T) {
	s := NewStorageSession(&fakeStorage{data: []byte{1}})

	for _, id := range []uint32{1, 2, 3, 4, 5} {
		resp := dispatch(t, s, &ipc.Request{CommandID: id})
		assert.Equal(t, result.NotImplemented, resp.Result, "command %d", id)
	}
}
