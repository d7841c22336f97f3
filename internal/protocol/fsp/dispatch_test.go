package fsp

import (
	"context"
	"testing"
	"time"

	"github.com/nxemu/fspsrv/internal/protocol/ipc"
	"github.com/nxemu/fspsrv/internal/protocol/result"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Dispatch Tests
// ============================================================================

func TestDispatchUnmappedCommand(t *testing.T) {
	storage := &fakeStorage{data: []byte{1, 2, 3}}
	s := NewStorageSession(storage)

	resp := dispatch(t, s, &ipc.Request{CommandID: 9999})

	assert.Equal(t, result.NotImplemented, resp.Result)
	assert.Empty(t, resp.Words)
	assert.Empty(t, resp.OutBuffers)
	assert.Empty(t, resp.Objects)
	assert.Zero(t, storage.calls, "backend must not be touched for an unmapped id")
}

func TestDispatchStubCommand(t *testing.T) {
	storage := &fakeStorage{data: []byte{1, 2, 3}}
	s := NewStorageSession(storage)

	// Write is mapped on storage sessions but carries no handler
	resp := dispatch(t, s, &ipc.Request{CommandID: 1})

	assert.Equal(t, result.NotImplemented, resp.Result)
	assert.Empty(t, resp.Words)
	assert.Empty(t, resp.OutBuffers)
	assert.Empty(t, resp.Objects)
	assert.Zero(t, storage.calls)
}

func TestDispatchMalformedParametersIsAFault(t *testing.T) {
	s := NewStorageSession(&fakeStorage{})

	// Read wants two 64-bit scalars; hand it four bytes
	_, err := NewDispatcher().Dispatch(context.Background(), s, &ipc.Request{
		CommandID: 0,
		Params:    []byte{1, 2, 3, 4},
	})

	require.Error(t, err)
	assert.ErrorContains(t, err, "StorageSession.Read")
}

func TestDispatchEncodesResultWordFirst(t *testing.T) {
	s := NewStorageSession(&fakeStorage{})

	resp := dispatch(t, s, &ipc.Request{CommandID: 9999})
	encoded := resp.Encode()

	require.Len(t, encoded, 4)
	assert.Equal(t, le32(uint32(result.NotImplemented)), encoded)
}

// recordingMetrics captures metric observations for assertions.
type recordingMetrics struct {
	dispatches []string
	bytes      map[string]uint64
}

func (m *recordingMetrics) RecordDispatch(iface, command string, d time.Duration, res string) {
	m.dispatches = append(m.dispatches, iface+"."+command+":"+res)
}

func (m *recordingMetrics) RecordBytesTransferred(iface, direction string, n uint64) {
	if m.bytes == nil {
		m.bytes = make(map[string]uint64)
	}
	m.bytes[iface+":"+direction] += n
}

func TestDispatchRecordsTransferredBytes(t *testing.T) {
	m := &recordingMetrics{}
	d := NewDispatcherWithMetrics(m)

	t.Run("StorageReadCountsReadBytes", func(t *testing.T) {
		storage := &fakeStorage{data: []byte{1, 2, 3, 4}}
		resp, err := d.Dispatch(context.Background(), NewStorageSession(storage), storageRead(0, 4, 64))
		require.NoError(t, err)
		defer resp.Release()

		require.Equal(t, result.Success, resp.Result)
		assert.Equal(t, uint64(4), m.bytes["StorageSession:read"])
	})

	t.Run("FileWriteCountsWrittenBytes", func(t *testing.T) {
		s := openTestFile(t, 0)
		resp, err := d.Dispatch(context.Background(), s, fileWrite(0, 3, []byte{7, 8, 9}))
		require.NoError(t, err)

		require.Equal(t, result.Success, resp.Result)
		assert.Equal(t, uint64(3), m.bytes["FileSession:write"])
	})

	t.Run("FileReadCountsReadBytes", func(t *testing.T) {
		s := openTestFile(t, 8)
		resp, err := d.Dispatch(context.Background(), s, fileRead(0, 8, 64))
		require.NoError(t, err)
		defer resp.Release()

		require.Equal(t, result.Success, resp.Result)
		assert.Equal(t, uint64(8), m.bytes["FileSession:read"])
	})

	assert.Len(t, m.dispatches, 3)
}

func TestDispatchRecordsNoBytesOnFailure(t *testing.T) {
	m := &recordingMetrics{}
	d := NewDispatcherWithMetrics(m)

	s := NewStorageSession(&fakeStorage{data: []byte{1, 2, 3, 4}})
	resp, err := d.Dispatch(context.Background(), s, storageRead(0, -4, 64))
	require.NoError(t, err)

	require.Equal(t, result.InvalidLength, resp.Result)
	assert.Empty(t, m.bytes)
}

func TestCommandTableLookupIsExact(t *testing.T) {
	table := NewStorageSession(&fakeStorage{}).Commands()

	_, ok := table.Lookup(0)
	assert.True(t, ok)

	// no fuzzy or range matching
	_, ok = table.Lookup(6)
	assert.False(t, ok)

	assert.Equal(t, "StorageSession", table.Interface())
}
