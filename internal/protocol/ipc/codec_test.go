package ipc

import (
	"encoding/binary"
	"testing"

	"github.com/nxemu/fspsrv/internal/protocol/result"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// params builds a little-endian parameter area from 64-bit words.
func params(words ...uint64) []byte {
	buf := make([]byte, 8*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint64(buf[i*8:], w)
	}
	return buf
}

func TestParserSequentialPops(t *testing.T) {
	req := &Request{Params: params(42, 0xDEADBEEF00000005)}

	rp := req.Parser()
	assert.EqualValues(t, 42, rp.U64())
	assert.EqualValues(t, uint64(0xDEADBEEF00000005), rp.U64())
	require.NoError(t, rp.Err())
}

func TestParserSignedValues(t *testing.T) {
	req := &Request{Params: params(uint64(0xFFFFFFFFFFFFFFFF))} // -1

	rp := req.Parser()
	assert.EqualValues(t, -1, rp.I64())
	require.NoError(t, rp.Err())
}

func TestParserU32Pairs(t *testing.T) {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint32(buf, 7)
	binary.LittleEndian.PutUint32(buf[4:], 9)
	req := &Request{Params: buf}

	rp := req.Parser()
	assert.EqualValues(t, 7, rp.U32())
	assert.EqualValues(t, 9, rp.U32())
	require.NoError(t, rp.Err())
}

func TestParserU128(t *testing.T) {
	req := &Request{Params: params(0x1111, 0x2222)}

	rp := req.Parser()
	lo, hi := rp.U128()
	assert.EqualValues(t, 0x1111, lo)
	assert.EqualValues(t, 0x2222, hi)
	require.NoError(t, rp.Err())
}

func TestParserShortReadIsSticky(t *testing.T) {
	req := &Request{Params: params(1)}

	rp := req.Parser()
	assert.EqualValues(t, 1, rp.U64())
	assert.EqualValues(t, 0, rp.U64()) // past the end
	require.Error(t, rp.Err())

	// Later pops stay zero and do not clear the error.
	assert.EqualValues(t, 0, rp.U32())
	require.Error(t, rp.Err())
}

func TestParserRaw(t *testing.T) {
	req := &Request{Params: []byte{1, 2, 3, 4}}

	rp := req.Parser()
	assert.Equal(t, []byte{1, 2, 3}, rp.Raw(3))
	assert.Nil(t, rp.Raw(2))
	require.Error(t, rp.Err())
}

func TestMissingInBufferDecodesEmpty(t *testing.T) {
	req := &Request{}

	// Fail closed: absent range is an empty range, not an error.
	assert.Empty(t, req.InBuffer(0))
	assert.Empty(t, req.InBuffer(3))
	assert.EqualValues(t, 0, req.OutCapacity(0))
}

func TestNullTerminated(t *testing.T) {
	tests := []struct {
		name string
		buf  []byte
		want string
	}{
		{"exact", []byte("notes.txt\x00"), "notes.txt"},
		{"padded", []byte("a\x00\x00\x00garbage"), "a"},
		{"no terminator", []byte("abc"), "abc"},
		{"empty", nil, ""},
		{"leading zero", []byte("\x00abc"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NullTerminated(tt.buf))
		})
	}
}

func TestEncodeResultWordFirst(t *testing.T) {
	resp := Failure(result.InvalidLength)

	raw := resp.Encode()
	require.Len(t, raw, 4)
	assert.Equal(t, uint32(result.InvalidLength), binary.LittleEndian.Uint32(raw))
}

func TestBuilderWordsFollowResult(t *testing.T) {
	req := &Request{}
	resp := NewBuilder(req).PushU32(5).PushU64(1024).Done()

	assert.True(t, resp.Result.IsSuccess())

	raw := resp.Encode()
	require.Len(t, raw, 4+4+8)
	assert.EqualValues(t, 0, binary.LittleEndian.Uint32(raw))
	assert.EqualValues(t, 5, binary.LittleEndian.Uint32(raw[4:]))
	assert.EqualValues(t, 1024, binary.LittleEndian.Uint64(raw[8:]))
}

func TestWriteBufferClampsToCapacity(t *testing.T) {
	req := &Request{OutCapacities: []uint32{4}}

	resp := NewBuilder(req).WriteBuffer(0, []byte{1, 2, 3, 4, 5, 6}).Done()

	require.Len(t, resp.OutBuffers, 1)
	assert.Equal(t, []byte{1, 2, 3, 4}, resp.OutBuffers[0])
}

func TestWriteBufferShortWriteIsNormal(t *testing.T) {
	req := &Request{OutCapacities: []uint32{64}}

	resp := NewBuilder(req).WriteBuffer(0, []byte{9, 9}).Done()

	require.Len(t, resp.OutBuffers, 1)
	assert.Equal(t, []byte{9, 9}, resp.OutBuffers[0])
}

func TestWriteBufferUndeclaredCapacityYieldsEmpty(t *testing.T) {
	req := &Request{}

	resp := NewBuilder(req).WriteBuffer(0, []byte{1, 2, 3}).Done()

	require.Len(t, resp.OutBuffers, 1)
	assert.Empty(t, resp.OutBuffers[0])
}

func TestFailureCarriesNoOutputs(t *testing.T) {
	resp := Failure(result.PathNotFound)

	assert.True(t, resp.Result.IsFailure())
	assert.Empty(t, resp.Words)
	assert.Empty(t, resp.OutBuffers)
	assert.Empty(t, resp.Objects)
}

func TestReleaseIsIdempotent(t *testing.T) {
	req := &Request{OutCapacities: []uint32{8}}
	buf := make([]byte, 8)

	resp := NewBuilder(req).WriteBuffer(0, buf).ReleaseOnDone(buf).Done()
	resp.Release()
	resp.Release() // no panic, no double put
}
