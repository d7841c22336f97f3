package ipc

import (
	"encoding/binary"

	"github.com/nxemu/fspsrv/internal/protocol/result"
	"github.com/nxemu/fspsrv/pkg/bufpool"
)

// Object is a service object transferred to the caller as part of a
// response. Ownership of a pushed object moves entirely to the response and
// from there to the caller; the producing session keeps no reference.
type Object interface {
	// InterfaceName identifies the object's interface type for logging.
	InterfaceName() string
}

// Response is the single reply to a request. It is built incrementally by a
// handler and finalized by the dispatcher. On failure the out-words, out
// buffers, and objects are always empty; callers must check Result before
// consuming any output field.
type Response struct {
	// Result is the flat success/failure code, always the first word of the
	// encoded response.
	Result result.Code

	// Words is the encoded little-endian out-word area following the result
	// code.
	Words []byte

	// OutBuffers hold the output byte ranges, in declaration order, each
	// already clamped to the capacity the caller declared. The actual data
	// length is reported through an out-word, never inferred from the
	// buffer size.
	OutBuffers [][]byte

	// Objects are the newly created service objects handed to the caller,
	// appended only on success.
	Objects []Object

	// ReadBytes and WrittenBytes report the payload moved by the command,
	// consumed by the dispatcher for transfer accounting.
	ReadBytes    uint64
	WrittenBytes uint64

	// pooled buffers to return to the pool on Release.
	pooled [][]byte
}

// Failure returns a bare failure response carrying only the result code.
func Failure(code result.Code) *Response {
	return &Response{Result: code}
}

// Success returns a bare success response with no outputs.
func Success() *Response {
	return &Response{Result: result.Success}
}

// Encode lays out the response scalar area: the result code word first,
// followed by the out-words. Output buffer payload travels separately
// through the transport's buffer descriptors and is not part of this area.
func (r *Response) Encode() []byte {
	out := make([]byte, 4+len(r.Words))
	binary.LittleEndian.PutUint32(out, uint32(r.Result))
	copy(out[4:], r.Words)
	return out
}

// Release returns any pooled buffers held by the response. Must be called
// after the response has been encoded and copied out. Safe to call more
// than once.
func (r *Response) Release() {
	for _, buf := range r.pooled {
		bufpool.Put(buf)
	}
	r.pooled = nil
}

// ============================================================================
// Response Builder
// ============================================================================

// Builder assembles a success response for one request. Out-words are
// appended in order; output buffers are clamped to the capacities the
// request declared.
type Builder struct {
	req  *Request
	resp Response
}

// NewBuilder returns a builder for a response to req.
func NewBuilder(req *Request) *Builder {
	return &Builder{req: req}
}

// PushU32 appends a 32-bit out-word.
func (b *Builder) PushU32(v uint32) *Builder {
	var w [4]byte
	binary.LittleEndian.PutUint32(w[:], v)
	b.resp.Words = append(b.resp.Words, w[:]...)
	return b
}

// PushU64 appends a 64-bit out-word.
func (b *Builder) PushU64(v uint64) *Builder {
	var w [8]byte
	binary.LittleEndian.PutUint64(w[:], v)
	b.resp.Words = append(b.resp.Words, w[:]...)
	return b
}

// WriteBuffer sets the i-th output buffer to data, truncated to the
// capacity the caller declared for that buffer. Writing less than capacity
// is the normal case.
func (b *Builder) WriteBuffer(i int, data []byte) *Builder {
	if c := b.req.OutCapacity(i); uint32(len(data)) > c {
		data = data[:c]
	}
	for len(b.resp.OutBuffers) <= i {
		b.resp.OutBuffers = append(b.resp.OutBuffers, nil)
	}
	b.resp.OutBuffers[i] = data
	return b
}

// CountRead records n payload bytes read by the command.
func (b *Builder) CountRead(n uint64) *Builder {
	b.resp.ReadBytes += n
	return b
}

// CountWritten records n payload bytes written by the command.
func (b *Builder) CountWritten(n uint64) *Builder {
	b.resp.WrittenBytes += n
	return b
}

// PushObject transfers a newly created service object to the response.
func (b *Builder) PushObject(obj Object) *Builder {
	b.resp.Objects = append(b.resp.Objects, obj)
	return b
}

// ReleaseOnDone registers a pooled buffer to be returned to the buffer pool
// when the finished response is released.
func (b *Builder) ReleaseOnDone(buf []byte) *Builder {
	b.resp.pooled = append(b.resp.pooled, buf)
	return b
}

// Done finalizes the response with a success result.
func (b *Builder) Done() *Response {
	b.resp.Result = result.Success
	return &b.resp
}
