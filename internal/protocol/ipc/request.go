// Package ipc implements the fixed-layout binary message codec for the
// filesystem service protocol.
//
// A request carries a numeric command id, a little-endian scalar parameter
// area, and descriptor-addressed byte ranges supplied by the transport:
// input buffers with client data, and declared capacities for output
// buffers. A response always begins with the result code word, followed by
// fixed-width out-words; output buffer payload is copied into the
// caller-declared capacity, never past it.
//
// All lengths and offsets in the parameter area are attacker-controlled.
// Decoding fails closed: a declared buffer range that is absent decodes as
// an empty range, and scalar reads past the end of the parameter area are
// reported as a parse error rather than yielding garbage.
package ipc

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Request is a single decoded call, produced fresh per dispatch by the
// transport. It is immutable for the duration of the dispatch.
type Request struct {
	// CommandID is the numeric operation selector, looked up in the target
	// session's command table.
	CommandID uint32

	// Params is the raw little-endian scalar parameter area. Handlers
	// consume it sequentially via Parser.
	Params []byte

	// InBuffers are the descriptor-addressed input byte ranges, in
	// declaration order. An absent range is represented as an empty slice.
	InBuffers [][]byte

	// OutCapacities are the caller-declared capacities of the output
	// buffers, in declaration order. Encoding never writes past them.
	OutCapacities []uint32
}

// InBuffer returns the i-th input buffer, or an empty range if the request
// did not declare one. Callers must treat empty as valid data, not as a
// distinct error class.
func (r *Request) InBuffer(i int) []byte {
	if i < 0 || i >= len(r.InBuffers) {
		return nil
	}
	return r.InBuffers[i]
}

// OutCapacity returns the declared capacity of the i-th output buffer,
// or zero if the request did not declare one.
func (r *Request) OutCapacity(i int) uint32 {
	if i < 0 || i >= len(r.OutCapacities) {
		return 0
	}
	return r.OutCapacities[i]
}

// Parser returns a sequential reader over the request's parameter area.
func (r *Request) Parser() *Parser {
	return &Parser{buf: r.Params}
}

// NullTerminated interprets a buffer as a byte sequence terminated at the
// first zero byte. Trailing bytes beyond the terminator are ignored, not
// validated; a buffer without a terminator is taken whole. This tolerates
// the padding transports append after short names.
func NullTerminated(buf []byte) string {
	if i := bytes.IndexByte(buf, 0); i >= 0 {
		return string(buf[:i])
	}
	return string(buf)
}

// ============================================================================
// Parameter Parser
// ============================================================================

// Parser reads fixed-width little-endian scalars sequentially from a
// request parameter area. It is sticky on error: the first short read is
// recorded and every later read returns the zero value. Handlers pop all
// their arguments, then check Err once.
type Parser struct {
	buf []byte
	off int
	err error
}

// take returns the next n bytes, or nil after recording an error if fewer
// remain.
func (p *Parser) take(n int) []byte {
	if p.err != nil {
		return nil
	}
	if p.off+n > len(p.buf) {
		p.err = fmt.Errorf("parameter area exhausted: need %d bytes at offset %d, have %d",
			n, p.off, len(p.buf))
		return nil
	}
	b := p.buf[p.off : p.off+n]
	p.off += n
	return b
}

// U32 pops a 32-bit unsigned scalar.
func (p *Parser) U32() uint32 {
	b := p.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

// U64 pops a 64-bit unsigned scalar.
func (p *Parser) U64() uint64 {
	b := p.take(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

// I64 pops a 64-bit signed scalar. Negative values are preserved so that
// handlers can apply their offset/length preconditions.
func (p *Parser) I64() int64 {
	return int64(p.U64())
}

// U128 pops a 128-bit scalar as a little-endian pair (low, high).
func (p *Parser) U128() (lo, hi uint64) {
	lo = p.U64()
	hi = p.U64()
	return lo, hi
}

// Raw pops n opaque bytes, e.g. a fixed-size descriptor structure.
func (p *Parser) Raw(n int) []byte {
	return p.take(n)
}

// Err reports the first short read, or nil if every pop was satisfied.
func (p *Parser) Err() error {
	return p.err
}
