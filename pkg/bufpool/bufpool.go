// Package bufpool provides a tiered buffer pool for efficient memory reuse.
//
// Read and directory-enumeration handlers borrow their output buffers from
// the pool instead of allocating per request, reducing GC pressure on a
// dispatch path that runs for every guest I/O call.
//
// Three size classes are pooled; requests above the largest class are
// allocated directly and left for the GC so oversized buffers never pile up
// in the pool.
//
// Usage:
//
//	buf := bufpool.Get(size)
//	defer bufpool.Put(buf)
package bufpool

import (
	"sync"
)

// Default buffer size classes, overridable through NewPool.
const (
	// DefaultSmallSize covers control responses and short reads (4KB)
	DefaultSmallSize = 4 << 10

	// DefaultMediumSize covers typical file reads (64KB)
	DefaultMediumSize = 64 << 10

	// DefaultLargeSize covers bulk reads and entry record batches (1MB)
	DefaultLargeSize = 1 << 20
)

// Config holds the size classes of a custom pool. Zero fields fall back to
// the defaults.
type Config struct {
	SmallSize  int
	MediumSize int
	LargeSize  int
}

// tier is one size class of a pool.
type tier struct {
	size int
	pool sync.Pool
}

// Pool hands out byte slices from the smallest size class that fits the
// request. All operations are safe for concurrent use.
type Pool struct {
	tiers [3]*tier
}

// NewPool creates a buffer pool with the given size classes. A nil config
// yields the default classes.
func NewPool(cfg *Config) *Pool {
	sizes := [3]int{DefaultSmallSize, DefaultMediumSize, DefaultLargeSize}
	if cfg != nil {
		for i, s := range [3]int{cfg.SmallSize, cfg.MediumSize, cfg.LargeSize} {
			if s > 0 {
				sizes[i] = s
			}
		}
	}

	p := &Pool{}
	for i, size := range sizes {
		t := &tier{size: size}
		t.pool.New = func() any {
			buf := make([]byte, t.size)
			return &buf
		}
		p.tiers[i] = t
	}
	return p
}

// Get returns a byte slice of exactly the requested length, backed by a
// pooled buffer of the matching size class. Callers must hand the slice back
// with Put. Requests above the largest class are allocated directly and
// never pooled.
func (p *Pool) Get(size int) []byte {
	for _, t := range p.tiers {
		if size <= t.size {
			buf := *t.pool.Get().(*[]byte)
			return buf[:size]
		}
	}
	return make([]byte, size)
}

// Put returns a buffer to its size class for reuse. The buffer must not be
// used afterwards. Buffers whose capacity matches no class, including the
// directly allocated oversized ones, are left for the GC. Nil is ignored.
func (p *Pool) Put(buf []byte) {
	if buf == nil {
		return
	}

	for _, t := range p.tiers {
		if cap(buf) == t.size {
			full := buf[:t.size]
			t.pool.Put(&full)
			return
		}
	}
}

// =============================================================================
// Global Pool
// =============================================================================

// globalPool backs the package-level Get and Put.
var globalPool = NewPool(nil)

// Get returns a byte slice of the requested length from the global pool.
func Get(size int) []byte {
	return globalPool.Get(size)
}

// Put returns a buffer to the global pool. Always pair with Get.
func Put(buf []byte) {
	globalPool.Put(buf)
}
