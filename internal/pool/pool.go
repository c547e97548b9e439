// Package pool implements a size-keyed pool of reusable float32 buffers.
//
// Every operation output and gradient buffer in the engine is borrowed
// from a pool, which amortizes allocation cost across repeated
// operations. Buffers are keyed by exact element count; at most
// maxEntriesPerSize entries are retained per size, after which Acquire
// degrades to plain untracked allocation. Pool exhaustion is therefore
// never an error.
package pool

import (
	"sync"
	"unsafe"
)

// maxEntriesPerSize caps how many buffers are retained per distinct size.
const maxEntriesPerSize = 100

// entry is one pooled buffer with its in-use flag. Entries are owned
// exclusively by the pool; tensors borrow the buffer but never its
// lifetime.
type entry struct {
	buf   []float32
	size  int
	inUse bool
}

// Stats reports pool occupancy for diagnostics.
type Stats struct {
	TotalBuffers int
	InUse        int
	Available    int
}

// Pool is a size-keyed buffer allocator. The zero value is not usable;
// construct with New. A Pool is safe for concurrent use.
type Pool struct {
	mu      sync.Mutex
	entries map[int][]*entry
	index   map[*float32]*entry // backing-array pointer -> entry
	scopes  [][]*entry          // acquisitions per active Scoped call
	enabled bool
}

// New creates an empty pool with pooling enabled.
func New() *Pool {
	return &Pool{
		entries: make(map[int][]*entry),
		index:   make(map[*float32]*entry),
		enabled: true,
	}
}

// Acquire returns a zero-filled buffer of exactly size elements,
// reusing a free pooled buffer of that size when one exists. When the
// per-size cap is reached the buffer is allocated but not tracked.
func (p *Pool) Acquire(size int) []float32 {
	if size == 0 {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.enabled {
		return make([]float32, size)
	}

	for _, e := range p.entries[size] {
		if !e.inUse {
			e.inUse = true
			clear(e.buf)
			p.noteScoped(e)
			return e.buf
		}
	}

	buf := make([]float32, size)
	if len(p.entries[size]) < maxEntriesPerSize {
		e := &entry{buf: buf, size: size, inUse: true}
		p.entries[size] = append(p.entries[size], e)
		p.index[unsafe.SliceData(buf)] = e
		p.noteScoped(e)
	}
	return buf
}

// Release marks the entry owning buf as free for reuse. Buffers that
// were handed out untracked (past the cap, or while pooling was
// disabled) are ignored.
func (p *Pool) Release(buf []float32) {
	if len(buf) == 0 {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if e, ok := p.index[unsafe.SliceData(buf)]; ok {
		e.inUse = false
	}
}

// Clear drops every pooled entry, tracked buffers included. Buffers
// already handed out keep working; they are simply no longer tracked.
func (p *Pool) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.entries = make(map[int][]*entry)
	p.index = make(map[*float32]*entry)
	p.scopes = nil
}

// Stats returns total/in-use/available buffer counts across all sizes.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	var s Stats
	for _, list := range p.entries {
		for _, e := range list {
			s.TotalBuffers++
			if e.inUse {
				s.InUse++
			} else {
				s.Available++
			}
		}
	}
	return s
}

// SetEnabled toggles pooling. While disabled, Acquire returns plain
// untracked allocations and Release is a no-op; existing entries are
// kept and resume service once re-enabled.
func (p *Pool) SetEnabled(enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enabled = enabled
}

// Scoped runs fn and, on every exit path (normal return or error),
// releases the pool entries acquired during fn. Only that scope's
// acquisitions are released; buffers held by other live scopes are
// untouched.
func (p *Pool) Scoped(fn func() error) error {
	p.mu.Lock()
	p.scopes = append(p.scopes, nil)
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		last := len(p.scopes) - 1
		for _, e := range p.scopes[last] {
			e.inUse = false
		}
		p.scopes = p.scopes[:last]
	}()

	return fn()
}

// noteScoped records an acquisition against the innermost active scope.
// Caller holds p.mu.
func (p *Pool) noteScoped(e *entry) {
	if len(p.scopes) == 0 {
		return
	}
	last := len(p.scopes) - 1
	p.scopes[last] = append(p.scopes[last], e)
}

// Default is the process-wide pool backing the package-level surface.
// Tests that need isolation construct their own Pool with New.
var Default = New()

// Acquire returns a zero-filled buffer from the default pool.
func Acquire(size int) []float32 {
	return Default.Acquire(size)
}

// Release returns a buffer to the default pool.
func Release(buf []float32) {
	Default.Release(buf)
}

// Clear drops every entry in the default pool.
func Clear() {
	Default.Clear()
}

// GetStats returns occupancy counts for the default pool.
func GetStats() Stats {
	return Default.Stats()
}

// SetEnabled toggles pooling on the default pool.
func SetEnabled(enabled bool) {
	Default.SetEnabled(enabled)
}

// Scoped runs fn against the default pool, releasing that scope's
// acquisitions on exit.
func Scoped(fn func() error) error {
	return Default.Scoped(fn)
}
