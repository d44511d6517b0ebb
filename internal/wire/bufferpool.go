package wire

import "sync"

// BufferPool recycles the per-chunk payload buffers used while a packet
// is in flight, avoiding one allocation per chunk on hot send/receive
// paths. Grounded on the same sync.Pool-backed pattern used for TCP
// read/write buffers elsewhere in this codebase's lineage.
type BufferPool struct {
	pool sync.Pool
}

// NewBufferPool returns a pool whose buffers start at defaultSize bytes.
func NewBufferPool(defaultSize int) *BufferPool {
	return &BufferPool{
		pool: sync.Pool{
			New: func() any {
				return make([]byte, defaultSize)
			},
		},
	}
}

// Get returns a buffer of exactly size bytes, reusing pooled capacity
// when it is large enough.
func (p *BufferPool) Get(size int) []byte {
	buf := p.pool.Get().([]byte)
	if cap(buf) < size {
		return make([]byte, size)
	}
	return buf[:size]
}

// Put returns buf to the pool for reuse.
func (p *BufferPool) Put(buf []byte) {
	p.pool.Put(buf[:cap(buf)])
}
