// Package pool recycles the scratch buffers records are framed in.
package pool

import (
	"bytes"
	"sync"
)

// BufferPool hands out reset buffers. Buffers that grew past twice the
// pool's size are dropped on Put so one oversized record does not pin memory.
type BufferPool struct {
	size int
	pool sync.Pool
}

func NewBufferPool(size int) *BufferPool {
	bp := &BufferPool{size: size}
	bp.pool.New = func() any {
		return bytes.NewBuffer(make([]byte, 0, size))
	}
	return bp
}

// Get returns an empty buffer able to hold at least n bytes without growing.
func (bp *BufferPool) Get(n int) *bytes.Buffer {
	buf := bp.pool.Get().(*bytes.Buffer)
	buf.Reset()
	buf.Grow(n)
	return buf
}

func (bp *BufferPool) Put(buf *bytes.Buffer) {
	if buf.Cap() > bp.size*2 {
		return
	}
	bp.pool.Put(buf)
}
