// Package pool holds reusable copy buffers for storage writes.
package pool

import (
	"io"
	"sync"
)

// BufferSize size of each pooled copy buffer
const BufferSize = 256 * 1024

var buffers = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, BufferSize)
		return &buf
	},
}

// Copy is io.CopyBuffer with a pooled buffer.
func Copy(dst io.Writer, src io.Reader) (int64, error) {
	bufPtr := buffers.Get().(*[]byte)
	defer buffers.Put(bufPtr)
	return io.CopyBuffer(dst, src, *bufPtr)
}
