// usartx/ringbuffer.go

package usartx

import "sync/atomic"

// A single-producer single-consumer byte queue between the RXNE callback and
// foreground readers. The API follows machine.RingBuffer plus Size.

// Power of two so the free-running indices wrap cleanly.
const bufferSize uint8 = 128

// RingBuffer is a byte ring buffer compatible with TinyGo's machine.RingBuffer.
type RingBuffer struct {
	buf  [bufferSize]byte
	head atomic.Uint32 // written by the producer only
	tail atomic.Uint32 // written by the consumer only
}

// NewRingBuffer returns a new ring buffer.
func NewRingBuffer() *RingBuffer {
	return &RingBuffer{}
}

// Size returns the total capacity of the buffer in bytes.
func (rb *RingBuffer) Size() uint8 {
	return bufferSize
}

// Used returns how many bytes in buffer have been used.
func (rb *RingBuffer) Used() uint8 {
	return uint8(rb.head.Load() - rb.tail.Load())
}

// Put stores a byte in the buffer. If the buffer is already full, it returns false.
func (rb *RingBuffer) Put(val byte) bool {
	h := rb.head.Load()
	if uint8(h-rb.tail.Load()) == bufferSize {
		return false
	}
	rb.buf[uint8(h)%bufferSize] = val // 1) write data
	rb.head.Store(h + 1)              // 2) publish
	return true
}

// Get returns a byte from the buffer. If the buffer is empty, it returns (0, false).
func (rb *RingBuffer) Get() (byte, bool) {
	t := rb.tail.Load()
	if rb.head.Load() == t {
		return 0, false
	}
	v := rb.buf[uint8(t)%bufferSize] // 1) read current element
	rb.tail.Store(t + 1)             // 2) publish consumption
	return v, true
}

// Clear resets the head and tail indices to zero. Only call it while the
// producer is quiet.
func (rb *RingBuffer) Clear() {
	rb.head.Store(0)
	rb.tail.Store(0)
}
