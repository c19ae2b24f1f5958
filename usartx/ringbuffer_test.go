//go:build !stm32f4

package usartx

import "testing"

func TestRingBuffer_FIFO(t *testing.T) {
	rb := NewRingBuffer()
	if _, ok := rb.Get(); ok {
		t.Fatal("Get on empty buffer succeeded")
	}
	for _, b := range []byte("abc") {
		if !rb.Put(b) {
			t.Fatalf("Put(%q) failed", b)
		}
	}
	if rb.Used() != 3 {
		t.Fatalf("Used=%d want 3", rb.Used())
	}
	for _, want := range []byte("abc") {
		if got, ok := rb.Get(); !ok || got != want {
			t.Fatalf("Get=%q,%v want %q", got, ok, want)
		}
	}
}

func TestRingBuffer_FullAndWrap(t *testing.T) {
	rb := NewRingBuffer()
	for i := 0; i < int(rb.Size()); i++ {
		if !rb.Put(byte(i)) {
			t.Fatalf("Put %d failed before full", i)
		}
	}
	if rb.Put(0xFF) {
		t.Fatal("Put on full buffer succeeded")
	}
	if rb.Used() != rb.Size() {
		t.Fatalf("Used=%d want %d", rb.Used(), rb.Size())
	}

	// Drain half and refill across the wrap point.
	for i := 0; i < 64; i++ {
		rb.Get()
	}
	for i := 0; i < 64; i++ {
		if !rb.Put(byte(200 + i%50)) {
			t.Fatalf("refill %d failed", i)
		}
	}
	if got, _ := rb.Get(); got != 64 {
		t.Fatalf("got %d want 64", got)
	}

	rb.Clear()
	if rb.Used() != 0 {
		t.Fatalf("Used=%d after Clear", rb.Used())
	}
}
