package usartx

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"tinygo.org/x/drivers"
)

// Port adapts a USART to drivers.UART so sensor drivers can run over it.
// Reads come from a ring buffer fed by a chain of one-byte interrupt-driven
// receives; writes go out through blocking Transmit. Port takes over the
// instance's callback slot while listening.
type Port struct {
	USART *USART

	// Timeout bounds each Write. Zero derives a budget from the baud rate.
	Timeout time.Duration

	Buffer *RingBuffer

	slot      [1]byte
	listening atomic.Bool
	notify    chan struct{} // wake-up hint for blocking reads
}

var _ drivers.UART = (*Port)(nil)

// NewPort returns a Port over u. Call Listen to start receiving.
func NewPort(u *USART) *Port {
	return &Port{
		USART:  u,
		Buffer: NewRingBuffer(),
		notify: make(chan struct{}, 1),
	}
}

// Listen registers the receive callback and arms the first receive.
func (p *Port) Listen() error {
	u := p.USART
	if st := u.RegisterCallback(ConditionRXNE, CallbackFunc(p.onReceive)); st != StatusOK {
		return fmt.Errorf("usartx: listen: %w", st.Err())
	}
	p.listening.Store(true)
	if st := u.ReceiveStart(p.slot[:], 0); st != StatusOK {
		p.listening.Store(false)
		return fmt.Errorf("usartx: listen on %s: %w", u.id, st.Err())
	}
	logDebug(ComponentPort, "listening", "instance", u.id.String())
	return nil
}

// Close stops receiving and releases the callback slot. Buffered bytes stay
// readable.
func (p *Port) Close() error {
	if !p.listening.Swap(false) {
		return nil
	}
	u := p.USART
	u.Abort(RX)
	u.RegisterCallback(ConditionRXNE, nil)
	logDebug(ComponentPort, "closed", "instance", u.id.String())
	return nil
}

// onReceive runs in interrupt context after each one-byte receive.
func (p *Port) onReceive() {
	if !p.listening.Load() {
		return
	}
	u := p.USART
	if u.rx.busy() {
		return
	}
	switch u.RxStatus() {
	case StatusOK, StatusOversize:
		ok := p.Buffer.Put(p.slot[0])
		u.dbgRing(ok, p.Buffer.Used())
		select {
		case p.notify <- struct{}{}:
		default:
		}
	}
	u.armReceive(p.slot[:], 0)
}

// Read copies buffered bytes into b. Like machine.UART it never blocks and
// returns 0, nil when nothing is buffered.
func (p *Port) Read(b []byte) (int, error) {
	n := 0
	for n < len(b) {
		c, ok := p.Buffer.Get()
		if !ok {
			break
		}
		b[n] = c
		n++
	}
	return n, nil
}

// Buffered returns the number of bytes waiting in the ring buffer.
func (p *Port) Buffered() int { return int(p.Buffer.Used()) }

// Readable exposes a coalesced readiness signal suitable for select.
func (p *Port) Readable() <-chan struct{} { return p.notify }

// WaitReadable blocks until data is available or ctx is done.
func (p *Port) WaitReadable(ctx context.Context) error {
	for {
		if p.Buffered() > 0 {
			return nil
		}
		p.USART.dbgWait()
		select {
		case <-p.notify:
			if p.Buffered() == 0 {
				p.USART.dbgSpuriousWake()
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// ReadBlocking blocks until at least one byte is available, then reads up
// to len(b).
func (p *Port) ReadBlocking(ctx context.Context, b []byte) (int, error) {
	for {
		if n, _ := p.Read(b); n > 0 || len(b) == 0 {
			return n, nil
		}
		if err := p.WaitReadable(ctx); err != nil {
			return 0, err
		}
	}
}

// Write sends b with blocking Transmit. Each chunk uses its own final byte as
// terminator, so an early occurrence of that value only splits the write.
func (p *Port) Write(b []byte) (int, error) {
	u := p.USART
	limit := p.writeBudget(len(b))
	sent := 0
	defer p.resumeReceive()
	for sent < len(b) {
		chunk := b[sent:]
		switch st := u.Transmit(chunk, limit, chunk[len(chunk)-1]); st {
		case StatusOK:
			sent += len(chunk)
		case StatusUndersize:
			sent += u.TxSize()
		default:
			return sent, fmt.Errorf("usartx: write %d bytes on %s: %w", len(b), u.id, st.Err())
		}
	}
	return sent, nil
}

// WriteByte writes a single byte.
func (p *Port) WriteByte(c byte) error {
	_, err := p.Write([]byte{c})
	return err
}

// writeBudget allows twice the time of n 12-bit frames plus the descriptor
// slack, about two character times per byte.
func (p *Port) writeBudget(n int) time.Duration {
	if p.Timeout > 0 {
		return p.Timeout
	}
	baud := p.USART.baud
	if baud == 0 {
		baud = DefaultBaudRate
	}
	perByte := 12 * time.Second / time.Duration(baud)
	return 2*time.Duration(n)*perByte + DefaultTimeLimit
}

// resumeReceive re-enables RE after a blocking transmit turned it off.
func (p *Port) resumeReceive() {
	if p.listening.Load() {
		p.USART.Bus.CR1.SetBits(maskRE)
	}
}
