// usartx/usart.go

// Package usartx is a TinyGo driver for the STM32F4 USART peripheral. It offers
// blocking transfers that poll the status register against a time budget, and
// interrupt-driven transfers that advance one byte per TC or RXNE interrupt.
// Transfers end when the buffer fills or a terminator byte is seen, and report
// the outcome as a Status. Each direction is guarded by a lock flag rather than
// a semaphore: a caller that finds it busy gets StatusBusy immediately.
package usartx

import (
	"sync/atomic"
	"time"
)

// transfer is the state of one direction of an instance.
type transfer struct {
	buf       []byte
	size      int // recorded size; shrinks to the bytes moved on early termination
	remaining int
	offset    int
	last      byte

	lock   atomic.Uint32 // LockState
	stale  atomic.Uint32
	status atomic.Uint32 // Status of the last completed transfer
	done   chan struct{} // coalesced completion notification
}

// begin claims the direction. The done channel is created before the lock
// turns Busy so a waiter that sees Busy also sees the channel.
func (t *transfer) begin(data []byte, last byte) {
	if t.done == nil {
		t.done = make(chan struct{}, 1)
	}
	t.lock.Store(uint32(Busy))
	t.stale.Store(0)
	t.status.Store(uint32(StatusBusy))
	t.buf = data
	t.size = len(data)
	t.remaining = len(data)
	t.offset = 0
	t.last = last
}

// finish records st, releases the lock and posts a completion notice.
func (t *transfer) finish(st Status) Status {
	t.status.Store(uint32(st))
	t.stale.Store(0)
	t.lock.Store(uint32(Idle))
	select {
	case t.done <- struct{}{}:
	default:
	}
	return st
}

func (t *transfer) busy() bool { return LockState(t.lock.Load()) == Busy }

// USART is the descriptor of one peripheral instance.
type USART struct {
	Bus *Regs

	// TimeLimit is the inter-byte budget of blocking receive. Initialize
	// rejects a zero value.
	TimeLimit time.Duration

	// ClockHz is the peripheral clock used for the baud divisor. Zero selects
	// the current clock of the instance's APB bus.
	ClockHz uint32

	// Timer drives blocking time budgets. Nil selects a ClockTimer.
	Timer Timer

	id    Instance
	baud  uint32
	tx    transfer
	rx    transfer
	code  atomic.Uint32 // ErrorCode
	clock ClockTimer

	rxDeadline time.Duration

	stats Stats
}

// Pre-declared descriptors for the three peripherals.
var (
	USART1 = &_USART1
	USART2 = &_USART2
	USART6 = &_USART6

	_USART1 = USART{Bus: busUSART1, TimeLimit: DefaultTimeLimit, id: InstanceUSART1}
	_USART2 = USART{Bus: busUSART2, TimeLimit: DefaultTimeLimit, id: InstanceUSART2}
	_USART6 = USART{Bus: busUSART6, TimeLimit: DefaultTimeLimit, id: InstanceUSART6}
)

func init() {
	for _, u := range []*USART{USART1, USART2, USART6} {
		u.tx.done = make(chan struct{}, 1)
		u.rx.done = make(chan struct{}, 1)
	}
}

func (u *USART) timer() Timer {
	if u.Timer != nil {
		return u.Timer
	}
	return &u.clock
}

func (u *USART) transfer(dir Direction) *transfer {
	if dir == TX {
		return &u.tx
	}
	return &u.rx
}

func (u *USART) setCode(c ErrorCode) { u.code.Store(uint32(c)) }

// Instance reports which peripheral the descriptor was initialised for.
func (u *USART) Instance() Instance { return u.id }

// BaudRate returns the rate requested at the last successful Initialize.
func (u *USART) BaudRate() uint32 { return u.baud }

// ErrorCode returns the fault category recorded by the last transfer.
func (u *USART) ErrorCode() ErrorCode { return ErrorCode(u.code.Load()) }

// TxSize returns the recorded size of the current or last transmit.
func (u *USART) TxSize() int { return u.tx.size }

// RxSize returns the recorded size of the current or last receive.
func (u *USART) RxSize() int { return u.rx.size }

func (u *USART) TxRemaining() int { return u.tx.remaining }
func (u *USART) RxRemaining() int { return u.rx.remaining }

// RxCount returns how many bytes the current or last receive stored.
func (u *USART) RxCount() int { return u.rx.offset }

func (u *USART) TxLock() LockState { return LockState(u.tx.lock.Load()) }
func (u *USART) RxLock() LockState { return LockState(u.rx.lock.Load()) }

// TxStatus returns the outcome of the last transmit, or StatusBusy while one
// is in flight.
func (u *USART) TxStatus() Status { return Status(u.tx.status.Load()) }

// RxStatus is the receive counterpart of TxStatus.
func (u *USART) RxStatus() Status { return Status(u.rx.status.Load()) }

// dataMask selects the data bits of DR. With parity enabled the parity bit
// occupies bit 7 of an 8-bit frame.
func (u *USART) dataMask() byte {
	if u.Bus.CR1.HasBits(maskPCE) {
		return 0x7F
	}
	return 0xFF
}
