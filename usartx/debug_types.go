//go:build usartxdebug

package usartx

import "sync/atomic"

// Stats holds counters since the last reset.
type Stats struct {
	// ISR-level
	ISRCount uint32 // Dispatch entries
	TxBytes  uint32 // bytes written to DR by any engine
	RxBytes  uint32 // bytes stored from DR by any engine

	// Line errors by kind; composites count once per flag
	ErrOverrun uint32 // ORE
	ErrParity  uint32 // PE
	ErrNoise   uint32 // NE
	ErrFraming uint32 // FE

	// Ring buffer (Port)
	RingPuts    uint32 // successful Put()s
	RingDrops   uint32 // failed Put()s (overflow)
	RingMaxUsed uint32 // high-water mark of ring occupancy

	// Foreground behaviour
	StaleLocks    uint32 // locks forced Idle by the stale-lock limit
	Timeouts      uint32 // blocking timeouts and context expiries
	Waits         uint32 // times a Wait* call had to block
	SpuriousWakes uint32 // notify received but still busy
}

func (u *USART) DebugReset() {
	u.stats = Stats{}
}

func (u *USART) DebugStats() Stats {
	// Return a copy; 32-bit atomic loads are fine on Cortex-M4
	return Stats{
		ISRCount: atomic.LoadUint32(&u.stats.ISRCount),
		TxBytes:  atomic.LoadUint32(&u.stats.TxBytes),
		RxBytes:  atomic.LoadUint32(&u.stats.RxBytes),

		ErrOverrun: atomic.LoadUint32(&u.stats.ErrOverrun),
		ErrParity:  atomic.LoadUint32(&u.stats.ErrParity),
		ErrNoise:   atomic.LoadUint32(&u.stats.ErrNoise),
		ErrFraming: atomic.LoadUint32(&u.stats.ErrFraming),

		RingPuts:    atomic.LoadUint32(&u.stats.RingPuts),
		RingDrops:   atomic.LoadUint32(&u.stats.RingDrops),
		RingMaxUsed: atomic.LoadUint32(&u.stats.RingMaxUsed),

		StaleLocks:    atomic.LoadUint32(&u.stats.StaleLocks),
		Timeouts:      atomic.LoadUint32(&u.stats.Timeouts),
		Waits:         atomic.LoadUint32(&u.stats.Waits),
		SpuriousWakes: atomic.LoadUint32(&u.stats.SpuriousWakes),
	}
}

// RegSnapshot holds the USART registers worth looking at when a transfer
// misbehaves.
type RegSnapshot struct {
	SR  uint32
	BRR uint32
	CR1 uint32
	CR2 uint32
	CR3 uint32
}

func (u *USART) DebugRegs() RegSnapshot {
	return RegSnapshot{
		SR:  u.Bus.SR.Get(),
		BRR: u.Bus.BRR.Get(),
		CR1: u.Bus.CR1.Get(),
		CR2: u.Bus.CR2.Get(),
		CR3: u.Bus.CR3.Get(),
	}
}
