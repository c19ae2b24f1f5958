//go:build usartxdebug

package usartx

import "sync/atomic"

func (u *USART) dbgISR()    { atomic.AddUint32(&u.stats.ISRCount, 1) }
func (u *USART) dbgTxByte() { atomic.AddUint32(&u.stats.TxBytes, 1) }
func (u *USART) dbgRxByte() { atomic.AddUint32(&u.stats.RxBytes, 1) }

func (u *USART) dbgLineError(code ErrorCode) {
	switch code {
	case CodeOverrun:
		atomic.AddUint32(&u.stats.ErrOverrun, 1)
		return
	case CodeParity, CodeParityNoise, CodeParityFraming, CodeParityNoiseFraming:
		atomic.AddUint32(&u.stats.ErrParity, 1)
	}
	switch code {
	case CodeNoise, CodeParityNoise, CodeNoiseFraming, CodeParityNoiseFraming:
		atomic.AddUint32(&u.stats.ErrNoise, 1)
	}
	switch code {
	case CodeFraming, CodeNoiseFraming, CodeParityFraming, CodeParityNoiseFraming:
		atomic.AddUint32(&u.stats.ErrFraming, 1)
	}
}

// Called per Port byte with the Put() outcome and resulting occupancy.
func (u *USART) dbgRing(putOK bool, used uint8) {
	if !putOK {
		atomic.AddUint32(&u.stats.RingDrops, 1)
		return
	}
	atomic.AddUint32(&u.stats.RingPuts, 1)
	// track high-water mark
	for {
		max := atomic.LoadUint32(&u.stats.RingMaxUsed)
		if uint32(used) <= max {
			break
		}
		if atomic.CompareAndSwapUint32(&u.stats.RingMaxUsed, max, uint32(used)) {
			break
		}
	}
}

func (u *USART) dbgStaleLock()    { atomic.AddUint32(&u.stats.StaleLocks, 1) }
func (u *USART) dbgTimeout()      { atomic.AddUint32(&u.stats.Timeouts, 1) }
func (u *USART) dbgWait()         { atomic.AddUint32(&u.stats.Waits, 1) }
func (u *USART) dbgSpuriousWake() { atomic.AddUint32(&u.stats.SpuriousWakes, 1) }
