package usartx

import "time"

// Transmit sends data by polling, one byte at a time, waiting for TC after
// each. It returns StatusUndersize as soon as the terminator is sent with
// bytes still remaining, and TxSize then reports the bytes actually sent.
// When the buffer is exhausted the result is StatusOK if the final byte was
// the terminator, StatusOversize otherwise. The whole call is bounded by
// timeLimit. RX is disabled for the duration and TX afterwards.
func (u *USART) Transmit(data []byte, timeLimit time.Duration, terminator byte) Status {
	if u == nil || u.Bus == nil || len(data) == 0 || timeLimit <= 0 {
		return StatusError
	}
	if u.checkAndAdvanceLock(TX) == Busy {
		return StatusBusy
	}
	tx := &u.tx
	tx.begin(data, terminator)
	u.setCode(CodeNone)

	r := u.Bus
	r.CR1.ClearBits(maskRE)
	r.CR1.SetBits(maskTE)

	tm := u.timer()
	tm.Start()
	for tx.remaining > 0 {
		if tm.Elapsed() >= timeLimit {
			return u.endTransmit(tm, StatusTimeout)
		}
		// The first byte goes out unconditionally.
		if tx.offset != 0 && !r.SR.HasBits(maskTXE) {
			continue
		}
		b := tx.buf[tx.offset]
		tx.remaining--
		tx.offset++
		r.DR.Set(uint32(b))
		for !r.SR.HasBits(maskTC) {
			if tm.Elapsed() >= timeLimit {
				return u.endTransmit(tm, StatusTimeout)
			}
		}
		clearFlag(r, maskTC)
		u.dbgTxByte()

		if b == tx.last && tx.remaining > 0 {
			tx.size = tx.offset
			return u.endTransmit(tm, StatusUndersize)
		}
	}
	if tx.buf[tx.size-1] != tx.last {
		return u.endTransmit(tm, StatusOversize)
	}
	return u.endTransmit(tm, StatusOK)
}

func (u *USART) endTransmit(tm Timer, st Status) Status {
	tm.Stop()
	if st == StatusTimeout {
		u.setCode(CodeTimeout)
		u.dbgTimeout()
	}
	u.Bus.CR1.ClearBits(maskTE)
	return u.tx.finish(st)
}

// Receive fills data by polling RXNE. The first byte must arrive within
// waitTime; after that each byte must follow the previous one within the
// descriptor's TimeLimit. Overrun is reported before parity, noise and
// framing errors, all as StatusError with ErrorCode set. Termination follows
// the same rules as Transmit. With parity enabled the stored bytes are
// masked to seven bits. TX is disabled for the duration and RX afterwards.
func (u *USART) Receive(data []byte, waitTime time.Duration, terminator byte) Status {
	if u == nil || u.Bus == nil || len(data) == 0 || waitTime <= 0 {
		return StatusError
	}
	if u.checkAndAdvanceLock(RX) == Busy {
		return StatusBusy
	}
	rx := &u.rx
	rx.begin(data, terminator)
	u.setCode(CodeNone)

	r := u.Bus
	r.CR1.ClearBits(maskTE)
	r.CR1.SetBits(maskRE)

	gap := u.TimeLimit
	if gap <= 0 {
		gap = DefaultTimeLimit
	}

	tm := u.timer()
	tm.Start()
	for !r.SR.HasBits(maskRXNE) {
		if tm.Elapsed() >= waitTime {
			return u.endReceive(tm, StatusTimeout)
		}
	}
	u.rxDeadline = tm.Elapsed() + gap

	mask := u.dataMask()
	for rx.remaining > 0 {
		if sr := r.SR.Get(); sr&maskRXNE != 0 {
			if sr&maskORE != 0 {
				u.dropErrored(CodeOverrun)
				return u.endReceive(tm, StatusError)
			}
			if sr&maskLineErrors != 0 {
				u.dropErrored(classifyLineErrors(sr))
				return u.endReceive(tm, StatusError)
			}
			b := byte(r.DR.Get()) & mask
			clearFlag(r, maskRXNE)
			rx.buf[rx.offset] = b
			rx.offset++
			rx.remaining--
			u.dbgRxByte()

			if b == rx.last && rx.remaining > 0 {
				rx.size = rx.offset
				return u.endReceive(tm, StatusUndersize)
			}
			u.rxDeadline = tm.Elapsed() + gap
			continue
		}
		if tm.Elapsed() >= u.rxDeadline {
			return u.endReceive(tm, StatusTimeout)
		}
	}
	if rx.buf[rx.size-1] != rx.last {
		return u.endReceive(tm, StatusOversize)
	}
	return u.endReceive(tm, StatusOK)
}

func (u *USART) endReceive(tm Timer, st Status) Status {
	tm.Stop()
	if st == StatusTimeout {
		u.setCode(CodeTimeout)
		u.dbgTimeout()
	}
	u.Bus.CR1.ClearBits(maskRE)
	return u.rx.finish(st)
}

// dropErrored records code and clears the pending error. The silicon clears
// ORE, NE, FE and PE on an SR read followed by a DR read; the explicit clear
// covers register models without that side effect.
func (u *USART) dropErrored(code ErrorCode) {
	r := u.Bus
	_ = r.DR.Get()
	clearFlag(r, maskAllErrors | maskRXNE)
	u.setCode(code)
	u.dbgLineError(code)
}
