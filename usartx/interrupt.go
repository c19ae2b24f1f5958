package usartx

// TransmitStart begins an interrupt-driven transmit. The first byte is
// written immediately and each following TC interrupt writes the next one.
// A single-byte buffer, or a first byte equal to the terminator, completes
// inline and the final Status is returned directly. Otherwise StatusOK means
// the transfer is running; its outcome is later available from TxStatus or
// WaitTransmit. data must stay untouched until TxLock returns to Idle.
func (u *USART) TransmitStart(data []byte, terminator byte) Status {
	if u == nil || u.Bus == nil || len(data) == 0 {
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
	clearFlag(r, maskTC)
	r.CR1.SetBits(maskTCIE)

	b := tx.buf[0]
	tx.remaining--
	tx.offset++
	r.DR.Set(uint32(b))
	u.dbgTxByte()

	st := StatusOK
	switch {
	case tx.remaining == 0:
		r.CR1.ClearBits(maskTCIE)
		st = StatusOversize
		if b == tx.last {
			st = StatusOK
		}
		tx.finish(st)
	case b == tx.last:
		r.CR1.ClearBits(maskTCIE)
		tx.size = tx.offset
		st = tx.finish(StatusUndersize)
	}
	r.CR1.SetBits(maskRE)
	return st
}

// transmitHandler runs on TC with TCIE set. It writes the next byte, or, once
// the final byte has left the shift register, completes the transfer. RXNEIE
// is masked while the descriptor is updated and restored afterwards.
func (u *USART) transmitHandler() Status {
	r := u.Bus
	rxie := r.CR1.HasBits(maskRXNEIE)
	r.CR1.ClearBits(maskRXNEIE)
	defer func() {
		if rxie {
			r.CR1.SetBits(maskRXNEIE)
		}
	}()

	if !r.SR.HasBits(maskTXE) {
		return StatusBusy
	}
	tx := &u.tx
	if !tx.busy() {
		r.CR1.ClearBits(maskTCIE)
		return StatusError
	}

	if tx.remaining == 0 {
		r.CR1.ClearBits(maskTCIE)
		if tx.buf[tx.size-1] != tx.last {
			return tx.finish(StatusOversize)
		}
		return tx.finish(StatusOK)
	}

	b := tx.buf[tx.offset]
	tx.remaining--
	tx.offset++
	r.DR.Set(uint32(b))
	tx.stale.Store(0)
	u.dbgTxByte()

	if b == tx.last && tx.remaining > 0 {
		r.CR1.ClearBits(maskTCIE)
		tx.size = tx.offset
		return tx.finish(StatusUndersize)
	}
	return StatusOK
}

// ReceiveStart arms an interrupt-driven receive into data and returns at
// once. Bytes are stored by the RXNE interrupt; the outcome is later
// available from RxStatus or WaitReceive. data must stay untouched until
// RxLock returns to Idle.
func (u *USART) ReceiveStart(data []byte, terminator byte) Status {
	if u == nil || u.Bus == nil || len(data) == 0 {
		return StatusError
	}
	if u.checkAndAdvanceLock(RX) == Busy {
		return StatusBusy
	}
	u.armReceive(data, terminator)
	return StatusOK
}

// armReceive starts a receive without consulting the lock. It is safe from
// interrupt context once the previous receive has completed.
func (u *USART) armReceive(data []byte, terminator byte) {
	rx := &u.rx
	rx.begin(data, terminator)
	u.setCode(CodeNone)

	r := u.Bus
	r.CR1.SetBits(maskRE)
	// SR then DR clears a stale byte and any overrun it left behind.
	_ = r.SR.Get()
	_ = r.DR.Get()
	clearFlag(r, maskRXNE)
	r.CR1.SetBits(maskRXNEIE)
}

// receiveHandler runs on RXNE with RXNEIE set. It checks overrun, then
// parity, noise and framing, then stores one byte. TCIE is masked while the
// descriptor is updated and restored afterwards.
func (u *USART) receiveHandler() Status {
	r := u.Bus
	tcie := r.CR1.HasBits(maskTCIE)
	r.CR1.ClearBits(maskTCIE)
	defer func() {
		if tcie {
			r.CR1.SetBits(maskTCIE)
		}
	}()

	sr := r.SR.Get()
	if sr&maskRXNE == 0 {
		return StatusBusy
	}
	rx := &u.rx
	if !rx.busy() {
		_ = r.DR.Get()
		r.CR1.ClearBits(maskRXNEIE)
		return StatusError
	}
	if sr&maskORE != 0 {
		u.dropErrored(CodeOverrun)
		r.CR1.ClearBits(maskRXNEIE)
		return rx.finish(StatusError)
	}
	if sr&maskLineErrors != 0 {
		u.dropErrored(classifyLineErrors(sr))
		r.CR1.ClearBits(maskRXNEIE)
		return rx.finish(StatusError)
	}

	b := byte(r.DR.Get()) & u.dataMask()
	rx.buf[rx.offset] = b
	rx.offset++
	rx.remaining--
	rx.stale.Store(0)
	u.dbgRxByte()

	switch {
	case rx.remaining == 0:
		r.CR1.ClearBits(maskRXNEIE)
		if b != rx.last {
			return rx.finish(StatusOversize)
		}
		return rx.finish(StatusOK)
	case b == rx.last:
		r.CR1.ClearBits(maskRXNEIE)
		rx.size = rx.offset
		return rx.finish(StatusUndersize)
	}
	return StatusOK
}

// Abort cancels an interrupt-driven transfer on dir by masking its interrupt
// source. A transfer in flight completes with StatusError.
func (u *USART) Abort(dir Direction) Status {
	if u == nil || u.Bus == nil {
		return StatusError
	}
	t := u.transfer(dir)
	if dir == TX {
		u.Bus.CR1.ClearBits(maskTCIE)
	} else {
		u.Bus.CR1.ClearBits(maskRXNEIE)
	}
	if t.busy() {
		t.finish(StatusError)
	}
	return StatusOK
}
