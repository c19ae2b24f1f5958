package usartx

import "context"

// TxDone exposes a coalesced completion signal for transmits, suitable for
// select. Callers must re-check TxLock after waking. It is nil on a
// descriptor that has never started a transfer.
func (u *USART) TxDone() <-chan struct{} { return u.tx.done }

// RxDone is the receive counterpart of TxDone.
func (u *USART) RxDone() <-chan struct{} { return u.rx.done }

// WaitTransmit blocks until no transmit is in flight or ctx is done, and
// returns the Status of the last completed transmit.
func (u *USART) WaitTransmit(ctx context.Context) (Status, error) {
	return u.wait(ctx, &u.tx)
}

// WaitReceive blocks until no receive is in flight or ctx is done, and
// returns the Status of the last completed receive.
func (u *USART) WaitReceive(ctx context.Context) (Status, error) {
	return u.wait(ctx, &u.rx)
}

func (u *USART) wait(ctx context.Context, t *transfer) (Status, error) {
	for {
		if !t.busy() {
			return Status(t.status.Load()), nil
		}
		u.dbgWait()
		select {
		case <-t.done:
			// re-check; a coalesced notice may predate the current transfer
			if t.busy() {
				u.dbgSpuriousWake()
			}
		case <-ctx.Done():
			u.dbgTimeout()
			return StatusBusy, ctx.Err()
		}
	}
}
