package usartx

// Dispatch services a pending interrupt of instance id. The TC and RXNE
// branches are independent and both may run in one call. Each runs its
// handler, then the registered callback if its condition bit was observed
// in SR on entry to the branch or after the handler, then clears the flag.
// Sampling on entry lets an RXNE condition fire even though the handler's DR
// read clears RXNE on silicon.
func Dispatch(id Instance) {
	if id >= instanceCount {
		return
	}
	e := &registry[id]
	u := e.usart
	if u == nil || u.Bus == nil {
		return
	}
	r := u.Bus
	u.dbgISR()

	if sr := r.SR.Get(); r.CR1.HasBits(maskTCIE) && sr&maskTC != 0 {
		u.transmitHandler()
		e.fire(sr | r.SR.Get())
		clearFlag(r, maskTC)
	}
	if sr := r.SR.Get(); r.CR1.HasBits(maskRXNEIE) && sr&maskRXNE != 0 {
		u.receiveHandler()
		e.fire(sr | r.SR.Get())
		clearFlag(r, maskRXNE)
	}
}

// HandleUSART1 is the interrupt entry point of USART1.
func HandleUSART1() { Dispatch(InstanceUSART1) }

// HandleUSART2 is the interrupt entry point of USART2.
func HandleUSART2() { Dispatch(InstanceUSART2) }

// HandleUSART6 is the interrupt entry point of USART6.
func HandleUSART6() { Dispatch(InstanceUSART6) }
