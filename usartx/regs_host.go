//go:build !stm32f4

package usartx

import "sync/atomic"

// Host shim: register blocks live in ordinary memory so the driver can be
// exercised without hardware. The method set mirrors runtime/volatile.

// Register32 is a 32-bit peripheral register.
type Register32 struct {
	Reg uint32

	// onSet and onGet observe full-word accesses. Tests use them to model
	// silicon side effects such as a DR write clearing TXE.
	onSet func(v uint32)
	onGet func()
}

func (r *Register32) Get() uint32 {
	v := atomic.LoadUint32(&r.Reg)
	if r.onGet != nil {
		r.onGet()
	}
	return v
}

func (r *Register32) Set(v uint32) {
	atomic.StoreUint32(&r.Reg, v)
	if r.onSet != nil {
		r.onSet(v)
	}
}

func (r *Register32) SetBits(v uint32) {
	for {
		old := atomic.LoadUint32(&r.Reg)
		if atomic.CompareAndSwapUint32(&r.Reg, old, old|v) {
			return
		}
	}
}

func (r *Register32) ClearBits(v uint32) {
	for {
		old := atomic.LoadUint32(&r.Reg)
		if atomic.CompareAndSwapUint32(&r.Reg, old, old&^v) {
			return
		}
	}
}

func (r *Register32) HasBits(v uint32) bool { return r.Get()&v != 0 }

// ReplaceBits replaces the bits selected by mask<<pos with value<<pos.
func (r *Register32) ReplaceBits(value, mask uint32, pos uint8) {
	for {
		old := atomic.LoadUint32(&r.Reg)
		nv := old&^(mask<<pos) | (value&mask)<<pos
		if atomic.CompareAndSwapUint32(&r.Reg, old, nv) {
			return
		}
	}
}

// Regs is the USART register block.
type Regs struct {
	SR   Register32
	DR   Register32
	BRR  Register32
	CR1  Register32
	CR2  Register32
	CR3  Register32
	GTPR Register32
}

// reset returns the block to its post-reset value (TXE and TC set) and drops
// any write observers.
func (r *Regs) reset() {
	for _, reg := range []*Register32{&r.SR, &r.DR, &r.BRR, &r.CR1, &r.CR2, &r.CR3, &r.GTPR} {
		reg.onSet = nil
		reg.onGet = nil
		atomic.StoreUint32(&reg.Reg, 0)
	}
	atomic.StoreUint32(&r.SR.Reg, maskTXE|maskTC)
}

// Stand-ins for the fixed peripheral addresses.
var (
	busUSART1 = &Regs{SR: Register32{Reg: maskTXE | maskTC}}
	busUSART2 = &Regs{SR: Register32{Reg: maskTXE | maskTC}}
	busUSART6 = &Regs{SR: Register32{Reg: maskTXE | maskTC}}
)

func enableIRQ(Instance)   {}
func enableClock(Instance) {}

func peripheralClock(Instance) uint32 { return DefaultClockHz }

// clearFlag clears rc_w0 status flags. The atomic AND leaves flags raised
// since the caller last read SR untouched, as a write of ^mask does on silicon.
func clearFlag(r *Regs, mask uint32) { r.SR.ClearBits(mask) }
