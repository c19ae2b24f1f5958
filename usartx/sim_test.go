//go:build !stm32f4

package usartx

import (
	"sync/atomic"
	"testing"
	"time"
)

// fakeTimer advances by step on every Elapsed call and steps the simulated
// peripheral, so busy-wait loops make deterministic progress.
type fakeTimer struct {
	now     time.Duration
	step    time.Duration
	running bool
	starts  int
	stops   int
	onTick  func()
}

func (f *fakeTimer) Start() {
	f.now = 0
	f.running = true
	f.starts++
}

func (f *fakeTimer) Stop() {
	f.running = false
	f.stops++
}

func (f *fakeTimer) Elapsed() time.Duration {
	if f.running {
		f.now += f.step
		if f.onTick != nil {
			f.onTick()
		}
	}
	return f.now
}

type rxFrame struct {
	b     uint32
	flags uint32 // error bits raised with the byte
	delay int    // steps before the byte lands
}

// sim models one USART: a DR write clears TXE and TC and sets them again
// frameSteps later; queued incoming frames land in DR while RE is set and
// RXNE is clear; a DR read clears RXNE and the error flags.
type sim struct {
	t  *testing.T
	r  *Regs
	id Instance

	frameSteps int
	txLeft     int
	stallTC    bool

	wire     []byte
	incoming []rxFrame

	irq bool // run Dispatch when an enabled source is pending
}

func newSim(t *testing.T) *sim {
	t.Helper()
	s := &sim{t: t, r: busUSART1, id: InstanceUSART1, frameSteps: 2}
	s.r.reset()
	registry = [instanceCount]entry{}
	s.r.DR.onSet = s.onWrite
	s.r.DR.onGet = s.onRead
	t.Cleanup(func() {
		s.r.reset()
		registry = [instanceCount]entry{}
	})
	return s
}

// newUSART returns an initialised descriptor on the simulated bus driven by
// a fake timer stepping 1ms per query.
func newUSART(t *testing.T, s *sim, frame FrameConfig) (*USART, *fakeTimer) {
	t.Helper()
	ft := &fakeTimer{step: time.Millisecond, onTick: s.step}
	u := &USART{Bus: s.r, TimeLimit: 5 * time.Millisecond, Timer: ft}
	if st := u.Initialize(frame, SamplingConfig{}, 9600); st != StatusOK {
		t.Fatalf("Initialize: got %v want ok", st)
	}
	u.Enable()
	return u, ft
}

func (s *sim) onWrite(v uint32) {
	s.wire = append(s.wire, byte(v))
	s.r.SR.ClearBits(maskTXE | maskTC)
	s.txLeft = s.frameSteps
}

func (s *sim) onRead() {
	s.r.SR.ClearBits(maskRXNE | maskAllErrors)
}

// feed queues bytes to arrive one per step.
func (s *sim) feed(bs ...byte) {
	for _, b := range bs {
		s.incoming = append(s.incoming, rxFrame{b: uint32(b)})
	}
}

func (s *sim) feedFrame(f rxFrame) { s.incoming = append(s.incoming, f) }

func (s *sim) step() {
	if s.txLeft > 0 && !s.stallTC {
		s.txLeft--
		if s.txLeft == 0 {
			s.r.SR.SetBits(maskTXE | maskTC)
		}
	}
	if len(s.incoming) > 0 && s.r.CR1.HasBits(maskRE) && atomic.LoadUint32(&s.r.SR.Reg)&maskRXNE == 0 {
		if f := &s.incoming[0]; f.delay > 0 {
			f.delay--
		} else {
			s.incoming = s.incoming[1:]
			atomic.StoreUint32(&s.r.DR.Reg, f.b)
			s.r.SR.SetBits(maskRXNE | f.flags)
		}
	}
	if s.irq && s.pending() {
		Dispatch(s.id)
	}
}

func (s *sim) pending() bool {
	sr := atomic.LoadUint32(&s.r.SR.Reg)
	cr1 := atomic.LoadUint32(&s.r.CR1.Reg)
	return (cr1&maskTCIE != 0 && sr&maskTC != 0) || (cr1&maskRXNEIE != 0 && sr&maskRXNE != 0)
}

// run steps the peripheral n times with interrupts enabled.
func (s *sim) run(n int) {
	s.irq = true
	for i := 0; i < n; i++ {
		s.step()
	}
}
