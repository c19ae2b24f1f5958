//go:build !stm32f4

package usartx

import (
	"testing"
	"time"
)

func TestDispatch_BothBranchesInOneCall(t *testing.T) {
	s := newSim(t)
	u, _ := newUSART(t, s, FrameConfig{})
	buf := make([]byte, 4)
	u.ReceiveStart(buf, 0)
	u.TransmitStart([]byte("abcd"), 0)

	// TC pending for the first byte and a received byte waiting.
	s.r.SR.SetBits(maskTXE | maskTC)
	s.r.DR.Reg = 'z'
	s.r.SR.SetBits(maskRXNE)

	Dispatch(InstanceUSART1)

	if string(s.wire) != "ab" {
		t.Fatalf("wire %q want %q", s.wire, "ab")
	}
	if u.RxCount() != 1 {
		t.Fatalf("RxCount=%d want 1", u.RxCount())
	}
	if s.r.SR.HasBits(maskTC | maskRXNE) {
		t.Fatalf("SR=%#x: flags not cleared", s.r.SR.Get())
	}
}

func TestDispatch_IgnoresMaskedSources(t *testing.T) {
	s := newSim(t)
	u, _ := newUSART(t, s, FrameConfig{})
	calls := 0
	u.RegisterCallback(ConditionTC, CallbackFunc(func() { calls++ }))

	Dispatch(InstanceUSART1) // TC set after reset, TCIE clear
	if calls != 0 || !s.r.SR.HasBits(maskTC) {
		t.Fatal("dispatch acted on a masked source")
	}
}

func TestDispatch_KeepsFlagRaisedDuringCallback(t *testing.T) {
	s := newSim(t)
	u, _ := newUSART(t, s, FrameConfig{})
	s.r.SR.ClearBits(maskTC)
	// A frame finishing on the wire while the RXNE callback runs.
	u.RegisterCallback(ConditionRXNE, CallbackFunc(func() { s.r.SR.SetBits(maskTC) }))
	u.ReceiveStart(make([]byte, 2), 0)
	s.r.DR.Reg = 'q'
	s.r.SR.SetBits(maskRXNE)

	Dispatch(InstanceUSART1)

	if !s.r.SR.HasBits(maskTC) {
		t.Fatal("clearing RXNE also cleared TC")
	}
	if s.r.SR.HasBits(maskRXNE) {
		t.Fatal("RXNE not cleared")
	}
}

func TestDispatch_Unregistered(t *testing.T) {
	newSim(t)
	Dispatch(InstanceUSART2)
	Dispatch(instanceCount)
	HandleUSART6()
}

func TestCallback_FiresOnCondition(t *testing.T) {
	s := newSim(t)
	u, _ := newUSART(t, s, FrameConfig{})
	var rxne, pe int
	if st := u.RegisterCallback(ConditionRXNE, CallbackFunc(func() { rxne++ })); st != StatusOK {
		t.Fatalf("got %v want ok", st)
	}

	u.ReceiveStart(make([]byte, 3), '\n')
	s.feed('a', 'b', '\n')
	s.run(20)
	if rxne != 3 {
		t.Fatalf("RXNE callback ran %d times want 3", rxne)
	}

	// A later registration replaces the earlier one.
	u.RegisterCallback(ConditionPE, CallbackFunc(func() { pe++ }))
	u.ReceiveStart(make([]byte, 3), '\n')
	s.feed('c')
	s.feedFrame(rxFrame{b: 'd', flags: maskPE})
	s.run(20)
	if rxne != 3 || pe != 1 {
		t.Fatalf("rxne=%d pe=%d want 3 and 1", rxne, pe)
	}
}

func TestCallback_TransmitComplete(t *testing.T) {
	s := newSim(t)
	u, _ := newUSART(t, s, FrameConfig{})
	calls := 0
	u.RegisterCallback(ConditionTC, CallbackFunc(func() { calls++ }))

	u.TransmitStart([]byte("abc"), 'c')
	s.run(50)
	// one TC per byte, including the one that completes the transfer
	if calls != 3 {
		t.Fatalf("TC callback ran %d times want 3", calls)
	}
}

func TestRegisterCallback_Rejects(t *testing.T) {
	s := newSim(t)
	u, _ := newUSART(t, s, FrameConfig{})
	if st := u.RegisterCallback(Condition(12), CallbackFunc(func() {})); st != StatusError {
		t.Fatalf("bad condition: got %v want error", st)
	}
	foreign := &USART{Bus: &Regs{}, TimeLimit: time.Millisecond}
	if st := foreign.RegisterCallback(ConditionTC, nil); st != StatusError {
		t.Fatalf("foreign bus: got %v want error", st)
	}
	var nilUSART *USART
	if st := nilUSART.RegisterCallback(ConditionTC, nil); st != StatusError {
		t.Fatalf("nil descriptor: got %v want error", st)
	}
}

func TestLookup(t *testing.T) {
	newSim(t)
	if Lookup(InstanceUSART6) != nil || Lookup(instanceCount) != nil {
		t.Fatal("unexpected registration")
	}
	if InstanceUSART2.String() != "USART2" {
		t.Fatalf("got %q", InstanceUSART2.String())
	}
}
