//go:build stm32f4

package main

import (
	"bytes"
	"context"
	"time"

	"machine"

	"github.com/jangala-dev/tinygo-usartx/usartx"
)

// Loopback self-test for USART1. Wire PA9 (TX) to PA10 (RX) before flashing.

var (
	u     = usartx.USART1
	txPin = machine.PA9
	rxPin = machine.PA10
	baud  = uint32(115200)
)

func ledBlink(times int, on time.Duration) {
	for i := 0; i < times; i++ {
		machine.LED.High()
		time.Sleep(on)
		machine.LED.Low()
		time.Sleep(on)
	}
}

// loopback arms an interrupt receive, then transmits msg and waits for both
// directions to settle.
func loopback(msg []byte, rxCap int, term byte) ([]byte, usartx.Status, usartx.Status) {
	buf := make([]byte, rxCap)
	if st := u.ReceiveStart(buf, term); st != usartx.StatusOK {
		return nil, usartx.StatusError, st
	}
	if st := u.TransmitStart(msg, term); st != usartx.StatusOK {
		u.Abort(usartx.RX)
		return nil, st, usartx.StatusError
	}
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	txst, _ := u.WaitTransmit(ctx)
	rxst, err := u.WaitReceive(ctx)
	if err != nil {
		u.Abort(usartx.RX)
		return buf[:u.RxCount()], txst, usartx.StatusTimeout
	}
	return buf[:u.RxSize()], txst, rxst
}

func main() {
	// Give the monitor time to attach.
	time.Sleep(3 * time.Second)

	println("usartx self-test starting")

	u.ConfigurePins(txPin, rxPin)
	if err := u.Configure(usartx.Config{BaudRate: baud}); err != nil {
		println("Configure failed:", err.Error())
		for {
			ledBlink(1, 500*time.Millisecond)
		}
	}
	machine.LED.Configure(machine.PinConfig{Mode: machine.PinOutput})

	pass, fail := 0, 0
	defer func() {
		println("")
		println("Summary")
		println("  passed =", pass)
		println("  failed =", fail)
		if fail == 0 {
			ledBlink(3, 120*time.Millisecond)
		} else {
			for {
				ledBlink(1, 600*time.Millisecond)
				time.Sleep(800 * time.Millisecond)
			}
		}
	}()

	run := func(name string, f func() string) {
		println("")
		println("[Test]", name)
		if msg := f(); msg == "" {
			println("  PASS")
			pass++
		} else {
			println("  FAIL:", msg)
			fail++
		}
	}

	run("blocking: terminator mid-buffer is undersize", func() string {
		st := u.Transmit([]byte("AB\nCD"), 50*time.Millisecond, '\n')
		if st != usartx.StatusUndersize {
			return "status " + st.String()
		}
		if u.TxSize() != 3 {
			return "TxSize not 3"
		}
		return ""
	})

	run("blocking: terminator absent is oversize", func() string {
		if st := u.Transmit([]byte("ABC"), 50*time.Millisecond, '\n'); st != usartx.StatusOversize {
			return "status " + st.String()
		}
		return ""
	})

	run("blocking: quiet line times out", func() string {
		buf := make([]byte, 4)
		st := u.Receive(buf, 20*time.Millisecond, '\n')
		if st != usartx.StatusTimeout || u.ErrorCode() != usartx.CodeTimeout {
			return "status " + st.String() + " code " + u.ErrorCode().String()
		}
		return ""
	})

	run("interrupt: loopback exact fit", func() string {
		msg := []byte("hello, usartx\n")
		got, txst, rxst := loopback(msg, len(msg), '\n')
		if txst != usartx.StatusOK || rxst != usartx.StatusOK {
			return "tx " + txst.String() + " rx " + rxst.String()
		}
		if !bytes.Equal(got, msg) {
			return "payload mismatch"
		}
		return ""
	})

	run("interrupt: early terminator on receive", func() string {
		msg := []byte("ok\n")
		got, _, rxst := loopback(msg, 16, '\n')
		if rxst != usartx.StatusUndersize || string(got) != "ok\n" {
			return "rx " + rxst.String()
		}
		return ""
	})

	run("interrupt: buffer fills before terminator", func() string {
		msg := []byte("abcdefgh")
		got, txst, rxst := loopback(msg, 4, '\n')
		if txst != usartx.StatusOversize || rxst != usartx.StatusOversize || string(got) != "abcd" {
			return "tx " + txst.String() + " rx " + rxst.String()
		}
		return ""
	})

	run("lock: second start reports busy", func() string {
		long := bytes.Repeat([]byte{'x'}, 64)
		if st := u.TransmitStart(long, 0); st != usartx.StatusOK {
			return "first start " + st.String()
		}
		st := u.TransmitStart([]byte("y"), 'y')
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()
		u.WaitTransmit(ctx)
		if st != usartx.StatusBusy {
			return "second start " + st.String()
		}
		return ""
	})

	run("port: write then listen", func() string {
		p := usartx.NewPort(u)
		if err := p.Listen(); err != nil {
			return "listen: " + err.Error()
		}
		defer p.Close()
		// A blocking write turns RE off, so loop back with an interrupt transmit.
		msg := []byte("port\n")
		if st := u.TransmitStart(msg, '\n'); st != usartx.StatusOK {
			return "transmit " + st.String()
		}
		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()
		got := make([]byte, 0, len(msg))
		tmp := make([]byte, 8)
		for len(got) < len(msg) {
			n, err := p.ReadBlocking(ctx, tmp)
			if err != nil {
				return "read: " + err.Error()
			}
			got = append(got, tmp[:n]...)
		}
		if !bytes.Equal(got, msg) {
			return "payload mismatch"
		}
		return ""
	})
}
