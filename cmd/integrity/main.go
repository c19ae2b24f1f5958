//go:build stm32f4

// cmd/integrity/main.go
// Cross-USART integrity test for STM32F4 using github.com/jangala-dev/tinygo-usartx/usartx
// Wiring:
//   USART1 TX=PA9 -> USART6 RX=PC7
// USART1 sends with the interrupt engine, USART6 receives through a Port.

package main

import (
	"context"
	"time"

	"machine"

	"github.com/jangala-dev/tinygo-usartx/usartx"
)

/*** Tunables ***/
const (
	baud           = 115200
	totalBytes     = 16 * 1024
	timeoutPerTest = 10 * time.Second
	warmupDelay    = 2 * time.Second

	sendChunk     = 48 // bytes per TransmitStart
	recvChunk     = 64
	contextRadius = 16 // surrounding bytes shown on mismatch
)

/*** Patterns (deterministic) ***/
func patternA(i int) byte { return byte((i*31 + 0x55) & 0xFF) }
func patternB(i int) byte { return byte((i*17 + 0xA6) & 0xFF) }

func main() {
	time.Sleep(warmupDelay)
	println("usartx integrity test (STM32F4)")
	println("baud =", baud, "  bytes =", totalBytes)

	tx, rx := usartx.USART1, usartx.USART6
	tx.ConfigurePins(machine.PA9, usartx.NoPin)
	rx.ConfigurePins(usartx.NoPin, machine.PC7)
	_ = tx.Configure(usartx.Config{BaudRate: baud})
	_ = rx.Configure(usartx.Config{BaudRate: baud})

	port := usartx.NewPort(rx)
	if err := port.Listen(); err != nil {
		println("listen:", err.Error())
		return
	}
	machine.LED.Configure(machine.PinConfig{Mode: machine.PinOutput})

	pass, fail := 0, 0
	report := func(name, err string) {
		if err == "" {
			println("[PASS]", name)
			pass++
		} else {
			println("[FAIL]", name, ":", err)
			fail++
		}
	}

	report("USART1 -> USART6 pattern A", runOneWay(tx, port, patternA, totalBytes))
	report("USART1 -> USART6 pattern B", runOneWay(tx, port, patternB, totalBytes))

	println("")
	println("Summary")
	println("  passed =", pass)
	println("  failed =", fail)
	if fail == 0 {
		blink(machine.LED, 3, 120*time.Millisecond)
	} else {
		for {
			blink(machine.LED, 1, 600*time.Millisecond)
			time.Sleep(800 * time.Millisecond)
		}
	}
}

func runOneWay(tx *usartx.USART, rx *usartx.Port, gen func(int) byte, n int) string {
	drain(rx)
	ctx, cancel := context.WithTimeout(context.Background(), timeoutPerTest)
	defer cancel()

	errCh := make(chan string, 1)
	go func() { errCh <- recvAndCheck(ctx, rx, gen, n) }()
	if err := sendPattern(ctx, tx, gen, n); err != "" {
		return err
	}
	return <-errCh
}

func drain(p *usartx.Port) {
	var tmp [recvChunk]byte
	for p.Buffered() > 0 {
		p.Read(tmp[:])
	}
}

// sendChunkContext sends p with TransmitStart, resuming after an early
// terminator the same way Port.Write does. Waiting on the completion channel
// lets the receiving goroutine run.
func sendChunkContext(ctx context.Context, u *usartx.USART, p []byte) usartx.Status {
	for len(p) > 0 {
		st := u.TransmitStart(p, p[len(p)-1])
		if st == usartx.StatusOK {
			// running, or finished inline; either way the final status is here
			var err error
			if st, err = u.WaitTransmit(ctx); err != nil {
				u.Abort(usartx.TX)
				return usartx.StatusTimeout
			}
		}
		switch st {
		case usartx.StatusOK:
			return st
		case usartx.StatusUndersize:
			p = p[u.TxSize():]
		default:
			return st
		}
	}
	return usartx.StatusOK
}

func sendPattern(ctx context.Context, u *usartx.USART, gen func(int) byte, n int) string {
	var buf [sendChunk]byte
	for i := 0; i < n; {
		k := sendChunk
		if n-i < k {
			k = n - i
		}
		for j := 0; j < k; j++ {
			buf[j] = gen(i + j)
		}
		if st := sendChunkContext(ctx, u, buf[:k]); st != usartx.StatusOK {
			return "send: " + st.String()
		}
		i += k
	}
	return ""
}

// recvAndCheck reads n bytes and compares each against gen(i). On the first
// mismatch it prints the surrounding expected and actual bytes.
func recvAndCheck(ctx context.Context, p *usartx.Port, gen func(int) byte, n int) string {
	var buf [recvChunk]byte
	received := 0
	for received < n {
		k := n - received
		if k > len(buf) {
			k = len(buf)
		}
		m, err := p.ReadBlocking(ctx, buf[:k])
		if err != nil {
			println("received", received, "of", n)
			return "timeout"
		}
		for i := 0; i < m; i++ {
			if buf[i] != gen(received+i) {
				println("First mismatch at offset", received+i)
				printContext(gen, received, buf[:m], i)
				return "integrity mismatch"
			}
		}
		received += m
	}
	return ""
}

/*** Context dump ***/

func printContext(gen func(int) byte, base int, got []byte, rel int) {
	start := rel - contextRadius
	if start < 0 {
		start = 0
	}
	end := rel + contextRadius + 1
	if end > len(got) {
		end = len(got)
	}
	println("Context (hex): bytes", base+start, "to", base+end-1)
	print(" exp: ")
	for i := start; i < end; i++ {
		printByte(gen(base+i), i == rel)
	}
	println("")
	print(" act: ")
	for i := start; i < end; i++ {
		printByte(got[i], i == rel)
	}
	println("")
}

func printByte(v byte, pivot bool) {
	const hexdigits = "0123456789ABCDEF"
	s := string([]byte{hexdigits[v>>4], hexdigits[v&0xF]})
	if pivot {
		print("[", s, "]")
	} else {
		print(" ", s)
	}
}

func blink(pin machine.Pin, times int, on time.Duration) {
	for i := 0; i < times; i++ {
		pin.High()
		time.Sleep(on)
		pin.Low()
		time.Sleep(on)
	}
}
