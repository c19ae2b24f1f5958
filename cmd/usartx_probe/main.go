//go:build stm32f4 && usartxdebug

package main

import (
	"context"
	"time"

	"machine"

	"github.com/jangala-dev/tinygo-usartx/usartx"
)

// Register and counter dump around Configure and a short loopback burst.
// Wire PA9 (TX) to PA10 (RX) and build with -tags usartxdebug.

const baud = 115200

func printRegs(u *usartx.USART, label string) {
	r := u.DebugRegs()
	over8 := r.CR1&(1<<15) != 0 // OVER8
	println("==", label)
	println("Regs:   SR=0x", r.SR, " CR1=0x", r.CR1, " CR2=0x", r.CR2, " CR3=0x", r.CR3, " BRR=0x", r.BRR)
	println("Baud:   actual=", usartx.ActualBaud(u.ClockHz, r.BRR, over8), " requested=", u.BaudRate())
}

func printStats(u *usartx.USART) {
	s := u.DebugStats()
	println("ISR:    count=", s.ISRCount, " tx=", s.TxBytes, " rx=", s.RxBytes)
	println("Errors: ORE=", s.ErrOverrun, " PE=", s.ErrParity, " NE=", s.ErrNoise, " FE=", s.ErrFraming)
	println("Ring:   puts=", s.RingPuts, " drops=", s.RingDrops, " maxUsed=", s.RingMaxUsed)
	println("Locks:  stale=", s.StaleLocks, " timeouts=", s.Timeouts, " waits=", s.Waits, " spurious=", s.SpuriousWakes)
}

func main() {
	delay := 5
	for i := 0; i < delay; i++ {
		println("probe starting in", delay-i, "seconds")
		time.Sleep(time.Second)
	}
	println("usartx probe (diagnostic)")

	u := usartx.USART1
	printRegs(u, "reset")

	u.ConfigurePins(machine.PA9, machine.PA10)
	if err := u.Configure(usartx.Config{BaudRate: baud}); err != nil {
		println("fatal:", err.Error())
		for {
			time.Sleep(time.Hour)
		}
	}
	u.DebugReset()
	printRegs(u, "configured")

	println("\n[phase] loopback-256")
	src := make([]byte, 256)
	var x uint32 = 0x12345678
	for i := range src {
		x ^= x << 13
		x ^= x >> 17
		x ^= x << 5
		src[i] = byte(x)
	}
	dst := make([]byte, len(src))
	u.ReceiveStart(dst, src[len(src)-1])
	u.TransmitStart(src, src[len(src)-1])

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	txst, _ := u.WaitTransmit(ctx)
	rxst, err := u.WaitReceive(ctx)
	if err != nil {
		u.Abort(usartx.RX)
	}
	println("tx:", txst.String(), " rx:", rxst.String(), " received:", u.RxCount(), " code:", u.ErrorCode().String())

	printRegs(u, "after burst")
	printStats(u)
}
