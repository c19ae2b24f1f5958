//go:build !stm32f4

package usartx

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"tinygo.org/x/drivers/gps"
)

func newPort(t *testing.T) (*sim, *USART, *Port) {
	t.Helper()
	s := newSim(t)
	u, _ := newUSART(t, s, FrameConfig{})
	p := NewPort(u)
	p.Timeout = budget
	return s, u, p
}

func TestPort_Write(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"plain", "hello"},
		{"last byte repeats", "abcb"},
		{"single byte", "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _, p := newPort(t)
			n, err := p.Write([]byte(tt.data))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if n != len(tt.data) || string(s.wire) != tt.data {
				t.Fatalf("n=%d wire %q want %q", n, s.wire, tt.data)
			}
		})
	}
}

func TestPort_WriteDerivedBudget(t *testing.T) {
	s, _, p := newPort(t)
	p.Timeout = 0
	if err := p.WriteByte('k'); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(s.wire) != "k" {
		t.Fatalf("wire %q", s.wire)
	}
	if got, want := p.writeBudget(4), 10*time.Millisecond+DefaultTimeLimit; got != want {
		t.Fatalf("writeBudget(4)=%v want %v", got, want)
	}
}

func TestPort_WriteTimeout(t *testing.T) {
	s, _, p := newPort(t)
	s.stallTC = true
	p.Timeout = 10 * time.Millisecond
	n, err := p.Write([]byte("stuck"))
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("got %v want ErrTimeout", err)
	}
	if n != 0 {
		t.Fatalf("n=%d want 0", n)
	}
}

func TestPort_ListenAndRead(t *testing.T) {
	s, _, p := newPort(t)
	if err := p.Listen(); err != nil {
		t.Fatalf("Listen: %v", err)
	}
	s.feed([]byte("gps\x00")...)
	s.run(20)

	if p.Buffered() != 4 {
		t.Fatalf("Buffered=%d want 4", p.Buffered())
	}
	buf := make([]byte, 8)
	n, err := p.Read(buf)
	if err != nil || string(buf[:n]) != "gps\x00" {
		t.Fatalf("Read: %q, %v", buf[:n], err)
	}
	if n, _ := p.Read(buf); n != 0 {
		t.Fatalf("empty Read returned %d", n)
	}
}

func TestPort_SurvivesLineError(t *testing.T) {
	s, u, p := newPort(t)
	p.Listen()
	s.feed('a')
	s.feedFrame(rxFrame{b: 'x', flags: maskFE})
	s.feed('b')
	s.run(20)

	buf := make([]byte, 4)
	n, _ := p.Read(buf)
	if string(buf[:n]) != "ab" {
		t.Fatalf("got %q want %q", buf[:n], "ab")
	}
	if u.ErrorCode() != CodeNone {
		// the next arm resets the code
		t.Fatalf("code %v want none after re-arm", u.ErrorCode())
	}
}

func TestPort_WriteResumesReceive(t *testing.T) {
	s, _, p := newPort(t)
	p.Listen()
	if _, err := p.Write([]byte("ping")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !s.r.CR1.HasBits(maskRE) || !s.r.CR1.HasBits(maskRXNEIE) {
		t.Fatalf("CR1=%#x: receive not resumed", s.r.CR1.Get())
	}
	s.feed([]byte("pong")...)
	s.run(20)
	buf := make([]byte, 4)
	if n, _ := p.Read(buf); string(buf[:n]) != "pong" {
		t.Fatalf("got %q", buf[:n])
	}
}

func TestPort_Close(t *testing.T) {
	s, u, p := newPort(t)
	p.Listen()
	s.feed('a')
	s.run(5)
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	s.feed('b')
	s.run(5)

	if p.Buffered() != 1 {
		t.Fatalf("Buffered=%d want 1", p.Buffered())
	}
	if u.RxLock() != Idle || s.r.CR1.HasBits(maskRXNEIE) {
		t.Fatal("receive still armed after Close")
	}
	if err := p.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestPort_ListenBusy(t *testing.T) {
	_, u, p := newPort(t)
	u.ReceiveStart(make([]byte, 4), 0)
	if err := p.Listen(); !errors.Is(err, ErrBusy) {
		t.Fatalf("got %v want ErrBusy", err)
	}
	if p.listening.Load() {
		t.Fatal("failed Listen left the port listening")
	}
}

func TestPort_WaitReadable(t *testing.T) {
	s, _, p := newPort(t)
	p.Listen()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := p.WaitReadable(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("got %v want deadline exceeded", err)
	}

	s.feed('w')
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.run(5)
	}()
	buf := make([]byte, 2)
	n, err := p.ReadBlocking(context.Background(), buf)
	<-done
	if err != nil || n != 1 || buf[0] != 'w' {
		t.Fatalf("ReadBlocking: n=%d %q err=%v", n, buf[:n], err)
	}
}

func TestPort_RingOverflowDrops(t *testing.T) {
	s, _, p := newPort(t)
	p.Listen()
	s.feed([]byte(strings.Repeat("z", int(bufferSize)+10))...)
	s.run(int(bufferSize) + 20)
	if p.Buffered() != int(bufferSize) {
		t.Fatalf("Buffered=%d want %d", p.Buffered(), bufferSize)
	}
}

func TestPort_GPSSentence(t *testing.T) {
	const gga = "$GPGGA,115739.00,4158.8441367,N,09147.4416929,W,4,13,0.9,255.747,M,-32.00,M,01,0000*6E"
	s, _, p := newPort(t)
	p.Listen()

	// The gps driver reads in blocks of 100 bytes.
	stream := gga + "\r\n"
	stream += strings.Repeat("\n", 100-len(stream))
	s.feed([]byte(stream)...)
	s.run(150)
	if p.Buffered() != 100 {
		t.Fatalf("Buffered=%d want 100", p.Buffered())
	}

	dev := gps.NewUART(p)
	sentence, err := dev.NextSentence()
	if err != nil {
		t.Fatalf("NextSentence: %v", err)
	}
	if sentence != gga {
		t.Fatalf("got %q", sentence)
	}
	parser := gps.NewParser()
	fix, err := parser.Parse(sentence)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if fix.Latitude != float32(41.980735778808594) || fix.Longitude != float32(-91.79069519042969) {
		t.Fatalf("position %v,%v", fix.Latitude, fix.Longitude)
	}
	if fix.Altitude != 255 {
		t.Fatalf("altitude %d want 255", fix.Altitude)
	}
}
