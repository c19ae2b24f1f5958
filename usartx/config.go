package usartx

import (
	"fmt"
	"time"
)

// Compile-time tunables.
const (
	// DefaultClockHz is the HSI frequency. The host register model reports
	// it as every bus clock.
	DefaultClockHz   uint32 = 16000000
	DefaultBaudRate  uint32 = 115200
	DefaultTimeLimit        = 10 * time.Millisecond

	// maxMantissa is the width of the BRR mantissa field.
	maxMantissa = 0xFFF
)

// WordLength selects the M bit.
type WordLength uint8

const (
	WordLength8 WordLength = iota
	WordLength9
)

// StopBits holds the CR2 STOP field encoding.
type StopBits uint8

const (
	StopBits1 StopBits = iota
	StopBitsHalf
	StopBits2
	StopBits1AndHalf
)

func (s StopBits) String() string {
	switch s {
	case StopBits1:
		return "1"
	case StopBitsHalf:
		return "0.5"
	case StopBits2:
		return "2"
	case StopBits1AndHalf:
		return "1.5"
	default:
		return "?"
	}
}

// Parity defines the parity setting used for the frame.
type Parity uint8

const (
	// ParityNone disables parity generation and checking.
	ParityNone Parity = iota
	// ParityEven sets PCE with PS clear.
	ParityEven
	// ParityOdd sets PCE and PS.
	ParityOdd
)

func (p Parity) String() string {
	switch p {
	case ParityNone:
		return "N"
	case ParityEven:
		return "E"
	case ParityOdd:
		return "O"
	default:
		return "?"
	}
}

// Oversampling selects the OVER8 bit.
type Oversampling uint8

const (
	Oversampling16 Oversampling = iota
	Oversampling8
)

// SampleMethod selects the ONEBIT bit.
type SampleMethod uint8

const (
	SampleThreeBit SampleMethod = iota
	SampleOneBit
)

// FrameConfig describes the character frame. The zero value is 8N1.
type FrameConfig struct {
	WordLength WordLength
	StopBits   StopBits
	Parity     Parity
}

func (f FrameConfig) String() string {
	bits := 8
	if f.WordLength == WordLength9 {
		bits = 9
	}
	return fmt.Sprintf("%d%s%s", bits, f.Parity, f.StopBits)
}

func (f FrameConfig) valid() bool {
	return f.WordLength <= WordLength9 && f.StopBits <= StopBits1AndHalf && f.Parity <= ParityOdd
}

// SamplingConfig describes how the receiver samples the line. The zero value
// is 16x oversampling with three-sample majority.
type SamplingConfig struct {
	Oversampling Oversampling
	SampleMethod SampleMethod
}

func (s SamplingConfig) valid() bool {
	return s.Oversampling <= Oversampling8 && s.SampleMethod <= SampleOneBit
}

// Initialize programs the frame format, sampling and baud rate, and registers
// u as the handle for its peripheral so interrupt dispatch can find it.
// Fields are replaced rather than OR-ed, so calling it again with different
// settings is safe. It does not set UE; see Enable.
func (u *USART) Initialize(frame FrameConfig, sampling SamplingConfig, baud uint32) Status {
	if u == nil || u.Bus == nil || u.TimeLimit <= 0 || baud == 0 {
		return StatusError
	}
	if !frame.valid() || !sampling.valid() {
		return StatusError
	}
	id, ok := instanceOf(u.Bus)
	if !ok {
		return StatusError
	}
	clk := u.ClockHz
	if clk == 0 {
		clk = peripheralClock(id)
	}
	over8 := sampling.Oversampling == Oversampling8
	mantissa, fraction := BaudDivisor(clk, baud, over8)
	if mantissa == 0 || mantissa > maxMantissa {
		logWarn(ComponentConfig, "baud rate out of range", "instance", id.String(), "baud", baud, "clock", clk)
		return StatusError
	}

	u.id = id
	u.baud = baud
	registry[id].usart = u

	enableClock(id)
	r := u.Bus

	// Frame.
	r.CR1.ReplaceBits(uint32(frame.WordLength), 1, cr1M)
	switch frame.Parity {
	case ParityNone:
		r.CR1.ClearBits(maskPCE | maskPS)
	case ParityEven:
		r.CR1.ReplaceBits(0b10, 0b11, cr1PS) // PCE set, PS clear
	case ParityOdd:
		r.CR1.ReplaceBits(0b11, 0b11, cr1PS)
	}
	r.CR2.ReplaceBits(uint32(frame.StopBits), 0b11, cr2STOP)

	// Sampling.
	r.CR1.ReplaceBits(uint32(sampling.Oversampling), 1, cr1OVER8)
	r.CR3.ReplaceBits(uint32(sampling.SampleMethod), 1, cr3ONEBIT)

	// Asynchronous mode only: no clock output, LIN, IrDA, Smartcard or half duplex.
	r.CR2.ClearBits(1<<cr2CLKEN | 1<<cr2LINEN)
	r.CR3.ClearBits(1<<cr3IREN | 1<<cr3IRLP | 1<<cr3SCEN | 1<<cr3HDSEL | 1<<cr3NACK)

	r.BRR.Set(brr(mantissa, fraction))

	u.setCode(CodeNone)
	enableIRQ(id)

	logInfo(ComponentConfig, "initialized",
		"instance", id.String(),
		"frame", frame.String(),
		"baud", baud,
		"actual", ActualBaud(clk, brr(mantissa, fraction), over8),
		"over8", over8)
	return StatusOK
}

// Enable sets UE.
func (u *USART) Enable() Status {
	if u == nil || u.Bus == nil {
		return StatusError
	}
	u.Bus.CR1.SetBits(maskUE)
	return StatusOK
}

// Disable clears UE. Transfers in flight are not completed.
func (u *USART) Disable() Status {
	if u == nil || u.Bus == nil {
		return StatusError
	}
	u.Bus.CR1.ClearBits(maskUE)
	return StatusOK
}

// Config is the one-call configuration accepted by Configure. Zero fields take
// the package defaults: 115200 baud 8N1, 16x three-sample, 10ms time limit,
// and the clock of the instance's APB bus.
type Config struct {
	BaudRate  uint32
	Frame     FrameConfig
	Sampling  SamplingConfig
	TimeLimit time.Duration
	ClockHz   uint32
}

// Configure applies cfg through Initialize and enables the peripheral.
func (u *USART) Configure(cfg Config) error {
	if u == nil || u.Bus == nil {
		return fmt.Errorf("usartx: configure: %w", ErrFault)
	}
	if cfg.BaudRate == 0 {
		cfg.BaudRate = DefaultBaudRate
	}
	if cfg.TimeLimit == 0 {
		cfg.TimeLimit = DefaultTimeLimit
	}
	if cfg.ClockHz == 0 {
		if id, ok := instanceOf(u.Bus); ok {
			cfg.ClockHz = peripheralClock(id)
		}
	}
	u.TimeLimit = cfg.TimeLimit
	u.ClockHz = cfg.ClockHz

	if st := u.Initialize(cfg.Frame, cfg.Sampling, cfg.BaudRate); st != StatusOK {
		return fmt.Errorf("usartx: configure %s at %d baud: %w", cfg.Frame, cfg.BaudRate, st.Err())
	}
	u.Enable()
	return nil
}
