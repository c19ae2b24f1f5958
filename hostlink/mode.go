// Package hostlink drives the PC end of a serial link to a usartx target. It
// maps driver frame settings onto a host serial port and reads frames with
// the same termination rules the driver uses, so a peer on a USB adapter can
// exercise a board from scripts.
package hostlink

import (
	"errors"
	"fmt"

	"github.com/jangala-dev/tinygo-usartx/usartx"
	"go.bug.st/serial"
)

// ErrUnsupportedFrame reports a frame the host serial API cannot express.
var ErrUnsupportedFrame = errors.New("hostlink: frame not supported by host port")

// Mode converts a driver frame and baud rate into a serial.Mode. The USART
// counts the parity bit inside the word length, host ports do not: 8 bits with
// parity is 7 data bits on the PC side, 9 bits with parity is 8.
func Mode(frame usartx.FrameConfig, baud uint32) (*serial.Mode, error) {
	if baud == 0 {
		return nil, fmt.Errorf("hostlink: baud rate must be positive")
	}
	m := &serial.Mode{BaudRate: int(baud)}

	switch frame.Parity {
	case usartx.ParityNone:
		m.Parity = serial.NoParity
	case usartx.ParityEven:
		m.Parity = serial.EvenParity
	case usartx.ParityOdd:
		m.Parity = serial.OddParity
	default:
		return nil, fmt.Errorf("%w: parity %d", ErrUnsupportedFrame, frame.Parity)
	}

	switch {
	case frame.WordLength == usartx.WordLength8 && frame.Parity == usartx.ParityNone:
		m.DataBits = 8
	case frame.WordLength == usartx.WordLength8:
		m.DataBits = 7
	case frame.WordLength == usartx.WordLength9 && frame.Parity != usartx.ParityNone:
		m.DataBits = 8
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFrame, frame)
	}

	switch frame.StopBits {
	case usartx.StopBits1:
		m.StopBits = serial.OneStopBit
	case usartx.StopBits1AndHalf:
		m.StopBits = serial.OnePointFiveStopBits
	case usartx.StopBits2:
		m.StopBits = serial.TwoStopBits
	default:
		return nil, fmt.Errorf("%w: %s stop bits", ErrUnsupportedFrame, frame.StopBits)
	}
	return m, nil
}

// ParseFrame reads the conventional "8N1" notation. The word length is the
// USART's, so parity is included in it.
func ParseFrame(s string) (usartx.FrameConfig, error) {
	var f usartx.FrameConfig
	if len(s) < 3 {
		return f, fmt.Errorf("hostlink: bad frame %q", s)
	}
	switch s[0] {
	case '8':
		f.WordLength = usartx.WordLength8
	case '9':
		f.WordLength = usartx.WordLength9
	default:
		return f, fmt.Errorf("hostlink: bad word length in %q", s)
	}
	switch s[1] {
	case 'N', 'n':
		f.Parity = usartx.ParityNone
	case 'E', 'e':
		f.Parity = usartx.ParityEven
	case 'O', 'o':
		f.Parity = usartx.ParityOdd
	default:
		return f, fmt.Errorf("hostlink: bad parity in %q", s)
	}
	switch s[2:] {
	case "1":
		f.StopBits = usartx.StopBits1
	case "0.5":
		f.StopBits = usartx.StopBitsHalf
	case "2":
		f.StopBits = usartx.StopBits2
	case "1.5":
		f.StopBits = usartx.StopBits1AndHalf
	default:
		return f, fmt.Errorf("hostlink: bad stop bits in %q", s)
	}
	return f, nil
}
