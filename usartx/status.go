package usartx

import "errors"

// Sentinel errors returned by Status.Err.
var (
	ErrFault     = errors.New("usartx: fault")
	ErrTimeout   = errors.New("usartx: timeout")
	ErrOversize  = errors.New("usartx: terminator not seen before buffer end")
	ErrUndersize = errors.New("usartx: terminator seen before buffer end")
	ErrBusy      = errors.New("usartx: transfer in progress")
)

// Status is the result of a driver operation.
type Status uint8

const (
	StatusOK        Status = iota // Operation completed
	StatusError                   // Validation or hardware fault
	StatusTimeout                 // Blocking time budget exhausted
	StatusOversize                // Buffer filled without the expected terminator
	StatusUndersize               // Terminator seen before the buffer filled
	StatusBusy                    // Another transfer owns the direction
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusError:
		return "error"
	case StatusTimeout:
		return "timeout"
	case StatusOversize:
		return "oversize"
	case StatusUndersize:
		return "undersize"
	case StatusBusy:
		return "busy"
	default:
		return "unknown"
	}
}

// Err returns the sentinel error for s, or nil for StatusOK.
// StatusUndersize is an early completion, not necessarily a failure; callers
// that treat it as success should compare the Status instead.
func (s Status) Err() error {
	switch s {
	case StatusOK:
		return nil
	case StatusTimeout:
		return ErrTimeout
	case StatusOversize:
		return ErrOversize
	case StatusUndersize:
		return ErrUndersize
	case StatusBusy:
		return ErrBusy
	default:
		return ErrFault
	}
}

// ErrorCode records the hardware fault category seen by the last transfer.
// It is diagnostic; read it after a StatusError or StatusTimeout result.
type ErrorCode uint8

const (
	CodeNone ErrorCode = iota
	CodeParity
	CodeNoise
	CodeFraming
	CodeOverrun
	CodeTimeout
	CodeParityNoise
	CodeNoiseFraming
	CodeParityFraming
	CodeParityNoiseFraming
)

func (c ErrorCode) String() string {
	switch c {
	case CodeNone:
		return "none"
	case CodeParity:
		return "parity"
	case CodeNoise:
		return "noise"
	case CodeFraming:
		return "framing"
	case CodeOverrun:
		return "overrun"
	case CodeTimeout:
		return "timeout"
	case CodeParityNoise:
		return "parity+noise"
	case CodeNoiseFraming:
		return "noise+framing"
	case CodeParityFraming:
		return "parity+framing"
	case CodeParityNoiseFraming:
		return "parity+noise+framing"
	default:
		return "unknown"
	}
}

// Error makes ErrorCode usable as an error value.
func (c ErrorCode) Error() string { return "usartx: " + c.String() }

// classifyLineErrors maps the PE/NE/FE bits of a status word onto a code.
// Overrun is checked separately because it takes priority.
func classifyLineErrors(sr uint32) ErrorCode {
	pe, ne, fe := sr&maskPE != 0, sr&maskNE != 0, sr&maskFE != 0
	switch {
	case pe && ne && fe:
		return CodeParityNoiseFraming
	case pe && ne:
		return CodeParityNoise
	case ne && fe:
		return CodeNoiseFraming
	case pe && fe:
		return CodeParityFraming
	case pe:
		return CodeParity
	case ne:
		return CodeNoise
	case fe:
		return CodeFraming
	}
	return CodeNone
}

// LockState is the arbitration state of one transfer direction.
type LockState uint32

const (
	Idle LockState = iota
	Busy
	LockError // reserved fault state; never entered by the engines
)

func (l LockState) String() string {
	switch l {
	case Idle:
		return "idle"
	case Busy:
		return "busy"
	case LockError:
		return "error"
	default:
		return "unknown"
	}
}

// Direction selects the transmit or receive half of a peripheral.
type Direction uint8

const (
	TX Direction = iota
	RX
)

func (d Direction) String() string {
	if d == TX {
		return "tx"
	}
	return "rx"
}
