package hostlink

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jangala-dev/tinygo-usartx/usartx"
	"go.bug.st/serial"
)

// DefaultTimeout is the inter-byte budget of ReadFrame.
const DefaultTimeout = 500 * time.Millisecond

// pollInterval bounds a single serial read so ReadFrame can check its budget.
const pollInterval = 20 * time.Millisecond

// Config selects and configures a host serial port.
type Config struct {
	Port     string
	BaudRate uint32
	Frame    usartx.FrameConfig
	Timeout  time.Duration // inter-byte budget; zero means DefaultTimeout
}

// Link is the host end of a serial link.
type Link struct {
	rw     io.ReadWriter
	closer io.Closer

	// Timeout bounds the wait for each byte in ReadFrame.
	Timeout time.Duration
	Logger  *slog.Logger
}

// New wraps an existing stream. Reads returning 0, nil are treated as a
// poll that saw no data, which is what serial ports with a read timeout do.
func New(rw io.ReadWriter) *Link {
	return &Link{rw: rw, Timeout: DefaultTimeout}
}

// Open opens and configures the named serial port.
func Open(cfg Config) (*Link, error) {
	mode, err := Mode(cfg.Frame, cfg.BaudRate)
	if err != nil {
		return nil, err
	}
	p, err := serial.Open(cfg.Port, mode)
	if err != nil {
		return nil, fmt.Errorf("hostlink: open %s: %w", cfg.Port, err)
	}
	if err := p.SetReadTimeout(pollInterval); err != nil {
		p.Close()
		return nil, fmt.Errorf("hostlink: set read timeout on %s: %w", cfg.Port, err)
	}
	if err := p.ResetInputBuffer(); err != nil {
		p.Close()
		return nil, fmt.Errorf("hostlink: flush %s: %w", cfg.Port, err)
	}
	l := New(p)
	l.closer = p
	if cfg.Timeout > 0 {
		l.Timeout = cfg.Timeout
	}
	l.logger().Info("port opened", "port", cfg.Port, "baud", cfg.BaudRate, "frame", cfg.Frame.String())
	return l, nil
}

// Close releases the underlying port, if Link owns one.
func (l *Link) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

func (l *Link) logger() *slog.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return slog.Default()
}

// Send writes frame in full.
func (l *Link) Send(frame []byte) error {
	for len(frame) > 0 {
		n, err := l.rw.Write(frame)
		if err != nil {
			return fmt.Errorf("hostlink: send: %w", err)
		}
		frame = frame[n:]
	}
	return nil
}

// ReadFrame reads at most max bytes and classifies the result the way the
// driver's Receive does: StatusUndersize when terminator arrives early,
// StatusOK when it is the max-th byte, StatusOversize when max bytes arrive
// without it, and StatusTimeout when the line goes quiet for Timeout. The
// error is non-nil only for I/O failures.
func (l *Link) ReadFrame(max int, terminator byte) ([]byte, usartx.Status, error) {
	if max <= 0 {
		return nil, usartx.StatusError, fmt.Errorf("hostlink: read frame: %w", usartx.ErrFault)
	}
	timeout := l.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	got := make([]byte, 0, max)
	var one [1]byte
	deadline := time.Now().Add(timeout)
	for len(got) < max {
		n, err := l.rw.Read(one[:])
		if err != nil {
			if errors.Is(err, io.EOF) {
				return got, usartx.StatusTimeout, nil
			}
			return got, usartx.StatusError, fmt.Errorf("hostlink: read frame: %w", err)
		}
		if n == 0 {
			if !time.Now().Before(deadline) {
				return got, usartx.StatusTimeout, nil
			}
			continue
		}
		got = append(got, one[0])
		deadline = time.Now().Add(timeout)
		if one[0] == terminator && len(got) < max {
			return got, usartx.StatusUndersize, nil
		}
	}
	if got[len(got)-1] != terminator {
		return got, usartx.StatusOversize, nil
	}
	return got, usartx.StatusOK, nil
}
