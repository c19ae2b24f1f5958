package hostlink

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/shlex"
	"github.com/jangala-dev/tinygo-usartx/usartx"
)

// Op is a script verb.
type Op uint8

const (
	OpSend Op = iota + 1
	OpExpect
	OpSleep
)

func (o Op) String() string {
	switch o {
	case OpSend:
		return "send"
	case OpExpect:
		return "expect"
	case OpSleep:
		return "sleep"
	default:
		return "?"
	}
}

// Command is one parsed script line. For send and expect, Data already
// carries the optional terminator byte.
type Command struct {
	Op    Op
	Data  []byte
	Delay time.Duration
}

// ParseCommand parses one script line. Blank lines and # comments yield a
// nil Command. Text arguments accept Go escapes; quote them with single
// quotes so the tokenizer leaves backslashes alone, e.g. send 'hi\r\n'.
// A terminator argument is either a 0x.. literal or a one-byte text.
//
//	send <text> [term]
//	expect <text> [term]
//	sleep <duration>
func ParseCommand(line string) (*Command, error) {
	fields, err := shlex.Split(line)
	if err != nil {
		return nil, fmt.Errorf("hostlink: parse %q: %w", line, err)
	}
	if len(fields) == 0 {
		return nil, nil
	}
	verb, args := fields[0], fields[1:]
	switch verb {
	case "send", "expect":
		if len(args) < 1 || len(args) > 2 {
			return nil, fmt.Errorf("hostlink: %s takes <text> [term], got %d args", verb, len(args))
		}
		data, err := decodeText(args[0])
		if err != nil {
			return nil, err
		}
		if len(args) == 2 {
			b, err := decodeByte(args[1])
			if err != nil {
				return nil, err
			}
			data = append(data, b)
		}
		if len(data) == 0 {
			return nil, fmt.Errorf("hostlink: %s with empty payload", verb)
		}
		op := OpSend
		if verb == "expect" {
			op = OpExpect
		}
		return &Command{Op: op, Data: data}, nil
	case "sleep":
		if len(args) != 1 {
			return nil, fmt.Errorf("hostlink: sleep takes one duration")
		}
		d, err := time.ParseDuration(args[0])
		if err != nil {
			return nil, fmt.Errorf("hostlink: sleep: %w", err)
		}
		return &Command{Op: OpSleep, Delay: d}, nil
	}
	return nil, fmt.Errorf("hostlink: unknown command %q", verb)
}

// decodeText interprets Go escapes in s. A bare double quote stands for
// itself; one already escaped is left alone.
func decodeText(s string) ([]byte, error) {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '\\' && i+1 < len(s):
			b.WriteByte(c)
			i++
			b.WriteByte(s[i])
		case c == '"':
			b.WriteString(`\"`)
		default:
			b.WriteByte(c)
		}
	}
	out, err := strconv.Unquote(`"` + b.String() + `"`)
	if err != nil {
		return nil, fmt.Errorf("hostlink: bad escape in %q", s)
	}
	return []byte(out), nil
}

func decodeByte(s string) (byte, error) {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, err := strconv.ParseUint(s[2:], 16, 8)
		if err != nil {
			return 0, fmt.Errorf("hostlink: bad byte %q", s)
		}
		return byte(v), nil
	}
	b, err := decodeText(s)
	if err != nil {
		return 0, err
	}
	if len(b) != 1 {
		return 0, fmt.Errorf("hostlink: terminator %q is not one byte", s)
	}
	return b[0], nil
}

// Exec runs one command. expect reads a frame sized to the expected bytes,
// terminated by their last byte, and requires StatusOK and an exact match.
func (l *Link) Exec(ctx context.Context, c *Command) error {
	switch c.Op {
	case OpSend:
		return l.Send(c.Data)
	case OpExpect:
		got, st, err := l.ReadFrame(len(c.Data), c.Data[len(c.Data)-1])
		if err != nil {
			return err
		}
		if st != usartx.StatusOK || !bytes.Equal(got, c.Data) {
			return fmt.Errorf("hostlink: expect %q: got %q (%s): %w", c.Data, got, st, mismatch(st))
		}
		return nil
	case OpSleep:
		t := time.NewTimer(c.Delay)
		defer t.Stop()
		select {
		case <-t.C:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("hostlink: bad op %d", c.Op)
}

func mismatch(st usartx.Status) error {
	if err := st.Err(); err != nil {
		return err
	}
	return usartx.ErrFault
}

// Run executes script line by line and stops at the first failing step. It
// returns the number of steps executed.
func (l *Link) Run(ctx context.Context, script io.Reader) (int, error) {
	log := l.logger()
	sc := bufio.NewScanner(script)
	steps, lineNo := 0, 0
	for sc.Scan() {
		lineNo++
		if err := ctx.Err(); err != nil {
			return steps, err
		}
		c, err := ParseCommand(sc.Text())
		if err != nil {
			return steps, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if c == nil {
			continue
		}
		log.Debug("step", "line", lineNo, "op", c.Op.String(), "data", fmt.Sprintf("%q", c.Data))
		if err := l.Exec(ctx, c); err != nil {
			log.Warn("step failed", "line", lineNo, "op", c.Op.String(), "err", err)
			return steps, fmt.Errorf("line %d: %w", lineNo, err)
		}
		steps++
	}
	if err := sc.Err(); err != nil {
		return steps, fmt.Errorf("hostlink: read script: %w", err)
	}
	log.Info("script passed", "steps", steps)
	return steps, nil
}
