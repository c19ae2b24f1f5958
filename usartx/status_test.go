//go:build !stm32f4

package usartx

import (
	"errors"
	"testing"
)

func TestStatus_Err(t *testing.T) {
	tests := []struct {
		st   Status
		want error
	}{
		{StatusOK, nil},
		{StatusError, ErrFault},
		{StatusTimeout, ErrTimeout},
		{StatusOversize, ErrOversize},
		{StatusUndersize, ErrUndersize},
		{StatusBusy, ErrBusy},
		{Status(42), ErrFault},
	}
	for _, tt := range tests {
		if got := tt.st.Err(); !errors.Is(got, tt.want) || (tt.want == nil) != (got == nil) {
			t.Errorf("%v.Err() = %v want %v", tt.st, got, tt.want)
		}
	}
}

func TestClassifyLineErrors(t *testing.T) {
	tests := []struct {
		sr   uint32
		want ErrorCode
	}{
		{0, CodeNone},
		{maskRXNE, CodeNone},
		{maskPE, CodeParity},
		{maskNE, CodeNoise},
		{maskFE, CodeFraming},
		{maskPE | maskNE, CodeParityNoise},
		{maskNE | maskFE, CodeNoiseFraming},
		{maskPE | maskFE, CodeParityFraming},
		{maskPE | maskNE | maskFE | maskRXNE, CodeParityNoiseFraming},
	}
	for _, tt := range tests {
		if got := classifyLineErrors(tt.sr); got != tt.want {
			t.Errorf("classifyLineErrors(%#x) = %v want %v", tt.sr, got, tt.want)
		}
	}
}

func TestErrorCode_IsError(t *testing.T) {
	var err error = CodeOverrun
	if err.Error() != "usartx: overrun" {
		t.Fatalf("got %q", err.Error())
	}
	var code ErrorCode
	if !errors.As(err, &code) || code != CodeOverrun {
		t.Fatalf("errors.As: %v", code)
	}
}

func TestStrings(t *testing.T) {
	if StatusUndersize.String() != "undersize" || Status(9).String() != "unknown" {
		t.Fatal("Status.String")
	}
	if LockError.String() != "error" || Busy.String() != "busy" {
		t.Fatal("LockState.String")
	}
	if TX.String() != "tx" || RX.String() != "rx" {
		t.Fatal("Direction.String")
	}
	if CodeParityNoiseFraming.String() != "parity+noise+framing" {
		t.Fatal("ErrorCode.String")
	}
}
