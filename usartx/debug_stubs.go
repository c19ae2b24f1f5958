//go:build !usartxdebug

package usartx

// Without the usartxdebug tag the diagnostic API keeps its signatures but
// carries no state, so callers compile either way and pay nothing.

// Stats is empty in normal builds. Build with -tags usartxdebug for the
// transfer, error and wait counters.
type Stats struct{}

// DebugReset does nothing in normal builds.
func (u *USART) DebugReset() {}

// DebugStats returns an empty Stats in normal builds.
func (u *USART) DebugStats() Stats { return Stats{} }

// RegSnapshot is empty in normal builds. The usartxdebug build captures SR,
// BRR and the control registers.
type RegSnapshot struct{}

// DebugRegs returns an empty RegSnapshot in normal builds.
func (u *USART) DebugRegs() RegSnapshot { return RegSnapshot{} }
