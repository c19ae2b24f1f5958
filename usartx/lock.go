package usartx

// LockTimeLimit is the number of lock checks a BUSY direction survives before
// it is presumed abandoned and forced back to Idle. It counts calls, not time.
const LockTimeLimit = 50

// checkAndAdvanceLock reports whether dir may start a transfer. A BUSY lock
// returns Busy and ages by one; once it has aged LockTimeLimit times it is
// forced Idle. Interrupt handlers reset the age on every byte of progress.
func (u *USART) checkAndAdvanceLock(dir Direction) LockState {
	t := u.transfer(dir)
	if !t.busy() {
		return Idle
	}
	if n := t.stale.Load(); n >= LockTimeLimit {
		t.lock.Store(uint32(Idle))
		t.stale.Store(0)
		u.dbgStaleLock()
		logWarn(ComponentLock, "stale lock released", "instance", u.id.String(), "dir", dir.String())
		return Idle
	}
	t.stale.Add(1)
	return Busy
}
