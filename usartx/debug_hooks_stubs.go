//go:build !usartxdebug

package usartx

func (u *USART) dbgISR()                {}
func (u *USART) dbgTxByte()             {}
func (u *USART) dbgRxByte()             {}
func (u *USART) dbgLineError(ErrorCode) {}
func (u *USART) dbgRing(bool, uint8)    {}
func (u *USART) dbgStaleLock()          {}
func (u *USART) dbgTimeout()            {}
func (u *USART) dbgWait()               {}
func (u *USART) dbgSpuriousWake()       {}
