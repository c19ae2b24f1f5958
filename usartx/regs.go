// usartx/regs.go

package usartx

// Base addresses of the three USART register blocks on STM32F4.
const (
	BaseUSART1 uintptr = 0x40011000
	BaseUSART2 uintptr = 0x40004400
	BaseUSART6 uintptr = 0x40011400
)

// SR bit positions.
const (
	srPE   = 0
	srFE   = 1
	srNE   = 2
	srORE  = 3
	srIDLE = 4
	srRXNE = 5
	srTC   = 6
	srTXE  = 7
	srLBD  = 8
	srCTS  = 9
)

// CR1 bit positions.
const (
	cr1SBK    = 0
	cr1RWU    = 1
	cr1RE     = 2
	cr1TE     = 3
	cr1IDLEIE = 4
	cr1RXNEIE = 5
	cr1TCIE   = 6
	cr1TXEIE  = 7
	cr1PEIE   = 8
	cr1PS     = 9
	cr1PCE    = 10
	cr1WAKE   = 11
	cr1M      = 12
	cr1UE     = 13
	cr1OVER8  = 15
)

// CR2 bit positions. STOP is a two-bit field at 12..13.
const (
	cr2LBDL  = 5
	cr2LBDIE = 6
	cr2LBCL  = 8
	cr2CPHA  = 9
	cr2CPOL  = 10
	cr2CLKEN = 11
	cr2STOP  = 12
	cr2LINEN = 14
)

// CR3 bit positions.
const (
	cr3EIE    = 0
	cr3IREN   = 1
	cr3IRLP   = 2
	cr3HDSEL  = 3
	cr3NACK   = 4
	cr3SCEN   = 5
	cr3DMAR   = 6
	cr3DMAT   = 7
	cr3RTSE   = 8
	cr3CTSE   = 9
	cr3CTSIE  = 10
	cr3ONEBIT = 11
)

// Masks used by the transfer engines.
const (
	maskPE   = uint32(1) << srPE
	maskFE   = uint32(1) << srFE
	maskNE   = uint32(1) << srNE
	maskORE  = uint32(1) << srORE
	maskRXNE = uint32(1) << srRXNE
	maskTC   = uint32(1) << srTC
	maskTXE  = uint32(1) << srTXE

	maskLineErrors = maskPE | maskFE | maskNE
	maskAllErrors  = maskLineErrors | maskORE

	maskRE     = uint32(1) << cr1RE
	maskTE     = uint32(1) << cr1TE
	maskRXNEIE = uint32(1) << cr1RXNEIE
	maskTCIE   = uint32(1) << cr1TCIE
	maskPS     = uint32(1) << cr1PS
	maskPCE    = uint32(1) << cr1PCE
	maskM      = uint32(1) << cr1M
	maskUE     = uint32(1) << cr1UE
	maskOVER8  = uint32(1) << cr1OVER8

	maskSTOP = uint32(0b11) << cr2STOP
)

// Condition is a status register bit index. A registered callback fires when
// its condition bit is observed set in SR during interrupt dispatch.
type Condition uint8

const (
	ConditionPE   Condition = srPE
	ConditionFE   Condition = srFE
	ConditionNE   Condition = srNE
	ConditionORE  Condition = srORE
	ConditionIDLE Condition = srIDLE
	ConditionRXNE Condition = srRXNE
	ConditionTC   Condition = srTC
	ConditionTXE  Condition = srTXE
)

func (c Condition) mask() uint32 { return uint32(1) << c }

func (c Condition) valid() bool { return c <= ConditionTXE }
