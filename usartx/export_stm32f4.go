// usartx/export_stm32f4.go

//go:build stm32f4

package usartx

import "machine"

type Pin = machine.Pin

const (
	NoPin       = machine.NoPin
	UART_TX_PIN = machine.UART_TX_PIN
	UART_RX_PIN = machine.UART_RX_PIN
)

// Alternate functions routing the USARTs to GPIO.
const (
	afUSART12 = 7
	afUSART6  = 8
)

// ConfigurePins routes tx and rx to the peripheral of u. Either may be NoPin.
func (u *USART) ConfigurePins(tx, rx Pin) {
	af := uint8(afUSART12)
	if id, _ := instanceOf(u.Bus); id == InstanceUSART6 {
		af = afUSART6
	}
	if tx != NoPin {
		tx.ConfigureAltFunc(machine.PinConfig{Mode: machine.PinModeUARTTX}, af)
	}
	if rx != NoPin {
		rx.ConfigureAltFunc(machine.PinConfig{Mode: machine.PinModeUARTRX}, af)
	}
}
