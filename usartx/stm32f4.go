// usartx/stm32f4.go

//go:build stm32f4

package usartx

import (
	"device/stm32"
	"machine"
	"runtime/interrupt"
)

// Regs is the USART register block of the STM32F4.
type Regs = stm32.USART_Type

var (
	busUSART1 = stm32.USART1
	busUSART2 = stm32.USART2
	busUSART6 = stm32.USART6
)

var irqs [instanceCount]interrupt.Interrupt

func init() {
	irqs[InstanceUSART1] = interrupt.New(stm32.IRQ_USART1, isrUSART1)
	irqs[InstanceUSART2] = interrupt.New(stm32.IRQ_USART2, isrUSART2)
	irqs[InstanceUSART6] = interrupt.New(stm32.IRQ_USART6, isrUSART6)
}

func isrUSART1(interrupt.Interrupt) { HandleUSART1() }
func isrUSART2(interrupt.Interrupt) { HandleUSART2() }
func isrUSART6(interrupt.Interrupt) { HandleUSART6() }

// enableIRQ unmasks the instance line in the NVIC. Sources inside the
// peripheral stay masked until a transfer enables TCIE or RXNEIE.
func enableIRQ(id Instance) {
	irqs[id].SetPriority(0x80)
	irqs[id].Enable()
}

// enableClock gates the peripheral clock on. USART1 and USART6 sit on APB2,
// USART2 on APB1.
func enableClock(id Instance) {
	switch id {
	case InstanceUSART1:
		stm32.RCC.APB2ENR.SetBits(stm32.RCC_APB2ENR_USART1EN)
	case InstanceUSART2:
		stm32.RCC.APB1ENR.SetBits(stm32.RCC_APB1ENR_USART2EN)
	case InstanceUSART6:
		stm32.RCC.APB2ENR.SetBits(stm32.RCC_APB2ENR_USART6EN)
	}
}

// peripheralClock reports the APB clock feeding id: the CPU clock divided by
// the PPRE1 or PPRE2 prescaler the runtime programmed into RCC_CFGR.
func peripheralClock(id Instance) uint32 {
	cfgr := stm32.RCC.CFGR.Get()
	ppre := (cfgr & stm32.RCC_CFGR_PPRE2_Msk) >> stm32.RCC_CFGR_PPRE2_Pos
	if id == InstanceUSART2 {
		ppre = (cfgr & stm32.RCC_CFGR_PPRE1_Msk) >> stm32.RCC_CFGR_PPRE1_Pos
	}
	return machine.CPUFrequency() >> apbShift(ppre)
}

// clearFlag clears rc_w0 status flags by writing zero to them and one to
// every other bit, so a flag raised after the last SR read survives.
func clearFlag(r *Regs, mask uint32) { r.SR.Set(^mask) }
