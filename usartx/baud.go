package usartx

// BaudDivisor computes the BRR mantissa and fraction for baud given the
// peripheral clock. The divisor is clock/(baud*8*(2-over8)); the fractional
// part is scaled by 16 and truncated.
func BaudDivisor(clockHz, baud uint32, over8 bool) (mantissa, fraction uint32) {
	if baud == 0 {
		return 0, 0
	}
	d := uint64(baud) * 16
	if over8 {
		d = uint64(baud) * 8
	}
	clk := uint64(clockHz)
	rem := clk % d
	return carryFraction(uint32(clk/d), uint32(rem*16/d))
}

// carryFraction keeps the fraction within four bits: a scaled fraction above
// 15 is zeroed and the mantissa incremented.
func carryFraction(mantissa, fraction uint32) (uint32, uint32) {
	if fraction > 15 {
		return mantissa + 1, 0
	}
	return mantissa, fraction
}

// apbShift decodes a three-bit RCC PPREx field into the right shift it
// applies to HCLK. Values below 0b100 leave the clock undivided.
func apbShift(ppre uint32) uint32 {
	if ppre&0b100 == 0 {
		return 0
	}
	return ppre&0b11 + 1
}

// brr packs the divisor into the BRR layout.
func brr(mantissa, fraction uint32) uint32 {
	return mantissa<<4 | fraction&0xF
}

// ActualBaud returns the baud rate a BRR value produces at clockHz.
func ActualBaud(clockHz, brrValue uint32, over8 bool) uint32 {
	mantissa, fraction := brrValue>>4, brrValue&0xF
	div16 := mantissa*16 + fraction // divisor in sixteenths
	if div16 == 0 {
		return 0
	}
	scale := uint64(16)
	if over8 {
		scale = 8
	}
	return uint32(uint64(clockHz) * 16 / (uint64(div16) * scale))
}
