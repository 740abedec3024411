package xls

import "math"

// RKValue decodes an RK number. Bit 1 selects a 30-bit signed integer over
// the high 30 bits of an IEEE double; bit 0 divides the result by 100.
func RKValue(raw uint32) float64 {
	var v float64
	if raw&0x02 != 0 {
		v = float64(int32(raw) >> 2)
	} else {
		v = math.Float64frombits(uint64(raw&^0x03) << 32)
	}
	if raw&0x01 != 0 {
		v /= 100
	}
	return v
}
