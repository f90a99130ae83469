// Package fixpoint provides the fixed-point multiply primitives used by the
// FFT and correlation kernels.
//
// Both variants compute the high-order bits of the full double-width product,
// shifted so the result fits back into the operand width, with round-to-nearest
// applied using the bit immediately below the truncation point. Plain
// truncation would bias every butterfly stage downward; the rounding bit keeps
// the accumulated error centered.
//
// Multiplying the most negative value by itself wraps; callers keep operands a
// bit below full scale.
package fixpoint

// Mul32 multiplies two Q1.30 fixed-point values and rescales the result to
// 32 bits. The product is shifted right by one less than the scale (30), the
// shifted-out bit is kept as a rounding bit, and the final shift adds it back.
func Mul32(a, b int32) int32 {
	c := (int64(a) * int64(b)) >> 30
	r := c & 0x01
	return int32((c >> 1) + r)
}

// Mul16 is the 16-bit counterpart of Mul32 with a Q1.14 scale.
func Mul16(a, b int16) int16 {
	c := (int32(a) * int32(b)) >> 14
	r := c & 0x01
	return int16((c >> 1) + r)
}
