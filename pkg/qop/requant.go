package qop

import "math"

// RequantParams maps accumulated int32 sums back into the 8-bit output
// domain. It is computed once per call and consumed unmodified by the
// microkernel.
type RequantParams struct {
	InputZeroPoint  int32
	KernelZeroPoint int32
	OutputZeroPoint int32

	// Scale is the combined requantization scale,
	// inputScale * kernelScale / outputScale.
	Scale float32

	Min uint8
	Max uint8
}

func computeRequantParams(inputZP, kernelZP uint8, scale float32, outputZP, min, max uint8) RequantParams {
	return RequantParams{
		InputZeroPoint:  int32(inputZP),
		KernelZeroPoint: int32(kernelZP),
		OutputZeroPoint: int32(outputZP),
		Scale:           scale,
		Min:             min,
		Max:             max,
	}
}

// requantize scales an accumulated sum into the output domain, rounding ties
// to even, then shifts by the output zero point and clamps.
func (rq RequantParams) requantize(acc int32) uint8 {
	v := int32(math.RoundToEven(float64(rq.Scale)*float64(acc))) + rq.OutputZeroPoint
	if v < int32(rq.Min) {
		v = int32(rq.Min)
	}
	if v > int32(rq.Max) {
		v = int32(rq.Max)
	}
	return uint8(v)
}

// isNormalPositive reports whether s is a positive normal float32: not zero,
// subnormal, negative, infinite or NaN.
func isNormalPositive(s float32) bool {
	exp := math.Float32bits(s) >> 23
	return exp > 0 && exp < 0xFF
}
