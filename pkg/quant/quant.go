// Package quant provides affine uint8 quantization: mapping real-valued
// tensors onto the 8-bit grid q = round(x/scale) + zeroPoint and back.
package quant

import "math"

// Affine is one per-tensor quantization mapping. Scale must be positive;
// the zero point is the quantized value that represents real zero exactly.
type Affine struct {
	Scale     float32
	ZeroPoint uint8
}

// ChooseAffine derives the mapping that covers [min, max] with the full
// uint8 range. The interval is widened to include zero so that zero padding
// is exactly representable. A degenerate interval yields unit scale.
func ChooseAffine(min, max float32) Affine {
	if min > 0 {
		min = 0
	}
	if max < 0 {
		max = 0
	}
	scale := (max - min) / 255
	if scale <= 0 {
		return Affine{Scale: 1, ZeroPoint: 0}
	}
	zp := math.RoundToEven(float64(-min) / float64(scale))
	if zp < 0 {
		zp = 0
	}
	if zp > 255 {
		zp = 255
	}
	return Affine{Scale: scale, ZeroPoint: uint8(zp)}
}

// Quantize maps a real value onto the 8-bit grid, rounding ties to even and
// saturating at the range ends.
func (a Affine) Quantize(x float32) uint8 {
	q := math.RoundToEven(float64(x)/float64(a.Scale)) + float64(a.ZeroPoint)
	if q < 0 {
		return 0
	}
	if q > 255 {
		return 255
	}
	return uint8(q)
}

// Dequantize maps a quantized value back to its real representative.
func (a Affine) Dequantize(q uint8) float32 {
	return a.Scale * float32(int32(q)-int32(a.ZeroPoint))
}

// QuantizeSlice quantizes src into dst, which must be at least as long.
func (a Affine) QuantizeSlice(dst []uint8, src []float32) {
	for i, x := range src {
		dst[i] = a.Quantize(x)
	}
}

// DequantizeSlice dequantizes src into dst, which must be at least as long.
func (a Affine) DequantizeSlice(dst []float32, src []uint8) {
	for i, q := range src {
		dst[i] = a.Dequantize(q)
	}
}

// Observe returns the min and max of xs, for feeding ChooseAffine. An empty
// slice observes the zero-only range.
func Observe(xs []float32) (min, max float32) {
	if len(xs) == 0 {
		return 0, 0
	}
	min, max = xs[0], xs[0]
	for _, x := range xs[1:] {
		if x < min {
			min = x
		}
		if x > max {
			max = x
		}
	}
	return min, max
}
