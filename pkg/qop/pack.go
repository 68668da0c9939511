package qop

import (
	"encoding/binary"
	"fmt"
)

// Packed weight layout, per group and per nr-block of output channels:
//
//	nr × int32 little-endian bias words
//	ks × nr rows of kStride weight bytes, kernel-tap major
//
// Output channels beyond the group count and input channels beyond kc are
// padded with the kernel zero point so they accumulate to exactly zero.

func roundUp(n, multiple int) int {
	return (n + multiple - 1) / multiple * multiple
}

func (p ConvParams) kStride(tp TilingProfile) int {
	return roundUp(p.GroupInputChannels, tp.KR)
}

func (p ConvParams) nStride(tp TilingProfile) int {
	return roundUp(p.GroupOutputChannels, tp.NR)
}

func (p ConvParams) nrBlockStride(tp TilingProfile) int {
	return tp.NR*4 + p.kernelSize()*tp.NR*p.kStride(tp)
}

func (p ConvParams) packedGroupStride(tp TilingProfile) int {
	return p.nStride(tp) / tp.NR * p.nrBlockStride(tp)
}

// PackedWeightsSize returns the byte size of the packed weight blob for the
// given geometry and tiling profile.
func PackedWeightsSize(p ConvParams, tp TilingProfile) (int, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	if !tp.valid() {
		return 0, fmt.Errorf("%w: tiling profile %+v", ErrInvalidParameter, tp)
	}
	size, ok := mulInt(p.Groups, p.packedGroupStride(tp))
	if !ok {
		return 0, fmt.Errorf("%w: packed weights for %d groups", ErrBufferTooLarge, p.Groups)
	}
	return size, nil
}

// PackWeights packs kernel weights and biases into the blocked layout the
// microkernel consumes. kernel is laid out
// [groups][groupOutputChannels][kernelHeight][kernelWidth][groupInputChannels]
// and bias holds one int32 per output channel; a nil bias means all zeros.
func PackWeights(p ConvParams, tp TilingProfile, kernel []uint8, bias []int32) ([]byte, error) {
	size, err := PackedWeightsSize(p, tp)
	if err != nil {
		return nil, err
	}
	wantKernel := p.Groups * p.GroupOutputChannels * p.kernelSize() * p.GroupInputChannels
	if len(kernel) != wantKernel {
		return nil, fmt.Errorf("%w: kernel has %d elements, geometry wants %d", ErrInvalidParameter, len(kernel), wantKernel)
	}
	if bias != nil && len(bias) != p.OutputChannels() {
		return nil, fmt.Errorf("%w: bias has %d elements, geometry wants %d", ErrInvalidParameter, len(bias), p.OutputChannels())
	}

	ks := p.kernelSize()
	gic := p.GroupInputChannels
	goc := p.GroupOutputChannels
	kStride := p.kStride(tp)
	blockStride := p.nrBlockStride(tp)

	packed := make([]byte, size)
	for i := range packed {
		packed[i] = p.KernelZeroPoint
	}

	for g := 0; g < p.Groups; g++ {
		groupBase := g * p.packedGroupStride(tp)
		for n0 := 0; n0 < goc; n0 += tp.NR {
			block := packed[groupBase+n0/tp.NR*blockStride:]
			for n := 0; n < tp.NR && n0+n < goc; n++ {
				var b int32
				if bias != nil {
					b = bias[g*goc+n0+n]
				}
				binary.LittleEndian.PutUint32(block[n*4:], uint32(b))
			}
			// Bias words for padded output channels must be zero, not the
			// zero-point fill.
			for n := goc - n0; n < tp.NR; n++ {
				binary.LittleEndian.PutUint32(block[n*4:], 0)
			}
			for tap := 0; tap < ks; tap++ {
				for n := 0; n < tp.NR && n0+n < goc; n++ {
					src := ((g*goc+n0+n)*ks + tap) * gic
					dst := tp.NR*4 + (tap*tp.NR+n)*kStride
					copy(block[dst:dst+gic], kernel[src:src+gic])
				}
			}
		}
	}
	return packed, nil
}
