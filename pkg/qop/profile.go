package qop

import "golang.org/x/sys/cpu"

// Blocking factors never exceed these; the reference kernel keeps its
// accumulators in fixed-size stack arrays sized by them.
const (
	maxTileMR = 8
	maxTileNR = 8
	maxTileKR = 8
)

// ConvKernel computes one mr×nr output tile of an indirect quantized
// convolution.
//
// ind holds ks*mrStride row entries for this tile, tap-major: entry
// [tap*mrStride+m] is the byte offset of output row m's gather row for
// kernel tap `tap`, or zeroSlot when that row must read the zero buffer.
// w is the packed block for this tile's output-channel range: nrStride
// int32 biases followed by tap-major weight rows of kStride bytes (see
// pack.go). out points at the tile's first output element and advances by
// outStride elements per output row.
type ConvKernel func(
	mr, nr, kc, ks int,
	ind []int, mrStride int,
	input, zero []uint8,
	w []byte, kStride, nrStride int,
	out []uint8, outStride int,
	rq RequantParams,
)

// TilingProfile is the hardware blocking configuration of the microkernel:
// mr output rows and nr output channels per tile, input channels rounded to
// kr. It is resolved once at startup and injected into every operator
// instead of living in ambient global state.
type TilingProfile struct {
	Name string

	MR int
	NR int
	KR int

	Kernel ConvKernel
}

func (tp TilingProfile) valid() bool {
	return tp.MR > 0 && tp.MR <= maxTileMR &&
		tp.NR > 0 && tp.NR <= maxTileNR &&
		tp.KR > 0 && tp.KR <= maxTileKR &&
		tp.Kernel != nil
}

// DetectTilingProfile picks blocking factors for the running CPU. The
// kernel itself is portable Go; only the tile shape follows the hardware
// vector width.
func DetectTilingProfile() TilingProfile {
	switch {
	case cpu.X86.HasAVX2:
		return TilingProfile{Name: "avx2", MR: 4, NR: 8, KR: 2, Kernel: convKernelGeneric}
	case cpu.X86.HasSSE2:
		return TilingProfile{Name: "sse2", MR: 4, NR: 4, KR: 2, Kernel: convKernelGeneric}
	case cpu.ARM64.HasASIMD:
		return TilingProfile{Name: "neon", MR: 8, NR: 8, KR: 1, Kernel: convKernelGeneric}
	default:
		return TilingProfile{Name: "generic", MR: 4, NR: 4, KR: 1, Kernel: convKernelGeneric}
	}
}
