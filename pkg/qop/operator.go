// Package qop implements quantized neural-network compute operators over
// 8-bit affine-quantized tensors. The only operator so far is the
// transposed convolution ("deconvolution"): a gather-based, tiled,
// quantization-correct rendition that substitutes an indirection table for
// an explicit im2col copy.
package qop

import "fmt"

// vectorWidth is the widest contiguous read the microkernel may issue from
// a gather row. The zero buffer grows a head of this size when a group has
// fewer input channels.
const vectorWidth = 8

// zeroSlot marks an indirection entry whose gather row is the zero buffer:
// the logical input coordinate is padding, out of bounds, or an inserted
// stride gap.
const zeroSlot = -1

type geometryKey struct {
	batchSize   int
	inputHeight int
	inputWidth  int
	pixelStride int
}

// Deconvolution is a reusable transposed-convolution operator instance. It
// owns its zero buffer and indirection table; packed weights and the
// per-call tensors are borrowed and never freed. A Deconvolution is not
// safe for concurrent Run calls, but a single Run fans tiles out across a
// worker pool.
type Deconvolution struct {
	p       ConvParams
	profile TilingProfile
	packedW []byte

	rq RequantParams

	zero    []uint8
	zeroOff int
	zeroZP  uint8

	ind          []int
	geom         geometryKey
	geomValid    bool
	outputHeight int
	outputWidth  int

	closed bool
}

// NewDeconvolution creates an operator for the given geometry over an
// externally packed weight blob (see PackWeights). A zero-valued profile
// selects the detected hardware tiling profile.
func NewDeconvolution(p ConvParams, packedWeights []byte, profile TilingProfile) (*Deconvolution, error) {
	if profile.Kernel == nil && profile.MR == 0 && profile.NR == 0 && profile.KR == 0 {
		profile = DetectTilingProfile()
	}
	want, err := PackedWeightsSize(p, profile)
	if err != nil {
		return nil, err
	}
	if len(packedWeights) != want {
		return nil, fmt.Errorf("%w: packed weights are %d bytes, geometry wants %d", ErrInvalidParameter, len(packedWeights), want)
	}
	return &Deconvolution{
		p:       p,
		profile: profile,
		packedW: packedWeights,
	}, nil
}

// Params returns the operator's immutable descriptor.
func (d *Deconvolution) Params() ConvParams { return d.p }

// Profile returns the tiling profile the operator runs with.
func (d *Deconvolution) Profile() TilingProfile { return d.profile }

// Close releases the operator's buffers. The packed weights are borrowed
// and remain the caller's. Run on a closed operator fails.
func (d *Deconvolution) Close() error {
	d.release()
	d.closed = true
	return nil
}

// release drops both owned buffers together, whether on Close or on a
// failed call that left partial state.
func (d *Deconvolution) release() {
	d.zero = nil
	d.zeroOff = 0
	d.ind = nil
	d.geomValid = false
}

// zeroRow returns the usable view of the zero buffer, past the alignment
// head.
func (d *Deconvolution) zeroRow() []uint8 { return d.zero[d.zeroOff:] }

// ensureZeroBuffer sizes the sentinel row to the kr-rounded group input
// channel count and fills it with the input zero point. Groups narrower
// than the vector width get an extra head so a vector read starting at the
// usable pointer stays inside the allocation.
func (d *Deconvolution) ensureZeroBuffer(inputZeroPoint uint8) {
	if d.zero != nil && d.zeroZP == inputZeroPoint {
		return
	}
	if d.zero == nil {
		size := d.p.kStride(d.profile)
		if d.p.GroupInputChannels < vectorWidth {
			size += vectorWidth
			d.zeroOff = vectorWidth
		}
		d.zero = make([]uint8, size)
	}
	for i := range d.zero {
		d.zero[i] = inputZeroPoint
	}
	d.zeroZP = inputZeroPoint
}
