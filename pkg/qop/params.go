package qop

import "fmt"

// ConvParams is the immutable geometry and quantization metadata of one
// transposed-convolution operator. All dimensions are in elements; padding
// is specified per side of the logical input.
type ConvParams struct {
	KernelHeight int
	KernelWidth  int

	StrideHeight int
	StrideWidth  int

	DilationHeight int
	DilationWidth  int

	PaddingTop    int
	PaddingLeft   int
	PaddingBottom int
	PaddingRight  int

	// Adjustment is the extra trailing output size beyond the exact
	// inverse-stride result. Must be smaller than the stride on each axis,
	// otherwise the forward convolution cannot reproduce the input size.
	AdjustmentHeight int
	AdjustmentWidth  int

	Groups              int
	GroupInputChannels  int
	GroupOutputChannels int

	KernelZeroPoint uint8
	KernelScale     float32

	// Output clamp bounds in the quantized domain.
	OutputMin uint8
	OutputMax uint8
}

// InputChannels returns the total input channel count across groups.
func (p ConvParams) InputChannels() int { return p.Groups * p.GroupInputChannels }

// OutputChannels returns the total output channel count across groups.
func (p ConvParams) OutputChannels() int { return p.Groups * p.GroupOutputChannels }

func (p ConvParams) kernelSize() int { return p.KernelHeight * p.KernelWidth }

// Validate checks the descriptor invariants: positive kernel, stride and
// dilation, non-negative padding, adjustment below stride, positive group
// and channel counts, a normal positive kernel scale and ordered clamp
// bounds.
func (p ConvParams) Validate() error {
	if p.KernelHeight <= 0 || p.KernelWidth <= 0 {
		return fmt.Errorf("%w: kernel %dx%d must be positive", ErrInvalidParameter, p.KernelHeight, p.KernelWidth)
	}
	if p.StrideHeight <= 0 || p.StrideWidth <= 0 {
		return fmt.Errorf("%w: stride %dx%d must be positive", ErrInvalidParameter, p.StrideHeight, p.StrideWidth)
	}
	if p.DilationHeight <= 0 || p.DilationWidth <= 0 {
		return fmt.Errorf("%w: dilation %dx%d must be positive", ErrInvalidParameter, p.DilationHeight, p.DilationWidth)
	}
	if p.PaddingTop < 0 || p.PaddingLeft < 0 || p.PaddingBottom < 0 || p.PaddingRight < 0 {
		return fmt.Errorf("%w: padding must not be negative", ErrInvalidParameter)
	}
	if p.AdjustmentHeight < 0 || p.AdjustmentHeight >= p.StrideHeight ||
		p.AdjustmentWidth < 0 || p.AdjustmentWidth >= p.StrideWidth {
		return fmt.Errorf("%w: adjustment %dx%d must be in [0, stride)", ErrInvalidParameter, p.AdjustmentHeight, p.AdjustmentWidth)
	}
	if p.Groups <= 0 || p.GroupInputChannels <= 0 || p.GroupOutputChannels <= 0 {
		return fmt.Errorf("%w: groups and per-group channel counts must be positive", ErrInvalidParameter)
	}
	if !isNormalPositive(p.KernelScale) {
		return fmt.Errorf("%w: kernel scale must be finite and positive, got %v", ErrInvalidParameter, p.KernelScale)
	}
	if p.OutputMin > p.OutputMax {
		return fmt.Errorf("%w: output clamp bounds [%d, %d] are inverted", ErrInvalidParameter, p.OutputMin, p.OutputMax)
	}
	return nil
}

// TensorArgs carries the per-invocation tensor description: shapes, affine
// quantization parameters and the borrowed input/output slices. The operator
// never retains or frees them.
type TensorArgs struct {
	BatchSize   int
	InputHeight int
	InputWidth  int

	InputScale     float32
	InputZeroPoint uint8
	Input          []uint8
	// InputPixelStride is the element distance between two adjacent input
	// pixels. Zero means densely packed (total input channel count).
	InputPixelStride int

	OutputScale     float32
	OutputZeroPoint uint8
	Output          []uint8
	// OutputPixelStride mirrors InputPixelStride for the output tensor.
	OutputPixelStride int
}

func (t TensorArgs) inputPixelStride(p ConvParams) int {
	if t.InputPixelStride > 0 {
		return t.InputPixelStride
	}
	return p.InputChannels()
}

func (t TensorArgs) outputPixelStride(p ConvParams) int {
	if t.OutputPixelStride > 0 {
		return t.OutputPixelStride
	}
	return p.OutputChannels()
}
