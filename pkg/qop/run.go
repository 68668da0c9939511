package qop

import (
	"context"

	"github.com/samcharles93/quill/internal/logger"
	"github.com/samcharles93/quill/pkg/threadpool"
)

// Run executes the operator over the tensors described by t, writing the
// full quantized output region implied by the resolved output geometry.
// Either every output element is written or an error is returned and the
// output contents are unspecified.
//
// Scale validation happens before anything is allocated; an invalid scale
// is rejected without touching the heap. A zero batch size is a valid
// no-op. A nil pool runs every tile on the calling goroutine.
func (d *Deconvolution) Run(ctx context.Context, t TensorArgs, pool *threadpool.Pool) error {
	if d.closed {
		return errClosed
	}
	if !isNormalPositive(t.InputScale) {
		return errInputScale
	}
	if !isNormalPositive(t.OutputScale) {
		return errOutputScale
	}
	if t.BatchSize == 0 {
		return nil
	}
	if t.BatchSize < 0 || t.InputHeight <= 0 || t.InputWidth <= 0 {
		return errTensorDims
	}

	inStride := t.inputPixelStride(d.p)
	outStride := t.outputPixelStride(d.p)
	if inStride < d.p.InputChannels() || outStride < d.p.OutputChannels() {
		return errPixelStride
	}

	outputHeight, outputWidth := d.p.OutputDims(t.InputHeight, t.InputWidth)
	if outputHeight <= 0 || outputWidth <= 0 {
		return errOutputDims
	}

	inputSize := t.BatchSize * t.InputHeight * t.InputWidth
	outputSize := outputHeight * outputWidth
	if len(t.Input) < (inputSize-1)*inStride+d.p.InputChannels() {
		return errInputBounds
	}
	if len(t.Output) < (t.BatchSize*outputSize-1)*outStride+d.p.OutputChannels() {
		return errOutputBounds
	}

	d.rq = computeRequantParams(
		t.InputZeroPoint,
		d.p.KernelZeroPoint,
		t.InputScale*d.p.KernelScale/t.OutputScale,
		t.OutputZeroPoint,
		d.p.OutputMin,
		d.p.OutputMax,
	)

	d.ensureZeroBuffer(t.InputZeroPoint)
	if err := d.ensureIndirection(t, outputHeight, outputWidth); err != nil {
		d.release()
		return err
	}

	logger.FromContext(ctx).Debug("deconv dispatch",
		"profile", d.profile.Name,
		"batch", t.BatchSize,
		"groups", d.p.Groups,
		"output_height", outputHeight,
		"output_width", outputWidth,
		"workers", pool.Size(),
	)

	var (
		rq              = d.rq
		ks              = d.p.kernelSize()
		gic             = d.p.GroupInputChannels
		goc             = d.p.GroupOutputChannels
		mr              = d.profile.MR
		nr              = d.profile.NR
		kStride         = d.p.kStride(d.profile)
		blockStride     = d.p.nrBlockStride(d.profile)
		groupStride     = d.p.packedGroupStride(d.profile)
		tiledOutputSize = roundUp(outputSize, mr)
		zero            = d.zeroRow()
	)

	threadpool.Compute4DTiled(pool, func(group, image, oStart, nStart, oRange, nRange int) {
		indBase := ((group*t.BatchSize+image)*tiledOutputSize + oStart) * ks
		wBase := group*groupStride + nStart/nr*blockStride
		outBase := (image*outputSize+oStart)*outStride + group*goc + nStart

		d.profile.Kernel(
			oRange, nRange, gic, ks,
			d.ind[indBase:indBase+ks*mr], mr,
			t.Input, zero,
			d.packedW[wBase:], kStride, nr,
			t.Output[outBase:], outStride,
			rq,
		)
	}, d.p.Groups, t.BatchSize, outputSize, goc, mr, nr)

	return nil
}
