package qop

// outputDim resolves one output axis of a transposed convolution. The same
// function feeds the indirection builder, buffer sizing and the public
// OutputDims helper; the gather addresses are only correct when every
// consumer agrees on this formula.
func outputDim(in, stride, padTotal, dilation, kernel, adjustment int) int {
	return (in-1)*stride - padTotal + dilation*(kernel-1) + 1 + adjustment
}

// forwardDim is the forward-convolution inverse of outputDim: feeding a
// resolved output dimension through it reproduces the input dimension as
// long as the adjustment stays below the stride.
func forwardDim(in, stride, padTotal, dilation, kernel int) int {
	effective := dilation*(kernel-1) + 1
	return (in+padTotal-effective)/stride + 1
}

// OutputDims resolves the output spatial dimensions for the given input
// size. Callers use it to size the output tensor before invoking Run.
func (p ConvParams) OutputDims(inputHeight, inputWidth int) (outputHeight, outputWidth int) {
	outputHeight = outputDim(inputHeight, p.StrideHeight, p.PaddingTop+p.PaddingBottom,
		p.DilationHeight, p.KernelHeight, p.AdjustmentHeight)
	outputWidth = outputDim(inputWidth, p.StrideWidth, p.PaddingLeft+p.PaddingRight,
		p.DilationWidth, p.KernelWidth, p.AdjustmentWidth)
	return outputHeight, outputWidth
}
