package qop

// The indirection table replaces an explicit image-to-column copy. One
// entry per (batch, group, kernel-tap, tile-rounded output position) holds
// the byte offset of the input row the microkernel should gather, or
// zeroSlot. Entries are offsets into the borrowed input slice rather than
// addresses, so a later call with different data but identical geometry
// reuses the table untouched.

// ensureIndirection sizes and rebuilds the table when the cached geometry
// changes. The backing slice only grows; a smaller later geometry reuses
// the existing capacity.
func (d *Deconvolution) ensureIndirection(t TensorArgs, outputHeight, outputWidth int) error {
	key := geometryKey{
		batchSize:   t.BatchSize,
		inputHeight: t.InputHeight,
		inputWidth:  t.InputWidth,
		pixelStride: t.inputPixelStride(d.p),
	}
	if d.geomValid && key == d.geom {
		return nil
	}

	tiledOutputSize := roundUp(outputHeight*outputWidth, d.profile.MR)
	size, ok := mulInt(t.BatchSize, d.p.Groups)
	if ok {
		size, ok = mulInt(size, tiledOutputSize)
	}
	if ok {
		size, ok = mulInt(size, d.p.kernelSize())
	}
	if !ok {
		return ErrBufferTooLarge
	}

	if cap(d.ind) < size {
		d.ind = make([]int, size)
	} else {
		d.ind = d.ind[:size]
	}
	d.buildIndirection(t, outputHeight, outputWidth, tiledOutputSize)

	d.geom = key
	d.geomValid = true
	d.outputHeight = outputHeight
	d.outputWidth = outputWidth
	return nil
}

// buildIndirection fills the table by inverting the transposed-convolution
// mapping for every output position and kernel tap.
//
// For output position (oy, ox) and tap (ky, kx), the contributing input
// sample satisfies
//
//	oy = iy*strideH - padTop + ky*dilationH
//
// so iy = (oy + padTop - ky*dilationH) / strideH, and the tap contributes
// only when that division is exact: a remainder means the position falls in
// a gap inserted by the upsampling stride, which reads zeros just like
// out-of-bounds padding does. Coordinates on the padding boundary resolve
// negative and are rejected, never clamped to index 0.
//
// Output rows padded by mr-rounding replicate the last real output index so
// trailing tile reads stay on valid rows; the driver never writes them.
func (d *Deconvolution) buildIndirection(t TensorArgs, outputHeight, outputWidth, tiledOutputSize int) {
	p := d.p
	mr := d.profile.MR
	ks := p.kernelSize()
	outputSize := outputHeight * outputWidth
	pixelStride := t.inputPixelStride(p)

	for group := 0; group < p.Groups; group++ {
		channelBase := group * p.GroupInputChannels
		for image := 0; image < t.BatchSize; image++ {
			base := (group*t.BatchSize + image) * tiledOutputSize * ks
			for tileStart := 0; tileStart < tiledOutputSize; tileStart += mr {
				for tileOffset := 0; tileOffset < mr; tileOffset++ {
					outputIndex := min(tileStart+tileOffset, outputSize-1)
					oy := outputIndex / outputWidth
					ox := outputIndex % outputWidth
					for ky := 0; ky < p.KernelHeight; ky++ {
						y := oy + p.PaddingTop - ky*p.DilationHeight
						for kx := 0; kx < p.KernelWidth; kx++ {
							x := ox + p.PaddingLeft - kx*p.DilationWidth
							slot := base + tileStart*ks + (ky*p.KernelWidth+kx)*mr + tileOffset

							if y >= 0 && x >= 0 && y%p.StrideHeight == 0 && x%p.StrideWidth == 0 {
								iy := y / p.StrideHeight
								ix := x / p.StrideWidth
								if iy < t.InputHeight && ix < t.InputWidth {
									d.ind[slot] = ((image*t.InputHeight+iy)*t.InputWidth+ix)*pixelStride + channelBase
									continue
								}
							}
							d.ind[slot] = zeroSlot
						}
					}
				}
			}
		}
	}
}
