package qop

import "testing"

func testProfile(mr, nr, kr int) TilingProfile {
	return TilingProfile{Name: "test", MR: mr, NR: nr, KR: kr, Kernel: convKernelGeneric}
}

// Exhaustively verifies the indirection table for a small geometry against
// the forward scatter relation: a slot may point into the input only when
// some input sample (iy, ix) scatters onto its output position through its
// kernel tap, i.e. oy = iy*stride - pad + ky*dilation (and likewise for x).
// Everything else, including inserted stride gaps and padding boundaries,
// must resolve to the zero-row sentinel.
func TestIndirectionExhaustiveSmallGeometry(t *testing.T) {
	p := ConvParams{
		KernelHeight: 3, KernelWidth: 3,
		StrideHeight: 2, StrideWidth: 2,
		DilationHeight: 1, DilationWidth: 1,
		PaddingTop: 1, PaddingLeft: 1, PaddingBottom: 1, PaddingRight: 1,
		Groups: 1, GroupInputChannels: 1, GroupOutputChannels: 1,
		KernelScale: 1, OutputMax: 255,
	}
	if err := p.Validate(); err != nil {
		t.Fatal(err)
	}

	const inH, inW = 4, 4
	args := TensorArgs{
		BatchSize:   1,
		InputHeight: inH,
		InputWidth:  inW,
	}

	d := &Deconvolution{p: p, profile: testProfile(2, 2, 1)}
	outH, outW := p.OutputDims(inH, inW)
	if err := d.ensureIndirection(args, outH, outW); err != nil {
		t.Fatal(err)
	}

	mr := d.profile.MR
	ks := p.kernelSize()
	outputSize := outH * outW
	tiledOutputSize := roundUp(outputSize, mr)
	if len(d.ind) != tiledOutputSize*ks {
		t.Fatalf("indirection table has %d slots, want %d", len(d.ind), tiledOutputSize*ks)
	}

	for tiledIndex := 0; tiledIndex < tiledOutputSize; tiledIndex++ {
		outputIndex := min(tiledIndex, outputSize-1)
		oy := outputIndex / outW
		ox := outputIndex % outW
		for ky := 0; ky < p.KernelHeight; ky++ {
			for kx := 0; kx < p.KernelWidth; kx++ {
				tileStart := tiledIndex / mr * mr
				tileOffset := tiledIndex % mr
				slot := tileStart*ks + (ky*p.KernelWidth+kx)*mr + tileOffset
				got := d.ind[slot]

				// Scan the input for a sample scattering onto (oy, ox)
				// through tap (ky, kx).
				want := zeroSlot
				for iy := 0; iy < inH; iy++ {
					for ix := 0; ix < inW; ix++ {
						if iy*p.StrideHeight-p.PaddingTop+ky*p.DilationHeight == oy &&
							ix*p.StrideWidth-p.PaddingLeft+kx*p.DilationWidth == ox {
							want = (iy*inW + ix) * p.InputChannels()
						}
					}
				}

				if got != want {
					t.Fatalf("output (%d,%d) tap (%d,%d): slot=%d, want %d", oy, ox, ky, kx, got, want)
				}
			}
		}
	}
}

// Rows beyond the true output size, present only because of mr rounding,
// must replicate the last real output position.
func TestIndirectionTilePaddingRows(t *testing.T) {
	p := ConvParams{
		KernelHeight: 3, KernelWidth: 3,
		StrideHeight: 2, StrideWidth: 2,
		DilationHeight: 1, DilationWidth: 1,
		Groups: 1, GroupInputChannels: 1, GroupOutputChannels: 1,
		KernelScale: 1, OutputMax: 255,
	}
	args := TensorArgs{BatchSize: 1, InputHeight: 3, InputWidth: 3}

	d := &Deconvolution{p: p, profile: testProfile(4, 4, 1)}
	outH, outW := p.OutputDims(3, 3) // 7x7 = 49 positions, tiled up to 52
	if err := d.ensureIndirection(args, outH, outW); err != nil {
		t.Fatal(err)
	}

	outputSize := outH * outW
	tiledOutputSize := roundUp(outputSize, d.profile.MR)
	ks := p.kernelSize()
	if tiledOutputSize == outputSize {
		t.Skip("geometry has no tile padding rows")
	}
	lastReal := outputSize - 1
	for tiledIndex := outputSize; tiledIndex < tiledOutputSize; tiledIndex++ {
		for tap := 0; tap < ks; tap++ {
			padSlot := tiledIndex/d.profile.MR*d.profile.MR*ks + tap*d.profile.MR + tiledIndex%d.profile.MR
			realSlot := lastReal/d.profile.MR*d.profile.MR*ks + tap*d.profile.MR + lastReal%d.profile.MR
			if d.ind[padSlot] != d.ind[realSlot] {
				t.Fatalf("padding row %d tap %d: slot %d does not replicate last output row", tiledIndex, tap, d.ind[padSlot])
			}
		}
	}
}

// With identical geometry the table is reused as-is; with a larger geometry
// it must be rebuilt and grown, not overwritten in place.
func TestIndirectionGeometryCache(t *testing.T) {
	p := ConvParams{
		KernelHeight: 2, KernelWidth: 2,
		StrideHeight: 2, StrideWidth: 2,
		DilationHeight: 1, DilationWidth: 1,
		Groups: 1, GroupInputChannels: 1, GroupOutputChannels: 1,
		KernelScale: 1, OutputMax: 255,
	}
	d := &Deconvolution{p: p, profile: testProfile(2, 2, 1)}

	small := TensorArgs{BatchSize: 1, InputHeight: 2, InputWidth: 2}
	outH, outW := p.OutputDims(2, 2)
	if err := d.ensureIndirection(small, outH, outW); err != nil {
		t.Fatal(err)
	}
	smallLen := len(d.ind)

	// Same geometry: no rebuild.
	d.ind[0] = -7
	if err := d.ensureIndirection(small, outH, outW); err != nil {
		t.Fatal(err)
	}
	if d.ind[0] != -7 {
		t.Fatal("identical geometry rebuilt the table")
	}

	// Larger geometry: the table grows and is rebuilt.
	large := TensorArgs{BatchSize: 2, InputHeight: 4, InputWidth: 4}
	outH, outW = p.OutputDims(4, 4)
	if err := d.ensureIndirection(large, outH, outW); err != nil {
		t.Fatal(err)
	}
	if len(d.ind) <= smallLen {
		t.Fatalf("table did not grow: %d -> %d", smallLen, len(d.ind))
	}
	if d.ind[0] == -7 {
		t.Fatal("larger geometry did not rebuild the table")
	}

	// Back to the small geometry: capacity is reused but entries rebuilt.
	outH, outW = p.OutputDims(2, 2)
	if err := d.ensureIndirection(small, outH, outW); err != nil {
		t.Fatal(err)
	}
	if len(d.ind) != smallLen {
		t.Fatalf("shrunk geometry has %d slots, want %d", len(d.ind), smallLen)
	}
}
