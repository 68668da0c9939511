package qop

import "encoding/binary"

// convKernelGeneric is the portable reference microkernel. It walks the
// tile's indirection entries tap by tap, resolves each entry to an input row
// view or the shared zero row, and accumulates zero-point-corrected products
// into int32 before requantizing.
func convKernelGeneric(
	mr, nr, kc, ks int,
	ind []int, mrStride int,
	input, zero []uint8,
	w []byte, kStride, nrStride int,
	out []uint8, outStride int,
	rq RequantParams,
) {
	var acc [maxTileMR * maxTileNR]int32

	for n := 0; n < nr; n++ {
		bias := int32(binary.LittleEndian.Uint32(w[n*4:]))
		for m := 0; m < mr; m++ {
			acc[m*maxTileNR+n] = bias
		}
	}

	wRows := w[nrStride*4:]
	for tap := 0; tap < ks; tap++ {
		for m := 0; m < mr; m++ {
			row := zero
			if off := ind[tap*mrStride+m]; off >= 0 {
				row = input[off:]
			}
			accRow := acc[m*maxTileNR:]
			for n := 0; n < nr; n++ {
				wRow := wRows[(tap*nrStride+n)*kStride:]
				var sum int32
				for k := 0; k < kc; k++ {
					sum += (int32(row[k]) - rq.InputZeroPoint) * (int32(wRow[k]) - rq.KernelZeroPoint)
				}
				accRow[n] += sum
			}
		}
	}

	for m := 0; m < mr; m++ {
		o := out[m*outStride:]
		for n := 0; n < nr; n++ {
			o[n] = rq.requantize(acc[m*maxTileNR+n])
		}
	}
}
