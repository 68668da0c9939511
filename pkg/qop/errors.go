package qop

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidParameter reports a caller error in the operator descriptor
	// or the per-call tensor arguments. It is returned before any buffer is
	// allocated.
	ErrInvalidParameter = errors.New("qop: invalid parameter")
	// ErrBufferTooLarge reports that a derived buffer size overflows the
	// address space. It is the detectable analogue of an allocation failure.
	ErrBufferTooLarge = errors.New("qop: buffer too large")
)

// Validation errors are built once so the rejection path performs no heap
// allocation.
var (
	errInputScale   = fmt.Errorf("%w: input scale must be finite and positive", ErrInvalidParameter)
	errOutputScale  = fmt.Errorf("%w: output scale must be finite and positive", ErrInvalidParameter)
	errInputBounds  = fmt.Errorf("%w: input tensor shorter than described geometry", ErrInvalidParameter)
	errOutputBounds = fmt.Errorf("%w: output tensor shorter than resolved geometry", ErrInvalidParameter)
	errOutputDims   = fmt.Errorf("%w: resolved output dimensions are not positive", ErrInvalidParameter)
	errTensorDims   = fmt.Errorf("%w: batch size must be non-negative and input dimensions positive", ErrInvalidParameter)
	errPixelStride  = fmt.Errorf("%w: pixel stride smaller than channel count", ErrInvalidParameter)
	errClosed       = fmt.Errorf("%w: operator is closed", ErrInvalidParameter)
)

func mulInt(a, b int) (int, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if a > int(^uint(0)>>1)/b {
		return 0, false
	}
	return a * b, true
}

func addInt(a, b int) (int, bool) {
	if a > int(^uint(0)>>1)-b {
		return 0, false
	}
	return a + b, true
}
