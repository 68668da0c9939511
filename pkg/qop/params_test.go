package qop

import (
	"errors"
	"math"
	"testing"
)

func TestConvParamsValidate(t *testing.T) {
	valid := ConvParams{
		KernelHeight: 3, KernelWidth: 3,
		StrideHeight: 2, StrideWidth: 2,
		DilationHeight: 1, DilationWidth: 1,
		AdjustmentHeight: 1,
		Groups: 2, GroupInputChannels: 4, GroupOutputChannels: 8,
		KernelScale: 0.5, OutputMin: 0, OutputMax: 255,
	}
	if err := valid.Validate(); err != nil {
		t.Fatal(err)
	}

	mutate := map[string]func(*ConvParams){
		"zero kernel":         func(p *ConvParams) { p.KernelWidth = 0 },
		"zero stride":         func(p *ConvParams) { p.StrideHeight = 0 },
		"zero dilation":       func(p *ConvParams) { p.DilationWidth = 0 },
		"negative padding":    func(p *ConvParams) { p.PaddingLeft = -1 },
		"adjustment==stride":  func(p *ConvParams) { p.AdjustmentWidth = 2 },
		"negative adjustment": func(p *ConvParams) { p.AdjustmentHeight = -1 },
		"zero groups":         func(p *ConvParams) { p.Groups = 0 },
		"zero channels":       func(p *ConvParams) { p.GroupInputChannels = 0 },
		"zero kernel scale":   func(p *ConvParams) { p.KernelScale = 0 },
		"nan kernel scale":    func(p *ConvParams) { p.KernelScale = float32(math.NaN()) },
		"inverted clamp":      func(p *ConvParams) { p.OutputMin = 200; p.OutputMax = 100 },
	}
	for name, f := range mutate {
		p := valid
		f(&p)
		if err := p.Validate(); !errors.Is(err, ErrInvalidParameter) {
			t.Errorf("%s: got %v, want ErrInvalidParameter", name, err)
		}
	}
}

func TestChannelCounts(t *testing.T) {
	p := ConvParams{Groups: 3, GroupInputChannels: 4, GroupOutputChannels: 5}
	if got := p.InputChannels(); got != 12 {
		t.Errorf("InputChannels() = %d, want 12", got)
	}
	if got := p.OutputChannels(); got != 15 {
		t.Errorf("OutputChannels() = %d, want 15", got)
	}
}

func TestPixelStrideDefaults(t *testing.T) {
	p := ConvParams{Groups: 2, GroupInputChannels: 3, GroupOutputChannels: 4}
	var args TensorArgs
	if got := args.inputPixelStride(p); got != 6 {
		t.Errorf("default input pixel stride = %d, want 6", got)
	}
	if got := args.outputPixelStride(p); got != 8 {
		t.Errorf("default output pixel stride = %d, want 8", got)
	}
	args.InputPixelStride = 10
	args.OutputPixelStride = 11
	if got := args.inputPixelStride(p); got != 10 {
		t.Errorf("explicit input pixel stride = %d, want 10", got)
	}
	if got := args.outputPixelStride(p); got != 11 {
		t.Errorf("explicit output pixel stride = %d, want 11", got)
	}
}

func TestDetectTilingProfile(t *testing.T) {
	tp := DetectTilingProfile()
	if !tp.valid() {
		t.Fatalf("detected profile %+v is not valid", tp)
	}
	if tp.Name == "" {
		t.Fatal("detected profile has no name")
	}
}
