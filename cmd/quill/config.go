package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/samcharles93/quill/pkg/qop"
)

// BenchCase is one benchmark geometry from a case file. Square kernels,
// strides and paddings keep the file format compact; asymmetric shapes are
// exercised by the package tests, not the benchmark harness.
type BenchCase struct {
	Name        string `yaml:"name"`
	Batch       int    `yaml:"batch"`
	InputHeight int    `yaml:"input_height"`
	InputWidth  int    `yaml:"input_width"`
	Kernel      int    `yaml:"kernel"`
	Stride      int    `yaml:"stride"`
	Dilation    int    `yaml:"dilation"`
	Padding     int    `yaml:"padding"`
	Adjustment  int    `yaml:"adjustment"`
	Groups      int    `yaml:"groups"`
	// Per-group channel counts.
	InputChannels  int `yaml:"input_channels"`
	OutputChannels int `yaml:"output_channels"`
}

type benchCaseFile struct {
	Cases []BenchCase `yaml:"cases"`
}

func (c BenchCase) convParams() qop.ConvParams {
	dilation := c.Dilation
	if dilation == 0 {
		dilation = 1
	}
	groups := c.Groups
	if groups == 0 {
		groups = 1
	}
	return qop.ConvParams{
		KernelHeight:        c.Kernel,
		KernelWidth:         c.Kernel,
		StrideHeight:        c.Stride,
		StrideWidth:         c.Stride,
		DilationHeight:      dilation,
		DilationWidth:       dilation,
		PaddingTop:          c.Padding,
		PaddingLeft:         c.Padding,
		PaddingBottom:       c.Padding,
		PaddingRight:        c.Padding,
		AdjustmentHeight:    c.Adjustment,
		AdjustmentWidth:     c.Adjustment,
		Groups:              groups,
		GroupInputChannels:  c.InputChannels,
		GroupOutputChannels: c.OutputChannels,
		// KernelScale and KernelZeroPoint are filled in from the generated
		// weight distribution before the operator is built.
		KernelScale: 1.0 / 128,
		OutputMin:   0,
		OutputMax:   255,
	}
}

func loadCases(path string) ([]BenchCase, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read case file: %w", err)
	}
	var file benchCaseFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse case file %q: %w", path, err)
	}
	if len(file.Cases) == 0 {
		return nil, fmt.Errorf("case file %q contains no cases", path)
	}
	return file.Cases, nil
}

// defaultCases covers typical decoder/upsampler shapes.
func defaultCases() []BenchCase {
	return []BenchCase{
		{Name: "upsample-2x-64c", Batch: 1, InputHeight: 32, InputWidth: 32, Kernel: 4, Stride: 2, Padding: 1, InputChannels: 64, OutputChannels: 64},
		{Name: "upsample-2x-128c", Batch: 1, InputHeight: 16, InputWidth: 16, Kernel: 4, Stride: 2, Padding: 1, InputChannels: 128, OutputChannels: 128},
		{Name: "grouped-3x3", Batch: 4, InputHeight: 28, InputWidth: 28, Kernel: 3, Stride: 2, Padding: 1, Adjustment: 1, Groups: 4, InputChannels: 16, OutputChannels: 16},
		{Name: "dilated-5x5", Batch: 1, InputHeight: 24, InputWidth: 24, Kernel: 5, Stride: 1, Dilation: 2, Padding: 2, InputChannels: 32, OutputChannels: 32},
	}
}
