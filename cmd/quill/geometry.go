package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/quill/pkg/qop"
)

func geometryCmd() *cli.Command {
	var (
		inputHeight int64
		inputWidth  int64
		kernel      int64
		stride      int64
		dilation    int64
		padding     int64
		adjustment  int64
	)

	return &cli.Command{
		Name:  "geometry",
		Usage: "Resolve transposed-convolution output dimensions",
		Flags: []cli.Flag{
			&cli.Int64Flag{Name: "input-height", Aliases: []string{"ih"}, Usage: "input height", Required: true, Destination: &inputHeight},
			&cli.Int64Flag{Name: "input-width", Aliases: []string{"iw"}, Usage: "input width", Required: true, Destination: &inputWidth},
			&cli.Int64Flag{Name: "kernel", Aliases: []string{"k"}, Usage: "kernel size", Value: 3, Destination: &kernel},
			&cli.Int64Flag{Name: "stride", Aliases: []string{"s"}, Usage: "stride", Value: 1, Destination: &stride},
			&cli.Int64Flag{Name: "dilation", Aliases: []string{"d"}, Usage: "dilation", Value: 1, Destination: &dilation},
			&cli.Int64Flag{Name: "padding", Aliases: []string{"p"}, Usage: "padding per side", Destination: &padding},
			&cli.Int64Flag{Name: "adjustment", Aliases: []string{"a"}, Usage: "output adjustment", Destination: &adjustment},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			p := qop.ConvParams{
				KernelHeight:        int(kernel),
				KernelWidth:         int(kernel),
				StrideHeight:        int(stride),
				StrideWidth:         int(stride),
				DilationHeight:      int(dilation),
				DilationWidth:       int(dilation),
				PaddingTop:          int(padding),
				PaddingLeft:         int(padding),
				PaddingBottom:       int(padding),
				PaddingRight:        int(padding),
				AdjustmentHeight:    int(adjustment),
				AdjustmentWidth:     int(adjustment),
				Groups:              1,
				GroupInputChannels:  1,
				GroupOutputChannels: 1,
				KernelScale:         1,
				OutputMax:           255,
			}
			if err := p.Validate(); err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			outH, outW := p.OutputDims(int(inputHeight), int(inputWidth))
			if outH <= 0 || outW <= 0 {
				return cli.Exit(fmt.Sprintf("error: geometry resolves to %dx%d", outH, outW), 1)
			}
			fmt.Printf("input:  %d x %d\n", inputHeight, inputWidth)
			fmt.Printf("output: %d x %d\n", outH, outW)
			return nil
		},
	}
}
