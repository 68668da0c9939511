package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"runtime"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/quill/internal/logger"
	"github.com/samcharles93/quill/pkg/qop"
	"github.com/samcharles93/quill/pkg/quant"
	"github.com/samcharles93/quill/pkg/threadpool"
)

type caseResult struct {
	Name         string  `json:"name"`
	OutputHeight int     `json:"output_height"`
	OutputWidth  int     `json:"output_width"`
	Runs         int     `json:"runs"`
	BestMs       float64 `json:"best_ms"`
	MeanMs       float64 `json:"mean_ms"`
	GMACs        float64 `json:"gmacs"`
}

type benchReport struct {
	ID      string       `json:"id"`
	GoOS    string       `json:"go_os"`
	GoArch  string       `json:"go_arch"`
	CPUs    int          `json:"cpus"`
	Profile string       `json:"profile"`
	Workers int          `json:"workers"`
	Results []caseResult `json:"results"`
}

func benchCmd() *cli.Command {
	var (
		casesPath string
		warmup    int64
		runs      int64
		workers   int64
		seed      int64
		jsonOut   bool
	)

	return &cli.Command{
		Name:  "bench",
		Usage: "Benchmark deconvolution geometries",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "cases",
				Usage:       "YAML file with benchmark cases (omit for built-in defaults)",
				Destination: &casesPath,
			},
			&cli.Int64Flag{
				Name:        "warmup",
				Usage:       "number of warmup runs per case",
				Value:       2,
				Destination: &warmup,
			},
			&cli.Int64Flag{
				Name:        "runs",
				Usage:       "number of timed runs per case",
				Value:       5,
				Destination: &runs,
			},
			&cli.Int64Flag{
				Name:        "workers",
				Usage:       "worker pool size (1 runs single-threaded, 0 uses all CPUs)",
				Destination: &workers,
			},
			&cli.Int64Flag{
				Name:        "seed",
				Usage:       "seed for the random tensor data",
				Value:       1,
				Destination: &seed,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "emit the report as JSON",
				Destination: &jsonOut,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)

			cases := defaultCases()
			if casesPath != "" {
				loaded, err := loadCases(casesPath)
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: %v", err), 1)
				}
				cases = loaded
			}

			var pool *threadpool.Pool
			if workers != 1 {
				pool = threadpool.New(int(workers))
				defer pool.Close()
			}

			profile := qop.DetectTilingProfile()
			report := benchReport{
				ID:      uuid.NewString(),
				GoOS:    runtime.GOOS,
				GoArch:  runtime.GOARCH,
				CPUs:    runtime.NumCPU(),
				Profile: profile.Name,
				Workers: pool.Size(),
			}

			rng := rand.New(rand.NewSource(seed))
			for _, c := range cases {
				result, err := runCase(ctx, c, profile, pool, rng, int(warmup), int(runs))
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: case %q: %v", c.Name, err), 1)
				}
				log.Info("case done", "name", c.Name, "best_ms", result.BestMs, "gmacs", result.GMACs)
				report.Results = append(report.Results, result)
			}

			if jsonOut {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}

			fmt.Printf("=== quill bench (%s, %d workers, run %s) ===\n", report.Profile, report.Workers, report.ID)
			for _, r := range report.Results {
				fmt.Printf("%-20s out %4dx%-4d best %8.3f ms  mean %8.3f ms  %7.2f GMAC/s\n",
					r.Name, r.OutputHeight, r.OutputWidth, r.BestMs, r.MeanMs, r.GMACs)
			}
			return nil
		},
	}
}

// normalNoise fills a fresh float32 slice with standard normal samples.
func normalNoise(rng *rand.Rand, n int) []float32 {
	xs := make([]float32, n)
	for i := range xs {
		xs[i] = float32(rng.NormFloat64())
	}
	return xs
}

func runCase(ctx context.Context, c BenchCase, profile qop.TilingProfile, pool *threadpool.Pool, rng *rand.Rand, warmup, runs int) (caseResult, error) {
	p := c.convParams()

	// Quantize normal-distributed weights and activations so the scales and
	// zero points match what a calibrated model would carry.
	kernelF := normalNoise(rng, p.Groups*p.GroupOutputChannels*c.Kernel*c.Kernel*p.GroupInputChannels)
	kernelAff := quant.ChooseAffine(quant.Observe(kernelF))
	p.KernelScale = kernelAff.Scale
	p.KernelZeroPoint = kernelAff.ZeroPoint
	if err := p.Validate(); err != nil {
		return caseResult{}, err
	}

	kernel := make([]uint8, len(kernelF))
	kernelAff.QuantizeSlice(kernel, kernelF)
	packed, err := qop.PackWeights(p, profile, kernel, nil)
	if err != nil {
		return caseResult{}, err
	}

	op, err := qop.NewDeconvolution(p, packed, profile)
	if err != nil {
		return caseResult{}, err
	}
	defer func() { _ = op.Close() }()

	outH, outW := p.OutputDims(c.InputHeight, c.InputWidth)
	inputF := normalNoise(rng, c.Batch*c.InputHeight*c.InputWidth*p.InputChannels())
	inputAff := quant.ChooseAffine(quant.Observe(inputF))
	input := make([]uint8, len(inputF))
	inputAff.QuantizeSlice(input, inputF)
	output := make([]uint8, c.Batch*outH*outW*p.OutputChannels())

	args := qop.TensorArgs{
		BatchSize:       c.Batch,
		InputHeight:     c.InputHeight,
		InputWidth:      c.InputWidth,
		InputScale:      inputAff.Scale,
		InputZeroPoint:  inputAff.ZeroPoint,
		Input:           input,
		OutputScale:     inputAff.Scale * kernelAff.Scale * 16,
		OutputZeroPoint: 128,
		Output:          output,
	}

	for i := 0; i < warmup; i++ {
		if err := op.Run(ctx, args, pool); err != nil {
			return caseResult{}, err
		}
	}

	best := time.Duration(0)
	var total time.Duration
	for i := 0; i < runs; i++ {
		start := time.Now()
		if err := op.Run(ctx, args, pool); err != nil {
			return caseResult{}, err
		}
		elapsed := time.Since(start)
		total += elapsed
		if best == 0 || elapsed < best {
			best = elapsed
		}
	}

	macs := float64(c.Batch) * float64(outH*outW) * float64(p.OutputChannels()) *
		float64(c.Kernel*c.Kernel) * float64(p.GroupInputChannels)
	return caseResult{
		Name:         c.Name,
		OutputHeight: outH,
		OutputWidth:  outW,
		Runs:         runs,
		BestMs:       float64(best.Nanoseconds()) / 1e6,
		MeanMs:       float64(total.Nanoseconds()) / float64(runs) / 1e6,
		GMACs:        macs / best.Seconds() / 1e9,
	}, nil
}
