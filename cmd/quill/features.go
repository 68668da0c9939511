package main

import (
	"context"
	"os"
	"runtime"

	json "github.com/goccy/go-json"
	"github.com/urfave/cli/v3"
	"golang.org/x/sys/cpu"

	"github.com/samcharles93/quill/pkg/qop"
)

type featureReport struct {
	GoVersion string          `json:"go_version"`
	GoOS      string          `json:"go_os"`
	GoArch    string          `json:"go_arch"`
	CPUs      int             `json:"cpus"`
	Features  map[string]bool `json:"features"`
	Profile   profileReport   `json:"profile"`
}

type profileReport struct {
	Name string `json:"name"`
	MR   int    `json:"mr"`
	NR   int    `json:"nr"`
	KR   int    `json:"kr"`
}

func featuresCmd() *cli.Command {
	return &cli.Command{
		Name:  "features",
		Usage: "Print detected CPU features and the selected tiling profile",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			features := map[string]bool{
				"SSE2":    cpu.X86.HasSSE2,
				"SSE41":   cpu.X86.HasSSE41,
				"AVX":     cpu.X86.HasAVX,
				"AVX2":    cpu.X86.HasAVX2,
				"AVX512F": cpu.X86.HasAVX512F,
				"FMA":     cpu.X86.HasFMA,
				"ASIMD":   cpu.ARM64.HasASIMD,
				"SVE":     cpu.ARM64.HasSVE,
			}

			profile := qop.DetectTilingProfile()
			report := featureReport{
				GoVersion: runtime.Version(),
				GoOS:      runtime.GOOS,
				GoArch:    runtime.GOARCH,
				CPUs:      runtime.NumCPU(),
				Features:  features,
				Profile: profileReport{
					Name: profile.Name,
					MR:   profile.MR,
					NR:   profile.NR,
					KR:   profile.KR,
				},
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}
}
