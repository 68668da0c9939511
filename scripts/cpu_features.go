package main

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"

	"golang.org/x/sys/cpu"

	"github.com/samcharles93/quill/pkg/qop"
)

type output struct {
	GoVersion string          `json:"go_version"`
	GoOS      string          `json:"go_os"`
	GoArch    string          `json:"go_arch"`
	CPUs      int             `json:"cpus"`
	Profile   string          `json:"profile"`
	Features  map[string]bool `json:"features"`
}

func main() {
	features := map[string]bool{
		"SSE2":     cpu.X86.HasSSE2,
		"SSE41":    cpu.X86.HasSSE41,
		"AVX":      cpu.X86.HasAVX,
		"AVX2":     cpu.X86.HasAVX2,
		"AVX512F":  cpu.X86.HasAVX512F,
		"AVX512BW": cpu.X86.HasAVX512BW,
		"FMA":      cpu.X86.HasFMA,
		"ASIMD":    cpu.ARM64.HasASIMD,
		"ASIMDDP":  cpu.ARM64.HasASIMDDP,
		"SVE":      cpu.ARM64.HasSVE,
	}

	out := output{
		GoVersion: runtime.Version(),
		GoOS:      runtime.GOOS,
		GoArch:    runtime.GOARCH,
		CPUs:      runtime.NumCPU(),
		Profile:   qop.DetectTilingProfile().Name,
		Features:  features,
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(os.Stderr, "encode: %v\n", err)
		os.Exit(1)
	}
}
