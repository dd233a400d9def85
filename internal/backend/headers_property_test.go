package backend

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"geoflow/array-engine/internal/config"
)

// TestHeaderPurityProperty checks that submit and run headers are pure
// functions of the backend configuration: two backends built from identical
// configurations produce identical strings, call after call.
func TestHeaderPurityProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("slurm headers are pure", prop.ForAll(
		func(ntask int, ntaskMax int, nproc int, walltime int) bool {
			cfg := &config.SystemConfig{
				System:        "slurm",
				Title:         "run1",
				Ntask:         ntask,
				NtaskMax:      ntaskMax,
				Nproc:         nproc,
				Walltime:      float64(walltime),
				Tasktime:      1,
				Partition:     "X",
				PathLogs:      "logs",
				PathOutputLog: "output.log",
			}

			a, err := New(cfg)
			if err != nil {
				return false
			}
			b, err := New(cfg)
			if err != nil {
				return false
			}

			array := ArraySpec(ntask, ntaskMax, false)
			return a.SubmitHeader() == b.SubmitHeader() &&
				a.RunHeader(array, nproc) == b.RunHeader(array, nproc) &&
				a.RunHeader(array, nproc) == a.RunHeader(array, nproc)
		},
		gen.IntRange(1, 500),
		gen.IntRange(1, 64),
		gen.IntRange(1, 128),
		gen.IntRange(1, 2880),
	))

	properties.Property("array spec covers the dense TaskId range", prop.ForAll(
		func(ntask int, ntaskMax int) bool {
			spec := ArraySpec(ntask, ntaskMax, false)
			if ntask == 1 {
				return spec == "0"
			}
			if ntaskMax < ntask {
				return spec == fmt.Sprintf("0-%d%%%d", ntask-1, ntaskMax)
			}
			return spec == fmt.Sprintf("0-%d", ntask-1)
		},
		gen.IntRange(1, 1000),
		gen.IntRange(1, 1000),
	))

	properties.TestingRun(t)
}
