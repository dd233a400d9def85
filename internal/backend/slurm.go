package backend

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"geoflow/array-engine/internal/config"
)

// Slurm is the generic SLURM workload manager backend. Site derivatives
// embed it and overwrite only the pieces their center spells differently.
type Slurm struct {
	cfg *config.SystemConfig
}

// Name returns the variant name.
func (s *Slurm) Name() string { return "slurm" }

// SubmitHeader builds the sbatch directive string for the master workflow
// job: a serial job that drives the array dispatches.
func (s *Slurm) SubmitHeader() string {
	parts := []string{
		"sbatch",
		fmt.Sprintf("--job-name=%s", s.cfg.Title),
		fmt.Sprintf("--output=%s", s.cfg.PathOutputLog),
		fmt.Sprintf("--error=%s", s.cfg.PathOutputLog),
		"--ntasks=1",
		fmt.Sprintf("--time=%d", minutes(s.cfg.Walltime)),
	}
	if s.cfg.Partition != "" {
		parts = append(parts, fmt.Sprintf("--partition=%s", s.cfg.Partition))
	}
	if s.cfg.Account != "" {
		parts = append(parts, fmt.Sprintf("--account=%s", s.cfg.Account))
	}
	return strings.Join(parts, " ")
}

// RunHeader builds the sbatch directive string for one task array. The
// %A_%a output pattern gives every array member its own log file.
func (s *Slurm) RunHeader(array string, ntasks int) string {
	parts := []string{"sbatch"}
	if s.cfg.SchedulerArgs != "" {
		parts = append(parts, s.cfg.SchedulerArgs)
	}
	parts = append(parts,
		fmt.Sprintf("--job-name=%s", s.cfg.Title),
		fmt.Sprintf("--ntasks=%d", ntasks),
	)
	if s.cfg.Partition != "" {
		parts = append(parts, fmt.Sprintf("--partition=%s", s.cfg.Partition))
	}
	if s.cfg.Account != "" {
		parts = append(parts, fmt.Sprintf("--account=%s", s.cfg.Account))
	}
	parts = append(parts,
		fmt.Sprintf("--time=%d", minutes(s.cfg.Tasktime)),
		fmt.Sprintf("--array=%s", array),
		fmt.Sprintf("--output=%s", filepath.Join(s.cfg.PathLogs, "%A_%a")),
		"--parsable",
	)
	return strings.Join(parts, " ")
}

// Validate accepts any generic SLURM configuration; partition legality is a
// site concern.
func (s *Slurm) Validate() error { return nil }

// Managed reports that SLURM owns array fan-out and concurrency; ntask_max
// is advisory here.
func (s *Slurm) Managed() bool { return true }

// minutes converts a fractional-minute budget to the whole minutes SLURM
// accepts, rounding up so a budget is never silently shortened.
func minutes(m float64) int {
	v := int(math.Ceil(m))
	if v < 1 {
		v = 1
	}
	return v
}
