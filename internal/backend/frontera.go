package backend

import (
	"fmt"
	"path/filepath"
	"strings"

	"geoflow/array-engine/internal/config"
)

// fronteraPartitions is the queue set offered on TACC Frontera.
var fronteraPartitions = map[string]int{
	"development": 56,
	"small":       56,
	"normal":      56,
	"large":       56,
	"flex":        56,
}

// Frontera is the SLURM derivative for TACC Frontera. Allocations are
// charged with the short -A flag rather than --account.
type Frontera struct {
	Slurm
}

// NewFrontera constructs the Frontera backend.
func NewFrontera(cfg *config.SystemConfig) *Frontera {
	return &Frontera{Slurm: Slurm{cfg: cfg}}
}

// Name returns the variant name.
func (f *Frontera) Name() string { return "frontera" }

// SubmitHeader builds the Frontera master-job directive string.
func (f *Frontera) SubmitHeader() string {
	parts := []string{
		"sbatch",
		fmt.Sprintf("--job-name=%s", f.cfg.Title),
		fmt.Sprintf("--output=%s", f.cfg.PathOutputLog),
		fmt.Sprintf("--error=%s", f.cfg.PathOutputLog),
		"--ntasks=1",
		fmt.Sprintf("--partition=%s", f.cfg.Partition),
		fmt.Sprintf("--time=%d", minutes(f.cfg.Walltime)),
	}
	if f.cfg.Account != "" {
		parts = append(parts, fmt.Sprintf("-A %s", f.cfg.Account))
	}
	return strings.Join(parts, " ")
}

// RunHeader builds the Frontera array directive string.
func (f *Frontera) RunHeader(array string, ntasks int) string {
	parts := []string{"sbatch"}
	if f.cfg.SchedulerArgs != "" {
		parts = append(parts, f.cfg.SchedulerArgs)
	}
	parts = append(parts,
		fmt.Sprintf("--job-name=%s", f.cfg.Title),
		fmt.Sprintf("--ntasks=%d", ntasks),
		fmt.Sprintf("--partition=%s", f.cfg.Partition),
	)
	if f.cfg.Account != "" {
		parts = append(parts, fmt.Sprintf("-A %s", f.cfg.Account))
	}
	parts = append(parts,
		fmt.Sprintf("--time=%d", minutes(f.cfg.Tasktime)),
		fmt.Sprintf("--array=%s", array),
		fmt.Sprintf("--output=%s", filepath.Join(f.cfg.PathLogs, "%A_%a")),
		"--parsable",
	)
	return strings.Join(parts, " ")
}

// Validate rejects queues Frontera does not offer.
func (f *Frontera) Validate() error {
	if f.cfg.Partition == "" {
		return &config.ValidationError{
			Field:   "system.partition",
			Message: "partition is required for the frontera backend",
		}
	}
	if _, ok := fronteraPartitions[f.cfg.Partition]; !ok {
		return &config.ValidationError{
			Field: "system.partition",
			Message: fmt.Sprintf("unknown frontera partition %q, available: %s",
				f.cfg.Partition, strings.Join(partitionNames(fronteraPartitions), ", ")),
		}
	}
	return nil
}
