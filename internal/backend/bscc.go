package backend

import (
	"fmt"
	"sort"
	"strings"

	"geoflow/array-engine/internal/config"
)

// bsccPartitions maps the partitions available at the Beijing Supercomputing
// Center to their cores per compute node.
var bsccPartitions = map[string]int{
	"gpu_4090":   6,
	"v6_384":     96,
	"amd_a8_384": 128,
	"amd_a8_768": 128,
}

// Bscc is the SLURM derivative for the Beijing Supercomputing Center. It
// delegates header construction to the generic Slurm backend and differs in
// which partitions are legal, an optional separate partition for the master
// job, and GPU requests spelled as --gpus=N.
type Bscc struct {
	Slurm
	submitTo string
}

// NewBscc constructs the BSCC backend.
func NewBscc(cfg *config.SystemConfig) *Bscc {
	submitTo := cfg.SubmitTo
	if submitTo == "" {
		submitTo = cfg.Partition
	}
	return &Bscc{Slurm: Slurm{cfg: cfg}, submitTo: submitTo}
}

// Name returns the variant name.
func (b *Bscc) Name() string { return "bscc" }

// SubmitHeader routes the master job to the submit_to partition.
func (b *Bscc) SubmitHeader() string {
	parts := []string{
		"sbatch",
		fmt.Sprintf("--job-name=%s", b.cfg.Title),
		fmt.Sprintf("--output=%s", b.cfg.PathOutputLog),
		fmt.Sprintf("--error=%s", b.cfg.PathOutputLog),
		"--ntasks=1",
		fmt.Sprintf("--partition=%s", b.submitTo),
		fmt.Sprintf("--time=%d", minutes(b.cfg.Walltime)),
	}
	return strings.Join(parts, " ")
}

// RunHeader extends the generic SLURM run header with the BSCC GPU flag.
func (b *Bscc) RunHeader(array string, ntasks int) string {
	header := b.Slurm.RunHeader(array, ntasks)
	if b.cfg.NGPUs > 0 {
		header += fmt.Sprintf(" --gpus=%d", b.cfg.NGPUs)
	}
	return header
}

// Validate rejects partitions BSCC does not offer, before any command
// string is built.
func (b *Bscc) Validate() error {
	if b.cfg.Partition == "" {
		return &config.ValidationError{
			Field:   "system.partition",
			Message: "partition is required for the bscc backend",
		}
	}
	if _, ok := bsccPartitions[b.cfg.Partition]; !ok {
		return &config.ValidationError{
			Field: "system.partition",
			Message: fmt.Sprintf("unknown bscc partition %q, available: %s",
				b.cfg.Partition, strings.Join(partitionNames(bsccPartitions), ", ")),
		}
	}
	if _, ok := bsccPartitions[b.submitTo]; !ok {
		return &config.ValidationError{
			Field: "system.submit_to",
			Message: fmt.Sprintf("unknown bscc partition %q, available: %s",
				b.submitTo, strings.Join(partitionNames(bsccPartitions), ", ")),
		}
	}
	return nil
}

func partitionNames(partitions map[string]int) []string {
	names := make([]string, 0, len(partitions))
	for name := range partitions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
