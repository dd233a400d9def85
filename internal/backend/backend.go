// Package backend builds the resource-specific command prefixes used to
// submit the master workflow job and to run job arrays. The variant set is
// closed: generic workstation/cluster backends that run everything through
// the local process pool, a generic SLURM backend, and site derivatives that
// differ only in partition tables and flag spelling.
package backend

import (
	"fmt"

	"geoflow/array-engine/internal/config"
)

// Backend exposes the two string-producing capabilities every compute
// resource must provide. Implementations are immutable once constructed.
type Backend interface {
	// Name returns the backend variant name.
	Name() string

	// SubmitHeader returns the prefix prepended to the master workflow
	// submission command. Empty for local backends.
	SubmitHeader() string

	// RunHeader returns the prefix prepended to a task array run command.
	// array is the TaskId range specification, ntasks the processor count
	// requested per task. Empty for local backends.
	RunHeader(array string, ntasks int) string

	// Validate checks backend-specific configuration, rejecting bad
	// values before any command string is built.
	Validate() error

	// Managed reports whether an external scheduler owns array fan-out
	// and concurrency. Local backends return false and are bounded by the
	// ntask_max worker pool instead.
	Managed() bool
}

// factories is the closed variant table. Not a plugin mechanism: adding a
// backend means adding a type to this package.
var factories = map[string]func(*config.SystemConfig) Backend{
	"workstation": func(cfg *config.SystemConfig) Backend { return &Workstation{cfg: cfg} },
	"cluster":     func(cfg *config.SystemConfig) Backend { return &Cluster{cfg: cfg} },
	"slurm":       func(cfg *config.SystemConfig) Backend { return &Slurm{cfg: cfg} },
	"bscc":        func(cfg *config.SystemConfig) Backend { return NewBscc(cfg) },
	"frontera":    func(cfg *config.SystemConfig) Backend { return NewFrontera(cfg) },
}

// New constructs and validates the backend named by cfg.System.
func New(cfg *config.SystemConfig) (Backend, error) {
	factory, ok := factories[cfg.System]
	if !ok {
		return nil, &config.ValidationError{
			Field:   "system.system",
			Message: fmt.Sprintf("unknown backend %q", cfg.System),
		}
	}

	b := factory(cfg)
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// ArraySpec returns the scheduler array specification for a dense TaskId
// range [0, ntask) with at most ntaskMax members running concurrently.
// A single-task dispatch collapses to "0".
func ArraySpec(ntask, ntaskMax int, single bool) string {
	if single || ntask <= 1 {
		return "0"
	}
	if ntaskMax > 0 && ntaskMax < ntask {
		return fmt.Sprintf("0-%d%%%d", ntask-1, ntaskMax)
	}
	return fmt.Sprintf("0-%d", ntask-1)
}
