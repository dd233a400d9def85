package backend

import "geoflow/array-engine/internal/config"

// Workstation runs everything on the invoking machine through the bounded
// local process pool. No batch wrapping, so both headers are empty.
type Workstation struct {
	cfg *config.SystemConfig
}

// Name returns the variant name.
func (w *Workstation) Name() string { return "workstation" }

// SubmitHeader returns the empty prefix: the master job runs directly.
func (w *Workstation) SubmitHeader() string { return "" }

// RunHeader returns the empty prefix: tasks are plain OS processes.
func (w *Workstation) RunHeader(array string, ntasks int) string { return "" }

// Validate accepts any workstation configuration.
func (w *Workstation) Validate() error { return nil }

// Managed reports that concurrency is bounded locally by ntask_max.
func (w *Workstation) Managed() bool { return false }

// Cluster is the generic HPC interface run standalone: job dispatch mimics a
// cluster by launching local processes, without talking to any scheduler.
// Scheduler variants replace the headers; the dispatch mechanics stay the
// same.
type Cluster struct {
	cfg *config.SystemConfig
}

// Name returns the variant name.
func (c *Cluster) Name() string { return "cluster" }

// SubmitHeader returns the empty prefix; site variants overwrite this.
func (c *Cluster) SubmitHeader() string { return "" }

// RunHeader returns the empty prefix; site variants overwrite this.
func (c *Cluster) RunHeader(array string, ntasks int) string { return "" }

// Validate accepts any generic cluster configuration.
func (c *Cluster) Validate() error { return nil }

// Managed reports that concurrency is bounded locally by ntask_max.
func (c *Cluster) Managed() bool { return false }
