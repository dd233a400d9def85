package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultParameterFile is the parameter file name looked up in the working
// directory when none is given on the command line.
const DefaultParameterFile = "parameters.yaml"

// Config is the full parameter file.
type Config struct {
	System  SystemConfig `yaml:"system"`
	Logging LogConfig    `yaml:"logging"`
}

// SystemConfig describes how to talk to the compute resource. It is built
// once at startup and never mutated during a run.
type SystemConfig struct {
	// System selects the backend variant: workstation, cluster, slurm,
	// bscc or frontera.
	System string `yaml:"system"`

	// Title is the name used to submit jobs to the system. Defaults to the
	// basename of the current working directory.
	Title string `yaml:"title"`

	// MPIExec is the launcher used by payload tasks to start multi-process
	// executables (mpirun, mpiexec, srun, ibrun). Opaque to the dispatcher.
	MPIExec string `yaml:"mpiexec"`

	// Ntask is the number of tasks in one array dispatch, e.g. the number
	// of sources/events in the workflow.
	Ntask int `yaml:"ntask"`

	// NtaskMax caps the number of concurrently running tasks in one array.
	// Defaults to NumCPU-1; the master job keeps one core for itself.
	NtaskMax int `yaml:"ntask_max"`

	// Nproc is the number of processors requested per task on scheduler
	// backends.
	Nproc int `yaml:"nproc"`

	// Walltime is the wall-clock budget in minutes for the master job.
	// Fractions of minutes are accepted.
	Walltime float64 `yaml:"walltime"`

	// Tasktime is the wall-clock budget in minutes for each array member.
	Tasktime float64 `yaml:"tasktime"`

	// Environs holds optional extra environment bindings propagated into
	// every task, formatted VAR1=val1,VAR2=val2.
	Environs string `yaml:"environs"`

	// Partition, SubmitTo, Account, NGPUs and SchedulerArgs are
	// scheduler-backend fields. SubmitTo optionally routes the master job
	// to a different partition than the array tasks.
	Partition     string `yaml:"partition"`
	SubmitTo      string `yaml:"submit_to"`
	Account       string `yaml:"account"`
	NGPUs         int    `yaml:"ngpus"`
	SchedulerArgs string `yaml:"scheduler_args"`

	// SubmitExec is the entry point the submission front-end hands to the
	// system to start the master workflow job.
	SubmitExec string `yaml:"submit_exec"`

	// RunExec is the task-execution entry point started once per TaskId.
	// Defaults to "<this executable> task".
	RunExec string `yaml:"run_exec"`

	// PathScratch receives the serialized work unit handles.
	PathScratch string `yaml:"path_scratch"`

	// PathLogs receives one log file per TaskId plus backups of earlier
	// run artifacts.
	PathLogs string `yaml:"path_logs"`

	// PathOutputLog is the master job's output log.
	PathOutputLog string `yaml:"path_output_log"`

	// MonitorAddress enables the read-only dispatch monitor when set,
	// e.g. ":8089". Empty disables it.
	MonitorAddress string `yaml:"monitor_address"`
}

// LogConfig mirrors the logger package configuration.
type LogConfig struct {
	Level      string `yaml:"level"`  // debug, info, warn, error
	Format     string `yaml:"format"` // json, console
	Output     string `yaml:"output"` // stdout, file, both
	FilePath   string `yaml:"file_path"`
	MaxSize    int    `yaml:"max_size"` // MB
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"` // days
}

// Load reads and parses a parameter file, applies defaults and validates.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read parameter file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse parameter file %s: %w", path, err)
	}

	cfg.ApplyDefaults()
	if err := NewValidator().Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyDefaults fills in unset fields.
func (c *Config) ApplyDefaults() {
	s := &c.System
	if s.Title == "" {
		if wd, err := os.Getwd(); err == nil {
			s.Title = filepath.Base(wd)
		}
	}
	if s.Ntask <= 0 {
		s.Ntask = 1
	}
	if s.NtaskMax <= 0 {
		s.NtaskMax = runtime.NumCPU() - 1
		if s.NtaskMax < 1 {
			s.NtaskMax = 1
		}
	}
	if s.Nproc <= 0 {
		s.Nproc = 1
	}
	if s.Walltime <= 0 {
		s.Walltime = 10
	}
	if s.Tasktime <= 0 {
		s.Tasktime = 1
	}
	if s.PathScratch == "" {
		s.PathScratch = "scratch"
	}
	if s.PathLogs == "" {
		s.PathLogs = "logs"
	}
	if s.PathOutputLog == "" {
		s.PathOutputLog = "output.log"
	}
	if s.RunExec == "" {
		if exe, err := os.Executable(); err == nil {
			s.RunExec = exe + " task"
		}
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}
}

// WalltimeDuration returns the master job budget as a duration.
func (s *SystemConfig) WalltimeDuration() time.Duration {
	return time.Duration(s.Walltime * float64(time.Minute))
}

// TasktimeDuration returns the per-task budget as a duration.
func (s *SystemConfig) TasktimeDuration() time.Duration {
	return time.Duration(s.Tasktime * float64(time.Minute))
}

// EnvironPairs splits the Environs string into KEY=value pairs. Empty
// segments are dropped.
func (s *SystemConfig) EnvironPairs() []string {
	if strings.TrimSpace(s.Environs) == "" {
		return nil
	}
	var pairs []string
	for _, part := range strings.Split(s.Environs, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			pairs = append(pairs, part)
		}
	}
	return pairs
}
