package config

import (
	"fmt"
	"strings"
)

// KnownSystems is the closed set of backend variant names accepted in the
// parameter file.
var KnownSystems = []string{"workstation", "cluster", "slurm", "bscc", "frontera"}

// ValidationError names one invalid parameter file field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("parameter validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

// HasErrors returns true if there are any validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validator validates parameter file values. Validation runs to completion
// before any command string is built or any process is launched.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new parameter file validator.
func NewValidator() *Validator {
	return &Validator{
		errors: make(ValidationErrors, 0),
	}
}

func (v *Validator) addError(field, message string) {
	v.errors = append(v.errors, ValidationError{Field: field, Message: message})
}

// Validate validates the entire configuration and returns any errors.
func (v *Validator) Validate(cfg *Config) error {
	v.errors = make(ValidationErrors, 0)

	v.validateSystemConfig(&cfg.System)
	v.validateLogConfig(&cfg.Logging)

	if v.errors.HasErrors() {
		return v.errors
	}
	return nil
}

func (v *Validator) validateSystemConfig(cfg *SystemConfig) {
	if cfg.System == "" {
		v.addError("system.system", "backend name is required")
	} else if !isKnownSystem(cfg.System) {
		v.addError("system.system",
			fmt.Sprintf("unknown backend %q, expected one of: %s",
				cfg.System, strings.Join(KnownSystems, ", ")))
	}

	if cfg.Ntask < 1 {
		v.addError("system.ntask", "task count must be at least 1")
	}
	if cfg.NtaskMax < 1 {
		v.addError("system.ntask_max", "concurrency cap must be at least 1")
	}
	if cfg.Nproc < 1 {
		v.addError("system.nproc", "processor count must be at least 1")
	}
	if cfg.Walltime <= 0 {
		v.addError("system.walltime", "walltime must be positive minutes")
	}
	if cfg.Tasktime <= 0 {
		v.addError("system.tasktime", "tasktime must be positive minutes")
	}
	if cfg.NGPUs < 0 {
		v.addError("system.ngpus", "gpu count must be non-negative")
	}

	for _, pair := range cfg.EnvironPairs() {
		key, _, found := strings.Cut(pair, "=")
		if !found || key == "" {
			v.addError("system.environs",
				fmt.Sprintf("malformed binding %q, expected VAR=value", pair))
		}
	}
}

func (v *Validator) validateLogConfig(cfg *LogConfig) {
	switch cfg.Level {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		v.addError("logging.level", fmt.Sprintf("unknown level %q", cfg.Level))
	}
	switch cfg.Format {
	case "", "json", "console":
	default:
		v.addError("logging.format", fmt.Sprintf("unknown format %q", cfg.Format))
	}
	switch cfg.Output {
	case "", "stdout", "file", "both":
	default:
		v.addError("logging.output", fmt.Sprintf("unknown output %q", cfg.Output))
	}
	if (cfg.Output == "file" || cfg.Output == "both") && cfg.FilePath == "" {
		v.addError("logging.file_path", "file path is required for file output")
	}
}

func isKnownSystem(name string) bool {
	for _, s := range KnownSystems {
		if s == name {
			return true
		}
	}
	return false
}
