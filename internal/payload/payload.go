// Package payload serializes a work unit (an ordered list of task function
// names plus one shared keyword-argument map) into durable handles that a
// freshly started process can reload and execute.
package payload

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"geoflow/array-engine/internal/registry"
)

// Handle file names inside the scratch directory. A new dispatch overwrites
// the handles of the previous one.
const (
	FuncsFile  = "funcs.yaml"
	KwargsFile = "kwargs.yaml"
)

// WorkUnit is the ordered, serializable list of work dispatched to every
// task in an array. Immutable once serialized.
type WorkUnit struct {
	// Funcs are registry names executed in order by each task.
	Funcs []string `yaml:"funcs"`

	// Kwargs is the keyword-argument map shared by every function in the
	// sequence. Each task process loads its own read-only copy.
	Kwargs map[string]any `yaml:"kwargs"`
}

// SerializationError reports a work unit that cannot be durably encoded or
// decoded.
type SerializationError struct {
	Reason string
	Err    error
}

func (e *SerializationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("work unit serialization failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("work unit serialization failed: %s", e.Reason)
}

func (e *SerializationError) Unwrap() error { return e.Err }

// Serialize writes the work unit's two handles into dir, overwriting any
// prior handles, and returns their paths. Function names are checked
// against reg up front so an unresolvable name fails before any task is
// launched.
func Serialize(wu WorkUnit, dir string, reg *registry.Registry) (funcsPath, kwargsPath string, err error) {
	if len(wu.Funcs) == 0 {
		return "", "", &SerializationError{Reason: "empty function list"}
	}
	for _, name := range wu.Funcs {
		if !reg.Has(name) {
			return "", "", &SerializationError{
				Reason: fmt.Sprintf("function %q is not registered in the execution environment", name),
			}
		}
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", &SerializationError{Reason: "create scratch directory", Err: err}
	}

	funcsPath = filepath.Join(dir, FuncsFile)
	kwargsPath = filepath.Join(dir, KwargsFile)

	funcsData, err := yaml.Marshal(wu.Funcs)
	if err != nil {
		return "", "", &SerializationError{Reason: "encode function list", Err: err}
	}
	kwargsData, err := yaml.Marshal(wu.Kwargs)
	if err != nil {
		return "", "", &SerializationError{Reason: "encode keyword arguments", Err: err}
	}

	if err := os.WriteFile(funcsPath, funcsData, 0o644); err != nil {
		return "", "", &SerializationError{Reason: "write function handle", Err: err}
	}
	if err := os.WriteFile(kwargsPath, kwargsData, 0o644); err != nil {
		return "", "", &SerializationError{Reason: "write kwargs handle", Err: err}
	}

	return funcsPath, kwargsPath, nil
}

// Load reconstructs a work unit from its two handles.
func Load(funcsPath, kwargsPath string) (WorkUnit, error) {
	var wu WorkUnit

	funcsData, err := os.ReadFile(funcsPath)
	if err != nil {
		return wu, &SerializationError{Reason: "read function handle", Err: err}
	}
	if err := yaml.Unmarshal(funcsData, &wu.Funcs); err != nil {
		return wu, &SerializationError{Reason: "decode function list", Err: err}
	}

	kwargsData, err := os.ReadFile(kwargsPath)
	if err != nil {
		return wu, &SerializationError{Reason: "read kwargs handle", Err: err}
	}
	if err := yaml.Unmarshal(kwargsData, &wu.Kwargs); err != nil {
		return wu, &SerializationError{Reason: "decode keyword arguments", Err: err}
	}

	return wu, nil
}
