package registry

import "errors"

var (
	// ErrUnknownFunction is returned when a name cannot be resolved. A
	// work unit naming a function that the execution environment never
	// registered is a usage error.
	ErrUnknownFunction = errors.New("unknown task function")
)
