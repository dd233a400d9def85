// Package config loads and validates the parameter file consumed by the
// submission front-end and the job array dispatcher.
package config
