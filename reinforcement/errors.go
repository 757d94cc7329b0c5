package reinforcement

import "errors"

var (
	// ErrConfiguration is returned for invalid solver input: gamma, theta, mode, reward source,
	// mismatched dimensions, or an empty action set on a cell that must act.
	ErrConfiguration = errors.New("reinforcement: invalid configuration")
	// ErrNumericAnomaly marks non-finite values. It is reported, never repaired.
	ErrNumericAnomaly = errors.New("reinforcement: non-finite values")
	// ErrNotConverged is returned when the caller's sweep ceiling is reached before convergence.
	ErrNotConverged = errors.New("reinforcement: sweep limit reached before convergence")
)
