package health

import "errors"

var (
	// ErrCheckTimeout indicates a checker did not return before the deadline.
	ErrCheckTimeout = errors.New("health: check timeout")

	// ErrCircuitOpen indicates explain runs are being rejected.
	ErrCircuitOpen = errors.New("health: circuit open")
)
