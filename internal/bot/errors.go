package bot

import "errors"

// Error taxonomy. Registry and authorization failures propagate to the
// caller; provider and execution failures stay contained to the tick that
// raised them.
var (
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrNotFound             = errors.New("bot not found")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrProvider             = errors.New("chain data provider error")
	ErrExecutionFailed      = errors.New("trade execution failed")
)
