package lifecycle

import "errors"

// Errors carried on ReloadedEvent when a timer-driven reload fails.
// They are never returned from ReloadOnTimer itself.
var (
	// ErrReloadFailed wraps an error returned by Configuration.Reload.
	ErrReloadFailed = errors.New("lifecycle: configuration reload failed")

	// ErrReloadPanicked is used when Configuration.Reload panics.
	ErrReloadPanicked = errors.New("lifecycle: configuration reload panicked")
)
