// Package lifecycle owns the active logging configuration of one pipeline
// instance.
//
// An Instance holds a single configuration snapshot, a signed suspend
// counter and an ordered list of observers. It supports:
//   - Atomic get/set of the active configuration (nil means "unloaded")
//   - Suspend/Resume gating with a signed, unclamped counter
//   - Timer-driven reloads that ignore stale requests and contain failures
//   - Synchronous change and reload notifications, delivered outside the lock
//
// Each Instance has its own lock. Nothing in this package is shared between
// instances, so one instance stuck in a slow operation never blocks another.
//
// # Usage
//
//	inst := lifecycle.New("default")
//	inst.OnConfigurationChanged(func(e lifecycle.ChangedEvent) {
//	    log.Info("configuration changed", "instance", e.Sender.Name())
//	})
//	inst.SetConfiguration(doc)
//
//	// from a file watcher armed against doc
//	inst.ReloadOnTimer(doc)
//
// # Suspend/Resume
//
// Logging is enabled while the counter is zero or negative. A Resume issued
// before its matching Suspend pre-charges the counter, so overlapping
// "enable for this scope" and "disable for this scope" callers compose in any
// order as long as every Suspend is eventually paired with one Resume.
package lifecycle
