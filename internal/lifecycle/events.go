package lifecycle

// ChangedEvent describes a committed swap of the active configuration.
type ChangedEvent struct {
	// Sender is the instance whose configuration changed.
	Sender *Instance

	// Deactivated is the configuration that was replaced (may be nil).
	Deactivated Configuration

	// Activated is the configuration now installed (may be nil).
	Activated Configuration
}

// ReloadedEvent describes the outcome of a timer-driven reload.
type ReloadedEvent struct {
	// Sender is the instance that performed the reload.
	Sender *Instance

	// Succeeded is true when Reload completed without error, whether or not
	// it produced a replacement.
	Succeeded bool

	// Err is the failure when Succeeded is false. It wraps ErrReloadFailed
	// or ErrReloadPanicked.
	Err error
}

// Observer receives lifecycle notifications.
//
// Methods are called synchronously on the goroutine that caused the event,
// after the instance lock has been released. Implementations must be safe
// for concurrent use and should return quickly.
type Observer interface {
	ConfigurationChanged(e ChangedEvent)
	ConfigurationReloaded(e ReloadedEvent)
}

// ChangedFunc handles ChangedEvent notifications.
type ChangedFunc func(e ChangedEvent)

// ReloadedFunc handles ReloadedEvent notifications.
type ReloadedFunc func(e ReloadedEvent)

// Subscription is a registered func handler. Cancel removes it; calling
// Cancel more than once is harmless.
type Subscription struct {
	inst     *Instance
	changed  ChangedFunc
	reloaded ReloadedFunc
}

// ConfigurationChanged implements Observer.
func (s *Subscription) ConfigurationChanged(e ChangedEvent) {
	if s.changed != nil {
		s.changed(e)
	}
}

// ConfigurationReloaded implements Observer.
func (s *Subscription) ConfigurationReloaded(e ReloadedEvent) {
	if s.reloaded != nil {
		s.reloaded(e)
	}
}

// Cancel unsubscribes the handler from its instance.
func (s *Subscription) Cancel() {
	if s == nil || s.inst == nil {
		return
	}
	s.inst.Unsubscribe(s)
}
