package lifecycle

import (
	"fmt"
	"reflect"
	"sync"
)

// Logger defines the logging interface for an Instance.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Instance is one independent logging pipeline: the owner of an active
// configuration snapshot and its suspend gate.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
//   - The lock is private to the instance and is never held while calling
//     Configuration.Reload or observers.
type Instance struct {
	name string

	// mu guards active and suspendCount together so readers never see a
	// torn state. observers is copy-on-write and also guarded by mu.
	mu           sync.RWMutex
	active       Configuration
	suspendCount int64
	observers    []Observer

	logger   Logger
	loggerMu sync.RWMutex
}

// New creates an instance with no configuration installed and logging
// enabled.
func New(name string) *Instance {
	return &Instance{
		name:   name,
		logger: noopLogger{},
	}
}

// Name returns the instance name used for provenance in logs and events.
func (i *Instance) Name() string {
	return i.name
}

// SetLogger sets the logger for internal diagnostics.
func (i *Instance) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	i.loggerMu.Lock()
	i.logger = logger
	i.loggerMu.Unlock()
}

func (i *Instance) getLogger() Logger {
	i.loggerMu.RLock()
	defer i.loggerMu.RUnlock()
	return i.logger
}

// GetConfiguration returns the active configuration, or nil when none is
// installed.
func (i *Instance) GetConfiguration() Configuration {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.active
}

// SetConfiguration installs c (which may be nil to unload).
//
// When c differs by identity from the previous configuration, observers
// receive a ChangedEvent after the swap is committed, so a handler calling
// GetConfiguration sees c.
func (i *Instance) SetConfiguration(c Configuration) {
	c = normalize(c)

	i.mu.Lock()
	old := i.active
	i.active = c
	observers := i.observers
	i.mu.Unlock()

	if sameConfiguration(old, c) {
		return
	}
	i.notifyChanged(observers, old, c)
}

// Suspend increments the suspend counter.
func (i *Instance) Suspend() {
	i.mu.Lock()
	i.suspendCount++
	i.mu.Unlock()
}

// Resume decrements the suspend counter. The counter is not clamped: a
// Resume without a prior Suspend makes it negative.
func (i *Instance) Resume() {
	i.mu.Lock()
	i.suspendCount--
	i.mu.Unlock()
}

// IsLoggingEnabled reports whether the suspend counter is zero or negative.
func (i *Instance) IsLoggingEnabled() bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.suspendCount <= 0
}

// SuspendCount returns the current value of the suspend counter.
func (i *Instance) SuspendCount() int64 {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.suspendCount
}

// ReloadOnTimer reloads requested if it is still the active configuration.
//
// It is meant to be called by a file watcher or timer that was armed
// against requested. The call never panics and never returns an error:
//   - requested is not active (stale): nothing happens.
//   - Reload fails: a ReloadedEvent with Succeeded=false is raised.
//   - Reload returns nil: a ReloadedEvent with Succeeded=true is raised and
//     the active configuration is kept.
//   - Reload returns a new configuration: it is installed (raising a
//     ChangedEvent), then a ReloadedEvent with Succeeded=true is raised.
//
// If the active configuration is replaced while Reload is running, the
// replacement is discarded but the reload still ran, so a ReloadedEvent with
// Succeeded=true is raised and the newer configuration stays active.
//
// Reload runs on the calling goroutine; callers wanting bounded latency must
// apply their own timeout around this call.
func (i *Instance) ReloadOnTimer(requested Configuration) {
	requested = normalize(requested)
	log := i.getLogger()

	if requested == nil || !sameConfiguration(requested, i.GetConfiguration()) {
		log.Debug("ignoring stale configuration reload", "instance", i.name)
		return
	}

	next, err := callReload(requested)
	if err != nil {
		log.Warn("configuration reload failed", "instance", i.name, "error", err)
		i.notifyReloaded(ReloadedEvent{Sender: i, Succeeded: false, Err: err})
		return
	}

	if next = normalize(next); next != nil {
		if !i.installIfActive(requested, next) {
			log.Debug("discarding reload result, configuration changed meanwhile", "instance", i.name)
		}
	} else {
		log.Debug("configuration reload produced no replacement", "instance", i.name)
	}

	i.notifyReloaded(ReloadedEvent{Sender: i, Succeeded: true})
}

// installIfActive swaps in next only while expected is still active.
func (i *Instance) installIfActive(expected, next Configuration) bool {
	i.mu.Lock()
	if !sameConfiguration(i.active, expected) {
		i.mu.Unlock()
		return false
	}
	old := i.active
	i.active = next
	observers := i.observers
	i.mu.Unlock()

	if !sameConfiguration(old, next) {
		i.notifyChanged(observers, old, next)
	}
	return true
}

// callReload invokes c.Reload, converting errors and panics into wrapped
// lifecycle errors.
func callReload(c Configuration) (next Configuration, err error) {
	defer func() {
		if r := recover(); r != nil {
			next = nil
			err = fmt.Errorf("%w: %v", ErrReloadPanicked, r)
		}
	}()

	next, err = c.Reload()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReloadFailed, err)
	}
	return next, nil
}

// Subscribe adds o to the observer list. Adding an observer that is already
// registered has no effect.
//
// Observers are keyed by identity, so o must be comparable with ==. Func
// types, maps, slices and structs holding them are refused with a warning;
// wrap them in a pointer or use OnConfigurationChanged instead.
func (i *Instance) Subscribe(o Observer) {
	if o == nil {
		return
	}
	if !reflect.TypeOf(o).Comparable() {
		i.getLogger().Warn("refusing non-comparable observer", "instance", i.name, "type", fmt.Sprintf("%T", o))
		return
	}
	i.mu.Lock()
	defer i.mu.Unlock()

	for _, existing := range i.observers {
		if sameObserver(existing, o) {
			return
		}
	}
	observers := make([]Observer, 0, len(i.observers)+1)
	observers = append(observers, i.observers...)
	i.observers = append(observers, o)
}

// Unsubscribe removes o from the observer list. Removing an observer that
// is not registered has no effect.
func (i *Instance) Unsubscribe(o Observer) {
	if o == nil {
		return
	}
	i.mu.Lock()
	defer i.mu.Unlock()

	for idx, existing := range i.observers {
		if sameObserver(existing, o) {
			observers := make([]Observer, 0, len(i.observers)-1)
			observers = append(observers, i.observers[:idx]...)
			i.observers = append(observers, i.observers[idx+1:]...)
			return
		}
	}
}

// OnConfigurationChanged registers fn for ChangedEvent notifications.
func (i *Instance) OnConfigurationChanged(fn ChangedFunc) *Subscription {
	s := &Subscription{inst: i, changed: fn}
	i.Subscribe(s)
	return s
}

// OnConfigurationReloaded registers fn for ReloadedEvent notifications.
func (i *Instance) OnConfigurationReloaded(fn ReloadedFunc) *Subscription {
	s := &Subscription{inst: i, reloaded: fn}
	i.Subscribe(s)
	return s
}

func (i *Instance) notifyChanged(observers []Observer, old, next Configuration) {
	e := ChangedEvent{Sender: i, Deactivated: old, Activated: next}
	for _, o := range observers {
		i.deliver(o, func(o Observer) { o.ConfigurationChanged(e) })
	}
}

func (i *Instance) notifyReloaded(e ReloadedEvent) {
	i.mu.RLock()
	observers := i.observers
	i.mu.RUnlock()

	for _, o := range observers {
		i.deliver(o, func(o Observer) { o.ConfigurationReloaded(e) })
	}
}

// deliver calls one observer, recovering panics so a misbehaving observer
// cannot take down the goroutine that raised the event.
func (i *Instance) deliver(o Observer, call func(Observer)) {
	defer func() {
		if r := recover(); r != nil {
			i.getLogger().Error("observer panic recovered", "instance", i.name, "panic", r)
		}
	}()
	call(o)
}

// sameObserver compares observers by identity. Subscribe only stores
// comparable observers; a non-comparable b never matches.
func sameObserver(a, b Observer) bool {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}
