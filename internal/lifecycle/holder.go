package lifecycle

import "sync"

// Holder keeps a process-wide default Instance behind explicit
// initialisation and reset.
//
// The holder's lock only guards which instance is the default; it is never
// taken by operations on the instance itself.
type Holder struct {
	mu      sync.Mutex
	factory func() *Instance
	inst    *Instance
}

// NewHolder returns a Holder that builds its instance with factory on first
// use. A nil factory creates an instance named "default".
func NewHolder(factory func() *Instance) *Holder {
	if factory == nil {
		factory = func() *Instance { return New("default") }
	}
	return &Holder{factory: factory}
}

// Instance returns the default instance, creating it on first use.
func (h *Holder) Instance() *Instance {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.inst == nil {
		h.inst = h.factory()
	}
	return h.inst
}

// Replace installs inst as the default and returns the previous one
// (which may be nil).
func (h *Holder) Replace(inst *Instance) *Instance {
	h.mu.Lock()
	defer h.mu.Unlock()

	prev := h.inst
	h.inst = inst
	return prev
}

// Reset drops the default instance so the next call to Instance creates a
// fresh one. It returns the dropped instance (which may be nil).
func (h *Holder) Reset() *Instance {
	return h.Replace(nil)
}
