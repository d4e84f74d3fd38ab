package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/cherubic/NLog/internal/lifecycle"
	"github.com/cherubic/NLog/internal/logconfig"
)

// Default timings.
const (
	DefaultDebounce = 250 * time.Millisecond
	DefaultTimeout  = 30 * time.Second
)

// Logger is the logging interface used by the watcher.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Options configures a Watcher.
type Options struct {
	// Files enables fsnotify events for the armed document's file.
	Files bool

	// Debounce collapses bursts of file events into one reload.
	Debounce time.Duration

	// Interval triggers a reload periodically. Zero disables it.
	Interval time.Duration

	// Timeout bounds how long the watcher waits for one reload.
	// Zero waits until the reload returns or the context ends.
	Timeout time.Duration
}

// Watcher reloads the armed document on file changes or on an interval.
type Watcher struct {
	inst *lifecycle.Instance
	opts Options
	fs   *fsnotify.Watcher

	mu         sync.Mutex
	armed      lifecycle.Configuration
	armedFile  string
	watchedDir string

	logger   Logger
	loggerMu sync.RWMutex

	changes  chan struct{}
	busy     atomic.Bool
	sub      *lifecycle.Subscription
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	started  atomic.Bool
}

// New creates a watcher for inst. Call Start to begin watching.
func New(inst *lifecycle.Instance, opts Options) (*Watcher, error) {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}

	w := &Watcher{
		inst:    inst,
		opts:    opts,
		logger:  noopLogger{},
		changes: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}

	if opts.Files {
		fsw, err := fsnotify.NewWatcher()
		if err != nil {
			return nil, fmt.Errorf("creating file watcher: %w", err)
		}
		w.fs = fsw
	}

	return w, nil
}

// SetLogger sets the logger for watcher operations.
func (w *Watcher) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	w.loggerMu.Lock()
	defer w.loggerMu.Unlock()
	w.logger = logger
}

func (w *Watcher) getLogger() Logger {
	w.loggerMu.RLock()
	defer w.loggerMu.RUnlock()
	return w.logger
}

// Start arms the watcher against the current configuration and starts the
// event loops. Calling Start twice is a no-op.
func (w *Watcher) Start(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return nil
	}

	w.sub = w.inst.OnConfigurationChanged(func(e lifecycle.ChangedEvent) {
		w.arm(e.Activated)
	})
	w.arm(w.inst.GetConfiguration())

	if w.fs != nil {
		w.wg.Add(1)
		go w.processEvents(ctx)
	}

	w.wg.Add(1)
	go w.loop(ctx)

	return nil
}

// Stop stops the event loops and detaches from the instance. It returns
// once a reload already in flight has finished, even one the watcher has
// stopped waiting for after its timeout.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		if w.sub != nil {
			w.sub.Cancel()
		}
		if w.fs != nil {
			if err := w.fs.Close(); err != nil {
				w.getLogger().Warn("closing file watcher", "error", err)
			}
		}
		w.wg.Wait()
	})
}

// Armed returns the snapshot reloads are currently issued against, or nil.
func (w *Watcher) Armed() lifecycle.Configuration {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.armed
}

// arm points the watcher at c. Anything other than an auto-reloading
// document disarms it.
func (w *Watcher) arm(c lifecycle.Configuration) {
	doc, ok := c.(*logconfig.Document)
	if !ok || doc == nil || !doc.AutoReload {
		w.mu.Lock()
		w.armed = nil
		w.armedFile = ""
		w.unwatchLocked()
		w.mu.Unlock()
		w.getLogger().Debug("watcher disarmed", "instance", w.inst.Name())
		return
	}

	file := filepath.Clean(doc.Path)
	dir := filepath.Dir(file)

	w.mu.Lock()
	defer w.mu.Unlock()

	w.armed = doc
	w.armedFile = file

	if w.fs == nil || dir == w.watchedDir {
		return
	}
	w.unwatchLocked()
	if err := w.fs.Add(dir); err != nil {
		w.getLogger().Warn("watching config directory", "dir", dir, "error", err)
		return
	}
	w.watchedDir = dir
	w.getLogger().Debug("watcher armed", "instance", w.inst.Name(), "path", file)
}

func (w *Watcher) unwatchLocked() {
	if w.fs == nil || w.watchedDir == "" {
		return
	}
	if err := w.fs.Remove(w.watchedDir); err != nil {
		w.getLogger().Debug("unwatching config directory", "dir", w.watchedDir, "error", err)
	}
	w.watchedDir = ""
}

// processEvents forwards events for the armed file to the debounce loop.
func (w *Watcher) processEvents(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			select {
			case w.changes <- struct{}{}:
			default:
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.getLogger().Warn("file watcher error", "error", err)
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
		return false
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	return w.armedFile != "" && filepath.Clean(event.Name) == w.armedFile
}

// loop debounces file changes and runs the periodic interval.
func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()

	var timer *time.Timer
	var timerC <-chan time.Time

	var tickC <-chan time.Time
	if w.opts.Interval > 0 {
		ticker := time.NewTicker(w.opts.Interval)
		defer ticker.Stop()
		tickC = ticker.C
	}

	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case <-w.changes:
			if timer == nil {
				timer = time.NewTimer(w.opts.Debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.opts.Debounce)
			}
		case <-timerC:
			timer = nil
			timerC = nil
			w.reload(ctx, w.Armed())
		case <-tickC:
			w.reload(ctx, w.Armed())
		}
	}
}

// reload issues ReloadOnTimer for c and waits for it up to the timeout.
// A reload still in flight causes later triggers to be skipped.
func (w *Watcher) reload(ctx context.Context, c lifecycle.Configuration) {
	if c == nil {
		return
	}
	if !w.busy.CompareAndSwap(false, true) {
		w.getLogger().Debug("reload still in progress, skipping trigger", "instance", w.inst.Name())
		return
	}

	finished := make(chan struct{})
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer w.busy.Store(false)
		defer close(finished)
		w.inst.ReloadOnTimer(c)
	}()

	var timeoutC <-chan time.Time
	if w.opts.Timeout > 0 {
		timer := time.NewTimer(w.opts.Timeout)
		defer timer.Stop()
		timeoutC = timer.C
	}

	select {
	case <-finished:
	case <-timeoutC:
		w.getLogger().Warn("reload timed out", "instance", w.inst.Name(), "timeout", w.opts.Timeout)
	case <-ctx.Done():
	case <-w.done:
	}
}
