package watch

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cherubic/NLog/internal/lifecycle"
	"github.com/cherubic/NLog/internal/logconfig"
)

const waitTimeout = 5 * time.Second

func writeDoc(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing document: %v", err)
	}
}

func loadDoc(t *testing.T, path string) *logconfig.Document {
	t.Helper()
	doc, err := logconfig.Load(path)
	if err != nil {
		t.Fatalf("logconfig.Load() error = %v", err)
	}
	return doc
}

// reloadRecorder captures reloaded events on a channel.
func reloadRecorder(t *testing.T, inst *lifecycle.Instance) <-chan lifecycle.ReloadedEvent {
	t.Helper()
	events := make(chan lifecycle.ReloadedEvent, 16)
	sub := inst.OnConfigurationReloaded(func(e lifecycle.ReloadedEvent) {
		events <- e
	})
	t.Cleanup(sub.Cancel)
	return events
}

func waitForReload(t *testing.T, events <-chan lifecycle.ReloadedEvent) lifecycle.ReloadedEvent {
	t.Helper()
	select {
	case e := <-events:
		return e
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for reload")
		return lifecycle.ReloadedEvent{}
	}
}

func TestWatcher_FileChangeInstallsNewDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nlog.yaml")
	writeDoc(t, path, "level: info\n")

	inst := lifecycle.New("test")
	original := loadDoc(t, path)
	inst.SetConfiguration(original)
	events := reloadRecorder(t, inst)

	w, err := New(inst, Options{Files: true, Debounce: 20 * time.Millisecond, Timeout: time.Second})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := w.Start(testContext(t)); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer w.Stop()

	if w.Armed() != lifecycle.Configuration(original) {
		t.Fatal("watcher should be armed against the installed document")
	}

	writeDoc(t, path, "level: debug\n")

	e := waitForReload(t, events)
	if !e.Succeeded {
		t.Fatalf("reload failed: %v", e.Err)
	}
	if e.Sender != inst {
		t.Error("reload event sender should be the instance")
	}

	active, ok := inst.GetConfiguration().(*logconfig.Document)
	if !ok || active == original {
		t.Fatal("expected a new document to be installed")
	}
	if active.Level != "debug" {
		t.Errorf("active Level = %q, want debug", active.Level)
	}
	if w.Armed() != lifecycle.Configuration(active) {
		t.Error("watcher should re-arm against the new document")
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nlog.yaml")
	writeDoc(t, path, "level: info\n")

	inst := lifecycle.New("test")
	inst.SetConfiguration(loadDoc(t, path))
	events := reloadRecorder(t, inst)

	w, err := New(inst, Options{Files: true, Debounce: 10 * time.Millisecond})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := w.Start(testContext(t)); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer w.Stop()

	writeDoc(t, filepath.Join(dir, "other.yaml"), "level: debug\n")

	select {
	case e := <-events:
		t.Fatalf("unexpected reload for unrelated file: %+v", e)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_Arming(t *testing.T) {
	dir := t.TempDir()
	auto := filepath.Join(dir, "auto.yaml")
	manual := filepath.Join(dir, "manual.yaml")
	writeDoc(t, auto, "level: info\n")
	writeDoc(t, manual, "auto_reload: false\n")

	inst := lifecycle.New("test")
	w, err := New(inst, Options{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := w.Start(testContext(t)); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer w.Stop()

	if w.Armed() != nil {
		t.Error("watcher should start disarmed with nothing installed")
	}

	autoDoc := loadDoc(t, auto)
	inst.SetConfiguration(autoDoc)
	if w.Armed() != lifecycle.Configuration(autoDoc) {
		t.Error("watcher should arm on an auto-reloading document")
	}

	inst.SetConfiguration(loadDoc(t, manual))
	if w.Armed() != nil {
		t.Error("watcher should disarm when auto_reload is false")
	}

	inst.SetConfiguration(autoDoc)
	inst.SetConfiguration(nil)
	if w.Armed() != nil {
		t.Error("watcher should disarm when the configuration is unloaded")
	}
}

func TestWatcher_StopDetaches(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nlog.yaml")
	writeDoc(t, path, "level: info\n")

	inst := lifecycle.New("test")
	w, err := New(inst, Options{Files: true})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := w.Start(testContext(t)); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	w.Stop()
	w.Stop()

	inst.SetConfiguration(loadDoc(t, path))
	if w.Armed() != nil {
		t.Error("stopped watcher should not re-arm")
	}
}

func TestWatcher_IntervalReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nlog.yaml")
	writeDoc(t, path, "level: info\n")

	inst := lifecycle.New("test")
	inst.SetConfiguration(loadDoc(t, path))
	events := reloadRecorder(t, inst)

	w, err := New(inst, Options{Interval: 20 * time.Millisecond})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := w.Start(testContext(t)); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer w.Stop()

	// Unchanged content: success without replacement.
	e := waitForReload(t, events)
	if !e.Succeeded {
		t.Fatalf("interval reload failed: %v", e.Err)
	}

	writeDoc(t, path, "level: error\n")

	deadline := time.After(waitTimeout)
	for {
		select {
		case <-events:
			if doc, ok := inst.GetConfiguration().(*logconfig.Document); ok && doc.Level == "error" {
				return
			}
		case <-deadline:
			t.Fatal("interval reload never picked up the new document")
		}
	}
}

// blockingConfig blocks in Reload until released.
type blockingConfig struct {
	calls   atomic.Int32
	release chan struct{}
	once    sync.Once
}

func (b *blockingConfig) Reload() (lifecycle.Configuration, error) {
	b.calls.Add(1)
	<-b.release
	return nil, nil
}

func (b *blockingConfig) unblock() {
	b.once.Do(func() { close(b.release) })
}

func TestWatcher_ReloadTimeoutAndNoOverlap(t *testing.T) {
	inst := lifecycle.New("test")
	blocking := &blockingConfig{release: make(chan struct{})}
	t.Cleanup(blocking.unblock)
	inst.SetConfiguration(blocking)
	events := reloadRecorder(t, inst)

	w, err := New(inst, Options{Timeout: 20 * time.Millisecond})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	start := time.Now()
	w.reload(testContext(t), blocking)
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("reload waited %v, expected the timeout to bound it", elapsed)
	}

	// First reload is still in flight; this trigger must be skipped.
	w.reload(testContext(t), blocking)
	waitForCalls(t, blocking, 1)
	time.Sleep(20 * time.Millisecond)
	if got := blocking.calls.Load(); got != 1 {
		t.Errorf("Reload calls = %d, want 1", got)
	}

	blocking.unblock()
	e := waitForReload(t, events)
	if !e.Succeeded {
		t.Errorf("reload should succeed without replacement, got err %v", e.Err)
	}

	// Busy flag clears once the in-flight reload finishes.
	deadline := time.Now().Add(waitTimeout)
	for w.busy.Load() {
		if time.Now().After(deadline) {
			t.Fatal("busy flag never cleared")
		}
		time.Sleep(time.Millisecond)
	}

	w.reload(testContext(t), blocking)
	waitForReload(t, events)
	if got := blocking.calls.Load(); got != 2 {
		t.Errorf("Reload calls = %d, want 2", got)
	}
}

func TestWatcher_StopWaitsForReloadInFlight(t *testing.T) {
	inst := lifecycle.New("test")
	blocking := &blockingConfig{release: make(chan struct{})}
	t.Cleanup(blocking.unblock)
	inst.SetConfiguration(blocking)

	w, err := New(inst, Options{Interval: 10 * time.Millisecond, Timeout: 10 * time.Millisecond})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := w.Start(testContext(t)); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitForCalls(t, blocking, 1)

	stopped := make(chan struct{})
	go func() {
		w.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Stop() returned while a reload was still running")
	case <-time.After(50 * time.Millisecond):
	}

	blocking.unblock()
	select {
	case <-stopped:
	case <-time.After(waitTimeout):
		t.Fatal("Stop() did not return after the reload finished")
	}
	if w.busy.Load() {
		t.Error("busy flag still set after Stop")
	}
}

func waitForCalls(t *testing.T, b *blockingConfig, want int32) {
	t.Helper()
	deadline := time.Now().Add(waitTimeout)
	for b.calls.Load() < want {
		if time.Now().After(deadline) {
			t.Fatalf("Reload calls = %d, want %d", b.calls.Load(), want)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestWatcher_NilReloadIsNoop(t *testing.T) {
	inst := lifecycle.New("test")
	events := reloadRecorder(t, inst)

	w, err := New(inst, Options{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	w.reload(testContext(t), nil)

	select {
	case e := <-events:
		t.Fatalf("unexpected reload event: %+v", e)
	default:
	}
}
