package telemetry

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/cherubic/NLog/internal/lifecycle"
)

type stubConfig struct {
	next lifecycle.Configuration
	err  error
}

func (s *stubConfig) Reload() (lifecycle.Configuration, error) { return s.next, s.err }

type point struct {
	measurement string
	tags        map[string]string
	fields      map[string]any
	at          time.Time
}

type fakeWriter struct {
	mu     sync.Mutex
	points []point
}

func (f *fakeWriter) WritePoint(measurement string, tags map[string]string, fields map[string]any, at time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.points = append(f.points, point{measurement, tags, fields, at})
}

func newTracked(t *testing.T, name string) (*Collector, *prometheus.Registry, *lifecycle.Instance) {
	t.Helper()
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	inst := lifecycle.New(name)
	if err := c.Track(inst); err != nil {
		t.Fatalf("Track() error = %v", err)
	}
	return c, reg, inst
}

func TestCollector_Counters(t *testing.T) {
	c, _, inst := newTracked(t, "default")

	second := &stubConfig{}
	first := &stubConfig{next: second}
	inst.SetConfiguration(first)
	inst.ReloadOnTimer(first)

	failing := &stubConfig{err: errors.New("boom")}
	inst.SetConfiguration(failing)
	inst.ReloadOnTimer(failing)

	if got := testutil.ToFloat64(c.changes.WithLabelValues("default")); got != 3 {
		t.Errorf("changes_total = %v, want 3", got)
	}
	if got := testutil.ToFloat64(c.reloads.WithLabelValues("default", resultSucceeded)); got != 1 {
		t.Errorf("reloads_total{succeeded} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.reloads.WithLabelValues("default", resultFailed)); got != 1 {
		t.Errorf("reloads_total{failed} = %v, want 1", got)
	}
}

func TestCollector_Gauges(t *testing.T) {
	_, reg, inst := newTracked(t, "default")

	inst.SetConfiguration(&stubConfig{})
	inst.Suspend()
	inst.Suspend()

	expected := `
# HELP nlog_lifecycle_enabled 1 when logging is enabled.
# TYPE nlog_lifecycle_enabled gauge
nlog_lifecycle_enabled{instance="default"} 0
# HELP nlog_lifecycle_installed 1 when a configuration is installed.
# TYPE nlog_lifecycle_installed gauge
nlog_lifecycle_installed{instance="default"} 1
# HELP nlog_lifecycle_suspend_count Current suspend counter; logging is enabled while <= 0.
# TYPE nlog_lifecycle_suspend_count gauge
nlog_lifecycle_suspend_count{instance="default"} 2
`
	err := testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"nlog_lifecycle_enabled", "nlog_lifecycle_installed", "nlog_lifecycle_suspend_count")
	if err != nil {
		t.Error(err)
	}
}

func TestCollector_TrackDuplicateFails(t *testing.T) {
	c, _, _ := newTracked(t, "default")

	if err := c.Track(lifecycle.New("default")); err == nil {
		t.Error("Track() with a duplicate instance name should fail")
	}
	if err := c.Track(lifecycle.New("other")); err != nil {
		t.Errorf("Track() for a distinct name error = %v", err)
	}
}

func TestCollector_Untrack(t *testing.T) {
	c, reg, inst := newTracked(t, "default")

	c.Untrack(inst)
	inst.SetConfiguration(&stubConfig{})

	if got := testutil.ToFloat64(c.changes.WithLabelValues("default")); got != 0 {
		t.Errorf("changes_total after Untrack = %v, want 0", got)
	}
	if n, err := testutil.GatherAndCount(reg, "nlog_lifecycle_suspend_count"); err != nil || n != 0 {
		t.Errorf("suspend_count series = %d (err %v), want 0", n, err)
	}

	// The name is free again.
	if err := c.Track(lifecycle.New("default")); err != nil {
		t.Errorf("Track() after Untrack error = %v", err)
	}
}

func TestCollector_WritesPoints(t *testing.T) {
	c, _, inst := newTracked(t, "default")
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return at }

	w := &fakeWriter{}
	c.SetPointWriter(w)

	failing := &stubConfig{err: errors.New("boom")}
	inst.SetConfiguration(failing)
	inst.ReloadOnTimer(failing)

	if len(w.points) != 2 {
		t.Fatalf("points = %d, want 2", len(w.points))
	}

	changed := w.points[0]
	if changed.measurement != Measurement || changed.tags["event"] != "changed" || changed.tags["instance"] != "default" {
		t.Errorf("changed point = %+v", changed)
	}
	if changed.fields["installed"] != true {
		t.Errorf("installed field = %v, want true", changed.fields["installed"])
	}
	if !changed.at.Equal(at) {
		t.Errorf("timestamp = %v, want %v", changed.at, at)
	}

	reloaded := w.points[1]
	if reloaded.tags["event"] != "reloaded" || reloaded.fields["succeeded"] != false {
		t.Errorf("reloaded point = %+v", reloaded)
	}
	if !strings.Contains(reloaded.fields["error"].(string), "boom") {
		t.Errorf("error field = %v", reloaded.fields["error"])
	}

	c.SetPointWriter(nil)
	inst.SetConfiguration(nil)
	if len(w.points) != 2 {
		t.Errorf("points after detaching writer = %d, want 2", len(w.points))
	}
}
