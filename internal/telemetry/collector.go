package telemetry

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/cherubic/NLog/internal/lifecycle"
)

const (
	namespace = "nlog"
	subsystem = "lifecycle"

	// Measurement is the InfluxDB measurement for lifecycle points.
	Measurement = "nlog_lifecycle"

	resultSucceeded = "succeeded"
	resultFailed    = "failed"
)

// PointWriter receives one point per lifecycle event.
type PointWriter interface {
	WritePoint(measurement string, tags map[string]string, fields map[string]any, at time.Time)
}

// Collector records lifecycle metrics for tracked instances.
type Collector struct {
	reg prometheus.Registerer

	changes *prometheus.CounterVec
	reloads *prometheus.CounterVec

	mu      sync.RWMutex
	points  PointWriter
	tracked map[*lifecycle.Instance][]prometheus.Collector

	now func() time.Time
}

var _ lifecycle.Observer = (*Collector)(nil)

// NewCollector registers the counters on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		reg: reg,
		changes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "changes_total",
			Help:      "Configuration swaps that changed the active snapshot.",
		}, []string{"instance"}),
		reloads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "reloads_total",
			Help:      "Timer-driven reloads by result.",
		}, []string{"instance", "result"}),
		tracked: make(map[*lifecycle.Instance][]prometheus.Collector),
		now:     time.Now,
	}
}

// SetPointWriter attaches w. Nil detaches.
func (c *Collector) SetPointWriter(w PointWriter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.points = w
}

// Track registers the per-instance gauges and subscribes to inst.
func (c *Collector) Track(inst *lifecycle.Instance) error {
	labels := prometheus.Labels{"instance": inst.Name()}
	gauges := []prometheus.Collector{
		gaugeFunc("suspend_count", "Current suspend counter; logging is enabled while <= 0.", labels, func() float64 {
			return float64(inst.SuspendCount())
		}),
		gaugeFunc("enabled", "1 when logging is enabled.", labels, func() float64 {
			return boolFloat(inst.IsLoggingEnabled())
		}),
		gaugeFunc("installed", "1 when a configuration is installed.", labels, func() float64 {
			return boolFloat(inst.GetConfiguration() != nil)
		}),
	}

	for i, g := range gauges {
		if err := c.reg.Register(g); err != nil {
			for _, done := range gauges[:i] {
				c.reg.Unregister(done)
			}
			return fmt.Errorf("registering gauges for instance %q: %w", inst.Name(), err)
		}
	}

	c.mu.Lock()
	c.tracked[inst] = gauges
	c.mu.Unlock()

	inst.Subscribe(c)
	return nil
}

// Untrack unsubscribes from inst and removes its gauges.
func (c *Collector) Untrack(inst *lifecycle.Instance) {
	inst.Unsubscribe(c)

	c.mu.Lock()
	gauges := c.tracked[inst]
	delete(c.tracked, inst)
	c.mu.Unlock()

	for _, g := range gauges {
		c.reg.Unregister(g)
	}
}

// ConfigurationChanged counts the swap and writes a point.
func (c *Collector) ConfigurationChanged(e lifecycle.ChangedEvent) {
	name := e.Sender.Name()
	c.changes.WithLabelValues(name).Inc()

	c.writePoint(name, "changed", map[string]any{
		"installed":     e.Activated != nil,
		"configuration": lifecycle.Describe(e.Activated),
		"suspend_count": e.Sender.SuspendCount(),
	})
}

// ConfigurationReloaded counts the outcome and writes a point.
func (c *Collector) ConfigurationReloaded(e lifecycle.ReloadedEvent) {
	name := e.Sender.Name()
	result := resultSucceeded
	if !e.Succeeded {
		result = resultFailed
	}
	c.reloads.WithLabelValues(name, result).Inc()

	fields := map[string]any{
		"succeeded":     e.Succeeded,
		"suspend_count": e.Sender.SuspendCount(),
	}
	if e.Err != nil {
		fields["error"] = e.Err.Error()
	}
	c.writePoint(name, "reloaded", fields)
}

func (c *Collector) writePoint(instance, event string, fields map[string]any) {
	c.mu.RLock()
	w := c.points
	c.mu.RUnlock()
	if w == nil {
		return
	}

	w.WritePoint(Measurement, map[string]string{
		"instance": instance,
		"event":    event,
	}, fields, c.now())
}

func gaugeFunc(name, help string, labels prometheus.Labels, fn func() float64) prometheus.GaugeFunc {
	return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace:   namespace,
		Subsystem:   subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: labels,
	}, fn)
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
