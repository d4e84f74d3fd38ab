package api

import (
	"net/http"
	"runtime"
	"time"
)

// SystemMetrics represents the system metrics response.
type SystemMetrics struct {
	Timestamp     string         `json:"timestamp"`
	Version       string         `json:"version"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	Runtime       RuntimeMetrics `json:"runtime"`
	Instance      StatusResponse `json:"instance"`
	MQTT          *BackendStatus `json:"mqtt,omitempty"`
	InfluxDB      *BackendStatus `json:"influxdb,omitempty"`
}

// RuntimeMetrics contains Go runtime statistics.
type RuntimeMetrics struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	MemoryTotalMB float64 `json:"memory_total_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// BackendStatus reports an optional backend connection.
type BackendStatus struct {
	Connected bool `json:"connected"`
}

// handleSystemMetrics returns runtime, instance and backend statistics.
func (s *Server) handleSystemMetrics(w http.ResponseWriter, _ *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	metrics := SystemMetrics{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Runtime: RuntimeMetrics{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(memStats.Alloc) / 1024 / 1024,
			MemoryTotalMB: float64(memStats.TotalAlloc) / 1024 / 1024,
			NumGC:         memStats.NumGC,
		},
		Instance: s.status(),
	}

	if s.mqtt != nil {
		metrics.MQTT = &BackendStatus{Connected: s.mqtt.IsConnected()}
	}
	if s.influx != nil {
		metrics.InfluxDB = &BackendStatus{Connected: s.influx.IsConnected()}
	}

	writeJSON(w, http.StatusOK, metrics)
}
