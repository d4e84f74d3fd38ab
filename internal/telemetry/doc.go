// Package telemetry exports lifecycle metrics.
//
// A Collector observes one or more lifecycle instances. It keeps
// Prometheus counters for configuration changes and reload outcomes and
// exposes the suspend gate as scrape-time gauges:
//
//	nlog_lifecycle_changes_total{instance}
//	nlog_lifecycle_reloads_total{instance,result}
//	nlog_lifecycle_suspend_count{instance}
//	nlog_lifecycle_enabled{instance}
//	nlog_lifecycle_installed{instance}
//
// When a PointWriter is attached (the influxdb client), every event is
// also written as a point in the nlog_lifecycle measurement.
package telemetry
