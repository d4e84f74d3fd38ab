// Package influxdb provides InfluxDB connectivity for nlogd.
//
// It wraps the official influxdb-client-go v2 library for connection
// management, batched point writes and health monitoring. nlogd writes one
// point per lifecycle event (see the telemetry package), giving a
// long-term history of configuration swaps, reload outcomes and suspends.
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WritePoint("nlog_lifecycle",
//	    map[string]string{"instance": "default", "event": "reloaded"},
//	    map[string]any{"succeeded": true},
//	    time.Now())
//
// # Thread Safety
//
// All methods are safe for concurrent use. Writes are non-blocking and
// batched according to batch_size and flush_interval; asynchronous write
// errors are delivered to the SetOnError callback.
package influxdb
