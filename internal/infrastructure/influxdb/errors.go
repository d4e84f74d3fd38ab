package influxdb

import "errors"

var (
	// ErrDisabled is returned by Connect when influxdb.enabled is false.
	ErrDisabled = errors.New("influxdb: disabled in configuration")

	// ErrConnectionFailed wraps ping failures during Connect.
	ErrConnectionFailed = errors.New("influxdb: connection failed")

	// ErrUnhealthy means the server answered the ping but reported not ready.
	ErrUnhealthy = errors.New("influxdb: server not healthy")

	// ErrNotConnected is returned by HealthCheck on a closed client.
	ErrNotConnected = errors.New("influxdb: not connected")
)
