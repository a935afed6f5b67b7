package influxdb

import "errors"

// Sentinel errors for the metrics client. Matched with errors.Is; the
// health check treats ErrNotConnected as non-fatal since entry metrics
// are best-effort.
var (
	// ErrNotConnected indicates no InfluxDB connection is available.
	ErrNotConnected = errors.New("influxdb: not connected")

	// ErrConnectionFailed indicates the initial connection attempt failed.
	ErrConnectionFailed = errors.New("influxdb: connection failed")

	// ErrDisabled indicates the integration is switched off in config.
	ErrDisabled = errors.New("influxdb: disabled in configuration")
)
