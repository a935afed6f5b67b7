// Package influxdb provides InfluxDB connectivity for Atrium Core.
//
// It wraps the official influxdb-client-go v2 library with Atrium's
// patterns for connection management, metric writing, and health
// monitoring.
//
// # Purpose
//
// This package exports an entry-event time series: one point per
// processed sensor event, tagged by topic and resolution outcome.
// Dashboards use it for traffic rates and unknown-subject ratios
// without querying the audit log. The integration is optional and off
// by default (influxdb.enabled in config.yaml).
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// The underlying write API uses non-blocking batched writes.
//
// # Error Handling
//
// Write operations are non-blocking; batch errors surface via the
// SetOnError callback. Connection and health check errors are returned
// directly.
package influxdb
