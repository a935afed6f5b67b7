// Package notify turns raw entry events from the sensor bus into the
// live notification feed and room_entry audit records.
//
// The feed is a bounded in-memory ring: a fixed capacity of recent
// entries for dashboards, independent of the unbounded audit log. The
// pipeline consumes one message at a time from a single listener
// goroutine; a bad message is logged and skipped, never fatal.
package notify
