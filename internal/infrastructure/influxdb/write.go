package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// RecordEntry writes one point to the entry_events measurement for a
// processed sensor event.
//
// The write is non-blocking; data is batched and sent asynchronously.
// RecordEntry satisfies the ingestion pipeline's EntryRecorder hook.
//
// Parameters:
//   - topic: The bus topic the event arrived on
//   - identityType: "rfid", "face", or an unresolved reason tag
//   - resolved: Whether the subject matched a directory identity
func (c *Client) RecordEntry(topic, identityType string, resolved bool) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"entry_events",
		map[string]string{
			"topic":         topic,
			"identity_type": identityType,
		},
		map[string]interface{}{
			"count":    1,
			"resolved": resolved,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for measurements that don't fit the entry-event helper.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, time.Now()))
}
