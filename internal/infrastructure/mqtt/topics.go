package mqtt

import "fmt"

// Topic prefixes for the Atrium MQTT namespace.
//
// Sensor topics are configured, not built here: each deployment names
// its own entry topic (mqtt.entry_topic in config.yaml). These helpers
// cover the topics Core itself owns.
const (
	// TopicPrefix is the base for all Atrium topics.
	TopicPrefix = "atrium"

	// TopicPrefixSystem is the base for system status topics.
	TopicPrefixSystem = "atrium/system"
)

// Topics provides builders for Atrium-owned MQTT topics.
// Using these helpers keeps topic naming consistent across the codebase.
type Topics struct{}

// SystemStatus returns the retained topic carrying Core's online/offline
// status. The LWT publishes here on unexpected disconnect.
//
// Example: atrium/system/status
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}

// SensorEntry returns the entry topic for a specific sensor, used by
// the simulator to publish synthetic events.
//
// Example: atrium/sensors/door-01/entry
func (Topics) SensorEntry(sensorID string) string {
	return fmt.Sprintf("%s/sensors/%s/entry", TopicPrefix, sensorID)
}
