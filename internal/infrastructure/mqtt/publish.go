package mqtt

import "fmt"

// maxPayloadSize caps outgoing messages at 1MB, in line with typical
// broker limits.
const maxPayloadSize = 1 << 20

// Publish sends a payload to a topic at the given QoS. Retained should
// be true only for state topics like the system status topic, where the
// broker hands the last value to new subscribers; entry events are never
// retained.
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: payload size %d exceeds maximum %d bytes", ErrPublishFailed, len(payload), maxPayloadSize)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	return waitToken(c.client.Publish(topic, qos, retained, payload), ErrPublishFailed)
}

// PublishJSON publishes a payload with the client's configured default
// QoS, unretained. Entry-event simulation uses this path.
func (c *Client) PublishJSON(topic string, payload []byte) error {
	return c.Publish(topic, payload, byte(c.cfg.QoS), false)
}
