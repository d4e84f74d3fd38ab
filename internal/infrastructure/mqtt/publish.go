package mqtt

import "fmt"

// maxPayloadSize caps outgoing payloads at 1MB.
const maxPayloadSize = 1 << 20

// Publish sends payload to topic and waits for the broker to accept it.
// Retain only state (status), never events or commands.
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	switch {
	case topic == "":
		return ErrInvalidTopic
	case qos > maxQoS:
		return ErrInvalidQoS
	case len(payload) > maxPayloadSize:
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrPayloadTooLarge, len(payload), maxPayloadSize)
	case !c.IsConnected():
		return ErrNotConnected
	}

	return await(c.paho.Publish(topic, qos, retained, payload), defaultOperationTimeout, ErrPublishFailed)
}
