package mqtt

import "errors"

// Connection state.
var (
	ErrConnectionFailed = errors.New("mqtt: connection failed")
	ErrNotConnected     = errors.New("mqtt: client not connected")
	ErrTimeout          = errors.New("mqtt: operation timed out")
)

// Operation failures. Broker errors and ErrTimeout are wrapped inside them.
var (
	ErrPublishFailed     = errors.New("mqtt: publish failed")
	ErrSubscribeFailed   = errors.New("mqtt: subscribe failed")
	ErrUnsubscribeFailed = errors.New("mqtt: unsubscribe failed")
)

// Argument validation.
var (
	ErrInvalidTopic    = errors.New("mqtt: topic cannot be empty")
	ErrInvalidQoS      = errors.New("mqtt: QoS must be 0, 1 or 2")
	ErrPayloadTooLarge = errors.New("mqtt: payload too large")
)
