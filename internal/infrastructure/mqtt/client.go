package mqtt

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/cherubic/NLog/internal/infrastructure/config"
)

// Client is a broker connection scoped to one instance's topic subtree.
//
// It keeps a retained status message on Topics().Status() (online while
// connected, offline on Close or via the last will), reconnects
// automatically and restores subscriptions afterwards. All methods are safe
// for concurrent use.
type Client struct {
	paho   pahomqtt.Client
	cfg    config.MQTTConfig
	topics Topics

	connected atomic.Bool
	subs      registry

	mu           sync.RWMutex
	logger       Logger
	onConnect    func()
	onDisconnect func(err error)
}

// Logger is the logging interface used by the client.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// MessageHandler receives a message's concrete topic and raw payload.
// Handlers run on paho goroutines. A returned error is logged; it does not
// affect acknowledgement.
type MessageHandler func(topic string, payload []byte) error

// Connect dials the broker described by cfg and publishes a retained online
// status. The broker is told to publish an offline status if the client
// vanishes without calling Close.
//
// There is no retry on the first attempt: an unreachable broker yields a
// wrapped ErrConnectionFailed. Later drops are handled by auto-reconnect.
func Connect(cfg config.MQTTConfig, topics Topics) (*Client, error) {
	c := &Client{cfg: cfg, topics: topics}

	opts := buildClientOptions(cfg)
	configureLWT(opts, cfg.Broker.ClientID, topics)
	opts.SetOnConnectHandler(func(pahomqtt.Client) { c.handleConnect() })
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) { c.handleConnectionLost(err) })
	opts.SetReconnectingHandler(func(pahomqtt.Client, *pahomqtt.ClientOptions) {
		c.getLogger().Info("MQTT reconnecting", "broker", cfg.Broker.Host, "instance", topics.Instance)
	})

	c.paho = pahomqtt.NewClient(opts)
	if err := await(c.paho.Connect(), defaultConnectTimeout, ErrConnectionFailed); err != nil {
		return nil, err
	}

	// The connect handler runs asynchronously.
	c.connected.Store(true)
	return c, nil
}

// await waits for token and wraps a failure or timeout in op.
func await(token pahomqtt.Token, timeout time.Duration, op error) error {
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("%w: %w after %v", op, ErrTimeout, timeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", op, err)
	}
	return nil
}

func (c *Client) handleConnect() {
	c.connected.Store(true)
	c.restoreSubscriptions()
	c.publishStatus(StatusOnline, "")

	c.mu.RLock()
	callback := c.onConnect
	c.mu.RUnlock()
	if callback != nil {
		callback()
	}
}

func (c *Client) handleConnectionLost(err error) {
	c.connected.Store(false)

	c.mu.RLock()
	callback := c.onDisconnect
	c.mu.RUnlock()
	if callback != nil {
		callback(err)
	}
}

// restoreSubscriptions re-issues every tracked subscription. Failures are
// logged; the next reconnect tries again.
func (c *Client) restoreSubscriptions() {
	c.subs.each(func(s subscription) {
		token := c.paho.Subscribe(s.topic, s.qos, c.wrapHandler(s.handler))
		if err := await(token, defaultOperationTimeout, ErrSubscribeFailed); err != nil {
			c.getLogger().Warn("restoring MQTT subscription", "topic", s.topic, "error", err)
		}
	})
}

// publishStatus sends the retained status message without waiting for it.
func (c *Client) publishStatus(status, reason string) pahomqtt.Token {
	payload := buildStatusPayload(status, c.cfg.Broker.ClientID, c.topics.Instance, reason)
	return c.paho.Publish(c.topics.Status(), byte(c.cfg.QoS), true, payload)
}

// Topics returns the topic set the client was connected with.
func (c *Client) Topics() Topics {
	return c.topics
}

// Close publishes a retained offline status and disconnects. Closing a
// client that never connected is not an error.
func (c *Client) Close() error {
	if c.paho == nil {
		return nil
	}

	if c.IsConnected() {
		if err := await(c.publishStatus(StatusOffline, "graceful_shutdown"), defaultOperationTimeout, ErrPublishFailed); err != nil {
			c.getLogger().Warn("publishing offline status", "error", err)
		}
	}

	c.paho.Disconnect(defaultDisconnectQuiesce)
	c.connected.Store(false)
	return nil
}

// HealthCheck returns ErrNotConnected while the broker connection is down.
func (c *Client) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("mqtt health check: %w", err)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}
	return nil
}

// IsConnected reports whether the client is currently connected.
func (c *Client) IsConnected() bool {
	return c.connected.Load() && c.paho != nil && c.paho.IsConnected()
}

// SetOnConnect registers a callback run after every (re)connect.
func (c *Client) SetOnConnect(callback func()) {
	c.mu.Lock()
	c.onConnect = callback
	c.mu.Unlock()
}

// SetOnDisconnect registers a callback run when the connection drops.
func (c *Client) SetOnDisconnect(callback func(err error)) {
	c.mu.Lock()
	c.onDisconnect = callback
	c.mu.Unlock()
}

// SetLogger sets the logger. A nil logger discards output.
func (c *Client) SetLogger(logger Logger) {
	c.mu.Lock()
	c.logger = logger
	c.mu.Unlock()
}

func (c *Client) getLogger() Logger {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.logger == nil {
		return noopLogger{}
	}
	return c.logger
}

// wrapHandler adapts h to paho, recovering panics and logging errors.
func (c *Client) wrapHandler(h MessageHandler) pahomqtt.MessageHandler {
	return func(_ pahomqtt.Client, msg pahomqtt.Message) {
		defer func() {
			if r := recover(); r != nil {
				c.getLogger().Error("MQTT handler panic recovered", "topic", msg.Topic(), "panic", r)
			}
		}()

		if err := h(msg.Topic(), msg.Payload()); err != nil {
			c.getLogger().Warn("MQTT handler failed", "topic", msg.Topic(), "error", err)
		}
	}
}
