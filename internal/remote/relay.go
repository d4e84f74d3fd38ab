// Package remote bridges a lifecycle.Instance to the MQTT bus: lifecycle
// events are published as JSON and command messages are mapped onto
// instance operations.
package remote

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cherubic/NLog/internal/infrastructure/mqtt"
	"github.com/cherubic/NLog/internal/lifecycle"
)

// Command actions accepted on nlog/{instance}/command/{action}.
const (
	ActionSuspend = "suspend"
	ActionResume  = "resume"
	ActionReload  = "reload"
	ActionUnload  = "unload"
)

// ErrUnknownCommand is returned for actions the relay does not handle.
var ErrUnknownCommand = errors.New("remote: unknown command")

// Transport is the subset of the MQTT client the relay needs.
type Transport interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
}

// Logger is the logging interface used by the relay.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any) {}
func (noopLogger) Warn(string, ...any) {}

// ChangedMessage is published on the event/changed topic.
type ChangedMessage struct {
	Instance    string `json:"instance"`
	Deactivated string `json:"deactivated,omitempty"`
	Activated   string `json:"activated,omitempty"`
	Timestamp   string `json:"timestamp"`
}

// ReloadedMessage is published on the event/reloaded topic.
type ReloadedMessage struct {
	Instance      string `json:"instance"`
	Succeeded     bool   `json:"succeeded"`
	Error         string `json:"error,omitempty"`
	Configuration string `json:"configuration,omitempty"`
	Timestamp     string `json:"timestamp"`
}

// Relay publishes lifecycle events and executes remote commands.
type Relay struct {
	inst      *lifecycle.Instance
	transport Transport
	topics    mqtt.Topics
	qos       byte
	logger    Logger
	sub       *lifecycle.Subscription
	now       func() time.Time
}

var _ lifecycle.Observer = (*Relay)(nil)

// New creates a relay for inst. Call Start to attach it.
func New(inst *lifecycle.Instance, transport Transport, topics mqtt.Topics, qos byte, logger Logger) *Relay {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Relay{
		inst:      inst,
		transport: transport,
		topics:    topics,
		qos:       qos,
		logger:    logger,
		now:       time.Now,
	}
}

// Start subscribes to the instance's command topics and to its events.
func (r *Relay) Start() error {
	if err := r.transport.Subscribe(r.topics.AllCommands(), r.qos, r.handleCommand); err != nil {
		return fmt.Errorf("subscribing to commands: %w", err)
	}
	r.inst.Subscribe(r)
	return nil
}

// Stop detaches from the instance and the command topics.
func (r *Relay) Stop() error {
	r.inst.Unsubscribe(r)
	if err := r.transport.Unsubscribe(r.topics.AllCommands()); err != nil {
		return fmt.Errorf("unsubscribing from commands: %w", err)
	}
	return nil
}

// ConfigurationChanged publishes the change event.
func (r *Relay) ConfigurationChanged(e lifecycle.ChangedEvent) {
	r.publish(r.topics.EventChanged(), ChangedMessage{
		Instance:    e.Sender.Name(),
		Deactivated: lifecycle.Describe(e.Deactivated),
		Activated:   lifecycle.Describe(e.Activated),
		Timestamp:   r.timestamp(),
	})
}

// ConfigurationReloaded publishes the reload outcome.
func (r *Relay) ConfigurationReloaded(e lifecycle.ReloadedEvent) {
	msg := ReloadedMessage{
		Instance:      e.Sender.Name(),
		Succeeded:     e.Succeeded,
		Configuration: lifecycle.Describe(e.Sender.GetConfiguration()),
		Timestamp:     r.timestamp(),
	}
	if e.Err != nil {
		msg.Error = e.Err.Error()
	}
	r.publish(r.topics.EventReloaded(), msg)
}

func (r *Relay) publish(topic string, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		r.logger.Warn("encoding lifecycle event", "topic", topic, "error", err)
		return
	}
	if err := r.transport.Publish(topic, payload, r.qos, false); err != nil {
		r.logger.Warn("publishing lifecycle event", "topic", topic, "error", err)
	}
}

func (r *Relay) timestamp() string {
	return r.now().UTC().Format(time.RFC3339)
}

// handleCommand executes the action named by the last topic level.
// The payload is ignored.
func (r *Relay) handleCommand(topic string, _ []byte) error {
	action, ok := r.topics.CommandAction(topic)
	if !ok {
		return fmt.Errorf("%w: topic %s", ErrUnknownCommand, topic)
	}
	if err := Execute(r.inst, action); err != nil {
		return err
	}
	r.logger.Info("remote command executed", "instance", r.inst.Name(), "action", action)
	return nil
}

// Execute applies action to inst. A reload is issued against the
// currently installed configuration.
func Execute(inst *lifecycle.Instance, action string) error {
	switch action {
	case ActionSuspend:
		inst.Suspend()
	case ActionResume:
		inst.Resume()
	case ActionReload:
		inst.ReloadOnTimer(inst.GetConfiguration())
	case ActionUnload:
		inst.SetConfiguration(nil)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, action)
	}
	return nil
}
