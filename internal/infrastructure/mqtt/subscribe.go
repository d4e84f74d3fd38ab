package mqtt

import (
	"fmt"
	"sync"
)

type subscription struct {
	topic   string
	qos     byte
	handler MessageHandler
}

// registry tracks subscriptions by topic pattern so they survive a
// reconnect with a clean session. The zero value is ready to use.
type registry struct {
	mu   sync.RWMutex
	subs map[string]subscription
}

func (r *registry) put(s subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.subs == nil {
		r.subs = make(map[string]subscription)
	}
	r.subs[s.topic] = s
}

func (r *registry) remove(topic string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.subs, topic)
}

func (r *registry) has(topic string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.subs[topic]
	return ok
}

func (r *registry) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}

func (r *registry) each(fn func(subscription)) {
	r.mu.RLock()
	subs := make([]subscription, 0, len(r.subs))
	for _, s := range r.subs {
		subs = append(subs, s)
	}
	r.mu.RUnlock()

	for _, s := range subs {
		fn(s)
	}
}

// Subscribe registers handler for topic, which may contain the + and #
// wildcards (e.g. Topics.AllCommands()). A second call for the same
// pattern replaces the handler.
func (c *Client) Subscribe(topic string, qos byte, handler MessageHandler) error {
	switch {
	case topic == "":
		return ErrInvalidTopic
	case qos > maxQoS:
		return ErrInvalidQoS
	case handler == nil:
		return fmt.Errorf("%w: nil handler", ErrSubscribeFailed)
	case !c.IsConnected():
		return ErrNotConnected
	}

	if err := await(c.paho.Subscribe(topic, qos, c.wrapHandler(handler)), defaultOperationTimeout, ErrSubscribeFailed); err != nil {
		return err
	}
	c.subs.put(subscription{topic: topic, qos: qos, handler: handler})
	c.getLogger().Debug("MQTT subscribed", "topic", topic, "qos", qos)
	return nil
}

// Unsubscribe drops the subscription for the exact topic pattern. Messages
// already in flight may still be delivered.
func (c *Client) Unsubscribe(topic string) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	c.subs.remove(topic)
	return await(c.paho.Unsubscribe(topic), defaultOperationTimeout, ErrUnsubscribeFailed)
}

// SubscriptionCount returns the number of tracked subscriptions.
func (c *Client) SubscriptionCount() int {
	return c.subs.len()
}

// HasSubscription reports whether the exact topic pattern is subscribed.
func (c *Client) HasSubscription(topic string) bool {
	return c.subs.has(topic)
}
