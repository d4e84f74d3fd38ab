package mqtt

import (
	"fmt"
	"strings"
)

// TopicPrefix is the root of every nlog topic.
const TopicPrefix = "nlog"

// Topics builds the MQTT topics of one pipeline instance.
//
//	topics := mqtt.NewTopics("default")
//	topics.EventChanged() // "nlog/default/event/changed"
type Topics struct {
	Instance string
}

// NewTopics returns topic builders for instance. Characters that are not
// valid in a topic level are replaced with '_'.
func NewTopics(instance string) Topics {
	return Topics{Instance: sanitizeLevel(instance)}
}

func (t Topics) base() string {
	return fmt.Sprintf("%s/%s", TopicPrefix, t.Instance)
}

// Status returns the retained status topic. Also used for the LWT.
//
// Example: nlog/default/status
func (t Topics) Status() string {
	return t.base() + "/status"
}

// EventChanged returns the topic for configuration change events.
//
// Example: nlog/default/event/changed
func (t Topics) EventChanged() string {
	return t.base() + "/event/changed"
}

// EventReloaded returns the topic for reload outcome events.
//
// Example: nlog/default/event/reloaded
func (t Topics) EventReloaded() string {
	return t.base() + "/event/reloaded"
}

// Command returns the topic for one command action.
//
// Example: nlog/default/command/suspend
func (t Topics) Command(action string) string {
	return fmt.Sprintf("%s/command/%s", t.base(), action)
}

// AllCommands returns a wildcard matching every command of the instance.
func (t Topics) AllCommands() string {
	return t.base() + "/command/+"
}

// AllEvents returns a wildcard matching every event of the instance.
func (t Topics) AllEvents() string {
	return t.base() + "/event/+"
}

// AllInstances returns a wildcard matching every nlog topic.
func (Topics) AllInstances() string {
	return TopicPrefix + "/#"
}

// CommandAction extracts the action from a command topic of this
// instance. ok is false for any other topic.
func (t Topics) CommandAction(topic string) (action string, ok bool) {
	prefix := t.base() + "/command/"
	action, found := strings.CutPrefix(topic, prefix)
	if !found || action == "" || strings.Contains(action, "/") {
		return "", false
	}
	return action, true
}

// sanitizeLevel replaces wildcard and separator characters so the value
// is a single literal topic level.
func sanitizeLevel(s string) string {
	if s == "" {
		return "_"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '+', '#', 0:
			return '_'
		default:
			return r
		}
	}, s)
}
