package mqtt

import "testing"

func TestTopicBuilders(t *testing.T) {
	topics := NewTopics("default")

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"Status", topics.Status(), "nlog/default/status"},
		{"EventChanged", topics.EventChanged(), "nlog/default/event/changed"},
		{"EventReloaded", topics.EventReloaded(), "nlog/default/event/reloaded"},
		{"Command", topics.Command("suspend"), "nlog/default/command/suspend"},
		{"AllCommands", topics.AllCommands(), "nlog/default/command/+"},
		{"AllEvents", topics.AllEvents(), "nlog/default/event/+"},
		{"AllInstances", topics.AllInstances(), "nlog/#"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.want)
			}
		})
	}
}

func TestNewTopics_SanitizesInstance(t *testing.T) {
	tests := []struct {
		instance string
		want     string
	}{
		{"default", "default"},
		{"a/b", "a_b"},
		{"all+", "all_"},
		{"#", "_"},
		{"", "_"},
	}

	for _, tt := range tests {
		t.Run(tt.instance, func(t *testing.T) {
			if got := NewTopics(tt.instance).Instance; got != tt.want {
				t.Errorf("NewTopics(%q).Instance = %q, want %q", tt.instance, got, tt.want)
			}
		})
	}
}

func TestCommandAction(t *testing.T) {
	topics := NewTopics("default")

	tests := []struct {
		topic      string
		wantAction string
		wantOK     bool
	}{
		{"nlog/default/command/suspend", "suspend", true},
		{"nlog/default/command/reload", "reload", true},
		{"nlog/default/command/", "", false},
		{"nlog/default/command/a/b", "", false},
		{"nlog/other/command/suspend", "", false},
		{"nlog/default/event/changed", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.topic, func(t *testing.T) {
			action, ok := topics.CommandAction(tt.topic)
			if ok != tt.wantOK || action != tt.wantAction {
				t.Errorf("CommandAction(%q) = %q, %v; want %q, %v", tt.topic, action, ok, tt.wantAction, tt.wantOK)
			}
		})
	}
}
