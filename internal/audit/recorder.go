package audit

import (
	"context"
	"time"

	"github.com/cherubic/NLog/internal/lifecycle"
)

// writeTimeout bounds each insert made from an event callback.
const writeTimeout = 5 * time.Second

// Logger is the logging interface used by the Recorder.
type Logger interface {
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Warn(string, ...any) {}

// Recorder is a lifecycle.Observer that writes one audit entry per event.
type Recorder struct {
	repo   Repository
	source string
	logger Logger
}

var _ lifecycle.Observer = (*Recorder)(nil)

// NewRecorder creates a recorder writing to repo. source identifies the
// process in each entry.
func NewRecorder(repo Repository, source string, logger Logger) *Recorder {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Recorder{repo: repo, source: source, logger: logger}
}

// ConfigurationChanged records a swap of the active configuration.
func (r *Recorder) ConfigurationChanged(e lifecycle.ChangedEvent) {
	r.write(&Entry{
		Action:        ActionChanged,
		Instance:      e.Sender.Name(),
		Source:        r.source,
		Configuration: lifecycle.Describe(e.Activated),
		Previous:      lifecycle.Describe(e.Deactivated),
	})
}

// ConfigurationReloaded records the outcome of a timer-driven reload.
func (r *Recorder) ConfigurationReloaded(e lifecycle.ReloadedEvent) {
	succeeded := e.Succeeded
	entry := &Entry{
		Action:        ActionReloaded,
		Instance:      e.Sender.Name(),
		Source:        r.source,
		Configuration: lifecycle.Describe(e.Sender.GetConfiguration()),
		Succeeded:     &succeeded,
	}
	if e.Err != nil {
		entry.Error = e.Err.Error()
	}
	r.write(entry)
}

func (r *Recorder) write(entry *Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if err := r.repo.Create(ctx, entry); err != nil {
		r.logger.Warn("writing audit entry failed", "action", entry.Action, "instance", entry.Instance, "error", err)
	}
}
