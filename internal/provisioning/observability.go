package provisioning

import (
	"fmt"
	"io"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
)

// Logger is the printf-style surface phases use for free-form lines.
type Logger interface {
	Printf(format string, v ...interface{})
}

// Observer receives the structured record of a launch: phase boundaries,
// EC2 resources touched, and progress while waiting on AWS.
type Observer interface {
	Logger
	Event(event Event)
	Progress(phase string, done, total int)
	// WithValues returns an Observer that attaches keysAndValues to
	// everything it emits.
	WithValues(keysAndValues ...any) Observer
}

// EventType classifies an Event.
type EventType string

const (
	EventPhaseStarted   EventType = "phase.started"
	EventPhaseCompleted EventType = "phase.completed"
	EventPhaseFailed    EventType = "phase.failed"

	EventResourceCreating EventType = "resource.creating"
	EventResourceCreated  EventType = "resource.created"
	EventResourceExists   EventType = "resource.exists"
	EventResourceDeleting EventType = "resource.deleting"
	EventResourceDeleted  EventType = "resource.deleted"

	EventValidationWarning EventType = "validation.warning"
)

// Event is one structured observation. Kind names the EC2 resource type
// ("security group", "spot request"); Resource and ID identify it.
type Event struct {
	Type     EventType
	Phase    string
	Kind     string
	Resource string
	ID       string
	Message  string
	Err      error
	Time     time.Time
}

func (e Event) keysAndValues() []any {
	kv := []any{"event", string(e.Type)}
	for _, f := range [][2]string{
		{"phase", e.Phase},
		{"kind", e.Kind},
		{"resource", e.Resource},
		{"id", e.ID},
	} {
		if f[1] != "" {
			kv = append(kv, f[0], f[1])
		}
	}
	return kv
}

// NewLogger returns a logr.Logger writing one line per entry to w.
// verbosity enables V(n) messages up to n.
func NewLogger(w io.Writer, verbosity int) logr.Logger {
	return funcr.New(func(prefix, args string) {
		if prefix != "" {
			fmt.Fprintf(w, "%s: %s\n", prefix, args)
			return
		}
		fmt.Fprintln(w, args)
	}, funcr.Options{
		LogTimestamp:    true,
		TimestampFormat: "15:04:05",
		Verbosity:       verbosity,
	})
}

// ConsoleObserver renders events through a logr.Logger.
type ConsoleObserver struct {
	logger logr.Logger
}

// NewConsoleObserver creates a ConsoleObserver writing through logger.
func NewConsoleObserver(logger logr.Logger) *ConsoleObserver {
	return &ConsoleObserver{logger: logger}
}

func (o *ConsoleObserver) Printf(format string, v ...interface{}) {
	o.logger.Info(fmt.Sprintf(format, v...))
}

func (o *ConsoleObserver) Event(e Event) {
	if e.Err != nil || e.Type == EventPhaseFailed {
		o.logger.Error(e.Err, e.Message, e.keysAndValues()...)
		return
	}
	o.logger.Info(e.Message, e.keysAndValues()...)
}

func (o *ConsoleObserver) Progress(phase string, done, total int) {
	kv := []any{"phase", phase, "done", done, "total", total}
	if total > 0 {
		kv = append(kv, "percent", done*100/total)
	}
	o.logger.Info("progress", kv...)
}

func (o *ConsoleObserver) WithValues(keysAndValues ...any) Observer {
	return &ConsoleObserver{logger: o.logger.WithValues(keysAndValues...)}
}

// LogPhaseStart records that phase began.
func LogPhaseStart(observer Observer, phase string) {
	observer.Event(Event{Type: EventPhaseStarted, Phase: phase, Message: "starting", Time: time.Now()})
}

// LogPhaseComplete records that phase finished after d.
func LogPhaseComplete(observer Observer, phase string, d time.Duration) {
	observer.Event(Event{
		Type:    EventPhaseCompleted,
		Phase:   phase,
		Message: fmt.Sprintf("completed in %v", d.Round(time.Millisecond)),
		Time:    time.Now(),
	})
}

// LogPhaseFailed records that phase stopped with err.
func LogPhaseFailed(observer Observer, phase string, err error) {
	observer.Event(Event{Type: EventPhaseFailed, Phase: phase, Message: "failed", Err: err, Time: time.Now()})
}

func resourceEvent(observer Observer, t EventType, phase, kind, name, id, message string) {
	observer.Event(Event{
		Type:     t,
		Phase:    phase,
		Kind:     kind,
		Resource: name,
		ID:       id,
		Message:  message,
		Time:     time.Now(),
	})
}

func LogResourceCreating(observer Observer, phase, kind, name string) {
	resourceEvent(observer, EventResourceCreating, phase, kind, name, "", "creating "+kind)
}

func LogResourceCreated(observer Observer, phase, kind, name, id string) {
	resourceEvent(observer, EventResourceCreated, phase, kind, name, id, kind+" created")
}

func LogResourceExists(observer Observer, phase, kind, name, id string) {
	resourceEvent(observer, EventResourceExists, phase, kind, name, id, kind+" already exists")
}

func LogResourceDeleting(observer Observer, phase, kind, name string) {
	resourceEvent(observer, EventResourceDeleting, phase, kind, name, "", "deleting "+kind)
}

func LogResourceDeleted(observer Observer, phase, kind, name string) {
	resourceEvent(observer, EventResourceDeleted, phase, kind, name, "", kind+" deleted")
}

// LogValidationWarning records a configuration finding that does not stop
// the launch.
func LogValidationWarning(observer Observer, field, message string) {
	observer.Event(Event{
		Type:     EventValidationWarning,
		Phase:    "validation",
		Resource: field,
		Message:  message,
		Time:     time.Now(),
	})
}
