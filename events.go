package handoff

import (
	"fmt"
	"time"
)

// EventKind identifies what happened.
type EventKind int

const (
	EventItemProduced EventKind = iota + 1
	EventItemConsumed
	EventFeederStarted
	EventFeederDone
	EventFeederFailed
	EventDrainerStarted
	EventDrainerStopped
	EventDrainerDone
	EventQueueClosed
)

var eventKindNames = map[EventKind]string{
	EventItemProduced:   "item_produced",
	EventItemConsumed:   "item_consumed",
	EventFeederStarted:  "feeder_started",
	EventFeederDone:     "feeder_done",
	EventFeederFailed:   "feeder_failed",
	EventDrainerStarted: "drainer_started",
	EventDrainerStopped: "drainer_stopped",
	EventDrainerDone:    "drainer_done",
	EventQueueClosed:    "queue_closed",
}

func (k EventKind) String() string {
	if s, ok := eventKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// Event describes one observable step of a hand-off run.
// Item is set for item events only; Err is set for EventFeederFailed only.
type Event struct {
	Kind      EventKind
	RunID     string
	Component string
	Item      any
	QueueSize int
	Count     int
	Err       error
	Time      time.Time
}

// Observer receives events. Implementations must be safe for concurrent use.
type Observer func(Event)

// Log verbosity levels used with logr's V().
const (
	logVerbose = 2
	logDebug   = 4
	logTrace   = 5
)

// emitter fans one event out to the observer and the logger.
type emitter struct {
	cfg   *config
	runID string
}

func (e emitter) emit(ev Event) {
	ev.RunID = e.runID
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}
	if e.cfg.Observer != nil {
		e.cfg.Observer(ev)
	}

	log := e.cfg.Logger.WithValues("component", ev.Component)
	if e.runID != "" {
		log = log.WithValues("run", e.runID)
	}
	switch ev.Kind {
	case EventItemProduced, EventItemConsumed:
		log.V(logTrace).Info(ev.Kind.String(), "item", ev.Item, "queueSize", ev.QueueSize)
	case EventFeederFailed:
		log.Error(ev.Err, "Feeder stopped on source failure", "produced", ev.Count)
	case EventQueueClosed:
		log.V(logVerbose).Info("Queue closed", "queueSize", ev.QueueSize)
	default:
		log.V(logDebug).Info(ev.Kind.String(), "count", ev.Count)
	}
}
