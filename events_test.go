package handoff

import (
	"errors"
	"testing"
	"time"

	"github.com/go-logr/logr/testr"
	"github.com/stretchr/testify/require"
)

func TestEventKind_String(t *testing.T) {
	require.Equal(t, "item_produced", EventItemProduced.String())
	require.Equal(t, "queue_closed", EventQueueClosed.String())
	require.Equal(t, "EventKind(99)", EventKind(99).String())
}

func TestEmitter_StampsRunIDAndTime(t *testing.T) {
	rec := &eventRecorder{}
	cfg := defaultConfig()
	cfg.Observer = rec.observe
	cfg.Logger = testr.NewWithOptions(t, testr.Options{Verbosity: logTrace})

	em := emitter{cfg: &cfg, runID: "run-1"}
	em.emit(Event{Kind: EventItemConsumed, Component: "d", Item: 1})
	em.emit(Event{Kind: EventFeederFailed, Component: "f", Err: errors.New("boom")})
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	em.emit(Event{Kind: EventQueueClosed, Component: "orchestrator", Time: fixed})

	require.Len(t, rec.events, 3)
	for _, ev := range rec.events {
		require.Equal(t, "run-1", ev.RunID)
		require.False(t, ev.Time.IsZero())
	}
	require.Equal(t, fixed, rec.events[2].Time)
}

func TestEmitter_NoObserverNoOutput(t *testing.T) {
	cfg := defaultConfig()
	em := emitter{cfg: &cfg}
	require.NotPanics(t, func() { em.emit(Event{Kind: EventDrainerDone}) })
}
