// Package analytics is the fire-and-forget event collaborator. Sinks take
// events and never answer back; a failed or dropped event must never affect
// the practice flow.
package analytics

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Event is a single analytics notification.
type Event struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	At     time.Time      `json:"at"`
	Fields map[string]any `json:"fields,omitempty"`
}

// New builds an event with a fresh ID and the current time.
func New(name string, fields map[string]any) Event {
	return Event{
		ID:     uuid.New().String(),
		Name:   name,
		At:     time.Now(),
		Fields: fields,
	}
}

// Sink consumes events. Publish must not block on network round-trips and
// must not return errors — fire and forget.
type Sink interface {
	Publish(ev Event)
}

// LogSink writes events to the structured log. The default sink for local
// deployments without an external pipeline.
type LogSink struct {
	log zerolog.Logger
}

// NewLogSink creates a logging sink.
func NewLogSink(log zerolog.Logger) *LogSink {
	return &LogSink{log: log}
}

// Publish logs the event at debug level.
func (s *LogSink) Publish(ev Event) {
	s.log.Debug().
		Str("event_id", ev.ID).
		Str("event", ev.Name).
		Fields(ev.Fields).
		Msg("analytics")
}

// NopSink discards everything. Used in tests.
type NopSink struct{}

// Publish discards the event.
func (NopSink) Publish(Event) {}
