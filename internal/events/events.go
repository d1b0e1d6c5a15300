// Package events emits the auditable change records required to
// reconstruct draw state externally.
package events

import (
	"context"
	"sync"
	"time"
)

// Event types emitted by the draw service.
const (
	TypeDrawCreated            = "draw.created"
	TypeTiersConfigured        = "draw.tiers_configured"
	TypeDefaultPrizeConfigured = "draw.default_prize_configured"
	TypeDrawFunded             = "draw.funded"
	TypeEntryRequested         = "draw.entry_requested"
	TypePrizeAwarded           = "draw.prize_awarded"
	TypeDrawClosed             = "draw.closed"
	TypeDrawCancelled          = "draw.cancelled"
	TypeLeftoverWithdrawn      = "draw.leftover_withdrawn"
	TypeWhitelistUpdated       = "whitelist.updated"
	TypeVRFConfigUpdated       = "vrf.config_updated"
)

// Event is one auditable change record.
type Event struct {
	Type   string         `json:"type"`
	At     time.Time      `json:"at"`
	Fields map[string]any `json:"fields,omitempty"`
}

// New builds an event stamped with the current time.
func New(eventType string, fields map[string]any) Event {
	return Event{Type: eventType, At: time.Now().UTC(), Fields: fields}
}

// Sink receives emitted events. Emit failures must not affect ledger
// state; callers log and continue.
type Sink interface {
	Emit(ctx context.Context, ev Event) error
}

// SinkFunc allows a function to satisfy Sink.
type SinkFunc func(ctx context.Context, ev Event) error

// Emit calls the underlying function.
func (f SinkFunc) Emit(ctx context.Context, ev Event) error { return f(ctx, ev) }

// Discard drops all events.
var Discard = SinkFunc(func(context.Context, Event) error { return nil })

// Multi fans an event out to several sinks, returning the first error.
type Multi []Sink

func (m Multi) Emit(ctx context.Context, ev Event) error {
	var firstErr error
	for _, sink := range m {
		if err := sink.Emit(ctx, ev); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Recorder captures events in memory for tests.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Emit(ctx context.Context, ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// ByType returns recorded events of one type, in emission order.
func (r *Recorder) ByType(eventType string) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, ev := range r.events {
		if ev.Type == eventType {
			out = append(out, ev)
		}
	}
	return out
}
