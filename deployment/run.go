package deployment

import (
	"fmt"
	"time"
)

// State is a deployment lifecycle state as understood by Compass
type State string

const (
	StateInProgress State = "IN_PROGRESS"
	StateSuccessful State = "SUCCESSFUL"
	StateFailed     State = "FAILED"
)

// Terminal reports whether the state ends a deployment's lifecycle
func (s State) Terminal() bool {
	return s == StateSuccessful || s == StateFailed
}

// Run identifies one deployment attempt. All events of a run share its ID as
// pipeline ID and its URL so Compass shows them as one timeline entry.
type Run struct {
	ID           string
	StartedAt    time.Time
	Environment  string
	Category     Category
	URL          string
	BaseSequence int64
}

// NewRun creates a run for environment started at startedAt. urlFor receives the
// run ID and returns the link attached to every event of the run.
func NewRun(environment string, startedAt time.Time, urlFor func(runID string) string) Run {
	startedAt = startedAt.UTC()
	run := Run{
		ID:           fmt.Sprintf("deploy-%d", startedAt.UnixMilli()),
		StartedAt:    startedAt,
		Environment:  environment,
		Category:     Classify(environment),
		BaseSequence: startedAt.UnixMilli(),
	}
	if urlFor != nil {
		run.URL = urlFor(run.ID)
	}
	return run
}

// SequenceFor returns the sequence number for an event in state emitted at now.
// IN_PROGRESS always carries the base sequence; terminal events are strictly greater.
func (r Run) SequenceFor(state State, now time.Time) int64 {
	if !state.Terminal() {
		return r.BaseSequence
	}
	seq := now.UnixMilli()
	if seq <= r.BaseSequence {
		seq = r.BaseSequence + 1
	}
	return seq
}

// Installation is a Compass site that receives events for the tracked component
type Installation struct {
	SiteURL          string
	CloudID          string
	ComponentID      string
	EnvironmentLabel string
}

// Host returns the bare host of the site, without scheme or trailing slash
func (i Installation) Host() string {
	return SiteHost(i.SiteURL)
}

// Event is one state transition sent to one installation
type Event struct {
	State               State
	SequenceNumber      int64
	PipelineID          string
	PipelineDisplayName string
	URL                 string
	DisplayName         string
	Description         string
	StartedAt           time.Time
	CompletedAt         *time.Time
	LastUpdated         time.Time
}

// EventDetails carries the per-event text that is not derived from the run
type EventDetails struct {
	DisplayName         string
	PipelineDisplayName string
	Description         string
}

// NewEvent builds the event for state at time now. CompletedAt is set only for
// terminal states.
func (r Run) NewEvent(state State, details EventDetails, now time.Time) Event {
	now = now.UTC()
	event := Event{
		State:               state,
		SequenceNumber:      r.SequenceFor(state, now),
		PipelineID:          r.ID,
		PipelineDisplayName: details.PipelineDisplayName,
		URL:                 r.URL,
		DisplayName:         details.DisplayName,
		Description:         details.Description,
		StartedAt:           r.StartedAt,
		LastUpdated:         now,
	}
	if state.Terminal() {
		completed := now
		event.CompletedAt = &completed
	}
	return event
}
