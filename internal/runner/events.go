package runner

import (
	"image"

	"gonum.org/v1/gonum/mat"
)

// EventType identifies the notification kinds a job broadcasts.
type EventType int

const (
	// EventProgress carries the integer percent of pairs completed.
	EventProgress EventType = iota
	// EventStats carries a cumulative Stats snapshot.
	EventStats
	// EventPreview carries the most recently processed pair's pixel data.
	// Never emitted during dry runs.
	EventPreview
	// EventLog carries one human-readable log line.
	EventLog
	// EventDone is emitted exactly once, after every other notification of
	// the run, with the job's terminal outcome.
	EventDone
)

// String returns the event type's name.
func (t EventType) String() string {
	switch t {
	case EventProgress:
		return "progress"
	case EventStats:
		return "stats"
	case EventPreview:
		return "preview"
	case EventLog:
		return "log"
	case EventDone:
		return "done"
	default:
		return "unknown"
	}
}

// Preview carries the decoded source image and binary mask of the most
// recently processed pair.
type Preview struct {
	Stem  string
	Image image.Image
	Mask  *mat.Dense
}

// Event is one notification from the worker to its observers. Only the
// fields relevant to its Type are populated; Message serves both log lines
// and the done outcome text.
type Event struct {
	Type    EventType
	Percent int
	Stats   Stats
	Preview Preview
	Message string
	OK      bool
}

// EventListener is called synchronously on the worker goroutine each time
// an event of the registered type is emitted.
type EventListener func(Event)
