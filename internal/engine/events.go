package engine

import (
	"time"
)

// EventType identifies a progress event emitted by the Runner.
type EventType string

const (
	// EventFetchStarted is emitted when a download attempt starts.
	EventFetchStarted EventType = "fetch_started"

	// EventFetchRetrying is emitted before waiting for the next download attempt.
	EventFetchRetrying EventType = "fetch_retrying"

	// EventFetchCompleted is emitted once the data file is available locally,
	// whether it was downloaded or already cached.
	EventFetchCompleted EventType = "fetch_completed"

	// EventChartGenerated is emitted after each chart file is written.
	EventChartGenerated EventType = "chart_generated"

	// EventRunCompleted is emitted when every chart has been written.
	EventRunCompleted EventType = "run_completed"
)

// Event is a single progress notification.
type Event struct {
	Type      EventType     `json:"type"`
	Timestamp time.Time     `json:"timestamp"`
	Question  string        `json:"question,omitempty"`
	Path      string        `json:"path,omitempty"`
	URL       string        `json:"url,omitempty"`
	Attempt   int           `json:"attempt,omitempty"`
	Delay     time.Duration `json:"delay,omitempty"`
	Error     string        `json:"error,omitempty"`
	// Downloaded is set on EventFetchCompleted.
	Downloaded bool `json:"downloaded,omitempty"`
	// Index and Total locate a chart within the batch.
	Index int `json:"index,omitempty"`
	Total int `json:"total,omitempty"`
}

// Listener receives the progress events of a run. StartListening is called on
// its own goroutine and must return once the channel is closed; StopListening
// is called after that.
type Listener interface {
	StartListening(events <-chan Event)
	StopListening()
}

// NoopListener drains events without doing anything.
type NoopListener struct{}

func (n *NoopListener) StartListening(events <-chan Event) {
	for range events {
	}
}

func (n *NoopListener) StopListening() {}
