package eventstore

import (
	"encoding/json"
	"time"

	"git.home.luguber.info/inful/espdocs/internal/foundation/errors"
)

// RunStartedData is the payload of a run.started event.
type RunStartedData struct {
	Command string   `json:"command"` // build, linkcheck, check-warnings
	Jobs    []string `json:"jobs"`    // language/target labels in submission order
	Workers int      `json:"workers"`
}

// JobCompletedData is the payload of a job.completed event.
type JobCompletedData struct {
	Language    string `json:"language"`
	Target      string `json:"target"`
	ExitCode    int    `json:"exit_code"`
	DurationMS  int64  `json:"duration_ms"`
	NewWarnings int    `json:"new_warnings"`
}

// RunCompletedData is the payload of a run.completed event.
type RunCompletedData struct {
	ExitCode   int      `json:"exit_code"`
	Failed     []string `json:"failed,omitempty"`
	DurationMS int64    `json:"duration_ms"`
}

func newEvent(runID, eventType string, data any) (*BaseEvent, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryInternal, "failed to marshal event payload").
			WithContext("run_id", runID).
			WithContext("event_type", eventType).
			Build()
	}
	return &BaseEvent{
		EventRunID:     runID,
		EventType:      eventType,
		EventTimestamp: time.Now(),
		EventPayload:   payload,
	}, nil
}

// NewRunStarted creates a run.started event.
func NewRunStarted(runID string, data RunStartedData) (*BaseEvent, error) {
	return newEvent(runID, TypeRunStarted, data)
}

// NewJobCompleted creates a job.completed event.
func NewJobCompleted(runID string, data JobCompletedData) (*BaseEvent, error) {
	e, err := newEvent(runID, TypeJobCompleted, data)
	if err != nil {
		return nil, err
	}
	e.EventMetadata = map[string]string{"language": data.Language, "target": data.Target}
	return e, nil
}

// NewRunCompleted creates a run.completed event.
func NewRunCompleted(runID string, data RunCompletedData) (*BaseEvent, error) {
	return newEvent(runID, TypeRunCompleted, data)
}
