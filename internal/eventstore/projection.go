package eventstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"
)

const (
	runStatusRunning   = "running"
	runStatusSucceeded = "succeeded"
	runStatusFailed    = "failed"
	runStatusCanceled  = "canceled"
)

// RunSummary is a read model of one run.
type RunSummary struct {
	RunID       string        `json:"run_id"`
	Command     string        `json:"command"`
	Status      string        `json:"status"`
	StartedAt   time.Time     `json:"started_at"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	Duration    time.Duration `json:"duration,omitempty"`
	Jobs        int           `json:"jobs"`
	Workers     int           `json:"workers"`
	FailedJobs  []string      `json:"failed_jobs,omitempty"`
	NewWarnings int           `json:"new_warnings"`
	ExitCode    int           `json:"exit_code"`

	Results []JobCompletedData `json:"results,omitempty"`
}

// ErrRunNotFound is returned by Run when no event carries the run ID.
var ErrRunNotFound = errors.New("run not found")

// Run rebuilds the summary of one run, including its per-job results in
// completion order.
func Run(ctx context.Context, store Store, runID string) (*RunSummary, error) {
	events, err := store.GetByRunID(ctx, runID)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, ErrRunNotFound
	}

	s := &RunSummary{RunID: runID, Status: runStatusRunning, StartedAt: events[0].Timestamp()}
	for _, e := range events {
		if err := apply(s, e); err != nil {
			return nil, fmt.Errorf("run %s: %w", runID, err)
		}
	}
	return s, nil
}

// History rebuilds run summaries from all stored events, newest first,
// keeping at most limit entries (all when limit <= 0).
func History(ctx context.Context, store Store, limit int) ([]*RunSummary, error) {
	events, err := store.GetRange(ctx, time.Unix(0, 0), time.Now().Add(time.Minute))
	if err != nil {
		return nil, err
	}

	runs := make(map[string]*RunSummary)
	var order []*RunSummary
	for _, e := range events {
		s, ok := runs[e.RunID()]
		if !ok {
			s = &RunSummary{RunID: e.RunID(), Status: runStatusRunning, StartedAt: e.Timestamp()}
			runs[e.RunID()] = s
			order = append(order, s)
		}
		if err := apply(s, e); err != nil {
			return nil, fmt.Errorf("run %s: %w", e.RunID(), err)
		}
	}

	slices.Reverse(order)
	if limit > 0 && len(order) > limit {
		order = order[:limit]
	}
	return order, nil
}

func apply(s *RunSummary, e Event) error {
	switch e.Type() {
	case TypeRunStarted:
		var d RunStartedData
		if err := json.Unmarshal(e.Payload(), &d); err != nil {
			return fmt.Errorf("decode %s: %w", e.Type(), err)
		}
		s.Command = d.Command
		s.Jobs = len(d.Jobs)
		s.Workers = d.Workers
		s.StartedAt = e.Timestamp()
	case TypeJobCompleted:
		var d JobCompletedData
		if err := json.Unmarshal(e.Payload(), &d); err != nil {
			return fmt.Errorf("decode %s: %w", e.Type(), err)
		}
		s.NewWarnings += d.NewWarnings
		s.Results = append(s.Results, d)
	case TypeRunCompleted:
		var d RunCompletedData
		if err := json.Unmarshal(e.Payload(), &d); err != nil {
			return fmt.Errorf("decode %s: %w", e.Type(), err)
		}
		completed := e.Timestamp()
		s.CompletedAt = &completed
		s.Duration = time.Duration(d.DurationMS) * time.Millisecond
		s.FailedJobs = d.Failed
		s.ExitCode = d.ExitCode
		switch d.ExitCode {
		case 0:
			s.Status = runStatusSucceeded
		case 130:
			s.Status = runStatusCanceled
		default:
			s.Status = runStatusFailed
		}
	}
	return nil
}
