package metrics

import "time"

// ResultLabel enumerates job result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultFailed   ResultLabel = "failed"
	ResultCanceled ResultLabel = "canceled"
)

// Recorder defines observability hooks for documentation runs and jobs.
// Implementations must be safe for concurrent use by workers.
type Recorder interface {
	ObserveJobDuration(language, target string, d time.Duration)
	IncJobResult(language, target string, result ResultLabel)
	ObserveRunDuration(d time.Duration)
	IncRunOutcome(result ResultLabel)
	AddNewWarnings(log string, n int)
	SetWorkers(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveJobDuration(string, string, time.Duration) {}
func (NoopRecorder) IncJobResult(string, string, ResultLabel)         {}
func (NoopRecorder) ObserveRunDuration(time.Duration)                 {}
func (NoopRecorder) IncRunOutcome(ResultLabel)                        {}
func (NoopRecorder) AddNewWarnings(string, int)                       {}
func (NoopRecorder) SetWorkers(int)                                   {}

// ResultFor maps a job or run exit code to its label.
func ResultFor(code int) ResultLabel {
	switch code {
	case 0:
		return ResultSuccess
	case 130:
		return ResultCanceled
	default:
		return ResultFailed
	}
}
