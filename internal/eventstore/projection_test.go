package eventstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(t *testing.T, store Store, e *BaseEvent, err error) {
	t.Helper()
	require.NoError(t, err)
	require.NoError(t, store.Record(t.Context(), e))
}

func TestHistory(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	e, err := NewRunStarted("r1", RunStartedData{Command: "build", Jobs: []string{"en/esp32", "zh_CN/esp32"}, Workers: 2})
	record(t, store, e, err)
	e, err = NewJobCompleted("r1", JobCompletedData{Language: "en", Target: "esp32", NewWarnings: 2, ExitCode: 1})
	record(t, store, e, err)
	e, err = NewJobCompleted("r1", JobCompletedData{Language: "zh_CN", Target: "esp32"})
	record(t, store, e, err)
	e, err = NewRunCompleted("r1", RunCompletedData{ExitCode: 1, Failed: []string{"en/esp32"}, DurationMS: 1500})
	record(t, store, e, err)

	e, err = NewRunStarted("r2", RunStartedData{Command: "linkcheck", Jobs: []string{"en/generic"}, Workers: 1})
	record(t, store, e, err)

	runs, err := History(t.Context(), store, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, "r2", runs[0].RunID)
	assert.Equal(t, runStatusRunning, runs[0].Status)
	assert.Nil(t, runs[0].CompletedAt)

	r1 := runs[1]
	assert.Equal(t, "build", r1.Command)
	assert.Equal(t, runStatusFailed, r1.Status)
	assert.Equal(t, 2, r1.Jobs)
	assert.Equal(t, 2, r1.Workers)
	assert.Equal(t, 2, r1.NewWarnings)
	assert.Equal(t, []string{"en/esp32"}, r1.FailedJobs)
	assert.Equal(t, 1500*time.Millisecond, r1.Duration)

	limited, err := History(t.Context(), store, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "r2", limited[0].RunID)
}

func TestHistory_CanceledRun(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	e, err := NewRunCompleted("r3", RunCompletedData{ExitCode: 130})
	record(t, store, e, err)

	runs, err := History(t.Context(), store, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, runStatusCanceled, runs[0].Status)
}

func TestRun(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	e, err := NewRunStarted("r1", RunStartedData{Command: "build", Jobs: []string{"en/esp32", "zh_CN/esp32"}, Workers: 2})
	record(t, store, e, err)
	e, err = NewJobCompleted("r1", JobCompletedData{Language: "zh_CN", Target: "esp32", DurationMS: 40})
	record(t, store, e, err)
	e, err = NewJobCompleted("r1", JobCompletedData{Language: "en", Target: "esp32", NewWarnings: 1, ExitCode: 1})
	record(t, store, e, err)
	e, err = NewRunStarted("r2", RunStartedData{Command: "linkcheck", Jobs: []string{"en/generic"}, Workers: 1})
	record(t, store, e, err)

	run, err := Run(t.Context(), store, "r1")
	require.NoError(t, err)
	assert.Equal(t, "build", run.Command)
	assert.Equal(t, runStatusRunning, run.Status)
	require.Len(t, run.Results, 2)
	assert.Equal(t, "zh_CN", run.Results[0].Language)
	assert.Equal(t, 1, run.Results[1].ExitCode)
	assert.Equal(t, 1, run.NewWarnings)

	_, err = Run(t.Context(), store, "missing")
	require.ErrorIs(t, err, ErrRunNotFound)
}
