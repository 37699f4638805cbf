package eventstore

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRunID = "run-123"

func TestEventStoreRecordAndRetrieve(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	ctx := t.Context()
	payload := []byte(`{"test": "data"}`)
	e := &BaseEvent{
		EventRunID:     testRunID,
		EventType:      "TestEvent",
		EventTimestamp: time.Now(),
		EventPayload:   payload,
		EventMetadata:  map[string]string{"key": "value"},
	}
	require.NoError(t, store.Record(ctx, e))
	require.NoError(t, store.Record(ctx, &BaseEvent{EventRunID: "other", EventType: "TestEvent", EventTimestamp: time.Now(), EventPayload: []byte(`{}`)}))

	events, err := store.GetByRunID(ctx, testRunID)
	require.NoError(t, err)
	require.Len(t, events, 1)

	event := events[0]
	assert.Equal(t, testRunID, event.RunID())
	assert.Equal(t, "TestEvent", event.Type())
	assert.True(t, bytes.Equal(payload, event.Payload()))
	assert.Equal(t, "value", event.Metadata()["key"])
	assert.NotZero(t, event.ID())
}

func TestEventStoreRecordKeepsTimestamp(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	e, err := NewJobCompleted(testRunID, JobCompletedData{Language: "en", Target: "esp32", ExitCode: 1})
	require.NoError(t, err)
	e.EventTimestamp = time.UnixMilli(1_700_000_000_123)

	require.NoError(t, store.Record(t.Context(), e))

	events, err := store.GetByRunID(t.Context(), testRunID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, e.EventTimestamp, events[0].Timestamp())
	assert.Equal(t, "esp32", events[0].Metadata()["target"])
}

func TestEventStoreGetRange(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	old := &BaseEvent{EventRunID: "old", EventType: TypeRunStarted, EventTimestamp: time.Now().Add(-48 * time.Hour), EventPayload: []byte(`{}`)}
	recent := &BaseEvent{EventRunID: "new", EventType: TypeRunStarted, EventTimestamp: time.Now(), EventPayload: []byte(`{}`)}
	require.NoError(t, store.Record(t.Context(), old))
	require.NoError(t, store.Record(t.Context(), recent))

	events, err := store.GetRange(t.Context(), time.Now().Add(-time.Hour), time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "new", events[0].RunID())
}
