package events_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strokeguard/strokeguard/pkg/events"
)

type samplePayload struct {
	Label int `json:"label"`
}

func newEvent(t *testing.T, eventType string) events.BaseEvent {
	t.Helper()
	e, err := events.NewBaseEvent(eventType, uuid.New(), "Aggregate", uuid.New(), time.Now(), samplePayload{Label: 1})
	require.NoError(t, err)
	return e
}

func TestNewBaseEvent(t *testing.T) {
	aggregateID := uuid.New()
	tenantID := uuid.New()
	occurred := time.Date(2026, 5, 4, 10, 0, 0, 0, time.FixedZone("CET", 3600))

	event, err := events.NewBaseEvent("stroke.assessment.completed", aggregateID, "StrokeAssessment", tenantID, occurred, samplePayload{Label: 1})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, event.EventID())
	assert.Equal(t, "stroke.assessment.completed", event.EventType())
	assert.Equal(t, aggregateID, event.AggregateID())
	assert.Equal(t, "StrokeAssessment", event.AggregateType())
	assert.Equal(t, tenantID, event.TenantID())
	assert.True(t, occurred.Equal(event.OccurredAt()))
	assert.Equal(t, time.UTC, event.OccurredAt().Location())
	assert.JSONEq(t, `{"label":1}`, string(event.Payload()))
}

func TestNewBaseEvent_UnmarshallablePayload(t *testing.T) {
	_, err := events.NewBaseEvent("x", uuid.New(), "A", uuid.New(), time.Now(), make(chan int))
	assert.Error(t, err)
}

func TestBaseEventImplementsDomainEvent(t *testing.T) {
	var _ events.DomainEvent = events.BaseEvent{}
}

func TestNewOutboxEntry(t *testing.T) {
	event := newEvent(t, "stroke.high_risk.detected")

	entry := events.NewOutboxEntry(event)

	assert.Equal(t, event.EventID(), entry.ID)
	assert.Equal(t, event.AggregateID(), entry.AggregateID)
	assert.Equal(t, "Aggregate", entry.AggregateType)
	assert.Equal(t, event.TenantID(), entry.TenantID)
	assert.Equal(t, "stroke.high_risk.detected", entry.EventType)
	assert.Equal(t, event.OccurredAt(), entry.CreatedAt)
	assert.Nil(t, entry.PublishedAt)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(entry.Payload, &parsed))
	assert.EqualValues(t, 1, parsed["label"])
}

func TestEventCollector(t *testing.T) {
	t.Run("records in order", func(t *testing.T) {
		collector := &events.EventCollector{}
		collector.Record(newEvent(t, "Event1"))
		collector.Record(newEvent(t, "Event2"))

		recorded := collector.Events()
		require.Len(t, recorded, 2)
		assert.Equal(t, "Event1", recorded[0].EventType())
		assert.Equal(t, "Event2", recorded[1].EventType())
	})

	t.Run("events does not clear", func(t *testing.T) {
		collector := &events.EventCollector{}
		collector.Record(newEvent(t, "Event1"))
		_ = collector.Events()
		assert.Len(t, collector.Events(), 1)
	})

	t.Run("clear returns and empties", func(t *testing.T) {
		collector := &events.EventCollector{}
		collector.Record(newEvent(t, "Event1"))
		collector.Record(newEvent(t, "Event2"))

		cleared := collector.ClearEvents()
		assert.Len(t, cleared, 2)
		assert.Empty(t, collector.Events())
	})

	t.Run("clear on empty is nil", func(t *testing.T) {
		collector := &events.EventCollector{}
		assert.Nil(t, collector.ClearEvents())
	})
}
