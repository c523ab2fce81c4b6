package shared

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEvent() DomainEvent {
	e := NewBaseDomainEvent("risk.high_risk_detected", "Assessment", uuid.New())
	return &e
}

func TestNewOutboxEntry(t *testing.T) {
	event := newTestEvent()
	entry := NewOutboxEntry(event, []byte(`{"score":0.91}`))

	assert.Equal(t, event.EventID(), entry.EventID)
	assert.Equal(t, "risk.high_risk_detected", entry.EventType)
	assert.Equal(t, OutboxStatusPending, entry.Status)
	assert.Equal(t, DefaultMaxRetries, entry.MaxRetries)
	assert.Zero(t, entry.RetryCount)
}

func TestOutboxEntry_MarkProcessing(t *testing.T) {
	entry := NewOutboxEntry(newTestEvent(), nil)

	require.NoError(t, entry.MarkProcessing())
	assert.Equal(t, OutboxStatusProcessing, entry.Status)

	// Processing entries cannot be marked again
	assert.Error(t, entry.MarkProcessing())
}

func TestOutboxEntry_RetryLifecycle(t *testing.T) {
	entry := NewOutboxEntry(newTestEvent(), nil)
	require.NoError(t, entry.MarkProcessing())

	entry.MarkFailed("connection refused")
	assert.Equal(t, OutboxStatusFailed, entry.Status)
	assert.Equal(t, 1, entry.RetryCount)
	assert.True(t, entry.CanRetry())
	require.NotNil(t, entry.NextRetryAt)

	for i := 0; i < DefaultMaxRetries-1; i++ {
		entry.MarkFailed("connection refused")
	}
	assert.Equal(t, OutboxStatusDead, entry.Status)
	assert.True(t, entry.IsDead())
	assert.False(t, entry.CanRetry())

	require.NoError(t, entry.ResetForRetry())
	assert.Equal(t, OutboxStatusPending, entry.Status)
	assert.Zero(t, entry.RetryCount)
	assert.Empty(t, entry.LastError)
}

func TestOutboxEntry_MarkSent(t *testing.T) {
	entry := NewOutboxEntry(newTestEvent(), nil)
	require.NoError(t, entry.MarkProcessing())

	entry.MarkSent()
	assert.Equal(t, OutboxStatusSent, entry.Status)
	require.NotNil(t, entry.ProcessedAt)
}

func TestOutboxEntry_ResetForRetry_OnlyDead(t *testing.T) {
	entry := NewOutboxEntry(newTestEvent(), nil)
	assert.Error(t, entry.ResetForRetry())
}
