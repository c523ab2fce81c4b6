package inventory

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stocksense/backend/internal/domain/shared"
)

func newTestLevel(t *testing.T, stock, minStock int) *InventoryLevel {
	t.Helper()
	level, err := NewInventoryLevel(uuid.New(), stock, minStock, minStock*2)
	require.NoError(t, err)
	return level
}

func TestNewInventoryLevel(t *testing.T) {
	level := newTestLevel(t, 100, 20)

	assert.Equal(t, 100, level.CurrentStock)
	assert.Equal(t, 20, level.MinStock)
	assert.Equal(t, 40, level.ReorderPoint)
	assert.False(t, level.IsBelowMinimum())
	assert.False(t, level.IsStockedOut())
}

func TestNewInventoryLevel_Validation(t *testing.T) {
	_, err := NewInventoryLevel(uuid.Nil, 10, 5, 10)
	assert.Error(t, err)

	_, err = NewInventoryLevel(uuid.New(), -1, 5, 10)
	assert.Error(t, err)

	_, err = NewInventoryLevel(uuid.New(), 10, -1, 10)
	assert.Error(t, err)
}

func TestInventoryLevel_Restock(t *testing.T) {
	level := newTestLevel(t, 10, 5)

	require.NoError(t, level.Restock(40))
	assert.Equal(t, 50, level.CurrentStock)
	require.NotNil(t, level.LastRestockAt)

	events := level.GetDomainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventTypeStockReplenished, events[0].EventType())

	assert.Error(t, level.Restock(0))
	assert.Error(t, level.Restock(-5))
}

func TestInventoryLevel_Consume(t *testing.T) {
	level := newTestLevel(t, 30, 20)

	require.NoError(t, level.Consume(5))
	assert.Equal(t, 25, level.CurrentStock)

	events := level.GetDomainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventTypeStockConsumed, events[0].EventType())
}

func TestInventoryLevel_Consume_BelowMinimumEmitsOnce(t *testing.T) {
	level := newTestLevel(t, 25, 20)

	// Crosses the minimum: consumed + below-minimum events
	require.NoError(t, level.Consume(10))
	events := level.GetDomainEvents()
	require.Len(t, events, 2)
	assert.Equal(t, EventTypeStockBelowMinimum, events[1].EventType())

	// Already below minimum: only the consumed event
	level.ClearDomainEvents()
	require.NoError(t, level.Consume(5))
	events = level.GetDomainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventTypeStockConsumed, events[0].EventType())
}

func TestInventoryLevel_Consume_InsufficientStock(t *testing.T) {
	level := newTestLevel(t, 5, 0)

	err := level.Consume(10)
	assert.ErrorIs(t, err, shared.ErrInsufficientStock)
	assert.Equal(t, 5, level.CurrentStock)
}

func TestInventoryLevel_Adjust(t *testing.T) {
	level := newTestLevel(t, 50, 10)

	require.NoError(t, level.Adjust(42, "annual count"))
	assert.Equal(t, 42, level.CurrentStock)

	events := level.GetDomainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventTypeStockAdjusted, events[0].EventType())

	assert.Error(t, level.Adjust(-1, "bad"))
	assert.Error(t, level.Adjust(10, ""))
}

func TestInventoryLevel_DaysSinceRestock(t *testing.T) {
	level := newTestLevel(t, 10, 5)

	past := time.Now().Add(-72 * time.Hour)
	level.LastRestockAt = &past
	assert.Equal(t, 3, level.DaysSinceRestock(time.Now()))

	// Never restocked falls back to record age
	level.LastRestockAt = nil
	level.CreatedAt = time.Now().Add(-24 * time.Hour)
	assert.Equal(t, 1, level.DaysSinceRestock(time.Now()))
}

func TestInventoryLevel_CoverageDays(t *testing.T) {
	level := newTestLevel(t, 30, 5)

	assert.InDelta(t, 6.0, level.CoverageDays(5), 0.001)
	// Zero demand should not divide by zero
	assert.Greater(t, level.CoverageDays(0), 100.0)
}
