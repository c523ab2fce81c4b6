package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProduct(t *testing.T) *Product {
	t.Helper()
	p, err := NewProduct("elc-0001", "Wireless Mouse", "Electronics", decimal.NewFromFloat(29.99), 7)
	require.NoError(t, err)
	return p
}

func TestNewProduct(t *testing.T) {
	p := newTestProduct(t)

	assert.Equal(t, "ELC-0001", p.Code)
	assert.Equal(t, "Wireless Mouse", p.Name)
	assert.Equal(t, ProductStatusActive, p.Status)
	assert.Equal(t, 1.0, p.SeasonalFactor)
	assert.Equal(t, 1, p.GetVersion())

	events := p.GetDomainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventTypeProductCreated, events[0].EventType())
}

func TestNewProduct_Validation(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		prodName string
		category string
		price    decimal.Decimal
		leadTime int
	}{
		{"empty code", "", "Mouse", "Electronics", decimal.NewFromInt(10), 7},
		{"invalid code chars", "SKU 001", "Mouse", "Electronics", decimal.NewFromInt(10), 7},
		{"empty name", "SKU-001", "", "Electronics", decimal.NewFromInt(10), 7},
		{"empty category", "SKU-001", "Mouse", "", decimal.NewFromInt(10), 7},
		{"negative price", "SKU-001", "Mouse", "Electronics", decimal.NewFromInt(-1), 7},
		{"zero lead time", "SKU-001", "Mouse", "Electronics", decimal.NewFromInt(10), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProduct(tt.code, tt.prodName, tt.category, tt.price, tt.leadTime)
			assert.Error(t, err)
		})
	}
}

func TestProduct_SetPrice(t *testing.T) {
	p := newTestProduct(t)
	p.ClearDomainEvents()

	require.NoError(t, p.SetPrice(decimal.NewFromFloat(34.99)))
	assert.True(t, p.Price.Equal(decimal.NewFromFloat(34.99)))
	assert.Equal(t, 2, p.GetVersion())

	events := p.GetDomainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventTypeProductPriceChanged, events[0].EventType())

	assert.Error(t, p.SetPrice(decimal.NewFromInt(-5)))
}

func TestProduct_SeasonalAndLeadTimeFlags(t *testing.T) {
	p := newTestProduct(t)

	assert.False(t, p.IsSeasonal())
	require.NoError(t, p.SetSeasonalFactor(1.8))
	assert.True(t, p.IsSeasonal())

	assert.False(t, p.HasLongLeadTime())
	require.NoError(t, p.SetLeadTime(14))
	assert.True(t, p.HasLongLeadTime())
}

func TestProduct_StatusTransitions(t *testing.T) {
	p := newTestProduct(t)

	assert.Error(t, p.Activate()) // already active

	require.NoError(t, p.Deactivate())
	assert.True(t, p.IsActive() == false)

	require.NoError(t, p.Activate())
	assert.True(t, p.IsActive())

	require.NoError(t, p.Discontinue())
	assert.True(t, p.IsDiscontinued())

	// Discontinued is terminal
	assert.Error(t, p.Activate())
	assert.Error(t, p.Deactivate())
	assert.Error(t, p.Discontinue())
}

func TestProduct_Update(t *testing.T) {
	p := newTestProduct(t)
	p.ClearDomainEvents()

	require.NoError(t, p.Update("Ergonomic Mouse", "Electronics", "Accessories"))
	assert.Equal(t, "Ergonomic Mouse", p.Name)
	assert.Equal(t, "Accessories", p.Subcategory)

	assert.Error(t, p.Update("", "Electronics", ""))
}
