package risk

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/stocksense/backend/internal/domain/catalog"
	"github.com/stocksense/backend/internal/domain/risk"
	"github.com/stocksense/backend/internal/infrastructure/ai"
)

// newExplainFixture sets up a product at 15 units against a 20 unit minimum,
// burning 5 units a day with a 7 day lead time
func newExplainFixture(t *testing.T) (*catalog.Product, *MockAssessmentRepository, *MockProductRepository, *MockInventoryRepository, *MockDemandRepository) {
	t.Helper()
	ctx := context.Background()

	product, err := catalog.NewProduct("TEST-001", "Test Product", "Electronics", decimal.NewFromFloat(25.99), 7)
	require.NoError(t, err)
	require.NoError(t, product.SetMinStock(20))
	product.ClearDomainEvents()

	assessment, err := risk.NewAssessment(product.ID, product.Code, 0.75, risk.HeuristicModelVersion, "", "")
	require.NoError(t, err)

	level := newTestLevel(t, product.ID, 15)
	stats := newTestStats(product.ID, 5)
	stats.DemandStd = 1.5

	assessmentRepo := new(MockAssessmentRepository)
	productRepo := new(MockProductRepository)
	inventoryRepo := new(MockInventoryRepository)
	demandRepo := new(MockDemandRepository)

	productRepo.On("FindByID", ctx, product.ID).Return(product, nil)
	assessmentRepo.On("FindLatestByProduct", ctx, product.ID).Return(assessment, nil)
	inventoryRepo.On("FindByProductID", ctx, product.ID).Return(level, nil)
	demandRepo.On("StatsByProduct", ctx, product.ID).Return(stats, nil)

	return product, assessmentRepo, productRepo, inventoryRepo, demandRepo
}

func TestExplainerService_Explain(t *testing.T) {
	ctx := context.Background()

	t.Run("deterministic explanation without a chat client", func(t *testing.T) {
		product, assessmentRepo, productRepo, inventoryRepo, demandRepo := newExplainFixture(t)
		service := NewExplainerService(assessmentRepo, productRepo, inventoryRepo, demandRepo, nil, nil)

		resp, err := service.Explain(ctx, product.ID)

		require.NoError(t, err)
		assert.Equal(t, "TEST-001", resp.ProductCode)
		assert.Equal(t, 0.75, resp.Score)
		assert.Equal(t, NarrativeSourceDeterministic, resp.Source)
		assert.Contains(t, resp.Narrative, "HIGH RISK")
		assert.Contains(t, resp.Narrative, "75%")

		// 15 units at 5/day is 3 days of coverage against a 7 day lead time
		factorNames := make([]string, len(resp.KeyFactors))
		for i, factor := range resp.KeyFactors {
			factorNames[i] = factor.Factor
		}
		assert.Contains(t, factorNames, "Stock Coverage")
		assert.Contains(t, factorNames, "Minimum Stock Level")
		assert.Equal(t, "Critical", resp.KeyFactors[0].Status)
		assert.Equal(t, "3.0 days", resp.KeyFactors[0].Value)

		assert.Contains(t, resp.Suggestions, "Contact supplier immediately for emergency delivery")
		assert.Contains(t, resp.Suggestions, "Set up automated reorder alerts")
	})

	t.Run("uses LLM narrative when the chat client answers", func(t *testing.T) {
		product, assessmentRepo, productRepo, inventoryRepo, demandRepo := newExplainFixture(t)
		chat := new(MockChatClient)
		service := NewExplainerService(assessmentRepo, productRepo, inventoryRepo, demandRepo, chat, nil)

		chat.On("Complete", ctx, mock.AnythingOfType("string"), mock.MatchedBy(func(prompt string) bool {
			return prompt != ""
		})).Return("The product is nearly out of stock and the supplier cannot restock in time.", nil)

		resp, err := service.Explain(ctx, product.ID)

		require.NoError(t, err)
		assert.Equal(t, NarrativeSourceLLM, resp.Source)
		assert.Contains(t, resp.Narrative, "nearly out of stock")
		chat.AssertExpectations(t)
	})

	t.Run("falls back to deterministic text when the LLM fails", func(t *testing.T) {
		product, assessmentRepo, productRepo, inventoryRepo, demandRepo := newExplainFixture(t)
		chat := new(MockChatClient)
		service := NewExplainerService(assessmentRepo, productRepo, inventoryRepo, demandRepo, chat, nil)

		chat.On("Complete", ctx, mock.Anything, mock.Anything).Return("", assert.AnError)

		resp, err := service.Explain(ctx, product.ID)

		require.NoError(t, err)
		assert.Equal(t, NarrativeSourceDeterministic, resp.Source)
		assert.Contains(t, resp.Narrative, "HIGH RISK")
	})

	t.Run("falls back silently when the client is unconfigured", func(t *testing.T) {
		product, assessmentRepo, productRepo, inventoryRepo, demandRepo := newExplainFixture(t)
		chat := new(MockChatClient)
		service := NewExplainerService(assessmentRepo, productRepo, inventoryRepo, demandRepo, chat, nil)

		chat.On("Complete", ctx, mock.Anything, mock.Anything).Return("", ai.ErrNotConfigured)

		resp, err := service.Explain(ctx, product.ID)

		require.NoError(t, err)
		assert.Equal(t, NarrativeSourceDeterministic, resp.Source)
	})

	t.Run("sends the inventory context to the chat client", func(t *testing.T) {
		product, assessmentRepo, productRepo, inventoryRepo, demandRepo := newExplainFixture(t)
		chat := new(MockChatClient)
		service := NewExplainerService(assessmentRepo, productRepo, inventoryRepo, demandRepo, chat, nil)

		var systemPrompt, userPrompt string
		chat.On("Complete", ctx, mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
			systemPrompt = args.String(1)
			userPrompt = args.String(2)
		}).Return("narrative", nil)

		_, err := service.Explain(ctx, product.ID)

		require.NoError(t, err)
		assert.Contains(t, systemPrompt, "inventory management")
		assert.Contains(t, userPrompt, "TEST-001")
		assert.Contains(t, userPrompt, "Current stock: 15 units")
		assert.Contains(t, userPrompt, "Supplier lead time: 7 days")
		assert.Contains(t, userPrompt, "Stock Coverage")
	})
}

func TestKeyFactors(t *testing.T) {
	t.Run("adequate coverage reports a single good factor", func(t *testing.T) {
		factors := keyFactors(explainerPosition{
			CurrentStock: 500,
			MinStock:     10,
			LeadTimeDays: 7,
			AvgDemand:    10,
			DemandStd:    2,
			StockDays:    50,
		})

		require.Len(t, factors, 1)
		assert.Equal(t, "Good", factors[0].Status)
		assert.Equal(t, "Low", factors[0].Impact)
	})

	t.Run("volatile demand and long lead time add warnings", func(t *testing.T) {
		factors := keyFactors(explainerPosition{
			CurrentStock: 500,
			MinStock:     10,
			LeadTimeDays: 21,
			AvgDemand:    10,
			DemandStd:    8,
			StockDays:    50,
		})

		require.Len(t, factors, 3)
		assert.Equal(t, "Demand Variability", factors[1].Factor)
		assert.Equal(t, "Supplier Lead Time", factors[2].Factor)
	})
}

func TestDeterministicNarrative(t *testing.T) {
	position := explainerPosition{CurrentStock: 30, AvgDemand: 10, LeadTimeDays: 7, StockDays: 3}

	assert.Contains(t, deterministicNarrative(0.9, position), "HIGH RISK")
	assert.Contains(t, deterministicNarrative(0.5, position), "MEDIUM RISK")
	assert.Contains(t, deterministicNarrative(0.1, position), "LOW RISK")
}
