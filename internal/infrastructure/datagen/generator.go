// Package datagen produces synthetic catalogue, demand, and inventory data
// for demos and local development. Generation is deterministic for a given seed.
package datagen

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/stocksense/backend/internal/domain/catalog"
	"github.com/stocksense/backend/internal/domain/inventory"
)

// Config controls the shape of the generated dataset
type Config struct {
	ProductCount        int
	HistoryDays         int
	Seed                int64
	StockoutProbability float64
	LowStockProbability float64
}

// DefaultConfig returns the standard demo dataset parameters
func DefaultConfig() Config {
	return Config{
		ProductCount:        1000,
		HistoryDays:         365,
		Seed:                42,
		StockoutProbability: 0.02,
		LowStockProbability: 0.1,
	}
}

type priceRange struct {
	min float64
	max float64
}

var categories = []string{
	"Electronics", "Clothing", "Home & Garden", "Food & Beverages",
	"Health & Beauty", "Sports & Outdoors", "Toys & Games", "Automotive",
}

var subcategories = map[string][]string{
	"Electronics":      {"Smartphones", "Laptops", "Headphones", "Tablets"},
	"Clothing":         {"Mens Apparel", "Womens Apparel", "Shoes", "Accessories"},
	"Home & Garden":    {"Furniture", "Kitchen", "Decor", "Tools"},
	"Food & Beverages": {"Snacks", "Beverages", "Fresh Produce", "Frozen"},
	"Health & Beauty":  {"Skincare", "Supplements", "Personal Care", "Makeup"},
	"Sports & Outdoors": {"Fitness", "Outdoor Gear", "Team Sports", "Water Sports"},
	"Toys & Games":     {"Action Figures", "Board Games", "Educational", "Electronic Toys"},
	"Automotive":       {"Parts", "Accessories", "Tools", "Care Products"},
}

var priceRanges = map[string]priceRange{
	"Electronics":      {20, 2000},
	"Clothing":         {10, 200},
	"Home & Garden":    {15, 500},
	"Food & Beverages": {1, 50},
	"Health & Beauty":  {5, 100},
	"Sports & Outdoors": {20, 800},
	"Toys & Games":     {5, 150},
	"Automotive":       {10, 300},
}

// baseDemand is the category-level daily demand before price and seasonal scaling
var baseDemand = map[string]float64{
	"Electronics":      50,
	"Clothing":         80,
	"Home & Garden":    30,
	"Food & Beverages": 200,
	"Health & Beauty":  60,
	"Sports & Outdoors": 25,
	"Toys & Games":     40,
	"Automotive":       15,
}

var leadTimeChoices = []int{1, 2, 3, 5, 7, 10, 14}

// Generator builds a deterministic synthetic dataset
type Generator struct {
	config Config
	rng    *rand.Rand
	logger *zap.Logger
	now    time.Time
}

// Option configures the Generator
type Option func(*Generator)

// WithLogger sets the logger used during generation
func WithLogger(logger *zap.Logger) Option {
	return func(g *Generator) {
		g.logger = logger
	}
}

// WithNow pins the reference time, useful for reproducible tests
func WithNow(now time.Time) Option {
	return func(g *Generator) {
		g.now = now
	}
}

// NewGenerator creates a generator seeded from the config
func NewGenerator(config Config, opts ...Option) *Generator {
	g := &Generator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
		logger: zap.NewNop(),
		now:    time.Now(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Products generates the synthetic product catalogue
func (g *Generator) Products() ([]*catalog.Product, error) {
	products := make([]*catalog.Product, 0, g.config.ProductCount)

	for i := 0; i < g.config.ProductCount; i++ {
		category := categories[g.rng.Intn(len(categories))]
		subs := subcategories[category]
		subcategory := subs[g.rng.Intn(len(subs))]

		pr := priceRanges[category]
		price := decimal.NewFromFloat(pr.min + g.rng.Float64()*(pr.max-pr.min)).Round(2)
		leadTime := leadTimeChoices[g.rng.Intn(len(leadTimeChoices))]

		code := fmt.Sprintf("PROD%04d", i+1)
		name := fmt.Sprintf("%s Item %d", subcategory, i+1)

		product, err := catalog.NewProduct(code, name, category, price, leadTime)
		if err != nil {
			return nil, fmt.Errorf("failed to generate product %s: %w", code, err)
		}
		product.Subcategory = subcategory

		if err := product.SetMinStock(5 + g.rng.Intn(96)); err != nil {
			return nil, err
		}
		factor := math.Round((0.5+g.rng.Float64()*1.5)*100) / 100
		if err := product.SetSeasonalFactor(factor); err != nil {
			return nil, err
		}

		product.ClearDomainEvents()
		products = append(products, product)
	}

	g.logger.Info("Generated product catalogue", zap.Int("count", len(products)))
	return products, nil
}

// DemandHistory generates daily demand records for every product over the
// configured history window, ending yesterday.
func (g *Generator) DemandHistory(products []*catalog.Product) ([]*inventory.DemandRecord, error) {
	start := g.now.AddDate(0, 0, -g.config.HistoryDays)
	records := make([]*inventory.DemandRecord, 0, len(products)*g.config.HistoryDays)

	for _, product := range products {
		base := baseDemand[product.Category]
		price, _ := product.Price.Float64()
		priceFactor := math.Max(0.1, 100/price)

		for day := 0; day < g.config.HistoryDays; day++ {
			date := start.AddDate(0, 0, day)
			lambda := math.Max(1, base*priceFactor*g.seasonalMultiplier(date, product.SeasonalFactor)*0.1)

			quantity := g.poisson(lambda)
			stockout := false
			if g.rng.Float64() < g.config.StockoutProbability {
				quantity = 0
				stockout = true
			}

			record, err := inventory.NewDemandRecord(product.ID, date, quantity, stockout)
			if err != nil {
				return nil, fmt.Errorf("failed to generate demand for %s: %w", product.Code, err)
			}
			records = append(records, record)
		}
	}

	g.logger.Info("Generated demand history",
		zap.Int("products", len(products)),
		zap.Int("records", len(records)),
	)
	return records, nil
}

// InventorySnapshot generates current stock levels. A configurable share of
// products starts below their minimum to exercise the risk pipeline.
func (g *Generator) InventorySnapshot(products []*catalog.Product) ([]*inventory.InventoryLevel, error) {
	levels := make([]*inventory.InventoryLevel, 0, len(products))

	for _, product := range products {
		var currentStock int
		if g.rng.Float64() < g.config.LowStockProbability {
			currentStock = g.rng.Intn(product.MinStock + 1)
		} else {
			currentStock = product.MinStock + g.rng.Intn(product.MinStock*4+1)
		}

		reorderPoint := product.MinStock + product.LeadTimeDays*2

		level, err := inventory.NewInventoryLevel(product.ID, currentStock, product.MinStock, reorderPoint)
		if err != nil {
			return nil, fmt.Errorf("failed to generate inventory for %s: %w", product.Code, err)
		}

		daysSinceRestock := 1 + g.rng.Intn(30)
		restockedAt := g.now.AddDate(0, 0, -daysSinceRestock)
		level.LastRestockAt = &restockedAt

		levels = append(levels, level)
	}

	g.logger.Info("Generated inventory snapshot", zap.Int("count", len(levels)))
	return levels, nil
}

// seasonalMultiplier mirrors the demo dataset's calendar effects: holiday
// season lift, summer lift, post-holiday slump, and a weekend bump.
func (g *Generator) seasonalMultiplier(date time.Time, productFactor float64) float64 {
	multiplier := 1.0

	switch date.Month() {
	case time.November, time.December:
		multiplier = 1.8
	case time.June, time.July, time.August:
		multiplier = 1.2
	case time.January, time.February:
		multiplier = 0.7
	}

	weekday := date.Weekday()
	if weekday == time.Saturday || weekday == time.Sunday {
		multiplier *= 1.3
	}

	return multiplier * productFactor
}

// poisson draws a Poisson-distributed sample using Knuth's method. Lambdas
// here stay small so the multiplicative form is fine.
func (g *Generator) poisson(lambda float64) int {
	threshold := math.Exp(-lambda)
	k := 0
	p := 1.0
	for {
		p *= g.rng.Float64()
		if p <= threshold {
			return k
		}
		k++
	}
}
