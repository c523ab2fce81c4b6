package catalog

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stocksense/backend/internal/domain/shared"
)

// ProductStatus is the catalog lifecycle state of a SKU.
type ProductStatus string

const (
	ProductStatusActive       ProductStatus = "active"
	ProductStatusInactive     ProductStatus = "inactive"
	ProductStatusDiscontinued ProductStatus = "discontinued"
)

// SeasonalFactorThreshold marks items whose demand is strongly season-driven.
const SeasonalFactorThreshold = 1.5

// Product is the aggregate root for a SKU tracked for stockout risk.
// LeadTimeDays and MinStock feed directly into the risk assessment.
type Product struct {
	shared.BaseAggregateRoot
	Code           string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name           string          `gorm:"type:varchar(200);not null"`
	Category       string          `gorm:"type:varchar(100);not null;index"`
	Subcategory    string          `gorm:"type:varchar(100)"`
	Price          decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	LeadTimeDays   int             `gorm:"not null;default:7"` // Supplier replenishment lead time
	MinStock       int             `gorm:"not null;default:0"` // Minimum stock level for alerts
	SeasonalFactor float64         `gorm:"not null;default:1"` // Demand multiplier, >1.5 marks seasonal items
	Status         ProductStatus   `gorm:"type:varchar(20);not null;default:'active'"`
}

func (Product) TableName() string {
	return "products"
}

// NewProduct validates the inputs and returns an active product with a
// ProductCreated event queued.
func NewProduct(code, name, category string, price decimal.Decimal, leadTimeDays int) (*Product, error) {
	if err := validateProductCode(code); err != nil {
		return nil, err
	}
	if err := validateProductName(name); err != nil {
		return nil, err
	}
	if category == "" {
		return nil, shared.NewDomainError("INVALID_CATEGORY", "Category cannot be empty")
	}
	if price.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}
	if leadTimeDays <= 0 {
		return nil, shared.NewDomainError("INVALID_LEAD_TIME", "Lead time must be positive")
	}

	product := &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              strings.ToUpper(code),
		Name:              name,
		Category:          category,
		Price:             price,
		LeadTimeDays:      leadTimeDays,
		SeasonalFactor:    1.0,
		Status:            ProductStatusActive,
	}

	product.AddDomainEvent(NewProductCreatedEvent(product))

	return product, nil
}

// touch bumps the optimistic-lock version and update timestamp.
func (p *Product) touch() {
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}

// Update changes the descriptive fields.
func (p *Product) Update(name, category, subcategory string) error {
	if err := validateProductName(name); err != nil {
		return err
	}
	if category == "" {
		return shared.NewDomainError("INVALID_CATEGORY", "Category cannot be empty")
	}

	p.Name = name
	p.Category = category
	p.Subcategory = subcategory
	p.touch()

	p.AddDomainEvent(NewProductUpdatedEvent(p))

	return nil
}

func (p *Product) SetPrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}

	oldPrice := p.Price
	p.Price = price
	p.touch()

	p.AddDomainEvent(NewProductPriceChangedEvent(p, oldPrice))

	return nil
}

// SetLeadTime sets the supplier replenishment lead time in days.
func (p *Product) SetLeadTime(days int) error {
	if days <= 0 {
		return shared.NewDomainError("INVALID_LEAD_TIME", "Lead time must be positive")
	}

	p.LeadTimeDays = days
	p.touch()

	return nil
}

// SetMinStock sets the stock floor below which alerts fire.
func (p *Product) SetMinStock(minStock int) error {
	if minStock < 0 {
		return shared.NewDomainError("INVALID_MIN_STOCK", "Minimum stock cannot be negative")
	}

	p.MinStock = minStock
	p.touch()

	return nil
}

func (p *Product) SetSeasonalFactor(factor float64) error {
	if factor <= 0 {
		return shared.NewDomainError("INVALID_SEASONAL_FACTOR", "Seasonal factor must be positive")
	}

	p.SeasonalFactor = factor
	p.touch()

	return nil
}

// IsSeasonal reports strongly season-driven demand.
func (p *Product) IsSeasonal() bool {
	return p.SeasonalFactor > SeasonalFactorThreshold
}

// HasLongLeadTime reports replenishment taking more than a week.
func (p *Product) HasLongLeadTime() bool {
	return p.LeadTimeDays > 7
}

// transition moves the product to a new status and queues the status
// change event.
func (p *Product) transition(to ProductStatus) {
	oldStatus := p.Status
	p.Status = to
	p.touch()
	p.AddDomainEvent(NewProductStatusChangedEvent(p, oldStatus, to))
}

func (p *Product) Activate() error {
	if p.Status == ProductStatusActive {
		return shared.NewDomainError("ALREADY_ACTIVE", "Product is already active")
	}
	if p.Status == ProductStatusDiscontinued {
		return shared.NewDomainError("CANNOT_ACTIVATE", "Cannot activate a discontinued product")
	}

	p.transition(ProductStatusActive)
	return nil
}

func (p *Product) Deactivate() error {
	if p.Status == ProductStatusInactive {
		return shared.NewDomainError("ALREADY_INACTIVE", "Product is already inactive")
	}
	if p.Status == ProductStatusDiscontinued {
		return shared.NewDomainError("CANNOT_DEACTIVATE", "Cannot deactivate a discontinued product")
	}

	p.transition(ProductStatusInactive)
	return nil
}

// Discontinue retires the product permanently. A discontinued product
// cannot be reactivated.
func (p *Product) Discontinue() error {
	if p.Status == ProductStatusDiscontinued {
		return shared.NewDomainError("ALREADY_DISCONTINUED", "Product is already discontinued")
	}

	p.transition(ProductStatusDiscontinued)
	return nil
}

func (p *Product) IsActive() bool {
	return p.Status == ProductStatusActive
}

func (p *Product) IsDiscontinued() bool {
	return p.Status == ProductStatusDiscontinued
}

func validateProductCode(code string) error {
	if code == "" {
		return shared.NewDomainError("INVALID_CODE", "Product code cannot be empty")
	}
	if len(code) > 50 {
		return shared.NewDomainError("INVALID_CODE", "Product code cannot exceed 50 characters")
	}
	for _, r := range code {
		if !((r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-') {
			return shared.NewDomainError("INVALID_CODE", "Product code can only contain letters, numbers, underscores, and hyphens")
		}
	}
	return nil
}

func validateProductName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot exceed 200 characters")
	}
	return nil
}
