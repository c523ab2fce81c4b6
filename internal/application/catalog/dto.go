package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stocksense/backend/internal/domain/catalog"
)

// CreateProductRequest represents a request to create a new product
type CreateProductRequest struct {
	Code           string          `json:"code" binding:"required,min=1,max=50"`
	Name           string          `json:"name" binding:"required,min=1,max=200"`
	Category       string          `json:"category" binding:"required,min=1,max=100"`
	Subcategory    string          `json:"subcategory" binding:"max=100"`
	Price          decimal.Decimal `json:"price" binding:"required"`
	LeadTimeDays   int             `json:"lead_time_days" binding:"required,min=1,max=365"`
	MinStock       *int            `json:"min_stock" binding:"omitempty,min=0"`
	SeasonalFactor *float64        `json:"seasonal_factor" binding:"omitempty,gt=0"`
}

// UpdateProductRequest represents a request to update a product
type UpdateProductRequest struct {
	Name           *string          `json:"name" binding:"omitempty,min=1,max=200"`
	Category       *string          `json:"category" binding:"omitempty,min=1,max=100"`
	Subcategory    *string          `json:"subcategory" binding:"omitempty,max=100"`
	Price          *decimal.Decimal `json:"price"`
	LeadTimeDays   *int             `json:"lead_time_days" binding:"omitempty,min=1,max=365"`
	MinStock       *int             `json:"min_stock" binding:"omitempty,min=0"`
	SeasonalFactor *float64         `json:"seasonal_factor" binding:"omitempty,gt=0"`
}

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID             uuid.UUID       `json:"id"`
	Code           string          `json:"code"`
	Name           string          `json:"name"`
	Category       string          `json:"category"`
	Subcategory    string          `json:"subcategory"`
	Price          decimal.Decimal `json:"price"`
	LeadTimeDays   int             `json:"lead_time_days"`
	MinStock       int             `json:"min_stock"`
	SeasonalFactor float64         `json:"seasonal_factor"`
	Seasonal       bool            `json:"seasonal"`
	Status         string          `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	Version        int             `json:"version"`
}

// ProductListResponse represents a list item for products
type ProductListResponse struct {
	ID           uuid.UUID       `json:"id"`
	Code         string          `json:"code"`
	Name         string          `json:"name"`
	Category     string          `json:"category"`
	Subcategory  string          `json:"subcategory"`
	Price        decimal.Decimal `json:"price"`
	LeadTimeDays int             `json:"lead_time_days"`
	MinStock     int             `json:"min_stock"`
	Status       string          `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
}

// ProductListFilter represents filter options for product list
type ProductListFilter struct {
	Search   string `form:"search"`
	Status   string `form:"status" binding:"omitempty,oneof=active inactive discontinued"`
	Category string `form:"category"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ToProductResponse converts a domain Product to ProductResponse
func ToProductResponse(p *catalog.Product) ProductResponse {
	return ProductResponse{
		ID:             p.ID,
		Code:           p.Code,
		Name:           p.Name,
		Category:       p.Category,
		Subcategory:    p.Subcategory,
		Price:          p.Price,
		LeadTimeDays:   p.LeadTimeDays,
		MinStock:       p.MinStock,
		SeasonalFactor: p.SeasonalFactor,
		Seasonal:       p.IsSeasonal(),
		Status:         string(p.Status),
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
		Version:        p.Version,
	}
}

// ToProductListResponse converts a domain Product to ProductListResponse
func ToProductListResponse(p *catalog.Product) ProductListResponse {
	return ProductListResponse{
		ID:           p.ID,
		Code:         p.Code,
		Name:         p.Name,
		Category:     p.Category,
		Subcategory:  p.Subcategory,
		Price:        p.Price,
		LeadTimeDays: p.LeadTimeDays,
		MinStock:     p.MinStock,
		Status:       string(p.Status),
		CreatedAt:    p.CreatedAt,
	}
}

// ToProductListResponses converts a slice of domain Products
func ToProductListResponses(products []catalog.Product) []ProductListResponse {
	responses := make([]ProductListResponse, len(products))
	for i := range products {
		responses[i] = ToProductListResponse(&products[i])
	}
	return responses
}
