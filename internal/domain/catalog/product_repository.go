package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/stocksense/backend/internal/domain/shared"
)

// ProductRepository persists catalog products. Lookups by code accept
// any casing; implementations normalize to the stored upper-case form.
type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	FindByCode(ctx context.Context, code string) (*Product, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Product, error)
	FindByCategory(ctx context.Context, category string, filter shared.Filter) ([]Product, error)
	FindActive(ctx context.Context, filter shared.Filter) ([]Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Product, error)
	FindByCodes(ctx context.Context, codes []string) ([]Product, error)

	// ListCategories returns the distinct categories in use.
	ListCategories(ctx context.Context) ([]string, error)

	// Save creates the product on first call and updates it afterwards.
	Save(ctx context.Context, product *Product) error
	SaveBatch(ctx context.Context, products []*Product) error
	Delete(ctx context.Context, id uuid.UUID) error

	Count(ctx context.Context, filter shared.Filter) (int64, error)
	CountByStatus(ctx context.Context, status ProductStatus) (int64, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
}
