package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/stocksense/backend/internal/domain/catalog"
	"github.com/stocksense/backend/internal/domain/inventory"
	"github.com/stocksense/backend/internal/domain/shared"
)

// DemandService handles demand history operations
type DemandService struct {
	demandRepo  inventory.DemandRepository
	productRepo catalog.ProductRepository
}

// NewDemandService creates a new DemandService
func NewDemandService(demandRepo inventory.DemandRepository, productRepo catalog.ProductRepository) *DemandService {
	return &DemandService{
		demandRepo:  demandRepo,
		productRepo: productRepo,
	}
}

// Record stores one day of observed demand for a product
func (s *DemandService) Record(ctx context.Context, req RecordDemandRequest) (*DemandRecordResponse, error) {
	if _, err := s.productRepo.FindByID(ctx, req.ProductID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("INVALID_PRODUCT", "Product not found")
		}
		return nil, err
	}

	record, err := inventory.NewDemandRecord(req.ProductID, req.Date, req.Quantity, req.Stockout)
	if err != nil {
		return nil, err
	}

	if err := s.demandRepo.Save(ctx, record); err != nil {
		return nil, err
	}

	response := ToDemandRecordResponse(record)
	return &response, nil
}

// History retrieves the demand records of a product within a date range.
// A zero `from` defaults to one year back, a zero `to` to now.
func (s *DemandService) History(ctx context.Context, productID uuid.UUID, from, to time.Time) ([]DemandRecordResponse, error) {
	if to.IsZero() {
		to = time.Now()
	}
	if from.IsZero() {
		from = to.AddDate(-1, 0, 0)
	}
	if from.After(to) {
		return nil, shared.NewDomainError("INVALID_RANGE", "Range start must not be after range end")
	}

	records, err := s.demandRepo.FindByProduct(ctx, productID, from, to)
	if err != nil {
		return nil, err
	}

	responses := make([]DemandRecordResponse, len(records))
	for i := range records {
		responses[i] = ToDemandRecordResponse(&records[i])
	}
	return responses, nil
}

// Stats computes demand statistics for a single product
func (s *DemandService) Stats(ctx context.Context, productID uuid.UUID) (*DemandStatsResponse, error) {
	stats, err := s.demandRepo.StatsByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	response := ToDemandStatsResponse(*stats)
	return &response, nil
}

// Prune removes demand records older than the retention window and
// returns the number of deleted rows.
func (s *DemandService) Prune(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, shared.NewDomainError("INVALID_RETENTION", "Retention days must be positive")
	}

	before := time.Now().AddDate(0, 0, -retentionDays)
	return s.demandRepo.DeleteOlderThan(ctx, before)
}
