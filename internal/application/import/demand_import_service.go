package importapp

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/stocksense/backend/internal/domain/catalog"
	"github.com/stocksense/backend/internal/domain/inventory"
	"github.com/stocksense/backend/internal/domain/shared"
	csvimport "github.com/stocksense/backend/internal/infrastructure/import"
)

const demandSaveBatchSize = 500

// DemandImportService handles demand history bulk import.
// Demand records are append-only, so there is no conflict handling.
type DemandImportService struct {
	demandRepo  inventory.DemandRepository
	productRepo catalog.ProductRepository
	logger      *zap.Logger
}

// NewDemandImportService creates a new DemandImportService
func NewDemandImportService(
	demandRepo inventory.DemandRepository,
	productRepo catalog.ProductRepository,
	logger *zap.Logger,
) *DemandImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DemandImportService{
		demandRepo:  demandRepo,
		productRepo: productRepo,
		logger:      logger,
	}
}

// GetValidationRules returns the validation rules for demand import
func (s *DemandImportService) GetValidationRules() []csvimport.FieldRule {
	zero := decimal.Zero
	return []csvimport.FieldRule{
		csvimport.Field("product_code").Required().String().MinLength(1).MaxLength(50).Reference("product").Build(),
		csvimport.Field("date").Required().Date().Build(),
		csvimport.Field("quantity").Required().Int().MinValue(zero).Build(),
		csvimport.Field("stockout").Bool().Build(),
	}
}

// LookupProduct checks whether a product code exists, for reference validation
func (s *DemandImportService) LookupProduct(ctx context.Context, code string) (bool, error) {
	if code == "" {
		return true, nil
	}
	return s.productRepo.ExistsByCode(ctx, code)
}

// Import imports demand records from validated rows
func (s *DemandImportService) Import(
	ctx context.Context,
	session *csvimport.ImportSession,
	validRows []*csvimport.Row,
) (*ImportResult, error) {
	if session.State != csvimport.StateValidated {
		return nil, shared.NewDomainError("INVALID_STATE", "Import session must be in validated state")
	}

	if !session.IsValid() {
		return nil, shared.NewDomainError("VALIDATION_ERRORS", "Cannot import session with validation errors")
	}

	session.UpdateState(csvimport.StateImporting)

	result := &ImportResult{
		TotalRows: len(validRows),
	}
	errors := csvimport.NewErrorCollection(100)

	// Product codes repeat across rows; resolve each once
	productIDs := make(map[string]uuid.UUID)

	batch := make([]*inventory.DemandRecord, 0, demandSaveBatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := s.demandRepo.SaveBatch(ctx, batch); err != nil {
			return fmt.Errorf("failed to save demand records: %w", err)
		}
		result.ImportedRows += len(batch)
		batch = make([]*inventory.DemandRecord, 0, demandSaveBatchSize)
		return nil
	}

	for _, row := range validRows {
		select {
		case <-ctx.Done():
			session.UpdateState(csvimport.StateCancelled)
			return nil, ctx.Err()
		default:
		}

		record, err := s.buildRecord(ctx, row, productIDs, result, errors)
		if err != nil {
			session.UpdateState(csvimport.StateFailed)
			return nil, err
		}
		if record == nil {
			continue
		}

		batch = append(batch, record)
		if len(batch) >= demandSaveBatchSize {
			if err := flush(); err != nil {
				session.UpdateState(csvimport.StateFailed)
				return nil, err
			}
		}
	}

	if err := flush(); err != nil {
		session.UpdateState(csvimport.StateFailed)
		return nil, err
	}

	result.Errors = errors.Errors()
	result.IsTruncated = errors.IsTruncated()
	result.TotalErrors = errors.TotalCount()

	if result.ErrorRows > 0 {
		session.UpdateState(csvimport.StateFailed)
	} else {
		session.UpdateState(csvimport.StateCompleted)
	}

	return result, nil
}

// buildRecord converts a validated row into a demand record.
// A nil record with nil error means the row was counted as an error row.
func (s *DemandImportService) buildRecord(
	ctx context.Context,
	row *csvimport.Row,
	productIDs map[string]uuid.UUID,
	result *ImportResult,
	errors *csvimport.ErrorCollection,
) (*inventory.DemandRecord, error) {
	productCode := row.Get("product_code")
	dateStr := row.Get("date")
	quantityStr := row.Get("quantity")
	stockoutStr := row.Get("stockout")

	productID, ok := productIDs[productCode]
	if !ok {
		product, err := s.productRepo.FindByCode(ctx, productCode)
		if err != nil {
			if err == shared.ErrNotFound {
				errors.Add(csvimport.NewRowErrorWithValue(row.LineNumber, "product_code", csvimport.ErrCodeImportReferenceNotFound,
					fmt.Sprintf("product '%s' not found", productCode), productCode))
				result.ErrorRows++
				return nil, nil
			}
			return nil, fmt.Errorf("failed to lookup product: %w", err)
		}
		productID = product.ID
		productIDs[productCode] = productID
	}

	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		errors.Add(csvimport.NewRowError(row.LineNumber, "date", csvimport.ErrCodeImportInvalidFormat, "expected YYYY-MM-DD"))
		result.ErrorRows++
		return nil, nil
	}

	quantity, err := strconv.Atoi(quantityStr)
	if err != nil {
		errors.Add(csvimport.NewRowError(row.LineNumber, "quantity", csvimport.ErrCodeImportInvalidType, "invalid integer value"))
		result.ErrorRows++
		return nil, nil
	}

	record, err := inventory.NewDemandRecord(productID, date, quantity, parseBool(stockoutStr))
	if err != nil {
		errors.Add(csvimport.NewRowError(row.LineNumber, "", csvimport.ErrCodeImportValidation, err.Error()))
		result.ErrorRows++
		return nil, nil
	}

	return record, nil
}

// parseBool accepts the boolean spellings the field validator accepts
func parseBool(value string) bool {
	switch strings.ToLower(value) {
	case "true", "1", "yes", "y":
		return true
	}
	return false
}
