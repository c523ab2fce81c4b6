package importapp

import (
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stocksense/backend/internal/domain/bulk"
	csvimport "github.com/stocksense/backend/internal/infrastructure/import"
)

// ImportHistoryService records and serves the audit trail of bulk
// import runs.
type ImportHistoryService struct {
	historyRepo bulk.ImportHistoryRepository
}

func NewImportHistoryService(historyRepo bulk.ImportHistoryRepository) *ImportHistoryService {
	return &ImportHistoryService{
		historyRepo: historyRepo,
	}
}

// CreateHistory opens a pending history record for an upload.
func (s *ImportHistoryService) CreateHistory(
	ctx context.Context,
	entityType bulk.ImportEntityType,
	fileName string,
	fileSize int64,
	conflictMode bulk.ConflictMode,
) (*bulk.ImportHistory, error) {
	history, err := bulk.NewImportHistory(entityType, fileName, fileSize, conflictMode)
	if err != nil {
		return nil, err
	}

	if err := s.historyRepo.Save(ctx, history); err != nil {
		return nil, fmt.Errorf("failed to save import history: %w", err)
	}

	return history, nil
}

// mutate loads a history record, applies a domain transition and saves
// the result.
func (s *ImportHistoryService) mutate(ctx context.Context, historyID uuid.UUID, fn func(*bulk.ImportHistory) error) error {
	history, err := s.historyRepo.FindByID(ctx, historyID)
	if err != nil {
		return err
	}
	if err := fn(history); err != nil {
		return err
	}
	return s.historyRepo.Save(ctx, history)
}

// StartProcessing marks the run as started with the parsed row count.
func (s *ImportHistoryService) StartProcessing(ctx context.Context, historyID uuid.UUID, totalRows int) error {
	return s.mutate(ctx, historyID, func(h *bulk.ImportHistory) error {
		return h.StartProcessing(totalRows)
	})
}

// CompleteImport records the final per-row counts and errors.
func (s *ImportHistoryService) CompleteImport(
	ctx context.Context,
	historyID uuid.UUID,
	result *ImportResult,
) error {
	return s.mutate(ctx, historyID, func(h *bulk.ImportHistory) error {
		return h.Complete(result.ImportedRows, result.ErrorRows, result.SkippedRows, result.UpdatedRows, toErrorDetails(result.Errors))
	})
}

// FailImport aborts the run, keeping the collected errors.
func (s *ImportHistoryService) FailImport(ctx context.Context, historyID uuid.UUID, errors []csvimport.RowError) error {
	return s.mutate(ctx, historyID, func(h *bulk.ImportHistory) error {
		return h.Fail(toErrorDetails(errors))
	})
}

// CancelImport cancels a run that has not finished.
func (s *ImportHistoryService) CancelImport(ctx context.Context, historyID uuid.UUID) error {
	return s.mutate(ctx, historyID, (*bulk.ImportHistory).Cancel)
}

func (s *ImportHistoryService) GetHistory(ctx context.Context, historyID uuid.UUID) (*bulk.ImportHistory, error) {
	return s.historyRepo.FindByID(ctx, historyID)
}

// ListHistoryFilter is the string-typed filter accepted from the API
// layer. Unknown entity types or statuses are ignored rather than
// rejected.
type ListHistoryFilter struct {
	EntityType  string
	Status      string
	StartedFrom *time.Time
	StartedTo   *time.Time
}

// ListHistory returns a page of history records matching the filter.
func (s *ImportHistoryService) ListHistory(
	ctx context.Context,
	filter ListHistoryFilter,
	page, pageSize int,
) (*bulk.ImportHistoryListResult, error) {
	repoFilter := bulk.ImportHistoryFilter{
		StartedFrom: filter.StartedFrom,
		StartedTo:   filter.StartedTo,
	}

	if entityType := bulk.ImportEntityType(filter.EntityType); filter.EntityType != "" && entityType.IsValid() {
		repoFilter.EntityType = &entityType
	}
	if status := bulk.ImportStatus(filter.Status); filter.Status != "" && status.IsValid() {
		repoFilter.Status = &status
	}

	return s.historyRepo.FindAll(ctx, repoFilter, page, pageSize)
}

// GetErrorsCSV renders the run's error details as a downloadable CSV,
// returning the content and a suggested file name.
func (s *ImportHistoryService) GetErrorsCSV(ctx context.Context, historyID uuid.UUID) (string, string, error) {
	history, err := s.historyRepo.FindByID(ctx, historyID)
	if err != nil {
		return "", "", err
	}

	if len(history.ErrorDetails) == 0 {
		return "", "", fmt.Errorf("no errors to export")
	}

	var sb strings.Builder
	w := csv.NewWriter(&sb)
	_ = w.Write([]string{"Row", "Column", "Error Code", "Error Message", "Value"})
	for _, e := range history.ErrorDetails {
		_ = w.Write([]string{strconv.Itoa(e.Row), e.Column, e.Code, e.Message, e.Value})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", "", fmt.Errorf("failed to render errors CSV: %w", err)
	}

	fileName := fmt.Sprintf("import_errors_%s_%s.csv",
		history.EntityType,
		history.ID.String()[:8],
	)

	return sb.String(), fileName, nil
}

func (s *ImportHistoryService) DeleteHistory(ctx context.Context, historyID uuid.UUID) error {
	return s.historyRepo.Delete(ctx, historyID)
}

// GetPendingImports lists runs that never started, for recovery after a
// restart.
func (s *ImportHistoryService) GetPendingImports(ctx context.Context) ([]*bulk.ImportHistory, error) {
	return s.historyRepo.FindPending(ctx)
}

func toErrorDetails(errors []csvimport.RowError) []bulk.ImportErrorDetail {
	details := make([]bulk.ImportErrorDetail, len(errors))
	for i, e := range errors {
		details[i] = bulk.ImportErrorDetail{
			Row:     e.Row,
			Column:  e.Column,
			Code:    e.Code,
			Message: e.Message,
			Value:   e.Value,
		}
	}
	return details
}
