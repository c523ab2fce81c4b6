package bulk

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ImportHistoryFilter narrows FindAll queries. Nil fields match everything.
type ImportHistoryFilter struct {
	EntityType  *ImportEntityType
	Status      *ImportStatus
	StartedFrom *time.Time
	StartedTo   *time.Time
}

// ImportHistoryListResult is one page of import history records.
type ImportHistoryListResult struct {
	Items      []*ImportHistory
	TotalCount int64
	Page       int
	PageSize   int
}

// ImportHistoryRepository persists import run records.
type ImportHistoryRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*ImportHistory, error)
	FindAll(ctx context.Context, filter ImportHistoryFilter, page, pageSize int) (*ImportHistoryListResult, error)
	FindByStatus(ctx context.Context, status ImportStatus) ([]*ImportHistory, error)

	// FindPending lists runs that never started, so they can be
	// resumed or cancelled after a restart.
	FindPending(ctx context.Context) ([]*ImportHistory, error)

	// Save creates the record on first call and updates it afterwards.
	Save(ctx context.Context, history *ImportHistory) error
	Delete(ctx context.Context, id uuid.UUID) error
}
