package models

import (
	"time"

	"github.com/stocksense/backend/internal/domain/bulk"
)

// ImportHistoryModel is the table-backed form of bulk.ImportHistory.
// Row-level error details are flattened to a jsonb column.
type ImportHistoryModel struct {
	AggregateModel
	EntityType   bulk.ImportEntityType `gorm:"type:varchar(20);not null;index"`
	FileName     string                `gorm:"type:varchar(255);not null"`
	FileSize     int64                 `gorm:"not null;default:0"`
	TotalRows    int                   `gorm:"not null;default:0"`
	SuccessRows  int                   `gorm:"not null;default:0"`
	ErrorRows    int                   `gorm:"not null;default:0"`
	SkippedRows  int                   `gorm:"not null;default:0"`
	UpdatedRows  int                   `gorm:"not null;default:0"`
	ConflictMode bulk.ConflictMode     `gorm:"type:varchar(20);not null;default:'skip'"`
	Status       bulk.ImportStatus     `gorm:"type:varchar(20);not null;default:'pending';index"`
	ErrorDetails string                `gorm:"type:jsonb;default:'[]'"`
	StartedAt    *time.Time            `gorm:"type:timestamptz"`
	CompletedAt  *time.Time            `gorm:"type:timestamptz"`
}

func (ImportHistoryModel) TableName() string {
	return "import_histories"
}

// ToDomain rebuilds the domain aggregate from a loaded row.
func (m *ImportHistoryModel) ToDomain() *bulk.ImportHistory {
	history := &bulk.ImportHistory{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		EntityType:        m.EntityType,
		FileName:          m.FileName,
		FileSize:          m.FileSize,
		TotalRows:         m.TotalRows,
		SuccessRows:       m.SuccessRows,
		ErrorRows:         m.ErrorRows,
		SkippedRows:       m.SkippedRows,
		UpdatedRows:       m.UpdatedRows,
		ConflictMode:      m.ConflictMode,
		Status:            m.Status,
		StartedAt:         m.StartedAt,
		CompletedAt:       m.CompletedAt,
	}

	if m.ErrorDetails != "" {
		// A malformed jsonb payload leaves the list empty rather than
		// failing the whole load.
		_ = history.SetErrorDetailsFromJSON(m.ErrorDetails)
	}

	return history
}

// FromDomain copies the aggregate state into the model for writing.
func (m *ImportHistoryModel) FromDomain(h *bulk.ImportHistory) {
	m.FromDomainAggregateRoot(h.BaseAggregateRoot)
	m.EntityType = h.EntityType
	m.FileName = h.FileName
	m.FileSize = h.FileSize
	m.TotalRows = h.TotalRows
	m.SuccessRows = h.SuccessRows
	m.ErrorRows = h.ErrorRows
	m.SkippedRows = h.SkippedRows
	m.UpdatedRows = h.UpdatedRows
	m.ConflictMode = h.ConflictMode
	m.Status = h.Status
	m.StartedAt = h.StartedAt
	m.CompletedAt = h.CompletedAt

	m.ErrorDetails = "[]"
	if errorJSON, err := h.ErrorDetailsJSON(); err == nil {
		m.ErrorDetails = errorJSON
	}
}

func ImportHistoryModelFromDomain(h *bulk.ImportHistory) *ImportHistoryModel {
	m := &ImportHistoryModel{}
	m.FromDomain(h)
	return m
}
