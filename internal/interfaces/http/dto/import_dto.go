package dto

import csvimport "github.com/stocksense/backend/internal/infrastructure/import"

// ImportRequest represents the request to import previously validated rows
type ImportRequest struct {
	ValidationID string `json:"validation_id" binding:"required,uuid"`
	ConflictMode string `json:"conflict_mode" binding:"required,oneof=skip update fail"`
}

// DemandImportRequest represents the request to import validated demand rows.
// Demand history is append-only so there is no conflict mode.
type DemandImportRequest struct {
	ValidationID string `json:"validation_id" binding:"required,uuid"`
}

// ImportValidateResponse represents the response from CSV validation
type ImportValidateResponse struct {
	ValidationID string               `json:"validation_id"`
	TotalRows    int                  `json:"total_rows"`
	ValidRows    int                  `json:"valid_rows"`
	ErrorRows    int                  `json:"error_rows"`
	Errors       []csvimport.RowError `json:"errors,omitempty"`
	Preview      []map[string]any     `json:"preview,omitempty"`
	Warnings     []string             `json:"warnings,omitempty"`
	IsTruncated  bool                 `json:"is_truncated,omitempty"`
	TotalErrors  int                  `json:"total_errors,omitempty"`
}

// ImportResultResponse represents the response from a bulk import operation
type ImportResultResponse struct {
	TotalRows    int                  `json:"total_rows"`
	ImportedRows int                  `json:"imported_rows"`
	UpdatedRows  int                  `json:"updated_rows"`
	SkippedRows  int                  `json:"skipped_rows"`
	ErrorRows    int                  `json:"error_rows"`
	Errors       []csvimport.RowError `json:"errors,omitempty"`
	IsTruncated  bool                 `json:"is_truncated,omitempty"`
	TotalErrors  int                  `json:"total_errors,omitempty"`
}
