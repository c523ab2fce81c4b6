package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// CommonSortFields contains fields common to most entities
var CommonSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
}

// ProductSortFields contains allowed sort fields for products
var ProductSortFields = map[string]bool{
	"id":              true,
	"created_at":      true,
	"updated_at":      true,
	"code":            true,
	"name":            true,
	"category":        true,
	"subcategory":     true,
	"price":           true,
	"lead_time_days":  true,
	"min_stock":       true,
	"seasonal_factor": true,
	"status":          true,
}

// InventorySortFields contains allowed sort fields for inventory levels
var InventorySortFields = map[string]bool{
	"id":              true,
	"created_at":      true,
	"updated_at":      true,
	"product_id":      true,
	"current_stock":   true,
	"min_stock":       true,
	"reorder_point":   true,
	"last_restock_at": true,
}

// AssessmentSortFields contains allowed sort fields for risk assessments
var AssessmentSortFields = map[string]bool{
	"id":            true,
	"created_at":    true,
	"updated_at":    true,
	"product_id":    true,
	"product_code":  true,
	"score":         true,
	"band":          true,
	"high_risk":     true,
	"model_version": true,
}

// ModelVersionSortFields contains allowed sort fields for model versions
var ModelVersionSortFields = map[string]bool{
	"id":           true,
	"created_at":   true,
	"updated_at":   true,
	"version":      true,
	"family":       true,
	"auc":          true,
	"accuracy":     true,
	"sample_count": true,
	"status":       true,
	"trained_at":   true,
}

// AlertSortFields contains allowed sort fields for alerts
var AlertSortFields = map[string]bool{
	"id":              true,
	"created_at":      true,
	"updated_at":      true,
	"type":            true,
	"product_id":      true,
	"product_code":    true,
	"priority":        true,
	"acknowledged":    true,
	"acknowledged_at": true,
}

// ImportHistorySortFields contains allowed sort fields for import histories
var ImportHistorySortFields = map[string]bool{
	"id":           true,
	"created_at":   true,
	"updated_at":   true,
	"entity_type":  true,
	"file_name":    true,
	"file_size":    true,
	"total_rows":   true,
	"success_rows": true,
	"error_rows":   true,
	"status":       true,
	"started_at":   true,
	"completed_at": true,
}
