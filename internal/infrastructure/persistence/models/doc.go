// Package models contains GORM-specific persistence models for entities whose
// storage layout diverges from their domain shape, such as aggregates that
// serialize nested structures to JSON columns. Most aggregates map directly
// and are persisted without an intermediate model.
package models
