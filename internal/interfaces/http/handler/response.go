package handler

// CountData wraps a bare count for responses like bulk retries.
type CountData struct {
	Count int64 `json:"count"`
}

// SchedulerStatusData reports whether the scheduler is running and
// which job types it knows.
type SchedulerStatusData struct {
	Enabled        bool     `json:"enabled"`
	AvailableTypes []string `json:"available_types"`
}
