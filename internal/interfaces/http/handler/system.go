package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	eventapp "github.com/stocksense/backend/internal/application/event"
	"github.com/stocksense/backend/internal/infrastructure/scheduler"
	"github.com/stocksense/backend/internal/interfaces/http/middleware"
	"gorm.io/gorm"
)

// HealthData represents the health check payload
type HealthData struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Database string `json:"database"`
	Time     string `json:"time"`
}

// JobRunData represents the last run of a background job
type JobRunData struct {
	Type        string     `json:"type"`
	Status      string     `json:"status"`
	Error       string     `json:"error,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// SystemHandler handles health, scheduler and outbox admin requests
type SystemHandler struct {
	BaseHandler
	db            *gorm.DB
	scheduler     *scheduler.Scheduler
	outboxService *eventapp.OutboxService
	version       string
}

// NewSystemHandler creates a new system handler.
// The scheduler may be nil when background jobs are disabled.
func NewSystemHandler(db *gorm.DB, sched *scheduler.Scheduler, version string) *SystemHandler {
	return &SystemHandler{
		db:        db,
		scheduler: sched,
		version:   version,
	}
}

// SetOutboxService enables the outbox admin endpoints.
// Must be called before RegisterRoutes.
func (h *SystemHandler) SetOutboxService(svc *eventapp.OutboxService) {
	h.outboxService = svc
}

// Health godoc
// @Summary      Service health
// @Description  Reports service and database health
// @Tags         system
// @Produce      json
// @Success      200 {object} dto.Response{data=HealthData}
// @Failure      503 {object} dto.Response{data=HealthData}
// @Router       /health [get]
func (h *SystemHandler) Health(c *gin.Context) {
	data := HealthData{
		Status:   "ok",
		Version:  h.version,
		Database: "ok",
		Time:     time.Now().UTC().Format(time.RFC3339),
	}

	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		data.Status = "degraded"
		data.Database = "unreachable"
		c.JSON(http.StatusServiceUnavailable, data)
		return
	}

	c.JSON(http.StatusOK, data)
}

// SchedulerStatus godoc
// @Summary      Background job status
// @Description  Whether the scheduler runs and the last outcome per job type
// @Tags         system
// @Produce      json
// @Success      200 {object} dto.Response{data=map[string]JobRunData}
// @Security     BearerAuth
// @Router       /system/scheduler [get]
func (h *SystemHandler) SchedulerStatus(c *gin.Context) {
	types := make([]string, 0, len(scheduler.AllJobTypes()))
	for _, t := range scheduler.AllJobTypes() {
		types = append(types, string(t))
	}

	status := SchedulerStatusData{
		Enabled:        h.scheduler != nil,
		AvailableTypes: types,
	}

	if h.scheduler == nil {
		h.Success(c, gin.H{"scheduler": status})
		return
	}

	lastRuns := make([]JobRunData, 0, len(scheduler.AllJobTypes()))
	for _, t := range scheduler.AllJobTypes() {
		job := h.scheduler.LastRun(t)
		if job == nil {
			continue
		}
		lastRuns = append(lastRuns, JobRunData{
			Type:        string(job.Type),
			Status:      string(job.Status),
			Error:       job.Error,
			StartedAt:   job.StartedAt,
			CompletedAt: job.CompletedAt,
		})
	}

	h.Success(c, gin.H{"scheduler": status, "last_runs": lastRuns})
}

// TriggerJob godoc
// @Summary      Trigger a background job
// @Tags         system
// @Produce      json
// @Param        type path string true "Job type" Enums(ASSESS_ALL, RETRAIN)
// @Success      202 {object} dto.Response
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /system/scheduler/jobs/{type} [post]
func (h *SystemHandler) TriggerJob(c *gin.Context) {
	if h.scheduler == nil {
		h.UnprocessableEntity(c, "INVALID_STATE", "Scheduler is disabled")
		return
	}

	jobType := scheduler.JobType(c.Param("type"))
	valid := false
	for _, t := range scheduler.AllJobTypes() {
		if t == jobType {
			valid = true
			break
		}
	}
	if !valid {
		h.BadRequest(c, "Unknown job type")
		return
	}

	if err := h.scheduler.Schedule(jobType); err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"success": true, "data": gin.H{"type": string(jobType), "status": "queued"}})
}

// OutboxStats godoc
// @Summary      Outbox entry counts by status
// @Tags         system
// @Produce      json
// @Success      200 {object} dto.Response{data=eventapp.OutboxStatsDTO}
// @Security     BearerAuth
// @Router       /system/outbox/stats [get]
func (h *SystemHandler) OutboxStats(c *gin.Context) {
	stats, err := h.outboxService.GetStats(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}

// ListDeadLetters godoc
// @Summary      List dead letter entries
// @Description  Outbox entries that exhausted their delivery retries
// @Tags         system
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} dto.Response{data=eventapp.OutboxListResult}
// @Security     BearerAuth
// @Router       /system/outbox/dead-letters [get]
func (h *SystemHandler) ListDeadLetters(c *gin.Context) {
	var filter eventapp.OutboxFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	result, err := h.outboxService.GetDeadLetterEntries(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// RetryDeadLetter godoc
// @Summary      Retry a dead letter entry
// @Tags         system
// @Produce      json
// @Param        id path string true "Outbox entry ID"
// @Success      200 {object} dto.Response{data=eventapp.OutboxEntryDTO}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /system/outbox/dead-letters/{id}/retry [post]
func (h *SystemHandler) RetryDeadLetter(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid outbox entry ID")
		return
	}

	entry, err := h.outboxService.RetryDeadEntry(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entry)
}

// RetryAllDeadLetters godoc
// @Summary      Retry all dead letter entries
// @Tags         system
// @Produce      json
// @Success      200 {object} dto.Response{data=CountData}
// @Security     BearerAuth
// @Router       /system/outbox/dead-letters/retry-all [post]
func (h *SystemHandler) RetryAllDeadLetters(c *gin.Context) {
	count, err := h.outboxService.RetryAllDeadEntries(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, CountData{Count: count})
}

// RegisterRoutes registers system routes
func (h *SystemHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/health", h.Health)

	system := rg.Group("/system")
	{
		system.GET("/scheduler", h.SchedulerStatus)
		system.POST("/scheduler/jobs/:type", h.TriggerJob)

		if h.outboxService != nil {
			system.GET("/outbox/stats", h.OutboxStats)
			system.GET("/outbox/dead-letters", h.ListDeadLetters)
			system.POST("/outbox/dead-letters/retry-all", h.RetryAllDeadLetters)
			system.POST("/outbox/dead-letters/:id/retry", h.RetryDeadLetter)
		}
	}
}
