package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	statementapp "github.com/vaultwrx/billing/internal/application/statement"
	"github.com/vaultwrx/billing/internal/domain/billing"
	"github.com/vaultwrx/billing/internal/infrastructure/scheduler"
	"github.com/vaultwrx/billing/internal/interfaces/http/middleware"
)

const requestDateLayout = "2006-01-02"

// StatementHandler exposes statement generation and lookup endpoints
type StatementHandler struct {
	BaseHandler
	orchestrator *statementapp.Orchestrator
	statements   billing.StatementRepository
	scheduler    *scheduler.StatementScheduler
}

// NewStatementHandler creates a new StatementHandler
func NewStatementHandler(orchestrator *statementapp.Orchestrator, statements billing.StatementRepository) *StatementHandler {
	return &StatementHandler{
		orchestrator: orchestrator,
		statements:   statements,
	}
}

// SetScheduler wires the cron scheduler for status reporting and manual runs
func (h *StatementHandler) SetScheduler(s *scheduler.StatementScheduler) {
	h.scheduler = s
}

// RegisterRoutes registers statement routes
func (h *StatementHandler) RegisterRoutes(rg *gin.RouterGroup) {
	statements := rg.Group("/statements")
	{
		statements.POST("/generate", h.Generate)
		statements.POST("/generate-all", h.GenerateAll)
		statements.GET("", h.List)
	}

	sched := rg.Group("/scheduler")
	{
		sched.GET("/status", h.SchedulerStatus)
		sched.POST("/run", h.TriggerRun)
	}
}

// GenerateStatementsRequest selects the pipelines to run
type GenerateStatementsRequest struct {
	Date       string `json:"date" binding:"required"`
	Admin      bool   `json:"admin"`
	RetailerID string `json:"retailer_id"`
	CustomerID string `json:"customer_id"`
}

// RoleOutcomeResponse reports one pipeline's result
type RoleOutcomeResponse struct {
	Role  string `json:"role"`
	Error string `json:"error,omitempty"`
}

// GenerateStatementsResponse reports a full run
type GenerateStatementsResponse struct {
	RunID    string                `json:"run_id"`
	Outcomes []RoleOutcomeResponse `json:"outcomes"`
}

// Generate runs the requested statement pipelines for a billing month
func (h *StatementHandler) Generate(c *gin.Context) {
	var req GenerateStatementsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, middleware.ValidationMessage(err))
		return
	}

	date, err := time.Parse(requestDateLayout, req.Date)
	if err != nil {
		h.BadRequest(c, "date must be formatted YYYY-MM-DD")
		return
	}

	appReq := statementapp.GenerateRequest{
		Date:  date,
		Admin: req.Admin,
	}
	if req.RetailerID != "" {
		id, err := uuid.Parse(req.RetailerID)
		if err != nil {
			h.BadRequest(c, "retailer_id is not a valid UUID")
			return
		}
		appReq.RetailerID = &id
	}
	if req.CustomerID != "" {
		id, err := uuid.Parse(req.CustomerID)
		if err != nil {
			h.BadRequest(c, "customer_id is not a valid UUID")
			return
		}
		appReq.CustomerID = &id
	}

	result, err := h.orchestrator.Generate(c.Request.Context(), appReq)
	if err != nil {
		h.DomainError(c, err)
		return
	}

	h.Success(c, toGenerateResponse(result))
}

// GenerateAllRequest triggers a full fan-out run
type GenerateAllRequest struct {
	Date string `json:"date" binding:"required"`
}

// TaskResultResponse reports one fan-out task
type TaskResultResponse struct {
	Task  string `json:"task"`
	Error string `json:"error,omitempty"`
}

// GenerateAllResponse summarizes the fan-out run
type GenerateAllResponse struct {
	Succeeded int                  `json:"succeeded"`
	Failed    int                  `json:"failed"`
	Tasks     []TaskResultResponse `json:"tasks"`
}

// GenerateAll runs every pipeline for every active retailer and customer
func (h *StatementHandler) GenerateAll(c *gin.Context) {
	var req GenerateAllRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, middleware.ValidationMessage(err))
		return
	}

	date, err := time.Parse(requestDateLayout, req.Date)
	if err != nil {
		h.BadRequest(c, "date must be formatted YYYY-MM-DD")
		return
	}

	result, err := h.orchestrator.GenerateAll(c.Request.Context(), date)
	if err != nil {
		h.DomainError(c, err)
		return
	}

	resp := GenerateAllResponse{
		Succeeded: result.Succeeded,
		Failed:    result.Failed,
		Tasks:     make([]TaskResultResponse, 0, len(result.Tasks)),
	}
	for _, task := range result.Tasks {
		tr := TaskResultResponse{Task: task.Task}
		if task.Error != nil {
			tr.Error = task.Error.Error()
		}
		resp.Tasks = append(resp.Tasks, tr)
	}

	h.Success(c, resp)
}

// StatementRecordResponse is one persisted artifact reference
type StatementRecordResponse struct {
	ID        string    `json:"id"`
	OwnerType string    `json:"owner_type"`
	OwnerID   *string   `json:"owner_id,omitempty"`
	Kind      string    `json:"kind"`
	DateLabel string    `json:"date_label"`
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"created_at"`
}

// List returns the artifact references accumulated for an owner
func (h *StatementHandler) List(c *gin.Context) {
	ownerType := billing.OwnerType(c.Query("owner_type"))
	switch ownerType {
	case billing.OwnerPlatform, billing.OwnerRetailer, billing.OwnerCustomer:
	default:
		h.BadRequest(c, "owner_type must be one of platform, retailer, customer")
		return
	}

	var ownerID *uuid.UUID
	if raw := c.Query("owner_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "owner_id is not a valid UUID")
			return
		}
		ownerID = &id
	}

	records, err := h.statements.FindByOwner(c.Request.Context(), ownerType, ownerID)
	if err != nil {
		h.DomainError(c, err)
		return
	}

	resp := make([]StatementRecordResponse, 0, len(records))
	for _, rec := range records {
		item := StatementRecordResponse{
			ID:        rec.ID.String(),
			OwnerType: string(rec.OwnerType),
			Kind:      string(rec.Kind),
			DateLabel: rec.DateLabel,
			Path:      rec.Path,
			CreatedAt: rec.CreatedAt,
		}
		if rec.OwnerID != nil {
			s := rec.OwnerID.String()
			item.OwnerID = &s
		}
		resp = append(resp, item)
	}

	h.Success(c, resp)
}

// SchedulerStatusResponse reports the cron scheduler state
type SchedulerStatusResponse struct {
	Running   bool       `json:"running"`
	LastRunAt *time.Time `json:"last_run_at,omitempty"`
	NextRunAt *time.Time `json:"next_run_at,omitempty"`
}

// SchedulerStatus reports the next and last scheduled run
func (h *StatementHandler) SchedulerStatus(c *gin.Context) {
	if h.scheduler == nil {
		h.NotFound(c, "scheduler is not enabled")
		return
	}

	h.Success(c, SchedulerStatusResponse{
		Running:   h.scheduler.GetNextRunAt() != nil,
		LastRunAt: h.scheduler.GetLastRunAt(),
		NextRunAt: h.scheduler.GetNextRunAt(),
	})
}

// TriggerRun kicks off an out-of-schedule full generation run
func (h *StatementHandler) TriggerRun(c *gin.Context) {
	if h.scheduler == nil {
		h.NotFound(c, "scheduler is not enabled")
		return
	}

	if err := h.scheduler.TriggerManualRun(c.Request.Context()); err != nil {
		h.DomainError(c, err)
		return
	}

	h.Accepted(c, gin.H{"status": "scheduled"})
}

func toGenerateResponse(result *statementapp.GenerateResult) GenerateStatementsResponse {
	resp := GenerateStatementsResponse{
		RunID:    result.RunID.String(),
		Outcomes: make([]RoleOutcomeResponse, 0, len(result.Outcomes)),
	}
	for _, outcome := range result.Outcomes {
		ro := RoleOutcomeResponse{Role: outcome.Role}
		if outcome.Error != nil {
			ro.Error = outcome.Error.Error()
		}
		resp.Outcomes = append(resp.Outcomes, ro)
	}
	return resp
}
