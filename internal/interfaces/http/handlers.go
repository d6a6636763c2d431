package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mitrajaya/garment-tracker/internal/auth"
	"github.com/mitrajaya/garment-tracker/internal/engine"
	"github.com/mitrajaya/garment-tracker/internal/models"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	engine *engine.Engine
	logger *zap.Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(eng *engine.Engine, logger *zap.Logger) *Handlers {
	return &Handlers{engine: eng, logger: logger}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// TransitionRequest is the body of POST /process-steps/:id/transition.
type TransitionRequest struct {
	Action      string `json:"action" binding:"required"`
	PerformedBy string `json:"performedBy"`
	Quantity    int    `json:"quantity"`
	Notes       string `json:"notes"`
}

// RejectRequest is the body of POST /process-steps/:id/reject.
type RejectRequest struct {
	RejectType     string `json:"rejectType" binding:"required"`
	RejectCategory string `json:"rejectCategory" binding:"required"`
	Quantity       int    `json:"quantity" binding:"required"`
	Description    string `json:"description"`
	RootCause      string `json:"rootCause"`
	Action         string `json:"action"`
	ReportedBy     string `json:"reportedBy"`
}

// AssignRequest is the body of POST /orders/:id/assign-next.
type AssignRequest struct {
	NextProcess string `json:"nextProcess" binding:"required"`
	Notes       string `json:"notes"`
}

// CompleteReworkRequest is the body of POST /rejects/:id/complete-rework.
type CompleteReworkRequest struct {
	FinalDisposition string `json:"finalDisposition"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    gin.H{"status": "healthy"},
	})
}

// ExecuteTransition handles POST /api/process-steps/:id/transition
func (h *Handlers) ExecuteTransition(c *gin.Context) {
	stepID, ok := h.pathID(c)
	if !ok {
		return
	}

	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	action, err := engine.ParseAction(req.Action, req.Quantity)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	result, err := h.engine.Execute(c.Request.Context(), userFrom(c), stepID, action, req.PerformedBy, req.Notes)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: result})
}

// ListTransitions handles GET /api/process-steps/:id/transitions
func (h *Handlers) ListTransitions(c *gin.Context) {
	stepID, ok := h.pathID(c)
	if !ok {
		return
	}

	transitions, err := h.engine.ListTransitions(c.Request.Context(), stepID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: transitions})
}

// GetStep handles GET /api/process-steps/:id
func (h *Handlers) GetStep(c *gin.Context) {
	stepID, ok := h.pathID(c)
	if !ok {
		return
	}

	step, err := h.engine.GetStep(c.Request.Context(), stepID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: step})
}

// RecordReject handles POST /api/process-steps/:id/reject
func (h *Handlers) RecordReject(c *gin.Context) {
	stepID, ok := h.pathID(c)
	if !ok {
		return
	}

	var req RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	category := models.RejectCategory(req.RejectCategory)
	if category != models.RejectCategoryReject && category != models.RejectCategoryRework {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "rejectCategory must be reject or rework"})
		return
	}

	log, err := h.engine.RecordReject(c.Request.Context(), userFrom(c), stepID, engine.RejectInput{
		RejectType:     req.RejectType,
		RejectCategory: category,
		Quantity:       req.Quantity,
		Description:    req.Description,
		RootCause:      req.RootCause,
		Action:         req.Action,
		ReportedBy:     req.ReportedBy,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: log})
}

// ListRejects handles GET /api/process-steps/:id/rejects
func (h *Handlers) ListRejects(c *gin.Context) {
	stepID, ok := h.pathID(c)
	if !ok {
		return
	}

	logs, err := h.engine.ListRejects(c.Request.Context(), stepID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: logs})
}

// CompleteRework handles POST /api/rejects/:id/complete-rework
func (h *Handlers) CompleteRework(c *gin.Context) {
	logID, ok := h.pathID(c)
	if !ok {
		return
	}

	var req CompleteReworkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	log, err := h.engine.CompleteRework(c.Request.Context(), userFrom(c), logID, req.FinalDisposition)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: log})
}

// AssignNextProcess handles POST /api/orders/:id/assign-next
func (h *Handlers) AssignNextProcess(c *gin.Context) {
	orderID, ok := h.pathID(c)
	if !ok {
		return
	}

	var req AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	result, err := h.engine.AssignNextProcess(c.Request.Context(), userFrom(c), orderID, req.NextProcess, req.Notes)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: result})
}

// GetOrder handles GET /api/orders/:id
func (h *Handlers) GetOrder(c *gin.Context) {
	orderID, ok := h.pathID(c)
	if !ok {
		return
	}

	detail, err := h.engine.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: detail})
}

// ListTransfers handles GET /api/orders/:id/transfers
func (h *Handlers) ListTransfers(c *gin.Context) {
	orderID, ok := h.pathID(c)
	if !ok {
		return
	}

	transfers, err := h.engine.ListTransfers(c.Request.Context(), orderID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: transfers})
}

func (h *Handlers) pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid id"})
		return 0, false
	}
	return id, true
}

// respondError maps the engine's error taxonomy to status codes. Internal
// detail is logged, never exposed.
func (h *Handlers) respondError(c *gin.Context, err error) {
	var permErr *auth.PermissionError

	switch {
	case errors.Is(err, auth.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, Response{Success: false, Error: err.Error()})
	case errors.As(err, &permErr):
		c.JSON(http.StatusForbidden, Response{Success: false, Error: permErr.Error()})
	case errors.Is(err, engine.ErrStepNotFound),
		errors.Is(err, engine.ErrOrderNotFound),
		errors.Is(err, engine.ErrRejectLogNotFound):
		c.JSON(http.StatusNotFound, Response{Success: false, Error: err.Error()})
	case errors.Is(err, engine.ErrUnknownAction),
		errors.Is(err, engine.ErrProcessUnavailable),
		engine.IsInvalidTransition(err):
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
	default:
		h.logger.Error("Unhandled engine error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "internal error"})
	}
}
