package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/exercise-engine/internal/models"
	"github.com/SAP-F-2025/exercise-engine/internal/repositories"
	"github.com/SAP-F-2025/exercise-engine/internal/services"
	"github.com/SAP-F-2025/exercise-engine/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ExerciseHandler struct {
	BaseHandler
	exerciseService  services.ExerciseService
	exportService    services.ExportService
	analyticsService services.AnalyticsService
}

func NewExerciseHandler(serviceManager services.ServiceManager, logger utils.Logger) *ExerciseHandler {
	return &ExerciseHandler{
		BaseHandler:      NewBaseHandler(logger),
		exerciseService:  serviceManager.Exercise(),
		exportService:    serviceManager.Export(),
		analyticsService: serviceManager.Analytics(),
	}
}

// ===== INSTANCE LIFECYCLE =====

// StartInstance normalizes authored content and opens a new instance
// POST /api/v1/instances
func (h *ExerciseHandler) StartInstance(c *gin.Context) {
	h.LogRequest(c, "Starting exercise instance")

	var req models.StartInstanceRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.exerciseService.Start(requestContext(c), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// GetInstance returns the render state of an instance
// GET /api/v1/instances/:id
func (h *ExerciseHandler) GetInstance(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	resp, err := h.exerciseService.Get(requestContext(c), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// DisposeInstance discards an instance and any in-flight correction
// DELETE /api/v1/instances/:id
func (h *ExerciseHandler) DisposeInstance(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	if err := h.exerciseService.Dispose(requestContext(c), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ===== ANSWER OPERATIONS =====

// instanceAction binds the body into req and runs fn against the instance
func instanceAction[T any](h *ExerciseHandler, fn func(*gin.Context, string, *T) (*services.InstanceResponse, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := ParseStringIDParam(c, "id")
		if id == "" {
			return
		}

		var req T
		if !bindJSON(c, &req) {
			return
		}

		resp, err := fn(c, id, &req)
		if err != nil {
			h.handleServiceError(c, err)
			return
		}

		c.JSON(http.StatusOK, resp)
	}
}

// SelectAlternative POST /api/v1/instances/:id/choice
func (h *ExerciseHandler) SelectAlternative(c *gin.Context) {
	instanceAction(h, func(c *gin.Context, id string, req *models.SelectAlternativeRequest) (*services.InstanceResponse, error) {
		return h.exerciseService.SelectAlternative(requestContext(c), id, req)
	})(c)
}

// ToggleSelection POST /api/v1/instances/:id/selection
func (h *ExerciseHandler) ToggleSelection(c *gin.Context) {
	instanceAction(h, func(c *gin.Context, id string, req *models.SelectionRequest) (*services.InstanceResponse, error) {
		return h.exerciseService.ToggleSelection(requestContext(c), id, req)
	})(c)
}

// SetText POST /api/v1/instances/:id/text
func (h *ExerciseHandler) SetText(c *gin.Context) {
	instanceAction(h, func(c *gin.Context, id string, req *models.SetTextRequest) (*services.InstanceResponse, error) {
		return h.exerciseService.SetText(requestContext(c), id, req)
	})(c)
}

// SetBlank POST /api/v1/instances/:id/blanks
func (h *ExerciseHandler) SetBlank(c *gin.Context) {
	instanceAction(h, func(c *gin.Context, id string, req *models.BlankRequest) (*services.InstanceResponse, error) {
		return h.exerciseService.SetBlank(requestContext(c), id, req)
	})(c)
}

// SetMatch POST /api/v1/instances/:id/matches
func (h *ExerciseHandler) SetMatch(c *gin.Context) {
	instanceAction(h, func(c *gin.Context, id string, req *models.MatchRequest) (*services.InstanceResponse, error) {
		return h.exerciseService.SetMatch(requestContext(c), id, req)
	})(c)
}

// SetCell POST /api/v1/instances/:id/cells
func (h *ExerciseHandler) SetCell(c *gin.Context) {
	instanceAction(h, func(c *gin.Context, id string, req *models.CellRequest) (*services.InstanceResponse, error) {
		return h.exerciseService.SetCell(requestContext(c), id, req)
	})(c)
}

// ===== WORD BANK =====

// AssignWordToSlot POST /api/v1/instances/:id/bank/assign
func (h *ExerciseHandler) AssignWordToSlot(c *gin.Context) {
	instanceAction(h, func(c *gin.Context, id string, req *models.BankAssignRequest) (*services.InstanceResponse, error) {
		return h.exerciseService.AssignWordToSlot(requestContext(c), id, req)
	})(c)
}

// ClearSlot POST /api/v1/instances/:id/bank/clear
func (h *ExerciseHandler) ClearSlot(c *gin.Context) {
	instanceAction(h, func(c *gin.Context, id string, req *models.BankClearRequest) (*services.InstanceResponse, error) {
		return h.exerciseService.ClearSlot(requestContext(c), id, req)
	})(c)
}

// MoveBetweenSlots POST /api/v1/instances/:id/bank/move
func (h *ExerciseHandler) MoveBetweenSlots(c *gin.Context) {
	instanceAction(h, func(c *gin.Context, id string, req *models.BankMoveRequest) (*services.InstanceResponse, error) {
		return h.exerciseService.MoveBetweenSlots(requestContext(c), id, req)
	})(c)
}

// TapToken POST /api/v1/instances/:id/bank/tap
func (h *ExerciseHandler) TapToken(c *gin.Context) {
	instanceAction(h, func(c *gin.Context, id string, req *models.BankTapRequest) (*services.InstanceResponse, error) {
		return h.exerciseService.TapToken(requestContext(c), id, req)
	})(c)
}

// ===== CORRECTION =====

// Submit sends the current answer for correction and waits for the verdict
// POST /api/v1/instances/:id/submit
func (h *ExerciseHandler) Submit(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}
	h.LogRequest(c, "Submitting answer for correction")

	resp, err := h.exerciseService.Submit(requestContext(c), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ===== GRID =====

// GetSlots returns the numbered crossword slots of an instance
// GET /api/v1/instances/:id/slots
func (h *ExerciseHandler) GetSlots(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	analysis, err := h.exerciseService.Slots(requestContext(c), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, analysis)
}

// AnalyzeGrid detects slots on an arbitrary mask
// POST /api/v1/grid/analyze
func (h *ExerciseHandler) AnalyzeGrid(c *gin.Context) {
	var req models.AnalyzeGridRequest
	if !bindJSON(c, &req) {
		return
	}

	analysis, err := h.exerciseService.AnalyzeGrid(requestContext(c), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, analysis)
}

// ===== EXPORT =====

// ExportInstance downloads the instance answer and feedback as xlsx
// GET /api/v1/instances/:id/export
func (h *ExerciseHandler) ExportInstance(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	data, err := h.exportService.ExportInstance(requestContext(c), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	attachment(c, fmt.Sprintf("instance_%s.xlsx", id), data)
}

// ExportQuestionSnapshots downloads every stored answer for a question
// GET /api/v1/questions/:id/snapshots/export
func (h *ExerciseHandler) ExportQuestionSnapshots(c *gin.Context) {
	questionID := ParseStringIDParam(c, "id")
	if questionID == "" {
		return
	}

	filters, ok := parseSnapshotFilters(c)
	if !ok {
		return
	}

	data, err := h.exportService.ExportQuestionSnapshots(requestContext(c), questionID, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	attachment(c, fmt.Sprintf("question_%s_snapshots.xlsx", questionID), data)
}

// GetQuestionAnalytics summarizes stored answers for a question
// GET /api/v1/questions/:id/analytics
func (h *ExerciseHandler) GetQuestionAnalytics(c *gin.Context) {
	questionID := ParseStringIDParam(c, "id")
	if questionID == "" {
		return
	}

	analytics, err := h.analyticsService.GetQuestionAnalytics(requestContext(c), questionID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, analytics)
}

func parseSnapshotFilters(c *gin.Context) (repositories.SnapshotFilters, bool) {
	filters := repositories.SnapshotFilters{Limit: 1000}

	if t := c.Query("type"); t != "" {
		et := models.ExerciseType(t)
		if !et.Valid() {
			c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid type filter", Details: t})
			return filters, false
		}
		filters.ExerciseType = &et
	}
	if r := c.Query("answered"); r != "" {
		answered, err := strconv.ParseBool(r)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid answered filter", Details: r})
			return filters, false
		}
		filters.Respondido = &answered
	}
	if l := c.Query("limit"); l != "" {
		limit, err := strconv.Atoi(l)
		if err != nil || limit <= 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid limit", Details: l})
			return filters, false
		}
		filters.Limit = limit
	}
	if o := c.Query("offset"); o != "" {
		offset, err := strconv.Atoi(o)
		if err != nil || offset < 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid offset", Details: o})
			return filters, false
		}
		filters.Offset = offset
	}
	return filters, true
}

func attachment(c *gin.Context, filename string, data []byte) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}

// ===== HELPERS =====

// requestContext carries the request id into service logging
func requestContext(c *gin.Context) context.Context {
	return services.WithRequestID(c.Request.Context(), c.GetString(utils.RequestIDKey))
}

func (h *ExerciseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		h.RespondWithError(c, http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
			Code:    "validation_failed",
		}, err)
		return
	}

	var validationError *services.ValidationError
	if errors.As(err, &validationError) {
		h.RespondWithError(c, http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationError,
			Code:    "validation_failed",
		}, err)
		return
	}

	var businessRuleError *services.BusinessRuleError
	if errors.As(err, &businessRuleError) && !services.IsConflict(err) {
		h.RespondWithError(c, http.StatusBadRequest, ErrorResponse{
			Message: businessRuleError.Message,
			Details: map[string]interface{}{
				"rule":    businessRuleError.Rule,
				"context": businessRuleError.Context,
			},
			Code: businessRuleError.Rule,
		}, err)
		return
	}

	switch {
	case services.IsContentUnavailable(err):
		h.RespondWithError(c, http.StatusUnprocessableEntity, ErrorResponse{
			Message: "Exercise content is unavailable",
			Details: err.Error(),
			Code:    "content_unavailable",
		}, err)
	case services.IsNotFound(err):
		h.RespondWithError(c, http.StatusNotFound, ErrorResponse{
			Message: "Instance not found",
			Code:    "not_found",
		}, err)
	case services.IsConflict(err):
		code := "conflict"
		switch {
		case errors.Is(err, services.ErrAlreadyAnswered):
			code = "already_answered"
		case errors.Is(err, services.ErrSubmissionPending):
			code = "submission_pending"
		}
		h.RespondWithError(c, http.StatusConflict, ErrorResponse{
			Message: "Instance cannot change right now",
			Details: err.Error(),
			Code:    code,
		}, err)
	case services.IsBadRequest(err):
		h.RespondWithError(c, http.StatusBadRequest, ErrorResponse{
			Message: "Operation not allowed",
			Details: err.Error(),
			Code:    "bad_request",
		}, err)
	case services.IsRetryable(err):
		h.RespondWithError(c, http.StatusBadGateway, ErrorResponse{
			Message:   "Correction service unavailable",
			Details:   err.Error(),
			Code:      "correction_failed",
			Retryable: true,
		}, err)
	default:
		h.RespondWithError(c, http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
			Code:    "internal_error",
		}, err)
	}
}
