package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/paperdrill/paperdrill-backend/internal/middleware"
	"github.com/paperdrill/paperdrill-backend/internal/model"
	"github.com/paperdrill/paperdrill-backend/internal/response"
	"github.com/paperdrill/paperdrill-backend/internal/service"
	"github.com/paperdrill/paperdrill-backend/internal/validator"
)

// DrillHandler handles spaced-repetition drill endpoints.
type DrillHandler struct {
	drillService *service.DrillService
}

// NewDrillHandler creates a new DrillHandler.
func NewDrillHandler(drillService *service.DrillService) *DrillHandler {
	return &DrillHandler{drillService: drillService}
}

// CreateBatch godoc
// POST /api/papers/drill-items
// Batch-inserts drill items flagged outside a timed session.
func (h *DrillHandler) CreateBatch(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.BatchCreateDrillItemsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.drillService.CreateBatch(c.Request.Context(), claims.UserID, req.Items); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"created": len(req.Items)})
}

// ListDue godoc
// GET /api/drill-items/due?limit=50
func (h *DrillHandler) ListDue(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	items, err := h.drillService.ListDue(c.Request.Context(), claims.UserID, limit)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, items)
}

// Grade godoc
// POST /api/drill-items/:id/grade
// Records a review outcome and reschedules the item.
func (h *DrillHandler) Grade(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.GradeDrillItemRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	item, err := h.drillService.Grade(c.Request.Context(), claims.UserID, id, req.Grade)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDrillItemNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrDrillItemNotFound)
		case errors.Is(err, service.ErrNotItemOwner):
			response.Fail(c, http.StatusForbidden, response.ErrForbidden)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, item)
}
