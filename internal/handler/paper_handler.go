package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/paperdrill/paperdrill-backend/internal/model"
	"github.com/paperdrill/paperdrill-backend/internal/repository"
	"github.com/paperdrill/paperdrill-backend/internal/response"
	"github.com/paperdrill/paperdrill-backend/internal/validator"
)

// PaperHandler handles the paper catalog and its questions.
type PaperHandler struct {
	papers    *repository.PaperRepository
	questions *repository.QuestionRepository
}

// NewPaperHandler creates a new PaperHandler.
func NewPaperHandler(papers *repository.PaperRepository, questions *repository.QuestionRepository) *PaperHandler {
	return &PaperHandler{papers: papers, questions: questions}
}

// List godoc
// GET /api/papers?page=1&per_page=20
func (h *PaperHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	papers, total, err := h.papers.ListPaginated(c.Request.Context(), perPage, (page-1)*perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	totalPages := (total + perPage - 1) / perPage
	response.SuccessWithPagination(c, http.StatusOK, papers, &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: totalPages,
	})
}

// Get godoc
// GET /api/papers/:id
func (h *PaperHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	paper, err := h.papers.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrPaperNotFound)
		return
	}

	response.Success(c, http.StatusOK, paper)
}

// Create godoc
// POST /api/papers
func (h *PaperHandler) Create(c *gin.Context) {
	var req model.CreatePaperRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	paper := &model.Paper{
		Name:             req.Name,
		Variant:          req.Variant,
		DisplayName:      req.DisplayName,
		TimeLimitMinutes: req.TimeLimitMinutes,
	}
	if err := h.papers.Create(c.Request.Context(), paper); err != nil {
		response.Fail(c, http.StatusConflict, response.ErrConflict)
		return
	}

	response.Success(c, http.StatusCreated, paper)
}

// Update godoc
// PUT /api/papers/:id
func (h *PaperHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.UpdatePaperRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	paper, err := h.papers.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrPaperNotFound)
		return
	}

	if req.Name != "" {
		paper.Name = req.Name
	}
	if req.Variant != "" {
		paper.Variant = req.Variant
	}
	if req.DisplayName != "" {
		paper.DisplayName = req.DisplayName
	}
	if req.TimeLimitMinutes > 0 {
		paper.TimeLimitMinutes = req.TimeLimitMinutes
	}

	if err := h.papers.Update(c.Request.Context(), paper); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, paper)
}

// Delete godoc
// DELETE /api/papers/:id
func (h *PaperHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.papers.Delete(c.Request.Context(), id); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// ListQuestions godoc
// GET /api/papers/:id/questions
func (h *PaperHandler) ListQuestions(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	questions, err := h.questions.ListByPaper(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, questions)
}

// AddQuestion godoc
// POST /api/papers/:id/questions
func (h *PaperHandler) AddQuestion(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.AddQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if _, err := h.papers.GetByID(c.Request.Context(), id); err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrPaperNotFound)
		return
	}

	q := &model.Question{
		PaperID:       id,
		Number:        req.Number,
		PartLabel:     req.PartLabel,
		Text:          req.Text,
		Options:       req.Options,
		CorrectChoice: req.CorrectChoice,
	}
	if err := h.questions.Add(c.Request.Context(), q); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, q)
}
