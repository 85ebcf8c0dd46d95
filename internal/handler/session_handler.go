package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/paperdrill/paperdrill-backend/internal/cache"
	"github.com/paperdrill/paperdrill-backend/internal/middleware"
	"github.com/paperdrill/paperdrill-backend/internal/model"
	"github.com/paperdrill/paperdrill-backend/internal/repository"
	"github.com/paperdrill/paperdrill-backend/internal/response"
	"github.com/paperdrill/paperdrill-backend/internal/session"
	"github.com/paperdrill/paperdrill-backend/internal/validator"
	"github.com/rs/zerolog"
)

// SessionHandler handles the paper session lifecycle: start, partial updates
// while the attempt runs, completion, and resume after a reload or restart.
type SessionHandler struct {
	store    *session.Store
	papers   *repository.PaperRepository
	sessions *repository.SessionRepository
	snaps    *cache.SnapshotCache
	log      zerolog.Logger
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(
	store *session.Store,
	papers *repository.PaperRepository,
	sessions *repository.SessionRepository,
	snaps *cache.SnapshotCache,
	log zerolog.Logger,
) *SessionHandler {
	return &SessionHandler{
		store:    store,
		papers:   papers,
		sessions: sessions,
		snaps:    snaps,
		log:      log.With().Str("component", "session_handler").Logger(),
	}
}

// Start godoc
// POST /api/papers/sessions
// Starts a timed attempt: allocates the session, loads and partitions the
// questions, and apportions section time limits.
func (h *SessionHandler) Start(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.StartSessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	paper, err := h.papers.GetByID(c.Request.Context(), req.PaperID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrPaperNotFound)
		return
	}

	snap, err := h.store.Start(c.Request.Context(), session.StartConfig{
		UserID:              claims.UserID,
		PaperID:             paper.ID,
		PaperName:           paper.Name,
		Variant:             paper.Variant,
		DisplayName:         paper.DisplayName,
		TimeLimitMinutes:    req.TimeLimitMinutes,
		QuestionStart:       req.QuestionStart,
		QuestionEnd:         req.QuestionEnd,
		Sections:            req.Sections,
		SectionCountdownSec: req.SectionCountdownSec,
	})
	if err != nil {
		if errors.Is(err, session.ErrInvalidRange) {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidRange)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	snap, err = h.store.LoadQuestions(c.Request.Context(), snap.ID)
	if err != nil {
		h.log.Error().Err(err).Str("session_id", snap.ID.String()).Msg("Load questions failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if len(snap.Questions) == 0 {
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrPaperHasNoQuestions)
		return
	}

	snap, err = h.store.CalculateSectionTimeLimits(snap.ID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, redactAnswerKey(snap))
}

// redactAnswerKey blanks each question's correct choice while the attempt is
// still running. The full questions come back once ended_at is set, when
// marking begins.
func redactAnswerKey(snap *session.Snapshot) *session.Snapshot {
	if snap.EndedAt != nil {
		return snap
	}
	out := *snap
	out.Questions = make([]model.Question, len(snap.Questions))
	for i, q := range snap.Questions {
		q.CorrectChoice = ""
		out.Questions[i] = q
	}
	return &out
}

// Patch godoc
// PATCH /api/papers/sessions
// Applies a partial update to a running session. Per-slot fields require
// index; ended_at finishes the session.
func (h *SessionHandler) Patch(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.PatchSessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	snap, err := h.store.Get(req.ID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrSessionNotFound)
		return
	}
	if snap.UserID != claims.UserID {
		response.Fail(c, http.StatusForbidden, response.ErrForbidden)
		return
	}
	if snap.EndedAt != nil && req.EndedAt == nil {
		response.Fail(c, http.StatusConflict, response.ErrSessionEnded)
		return
	}

	snap, err = h.applyPatch(c, &req)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrSessionNotFound)
			return
		}
		h.log.Error().Err(err).Str("session_id", req.ID.String()).Msg("Patch failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, redactAnswerKey(snap))
}

// applyPatch dispatches every present field to its store mutator. Per-slot
// fields without an index are rejected upstream by hasSlotFields.
func (h *SessionHandler) applyPatch(c *gin.Context, req *model.PatchSessionRequest) (*session.Snapshot, error) {
	id := req.ID
	var snap *session.Snapshot
	var err error

	apply := func(fn func() (*session.Snapshot, error)) {
		if err != nil {
			return
		}
		snap, err = fn()
	}

	if req.Index != nil {
		i := *req.Index
		if req.Choice != nil {
			// An empty string clears the choice back to unanswered.
			choice := req.Choice
			if *choice == "" {
				choice = nil
			}
			apply(func() (*session.Snapshot, error) { return h.store.SetChoice(id, i, choice) })
		}
		if req.AnswerNotes != nil {
			apply(func() (*session.Snapshot, error) { return h.store.SetAnswerNotes(id, i, *req.AnswerNotes) })
		}
		if req.MarkedCorrect != nil {
			apply(func() (*session.Snapshot, error) { return h.store.SetMarkedCorrect(id, i, *req.MarkedCorrect) })
		}
		if req.Explanation != nil {
			apply(func() (*session.Snapshot, error) { return h.store.SetExplanation(id, i, *req.Explanation) })
		}
		if req.AddToDrill != nil {
			apply(func() (*session.Snapshot, error) { return h.store.SetDrillFlag(id, i, *req.AddToDrill) })
		}
		if req.Correct != nil {
			var flag *bool
			switch *req.Correct {
			case "correct":
				v := true
				flag = &v
			case "incorrect":
				v := false
				flag = &v
			}
			apply(func() (*session.Snapshot, error) { return h.store.SetCorrectFlag(id, i, flag) })
		}
		if req.Guessed != nil {
			apply(func() (*session.Snapshot, error) { return h.store.SetGuessedFlag(id, i, *req.Guessed) })
		}
		if req.Review != nil {
			apply(func() (*session.Snapshot, error) { return h.store.SetReviewFlag(id, i, *req.Review) })
		}
		if req.MistakeTag != nil {
			apply(func() (*session.Snapshot, error) { return h.store.SetMistakeTag(id, i, *req.MistakeTag) })
		}
	}

	if req.Notes != nil {
		apply(func() (*session.Snapshot, error) { return h.store.SetNotes(id, *req.Notes) })
	}
	if req.Deadline != nil {
		apply(func() (*session.Snapshot, error) { return h.store.SetDeadline(id, *req.Deadline) })
	}
	if req.Navigate != nil {
		apply(func() (*session.Snapshot, error) { return h.store.NavigateTo(id, *req.Navigate) })
	}
	if req.SectionIndex != nil {
		apply(func() (*session.Snapshot, error) { return h.store.SetCurrentSection(id, *req.SectionIndex) })
	}
	if req.Paused != nil {
		if *req.Paused {
			apply(func() (*session.Snapshot, error) { return h.store.Pause(id) })
		} else {
			apply(func() (*session.Snapshot, error) { return h.store.Resume(id) })
		}
	}
	if req.EndedAt != nil {
		apply(func() (*session.Snapshot, error) { return h.store.End(c.Request.Context(), id, *req.EndedAt) })
	}

	if err != nil {
		return nil, err
	}
	if snap == nil {
		// Nothing to apply; return the current state.
		return h.store.Get(id)
	}
	return snap, nil
}

// Get godoc
// GET /api/papers/sessions?id=...
// Returns a session, recovering it from the snapshot cache or the database
// when the in-memory store no longer has it.
func (h *SessionHandler) Get(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	id, err := uuid.Parse(c.Query("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	snap, err := h.loadSession(c, id)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrSessionNotFound)
			return
		}
		h.log.Error().Err(err).Str("session_id", id.String()).Msg("Session load failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrSessionLoadFailed)
		return
	}
	if snap.UserID != claims.UserID {
		response.Fail(c, http.StatusForbidden, response.ErrForbidden)
		return
	}

	response.Success(c, http.StatusOK, redactAnswerKey(snap))
}

// loadSession resolves a session live store first, then the snapshot cache,
// then the database record. A snapshot recovered from either fallback is
// restored into the live store so later patches hit memory.
func (h *SessionHandler) loadSession(c *gin.Context, id uuid.UUID) (*session.Snapshot, error) {
	if snap, err := h.store.Get(id); err == nil {
		return snap, nil
	}

	snap, err := h.snaps.Load(c.Request.Context(), id)
	if err == nil {
		h.store.Restore(snap)
		h.log.Info().Str("session_id", id.String()).Msg("Session restored from cache")
		return snap, nil
	}
	if !errors.Is(err, cache.ErrSnapshotNotFound) {
		h.log.Warn().Err(err).Str("session_id", id.String()).Msg("Snapshot cache load failed, trying database")
	}

	snap, err = h.sessions.GetByID(c.Request.Context(), id)
	if err != nil {
		return nil, session.ErrSessionNotFound
	}
	if snap.EndedAt == nil {
		h.store.Restore(snap)
		h.log.Info().Str("session_id", id.String()).Msg("Session restored from database")
	}
	return snap, nil
}

// Active godoc
// GET /api/papers/sessions/active
// Resolves the user's in-progress session for resume after a reload.
func (h *SessionHandler) Active(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	id, err := h.snaps.ActiveSessionID(c.Request.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, cache.ErrSnapshotNotFound) {
			response.Success(c, http.StatusOK, nil)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	snap, err := h.loadSession(c, id)
	if err != nil {
		response.Success(c, http.StatusOK, nil)
		return
	}
	if snap.UserID != claims.UserID || snap.EndedAt != nil {
		response.Success(c, http.StatusOK, nil)
		return
	}

	response.Success(c, http.StatusOK, redactAnswerKey(snap))
}

// History godoc
// GET /api/papers/sessions/history?page=1&per_page=20
func (h *SessionHandler) History(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	items, total, err := h.sessions.ListByUserPaginated(c.Request.Context(), claims.UserID, perPage, (page-1)*perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	totalPages := (total + perPage - 1) / perPage
	response.SuccessWithPagination(c, http.StatusOK, items, &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: totalPages,
	})
}
