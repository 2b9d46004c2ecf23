package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-practice/internal/exam"
	"github.com/stemsi/exstem-practice/internal/middleware"
	"github.com/stemsi/exstem-practice/internal/model"
	"github.com/stemsi/exstem-practice/internal/response"
	"github.com/stemsi/exstem-practice/internal/service"
	"github.com/stemsi/exstem-practice/internal/validator"
)

// PracticeHandler handles practice session endpoints.
type PracticeHandler struct {
	practice *service.PracticeService
	log      zerolog.Logger
}

// NewPracticeHandler creates a new PracticeHandler.
func NewPracticeHandler(practice *service.PracticeService, log zerolog.Logger) *PracticeHandler {
	return &PracticeHandler{
		practice: practice,
		log:      log.With().Str("component", "practice_handler").Logger(),
	}
}

// ListCategories godoc
// GET /api/v1/practice/categories
// Lists practice categories with the number of published questions in each.
func (h *PracticeHandler) ListCategories(c *gin.Context) {
	categories, err := h.practice.Categories(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("List categories failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"categories": categories})
}

// StartSession godoc
// POST /api/v1/practice/sessions
// Starts a new shuffled session, replacing any session the user holds.
func (h *PracticeHandler) StartSession(c *gin.Context) {
	owner := middleware.OwnerID(c)

	var req model.StartPracticeRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	st, err := h.practice.Start(c.Request.Context(), owner, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"session": service.NewStateView(st)})
}

// GetSession godoc
// GET /api/v1/practice/session
// Returns the user's session, resuming a persisted one.
func (h *PracticeHandler) GetSession(c *gin.Context) {
	st, err := h.practice.Current(c.Request.Context(), middleware.OwnerID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": service.NewStateView(st)})
}

// GetPending godoc
// GET /api/v1/practice/session/pending?category=...
// Summarizes a resumable session without activating it.
func (h *PracticeHandler) GetPending(c *gin.Context) {
	category := model.QuestionCategory(c.Query("category"))
	if category != "" && !category.Valid() {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation,
			map[string]string{"category": "category must be a known practice category"})
		return
	}

	summary, err := h.practice.Pending(c.Request.Context(), middleware.OwnerID(c), category)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"pending": summary})
}

// Dispatch godoc
// POST /api/v1/practice/session/actions
// Applies one action (answer, navigate, mark, check, hint, complete...).
func (h *PracticeHandler) Dispatch(c *gin.Context) {
	var req model.PracticeActionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	st, err := h.practice.Dispatch(c.Request.Context(), middleware.OwnerID(c), req)
	if err != nil {
		h.fail(c, err)
		return
	}

	data := gin.H{"session": service.NewStateView(st)}
	if !st.Session.InProgress() {
		data["result"] = exam.CalculateResult(st.Session, st.Questions)
	}
	response.Success(c, http.StatusOK, data)
}

// GetResult godoc
// GET /api/v1/practice/session/result
// Scores the session as it stands.
func (h *PracticeHandler) GetResult(c *gin.Context) {
	result, st, err := h.practice.Result(c.Request.Context(), middleware.OwnerID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"result":         result,
		"status":         st.Session.Status,
		"total_time_str": exam.FormatDuration(result.TotalTime),
	})
}

// GetReview godoc
// GET /api/v1/practice/session/review?filter=all|incorrect|marked
// Lists a completed session's questions with the user's answers.
func (h *PracticeHandler) GetReview(c *gin.Context) {
	filter := model.ReviewFilter(c.DefaultQuery("filter", string(model.ReviewAll)))
	items, err := h.practice.Review(c.Request.Context(), middleware.OwnerID(c), filter)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"filter": filter, "items": items})
}

// DiscardSession godoc
// DELETE /api/v1/practice/session
// Drops the user's session and its persisted slot.
func (h *PracticeHandler) DiscardSession(c *gin.Context) {
	h.practice.Discard(c.Request.Context(), middleware.OwnerID(c))
	response.Success(c, http.StatusOK, gin.H{"discarded": true})
}

// ListHistory godoc
// GET /api/v1/practice/history?page=1&per_page=10
// Lists the user's completed sessions, most recent first.
func (h *PracticeHandler) ListHistory(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))
	page = max(page, 1)
	perPage = min(max(perPage, 1), 100)

	records, total, err := h.practice.History(c.Request.Context(), middleware.OwnerID(c), page, perPage)
	if err != nil {
		h.log.Error().Err(err).Msg("List history failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"results": records},
		response.NewPagination(page, perPage, total))
}

// fail maps service errors to API errors.
func (h *PracticeHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNoSession):
		response.Fail(c, http.StatusNotFound, response.ErrNoSession)
	case errors.Is(err, exam.ErrEmptyPool):
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrNoQuestions)
	case errors.Is(err, service.ErrInvalidAction):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidAction)
	case errors.Is(err, service.ErrInvalidFilter):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidFilter)
	case errors.Is(err, service.ErrSessionInProgress):
		response.Fail(c, http.StatusConflict, response.ErrSessionInProgress)
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("Practice request failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
