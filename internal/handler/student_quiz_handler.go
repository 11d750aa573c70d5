package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/unilearn/quizcore-backend/internal/middleware"
	"github.com/unilearn/quizcore-backend/internal/model"
	"github.com/unilearn/quizcore-backend/internal/response"
	"github.com/unilearn/quizcore-backend/internal/service"
	"github.com/unilearn/quizcore-backend/internal/validator"
)

// StudentQuizHandler handles the student-facing quiz and attempt endpoints.
type StudentQuizHandler struct {
	quizService    *service.QuizService
	attemptService *service.AttemptService
}

// NewStudentQuizHandler creates a new StudentQuizHandler.
func NewStudentQuizHandler(quizService *service.QuizService, attemptService *service.AttemptService) *StudentQuizHandler {
	return &StudentQuizHandler{
		quizService:    quizService,
		attemptService: attemptService,
	}
}

// failEligibility maps an eligibility denial onto its HTTP response. Each
// denial carries a user-facing message more specific than the generic code
// text, so it is passed through verbatim.
func failEligibility(c *gin.Context, e *service.EligibilityError) {
	var code response.ErrCode
	switch e.Reason {
	case service.DenyNotStarted:
		code = response.ErrQuizNotStarted
	case service.DenyEnded:
		code = response.ErrQuizEnded
	case service.DenyQuotaExceeded:
		code = response.ErrQuotaExceeded
	default:
		code = response.ErrQuizNotAvailable
	}
	status := http.StatusForbidden
	if e.Reason == service.DenyNotAvailable {
		status = http.StatusNotFound
	}
	response.FailWithMessage(c, status, code, e.Message)
}

// failAttempt maps attempt lifecycle domain errors onto HTTP responses.
func failAttempt(c *gin.Context, err error) {
	var denied *service.EligibilityError
	switch {
	case errors.As(err, &denied):
		failEligibility(c, denied)
	case errors.Is(err, service.ErrAttemptNotFound), errors.Is(err, service.ErrAnswerNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrNotAttemptOwner):
		response.Fail(c, http.StatusForbidden, response.ErrForbidden)
	case errors.Is(err, service.ErrAttemptClosed):
		response.Fail(c, http.StatusConflict, response.ErrAttemptClosed)
	case errors.Is(err, service.ErrAlreadySubmitted):
		response.Fail(c, http.StatusConflict, response.ErrAlreadySubmitted)
	case errors.Is(err, service.ErrNotSubmitted):
		response.Fail(c, http.StatusConflict, response.ErrNotSubmitted)
	case errors.Is(err, service.ErrOptionNotInQuiz):
		response.Fail(c, http.StatusBadRequest, response.ErrOptionNotInQuiz)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

// ListCourseQuizzes godoc
// GET /api/v1/student/courses/:course_id/quizzes
// Lists the published quizzes of a course.
func (h *StudentQuizHandler) ListCourseQuizzes(c *gin.Context) {
	courseID, err := strconv.Atoi(c.Param("course_id"))
	if err != nil || courseID < 1 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	quizzes, err := h.quizService.ListPublishedByCourse(c.Request.Context(), courseID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if quizzes == nil {
		quizzes = []model.Quiz{}
	}

	response.Success(c, http.StatusOK, gin.H{"quizzes": quizzes})
}

// GetQuizPaper godoc
// GET /api/v1/student/quizzes/:quiz_id/paper
// Returns the student-facing question paper, without correct flags.
func (h *StudentQuizHandler) GetQuizPaper(c *gin.Context) {
	quizID, ok := quizIDParam(c)
	if !ok {
		return
	}

	paper, err := h.quizService.GetPaper(c.Request.Context(), quizID)
	if err != nil {
		if errors.Is(err, service.ErrQuizNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"paper": paper})
}

// StartAttempt godoc
// POST /api/v1/student/quizzes/:quiz_id/attempts
// Starts a new attempt, or returns the already-open one. Idempotent.
func (h *StudentQuizHandler) StartAttempt(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	quizID, ok := quizIDParam(c)
	if !ok {
		return
	}

	attempt, err := h.attemptService.StartOrResume(c.Request.Context(), quizID, claims.UserID)
	if err != nil {
		failAttempt(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attempt": attempt})
}

// SaveAnswer godoc
// PUT /api/v1/student/attempts/:attempt_id/answers
// Saves or clears the pick for one question. Last write wins.
func (h *StudentQuizHandler) SaveAnswer(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	attemptID, ok := attemptIDParam(c)
	if !ok {
		return
	}

	var req model.SaveAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.attemptService.SaveAnswer(c.Request.Context(), attemptID, claims.UserID, &req); err != nil {
		failAttempt(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"saved": true})
}

// SubmitAttempt godoc
// POST /api/v1/student/attempts/:attempt_id/submit
// Closes the attempt and returns the auto-graded score.
func (h *StudentQuizHandler) SubmitAttempt(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	attemptID, ok := attemptIDParam(c)
	if !ok {
		return
	}

	result, err := h.attemptService.Submit(c.Request.Context(), attemptID, claims.UserID)
	if err != nil {
		failAttempt(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"result": result})
}

// GetAttemptState godoc
// GET /api/v1/student/attempts/:attempt_id/state
// Returns saved answers and the advisory timer for resuming an open attempt.
func (h *StudentQuizHandler) GetAttemptState(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	attemptID, ok := attemptIDParam(c)
	if !ok {
		return
	}

	state, err := h.attemptService.GetState(c.Request.Context(), attemptID, claims.UserID)
	if err != nil {
		failAttempt(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"state": state})
}

// ListMyAttempts godoc
// GET /api/v1/student/attempts
// Lists the student's submitted attempts, newest first.
func (h *StudentQuizHandler) ListMyAttempts(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	attempts, err := h.attemptService.ListByStudent(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attempts": attempts})
}

// GetAttemptResult godoc
// GET /api/v1/student/attempts/:attempt_id/result
// Returns the graded view of the student's own submitted attempt.
func (h *StudentQuizHandler) GetAttemptResult(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	attemptID, ok := attemptIDParam(c)
	if !ok {
		return
	}

	result, err := h.attemptService.GetResult(c.Request.Context(), attemptID, claims.UserID)
	if err != nil {
		failAttempt(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"result": result})
}

func attemptIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("attempt_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}
