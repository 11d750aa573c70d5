package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/unilearn/quizcore-backend/internal/model"
	"github.com/unilearn/quizcore-backend/internal/response"
	"github.com/unilearn/quizcore-backend/internal/service"
	"github.com/unilearn/quizcore-backend/internal/validator"
)

// GradingHandler handles the instructor's result and manual grading endpoints.
type GradingHandler struct {
	quizService    *service.QuizService
	attemptService *service.AttemptService
}

// NewGradingHandler creates a new GradingHandler.
func NewGradingHandler(quizService *service.QuizService, attemptService *service.AttemptService) *GradingHandler {
	return &GradingHandler{
		quizService:    quizService,
		attemptService: attemptService,
	}
}

// ownQuizOfAttempt verifies the acting instructor owns the quiz behind an
// attempt. Admins (ownerID 0) bypass the check.
func (h *GradingHandler) ownQuizOfAttempt(c *gin.Context, attemptID uuid.UUID, ownerID int) bool {
	attempt, err := h.attemptService.GetAttempt(c.Request.Context(), attemptID)
	if err != nil {
		failAttempt(c, err)
		return false
	}
	if ownerID == 0 {
		return true
	}
	quiz, err := h.quizService.GetByID(c.Request.Context(), attempt.QuizID)
	if err != nil {
		failAuthoring(c, err)
		return false
	}
	if quiz.InstructorID != ownerID {
		response.Fail(c, http.StatusForbidden, response.ErrNotQuizOwner)
		return false
	}
	return true
}

// ListQuizAttempts godoc
// GET /api/v1/instructor/quizzes/:quiz_id/attempts
// Lists all submitted attempts on a quiz.
func (h *GradingHandler) ListQuizAttempts(c *gin.Context) {
	ownerID, ok := instructorID(c)
	if !ok {
		return
	}
	quizID, ok := quizIDParam(c)
	if !ok {
		return
	}

	quiz, err := h.quizService.GetByID(c.Request.Context(), quizID)
	if err != nil {
		failAuthoring(c, err)
		return
	}
	if ownerID != 0 && quiz.InstructorID != ownerID {
		response.Fail(c, http.StatusForbidden, response.ErrNotQuizOwner)
		return
	}

	attempts, err := h.attemptService.ListByQuiz(c.Request.Context(), quizID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attempts": attempts})
}

// GetAttemptResult godoc
// GET /api/v1/instructor/attempts/:attempt_id
// Returns the graded view of one attempt, answer rows included.
func (h *GradingHandler) GetAttemptResult(c *gin.Context) {
	ownerID, ok := instructorID(c)
	if !ok {
		return
	}
	attemptID, ok := attemptIDParam(c)
	if !ok {
		return
	}
	if !h.ownQuizOfAttempt(c, attemptID, ownerID) {
		return
	}

	result, err := h.attemptService.GetResult(c.Request.Context(), attemptID, 0)
	if err != nil {
		failAttempt(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"result": result})
}

// GradeAttempt godoc
// PUT /api/v1/instructor/attempts/:attempt_id/grade
// Records a manual override score and comment on a submitted attempt.
// The auto-graded objective score is never modified.
func (h *GradingHandler) GradeAttempt(c *gin.Context) {
	ownerID, ok := instructorID(c)
	if !ok {
		return
	}
	attemptID, ok := attemptIDParam(c)
	if !ok {
		return
	}

	var req model.ManualGradeAttemptRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if !h.ownQuizOfAttempt(c, attemptID, ownerID) {
		return
	}

	if err := h.attemptService.ManualGradeAttempt(c.Request.Context(), attemptID, &req); err != nil {
		failAttempt(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"graded": true})
}

// GradeAnswer godoc
// PUT /api/v1/instructor/attempts/:attempt_id/answers/:answer_id/grade
// Records a manual override on one answer row.
func (h *GradingHandler) GradeAnswer(c *gin.Context) {
	ownerID, ok := instructorID(c)
	if !ok {
		return
	}
	attemptID, ok := attemptIDParam(c)
	if !ok {
		return
	}
	answerID, err := uuid.Parse(c.Param("answer_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.ManualGradeAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if !h.ownQuizOfAttempt(c, attemptID, ownerID) {
		return
	}

	if err := h.attemptService.ManualGradeAnswer(c.Request.Context(), attemptID, answerID, &req); err != nil {
		if errors.Is(err, service.ErrAnswerNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		failAttempt(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"graded": true})
}
