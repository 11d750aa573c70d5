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

// QuizHandler handles instructor quiz management endpoints.
type QuizHandler struct {
	quizService *service.QuizService
}

// NewQuizHandler creates a new QuizHandler.
func NewQuizHandler(quizService *service.QuizService) *QuizHandler {
	return &QuizHandler{quizService: quizService}
}

// instructorID resolves the acting instructor from claims. Admins act with
// id 0, which bypasses ownership checks downstream.
func instructorID(c *gin.Context) (int, bool) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return 0, false
	}
	if claims.IsAdmin {
		return 0, true
	}
	return claims.UserID, true
}

func quizIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("quiz_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}

// failAuthoring maps quiz authoring domain errors onto HTTP responses.
func failAuthoring(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrQuizNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrNotQuizOwner):
		response.Fail(c, http.StatusForbidden, response.ErrNotQuizOwner)
	case errors.Is(err, service.ErrNoQuestions):
		response.Fail(c, http.StatusBadRequest, response.ErrNoQuestions)
	case errors.Is(err, service.ErrTooFewOptions):
		response.Fail(c, http.StatusBadRequest, response.ErrTooFewOptions)
	case errors.Is(err, service.ErrCorrectOptionCount):
		response.Fail(c, http.StatusBadRequest, response.ErrCorrectOptionCount)
	case errors.Is(err, service.ErrMissingCourse):
		response.Fail(c, http.StatusBadRequest, response.ErrMissingCourse)
	case errors.Is(err, service.ErrQuizPublished):
		response.Fail(c, http.StatusConflict, response.ErrQuizPublished)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

// ListQuizzes godoc
// GET /api/v1/instructor/quizzes
// Lists quizzes with pagination. Admins see all; instructors only their own.
func (h *QuizHandler) ListQuizzes(c *gin.Context) {
	ownerID, ok := instructorID(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))

	quizzes, pagination, err := h.quizService.ListByInstructor(c.Request.Context(), ownerID, page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"quizzes": quizzes}, pagination)
}

// CreateQuiz godoc
// POST /api/v1/instructor/quizzes
// Creates an unpublished quiz with its full question tree.
func (h *QuizHandler) CreateQuiz(c *gin.Context) {
	ownerID, ok := instructorID(c)
	if !ok {
		return
	}
	claims := middleware.GetClaims(c)
	if ownerID == 0 {
		// Admin-created quizzes are still owned by the admin's account.
		ownerID = claims.UserID
	}

	var req model.QuizDraft
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	quiz, err := h.quizService.Create(c.Request.Context(), ownerID, &req)
	if err != nil {
		failAuthoring(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"quiz": quiz})
}

// GetQuiz godoc
// GET /api/v1/instructor/quizzes/:quiz_id
// Retrieves a quiz with its full question tree, correct flags included.
func (h *QuizHandler) GetQuiz(c *gin.Context) {
	ownerID, ok := instructorID(c)
	if !ok {
		return
	}
	quizID, ok := quizIDParam(c)
	if !ok {
		return
	}

	quiz, err := h.quizService.GetWithQuestions(c.Request.Context(), quizID)
	if err != nil {
		failAuthoring(c, err)
		return
	}
	if ownerID != 0 && quiz.InstructorID != ownerID {
		response.Fail(c, http.StatusForbidden, response.ErrNotQuizOwner)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"quiz": quiz})
}

// UpdateQuiz godoc
// PUT /api/v1/instructor/quizzes/:quiz_id
// Replaces a quiz's metadata and entire question tree atomically.
func (h *QuizHandler) UpdateQuiz(c *gin.Context) {
	ownerID, ok := instructorID(c)
	if !ok {
		return
	}
	quizID, ok := quizIDParam(c)
	if !ok {
		return
	}

	var req model.QuizDraft
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.quizService.Update(c.Request.Context(), quizID, ownerID, &req); err != nil {
		failAuthoring(c, err)
		return
	}

	quiz, err := h.quizService.GetWithQuestions(c.Request.Context(), quizID)
	if err != nil {
		failAuthoring(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"quiz": quiz})
}

// DeleteQuiz godoc
// DELETE /api/v1/instructor/quizzes/:quiz_id
// Soft-deletes a quiz. Attempt history is preserved.
func (h *QuizHandler) DeleteQuiz(c *gin.Context) {
	ownerID, ok := instructorID(c)
	if !ok {
		return
	}
	quizID, ok := quizIDParam(c)
	if !ok {
		return
	}

	if err := h.quizService.Delete(c.Request.Context(), quizID, ownerID); err != nil {
		failAuthoring(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// PublishQuiz godoc
// POST /api/v1/instructor/quizzes/:quiz_id/publish
// Publishes a quiz to its course and warms the paper cache.
func (h *QuizHandler) PublishQuiz(c *gin.Context) {
	ownerID, ok := instructorID(c)
	if !ok {
		return
	}
	quizID, ok := quizIDParam(c)
	if !ok {
		return
	}

	var req model.PublishQuizRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.quizService.Publish(c.Request.Context(), quizID, ownerID, req.CourseID); err != nil {
		failAuthoring(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"published": true})
}

// UnpublishQuiz godoc
// POST /api/v1/instructor/quizzes/:quiz_id/unpublish
// Hides a quiz from students. In-progress attempts are unaffected.
func (h *QuizHandler) UnpublishQuiz(c *gin.Context) {
	ownerID, ok := instructorID(c)
	if !ok {
		return
	}
	quizID, ok := quizIDParam(c)
	if !ok {
		return
	}

	if err := h.quizService.Unpublish(c.Request.Context(), quizID, ownerID); err != nil {
		failAuthoring(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"published": false})
}

// AddQuestion godoc
// POST /api/v1/instructor/quizzes/:quiz_id/questions
// Appends one question to the quiz.
func (h *QuizHandler) AddQuestion(c *gin.Context) {
	ownerID, ok := instructorID(c)
	if !ok {
		return
	}
	quizID, ok := quizIDParam(c)
	if !ok {
		return
	}

	var req model.QuestionDraft
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	question, err := h.quizService.AddQuestion(c.Request.Context(), quizID, ownerID, &req)
	if err != nil {
		failAuthoring(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"question": question})
}

// UpdateQuestion godoc
// PUT /api/v1/instructor/quizzes/:quiz_id/questions/:question_id
// Rewrites one question's text, points and options.
func (h *QuizHandler) UpdateQuestion(c *gin.Context) {
	ownerID, ok := instructorID(c)
	if !ok {
		return
	}
	quizID, ok := quizIDParam(c)
	if !ok {
		return
	}
	questionID, err := uuid.Parse(c.Param("question_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.QuestionDraft
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.quizService.UpdateQuestion(c.Request.Context(), quizID, questionID, ownerID, &req); err != nil {
		failAuthoring(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"updated": true})
}

// DeleteQuestion godoc
// DELETE /api/v1/instructor/quizzes/:quiz_id/questions/:question_id
func (h *QuizHandler) DeleteQuestion(c *gin.Context) {
	ownerID, ok := instructorID(c)
	if !ok {
		return
	}
	quizID, ok := quizIDParam(c)
	if !ok {
		return
	}
	questionID, err := uuid.Parse(c.Param("question_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.quizService.DeleteQuestion(c.Request.Context(), quizID, questionID, ownerID); err != nil {
		failAuthoring(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// ReorderQuestions godoc
// POST /api/v1/instructor/quizzes/:quiz_id/questions/reorder
// Renumbers the quiz's questions following the posted id order.
func (h *QuizHandler) ReorderQuestions(c *gin.Context) {
	ownerID, ok := instructorID(c)
	if !ok {
		return
	}
	quizID, ok := quizIDParam(c)
	if !ok {
		return
	}

	var req model.ReorderQuestionsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.quizService.ReorderQuestions(c.Request.Context(), quizID, ownerID, req.QuestionIDs); err != nil {
		failAuthoring(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"reordered": true})
}
