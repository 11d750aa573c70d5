package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/unilearn/quizcore-backend/internal/config"
	"github.com/unilearn/quizcore-backend/internal/handler"
	"github.com/unilearn/quizcore-backend/internal/middleware"
	"github.com/unilearn/quizcore-backend/internal/response"
	"github.com/unilearn/quizcore-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Quiz        *handler.QuizHandler
	StudentQuiz *handler.StudentQuizHandler
	Grading     *handler.GradingHandler
	WS          *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// ─── 1. Student Group (JWT) ────────────────────────────────────────
	studentAPI := router.Group("/api/v1/student")
	studentAPI.Use(middleware.RequireStudentJWT(authService))
	{
		studentAPI.GET("/courses/:course_id/quizzes", handlers.StudentQuiz.ListCourseQuizzes)
		studentAPI.GET("/quizzes/:quiz_id/paper", handlers.StudentQuiz.GetQuizPaper)
		studentAPI.POST("/quizzes/:quiz_id/attempts", handlers.StudentQuiz.StartAttempt)
		studentAPI.GET("/attempts", handlers.StudentQuiz.ListMyAttempts)
		studentAPI.PUT("/attempts/:attempt_id/answers", handlers.StudentQuiz.SaveAnswer)
		studentAPI.POST("/attempts/:attempt_id/submit", handlers.StudentQuiz.SubmitAttempt)
		studentAPI.GET("/attempts/:attempt_id/state", handlers.StudentQuiz.GetAttemptState)
		studentAPI.GET("/attempts/:attempt_id/result", handlers.StudentQuiz.GetAttemptResult)
	}

	// ─── 2. WebSocket Group (Student WS Auth) ──────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireStudentWSAuth(authService))
	{
		ws.GET("/student/attempts/:attempt_id/timer", handlers.WS.AttemptTimerStream)
	}

	// ─── 3. Instructor Group (JWT) ─────────────────────────────────────
	instructorAPI := router.Group("/api/v1/instructor")
	instructorAPI.Use(middleware.RequireInstructorJWT(authService))
	{
		instructorAPI.GET("/quizzes", handlers.Quiz.ListQuizzes)
		instructorAPI.POST("/quizzes", handlers.Quiz.CreateQuiz)
		instructorAPI.GET("/quizzes/:quiz_id", handlers.Quiz.GetQuiz)
		instructorAPI.PUT("/quizzes/:quiz_id", handlers.Quiz.UpdateQuiz)
		instructorAPI.DELETE("/quizzes/:quiz_id", handlers.Quiz.DeleteQuiz)
		instructorAPI.POST("/quizzes/:quiz_id/publish", handlers.Quiz.PublishQuiz)
		instructorAPI.POST("/quizzes/:quiz_id/unpublish", handlers.Quiz.UnpublishQuiz)

		instructorAPI.POST("/quizzes/:quiz_id/questions", handlers.Quiz.AddQuestion)
		instructorAPI.POST("/quizzes/:quiz_id/questions/reorder", handlers.Quiz.ReorderQuestions)
		instructorAPI.PUT("/quizzes/:quiz_id/questions/:question_id", handlers.Quiz.UpdateQuestion)
		instructorAPI.DELETE("/quizzes/:quiz_id/questions/:question_id", handlers.Quiz.DeleteQuestion)

		instructorAPI.GET("/quizzes/:quiz_id/attempts", handlers.Grading.ListQuizAttempts)
		instructorAPI.GET("/attempts/:attempt_id", handlers.Grading.GetAttemptResult)
		instructorAPI.PUT("/attempts/:attempt_id/grade", handlers.Grading.GradeAttempt)
		instructorAPI.PUT("/attempts/:attempt_id/answers/:answer_id/grade", handlers.Grading.GradeAnswer)
	}

	return router
}
