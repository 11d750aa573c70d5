package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/unilearn/quizcore-backend/internal/config"
	"github.com/unilearn/quizcore-backend/internal/middleware"
	"github.com/unilearn/quizcore-backend/internal/service"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams the advisory countdown of an open attempt.
type WSHandler struct {
	rdb            *redis.Client
	quizService    *service.QuizService
	attemptService *service.AttemptService
	log            zerolog.Logger
	upgrader       websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(rdb *redis.Client, quizService *service.QuizService, attemptService *service.AttemptService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		rdb:            rdb,
		quizService:    quizService,
		attemptService: attemptService,
		log:            log.With().Str("component", "ws_handler").Logger(),
		upgrader:       buildUpgrader(allowedOrigins),
	}
}

// timerTick is one frame of the countdown stream.
type timerTick struct {
	RemainingSeconds int  `json:"remaining_seconds"`
	Expired          bool `json:"expired"`
}

// AttemptTimerStream godoc
// WS /ws/v1/student/attempts/:attempt_id/timer
// Streams remaining_seconds once per second until the advisory limit runs
// out or the client disconnects. The timer is informational only; the
// submission endpoint never rejects a late submit.
func (h *WSHandler) AttemptTimerStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	attemptID, err := uuid.Parse(c.Param("attempt_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid attempt ID"})
		return
	}

	attempt, err := h.attemptService.GetAttempt(c.Request.Context(), attemptID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "attempt not found"})
		return
	}
	if attempt.StudentID != claims.UserID {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	if attempt.Submitted() {
		c.JSON(http.StatusConflict, gin.H{"error": "attempt already submitted"})
		return
	}

	timeLimit := h.loadTimeLimit(c, attempt.QuizID)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().
		Int("student_id", claims.UserID).
		Str("attempt_id", attemptID.String()).
		Logger()
	wsLog.Info().Msg("Timer stream connected")

	// Drain the read side so client close frames are processed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		remaining := service.RemainingSeconds(attempt.StartedAt, timeLimit, time.Now())
		tick := timerTick{
			RemainingSeconds: remaining,
			Expired:          timeLimit > 0 && remaining == 0,
		}
		if err := conn.WriteJSON(tick); err != nil {
			wsLog.Debug().Msg("Timer stream closed")
			return
		}
		if tick.Expired {
			wsLog.Info().Msg("Attempt timer expired")
			return
		}

		select {
		case <-done:
			return
		case <-ticker.C:
		}
	}
}

// loadTimeLimit reads the quiz's time limit from Redis, falling back to
// PostgreSQL when the key is missing.
func (h *WSHandler) loadTimeLimit(c *gin.Context, quizID uuid.UUID) int {
	val, err := h.rdb.Get(c.Request.Context(), config.CacheKey.QuizTimeLimitKey(quizID.String())).Result()
	if err == nil {
		if limit, convErr := strconv.Atoi(val); convErr == nil {
			return limit
		}
	}

	quiz, err := h.quizService.GetByID(c.Request.Context(), quizID)
	if err != nil {
		h.log.Warn().Err(err).Str("quiz_id", quizID.String()).Msg("Time limit lookup failed, treating as untimed")
		return 0
	}
	return quiz.TimeLimitMinutes
}
