package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/unilearn/quizcore-backend/internal/config"
	"github.com/unilearn/quizcore-backend/internal/model"
	"github.com/unilearn/quizcore-backend/internal/repository"
)

// Domain errors.
var (
	ErrAttemptNotFound  = errors.New("attempt not found")
	ErrNotAttemptOwner  = errors.New("attempt belongs to another student")
	ErrAttemptClosed    = errors.New("attempt already submitted")
	ErrAlreadySubmitted = errors.New("attempt was already submitted")
	ErrNotSubmitted     = errors.New("attempt has not been submitted")
	ErrOptionNotInQuiz  = errors.New("selected option does not belong to this question")
	ErrAnswerNotFound   = errors.New("answer not found")
)

// AttemptResult is the graded view of one attempt: the attempt row plus its
// per-question answer rows.
type AttemptResult struct {
	Attempt *model.QuizAttempt    `json:"attempt"`
	Answers []model.StudentAnswer `json:"answers"`
}

// AttemptService owns the student attempt lifecycle: start-or-resume, answer
// saving, submission with auto-grading, and the instructor's manual grading
// overrides.
type AttemptService struct {
	pool         *pgxpool.Pool
	quizRepo     *repository.QuizRepository
	questionRepo *repository.QuestionRepository
	attemptRepo  *repository.AttemptRepository
	answerRepo   *repository.AnswerRepository
	rdb          *redis.Client
	log          zerolog.Logger
}

// NewAttemptService creates a new AttemptService.
func NewAttemptService(
	pool *pgxpool.Pool,
	quizRepo *repository.QuizRepository,
	questionRepo *repository.QuestionRepository,
	attemptRepo *repository.AttemptRepository,
	answerRepo *repository.AnswerRepository,
	rdb *redis.Client,
	log zerolog.Logger,
) *AttemptService {
	return &AttemptService{
		pool:         pool,
		quizRepo:     quizRepo,
		questionRepo: questionRepo,
		attemptRepo:  attemptRepo,
		answerRepo:   answerRepo,
		rdb:          rdb,
		log:          log.With().Str("component", "attempt_service").Logger(),
	}
}

// StartOrResume returns the student's open attempt for a quiz, creating one
// if none exists. Idempotent: retries and double-clicks land on the same
// attempt with its original StartedAt. Eligibility (published, window,
// quota) is only checked when a new attempt would be created; an already
// open attempt is always resumable.
func (s *AttemptService) StartOrResume(ctx context.Context, quizID uuid.UUID, studentID int) (*model.QuizAttempt, error) {
	open, err := s.attemptRepo.GetOpen(ctx, quizID, studentID)
	if err == nil {
		return open, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get open attempt: %w", err)
	}

	quiz, err := s.quizRepo.GetByID(ctx, quizID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &EligibilityError{
				Reason:  DenyNotAvailable,
				Message: "This quiz is not currently available.",
			}
		}
		return nil, fmt.Errorf("get quiz: %w", err)
	}

	submitted, err := s.attemptRepo.CountSubmitted(ctx, quizID, studentID)
	if err != nil {
		return nil, fmt.Errorf("count attempts: %w", err)
	}
	if denied := CanStartAttempt(quiz, submitted, time.Now()); denied != nil {
		return nil, denied
	}

	attempt := &model.QuizAttempt{QuizID: quizID, StudentID: studentID}
	if err := s.attemptRepo.Create(ctx, attempt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Lost the insert race against a concurrent start; the
			// winner's open attempt is the canonical one.
			return s.attemptRepo.GetOpen(ctx, quizID, studentID)
		}
		return nil, fmt.Errorf("create attempt: %w", err)
	}

	s.cacheAttemptStart(ctx, attempt)
	s.log.Info().
		Str("attempt_id", attempt.ID.String()).
		Str("quiz_id", quizID.String()).
		Int("student_id", studentID).
		Msg("Attempt started")
	return attempt, nil
}

// SaveAnswer records or clears a student's pick for one question on an open
// attempt. Last write wins.
func (s *AttemptService) SaveAnswer(ctx context.Context, attemptID uuid.UUID, studentID int, req *model.SaveAnswerRequest) error {
	attempt, err := s.getOwnedAttempt(ctx, attemptID, studentID)
	if err != nil {
		return err
	}
	if attempt.Submitted() {
		return ErrAttemptClosed
	}

	question, err := s.questionRepo.GetByID(ctx, req.QuestionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrOptionNotInQuiz
		}
		return fmt.Errorf("get question: %w", err)
	}
	if question.QuizID != attempt.QuizID {
		return ErrOptionNotInQuiz
	}
	if req.SelectedOptionID != nil {
		found := false
		for _, o := range question.Options {
			if o.ID == *req.SelectedOptionID {
				found = true
				break
			}
		}
		if !found {
			return ErrOptionNotInQuiz
		}
	}

	return s.answerRepo.Upsert(ctx, attemptID, req.QuestionID, req.SelectedOptionID)
}

// Submit closes an attempt, auto-grades it and persists the grade
// atomically. First submission wins; the advisory time limit is not enforced
// here, so a late submit after the timer ran out still grades normally.
func (s *AttemptService) Submit(ctx context.Context, attemptID uuid.UUID, studentID int) (*model.SubmitResult, error) {
	attempt, err := s.getOwnedAttempt(ctx, attemptID, studentID)
	if err != nil {
		return nil, err
	}
	if attempt.Submitted() {
		return nil, ErrAlreadySubmitted
	}

	questions, err := s.questionRepo.ListByQuiz(ctx, attempt.QuizID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	answers, err := s.answerRepo.ListByAttempt(ctx, attemptID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}

	grade := autoGrade(questions, answers)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	submittedAt := time.Now()
	if err := s.attemptRepo.SubmitTx(ctx, tx, attemptID, submittedAt,
		grade.TotalScore, grade.MaxScore, grade.ScorePercentage); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAlreadySubmitted
		}
		return nil, fmt.Errorf("submit attempt: %w", err)
	}
	if err := s.answerRepo.ApplyGradesTx(ctx, tx, attemptID, grade.Answers); err != nil {
		return nil, fmt.Errorf("apply grades: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	s.clearAttemptStart(ctx, attempt)
	s.log.Info().
		Str("attempt_id", attemptID.String()).
		Int("total_score", grade.TotalScore).
		Int("max_score", grade.MaxScore).
		Msg("Attempt submitted and graded")

	return &model.SubmitResult{
		AttemptID:       attemptID,
		TotalScore:      grade.TotalScore,
		MaxScore:        grade.MaxScore,
		ScorePercentage: grade.ScorePercentage,
	}, nil
}

// GetState returns what a student needs to resume an open attempt after a
// reload: saved picks, the advisory remaining time and the attempts left.
func (s *AttemptService) GetState(ctx context.Context, attemptID uuid.UUID, studentID int) (*model.AttemptState, error) {
	attempt, err := s.getOwnedAttempt(ctx, attemptID, studentID)
	if err != nil {
		return nil, err
	}
	if attempt.Submitted() {
		return nil, ErrAttemptClosed
	}

	quiz, err := s.quizRepo.GetByID(ctx, attempt.QuizID)
	if err != nil {
		return nil, fmt.Errorf("get quiz: %w", err)
	}
	answers, err := s.answerRepo.ListByAttempt(ctx, attemptID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}

	saved := make(map[uuid.UUID]*uuid.UUID, len(answers))
	for _, a := range answers {
		saved[a.QuestionID] = a.SelectedOptionID
	}

	submitted, err := s.attemptRepo.CountSubmitted(ctx, attempt.QuizID, studentID)
	if err != nil {
		return nil, fmt.Errorf("count attempts: %w", err)
	}
	remaining := -1
	if quiz.MaxAttempts > 0 {
		remaining = quiz.MaxAttempts - submitted
		if remaining < 0 {
			remaining = 0
		}
	}

	return &model.AttemptState{
		AttemptID:         attempt.ID,
		QuizID:            attempt.QuizID,
		StartedAt:         attempt.StartedAt,
		SavedAnswers:      saved,
		RemainingSeconds:  RemainingSeconds(attempt.StartedAt, quiz.TimeLimitMinutes, time.Now()),
		TimeLimitMinutes:  quiz.TimeLimitMinutes,
		RemainingAttempts: remaining,
	}, nil
}

// RemainingSeconds computes the advisory countdown for an attempt, floored
// at zero. Returns -1 for untimed quizzes.
func RemainingSeconds(startedAt time.Time, timeLimitMinutes int, now time.Time) int {
	if timeLimitMinutes <= 0 {
		return -1
	}
	deadline := startedAt.Add(time.Duration(timeLimitMinutes) * time.Minute)
	left := int(deadline.Sub(now).Seconds())
	if left < 0 {
		return 0
	}
	return left
}

// GetResult returns the graded view of a submitted attempt. Students can
// only see their own; pass studentID=0 for the instructor path, which has
// already verified quiz ownership.
func (s *AttemptService) GetResult(ctx context.Context, attemptID uuid.UUID, studentID int) (*AttemptResult, error) {
	attempt, err := s.attemptRepo.GetByID(ctx, attemptID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAttemptNotFound
		}
		return nil, err
	}
	if studentID != 0 && attempt.StudentID != studentID {
		return nil, ErrNotAttemptOwner
	}
	if !attempt.Submitted() {
		return nil, ErrNotSubmitted
	}

	answers, err := s.answerRepo.ListByAttempt(ctx, attemptID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	if answers == nil {
		answers = []model.StudentAnswer{}
	}
	return &AttemptResult{Attempt: attempt, Answers: answers}, nil
}

// ListByQuiz retrieves all submitted attempts on a quiz for its instructor.
func (s *AttemptService) ListByQuiz(ctx context.Context, quizID uuid.UUID) ([]model.QuizAttempt, error) {
	attempts, err := s.attemptRepo.ListByQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if attempts == nil {
		attempts = []model.QuizAttempt{}
	}
	return attempts, nil
}

// ListByStudent retrieves a student's own submitted attempts.
func (s *AttemptService) ListByStudent(ctx context.Context, studentID int) ([]model.QuizAttempt, error) {
	attempts, err := s.attemptRepo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if attempts == nil {
		attempts = []model.QuizAttempt{}
	}
	return attempts, nil
}

// ManualGradeAttempt records an instructor override score and comment on a
// submitted attempt. The auto-graded objective score is never modified.
func (s *AttemptService) ManualGradeAttempt(ctx context.Context, attemptID uuid.UUID, req *model.ManualGradeAttemptRequest) error {
	attempt, err := s.attemptRepo.GetByID(ctx, attemptID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrAttemptNotFound
		}
		return err
	}
	if !attempt.Submitted() {
		return ErrNotSubmitted
	}

	if err := s.attemptRepo.ManualGrade(ctx, attemptID, req.ManualScore, req.Comment); err != nil {
		return err
	}
	s.log.Info().Str("attempt_id", attemptID.String()).Msg("Attempt manually graded")
	return nil
}

// ManualGradeAnswer records an instructor override on one answer row of a
// submitted attempt.
func (s *AttemptService) ManualGradeAnswer(ctx context.Context, attemptID, answerID uuid.UUID, req *model.ManualGradeAnswerRequest) error {
	attempt, err := s.attemptRepo.GetByID(ctx, attemptID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrAttemptNotFound
		}
		return err
	}
	if !attempt.Submitted() {
		return ErrNotSubmitted
	}

	answer, err := s.answerRepo.GetByID(ctx, answerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrAnswerNotFound
		}
		return err
	}
	if answer.AttemptID != attemptID {
		return ErrAnswerNotFound
	}

	return s.answerRepo.ManualGrade(ctx, answerID, req.ManualPoints, req.Comment)
}

// GetAttempt loads an attempt without an ownership check. Instructor paths
// use it after verifying quiz ownership.
func (s *AttemptService) GetAttempt(ctx context.Context, attemptID uuid.UUID) (*model.QuizAttempt, error) {
	attempt, err := s.attemptRepo.GetByID(ctx, attemptID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAttemptNotFound
		}
		return nil, err
	}
	return attempt, nil
}

func (s *AttemptService) getOwnedAttempt(ctx context.Context, attemptID uuid.UUID, studentID int) (*model.QuizAttempt, error) {
	attempt, err := s.attemptRepo.GetByID(ctx, attemptID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAttemptNotFound
		}
		return nil, err
	}
	if attempt.StudentID != studentID {
		return nil, ErrNotAttemptOwner
	}
	return attempt, nil
}

// cacheAttemptStart mirrors the attempt start time into Redis for the
// timer stream. Best effort, PostgreSQL stays the source of truth.
func (s *AttemptService) cacheAttemptStart(ctx context.Context, a *model.QuizAttempt) {
	key := config.CacheKey.AttemptStartKey(a.QuizID.String(), a.StudentID)
	if err := s.rdb.Set(ctx, key, a.StartedAt.Format(time.RFC3339), 24*time.Hour).Err(); err != nil {
		s.log.Warn().Err(err).Str("attempt_id", a.ID.String()).Msg("Failed to cache attempt start")
	}
}

func (s *AttemptService) clearAttemptStart(ctx context.Context, a *model.QuizAttempt) {
	key := config.CacheKey.AttemptStartKey(a.QuizID.String(), a.StudentID)
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		s.log.Warn().Err(err).Str("attempt_id", a.ID.String()).Msg("Failed to clear attempt start")
	}
}
