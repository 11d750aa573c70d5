package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/unilearn/quizcore-backend/internal/config"
	"github.com/unilearn/quizcore-backend/internal/model"
	"github.com/unilearn/quizcore-backend/internal/repository"
	"github.com/unilearn/quizcore-backend/internal/response"
)

// Domain errors.
var (
	ErrQuizNotFound       = errors.New("quiz not found")
	ErrNotQuizOwner       = errors.New("not the owner of this quiz")
	ErrNoQuestions        = errors.New("quiz must have at least one question")
	ErrTooFewOptions      = errors.New("question must have at least two options")
	ErrCorrectOptionCount = errors.New("question must have exactly one correct option")
	ErrMissingCourse      = errors.New("cannot publish a quiz without a course")
	ErrQuizPublished      = errors.New("quiz is published")
)

// QuizService owns quiz authoring: create, update, soft-delete, publish and
// unpublish, plus the question-tree edits in between. It also keeps the
// student-facing paper of published quizzes cached in Redis.
type QuizService struct {
	pool         *pgxpool.Pool
	quizRepo     *repository.QuizRepository
	questionRepo *repository.QuestionRepository
	rdb          *redis.Client
	log          zerolog.Logger
}

// NewQuizService creates a new QuizService.
func NewQuizService(
	pool *pgxpool.Pool,
	quizRepo *repository.QuizRepository,
	questionRepo *repository.QuestionRepository,
	rdb *redis.Client,
	log zerolog.Logger,
) *QuizService {
	return &QuizService{
		pool:         pool,
		quizRepo:     quizRepo,
		questionRepo: questionRepo,
		rdb:          rdb,
		log:          log.With().Str("component", "quiz_service").Logger(),
	}
}

// buildQuestionTree validates a draft's questions and converts them to model
// rows with order numbers and display labels assigned. Labels left empty in
// the draft get A, B, C… by position.
//
// The grading engine is single-select only, so a question marking zero or
// more than one option correct is rejected here rather than graded by
// accident later.
func buildQuestionTree(drafts []model.QuestionDraft) ([]model.Question, error) {
	if len(drafts) == 0 {
		return nil, ErrNoQuestions
	}

	questions := make([]model.Question, 0, len(drafts))
	for qi, qd := range drafts {
		if len(qd.Options) < 2 {
			return nil, ErrTooFewOptions
		}

		correctCount := 0
		options := make([]model.QuestionOption, 0, len(qd.Options))
		for oi, od := range qd.Options {
			if od.IsCorrect {
				correctCount++
			}
			label := od.OptionLabel
			if label == "" {
				label = model.OptionLabel(oi)
			}
			options = append(options, model.QuestionOption{
				OptionText:  od.OptionText,
				OptionLabel: label,
				IsCorrect:   od.IsCorrect,
				OrderNum:    oi + 1,
			})
		}
		if correctCount != 1 {
			return nil, ErrCorrectOptionCount
		}

		questions = append(questions, model.Question{
			QuestionText: qd.QuestionText,
			Points:       qd.Points,
			OrderNum:     qi + 1,
			Options:      options,
		})
	}
	return questions, nil
}

// Create validates a draft and persists the quiz with its question tree in
// one transaction. New quizzes always start unpublished.
func (s *QuizService) Create(ctx context.Context, instructorID int, draft *model.QuizDraft) (*model.Quiz, error) {
	questions, err := buildQuestionTree(draft.Questions)
	if err != nil {
		return nil, err
	}

	quiz := &model.Quiz{
		Title:            draft.Title,
		Description:      draft.Description,
		InstructorID:     instructorID,
		CourseID:         draft.CourseID,
		StartDate:        draft.StartDate,
		EndDate:          draft.EndDate,
		TimeLimitMinutes: draft.TimeLimitMinutes,
		MaxAttempts:      draft.MaxAttempts,
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.quizRepo.CreateTx(ctx, tx, quiz); err != nil {
		return nil, fmt.Errorf("create quiz: %w", err)
	}
	for i := range questions {
		questions[i].QuizID = quiz.ID
		if err := s.questionRepo.InsertTx(ctx, tx, &questions[i]); err != nil {
			return nil, fmt.Errorf("insert question: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	quiz.Questions = questions
	s.log.Info().Str("quiz_id", quiz.ID.String()).Int("questions", len(questions)).Msg("Quiz created")
	return quiz, nil
}

// Update replaces a quiz's metadata and its entire question tree atomically
// (delete-then-recreate, not a diff). Question and option row identities are
// not preserved across an edit; answers recorded against the prior tree keep
// their rows and graded scores, but their question/option links go stale.
func (s *QuizService) Update(ctx context.Context, quizID uuid.UUID, instructorID int, draft *model.QuizDraft) error {
	existing, err := s.getOwned(ctx, quizID, instructorID)
	if err != nil {
		return err
	}

	questions, err := buildQuestionTree(draft.Questions)
	if err != nil {
		return err
	}

	quiz := &model.Quiz{
		ID:               quizID,
		Title:            draft.Title,
		Description:      draft.Description,
		CourseID:         draft.CourseID,
		StartDate:        draft.StartDate,
		EndDate:          draft.EndDate,
		TimeLimitMinutes: draft.TimeLimitMinutes,
		MaxAttempts:      draft.MaxAttempts,
	}
	if quiz.CourseID == nil {
		quiz.CourseID = existing.CourseID
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.quizRepo.UpdateTx(ctx, tx, quiz); err != nil {
		return fmt.Errorf("update quiz: %w", err)
	}
	if err := s.questionRepo.ReplaceForQuizTx(ctx, tx, quizID, questions); err != nil {
		return fmt.Errorf("replace questions: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	if existing.IsPublished {
		s.refreshPaper(ctx, quizID)
	}
	s.log.Info().Str("quiz_id", quizID.String()).Msg("Quiz updated")
	return nil
}

// Delete soft-deletes a quiz. Attempt history survives; the quiz just stops
// existing for every read path and the eligibility check.
func (s *QuizService) Delete(ctx context.Context, quizID uuid.UUID, instructorID int) error {
	if _, err := s.getOwned(ctx, quizID, instructorID); err != nil {
		return err
	}
	if err := s.quizRepo.SoftDelete(ctx, quizID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrQuizNotFound
		}
		return err
	}
	s.invalidatePaper(ctx, quizID)
	s.log.Info().Str("quiz_id", quizID.String()).Msg("Quiz soft-deleted")
	return nil
}

// Publish makes a quiz visible to students. A course binding is required:
// courseID may come with the request or already be set on the quiz, but
// publishing a courseless quiz is rejected. The student paper is warmed into
// Redis before the flag flips so the first taker never sees a cache miss.
func (s *QuizService) Publish(ctx context.Context, quizID uuid.UUID, instructorID int, courseID *int) error {
	quiz, err := s.getOwned(ctx, quizID, instructorID)
	if err != nil {
		return err
	}

	if courseID == nil {
		courseID = quiz.CourseID
	}
	if courseID == nil {
		return ErrMissingCourse
	}

	questions, err := s.questionRepo.ListByQuiz(ctx, quizID)
	if err != nil {
		return fmt.Errorf("list questions: %w", err)
	}
	if len(questions) == 0 {
		return ErrNoQuestions
	}

	if err := s.warmPaper(ctx, quiz, questions); err != nil {
		return err
	}
	if err := s.quizRepo.Publish(ctx, quizID, *courseID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrQuizNotFound
		}
		return fmt.Errorf("publish: %w", err)
	}

	s.log.Info().Str("quiz_id", quizID.String()).Int("course_id", *courseID).Msg("Quiz published")
	return nil
}

// Unpublish blocks new attempts without retracting in-progress ones.
func (s *QuizService) Unpublish(ctx context.Context, quizID uuid.UUID, instructorID int) error {
	if _, err := s.getOwned(ctx, quizID, instructorID); err != nil {
		return err
	}
	if err := s.quizRepo.Unpublish(ctx, quizID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrQuizNotFound
		}
		return err
	}
	s.invalidatePaper(ctx, quizID)
	s.log.Info().Str("quiz_id", quizID.String()).Msg("Quiz unpublished")
	return nil
}

// GetByID retrieves a quiz without its question tree.
func (s *QuizService) GetByID(ctx context.Context, quizID uuid.UUID) (*model.Quiz, error) {
	quiz, err := s.quizRepo.GetByID(ctx, quizID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrQuizNotFound
		}
		return nil, err
	}
	return quiz, nil
}

// GetWithQuestions retrieves a quiz with its full question tree, correct
// flags included. Instructor-only view.
func (s *QuizService) GetWithQuestions(ctx context.Context, quizID uuid.UUID) (*model.Quiz, error) {
	quiz, err := s.GetByID(ctx, quizID)
	if err != nil {
		return nil, err
	}
	questions, err := s.questionRepo.ListByQuiz(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	quiz.Questions = questions
	return quiz, nil
}

// ListByInstructor retrieves quizzes with pagination. Pass instructorID=0
// for the admin view of all quizzes.
func (s *QuizService) ListByInstructor(ctx context.Context, instructorID, page, perPage int) ([]model.Quiz, *response.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}

	quizzes, total, err := s.quizRepo.ListByInstructor(ctx, instructorID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, nil, err
	}
	if quizzes == nil {
		quizzes = []model.Quiz{}
	}

	pagination := &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: (total + perPage - 1) / perPage,
	}
	return quizzes, pagination, nil
}

// ListPublishedByCourse retrieves published quizzes for a course (student
// browse; enrollment already verified upstream).
func (s *QuizService) ListPublishedByCourse(ctx context.Context, courseID int) ([]model.Quiz, error) {
	return s.quizRepo.ListPublishedByCourse(ctx, courseID)
}

// ─── Question-level edits ───────────────────────────────────────────────────
//
// Single-question edits only apply to unpublished quizzes: once students can
// see the paper, changes go through the full-tree Update so the cached paper
// and the stored tree never drift apart piecemeal.

// AddQuestion appends one question to a quiz's tree.
func (s *QuizService) AddQuestion(ctx context.Context, quizID uuid.UUID, instructorID int, draft *model.QuestionDraft) (*model.Question, error) {
	quiz, err := s.getOwned(ctx, quizID, instructorID)
	if err != nil {
		return nil, err
	}
	if quiz.IsPublished {
		return nil, ErrQuizPublished
	}

	tree, err := buildQuestionTree([]model.QuestionDraft{*draft})
	if err != nil {
		return nil, err
	}
	question := &tree[0]
	question.QuizID = quizID

	maxOrder, err := s.questionRepo.MaxOrderNum(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("max order: %w", err)
	}
	question.OrderNum = maxOrder + 1

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.questionRepo.InsertTx(ctx, tx, question); err != nil {
		return nil, fmt.Errorf("insert question: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	return question, nil
}

// UpdateQuestion rewrites one question's text, points and options.
func (s *QuizService) UpdateQuestion(ctx context.Context, quizID, questionID uuid.UUID, instructorID int, draft *model.QuestionDraft) error {
	quiz, err := s.getOwned(ctx, quizID, instructorID)
	if err != nil {
		return err
	}
	if quiz.IsPublished {
		return ErrQuizPublished
	}

	existing, err := s.questionRepo.GetByID(ctx, questionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrQuizNotFound
		}
		return err
	}
	if existing.QuizID != quizID {
		return ErrQuizNotFound
	}

	tree, err := buildQuestionTree([]model.QuestionDraft{*draft})
	if err != nil {
		return err
	}
	question := &tree[0]
	question.ID = questionID
	question.QuizID = quizID
	question.OrderNum = existing.OrderNum

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.questionRepo.UpdateTx(ctx, tx, question); err != nil {
		return fmt.Errorf("update question: %w", err)
	}
	if err := s.questionRepo.DeleteOptionsTx(ctx, tx, questionID); err != nil {
		return fmt.Errorf("delete options: %w", err)
	}
	if err := s.questionRepo.InsertOptionsTx(ctx, tx, questionID, question.Options); err != nil {
		return fmt.Errorf("insert options: %w", err)
	}
	return tx.Commit(ctx)
}

// DeleteQuestion removes one question and its options.
func (s *QuizService) DeleteQuestion(ctx context.Context, quizID, questionID uuid.UUID, instructorID int) error {
	quiz, err := s.getOwned(ctx, quizID, instructorID)
	if err != nil {
		return err
	}
	if quiz.IsPublished {
		return ErrQuizPublished
	}

	existing, err := s.questionRepo.GetByID(ctx, questionID)
	if err != nil || existing.QuizID != quizID {
		return ErrQuizNotFound
	}

	if err := s.questionRepo.Delete(ctx, questionID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrQuizNotFound
		}
		return err
	}
	return nil
}

// ReorderQuestions renumbers a quiz's questions following the given id list.
func (s *QuizService) ReorderQuestions(ctx context.Context, quizID uuid.UUID, instructorID int, questionIDs []uuid.UUID) error {
	quiz, err := s.getOwned(ctx, quizID, instructorID)
	if err != nil {
		return err
	}
	if quiz.IsPublished {
		return ErrQuizPublished
	}
	if err := s.questionRepo.Reorder(ctx, quizID, questionIDs); err != nil {
		return fmt.Errorf("reorder: %w", err)
	}
	return nil
}

// ─── Paper cache ────────────────────────────────────────────────────────────

// GetPaper returns the student-facing view of a published quiz, served from
// Redis with a PostgreSQL fallback that self-heals the cache.
func (s *QuizService) GetPaper(ctx context.Context, quizID uuid.UUID) (*model.QuizPaper, error) {
	key := config.CacheKey.QuizPaperKey(quizID.String())
	data, err := s.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var paper model.QuizPaper
		if err := json.Unmarshal(data, &paper); err == nil {
			return &paper, nil
		}
		// Corrupt cache entry — fall through to the DB and rewrite it.
	} else if !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get paper: %w", err)
	}

	quiz, err := s.GetByID(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if !quiz.IsPublished {
		return nil, ErrQuizNotFound
	}
	questions, err := s.questionRepo.ListByQuiz(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	if err := s.warmPaper(ctx, quiz, questions); err != nil {
		s.log.Warn().Err(err).Str("quiz_id", quizID.String()).Msg("Paper cache self-heal failed")
	}
	paper := buildPaper(quiz, questions)
	return paper, nil
}

// warmPaper caches the student paper and the quiz time limit via one pipeline.
func (s *QuizService) warmPaper(ctx context.Context, quiz *model.Quiz, questions []model.Question) error {
	paper := buildPaper(quiz, questions)
	payload, err := json.Marshal(paper)
	if err != nil {
		return fmt.Errorf("marshal paper: %w", err)
	}

	pipe := s.rdb.Pipeline()
	pipe.Set(ctx, config.CacheKey.QuizPaperKey(quiz.ID.String()), payload, 0)
	pipe.Set(ctx, config.CacheKey.QuizTimeLimitKey(quiz.ID.String()), quiz.TimeLimitMinutes, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache paper: %w", err)
	}

	s.log.Debug().Str("quiz_id", quiz.ID.String()).Int("questions", len(questions)).Msg("Paper cached")
	return nil
}

// refreshPaper re-warms the cache after a structural edit to a published quiz.
func (s *QuizService) refreshPaper(ctx context.Context, quizID uuid.UUID) {
	quiz, err := s.quizRepo.GetByID(ctx, quizID)
	if err != nil {
		s.log.Warn().Err(err).Str("quiz_id", quizID.String()).Msg("Paper refresh: load quiz failed")
		return
	}
	questions, err := s.questionRepo.ListByQuiz(ctx, quizID)
	if err != nil {
		s.log.Warn().Err(err).Str("quiz_id", quizID.String()).Msg("Paper refresh: load questions failed")
		return
	}
	if err := s.warmPaper(ctx, quiz, questions); err != nil {
		s.log.Warn().Err(err).Str("quiz_id", quizID.String()).Msg("Paper refresh failed")
	}
}

func (s *QuizService) invalidatePaper(ctx context.Context, quizID uuid.UUID) {
	pipe := s.rdb.Pipeline()
	pipe.Del(ctx, config.CacheKey.QuizPaperKey(quizID.String()))
	pipe.Del(ctx, config.CacheKey.QuizTimeLimitKey(quizID.String()))
	if _, err := pipe.Exec(ctx); err != nil {
		s.log.Warn().Err(err).Str("quiz_id", quizID.String()).Msg("Paper invalidation failed")
	}
}

// buildPaper strips correct-option flags from the question tree.
func buildPaper(quiz *model.Quiz, questions []model.Question) *model.QuizPaper {
	paper := &model.QuizPaper{
		QuizID:           quiz.ID,
		Title:            quiz.Title,
		Description:      quiz.Description,
		TimeLimitMinutes: quiz.TimeLimitMinutes,
		Questions:        make([]model.PaperQuestion, 0, len(questions)),
	}
	for _, q := range questions {
		pq := model.PaperQuestion{
			ID:           q.ID,
			QuestionText: q.QuestionText,
			Points:       q.Points,
			OrderNum:     q.OrderNum,
			Options:      make([]model.PaperOption, 0, len(q.Options)),
		}
		for _, o := range q.Options {
			pq.Options = append(pq.Options, model.PaperOption{
				ID:          o.ID,
				OptionText:  o.OptionText,
				OptionLabel: o.OptionLabel,
				OrderNum:    o.OrderNum,
			})
		}
		paper.Questions = append(paper.Questions, pq)
	}
	return paper
}

// PrewarmAllPapers loads every published quiz's paper into Redis on startup,
// so the first taker after a restart never races a lazy load.
func (s *QuizService) PrewarmAllPapers(ctx context.Context) error {
	ids, err := s.quizRepo.ListPublishedIDs(ctx)
	if err != nil {
		return fmt.Errorf("list published quizzes: %w", err)
	}
	if len(ids) == 0 {
		s.log.Info().Msg("No published quizzes to prewarm")
		return nil
	}

	warmed := 0
	for _, id := range ids {
		quiz, err := s.quizRepo.GetByID(ctx, id)
		if err != nil {
			continue
		}
		questions, err := s.questionRepo.ListByQuiz(ctx, id)
		if err != nil {
			s.log.Warn().Err(err).Str("quiz_id", id.String()).Msg("Failed to warm quiz, skipping")
			continue
		}
		if err := s.warmPaper(ctx, quiz, questions); err != nil {
			s.log.Warn().Err(err).Str("quiz_id", id.String()).Msg("Failed to warm quiz, skipping")
			continue
		}
		warmed++
	}

	s.log.Info().Int("warmed", warmed).Int("total", len(ids)).Msg("Paper prewarming complete")
	return nil
}

// getOwned loads a quiz and verifies the caller owns it. instructorID 0 is
// the admin bypass, mirroring how the identity service flags admins.
func (s *QuizService) getOwned(ctx context.Context, quizID uuid.UUID, instructorID int) (*model.Quiz, error) {
	quiz, err := s.GetByID(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if instructorID != 0 && quiz.InstructorID != instructorID {
		return nil, ErrNotQuizOwner
	}
	return quiz, nil
}
