package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/unilearn/quizcore-backend/internal/model"
)

// AttemptRepository handles quiz attempt data access.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

const attemptColumns = `id, quiz_id, student_id, started_at, submitted_at,
	 total_score, max_score, score_percentage, manual_score, teacher_comment, is_graded, graded_at`

func scanAttempt(row pgx.Row) (*model.QuizAttempt, error) {
	a := &model.QuizAttempt{}
	err := row.Scan(&a.ID, &a.QuizID, &a.StudentID, &a.StartedAt, &a.SubmittedAt,
		&a.TotalScore, &a.MaxScore, &a.ScorePercentage,
		&a.ManualScore, &a.TeacherComment, &a.IsGraded, &a.GradedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// GetByID retrieves an attempt by its UUID.
func (r *AttemptRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.QuizAttempt, error) {
	return scanAttempt(r.pool.QueryRow(ctx,
		`SELECT `+attemptColumns+` FROM quiz_attempts WHERE id = $1`, id))
}

// GetOpen retrieves the one open (unsubmitted) attempt for a quiz-student
// pair, or pgx.ErrNoRows if none is in progress.
func (r *AttemptRepository) GetOpen(ctx context.Context, quizID uuid.UUID, studentID int) (*model.QuizAttempt, error) {
	return scanAttempt(r.pool.QueryRow(ctx,
		`SELECT `+attemptColumns+` FROM quiz_attempts
		 WHERE quiz_id = $1 AND student_id = $2 AND submitted_at IS NULL`, quizID, studentID))
}

// CountSubmitted counts a student's submitted attempts for a quiz. Open
// attempts never count toward the quota.
func (r *AttemptRepository) CountSubmitted(ctx context.Context, quizID uuid.UUID, studentID int) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM quiz_attempts
		 WHERE quiz_id = $1 AND student_id = $2 AND submitted_at IS NOT NULL`, quizID, studentID,
	).Scan(&count)
	return count, err
}

// Create inserts a new open attempt. The partial unique index on
// (quiz_id, student_id) WHERE submitted_at IS NULL makes this the mutual
// exclusion point: a concurrent create loses the race, inserts nothing and
// gets pgx.ErrNoRows back, at which point the caller fetches the winner's row.
func (r *AttemptRepository) Create(ctx context.Context, a *model.QuizAttempt) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO quiz_attempts (quiz_id, student_id)
		 VALUES ($1, $2)
		 ON CONFLICT (quiz_id, student_id) WHERE submitted_at IS NULL DO NOTHING
		 RETURNING id, started_at`,
		a.QuizID, a.StudentID,
	).Scan(&a.ID, &a.StartedAt)
}

// SubmitTx closes an attempt and records its auto-graded scores in the
// caller's transaction. The WHERE guard makes submission first-wins: a second
// submit matches zero rows and reports pgx.ErrNoRows.
func (r *AttemptRepository) SubmitTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, submittedAt time.Time, totalScore, maxScore int, percentage float64) error {
	tag, err := tx.Exec(ctx,
		`UPDATE quiz_attempts
		 SET submitted_at = $1, total_score = $2, max_score = $3, score_percentage = $4
		 WHERE id = $5 AND submitted_at IS NULL`,
		submittedAt, totalScore, maxScore, percentage, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ListByQuiz retrieves all submitted attempts for a quiz, newest first.
func (r *AttemptRepository) ListByQuiz(ctx context.Context, quizID uuid.UUID) ([]model.QuizAttempt, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+attemptColumns+` FROM quiz_attempts
		 WHERE quiz_id = $1 AND submitted_at IS NOT NULL
		 ORDER BY submitted_at DESC`, quizID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAttempts(rows)
}

// ListByStudent retrieves all of a student's submitted attempts, newest first.
func (r *AttemptRepository) ListByStudent(ctx context.Context, studentID int) ([]model.QuizAttempt, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+attemptColumns+` FROM quiz_attempts
		 WHERE student_id = $1 AND submitted_at IS NOT NULL
		 ORDER BY submitted_at DESC`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAttempts(rows)
}

func collectAttempts(rows pgx.Rows) ([]model.QuizAttempt, error) {
	var attempts []model.QuizAttempt
	for rows.Next() {
		var a model.QuizAttempt
		if err := rows.Scan(&a.ID, &a.QuizID, &a.StudentID, &a.StartedAt, &a.SubmittedAt,
			&a.TotalScore, &a.MaxScore, &a.ScorePercentage,
			&a.ManualScore, &a.TeacherComment, &a.IsGraded, &a.GradedAt); err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// ManualGrade records an instructor override on the attempt. The objective
// total_score/max_score/score_percentage columns are deliberately untouched.
func (r *AttemptRepository) ManualGrade(ctx context.Context, id uuid.UUID, manualScore *int, comment *string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE quiz_attempts
		 SET manual_score = $1, teacher_comment = $2, is_graded = TRUE, graded_at = NOW()
		 WHERE id = $3`,
		manualScore, comment, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
