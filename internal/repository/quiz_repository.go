package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/unilearn/quizcore-backend/internal/model"
)

// QuizRepository handles quiz data access.
type QuizRepository struct {
	pool *pgxpool.Pool
}

// NewQuizRepository creates a new QuizRepository.
func NewQuizRepository(pool *pgxpool.Pool) *QuizRepository {
	return &QuizRepository{pool: pool}
}

const quizColumns = `id, title, description, instructor_id, course_id, start_date, end_date,
	 time_limit_minutes, max_attempts, is_published, created_at, updated_at, is_deleted, deleted_at`

func scanQuiz(row pgx.Row) (*model.Quiz, error) {
	q := &model.Quiz{}
	err := row.Scan(&q.ID, &q.Title, &q.Description, &q.InstructorID, &q.CourseID,
		&q.StartDate, &q.EndDate, &q.TimeLimitMinutes, &q.MaxAttempts,
		&q.IsPublished, &q.CreatedAt, &q.UpdatedAt, &q.IsDeleted, &q.DeletedAt)
	if err != nil {
		return nil, err
	}
	return q, nil
}

// GetByID retrieves a quiz by its UUID. Soft-deleted quizzes are excluded.
func (r *QuizRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Quiz, error) {
	return scanQuiz(r.pool.QueryRow(ctx,
		`SELECT `+quizColumns+` FROM quizzes WHERE id = $1 AND NOT is_deleted`, id))
}

// CreateTx inserts a new quiz row inside the caller's transaction.
func (r *QuizRepository) CreateTx(ctx context.Context, tx pgx.Tx, q *model.Quiz) error {
	return tx.QueryRow(ctx,
		`INSERT INTO quizzes (title, description, instructor_id, course_id, start_date, end_date,
		                      time_limit_minutes, max_attempts)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, is_published, created_at, updated_at`,
		q.Title, q.Description, q.InstructorID, q.CourseID, q.StartDate, q.EndDate,
		q.TimeLimitMinutes, q.MaxAttempts,
	).Scan(&q.ID, &q.IsPublished, &q.CreatedAt, &q.UpdatedAt)
}

// UpdateTx rewrites a quiz's metadata inside the caller's transaction.
// The question tree is replaced separately by QuestionRepository.
func (r *QuizRepository) UpdateTx(ctx context.Context, tx pgx.Tx, q *model.Quiz) error {
	_, err := tx.Exec(ctx,
		`UPDATE quizzes
		 SET title = $1, description = $2, course_id = $3, start_date = $4, end_date = $5,
		     time_limit_minutes = $6, max_attempts = $7, updated_at = NOW()
		 WHERE id = $8 AND NOT is_deleted`,
		q.Title, q.Description, q.CourseID, q.StartDate, q.EndDate,
		q.TimeLimitMinutes, q.MaxAttempts, q.ID)
	return err
}

// SoftDelete marks a quiz as deleted without removing the row, so attempt
// history stays intact. Returns pgx.ErrNoRows if the quiz does not exist.
func (r *QuizRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE quizzes SET is_deleted = TRUE, deleted_at = NOW(), updated_at = NOW()
		 WHERE id = $1 AND NOT is_deleted`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Publish marks a quiz published and binds it to a course.
func (r *QuizRepository) Publish(ctx context.Context, id uuid.UUID, courseID int) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE quizzes SET is_published = TRUE, course_id = $1, updated_at = NOW()
		 WHERE id = $2 AND NOT is_deleted`, courseID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Unpublish clears the published flag. In-progress attempts are unaffected;
// only new attempts are blocked, via the eligibility check.
func (r *QuizRepository) Unpublish(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE quizzes SET is_published = FALSE, updated_at = NOW()
		 WHERE id = $1 AND NOT is_deleted`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ListByInstructor retrieves an instructor's quizzes with pagination.
// Pass instructorID=0 to list all quizzes (admin view).
func (r *QuizRepository) ListByInstructor(ctx context.Context, instructorID, limit, offset int) ([]model.Quiz, int, error) {
	countQuery := `SELECT COUNT(*) FROM quizzes WHERE NOT is_deleted`
	var countArgs []interface{}
	if instructorID > 0 {
		countQuery += ` AND instructor_id = $1`
		countArgs = append(countArgs, instructorID)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + quizColumns + ` FROM quizzes WHERE NOT is_deleted`
	var args []interface{}
	argIdx := 1
	if instructorID > 0 {
		query += ` AND instructor_id = $1`
		args = append(args, instructorID)
		argIdx++
	}
	query += ` ORDER BY created_at DESC LIMIT $` + formatInt(argIdx) + ` OFFSET $` + formatInt(argIdx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var quizzes []model.Quiz
	for rows.Next() {
		var q model.Quiz
		if err := rows.Scan(&q.ID, &q.Title, &q.Description, &q.InstructorID, &q.CourseID,
			&q.StartDate, &q.EndDate, &q.TimeLimitMinutes, &q.MaxAttempts,
			&q.IsPublished, &q.CreatedAt, &q.UpdatedAt, &q.IsDeleted, &q.DeletedAt); err != nil {
			return nil, 0, err
		}
		quizzes = append(quizzes, q)
	}
	return quizzes, total, rows.Err()
}

// ListPublishedIDs retrieves the ids of every published quiz.
func (r *QuizRepository) ListPublishedIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id FROM quizzes WHERE is_published AND NOT is_deleted`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListPublishedByCourse retrieves published quizzes for a course, newest first.
// Enrollment in the course is verified by the caller's upstream collaborator.
func (r *QuizRepository) ListPublishedByCourse(ctx context.Context, courseID int) ([]model.Quiz, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+quizColumns+` FROM quizzes
		 WHERE course_id = $1 AND is_published AND NOT is_deleted
		 ORDER BY created_at DESC`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var quizzes []model.Quiz
	for rows.Next() {
		var q model.Quiz
		if err := rows.Scan(&q.ID, &q.Title, &q.Description, &q.InstructorID, &q.CourseID,
			&q.StartDate, &q.EndDate, &q.TimeLimitMinutes, &q.MaxAttempts,
			&q.IsPublished, &q.CreatedAt, &q.UpdatedAt, &q.IsDeleted, &q.DeletedAt); err != nil {
			return nil, err
		}
		quizzes = append(quizzes, q)
	}
	return quizzes, rows.Err()
}
