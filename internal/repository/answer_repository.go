package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/unilearn/quizcore-backend/internal/model"
)

// AnswerRepository handles student answer data access.
type AnswerRepository struct {
	pool *pgxpool.Pool
}

// NewAnswerRepository creates a new AnswerRepository.
func NewAnswerRepository(pool *pgxpool.Pool) *AnswerRepository {
	return &AnswerRepository{pool: pool}
}

// Upsert saves a student's pick for one question, creating the row on first
// save and overwriting the selection afterwards. A nil option clears the pick.
func (r *AnswerRepository) Upsert(ctx context.Context, attemptID, questionID uuid.UUID, selectedOptionID *uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO student_answers (attempt_id, question_id, selected_option_id)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (attempt_id, question_id) DO UPDATE
		 SET selected_option_id = EXCLUDED.selected_option_id`,
		attemptID, questionID, selectedOptionID)
	return err
}

// ListByAttempt retrieves all answer rows for an attempt.
func (r *AnswerRepository) ListByAttempt(ctx context.Context, attemptID uuid.UUID) ([]model.StudentAnswer, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, attempt_id, question_id, selected_option_id,
		        is_correct, points_earned, manual_points, teacher_comment
		 FROM student_answers WHERE attempt_id = $1`, attemptID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var answers []model.StudentAnswer
	for rows.Next() {
		var a model.StudentAnswer
		if err := rows.Scan(&a.ID, &a.AttemptID, &a.QuestionID, &a.SelectedOptionID,
			&a.IsCorrect, &a.PointsEarned, &a.ManualPoints, &a.TeacherComment); err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

// ApplyGradesTx bulk-writes grading results in the caller's transaction, one
// row per question: existing rows get is_correct/points_earned, unanswered
// questions get a zero-point placeholder row. Single UNNEST upsert so the
// whole grade lands atomically with the attempt's score columns.
func (r *AnswerRepository) ApplyGradesTx(ctx context.Context, tx pgx.Tx, attemptID uuid.UUID, grades []model.StudentAnswer) error {
	n := len(grades)
	if n == 0 {
		return nil
	}

	questionIDs := make([]uuid.UUID, n)
	selectedIDs := make([]*uuid.UUID, n)
	correct := make([]bool, n)
	points := make([]int, n)
	for i, g := range grades {
		questionIDs[i] = g.QuestionID
		selectedIDs[i] = g.SelectedOptionID
		correct[i] = g.IsCorrect
		if g.PointsEarned != nil {
			points[i] = *g.PointsEarned
		}
	}

	_, err := tx.Exec(ctx,
		`INSERT INTO student_answers (attempt_id, question_id, selected_option_id, is_correct, points_earned)
		 SELECT $1, u.question_id, u.selected_option_id, u.is_correct, u.points_earned
		 FROM UNNEST($2::uuid[], $3::uuid[], $4::bool[], $5::int[])
		      AS u (question_id, selected_option_id, is_correct, points_earned)
		 ON CONFLICT (attempt_id, question_id) DO UPDATE
		 SET is_correct = EXCLUDED.is_correct,
		     points_earned = EXCLUDED.points_earned`,
		attemptID, questionIDs, selectedIDs, correct, points)
	return err
}

// ManualGrade records an instructor override on one answer. The objective
// is_correct/points_earned columns are deliberately untouched.
func (r *AnswerRepository) ManualGrade(ctx context.Context, id uuid.UUID, manualPoints *int, comment *string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE student_answers
		 SET manual_points = $1, teacher_comment = $2
		 WHERE id = $3`,
		manualPoints, comment, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// GetByID retrieves a single answer row.
func (r *AnswerRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.StudentAnswer, error) {
	a := &model.StudentAnswer{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, attempt_id, question_id, selected_option_id,
		        is_correct, points_earned, manual_points, teacher_comment
		 FROM student_answers WHERE id = $1`, id,
	).Scan(&a.ID, &a.AttemptID, &a.QuestionID, &a.SelectedOptionID,
		&a.IsCorrect, &a.PointsEarned, &a.ManualPoints, &a.TeacherComment)
	if err != nil {
		return nil, err
	}
	return a, nil
}
