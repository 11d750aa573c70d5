package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/unilearn/quizcore-backend/internal/model"
)

// QuestionRepository handles question and option data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// ListByQuiz retrieves all questions for a quiz with their options, ordered
// by order_num. Options are fetched in one query and folded in by question id.
func (r *QuestionRepository) ListByQuiz(ctx context.Context, quizID uuid.UUID) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, quiz_id, question_text, points, order_num
		 FROM questions WHERE quiz_id = $1
		 ORDER BY order_num`, quizID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	index := make(map[uuid.UUID]int)
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.QuizID, &q.QuestionText, &q.Points, &q.OrderNum); err != nil {
			return nil, err
		}
		index[q.ID] = len(questions)
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, nil
	}

	optRows, err := r.pool.Query(ctx,
		`SELECT o.id, o.question_id, o.option_text, o.option_label, o.is_correct, o.order_num
		 FROM question_options o
		 JOIN questions q ON o.question_id = q.id
		 WHERE q.quiz_id = $1
		 ORDER BY o.question_id, o.order_num`, quizID)
	if err != nil {
		return nil, err
	}
	defer optRows.Close()

	for optRows.Next() {
		var o model.QuestionOption
		if err := optRows.Scan(&o.ID, &o.QuestionID, &o.OptionText, &o.OptionLabel, &o.IsCorrect, &o.OrderNum); err != nil {
			return nil, err
		}
		if i, ok := index[o.QuestionID]; ok {
			questions[i].Options = append(questions[i].Options, o)
		}
	}
	return questions, optRows.Err()
}

// GetByID retrieves a single question with its options.
func (r *QuestionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	q := &model.Question{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, quiz_id, question_text, points, order_num
		 FROM questions WHERE id = $1`, id,
	).Scan(&q.ID, &q.QuizID, &q.QuestionText, &q.Points, &q.OrderNum)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, question_id, option_text, option_label, is_correct, order_num
		 FROM question_options WHERE question_id = $1
		 ORDER BY order_num`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var o model.QuestionOption
		if err := rows.Scan(&o.ID, &o.QuestionID, &o.OptionText, &o.OptionLabel, &o.IsCorrect, &o.OrderNum); err != nil {
			return nil, err
		}
		q.Options = append(q.Options, o)
	}
	return q, rows.Err()
}

// InsertTx inserts one question and its options inside the caller's transaction.
func (r *QuestionRepository) InsertTx(ctx context.Context, tx pgx.Tx, q *model.Question) error {
	if err := tx.QueryRow(ctx,
		`INSERT INTO questions (quiz_id, question_text, points, order_num)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		q.QuizID, q.QuestionText, q.Points, q.OrderNum,
	).Scan(&q.ID); err != nil {
		return err
	}

	for i := range q.Options {
		o := &q.Options[i]
		o.QuestionID = q.ID
		if err := tx.QueryRow(ctx,
			`INSERT INTO question_options (question_id, option_text, option_label, is_correct, order_num)
			 VALUES ($1, $2, $3, $4, $5)
			 RETURNING id`,
			o.QuestionID, o.OptionText, o.OptionLabel, o.IsCorrect, o.OrderNum,
		).Scan(&o.ID); err != nil {
			return err
		}
	}
	return nil
}

// ReplaceForQuizTx deletes a quiz's whole question tree (options cascade)
// and inserts the new one. Caller owns the transaction.
func (r *QuestionRepository) ReplaceForQuizTx(ctx context.Context, tx pgx.Tx, quizID uuid.UUID, questions []model.Question) error {
	if _, err := tx.Exec(ctx, `DELETE FROM questions WHERE quiz_id = $1`, quizID); err != nil {
		return err
	}
	for i := range questions {
		questions[i].QuizID = quizID
		if err := r.InsertTx(ctx, tx, &questions[i]); err != nil {
			return err
		}
	}
	return nil
}

// InsertOptionsTx inserts options for an existing question inside the
// caller's transaction.
func (r *QuestionRepository) InsertOptionsTx(ctx context.Context, tx pgx.Tx, questionID uuid.UUID, options []model.QuestionOption) error {
	for i := range options {
		o := &options[i]
		o.QuestionID = questionID
		if err := tx.QueryRow(ctx,
			`INSERT INTO question_options (question_id, option_text, option_label, is_correct, order_num)
			 VALUES ($1, $2, $3, $4, $5)
			 RETURNING id`,
			o.QuestionID, o.OptionText, o.OptionLabel, o.IsCorrect, o.OrderNum,
		).Scan(&o.ID); err != nil {
			return err
		}
	}
	return nil
}

// DeleteOptionsTx removes a question's options inside the caller's transaction.
func (r *QuestionRepository) DeleteOptionsTx(ctx context.Context, tx pgx.Tx, questionID uuid.UUID) error {
	_, err := tx.Exec(ctx, `DELETE FROM question_options WHERE question_id = $1`, questionID)
	return err
}

// UpdateTx rewrites a question's text and points inside the caller's transaction.
func (r *QuestionRepository) UpdateTx(ctx context.Context, tx pgx.Tx, q *model.Question) error {
	_, err := tx.Exec(ctx,
		`UPDATE questions SET question_text = $1, points = $2 WHERE id = $3`,
		q.QuestionText, q.Points, q.ID)
	return err
}

// Delete removes a single question; its options cascade.
func (r *QuestionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// MaxOrderNum returns the highest order_num in a quiz, or 0 if it has no questions.
func (r *QuestionRepository) MaxOrderNum(ctx context.Context, quizID uuid.UUID) (int, error) {
	var max int
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(order_num), 0) FROM questions WHERE quiz_id = $1`, quizID,
	).Scan(&max)
	return max, err
}

// Reorder assigns order_num 1..n following the given id list. Ids not
// belonging to the quiz are ignored.
func (r *QuestionRepository) Reorder(ctx context.Context, quizID uuid.UUID, questionIDs []uuid.UUID) error {
	orderNums := make([]int, len(questionIDs))
	for i := range questionIDs {
		orderNums[i] = i + 1
	}

	_, err := r.pool.Exec(ctx,
		`UPDATE questions AS q
		 SET order_num = t.order_num
		 FROM (
			SELECT u.id, u.order_num
			FROM UNNEST($1::uuid[], $2::int[]) AS u (id, order_num)
		 ) AS t
		 WHERE q.id = t.id AND q.quiz_id = $3`,
		questionIDs, orderNums, quizID)
	return err
}
