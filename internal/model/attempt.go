package model

import (
	"time"

	"github.com/google/uuid"
)

// QuizAttempt is one student's run through a quiz.
//
// SubmittedAt is the state discriminator: nil while in progress, set exactly
// once on submission. At most one row per (quiz, student) may have a nil
// SubmittedAt at any time (enforced by a partial unique index).
//
// TotalScore/MaxScore/ScorePercentage are written only by auto-grading at
// submission. ManualScore/TeacherComment/IsGraded/GradedAt are the
// instructor's override channel and never touch the objective fields.
type QuizAttempt struct {
	ID              uuid.UUID  `json:"id"`
	QuizID          uuid.UUID  `json:"quiz_id"`
	StudentID       int        `json:"student_id"`
	StartedAt       time.Time  `json:"started_at"`
	SubmittedAt     *time.Time `json:"submitted_at,omitempty"`
	TotalScore      *int       `json:"total_score,omitempty"`
	MaxScore        *int       `json:"max_score,omitempty"`
	ScorePercentage *float64   `json:"score_percentage,omitempty"`
	ManualScore     *int       `json:"manual_score,omitempty"`
	TeacherComment  *string    `json:"teacher_comment,omitempty"`
	IsGraded        bool       `json:"is_graded"`
	GradedAt        *time.Time `json:"graded_at,omitempty"`
}

// Submitted reports whether the attempt has reached its terminal state.
func (a *QuizAttempt) Submitted() bool {
	return a.SubmittedAt != nil
}

// AttemptState is what a student needs to resume an in-progress attempt
// after a page reload: their saved picks and the advisory timer.
type AttemptState struct {
	AttemptID         uuid.UUID                `json:"attempt_id"`
	QuizID            uuid.UUID                `json:"quiz_id"`
	StartedAt         time.Time                `json:"started_at"`
	SavedAnswers      map[uuid.UUID]*uuid.UUID `json:"saved_answers"`
	RemainingSeconds  int                      `json:"remaining_seconds"`
	TimeLimitMinutes  int                      `json:"time_limit_minutes"`
	RemainingAttempts int                      `json:"remaining_attempts"` // -1 = unlimited
}

// SaveAnswerRequest records or clears a student's pick for one question.
// A null option clears the answer without deleting the row.
type SaveAnswerRequest struct {
	QuestionID       uuid.UUID  `json:"question_id" binding:"required"`
	SelectedOptionID *uuid.UUID `json:"selected_option_id"`
}

// ManualGradeAttemptRequest is the instructor override for a whole attempt.
type ManualGradeAttemptRequest struct {
	ManualScore *int    `json:"manual_score" binding:"omitempty,min=0"`
	Comment     *string `json:"comment" binding:"omitempty,max=2000"`
}

// ManualGradeAnswerRequest is the instructor override for a single answer.
type ManualGradeAnswerRequest struct {
	ManualPoints *int    `json:"manual_points" binding:"omitempty,min=0"`
	Comment      *string `json:"comment" binding:"omitempty,max=2000"`
}

// SubmitResult is returned to the student after a successful submission.
type SubmitResult struct {
	AttemptID       uuid.UUID `json:"attempt_id"`
	TotalScore      int       `json:"total_score"`
	MaxScore        int       `json:"max_score"`
	ScorePercentage float64   `json:"score_percentage"`
}
