package model

import (
	"github.com/google/uuid"
)

// StudentAnswer is one row per (attempt, question), created lazily as the
// student answers. SelectedOptionID is nil for an unanswered question.
//
// IsCorrect and PointsEarned are written only by auto-grading; ManualPoints
// and TeacherComment are the per-answer instructor override channel.
type StudentAnswer struct {
	ID               uuid.UUID  `json:"id"`
	AttemptID        uuid.UUID  `json:"attempt_id"`
	QuestionID       uuid.UUID  `json:"question_id"`
	SelectedOptionID *uuid.UUID `json:"selected_option_id,omitempty"`
	IsCorrect        bool       `json:"is_correct"`
	PointsEarned     *int       `json:"points_earned,omitempty"`
	ManualPoints     *int       `json:"manual_points,omitempty"`
	TeacherComment   *string    `json:"teacher_comment,omitempty"`
}
