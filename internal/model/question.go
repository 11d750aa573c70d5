package model

import (
	"github.com/google/uuid"
)

// Question belongs to exactly one quiz. OrderNum drives display order; it
// is kept dense (1..n) by the authoring service, not by a DB constraint.
type Question struct {
	ID           uuid.UUID `json:"id"`
	QuizID       uuid.UUID `json:"quiz_id"`
	QuestionText string    `json:"question_text"`
	Points       int       `json:"points"`
	OrderNum     int       `json:"order_num"`

	Options []QuestionOption `json:"options,omitempty"`
}

// QuestionOption belongs to exactly one question. Options are deleted with
// their question; nothing else references them by ownership.
type QuestionOption struct {
	ID          uuid.UUID `json:"id"`
	QuestionID  uuid.UUID `json:"question_id"`
	OptionText  string    `json:"option_text"`
	OptionLabel string    `json:"option_label"`
	IsCorrect   bool      `json:"is_correct"`
	OrderNum    int       `json:"order_num"`
}

// QuestionDraft is the authoring payload for one question.
type QuestionDraft struct {
	QuestionText string        `json:"question_text" binding:"required,min=1,max=1000"`
	Points       int           `json:"points" binding:"required,min=1"`
	Options      []OptionDraft `json:"options" binding:"required,min=2,dive"`
}

// OptionDraft is the authoring payload for one option. Label is optional;
// omitted labels are assigned A, B, C… by position.
type OptionDraft struct {
	OptionText  string `json:"option_text" binding:"required,min=1,max=500"`
	OptionLabel string `json:"option_label" binding:"omitempty,max=10"`
	IsCorrect   bool   `json:"is_correct"`
}

// ReorderQuestionsRequest carries the new question order as an id list.
type ReorderQuestionsRequest struct {
	QuestionIDs []uuid.UUID `json:"question_ids" binding:"required,min=1"`
}

// OptionLabel maps a zero-based option index to its display label:
// A..Z, then AA, AB… for pathological option counts.
func OptionLabel(index int) string {
	label := ""
	for {
		label = string(rune('A'+index%26)) + label
		index = index/26 - 1
		if index < 0 {
			return label
		}
	}
}
