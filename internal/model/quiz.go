package model

import (
	"time"

	"github.com/google/uuid"
)

// Quiz represents an instructor-authored quiz.
//
// TimeLimitMinutes and MaxAttempts use 0 to mean unlimited. A quiz is never
// hard-deleted; IsDeleted/DeletedAt preserve attempt history integrity.
type Quiz struct {
	ID               uuid.UUID  `json:"id"`
	Title            string     `json:"title"`
	Description      *string    `json:"description,omitempty"`
	InstructorID     int        `json:"instructor_id"`
	CourseID         *int       `json:"course_id,omitempty"`
	StartDate        *time.Time `json:"start_date,omitempty"`
	EndDate          *time.Time `json:"end_date,omitempty"`
	TimeLimitMinutes int        `json:"time_limit_minutes"`
	MaxAttempts      int        `json:"max_attempts"`
	IsPublished      bool       `json:"is_published"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	IsDeleted        bool       `json:"-"`
	DeletedAt        *time.Time `json:"-"`

	// Questions is populated only by the detail loaders.
	Questions []Question `json:"questions,omitempty"`
}

// QuizDraft is the payload for creating or fully replacing a quiz.
// UpdateQuiz replaces the entire question tree with the draft's.
type QuizDraft struct {
	Title            string          `json:"title" binding:"required,min=1,max=200"`
	Description      *string         `json:"description" binding:"omitempty,max=1000"`
	CourseID         *int            `json:"course_id" binding:"omitempty"`
	StartDate        *time.Time      `json:"start_date" binding:"omitempty"`
	EndDate          *time.Time      `json:"end_date" binding:"omitempty,gtfield=StartDate"`
	TimeLimitMinutes int             `json:"time_limit_minutes" binding:"min=0,max=480"`
	MaxAttempts      int             `json:"max_attempts" binding:"min=0,max=100"`
	Questions        []QuestionDraft `json:"questions" binding:"required,min=1,dive"`
}

// PublishQuizRequest is the payload for publishing a quiz.
// CourseID may be omitted if the quiz already carries one.
type PublishQuizRequest struct {
	CourseID *int `json:"course_id" binding:"omitempty"`
}

// QuizPaper is the Redis-cached student-facing view of a published quiz.
// It never contains correct-option flags.
type QuizPaper struct {
	QuizID           uuid.UUID       `json:"quiz_id"`
	Title            string          `json:"title"`
	Description      *string         `json:"description,omitempty"`
	TimeLimitMinutes int             `json:"time_limit_minutes"`
	Questions        []PaperQuestion `json:"questions"`
}

// PaperQuestion is a question as shown to a student taking the quiz.
type PaperQuestion struct {
	ID           uuid.UUID     `json:"id"`
	QuestionText string        `json:"question_text"`
	Points       int           `json:"points"`
	OrderNum     int           `json:"order_num"`
	Options      []PaperOption `json:"options"`
}

// PaperOption is an option without its is_correct flag.
type PaperOption struct {
	ID          uuid.UUID `json:"id"`
	OptionText  string    `json:"option_text"`
	OptionLabel string    `json:"option_label"`
	OrderNum    int       `json:"order_num"`
}
