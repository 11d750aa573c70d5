package service

import (
	"fmt"
	"time"

	"github.com/unilearn/quizcore-backend/internal/model"
)

// DenyReason identifies why a new attempt may not be started.
type DenyReason string

const (
	DenyNotAvailable  DenyReason = "NOT_AVAILABLE"
	DenyNotStarted    DenyReason = "NOT_STARTED"
	DenyEnded         DenyReason = "ENDED"
	DenyQuotaExceeded DenyReason = "QUOTA_EXCEEDED"
)

// EligibilityError is an expected, recoverable denial — guidance for the
// student, not a fault. Handlers surface Reason as the response code and
// Message as the user-facing text.
type EligibilityError struct {
	Reason  DenyReason
	Message string
}

func (e *EligibilityError) Error() string {
	return e.Message
}

// CanStartAttempt decides whether a student may start a new attempt on a
// quiz, given their submitted-attempt count so far and the current time.
// Checks run in a fixed order and the first failure wins. Read-only:
// enrollment in the quiz's course is verified upstream.
func CanStartAttempt(quiz *model.Quiz, submittedAttempts int, now time.Time) *EligibilityError {
	if quiz == nil || quiz.IsDeleted || !quiz.IsPublished {
		return &EligibilityError{
			Reason:  DenyNotAvailable,
			Message: "This quiz is not currently available.",
		}
	}
	if quiz.StartDate != nil && now.Before(*quiz.StartDate) {
		return &EligibilityError{
			Reason:  DenyNotStarted,
			Message: fmt.Sprintf("This quiz opens at %s.", quiz.StartDate.Format(time.RFC3339)),
		}
	}
	if quiz.EndDate != nil && now.After(*quiz.EndDate) {
		return &EligibilityError{
			Reason:  DenyEnded,
			Message: fmt.Sprintf("This quiz closed at %s.", quiz.EndDate.Format(time.RFC3339)),
		}
	}
	if quiz.MaxAttempts > 0 && submittedAttempts >= quiz.MaxAttempts {
		return &EligibilityError{
			Reason:  DenyQuotaExceeded,
			Message: fmt.Sprintf("You have used all %d attempts for this quiz.", quiz.MaxAttempts),
		}
	}
	return nil
}
