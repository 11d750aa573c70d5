package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrTokenRequired ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid  ErrCode = "TOKEN_INVALID"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden            ErrCode = "FORBIDDEN"
	ErrStudentAccessOnly    ErrCode = "STUDENT_ACCESS_ONLY"
	ErrInstructorAccessOnly ErrCode = "INSTRUCTOR_ACCESS_ONLY"
	ErrNotQuizOwner         ErrCode = "NOT_QUIZ_OWNER"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"

	// ─── Authoring ─────────────────────────────────────────────────────
	ErrMissingCourse      ErrCode = "MISSING_COURSE"
	ErrNoQuestions        ErrCode = "NO_QUESTIONS"
	ErrTooFewOptions      ErrCode = "TOO_FEW_OPTIONS"
	ErrCorrectOptionCount ErrCode = "CORRECT_OPTION_COUNT"
	ErrQuizPublished      ErrCode = "QUIZ_PUBLISHED"

	// ─── Attempt eligibility ───────────────────────────────────────────
	ErrQuizNotAvailable ErrCode = "QUIZ_NOT_AVAILABLE"
	ErrQuizNotStarted   ErrCode = "QUIZ_NOT_STARTED"
	ErrQuizEnded        ErrCode = "QUIZ_ENDED"
	ErrQuotaExceeded    ErrCode = "QUOTA_EXCEEDED"

	// ─── Attempt lifecycle ─────────────────────────────────────────────
	ErrAttemptClosed    ErrCode = "ATTEMPT_CLOSED"
	ErrAlreadySubmitted ErrCode = "ALREADY_SUBMITTED"
	ErrNotSubmitted     ErrCode = "NOT_SUBMITTED"
	ErrOptionNotInQuiz  ErrCode = "OPTION_NOT_IN_QUIZ"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
// Eligibility denials and idempotency guards are routine, so their messages
// must be specific enough to act on, not generic faults.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid or has expired."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You do not have permission to access this resource."
	case ErrStudentAccessOnly:
		return "This resource is restricted to students."
	case ErrInstructorAccessOnly:
		return "This resource is restricted to instructors."
	case ErrNotQuizOwner:
		return "You are not the instructor who owns this quiz."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "The ID format is invalid."
	case ErrInvalidPayload:
		return "The request payload is invalid."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "The requested resource was not found."

	// ─── Authoring ─────────────────────────────────────────────────────
	case ErrMissingCourse:
		return "A quiz cannot be published without a course."
	case ErrNoQuestions:
		return "A quiz must have at least one question."
	case ErrTooFewOptions:
		return "Each question must have at least two options."
	case ErrCorrectOptionCount:
		return "Each question must have exactly one correct option."
	case ErrQuizPublished:
		return "This change is not allowed while the quiz is published."

	// ─── Attempt eligibility ───────────────────────────────────────────
	case ErrQuizNotAvailable:
		return "This quiz is not currently available."
	case ErrQuizNotStarted:
		return "This quiz has not opened yet."
	case ErrQuizEnded:
		return "This quiz has already closed."
	case ErrQuotaExceeded:
		return "You have used all of your attempts for this quiz."

	// ─── Attempt lifecycle ─────────────────────────────────────────────
	case ErrAttemptClosed:
		return "This attempt has already been submitted and can no longer be changed."
	case ErrAlreadySubmitted:
		return "This attempt has already been submitted."
	case ErrNotSubmitted:
		return "This attempt has not been submitted yet."
	case ErrOptionNotInQuiz:
		return "The selected option does not belong to this question."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
