package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// Authentication
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrSessionInvalidated ErrCode = "SESSION_INVALIDATED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"

	// Authorization
	ErrForbidden ErrCode = "FORBIDDEN"

	// Validation
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// Resources
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// Paper sessions
	ErrPaperNotFound       ErrCode = "PAPER_NOT_FOUND"
	ErrPaperHasNoQuestions ErrCode = "PAPER_HAS_NO_QUESTIONS"
	ErrSessionNotFound     ErrCode = "SESSION_NOT_FOUND"
	ErrSessionLoadFailed   ErrCode = "SESSION_LOAD_FAILED"
	ErrInvalidRange        ErrCode = "INVALID_QUESTION_RANGE"
	ErrSessionEnded        ErrCode = "SESSION_ENDED"

	// Drill
	ErrDrillItemNotFound ErrCode = "DRILL_ITEM_NOT_FOUND"

	// Rate limiting
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// Server
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	case ErrInvalidCredentials:
		return "Incorrect email or password."
	case ErrSessionInvalidated:
		return "Your login session has ended. Please sign in again."
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid or expired."

	case ErrForbidden:
		return "You do not have access to this resource."

	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrInvalidPayload:
		return "The request payload is invalid."

	case ErrNotFound:
		return "Resource not found."
	case ErrConflict:
		return "Resource already exists."

	case ErrPaperNotFound:
		return "Paper not found."
	case ErrPaperHasNoQuestions:
		return "This paper has no questions in the requested range."
	case ErrSessionNotFound:
		return "Session not found."
	case ErrSessionLoadFailed:
		return "Failed to load your session. Please try again."
	case ErrInvalidRange:
		return "The question range is invalid for this paper."
	case ErrSessionEnded:
		return "This session has already ended."

	case ErrDrillItemNotFound:
		return "Drill item not found."

	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
