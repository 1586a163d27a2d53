package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Quiz session ──────────────────────────────────────────────────
	ErrBackendUnavailable ErrCode = "BACKEND_UNAVAILABLE"
	ErrQuizNotSelected    ErrCode = "QUIZ_NOT_SELECTED"
	ErrInvalidState       ErrCode = "INVALID_STATE"
	ErrInvalidOption      ErrCode = "INVALID_OPTION"
	ErrSessionClosed      ErrCode = "SESSION_CLOSED"

	// ─── Admin ─────────────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrSessionExpired     ErrCode = "SESSION_EXPIRED"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Quiz session ──────────────────────────────────────────────────
	case ErrBackendUnavailable:
		return "Failed to load data. Please try again later."
	case ErrQuizNotSelected:
		return "No quiz selected. Please choose a quiz from the quiz list."
	case ErrInvalidState:
		return "That action is not available right now."
	case ErrInvalidOption:
		return "That option does not belong to the current question."
	case ErrSessionClosed:
		return "The request ended before the quiz finished loading."

	// ─── Admin ─────────────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Invalid credentials"
	case ErrSessionExpired:
		return "Session expired. Please login again."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "The submitted data is invalid."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrInvalidPayload:
		return "Request body is malformed."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "The requested resource was not found."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please slow down."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."

	default:
		return "An unknown error occurred."
	}
}
