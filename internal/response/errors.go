package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrTokenRequired ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid  ErrCode = "TOKEN_INVALID"
	ErrTokenExpired  ErrCode = "TOKEN_EXPIRED"

	// ─── Gating ────────────────────────────────────────────────────────
	ErrAccessDenied      ErrCode = "ACCESS_DENIED"
	ErrCooldownActive    ErrCode = "COOLDOWN_ACTIVE"
	ErrGateAlreadyPassed ErrCode = "GATE_ALREADY_PASSED"

	// ─── Sessions ──────────────────────────────────────────────────────
	ErrSessionConflict ErrCode = "SESSION_CONFLICT"
	ErrInvalidSession  ErrCode = "INVALID_SESSION"

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
	// ─── Authentication ────────────────────────────────────────────────
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid."
	case ErrTokenExpired:
		return "The authentication token has expired."

	// ─── Gating ────────────────────────────────────────────────────────
	case ErrAccessDenied:
		return "A prerequisite has not been met yet."
	case ErrCooldownActive:
		return "A cooldown from a previous attempt is still active."
	case ErrGateAlreadyPassed:
		return "This assessment has already been passed."

	// ─── Sessions ──────────────────────────────────────────────────────
	case ErrSessionConflict:
		return "An active session already exists for this assessment. Submit or abandon it first."
	case ErrInvalidSession:
		return "The session is unknown, not yours, or no longer active."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "The ID format is invalid."
	case ErrInvalidPayload:
		return "The request payload is invalid."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "The resource was not found."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
