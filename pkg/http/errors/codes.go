package errors

// Error codes for standardized error responses
const (
	// Authentication errors
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeInvalidToken = "invalid_token"

	// Validation errors
	ErrCodeInvalidRequest   = "invalid_request"
	ErrCodeValidationFailed = "validation_failed"
	ErrCodeMissingField     = "missing_field"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Room errors
	ErrCodeRoomNotFound       = "room_not_found"
	ErrCodeInvalidRoomCode    = "invalid_room_code"
	ErrCodeAlreadyStarted     = "already_started"
	ErrCodeNotHost            = "not_host"
	ErrCodeNotAPlayer         = "not_a_player"
	ErrCodeNoCodeAvailable    = "no_code_available"
	ErrCodeRoomFull           = "room_full"

	// Session errors
	ErrCodeSessionUnavailable = "session_unavailable"

	// WebSocket errors
	ErrCodeInvalidPayload     = "invalid_payload"
	ErrCodeUnknownMessageType = "unknown_message_type"

	// Server errors
	ErrCodeInternalError = "internal_error"

	// Leaderboard errors
	ErrCodeLeaderboardFetchFailed = "leaderboard_fetch_failed"
	ErrCodeUnknownWindow          = "unknown_leaderboard_window"
	ErrCodeFeatureNotAvailable    = "feature_not_available"
)
