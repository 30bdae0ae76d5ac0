package models

// ErrorResponse - стандартный JSON ответа об ошибке.
type ErrorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

// Коды ошибок API.
const (
	ErrCodeValidation       = "VALIDATION"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeConflict         = "CONFLICT"
	ErrCodeSessionCompleted = "SESSION_COMPLETED"
	ErrCodeNothingToRetry   = "NOTHING_TO_RETRY"
	ErrCodeRateLimited      = "RATE_LIMITED"
	ErrCodeInternal         = "INTERNAL"

	ErrCodeAIAuth            = "AI_AUTH"
	ErrCodeAITransport       = "AI_TRANSPORT"
	ErrCodeAIEmptyResponse   = "AI_EMPTY_RESPONSE"
	ErrCodeAIMalformedOutput = "AI_MALFORMED_OUTPUT"
)
