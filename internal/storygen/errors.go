package storygen

import (
	"errors"
	"fmt"
)

// Kind - вид ошибки генерации. Набор закрыт: Auth, Transport, EmptyResponse, MalformedOutput.
type Kind int

const (
	KindUnknown Kind = iota
	KindAuth
	KindTransport
	KindEmptyResponse
	KindMalformedOutput
)

func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindTransport:
		return "transport"
	case KindEmptyResponse:
		return "empty_response"
	case KindMalformedOutput:
		return "malformed_output"
	default:
		return "unknown"
	}
}

// Сентинелы для errors.Is. *GenerationError сопоставляется с ними по Kind.
var (
	ErrAuth            = errors.New("ai credential is missing")
	ErrTransport       = errors.New("ai request failed")
	ErrEmptyResponse   = errors.New("ai returned an empty response")
	ErrMalformedOutput = errors.New("ai returned malformed output")
)

// MalformedOutputMessage - сообщение для пользователя, когда ответ модели не удалось разобрать.
const MalformedOutputMessage = "Failed to parse AI response. The AI did not return valid JSON format."

// GenerationError описывает неудачную генерацию главы.
// StatusCode и Body заполняются только для KindTransport (0 и "", если ответа не было вовсе).
type GenerationError struct {
	Kind       Kind
	Message    string
	StatusCode int
	Body       string
	Err        error
}

func (e *GenerationError) Error() string {
	msg := e.Message
	if e.Kind == KindTransport && e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Is позволяет писать errors.Is(err, storygen.ErrTransport) вместо type switch.
func (e *GenerationError) Is(target error) bool {
	return target == sentinelFor(e.Kind)
}

// Retryable сообщает, имеет ли смысл повторить тот же запрос без изменения конфигурации.
func (e *GenerationError) Retryable() bool {
	switch e.Kind {
	case KindTransport, KindEmptyResponse, KindMalformedOutput:
		return true
	default:
		return false
	}
}

func sentinelFor(k Kind) error {
	switch k {
	case KindAuth:
		return ErrAuth
	case KindTransport:
		return ErrTransport
	case KindEmptyResponse:
		return ErrEmptyResponse
	case KindMalformedOutput:
		return ErrMalformedOutput
	default:
		return nil
	}
}

// KindOf возвращает вид ошибки генерации или KindUnknown, если err не *GenerationError.
func KindOf(err error) Kind {
	var genErr *GenerationError
	if errors.As(err, &genErr) {
		return genErr.Kind
	}
	return KindUnknown
}

// IsRetryable - сокращение для errors.As + Retryable.
func IsRetryable(err error) bool {
	var genErr *GenerationError
	if errors.As(err, &genErr) {
		return genErr.Retryable()
	}
	return false
}

func newAuthError(msg string) *GenerationError {
	return &GenerationError{Kind: KindAuth, Message: msg}
}

func newTransportError(statusCode int, body string, cause error) *GenerationError {
	return &GenerationError{
		Kind:       KindTransport,
		Message:    "ai request did not complete successfully",
		StatusCode: statusCode,
		Body:       body,
		Err:        cause,
	}
}

func newEmptyResponseError() *GenerationError {
	return &GenerationError{Kind: KindEmptyResponse, Message: "ai response contained no message content"}
}

func newMalformedOutputError(cause error) *GenerationError {
	return &GenerationError{Kind: KindMalformedOutput, Message: MalformedOutputMessage, Err: cause}
}
