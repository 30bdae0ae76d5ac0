package handler

import (
	"errors"
	"fmt"
	"net/http"

	"khrafet/internal/models"
	"khrafet/internal/session"
	"khrafet/internal/storygen"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func handleServiceError(c *gin.Context, logger *zap.Logger, err error) {
	var statusCode int
	var errResp models.ErrorResponse

	var genErr *storygen.GenerationError
	if errors.As(err, &genErr) {
		statusCode, errResp = generationErrorResponse(genErr)
		logger.Warn("Story generation failed",
			zap.String("kind", genErr.Kind.String()),
			zap.Int("upstream_status", genErr.StatusCode),
			zap.String("upstream_body", genErr.Body),
			zap.Error(err),
		)
		c.AbortWithStatusJSON(statusCode, errResp)
		return
	}

	switch {
	case errors.Is(err, session.ErrValidation), errors.Is(err, session.ErrChoiceNotFound):
		statusCode = http.StatusBadRequest
		errResp = models.ErrorResponse{Code: models.ErrCodeValidation, Message: err.Error()}
	case errors.Is(err, session.ErrSessionNotFound):
		statusCode = http.StatusNotFound
		errResp = models.ErrorResponse{Code: models.ErrCodeNotFound, Message: "Session not found or expired"}
	case errors.Is(err, session.ErrGenerationInProgress):
		statusCode = http.StatusConflict
		errResp = models.ErrorResponse{Code: models.ErrCodeConflict, Message: "A chapter is already being generated for this session", Retryable: true}
	case errors.Is(err, session.ErrSessionCompleted):
		statusCode = http.StatusConflict
		errResp = models.ErrorResponse{Code: models.ErrCodeSessionCompleted, Message: "The story is already complete"}
	case errors.Is(err, session.ErrNothingToRetry):
		statusCode = http.StatusConflict
		errResp = models.ErrorResponse{Code: models.ErrCodeNothingToRetry, Message: "There is no failed chapter to retry"}
	default:
		_ = c.Error(err)
		logger.Error("Unhandled internal error in handleServiceError", zap.Error(err))
		statusCode = http.StatusInternalServerError
		errResp = models.ErrorResponse{Code: models.ErrCodeInternal, Message: "An unexpected internal error occurred"}
	}

	c.AbortWithStatusJSON(statusCode, errResp)
}

// generationErrorResponse сопоставляет каждый вид GenerationError со статусом и кодом.
func generationErrorResponse(genErr *storygen.GenerationError) (int, models.ErrorResponse) {
	switch genErr.Kind {
	case storygen.KindAuth:
		return http.StatusServiceUnavailable, models.ErrorResponse{
			Code:    models.ErrCodeAIAuth,
			Message: "Story generation is not configured: missing AI API key",
		}
	case storygen.KindTransport:
		msg := "AI service request failed"
		if genErr.StatusCode != 0 {
			msg = fmt.Sprintf("AI service request failed with status %d", genErr.StatusCode)
		}
		return http.StatusBadGateway, models.ErrorResponse{Code: models.ErrCodeAITransport, Message: msg, Retryable: true}
	case storygen.KindEmptyResponse:
		return http.StatusBadGateway, models.ErrorResponse{
			Code:      models.ErrCodeAIEmptyResponse,
			Message:   "AI service returned an empty response",
			Retryable: true,
		}
	case storygen.KindMalformedOutput:
		return http.StatusBadGateway, models.ErrorResponse{
			Code:      models.ErrCodeAIMalformedOutput,
			Message:   storygen.MalformedOutputMessage,
			Retryable: true,
		}
	default:
		return http.StatusInternalServerError, models.ErrorResponse{Code: models.ErrCodeInternal, Message: "An unexpected internal error occurred"}
	}
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeValidation, Message: msg})
}
