package storygen

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const providerOllama = "ollama"

// OllamaCompleter реализует Completer через нативный API Ollama. Ключ не нужен.
type OllamaCompleter struct {
	client *api.Client
	model  string
	logger *zap.Logger
}

// NewOllamaCompleter создаёт клиент Ollama. baseURL указывается без суффикса /v1.
func NewOllamaCompleter(baseURL, model string, httpClient *http.Client, logger *zap.Logger) (*OllamaCompleter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	ollamaBaseURL := strings.TrimSuffix(strings.TrimSuffix(baseURL, "/"), "/v1")
	parsedURL, err := url.Parse(ollamaBaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Ollama base URL '%s': %w", ollamaBaseURL, err)
	}

	logger.Info("Ollama client created", zap.String("base_url", ollamaBaseURL), zap.String("model", model))
	return &OllamaCompleter{
		client: api.NewClient(parsedURL, httpClient),
		model:  model,
		logger: logger.Named("ollama"),
	}, nil
}

// Complete отправляет prompt одним user-сообщением без стриминга.
func (c *OllamaCompleter) Complete(ctx context.Context, prompt string) (Completion, error) {
	stream := false
	req := &api.ChatRequest{
		Model:    c.model,
		Messages: []api.Message{{Role: "user", Content: prompt}},
		Stream:   &stream,
		Options: map[string]interface{}{
			"temperature": Temperature,
			"num_predict": MaxTokens,
		},
	}

	startTime := time.Now()
	var content strings.Builder
	var last api.ChatResponse
	err := c.client.Chat(ctx, req, func(r api.ChatResponse) error {
		content.WriteString(r.Message.Content)
		last = r
		return nil
	})
	duration := time.Since(startTime)
	aiRequestDuration.With(prometheus.Labels{"provider": providerOllama, "model": c.model}).Observe(duration.Seconds())

	if err != nil {
		var statusErr api.StatusError
		status, body := 0, ""
		if errors.As(err, &statusErr) {
			status, body = statusErr.StatusCode, statusErr.ErrorMessage
		}
		c.logger.Warn("Ollama chat request failed", zap.Duration("duration", duration), zap.Int("status_code", status), zap.Error(err))
		aiRequestsTotal.With(prometheus.Labels{"provider": providerOllama, "model": c.model, "status": "error_transport"}).Inc()
		return Completion{}, newTransportError(status, body, err)
	}

	text := content.String()
	if strings.TrimSpace(text) == "" {
		c.logger.Warn("Ollama returned no content", zap.Duration("duration", duration))
		aiRequestsTotal.With(prometheus.Labels{"provider": providerOllama, "model": c.model, "status": "error_empty_response"}).Inc()
		return Completion{}, newEmptyResponseError()
	}

	usage := UsageInfo{
		PromptTokens:     last.PromptEvalCount,
		CompletionTokens: last.EvalCount,
		TotalTokens:      last.PromptEvalCount + last.EvalCount,
	}
	aiRequestsTotal.With(prometheus.Labels{"provider": providerOllama, "model": c.model, "status": "success"}).Inc()
	observeUsage(providerOllama, c.model, usage)
	c.logger.Info("Ollama chat response received", zap.Duration("duration", duration), zap.Int("content_length", len(text)))

	return Completion{Content: text, Model: c.model, Usage: usage}, nil
}
