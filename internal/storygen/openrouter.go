package storygen

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	openaigo "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const (
	DefaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"
	DefaultModel             = "deepseek/deepseek-r1-0528:free"

	providerOpenRouter = "openrouter"

	// Сколько байт тела ошибки сохраняем в TransportError.
	maxErrorBodyBytes = 64 << 10
)

// OpenRouterOptions - настройки транспорта OpenRouter.
type OpenRouterOptions struct {
	APIKey   string
	BaseURL  string // по умолчанию DefaultOpenRouterBaseURL
	Model    string // по умолчанию DefaultModel
	SiteURL  string // HTTP-Referer, если не пусто
	SiteName string // X-Title, если не пусто
	// HTTPClient - базовый клиент (таймаут, транспорт). Не изменяется: используется его копия.
	HTTPClient *http.Client
}

// OpenRouterCompleter реализует Completer поверх chat completions OpenRouter через go-openai.
type OpenRouterCompleter struct {
	client *openaigo.Client
	apiKey string
	model  string
	logger *zap.Logger
}

// NewOpenRouterCompleter создаёт клиент. Пустой APIKey допустим: Complete вернёт AuthError без сетевого вызова.
func NewOpenRouterCompleter(opts OpenRouterOptions, logger *zap.Logger) *OpenRouterCompleter {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultOpenRouterBaseURL
	}
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var httpClient http.Client
	if opts.HTTPClient != nil {
		httpClient = *opts.HTTPClient
	}
	httpClient.Transport = &attributionTransport{
		next:     httpClient.Transport,
		referer:  opts.SiteURL,
		siteName: opts.SiteName,
	}

	clientCfg := openaigo.DefaultConfig(opts.APIKey)
	clientCfg.BaseURL = strings.TrimSuffix(opts.BaseURL, "/")
	clientCfg.HTTPClient = &httpClient

	logger.Info("OpenRouter client created",
		zap.String("base_url", clientCfg.BaseURL),
		zap.String("model", opts.Model),
		zap.Duration("timeout", httpClient.Timeout),
		zap.Bool("api_key_configured", opts.APIKey != ""),
	)

	return &OpenRouterCompleter{
		client: openaigo.NewClientWithConfig(clientCfg),
		apiKey: opts.APIKey,
		model:  opts.Model,
		logger: logger.Named("openrouter"),
	}
}

// Model возвращает идентификатор модели.
func (c *OpenRouterCompleter) Model() string { return c.model }

// Complete отправляет prompt одним user-сообщением с temperature 0.8 и max_tokens 1000.
func (c *OpenRouterCompleter) Complete(ctx context.Context, prompt string) (Completion, error) {
	if strings.TrimSpace(c.apiKey) == "" {
		aiRequestsTotal.With(prometheus.Labels{"provider": providerOpenRouter, "model": c.model, "status": "error_auth"}).Inc()
		return Completion{}, newAuthError("OpenRouter API key is not configured")
	}

	capture := &responseCapture{}
	ctx = context.WithValue(ctx, responseCaptureKey{}, capture)

	startTime := time.Now()
	c.logger.Debug("Sending chat completion request", zap.String("model", c.model), zap.Int("prompt_bytes", len(prompt)))

	resp, err := c.client.CreateChatCompletion(ctx, openaigo.ChatCompletionRequest{
		Model: c.model,
		Messages: []openaigo.ChatCompletionMessage{
			{Role: openaigo.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: Temperature,
		MaxTokens:   MaxTokens,
	})
	duration := time.Since(startTime)
	aiRequestDuration.With(prometheus.Labels{"provider": providerOpenRouter, "model": c.model}).Observe(duration.Seconds())

	if err != nil {
		genErr := transportErrorFrom(err, capture)
		c.logger.Warn("Chat completion request failed",
			zap.Duration("duration", duration),
			zap.Int("status_code", genErr.StatusCode),
			zap.Error(err),
		)
		aiRequestsTotal.With(prometheus.Labels{"provider": providerOpenRouter, "model": c.model, "status": "error_transport"}).Inc()
		return Completion{}, genErr
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		c.logger.Warn("Chat completion returned no content", zap.Duration("duration", duration), zap.Int("choices", len(resp.Choices)))
		aiRequestsTotal.With(prometheus.Labels{"provider": providerOpenRouter, "model": c.model, "status": "error_empty_response"}).Inc()
		return Completion{}, newEmptyResponseError()
	}

	content := resp.Choices[0].Message.Content
	usage := UsageInfo{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}
	if usage.TotalTokens == 0 {
		if estimated, estErr := estimateUsage(prompt, content); estErr == nil {
			usage = estimated
		} else {
			c.logger.Debug("Could not estimate token usage", zap.Error(estErr))
		}
	}

	aiRequestsTotal.With(prometheus.Labels{"provider": providerOpenRouter, "model": c.model, "status": "success"}).Inc()
	observeUsage(providerOpenRouter, c.model, usage)
	c.logger.Info("Chat completion received",
		zap.Duration("duration", duration),
		zap.Int("content_length", len(content)),
		zap.Int("prompt_tokens", usage.PromptTokens),
		zap.Int("completion_tokens", usage.CompletionTokens),
		zap.Bool("usage_estimated", usage.Estimated),
	)

	model := resp.Model
	if model == "" {
		model = c.model
	}
	return Completion{Content: content, Model: model, Usage: usage}, nil
}

// transportErrorFrom собирает TransportError. Статус и тело берутся из перехваченного ответа,
// а если его нет - из ошибок go-openai.
func transportErrorFrom(err error, capture *responseCapture) *GenerationError {
	status, body := capture.status, capture.body

	var apiErr *openaigo.APIError
	var reqErr *openaigo.RequestError
	switch {
	case status != 0:
	case errors.As(err, &apiErr):
		status, body = apiErr.HTTPStatusCode, apiErr.Message
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}
	return newTransportError(status, body, err)
}

// --- Attribution transport ---

type responseCaptureKey struct{}

// responseCapture запоминает статус и тело неуспешного ответа для TransportError.
type responseCapture struct {
	status int
	body   string
}

// attributionTransport добавляет заголовки атрибуции OpenRouter и перехватывает тело ошибок.
type attributionTransport struct {
	next     http.RoundTripper
	referer  string
	siteName string
}

func (t *attributionTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	next := t.next
	if next == nil {
		next = http.DefaultTransport
	}

	if t.referer != "" || t.siteName != "" {
		req = req.Clone(req.Context())
		if t.referer != "" {
			req.Header.Set("HTTP-Referer", t.referer)
		}
		if t.siteName != "" {
			req.Header.Set("X-Title", t.siteName)
		}
	}

	resp, err := next.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	capture, ok := req.Context().Value(responseCaptureKey{}).(*responseCapture)
	if !ok || (resp.StatusCode >= 200 && resp.StatusCode < 300) {
		return resp, nil
	}

	// Читаем тело и подменяем его копией, чтобы go-openai смог разобрать ошибку.
	data, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	resp.Body.Close()
	if readErr != nil {
		return nil, readErr
	}
	resp.Body = io.NopCloser(bytes.NewReader(data))
	capture.status = resp.StatusCode
	capture.body = string(data)
	return resp, nil
}
