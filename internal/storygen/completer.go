package storygen

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"khrafet/internal/config"

	"github.com/pkoukk/tiktoken-go"
	"go.uber.org/zap"
)

// Параметры сэмплинга фиксированы для всех провайдеров.
const (
	Temperature = 0.8
	MaxTokens   = 1000
)

// UsageInfo содержит информацию об использовании токенов.
type UsageInfo struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Estimated        bool // true, если провайдер не вернул usage и токены посчитаны локально
}

// Completion - сырой ответ модели на один промт.
type Completion struct {
	Content string
	Model   string
	Usage   UsageInfo
}

// Completer отправляет один промт как единственное user-сообщение и возвращает текст ответа.
// Реализации возвращают только *GenerationError вида Auth, Transport или EmptyResponse.
type Completer interface {
	Complete(ctx context.Context, prompt string) (Completion, error)
}

// NewCompleter создаёт транспорт по cfg.AIClientType.
func NewCompleter(cfg *config.Config, logger *zap.Logger) (Completer, error) {
	httpClient := &http.Client{Timeout: cfg.AITimeout}

	switch cfg.AIClientType {
	case config.ClientTypeOpenRouter:
		return NewOpenRouterCompleter(OpenRouterOptions{
			APIKey:     cfg.AIAPIKey,
			BaseURL:    cfg.AIBaseURL,
			Model:      cfg.AIModel,
			SiteURL:    cfg.SiteURL,
			SiteName:   cfg.SiteName,
			HTTPClient: httpClient,
		}, logger), nil
	case config.ClientTypeOllama:
		return NewOllamaCompleter(cfg.AIBaseURL, cfg.AIModel, httpClient, logger)
	default:
		return nil, fmt.Errorf("unsupported AI client type: %s", cfg.AIClientType)
	}
}

var cl100k = sync.OnceValues(func() (*tiktoken.Tiktoken, error) {
	return tiktoken.GetEncoding("cl100k_base")
})

// estimateUsage считает токены локально, когда провайдер не прислал usage.
// Для моделей OpenRouter точного токенизатора нет, cl100k даёт приемлемую оценку.
func estimateUsage(prompt, completion string) (UsageInfo, error) {
	enc, err := cl100k()
	if err != nil {
		return UsageInfo{}, err
	}
	p := len(enc.Encode(prompt, nil, nil))
	c := len(enc.Encode(completion, nil, nil))
	return UsageInfo{PromptTokens: p, CompletionTokens: c, TotalTokens: p + c, Estimated: true}, nil
}
