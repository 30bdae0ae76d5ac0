package storygen

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Generator - операция генерации главы: промт -> один запрос к модели -> разбор ответа.
// Состояния между вызовами нет, безопасен для параллельного использования.
type Generator struct {
	completer  Completer
	strategies []ExtractionStrategy
	logger     *zap.Logger
}

// NewGenerator создаёт Generator поверх указанного транспорта.
func NewGenerator(completer Completer, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		completer:  completer,
		strategies: DefaultStrategies,
		logger:     logger.Named("generator"),
	}
}

// GenerateStoryChunk строит промт, делает ровно один запрос и разбирает ответ.
// Ошибки: *GenerationError вида Auth, Transport, EmptyResponse или MalformedOutput.
func (g *Generator) GenerateStoryChunk(ctx context.Context, req GenerationRequest) (StoryChunk, error) {
	completion, err := g.completer.Complete(ctx, req.Prompt())
	if err != nil {
		return StoryChunk{}, err
	}

	chunk, strategy, err := ParseWithStrategies(completion.Content, g.strategies)
	if err != nil {
		parseResultsTotal.With(prometheus.Labels{"strategy": "failed"}).Inc()
		g.logger.Warn("Model output could not be parsed",
			zap.String("genre", req.Genre),
			zap.Int("content_length", len(completion.Content)),
			zap.Error(err),
		)
		return StoryChunk{}, err
	}
	parseResultsTotal.With(prometheus.Labels{"strategy": strategy}).Inc()

	if strategy != DefaultStrategies[0].Name {
		g.logger.Debug("Model output recovered by fallback strategy", zap.String("strategy", strategy))
	}
	return chunk, nil
}

// GenerateChapter генерирует главу с номером priorCount+1.
func (g *Generator) GenerateChapter(ctx context.Context, req GenerationRequest, priorCount int) (Chapter, error) {
	chunk, err := g.GenerateStoryChunk(ctx, req)
	if err != nil {
		return Chapter{}, err
	}
	return AssembleChapter(priorCount, chunk), nil
}
