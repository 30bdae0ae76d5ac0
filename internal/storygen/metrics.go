package storygen

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	aiRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "khrafet_ai_requests_total",
			Help: "Total number of chat-completion requests by outcome.",
		},
		[]string{"provider", "model", "status"}, // status: success, error_auth, error_transport, error_empty_response
	)
	aiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "khrafet_ai_request_duration_seconds",
			Help:    "Duration of chat-completion round trips.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 60, 90, 120},
		},
		[]string{"provider", "model"},
	)
	aiPromptTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "khrafet_ai_prompt_tokens",
			Help:    "Prompt tokens per request.",
			Buckets: prometheus.ExponentialBuckets(64, 2, 10), // 64 .. 32768
		},
		[]string{"provider", "model"},
	)
	aiCompletionTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "khrafet_ai_completion_tokens",
			Help:    "Completion tokens per request.",
			Buckets: prometheus.LinearBuckets(100, 100, 10), // 100 .. 1000 (max_tokens)
		},
		[]string{"provider", "model"},
	)
	parseResultsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "khrafet_ai_parse_results_total",
			Help: "Model output parse outcomes by winning extraction strategy.",
		},
		[]string{"strategy"}, // strict, brace-span, failed
	)
)

func observeUsage(provider, model string, usage UsageInfo) {
	if usage.TotalTokens == 0 {
		return
	}
	labels := prometheus.Labels{"provider": provider, "model": model}
	aiPromptTokens.With(labels).Observe(float64(usage.PromptTokens))
	aiCompletionTokens.With(labels).Observe(float64(usage.CompletionTokens))
}
