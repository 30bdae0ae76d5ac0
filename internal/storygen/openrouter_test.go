package storygen_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"khrafet/internal/storygen"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testAPIKey = "sk-or-test-key"

// countingTransport считает обращения к сети и ничего не отправляет.
type countingTransport struct {
	calls atomic.Int32
}

func (t *countingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	t.calls.Add(1)
	return nil, errors.New("network must not be used")
}

type capturedRequest struct {
	Method  string
	Path    string
	Header  http.Header
	Payload map[string]interface{}
}

func completionBody(content string) string {
	body := map[string]interface{}{
		"id":      "gen-123",
		"object":  "chat.completion",
		"created": 1718000000,
		"model":   storygen.DefaultModel,
		"choices": []map[string]interface{}{
			{"index": 0, "message": map[string]string{"role": "assistant", "content": content}, "finish_reason": "stop"},
		},
		"usage": map[string]int{"prompt_tokens": 120, "completion_tokens": 80, "total_tokens": 200},
	}
	data, _ := json.Marshal(body)
	return string(data)
}

// newFakeOpenRouter поднимает сервер, который записывает запрос и отвечает status/body.
func newFakeOpenRouter(t *testing.T, status int, body string) (*httptest.Server, *capturedRequest) {
	t.Helper()
	captured := &capturedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.Method = r.Method
		captured.Path = r.URL.Path
		captured.Header = r.Header.Clone()
		data, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.NoError(t, json.Unmarshal(data, &captured.Payload))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, captured
}

func TestOpenRouterCompleter_RequestContract(t *testing.T) {
	srv, captured := newFakeOpenRouter(t, http.StatusOK, completionBody(`{"text":"A","choices":["x","y","z"]}`))

	completer := storygen.NewOpenRouterCompleter(storygen.OpenRouterOptions{
		APIKey:   testAPIKey,
		BaseURL:  srv.URL,
		SiteURL:  "https://khrafet.example",
		SiteName: "Khrafet",
	}, zap.NewNop())

	prompt := storygen.BuildPrompt("fantasy", "funny", "", "")
	completion, err := completer.Complete(context.Background(), prompt)
	require.NoError(t, err)

	assert.Equal(t, `{"text":"A","choices":["x","y","z"]}`, completion.Content)
	assert.Equal(t, 120, completion.Usage.PromptTokens)
	assert.Equal(t, 80, completion.Usage.CompletionTokens)
	assert.False(t, completion.Usage.Estimated)

	assert.Equal(t, http.MethodPost, captured.Method)
	assert.Equal(t, "/chat/completions", captured.Path)
	assert.Equal(t, "Bearer "+testAPIKey, captured.Header.Get("Authorization"))
	assert.Contains(t, captured.Header.Get("Content-Type"), "application/json")
	assert.Equal(t, "https://khrafet.example", captured.Header.Get("HTTP-Referer"))
	assert.Equal(t, "Khrafet", captured.Header.Get("X-Title"))

	assert.Equal(t, storygen.DefaultModel, captured.Payload["model"])
	assert.InDelta(t, 0.8, captured.Payload["temperature"], 1e-6)
	assert.EqualValues(t, 1000, captured.Payload["max_tokens"])

	messages, ok := captured.Payload["messages"].([]interface{})
	require.True(t, ok)
	require.Len(t, messages, 1)
	msg := messages[0].(map[string]interface{})
	assert.Equal(t, "user", msg["role"])
	assert.Equal(t, prompt, msg["content"])
}

func TestOpenRouterCompleter_NoAttributionHeadersWhenUnset(t *testing.T) {
	srv, captured := newFakeOpenRouter(t, http.StatusOK, completionBody(`{"text":"A","choices":[]}`))

	completer := storygen.NewOpenRouterCompleter(storygen.OpenRouterOptions{APIKey: testAPIKey, BaseURL: srv.URL}, nil)
	_, err := completer.Complete(context.Background(), "prompt")
	require.NoError(t, err)

	_, hasReferer := captured.Header["Http-Referer"]
	_, hasTitle := captured.Header["X-Title"]
	assert.False(t, hasReferer)
	assert.False(t, hasTitle)
}

func TestOpenRouterCompleter_MissingKeyFailsBeforeNetwork(t *testing.T) {
	for _, key := range []string{"", "   "} {
		transport := &countingTransport{}
		completer := storygen.NewOpenRouterCompleter(storygen.OpenRouterOptions{
			APIKey:     key,
			HTTPClient: &http.Client{Transport: transport},
		}, zap.NewNop())

		_, err := completer.Complete(context.Background(), "prompt")

		require.Error(t, err)
		assert.True(t, errors.Is(err, storygen.ErrAuth))
		assert.Equal(t, storygen.KindAuth, storygen.KindOf(err))
		assert.False(t, storygen.IsRetryable(err))
		assert.Equal(t, int32(0), transport.calls.Load(), "no request may be attempted without a key")
	}
}

func TestOpenRouterCompleter_NonSuccessStatusIsTransportError(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"plain text 500", http.StatusInternalServerError, "upstream exploded", "upstream exploded"},
		{"openai style 429", http.StatusTooManyRequests, `{"error":{"message":"Rate limit exceeded: free-models-per-day","code":429}}`, "Rate limit exceeded"},
		{"unauthorized key", http.StatusUnauthorized, `{"error":{"message":"No auth credentials found","code":401}}`, "No auth credentials found"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv, _ := newFakeOpenRouter(t, tc.status, tc.body)
			completer := storygen.NewOpenRouterCompleter(storygen.OpenRouterOptions{APIKey: testAPIKey, BaseURL: srv.URL}, zap.NewNop())

			_, err := completer.Complete(context.Background(), "prompt")
			require.Error(t, err)

			var genErr *storygen.GenerationError
			require.ErrorAs(t, err, &genErr)
			assert.Equal(t, storygen.KindTransport, genErr.Kind)
			assert.Equal(t, tc.status, genErr.StatusCode)
			assert.Contains(t, genErr.Body, tc.want)
			assert.True(t, genErr.Retryable())
		})
	}
}

func TestOpenRouterCompleter_UnreachableEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	completer := storygen.NewOpenRouterCompleter(storygen.OpenRouterOptions{APIKey: testAPIKey, BaseURL: url}, zap.NewNop())
	_, err := completer.Complete(context.Background(), "prompt")

	var genErr *storygen.GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, storygen.KindTransport, genErr.Kind)
	assert.Equal(t, 0, genErr.StatusCode)
}

func TestOpenRouterCompleter_EmptyContent(t *testing.T) {
	noChoices := `{"id":"gen-1","object":"chat.completion","model":"m","choices":[],"usage":{"prompt_tokens":1,"completion_tokens":0,"total_tokens":1}}`

	for name, body := range map[string]string{
		"no choices":    noChoices,
		"empty content": completionBody(""),
		"blank content": completionBody("  \n "),
	} {
		t.Run(name, func(t *testing.T) {
			srv, _ := newFakeOpenRouter(t, http.StatusOK, body)
			completer := storygen.NewOpenRouterCompleter(storygen.OpenRouterOptions{APIKey: testAPIKey, BaseURL: srv.URL}, zap.NewNop())

			_, err := completer.Complete(context.Background(), "prompt")
			assert.True(t, errors.Is(err, storygen.ErrEmptyResponse))
			assert.True(t, storygen.IsRetryable(err))
		})
	}
}

func TestOpenRouterCompleter_CustomModel(t *testing.T) {
	srv, captured := newFakeOpenRouter(t, http.StatusOK, completionBody(`{"text":"A","choices":[]}`))
	completer := storygen.NewOpenRouterCompleter(storygen.OpenRouterOptions{
		APIKey:  testAPIKey,
		BaseURL: srv.URL + "/",
		Model:   "meta-llama/llama-3.3-70b-instruct:free",
	}, zap.NewNop())

	_, err := completer.Complete(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "meta-llama/llama-3.3-70b-instruct:free", captured.Payload["model"])
	assert.Equal(t, "/chat/completions", captured.Path)
	assert.Equal(t, "meta-llama/llama-3.3-70b-instruct:free", completer.Model())
}
