package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func responsesPayload(text string) string {
	b, _ := json.Marshal(map[string]any{
		"output": []any{
			map[string]any{
				"type": "message",
				"role": "assistant",
				"content": []any{
					map[string]any{"type": "output_text", "text": text},
				},
			},
		},
	})
	return string(b)
}

func newTestClient(baseURL string) *OpenAIClient {
	return &OpenAIClient{
		APIKey:      "test-key",
		Model:       "gpt-4.1-mini",
		BaseURL:     baseURL,
		MaxAttempts: 3,
		BackoffStep: time.Millisecond,
		HTTPClient:  &http.Client{},
	}
}

func TestGenerateRetriesTransientErrors(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, `{"error":{"message":"server_error"}}`)
			return
		}
		fmt.Fprint(w, responsesPayload(`{"summary":"ok"}`))
	}))
	defer srv.Close()

	doc, err := newTestClient(srv.URL).Generate(context.Background(), "sys", "user")
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, "ok", doc["summary"])
}

func TestGenerateDoesNotRetryFatalErrors(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"message":"invalid model"}}`)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Generate(context.Background(), "sys", "user")
	require.Error(t, err)
	assert.Equal(t, 1, calls)

	var ge *GenerationError
	require.True(t, errors.As(err, &ge))
	assert.Equal(t, http.StatusBadRequest, ge.Status)
	assert.False(t, ge.Retryable)
}

func TestGenerateExhaustsAttempts(t *testing.T) {
	var hits []time.Time
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits = append(hits, time.Now())
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"message":"rate limit exceeded"}}`)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	c.BackoffStep = 50 * time.Millisecond

	_, err := c.Generate(context.Background(), "sys", "user")
	require.Error(t, err)
	require.Len(t, hits, 3)

	// linear backoff: the second gap is strictly longer than the first
	gap1 := hits[1].Sub(hits[0])
	gap2 := hits[2].Sub(hits[1])
	assert.GreaterOrEqual(t, gap1, 50*time.Millisecond)
	assert.Greater(t, gap2, gap1)

	var ge *GenerationError
	require.True(t, errors.As(err, &ge))
	assert.Equal(t, http.StatusTooManyRequests, ge.Status)
	assert.True(t, ge.Retryable)
}

func TestGenerateSendsResponsesRequest(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotBody)
		fmt.Fprint(w, responsesPayload(`{"summary":"ok"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Generate(context.Background(), "the instructions", "the input")
	require.NoError(t, err)
	assert.Equal(t, "/responses", gotPath)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "gpt-4.1-mini", gotBody["model"])
	assert.Equal(t, "the instructions", gotBody["instructions"])
	assert.Equal(t, "the input", gotBody["input"])
}

func TestGenerateToleratesFencedOutput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, responsesPayload("```json\n{\"summary\":\"fenced\"}\n```"))
	}))
	defer srv.Close()

	doc, err := newTestClient(srv.URL).Generate(context.Background(), "sys", "user")
	require.NoError(t, err)
	assert.Equal(t, "fenced", doc["summary"])
}

func TestGenerateWithoutAPIKeyFailsFast(t *testing.T) {
	c := &OpenAIClient{Model: "gpt-4.1-mini"}
	_, err := c.Generate(context.Background(), "sys", "user")
	require.Error(t, err)

	var ge *GenerationError
	require.True(t, errors.As(err, &ge))
	assert.False(t, ge.Retryable)
}

func TestGenerateStopsWhenContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	c.BackoffStep = 500 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := c.Generate(ctx, "sys", "user")
	require.Error(t, err)
	// cancelled during backoff, well before three full delays
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestClassifyStatus(t *testing.T) {
	assert.True(t, classifyStatus(429, "").Retryable)
	assert.True(t, classifyStatus(408, "").Retryable)
	assert.True(t, classifyStatus(500, "").Retryable)
	assert.True(t, classifyStatus(503, "").Retryable)
	assert.False(t, classifyStatus(400, "bad request").Retryable)
	assert.False(t, classifyStatus(401, "unauthorized").Retryable)
	// transient vocabulary upgrades an otherwise fatal status
	assert.True(t, classifyStatus(400, "The engine is overloaded, try again").Retryable)
}

func TestIsTransientText(t *testing.T) {
	assert.True(t, isTransientText("Rate limit reached for requests"))
	assert.True(t, isTransientText("upstream request timed out"))
	assert.False(t, isTransientText("invalid api key"))
	assert.False(t, isTransientText(""))
}

func TestDecodeDocument(t *testing.T) {
	doc, err := decodeDocument(`{"summary":"plain"}`)
	require.NoError(t, err)
	assert.Equal(t, "plain", doc["summary"])

	doc, err = decodeDocument("Here is your reading:\n{\"summary\":\"embedded\"}\nHope that helps!")
	require.NoError(t, err)
	assert.Equal(t, "embedded", doc["summary"])

	_, err = decodeDocument("no json here at all")
	require.Error(t, err)
}

func TestExtractOutputText(t *testing.T) {
	text, err := extractOutputText([]byte(responsesPayload("hello")))
	require.NoError(t, err)
	assert.Equal(t, "hello", text)

	// reasoning items and empty text are skipped
	payload := `{"output":[{"type":"reasoning"},{"type":"message","role":"assistant","content":[{"type":"output_text","text":""},{"type":"output_text","text":"real"}]}]}`
	text, err = extractOutputText([]byte(payload))
	require.NoError(t, err)
	assert.Equal(t, "real", text)

	_, err = extractOutputText([]byte(`{"output":[]}`))
	require.Error(t, err)
}

func TestTruncateBody(t *testing.T) {
	long := make([]byte, 500)
	for i := range long {
		long[i] = 'x'
	}
	got := truncateBody(string(long))
	assert.Len(t, got, 403)
	assert.Equal(t, "short", truncateBody("  short  "))
}
