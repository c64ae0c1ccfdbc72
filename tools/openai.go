package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// GenerationError classifies a failed provider call. Retryable errors are
// transient (rate limit, 5xx, timeout); everything else is fatal and must not
// be retried.
type GenerationError struct {
	Status    int
	Retryable bool
	Message   string
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("openai error (status=%d retryable=%v): %s", e.Status, e.Retryable, e.Message)
}

// transientVocabulary marks provider error text treated as retryable even
// when the status code alone is inconclusive.
var transientVocabulary = []string{
	"rate limit",
	"rate_limit",
	"overloaded",
	"temporarily",
	"timeout",
	"timed out",
	"connection reset",
	"try again",
	"server_error",
	"service unavailable",
}

// OpenAIClient calls the Responses API and returns the model output as a
// parsed JSON document. Each attempt runs under its own timeout, clamped
// below the caller's deadline, so a retry burst can never outlive the request.
type OpenAIClient struct {
	APIKey  string
	Model   string
	BaseURL string

	// MaxAttempts caps the attempt count (default 3). BackoffStep is the
	// linear backoff unit: delay = attempt * BackoffStep + jitter.
	MaxAttempts int
	BackoffStep time.Duration

	// AttemptTimeout bounds each provider call (default 55s, keeping
	// headroom under the usual 60s outer ceiling).
	AttemptTimeout time.Duration

	HTTPClient *http.Client
}

// NewOpenAIClient builds a client from the environment.
func NewOpenAIClient(model string) *OpenAIClient {
	if model == "" {
		model = getenv("OPENAI_MODEL", "gpt-4.1-mini")
	}
	return &OpenAIClient{
		APIKey:         strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		Model:          model,
		BaseURL:        getenv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		MaxAttempts:    3,
		BackoffStep:    700 * time.Millisecond,
		AttemptTimeout: 55 * time.Second,
		HTTPClient:     &http.Client{},
	}
}

// Generate calls the provider with retry. Only retryable classifications are
// attempted again (up to MaxAttempts); the last error propagates on
// exhaustion. Substituting fallback output is the orchestrator's job, not
// this client's.
func (c *OpenAIClient) Generate(ctx context.Context, system, user string) (map[string]any, error) {
	if c.APIKey == "" {
		return nil, &GenerationError{Message: "OPENAI_API_KEY not set"}
	}
	maxAttempts := c.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	step := c.BackoffStep
	if step <= 0 {
		step = 700 * time.Millisecond
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		doc, err := c.generateOnce(ctx, system, user)
		if err == nil {
			return doc, nil
		}
		lastErr = err

		var ge *GenerationError
		if !errors.As(err, &ge) || !ge.Retryable {
			return nil, err
		}
		if attempt == maxAttempts {
			break
		}

		delay := time.Duration(attempt)*step + RandomJitter(step/2)
		select {
		case <-ctx.Done():
			return nil, &GenerationError{Message: "request deadline reached during backoff: " + ctx.Err().Error()}
		case <-time.After(delay):
		}
	}
	return nil, lastErr
}

func (c *OpenAIClient) generateOnce(ctx context.Context, system, user string) (map[string]any, error) {
	timeout := c.AttemptTimeout
	if timeout <= 0 {
		timeout = 55 * time.Second
	}
	if deadline, ok := ctx.Deadline(); ok {
		// leave room to classify and fall back before the outer deadline
		remaining := time.Until(deadline) - 2*time.Second
		if remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		return nil, &GenerationError{Message: "no time left under request deadline"}
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	reqBody := map[string]any{
		"model":        c.Model,
		"instructions": system,
		"input":        user,
	}
	b, _ := json.Marshal(reqBody)

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, c.BaseURL+"/responses", bytes.NewReader(b))
	if err != nil {
		return nil, &GenerationError{Message: err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		// Per-attempt timeouts and transport failures are worth another try
		// as long as the outer request is still alive; cancelling the outer
		// context abandons the in-flight call for good.
		return nil, &GenerationError{Retryable: ctx.Err() == nil, Message: err.Error()}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return nil, classifyStatus(resp.StatusCode, string(body))
	}

	text, err := extractOutputText(body)
	if err != nil {
		return nil, err
	}
	return decodeDocument(text)
}

func classifyStatus(status int, body string) *GenerationError {
	retryable := status == http.StatusTooManyRequests ||
		status == http.StatusRequestTimeout ||
		status >= 500 ||
		isTransientText(body)
	return &GenerationError{
		Status:    status,
		Retryable: retryable,
		Message:   truncateBody(body),
	}
}

func isTransientText(s string) bool {
	lower := strings.ToLower(s)
	for _, marker := range transientVocabulary {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// extractOutputText concatenates the assistant output_text items from a
// Responses API payload.
func extractOutputText(body []byte) (string, error) {
	var parsed struct {
		Output []struct {
			Type    string `json:"type"`
			Role    string `json:"role"`
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
		} `json:"output"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", &GenerationError{Message: "unreadable response payload: " + err.Error()}
	}

	var sb strings.Builder
	for _, item := range parsed.Output {
		if item.Type != "message" || item.Role != "assistant" {
			continue
		}
		for _, c := range item.Content {
			if c.Type == "output_text" && strings.TrimSpace(c.Text) != "" {
				if sb.Len() > 0 {
					sb.WriteString("\n")
				}
				sb.WriteString(c.Text)
			}
		}
	}

	out := strings.TrimSpace(sb.String())
	if out == "" {
		return "", &GenerationError{Message: "empty response from model (no output_text items found)"}
	}
	return out, nil
}

// decodeDocument parses the model text as a JSON object, tolerating markdown
// fences and prose around the object.
func decodeDocument(text string) (map[string]any, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var doc map[string]any
	if err := json.Unmarshal([]byte(text), &doc); err == nil {
		return doc, nil
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		if err := json.Unmarshal([]byte(text[start:end+1]), &doc); err == nil {
			return doc, nil
		}
	}
	return nil, &GenerationError{Message: "model returned non-JSON output"}
}

func truncateBody(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 400 {
		return s[:400] + "..."
	}
	return s
}

func getenv(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}
