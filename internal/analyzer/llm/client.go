package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/MyFaduGame/csv-analyzer/internal/pkg/pkglog"
	"github.com/MyFaduGame/csv-analyzer/internal/pkg/pkgmetrics"
)

const (
	DefaultEndpoint    = "https://api.openai.com/v1/chat/completions"
	DefaultModel       = "gpt-4o"
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 1000
	DefaultTimeout     = 60 * time.Second

	SystemPrompt = "You are a data analyst. Explain and answer questions about user datasets."

	headerCorrelationID = "X-Correlation-ID"

	// maxErrorBody bounds how much of a failed response is kept in the error.
	maxErrorBody = 512
)

var (
	ErrTransport    = errors.New("llm: transport failure")
	ErrStatus       = errors.New("llm: unexpected status")
	ErrMalformed    = errors.New("llm: malformed response")
	ErrEmptyChoices = errors.New("llm: response has no choices")
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("llm: http %d: %s", e.StatusCode, e.Body)
}

// Is lets errors.Is match StatusError against ErrStatus.
func (e *StatusError) Is(target error) bool {
	return target == ErrStatus
}

// Config holds the connection settings. Zero values other than Temperature
// take the defaults above.
type Config struct {
	Endpoint    string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// Client calls a chat completion endpoint.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient returns a Client for cfg. An empty API key is allowed so the
// server can start without credentials; calls then fail upstream.
func NewClient(cfg Config) *Client {
	cfg.Endpoint = strings.TrimSpace(cfg.Endpoint)
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type request struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type response struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
}

// Complete sends prompt as the user message and returns the text of the
// first choice.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	outcome := "ok"
	defer func() {
		pkgmetrics.LLMRequest(outcome, time.Since(start))
	}()

	raw, err := json.Marshal(request{
		Model: c.cfg.Model,
		Messages: []message{
			{Role: "system", Content: SystemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	})
	if err != nil {
		outcome = "encode"
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(raw))
	if err != nil {
		outcome = "encode"
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}
	if cid, ok := pkglog.CorrelationID(ctx); ok {
		req.Header.Set(headerCorrelationID, cid)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		outcome = "transport"
		return "", fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		outcome = "transport"
		return "", fmt.Errorf("%w: read body: %w", ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		outcome = "status"
		return "", &StatusError{StatusCode: resp.StatusCode, Body: excerpt(body)}
	}

	var decoded response
	if err := json.Unmarshal(body, &decoded); err != nil {
		outcome = "malformed"
		return "", fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if len(decoded.Choices) == 0 {
		outcome = "empty"
		return "", ErrEmptyChoices
	}

	return decoded.Choices[0].Message.Content, nil
}

func excerpt(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrorBody {
		return s[:maxErrorBody] + "..."
	}
	return s
}
