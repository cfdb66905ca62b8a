package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ashureev/careersim/internal/logging"
	"go.uber.org/zap"
)

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultOpenAIModel   = "gpt-3.5-turbo"
	maxResponseSize      = 1 << 20
)

// OpenAI calls an OpenAI-compatible chat completions endpoint.
type OpenAI struct {
	apiKey     string
	model      string
	url        string
	httpClient *http.Client
	retry      RetryConfig
	logger     *zap.Logger
}

// OpenAIOption configures an OpenAI client.
type OpenAIOption func(*OpenAI)

// WithBaseURL points the client at another OpenAI-compatible server.
func WithBaseURL(baseURL string) OpenAIOption {
	return func(o *OpenAI) { o.url = buildChatURL(baseURL) }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) OpenAIOption {
	return func(o *OpenAI) { o.httpClient = c }
}

// WithRetryConfig sets the retry configuration.
func WithRetryConfig(cfg RetryConfig) OpenAIOption {
	return func(o *OpenAI) { o.retry = cfg }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) OpenAIOption {
	return func(o *OpenAI) { o.logger = logger }
}

// NewOpenAI creates an OpenAI-compatible generator.
func NewOpenAI(apiKey, model string, opts ...OpenAIOption) (*OpenAI, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("openai api key is required")
	}
	if model = strings.TrimSpace(model); model == "" {
		model = defaultOpenAIModel
	}

	o := &OpenAI{
		apiKey:     apiKey,
		model:      model,
		url:        buildChatURL(""),
		httpClient: &http.Client{},
		retry:      DefaultRetryConfig(),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = logging.WithProvider(o.logger, o.Name(), o.model)
	return o, nil
}

// Name returns the provider identifier.
func (o *OpenAI) Name() string { return "openai" }

func buildChatURL(baseURL string) string {
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	baseURL = strings.TrimSuffix(baseURL, "/")
	if strings.HasSuffix(baseURL, "/chat/completions") {
		return baseURL
	}
	return baseURL + "/chat/completions"
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   *int          `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends one chat completion request, retrying transient failures.
func (o *OpenAI) Complete(ctx context.Context, req Request) (string, error) {
	body, err := o.buildBody(req)
	if err != nil {
		return "", NewFatalError(fmt.Errorf("build request body: %w", err))
	}
	return withRetry(ctx, o.retry, o.logger, func(ctx context.Context) (string, error) {
		return o.doRequest(ctx, body)
	})
}

func (o *OpenAI) buildBody(req Request) ([]byte, error) {
	var messages []chatMessage
	if req.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})

	payload := chatRequest{Model: o.model, Messages: messages}
	if req.Temperature > 0 {
		t := req.Temperature
		payload.Temperature = &t
	}
	if req.MaxTokens > 0 {
		n := req.MaxTokens
		payload.MaxTokens = &n
	}
	return json.Marshal(payload)
}

func (o *OpenAI) doRequest(ctx context.Context, body []byte) (string, error) {
	o.logger.Debug("sending generator request", zap.String("url", o.url))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.url, bytes.NewReader(body))
	if err != nil {
		return "", NewFatalError(fmt.Errorf("create HTTP request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)

	httpResp, err := o.httpClient.Do(httpReq)
	if err != nil {
		return "", NewTransientError(fmt.Errorf("HTTP request failed: %w", err))
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseSize))
	if err != nil {
		return "", NewTransientError(fmt.Errorf("read response body: %w", err))
	}

	if httpResp.StatusCode != http.StatusOK {
		return "", classifyHTTPError(httpResp.StatusCode, respBody)
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", NewFatalError(fmt.Errorf("decode response: %w", err))
	}
	if len(parsed.Choices) == 0 {
		return "", NewFatalError(ErrEmptyResponse)
	}
	text := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if text == "" {
		return "", NewFatalError(ErrEmptyResponse)
	}

	o.logger.Debug("generator response received",
		zap.String("response_preview", logging.TruncateForLog(text, 120)))
	return text, nil
}

// classifyHTTPError determines if an HTTP error is transient or fatal.
func classifyHTTPError(statusCode int, body []byte) error {
	bodyStr := string(body)
	if len(bodyStr) > 200 {
		bodyStr = bodyStr[:200] + "..."
	}

	err := fmt.Errorf("generator API error (status %d): %s", statusCode, bodyStr)

	switch {
	case statusCode == http.StatusTooManyRequests:
		return NewTransientError(err)
	case statusCode >= 500:
		return NewTransientError(err)
	default:
		return NewFatalError(err)
	}
}
