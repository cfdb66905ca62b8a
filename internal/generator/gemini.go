package generator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ashureev/careersim/internal/logging"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.5-flash"

// modelsAPI is the subset of *genai.Models used here.
type modelsAPI interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Gemini wraps the Google GenAI client.
type Gemini struct {
	models modelsAPI
	model  string
	retry  RetryConfig
	logger *zap.Logger
}

// NewGemini creates a Generator configured for the Gemini API backend.
func NewGemini(ctx context.Context, apiKey, model string, retry RetryConfig, logger *zap.Logger) (*Gemini, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return newGemini(client.Models, model, retry, logger), nil
}

func newGemini(models modelsAPI, model string, retry RetryConfig, logger *zap.Logger) *Gemini {
	if model = strings.TrimSpace(model); model == "" {
		model = defaultGeminiModel
	}
	g := &Gemini{models: models, model: model, retry: retry}
	g.logger = logging.WithProvider(logger, g.Name(), model)
	return g
}

// Name returns the provider identifier.
func (g *Gemini) Name() string { return "gemini" }

// Complete sends the prompt to Gemini and joins the textual parts of the answer.
func (g *Gemini) Complete(ctx context.Context, req Request) (string, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return "", NewFatalError(errors.New("prompt must not be empty"))
	}

	cfg := &genai.GenerateContentConfig{}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.Temperature > 0 {
		cfg.Temperature = genai.Ptr(float32(req.Temperature))
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}

	return withRetry(ctx, g.retry, g.logger, func(ctx context.Context) (string, error) {
		resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), cfg)
		if err != nil {
			return "", classifyGeminiError(err)
		}
		return joinCandidateText(resp)
	})
}

func joinCandidateText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", NewFatalError(ErrEmptyResponse)
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", NewFatalError(ErrEmptyResponse)
	}
	return output, nil
}

func classifyGeminiError(err error) error {
	wrapped := fmt.Errorf("generate content: %w", err)

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= 500 {
			return NewTransientError(wrapped)
		}
		return NewFatalError(wrapped)
	}
	return NewTransientError(wrapped)
}
