// Package ai is the story generation capability: a thin chat-completion
// client (OpenAI-compatible or Ollama), a prompt builder with a token budget
// for history, and a tolerant parser for the model's JSON reply.
package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
	"github.com/prometheus/client_golang/prometheus"
	openaigo "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"rpg-server/internal/config"
)

// ErrAIGenerationFailed marks any transport or provider-side failure.
var ErrAIGenerationFailed = errors.New("ai text generation failed")

// UsageInfo carries the provider's token accounting for one request.
type UsageInfo struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// AIClient is the provider-facing chat completion interface.
type AIClient interface {
	GenerateText(ctx context.Context, systemPrompt, userInput string) (string, UsageInfo, error)
}

// NewAIClient builds the provider client selected by AI_PROVIDER.
func NewAIClient(cfg *config.Config, logger *zap.Logger) (AIClient, error) {
	switch strings.ToLower(cfg.AIProvider) {
	case "openai":
		openaiConfig := openaigo.DefaultConfig(cfg.AIAPIKey)
		if cfg.AIBaseURL != "" {
			openaiConfig.BaseURL = cfg.AIBaseURL
		}
		openaiConfig.HTTPClient = &http.Client{Timeout: cfg.AITimeout}
		logger.Info("Using OpenAI-compatible AI client",
			zap.String("baseURL", openaiConfig.BaseURL),
			zap.String("model", cfg.AIModel),
			zap.Duration("timeout", cfg.AITimeout))
		return &openAIClient{
			client: openaigo.NewClientWithConfig(openaiConfig),
			model:  cfg.AIModel,
			logger: logger.Named("OpenAIClient"),
		}, nil
	case "ollama":
		return newOllamaClient(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown AI provider: %q", cfg.AIProvider)
	}
}

// --- OpenAI-compatible implementation ---

type openAIClient struct {
	client *openaigo.Client
	model  string
	logger *zap.Logger
}

func (c *openAIClient) GenerateText(ctx context.Context, systemPrompt, userInput string) (string, UsageInfo, error) {
	usage := UsageInfo{}
	if strings.TrimSpace(systemPrompt) == "" {
		aiRequestsTotal.With(prometheus.Labels{"model": c.model, "status": "error"}).Inc()
		return "", usage, fmt.Errorf("%w: empty system prompt", ErrAIGenerationFailed)
	}

	messages := []openaigo.ChatCompletionMessage{
		{Role: openaigo.ChatMessageRoleSystem, Content: systemPrompt},
	}
	if userInput != "" {
		messages = append(messages, openaigo.ChatCompletionMessage{
			Role:    openaigo.ChatMessageRoleUser,
			Content: userInput,
		})
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, openaigo.ChatCompletionRequest{
		Model:    c.model,
		Messages: messages,
	})
	duration := time.Since(start)

	if err != nil {
		c.logger.Error("AI request failed", zap.Duration("duration", duration), zap.Error(err))
		aiRequestsTotal.With(prometheus.Labels{"model": c.model, "status": "error"}).Inc()
		return "", usage, fmt.Errorf("%w: %v", ErrAIGenerationFailed, err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		aiRequestsTotal.With(prometheus.Labels{"model": c.model, "status": "error_empty_response"}).Inc()
		return "", usage, fmt.Errorf("%w: empty response", ErrAIGenerationFailed)
	}

	aiRequestsTotal.With(prometheus.Labels{"model": c.model, "status": "success"}).Inc()
	aiRequestDuration.With(prometheus.Labels{"model": c.model}).Observe(duration.Seconds())
	if resp.Usage.TotalTokens > 0 {
		usage.PromptTokens = resp.Usage.PromptTokens
		usage.CompletionTokens = resp.Usage.CompletionTokens
		usage.TotalTokens = resp.Usage.TotalTokens
		aiPromptTokens.With(prometheus.Labels{"model": c.model}).Observe(float64(usage.PromptTokens))
		aiCompletionTokens.With(prometheus.Labels{"model": c.model}).Observe(float64(usage.CompletionTokens))
	}

	c.logger.Debug("AI response received",
		zap.Duration("duration", duration),
		zap.Int("responseLen", len(resp.Choices[0].Message.Content)),
		zap.Int("totalTokens", usage.TotalTokens))
	return resp.Choices[0].Message.Content, usage, nil
}

// --- Ollama implementation ---

type ollamaClient struct {
	client  *api.Client
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

func newOllamaClient(cfg *config.Config, logger *zap.Logger) (AIClient, error) {
	// api.NewClient wants the bare host URL, without the /v1 suffix used by
	// OpenAI-compatible endpoints.
	base := strings.TrimSuffix(cfg.AIBaseURL, "/v1")
	base = strings.TrimSuffix(base, "/")
	if base == "" {
		base = "http://localhost:11434"
	}
	parsedURL, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ollama base URL %q: %w", base, err)
	}

	logger.Info("Using Ollama AI client",
		zap.String("baseURL", base),
		zap.String("model", cfg.AIModel),
		zap.Duration("timeout", cfg.AITimeout))

	return &ollamaClient{
		client:  api.NewClient(parsedURL, &http.Client{Timeout: cfg.AITimeout}),
		model:   cfg.AIModel,
		timeout: cfg.AITimeout,
		logger:  logger.Named("OllamaClient"),
	}, nil
}

func (c *ollamaClient) GenerateText(ctx context.Context, systemPrompt, userInput string) (string, UsageInfo, error) {
	usage := UsageInfo{}
	if strings.TrimSpace(systemPrompt) == "" {
		aiRequestsTotal.With(prometheus.Labels{"model": c.model, "status": "error"}).Inc()
		return "", usage, fmt.Errorf("%w: empty system prompt", ErrAIGenerationFailed)
	}

	messages := []api.Message{{Role: "system", Content: systemPrompt}}
	if userInput != "" {
		messages = append(messages, api.Message{Role: "user", Content: userInput})
	}

	stream := false
	req := &api.ChatRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   &stream,
	}

	requestCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	var resp api.ChatResponse
	err := c.client.Chat(requestCtx, req, func(r api.ChatResponse) error {
		resp = r
		return nil
	})
	duration := time.Since(start)

	if err != nil {
		c.logger.Error("Ollama request failed", zap.Duration("duration", duration), zap.Error(err))
		aiRequestsTotal.With(prometheus.Labels{"model": c.model, "status": "error"}).Inc()
		return "", usage, fmt.Errorf("%w: %v", ErrAIGenerationFailed, err)
	}
	if resp.Message.Content == "" {
		aiRequestsTotal.With(prometheus.Labels{"model": c.model, "status": "error_empty_response"}).Inc()
		return "", usage, fmt.Errorf("%w: empty response", ErrAIGenerationFailed)
	}

	aiRequestsTotal.With(prometheus.Labels{"model": c.model, "status": "success"}).Inc()
	aiRequestDuration.With(prometheus.Labels{"model": c.model}).Observe(duration.Seconds())

	usage.PromptTokens = resp.PromptEvalCount
	usage.CompletionTokens = resp.EvalCount
	usage.TotalTokens = resp.PromptEvalCount + resp.EvalCount
	if usage.TotalTokens > 0 {
		aiPromptTokens.With(prometheus.Labels{"model": c.model}).Observe(float64(usage.PromptTokens))
		aiCompletionTokens.With(prometheus.Labels{"model": c.model}).Observe(float64(usage.CompletionTokens))
	}

	return resp.Message.Content, usage, nil
}
