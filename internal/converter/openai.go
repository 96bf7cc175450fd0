package converter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/steezyneo/oracle-ai-migrate-sub000/internal/config"
	"github.com/steezyneo/oracle-ai-migrate-sub000/internal/logging"
	"github.com/steezyneo/oracle-ai-migrate-sub000/internal/models"
	"github.com/steezyneo/oracle-ai-migrate-sub000/internal/retry"
)

const defaultOpenAIModel = "gpt-4o"

// OpenAIConverter calls an OpenAI-compatible chat completion endpoint.
type OpenAIConverter struct {
	client   *openai.Client
	model    string
	logger   *zap.Logger
	retryCfg *retry.Config
}

func NewOpenAIConverter(cfg config.ConverterConfig, logger *zap.Logger) (*OpenAIConverter, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.Endpoint != "" {
		clientConfig.BaseURL = strings.TrimSuffix(cfg.Endpoint, "/")
	}
	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}

	return &OpenAIConverter{
		client:   openai.NewClientWithConfig(clientConfig),
		model:    model,
		logger:   logger.Named("converter.openai"),
		retryCfg: retry.DefaultConfig(),
	}, nil
}

func (c *OpenAIConverter) Name() string {
	return "openai"
}

func (c *OpenAIConverter) Convert(ctx context.Context, source string) (*models.ConversionResult, error) {
	start := time.Now()

	var content string
	err := retry.DoIfRetryable(ctx, c.retryCfg, func() error {
		var err error
		content, err = c.complete(ctx, source)
		return err
	})
	if err != nil {
		return nil, err
	}

	result, err := parseResult(content)
	if err != nil {
		c.logger.Warn("Unusable conversion response",
			zap.String("response", logging.TruncateString(content, logging.MaxContentLogLength)),
			zap.Error(err))
		return nil, err
	}
	fillMetrics(result, source, time.Since(start))
	return result, nil
}

func (c *OpenAIConverter) complete(ctx context.Context, source string) (string, error) {
	c.logger.Debug("Conversion request",
		zap.String("model", c.model),
		zap.Int("source_len", len(source)))

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt(source)},
		},
		Temperature: 0,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		c.logger.Error("Conversion request failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.String("error", logging.SanitizeError(err)))
		return "", classifyOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", NewError(ErrorTypeResponse, "no choices in response", false, nil)
	}

	c.logger.Info("Conversion request completed",
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.Duration("elapsed", time.Since(start)))
	return resp.Choices[0].Message.Content, nil
}

func classifyOpenAIError(err error) *Error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		e := ClassifyError(fmt.Errorf("status %d: %w", apiErr.HTTPStatusCode, err))
		e.StatusCode = apiErr.HTTPStatusCode
		return e
	}
	return ClassifyError(err)
}

// fillMetrics adds timing and line counts the provider cannot know.
func fillMetrics(result *models.ConversionResult, source string, elapsed time.Duration) {
	if result.PerformanceMetrics == nil {
		result.PerformanceMetrics = &models.PerformanceMetrics{}
	}
	result.PerformanceMetrics.ConversionTimeMs = elapsed.Milliseconds()
	result.PerformanceMetrics.OriginalLines = countLines(source)
	result.PerformanceMetrics.ConvertedLines = countLines(result.ConvertedCode)
}
