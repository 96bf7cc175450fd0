package converter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/liushuangls/go-anthropic/v2"
	"go.uber.org/zap"

	"github.com/steezyneo/oracle-ai-migrate-sub000/internal/config"
	"github.com/steezyneo/oracle-ai-migrate-sub000/internal/logging"
	"github.com/steezyneo/oracle-ai-migrate-sub000/internal/models"
	"github.com/steezyneo/oracle-ai-migrate-sub000/internal/retry"
)

const (
	defaultAnthropicModel = "claude-sonnet-4-5-20250929"
	anthropicMaxTokens    = 8192
)

// AnthropicConverter calls the Anthropic Messages API.
type AnthropicConverter struct {
	client   *anthropic.Client
	model    string
	logger   *zap.Logger
	retryCfg *retry.Config
}

func NewAnthropicConverter(cfg config.ConverterConfig, logger *zap.Logger) (*AnthropicConverter, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}

	var opts []anthropic.ClientOption
	if cfg.Endpoint != "" {
		opts = append(opts, anthropic.WithBaseURL(strings.TrimSuffix(cfg.Endpoint, "/")))
	}
	model := cfg.Model
	if model == "" {
		model = defaultAnthropicModel
	}

	return &AnthropicConverter{
		client:   anthropic.NewClient(cfg.APIKey, opts...),
		model:    model,
		logger:   logger.Named("converter.anthropic"),
		retryCfg: retry.DefaultConfig(),
	}, nil
}

func (c *AnthropicConverter) Name() string {
	return "anthropic"
}

func (c *AnthropicConverter) Convert(ctx context.Context, source string) (*models.ConversionResult, error) {
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

func (c *AnthropicConverter) complete(ctx context.Context, source string) (string, error) {
	prompt := userPrompt(source)
	start := time.Now()

	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(c.model),
		System:    systemPrompt,
		MaxTokens: anthropicMaxTokens,
		Messages: []anthropic.Message{
			{Role: anthropic.RoleUser, Content: []anthropic.MessageContent{
				{Type: "text", Text: &prompt},
			}},
		},
	})
	if err != nil {
		c.logger.Error("Conversion request failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.String("error", logging.SanitizeError(err)))
		return "", ClassifyError(err)
	}

	c.logger.Info("Conversion request completed",
		zap.Int("input_tokens", resp.Usage.InputTokens),
		zap.Int("output_tokens", resp.Usage.OutputTokens),
		zap.Duration("elapsed", time.Since(start)))

	for _, block := range resp.Content {
		if block.Type == "text" && block.Text != nil {
			return *block.Text, nil
		}
	}
	return "", NewError(ErrorTypeResponse, "no text in response", false, nil)
}
