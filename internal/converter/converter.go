// Package converter turns Sybase / T-SQL source into Oracle SQL. The lifecycle
// controller treats every implementation as an opaque function that either
// returns a result or fails with a human-readable message.
package converter

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/steezyneo/oracle-ai-migrate-sub000/internal/config"
	"github.com/steezyneo/oracle-ai-migrate-sub000/internal/models"
)

type Converter interface {
	Convert(ctx context.Context, source string) (*models.ConversionResult, error)
	Name() string
}

type ErrorType string

const (
	ErrorTypeAuth     ErrorType = "auth_error"
	ErrorTypeModel    ErrorType = "model_error"
	ErrorTypeEndpoint ErrorType = "endpoint_error"
	ErrorTypeResponse ErrorType = "response_error"
	ErrorTypeInput    ErrorType = "input_error"
	ErrorTypeUnknown  ErrorType = "unknown_error"
)

// Error is a classified conversion failure.
type Error struct {
	Type       ErrorType
	Message    string
	Retryable  bool
	StatusCode int
	Cause      error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.StatusCode > 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.StatusCode)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// IsRetryable implements retry.RetryableError.
func (e *Error) IsRetryable() bool {
	return e.Retryable
}

func NewError(errType ErrorType, message string, retryable bool, cause error) *Error {
	return &Error{Type: errType, Message: message, Retryable: retryable, Cause: cause}
}

// ErrEmptyResult is returned when a provider answers without converted code.
var ErrEmptyResult = NewError(ErrorTypeResponse, "conversion returned no converted code", false, nil)

// ClassifyError turns a provider error into an *Error. Errors that already
// carry a classification are returned unchanged.
func ClassifyError(err error) *Error {
	if err == nil {
		return nil
	}

	var convErr *Error
	if errors.As(err, &convErr) {
		return convErr
	}

	errStr := err.Error()
	lower := strings.ToLower(errStr)

	statusCode := 0
	for _, code := range []int{400, 401, 403, 404, 429, 500, 502, 503, 504, 529} {
		if strings.Contains(errStr, fmt.Sprintf("%d", code)) {
			statusCode = code
			break
		}
	}

	var e *Error
	switch {
	case statusCode == 401 || statusCode == 403 || strings.Contains(lower, "unauthorized") ||
		strings.Contains(lower, "invalid api key") || strings.Contains(lower, "invalid x-api-key"):
		e = NewError(ErrorTypeAuth, "authentication failed", false, err)
	case strings.Contains(lower, "model") && (strings.Contains(lower, "not found") || strings.Contains(lower, "does not exist")):
		e = NewError(ErrorTypeModel, "model not found", false, err)
	case statusCode == 404:
		e = NewError(ErrorTypeEndpoint, "endpoint not found", false, err)
	case strings.Contains(lower, "connection refused") || strings.Contains(lower, "no such host"):
		e = NewError(ErrorTypeEndpoint, "connection failed", true, err)
	case strings.Contains(lower, "timeout") || strings.Contains(lower, "deadline exceeded"):
		e = NewError(ErrorTypeEndpoint, "request timeout", true, err)
	case statusCode == 429 || strings.Contains(lower, "rate limit"):
		e = NewError(ErrorTypeEndpoint, "rate limited", true, err)
	case statusCode == 529 || strings.Contains(lower, "overloaded"):
		e = NewError(ErrorTypeEndpoint, "provider overloaded", true, err)
	case statusCode >= 500:
		e = NewError(ErrorTypeEndpoint, "server error", true, err)
	default:
		e = NewError(ErrorTypeUnknown, "conversion provider error", false, err)
	}
	e.StatusCode = statusCode
	return e
}

// New builds the converter selected by configuration.
func New(cfg config.ConverterConfig, logger *zap.Logger) (Converter, error) {
	switch cfg.Provider {
	case "", "rules":
		return NewRuleConverter(), nil
	case "openai":
		return NewOpenAIConverter(cfg, logger)
	case "anthropic":
		return NewAnthropicConverter(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown converter provider %q", cfg.Provider)
	}
}
