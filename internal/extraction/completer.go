package extraction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/ckcelina/my-wishlist-sub002/pkg/httpclient"
)

// Completer sends a prompt to a language model and returns its text reply.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, prompt string) (string, error)

// Complete calls f.
func (f CompleterFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// ErrCompleterDisabled is returned when no model is configured.
var ErrCompleterDisabled = errors.New("language model is not configured")

// DisabledCompleter rejects every prompt.
type DisabledCompleter struct{}

// Complete always fails with ErrCompleterDisabled.
func (DisabledCompleter) Complete(context.Context, string) (string, error) {
	return "", ErrCompleterDisabled
}

// AnthropicConfig configures AnthropicCompleter.
type AnthropicConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int64
	// Timeout bounds each call, including reading the response.
	Timeout    time.Duration
	HTTPClient *http.Client
}

// AnthropicCompleter calls the Anthropic Messages API. Calls are not
// retried; repeated failures open a circuit breaker.
type AnthropicCompleter struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
	timeout   time.Duration
	breaker   *httpclient.Breaker[string]
}

// NewAnthropicCompleter builds a completer from cfg.
func NewAnthropicCompleter(cfg AnthropicConfig, logger *slog.Logger) *AnthropicCompleter {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4096
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &AnthropicCompleter{
		client:    anthropic.NewClient(opts...),
		model:     anthropic.Model(cfg.Model),
		maxTokens: cfg.MaxTokens,
		timeout:   cfg.Timeout,
		breaker:   httpclient.NewBreaker[string](httpclient.DefaultBreakerConfig("anthropic"), logger, countsAsHealthy),
	}
}

// Complete sends prompt as a single user message.
func (c *AnthropicCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	return c.breaker.Execute(func() (string, error) {
		ctx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
			Model:     c.model,
			MaxTokens: c.maxTokens,
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
			},
		})
		if err != nil {
			return "", fmt.Errorf("anthropic messages: %w", err)
		}

		var sb strings.Builder
		for _, block := range message.Content {
			if block.Type == "text" {
				sb.WriteString(block.Text)
			}
		}
		if sb.Len() == 0 {
			return "", errors.New("anthropic messages: response has no text content")
		}
		return sb.String(), nil
	})
}

// countsAsHealthy keeps caller cancellations and request errors other than
// throttling from tripping the breaker.
func countsAsHealthy(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 && apiErr.StatusCode != http.StatusTooManyRequests
	}
	return false
}
