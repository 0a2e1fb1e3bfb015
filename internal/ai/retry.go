package ai

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/myrjola/briefly/internal/errors"
	"github.com/sashabaranov/go-openai"
)

// ErrUpstreamUnavailable signals that the text-generation vendor stayed
// overloaded through every retry attempt. Callers detect it with errors.Is and
// switch to their deterministic fallback path instead of surfacing a failure.
var ErrUpstreamUnavailable = errors.NewSentinel("upstream text generation unavailable")

// RetryPolicy bounds the retry loop for transient vendor overload.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// DefaultRetryPolicy retries overloaded calls three times with linear backoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
	}
}

// Backoff returns the wait before the next attempt. The delay grows linearly
// with the attempt number.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	return time.Duration(attempt) * p.BaseDelay
}

// ResilientClient wraps a Completer with bounded retry for overloaded
// responses. Any other vendor error is a hard failure without retry.
type ResilientClient struct {
	completer Completer
	policy    RetryPolicy
	logger    *slog.Logger
}

func NewResilientClient(completer Completer, policy RetryPolicy, logger *slog.Logger) *ResilientClient {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	return &ResilientClient{
		completer: completer,
		policy:    policy,
		logger:    logger.With("source", "ResilientClient"),
	}
}

// Invoke sends a single-prompt completion through the retry loop.
func (c *ResilientClient) Invoke(ctx context.Context, prompt string) (string, error) {
	return c.InvokeMessages(ctx, []openai.ChatCompletionMessage{
		{
			Role:    openai.ChatMessageRoleUser,
			Content: prompt,
		},
	})
}

// InvokeMessages sends chat messages, retrying overloaded responses with
// linear backoff. Every attempt and its outcome is logged. When retries are
// exhausted or the context deadline passes, the returned error matches
// ErrUpstreamUnavailable.
func (c *ResilientClient) InvokeMessages(
	ctx context.Context,
	messages []openai.ChatCompletionMessage,
) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= c.policy.MaxAttempts; attempt++ {
		text, err := c.completer.Complete(ctx, messages)
		if err == nil {
			c.logger.LogAttrs(ctx, slog.LevelDebug, "completion succeeded", slog.Int("attempt", attempt))
			return text, nil
		}
		if ctx.Err() != nil {
			// The caller's outer timeout fired. Treat it the same as an exhausted retry loop.
			return "", errors.Wrap(ErrUpstreamUnavailable, "context done", slog.Int("attempt", attempt))
		}
		if !isOverloaded(err) {
			return "", errors.Wrap(err, "completion failed", slog.Int("attempt", attempt))
		}
		lastErr = err
		c.logger.LogAttrs(ctx, slog.LevelWarn, "vendor overloaded, backing off",
			slog.Int("attempt", attempt),
			slog.Int("maxAttempts", c.policy.MaxAttempts),
			errors.SlogError(err))
		if attempt == c.policy.MaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return "", errors.Wrap(ErrUpstreamUnavailable, "context done during backoff", slog.Int("attempt", attempt))
		case <-time.After(c.policy.Backoff(attempt)):
		}
	}
	return "", errors.Wrap(ErrUpstreamUnavailable, "retries exhausted",
		slog.Int("attempts", c.policy.MaxAttempts), errors.SlogError(lastErr))
}

// isOverloaded reports whether err is the vendor telling us to slow down.
func isOverloaded(err error) bool {
	var apiErr *openai.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.HTTPStatusCode == http.StatusTooManyRequests ||
		apiErr.HTTPStatusCode == http.StatusServiceUnavailable
}
