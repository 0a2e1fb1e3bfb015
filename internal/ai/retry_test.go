package ai_test

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/myrjola/briefly/internal/ai"
	"github.com/myrjola/briefly/internal/testhelpers"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/require"
)

// scriptedCompleter returns its scripted results in order, repeating the last one.
type scriptedCompleter struct {
	script []func() (string, error)
	calls  int
}

func (s *scriptedCompleter) Complete(
	_ context.Context,
	_ []openai.ChatCompletionMessage,
) (string, error) {
	i := s.calls
	if i >= len(s.script) {
		i = len(s.script) - 1
	}
	s.calls++
	return s.script[i]()
}

func overloaded() (string, error) {
	return "", &openai.APIError{HTTPStatusCode: http.StatusTooManyRequests, Message: "overloaded"}
}

func badRequest() (string, error) {
	return "", &openai.APIError{HTTPStatusCode: http.StatusBadRequest, Message: "bad request"}
}

func ok(text string) func() (string, error) {
	return func() (string, error) { return text, nil }
}

func TestResilientClient_Invoke(t *testing.T) {
	policy := ai.RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond}
	logger := testhelpers.NewLogger(io.Discard)

	tests := []struct {
		name      string
		script    []func() (string, error)
		wantText  string
		wantCalls int
		wantErr   error
	}{
		{
			name:      "first attempt succeeds",
			script:    []func() (string, error){ok("hello")},
			wantText:  "hello",
			wantCalls: 1,
		},
		{
			name:      "recovers after two overloads",
			script:    []func() (string, error){overloaded, overloaded, ok("recovered")},
			wantText:  "recovered",
			wantCalls: 3,
		},
		{
			name:      "exhausts retries on persistent overload",
			script:    []func() (string, error){overloaded},
			wantCalls: 3,
			wantErr:   ai.ErrUpstreamUnavailable,
		},
		{
			name:      "hard failure is not retried",
			script:    []func() (string, error){badRequest},
			wantCalls: 1,
			wantErr:   nil, // asserted separately: an error that is not ErrUpstreamUnavailable
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			completer := &scriptedCompleter{script: tt.script}
			client := ai.NewResilientClient(completer, policy, logger)

			text, err := client.Invoke(context.Background(), "prompt")

			require.Equal(t, tt.wantCalls, completer.calls, "unexpected number of attempts")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			if tt.wantText == "" {
				require.Error(t, err)
				require.NotErrorIs(t, err, ai.ErrUpstreamUnavailable)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantText, text)
		})
	}
}

func TestResilientClient_ContextTimeoutMapsToUnavailable(t *testing.T) {
	completer := &scriptedCompleter{script: []func() (string, error){overloaded}}
	client := ai.NewResilientClient(completer,
		ai.RetryPolicy{MaxAttempts: 3, BaseDelay: time.Hour},
		testhelpers.NewLogger(io.Discard))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := client.Invoke(ctx, "prompt")
	require.ErrorIs(t, err, ai.ErrUpstreamUnavailable)
}

func TestRetryPolicy_Backoff(t *testing.T) {
	policy := ai.RetryPolicy{MaxAttempts: 3, BaseDelay: 100 * time.Millisecond}
	require.Equal(t, 100*time.Millisecond, policy.Backoff(1))
	require.Equal(t, 200*time.Millisecond, policy.Backoff(2))
	require.Equal(t, 300*time.Millisecond, policy.Backoff(3))
}
