package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/myrjola/briefly/internal/ai"
	"github.com/myrjola/briefly/internal/engine"
	"github.com/myrjola/briefly/internal/interview"
	"github.com/myrjola/briefly/internal/repositories"
	"github.com/myrjola/briefly/internal/sqlite"
	"github.com/myrjola/briefly/internal/testhelpers"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/require"
)

// scriptedCompleter answers extraction and synthesis prompts from a fixed
// script keyed on the prompt preamble.
type scriptedCompleter struct {
	extraction string
	synthesis  string
}

func (s scriptedCompleter) Complete(
	_ context.Context,
	msgs []openai.ChatCompletionMessage,
) (string, error) {
	prompt := msgs[len(msgs)-1].Content
	if strings.HasPrefix(prompt, "Write a strategic brief") {
		return s.synthesis, nil
	}
	return s.extraction, nil
}

// newTestServer spins up the full application against an in-memory database
// and a scripted model, with a cookie jar so the scs session persists across
// requests like a browser would.
func newTestServer(t *testing.T, completer ai.Completer) (*httptest.Server, *http.Client) {
	t.Helper()
	logger := testhelpers.NewLogger(io.Discard)

	dbs, err := sqlite.NewDatabase(context.Background(), ":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, dbs.Close())
	})

	sessions := repositories.NewSessionRepository(dbs, logger)
	llm := ai.NewResilientClient(completer, ai.RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
	}, logger)

	sessionManager := scs.New()
	sessionManager.Lifetime = time.Hour

	app := application{
		logger:         logger,
		engine:         engine.New(sessions, llm, interview.NewCanonicalEngine(), logger),
		sessions:       sessions,
		sessionManager: sessionManager,
	}

	server := httptest.NewServer(app.routes())
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := server.Client()
	client.Jar = jar
	return server, client
}

func postTurn(t *testing.T, client *http.Client, url string, req engine.TurnRequest) (*http.Response, engine.TurnResponse) {
	t.Helper()
	body, err := json.Marshal(req)
	require.NoError(t, err)

	resp, err := client.Post(url+"/api/turn", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var turn engine.TurnResponse
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&turn))
	}
	return resp, turn
}
