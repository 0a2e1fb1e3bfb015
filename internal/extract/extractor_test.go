package extract_test

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/myrjola/briefly/internal/ai"
	"github.com/myrjola/briefly/internal/extract"
	"github.com/myrjola/briefly/internal/models"
	"github.com/myrjola/briefly/internal/testhelpers"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/require"
)

type stubCompleter struct {
	text string
	err  error
}

func (s stubCompleter) Complete(_ context.Context, _ []openai.ChatCompletionMessage) (string, error) {
	return s.text, s.err
}

func newExtractor(t *testing.T, completer ai.Completer) *extract.Extractor {
	t.Helper()
	logger := testhelpers.NewLogger(io.Discard)
	llm := ai.NewResilientClient(completer,
		ai.RetryPolicy{MaxAttempts: 1, BaseDelay: time.Millisecond}, logger)
	return extract.NewExtractor(llm, logger)
}

func userSays(content string) models.Message {
	return models.Message{Role: models.RoleUser, Content: content}
}

func assistantAsks(content string) models.Message {
	return models.Message{Role: models.RoleAssistant, Content: content}
}

func TestExtractor_ModelPath(t *testing.T) {
	extractor := newExtractor(t, stubCompleter{
		text: "```json\n{\"name\": \"Dana\", \"project\": \"an espresso subscription\"}\n```",
	})

	record := extractor.Extract(context.Background(),
		[]models.Message{userSays("My name is Dana and I run an espresso subscription")},
		models.FactRecord{})

	require.Equal(t, "Dana", record.Name)
	require.Equal(t, "an espresso subscription", record.Project)
}

func TestExtractor_MonotonicMerge(t *testing.T) {
	tests := []struct {
		name  string
		prior models.FactRecord
		model string
		want  models.FactRecord
	}{
		{
			name:  "empty model output keeps prior fields",
			prior: models.FactRecord{Name: "Dana", Audience: "home baristas"},
			model: `{}`,
			want:  models.FactRecord{Name: "Dana", Audience: "home baristas"},
		},
		{
			name:  "model refinement overwrites with non-empty values only",
			prior: models.FactRecord{Name: "Dana", Project: "coffee"},
			model: `{"project": "an espresso subscription", "name": ""}`,
			want:  models.FactRecord{Name: "Dana", Project: "an espresso subscription"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			extractor := newExtractor(t, stubCompleter{text: tt.model})
			record := extractor.Extract(context.Background(), nil, tt.prior)
			require.Equal(t, tt.want, record)
		})
	}
}

func TestExtractor_FallsBackOnMalformedOutput(t *testing.T) {
	extractor := newExtractor(t, stubCompleter{text: "Sure! Here are the facts you asked for."})

	transcript := []models.Message{
		assistantAsks("Who is your target customer?"),
		userSays("Busy parents who want healthy dinners"),
	}
	record := extractor.Extract(context.Background(), transcript, models.FactRecord{Name: "Dana"})

	require.Equal(t, "Dana", record.Name, "prior field must survive the fallback")
	require.Equal(t, "Busy parents who want healthy dinners", record.Audience)
}

func TestExtractor_FallsBackOnUnavailableModel(t *testing.T) {
	extractor := newExtractor(t, stubCompleter{
		err: &openai.APIError{HTTPStatusCode: http.StatusTooManyRequests},
	})

	transcript := []models.Message{
		assistantAsks("What's your timeline and budget?"),
		userSays("We want to launch in six months"),
	}
	record := extractor.Extract(context.Background(), transcript, models.FactRecord{})

	require.Equal(t, "We want to launch in six months", record.Timeline)
}

func TestHeuristicPass_FieldScoping(t *testing.T) {
	transcript := []models.Message{
		assistantAsks("What's your timeline and budget?"),
		userSays("About six months and around 20k"),
	}
	record := extract.HeuristicPass(transcript)

	require.NotEmpty(t, record.Timeline)
	require.Empty(t, record.Audience, "a timeline answer must never fill the audience field")

	transcript = []models.Message{
		assistantAsks("Who is your target audience?"),
		userSays("Independent coffee shops"),
	}
	record = extract.HeuristicPass(transcript)

	require.Equal(t, "Independent coffee shops", record.Audience)
	require.Empty(t, record.Timeline, "an audience answer must never fill the timeline field")
}

func TestHeuristicPass_NameExtraction(t *testing.T) {
	tests := []struct {
		name   string
		answer string
		want   string
	}{
		{name: "filler phrase", answer: "My name is Dana", want: "Dana"},
		{name: "contraction", answer: "I'm Dana", want: "Dana"},
		{name: "stacked filler", answer: "Hi, my name is Dana", want: "Dana"},
		{name: "call me", answer: "call me Dana", want: "Dana"},
		{name: "trailing punctuation", answer: "My name is Dana.", want: "Dana"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := extract.HeuristicPass([]models.Message{userSays(tt.answer)})
			require.Equal(t, tt.want, record.Name)
		})
	}
}

func TestHeuristicPass_DoesNotInventName(t *testing.T) {
	record := extract.HeuristicPass([]models.Message{
		userSays("We are building a marketplace for vintage synthesizers"),
	})
	require.Empty(t, record.Name)
}
