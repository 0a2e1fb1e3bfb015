package interview_test

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/myrjola/briefly/internal/ai"
	"github.com/myrjola/briefly/internal/interview"
	"github.com/myrjola/briefly/internal/models"
	"github.com/myrjola/briefly/internal/testhelpers"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/require"
)

func TestCanonicalEngine_WalksBackboneInOrder(t *testing.T) {
	engine := interview.NewCanonicalEngine()
	facts := models.FactRecord{Name: "Dana"}
	var transcript []models.Message

	for i, want := range interview.Canonical {
		decision, err := engine.Decide(context.Background(), transcript, facts, interview.Status{})
		require.NoError(t, err)
		require.Equal(t, interview.ActionAsk, decision.Action, "step %d", i)
		require.Equal(t, want.ID, decision.Question.ID, "step %d", i)

		transcript = append(transcript,
			asked(decision.Question, facts.Name),
			answered("a reasonably detailed answer"),
		)
	}

	decision, err := engine.Decide(context.Background(), transcript, facts, interview.Status{})
	require.NoError(t, err)
	require.Equal(t, interview.ActionGenerateBrief, decision.Action)
}

func TestCanonicalEngine_ReplayedTranscriptDoesNotAdvance(t *testing.T) {
	engine := interview.NewCanonicalEngine()
	facts := models.FactRecord{Name: "Dana"}
	transcript := []models.Message{
		asked(interview.Canonical[0], "Dana"),
		answered("an espresso subscription"),
	}

	first, err := engine.Decide(context.Background(), transcript, facts, interview.Status{})
	require.NoError(t, err)
	second, err := engine.Decide(context.Background(), transcript, facts, interview.Status{})
	require.NoError(t, err)

	require.Equal(t, first.Question.ID, second.Question.ID,
		"reprocessing the same transcript must pick the same question")
	require.Equal(t, interview.Canonical[1].ID, first.Question.ID)
}

func TestCanonicalEngine_AsksNameFirst(t *testing.T) {
	engine := interview.NewCanonicalEngine()
	decision, err := engine.Decide(context.Background(), nil, models.FactRecord{}, interview.Status{})
	require.NoError(t, err)
	require.Equal(t, interview.ActionAsk, decision.Action)
	require.Equal(t, interview.Intro.ID, decision.Question.ID)
}

func TestCanonicalEngine_CompletionTriggersBrief(t *testing.T) {
	engine := interview.NewCanonicalEngine()
	decision, err := engine.Decide(context.Background(), nil, models.FactRecord{Name: "Dana"},
		interview.Status{Complete: true})
	require.NoError(t, err)
	require.Equal(t, interview.ActionGenerateBrief, decision.Action)
}

type verdictCompleter struct {
	verdict string
	err     error
	calls   int
}

func (v *verdictCompleter) Complete(_ context.Context, _ []openai.ChatCompletionMessage) (string, error) {
	v.calls++
	return v.verdict, v.err
}

func newAdaptiveEngine(completer ai.Completer) *interview.AdaptiveEngine {
	logger := testhelpers.NewLogger(io.Discard)
	llm := ai.NewResilientClient(completer,
		ai.RetryPolicy{MaxAttempts: 1, BaseDelay: time.Millisecond}, logger)
	return interview.NewAdaptiveEngine(llm, logger)
}

func deepAnswer() models.Message {
	return answered("We run a subscription box for specialty coffee with a churn-based business model")
}

func TestAdaptiveEngine_FollowUpOnShallowStrategicAnswer(t *testing.T) {
	completer := &verdictCompleter{verdict: "YES\nThe business model is named but the revenue mechanics are unexplained."}
	engine := newAdaptiveEngine(completer)

	transcript := []models.Message{
		asked(interview.Canonical[0], "Dana"),
		deepAnswer(),
	}
	decision, err := engine.Decide(context.Background(), transcript,
		models.FactRecord{Name: "Dana"}, interview.Status{})

	require.NoError(t, err)
	require.Equal(t, interview.ActionFollowUp, decision.Action)
	require.Contains(t, decision.Reasoning, "revenue mechanics")
}

func TestAdaptiveEngine_SkipsFollowUpForShortAnswers(t *testing.T) {
	completer := &verdictCompleter{verdict: "YES\nshould not be consulted"}
	engine := newAdaptiveEngine(completer)

	transcript := []models.Message{
		asked(interview.Canonical[0], "Dana"),
		answered("a coffee app"),
	}
	decision, err := engine.Decide(context.Background(), transcript,
		models.FactRecord{Name: "Dana"}, interview.Status{})

	require.NoError(t, err)
	require.Equal(t, interview.ActionAsk, decision.Action)
	require.Zero(t, completer.calls, "short answers must not consult the model")
}

func TestAdaptiveEngine_FollowUpBudgetPerTopic(t *testing.T) {
	completer := &verdictCompleter{verdict: "YES\nalways deeper"}
	engine := newAdaptiveEngine(completer)
	facts := models.FactRecord{Name: "Dana"}

	transcript := []models.Message{
		asked(interview.Canonical[0], "Dana"),
		deepAnswer(),
		{Role: models.RoleAssistant, Content: "How exactly does the subscription earn money?"},
		deepAnswer(),
		{Role: models.RoleAssistant, Content: "And how do you keep churn down?"},
		deepAnswer(),
	}
	decision, err := engine.Decide(context.Background(), transcript, facts, interview.Status{})

	require.NoError(t, err)
	require.Equal(t, interview.ActionAsk, decision.Action,
		"two follow-ups on a topic must force a topic change")
	require.Equal(t, interview.Canonical[1].ID, decision.Question.ID)
}

func TestAdaptiveEngine_UnavailableModelFallsBackToBackbone(t *testing.T) {
	completer := &verdictCompleter{err: &openai.APIError{HTTPStatusCode: http.StatusServiceUnavailable}}
	engine := newAdaptiveEngine(completer)

	transcript := []models.Message{
		asked(interview.Canonical[0], "Dana"),
		deepAnswer(),
	}
	decision, err := engine.Decide(context.Background(), transcript,
		models.FactRecord{Name: "Dana"}, interview.Status{})

	require.NoError(t, err)
	require.Equal(t, interview.ActionAsk, decision.Action)
	require.Equal(t, interview.Canonical[1].ID, decision.Question.ID)
}

// TestAdaptiveEngine_TerminationBound plays the worst case: the model always
// wants another follow-up. The interview must still reach the brief within
// 4 canonical questions plus 2 follow-ups each.
func TestAdaptiveEngine_TerminationBound(t *testing.T) {
	completer := &verdictCompleter{verdict: "YES\nalways deeper"}
	engine := newAdaptiveEngine(completer)
	facts := models.FactRecord{Name: "Dana"}

	var transcript []models.Message
	maxTurns := 4 + 4*2
	for turn := 0; ; turn++ {
		require.LessOrEqual(t, turn, maxTurns, "interview failed to terminate")

		decision, err := engine.Decide(context.Background(), transcript, facts, interview.Status{})
		require.NoError(t, err)
		if decision.Action == interview.ActionGenerateBrief {
			break
		}

		question := models.Message{
			Role:    models.RoleAssistant,
			Content: "Tell me more about that, please, in as much detail as you can.",
		}
		if decision.Action == interview.ActionAsk {
			question = asked(decision.Question, facts.Name)
		}
		transcript = append(transcript, question, deepAnswer())
	}

	require.Equal(t, len(interview.Canonical), interview.CountAsked(transcript))
}

func TestAdvancePhase(t *testing.T) {
	askNext := interview.Decision{Action: interview.ActionAsk, TopicChanged: true}
	followUp := interview.Decision{Action: interview.ActionFollowUp}
	brief := interview.Decision{Action: interview.ActionGenerateBrief}

	tests := []struct {
		name     string
		current  models.Phase
		decision interview.Decision
		status   interview.Status
		want     models.Phase
	}{
		{"topic change advances one step", models.PhaseIntroduction, askNext, interview.Status{}, models.PhaseDiscovery},
		{"follow-up stays put", models.PhaseDiscovery, followUp, interview.Status{}, models.PhaseDiscovery},
		{"completion advances", models.PhaseDeepDive, followUp, interview.Status{Complete: true}, models.PhaseValidation},
		{"brief decision is terminal", models.PhaseValidation, brief, interview.Status{}, models.PhaseBriefGeneration},
		{"topic change never enters terminal phase", models.PhaseValidation, askNext, interview.Status{}, models.PhaseValidation},
		{"terminal phase never regresses", models.PhaseBriefGeneration, askNext, interview.Status{}, models.PhaseBriefGeneration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := interview.AdvancePhase(tt.current, tt.decision, tt.status)
			require.Equal(t, tt.want, got)
			// A phase transition must never regress.
			require.False(t, got.Before(tt.current))
		})
	}
}

func TestAdaptiveEngine_HardTurnCap(t *testing.T) {
	completer := &verdictCompleter{verdict: "NO\nmove on"}
	engine := newAdaptiveEngine(completer)
	engine.MaxAssistantTurns = 2

	transcript := []models.Message{
		{Role: models.RoleAssistant, Content: "first free-form question"},
		deepAnswer(),
		{Role: models.RoleAssistant, Content: "second free-form question"},
		deepAnswer(),
	}
	decision, err := engine.Decide(context.Background(), transcript,
		models.FactRecord{Name: "Dana"}, interview.Status{})
	require.NoError(t, err)
	require.Equal(t, interview.ActionGenerateBrief, decision.Action)
	require.False(t, strings.Contains(decision.Reasoning, "canonical"))
}
