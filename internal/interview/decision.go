package interview

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/myrjola/briefly/internal/ai"
	"github.com/myrjola/briefly/internal/errors"
	"github.com/myrjola/briefly/internal/models"
)

type Action string

const (
	// ActionAsk emits the next templated question from the backbone.
	ActionAsk Action = "ask"
	// ActionFollowUp digs deeper into the current topic before moving on.
	ActionFollowUp Action = "follow_up"
	// ActionGenerateBrief ends the interview and synthesizes the brief.
	ActionGenerateBrief Action = "generate_brief"
)

// Decision is the engine's choice of next action for one turn.
type Decision struct {
	Action       Action
	Question     Question
	Reasoning    string
	TopicChanged bool
}

// DecisionEngine picks the next interview action from the transcript, the
// fact record, and the completion status. Implementations must guarantee
// monotonic progress and must stay idempotent when the same transcript is
// processed twice.
type DecisionEngine interface {
	Decide(
		ctx context.Context,
		transcript []models.Message,
		facts models.FactRecord,
		status Status,
	) (Decision, error)
}

// CanonicalEngine walks the fixed question backbone strictly in order. The
// position is recomputed from the transcript every turn, so a retried or
// replayed turn lands on the same question instead of advancing past it. No
// model call is needed to decide.
type CanonicalEngine struct{}

func NewCanonicalEngine() CanonicalEngine {
	return CanonicalEngine{}
}

func (e CanonicalEngine) Decide(
	_ context.Context,
	transcript []models.Message,
	facts models.FactRecord,
	status Status,
) (Decision, error) {
	count := CountAsked(transcript)
	if count >= len(Canonical) || status.Complete {
		return Decision{
			Action:    ActionGenerateBrief,
			Reasoning: fmt.Sprintf("%d of %d canonical questions asked", count, len(Canonical)),
		}, nil
	}

	if facts.Name == "" && count == 0 && !IntroAsked(transcript) {
		return Decision{
			Action:       ActionAsk,
			Question:     Intro,
			Reasoning:    "collecting name before the backbone",
			TopicChanged: false,
		}, nil
	}

	return Decision{
		Action:       ActionAsk,
		Question:     Canonical[count],
		Reasoning:    fmt.Sprintf("canonical question %d of %d", count+1, len(Canonical)),
		TopicChanged: true,
	}, nil
}

// AdaptiveEngine follows the same backbone but lets the model judge whether
// the latest answer deserves a follow-up before moving to the next topic.
type AdaptiveEngine struct {
	llm    *ai.ResilientClient
	logger *slog.Logger
	// MaxFollowUps caps follow-ups per topic so the interview cannot stall.
	MaxFollowUps int
	// MaxAssistantTurns is the hard cap on total questions before the brief
	// is forced.
	MaxAssistantTurns int
	// MinAnswerLength skips follow-up evaluation for short answers.
	MinAnswerLength int
}

func NewAdaptiveEngine(llm *ai.ResilientClient, logger *slog.Logger) *AdaptiveEngine {
	return &AdaptiveEngine{
		llm:               llm,
		logger:            logger.With("source", "AdaptiveEngine"),
		MaxFollowUps:      2,
		MaxAssistantTurns: 12,
		MinAnswerLength:   40,
	}
}

func (e *AdaptiveEngine) Decide(
	ctx context.Context,
	transcript []models.Message,
	facts models.FactRecord,
	status Status,
) (Decision, error) {
	count := CountAsked(transcript)
	if count >= len(Canonical) || status.Complete || assistantTurns(transcript) >= e.MaxAssistantTurns {
		return Decision{
			Action:    ActionGenerateBrief,
			Reasoning: "interview budget spent or completion criteria met",
		}, nil
	}

	if facts.Name == "" && count == 0 && !IntroAsked(transcript) {
		return Decision{
			Action:    ActionAsk,
			Question:  Intro,
			Reasoning: "collecting name before the backbone",
		}, nil
	}

	next := Decision{
		Action:       ActionAsk,
		Question:     Canonical[count],
		Reasoning:    fmt.Sprintf("canonical question %d of %d", count+1, len(Canonical)),
		TopicChanged: true,
	}

	// No topic to deepen before the first canonical answer.
	if count == 0 {
		return next, nil
	}

	exchanges := models.Exchanges(transcript)
	if len(exchanges) == 0 {
		return next, nil
	}
	last := exchanges[len(exchanges)-1]
	if len(last.Answer) < e.MinAnswerLength {
		next.Reasoning = "short answer, moving to the next topic"
		return next, nil
	}
	if followUpsOnCurrentTopic(transcript) >= e.MaxFollowUps {
		next.Reasoning = "follow-up budget for this topic spent"
		return next, nil
	}

	wantsFollowUp, why, err := e.evaluateFollowUp(ctx, last)
	if err != nil {
		// The evaluation is advisory. When the model is unavailable, fall back
		// to the deterministic walk rather than stalling the interview.
		e.logger.LogAttrs(ctx, slog.LevelWarn, "follow-up evaluation unavailable",
			errors.SlogError(err))
		return next, nil
	}
	if wantsFollowUp {
		return Decision{
			Action:    ActionFollowUp,
			Question:  Canonical[count-1],
			Reasoning: why,
		}, nil
	}
	next.Reasoning = why
	return next, nil
}

// evaluateFollowUp asks the model for a YES/NO verdict with a short
// justification on whether the latest answer warrants digging deeper.
func (e *AdaptiveEngine) evaluateFollowUp(
	ctx context.Context,
	last models.Exchange,
) (bool, string, error) {
	prompt := fmt.Sprintf(
		`You are conducting a strategy interview. The founder was asked:
%q
and answered:
%q

Should you ask one follow-up question before changing topic? Follow up only if
the answer touches a strategic topic without explaining it in depth, e.g. it
names a business model without explaining the revenue mechanics. Do not follow
up on short, off-topic, or basic-info answers.

Reply with YES or NO on the first line and a one-sentence justification on the
second line.`,
		last.Question, last.Answer)

	verdict, err := e.llm.Invoke(ctx, prompt)
	if err != nil {
		return false, "", err
	}

	lines := strings.SplitN(strings.TrimSpace(verdict), "\n", 2)
	why := ""
	if len(lines) > 1 {
		why = strings.TrimSpace(lines[1])
	}
	yes := strings.HasPrefix(strings.ToUpper(strings.TrimSpace(lines[0])), "YES")
	return yes, why, nil
}

func assistantTurns(transcript []models.Message) int {
	turns := 0
	for _, msg := range transcript {
		if msg.Role == models.RoleAssistant {
			turns++
		}
	}
	return turns
}
