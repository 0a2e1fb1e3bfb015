// Package engine wires the discovery interview together: it owns the session,
// runs extraction, consults the decision engine, and hands out the brief when
// the interview is done. It is invoked once per user turn and reconstructs all
// cross-turn state from the store or, failing that, from caller-supplied
// history.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/myrjola/briefly/internal/ai"
	"github.com/myrjola/briefly/internal/brief"
	"github.com/myrjola/briefly/internal/errors"
	"github.com/myrjola/briefly/internal/extract"
	"github.com/myrjola/briefly/internal/interview"
	"github.com/myrjola/briefly/internal/models"
	"github.com/myrjola/briefly/internal/random"
	"github.com/myrjola/briefly/internal/repositories"
	"github.com/myrjola/briefly/internal/sessionlock"
)

// ErrInvalidRequest rejects requests missing required input. It is the only
// error class surfaced to the user as an error.
var ErrInvalidRequest = errors.NewSentinel("invalid request")

const sessionIDLength = 20

type Orchestrator struct {
	store       Store
	extractor   *extract.Extractor
	synthesizer *brief.Synthesizer
	decider     interview.DecisionEngine
	tracker     interview.Tracker
	llm         *ai.ResilientClient
	locks       *sessionlock.Keyed
	logger      *slog.Logger
}

// New constructs the orchestrator with its collaborators injected. A nil
// store is allowed: the engine then runs every session in not_ready mode on
// caller-supplied history alone.
func New(
	store Store,
	llm *ai.ResilientClient,
	decider interview.DecisionEngine,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		store:       store,
		extractor:   extract.NewExtractor(llm, logger),
		synthesizer: brief.NewSynthesizer(llm, logger),
		decider:     decider,
		tracker:     interview.NewTracker(),
		llm:         llm,
		locks:       sessionlock.New(),
		logger:      logger.With("source", "Orchestrator"),
	}
}

// turnState tracks how far persistence degraded during one turn.
type turnState struct {
	persistence PersistenceStatus
}

func (t *turnState) degrade() {
	if t.persistence == PersistenceConnected {
		t.persistence = PersistenceFallback
	}
}

// ProcessTurn handles one user turn end to end. Apart from ErrInvalidRequest,
// faults never surface as errors: the turn degrades to fallback paths and, as
// a last resort, an apologetic retry message.
func (o *Orchestrator) ProcessTurn(ctx context.Context, req TurnRequest) (resp TurnResponse, err error) {
	if strings.TrimSpace(req.UserInput) == "" {
		return TurnResponse{}, errors.Wrap(ErrInvalidRequest, "userInput is required")
	}

	sessionID := req.SessionID
	if sessionID == "" {
		if sessionID, err = random.Letters(sessionIDLength); err != nil {
			return TurnResponse{}, errors.Wrap(err, "generate session id")
		}
	}

	state := &turnState{persistence: PersistenceConnected}
	if o.store == nil {
		state.persistence = PersistenceNotReady
	}

	defer func() {
		if r := recover(); r != nil {
			o.logger.LogAttrs(ctx, slog.LevelError, "panic during turn",
				slog.String("session_id", sessionID), slog.Any("panic", r))
			resp = o.apologize(sessionID, state)
			err = nil
		}
	}()

	// Append-then-recompute must be one logical step per session, or a
	// double-submit could ask the same canonical question twice.
	o.locks.Lock(sessionID)
	defer o.locks.Unlock(sessionID)

	session, transcript, facts := o.loadState(ctx, sessionID, req, state)

	// A completed session never regenerates its brief.
	if session.Phase.Terminal() {
		return o.completedResponse(ctx, session, transcript, facts, state), nil
	}

	userMsg := models.Message{Role: models.RoleUser, Content: req.UserInput, CreatedAt: time.Now()}
	transcript = append(transcript, userMsg)
	o.appendMessage(ctx, sessionID, userMsg, state)

	if wantsHandoff(req.UserInput) {
		return TurnResponse{
			Message: "Of course. I'll hand this conversation over to one of our strategists, " +
				"who will pick up right where we left off.",
			Action:            ActionHandoff,
			Phase:             string(session.Phase),
			SessionID:         sessionID,
			PersistenceStatus: state.persistence,
		}, nil
	}

	facts = o.extractor.Extract(ctx, transcript, facts)
	if o.store != nil {
		if serr := o.store.SaveInsights(ctx, sessionID, facts); serr != nil {
			o.logStoreFailure(ctx, "save insights", serr, state)
		}
	}

	status := o.tracker.Status(facts, len(transcript))

	decision, derr := o.decider.Decide(ctx, transcript, facts, status)
	if derr != nil {
		o.logger.LogAttrs(ctx, slog.LevelError, "decision engine failed",
			slog.String("session_id", sessionID), errors.SlogError(derr))
		return o.apologize(sessionID, state), nil
	}

	if decision.Action == interview.ActionGenerateBrief {
		return o.completeTurn(ctx, session, transcript, facts, status, state), nil
	}

	message, questionID := o.phraseQuestion(ctx, decision, facts)
	assistantMsg := models.Message{
		Role:       models.RoleAssistant,
		Content:    message,
		QuestionID: questionID,
		CreatedAt:  time.Now(),
	}
	o.appendMessage(ctx, sessionID, assistantMsg, state)

	o.updateSession(ctx, session, transcript, decision, status, req, state)

	return TurnResponse{
		Message:           message,
		Action:            ActionContinue,
		NextTopic:         session.Topic,
		Reasoning:         decision.Reasoning,
		CompletionScore:   status.Score(),
		Phase:             string(session.Phase),
		SessionID:         sessionID,
		PersistenceStatus: state.persistence,
	}, nil
}

// loadState reconstructs session, transcript, and facts from the store, or
// from the caller-supplied request when persistence is unavailable.
func (o *Orchestrator) loadState(
	ctx context.Context,
	sessionID string,
	req TurnRequest,
	state *turnState,
) (*models.Session, []models.Message, models.FactRecord) {
	session := models.NewSession(sessionID)
	var (
		transcript []models.Message
		facts      models.FactRecord
	)

	if o.store != nil {
		stored, err := o.store.GetSession(ctx, sessionID)
		switch {
		case err == nil:
			session = stored
		case isNotFound(err):
			if cerr := o.store.CreateSession(ctx, session); cerr != nil {
				o.logStoreFailure(ctx, "create session", cerr, state)
			}
		default:
			o.logStoreFailure(ctx, "get session", err, state)
		}

		if state.persistence == PersistenceConnected {
			var lerr error
			if transcript, lerr = o.store.ListMessages(ctx, sessionID); lerr != nil {
				o.logStoreFailure(ctx, "list messages", lerr, state)
			}
			var ierr error
			if facts, ierr = o.store.ListInsights(ctx, sessionID); ierr != nil {
				o.logStoreFailure(ctx, "list insights", ierr, state)
			}
		}
	}

	if state.persistence != PersistenceConnected {
		transcript = callerTranscript(req)
		if req.CurrentTopic != "" {
			session.Topic = req.CurrentTopic
		}
	}
	if facts.Name == "" && req.UserName != "" {
		facts.Name = req.UserName
	}
	return session, transcript, facts
}

// callerTranscript rebuilds a working transcript from whatever history the
// caller supplied.
func callerTranscript(req TurnRequest) []models.Message {
	if len(req.ConversationHistory) > 0 {
		transcript := make([]models.Message, 0, len(req.ConversationHistory))
		for _, entry := range req.ConversationHistory {
			role := models.RoleUser
			if entry.Role == string(models.RoleAssistant) {
				role = models.RoleAssistant
			}
			transcript = append(transcript, models.Message{
				Role:      role,
				Content:   entry.Content,
				CreatedAt: entry.Timestamp,
			})
		}
		return transcript
	}

	responses := make([]PriorResponse, len(req.PriorResponses))
	copy(responses, req.PriorResponses)
	sort.SliceStable(responses, func(i, j int) bool { return responses[i].Index < responses[j].Index })
	var transcript []models.Message
	for _, response := range responses {
		transcript = append(transcript,
			models.Message{Role: models.RoleAssistant, Content: response.Question},
			models.Message{Role: models.RoleUser, Content: response.Answer},
		)
	}
	return transcript
}

// completeTurn synthesizes the brief, persists it best-effort, and closes the
// interview.
func (o *Orchestrator) completeTurn(
	ctx context.Context,
	session *models.Session,
	transcript []models.Message,
	facts models.FactRecord,
	status interview.Status,
	state *turnState,
) TurnResponse {
	b := o.synthesizer.Synthesize(ctx, transcript, facts)
	if o.store != nil {
		if serr := o.store.SaveBrief(ctx, session.ID, b); serr != nil {
			o.logStoreFailure(ctx, "save brief", serr, state)
		}
	}

	closing := closingMessage(facts)
	o.appendMessage(ctx, session.ID,
		models.Message{Role: models.RoleAssistant, Content: closing, CreatedAt: time.Now()}, state)

	session.Phase = models.PhaseBriefGeneration
	session.Topic = "brief"
	if o.store != nil {
		if uerr := o.store.UpdateSession(ctx, session); uerr != nil {
			o.logStoreFailure(ctx, "update session", uerr, state)
		}
	}

	return TurnResponse{
		Message:           closing,
		Action:            ActionComplete,
		Reasoning:         "completion criteria met",
		CompletionScore:   status.Score(),
		Phase:             string(session.Phase),
		Brief:             &b,
		SessionID:         session.ID,
		PersistenceStatus: state.persistence,
	}
}

// completedResponse replays the already-finished session without regenerating
// the brief. Only when the stored brief is unreachable does it fall back to a
// fresh deterministic synthesis.
func (o *Orchestrator) completedResponse(
	ctx context.Context,
	session *models.Session,
	transcript []models.Message,
	facts models.FactRecord,
	state *turnState,
) TurnResponse {
	var b *models.Brief
	if o.store != nil {
		stored, err := o.store.GetBrief(ctx, session.ID)
		if err == nil {
			b = stored
		} else if !isNotFound(err) {
			o.logStoreFailure(ctx, "get brief", err, state)
		}
	}
	if b == nil {
		synthesized := o.synthesizer.Synthesize(ctx, transcript, facts)
		b = &synthesized
	}

	return TurnResponse{
		Message:           closingMessage(facts),
		Action:            ActionComplete,
		Reasoning:         "session already completed",
		CompletionScore:   o.tracker.Status(facts, len(transcript)).Score(),
		Phase:             string(models.PhaseBriefGeneration),
		Brief:             b,
		SessionID:         session.ID,
		PersistenceStatus: state.persistence,
	}
}

// phraseQuestion turns the decision into the actual assistant message. Only
// canonical and intro questions carry a question ID marker.
func (o *Orchestrator) phraseQuestion(
	ctx context.Context,
	decision interview.Decision,
	facts models.FactRecord,
) (string, string) {
	if decision.Action == interview.ActionAsk {
		return decision.Question.Phrase(facts.Name), decision.Question.ID
	}

	prompt := fmt.Sprintf(
		"Ask one concise follow-up question to deepen the topic %q. %s. Reply with the question only.",
		decision.Question.Topic, decision.Reasoning)
	followUp, err := o.llm.Invoke(ctx, prompt)
	if err != nil {
		o.logger.LogAttrs(ctx, slog.LevelWarn, "follow-up phrasing unavailable", errors.SlogError(err))
		return "Could you tell me a bit more about that?", ""
	}
	return strings.TrimSpace(followUp), ""
}

// updateSession refreshes the session heuristics and persists them
// best-effort after the turn.
func (o *Orchestrator) updateSession(
	ctx context.Context,
	session *models.Session,
	transcript []models.Message,
	decision interview.Decision,
	status interview.Status,
	req TurnRequest,
	state *turnState,
) {
	session.Phase = interview.AdvancePhase(session.Phase, decision, status)
	if decision.Question.Topic != "" {
		session.Topic = decision.Question.Topic
	}
	session.EngagementScore += engagementDelta(req.UserInput)
	if session.EngagementScore > 100 {
		session.EngagementScore = 100
	}
	session.Depth++
	session.Sophistication = sophisticationLevel(transcript)

	if o.store != nil {
		if err := o.store.UpdateSession(ctx, session); err != nil {
			o.logStoreFailure(ctx, "update session", err, state)
		}
	}
}

func (o *Orchestrator) appendMessage(
	ctx context.Context,
	sessionID string,
	msg models.Message,
	state *turnState,
) {
	if o.store == nil {
		return
	}
	if _, err := o.store.AppendMessage(ctx, sessionID, msg); err != nil {
		o.logStoreFailure(ctx, "append message", err, state)
	}
}

// logStoreFailure records a persistence failure and flips the turn to
// fallback mode. Store trouble never aborts the user-visible turn.
func (o *Orchestrator) logStoreFailure(ctx context.Context, op string, err error, state *turnState) {
	state.degrade()
	o.logger.LogAttrs(ctx, slog.LevelWarn, "persistence unavailable, continuing in fallback mode",
		slog.String("operation", op), errors.SlogError(err))
}

func (o *Orchestrator) apologize(sessionID string, state *turnState) TurnResponse {
	return TurnResponse{
		Message: "Something went wrong on our side. Could you send that again? " +
			"Everything you've shared so far is safe.",
		Action:            ActionContinue,
		SessionID:         sessionID,
		PersistenceStatus: state.persistence,
	}
}

func closingMessage(facts models.FactRecord) string {
	if facts.Name == "" {
		return "Thank you! I have everything I need. Your strategic brief is ready below."
	}
	return fmt.Sprintf("Thank you, %s! I have everything I need. Your strategic brief is ready below.",
		facts.Name)
}

func isNotFound(err error) bool {
	return errors.Is(err, repositories.ErrSessionNotFound) || errors.Is(err, repositories.ErrBriefNotFound)
}
