package engine

import (
	"time"

	"github.com/myrjola/briefly/internal/models"
)

// PriorResponse is a (question, answer) pair the caller carried over from
// earlier turns, used to rebuild the transcript when persistence is down.
type PriorResponse struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Index    int    `json:"index"`
}

// HistoryEntry is one transcript message as supplied by the caller.
type HistoryEntry struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// TurnRequest is the inbound contract for one user turn.
type TurnRequest struct {
	SessionID           string          `json:"sessionId,omitempty"`
	UserInput           string          `json:"userInput"`
	UserName            string          `json:"userName,omitempty"`
	CurrentTopic        string          `json:"currentTopic,omitempty"`
	PriorResponses      []PriorResponse `json:"priorResponses,omitempty"`
	ConversationHistory []HistoryEntry  `json:"conversationHistory,omitempty"`
}

type Action string

const (
	ActionContinue Action = "continue"
	ActionHandoff  Action = "handoff"
	ActionComplete Action = "complete"
)

type PersistenceStatus string

const (
	// PersistenceConnected means the durable store handled every call this turn.
	PersistenceConnected PersistenceStatus = "connected"
	// PersistenceFallback means at least one store call failed and the turn
	// ran on caller-supplied state instead.
	PersistenceFallback PersistenceStatus = "fallback"
	// PersistenceNotReady means no store was configured at all.
	PersistenceNotReady PersistenceStatus = "not_ready"
)

// TurnResponse is the outbound contract for one user turn.
type TurnResponse struct {
	Message           string            `json:"message"`
	Action            Action            `json:"action"`
	NextTopic         string            `json:"nextTopic,omitempty"`
	Reasoning         string            `json:"reasoning,omitempty"`
	CompletionScore   float64           `json:"completionScore,omitempty"`
	Phase             string            `json:"phase,omitempty"`
	Brief             *models.Brief     `json:"brief,omitempty"`
	SessionID         string            `json:"sessionId"`
	PersistenceStatus PersistenceStatus `json:"persistenceStatus"`
}
