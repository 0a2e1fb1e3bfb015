package models

import "time"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a discovery conversation. Messages are append-only
// and never mutated after creation. The ordered sequence of messages for a
// session is the transcript.
type Message struct {
	ID      int64
	Role    Role
	Content string
	// QuestionID tags assistant messages that asked a canonical question with
	// the stable ID of that question. It lets the engine recount interview
	// progress without matching on question wording. Empty for user messages
	// and free-form assistant messages.
	QuestionID string
	CreatedAt  time.Time
}

// Exchange is a (question, answer) pair distilled from the transcript,
// pairing each assistant message with the user message that follows it.
type Exchange struct {
	Question   string
	QuestionID string
	Answer     string
}

// Exchanges pairs up assistant questions with the user answers that follow them.
// A leading user message without a preceding question is paired with an empty question.
func Exchanges(transcript []Message) []Exchange {
	var (
		exchanges []Exchange
		pending   *Exchange
	)
	for _, msg := range transcript {
		switch msg.Role {
		case RoleAssistant:
			if pending != nil {
				exchanges = append(exchanges, *pending)
			}
			pending = &Exchange{Question: msg.Content, QuestionID: msg.QuestionID}
		case RoleUser:
			if pending == nil {
				pending = &Exchange{}
			}
			pending.Answer = msg.Content
			exchanges = append(exchanges, *pending)
			pending = nil
		}
	}
	if pending != nil && pending.Answer != "" {
		exchanges = append(exchanges, *pending)
	}
	return exchanges
}
