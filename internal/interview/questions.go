// Package interview holds the decision logic of the discovery conversation:
// the canonical question backbone, the completion tracker, the phase machine,
// and the engines that pick the next action each turn.
package interview

import (
	"strings"
	"unicode"

	"github.com/myrjola/briefly/internal/models"
)

// Question is one entry of the fixed strategic question backbone.
type Question struct {
	// ID is a stable machine-readable marker persisted with the emitted
	// assistant message so progress can be recounted without matching on
	// question wording.
	ID       string
	Topic    string
	Template string
	// matchPhrases detect the question in caller-supplied history that lacks
	// ID markers. Lowercase substrings of the template.
	matchPhrases []string
}

// Intro collects the founder's name before the canonical backbone starts.
var Intro = Question{
	ID:           "name",
	Topic:        "introduction",
	Template:     "Welcome! Before we dig in, what's your name?",
	matchPhrases: []string{"what's your name"},
}

// Canonical is the ordered, fixed backbone of the interview. It is walked
// strictly in order and never modified at runtime.
var Canonical = []Question{
	{
		ID:           "project",
		Topic:        "project",
		Template:     "What are you working on right now?",
		matchPhrases: []string{"what are you working on"},
	},
	{
		ID:           "audience",
		Topic:        "audience",
		Template:     "Who is your target customer?",
		matchPhrases: []string{"who is your target customer", "target audience"},
	},
	{
		ID:           "success",
		Topic:        "success",
		Template:     "What does success look like for you?",
		matchPhrases: []string{"what does success look like"},
	},
	{
		ID:           "timeline_budget",
		Topic:        "timeline_budget",
		Template:     "What's your timeline and budget?",
		matchPhrases: []string{"timeline and budget"},
	},
}

// Phrase personalizes the question with the founder's name when known,
// e.g. "Dana, what are you working on right now?".
func (q Question) Phrase(name string) string {
	if name == "" {
		return q.Template
	}
	return name + ", " + lowerFirst(q.Template)
}

// Matches reports whether the assistant message asked this question, checking
// the persisted ID marker first and falling back to template substring match
// for history that round-tripped through a caller without markers.
func (q Question) Matches(msg models.Message) bool {
	if msg.Role != models.RoleAssistant {
		return false
	}
	if msg.QuestionID != "" {
		return msg.QuestionID == q.ID
	}
	content := strings.ToLower(msg.Content)
	for _, phrase := range q.matchPhrases {
		if strings.Contains(content, phrase) {
			return true
		}
	}
	return false
}

// CountAsked recounts how many canonical questions the transcript already
// contains. The count is derived from content every turn rather than trusting
// a caller-supplied counter, so replaying the same transcript always yields
// the same count.
func CountAsked(transcript []models.Message) int {
	count := 0
	for _, q := range Canonical {
		for _, msg := range transcript {
			if q.Matches(msg) {
				count++
				break
			}
		}
	}
	return count
}

// IntroAsked reports whether the name question was already asked.
func IntroAsked(transcript []models.Message) bool {
	for _, msg := range transcript {
		if Intro.Matches(msg) {
			return true
		}
	}
	return false
}

// followUpsOnCurrentTopic counts assistant messages since the most recent
// canonical question that are not themselves canonical questions.
func followUpsOnCurrentTopic(transcript []models.Message) int {
	followUps := 0
	for _, msg := range transcript {
		if msg.Role != models.RoleAssistant {
			continue
		}
		if isCanonical(msg) || Intro.Matches(msg) {
			followUps = 0
			continue
		}
		followUps++
	}
	return followUps
}

func isCanonical(msg models.Message) bool {
	for _, q := range Canonical {
		if q.Matches(msg) {
			return true
		}
	}
	return false
}

func lowerFirst(s string) string {
	runes := []rune(s)
	if len(runes) == 0 {
		return s
	}
	runes[0] = unicode.ToLower(runes[0])
	return string(runes)
}
