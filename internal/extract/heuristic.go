package extract

import (
	"strings"

	"github.com/myrjola/briefly/internal/models"
)

// fieldKeywords maps each fact-record field to the question vocabulary that
// signals an answer belongs to it. An answer only fills a field when the
// question that prompted it plausibly asked for that field, so an answer about
// timelines never contaminates the audience field.
var fieldKeywords = map[string][]string{
	"name":     {"your name", "call you", "who am i speaking", "introduce yourself"},
	"project":  {"working on", "your project", "your business", "your idea", "building", "tell me about your"},
	"audience": {"audience", "customer", "target", "who is it for", "who are you serving"},
	"problem":  {"problem", "challenge", "pain", "struggle", "frustrat"},
	"outcome":  {"success look", "your goal", "achieve", "outcome", "win look"},
	"timeline": {"timeline", "deadline", "how soon", "time frame", "timeframe", "when do you"},
	"budget":   {"budget", "spend", "invest", "how much", "resources"},
}

// namePrefixes are filler phrases stripped from an answer before treating the
// remainder as a name candidate.
var namePrefixes = []string{
	"my name is",
	"my name's",
	"the name is",
	"i'm",
	"i am",
	"im",
	"call me",
	"it's",
	"its",
	"this is",
}

var nameStopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "and": {}, "is": {}, "am": {}, "are": {},
	"my": {}, "name": {}, "i": {}, "to": {}, "nice": {}, "meet": {}, "you": {},
	"there": {}, "everyone": {}, "just": {}, "really": {}, "well": {},
}

// HeuristicPass scans (question, answer) pairs in the transcript and fills
// fact-record fields whose question vocabulary matches. It is the
// deterministic fallback when model extraction is unavailable or unparseable.
func HeuristicPass(transcript []models.Message) models.FactRecord {
	var record models.FactRecord
	for _, exchange := range models.Exchanges(transcript) {
		if exchange.Answer == "" {
			continue
		}
		question := strings.ToLower(exchange.Question)
		answer := strings.TrimSpace(exchange.Answer)

		if record.Name == "" {
			// The name often arrives unprompted ("My name is Dana" as an opener),
			// so also accept filler-phrase answers regardless of the question.
			if matchesField(question, "name") || startsWithNameFiller(answer) {
				record.Name = extractName(answer)
			}
		}
		if record.Project == "" && matchesField(question, "project") {
			record.Project = answer
		}
		if record.Audience == "" && matchesField(question, "audience") {
			record.Audience = answer
		}
		if record.Problem == "" && matchesField(question, "problem") {
			record.Problem = answer
		}
		if record.DesiredOutcome == "" && matchesField(question, "outcome") {
			record.DesiredOutcome = answer
		}
		if record.Timeline == "" && matchesField(question, "timeline") {
			record.Timeline = answer
		}
		if record.Budget == "" && matchesField(question, "budget") {
			record.Budget = answer
		}
	}
	return record
}

func matchesField(question, field string) bool {
	for _, keyword := range fieldKeywords[field] {
		if strings.Contains(question, keyword) {
			return true
		}
	}
	return false
}

func startsWithNameFiller(answer string) bool {
	lower := stripGreeting(strings.ToLower(strings.TrimSpace(answer)))
	for _, prefix := range []string{"my name is", "my name's", "call me", "i'm ", "i am "} {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

// stripGreeting removes a leading greeting like "hi," or "hello!" so the
// remainder can be checked for filler phrases.
func stripGreeting(lower string) string {
	for _, greeting := range []string{"hello", "hey", "hi"} {
		if !strings.HasPrefix(lower, greeting) {
			continue
		}
		rest := lower[len(greeting):]
		if rest == "" {
			return ""
		}
		switch rest[0] {
		case ' ', ',', '!', '.':
			return strings.TrimSpace(strings.TrimLeft(rest, " ,!."))
		}
	}
	return lower
}

// extractName pulls a plausible name out of a free-form answer by stripping
// filler phrases and stopwords before accepting a token as the name.
func extractName(answer string) string {
	candidate := stripGreeting(strings.ToLower(strings.TrimSpace(answer)))
	for _, prefix := range namePrefixes {
		if strings.HasPrefix(candidate, prefix+" ") {
			candidate = strings.TrimSpace(candidate[len(prefix):])
			break
		}
	}

	for _, token := range strings.Fields(candidate) {
		token = strings.Trim(token, ".,!?;:\"'")
		if token == "" {
			continue
		}
		if _, stop := nameStopwords[token]; stop {
			continue
		}
		return capitalize(token)
	}
	return ""
}

func capitalize(word string) string {
	if word == "" {
		return word
	}
	return strings.ToUpper(word[:1]) + word[1:]
}
