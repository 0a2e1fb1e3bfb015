package engine

import (
	"strings"

	"github.com/myrjola/briefly/internal/models"
)

// advancedVocabulary signals founders who already think in strategy terms.
var advancedVocabulary = []string{
	"cac", "ltv", "churn", "arr", "mrr", "runway", "unit economics",
	"retention", "conversion", "gross margin", "payback", "cohort",
}

// sophisticationLevel grades the founder's vocabulary across their messages.
func sophisticationLevel(transcript []models.Message) models.Sophistication {
	seen := map[string]struct{}{}
	for _, msg := range transcript {
		if msg.Role != models.RoleUser {
			continue
		}
		content := strings.ToLower(msg.Content)
		for _, term := range advancedVocabulary {
			if strings.Contains(content, term) {
				seen[term] = struct{}{}
			}
		}
	}
	switch {
	case len(seen) >= 3:
		return models.SophisticationAdvanced
	case len(seen) >= 1:
		return models.SophisticationIntermediate
	default:
		return models.SophisticationBeginner
	}
}

// engagementDelta scores one answer's effort. The session's engagement score
// only ever accumulates, so it stays monotonically non-decreasing.
func engagementDelta(userInput string) int64 {
	delta := int64(len(userInput) / 20)
	if delta > 10 {
		delta = 10
	}
	return delta
}

// wantsHandoff detects an explicit request for a human.
func wantsHandoff(userInput string) bool {
	content := strings.ToLower(userInput)
	for _, phrase := range []string{
		"talk to a human", "speak to a human", "talk to a person",
		"speak to someone", "real person",
	} {
		if strings.Contains(content, phrase) {
			return true
		}
	}
	return false
}
