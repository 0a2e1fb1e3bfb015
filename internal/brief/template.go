package brief

import (
	"fmt"
	"strings"

	"github.com/myrjola/briefly/internal/models"
)

// templateBrief builds a brief from the fact record alone, without any model
// call. It is the last line of defense and must always succeed.
func templateBrief(facts models.FactRecord) models.Brief {
	return models.Brief{
		Opening: opening(facts),
		Sections: []models.BriefSection{
			{
				Title:   "Strategic Assessment",
				Content: assessmentSection(facts),
			},
			{
				Title:   "Recommendations",
				Content: recommendationsSection(facts),
			},
			{
				Title:   "Roadmap",
				Content: roadmapSection(facts),
			},
			{
				Title: "Next Steps",
				Content: "Review this brief, pick the recommendation that unblocks you fastest, " +
					"and book a working session to turn it into a plan.",
			},
		},
	}
}

func assessmentSection(facts models.FactRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are building %s", orUnknown(facts.Project, "an early-stage venture"))
	if facts.Audience != "" {
		fmt.Fprintf(&b, " for %s", facts.Audience)
	}
	b.WriteString(".")
	if facts.Problem != "" {
		fmt.Fprintf(&b, " The core problem you are solving: %s.", facts.Problem)
	}
	if facts.DesiredOutcome != "" {
		fmt.Fprintf(&b, " Success for you means %s.", facts.DesiredOutcome)
	}
	return b.String()
}

func recommendationsSection(facts models.FactRecord) string {
	var b strings.Builder
	b.WriteString("Based on what you shared, start here:\n")
	// The first catalog entries are the safest defaults when we know little.
	picks := recommendationCatalog[:3]
	for _, rec := range picks {
		fmt.Fprintf(&b, "- %s\n", rec)
	}
	if facts.Audience == "" {
		b.WriteString("- Before anything else, get specific about who this is for.\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func roadmapSection(facts models.FactRecord) string {
	timeline := orUnknown(facts.Timeline, "the next quarter")
	budget := orUnknown(facts.Budget, "your available budget")
	return fmt.Sprintf(
		"Working within %s and %s: validate the riskiest assumption first, "+
			"then invest in the channel that reaches %s most directly.",
		timeline, budget, orUnknown(facts.Audience, "your target customer"))
}

func orUnknown(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
