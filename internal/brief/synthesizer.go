// Package brief turns a finished discovery conversation into the strategic
// brief delivered back to the founder. The model writes the brief when it can;
// a prose salvage path and a deterministic template guarantee the founder
// always receives a document.
package brief

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/myrjola/briefly/internal/ai"
	"github.com/myrjola/briefly/internal/errors"
	"github.com/myrjola/briefly/internal/models"
)

// recommendationCatalog seeds the synthesis prompt with the engagements we can
// actually deliver, so the model recommends from a real menu.
var recommendationCatalog = []string{
	"Positioning audit: sharpen the one-sentence answer to why you over the alternatives",
	"Customer discovery sprint: 10 structured interviews with the target segment",
	"Messaging map: one core promise per audience with proof points",
	"Pricing review: align the pricing model with the value metric",
	"Launch roadmap: sequence the next 90 days into shippable milestones",
	"Channel experiment plan: three cheap acquisition tests with kill criteria",
}

type Synthesizer struct {
	llm    *ai.ResilientClient
	logger *slog.Logger
	// MaxSalvageRunes bounds how much model prose the salvage path keeps when
	// the output isn't valid structured data.
	MaxSalvageRunes int
}

func NewSynthesizer(llm *ai.ResilientClient, logger *slog.Logger) *Synthesizer {
	return &Synthesizer{
		llm:             llm,
		logger:          logger.With("source", "Synthesizer"),
		MaxSalvageRunes: 4000,
	}
}

// Synthesize composes the brief from the full transcript and fact record. It
// never fails: unparseable model output is salvaged as prose, and an
// unavailable model falls back to a deterministic template built from the
// fact record alone.
func (s *Synthesizer) Synthesize(
	ctx context.Context,
	transcript []models.Message,
	facts models.FactRecord,
) models.Brief {
	raw, err := s.llm.Invoke(ctx, synthesisPrompt(transcript, facts))
	if err != nil {
		s.logger.LogAttrs(ctx, slog.LevelWarn, "model unavailable, using template brief",
			errors.SlogError(err))
		return templateBrief(facts)
	}

	parsed, err := decodeBrief(raw)
	if err != nil {
		s.logger.LogAttrs(ctx, slog.LevelWarn, "unparseable brief output, salvaging prose",
			errors.SlogError(err), slog.Int("rawLength", len(raw)))
		return s.salvageBrief(raw, facts)
	}
	return parsed
}

func synthesisPrompt(transcript []models.Message, facts models.FactRecord) string {
	var b strings.Builder
	b.WriteString("Write a strategic brief for the founder interviewed below.\n")
	b.WriteString("Respond with a single JSON object: {\"opening\": string, \"sections\": ")
	b.WriteString("[{\"title\": string, \"content\": string}]} and no other text.\n")
	b.WriteString("Sections, in order: Strategic Assessment, Recommendations, Roadmap, Next Steps.\n")
	b.WriteString("The opening addresses the founder by name. Recommend only from this catalog:\n")
	for _, rec := range recommendationCatalog {
		fmt.Fprintf(&b, "- %s\n", rec)
	}

	if known, err := json.Marshal(facts); err == nil {
		fmt.Fprintf(&b, "\nKnown facts: %s\n", known)
	}

	b.WriteString("\nTranscript:\n")
	for _, msg := range transcript {
		fmt.Fprintf(&b, "%s: %s\n", msg.Role, msg.Content)
	}
	return b.String()
}

func decodeBrief(raw string) (models.Brief, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end <= start {
		return models.Brief{}, errors.New("no JSON object in model output")
	}
	var parsed models.Brief
	if err := json.Unmarshal([]byte(raw[start:end+1]), &parsed); err != nil {
		return models.Brief{}, errors.Wrap(err, "unmarshal brief")
	}
	if parsed.Empty() {
		return models.Brief{}, errors.New("brief has no content")
	}
	return parsed, nil
}

// salvageBrief wraps whatever prose the model produced into a
// minimally-structured brief so the founder still receives a document.
func (s *Synthesizer) salvageBrief(raw string, facts models.FactRecord) models.Brief {
	prose := strings.TrimSpace(raw)
	if runes := []rune(prose); len(runes) > s.MaxSalvageRunes {
		prose = string(runes[:s.MaxSalvageRunes])
	}
	if prose == "" {
		return templateBrief(facts)
	}
	return models.Brief{
		Opening: opening(facts),
		Sections: []models.BriefSection{
			{Title: "Strategic Assessment", Content: prose},
		},
	}
}

func opening(facts models.FactRecord) string {
	if facts.Name == "" {
		return "Here is your strategic brief."
	}
	return fmt.Sprintf("%s, here is your strategic brief.", facts.Name)
}
