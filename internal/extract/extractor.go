// Package extract distills a structured fact record from a discovery
// conversation transcript. The primary path asks the text-generation model to
// refine the prior record; when the model is unavailable or returns something
// unparseable, a deterministic keyword pass over the transcript fills in what
// it can.
package extract

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

type Extractor struct {
	llm    *ai.ResilientClient
	logger *slog.Logger
}

func NewExtractor(llm *ai.ResilientClient, logger *slog.Logger) *Extractor {
	return &Extractor{
		llm:    llm,
		logger: logger.With("source", "Extractor"),
	}
}

// Extract updates the fact record from the transcript. It never fails: model
// or parse trouble downgrades to the heuristic pass, and the result is always
// merged so that filled prior fields survive.
func (e *Extractor) Extract(
	ctx context.Context,
	transcript []models.Message,
	prior models.FactRecord,
) models.FactRecord {
	raw, err := e.llm.Invoke(ctx, extractionPrompt(transcript, prior))
	if err != nil {
		e.logger.LogAttrs(ctx, slog.LevelWarn, "model extraction unavailable, using heuristics",
			errors.SlogError(err))
		return prior.Merge(HeuristicPass(transcript))
	}

	update, err := decodeFactRecord(raw)
	if err != nil {
		// Recoverable: the model responded but not with the structure we asked for.
		e.logger.LogAttrs(ctx, slog.LevelWarn, "unparseable extraction output, using heuristics",
			errors.SlogError(err), slog.Int("rawLength", len(raw)))
		return prior.Merge(HeuristicPass(transcript))
	}

	return prior.Merge(update)
}

func extractionPrompt(transcript []models.Message, prior models.FactRecord) string {
	var b strings.Builder
	b.WriteString("You are extracting business facts from a discovery interview.\n")
	b.WriteString("Refine the known facts below with anything new from the transcript. ")
	b.WriteString("Keep known values unless the transcript clearly corrects them. ")
	b.WriteString("Respond with a single JSON object with these optional string fields: ")
	b.WriteString("name, project, target_audience, core_problem, desired_outcome, timeline, ")
	b.WriteString("budget, industry, business_stage, founder_type. No other text.\n\n")

	known, err := json.Marshal(prior)
	if err == nil {
		fmt.Fprintf(&b, "Known facts: %s\n\n", known)
	}

	b.WriteString("Transcript:\n")
	for _, msg := range transcript {
		fmt.Fprintf(&b, "%s: %s\n", msg.Role, msg.Content)
	}
	return b.String()
}

// decodeFactRecord parses model output into a fact record, tolerating code
// fences and prose around the JSON object.
func decodeFactRecord(raw string) (models.FactRecord, error) {
	var record models.FactRecord
	jsonText, err := extractJSONObject(raw)
	if err != nil {
		return record, err
	}
	if err = json.Unmarshal([]byte(jsonText), &record); err != nil {
		return models.FactRecord{}, errors.Wrap(err, "unmarshal fact record")
	}
	return record, nil
}

// extractJSONObject returns the outermost JSON object embedded in raw text.
func extractJSONObject(raw string) (string, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end <= start {
		return "", errors.New("no JSON object in model output")
	}
	return raw[start : end+1], nil
}
