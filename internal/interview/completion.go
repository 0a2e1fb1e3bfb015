package interview

import "github.com/myrjola/briefly/internal/models"

// Tracker decides when the interview has gathered enough to stop. It is pure:
// the same fact record and turn count always produce the same status.
type Tracker struct {
	// MinTurns is the minimum transcript length (messages) before the
	// interview may complete, preventing premature termination even when
	// early answers happen to satisfy every critical field.
	MinTurns int
	// MaxMissingDesired is how many desired fields may remain empty at
	// completion. The threshold is a heuristic with no firmer rationale, so
	// it stays configurable.
	MaxMissingDesired int
}

// NewTracker returns a tracker with the default thresholds.
func NewTracker() Tracker {
	return Tracker{
		MinTurns:          6,
		MaxMissingDesired: 1,
	}
}

// Status summarizes interview progress against the completion criteria.
type Status struct {
	Complete        bool
	MissingCritical []string
	MissingDesired  []string
}

// Score maps progress to 0-100 for reporting: critical fields weigh 20 each,
// desired fields 10 each.
func (s Status) Score() float64 {
	score := 100.0
	score -= 20.0 * float64(len(s.MissingCritical))
	score -= 10.0 * float64(len(s.MissingDesired))
	if score < 0 {
		score = 0
	}
	return score
}

// Status computes the completion state for the fact record at the given
// transcript length.
func (t Tracker) Status(facts models.FactRecord, turnCount int) Status {
	var status Status
	for _, field := range []struct {
		name  string
		value string
	}{
		{"name", facts.Name},
		{"project", facts.Project},
		{"audience", facts.Audience},
		{"problem", facts.Problem},
	} {
		if field.value == "" {
			status.MissingCritical = append(status.MissingCritical, field.name)
		}
	}
	for _, field := range []struct {
		name  string
		value string
	}{
		{"timeline", facts.Timeline},
		{"budget", facts.Budget},
	} {
		if field.value == "" {
			status.MissingDesired = append(status.MissingDesired, field.name)
		}
	}

	status.Complete = len(status.MissingCritical) == 0 &&
		turnCount >= t.MinTurns &&
		len(status.MissingDesired) <= t.MaxMissingDesired
	return status
}
