package models

import "time"

// Phase is the conversational phase of a discovery session. Phases only ever
// advance, one step at a time, until the terminal brief generation phase.
type Phase string

const (
	PhaseIntroduction    Phase = "introduction"
	PhaseDiscovery       Phase = "discovery"
	PhaseDeepDive        Phase = "deep_dive"
	PhaseValidation      Phase = "validation"
	PhaseBriefGeneration Phase = "brief_generation"
)

// phaseOrder gives each phase a rank so that transitions can be checked for regressions.
var phaseOrder = map[Phase]int{
	PhaseIntroduction:    0,
	PhaseDiscovery:       1,
	PhaseDeepDive:        2,
	PhaseValidation:      3,
	PhaseBriefGeneration: 4,
}

// Next returns the phase following p. The terminal phase returns itself.
func (p Phase) Next() Phase {
	switch p {
	case PhaseIntroduction:
		return PhaseDiscovery
	case PhaseDiscovery:
		return PhaseDeepDive
	case PhaseDeepDive:
		return PhaseValidation
	case PhaseValidation:
		return PhaseBriefGeneration
	default:
		return PhaseBriefGeneration
	}
}

// Before reports whether p comes before other in the phase progression.
func (p Phase) Before(other Phase) bool {
	return phaseOrder[p] < phaseOrder[other]
}

// Terminal reports whether p is the terminal phase.
func (p Phase) Terminal() bool {
	return p == PhaseBriefGeneration
}

type Sophistication string

const (
	SophisticationBeginner     Sophistication = "beginner"
	SophisticationIntermediate Sophistication = "intermediate"
	SophisticationAdvanced     Sophistication = "advanced"
)

// Session holds the cross-turn state of one discovery conversation.
type Session struct {
	ID              string
	Phase           Phase
	Topic           string
	Sophistication  Sophistication
	EngagementScore int64
	Depth           int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewSession returns a session in its initial phase.
func NewSession(id string) *Session {
	now := time.Now()
	return &Session{
		ID:             id,
		Phase:          PhaseIntroduction,
		Topic:          "introduction",
		Sophistication: SophisticationBeginner,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}
