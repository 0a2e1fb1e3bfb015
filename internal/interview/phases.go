package interview

import "github.com/myrjola/briefly/internal/models"

// AdvancePhase computes the session's next phase from the decision of the
// current turn. The phase advances at most one step per turn, never
// regresses, and only completion (or an exhausted backbone) enters the
// terminal brief generation phase.
func AdvancePhase(current models.Phase, decision Decision, status Status) models.Phase {
	if current.Terminal() {
		return current
	}
	if decision.Action == ActionGenerateBrief {
		return models.PhaseBriefGeneration
	}
	if status.Complete {
		return current.Next()
	}
	if decision.TopicChanged {
		next := current.Next()
		if next == models.PhaseBriefGeneration {
			// Topic changes alone never terminate the interview.
			return current
		}
		return next
	}
	return current
}
