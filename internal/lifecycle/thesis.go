package lifecycle

import (
	"time"

	"defense_service/internal/errdefs"
	"defense_service/internal/model"
)

var thesisTransitions = map[model.ThesisState][]model.ThesisState{
	model.ThesisStateDraft:       {model.ThesisStateUnderReview},
	model.ThesisStateUnderReview: {model.ThesisStateDraft, model.ThesisStateApproved},
	model.ThesisStateApproved:    {model.ThesisStateDefended},
	model.ThesisStateDefended:    {},
}

// CanTransitionThesis reports whether current -> target is in the thesis
// transition table. Self transitions and skips are rejected.
func CanTransitionThesis(current, target model.ThesisState) bool {
	for _, next := range thesisTransitions[current] {
		if next == target {
			return true
		}
	}
	return false
}

// TransitionThesis moves t to target. Entering defended requires the final
// score to be set already. t is left untouched on failure.
func TransitionThesis(t *model.Thesis, target model.ThesisState, now time.Time) error {
	if !CanTransitionThesis(t.State, target) {
		return errdefs.InvalidState("thesis cannot move from %s to %s", t.State, target)
	}
	if target == model.ThesisStateDefended {
		if t.FinalScore == nil {
			return errdefs.ErrPreconditionFailed
		}
		t.DefendedAt = &now
	}
	t.State = target
	t.EditedAt = now
	return nil
}
