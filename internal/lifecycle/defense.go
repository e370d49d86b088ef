package lifecycle

import (
	"time"

	"defense_service/internal/errdefs"
	"defense_service/internal/model"
)

var defenseTransitions = map[model.DefenseState][]model.DefenseState{
	model.DefenseStateScheduled: {model.DefenseStateCompleted, model.DefenseStateCancelled},
	model.DefenseStateCancelled: {model.DefenseStateScheduled},
	model.DefenseStateCompleted: {},
}

func CanTransitionDefense(current, target model.DefenseState) bool {
	for _, next := range defenseTransitions[current] {
		if next == target {
			return true
		}
	}
	return false
}

func TransitionDefense(d *model.Defense, target model.DefenseState, now time.Time) error {
	if !CanTransitionDefense(d.State, target) {
		return errdefs.InvalidState("defense cannot move from %s to %s", d.State, target)
	}
	d.State = target
	d.EditedAt = now
	return nil
}

// IsEditable holds while the defense is scheduled and has not started.
func IsEditable(d *model.Defense, now time.Time) bool {
	return d.State == model.DefenseStateScheduled && d.StartsAt.After(now)
}

func IsCancelable(d *model.Defense, now time.Time) bool {
	return IsEditable(d, now)
}
