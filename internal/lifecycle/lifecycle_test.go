package lifecycle

import (
	"testing"
	"time"

	"defense_service/internal/errdefs"
	"defense_service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	thesisStates = []model.ThesisState{
		model.ThesisStateDraft,
		model.ThesisStateUnderReview,
		model.ThesisStateApproved,
		model.ThesisStateDefended,
	}
	defenseStates = []model.DefenseState{
		model.DefenseStateScheduled,
		model.DefenseStateCompleted,
		model.DefenseStateCancelled,
	}
)

// ── ThesisLifecycle ─────────────────────────────────────────────────

func TestCanTransitionThesis(t *testing.T) {
	allowed := map[[2]model.ThesisState]bool{
		{model.ThesisStateDraft, model.ThesisStateUnderReview}:    true,
		{model.ThesisStateUnderReview, model.ThesisStateDraft}:    true,
		{model.ThesisStateUnderReview, model.ThesisStateApproved}: true,
		{model.ThesisStateApproved, model.ThesisStateDefended}:    true,
	}

	for _, from := range thesisStates {
		for _, to := range thesisStates {
			t.Run(from.String()+"->"+to.String(), func(t *testing.T) {
				assert.Equal(t, allowed[[2]model.ThesisState{from, to}], CanTransitionThesis(from, to))
			})
		}
	}
}

func TestThesisDefendedIsTerminal(t *testing.T) {
	for _, to := range thesisStates {
		assert.False(t, CanTransitionThesis(model.ThesisStateDefended, to))
	}
}

func TestCanTransitionThesisUnknownState(t *testing.T) {
	assert.False(t, CanTransitionThesis("archived", model.ThesisStateDraft))
	assert.False(t, CanTransitionThesis(model.ThesisStateDraft, "archived"))
}

func TestTransitionThesis(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("Success", func(t *testing.T) {
		th := &model.Thesis{State: model.ThesisStateDraft}
		require.NoError(t, TransitionThesis(th, model.ThesisStateUnderReview, now))
		assert.Equal(t, model.ThesisStateUnderReview, th.State)
		assert.Equal(t, now, th.EditedAt)
	})

	t.Run("SkipRejected", func(t *testing.T) {
		th := &model.Thesis{State: model.ThesisStateDraft}
		err := TransitionThesis(th, model.ThesisStateApproved, now)
		assert.ErrorIs(t, err, errdefs.ErrInvalidState)
		assert.Equal(t, model.ThesisStateDraft, th.State)
	})

	t.Run("DefendedWithoutScore", func(t *testing.T) {
		th := &model.Thesis{State: model.ThesisStateApproved}
		err := TransitionThesis(th, model.ThesisStateDefended, now)
		assert.ErrorIs(t, err, errdefs.ErrPreconditionFailed)
		assert.Equal(t, model.ThesisStateApproved, th.State)
		assert.Nil(t, th.DefendedAt)
	})

	t.Run("DefendedWithScore", func(t *testing.T) {
		score := 7.67
		th := &model.Thesis{State: model.ThesisStateApproved, FinalScore: &score}
		require.NoError(t, TransitionThesis(th, model.ThesisStateDefended, now))
		assert.Equal(t, model.ThesisStateDefended, th.State)
		require.NotNil(t, th.DefendedAt)
		assert.Equal(t, now, *th.DefendedAt)
	})
}

// ── DefenseLifecycle ────────────────────────────────────────────────

func TestCanTransitionDefense(t *testing.T) {
	allowed := map[[2]model.DefenseState]bool{
		{model.DefenseStateScheduled, model.DefenseStateCompleted}: true,
		{model.DefenseStateScheduled, model.DefenseStateCancelled}: true,
		{model.DefenseStateCancelled, model.DefenseStateScheduled}: true,
	}

	for _, from := range defenseStates {
		for _, to := range defenseStates {
			t.Run(from.String()+"->"+to.String(), func(t *testing.T) {
				assert.Equal(t, allowed[[2]model.DefenseState{from, to}], CanTransitionDefense(from, to))
			})
		}
	}
}

func TestDefenseCompletedIsTerminal(t *testing.T) {
	for _, to := range defenseStates {
		assert.False(t, CanTransitionDefense(model.DefenseStateCompleted, to))
	}
}

func TestTransitionDefense(t *testing.T) {
	now := time.Now()

	d := &model.Defense{State: model.DefenseStateCompleted}
	assert.ErrorIs(t, TransitionDefense(d, model.DefenseStateCancelled, now), errdefs.ErrInvalidState)

	d = &model.Defense{State: model.DefenseStateCancelled}
	require.NoError(t, TransitionDefense(d, model.DefenseStateScheduled, now))
	assert.Equal(t, model.DefenseStateScheduled, d.State)
}

func TestIsEditableAndCancelable(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		state    model.DefenseState
		startsAt time.Time
		expected bool
	}{
		{"ScheduledFuture", model.DefenseStateScheduled, now.Add(time.Hour), true},
		{"ScheduledStartingNow", model.DefenseStateScheduled, now, false},
		{"ScheduledPast", model.DefenseStateScheduled, now.Add(-time.Hour), false},
		{"CompletedFuture", model.DefenseStateCompleted, now.Add(time.Hour), false},
		{"CancelledFuture", model.DefenseStateCancelled, now.Add(time.Hour), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := &model.Defense{State: tc.state, StartsAt: tc.startsAt}
			assert.Equal(t, tc.expected, IsEditable(d, now))
			assert.Equal(t, tc.expected, IsCancelable(d, now))
		})
	}
}
