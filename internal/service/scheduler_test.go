package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"defense_service/internal/errdefs"
	"defense_service/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// ── Schedule ────────────────────────────────────────────────────────

func TestSchedule(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		f := setup(t)
		th := f.approvedThesis(t)
		c := f.committee(t)
		f.notifier.EXPECT().Notify(gomock.Any(), eventOf(model.EventDefenseScheduled)).Return(nil).Times(1)

		res, err := f.scheduler.Schedule(context.Background(), &model.ScheduleInput{
			ThesisId:    th.Id,
			CommitteeId: c.Id,
			StartsAt:    at(10, 10, 0),
			Duration:    60 * time.Minute,
			Location:    "Room A",
		})
		require.NoError(t, err)
		assert.Equal(t, model.DefenseStateScheduled, res.Defense.State)
		assert.Equal(t, at(10, 11, 0), res.Defense.EndsAt())
		assert.Empty(t, res.Warnings)

		stored, err := f.scheduler.GetDefense(context.Background(), res.Defense.Id)
		require.NoError(t, err)
		assert.Equal(t, res.Defense.Id, stored.Id)
	})

	t.Run("CommitteeOverlap", func(t *testing.T) {
		f := setup(t)
		f.allowEvents()
		c := f.committee(t)
		existing := f.schedule(t, f.approvedThesis(t), c, at(10, 10, 30), 60, "Room B")

		_, err := f.scheduler.Schedule(context.Background(), &model.ScheduleInput{
			ThesisId:    f.approvedThesis(t).Id,
			CommitteeId: c.Id,
			StartsAt:    at(10, 10, 45),
			Duration:    30 * time.Minute,
			Location:    "Room A",
		})
		assert.ErrorIs(t, err, errdefs.ErrSchedulingConflict)
		conflicts := errdefs.Conflicts(err)
		require.Len(t, conflicts, 1)
		assert.Equal(t, existing.Id, *conflicts[0].DefenseId)
	})

	t.Run("AdjacentSlotIsFree", func(t *testing.T) {
		f := setup(t)
		f.allowEvents()
		c := f.committee(t)
		f.schedule(t, f.approvedThesis(t), c, at(10, 10, 0), 60, "Room A")
		f.schedule(t, f.approvedThesis(t), c, at(10, 11, 0), 60, "Room A")
	})

	t.Run("RoomDoubleBooked", func(t *testing.T) {
		f := setup(t)
		f.allowEvents()
		f.schedule(t, f.approvedThesis(t), f.committee(t), at(10, 10, 0), 60, "Room A")

		_, err := f.scheduler.Schedule(context.Background(), &model.ScheduleInput{
			ThesisId:    f.approvedThesis(t).Id,
			CommitteeId: f.committee(t).Id,
			StartsAt:    at(10, 10, 30),
			Duration:    60 * time.Minute,
			Location:    "room a",
		})
		assert.ErrorIs(t, err, errdefs.ErrSchedulingConflict)
		require.Len(t, errdefs.Conflicts(err), 1)
		assert.Equal(t, model.ConflictLocationOverlap, errdefs.Conflicts(err)[0].Kind)
	})

	t.Run("WeekendWarning", func(t *testing.T) {
		f := setup(t)
		f.allowEvents()

		res, err := f.scheduler.Schedule(context.Background(), &model.ScheduleInput{
			ThesisId:    f.approvedThesis(t).Id,
			CommitteeId: f.committee(t).Id,
			StartsAt:    at(15, 19, 0),
			Duration:    60 * time.Minute,
			Location:    "Room A",
		})
		require.NoError(t, err)
		assert.Equal(t, model.DefenseStateScheduled, res.Defense.State)
		require.Len(t, res.Warnings, 2)
		assert.Equal(t, model.ConflictWeekend, res.Warnings[0].Kind)
		assert.Equal(t, model.ConflictOutsideWorkingHours, res.Warnings[1].Kind)
	})

	t.Run("ThesisNotApproved", func(t *testing.T) {
		f := setup(t)
		th, err := f.theses.Create(context.Background(), &model.CreateThesisInput{
			StudentId: uuid.New(), AdvisorId: uuid.New(), Title: "Draft",
		})
		require.NoError(t, err)

		_, err = f.scheduler.Schedule(context.Background(), &model.ScheduleInput{
			ThesisId: th.Id, CommitteeId: f.committee(t).Id,
			StartsAt: at(10, 10, 0), Duration: time.Hour, Location: "Room A",
		})
		assert.ErrorIs(t, err, errdefs.ErrInvalidState)
	})

	t.Run("AlreadyScheduled", func(t *testing.T) {
		f := setup(t)
		f.allowEvents()
		th := f.approvedThesis(t)
		c := f.committee(t)
		f.schedule(t, th, c, at(10, 10, 0), 60, "Room A")

		_, err := f.scheduler.Schedule(context.Background(), &model.ScheduleInput{
			ThesisId: th.Id, CommitteeId: c.Id,
			StartsAt: at(11, 10, 0), Duration: time.Hour, Location: "Room A",
		})
		assert.ErrorIs(t, err, errdefs.ErrInvalidState)
	})

	t.Run("CommitteeIncomplete", func(t *testing.T) {
		f := setup(t)
		c, err := f.committees.Create(context.Background(), &model.CreateCommitteeInput{
			ChairId: uuid.New(), SecretaryId: uuid.New(),
		})
		require.NoError(t, err)

		_, err = f.scheduler.Schedule(context.Background(), &model.ScheduleInput{
			ThesisId: f.approvedThesis(t).Id, CommitteeId: c.Id,
			StartsAt: at(10, 10, 0), Duration: time.Hour, Location: "Room A",
		})
		assert.ErrorIs(t, err, errdefs.ErrCommitteeIncomplete)
	})

	t.Run("CommitteeInactive", func(t *testing.T) {
		f := setup(t)
		c := f.committee(t)
		inactive := false
		_, err := f.committees.Update(context.Background(), c.Id, &model.UpdateCommitteeInput{Active: &inactive})
		require.NoError(t, err)

		_, err = f.scheduler.Schedule(context.Background(), &model.ScheduleInput{
			ThesisId: f.approvedThesis(t).Id, CommitteeId: c.Id,
			StartsAt: at(10, 10, 0), Duration: time.Hour, Location: "Room A",
		})
		assert.ErrorIs(t, err, errdefs.ErrCommitteeIncomplete)
	})

	t.Run("Validation", func(t *testing.T) {
		f := setup(t)
		th := f.approvedThesis(t)
		c := f.committee(t)

		inputs := map[string]*model.ScheduleInput{
			"TooShort":       {ThesisId: th.Id, CommitteeId: c.Id, StartsAt: at(10, 10, 0), Duration: 10 * time.Minute, Location: "Room A"},
			"TooLong":        {ThesisId: th.Id, CommitteeId: c.Id, StartsAt: at(10, 10, 0), Duration: 181 * time.Minute, Location: "Room A"},
			"MissingRoom":    {ThesisId: th.Id, CommitteeId: c.Id, StartsAt: at(10, 10, 0), Duration: time.Hour, Location: "  "},
			"StartsInPast":   {ThesisId: th.Id, CommitteeId: c.Id, StartsAt: at(1, 8, 0), Duration: time.Hour, Location: "Room A"},
			"PartialMinutes": {ThesisId: th.Id, CommitteeId: c.Id, StartsAt: at(10, 10, 0), Duration: time.Hour + time.Second, Location: "Room A"},
		}
		for name, in := range inputs {
			t.Run(name, func(t *testing.T) {
				_, err := f.scheduler.Schedule(context.Background(), in)
				assert.ErrorIs(t, err, errdefs.ErrValidation)
			})
		}
	})

	t.Run("UnknownThesis", func(t *testing.T) {
		f := setup(t)
		_, err := f.scheduler.Schedule(context.Background(), &model.ScheduleInput{
			ThesisId: uuid.New(), CommitteeId: f.committee(t).Id,
			StartsAt: at(10, 10, 0), Duration: time.Hour, Location: "Room A",
		})
		assert.ErrorIs(t, err, errdefs.ErrNotFound)
	})

	t.Run("ReactivatesCancelledDefense", func(t *testing.T) {
		f := setup(t)
		f.allowEvents()
		th := f.approvedThesis(t)
		c := f.committee(t)
		first := f.schedule(t, th, c, at(10, 10, 0), 60, "Room A")

		_, err := f.scheduler.Cancel(context.Background(), first.Id, "chair is ill")
		require.NoError(t, err)

		again := f.schedule(t, th, c, at(12, 15, 0), 90, "Room B")
		assert.Equal(t, first.Id, again.Id)
		assert.Equal(t, model.DefenseStateScheduled, again.State)
		assert.Equal(t, 90, again.DurationMinutes)
		assert.Equal(t, "Room B", again.Location)
		assert.Nil(t, again.CancelReason)
	})

	t.Run("NotifierFailureIsSwallowed", func(t *testing.T) {
		f := setup(t)
		f.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(errors.New("broker down"))

		res, err := f.scheduler.Schedule(context.Background(), &model.ScheduleInput{
			ThesisId: f.approvedThesis(t).Id, CommitteeId: f.committee(t).Id,
			StartsAt: at(10, 10, 0), Duration: time.Hour, Location: "Room A",
		})
		require.NoError(t, err)
		assert.Equal(t, model.DefenseStateScheduled, res.Defense.State)
	})
}

func TestScheduleConcurrentOverlap(t *testing.T) {
	f := setup(t)
	f.allowEvents()
	c := f.committee(t)
	theses := []*model.Thesis{f.approvedThesis(t), f.approvedThesis(t)}

	var wg sync.WaitGroup
	errs := make([]error, len(theses))
	start := make(chan struct{})
	for i, th := range theses {
		i, th := i, th
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, errs[i] = f.scheduler.Schedule(context.Background(), &model.ScheduleInput{
				ThesisId:    th.Id,
				CommitteeId: c.Id,
				StartsAt:    at(10, 10, 0).Add(time.Duration(i) * 15 * time.Minute),
				Duration:    time.Hour,
				Location:    "Room " + string(rune('A'+i)),
			})
		}()
	}
	close(start)
	wg.Wait()

	var ok, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, errdefs.ErrSchedulingConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, conflicts)

	scheduled, err := f.store.ListScheduledDefensesByCommittee(context.Background(), c.Id)
	require.NoError(t, err)
	assert.Len(t, scheduled, 1)
}

// ── CheckAvailability ───────────────────────────────────────────────

func TestCheckAvailability(t *testing.T) {
	f := setup(t)
	f.allowEvents()
	c := f.committee(t)
	existing := f.schedule(t, f.approvedThesis(t), c, at(10, 10, 30), 60, "Room A")

	conflicts, err := f.scheduler.CheckAvailability(context.Background(), model.AvailabilityRequest{
		CommitteeId: c.Id,
		StartsAt:    at(10, 10, 45),
		Duration:    30 * time.Minute,
		Location:    "Room A",
	})
	require.NoError(t, err)
	require.Len(t, conflicts, 2)
	assert.Equal(t, existing.Id, *conflicts[0].DefenseId)
	assert.Equal(t, existing.Id, *conflicts[1].DefenseId)

	conflicts, err = f.scheduler.CheckAvailability(context.Background(), model.AvailabilityRequest{
		CommitteeId:      c.Id,
		StartsAt:         at(10, 10, 45),
		Duration:         30 * time.Minute,
		Location:         "Room A",
		ExcludeDefenseId: &existing.Id,
	})
	require.NoError(t, err)
	assert.Empty(t, conflicts)

	_, err = f.scheduler.CheckAvailability(context.Background(), model.AvailabilityRequest{
		CommitteeId: uuid.New(), StartsAt: at(10, 10, 0), Duration: time.Hour,
	})
	assert.ErrorIs(t, err, errdefs.ErrNotFound)
}

// ── Reschedule ──────────────────────────────────────────────────────

func TestReschedule(t *testing.T) {
	t.Run("OverlapWithOwnSlot", func(t *testing.T) {
		f := setup(t)
		f.allowEvents()
		d := f.schedule(t, f.approvedThesis(t), f.committee(t), at(10, 10, 0), 60, "Room A")

		res, err := f.scheduler.Reschedule(context.Background(), d.Id, &model.RescheduleInput{
			StartsAt: at(10, 10, 30), Duration: 60 * time.Minute, Location: "Room A",
		})
		require.NoError(t, err)
		assert.Equal(t, d.Id, res.Defense.Id)
		assert.Equal(t, at(10, 10, 30), res.Defense.StartsAt)
	})

	t.Run("IntoAnotherDefense", func(t *testing.T) {
		f := setup(t)
		f.allowEvents()
		c := f.committee(t)
		f.schedule(t, f.approvedThesis(t), c, at(10, 14, 0), 60, "Room B")
		d := f.schedule(t, f.approvedThesis(t), c, at(10, 10, 0), 60, "Room A")

		_, err := f.scheduler.Reschedule(context.Background(), d.Id, &model.RescheduleInput{
			StartsAt: at(10, 14, 30), Duration: 60 * time.Minute, Location: "Room A",
		})
		assert.ErrorIs(t, err, errdefs.ErrSchedulingConflict)
	})

	t.Run("AlreadyStarted", func(t *testing.T) {
		f := setup(t)
		f.allowEvents()
		d := f.schedule(t, f.approvedThesis(t), f.committee(t), at(10, 10, 0), 60, "Room A")
		f.clock.Set(at(10, 10, 5))

		_, err := f.scheduler.Reschedule(context.Background(), d.Id, &model.RescheduleInput{
			StartsAt: at(11, 10, 0), Duration: time.Hour, Location: "Room A",
		})
		assert.ErrorIs(t, err, errdefs.ErrNotEditable)
	})

	t.Run("Cancelled", func(t *testing.T) {
		f := setup(t)
		f.allowEvents()
		d := f.schedule(t, f.approvedThesis(t), f.committee(t), at(10, 10, 0), 60, "Room A")
		_, err := f.scheduler.Cancel(context.Background(), d.Id, "")
		require.NoError(t, err)

		_, err = f.scheduler.Reschedule(context.Background(), d.Id, &model.RescheduleInput{
			StartsAt: at(11, 10, 0), Duration: time.Hour, Location: "Room A",
		})
		assert.ErrorIs(t, err, errdefs.ErrNotEditable)
	})

	t.Run("EmitsRescheduledEvent", func(t *testing.T) {
		f := setup(t)
		f.notifier.EXPECT().Notify(gomock.Any(), eventOf(model.EventDefenseScheduled)).Return(nil)
		f.notifier.EXPECT().Notify(gomock.Any(), eventOf(model.EventDefenseRescheduled)).Return(nil)
		d := f.schedule(t, f.approvedThesis(t), f.committee(t), at(10, 10, 0), 60, "Room A")

		_, err := f.scheduler.Reschedule(context.Background(), d.Id, &model.RescheduleInput{
			StartsAt: at(11, 10, 0), Duration: 45 * time.Minute, Location: "Room C",
		})
		require.NoError(t, err)
	})
}

// ── Cancel / Complete ───────────────────────────────────────────────

func TestCancel(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		f := setup(t)
		f.notifier.EXPECT().Notify(gomock.Any(), eventOf(model.EventDefenseScheduled)).Return(nil)
		f.notifier.EXPECT().Notify(gomock.Any(), eventOf(model.EventDefenseCancelled)).Return(nil)
		d := f.schedule(t, f.approvedThesis(t), f.committee(t), at(10, 10, 0), 60, "Room A")

		got, err := f.scheduler.Cancel(context.Background(), d.Id, "  room flooded ")
		require.NoError(t, err)
		assert.Equal(t, model.DefenseStateCancelled, got.State)
		require.NotNil(t, got.CancelReason)
		assert.Equal(t, "room flooded", *got.CancelReason)
	})

	t.Run("AlreadyStarted", func(t *testing.T) {
		f := setup(t)
		f.allowEvents()
		d := f.schedule(t, f.approvedThesis(t), f.committee(t), at(10, 10, 0), 60, "Room A")
		f.clock.Set(at(10, 10, 0))

		_, err := f.scheduler.Cancel(context.Background(), d.Id, "late")
		assert.ErrorIs(t, err, errdefs.ErrNotCancelable)
	})

	t.Run("Completed", func(t *testing.T) {
		f := setup(t)
		f.allowEvents()
		d, _, _ := f.completedDefense(t)

		_, err := f.scheduler.Cancel(context.Background(), d.Id, "")
		assert.ErrorIs(t, err, errdefs.ErrNotCancelable)
	})

	t.Run("NotFound", func(t *testing.T) {
		f := setup(t)
		_, err := f.scheduler.Cancel(context.Background(), uuid.New(), "")
		assert.ErrorIs(t, err, errdefs.ErrNotFound)
	})
}

func TestComplete(t *testing.T) {
	t.Run("BeforeStart", func(t *testing.T) {
		f := setup(t)
		f.allowEvents()
		d := f.schedule(t, f.approvedThesis(t), f.committee(t), at(10, 10, 0), 60, "Room A")

		_, err := f.scheduler.Complete(context.Background(), d.Id)
		assert.ErrorIs(t, err, errdefs.ErrPreconditionFailed)
	})

	t.Run("ThesisStaysApproved", func(t *testing.T) {
		f := setup(t)
		f.allowEvents()
		d, _, th := f.completedDefense(t)
		assert.Equal(t, model.DefenseStateCompleted, d.State)

		got, err := f.theses.Get(context.Background(), th.Id)
		require.NoError(t, err)
		assert.Equal(t, model.ThesisStateApproved, got.State)
		assert.Nil(t, got.FinalScore)
	})

	t.Run("Twice", func(t *testing.T) {
		f := setup(t)
		f.allowEvents()
		d, _, _ := f.completedDefense(t)

		_, err := f.scheduler.Complete(context.Background(), d.Id)
		assert.ErrorIs(t, err, errdefs.ErrInvalidState)
	})

	t.Run("CompletedIsTerminalForScheduling", func(t *testing.T) {
		f := setup(t)
		f.allowEvents()
		d, c, _ := f.completedDefense(t)
		th, err := f.theses.Get(context.Background(), d.ThesisId)
		require.NoError(t, err)

		_, err = f.scheduler.Schedule(context.Background(), &model.ScheduleInput{
			ThesisId: th.Id, CommitteeId: c.Id,
			StartsAt: at(20, 10, 0), Duration: time.Hour, Location: "Room A",
		})
		assert.ErrorIs(t, err, errdefs.ErrInvalidState)
	})
}
