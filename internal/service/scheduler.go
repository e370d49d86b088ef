package service

import (
	"context"
	"strings"
	"time"

	"defense_service/internal/availability"
	"defense_service/internal/errdefs"
	"defense_service/internal/lifecycle"
	"defense_service/internal/model"
	"defense_service/internal/policy"

	"github.com/google/uuid"
)

type SchedulerService struct {
	repo     Repository
	notifier Notifier
	policy   *policy.Scheduling
	now      Clock
}

func NewSchedulerService(repo Repository, notifier Notifier, p *policy.Scheduling, now Clock) *SchedulerService {
	return &SchedulerService{repo: repo, notifier: notifier, policy: p, now: now}
}

func (s *SchedulerService) GetDefense(ctx context.Context, id uuid.UUID) (*model.Defense, error) {
	return s.repo.GetDefense(ctx, id)
}

// CheckAvailability reports the conflicts of a proposed window without
// writing anything.
func (s *SchedulerService) CheckAvailability(ctx context.Context, req model.AvailabilityRequest) ([]model.Conflict, error) {
	if !s.policy.ValidDuration(req.Duration) {
		return nil, s.durationError(req.Duration)
	}
	if _, err := s.repo.GetCommittee(ctx, req.CommitteeId); err != nil {
		return nil, err
	}
	return s.conflicts(ctx, s.repo, req)
}

// Schedule creates the defense of an approved thesis, or reactivates its
// cancelled one keeping the same id. Soft conflicts come back as warnings.
func (s *SchedulerService) Schedule(ctx context.Context, input *model.ScheduleInput) (*model.ScheduleResult, error) {
	now := s.now()
	if err := s.validateWindow(input.StartsAt, input.Duration, input.Location, now); err != nil {
		return nil, err
	}

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer rollback(ctx, tx)

	committee, err := tx.LockCommittee(ctx, input.CommitteeId)
	if err != nil {
		return nil, err
	}

	thesis, err := tx.LockThesis(ctx, input.ThesisId)
	if err != nil {
		return nil, err
	}
	if thesis.State != model.ThesisStateApproved {
		return nil, errdefs.InvalidState("thesis is %s, not approved", thesis.State)
	}

	existing, err := tx.GetDefenseByThesis(ctx, thesis.Id)
	if err != nil && !isNotFound(err) {
		return nil, err
	}
	if existing != nil && existing.State != model.DefenseStateCancelled {
		return nil, errdefs.InvalidState("thesis already has a %s defense", existing.State)
	}

	if !committee.IsComplete() {
		return nil, errdefs.ErrCommitteeIncomplete
	}

	if err := tx.LockLocation(ctx, input.Location); err != nil {
		return nil, err
	}

	req := model.AvailabilityRequest{
		CommitteeId: committee.Id,
		StartsAt:    input.StartsAt,
		Duration:    input.Duration,
		Location:    input.Location,
	}
	warnings, err := s.admit(ctx, tx, req)
	if err != nil {
		return nil, err
	}

	var defense *model.Defense
	if existing != nil {
		defense = existing
		if err := lifecycle.TransitionDefense(defense, model.DefenseStateScheduled, now); err != nil {
			return nil, err
		}
		applyWindow(defense, input.StartsAt, input.Duration, input.Location)
		defense.CommitteeId = committee.Id
		defense.CancelReason = nil
		if err := tx.UpdateDefense(ctx, defense); err != nil {
			return nil, err
		}
	} else {
		id, err := uuid.NewV7()
		if err != nil {
			return nil, err
		}
		defense = &model.Defense{
			Id:          id,
			ThesisId:    thesis.Id,
			CommitteeId: committee.Id,
			State:       model.DefenseStateScheduled,
			CreatedAt:   now,
			EditedAt:    now,
		}
		applyWindow(defense, input.StartsAt, input.Duration, input.Location)
		if err := tx.CreateDefense(ctx, defense); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	notify(ctx, s.notifier, defenseEvent(model.EventDefenseScheduled, defense, committee, now))
	return &model.ScheduleResult{Defense: defense, Warnings: warnings}, nil
}

// Reschedule moves a defense that has not started yet. The defense does not
// conflict with its own current slot.
func (s *SchedulerService) Reschedule(ctx context.Context, id uuid.UUID, input *model.RescheduleInput) (*model.ScheduleResult, error) {
	now := s.now()
	if err := s.validateWindow(input.StartsAt, input.Duration, input.Location, now); err != nil {
		return nil, err
	}

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer rollback(ctx, tx)

	defense, err := tx.LockDefense(ctx, id)
	if err != nil {
		return nil, err
	}
	if !lifecycle.IsEditable(defense, now) {
		return nil, errdefs.ErrNotEditable
	}

	committee, err := tx.LockCommittee(ctx, defense.CommitteeId)
	if err != nil {
		return nil, err
	}
	if !committee.IsComplete() {
		return nil, errdefs.ErrCommitteeIncomplete
	}

	thesis, err := tx.GetThesis(ctx, defense.ThesisId)
	if err != nil {
		return nil, err
	}
	if thesis.State != model.ThesisStateApproved {
		return nil, errdefs.InvalidState("thesis is %s, not approved", thesis.State)
	}

	if err := tx.LockLocation(ctx, input.Location); err != nil {
		return nil, err
	}

	req := model.AvailabilityRequest{
		CommitteeId:      committee.Id,
		StartsAt:         input.StartsAt,
		Duration:         input.Duration,
		Location:         input.Location,
		ExcludeDefenseId: &defense.Id,
	}
	warnings, err := s.admit(ctx, tx, req)
	if err != nil {
		return nil, err
	}

	applyWindow(defense, input.StartsAt, input.Duration, input.Location)
	defense.EditedAt = now
	if err := tx.UpdateDefense(ctx, defense); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	notify(ctx, s.notifier, defenseEvent(model.EventDefenseRescheduled, defense, committee, now))
	return &model.ScheduleResult{Defense: defense, Warnings: warnings}, nil
}

func (s *SchedulerService) Cancel(ctx context.Context, id uuid.UUID, reason string) (*model.Defense, error) {
	now := s.now()

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer rollback(ctx, tx)

	defense, err := tx.LockDefense(ctx, id)
	if err != nil {
		return nil, err
	}
	if !lifecycle.IsCancelable(defense, now) {
		return nil, errdefs.ErrNotCancelable
	}
	if err := lifecycle.TransitionDefense(defense, model.DefenseStateCancelled, now); err != nil {
		return nil, err
	}
	if reason = strings.TrimSpace(reason); reason != "" {
		defense.CancelReason = &reason
	}
	if err := tx.UpdateDefense(ctx, defense); err != nil {
		return nil, err
	}

	committee, err := tx.GetCommittee(ctx, defense.CommitteeId)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	event := defenseEvent(model.EventDefenseCancelled, defense, committee, now)
	event.Reason = defense.CancelReason
	notify(ctx, s.notifier, event)
	return defense, nil
}

// Complete records that the defense took place. The thesis stays approved
// until grade aggregation writes the final score.
func (s *SchedulerService) Complete(ctx context.Context, id uuid.UUID) (*model.Defense, error) {
	now := s.now()

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer rollback(ctx, tx)

	defense, err := tx.LockDefense(ctx, id)
	if err != nil {
		return nil, err
	}
	if defense.State != model.DefenseStateScheduled {
		return nil, errdefs.InvalidState("defense is %s", defense.State)
	}
	if defense.StartsAt.After(now) {
		return nil, errdefs.ErrPreconditionFailed
	}
	if err := lifecycle.TransitionDefense(defense, model.DefenseStateCompleted, now); err != nil {
		return nil, err
	}
	if err := tx.UpdateDefense(ctx, defense); err != nil {
		return nil, err
	}

	committee, err := tx.GetCommittee(ctx, defense.CommitteeId)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	notify(ctx, s.notifier, defenseEvent(model.EventDefenseCompleted, defense, committee, now))
	return defense, nil
}

// admit runs the availability check inside tx and turns hard conflicts into
// a ConflictError.
func (s *SchedulerService) admit(ctx context.Context, tx RepositoryTx, req model.AvailabilityRequest) ([]model.Conflict, error) {
	conflicts, err := s.conflicts(ctx, tx, req)
	if err != nil {
		return nil, err
	}
	hard, soft := availability.Split(conflicts)
	if len(hard) > 0 {
		return nil, &errdefs.ConflictError{Conflicts: hard}
	}
	return soft, nil
}

func (s *SchedulerService) conflicts(ctx context.Context, r Reader, req model.AvailabilityRequest) ([]model.Conflict, error) {
	byCommittee, err := r.ListScheduledDefensesByCommittee(ctx, req.CommitteeId)
	if err != nil {
		return nil, err
	}

	var byRoom []model.Defense
	if strings.TrimSpace(req.Location) != "" {
		from, to := s.policy.Day(req.StartsAt)
		byRoom, err = r.ListScheduledDefensesByLocation(ctx, req.Location, from, to)
		if err != nil {
			return nil, err
		}
	}

	return availability.Check(s.policy, req, byCommittee, byRoom), nil
}

func (s *SchedulerService) validateWindow(startsAt time.Time, duration time.Duration, location string, now time.Time) error {
	if !s.policy.ValidDuration(duration) {
		return s.durationError(duration)
	}
	if strings.TrimSpace(location) == "" {
		return errdefs.Validation("location is required")
	}
	if !startsAt.After(now) {
		return errdefs.Validation("defense must start in the future")
	}
	return nil
}

func (s *SchedulerService) durationError(d time.Duration) error {
	return errdefs.Validation("duration %s must be whole minutes between %d and %d",
		d, s.policy.MinDurationMin, s.policy.MaxDurationMin)
}

func applyWindow(d *model.Defense, startsAt time.Time, duration time.Duration, location string) {
	d.StartsAt = startsAt
	d.DurationMinutes = int(duration / time.Minute)
	d.Location = strings.TrimSpace(location)
}

func defenseEvent(kind model.EventType, d *model.Defense, c *model.Committee, now time.Time) model.Event {
	return model.Event{
		Type:         kind,
		DefenseId:    d.Id,
		ThesisId:     d.ThesisId,
		CommitteeId:  d.CommitteeId,
		EvaluatorIds: c.Evaluators(),
		StartsAt:     d.StartsAt,
		Location:     d.Location,
		OccurredAt:   now,
	}
}
