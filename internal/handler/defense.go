package handler

import (
	"context"

	"defense_service/internal/availability"
	"defense_service/internal/model"
)

func (h *Handler) checkAvailability(ctx context.Context, req *availabilityRequest) (*availabilityResponse, error) {
	conflicts, err := h.scheduler.CheckAvailability(ctx, model.AvailabilityRequest{
		CommitteeId:      req.CommitteeId,
		StartsAt:         req.StartsAt,
		Duration:         minutes(req.DurationMinutes),
		Location:         req.Location,
		ExcludeDefenseId: req.ExcludeDefenseId,
	})
	if err != nil {
		return nil, err
	}
	hard, _ := availability.Split(conflicts)
	if conflicts == nil {
		conflicts = []model.Conflict{}
	}
	return &availabilityResponse{Available: len(hard) == 0, Conflicts: conflicts}, nil
}

func (h *Handler) getDefense(ctx context.Context, req *idRequest) (*model.Defense, error) {
	return h.scheduler.GetDefense(ctx, req.Id)
}

func (h *Handler) schedule(ctx context.Context, req *scheduleRequest) (*model.ScheduleResult, error) {
	return h.scheduler.Schedule(ctx, &model.ScheduleInput{
		ThesisId:    req.ThesisId,
		CommitteeId: req.CommitteeId,
		StartsAt:    req.StartsAt,
		Duration:    minutes(req.DurationMinutes),
		Location:    req.Location,
	})
}

func (h *Handler) reschedule(ctx context.Context, req *rescheduleRequest) (*model.ScheduleResult, error) {
	return h.scheduler.Reschedule(ctx, req.Id, &model.RescheduleInput{
		StartsAt: req.StartsAt,
		Duration: minutes(req.DurationMinutes),
		Location: req.Location,
	})
}

func (h *Handler) cancel(ctx context.Context, req *cancelRequest) (*model.Defense, error) {
	return h.scheduler.Cancel(ctx, req.Id, req.Reason)
}

func (h *Handler) complete(ctx context.Context, req *idRequest) (*model.Defense, error) {
	return h.scheduler.Complete(ctx, req.Id)
}
