package service

import (
	"context"
	"strings"

	"defense_service/internal/errdefs"
	"defense_service/internal/lifecycle"
	"defense_service/internal/model"

	"github.com/google/uuid"
)

type ThesisService struct {
	repo Repository
	now  Clock
}

func NewThesisService(repo Repository, now Clock) *ThesisService {
	return &ThesisService{repo: repo, now: now}
}

func (s *ThesisService) Create(ctx context.Context, input *model.CreateThesisInput) (*model.Thesis, error) {
	if err := validateThesisInput(input); err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}

	now := s.now()
	thesis := &model.Thesis{
		Id:          id,
		StudentId:   input.StudentId,
		AdvisorId:   input.AdvisorId,
		CoAdvisorId: input.CoAdvisorId,
		Title:       strings.TrimSpace(input.Title),
		Abstract:    strings.TrimSpace(input.Abstract),
		Keywords:    normalizeKeywords(input.Keywords),
		State:       model.ThesisStateDraft,
		CreatedAt:   now,
		EditedAt:    now,
	}

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer rollback(ctx, tx)

	if err := tx.CreateThesis(ctx, thesis); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return thesis, nil
}

func (s *ThesisService) Get(ctx context.Context, id uuid.UUID) (*model.Thesis, error) {
	return s.repo.GetThesis(ctx, id)
}

// Transition applies an advisor or committee decision. Entering defended
// is reserved to grade aggregation and fails here with
// ErrPreconditionFailed while no final score exists.
func (s *ThesisService) Transition(ctx context.Context, id uuid.UUID, target model.ThesisState) (*model.Thesis, error) {
	if !target.IsValid() {
		return nil, errdefs.Validation("unknown thesis state %q", target)
	}

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer rollback(ctx, tx)

	thesis, err := tx.LockThesis(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.TransitionThesis(thesis, target, s.now()); err != nil {
		return nil, err
	}
	if err := tx.UpdateThesis(ctx, thesis); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return thesis, nil
}

func validateThesisInput(input *model.CreateThesisInput) error {
	if strings.TrimSpace(input.Title) == "" {
		return errdefs.Validation("title is required")
	}
	if input.StudentId == uuid.Nil || input.AdvisorId == uuid.Nil {
		return errdefs.Validation("student and advisor are required")
	}
	if input.AdvisorId == input.StudentId {
		return errdefs.Validation("student cannot advise their own thesis")
	}
	if co := input.CoAdvisorId; co != nil {
		if *co == uuid.Nil || *co == input.AdvisorId || *co == input.StudentId {
			return errdefs.Validation("co-advisor must be a third person")
		}
	}
	return nil
}
