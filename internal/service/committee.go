package service

import (
	"context"
	"strings"

	"defense_service/internal/errdefs"
	"defense_service/internal/model"

	"github.com/google/uuid"
)

type CommitteeService struct {
	repo Repository
	now  Clock
}

func NewCommitteeService(repo Repository, now Clock) *CommitteeService {
	return &CommitteeService{repo: repo, now: now}
}

// Create registers an active committee. Roles may be left vacant, but no
// identity may hold two of them.
func (s *CommitteeService) Create(ctx context.Context, input *model.CreateCommitteeInput) (*model.Committee, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}

	now := s.now()
	committee := &model.Committee{
		Id:          id,
		Name:        strings.TrimSpace(input.Name),
		ChairId:     input.ChairId,
		SecretaryId: input.SecretaryId,
		MemberId:    input.MemberId,
		Active:      true,
		CreatedAt:   now,
		EditedAt:    now,
	}
	if !committee.HasDistinctRoles() {
		return nil, errdefs.ErrCommitteeIncomplete
	}

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer rollback(ctx, tx)

	if err := tx.CreateCommittee(ctx, committee); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return committee, nil
}

func (s *CommitteeService) Get(ctx context.Context, id uuid.UUID) (*model.Committee, error) {
	return s.repo.GetCommittee(ctx, id)
}

func (s *CommitteeService) Update(ctx context.Context, id uuid.UUID, input *model.UpdateCommitteeInput) (*model.Committee, error) {
	if input.Name == nil && input.ChairId == nil && input.SecretaryId == nil &&
		input.MemberId == nil && input.Active == nil {
		return nil, errdefs.Validation("no fields to update")
	}

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer rollback(ctx, tx)

	committee, err := tx.LockCommittee(ctx, id)
	if err != nil {
		return nil, err
	}

	before := *committee
	if input.Name != nil {
		committee.Name = strings.TrimSpace(*input.Name)
	}
	if input.ChairId != nil {
		committee.ChairId = *input.ChairId
	}
	if input.SecretaryId != nil {
		committee.SecretaryId = *input.SecretaryId
	}
	if input.MemberId != nil {
		committee.MemberId = *input.MemberId
	}
	if input.Active != nil {
		committee.Active = *input.Active
	}
	if !committee.HasDistinctRoles() {
		return nil, errdefs.ErrCommitteeIncomplete
	}
	if rolesChanged(&before, committee) {
		if err := ensureNoOpenDefense(ctx, tx, committee.Id); err != nil {
			return nil, err
		}
	}
	committee.EditedAt = s.now()

	if err := tx.UpdateCommittee(ctx, committee); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return committee, nil
}

// rolesChanged reports whether the update touches who sits on the committee
// or takes it out of service.
func rolesChanged(before, after *model.Committee) bool {
	return before.ChairId != after.ChairId ||
		before.SecretaryId != after.SecretaryId ||
		before.MemberId != after.MemberId ||
		(before.Active && !after.Active)
}

// ensureNoOpenDefense rejects membership changes while a defense of the
// committee is scheduled or completed but not yet aggregated. Stored grades
// must keep matching a role holder.
func ensureNoOpenDefense(ctx context.Context, tx RepositoryTx, committeeId uuid.UUID) error {
	defenses, err := tx.ListDefensesByCommittee(ctx, committeeId)
	if err != nil {
		return err
	}
	for _, d := range defenses {
		switch d.State {
		case model.DefenseStateScheduled:
			return errdefs.InvalidState("committee sits in scheduled defense %s", d.Id)
		case model.DefenseStateCompleted:
			_, err := tx.GetFinalResult(ctx, d.Id)
			if isNotFound(err) {
				return errdefs.InvalidState("defense %s is awaiting grades", d.Id)
			}
			if err != nil {
				return err
			}
		}
	}
	return nil
}
