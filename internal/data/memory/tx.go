package memory

import (
	"context"
	"errors"

	"defense_service/internal/errdefs"
	"defense_service/internal/model"

	"github.com/google/uuid"
)

var ErrTxClosed = errors.New("transaction already closed")

// Tx holds the store's writer slot until Commit or Rollback. Row locks are
// implicit since no other transaction can run meanwhile.
type Tx struct {
	reader
	store *Store
	done  bool
}

func (t *Tx) LockThesis(ctx context.Context, id uuid.UUID) (*model.Thesis, error) {
	return t.GetThesis(ctx, id)
}

func (t *Tx) LockCommittee(ctx context.Context, id uuid.UUID) (*model.Committee, error) {
	return t.GetCommittee(ctx, id)
}

func (t *Tx) LockDefense(ctx context.Context, id uuid.UUID) (*model.Defense, error) {
	return t.GetDefense(ctx, id)
}

func (t *Tx) LockLocation(_ context.Context, _ string) error {
	return t.check()
}

func (t *Tx) CreateThesis(_ context.Context, thesis *model.Thesis) error {
	if err := t.check(); err != nil {
		return err
	}
	if _, ok := t.st.theses[thesis.Id]; ok {
		return errdefs.InvalidState("thesis %s already exists", thesis.Id)
	}
	t.st.theses[thesis.Id] = *thesis
	return nil
}

func (t *Tx) UpdateThesis(_ context.Context, thesis *model.Thesis) error {
	if err := t.check(); err != nil {
		return err
	}
	if _, ok := t.st.theses[thesis.Id]; !ok {
		return errdefs.ErrNotFound
	}
	t.st.theses[thesis.Id] = *thesis
	return nil
}

func (t *Tx) CreateCommittee(_ context.Context, committee *model.Committee) error {
	if err := t.check(); err != nil {
		return err
	}
	if _, ok := t.st.committees[committee.Id]; ok {
		return errdefs.InvalidState("committee %s already exists", committee.Id)
	}
	t.st.committees[committee.Id] = *committee
	return nil
}

func (t *Tx) UpdateCommittee(_ context.Context, committee *model.Committee) error {
	if err := t.check(); err != nil {
		return err
	}
	if _, ok := t.st.committees[committee.Id]; !ok {
		return errdefs.ErrNotFound
	}
	t.st.committees[committee.Id] = *committee
	return nil
}

// CreateDefense enforces one defense row per thesis.
func (t *Tx) CreateDefense(_ context.Context, defense *model.Defense) error {
	if err := t.check(); err != nil {
		return err
	}
	for _, d := range t.st.defenses {
		if d.Id == defense.Id || d.ThesisId == defense.ThesisId {
			return errdefs.InvalidState("thesis %s already has a defense", defense.ThesisId)
		}
	}
	t.st.defenses[defense.Id] = *defense
	return nil
}

func (t *Tx) UpdateDefense(_ context.Context, defense *model.Defense) error {
	if err := t.check(); err != nil {
		return err
	}
	if _, ok := t.st.defenses[defense.Id]; !ok {
		return errdefs.ErrNotFound
	}
	t.st.defenses[defense.Id] = *defense
	return nil
}

func (t *Tx) UpsertGrade(_ context.Context, grade *model.Grade) error {
	if err := t.check(); err != nil {
		return err
	}
	key := gradeKey{grade.DefenseId, grade.EvaluatorId}
	if prev, ok := t.st.grades[key]; ok {
		grade.Id = prev.Id
		grade.CreatedAt = prev.CreatedAt
	}
	t.st.grades[key] = *grade
	return nil
}

func (t *Tx) CreateFinalResult(_ context.Context, result *model.FinalResult) error {
	if err := t.check(); err != nil {
		return err
	}
	if _, ok := t.st.results[result.DefenseId]; ok {
		return errdefs.InvalidState("defense %s already aggregated", result.DefenseId)
	}
	t.st.results[result.DefenseId] = *result
	return nil
}

func (t *Tx) Commit(_ context.Context) error {
	if err := t.check(); err != nil {
		return err
	}
	t.store.mu.Lock()
	t.store.state = t.st
	t.store.mu.Unlock()
	t.release()
	return nil
}

// Rollback discards the working copy. It is a no-op once the transaction
// is closed.
func (t *Tx) Rollback(_ context.Context) error {
	if t.done {
		return nil
	}
	t.release()
	return nil
}

func (t *Tx) release() {
	t.done = true
	<-t.store.writer
}

func (t *Tx) check() error {
	if t.done {
		return ErrTxClosed
	}
	return nil
}
