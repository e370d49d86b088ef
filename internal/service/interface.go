package service

import (
	"context"
	"time"

	"defense_service/internal/model"

	"github.com/google/uuid"
)

// Reader is the read side shared by the repository and its transactions.
// Missing rows are reported as errdefs.ErrNotFound.
type Reader interface {
	GetThesis(ctx context.Context, id uuid.UUID) (*model.Thesis, error)
	GetCommittee(ctx context.Context, id uuid.UUID) (*model.Committee, error)
	GetDefense(ctx context.Context, id uuid.UUID) (*model.Defense, error)
	GetDefenseByThesis(ctx context.Context, thesisId uuid.UUID) (*model.Defense, error)
	ListScheduledDefensesByCommittee(ctx context.Context, committeeId uuid.UUID) ([]model.Defense, error)
	// ListDefensesByCommittee returns the committee's defenses in any state.
	ListDefensesByCommittee(ctx context.Context, committeeId uuid.UUID) ([]model.Defense, error)
	// ListScheduledDefensesByLocation returns scheduled defenses in location
	// whose window intersects [from, to).
	ListScheduledDefensesByLocation(ctx context.Context, location string, from, to time.Time) ([]model.Defense, error)
	GetGrade(ctx context.Context, defenseId, evaluatorId uuid.UUID) (*model.Grade, error)
	ListGrades(ctx context.Context, defenseId uuid.UUID) ([]model.Grade, error)
	GetFinalResult(ctx context.Context, defenseId uuid.UUID) (*model.FinalResult, error)
}

type Repository interface {
	Reader
	Begin(ctx context.Context) (RepositoryTx, error)
}

// RepositoryTx is one unit of work. Lock* methods hold the row until
// Commit or Rollback. Rollback after Commit is a no-op.
type RepositoryTx interface {
	Reader

	LockThesis(ctx context.Context, id uuid.UUID) (*model.Thesis, error)
	LockCommittee(ctx context.Context, id uuid.UUID) (*model.Committee, error)
	LockDefense(ctx context.Context, id uuid.UUID) (*model.Defense, error)
	LockLocation(ctx context.Context, location string) error

	CreateThesis(ctx context.Context, thesis *model.Thesis) error
	UpdateThesis(ctx context.Context, thesis *model.Thesis) error
	CreateCommittee(ctx context.Context, committee *model.Committee) error
	UpdateCommittee(ctx context.Context, committee *model.Committee) error
	CreateDefense(ctx context.Context, defense *model.Defense) error
	UpdateDefense(ctx context.Context, defense *model.Defense) error
	UpsertGrade(ctx context.Context, grade *model.Grade) error
	CreateFinalResult(ctx context.Context, result *model.FinalResult) error

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

type Clock func() time.Time
