package postgres

import (
	"context"
	"errors"

	"defense_service/internal/errdefs"
	"defense_service/internal/model"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type Tx struct {
	reader
	tx pgx.Tx
}

func (t *Tx) LockThesis(ctx context.Context, id uuid.UUID) (*model.Thesis, error) {
	query := `SELECT` + thesisColumns + `
FROM theses
WHERE id = $1
FOR UPDATE
`
	var thesis model.Thesis
	if err := pgxscan.Get(ctx, t.tx, &thesis, query, id); err != nil {
		return nil, handleError(err)
	}
	return &thesis, nil
}

func (t *Tx) LockCommittee(ctx context.Context, id uuid.UUID) (*model.Committee, error) {
	query := `SELECT` + committeeColumns + `
FROM committees
WHERE id = $1
FOR UPDATE
`
	var committee model.Committee
	if err := pgxscan.Get(ctx, t.tx, &committee, query, id); err != nil {
		return nil, handleError(err)
	}
	return &committee, nil
}

func (t *Tx) LockDefense(ctx context.Context, id uuid.UUID) (*model.Defense, error) {
	query := `SELECT` + defenseColumns + `
FROM defenses
WHERE id = $1
FOR UPDATE
`
	var defense model.Defense
	if err := pgxscan.Get(ctx, t.tx, &defense, query, id); err != nil {
		return nil, handleError(err)
	}
	return &defense, nil
}

// LockLocation takes a transaction-scoped advisory lock on the normalized
// room name, so two bookings of one room cannot both pass the check.
func (t *Tx) LockLocation(ctx context.Context, location string) error {
	_, err := t.tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext(lower(trim($1))))`, location)
	if err != nil {
		return handleError(err)
	}
	return nil
}

func (t *Tx) CreateThesis(ctx context.Context, thesis *model.Thesis) error {
	query := `
INSERT INTO theses (
	id, student_id, advisor_id, co_advisor_id,
	title, abstract, keywords, state,
	final_score, defended_at, created_at, edited_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
`
	_, err := t.tx.Exec(ctx, query,
		thesis.Id,
		thesis.StudentId,
		thesis.AdvisorId,
		thesis.CoAdvisorId,
		thesis.Title,
		thesis.Abstract,
		thesis.Keywords,
		thesis.State,
		thesis.FinalScore,
		thesis.DefendedAt,
		thesis.CreatedAt,
		thesis.EditedAt,
	)
	if err != nil {
		return handleError(err)
	}
	return nil
}

func (t *Tx) UpdateThesis(ctx context.Context, thesis *model.Thesis) error {
	query := `
UPDATE theses
SET title = $1, abstract = $2, keywords = $3, state = $4,
	final_score = $5, defended_at = $6, edited_at = $7
WHERE id = $8
`
	res, err := t.tx.Exec(ctx, query,
		thesis.Title,
		thesis.Abstract,
		thesis.Keywords,
		thesis.State,
		thesis.FinalScore,
		thesis.DefendedAt,
		thesis.EditedAt,
		thesis.Id,
	)
	if err != nil {
		return handleError(err)
	}
	if res.RowsAffected() == 0 {
		return errdefs.ErrNotFound
	}
	return nil
}

func (t *Tx) CreateCommittee(ctx context.Context, committee *model.Committee) error {
	query := `
INSERT INTO committees (
	id, name, chair_id, secretary_id, member_id,
	active, created_at, edited_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`
	_, err := t.tx.Exec(ctx, query,
		committee.Id,
		committee.Name,
		nullable(committee.ChairId),
		nullable(committee.SecretaryId),
		nullable(committee.MemberId),
		committee.Active,
		committee.CreatedAt,
		committee.EditedAt,
	)
	if err != nil {
		return handleError(err)
	}
	return nil
}

func (t *Tx) UpdateCommittee(ctx context.Context, committee *model.Committee) error {
	query := `
UPDATE committees
SET name = $1, chair_id = $2, secretary_id = $3, member_id = $4,
	active = $5, edited_at = $6
WHERE id = $7
`
	res, err := t.tx.Exec(ctx, query,
		committee.Name,
		nullable(committee.ChairId),
		nullable(committee.SecretaryId),
		nullable(committee.MemberId),
		committee.Active,
		committee.EditedAt,
		committee.Id,
	)
	if err != nil {
		return handleError(err)
	}
	if res.RowsAffected() == 0 {
		return errdefs.ErrNotFound
	}
	return nil
}

func (t *Tx) CreateDefense(ctx context.Context, defense *model.Defense) error {
	query := `
INSERT INTO defenses (
	id, thesis_id, committee_id, starts_at, duration_minutes, ends_at,
	location, state, cancel_reason,
	certificate_generated, certificate_path, created_at, edited_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
`
	_, err := t.tx.Exec(ctx, query,
		defense.Id,
		defense.ThesisId,
		defense.CommitteeId,
		defense.StartsAt,
		defense.DurationMinutes,
		defense.EndsAt(),
		defense.Location,
		defense.State,
		defense.CancelReason,
		defense.CertificateGenerated,
		defense.CertificatePath,
		defense.CreatedAt,
		defense.EditedAt,
	)
	if err != nil {
		return handleError(err)
	}
	return nil
}

func (t *Tx) UpdateDefense(ctx context.Context, defense *model.Defense) error {
	query := `
UPDATE defenses
SET committee_id = $1, starts_at = $2, duration_minutes = $3, ends_at = $4,
	location = $5, state = $6, cancel_reason = $7,
	certificate_generated = $8, certificate_path = $9, edited_at = $10
WHERE id = $11
`
	res, err := t.tx.Exec(ctx, query,
		defense.CommitteeId,
		defense.StartsAt,
		defense.DurationMinutes,
		defense.EndsAt(),
		defense.Location,
		defense.State,
		defense.CancelReason,
		defense.CertificateGenerated,
		defense.CertificatePath,
		defense.EditedAt,
		defense.Id,
	)
	if err != nil {
		return handleError(err)
	}
	if res.RowsAffected() == 0 {
		return errdefs.ErrNotFound
	}
	return nil
}

// UpsertGrade writes the merged grade. The (defense_id, evaluator_id) pair
// keeps the row id and created_at of the first submission.
func (t *Tx) UpsertGrade(ctx context.Context, grade *model.Grade) error {
	query := `
INSERT INTO grades (
	id, defense_id, evaluator_id,
	presentation, content, defense_performance, final_score,
	comments, created_at, edited_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (defense_id, evaluator_id) DO UPDATE
SET presentation = EXCLUDED.presentation,
	content = EXCLUDED.content,
	defense_performance = EXCLUDED.defense_performance,
	final_score = EXCLUDED.final_score,
	comments = EXCLUDED.comments,
	edited_at = EXCLUDED.edited_at
`
	_, err := t.tx.Exec(ctx, query,
		grade.Id,
		grade.DefenseId,
		grade.EvaluatorId,
		grade.Presentation,
		grade.Content,
		grade.DefensePerformance,
		grade.FinalScore,
		grade.Comments,
		grade.CreatedAt,
		grade.EditedAt,
	)
	if err != nil {
		return handleError(err)
	}
	return nil
}

func (t *Tx) CreateFinalResult(ctx context.Context, result *model.FinalResult) error {
	query := `
INSERT INTO final_results (` + resultColumns + `
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
`
	_, err := t.tx.Exec(ctx, query,
		result.DefenseId,
		result.ThesisId,
		result.Score,
		result.Tier,
		result.Passed,
		result.HighDiscrepancy,
		result.ChairScore,
		result.SecretaryScore,
		result.MemberScore,
	)
	if err != nil {
		return handleError(err)
	}
	return nil
}

func (t *Tx) Commit(ctx context.Context) error {
	if err := t.tx.Commit(ctx); err != nil {
		return handleError(err)
	}
	return nil
}

// Rollback is a no-op once the transaction has been committed.
func (t *Tx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}

func nullable(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}
