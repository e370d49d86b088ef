package postgres

import (
	"context"
	"time"

	"defense_service/internal/model"
	"defense_service/internal/service"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Pool is the part of *pgxpool.Pool the repository needs.
type Pool interface {
	Querier
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	Ping(ctx context.Context) error
}

const (
	thesisColumns = `
	id, student_id, advisor_id, co_advisor_id,
	title, abstract, keywords, state,
	final_score, defended_at, created_at, edited_at`

	// vacant roles are stored as NULL
	committeeColumns = `
	id, name,
	COALESCE(chair_id, '00000000-0000-0000-0000-000000000000') AS chair_id,
	COALESCE(secretary_id, '00000000-0000-0000-0000-000000000000') AS secretary_id,
	COALESCE(member_id, '00000000-0000-0000-0000-000000000000') AS member_id,
	active, created_at, edited_at`

	defenseColumns = `
	id, thesis_id, committee_id, starts_at, duration_minutes,
	location, state, cancel_reason,
	certificate_generated, certificate_path, created_at, edited_at`

	gradeColumns = `
	id, defense_id, evaluator_id,
	presentation, content, defense_performance, final_score,
	comments, created_at, edited_at`

	resultColumns = `
	defense_id, thesis_id, score, tier, passed, high_discrepancy,
	chair_score, secretary_score, member_score`
)

type Repository struct {
	reader
	pool Pool
}

var (
	_ service.Repository   = (*Repository)(nil)
	_ service.RepositoryTx = (*Tx)(nil)
)

func NewRepository(pool Pool) *Repository {
	return &Repository{reader: reader{db: pool}, pool: pool}
}

// Begin opens a read-committed transaction. Conflicting writers are
// serialized by the row and advisory locks taken through the Tx.
func (r *Repository) Begin(ctx context.Context) (service.RepositoryTx, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return nil, err
	}
	return &Tx{reader: reader{db: tx}, tx: tx}, nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

type reader struct {
	db Querier
}

func (r reader) GetThesis(ctx context.Context, id uuid.UUID) (*model.Thesis, error) {
	query := `SELECT` + thesisColumns + `
FROM theses
WHERE id = $1
`
	var thesis model.Thesis
	if err := pgxscan.Get(ctx, r.db, &thesis, query, id); err != nil {
		return nil, handleError(err)
	}
	return &thesis, nil
}

func (r reader) GetCommittee(ctx context.Context, id uuid.UUID) (*model.Committee, error) {
	query := `SELECT` + committeeColumns + `
FROM committees
WHERE id = $1
`
	var committee model.Committee
	if err := pgxscan.Get(ctx, r.db, &committee, query, id); err != nil {
		return nil, handleError(err)
	}
	return &committee, nil
}

func (r reader) GetDefense(ctx context.Context, id uuid.UUID) (*model.Defense, error) {
	query := `SELECT` + defenseColumns + `
FROM defenses
WHERE id = $1
`
	var defense model.Defense
	if err := pgxscan.Get(ctx, r.db, &defense, query, id); err != nil {
		return nil, handleError(err)
	}
	return &defense, nil
}

func (r reader) GetDefenseByThesis(ctx context.Context, thesisId uuid.UUID) (*model.Defense, error) {
	query := `SELECT` + defenseColumns + `
FROM defenses
WHERE thesis_id = $1
`
	var defense model.Defense
	if err := pgxscan.Get(ctx, r.db, &defense, query, thesisId); err != nil {
		return nil, handleError(err)
	}
	return &defense, nil
}

func (r reader) ListScheduledDefensesByCommittee(ctx context.Context, committeeId uuid.UUID) ([]model.Defense, error) {
	query := `SELECT` + defenseColumns + `
FROM defenses
WHERE committee_id = $1 AND state = 'scheduled'
ORDER BY starts_at, id
`
	var defenses []model.Defense
	if err := pgxscan.Select(ctx, r.db, &defenses, query, committeeId); err != nil {
		return nil, handleError(err)
	}
	return defenses, nil
}

func (r reader) ListDefensesByCommittee(ctx context.Context, committeeId uuid.UUID) ([]model.Defense, error) {
	query := `SELECT` + defenseColumns + `
FROM defenses
WHERE committee_id = $1
ORDER BY starts_at, id
`
	var defenses []model.Defense
	if err := pgxscan.Select(ctx, r.db, &defenses, query, committeeId); err != nil {
		return nil, handleError(err)
	}
	return defenses, nil
}

func (r reader) ListScheduledDefensesByLocation(ctx context.Context, location string, from, to time.Time) ([]model.Defense, error) {
	query := `SELECT` + defenseColumns + `
FROM defenses
WHERE state = 'scheduled'
	AND lower(trim(location)) = lower(trim($1))
	AND starts_at < $3 AND ends_at > $2
ORDER BY starts_at, id
`
	var defenses []model.Defense
	if err := pgxscan.Select(ctx, r.db, &defenses, query, location, from, to); err != nil {
		return nil, handleError(err)
	}
	return defenses, nil
}

func (r reader) GetGrade(ctx context.Context, defenseId, evaluatorId uuid.UUID) (*model.Grade, error) {
	query := `SELECT` + gradeColumns + `
FROM grades
WHERE defense_id = $1 AND evaluator_id = $2
`
	var grade model.Grade
	if err := pgxscan.Get(ctx, r.db, &grade, query, defenseId, evaluatorId); err != nil {
		return nil, handleError(err)
	}
	return &grade, nil
}

func (r reader) ListGrades(ctx context.Context, defenseId uuid.UUID) ([]model.Grade, error) {
	query := `SELECT` + gradeColumns + `
FROM grades
WHERE defense_id = $1
ORDER BY created_at, id
`
	var grades []model.Grade
	if err := pgxscan.Select(ctx, r.db, &grades, query, defenseId); err != nil {
		return nil, handleError(err)
	}
	return grades, nil
}

func (r reader) GetFinalResult(ctx context.Context, defenseId uuid.UUID) (*model.FinalResult, error) {
	query := `SELECT` + resultColumns + `
FROM final_results
WHERE defense_id = $1
`
	var result model.FinalResult
	if err := pgxscan.Get(ctx, r.db, &result, query, defenseId); err != nil {
		return nil, handleError(err)
	}
	return &result, nil
}
