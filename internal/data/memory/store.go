package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"defense_service/internal/errdefs"
	"defense_service/internal/model"
	"defense_service/internal/service"

	"github.com/google/uuid"
)

var (
	_ service.Repository   = (*Store)(nil)
	_ service.RepositoryTx = (*Tx)(nil)
)

type gradeKey struct {
	defenseId   uuid.UUID
	evaluatorId uuid.UUID
}

// state is an arena of rows keyed by id. Relations are plain id fields.
// A committed state is never mutated; transactions work on a clone.
type state struct {
	theses     map[uuid.UUID]model.Thesis
	committees map[uuid.UUID]model.Committee
	defenses   map[uuid.UUID]model.Defense
	grades     map[gradeKey]model.Grade
	results    map[uuid.UUID]model.FinalResult
}

func newState() *state {
	return &state{
		theses:     map[uuid.UUID]model.Thesis{},
		committees: map[uuid.UUID]model.Committee{},
		defenses:   map[uuid.UUID]model.Defense{},
		grades:     map[gradeKey]model.Grade{},
		results:    map[uuid.UUID]model.FinalResult{},
	}
}

func (s *state) clone() *state {
	c := &state{
		theses:     make(map[uuid.UUID]model.Thesis, len(s.theses)),
		committees: make(map[uuid.UUID]model.Committee, len(s.committees)),
		defenses:   make(map[uuid.UUID]model.Defense, len(s.defenses)),
		grades:     make(map[gradeKey]model.Grade, len(s.grades)),
		results:    make(map[uuid.UUID]model.FinalResult, len(s.results)),
	}
	for k, v := range s.theses {
		c.theses[k] = v
	}
	for k, v := range s.committees {
		c.committees[k] = v
	}
	for k, v := range s.defenses {
		c.defenses[k] = v
	}
	for k, v := range s.grades {
		c.grades[k] = v
	}
	for k, v := range s.results {
		c.results[k] = v
	}
	return c
}

// Store is a process-local repository. Transactions are serialized: Begin
// waits for the single writer slot, so check-then-write sequences inside a
// transaction cannot interleave.
type Store struct {
	mu     sync.RWMutex
	writer chan struct{}
	state  *state
}

func New() *Store {
	return &Store{
		writer: make(chan struct{}, 1),
		state:  newState(),
	}
}

func (s *Store) snapshot() *state {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Store) Begin(ctx context.Context) (service.RepositoryTx, error) {
	select {
	case s.writer <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return &Tx{store: s, reader: reader{st: s.snapshot().clone()}}, nil
}

func (s *Store) GetThesis(ctx context.Context, id uuid.UUID) (*model.Thesis, error) {
	return reader{st: s.snapshot()}.GetThesis(ctx, id)
}

func (s *Store) GetCommittee(ctx context.Context, id uuid.UUID) (*model.Committee, error) {
	return reader{st: s.snapshot()}.GetCommittee(ctx, id)
}

func (s *Store) GetDefense(ctx context.Context, id uuid.UUID) (*model.Defense, error) {
	return reader{st: s.snapshot()}.GetDefense(ctx, id)
}

func (s *Store) GetDefenseByThesis(ctx context.Context, thesisId uuid.UUID) (*model.Defense, error) {
	return reader{st: s.snapshot()}.GetDefenseByThesis(ctx, thesisId)
}

func (s *Store) ListScheduledDefensesByCommittee(ctx context.Context, committeeId uuid.UUID) ([]model.Defense, error) {
	return reader{st: s.snapshot()}.ListScheduledDefensesByCommittee(ctx, committeeId)
}

func (s *Store) ListDefensesByCommittee(ctx context.Context, committeeId uuid.UUID) ([]model.Defense, error) {
	return reader{st: s.snapshot()}.ListDefensesByCommittee(ctx, committeeId)
}

func (s *Store) ListScheduledDefensesByLocation(ctx context.Context, location string, from, to time.Time) ([]model.Defense, error) {
	return reader{st: s.snapshot()}.ListScheduledDefensesByLocation(ctx, location, from, to)
}

func (s *Store) GetGrade(ctx context.Context, defenseId, evaluatorId uuid.UUID) (*model.Grade, error) {
	return reader{st: s.snapshot()}.GetGrade(ctx, defenseId, evaluatorId)
}

func (s *Store) ListGrades(ctx context.Context, defenseId uuid.UUID) ([]model.Grade, error) {
	return reader{st: s.snapshot()}.ListGrades(ctx, defenseId)
}

func (s *Store) GetFinalResult(ctx context.Context, defenseId uuid.UUID) (*model.FinalResult, error) {
	return reader{st: s.snapshot()}.GetFinalResult(ctx, defenseId)
}

type reader struct {
	st *state
}

func (r reader) GetThesis(_ context.Context, id uuid.UUID) (*model.Thesis, error) {
	t, ok := r.st.theses[id]
	if !ok {
		return nil, errdefs.ErrNotFound
	}
	t.Keywords = append([]string(nil), t.Keywords...)
	return &t, nil
}

func (r reader) GetCommittee(_ context.Context, id uuid.UUID) (*model.Committee, error) {
	c, ok := r.st.committees[id]
	if !ok {
		return nil, errdefs.ErrNotFound
	}
	return &c, nil
}

func (r reader) GetDefense(_ context.Context, id uuid.UUID) (*model.Defense, error) {
	d, ok := r.st.defenses[id]
	if !ok {
		return nil, errdefs.ErrNotFound
	}
	return &d, nil
}

func (r reader) GetDefenseByThesis(_ context.Context, thesisId uuid.UUID) (*model.Defense, error) {
	for _, d := range r.st.defenses {
		if d.ThesisId == thesisId {
			return &d, nil
		}
	}
	return nil, errdefs.ErrNotFound
}

func (r reader) ListScheduledDefensesByCommittee(_ context.Context, committeeId uuid.UUID) ([]model.Defense, error) {
	var out []model.Defense
	for _, d := range r.st.defenses {
		if d.State == model.DefenseStateScheduled && d.CommitteeId == committeeId {
			out = append(out, d)
		}
	}
	sortDefenses(out)
	return out, nil
}

func (r reader) ListDefensesByCommittee(_ context.Context, committeeId uuid.UUID) ([]model.Defense, error) {
	var out []model.Defense
	for _, d := range r.st.defenses {
		if d.CommitteeId == committeeId {
			out = append(out, d)
		}
	}
	sortDefenses(out)
	return out, nil
}

func (r reader) ListScheduledDefensesByLocation(_ context.Context, location string, from, to time.Time) ([]model.Defense, error) {
	var out []model.Defense
	for _, d := range r.st.defenses {
		if d.State != model.DefenseStateScheduled || !sameLocation(d.Location, location) {
			continue
		}
		if d.StartsAt.Before(to) && from.Before(d.EndsAt()) {
			out = append(out, d)
		}
	}
	sortDefenses(out)
	return out, nil
}

func (r reader) GetGrade(_ context.Context, defenseId, evaluatorId uuid.UUID) (*model.Grade, error) {
	g, ok := r.st.grades[gradeKey{defenseId, evaluatorId}]
	if !ok {
		return nil, errdefs.ErrNotFound
	}
	return &g, nil
}

func (r reader) ListGrades(_ context.Context, defenseId uuid.UUID) ([]model.Grade, error) {
	var out []model.Grade
	for k, g := range r.st.grades {
		if k.defenseId == defenseId {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].EvaluatorId.String() < out[j].EvaluatorId.String()
	})
	return out, nil
}

func (r reader) GetFinalResult(_ context.Context, defenseId uuid.UUID) (*model.FinalResult, error) {
	res, ok := r.st.results[defenseId]
	if !ok {
		return nil, errdefs.ErrNotFound
	}
	return &res, nil
}

func sortDefenses(ds []model.Defense) {
	sort.Slice(ds, func(i, j int) bool {
		return ds[i].StartsAt.Before(ds[j].StartsAt)
	})
}

func sameLocation(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
