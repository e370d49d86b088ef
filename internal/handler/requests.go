package handler

import (
	"context"
	"net/http"
	"time"

	"defense_service/internal/model"

	"github.com/google/uuid"
)

type idRequest struct {
	Id uuid.UUID
}

func parseID(ctx context.Context, r *http.Request, req *idRequest) error {
	id, err := parseIDParam(r, "id")
	if err != nil {
		return err
	}
	req.Id = id
	return nil
}

type createThesisRequest struct {
	StudentId   uuid.UUID  `json:"-"`
	AdvisorId   uuid.UUID  `json:"advisor_id"`
	CoAdvisorId *uuid.UUID `json:"co_advisor_id"`
	Title       string     `json:"title"`
	Abstract    string     `json:"abstract"`
	Keywords    []string   `json:"keywords"`
}

func parseCreateThesis(ctx context.Context, r *http.Request, req *createThesisRequest) error {
	id, err := callerID(ctx)
	if err != nil {
		return err
	}
	req.StudentId = id
	return nil
}

type transitionRequest struct {
	Id    uuid.UUID         `json:"-"`
	State model.ThesisState `json:"state"`
}

func parseTransition(ctx context.Context, r *http.Request, req *transitionRequest) error {
	id, err := parseIDParam(r, "id")
	if err != nil {
		return err
	}
	req.Id = id
	return nil
}

type createCommitteeRequest struct {
	Name        string    `json:"name"`
	ChairId     uuid.UUID `json:"chair_id"`
	SecretaryId uuid.UUID `json:"secretary_id"`
	MemberId    uuid.UUID `json:"member_id"`
}

type updateCommitteeRequest struct {
	Id          uuid.UUID  `json:"-"`
	Name        *string    `json:"name"`
	ChairId     *uuid.UUID `json:"chair_id"`
	SecretaryId *uuid.UUID `json:"secretary_id"`
	MemberId    *uuid.UUID `json:"member_id"`
	Active      *bool      `json:"active"`
}

func parseUpdateCommittee(ctx context.Context, r *http.Request, req *updateCommitteeRequest) error {
	id, err := parseIDParam(r, "id")
	if err != nil {
		return err
	}
	req.Id = id
	return nil
}

type availabilityRequest struct {
	CommitteeId      uuid.UUID  `json:"-"`
	StartsAt         time.Time  `json:"starts_at"`
	DurationMinutes  int        `json:"duration_minutes"`
	Location         string     `json:"location"`
	ExcludeDefenseId *uuid.UUID `json:"exclude_defense_id"`
}

func parseAvailability(ctx context.Context, r *http.Request, req *availabilityRequest) error {
	id, err := parseIDParam(r, "id")
	if err != nil {
		return err
	}
	req.CommitteeId = id
	return nil
}

type availabilityResponse struct {
	Available bool             `json:"available"`
	Conflicts []model.Conflict `json:"conflicts"`
}

type scheduleRequest struct {
	ThesisId        uuid.UUID `json:"thesis_id"`
	CommitteeId     uuid.UUID `json:"committee_id"`
	StartsAt        time.Time `json:"starts_at"`
	DurationMinutes int       `json:"duration_minutes"`
	Location        string    `json:"location"`
}

type rescheduleRequest struct {
	Id              uuid.UUID `json:"-"`
	StartsAt        time.Time `json:"starts_at"`
	DurationMinutes int       `json:"duration_minutes"`
	Location        string    `json:"location"`
}

func parseReschedule(ctx context.Context, r *http.Request, req *rescheduleRequest) error {
	id, err := parseIDParam(r, "id")
	if err != nil {
		return err
	}
	req.Id = id
	return nil
}

// cancelRequest takes an optional body, so it is decoded here rather than
// by Handle.
type cancelRequest struct {
	Id     uuid.UUID `json:"-"`
	Reason string    `json:"reason"`
}

func parseCancel(ctx context.Context, r *http.Request, req *cancelRequest) error {
	id, err := parseIDParam(r, "id")
	if err != nil {
		return err
	}
	if r.ContentLength != 0 {
		if err := decodeJSON(r, req); err != nil {
			return err
		}
	}
	req.Id = id
	return nil
}

type submitGradeRequest struct {
	DefenseId          uuid.UUID `json:"-"`
	EvaluatorId        uuid.UUID `json:"-"`
	Presentation       *float64  `json:"presentation"`
	Content            *float64  `json:"content"`
	DefensePerformance *float64  `json:"defense_performance"`
	Comments           *string   `json:"comments"`
}

func parseSubmitGrade(ctx context.Context, r *http.Request, req *submitGradeRequest) error {
	id, err := parseIDParam(r, "id")
	if err != nil {
		return err
	}
	evaluator, err := callerID(ctx)
	if err != nil {
		return err
	}
	req.DefenseId = id
	req.EvaluatorId = evaluator
	return nil
}

type gradesResponse struct {
	Grades []model.Grade `json:"grades"`
}

func resultKey(r *http.Request) (string, error) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		return "", err
	}
	return "defense-result:" + id.String(), nil
}

func minutes(n int) time.Duration {
	return time.Duration(n) * time.Minute
}

