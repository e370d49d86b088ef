package model

import (
	"time"

	"github.com/google/uuid"
)

type CreateThesisInput struct {
	StudentId   uuid.UUID
	AdvisorId   uuid.UUID
	CoAdvisorId *uuid.UUID
	Title       string
	Abstract    string
	Keywords    []string
}

type CreateCommitteeInput struct {
	Name        string
	ChairId     uuid.UUID
	SecretaryId uuid.UUID
	MemberId    uuid.UUID
}

type UpdateCommitteeInput struct {
	Name        *string
	ChairId     *uuid.UUID
	SecretaryId *uuid.UUID
	MemberId    *uuid.UUID
	Active      *bool
}

// AvailabilityRequest describes a proposed defense window. ExcludeDefenseId
// is set when an existing defense is being moved.
type AvailabilityRequest struct {
	CommitteeId      uuid.UUID
	StartsAt         time.Time
	Duration         time.Duration
	Location         string
	ExcludeDefenseId *uuid.UUID
}

type ScheduleInput struct {
	ThesisId    uuid.UUID
	CommitteeId uuid.UUID
	StartsAt    time.Time
	Duration    time.Duration
	Location    string
}

type RescheduleInput struct {
	StartsAt time.Time
	Duration time.Duration
	Location string
}

type ScheduleResult struct {
	Defense  *Defense   `json:"defense"`
	Warnings []Conflict `json:"warnings"`
}

type SubmitGradeInput struct {
	DefenseId          uuid.UUID
	EvaluatorId        uuid.UUID
	Presentation       *float64
	Content            *float64
	DefensePerformance *float64
	Comments           *string
}
