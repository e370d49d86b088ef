package model

import (
	"time"

	"github.com/google/uuid"
)

type Severity string

const (
	SeverityHard Severity = "hard"
	SeveritySoft Severity = "soft"
)

type ConflictKind string

const (
	ConflictCommitteeOverlap    ConflictKind = "committee_overlap"
	ConflictLocationOverlap     ConflictKind = "location_overlap"
	ConflictWeekend             ConflictKind = "weekend"
	ConflictOutsideWorkingHours ConflictKind = "outside_working_hours"
)

type Conflict struct {
	Kind      ConflictKind `json:"kind"`
	Severity  Severity     `json:"severity"`
	DefenseId *uuid.UUID   `json:"defense_id,omitempty"`
	StartsAt  *time.Time   `json:"starts_at,omitempty"`
	EndsAt    *time.Time   `json:"ends_at,omitempty"`
	Message   string       `json:"message"`
}

func (c Conflict) IsHard() bool {
	return c.Severity == SeverityHard
}
