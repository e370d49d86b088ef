package model

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventDefenseScheduled   EventType = "defense.scheduled"
	EventDefenseRescheduled EventType = "defense.rescheduled"
	EventDefenseCancelled   EventType = "defense.cancelled"
	EventDefenseCompleted   EventType = "defense.completed"
	EventGradingCompleted   EventType = "grading.completed"
)

type Event struct {
	Type         EventType   `json:"event_type"`
	DefenseId    uuid.UUID   `json:"defense_id"`
	ThesisId     uuid.UUID   `json:"thesis_id"`
	CommitteeId  uuid.UUID   `json:"committee_id"`
	EvaluatorIds []uuid.UUID `json:"evaluator_ids,omitempty"`
	StartsAt     time.Time   `json:"starts_at"`
	Location     string      `json:"location,omitempty"`
	Reason       *string     `json:"reason,omitempty"`
	Score        *float64    `json:"score,omitempty"`
	Passed       *bool       `json:"passed,omitempty"`
	OccurredAt   time.Time   `json:"occurred_at"`
}

// Certificate is everything the renderer needs for one passed defense.
type Certificate struct {
	Thesis    Thesis      `json:"thesis"`
	Defense   Defense     `json:"defense"`
	Committee Committee   `json:"committee"`
	Grades    []Grade     `json:"grades"`
	Result    FinalResult `json:"result"`
}
