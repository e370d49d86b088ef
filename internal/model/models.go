package model

import (
	"time"

	"github.com/google/uuid"
)

type ThesisState string

const (
	ThesisStateDraft       ThesisState = "draft"
	ThesisStateUnderReview ThesisState = "under_review"
	ThesisStateApproved    ThesisState = "approved"
	ThesisStateDefended    ThesisState = "defended"
)

func (s ThesisState) String() string {
	return string(s)
}

func (s ThesisState) IsValid() bool {
	switch s {
	case ThesisStateDraft, ThesisStateUnderReview, ThesisStateApproved, ThesisStateDefended:
		return true
	}
	return false
}

type DefenseState string

const (
	DefenseStateScheduled DefenseState = "scheduled"
	DefenseStateCompleted DefenseState = "completed"
	DefenseStateCancelled DefenseState = "cancelled"
)

func (s DefenseState) String() string {
	return string(s)
}

func (s DefenseState) IsValid() bool {
	switch s {
	case DefenseStateScheduled, DefenseStateCompleted, DefenseStateCancelled:
		return true
	}
	return false
}

type Thesis struct {
	Id          uuid.UUID   `db:"id" json:"id"`
	StudentId   uuid.UUID   `db:"student_id" json:"student_id"`
	AdvisorId   uuid.UUID   `db:"advisor_id" json:"advisor_id"`
	CoAdvisorId *uuid.UUID  `db:"co_advisor_id" json:"co_advisor_id,omitempty"`
	Title       string      `db:"title" json:"title"`
	Abstract    string      `db:"abstract" json:"abstract"`
	Keywords    []string    `db:"keywords" json:"keywords"`
	State       ThesisState `db:"state" json:"state"`
	FinalScore  *float64    `db:"final_score" json:"final_score,omitempty"`
	DefendedAt  *time.Time  `db:"defended_at" json:"defended_at,omitempty"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
	EditedAt    time.Time   `db:"edited_at" json:"edited_at"`
}

type Committee struct {
	Id          uuid.UUID `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	ChairId     uuid.UUID `db:"chair_id" json:"chair_id"`
	SecretaryId uuid.UUID `db:"secretary_id" json:"secretary_id"`
	MemberId    uuid.UUID `db:"member_id" json:"member_id"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	EditedAt    time.Time `db:"edited_at" json:"edited_at"`
}

type Defense struct {
	Id                   uuid.UUID    `db:"id" json:"id"`
	ThesisId             uuid.UUID    `db:"thesis_id" json:"thesis_id"`
	CommitteeId          uuid.UUID    `db:"committee_id" json:"committee_id"`
	StartsAt             time.Time    `db:"starts_at" json:"starts_at"`
	DurationMinutes      int          `db:"duration_minutes" json:"duration_minutes"`
	Location             string       `db:"location" json:"location"`
	State                DefenseState `db:"state" json:"state"`
	CancelReason         *string      `db:"cancel_reason" json:"cancel_reason,omitempty"`
	CertificateGenerated bool         `db:"certificate_generated" json:"certificate_generated"`
	CertificatePath      *string      `db:"certificate_path" json:"certificate_path,omitempty"`
	CreatedAt            time.Time    `db:"created_at" json:"created_at"`
	EditedAt             time.Time    `db:"edited_at" json:"edited_at"`
}

func (d *Defense) Duration() time.Duration {
	return time.Duration(d.DurationMinutes) * time.Minute
}

// EndsAt is the exclusive end of the defense window.
func (d *Defense) EndsAt() time.Time {
	return d.StartsAt.Add(d.Duration())
}

type Grade struct {
	Id                 uuid.UUID `db:"id" json:"id"`
	DefenseId          uuid.UUID `db:"defense_id" json:"defense_id"`
	EvaluatorId        uuid.UUID `db:"evaluator_id" json:"evaluator_id"`
	Presentation       *float64  `db:"presentation" json:"presentation,omitempty"`
	Content            *float64  `db:"content" json:"content,omitempty"`
	DefensePerformance *float64  `db:"defense_performance" json:"defense_performance,omitempty"`
	FinalScore         *float64  `db:"final_score" json:"final_score,omitempty"`
	Comments           *string   `db:"comments" json:"comments,omitempty"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	EditedAt           time.Time `db:"edited_at" json:"edited_at"`
}

type Tier string

const (
	TierOutstanding Tier = "Outstanding"
	TierGood        Tier = "Good"
	TierPass        Tier = "Pass"
	TierFail        Tier = "Fail"
)

func (t Tier) String() string {
	return string(t)
}

// FinalResult carries no timestamps so that repeated reads encode to the
// same bytes.
type FinalResult struct {
	DefenseId       uuid.UUID `db:"defense_id" json:"defense_id"`
	ThesisId        uuid.UUID `db:"thesis_id" json:"thesis_id"`
	Score           float64   `db:"score" json:"score"`
	Tier            Tier      `db:"tier" json:"tier"`
	Passed          bool      `db:"passed" json:"passed"`
	HighDiscrepancy bool      `db:"high_discrepancy" json:"high_discrepancy"`
	ChairScore      float64   `db:"chair_score" json:"chair_score"`
	SecretaryScore  float64   `db:"secretary_score" json:"secretary_score"`
	MemberScore     float64   `db:"member_score" json:"member_score"`
}

// Aggregation is either a FinalResult or a pending marker listing the
// committee members whose grade is missing or incomplete.
type Aggregation struct {
	Result            *FinalResult `json:"result,omitempty"`
	Pending           bool         `json:"pending"`
	MissingEvaluators []uuid.UUID  `json:"missing_evaluators,omitempty"`
}
