package certificate

import (
	"time"

	"defense_service/internal/model"

	"github.com/google/uuid"
)

type act struct {
	ThesisId   uuid.UUID         `json:"thesis_id"`
	Title      string            `json:"title"`
	StudentId  uuid.UUID         `json:"student_id"`
	AdvisorId  uuid.UUID         `json:"advisor_id"`
	DefenseId  uuid.UUID         `json:"defense_id"`
	DefendedAt time.Time         `json:"defended_at"`
	Location   string            `json:"location"`
	Committee  []actEvaluator    `json:"committee"`
	Result     model.FinalResult `json:"result"`
}

type actEvaluator struct {
	Role        model.Role `json:"role"`
	EvaluatorId uuid.UUID  `json:"evaluator_id"`
	FinalScore  *float64   `json:"final_score,omitempty"`
	Comments    *string    `json:"comments,omitempty"`
}

// newAct lists the committee in chair, secretary, member order with the
// grade each of them gave.
func newAct(cert model.Certificate) act {
	byEvaluator := make(map[uuid.UUID]model.Grade, len(cert.Grades))
	for _, g := range cert.Grades {
		byEvaluator[g.EvaluatorId] = g
	}

	evaluators := make([]actEvaluator, 0, 3)
	for _, id := range cert.Committee.Evaluators() {
		e := actEvaluator{Role: cert.Committee.RoleOf(id), EvaluatorId: id}
		if g, ok := byEvaluator[id]; ok {
			e.FinalScore = g.FinalScore
			e.Comments = g.Comments
		}
		evaluators = append(evaluators, e)
	}

	return act{
		ThesisId:   cert.Thesis.Id,
		Title:      cert.Thesis.Title,
		StudentId:  cert.Thesis.StudentId,
		AdvisorId:  cert.Thesis.AdvisorId,
		DefenseId:  cert.Defense.Id,
		DefendedAt: cert.Defense.StartsAt,
		Location:   cert.Defense.Location,
		Committee:  evaluators,
		Result:     cert.Result,
	}
}
