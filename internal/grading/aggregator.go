package grading

import (
	"math"

	"defense_service/internal/model"
	"defense_service/internal/policy"

	"github.com/google/uuid"
)

// Round2 rounds half-up to two decimals. The epsilon absorbs binary
// representation error so that 7.665 rounds to 7.67.
func Round2(x float64) float64 {
	return math.Floor(x*100+0.5+1e-9) / 100
}

// RecomputeFinal derives g.FinalScore from the partials present. It is the
// only place the derived score is written; with no partial the grade is
// incomplete and FinalScore is nil.
func RecomputeFinal(g *model.Grade) {
	var sum float64
	var n int
	for _, p := range []*float64{g.Presentation, g.Content, g.DefensePerformance} {
		if p == nil {
			continue
		}
		sum += *p
		n++
	}
	if n == 0 {
		g.FinalScore = nil
		return
	}
	final := Round2(sum / float64(n))
	g.FinalScore = &final
}

// Classify maps a score to its tier. Cutoffs are inclusive lower bounds.
func Classify(score float64, p policy.Grading) model.Tier {
	switch {
	case score >= p.OutstandingCutoff:
		return model.TierOutstanding
	case score >= p.GoodCutoff:
		return model.TierGood
	case score >= p.PassCutoff:
		return model.TierPass
	}
	return model.TierFail
}

// Aggregate folds the chair, secretary and member finals into the committee
// result. The discrepancy flag is advisory and never alters the score.
func Aggregate(chair, secretary, member float64, p policy.Grading) model.FinalResult {
	score := Round2((chair + secretary + member) / 3)
	spread := Round2(math.Max(chair, math.Max(secretary, member)) - math.Min(chair, math.Min(secretary, member)))

	return model.FinalResult{
		Score:           score,
		Tier:            Classify(score, p),
		Passed:          score >= p.PassCutoff,
		HighDiscrepancy: spread >= p.DiscrepancyThreshold,
		ChairScore:      chair,
		SecretaryScore:  secretary,
		MemberScore:     member,
	}
}

// Missing lists, in role order, the committee members whose grade is absent
// or incomplete.
func Missing(c *model.Committee, grades []model.Grade) []uuid.UUID {
	finals := Finals(grades)
	var missing []uuid.UUID
	for _, id := range c.Evaluators() {
		if _, ok := finals[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}

// Finals indexes the complete grades by evaluator.
func Finals(grades []model.Grade) map[uuid.UUID]float64 {
	finals := make(map[uuid.UUID]float64, len(grades))
	for _, g := range grades {
		if g.FinalScore != nil {
			finals[g.EvaluatorId] = *g.FinalScore
		}
	}
	return finals
}
