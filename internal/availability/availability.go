package availability

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"defense_service/internal/model"
	"defense_service/internal/policy"
)

// Overlaps is the half-open interval test: [s1,e1) and [s2,e2) overlap iff
// s1 < e2 and s2 < e1. Touching endpoints do not overlap.
func Overlaps(s1, e1, s2, e2 time.Time) bool {
	return s1.Before(e2) && s2.Before(e1)
}

// SameLocation compares room names ignoring case and surrounding blanks.
func SameLocation(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// Check returns the conflicts of the proposed window: hard ones first
// ordered by the clashing defense start, then the soft weekend and
// working-hours warnings. committee holds the committee's defenses,
// room the defenses booked in the same location on the same local day.
// Only scheduled defenses count and req.ExcludeDefenseId is skipped.
func Check(p *policy.Scheduling, req model.AvailabilityRequest, committee, room []model.Defense) []model.Conflict {
	start := req.StartsAt
	end := start.Add(req.Duration)

	var hard []model.Conflict
	for i := range committee {
		d := &committee[i]
		if skip(d, req) || d.CommitteeId != req.CommitteeId {
			continue
		}
		if Overlaps(start, end, d.StartsAt, d.EndsAt()) {
			hard = append(hard, overlap(model.ConflictCommitteeOverlap, d,
				"committee already sits in another defense"))
		}
	}

	if strings.TrimSpace(req.Location) != "" {
		dayStart, dayEnd := p.Day(start)
		for i := range room {
			d := &room[i]
			if skip(d, req) || !SameLocation(d.Location, req.Location) {
				continue
			}
			if !Overlaps(dayStart, dayEnd, d.StartsAt, d.EndsAt()) {
				continue
			}
			if Overlaps(start, end, d.StartsAt, d.EndsAt()) {
				hard = append(hard, overlap(model.ConflictLocationOverlap, d,
					fmt.Sprintf("location %q is already booked", d.Location)))
			}
		}
	}

	sort.SliceStable(hard, func(i, j int) bool {
		return hard[i].StartsAt.Before(*hard[j].StartsAt)
	})

	conflicts := hard
	if p.IsWeekend(start) {
		conflicts = append(conflicts, model.Conflict{
			Kind:     model.ConflictWeekend,
			Severity: model.SeveritySoft,
			Message:  fmt.Sprintf("defense falls on a %s", start.In(p.Location()).Weekday()),
		})
	}
	if !p.WithinWorkingHours(start) {
		conflicts = append(conflicts, model.Conflict{
			Kind:     model.ConflictOutsideWorkingHours,
			Severity: model.SeveritySoft,
			Message: fmt.Sprintf("defense starts outside working hours %s-%s",
				p.WorkdayStart, p.WorkdayEnd),
		})
	}
	return conflicts
}

// Split separates hard conflicts from soft warnings, keeping order.
func Split(conflicts []model.Conflict) (hard, soft []model.Conflict) {
	for _, c := range conflicts {
		if c.IsHard() {
			hard = append(hard, c)
		} else {
			soft = append(soft, c)
		}
	}
	return hard, soft
}

func skip(d *model.Defense, req model.AvailabilityRequest) bool {
	if d.State != model.DefenseStateScheduled {
		return true
	}
	return req.ExcludeDefenseId != nil && d.Id == *req.ExcludeDefenseId
}

func overlap(kind model.ConflictKind, d *model.Defense, msg string) model.Conflict {
	id := d.Id
	startsAt, endsAt := d.StartsAt, d.EndsAt()
	return model.Conflict{
		Kind:      kind,
		Severity:  model.SeverityHard,
		DefenseId: &id,
		StartsAt:  &startsAt,
		EndsAt:    &endsAt,
		Message:   msg,
	}
}
