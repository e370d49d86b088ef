package policy

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v2"
)

type Policy struct {
	Scheduling Scheduling `yaml:"scheduling"`
	Grading    Grading    `yaml:"grading"`
}

// Scheduling drives the soft conflict rules and the duration bounds.
type Scheduling struct {
	TimeZone       string   `yaml:"time_zone"`
	WorkdayStart   string   `yaml:"workday_start"`
	WorkdayEnd     string   `yaml:"workday_end"`
	WeekendDays    []string `yaml:"weekend_days"`
	MinDurationMin int      `yaml:"min_duration_minutes"`
	MaxDurationMin int      `yaml:"max_duration_minutes"`

	location *time.Location
	open     clock
	close    clock
	weekend  map[time.Weekday]bool
}

type Grading struct {
	OutstandingCutoff    float64 `yaml:"outstanding_cutoff"`
	GoodCutoff           float64 `yaml:"good_cutoff"`
	PassCutoff           float64 `yaml:"pass_cutoff"`
	DiscrepancyThreshold float64 `yaml:"discrepancy_threshold"`
	MinScore             float64 `yaml:"min_score"`
	MaxScore             float64 `yaml:"max_score"`
}

type clock struct {
	hour, minute int
}

func (c clock) minutes() int {
	return c.hour*60 + c.minute
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// Default is the policy used when no file is configured: 09:00-18:00 UTC,
// Saturday and Sunday off, 15-180 minute defenses, tiers 9/7/5 and a
// discrepancy threshold of 2 points.
func Default() *Policy {
	p := &Policy{}
	setDefaults(p)
	if err := p.Compile(); err != nil {
		panic(err)
	}
	return p
}

// Load reads the policy file at path. An empty path yields Default.
// POLICY_TIME_ZONE and POLICY_DISCREPANCY_THRESHOLD override the file.
func Load(path string) (*Policy, error) {
	p := &Policy{}
	if path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // path comes from config
		if err != nil {
			return nil, fmt.Errorf("failed to read policy file: %w", err)
		}
		if err := yaml.Unmarshal(data, p); err != nil {
			return nil, fmt.Errorf("failed to unmarshal policy: %w", err)
		}
	}

	setDefaults(p)
	overrideFromEnv(p)

	if err := validatePolicy(p); err != nil {
		return nil, fmt.Errorf("policy validation failed: %w", err)
	}
	if err := p.Compile(); err != nil {
		return nil, fmt.Errorf("policy validation failed: %w", err)
	}
	return p, nil
}

func setDefaults(p *Policy) {
	s := &p.Scheduling
	if s.TimeZone == "" {
		s.TimeZone = "UTC"
	}
	if s.WorkdayStart == "" {
		s.WorkdayStart = "09:00"
	}
	if s.WorkdayEnd == "" {
		s.WorkdayEnd = "18:00"
	}
	if s.WeekendDays == nil {
		s.WeekendDays = []string{"saturday", "sunday"}
	}
	if s.MinDurationMin == 0 {
		s.MinDurationMin = 15
	}
	if s.MaxDurationMin == 0 {
		s.MaxDurationMin = 180
	}

	g := &p.Grading
	if g.OutstandingCutoff == 0 {
		g.OutstandingCutoff = 9.0
	}
	if g.GoodCutoff == 0 {
		g.GoodCutoff = 7.0
	}
	if g.PassCutoff == 0 {
		g.PassCutoff = 5.0
	}
	if g.DiscrepancyThreshold == 0 {
		g.DiscrepancyThreshold = 2.0
	}
	if g.MaxScore == 0 {
		g.MaxScore = 10.0
	}
}

func overrideFromEnv(p *Policy) {
	if val := os.Getenv("POLICY_TIME_ZONE"); val != "" {
		p.Scheduling.TimeZone = val
	}
	if val := os.Getenv("POLICY_DISCREPANCY_THRESHOLD"); val != "" {
		if threshold, err := strconv.ParseFloat(val, 64); err == nil {
			p.Grading.DiscrepancyThreshold = threshold
		}
	}
}

func validatePolicy(p *Policy) error {
	s := p.Scheduling
	if s.MinDurationMin <= 0 || s.MaxDurationMin < s.MinDurationMin {
		return fmt.Errorf("invalid duration bounds %d..%d", s.MinDurationMin, s.MaxDurationMin)
	}

	g := p.Grading
	if g.MaxScore <= g.MinScore {
		return fmt.Errorf("invalid score range %.2f..%.2f", g.MinScore, g.MaxScore)
	}
	if !(g.MinScore <= g.PassCutoff && g.PassCutoff <= g.GoodCutoff &&
		g.GoodCutoff <= g.OutstandingCutoff && g.OutstandingCutoff <= g.MaxScore) {
		return fmt.Errorf("tier cutoffs must be ascending within the score range")
	}
	if g.DiscrepancyThreshold <= 0 {
		return fmt.Errorf("discrepancy threshold must be positive")
	}
	return nil
}

// Compile resolves the zone, working window and weekend set. Call it again
// after changing Scheduling fields in code.
func (p *Policy) Compile() error {
	s := &p.Scheduling

	loc, err := time.LoadLocation(s.TimeZone)
	if err != nil {
		return fmt.Errorf("unknown time zone %q: %w", s.TimeZone, err)
	}
	s.location = loc

	if s.open, err = parseClock(s.WorkdayStart); err != nil {
		return err
	}
	if s.close, err = parseClock(s.WorkdayEnd); err != nil {
		return err
	}
	if s.close.minutes() <= s.open.minutes() {
		return fmt.Errorf("workday end %s must be after start %s", s.WorkdayEnd, s.WorkdayStart)
	}

	s.weekend = make(map[time.Weekday]bool, len(s.WeekendDays))
	for _, day := range s.WeekendDays {
		wd, ok := weekdays[strings.ToLower(strings.TrimSpace(day))]
		if !ok {
			return fmt.Errorf("unknown weekday %q", day)
		}
		s.weekend[wd] = true
	}
	return nil
}

func parseClock(v string) (clock, error) {
	t, err := time.Parse("15:04", v)
	if err != nil {
		return clock{}, fmt.Errorf("invalid clock value %q: %w", v, err)
	}
	return clock{hour: t.Hour(), minute: t.Minute()}, nil
}

// Location is the zone in which weekend and working hours are judged.
func (s *Scheduling) Location() *time.Location {
	if s.location == nil {
		return time.UTC
	}
	return s.location
}

func (s *Scheduling) IsWeekend(t time.Time) bool {
	return s.weekend[t.In(s.Location()).Weekday()]
}

// WithinWorkingHours reports whether start falls inside [open, close) of
// its local day. The end of the defense is not considered.
func (s *Scheduling) WithinWorkingHours(start time.Time) bool {
	local := start.In(s.Location())
	minute := local.Hour()*60 + local.Minute()
	return minute >= s.open.minutes() && minute < s.close.minutes()
}

// Day returns the local calendar day window [00:00, next 00:00) holding t.
func (s *Scheduling) Day(t time.Time) (time.Time, time.Time) {
	local := t.In(s.Location())
	y, m, d := local.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, s.Location())
	return start, start.AddDate(0, 0, 1)
}

func (s *Scheduling) MinDuration() time.Duration {
	return time.Duration(s.MinDurationMin) * time.Minute
}

func (s *Scheduling) MaxDuration() time.Duration {
	return time.Duration(s.MaxDurationMin) * time.Minute
}

// ValidDuration requires whole minutes within the configured bounds.
func (s *Scheduling) ValidDuration(d time.Duration) bool {
	return d%time.Minute == 0 && d >= s.MinDuration() && d <= s.MaxDuration()
}

func (g Grading) InRange(score float64) bool {
	return score >= g.MinScore && score <= g.MaxScore
}
