package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"defense_service/internal/data/memory"
	"defense_service/internal/model"
	"defense_service/internal/policy"
	"defense_service/internal/service"
	"defense_service/internal/service/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// eventOf matches a model.Event by type.
type eventOf model.EventType

func (e eventOf) Matches(x any) bool {
	ev, ok := x.(model.Event)
	return ok && ev.Type == model.EventType(e)
}

func (e eventOf) String() string {
	return "event " + string(e)
}

type fixture struct {
	store      *memory.Store
	clock      *fakeClock
	notifier   *mocks.MockNotifier
	renderer   *mocks.MockCertificateRenderer
	theses     *service.ThesisService
	committees *service.CommitteeService
	scheduler  *service.SchedulerService
	grading    *service.GradingService
}

func setup(t *testing.T) *fixture {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	p := policy.Default()
	store := memory.New()
	clock := &fakeClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	notifier := mocks.NewMockNotifier(ctrl)
	renderer := mocks.NewMockCertificateRenderer(ctrl)

	return &fixture{
		store:      store,
		clock:      clock,
		notifier:   notifier,
		renderer:   renderer,
		theses:     service.NewThesisService(store, clock.Now),
		committees: service.NewCommitteeService(store, clock.Now),
		scheduler:  service.NewSchedulerService(store, notifier, &p.Scheduling, clock.Now),
		grading:    service.NewGradingService(store, notifier, renderer, p.Grading, clock.Now),
	}
}

func (f *fixture) allowEvents() {
	f.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
}

func (f *fixture) approvedThesis(t *testing.T) *model.Thesis {
	t.Helper()
	ctx := context.Background()
	th, err := f.theses.Create(ctx, &model.CreateThesisInput{
		StudentId: uuid.New(),
		AdvisorId: uuid.New(),
		Title:     "Consensus under partial synchrony",
		Keywords:  []string{"Distributed Systems", "consensus", " consensus "},
	})
	require.NoError(t, err)
	_, err = f.theses.Transition(ctx, th.Id, model.ThesisStateUnderReview)
	require.NoError(t, err)
	th, err = f.theses.Transition(ctx, th.Id, model.ThesisStateApproved)
	require.NoError(t, err)
	return th
}

func (f *fixture) committee(t *testing.T) *model.Committee {
	t.Helper()
	c, err := f.committees.Create(context.Background(), &model.CreateCommitteeInput{
		Name:        "Systems panel",
		ChairId:     uuid.New(),
		SecretaryId: uuid.New(),
		MemberId:    uuid.New(),
	})
	require.NoError(t, err)
	return c
}

func at(day, hour, minute int) time.Time {
	return time.Date(2025, 3, day, hour, minute, 0, 0, time.UTC)
}

func (f *fixture) schedule(t *testing.T, th *model.Thesis, c *model.Committee, start time.Time, minutes int, location string) *model.Defense {
	t.Helper()
	res, err := f.scheduler.Schedule(context.Background(), &model.ScheduleInput{
		ThesisId:    th.Id,
		CommitteeId: c.Id,
		StartsAt:    start,
		Duration:    time.Duration(minutes) * time.Minute,
		Location:    location,
	})
	require.NoError(t, err)
	return res.Defense
}

// completedDefense schedules a defense on 2025-03-10 10:00 and moves the
// clock past it before completing it.
func (f *fixture) completedDefense(t *testing.T) (*model.Defense, *model.Committee, *model.Thesis) {
	t.Helper()
	th := f.approvedThesis(t)
	c := f.committee(t)
	d := f.schedule(t, th, c, at(10, 10, 0), 60, "Room A")

	f.clock.Set(at(10, 12, 0))
	d, err := f.scheduler.Complete(context.Background(), d.Id)
	require.NoError(t, err)
	return d, c, th
}

func ptr(v float64) *float64 {
	return &v
}
