package handler

import (
	"context"
	"net/http"
	"time"

	"defense_service/internal/middleware"
	"defense_service/internal/model"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type ThesisService interface {
	Create(ctx context.Context, input *model.CreateThesisInput) (*model.Thesis, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Thesis, error)
	Transition(ctx context.Context, id uuid.UUID, target model.ThesisState) (*model.Thesis, error)
}

type CommitteeService interface {
	Create(ctx context.Context, input *model.CreateCommitteeInput) (*model.Committee, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Committee, error)
	Update(ctx context.Context, id uuid.UUID, input *model.UpdateCommitteeInput) (*model.Committee, error)
}

type SchedulerService interface {
	GetDefense(ctx context.Context, id uuid.UUID) (*model.Defense, error)
	CheckAvailability(ctx context.Context, req model.AvailabilityRequest) ([]model.Conflict, error)
	Schedule(ctx context.Context, input *model.ScheduleInput) (*model.ScheduleResult, error)
	Reschedule(ctx context.Context, id uuid.UUID, input *model.RescheduleInput) (*model.ScheduleResult, error)
	Cancel(ctx context.Context, id uuid.UUID, reason string) (*model.Defense, error)
	Complete(ctx context.Context, id uuid.UUID) (*model.Defense, error)
}

type GradingService interface {
	SubmitGrade(ctx context.Context, input *model.SubmitGradeInput) (*model.Grade, error)
	ListGrades(ctx context.Context, defenseId uuid.UUID) ([]model.Grade, error)
	GetResult(ctx context.Context, defenseId uuid.UUID) (*model.FinalResult, error)
	Aggregate(ctx context.Context, defenseId uuid.UUID) (*model.Aggregation, error)
}

type Handler struct {
	theses     ThesisService
	committees CommitteeService
	scheduler  SchedulerService
	grading    GradingService
	cache      Cache
	resultTTL  time.Duration
}

func New(
	theses ThesisService,
	committees CommitteeService,
	scheduler SchedulerService,
	grading GradingService,
	cache Cache,
	resultTTL time.Duration,
) *Handler {
	return &Handler{
		theses:     theses,
		committees: committees,
		scheduler:  scheduler,
		grading:    grading,
		cache:      cache,
		resultTTL:  resultTTL,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	staff := middleware.RequireRole(middleware.RoleCoordinator, middleware.RoleAdmin)
	reviewers := middleware.RequireRole(middleware.RoleAdvisor, middleware.RoleCoordinator, middleware.RoleAdmin)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Identity)

		r.Post("/theses", Handle(h.createThesis, parseCreateThesis, true, http.StatusCreated))
		r.Get("/theses/{id}", Handle(h.getThesis, parseID, false, http.StatusOK))
		r.With(reviewers).Post("/theses/{id}/transition", Handle(h.transitionThesis, parseTransition, true, http.StatusOK))

		r.Get("/committees/{id}", Handle(h.getCommittee, parseID, false, http.StatusOK))
		r.Post("/committees/{id}/availability", Handle(h.checkAvailability, parseAvailability, true, http.StatusOK))

		r.Get("/defenses/{id}", Handle(h.getDefense, parseID, false, http.StatusOK))
		r.Put("/defenses/{id}/grades/me", Handle(h.submitGrade, parseSubmitGrade, true, http.StatusOK))
		r.Get("/defenses/{id}/grades", Handle(h.listGrades, parseID, false, http.StatusOK))
		r.Post("/defenses/{id}/aggregate", h.aggregate)
		r.Get("/defenses/{id}/result", HandleWithCache(h.getResult, parseID, h.cache, resultKey, h.resultTTL))

		r.Group(func(r chi.Router) {
			r.Use(staff)

			r.Post("/committees", Handle(h.createCommittee, nil, true, http.StatusCreated))
			r.Patch("/committees/{id}", Handle(h.updateCommittee, parseUpdateCommittee, true, http.StatusOK))

			r.Post("/defenses", Handle(h.schedule, nil, true, http.StatusCreated))
			r.Patch("/defenses/{id}", Handle(h.reschedule, parseReschedule, true, http.StatusOK))
			r.Post("/defenses/{id}/cancel", Handle(h.cancel, parseCancel, false, http.StatusOK))
			r.Post("/defenses/{id}/complete", Handle(h.complete, parseID, false, http.StatusOK))
		})
	})
}
