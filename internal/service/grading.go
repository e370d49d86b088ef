package service

import (
	"context"
	"math"

	"defense_service/internal/errdefs"
	"defense_service/internal/grading"
	"defense_service/internal/lifecycle"
	"defense_service/internal/model"
	"defense_service/internal/policy"
	"defense_service/pkg/logging"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type GradingService struct {
	repo     Repository
	notifier Notifier
	renderer CertificateRenderer
	policy   policy.Grading
	now      Clock
}

func NewGradingService(
	repo Repository,
	notifier Notifier,
	renderer CertificateRenderer,
	p policy.Grading,
	now Clock,
) *GradingService {
	return &GradingService{repo: repo, notifier: notifier, renderer: renderer, policy: p, now: now}
}

// SubmitGrade upserts the evaluator's grade. Provided partials overwrite the
// stored ones, omitted partials are kept, and the final is recomputed once
// after the merge. The defense row stays locked for the whole upsert.
func (s *GradingService) SubmitGrade(ctx context.Context, input *model.SubmitGradeInput) (*model.Grade, error) {
	for _, p := range []*float64{input.Presentation, input.Content, input.DefensePerformance} {
		if p != nil && (math.IsNaN(*p) || !s.policy.InRange(*p)) {
			return nil, errdefs.Validation("score %v outside [%.0f, %.0f]", *p, s.policy.MinScore, s.policy.MaxScore)
		}
	}

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer rollback(ctx, tx)

	defense, err := tx.LockDefense(ctx, input.DefenseId)
	if err != nil {
		return nil, err
	}
	if defense.State != model.DefenseStateCompleted {
		return nil, errdefs.InvalidState("defense is %s, not completed", defense.State)
	}

	committee, err := tx.GetCommittee(ctx, defense.CommitteeId)
	if err != nil {
		return nil, err
	}
	if committee.RoleOf(input.EvaluatorId) == model.RoleNone {
		return nil, errdefs.ErrForbidden
	}

	if _, err := tx.GetFinalResult(ctx, defense.Id); err == nil {
		return nil, errdefs.InvalidState("grades are final once aggregated")
	} else if !isNotFound(err) {
		return nil, err
	}

	now := s.now()
	grade, err := tx.GetGrade(ctx, defense.Id, input.EvaluatorId)
	if isNotFound(err) {
		id, idErr := uuid.NewV7()
		if idErr != nil {
			return nil, idErr
		}
		grade = &model.Grade{
			Id:          id,
			DefenseId:   defense.Id,
			EvaluatorId: input.EvaluatorId,
			CreatedAt:   now,
		}
	} else if err != nil {
		return nil, err
	}

	if input.Presentation != nil {
		grade.Presentation = input.Presentation
	}
	if input.Content != nil {
		grade.Content = input.Content
	}
	if input.DefensePerformance != nil {
		grade.DefensePerformance = input.DefensePerformance
	}
	if input.Comments != nil {
		grade.Comments = input.Comments
	}
	grading.RecomputeFinal(grade)
	grade.EditedAt = now

	if err := tx.UpsertGrade(ctx, grade); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return grade, nil
}

func (s *GradingService) ListGrades(ctx context.Context, defenseId uuid.UUID) ([]model.Grade, error) {
	if _, err := s.repo.GetDefense(ctx, defenseId); err != nil {
		return nil, err
	}
	return s.repo.ListGrades(ctx, defenseId)
}

func (s *GradingService) GetResult(ctx context.Context, defenseId uuid.UUID) (*model.FinalResult, error) {
	return s.repo.GetFinalResult(ctx, defenseId)
}

// Aggregate folds the three committee grades into the final result, writes
// the score on the thesis and moves it to defended in one transaction. A
// stored result is returned as is, without side effects. Missing grades
// yield a pending Aggregation, not an error.
func (s *GradingService) Aggregate(ctx context.Context, defenseId uuid.UUID) (*model.Aggregation, error) {
	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer rollback(ctx, tx)

	defense, err := tx.LockDefense(ctx, defenseId)
	if err != nil {
		return nil, err
	}

	stored, err := tx.GetFinalResult(ctx, defense.Id)
	if err == nil {
		return &model.Aggregation{Result: stored}, nil
	}
	if !isNotFound(err) {
		return nil, err
	}

	if defense.State != model.DefenseStateCompleted {
		return nil, errdefs.InvalidState("defense is %s, not completed", defense.State)
	}

	committee, err := tx.GetCommittee(ctx, defense.CommitteeId)
	if err != nil {
		return nil, err
	}
	grades, err := tx.ListGrades(ctx, defense.Id)
	if err != nil {
		return nil, err
	}

	if missing := grading.Missing(committee, grades); len(missing) > 0 {
		return &model.Aggregation{Pending: true, MissingEvaluators: missing}, nil
	}

	finals := grading.Finals(grades)
	result := grading.Aggregate(finals[committee.ChairId], finals[committee.SecretaryId], finals[committee.MemberId], s.policy)
	result.DefenseId = defense.Id
	result.ThesisId = defense.ThesisId

	now := s.now()
	thesis, err := tx.LockThesis(ctx, defense.ThesisId)
	if err != nil {
		return nil, err
	}
	score := result.Score
	thesis.FinalScore = &score
	if err := lifecycle.TransitionThesis(thesis, model.ThesisStateDefended, now); err != nil {
		return nil, err
	}
	if err := tx.UpdateThesis(ctx, thesis); err != nil {
		return nil, err
	}
	if err := tx.CreateFinalResult(ctx, &result); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	passed := result.Passed
	notify(ctx, s.notifier, model.Event{
		Type:         model.EventGradingCompleted,
		DefenseId:    defense.Id,
		ThesisId:     thesis.Id,
		CommitteeId:  committee.Id,
		EvaluatorIds: committee.Evaluators(),
		StartsAt:     defense.StartsAt,
		Score:        &score,
		Passed:       &passed,
		OccurredAt:   now,
	})

	if result.Passed {
		s.issueCertificate(ctx, model.Certificate{
			Thesis:    *thesis,
			Defense:   *defense,
			Committee: *committee,
			Grades:    grades,
			Result:    result,
		})
	}

	return &model.Aggregation{Result: &result}, nil
}

// issueCertificate renders the act and records its path on the defense.
// Failures are logged only; the result is already committed.
func (s *GradingService) issueCertificate(ctx context.Context, cert model.Certificate) {
	if s.renderer == nil {
		return
	}
	logger := logging.FromContext(ctx).With(zap.String("defense_id", cert.Defense.Id.String()))

	path, err := s.renderer.Render(ctx, cert)
	if err != nil {
		logger.Error(ctx, "failed to render certificate", zap.Error(err))
		return
	}

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		logger.Error(ctx, "failed to record certificate", zap.Error(err))
		return
	}
	defer rollback(ctx, tx)

	defense, err := tx.LockDefense(ctx, cert.Defense.Id)
	if err != nil {
		logger.Error(ctx, "failed to record certificate", zap.Error(err))
		return
	}
	defense.CertificateGenerated = true
	defense.CertificatePath = &path
	defense.EditedAt = s.now()
	if err := tx.UpdateDefense(ctx, defense); err != nil {
		logger.Error(ctx, "failed to record certificate", zap.Error(err))
		return
	}
	if err := tx.Commit(ctx); err != nil {
		logger.Error(ctx, "failed to record certificate", zap.Error(err))
		return
	}
	logger.Info(ctx, "certificate issued", zap.String("path", path))
}
