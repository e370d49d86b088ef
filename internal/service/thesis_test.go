package service_test

import (
	"context"
	"testing"

	"defense_service/internal/errdefs"
	"defense_service/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestThesisCreate(t *testing.T) {
	f := setup(t)

	t.Run("Success", func(t *testing.T) {
		th, err := f.theses.Create(context.Background(), &model.CreateThesisInput{
			StudentId: uuid.New(),
			AdvisorId: uuid.New(),
			Title:     "  Verified compilers ",
			Keywords:  []string{"Coq", "compilers", "coq", ""},
		})
		require.NoError(t, err)
		assert.Equal(t, model.ThesisStateDraft, th.State)
		assert.Equal(t, "Verified compilers", th.Title)
		assert.Equal(t, []string{"coq", "compilers"}, th.Keywords)
		assert.Nil(t, th.FinalScore)
	})

	student, advisor := uuid.New(), uuid.New()
	tests := []struct {
		name  string
		input model.CreateThesisInput
	}{
		{"MissingTitle", model.CreateThesisInput{StudentId: student, AdvisorId: advisor}},
		{"MissingAdvisor", model.CreateThesisInput{StudentId: student, Title: "T"}},
		{"SelfAdvised", model.CreateThesisInput{StudentId: student, AdvisorId: student, Title: "T"}},
		{"CoAdvisorIsAdvisor", model.CreateThesisInput{StudentId: student, AdvisorId: advisor, CoAdvisorId: &advisor, Title: "T"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.theses.Create(context.Background(), &tt.input)
			assert.ErrorIs(t, err, errdefs.ErrValidation)
		})
	}
}

func TestThesisTransition(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	th, err := f.theses.Create(ctx, &model.CreateThesisInput{
		StudentId: uuid.New(), AdvisorId: uuid.New(), Title: "Type inference",
	})
	require.NoError(t, err)

	_, err = f.theses.Transition(ctx, th.Id, model.ThesisStateApproved)
	assert.ErrorIs(t, err, errdefs.ErrInvalidState)

	_, err = f.theses.Transition(ctx, th.Id, model.ThesisState("archived"))
	assert.ErrorIs(t, err, errdefs.ErrValidation)

	_, err = f.theses.Transition(ctx, th.Id, model.ThesisStateUnderReview)
	require.NoError(t, err)
	_, err = f.theses.Transition(ctx, th.Id, model.ThesisStateApproved)
	require.NoError(t, err)

	_, err = f.theses.Transition(ctx, th.Id, model.ThesisStateDefended)
	assert.ErrorIs(t, err, errdefs.ErrPreconditionFailed)

	got, err := f.theses.Get(ctx, th.Id)
	require.NoError(t, err)
	assert.Equal(t, model.ThesisStateApproved, got.State)

	_, err = f.theses.Transition(ctx, uuid.New(), model.ThesisStateUnderReview)
	assert.ErrorIs(t, err, errdefs.ErrNotFound)
}

func TestCommitteeService(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	t.Run("DuplicateRoles", func(t *testing.T) {
		id := uuid.New()
		_, err := f.committees.Create(ctx, &model.CreateCommitteeInput{
			ChairId: id, SecretaryId: id, MemberId: uuid.New(),
		})
		assert.ErrorIs(t, err, errdefs.ErrCommitteeIncomplete)
	})

	t.Run("FillVacancy", func(t *testing.T) {
		c, err := f.committees.Create(ctx, &model.CreateCommitteeInput{
			Name: "Theory", ChairId: uuid.New(), SecretaryId: uuid.New(),
		})
		require.NoError(t, err)
		assert.False(t, c.IsComplete())

		member := uuid.New()
		c, err = f.committees.Update(ctx, c.Id, &model.UpdateCommitteeInput{MemberId: &member})
		require.NoError(t, err)
		assert.True(t, c.IsComplete())
		assert.Equal(t, model.RoleMember, c.RoleOf(member))
	})

	t.Run("UpdateIntoDuplicate", func(t *testing.T) {
		c := f.committee(t)
		_, err := f.committees.Update(ctx, c.Id, &model.UpdateCommitteeInput{MemberId: &c.ChairId})
		assert.ErrorIs(t, err, errdefs.ErrCommitteeIncomplete)

		got, err := f.committees.Get(ctx, c.Id)
		require.NoError(t, err)
		assert.Equal(t, c.MemberId, got.MemberId)
	})

	t.Run("EmptyUpdate", func(t *testing.T) {
		c := f.committee(t)
		_, err := f.committees.Update(ctx, c.Id, &model.UpdateCommitteeInput{})
		assert.ErrorIs(t, err, errdefs.ErrValidation)
	})
}

func TestCommitteeUpdateWithOpenDefense(t *testing.T) {
	ctx := context.Background()

	t.Run("VacateDuringGrading", func(t *testing.T) {
		f := setup(t)
		f.allowEvents()
		d, c, _ := f.completedDefense(t)
		f.grade(t, d.Id, c.ChairId, 8)
		f.grade(t, d.Id, c.SecretaryId, 8)

		vacant := uuid.Nil
		_, err := f.committees.Update(ctx, c.Id, &model.UpdateCommitteeInput{MemberId: &vacant})
		assert.ErrorIs(t, err, errdefs.ErrInvalidState)

		got, err := f.committees.Get(ctx, c.Id)
		require.NoError(t, err)
		assert.Equal(t, c.MemberId, got.MemberId)

		f.grade(t, d.Id, c.MemberId, 8)
		agg, err := f.grading.Aggregate(ctx, d.Id)
		require.NoError(t, err)
		assert.False(t, agg.Pending)
	})

	t.Run("SwapChairDuringGrading", func(t *testing.T) {
		f := setup(t)
		f.allowEvents()
		d, c, _ := f.completedDefense(t)
		f.grade(t, d.Id, c.ChairId, 8)

		chair := uuid.New()
		_, err := f.committees.Update(ctx, c.Id, &model.UpdateCommitteeInput{ChairId: &chair})
		assert.ErrorIs(t, err, errdefs.ErrInvalidState)

		grades, err := f.grading.ListGrades(ctx, d.Id)
		require.NoError(t, err)
		require.Len(t, grades, 1)
		assert.Equal(t, model.RoleChair, c.RoleOf(grades[0].EvaluatorId))
	})

	t.Run("DeactivateWhileScheduled", func(t *testing.T) {
		f := setup(t)
		f.allowEvents()
		c := f.committee(t)
		f.schedule(t, f.approvedThesis(t), c, at(10, 10, 0), 60, "Room A")

		inactive := false
		_, err := f.committees.Update(ctx, c.Id, &model.UpdateCommitteeInput{Active: &inactive})
		assert.ErrorIs(t, err, errdefs.ErrInvalidState)
	})

	t.Run("RenameWhileScheduled", func(t *testing.T) {
		f := setup(t)
		f.allowEvents()
		c := f.committee(t)
		f.schedule(t, f.approvedThesis(t), c, at(10, 10, 0), 60, "Room A")

		name := "Distributed systems panel"
		got, err := f.committees.Update(ctx, c.Id, &model.UpdateCommitteeInput{Name: &name})
		require.NoError(t, err)
		assert.Equal(t, name, got.Name)
	})

	t.Run("AfterAggregation", func(t *testing.T) {
		f := setup(t)
		f.allowEvents()
		f.renderer.EXPECT().Render(gomock.Any(), gomock.Any()).Return("certificates/act.json", nil)
		d, c, _ := f.completedDefense(t)
		for _, id := range c.Evaluators() {
			f.grade(t, d.Id, id, 8)
		}
		_, err := f.grading.Aggregate(ctx, d.Id)
		require.NoError(t, err)

		member := uuid.New()
		got, err := f.committees.Update(ctx, c.Id, &model.UpdateCommitteeInput{MemberId: &member})
		require.NoError(t, err)
		assert.Equal(t, member, got.MemberId)
	})

	t.Run("AfterCancel", func(t *testing.T) {
		f := setup(t)
		f.allowEvents()
		c := f.committee(t)
		d := f.schedule(t, f.approvedThesis(t), c, at(10, 10, 0), 60, "Room A")
		_, err := f.scheduler.Cancel(ctx, d.Id, "")
		require.NoError(t, err)

		member := uuid.New()
		_, err = f.committees.Update(ctx, c.Id, &model.UpdateCommitteeInput{MemberId: &member})
		require.NoError(t, err)
	})
}
