package handler

import (
	"context"

	"defense_service/internal/model"
)

func (h *Handler) createThesis(ctx context.Context, req *createThesisRequest) (*model.Thesis, error) {
	return h.theses.Create(ctx, &model.CreateThesisInput{
		StudentId:   req.StudentId,
		AdvisorId:   req.AdvisorId,
		CoAdvisorId: req.CoAdvisorId,
		Title:       req.Title,
		Abstract:    req.Abstract,
		Keywords:    req.Keywords,
	})
}

func (h *Handler) getThesis(ctx context.Context, req *idRequest) (*model.Thesis, error) {
	return h.theses.Get(ctx, req.Id)
}

func (h *Handler) transitionThesis(ctx context.Context, req *transitionRequest) (*model.Thesis, error) {
	return h.theses.Transition(ctx, req.Id, req.State)
}

func (h *Handler) createCommittee(ctx context.Context, req *createCommitteeRequest) (*model.Committee, error) {
	return h.committees.Create(ctx, &model.CreateCommitteeInput{
		Name:        req.Name,
		ChairId:     req.ChairId,
		SecretaryId: req.SecretaryId,
		MemberId:    req.MemberId,
	})
}

func (h *Handler) getCommittee(ctx context.Context, req *idRequest) (*model.Committee, error) {
	return h.committees.Get(ctx, req.Id)
}

func (h *Handler) updateCommittee(ctx context.Context, req *updateCommitteeRequest) (*model.Committee, error) {
	return h.committees.Update(ctx, req.Id, &model.UpdateCommitteeInput{
		Name:        req.Name,
		ChairId:     req.ChairId,
		SecretaryId: req.SecretaryId,
		MemberId:    req.MemberId,
		Active:      req.Active,
	})
}
