package handler

import (
	"context"
	"net/http"

	"defense_service/internal/model"
)

func (h *Handler) submitGrade(ctx context.Context, req *submitGradeRequest) (*model.Grade, error) {
	return h.grading.SubmitGrade(ctx, &model.SubmitGradeInput{
		DefenseId:          req.DefenseId,
		EvaluatorId:        req.EvaluatorId,
		Presentation:       req.Presentation,
		Content:            req.Content,
		DefensePerformance: req.DefensePerformance,
		Comments:           req.Comments,
	})
}

func (h *Handler) listGrades(ctx context.Context, req *idRequest) (*gradesResponse, error) {
	grades, err := h.grading.ListGrades(ctx, req.Id)
	if err != nil {
		return nil, err
	}
	if grades == nil {
		grades = []model.Grade{}
	}
	return &gradesResponse{Grades: grades}, nil
}

func (h *Handler) getResult(ctx context.Context, req *idRequest) (*model.FinalResult, error) {
	return h.grading.GetResult(ctx, req.Id)
}

// aggregate answers 202 with the missing evaluators while grades are
// outstanding.
func (h *Handler) aggregate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeErrorJSON(w, err)
		return
	}

	agg, err := h.grading.Aggregate(ctx, id)
	if err != nil {
		logError(ctx, err)
		writeErrorJSON(w, err)
		return
	}

	status := http.StatusOK
	if agg.Pending {
		status = http.StatusAccepted
	}
	writeJSON(w, status, agg)
}
