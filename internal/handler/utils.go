package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"defense_service/internal/errdefs"
	"defense_service/internal/model"
	"defense_service/pkg/ctxdata"
	"defense_service/pkg/logging"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration)
	Delete(ctx context.Context, key string)
}

func mapErr(err error) int {
	switch errdefs.CodeOf(err) {
	case errdefs.CodeValidation:
		return http.StatusBadRequest
	case errdefs.CodeUnauthenticated:
		return http.StatusUnauthorized
	case errdefs.CodeForbidden:
		return http.StatusForbidden
	case errdefs.CodeNotFound:
		return http.StatusNotFound
	case errdefs.CodeInvalidState, errdefs.CodeSchedulingConflict,
		errdefs.CodeNotEditable, errdefs.CodeNotCancelable:
		return http.StatusConflict
	case errdefs.CodePreconditionFailed:
		return http.StatusPreconditionFailed
	case errdefs.CodeCommitteeIncomplete:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// Handle decodes the optional JSON body into Req, lets reqParser fill path
// params and caller identity, calls method and writes Resp with status.
func Handle[Req any, Resp any](
	method func(context.Context, *Req) (*Resp, error),
	reqParser func(context.Context, *http.Request, *Req) error,
	parseBody bool,
	status int,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		logger := logging.FromContext(ctx)

		req := new(Req)
		if parseBody {
			if err := decodeJSON(r, req); err != nil {
				logger.Info(ctx, "Failed to parse request body", zap.Error(err))
				writeErrorJSON(w, err)
				return
			}
		}

		if reqParser != nil {
			if err := reqParser(ctx, r, req); err != nil {
				logger.Info(ctx, "Failed to parse request path and query", zap.Error(err))
				writeErrorJSON(w, err)
				return
			}
		}

		resp, err := method(ctx, req)
		if err != nil {
			logError(ctx, err)
			writeErrorJSON(w, err)
			return
		}
		writeJSON(w, status, resp)
	}
}

// HandleWithCache serves the cached body under keyFunc's key when present
// and caches successful responses for ttl.
func HandleWithCache[Req any, Resp any](
	method func(context.Context, *Req) (*Resp, error),
	reqParser func(context.Context, *http.Request, *Req) error,
	cache Cache,
	keyFunc func(r *http.Request) (string, error),
	ttl time.Duration,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		key, err := keyFunc(r)
		if err == nil {
			if data, ok := cache.Get(ctx, key); ok {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusOK)
				w.Write(data)
				return
			}
		}

		req := new(Req)
		if reqParser != nil {
			if err := reqParser(ctx, r, req); err != nil {
				writeErrorJSON(w, err)
				return
			}
		}

		resp, err := method(ctx, req)
		if err != nil {
			logError(ctx, err)
			writeErrorJSON(w, err)
			return
		}

		data, err := json.Marshal(resp)
		if err != nil {
			logging.FromContext(ctx).Error(ctx, "Failed to serialize response", zap.Error(err))
			writeErrorJSON(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)

		if key != "" {
			cache.Set(ctx, key, data, ttl)
		}
	}
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errdefs.Validation("request body is empty")
		}
		return errdefs.Validation("invalid request body: %v", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		writeErrorJSON(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

type errorBody struct {
	Code      errdefs.Code     `json:"code"`
	Message   string           `json:"message"`
	Conflicts []model.Conflict `json:"conflicts,omitempty"`
}

func writeErrorJSON(w http.ResponseWriter, err error) {
	statusCode := mapErr(err)
	body := errorBody{
		Code:      errdefs.CodeOf(err),
		Message:   err.Error(),
		Conflicts: errdefs.Conflicts(err),
	}
	if statusCode == http.StatusInternalServerError {
		body.Message = http.StatusText(statusCode)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	resp, _ := json.Marshal(map[string]errorBody{"error": body})
	w.Write(resp)
}

func logError(ctx context.Context, err error) {
	logger := logging.FromContext(ctx)
	if mapErr(err) == http.StatusInternalServerError {
		logger.Error(ctx, "request failed", zap.Error(err))
		return
	}
	logger.Debug(ctx, "request rejected", zap.Error(err))
}

func parseIDParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	if raw == "" {
		return uuid.Nil, errdefs.Validation("missing required path param: %s", name)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errdefs.Validation("path param %s is not a uuid", name)
	}
	return id, nil
}

func callerID(ctx context.Context) (uuid.UUID, error) {
	id, ok := ctxdata.GetUserUUID(ctx)
	if !ok {
		return uuid.Nil, fmt.Errorf("%w: caller identity is missing", errdefs.ErrUnauthenticated)
	}
	return id, nil
}
