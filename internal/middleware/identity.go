package middleware

import (
	"encoding/json"
	"net/http"
	"slices"

	"defense_service/internal/errdefs"
	"defense_service/pkg/ctxdata"
	"defense_service/pkg/logging"

	"go.uber.org/zap"
)

const (
	RoleAdmin       = "admin"
	RoleCoordinator = "coordinator"
	RoleAdvisor     = "advisor"
)

// Identity copies the identity the gateway forwarded into the context.
// Requests without a well-formed X-User-Id are rejected with 401.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if id := r.Header.Get("X-User-Id"); id != "" {
			ctx = ctxdata.WithUserID(ctx, id)
		}
		if role := r.Header.Get("X-User-Role"); role != "" {
			ctx = ctxdata.WithUserRole(ctx, role)
		}

		if _, ok := ctxdata.GetUserUUID(ctx); !ok {
			logging.FromContext(ctx).Info(ctx, "no caller identity", zap.String("path", r.URL.Path))
			deny(w, http.StatusUnauthorized, errdefs.CodeUnauthenticated, "caller identity is missing")
			return
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole lets through callers holding one of roles.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			role, _ := ctxdata.GetUserRole(ctx)
			if !slices.Contains(roles, role) {
				logging.FromContext(ctx).Info(ctx, "permission denied",
					zap.String("path", r.URL.Path),
					zap.String("role", role),
				)
				deny(w, http.StatusForbidden, errdefs.CodeForbidden, "role is not allowed")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func deny(w http.ResponseWriter, status int, code errdefs.Code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp, _ := json.Marshal(map[string]any{
		"error": map[string]string{"code": string(code), "message": message},
	})
	w.Write(resp)
}
