package middleware

import (
	"net/http"
	"time"

	"defense_service/pkg/ctxdata"
	"defense_service/pkg/logging"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// NewLoggingMiddleware keeps an upstream X-Trace-Id or issues a new one,
// and puts the logger and trace id on the request context.
func NewLoggingMiddleware(logger *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			traceID := r.Header.Get("X-Trace-Id")
			if traceID == "" {
				id, err := uuid.NewV7()
				if err != nil {
					id = uuid.New()
				}
				traceID = id.String()
				r.Header.Set("X-Trace-Id", traceID)
			}

			ctx := ctxdata.WithTraceID(r.Context(), traceID)
			ctx = logging.ContextWithLogger(ctx, logger)
			r = r.WithContext(ctx)

			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			w.Header().Set("X-Trace-Id", traceID)

			next.ServeHTTP(sw, r)

			logger.Info(ctx, "request completed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", sw.status),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}
