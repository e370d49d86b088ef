package logging

import (
	"context"

	"defense_service/pkg/ctxdata"

	"go.uber.org/zap"
)

type loggerKey struct{}

const (
	requestID = "request_id"
	userID    = "user_id"
)

var (
	loggerKeyInstance = loggerKey{}
)

type Logger struct {
	l *zap.Logger
}

func New(zapLogger *zap.Logger) *Logger {
	return &Logger{zapLogger}
}

// Nop discards everything. Used when a context carries no logger.
func Nop() *Logger {
	return &Logger{zap.NewNop()}
}

func ContextWithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerKeyInstance, logger)
}

func GetFromContext(ctx context.Context) (*Logger, bool) {
	logger, ok := ctx.Value(loggerKeyInstance).(*Logger)
	return logger, ok
}

// FromContext is GetFromContext falling back to Nop.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := GetFromContext(ctx); ok {
		return logger
	}
	return Nop()
}

func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{l.l.With(fields...)}
}

func (l *Logger) Debug(ctx context.Context, msg string, fields ...zap.Field) {
	l.l.Debug(msg, requestFields(ctx, fields)...)
}

func (l *Logger) Info(ctx context.Context, msg string, fields ...zap.Field) {
	l.l.Info(msg, requestFields(ctx, fields)...)
}

func (l *Logger) Warn(ctx context.Context, msg string, fields ...zap.Field) {
	l.l.Warn(msg, requestFields(ctx, fields)...)
}

func (l *Logger) Error(ctx context.Context, msg string, fields ...zap.Field) {
	l.l.Error(msg, requestFields(ctx, fields)...)
}

func (l *Logger) Fatal(ctx context.Context, msg string, fields ...zap.Field) {
	l.l.Fatal(msg, requestFields(ctx, fields)...)
}

func (l *Logger) Sync() error {
	return l.l.Sync()
}

func requestFields(ctx context.Context, fields []zap.Field) []zap.Field {
	if traceID, ok := ctxdata.GetTraceID(ctx); ok {
		fields = append(fields, zap.String(requestID, traceID))
	}
	if uid, ok := ctxdata.GetUserID(ctx); ok {
		fields = append(fields, zap.String(userID, uid))
	}
	return fields
}
