package logging

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/peer"
)

// NewUnaryLoggingInterceptor logs every unary call of the probe server and
// puts the logger into the handler context.
func NewUnaryLoggingInterceptor(logger *Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		start := time.Now()

		clientIP := "unknown"
		if p, ok := peer.FromContext(ctx); ok {
			clientIP = p.Addr.String()
		}

		ctx = ContextWithLogger(ctx, logger)

		resp, err := handler(ctx, req)

		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.String("client_ip", clientIP),
			zap.Duration("duration", time.Since(start)),
		}

		if err != nil {
			fields = append(fields, zap.Error(err))
			logger.Error(ctx, "grpc request failed", fields...)
		} else {
			logger.Debug(ctx, "grpc request handled", fields...)
		}

		return resp, err
	}
}
