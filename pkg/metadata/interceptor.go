package metadata

import (
	"context"

	"defense_service/pkg/ctxdata"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

func NewMetadataUnaryInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		return handler(FromIncoming(ctx), req)
	}
}

// FromIncoming copies x-trace-id, x-user-id and x-user-role from incoming
// grpc metadata into ctxdata.
func FromIncoming(ctx context.Context) context.Context {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ctx
	}
	if values := md.Get("x-trace-id"); len(values) > 0 {
		ctx = ctxdata.WithTraceID(ctx, values[0])
	}
	if values := md.Get("x-user-id"); len(values) > 0 {
		ctx = ctxdata.WithUserID(ctx, values[0])
	}
	if values := md.Get("x-user-role"); len(values) > 0 {
		ctx = ctxdata.WithUserRole(ctx, values[0])
	}
	return ctx
}
