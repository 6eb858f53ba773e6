package interceptor

import (
	"context"
	"time"

	"farmgear-backend/internal/logger"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Unary logs each call and turns a handler panic into codes.Internal.
func Unary() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp interface{}, err error) {
		start := time.Now()
		defer func() {
			if r := recover(); r != nil {
				logger.Error("gRPC handler panicked", "method", info.FullMethod, "panic", r)
				err = status.Error(codes.Internal, "internal error")
			}
			code := status.Code(err)
			if code == codes.OK || code == codes.NotFound {
				logger.Debug("gRPC call", "method", info.FullMethod, "code", code.String(), "duration", time.Since(start))
				return
			}
			logger.Warn("gRPC call failed", "method", info.FullMethod, "code", code.String(), "error", err, "duration", time.Since(start))
		}()
		return handler(ctx, req)
	}
}
