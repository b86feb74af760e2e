package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"connectrpc.com/connect"
)

// LoggingInterceptor logs every RPC call with its procedure, user, duration
// and, on failure, the Connect code.
type LoggingInterceptor struct{}

var _ connect.Interceptor = LoggingInterceptor{}

// NewLoggingInterceptor returns the logging interceptor.
func NewLoggingInterceptor() LoggingInterceptor {
	return LoggingInterceptor{}
}

func logCall(ctx context.Context, procedure string, start time.Time, err error, stream bool) {
	userID := GetUserID(ctx) // empty if pre-auth
	duration := time.Since(start).Milliseconds()

	if err == nil {
		slog.InfoContext(ctx, "RPC ok",
			"procedure", procedure,
			"user_id", userID,
			"duration_ms", duration,
			"stream", stream,
		)
		return
	}

	var connectErr *connect.Error
	if errors.As(err, &connectErr) && connectErr.Code() != connect.CodeInternal && connectErr.Code() != connect.CodeUnknown {
		slog.WarnContext(ctx, "RPC error",
			"procedure", procedure,
			"code", connectErr.Code(),
			"error", connectErr.Message(),
			"user_id", userID,
			"duration_ms", duration,
			"stream", stream,
		)
		return
	}
	slog.ErrorContext(ctx, "RPC error",
		"procedure", procedure,
		"error", err,
		"user_id", userID,
		"duration_ms", duration,
		"stream", stream,
	)
}

// WrapUnary implements connect.Interceptor.
func (LoggingInterceptor) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		if req.Spec().IsClient {
			return next(ctx, req)
		}
		start := time.Now()
		resp, err := next(ctx, req)
		logCall(ctx, req.Spec().Procedure, start, err, false)
		return resp, err
	}
}

// WrapStreamingClient implements connect.Interceptor.
func (LoggingInterceptor) WrapStreamingClient(next connect.StreamingClientFunc) connect.StreamingClientFunc {
	return next
}

// WrapStreamingHandler implements connect.Interceptor.
func (LoggingInterceptor) WrapStreamingHandler(next connect.StreamingHandlerFunc) connect.StreamingHandlerFunc {
	return func(ctx context.Context, conn connect.StreamingHandlerConn) error {
		start := time.Now()
		err := next(ctx, conn)
		if errors.Is(err, context.Canceled) {
			err = nil // client went away
		}
		logCall(ctx, conn.Spec().Procedure, start, err, true)
		return err
	}
}
