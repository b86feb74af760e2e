package middleware

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/mmynk/kakeibo/internal/auth"
	"github.com/mmynk/kakeibo/internal/metrics"
	"github.com/mmynk/kakeibo/internal/models"
)

const (
	publicProcedure  = "/kakeibo.v1.AuthService/Login"
	privateProcedure = "/kakeibo.v1.ExpenseService/ListExpenses"
	streamProcedure  = "/kakeibo.v1.ExpenseService/WatchExpenses"
)

// fakeRequest carries only a spec and headers; other methods are never called.
type fakeRequest struct {
	connect.AnyRequest
	spec   connect.Spec
	header http.Header
}

func (r fakeRequest) Spec() connect.Spec  { return r.spec }
func (r fakeRequest) Header() http.Header { return r.header }

type fakeConn struct {
	connect.StreamingHandlerConn
	spec   connect.Spec
	header http.Header
}

func (c fakeConn) Spec() connect.Spec         { return c.spec }
func (c fakeConn) RequestHeader() http.Header { return c.header }

func request(procedure, authorization string) fakeRequest {
	h := http.Header{}
	if authorization != "" {
		h.Set("Authorization", authorization)
	}
	return fakeRequest{spec: connect.Spec{Procedure: procedure}, header: h}
}

func TestRequireAuth(t *testing.T) {
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	token, err := jwtManager.Generate(&models.User{ID: "u1", Email: "aki@example.com"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	other, err := auth.NewJWTManager("other-secret", time.Hour).Generate(&models.User{ID: "u2"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	interceptor := RequireAuth(jwtManager, map[string]bool{publicProcedure: true})

	tests := []struct {
		name          string
		procedure     string
		authorization string
		wantUser      string
		wantCode      connect.Code
	}{
		{"private with token", privateProcedure, "Bearer " + token, "u1", 0},
		{"private without token", privateProcedure, "", "", connect.CodeUnauthenticated},
		{"private with wrong scheme", privateProcedure, "Basic " + token, "", connect.CodeUnauthenticated},
		{"private with foreign token", privateProcedure, "Bearer " + other, "", connect.CodeUnauthenticated},
		{"public without token", publicProcedure, "", "", 0},
		{"public with bad token", publicProcedure, "Bearer junk", "", 0},
		{"public with token", publicProcedure, "Bearer " + token, "u1", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotUser string
			called := false
			unary := interceptor.WrapUnary(func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
				called = true
				gotUser = GetUserID(ctx)
				return nil, nil
			})
			_, err := unary(context.Background(), request(tt.procedure, tt.authorization))
			checkAuth(t, err, called, gotUser, tt.wantCode, tt.wantUser)

			called, gotUser = false, ""
			stream := interceptor.WrapStreamingHandler(func(ctx context.Context, conn connect.StreamingHandlerConn) error {
				called = true
				gotUser = GetUserID(ctx)
				return nil
			})
			req := request(tt.procedure, tt.authorization)
			err = stream(context.Background(), fakeConn{spec: req.spec, header: req.header})
			checkAuth(t, err, called, gotUser, tt.wantCode, tt.wantUser)
		})
	}
}

func checkAuth(t *testing.T, err error, called bool, gotUser string, wantCode connect.Code, wantUser string) {
	t.Helper()
	if wantCode != 0 {
		if connect.CodeOf(err) != wantCode {
			t.Fatalf("expected %v, got %v", wantCode, err)
		}
		if called {
			t.Error("handler ran for a rejected call")
		}
		return
	}
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotUser != wantUser {
		t.Errorf("user id = %q, want %q", gotUser, wantUser)
	}
}

func TestRequireAuthSkipsClientCalls(t *testing.T) {
	interceptor := RequireAuth(auth.NewJWTManager("test-secret", time.Hour), nil)
	unary := interceptor.WrapUnary(func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		return nil, nil
	})
	req := request(privateProcedure, "")
	req.spec.IsClient = true
	if _, err := unary(context.Background(), req); err != nil {
		t.Errorf("outgoing calls must not be checked: %v", err)
	}
}

func TestMetricsInterceptor(t *testing.T) {
	m := metrics.New()
	interceptor := NewMetricsInterceptor(m)

	tests := []struct {
		name string
		err  error
		code string
	}{
		{"ok", nil, "ok"},
		{"not found", connect.NewError(connect.CodeNotFound, errors.New("gone")), "not_found"},
		{"plain error", errors.New("boom"), "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unary := interceptor.WrapUnary(func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
				return nil, tt.err
			})
			unary(context.Background(), request(privateProcedure, ""))
			if got := testutil.ToFloat64(m.RPCRequests.WithLabelValues(privateProcedure, tt.code)); got != 1 {
				t.Errorf("requests{code=%s} = %v, want 1", tt.code, got)
			}
		})
	}
	if got := testutil.CollectAndCount(m.RPCDuration); got != 1 {
		t.Errorf("expected one duration series, got %d", got)
	}

	var during float64
	stream := interceptor.WrapStreamingHandler(func(ctx context.Context, conn connect.StreamingHandlerConn) error {
		during = testutil.ToFloat64(m.WatchStreams)
		return connect.NewError(connect.CodeCanceled, context.Canceled)
	})
	stream(context.Background(), fakeConn{spec: connect.Spec{Procedure: streamProcedure}})
	if during != 1 {
		t.Errorf("open streams while running = %v, want 1", during)
	}
	if got := testutil.ToFloat64(m.WatchStreams); got != 0 {
		t.Errorf("open streams after return = %v, want 0", got)
	}
	if got := testutil.ToFloat64(m.RPCRequests.WithLabelValues(streamProcedure, "canceled")); got != 1 {
		t.Errorf("stream requests{code=canceled} = %v, want 1", got)
	}
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestLoggingInterceptor(t *testing.T) {
	tests := []struct {
		name   string
		stream bool
		err    error
		want   []string
	}{
		{"unary ok", false, nil, []string{"level=INFO", `msg="RPC ok"`, "stream=false", "user_id=u1"}},
		{"unary client error", false, connect.NewError(connect.CodeInvalidArgument, errors.New("bad date")), []string{"level=WARN", "code=invalid_argument", `error="bad date"`}},
		{"unary internal error", false, connect.NewError(connect.CodeInternal, errors.New("disk")), []string{"level=ERROR", `msg="RPC error"`}},
		{"unary plain error", false, errors.New("boom"), []string{"level=ERROR", "error=boom"}},
		{"stream ok", true, nil, []string{"level=INFO", "stream=true"}},
		{"stream cancelled by client", true, context.Canceled, []string{"level=INFO", `msg="RPC ok"`, "stream=true"}},
		{"stream failure", true, connect.NewError(connect.CodeNotFound, errors.New("no group")), []string{"level=WARN", "code=not_found", "stream=true"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureLogs(t)
			ctx := WithUser(context.Background(), "u1", "aki@example.com")
			interceptor := NewLoggingInterceptor()

			var err error
			if tt.stream {
				err = interceptor.WrapStreamingHandler(func(ctx context.Context, conn connect.StreamingHandlerConn) error {
					return tt.err
				})(ctx, fakeConn{spec: connect.Spec{Procedure: streamProcedure}})
			} else {
				_, err = interceptor.WrapUnary(func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
					return nil, tt.err
				})(ctx, request(privateProcedure, ""))
			}
			if tt.err != nil && !errors.Is(tt.err, context.Canceled) && err != tt.err {
				t.Errorf("error not passed through: got %v", err)
			}

			out := buf.String()
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("log missing %q:\n%s", want, out)
				}
			}
		})
	}
}
