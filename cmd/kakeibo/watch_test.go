package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"connectrpc.com/connect"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/kakeibo/internal/auth"
	"github.com/mmynk/kakeibo/internal/ledger"
	"github.com/mmynk/kakeibo/internal/middleware"
	"github.com/mmynk/kakeibo/internal/realtime"
	"github.com/mmynk/kakeibo/internal/service"
	"github.com/mmynk/kakeibo/internal/storage/sqlite"
	"github.com/mmynk/kakeibo/pkg/api"
)

// syncBuffer lets the test read output while the command is still writing it.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func startServer(t *testing.T) string {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "server.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	hub := realtime.NewHub()
	l := ledger.New(store, ledger.WithPublisher(hub), ledger.WithLogger(logger))
	opts := connect.WithInterceptors(middleware.RequireAuth(jwtManager, api.PublicProcedures))

	mux := http.NewServeMux()
	mux.Handle(api.NewAuthServiceHandler(service.NewAuthService(auth.NewPasswordAuthenticator(store).WithCost(bcrypt.MinCost), jwtManager, store, logger), opts))
	mux.Handle(api.NewGroupServiceHandler(service.NewGroupService(store), opts))
	mux.Handle(api.NewExpenseServiceHandler(service.NewExpenseService(l, store, hub), opts))

	server := httptest.NewServer(mux)
	t.Cleanup(func() {
		server.Close()
		store.Close()
	})
	return server.URL
}

func TestWatch(t *testing.T) {
	url := startServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	reg, err := api.NewAuthServiceClient(http.DefaultClient, url).Register(ctx,
		connect.NewRequest(&api.RegisterRequest{Email: "aki@example.com", Password: "password123", DisplayName: "Aki"}))
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	token := reg.Msg.Token
	created, err := api.NewGroupServiceClient(http.DefaultClient, url, api.WithToken(token)).
		CreateGroup(ctx, connect.NewRequest(&api.CreateGroupRequest{Name: "Home"}))
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	partner, err := api.NewAuthServiceClient(http.DefaultClient, url).Register(ctx,
		connect.NewRequest(&api.RegisterRequest{Email: "ren@example.com", Password: "password123", DisplayName: "Ren"}))
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if _, err := api.NewGroupServiceClient(http.DefaultClient, url, api.WithToken(partner.Msg.Token)).
		JoinGroup(ctx, connect.NewRequest(&api.JoinGroupRequest{InviteCode: created.Msg.Group.InviteCode})); err != nil {
		t.Fatalf("JoinGroup failed: %v", err)
	}
	expenses := api.NewExpenseServiceClient(http.DefaultClient, url, api.WithToken(token))
	rice, err := expenses.CreateExpense(ctx, connect.NewRequest(&api.CreateExpenseRequest{
		Date: "2025-03-01", Payer: "Aki", Item: "Rice", Amount: 2000, Category: "食費",
	}))
	if err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}

	out := &syncBuffer{}
	done := make(chan error, 1)
	go func() {
		done <- run(ctx, []string{"watch", "-server", url, "-token", token, "-n", "3"}, out, time.Now)
	}()

	for !strings.Contains(out.String(), "Watching Home: 1 records") {
		select {
		case err := <-done:
			t.Fatalf("watch ended before the snapshot: %v\n%s", err, out.String())
		case <-ctx.Done():
			t.Fatalf("no snapshot:\n%s", out.String())
		case <-time.After(10 * time.Millisecond):
		}
	}

	soap, err := expenses.CreateExpense(ctx, connect.NewRequest(&api.CreateExpenseRequest{
		Date: "2025-03-02", Payer: "Aki", Item: "Soap", Amount: 400, Category: "日用品",
	}))
	if err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}
	if _, err := expenses.ToggleSettle(ctx, connect.NewRequest(&api.ToggleSettleRequest{ID: rice.Msg.Expense.ID})); err != nil {
		t.Fatalf("ToggleSettle failed: %v", err)
	}
	if _, err := expenses.DeleteExpense(ctx, connect.NewRequest(&api.DeleteExpenseRequest{ID: soap.Msg.Expense.ID})); err != nil {
		t.Fatalf("DeleteExpense failed: %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("watch failed: %v\n%s", err, out.String())
		}
	case <-ctx.Done():
		t.Fatalf("watch did not stop after three changes:\n%s", out.String())
	}

	got := out.String()
	for _, want := range []string{
		"open ¥2,000 in 1, Ren -> Aki: 1,000",
		"insert " + shortID(soap.Msg.Expense.ID) + " 2025-03-02 Soap ¥400 (日用品, Aki)",
		"open ¥2,400 in 2, Ren -> Aki: 1,200",
		"update " + shortID(rice.Msg.Expense.ID) + " 2025-03-01 Rice ¥2,000 (食費, Aki) settled",
		"open ¥400 in 1, Ren -> Aki: 200",
		"delete " + shortID(soap.Msg.Expense.ID) + " 2025-03-02 Soap",
		"open ¥0 in 0, nothing to settle",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestWatchRequiresServer(t *testing.T) {
	t.Setenv("KAKEIBO_SERVER", "")
	t.Setenv("KAKEIBO_TOKEN", "")
	var out bytes.Buffer
	err := run(context.Background(), []string{"watch"}, &out, time.Now)
	if !errors.Is(err, errUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
}

func TestFromAPIEvent(t *testing.T) {
	mirror := realtime.NewMirror("g1", nil)
	mirror.Apply(fromAPIEvent("g1", &api.ExpenseEvent{
		Type: "insert", ExpenseID: "e1", Expense: &api.Expense{ID: "e1", Item: "Rice", Amount: 1000},
	}))
	mirror.Apply(fromAPIEvent("g1", &api.ExpenseEvent{
		Type: "update", ExpenseID: "e1", Expense: &api.Expense{ID: "e1", Item: "Rice", Amount: 1200},
	}))
	got := mirror.Expenses()
	if len(got) != 1 || got[0].Amount != 1200 || got[0].GroupID != "g1" {
		t.Fatalf("unexpected mirror: %+v", got)
	}

	mirror.Apply(fromAPIEvent("g1", &api.ExpenseEvent{Type: "delete", ExpenseID: "e1"}))
	if got := mirror.Expenses(); len(got) != 0 {
		t.Errorf("delete not applied: %+v", got)
	}
}
