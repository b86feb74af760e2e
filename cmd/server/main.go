package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"connectrpc.com/connect"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	"github.com/mmynk/kakeibo/internal/auth"
	"github.com/mmynk/kakeibo/internal/config"
	"github.com/mmynk/kakeibo/internal/ledger"
	"github.com/mmynk/kakeibo/internal/metrics"
	"github.com/mmynk/kakeibo/internal/middleware"
	"github.com/mmynk/kakeibo/internal/notify"
	"github.com/mmynk/kakeibo/internal/realtime"
	"github.com/mmynk/kakeibo/internal/service"
	"github.com/mmynk/kakeibo/internal/storage"
	"github.com/mmynk/kakeibo/internal/storage/postgres"
	"github.com/mmynk/kakeibo/internal/storage/sqlite"
	"github.com/mmynk/kakeibo/pkg/api"
	"github.com/mmynk/kakeibo/pkg/logging"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logging.New(os.Stderr, cfg.LogLevel(), logging.Format(cfg.Log.Format)))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Server stopped gracefully")
}

func openStore(ctx context.Context, cfg config.StorageConfig) (storage.Store, error) {
	switch cfg.Driver {
	case "postgres":
		store, err := postgres.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "sqlite":
		store, err := sqlite.New(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	store, err := openStore(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()
	slog.Info("Storage initialized", "driver", cfg.Storage.Driver)

	m := metrics.New()
	hub := realtime.NewHub()
	m.ObserveHub(hub)

	publishers := realtime.Fanout{hub}
	var relay *realtime.Relay
	if cfg.Realtime.AMQPURL != "" {
		relay, err = realtime.DialRelay(cfg.Realtime.AMQPURL, cfg.Realtime.Exchange)
		if err != nil {
			return fmt.Errorf("failed to connect relay: %w", err)
		}
		defer relay.Close()
		publishers = append(publishers, relay)
		slog.Info("Relay connected", "exchange", cfg.Realtime.Exchange, "origin", relay.Origin())
	}

	mailer := notify.NewMailer(cfg.Mail.Notify(), store)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := mailer.Wait(ctx); err != nil {
			slog.Warn("Settlement mail still pending at exit", "error", err)
		}
	}()

	l := ledger.New(store,
		ledger.WithPublisher(m.Publisher(publishers)),
		ledger.WithNotifier(m),
		ledger.WithNotifier(mailer),
	)

	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.TokenDuration())
	authenticator := auth.NewPasswordAuthenticator(store).WithCost(cfg.Auth.BcryptCost)

	interceptors := connect.WithInterceptors(
		middleware.NewMetricsInterceptor(m),
		middleware.NewLoggingInterceptor(),
		middleware.RequireAuth(jwtManager, api.PublicProcedures),
	)

	mux := http.NewServeMux()
	mux.Handle(api.NewAuthServiceHandler(service.NewAuthService(authenticator, jwtManager, store, slog.Default()), interceptors))
	mux.Handle(api.NewGroupServiceHandler(service.NewGroupService(store), interceptors))
	mux.Handle(api.NewExpenseServiceHandler(
		service.NewExpenseService(l, store, hub).WithStreamBuffer(cfg.Realtime.Buffer),
		interceptors,
	))
	mux.HandleFunc("/healthz", healthz)
	if cfg.Metrics.Enabled {
		mux.Handle(cfg.Metrics.Path, m.Handler())
	}
	if cfg.Server.StaticPath != "" {
		static, err := staticHandler(cfg.Server.StaticPath)
		if err != nil {
			return err
		}
		mux.Handle("/", static)
	}

	// h2c serves HTTP/2 without TLS, which Connect streaming needs.
	handler := h2c.NewHandler(loggingMiddleware(corsMiddleware(cfg.Server.AllowedOrigin, mux)), &http2.Server{})
	srv := newServer(cfg.Server.Addr, handler)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Connect server starting", "address", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if relay != nil {
		g.Go(func() error {
			err := relay.Run(gctx, hub)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}
	return g.Wait()
}
