package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"github.com/ktoodev/onesignal-push-permissions/internal/admin"
	"github.com/ktoodev/onesignal-push-permissions/internal/app"
	"github.com/ktoodev/onesignal-push-permissions/internal/auth"
	"github.com/ktoodev/onesignal-push-permissions/internal/capability"
	"github.com/ktoodev/onesignal-push-permissions/internal/gate"
	"github.com/ktoodev/onesignal-push-permissions/internal/hooks"
	"github.com/ktoodev/onesignal-push-permissions/internal/observability"
	"github.com/ktoodev/onesignal-push-permissions/internal/platform/cache"
	"github.com/ktoodev/onesignal-push-permissions/internal/platform/db"
	"github.com/ktoodev/onesignal-push-permissions/internal/principal"
	"github.com/ktoodev/onesignal-push-permissions/internal/settings"
	"github.com/ktoodev/onesignal-push-permissions/internal/shared"
	"github.com/ktoodev/onesignal-push-permissions/internal/view"
)

// stores groups the persistence backends selected by ROLE_STORE.
type stores struct {
	roles    capability.RoleStore
	users    principal.Repository
	accounts auth.Repository
	audit    settings.AuditRecorder
	close    func()
}

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("pushperm exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *app.Config, logger *slog.Logger) error {
	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		return err
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "pushperm_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	metrics := observability.NewMetrics()

	templates, err := view.NewEngine()
	if err != nil {
		return err
	}

	capabilities := capability.NewStore(st.roles, shared.CapSendPush, logger)
	resolver := principal.NewResolver(st.users)
	hookTokens := hooks.NewTokenManager(cfg.HookTokenSecret, cfg.HookTokenTTL)

	menu := admin.NewMenu()
	actions := admin.NewActions()
	settingsService := settings.NewService(capabilities, csrfManager, st.audit, metrics, logger)
	if err := settings.NewHandler(logger, settingsService, templates).Register(menu, actions, app.SaveRateLimit(cfg.SaveRateLimit)); err != nil {
		return err
	}

	router := app.NewRouter(app.RouterParams{
		Logger:              logger,
		Config:              cfg,
		SessionManager:      sessionManager,
		CSRFManager:         csrfManager,
		Metrics:             metrics,
		AuthHandler:         auth.NewHandler(logger, auth.NewService(st.accounts), templates, sessionManager, csrfManager),
		AdminHandler:        admin.NewHandler(menu, actions, capabilities, logger),
		PrincipalMiddleware: principal.Middleware{Resolver: resolver, Logger: logger},
		HooksHandler:        hooks.NewHandler(gate.New(capabilities, metrics, logger), logger),
		HookAuth:            hooks.Authenticate(hookTokens, resolver, logger),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("role_store", cfg.RoleStore))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func openStores(ctx context.Context, cfg *app.Config, logger *slog.Logger) (*stores, error) {
	if cfg.RoleStore == app.RoleStoreMemory {
		return memoryStores(logger)
	}
	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		return nil, err
	}
	return &stores{
		roles:    capability.NewPGRoleStore(pool),
		users:    principal.NewRepository(pool),
		accounts: auth.NewRepository(pool),
		audit:    shared.NewAuditLogger(pool),
		close:    pool.Close,
	}, nil
}

// memoryStores seeds the default roles and one administrator account taken
// from SEED_ADMIN_EMAIL and SEED_ADMIN_PASSWORD. Nothing survives a restart.
func memoryStores(logger *slog.Logger) (*stores, error) {
	roles := capability.NewMemoryRoleStore(capability.DefaultRoles...)
	roles.AddRole(capability.DefaultRoles[0], shared.CoreScopes()...)

	email := envOr("SEED_ADMIN_EMAIL", "admin@pushperm.local")
	hash, err := bcrypt.GenerateFromPassword([]byte(envOr("SEED_ADMIN_PASSWORD", "admin12345")), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	accounts := auth.NewMemoryRepository()
	accounts.Add(auth.User{ID: 1, Email: email, PasswordHash: string(hash), IsActive: true, CreatedAt: time.Now(), UpdatedAt: time.Now()})
	users := principal.NewMemoryRepository()
	users.Assign(1, capability.DefaultRoles[0].ID)

	logger.Warn("using in-memory role store; changes are lost on restart", slog.String("admin", email))
	return &stores{roles: roles, users: users, accounts: accounts, close: func() {}}, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
