// Package app wires configuration, adapters and services into a runnable
// HTTP server.
package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/samber/oops"
	gomongo "go.mongodb.org/mongo-driver/mongo"

	"github.com/storefront/credential-service/internal/api"
	"github.com/storefront/credential-service/internal/api/handler"
	"github.com/storefront/credential-service/internal/core/ports"
	"github.com/storefront/credential-service/internal/core/security"
	"github.com/storefront/credential-service/internal/core/service"
	"github.com/storefront/credential-service/internal/infrastructure/config"
	"github.com/storefront/credential-service/internal/infrastructure/db/mongo"
	"github.com/storefront/credential-service/internal/infrastructure/db/redis"
	"github.com/storefront/credential-service/internal/infrastructure/mail"
	"github.com/storefront/credential-service/internal/infrastructure/queue"
)

const (
	appName         = "credential-service"
	shutdownTimeout = 15 * time.Second
)

// App owns every long-lived resource of the service.
type App struct {
	cfg *config.Config
	log zerolog.Logger

	mongoClient *gomongo.Client
	redisClient *goredis.Client
	accounts    *mongo.AccountRepository
	dispatcher  *queue.Dispatcher
	router      *echo.Echo
}

// New connects to the backing stores and builds the service graph. Redis is
// optional: without REDIS_ADDR the access guard reads roles from MongoDB on
// every authorization check.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	a := &App{cfg: cfg, log: log}

	client, db, err := mongo.Connect(ctx, mongo.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		Timeout:  cfg.Mongo.Timeout,
		AppName:  appName,
	})
	if err != nil {
		return nil, err
	}
	a.mongoClient = client
	a.accounts = mongo.NewAccountRepository(db, cfg.Mongo.Timeout)

	pingers := map[string]handler.Pinger{"mongo": mongo.NewPinger(client)}

	var roles service.RoleCache
	if cfg.Redis.Addr != "" {
		rdb, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB, ClientName: appName})
		if err != nil {
			a.closeStores(ctx)
			return nil, err
		}
		a.redisClient = rdb
		roles = redis.NewRoleCache(rdb, cfg.Redis.RoleTTL)
		pingers["redis"] = redis.NewPinger(rdb)
	} else {
		log.Info().Msg("REDIS_ADDR not set, role cache disabled")
	}

	mailer := newMailer(cfg.Mail, log)

	tokens, err := security.NewJWTCodec(security.TokenConfig{
		Secret: []byte(cfg.JWTSecret),
		TTL:    cfg.TokenTTL,
		Issuer: cfg.TokenIssuer,
	})
	if err != nil {
		a.closeStores(ctx)
		return nil, err
	}

	a.dispatcher = queue.NewDispatcher(cfg.NoticeWorkers, mailer, log)

	authService, err := service.NewAuthService(
		a.accounts,
		security.NewBcryptHasher(cfg.BcryptCost),
		tokens,
		security.NewResetIssuer(cfg.ResetWindow),
		mailer,
		log,
		service.WithResetURLBase(cfg.ResetURLBase),
		service.WithNotices(a.dispatcher),
	)
	if err != nil {
		a.closeStores(ctx)
		return nil, err
	}

	a.router = api.NewRouter(api.Deps{
		AuthService:  authService,
		Guard:        service.NewAccessGuard(tokens, a.accounts, roles, log),
		Pingers:      pingers,
		Log:          log,
		SecureCookie: cfg.IsProduction(),
	})

	return a, nil
}

func newMailer(cfg config.MailConfig, log zerolog.Logger) ports.Mailer {
	if cfg.Driver == "smtp" {
		return mail.NewSMTPMailer(mail.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.From,
			Timeout:  cfg.Timeout,
		}, log)
	}
	return mail.NewLogMailer(log, cfg.LogBody)
}

// EnsureIndexes creates the account collection indexes.
func (a *App) EnsureIndexes(ctx context.Context) error {
	return a.accounts.EnsureIndexes(ctx)
}

// Handler returns the HTTP handler with CORS applied.
func (a *App) Handler() http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   a.cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{echo.HeaderAuthorization, echo.HeaderContentType, echo.HeaderXRequestID},
		AllowCredentials: true,
	}).Handler(a.router)
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully and
// releases every resource.
func (a *App) Run(ctx context.Context) error {
	workerCtx, stopWorkers := context.WithCancel(context.WithoutCancel(ctx))
	a.dispatcher.Start(workerCtx)

	srv := &http.Server{
		Addr:              net.JoinHostPort("", a.cfg.Port),
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		runErr = oops.Code("HTTP_SERVE_FAILED").With("addr", srv.Addr).Wrap(err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error().Err(err).Msg("http server shutdown failed")
	}
	stopWorkers()
	a.dispatcher.Wait()
	a.closeStores(shutdownCtx)

	a.log.Info().Msg("server stopped")
	return runErr
}

// Close releases the store connections. It is only needed when Run is not
// called, e.g. by one-shot commands.
func (a *App) Close(ctx context.Context) {
	a.closeStores(ctx)
}

func (a *App) closeStores(ctx context.Context) {
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.log.Warn().Err(err).Msg("redis close failed")
		}
		a.redisClient = nil
	}
	if a.mongoClient != nil {
		if err := a.mongoClient.Disconnect(ctx); err != nil {
			a.log.Warn().Err(err).Msg("mongo disconnect failed")
		}
		a.mongoClient = nil
	}
}
