package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/storefront/credential-service/docs"
	"github.com/storefront/credential-service/internal/api/handler"
	"github.com/storefront/credential-service/internal/api/middleware"
	"github.com/storefront/credential-service/internal/core/domain"
	"github.com/storefront/credential-service/internal/core/ports"
)

// APIBase is the prefix every business route is mounted under.
const APIBase = "/api/v1"

// Deps are the collaborators the router needs.
type Deps struct {
	AuthService ports.AuthService
	Guard       ports.AccessGuard
	// Pingers are checked by /health/ready. Nil entries are skipped.
	Pingers map[string]handler.Pinger
	Log     zerolog.Logger
	// SecureCookie marks the session cookie Secure (HTTPS only).
	SecureCookie bool
	// Registry receives the HTTP request metrics and backs /metrics.
	// The default Prometheus registry is used when nil.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
//
// @title                      Credential Service API
// @version                    1.0
// @description                Account registration, login sessions and password recovery.
// @BasePath                   /api/v1
// @securityDefinitions.apikey BearerAuth
// @in                         header
// @name                       Authorization
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if d.Registry != nil {
		registerer, gatherer = d.Registry, d.Registry
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "credential",
		Registerer: registerer,
	}))

	// --- Operational endpoints (no auth required) ---
	health := handler.NewHealthHandler(d.Pingers)
	e.GET("/health", health.Liveness)
	e.GET("/health/ready", health.Readiness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- API routes ---
	authHandler := handler.NewAuthHandler(d.AuthService, d.SecureCookie)
	accountHandler := handler.NewAccountHandler(d.AuthService)
	authenticated := middleware.Authenticate(d.Guard)

	v1 := e.Group(APIBase)
	v1.POST("/register", authHandler.Register)
	v1.POST("/login", authHandler.Login)
	v1.POST("/logout", authHandler.Logout)
	v1.POST("/password/forgot", authHandler.ForgotPassword)
	v1.PUT(handler.ResetPath+"/:token", authHandler.ResetPassword)
	v1.PUT("/password/update", authHandler.UpdatePassword, authenticated)
	v1.GET("/me", accountHandler.Me, authenticated)
	v1.GET("/user/:userId", accountHandler.Get, authenticated, middleware.RequireRole(d.Guard, domain.RoleAdmin))

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			evt := log.Info()
			if v.Status >= 500 {
				evt = log.Warn()
			}
			evt.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
