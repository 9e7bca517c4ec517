package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/99minutos/user-directory/docs"
	"github.com/99minutos/user-directory/internal/api/handler"
	"github.com/99minutos/user-directory/internal/api/middleware"
	"github.com/99minutos/user-directory/internal/core/ports"
)

// Deps are the collaborators the router wires into handlers.
type Deps struct {
	Directory   ports.DirectoryService
	Log         zerolog.Logger
	CORSOrigins []string
	// Checks are run by the readiness probe, keyed by dependency name.
	Checks map[string]handler.Check
	// Registry receives the HTTP metrics and serves /metrics. Nil means the
	// default Prometheus registry.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if deps.Registry != nil {
		registerer, gatherer = deps.Registry, deps.Registry
	}

	origins := deps.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{AllowOrigins: origins}))
	// Outside RequestLogger so the recorded status is the one the error handler wrote.
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "directory",
		Registerer: registerer,
	}))
	e.Use(middleware.RequestLogger(deps.Log))

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(deps.Directory)
	userHandler := handler.NewUserHandler(deps.Directory)

	e.GET("/", handler.Hello)

	// --- Auth routes ---
	e.POST("/auth/signin", authHandler.SignIn)
	e.POST("/auth/signup", authHandler.SignUp)

	// --- User routes ---
	e.GET("/user", userHandler.List)
	e.PUT("/user", userHandler.Update)
	e.GET("/user/:id", userHandler.Get)
	e.DELETE("/user/:id", userHandler.Delete)
	e.PUT("/user/change/password", userHandler.ChangePassword)
	e.PUT("/user/change/username", userHandler.ChangeUsername)

	// --- Health probes ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.Checks)

	e.GET("/health", healthHandler.Liveness)            // liveness
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness

	// --- Operations ---
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
