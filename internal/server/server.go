package server

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"example.com/uxwriter/internal/ai"
	"example.com/uxwriter/internal/auth"
	"example.com/uxwriter/internal/billing"
	"example.com/uxwriter/internal/config"
	"example.com/uxwriter/internal/handlers"
	"example.com/uxwriter/internal/ledger"
	"example.com/uxwriter/internal/metrics"
	"example.com/uxwriter/internal/notifications"
	"example.com/uxwriter/internal/secrets"
	"example.com/uxwriter/internal/storage"
	"example.com/uxwriter/internal/studio"
)

// Dependencies are the collaborators New does not build from configuration.
// A nil Client is built from cfg.AI and nil Metrics get a fresh registry.
type Dependencies struct {
	Store   storage.Store
	Client  ai.Client
	Metrics *metrics.Metrics
}

// New собирает HTTP-сервер Echo с роутами и зависимостями.
func New(cfg config.Config, logger *slog.Logger, deps Dependencies) (*echo.Echo, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("server: store is required")
	}

	client := deps.Client
	if client == nil {
		var err error
		client, err = ai.NewClient(cfg.AI)
		if err != nil {
			return nil, err
		}
	}

	m := deps.Metrics
	if m == nil {
		m = metrics.New()
	}

	catalog, err := billing.LoadCatalog(cfg.Credits.PlansFile)
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewValidator()
	e.HTTPErrorHandler = handlers.HTTPErrorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestLogger(logger))
	e.Use(m.Middleware())

	tokenManager := auth.NewTokenManager(cfg.Auth.DeviceSecret, cfg.Auth.Issuer, cfg.Auth.DeviceTTL)
	notificationHub := notifications.NewHub()
	registry := ledger.NewRegistry(deps.Store, cfg.Credits.DefaultBalance, notificationHub.CreditsListener(), ledger.WithLogger(logger))

	var fallback secrets.Source
	if cfg.AI.APIKey != "" {
		fallback = secrets.Static(cfg.AI.APIKey)
	}
	devices := handlers.NewDevices(registry, deps.Store, fallback)

	studioService := studio.New(ai.NewGenerator(client), m, logger)
	checkout := billing.NewCheckout(catalog, cfg.Credits.CheckoutDelay)

	registerRoutes(
		e,
		handlers.NewHealthHandler(deps.Store),
		handlers.NewDeviceHandler(tokenManager, devices),
		handlers.NewCatalogHandler(catalog),
		handlers.NewCreditHandler(devices, checkout, m, notificationHub),
		handlers.NewCredentialHandler(devices),
		handlers.NewGenerateHandler(devices, studioService),
		echo.WrapHandler(m.Handler()),
		auth.DeviceMiddleware(tokenManager),
	)

	return e, nil
}

// NewHTTPServer создает net/http сервер с заданными таймаутами.
func NewHTTPServer(cfg config.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}

func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.String("remote_ip", v.RemoteIP),
				slog.String("request_id", v.RequestID),
				slog.Duration("latency", v.Latency),
			}

			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
			}

			msg := "request completed"
			if v.Status >= http.StatusInternalServerError {
				logger.LogAttrs(c.Request().Context(), slog.LevelError, msg, attrs...)
				return nil
			}

			logger.LogAttrs(c.Request().Context(), slog.LevelInfo, msg, attrs...)
			return nil
		},
	})
}
