package server

import (
	"github.com/labstack/echo/v4"

	"example.com/uxwriter/internal/handlers"
)

func registerRoutes(
	e *echo.Echo,
	healthHandler *handlers.HealthHandler,
	deviceHandler *handlers.DeviceHandler,
	catalogHandler *handlers.CatalogHandler,
	creditHandler *handlers.CreditHandler,
	credentialHandler *handlers.CredentialHandler,
	generateHandler *handlers.GenerateHandler,
	metricsHandler echo.HandlerFunc,
	deviceMiddleware echo.MiddlewareFunc,
) {
	e.GET("/health", healthHandler.Health)
	e.GET("/metrics", metricsHandler)

	api := e.Group("/api/v1")
	api.POST("/devices", deviceHandler.Register)
	api.GET("/categories", catalogHandler.Categories)
	api.GET("/plans", catalogHandler.Plans)

	credits := api.Group("/credits", deviceMiddleware)
	credits.GET("", creditHandler.Get)
	credits.POST("/purchase", creditHandler.Purchase)
	credits.GET("/stream", creditHandler.Stream)

	credential := api.Group("/credential", deviceMiddleware)
	credential.PUT("", credentialHandler.Put)
	credential.GET("", credentialHandler.Get)
	credential.DELETE("", credentialHandler.Delete)

	api.POST("/generate", generateHandler.Generate, deviceMiddleware)
	api.PUT("/category", generateHandler.SelectCategory, deviceMiddleware)
	api.GET("/result", generateHandler.Result, deviceMiddleware)
	api.DELETE("/result", generateHandler.ClearResult, deviceMiddleware)
}
