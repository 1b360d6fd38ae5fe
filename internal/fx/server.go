package fx

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"payment-router/internal/api/handlers"
	"payment-router/internal/api/middleware"
	"payment-router/internal/api/routes"
	"payment-router/internal/config"
	"payment-router/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
)

// ServerModule provides the HTTP server
var ServerModule = fx.Module("server",
	fx.Provide(NewGinEngine),
	fx.Provide(NewHTTPServer),
	fx.Invoke(RegisterServerLifecycle),
)

// NewGinEngine creates the gin engine with middleware and routes
func NewGinEngine(
	cfg *config.Config,
	logger *logger.Logger,
	errorMiddleware *middleware.ErrorMiddleware,
	paymentHandler *handlers.PaymentHandler,
	registry *prometheus.Registry,
) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(errorMiddleware.Handler())

	engine.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("HTTP Request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	})

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "payment-router",
		})
	})

	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	api := engine.Group("/api/v1")
	routes.RegisterPaymentRoutes(api, paymentHandler)

	return engine
}

// NewHTTPServer creates the HTTP server over the gin engine
func NewHTTPServer(cfg *config.Config, engine *gin.Engine) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}

// RegisterServerLifecycle starts and stops the server with the app
func RegisterServerLifecycle(lc fx.Lifecycle, server *http.Server, logger *logger.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("Starting HTTP server", "addr", server.Addr)
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("HTTP server failed", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Stopping HTTP server")
			return server.Shutdown(ctx)
		},
	})
}
