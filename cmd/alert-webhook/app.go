package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"synoptic/internal/alert"
	"synoptic/internal/config"
	"synoptic/internal/constants"
	"synoptic/internal/logger"
	"synoptic/pkg/circuitbreaker"
	"synoptic/pkg/metrics"
	"synoptic/pkg/ratelimit"
)

type App struct {
	cfg    *config.Config
	logger logger.Logger

	publisher alert.Publisher
	server    *http.Server
}

func NewApp(cfg *config.Config, log logger.Logger) *App {
	if sugaredLogger, ok := log.(*logger.SugaredLogger); ok {
		sugaredLogger.SetServiceName("alert-webhook")
	}
	return &App{
		cfg:    cfg,
		logger: log,
	}
}

func (a *App) Initialize(ctx context.Context) error {
	metrics.RegisterAlertMetrics()

	publisher, err := alert.NewMQTTPublisher(a.cfg.MQTT, a.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize publisher: %w", err)
	}
	a.publisher = publisher

	var breaker *circuitbreaker.Wrapper
	if a.cfg.CircuitBreaker.Enabled {
		metrics.RegisterCircuitBreakerMetrics()
		breaker = circuitbreaker.NewWrapper(circuitbreaker.Config{
			Name:         "jira",
			MaxRequests:  a.cfg.CircuitBreaker.MaxRequests,
			Interval:     a.cfg.CircuitBreaker.Interval,
			Timeout:      a.cfg.CircuitBreaker.Timeout,
			FailureRatio: a.cfg.CircuitBreaker.FailureRatio,
			MinRequests:  a.cfg.CircuitBreaker.MinRequests,
		})
	}

	ticketer := alert.NewJiraClient(a.cfg.Jira, breaker, a.logger)
	handler := alert.NewHandler(a.publisher, ticketer, a.cfg.Alert.MonitorCentre, a.logger)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	if a.cfg.Alert.RateLimit.Enabled {
		limitCfg := ratelimit.DefaultConfig()
		limitCfg.RPS = a.cfg.Alert.RateLimit.RPS
		limitCfg.Burst = a.cfg.Alert.RateLimit.Burst
		router.Use(ratelimit.Middleware(limitCfg))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handler.RegisterRoutes(router)

	a.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  a.cfg.Server.ReadTimeoutSeconds,
		WriteTimeout: a.cfg.Server.WriteTimeoutSeconds,
	}

	return nil
}

func (a *App) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Infow("HTTP server starting", "port", a.cfg.Server.Port)
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	})

	err := g.Wait()

	if a.publisher != nil {
		a.publisher.Close()
	}

	return err
}
