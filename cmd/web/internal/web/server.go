package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
	"thirdcoast.systems/ytingest/cmd/web/handlers/api/video_api"
	"thirdcoast.systems/ytingest/cmd/web/handlers/common"
	"thirdcoast.systems/ytingest/internal/config"
)

// Service is everything the routes need from the ingestion layer.
// *ingest.Service satisfies it.
type Service interface {
	video_api.VideoLister
	video_api.Fetcher
	video_api.WebhookReceiver
}

type Webserver struct {
	*echo.Echo
	conf    config.Config
	svc     Service
	metrics *httpMetrics
}

func NewWebserver(ctx context.Context, conf config.Config, svc Service) (*Webserver, error) {
	e := echo.New()

	webserver := &Webserver{
		Echo:    e,
		conf:    conf,
		svc:     svc,
		metrics: newHTTPMetrics(),
	}

	if err := webserver.setupMiddleware(); err != nil {
		return nil, err
	}

	if err := webserver.registerRoutes(); err != nil {
		return nil, err
	}

	return webserver, nil
}

func (s *Webserver) setupMiddleware() error {
	s.HideBanner = true
	s.HidePort = true
	s.HTTPErrorHandler = common.HTTPErrorHandler
	// Callers are identified by the TCP peer; forwarded headers are client-controlled.
	s.IPExtractor = echo.ExtractIPDirect()

	s.Use(middleware.BodyLimit("2M"))
	s.Use(middleware.Recover())
	s.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string { return uuid.NewString() },
	}))
	s.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics" || c.Path() == "/healthz"
		},
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"remote_ip", v.RemoteIP,
				"request_id", v.RequestID,
			}
			if v.Error != nil {
				fields = append(fields, "error", v.Error)
			}
			slog.Info("request", fields...)
			return nil
		},
	}))
	s.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"*"},
	}))
	s.Use(s.metrics.middleware)
	s.Use(middleware.RateLimiterWithConfig(s.rateLimiterConfig()))

	return nil
}

// rateLimiterConfig allows RateLimitPerMinute requests per caller address,
// refilled evenly over the minute.
func (s *Webserver) rateLimiterConfig() middleware.RateLimiterConfig {
	perMinute := s.conf.RateLimitPerMinute
	return middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(float64(perMinute) / 60),
			Burst:     perMinute,
			ExpiresIn: 3 * time.Minute,
		}),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusForbidden, "could not identify caller").SetInternal(err)
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			slog.Warn("rate limit exceeded", "remote_ip", identifier, "path", c.Request().URL.Path)
			return echo.NewHTTPError(http.StatusTooManyRequests, common.DetailRateLimited)
		},
	}
}

func (s *Webserver) registerRoutes() error {
	s.POST("/fetch/", video_api.HandleFetch(s.svc))
	s.GET("/videos/", video_api.HandleIndex(s.svc))
	s.POST("/webhook", video_api.HandleWebhook(s.svc))

	s.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	s.GET("/metrics", s.metrics.handler())

	return nil
}
