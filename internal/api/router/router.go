package router

import (
	"github/chapool/go-sweeper/internal/api"
	"github/chapool/go-sweeper/internal/api/handlers"
	"github/chapool/go-sweeper/internal/api/middleware"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const metricsPath = "/metrics"

func Init(s *api.Server) error {
	s.Echo = echo.New()

	s.Echo.Debug = false
	s.Echo.HideBanner = true
	s.Echo.HidePort = true
	s.Echo.HTTPErrorHandler = HTTPErrorHandler

	if s.Config.Echo.EnableRecover {
		s.Echo.Use(echoMiddleware.Recover())
	}

	s.Echo.Use(echoMiddleware.RequestID())
	s.Echo.Use(middleware.Logger(middleware.LoggerConfig{
		Level: zerolog.InfoLevel,
		Skipper: func(c echo.Context) bool {
			return c.Path() == metricsPath || c.Path() == "/-/ready"
		},
	}))

	if s.Config.Echo.EnableMetrics {
		mw, err := echoprometheus.MiddlewareConfig{
			Namespace:  "sweeper",
			Subsystem:  "http",
			Registerer: s.Metrics.Registry,
			Skipper: func(c echo.Context) bool {
				return c.Path() == metricsPath
			},
		}.ToMiddleware()
		if err != nil {
			return errors.Wrap(err, "failed to create metrics middleware")
		}
		s.Echo.Use(mw)
	}

	s.Router = &api.Router{
		Routes:     nil,
		Root:       s.Echo.Group(""),
		Management: s.Echo.Group("/-"),
		APIV1Sweep: s.Echo.Group("/api/v1/sweep"),
	}

	s.Echo.GET(metricsPath, echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
		Gatherer: s.Metrics.Registry,
	}))

	handlers.AttachAllRoutes(s)

	return nil
}
