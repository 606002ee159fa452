package api

import (
	"context"
	"net/http"

	"github/chapool/go-sweeper/internal/config"
	"github/chapool/go-sweeper/internal/metrics"
	"github/chapool/go-sweeper/internal/sweep"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

type Router struct {
	Routes     []*echo.Route
	Root       *echo.Group
	Management *echo.Group
	APIV1Sweep *echo.Group
}

// Server is a central struct keeping all the dependencies.
// Components are created by InitNewServer, Echo and Router by router.Init.
type Server struct {
	Echo   *echo.Echo
	Router *Router

	Config  config.Server
	Ledger  sweep.Ledger
	Sweep   sweep.Service
	Metrics *metrics.Service

	// released on shutdown, e.g. RPC connections
	closers []func()
}

func NewServer(config config.Server) *Server {
	s := &Server{
		Config: config,
	}

	return s
}

func (s *Server) Ready() bool {
	switch {
	case s.Echo == nil:
		log.Debug().Msg("Server is not fully initialized: echo missing")
		return false
	case s.Router == nil:
		log.Debug().Msg("Server is not fully initialized: router missing")
		return false
	case s.Ledger == nil:
		log.Debug().Msg("Server is not fully initialized: ledger missing")
		return false
	case s.Sweep == nil:
		log.Debug().Msg("Server is not fully initialized: sweep service missing")
		return false
	case s.Metrics == nil:
		log.Debug().Msg("Server is not fully initialized: metrics missing")
		return false
	}

	return true
}

// SweepContext applies the configured batch timeout, if any.
func (s *Server) SweepContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.Config.Sweep.BatchTimeout > 0 {
		return context.WithTimeout(ctx, s.Config.Sweep.BatchTimeout)
	}

	return context.WithCancel(ctx)
}

func (s *Server) Start() error {
	if !s.Ready() {
		return errors.New("server is not ready")
	}

	if err := s.Echo.Start(s.Config.Echo.ListenAddress); err != nil {
		return errors.Wrap(err, "failed to start echo server")
	}

	return nil
}

func (s *Server) Shutdown(ctx context.Context) []error {
	log.Warn().Msg("Shutting down server")

	var errs []error

	if s.Echo != nil {
		log.Debug().Msg("Shutting down echo server")

		if err := s.Echo.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Failed to shutdown echo server")
			errs = append(errs, err)
		}
	}

	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil

	return errs
}
