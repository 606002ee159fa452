package server

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"

	"github/chapool/go-sweeper/internal/api"
	"github/chapool/go-sweeper/internal/config"
	"github/chapool/go-sweeper/internal/util/command"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func New() *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "Starts the server",
		Long: `Starts the HTTP server exposing the sweep API.

Requires configuration through ENV and
a reachable ledger.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServer(cmd.Context())
		},
	}
}

func runServer(ctx context.Context) error {
	cfg := config.DefaultServiceConfigFromEnv()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return command.WithServer(ctx, cfg, func(ctx context.Context, s *api.Server) error {
		errCh := make(chan error, 1)

		go func() {
			log.Info().Str("listen_address", s.Config.Echo.ListenAddress).Msg("Starting server")

			if err := s.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			if err != nil {
				return errors.Wrap(err, "server stopped unexpectedly")
			}
			return nil
		case <-ctx.Done():
			log.Info().Msg("Received shutdown signal")
			return nil
		}
	})
}
