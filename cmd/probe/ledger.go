package probe

import (
	"context"
	"fmt"
	"time"

	"github/chapool/go-sweeper/internal/api"
	"github/chapool/go-sweeper/internal/config"
	"github/chapool/go-sweeper/internal/util/command"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const (
	timeoutFlag    string = "timeout"
	defaultTimeout        = 10 * time.Second
)

func newLedger() *cobra.Command {
	var (
		verbose bool
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Checks that the configured ledger answers",
		Long: `Requests a fee quote from the configured ledger.

Exits with a non-zero code if the ledger does not answer in time.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.DefaultServiceConfigFromEnv()

			return command.WithServer(cmd.Context(), cfg, func(ctx context.Context, s *api.Server) error {
				ctx, cancel := context.WithTimeout(ctx, timeout)
				defer cancel()

				fee, err := s.Ledger.GetFee(ctx)
				if err != nil {
					return errors.Wrap(err, "ledger probe failed")
				}

				if verbose {
					fmt.Fprintf(cmd.OutOrStdout(), "Ledger is reachable, current fee quote: %s\n", fee)
				}

				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&verbose, verboseFlag, "v", false, "Show verbose output.")
	cmd.Flags().DurationVar(&timeout, timeoutFlag, defaultTimeout, "Timeout for the probe.")

	return cmd
}
