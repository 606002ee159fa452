package sweep

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github/chapool/go-sweeper/internal/api"
	"github/chapool/go-sweeper/internal/config"
	core "github/chapool/go-sweeper/internal/sweep"
	"github/chapool/go-sweeper/internal/util/command"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const (
	destinationFlag string = "to"
	jsonFlag        string = "json"
	fixtureFlag     string = "fixture"
	concurrencyFlag string = "concurrency"
)

type flags struct {
	destination string
	json        bool
	fixture     string
	concurrency int
}

func New() *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   "sweep --to <destination> <source>...",
		Short: "Sweeps the source wallets into the destination",
		Long: `Runs one sweep batch against the configured ledger.

Every source wallet holding a positive balance of the sweep asset and enough
gas to cover the current fee is emptied into the destination. The command
fails only if the batch could not be completed, individual wallet failures
are part of the report.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(cmd.Context(), cmd.OutOrStdout(), f, args)
		},
	}

	cmd.Flags().StringVar(&f.destination, destinationFlag, "", "Destination wallet")
	cmd.Flags().BoolVar(&f.json, jsonFlag, false, "Print the report as JSON")
	cmd.Flags().StringVar(&f.fixture, fixtureFlag, "", "Use an in-memory ledger loaded from this TOML fixture")
	cmd.Flags().IntVar(&f.concurrency, concurrencyFlag, 0, "Wallets evaluated at once (default from config)")

	if err := cmd.MarkFlagRequired(destinationFlag); err != nil {
		panic(err)
	}

	return cmd
}

func runSweep(ctx context.Context, out io.Writer, f flags, args []string) error {
	cfg := config.DefaultServiceConfigFromEnv()
	applyFlags(&cfg, f)

	sources := make([]core.WalletID, 0, len(args))
	for _, arg := range args {
		sources = append(sources, core.WalletID(arg))
	}

	return command.WithServer(ctx, cfg, func(ctx context.Context, s *api.Server) error {
		ctx, cancel := s.SweepContext(ctx)
		defer cancel()

		report, err := s.Sweep.SweepAll(ctx, sources, core.WalletID(f.destination))
		if report != nil {
			if printErr := printReport(out, report, f.json); printErr != nil {
				return printErr
			}
		}

		if err != nil {
			return errors.Wrap(err, "sweep batch failed")
		}

		return nil
	})
}

func applyFlags(cfg *config.Server, f flags) {
	if f.fixture != "" {
		cfg.Ledger.Driver = config.LedgerDriverMemory
		cfg.Ledger.FixtureFile = f.fixture
	}

	if f.concurrency > 0 {
		cfg.Sweep.Concurrency = f.concurrency
	}
}

func printReport(out io.Writer, report *core.Report, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(report), "failed to encode report")
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "WALLET\tSTATUS\tDETAIL\n")
	for _, o := range report.Outcomes {
		fmt.Fprintf(w, "%s\t%s\t%s\n", o.Wallet, o.Status, detail(o))
	}
	if err := w.Flush(); err != nil {
		return errors.Wrap(err, "failed to write report")
	}

	_, err := fmt.Fprintf(out, "\nbatch %s: %d swept, %d skipped, %d failed, total %s in %s\n",
		report.BatchID,
		report.Count(core.StatusSwept),
		report.Count(core.StatusSkipped),
		report.Count(core.StatusFailed),
		report.TotalSwept(),
		report.Duration(),
	)

	return errors.Wrap(err, "failed to write report")
}

func detail(o core.Outcome) string {
	switch o.Status {
	case core.StatusSwept:
		return o.Amount.String()
	case core.StatusSkipped:
		return string(o.Reason)
	case core.StatusFailed:
		return o.FailureMessage()
	default:
		return ""
	}
}
