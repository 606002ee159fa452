package sweep

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const defaultConcurrency = 1

// Service sweeps the sweep asset of many source wallets into one destination.
type Service interface {
	// SweepAll evaluates every source wallet and transfers eligible balances.
	// Per-wallet failures are reported in the returned report, not as an error.
	SweepAll(ctx context.Context, sources []WalletID, destination WalletID) (*Report, error)
	// SweepWallet evaluates a single wallet.
	SweepWallet(ctx context.Context, wallet WalletID, destination WalletID) (Outcome, error)
}

// Option configures the sweep service.
type Option func(*service)

// WithConcurrency sets how many wallets are evaluated at once. Values below 1
// are treated as 1, which keeps the input order.
func WithConcurrency(n int) Option {
	return func(s *service) {
		if n < 1 {
			n = defaultConcurrency
		}
		s.concurrency = n
	}
}

// WithWalletTimeout bounds the evaluation of each wallet. Zero disables it.
func WithWalletTimeout(d time.Duration) Option {
	return func(s *service) {
		s.walletTimeout = d
	}
}

// WithRecorder registers an observer for outcomes and batches.
func WithRecorder(r Recorder) Option {
	return func(s *service) {
		s.recorder = r
	}
}

type service struct {
	ledger        Ledger
	recorder      Recorder
	concurrency   int
	walletTimeout time.Duration
	sweeping      sync.Map
	now           func() time.Time
}

// NewService creates a new sweep service on top of the given ledger.
//
//nolint:ireturn // Returning interface is intentional for DI
func NewService(ledger Ledger, opts ...Option) Service {
	s := &service{
		ledger:      ledger,
		concurrency: defaultConcurrency,
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// SweepAll runs the eligibility procedure for every wallet in sources.
func (s *service) SweepAll(ctx context.Context, sources []WalletID, destination WalletID) (*Report, error) {
	report := &Report{
		BatchID:     uuid.NewString(),
		Destination: destination,
		Outcomes:    make([]Outcome, 0, len(sources)),
		StartedAt:   s.now(),
	}

	err := s.sweepBatch(ctx, report, sources, destination)
	report.FinishedAt = s.now()

	if s.recorder != nil {
		s.recorder.RecordBatch(report, err)
	}

	if err != nil {
		log.Error().
			Err(err).
			Str("batch_id", report.BatchID).
			Str("destination", string(destination)).
			Int("evaluated", len(report.Outcomes)).
			Int("total", len(sources)).
			Msg("SweepService: batch aborted")
		return report, err
	}

	log.Info().
		Str("batch_id", report.BatchID).
		Str("destination", string(destination)).
		Int("swept", report.Count(StatusSwept)).
		Int("skipped", report.Count(StatusSkipped)).
		Int("failed", report.Count(StatusFailed)).
		Str("total_amount", report.TotalSwept().String()).
		Dur("duration", report.Duration()).
		Msg("SweepService: batch completed")

	return report, nil
}

// SweepWallet runs the eligibility procedure for one wallet.
func (s *service) SweepWallet(ctx context.Context, wallet WalletID, destination WalletID) (Outcome, error) {
	if destination == "" {
		return Outcome{}, ErrInvalidDestination
	}

	outcome, err := s.sweepWallet(ctx, wallet, destination)
	if err != nil {
		return outcome, err
	}

	if s.recorder != nil {
		s.recorder.RecordOutcome(outcome)
	}

	return outcome, nil
}

func (s *service) sweepBatch(ctx context.Context, report *Report, sources []WalletID, destination WalletID) error {
	if len(sources) == 0 {
		return nil
	}

	if destination == "" {
		return ErrInvalidDestination
	}

	outcomes := make([]Outcome, len(sources))
	done := make([]bool, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	var launchErr error
	for i, wallet := range sources {
		if err := gctx.Err(); err != nil {
			launchErr = errors.Wrap(err, "context canceled during sweep")
			break
		}

		g.Go(func() error {
			// the batch may have been stopped while this wallet waited for a slot
			if gctx.Err() != nil {
				return nil
			}

			outcome, err := s.sweepWallet(gctx, wallet, destination)
			outcomes[i] = outcome
			done[i] = true

			if s.recorder != nil {
				s.recorder.RecordOutcome(outcome)
			}
			return err
		})
	}

	err := g.Wait()

	for i := range outcomes {
		if done[i] {
			report.Outcomes = append(report.Outcomes, outcomes[i])
		}
	}

	if err != nil {
		return err
	}

	if launchErr != nil {
		return launchErr
	}

	// Wait cancels the derived context, so cancellation of the caller is read from ctx.
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, "context canceled during sweep")
	}

	return nil
}

// sweepWallet only returns an error when the whole batch has to stop. Every
// other problem is folded into the outcome.
func (s *service) sweepWallet(ctx context.Context, wallet WalletID, destination WalletID) (Outcome, error) {
	if wallet == destination {
		log.Debug().
			Str("wallet", string(wallet)).
			Msg("SweepService: source is the destination, skip")
		return Skipped(wallet, ReasonSelfSweep), nil
	}

	if _, loaded := s.sweeping.LoadOrStore(wallet, struct{}{}); loaded {
		log.Debug().
			Str("wallet", string(wallet)).
			Msg("SweepService: wallet is already sweeping, skip")
		return Skipped(wallet, ReasonInFlight), nil
	}
	defer s.sweeping.Delete(wallet)

	if s.walletTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.walletTimeout)
		defer cancel()
	}

	sweepBalance, err := s.ledger.GetBalance(ctx, wallet, SweepAsset)
	if err != nil {
		return s.readFailure(wallet, errors.Wrap(err, "failed to query sweep asset balance"))
	}

	if sweepBalance.Sign() <= 0 {
		log.Debug().
			Str("wallet", string(wallet)).
			Msg("SweepService: nothing to sweep, skip")
		return Skipped(wallet, ReasonEmptyBalance), nil
	}

	gasBalance, err := s.ledger.GetBalance(ctx, wallet, GasAsset)
	if err != nil {
		return s.readFailure(wallet, errors.Wrap(err, "failed to query gas asset balance"))
	}

	fee, err := s.ledger.GetFee(ctx)
	if err != nil {
		return s.readFailure(wallet, errors.Wrap(err, "failed to quote transfer fee"))
	}

	if gasBalance.Cmp(fee) < 0 {
		log.Debug().
			Str("wallet", string(wallet)).
			Str("gas_balance", gasBalance.String()).
			Str("fee", fee.String()).
			Msg("SweepService: insufficient gas to cover fee, skip")
		return Skipped(wallet, ReasonInsufficientGas), nil
	}

	if err := s.ledger.Transfer(ctx, wallet, destination, SweepAsset, sweepBalance); err != nil {
		log.Error().
			Err(err).
			Str("wallet", string(wallet)).
			Str("destination", string(destination)).
			Str("amount", sweepBalance.String()).
			Bool("insufficient_funds", errors.Is(err, ErrInsufficientFunds)).
			Msg("SweepService: transfer failed")
		return Failed(wallet, errors.Wrap(err, "failed to transfer sweep asset")), nil
	}

	log.Info().
		Str("wallet", string(wallet)).
		Str("destination", string(destination)).
		Str("amount", sweepBalance.String()).
		Str("fee", fee.String()).
		Msg("SweepService: swept wallet to destination")

	return Swept(wallet, sweepBalance), nil
}

// readFailure decides whether a failed balance or fee read stops the batch.
func (s *service) readFailure(wallet WalletID, err error) (Outcome, error) {
	if errors.Is(err, ErrLedgerUnavailable) {
		return Failed(wallet, err), err
	}

	log.Error().
		Err(err).
		Str("wallet", string(wallet)).
		Msg("SweepService: wallet evaluation failed")

	return Failed(wallet, err), nil
}
