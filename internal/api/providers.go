package api

import (
	"math/big"

	"github/chapool/go-sweeper/internal/config"
	"github/chapool/go-sweeper/internal/ledger/evm"
	"github/chapool/go-sweeper/internal/ledger/memory"
	"github/chapool/go-sweeper/internal/metrics"
	"github/chapool/go-sweeper/internal/sweep"
	"github/chapool/go-sweeper/internal/wallet"
	"github/chapool/go-sweeper/internal/wallet/address"
	"github/chapool/go-sweeper/internal/wallet/rpc"
	"github/chapool/go-sweeper/internal/wallet/signer"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// InitNewServer creates all components except Echo and Router.
func InitNewServer(cfg config.Server) (*Server, error) {
	s := NewServer(cfg)

	metricsService, err := metrics.New()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create metrics service")
	}
	s.Metrics = metricsService

	ledger, closeLedger, err := NewLedger(cfg)
	if err != nil {
		return nil, err
	}
	s.Ledger = ledger
	if closeLedger != nil {
		s.closers = append(s.closers, closeLedger)
	}

	s.Sweep = sweep.NewService(ledger,
		sweep.WithConcurrency(cfg.Sweep.Concurrency),
		sweep.WithWalletTimeout(cfg.Sweep.WalletTimeout),
		sweep.WithRecorder(metricsService),
	)

	return s, nil
}

// NewLedger builds the ledger selected by cfg.Ledger.Driver. The returned
// func releases its resources and may be nil.
func NewLedger(cfg config.Server) (sweep.Ledger, func(), error) {
	switch cfg.Ledger.Driver {
	case config.LedgerDriverMemory:
		ledger, err := newMemoryLedger(cfg.Ledger)
		return ledger, nil, err
	case config.LedgerDriverEVM:
		return newEVMLedger(cfg.EVM)
	default:
		return nil, nil, errors.Errorf("unknown ledger driver %q", cfg.Ledger.Driver)
	}
}

func newMemoryLedger(cfg config.Ledger) (*memory.Ledger, error) {
	if cfg.FixtureFile == "" {
		log.Warn().Msg("No ledger fixture configured, starting with an empty in-memory ledger")
		return memory.New(big.NewInt(0)), nil
	}

	ledger, err := memory.LoadFixtureFile(cfg.FixtureFile)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load ledger fixture")
	}

	log.Info().Str("fixture_file", cfg.FixtureFile).Msg("Loaded in-memory ledger")

	return ledger, nil
}

func newEVMLedger(cfg config.EVM) (*evm.Ledger, func(), error) {
	if !common.IsHexAddress(cfg.TokenAddress) {
		return nil, nil, errors.Errorf("invalid token address %q", cfg.TokenAddress)
	}

	seedManager, err := wallet.UnlockSeed(cfg)
	if err != nil {
		return nil, nil, err
	}

	index, err := address.NewIndex(seedManager.GetSeed(), cfg.AddressCount)
	if err != nil {
		seedManager.Clear()
		return nil, nil, errors.Wrap(err, "failed to derive managed addresses")
	}

	signerService, err := signer.NewService(seedManager, index, cfg.EnableSigning)
	if err != nil {
		seedManager.Clear()
		return nil, nil, errors.Wrap(err, "failed to create signer service")
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), max(cfg.RequestBurst, 1))
	}

	client, err := rpc.NewClient(cfg.RPCURLs, limiter)
	if err != nil {
		seedManager.Clear()
		return nil, nil, errors.Wrap(err, "failed to create RPC client")
	}

	ledger, err := evm.New(client, signerService, evm.Config{
		ChainID:             cfg.ChainID,
		TokenAddress:        common.HexToAddress(cfg.TokenAddress),
		TokenGasLimit:       cfg.TokenGasLimit,
		FeeMultiplier:       cfg.FeeMultiplier,
		ReceiptTimeout:      cfg.ReceiptTimeout,
		ReceiptPollInterval: cfg.ReceiptPollInterval,
	})
	if err != nil {
		client.Close()
		seedManager.Clear()
		return nil, nil, errors.Wrap(err, "failed to create EVM ledger")
	}

	log.Info().
		Int64("chain_id", cfg.ChainID).
		Str("token_address", cfg.TokenAddress).
		Int("managed_addresses", index.Len()).
		Bool("signing_enabled", cfg.EnableSigning).
		Msg("EVM ledger initialized")

	return ledger, func() {
		client.Close()
		seedManager.Clear()
	}, nil
}
