package sweep

import (
	"context"
	"encoding/json"
	"math/big"
	"time"

	"github.com/pkg/errors"
)

// WalletID identifies a wallet inside the ledger. Only equality is used.
type WalletID string

// Asset names one of the two balances a sweep inspects.
type Asset string

const (
	// GasAsset pays the fee of a transfer.
	GasAsset Asset = "gas"
	// SweepAsset is consolidated into the destination wallet.
	SweepAsset Asset = "sweep"
)

var (
	// ErrInsufficientFunds is returned by a ledger when the sender cannot cover
	// the amount or the fee at transfer time.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrLedgerUnavailable marks ledger errors that affect every wallet of a batch.
	ErrLedgerUnavailable = errors.New("ledger unavailable")
	// ErrInvalidDestination is returned when a batch has no destination wallet.
	ErrInvalidDestination = errors.New("invalid destination wallet")
)

// Ledger is the capability the orchestrator sweeps through.
type Ledger interface {
	// GetBalance returns the current balance, zero for a wallet without holdings.
	GetBalance(ctx context.Context, wallet WalletID, asset Asset) (*big.Int, error)

	// GetFee returns the gas asset cost of one transfer.
	GetFee(ctx context.Context) (*big.Int, error)

	// Transfer moves amount of asset from one wallet to another.
	Transfer(ctx context.Context, from WalletID, to WalletID, asset Asset, amount *big.Int) error
}

// Recorder observes sweep outcomes, typically for metrics.
type Recorder interface {
	RecordOutcome(outcome Outcome)
	RecordBatch(report *Report, err error)
}

// Status is the result kind of a single wallet evaluation.
type Status string

const (
	StatusSwept   Status = "swept"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// SkipReason explains a skipped wallet.
type SkipReason string

const (
	ReasonNone            SkipReason = ""
	ReasonEmptyBalance    SkipReason = "empty_balance"
	ReasonInsufficientGas SkipReason = "insufficient_gas"
	ReasonSelfSweep       SkipReason = "self_sweep"
	ReasonInFlight        SkipReason = "in_flight"
)

// Outcome is the per-wallet result of a sweep.
type Outcome struct {
	Wallet WalletID   `json:"wallet"`
	Status Status     `json:"status"`
	Amount *big.Int   `json:"amount,omitempty"`
	Reason SkipReason `json:"reason,omitempty"`
	Err    error      `json:"-"`
}

// Swept returns an outcome for a wallet whose full balance was transferred.
func Swept(wallet WalletID, amount *big.Int) Outcome {
	return Outcome{Wallet: wallet, Status: StatusSwept, Amount: new(big.Int).Set(amount)}
}

// Skipped returns an outcome for a wallet left untouched.
func Skipped(wallet WalletID, reason SkipReason) Outcome {
	return Outcome{Wallet: wallet, Status: StatusSkipped, Reason: reason}
}

// Failed returns an outcome for a wallet whose evaluation or transfer failed.
func Failed(wallet WalletID, err error) Outcome {
	return Outcome{Wallet: wallet, Status: StatusFailed, Err: err}
}

// FailureMessage returns the failure text, empty unless the outcome failed.
func (o Outcome) FailureMessage() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}

// MarshalJSON adds the failure text, which the error value itself cannot carry.
func (o Outcome) MarshalJSON() ([]byte, error) {
	type plain Outcome
	return json.Marshal(struct {
		plain
		Error string `json:"error,omitempty"`
	}{plain: plain(o), Error: o.FailureMessage()})
}

// Report collects the outcomes of one batch in input order.
type Report struct {
	BatchID     string    `json:"batch_id"`
	Destination WalletID  `json:"destination"`
	Outcomes    []Outcome `json:"outcomes"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
}

// Count returns the number of outcomes with the given status.
func (r *Report) Count(status Status) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}

// TotalSwept sums the amounts of all swept outcomes.
func (r *Report) TotalSwept() *big.Int {
	total := big.NewInt(0)
	for _, o := range r.Outcomes {
		if o.Status == StatusSwept && o.Amount != nil {
			total.Add(total, o.Amount)
		}
	}
	return total
}

// Duration is the wall time the batch took.
func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
