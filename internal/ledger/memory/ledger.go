// Package memory provides an in-process ledger for dry runs and tests.
package memory

import (
	"context"
	"math/big"
	"sync"

	"github/chapool/go-sweeper/internal/sweep"

	"github.com/pkg/errors"
)

// Transfer is a transfer executed by the ledger.
type Transfer struct {
	From   sweep.WalletID
	To     sweep.WalletID
	Asset  sweep.Asset
	Amount *big.Int
	Fee    *big.Int
}

// Ledger keeps balances per wallet per asset and charges one global fee per
// transfer. It is safe for concurrent use.
type Ledger struct {
	mu        sync.Mutex
	balances  map[sweep.WalletID]map[sweep.Asset]*big.Int
	fee       *big.Int
	transfers []Transfer
}

var _ sweep.Ledger = (*Ledger)(nil)

// New creates an empty ledger charging fee per transfer.
func New(fee *big.Int) *Ledger {
	if fee == nil {
		fee = big.NewInt(0)
	}

	return &Ledger{
		balances: make(map[sweep.WalletID]map[sweep.Asset]*big.Int),
		fee:      new(big.Int).Set(fee),
	}
}

// SetBalance overwrites the balance of a wallet.
func (l *Ledger) SetBalance(wallet sweep.WalletID, asset sweep.Asset, amount *big.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.setLocked(wallet, asset, new(big.Int).Set(amount))
}

// SetFee changes the fee charged for subsequent transfers.
func (l *Ledger) SetFee(fee *big.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.fee = new(big.Int).Set(fee)
}

// Balance returns the balance of a wallet without a context.
func (l *Ledger) Balance(wallet sweep.WalletID, asset sweep.Asset) *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return new(big.Int).Set(l.balanceLocked(wallet, asset))
}

// Transfers returns a copy of all executed transfers in execution order.
func (l *Ledger) Transfers() []Transfer {
	l.mu.Lock()
	defer l.mu.Unlock()

	transfers := make([]Transfer, len(l.transfers))
	copy(transfers, l.transfers)
	return transfers
}

// GetBalance implements sweep.Ledger.
func (l *Ledger) GetBalance(ctx context.Context, wallet sweep.WalletID, asset sweep.Asset) (*big.Int, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to get balance")
	}

	return l.Balance(wallet, asset), nil
}

// GetFee implements sweep.Ledger.
func (l *Ledger) GetFee(ctx context.Context) (*big.Int, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to get fee")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	return new(big.Int).Set(l.fee), nil
}

// Transfer implements sweep.Ledger. Funds are checked again here, the fee is
// debited from the sender's gas balance and the amount is moved atomically.
func (l *Ledger) Transfer(ctx context.Context, from sweep.WalletID, to sweep.WalletID, asset sweep.Asset, amount *big.Int) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, "failed to transfer")
	}

	if amount == nil || amount.Sign() <= 0 {
		return errors.New("transfer amount must be positive")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	gas := l.balanceLocked(from, sweep.GasAsset)
	requiredGas := new(big.Int).Set(l.fee)
	if asset == sweep.GasAsset {
		requiredGas.Add(requiredGas, amount)
	}

	if gas.Cmp(requiredGas) < 0 {
		return errors.Wrapf(sweep.ErrInsufficientFunds, "wallet %s has %s gas, needs %s", from, gas, requiredGas)
	}

	if asset != sweep.GasAsset {
		held := l.balanceLocked(from, asset)
		if held.Cmp(amount) < 0 {
			return errors.Wrapf(sweep.ErrInsufficientFunds, "wallet %s has %s %s, needs %s", from, held, asset, amount)
		}
		l.setLocked(from, asset, new(big.Int).Sub(held, amount))
	}

	l.setLocked(from, sweep.GasAsset, new(big.Int).Sub(gas, requiredGas))
	l.setLocked(to, asset, new(big.Int).Add(l.balanceLocked(to, asset), amount))

	l.transfers = append(l.transfers, Transfer{
		From:   from,
		To:     to,
		Asset:  asset,
		Amount: new(big.Int).Set(amount),
		Fee:    new(big.Int).Set(l.fee),
	})

	return nil
}

func (l *Ledger) balanceLocked(wallet sweep.WalletID, asset sweep.Asset) *big.Int {
	if assets, ok := l.balances[wallet]; ok {
		if balance, ok := assets[asset]; ok {
			return balance
		}
	}
	return big.NewInt(0)
}

func (l *Ledger) setLocked(wallet sweep.WalletID, asset sweep.Asset, amount *big.Int) {
	assets, ok := l.balances[wallet]
	if !ok {
		assets = make(map[sweep.Asset]*big.Int)
		l.balances[wallet] = assets
	}
	assets[asset] = amount
}
