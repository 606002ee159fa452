package memory_test

import (
	"context"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github/chapool/go-sweeper/internal/ledger/memory"
	"github/chapool/go-sweeper/internal/sweep"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetBalanceUnknownWalletIsZero(t *testing.T) {
	ledger := memory.New(big.NewInt(5))

	balance, err := ledger.GetBalance(t.Context(), "nobody", sweep.SweepAsset)
	require.NoError(t, err)
	assert.Equal(t, 0, balance.Sign())
}

func TestGetBalanceReturnsCopy(t *testing.T) {
	ledger := memory.New(big.NewInt(5))
	ledger.SetBalance("a", sweep.SweepAsset, big.NewInt(100))

	balance, err := ledger.GetBalance(t.Context(), "a", sweep.SweepAsset)
	require.NoError(t, err)
	balance.SetInt64(1)

	assert.Equal(t, "100", ledger.Balance("a", sweep.SweepAsset).String())
}

func TestTransferMovesAmountAndChargesFee(t *testing.T) {
	ledger := memory.New(big.NewInt(5))
	ledger.SetBalance("a", sweep.SweepAsset, big.NewInt(100))
	ledger.SetBalance("a", sweep.GasAsset, big.NewInt(10))

	err := ledger.Transfer(t.Context(), "a", "dest", sweep.SweepAsset, big.NewInt(100))
	require.NoError(t, err)

	assert.Equal(t, "0", ledger.Balance("a", sweep.SweepAsset).String())
	assert.Equal(t, "5", ledger.Balance("a", sweep.GasAsset).String())
	assert.Equal(t, "100", ledger.Balance("dest", sweep.SweepAsset).String())

	transfers := ledger.Transfers()
	require.Len(t, transfers, 1)
	assert.Equal(t, sweep.WalletID("a"), transfers[0].From)
	assert.Equal(t, sweep.WalletID("dest"), transfers[0].To)
	assert.Equal(t, "5", transfers[0].Fee.String())
}

func TestTransferInsufficientFunds(t *testing.T) {
	tests := []struct {
		name   string
		gas    int64
		held   int64
		asset  sweep.Asset
		amount int64
	}{
		{name: "gas below fee", gas: 2, held: 50, asset: sweep.SweepAsset, amount: 50},
		{name: "asset below amount", gas: 10, held: 40, asset: sweep.SweepAsset, amount: 50},
		{name: "gas asset below amount plus fee", gas: 10, asset: sweep.GasAsset, amount: 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := memory.New(big.NewInt(5))
			ledger.SetBalance("a", sweep.GasAsset, big.NewInt(tt.gas))
			ledger.SetBalance("a", sweep.SweepAsset, big.NewInt(tt.held))

			err := ledger.Transfer(t.Context(), "a", "dest", tt.asset, big.NewInt(tt.amount))
			require.Error(t, err)
			assert.True(t, errors.Is(err, sweep.ErrInsufficientFunds))

			assert.Equal(t, tt.gas, ledger.Balance("a", sweep.GasAsset).Int64())
			assert.Empty(t, ledger.Transfers())
		})
	}
}

func TestTransferRejectsNonPositiveAmount(t *testing.T) {
	ledger := memory.New(big.NewInt(0))

	err := ledger.Transfer(t.Context(), "a", "dest", sweep.SweepAsset, big.NewInt(0))
	require.Error(t, err)
	assert.False(t, errors.Is(err, sweep.ErrInsufficientFunds))
}

func TestCanceledContext(t *testing.T) {
	ledger := memory.New(big.NewInt(5))
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := ledger.GetBalance(ctx, "a", sweep.GasAsset)
	require.ErrorIs(t, err, context.Canceled)

	_, err = ledger.GetFee(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestLoadFixture(t *testing.T) {
	ledger, err := memory.LoadFixture(`
fee = "5"

[[wallets]]
id = "A"
gas = "10"
sweep = "100"

[[wallets]]
id = "B"
gas = "2"
sweep = "50"
`)
	require.NoError(t, err)

	fee, err := ledger.GetFee(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "5", fee.String())
	assert.Equal(t, "100", ledger.Balance("A", sweep.SweepAsset).String())
	assert.Equal(t, "2", ledger.Balance("B", sweep.GasAsset).String())
}

func TestLoadFixtureFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.toml")
	require.NoError(t, os.WriteFile(path, []byte("fee = \"1\"\n[[wallets]]\nid = \"C\"\ngas = \"100\"\n"), 0o600))

	ledger, err := memory.LoadFixtureFile(path)
	require.NoError(t, err)
	assert.Equal(t, "0", ledger.Balance("C", sweep.SweepAsset).String())
	assert.Equal(t, "100", ledger.Balance("C", sweep.GasAsset).String())
}

func TestLoadFixtureInvalid(t *testing.T) {
	_, err := memory.LoadFixture("fee = \"-1\"\n")
	require.Error(t, err)

	_, err = memory.LoadFixture("[[wallets]]\ngas = \"1\"\n")
	require.Error(t, err)

	_, err = memory.LoadFixture("[[wallets]]\nid = \"A\"\nsweep = \"abc\"\n")
	require.Error(t, err)
}
