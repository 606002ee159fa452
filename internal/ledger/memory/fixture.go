package memory

import (
	"math/big"

	"github/chapool/go-sweeper/internal/sweep"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

const decimalBase = 10

// Fixture describes the initial state of a memory ledger.
//
//	fee = "5"
//
//	[[wallets]]
//	id = "0xabc..."
//	gas = "10"
//	sweep = "100"
type Fixture struct {
	Fee     string          `toml:"fee"`
	Wallets []FixtureWallet `toml:"wallets"`
}

// FixtureWallet holds the balances of one wallet as decimal strings.
type FixtureWallet struct {
	ID    string `toml:"id"`
	Gas   string `toml:"gas"`
	Sweep string `toml:"sweep"`
}

// LoadFixtureFile builds a ledger from a TOML fixture on disk.
func LoadFixtureFile(path string) (*Ledger, error) {
	var fixture Fixture
	if _, err := toml.DecodeFile(path, &fixture); err != nil {
		return nil, errors.Wrapf(err, "failed to decode ledger fixture %s", path)
	}

	return FromFixture(fixture)
}

// LoadFixture builds a ledger from TOML fixture contents.
func LoadFixture(data string) (*Ledger, error) {
	var fixture Fixture
	if _, err := toml.Decode(data, &fixture); err != nil {
		return nil, errors.Wrap(err, "failed to decode ledger fixture")
	}

	return FromFixture(fixture)
}

// FromFixture builds a ledger from a decoded fixture.
func FromFixture(fixture Fixture) (*Ledger, error) {
	fee, err := parseAmount(fixture.Fee)
	if err != nil {
		return nil, errors.Wrap(err, "invalid fee")
	}

	ledger := New(fee)
	for _, w := range fixture.Wallets {
		if w.ID == "" {
			return nil, errors.New("fixture wallet without id")
		}

		gas, err := parseAmount(w.Gas)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid gas balance for wallet %s", w.ID)
		}

		amount, err := parseAmount(w.Sweep)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid sweep balance for wallet %s", w.ID)
		}

		ledger.SetBalance(sweep.WalletID(w.ID), sweep.GasAsset, gas)
		ledger.SetBalance(sweep.WalletID(w.ID), sweep.SweepAsset, amount)
	}

	return ledger, nil
}

func parseAmount(s string) (*big.Int, error) {
	if s == "" {
		return big.NewInt(0), nil
	}

	amount, ok := new(big.Int).SetString(s, decimalBase)
	if !ok {
		return nil, errors.Errorf("invalid amount %q", s)
	}

	if amount.Sign() < 0 {
		return nil, errors.Errorf("negative amount %q", s)
	}

	return amount, nil
}
