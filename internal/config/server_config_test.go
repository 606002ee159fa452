package config_test

import (
	"encoding/json"
	"testing"
	"time"

	"github/chapool/go-sweeper/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintServiceEnv(t *testing.T) {
	config := config.DefaultServiceConfigFromEnv()
	_, err := json.MarshalIndent(config, "", "  ")

	if err != nil {
		t.Fatal(err)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, config.LedgerDriverMemory, cfg.Ledger.Driver)
	assert.Equal(t, 1, cfg.Sweep.Concurrency)
	assert.Equal(t, zerolog.InfoLevel, cfg.Logger.Level)
	assert.Equal(t, ":8080", cfg.Echo.ListenAddress)
	assert.Equal(t, uint64(120000), cfg.EVM.TokenGasLimit)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SWEEPER_LEDGER_DRIVER", "evm")
	t.Setenv("SWEEPER_EVM_RPC_URLS", "http://a:8545,http://b:8545")
	t.Setenv("SWEEPER_EVM_TOKEN_ADDRESS", "0x00000000000000000000000000000000000000ee")
	t.Setenv("SWEEPER_EVM_KEYSTORE_FILE", "/etc/sweeper/keystore.json")
	t.Setenv("SWEEPER_SWEEP_CONCURRENCY", "4")
	t.Setenv("SWEEPER_SWEEP_WALLET_TIMEOUT", "30s")
	t.Setenv("SWEEPER_LOGGER_LEVEL", "debug")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, config.LedgerDriverEVM, cfg.Ledger.Driver)
	assert.Equal(t, []string{"http://a:8545", "http://b:8545"}, cfg.EVM.RPCURLs)
	assert.Equal(t, "/etc/sweeper/keystore.json", cfg.EVM.KeystoreFile)
	assert.Equal(t, 4, cfg.Sweep.Concurrency)
	assert.Equal(t, 30*time.Second, cfg.Sweep.WalletTimeout)
	assert.Equal(t, zerolog.DebugLevel, cfg.Logger.Level)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := map[string]map[string]string{
		"unknown driver":  {"SWEEPER_LEDGER_DRIVER": "paper"},
		"evm without rpc": {"SWEEPER_LEDGER_DRIVER": "evm", "SWEEPER_EVM_TOKEN_ADDRESS": "0x01"},
		"evm without keys": {
			"SWEEPER_LEDGER_DRIVER":     "evm",
			"SWEEPER_EVM_RPC_URLS":      "http://a:8545",
			"SWEEPER_EVM_TOKEN_ADDRESS": "0x01",
		},
		"zero concurrency":  {"SWEEPER_SWEEP_CONCURRENCY": "0"},
		"invalid log level": {"SWEEPER_LOGGER_LEVEL": "loud"},
	}

	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}

			_, err := config.Load()
			require.Error(t, err)
		})
	}
}
