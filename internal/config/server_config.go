package config

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

const (
	envPrefix  = "SWEEPER"
	dotEnvFile = ".env"
)

// LedgerDriver selects the ledger the sweeper runs against.
type LedgerDriver string

const (
	LedgerDriverMemory LedgerDriver = "memory"
	LedgerDriverEVM    LedgerDriver = "evm"
)

type LoggerServer struct {
	Level              zerolog.Level `mapstructure:"-"`
	LevelName          string        `mapstructure:"level"`
	PrettyPrintConsole bool          `mapstructure:"pretty_print_console"`
	LogRequestBody     bool          `mapstructure:"log_request_body"`
}

type EchoServer struct {
	ListenAddress   string        `mapstructure:"listen_address"`
	EnableRecover   bool          `mapstructure:"enable_recover"`
	EnableMetrics   bool          `mapstructure:"enable_metrics"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type Ledger struct {
	Driver      LedgerDriver `mapstructure:"driver"`
	FixtureFile string       `mapstructure:"fixture_file"`
}

type EVM struct {
	RPCURLs             []string      `mapstructure:"rpc_urls"`
	ChainID             int64         `mapstructure:"chain_id"`
	TokenAddress        string        `mapstructure:"token_address"`
	TokenGasLimit       uint64        `mapstructure:"token_gas_limit"`
	FeeMultiplier       int64         `mapstructure:"fee_multiplier"`
	ReceiptTimeout      time.Duration `mapstructure:"receipt_timeout"`
	ReceiptPollInterval time.Duration `mapstructure:"receipt_poll_interval"`
	RequestsPerSecond   float64       `mapstructure:"requests_per_second"`
	RequestBurst        int           `mapstructure:"request_burst"`
	Mnemonic            string        `mapstructure:"mnemonic" json:"-"`
	Passphrase          string        `mapstructure:"passphrase" json:"-"`
	KeystoreFile        string        `mapstructure:"keystore_file"`
	KeystorePassword    string        `mapstructure:"keystore_password" json:"-"`
	AddressCount        int           `mapstructure:"address_count"`
	EnableSigning       bool          `mapstructure:"enable_signing"`
}

type Sweep struct {
	Concurrency   int           `mapstructure:"concurrency"`
	WalletTimeout time.Duration `mapstructure:"wallet_timeout"`
	BatchTimeout  time.Duration `mapstructure:"batch_timeout"`
}

// Server holds the whole service configuration.
type Server struct {
	Logger LoggerServer `mapstructure:"logger"`
	Echo   EchoServer   `mapstructure:"echo"`
	Ledger Ledger       `mapstructure:"ledger"`
	EVM    EVM          `mapstructure:"evm"`
	Sweep  Sweep        `mapstructure:"sweep"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", zerolog.InfoLevel.String())
	v.SetDefault("logger.pretty_print_console", false)
	v.SetDefault("logger.log_request_body", false)

	v.SetDefault("echo.listen_address", ":8080")
	v.SetDefault("echo.enable_recover", true)
	v.SetDefault("echo.enable_metrics", true)
	v.SetDefault("echo.shutdown_timeout", 30*time.Second)

	v.SetDefault("ledger.driver", string(LedgerDriverMemory))
	v.SetDefault("ledger.fixture_file", "")

	v.SetDefault("evm.rpc_urls", []string{})
	v.SetDefault("evm.chain_id", 1)
	v.SetDefault("evm.token_address", "")
	v.SetDefault("evm.token_gas_limit", 120000)
	v.SetDefault("evm.fee_multiplier", 2)
	v.SetDefault("evm.receipt_timeout", 2*time.Minute)
	v.SetDefault("evm.receipt_poll_interval", 3*time.Second)
	v.SetDefault("evm.requests_per_second", 20.0)
	v.SetDefault("evm.request_burst", 5)
	v.SetDefault("evm.mnemonic", "")
	v.SetDefault("evm.passphrase", "")
	v.SetDefault("evm.keystore_file", "")
	v.SetDefault("evm.keystore_password", "")
	v.SetDefault("evm.address_count", 100)
	v.SetDefault("evm.enable_signing", false)

	v.SetDefault("sweep.concurrency", 1)
	v.SetDefault("sweep.wallet_timeout", 5*time.Minute)
	v.SetDefault("sweep.batch_timeout", time.Duration(0))
}

// Load reads the configuration from the environment. Variables use the
// SWEEPER_ prefix with dots replaced by underscores, e.g. SWEEPER_EVM_RPC_URLS.
func Load() (Server, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	var cfg Server
	if err := v.Unmarshal(&cfg); err != nil {
		return Server{}, errors.Wrap(err, "failed to decode configuration")
	}

	level, err := zerolog.ParseLevel(cfg.Logger.LevelName)
	if err != nil {
		return Server{}, errors.Wrapf(err, "invalid log level %q", cfg.Logger.LevelName)
	}
	cfg.Logger.Level = level

	if err := cfg.Validate(); err != nil {
		return Server{}, err
	}

	return cfg, nil
}

// DefaultServiceConfigFromEnv returns the configuration from a .env file (if
// present) and the environment. Invalid configuration is fatal.
func DefaultServiceConfigFromEnv() Server {
	// a missing .env file is fine
	_ = gotenv.Load(dotEnvFile)

	cfg, err := Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	return cfg
}

// Validate checks the settings the selected ledger driver depends on.
func (c Server) Validate() error {
	switch c.Ledger.Driver {
	case LedgerDriverMemory:
	case LedgerDriverEVM:
		if len(c.EVM.RPCURLs) == 0 {
			return errors.New("evm.rpc_urls is required for the evm ledger")
		}
		if c.EVM.TokenAddress == "" {
			return errors.New("evm.token_address is required for the evm ledger")
		}
		if c.EVM.Mnemonic == "" && c.EVM.KeystoreFile == "" {
			return errors.New("evm.mnemonic or evm.keystore_file is required for the evm ledger")
		}
		if c.EVM.AddressCount < 1 {
			return errors.New("evm.address_count must be positive")
		}
	default:
		return errors.Errorf("unknown ledger driver %q", c.Ledger.Driver)
	}

	if c.Sweep.Concurrency < 1 {
		return errors.New("sweep.concurrency must be at least 1")
	}

	return nil
}
