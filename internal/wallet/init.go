package wallet

import (
	"fmt"
	"os"
	"syscall"

	"github/chapool/go-sweeper/internal/config"
	"github/chapool/go-sweeper/internal/wallet/keystore"
	"github/chapool/go-sweeper/internal/wallet/seed"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
)

const minPasswordLength = 8

// UnlockSeed initializes a seed manager from the configured key material.
// An encrypted keystore file takes precedence over a plain mnemonic. Without a
// configured keystore password the password is read from the terminal.
//
//nolint:ireturn // Returning interface is intentional
func UnlockSeed(cfg config.EVM) (seed.Manager, error) {
	log := log.With().Str("component", "wallet_init").Logger()

	seedManager := seed.NewManager()

	if cfg.KeystoreFile == "" {
		if err := seedManager.Initialize(cfg.Mnemonic, cfg.Passphrase); err != nil {
			return nil, errors.Wrap(err, "failed to initialize seed manager")
		}

		log.Warn().Msg("Seed initialized from a plain text mnemonic, consider an encrypted keystore file")
		return seedManager, nil
	}

	//nolint:varnamelen // ks is a common abbreviation for keystore
	ks, err := keystore.ReadFile(cfg.KeystoreFile)
	if err != nil {
		return nil, err
	}

	password := cfg.KeystorePassword
	if password == "" {
		log.Info().Str("keystore_file", cfg.KeystoreFile).Msg("Keystore found. Please enter password to unlock...")

		password, err = PromptPassword("Enter keystore password: ")
		if err != nil {
			return nil, errors.Wrap(err, "failed to read password")
		}
	}

	mnemonic, err := keystore.Decrypt(ks, password)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decrypt keystore")
	}

	if err := seedManager.Initialize(mnemonic, cfg.Passphrase); err != nil {
		return nil, errors.Wrap(err, "failed to initialize seed manager")
	}

	if err := VerifyAddress(seedManager, ks); err != nil {
		seedManager.Clear()
		return nil, err
	}

	log.Info().Msg("Keystore unlocked, seed manager initialized")

	return seedManager, nil
}

// CreateKeystore encrypts mnemonic with password and records the verification
// address derived with passphrase.
func CreateKeystore(mnemonic string, password string, passphrase string, params *keystore.ScryptParams) (*keystore.KeystoreJSON, error) {
	if len(password) < minPasswordLength {
		return nil, errors.Errorf("password must be at least %d characters", minPasswordLength)
	}

	seedManager := seed.NewManager()
	if err := seedManager.Initialize(mnemonic, passphrase); err != nil {
		return nil, errors.Wrap(err, "invalid mnemonic")
	}
	defer seedManager.Clear()

	addr, err := VerificationAddress(seedManager)
	if err != nil {
		return nil, err
	}

	//nolint:varnamelen // ks is a common abbreviation for keystore
	ks, err := keystore.Encrypt(mnemonic, password, params)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encrypt mnemonic")
	}
	ks.Address = addr.Hex()

	return ks, nil
}

// PromptPassword reads a password from the terminal without echoing it.
//
//nolint:forbidigo // Password input requires direct terminal I/O
func PromptPassword(prompt string) (string, error) {
	if !term.IsTerminal(syscall.Stdin) {
		return "", errors.New("stdin is not a terminal, configure the password instead")
	}

	fmt.Fprint(os.Stderr, prompt)

	passwordBytes, err := term.ReadPassword(syscall.Stdin)
	if err != nil {
		return "", errors.Wrap(err, "failed to read password from terminal")
	}

	fmt.Fprintln(os.Stderr)

	return string(passwordBytes), nil
}
