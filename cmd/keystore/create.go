package keystore

import (
	"fmt"
	"strings"

	"github/chapool/go-sweeper/internal/config"
	"github/chapool/go-sweeper/internal/wallet"
	walletKeystore "github/chapool/go-sweeper/internal/wallet/keystore"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const (
	outFlag   string = "out"
	lightFlag string = "light"
)

func newCreate() *cobra.Command {
	var (
		out   string
		light bool
	)

	cmd := &cobra.Command{
		Use:   "create --out <file>",
		Short: "Encrypts a mnemonic into a keystore file",
		Long: `Encrypts the BIP39 mnemonic of the managed wallets into a keystore file.

Mnemonic and password are taken from SWEEPER_EVM_MNEMONIC and
SWEEPER_EVM_KEYSTORE_PASSWORD, or read from the terminal if unset.
The first managed address is stored alongside to detect a wrong
SWEEPER_EVM_PASSPHRASE on unlock. Existing files are never overwritten.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.DefaultServiceConfigFromEnv()

			mnemonic, password, err := readSecrets(cfg.EVM)
			if err != nil {
				return err
			}

			params := walletKeystore.DefaultScryptParams()
			if light {
				params = walletKeystore.LightScryptParams()
			}

			//nolint:varnamelen // ks is a common abbreviation for keystore
			ks, err := wallet.CreateKeystore(mnemonic, password, cfg.EVM.Passphrase, params)
			if err != nil {
				return errors.Wrap(err, "failed to create keystore")
			}

			if err := walletKeystore.WriteFile(out, ks); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Keystore written to %s, verification address %s\n", out, ks.Address)
			return nil
		},
	}

	cmd.Flags().StringVar(&out, outFlag, "keystore.json", "Keystore file to create")
	cmd.Flags().BoolVar(&light, lightFlag, false, "Use light scrypt parameters (development only)")

	return cmd
}

func readSecrets(cfg config.EVM) (string, string, error) {
	mnemonic := cfg.Mnemonic
	if mnemonic == "" {
		m, err := wallet.PromptPassword("Enter mnemonic: ")
		if err != nil {
			return "", "", errors.Wrap(err, "failed to read mnemonic")
		}
		mnemonic = strings.Join(strings.Fields(m), " ")
	}

	if cfg.KeystorePassword != "" {
		return mnemonic, cfg.KeystorePassword, nil
	}

	password, err := wallet.PromptPassword("Enter password for keystore (min 8 characters): ")
	if err != nil {
		return "", "", errors.Wrap(err, "failed to read password")
	}

	passwordConfirm, err := wallet.PromptPassword("Confirm password: ")
	if err != nil {
		return "", "", errors.Wrap(err, "failed to read password confirmation")
	}

	if password != passwordConfirm {
		return "", "", errors.New("passwords do not match")
	}

	return mnemonic, password, nil
}
