package wallet

import (
	"github/chapool/go-sweeper/internal/wallet/address"
	"github/chapool/go-sweeper/internal/wallet/keystore"
	"github/chapool/go-sweeper/internal/wallet/seed"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	// VerificationAddressIndex is the address index used for passphrase verification
	VerificationAddressIndex = 0
)

// ErrVerificationMismatch means the seed derives other addresses than the ones
// the keystore was created for, usually because of a wrong passphrase.
var ErrVerificationMismatch = errors.New("derived address does not match keystore verification address")

// VerificationAddress derives the address at VerificationAddressIndex.
func VerificationAddress(seedManager seed.Manager) (common.Address, error) {
	s := seedManager.GetSeed()
	if s == nil {
		return common.Address{}, errors.New("seed not initialized")
	}

	addr, err := address.DeriveAddress(s, address.BIP44Path(VerificationAddressIndex))
	if err != nil {
		return common.Address{}, errors.Wrap(err, "failed to derive verification address")
	}

	return addr, nil
}

// VerifyAddress compares the verification address of the seed with the one
// recorded in the keystore. Keystores without one are accepted.
func VerifyAddress(seedManager seed.Manager, ks *keystore.KeystoreJSON) error {
	log := log.With().Str("component", "passphrase_verification").Logger()

	if ks.Address == "" {
		log.Warn().Msg("Keystore has no verification address, skipping verification")
		return nil
	}

	derived, err := VerificationAddress(seedManager)
	if err != nil {
		return err
	}

	if !common.IsHexAddress(ks.Address) || derived != common.HexToAddress(ks.Address) {
		log.Warn().
			Str("derived", derived.Hex()).
			Str("stored", ks.Address).
			Msg("Verification failed: addresses do not match")
		return ErrVerificationMismatch
	}

	log.Debug().Msg("Verification successful")
	return nil
}
