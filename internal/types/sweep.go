package types

import (
	"github.com/go-openapi/swag"
	"github.com/pkg/errors"
)

// PostSweepPayload is the body of POST /api/v1/sweep.
type PostSweepPayload struct {
	// source wallets, evaluated in this order
	Sources []string `json:"sources"`

	// Required: true
	Destination *string `json:"destination"`
}

// Validate checks the payload.
func (m *PostSweepPayload) Validate() error {
	if swag.StringValue(m.Destination) == "" {
		return errors.New("destination is required")
	}

	for i, source := range m.Sources {
		if source == "" {
			return errors.Errorf("sources[%d] must not be empty", i)
		}
	}

	return nil
}

// PostSweepWalletPayload is the body of POST /api/v1/sweep/wallet.
type PostSweepWalletPayload struct {
	// Required: true
	Wallet *string `json:"wallet"`

	// Required: true
	Destination *string `json:"destination"`
}

// Validate checks the payload.
func (m *PostSweepWalletPayload) Validate() error {
	if swag.StringValue(m.Wallet) == "" {
		return errors.New("wallet is required")
	}

	if swag.StringValue(m.Destination) == "" {
		return errors.New("destination is required")
	}

	return nil
}
