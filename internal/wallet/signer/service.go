package signer

import (
	"context"

	"github/chapool/go-sweeper/internal/wallet/address"
	"github/chapool/go-sweeper/internal/wallet/seed"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// ErrSigningDisabled is returned when signing is turned off in the configuration.
var ErrSigningDisabled = errors.New("transaction signing is disabled")

// Service signs transactions for managed wallets.
type Service interface {
	// SignEVMTransaction signs an EIP-1559 transaction from a managed address.
	SignEVMTransaction(ctx context.Context, req *SignEVMRequest) (*SignEVMResponse, error)
}

// SignEVMRequest represents a request to sign an EVM transaction.
type SignEVMRequest struct {
	ChainID              int64
	From                 common.Address
	To                   common.Address
	Value                string // wei, decimal
	GasLimit             uint64
	MaxFeePerGas         string // wei, decimal
	MaxPriorityFeePerGas string // wei, decimal
	Nonce                uint64
	Data                 []byte
}

// SignEVMResponse represents a signed EVM transaction.
type SignEVMResponse struct {
	RawTransaction []byte // RLP encoded
	TxHash         common.Hash
}

type service struct {
	seedManager   seed.Manager
	index         *address.Index
	enableSigning bool
}

// NewService creates a signer for the addresses in index.
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewService(seedManager seed.Manager, index *address.Index, enableSigning bool) (Service, error) {
	if seedManager == nil || index == nil {
		return nil, errors.New("seed manager and address index are required")
	}

	return &service{
		seedManager:   seedManager,
		index:         index,
		enableSigning: enableSigning,
	}, nil
}

func (s *service) SignEVMTransaction(ctx context.Context, req *SignEVMRequest) (*SignEVMResponse, error) {
	if !s.enableSigning {
		return nil, ErrSigningDisabled
	}

	path, ok := s.index.Path(req.From)
	if !ok {
		return nil, errors.Errorf("address %s is not a managed wallet", req.From.Hex())
	}

	seed := s.seedManager.GetSeed()
	if seed == nil {
		return nil, errors.New("seed not initialized")
	}
	defer clear(seed)

	privateKey, err := address.DerivePrivateKey(seed, path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive private key")
	}
	defer clear(privateKey)

	return s.signEIP1559Transaction(ctx, req, privateKey)
}
