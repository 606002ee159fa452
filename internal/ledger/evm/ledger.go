// Package evm implements the sweep ledger on top of an EVM JSON-RPC node. The
// gas asset is the native coin, the sweep asset is one ERC20 token.
package evm

import (
	"context"
	"math/big"
	"strings"
	"time"

	"github/chapool/go-sweeper/internal/sweep"
	"github/chapool/go-sweeper/internal/wallet/rpc"
	"github/chapool/go-sweeper/internal/wallet/signer"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	nativeTransferGasLimit     uint64 = 21000
	abiPaddedAddressLength            = 32
	defaultReceiptTimeout             = 2 * time.Minute
	defaultReceiptPollInterval        = 3 * time.Second
)

var erc20TransferMethodID = common.FromHex("a9059cbb")

// Node is the subset of the RPC client the ledger needs.
type Node interface {
	BalanceAt(ctx context.Context, address common.Address) (*big.Int, error)
	TokenBalance(ctx context.Context, tokenAddress, account common.Address) (*big.Int, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	PendingNonceAt(ctx context.Context, address common.Address) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	GetTransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// Config holds the chain parameters of the ledger.
type Config struct {
	ChainID             int64
	TokenAddress        common.Address
	TokenGasLimit       uint64
	FeeMultiplier       int64
	ReceiptTimeout      time.Duration
	ReceiptPollInterval time.Duration
}

// Ledger implements sweep.Ledger for one EVM chain and one ERC20 token.
type Ledger struct {
	node   Node
	signer signer.Service
	cfg    Config
}

var _ sweep.Ledger = (*Ledger)(nil)

// New creates an EVM ledger.
func New(node Node, signerService signer.Service, cfg Config) (*Ledger, error) {
	if node == nil || signerService == nil {
		return nil, errors.New("node and signer are required")
	}

	if cfg.TokenAddress == (common.Address{}) {
		return nil, errors.New("token address is required")
	}

	if cfg.TokenGasLimit == 0 {
		return nil, errors.New("token gas limit must be positive")
	}

	if cfg.FeeMultiplier < 1 {
		cfg.FeeMultiplier = 1
	}

	if cfg.ReceiptTimeout <= 0 {
		cfg.ReceiptTimeout = defaultReceiptTimeout
	}

	if cfg.ReceiptPollInterval <= 0 {
		cfg.ReceiptPollInterval = defaultReceiptPollInterval
	}

	return &Ledger{
		node:   node,
		signer: signerService,
		cfg:    cfg,
	}, nil
}

// GetBalance implements sweep.Ledger.
func (l *Ledger) GetBalance(ctx context.Context, wallet sweep.WalletID, asset sweep.Asset) (*big.Int, error) {
	addr, err := parseWallet(wallet)
	if err != nil {
		return nil, err
	}

	var balance *big.Int
	switch asset {
	case sweep.GasAsset:
		balance, err = l.node.BalanceAt(ctx, addr)
	case sweep.SweepAsset:
		balance, err = l.node.TokenBalance(ctx, l.cfg.TokenAddress, addr)
	default:
		return nil, errors.Errorf("unsupported asset %q", asset)
	}

	if err != nil {
		return nil, classify(err, "failed to query balance")
	}

	return balance, nil
}

// GetFee implements sweep.Ledger. The quote is the EIP-1559 max fee of one
// token transfer.
func (l *Ledger) GetFee(ctx context.Context) (*big.Int, error) {
	q, err := l.quote(ctx, l.cfg.TokenGasLimit)
	if err != nil {
		return nil, err
	}

	return q.fee, nil
}

// Transfer implements sweep.Ledger. Balances are checked again against a fresh
// quote before the transaction is signed and broadcast, and the call returns
// once the receipt is available.
func (l *Ledger) Transfer(ctx context.Context, from sweep.WalletID, to sweep.WalletID, asset sweep.Asset, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return errors.New("transfer amount must be positive")
	}

	fromAddr, err := parseWallet(from)
	if err != nil {
		return err
	}

	toAddr, err := parseWallet(to)
	if err != nil {
		return err
	}

	var (
		gasLimit uint64
		txTo     common.Address
		value    = big.NewInt(0)
		data     []byte
	)

	switch asset {
	case sweep.SweepAsset:
		gasLimit = l.cfg.TokenGasLimit
		txTo = l.cfg.TokenAddress
		data = TransferData(toAddr, amount)
	case sweep.GasAsset:
		gasLimit = nativeTransferGasLimit
		txTo = toAddr
		value = amount
	default:
		return errors.Errorf("unsupported asset %q", asset)
	}

	q, err := l.quote(ctx, gasLimit)
	if err != nil {
		return err
	}

	if err := l.checkFunds(ctx, fromAddr, asset, amount, q.fee); err != nil {
		return err
	}

	nonce, err := l.node.PendingNonceAt(ctx, fromAddr)
	if err != nil {
		return classify(err, "failed to fetch pending nonce")
	}

	signResp, err := l.signer.SignEVMTransaction(ctx, &signer.SignEVMRequest{
		ChainID:              l.cfg.ChainID,
		From:                 fromAddr,
		To:                   txTo,
		Value:                value.String(),
		GasLimit:             gasLimit,
		MaxFeePerGas:         q.maxFee.String(),
		MaxPriorityFeePerGas: q.tipCap.String(),
		Nonce:                nonce,
		Data:                 data,
	})
	if err != nil {
		return errors.Wrap(err, "failed to sign sweep transaction")
	}

	txObj := new(types.Transaction)
	if err := txObj.UnmarshalBinary(signResp.RawTransaction); err != nil {
		return errors.Wrap(err, "failed to decode signed transaction")
	}

	if err := l.node.SendTransaction(ctx, txObj); err != nil {
		return classify(err, "failed to broadcast sweep transaction")
	}

	receipt, err := l.waitForReceipt(ctx, txObj.Hash())
	if err != nil {
		return errors.Wrapf(err, "failed while waiting for receipt of %s", txObj.Hash().Hex())
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		return errors.Errorf("sweep transaction %s reverted", txObj.Hash().Hex())
	}

	log.Info().
		Str("from", fromAddr.Hex()).
		Str("to", toAddr.Hex()).
		Str("asset", string(asset)).
		Str("amount", amount.String()).
		Str("tx_hash", txObj.Hash().Hex()).
		Uint64("gas_used", receipt.GasUsed).
		Msg("EVMLedger: transfer confirmed")

	return nil
}

type feeQuote struct {
	tipCap *big.Int
	maxFee *big.Int
	fee    *big.Int
}

func (l *Ledger) quote(ctx context.Context, gasLimit uint64) (*feeQuote, error) {
	tipCap, err := l.node.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, classify(err, "failed to suggest gas tip cap")
	}

	header, err := l.node.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, classify(err, "failed to fetch latest block header")
	}

	baseFee := header.BaseFee
	if baseFee == nil {
		baseFee = big.NewInt(0)
	}

	maxFee := new(big.Int).Add(
		new(big.Int).Mul(baseFee, big.NewInt(l.cfg.FeeMultiplier)),
		tipCap,
	)

	return &feeQuote{
		tipCap: tipCap,
		maxFee: maxFee,
		fee:    new(big.Int).Mul(maxFee, new(big.Int).SetUint64(gasLimit)),
	}, nil
}

func (l *Ledger) checkFunds(ctx context.Context, from common.Address, asset sweep.Asset, amount *big.Int, fee *big.Int) error {
	native, err := l.node.BalanceAt(ctx, from)
	if err != nil {
		return classify(err, "failed to query native balance")
	}

	required := new(big.Int).Set(fee)
	if asset == sweep.GasAsset {
		required.Add(required, amount)
	}

	if native.Cmp(required) < 0 {
		return errors.Wrapf(sweep.ErrInsufficientFunds, "native balance %s below required %s", native, required)
	}

	if asset != sweep.SweepAsset {
		return nil
	}

	token, err := l.node.TokenBalance(ctx, l.cfg.TokenAddress, from)
	if err != nil {
		return classify(err, "failed to query token balance")
	}

	if token.Cmp(amount) < 0 {
		return errors.Wrapf(sweep.ErrInsufficientFunds, "token balance %s below amount %s", token, amount)
	}

	return nil
}

func (l *Ledger) waitForReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	localCtx, cancel := context.WithTimeout(ctx, l.cfg.ReceiptTimeout)
	defer cancel()

	ticker := time.NewTicker(l.cfg.ReceiptPollInterval)
	defer ticker.Stop()

	for {
		receipt, err := l.node.GetTransactionReceipt(localCtx, txHash)
		if err == nil {
			return receipt, nil
		}

		if !errors.Is(err, ethereum.NotFound) {
			return nil, err
		}

		select {
		case <-localCtx.Done():
			return nil, errors.Wrap(localCtx.Err(), "context done while waiting for receipt")
		case <-ticker.C:
		}
	}
}

// TransferData encodes an ERC20 transfer(address,uint256) call.
func TransferData(to common.Address, amount *big.Int) []byte {
	data := make([]byte, 0, len(erc20TransferMethodID)+abiPaddedAddressLength*2)
	data = append(data, erc20TransferMethodID...)
	data = append(data, common.LeftPadBytes(to.Bytes(), abiPaddedAddressLength)...)
	data = append(data, common.LeftPadBytes(amount.Bytes(), abiPaddedAddressLength)...)
	return data
}

func parseWallet(wallet sweep.WalletID) (common.Address, error) {
	if !common.IsHexAddress(string(wallet)) {
		return common.Address{}, errors.Errorf("wallet %q is not an EVM address", wallet)
	}
	return common.HexToAddress(string(wallet)), nil
}

// classify maps node errors onto the sweep error kinds.
func classify(err error, msg string) error {
	switch {
	case errors.Is(err, rpc.ErrUnavailable):
		return errors.Wrapf(sweep.ErrLedgerUnavailable, "%s: %v", msg, err)
	case strings.Contains(strings.ToLower(err.Error()), "insufficient funds"):
		return errors.Wrapf(sweep.ErrInsufficientFunds, "%s: %v", msg, err)
	default:
		return errors.Wrap(err, msg)
	}
}
