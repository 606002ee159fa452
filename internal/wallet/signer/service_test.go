package signer_test

import (
	"math/big"
	"testing"

	"github/chapool/go-sweeper/internal/wallet/address"
	"github/chapool/go-sweeper/internal/wallet/seed"
	"github/chapool/go-sweeper/internal/wallet/signer"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//nolint:dupword // BIP39 test vector
const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func newSigner(t *testing.T, enable bool) (signer.Service, *address.Index) {
	t.Helper()

	m := seed.NewManager()
	require.NoError(t, m.Initialize(testMnemonic, ""))

	idx, err := address.NewIndex(m.GetSeed(), 2)
	require.NoError(t, err)

	s, err := signer.NewService(m, idx, enable)
	require.NoError(t, err)
	return s, idx
}

func TestSignEVMTransaction(t *testing.T) {
	s, idx := newSigner(t, true)
	from := idx.Addresses()[1]
	to := common.HexToAddress("0x00000000000000000000000000000000000000aa")

	resp, err := s.SignEVMTransaction(t.Context(), &signer.SignEVMRequest{
		ChainID:              1337,
		From:                 from,
		To:                   to,
		Value:                "0",
		GasLimit:             120000,
		MaxFeePerGas:         "2000",
		MaxPriorityFeePerGas: "1000",
		Nonce:                4,
		Data:                 []byte{0xa9, 0x05, 0x9c, 0xbb},
	})
	require.NoError(t, err)

	tx := new(types.Transaction)
	require.NoError(t, tx.UnmarshalBinary(resp.RawTransaction))
	assert.Equal(t, resp.TxHash, tx.Hash())
	assert.Equal(t, uint64(4), tx.Nonce())
	assert.Equal(t, to, *tx.To())
	assert.Equal(t, big.NewInt(2000), tx.GasFeeCap())

	sender, err := types.Sender(types.NewLondonSigner(big.NewInt(1337)), tx)
	require.NoError(t, err)
	assert.Equal(t, from, sender)
}

func TestSignEVMTransactionUnknownAddress(t *testing.T) {
	s, _ := newSigner(t, true)

	_, err := s.SignEVMTransaction(t.Context(), &signer.SignEVMRequest{
		ChainID: 1,
		From:    common.HexToAddress("0x00000000000000000000000000000000000000bb"),
		Value:   "0",
	})
	require.Error(t, err)
}

func TestSignEVMTransactionDisabled(t *testing.T) {
	s, idx := newSigner(t, false)

	_, err := s.SignEVMTransaction(t.Context(), &signer.SignEVMRequest{
		ChainID: 1,
		From:    idx.Addresses()[0],
		Value:   "0",
	})
	require.ErrorIs(t, err, signer.ErrSigningDisabled)
}

func TestSignEVMTransactionInvalidValue(t *testing.T) {
	s, idx := newSigner(t, true)

	_, err := s.SignEVMTransaction(t.Context(), &signer.SignEVMRequest{
		ChainID:              1,
		From:                 idx.Addresses()[0],
		Value:                "ten",
		MaxFeePerGas:         "1",
		MaxPriorityFeePerGas: "1",
	})
	require.Error(t, err)
}
