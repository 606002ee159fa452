package seed_test

import (
	"encoding/hex"
	"testing"

	"github/chapool/go-sweeper/internal/wallet/seed"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//nolint:dupword // BIP39 test vector
const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func TestInitializeBIP39Vector(t *testing.T) {
	m := seed.NewManager()
	assert.False(t, m.IsInitialized())
	assert.Nil(t, m.GetSeed())

	require.NoError(t, m.Initialize(testMnemonic, "TREZOR"))
	assert.True(t, m.IsInitialized())

	// BIP39 reference vector for the mnemonic above with passphrase TREZOR
	assert.Equal(t,
		"c55257c360c07c72029aebc1b53c05ed0362ada38ead3e3e9efa3708e53495531f09a6987599d18264c1e1c92f2cf141630c7a3c4ab7c81b2f001698e7463b04",
		hex.EncodeToString(m.GetSeed()))
}

func TestGetSeedReturnsCopy(t *testing.T) {
	m := seed.NewManager()
	require.NoError(t, m.Initialize(testMnemonic, ""))

	s := m.GetSeed()
	s[0] ^= 0xff

	assert.NotEqual(t, s, m.GetSeed())
}

func TestInitializeRejectsShortMnemonic(t *testing.T) {
	m := seed.NewManager()
	require.Error(t, m.Initialize("abandon about", ""))
	assert.False(t, m.IsInitialized())
}

func TestClear(t *testing.T) {
	m := seed.NewManager()
	require.NoError(t, m.Initialize(testMnemonic, ""))

	m.Clear()
	assert.False(t, m.IsInitialized())
	assert.Nil(t, m.GetSeed())
}
