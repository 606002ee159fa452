package keystore_test

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github/chapool/go-sweeper/cmd/keystore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//nolint:dupword // Test mnemonic with repeated words
const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func TestCreateAndListAddresses(t *testing.T) {
	t.Setenv("SWEEPER_EVM_MNEMONIC", testMnemonic)
	t.Setenv("SWEEPER_EVM_KEYSTORE_PASSWORD", "password1")

	path := filepath.Join(t.TempDir(), "keystore.json")

	var out bytes.Buffer
	cmd := keystore.New()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"create", "--out", path, "--light"})
	require.NoError(t, cmd.ExecuteContext(t.Context()))
	assert.Contains(t, out.String(), "0x9858EfFD232B4033E47d90003D41EC34EcaEda94")

	// unlock from the keystore only
	t.Setenv("SWEEPER_EVM_MNEMONIC", "")
	t.Setenv("SWEEPER_EVM_KEYSTORE_FILE", path)

	out.Reset()
	cmd = keystore.New()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"addresses", "--count", "2", "--plain"})
	require.NoError(t, cmd.ExecuteContext(t.Context()))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "0x9858EfFD232B4033E47d90003D41EC34EcaEda94", lines[0])
}
