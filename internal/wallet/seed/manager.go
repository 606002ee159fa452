package seed

import (
	"crypto/sha512"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/crypto/pbkdf2"
)

const (
	pbkdf2Iterations = 2048 // BIP39
	pbkdf2KeyLength  = 64
	minMnemonicWords = 12
)

// Manager holds the master seed the managed sub-wallets are derived from.
type Manager interface {
	// Initialize derives the seed from a BIP39 mnemonic and optional passphrase.
	Initialize(mnemonic string, passphrase string) error
	// GetSeed returns a copy of the seed, nil before Initialize.
	GetSeed() []byte
	IsInitialized() bool
	// Clear wipes the seed from memory.
	Clear()
}

type manager struct {
	seed []byte
	mu   sync.RWMutex
}

// NewManager creates an empty seed manager.
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewManager() Manager {
	return &manager{}
}

func (m *manager) Initialize(mnemonic string, passphrase string) error {
	words := strings.Fields(mnemonic)
	if len(words) < minMnemonicWords {
		return errors.Errorf("mnemonic must have at least %d words, got %d", minMnemonicWords, len(words))
	}

	// BIP39: seed = PBKDF2(mnemonic, "mnemonic" + passphrase, 2048, 64, SHA512)
	seed := pbkdf2.Key(
		[]byte(strings.Join(words, " ")),
		[]byte("mnemonic"+passphrase),
		pbkdf2Iterations,
		pbkdf2KeyLength,
		sha512.New,
	)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.wipeLocked()
	m.seed = seed

	return nil
}

func (m *manager) GetSeed() []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.seed == nil {
		return nil
	}

	seedCopy := make([]byte, len(m.seed))
	copy(seedCopy, m.seed)
	return seedCopy
}

func (m *manager) IsInitialized() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.seed != nil
}

func (m *manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.wipeLocked()
}

func (m *manager) wipeLocked() {
	for i := range m.seed {
		m.seed[i] = 0
	}
	m.seed = nil
}
