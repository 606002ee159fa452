package address

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// Index maps the addresses of the managed sub-wallets to their derivation
// paths so a key can be found for a source wallet.
type Index struct {
	mu    sync.RWMutex
	paths map[common.Address]string
	order []common.Address
}

// NewIndex derives the first count managed addresses from seed.
func NewIndex(seed []byte, count int) (*Index, error) {
	if len(seed) == 0 {
		return nil, errors.New("seed not initialized")
	}

	idx := &Index{
		paths: make(map[common.Address]string, count),
		order: make([]common.Address, 0, count),
	}

	for i := range count {
		path := BIP44Path(i)
		addr, err := DeriveAddress(seed, path)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to derive managed address %d", i)
		}
		idx.paths[addr] = path
		idx.order = append(idx.order, addr)
	}

	return idx, nil
}

// Path returns the derivation path of a managed address.
func (i *Index) Path(addr common.Address) (string, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	path, ok := i.paths[addr]
	return path, ok
}

// Addresses returns the managed addresses in derivation order.
func (i *Index) Addresses() []common.Address {
	i.mu.RLock()
	defer i.mu.RUnlock()

	return append([]common.Address(nil), i.order...)
}

// Len returns the number of managed addresses.
func (i *Index) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()

	return len(i.order)
}
