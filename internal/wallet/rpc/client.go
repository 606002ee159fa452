package rpc

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// ErrUnavailable is returned when no configured node answers.
var ErrUnavailable = errors.New("all RPC clients are unavailable")

var balanceOfMethodID = common.Hex2Bytes("70a08231")

const (
	abiPaddedAddressLength = 32

	// a node is taken out of rotation after this many failed health checks
	breakerFailureThreshold = 3
	breakerOpenTimeout      = 30 * time.Second
)

// Client wraps several ethclient connections with failover, a circuit breaker
// per node and a shared request rate limit.
type Client struct {
	urls     []string
	clients  []*ethclient.Client
	breakers []*gobreaker.CircuitBreaker
	limiter  *rate.Limiter
	mu       sync.RWMutex
	current  int
}

// NewClient dials every URL. Unreachable nodes are retried on use, but at
// least one node has to be reachable now.
func NewClient(urls []string, limiter *rate.Limiter) (*Client, error) {
	if len(urls) == 0 {
		return nil, errors.New("at least one RPC URL is required")
	}

	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 0)
	}

	clients := make([]*ethclient.Client, 0, len(urls))
	for _, url := range urls {
		client, err := ethclient.Dial(url)
		if err != nil {
			log.Warn().
				Str("url", url).
				Err(err).
				Msg("Failed to connect to RPC node, will retry on use")
			clients = append(clients, nil)
			continue
		}
		clients = append(clients, client)
	}

	if allClientsNil(clients) {
		return nil, errors.Wrap(ErrUnavailable, "failed to connect to any RPC node")
	}

	breakers := make([]*gobreaker.CircuitBreaker, 0, len(urls))
	for _, url := range urls {
		breakers = append(breakers, newBreaker(url))
	}

	return &Client{
		urls:     urls,
		clients:  clients,
		breakers: breakers,
		limiter:  limiter,
	}, nil
}

func newBreaker(url string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    url,
		Timeout: breakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailureThreshold
		},
		IsSuccessful: func(err error) bool {
			// the caller giving up says nothing about the node
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn().
				Str("url", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("RPC node circuit breaker changed state")
		},
	})
}

func allClientsNil(clients []*ethclient.Client) bool {
	for _, client := range clients {
		if client != nil {
			return false
		}
	}
	return true
}

// Close closes every connection.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, client := range c.clients {
		if client != nil {
			client.Close()
		}
	}
}

// HeaderByNumber returns a block header, the latest one for a nil number.
func (c *Client) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	client, err := c.getClient(ctx)
	if err != nil {
		return nil, err
	}

	header, err := client.HeaderByNumber(ctx, number)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get block header")
	}

	return header, nil
}

// GetTransactionReceipt returns the receipt of a mined transaction.
func (c *Client) GetTransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	client, err := c.getClient(ctx)
	if err != nil {
		return nil, err
	}

	receipt, err := client.TransactionReceipt(ctx, txHash)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction receipt")
	}

	return receipt, nil
}

// SendTransaction broadcasts a signed transaction.
func (c *Client) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	client, err := c.getClient(ctx)
	if err != nil {
		return err
	}

	if err := client.SendTransaction(ctx, tx); err != nil {
		return errors.Wrap(err, "failed to send transaction")
	}

	return nil
}

// SuggestGasTipCap returns the suggested EIP-1559 priority fee.
func (c *Client) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	client, err := c.getClient(ctx)
	if err != nil {
		return nil, err
	}

	tipCap, err := client.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to suggest gas tip cap")
	}

	return tipCap, nil
}

// BalanceAt returns the native balance of an address at the latest block.
func (c *Client) BalanceAt(ctx context.Context, address common.Address) (*big.Int, error) {
	client, err := c.getClient(ctx)
	if err != nil {
		return nil, err
	}

	balance, err := client.BalanceAt(ctx, address, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get balance")
	}

	return balance, nil
}

// PendingNonceAt returns the pending nonce for the given address.
func (c *Client) PendingNonceAt(ctx context.Context, address common.Address) (uint64, error) {
	client, err := c.getClient(ctx)
	if err != nil {
		return 0, err
	}

	nonce, err := client.PendingNonceAt(ctx, address)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get pending nonce")
	}

	return nonce, nil
}

// TokenBalance returns the ERC20 balance of account.
func (c *Client) TokenBalance(ctx context.Context, tokenAddress, account common.Address) (*big.Int, error) {
	client, err := c.getClient(ctx)
	if err != nil {
		return nil, err
	}

	callMsg := ethereum.CallMsg{
		To:   &tokenAddress,
		Data: BalanceOfData(account),
	}

	resp, err := client.CallContract(ctx, callMsg, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to call balanceOf")
	}

	return new(big.Int).SetBytes(resp), nil
}

// BalanceOfData encodes an ERC20 balanceOf(address) call.
func BalanceOfData(account common.Address) []byte {
	data := make([]byte, 0, len(balanceOfMethodID)+abiPaddedAddressLength)
	data = append(data, balanceOfMethodID...)
	data = append(data, common.LeftPadBytes(account.Bytes(), abiPaddedAddressLength)...)
	return data
}

// getClient waits for the rate limiter and returns the first healthy node,
// starting from the last one that answered.
func (c *Client) getClient(ctx context.Context) (*ethclient.Client, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "rate limiter wait failed")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.clients {
		idx := (c.current + i) % len(c.clients)

		_, err := c.breakers[idx].Execute(func() (interface{}, error) {
			if c.clients[idx] == nil {
				client, err := ethclient.DialContext(ctx, c.urls[idx])
				if err != nil {
					return nil, errors.Wrap(err, "RPC reconnect failed")
				}
				c.clients[idx] = client
			}

			// cheap health check
			return c.clients[idx].ChainID(ctx)
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, errors.Wrap(ctx.Err(), "context done while selecting RPC client")
			}

			if !errors.Is(err, gobreaker.ErrOpenState) {
				log.Warn().
					Str("url", c.urls[idx]).
					Err(err).
					Msg("RPC client health check failed, trying next node")
			}
			continue
		}

		c.current = idx
		return c.clients[idx], nil
	}

	return nil, ErrUnavailable
}
