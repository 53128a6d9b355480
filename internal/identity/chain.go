package identity

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/wowzarush/backend/internal/retry"
)

// ERC20 minimal ABI for balanceOf
const erc20ABI = `[
	{"constant":true,"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"type":"function"}
]`

// TokenDecimals is the decimal precision of the platform token (USDC).
const TokenDecimals = 6

const (
	chainReadTimeout  = 10 * time.Second
	chainReadAttempts = 3
	chainReadBackoff  = 200 * time.Millisecond
)

// ErrChainRead indicates the RPC balance read failed after retries.
var ErrChainRead = errors.New("chain balance read failed")

// ChainClient abstracts the go-ethereum client for testing.
type ChainClient interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	Close()
}

// ChainBalances reads ERC-20 token balances over RPC.
type ChainBalances struct {
	client   ChainClient
	contract common.Address
	tokenABI abi.ABI
}

// ChainConfig configures the RPC balance checker.
type ChainConfig struct {
	RPCURL        string
	TokenContract string
}

// ChainOption configures the checker.
type ChainOption func(*ChainBalances)

// WithChainClient sets a custom client (useful for testing).
func WithChainClient(client ChainClient) ChainOption {
	return func(c *ChainBalances) {
		c.client = client
	}
}

// NewChainBalances creates an RPC-backed balance checker.
func NewChainBalances(cfg ChainConfig, opts ...ChainOption) (*ChainBalances, error) {
	if cfg.TokenContract == "" {
		return nil, fmt.Errorf("token contract address required")
	}

	parsedABI, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, fmt.Errorf("parse ERC20 ABI: %w", err)
	}

	c := &ChainBalances{
		contract: common.HexToAddress(cfg.TokenContract),
		tokenABI: parsedABI,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.client == nil {
		if cfg.RPCURL == "" {
			return nil, fmt.Errorf("RPC URL required")
		}
		client, err := ethclient.Dial(cfg.RPCURL)
		if err != nil {
			return nil, fmt.Errorf("dial RPC: %w", err)
		}
		c.client = client
	}

	return c, nil
}

// Balance returns the address's token balance as a human-readable decimal
// string. Transient RPC failures are retried with backoff.
func (c *ChainBalances) Balance(ctx context.Context, address string) (string, error) {
	if !common.IsHexAddress(address) {
		return "", fmt.Errorf("invalid address %q", address)
	}

	data, err := c.tokenABI.Pack("balanceOf", common.HexToAddress(address))
	if err != nil {
		return "", fmt.Errorf("pack balanceOf: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, chainReadTimeout)
	defer cancel()

	var raw []byte
	err = retry.Do(ctx, chainReadAttempts, chainReadBackoff, func() error {
		var callErr error
		raw, callErr = c.client.CallContract(ctx, ethereum.CallMsg{
			To:   &c.contract,
			Data: data,
		}, nil)
		return callErr
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrChainRead, err)
	}

	results, err := c.tokenABI.Unpack("balanceOf", raw)
	if err != nil || len(results) == 0 {
		return "", fmt.Errorf("%w: unpack balanceOf: %v", ErrChainRead, err)
	}
	amount, ok := results[0].(*big.Int)
	if !ok {
		return "", fmt.Errorf("%w: unexpected balanceOf result type", ErrChainRead)
	}

	return formatUnits(amount, TokenDecimals), nil
}

// Close releases the underlying RPC connection.
func (c *ChainBalances) Close() {
	c.client.Close()
}

// formatUnits converts a raw token amount into a decimal string,
// e.g. 1500000 with 6 decimals becomes "1.5".
func formatUnits(amount *big.Int, decimals int) string {
	divisor := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	whole, frac := new(big.Int).QuoRem(amount, divisor, new(big.Int))

	if frac.Sign() == 0 {
		return whole.String()
	}

	fracStr := fmt.Sprintf("%0*s", decimals, frac.String())
	fracStr = strings.TrimRight(fracStr, "0")
	return whole.String() + "." + fracStr
}
