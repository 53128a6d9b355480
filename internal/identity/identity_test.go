package identity

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
)

const testAddr = "0x1111111111111111111111111111111111111111"

func TestRegisterAndGet(t *testing.T) {
	svc := NewService(NewMemoryStore(), NewMemoryBalances())

	p, err := svc.Register(context.Background(), testAddr)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if p.VerificationLevel != LevelNone {
		t.Errorf("new profile should be level 0, got %d", p.VerificationLevel)
	}
	if time.Since(p.RegisteredAt) > time.Minute {
		t.Error("registered_at should be now")
	}

	got, err := svc.Get(context.Background(), testAddr)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Address != testAddr {
		t.Errorf("address mismatch: %s", got.Address)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	svc := NewService(NewMemoryStore(), NewMemoryBalances())

	if _, err := svc.Register(context.Background(), testAddr); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := svc.Register(context.Background(), testAddr); !errors.Is(err, ErrProfileExists) {
		t.Errorf("expected ErrProfileExists, got %v", err)
	}
}

func TestGetMissingProfile(t *testing.T) {
	svc := NewService(NewMemoryStore(), NewMemoryBalances())

	if _, err := svc.Get(context.Background(), testAddr); !errors.Is(err, ErrProfileNotFound) {
		t.Errorf("expected ErrProfileNotFound, got %v", err)
	}
}

func TestSetVerificationLevel(t *testing.T) {
	svc := NewService(NewMemoryStore(), NewMemoryBalances())

	if _, err := svc.Register(context.Background(), testAddr); err != nil {
		t.Fatalf("register: %v", err)
	}

	p, err := svc.SetVerificationLevel(context.Background(), testAddr, LevelSocial)
	if err != nil {
		t.Fatalf("set level: %v", err)
	}
	if p.VerificationLevel != LevelSocial {
		t.Errorf("expected level 2, got %d", p.VerificationLevel)
	}

	if _, err := svc.SetVerificationLevel(context.Background(), testAddr, 5); !errors.Is(err, ErrInvalidLevel) {
		t.Errorf("expected ErrInvalidLevel, got %v", err)
	}
	if _, err := svc.SetVerificationLevel(context.Background(), testAddr, -1); !errors.Is(err, ErrInvalidLevel) {
		t.Errorf("expected ErrInvalidLevel, got %v", err)
	}
}

func TestMemoryBalances(t *testing.T) {
	b := NewMemoryBalances()

	bal, err := b.Balance(context.Background(), testAddr)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if bal != "0" {
		t.Errorf("unknown address should report 0, got %s", bal)
	}

	b.Set(testAddr, "12.5")
	bal, _ = b.Balance(context.Background(), testAddr)
	if bal != "12.5" {
		t.Errorf("expected 12.5, got %s", bal)
	}
}

// fakeChainClient returns a canned balanceOf result.
type fakeChainClient struct {
	result *big.Int
	err    error
	calls  int
}

func (f *fakeChainClient) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	// ABI-encode a uint256
	out := make([]byte, 32)
	f.result.FillBytes(out)
	return out, nil
}

func (f *fakeChainClient) Close() {}

func TestChainBalanceRead(t *testing.T) {
	client := &fakeChainClient{result: big.NewInt(1_500_000)} // 1.5 with 6 decimals
	c, err := NewChainBalances(ChainConfig{
		TokenContract: "0x036CbD53842c5426634e7929541eC2318f3dCF7e",
	}, WithChainClient(client))
	if err != nil {
		t.Fatalf("new chain balances: %v", err)
	}

	bal, err := c.Balance(context.Background(), testAddr)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if bal != "1.5" {
		t.Errorf("expected 1.5, got %s", bal)
	}
}

func TestChainBalanceRetriesThenFails(t *testing.T) {
	client := &fakeChainClient{err: errors.New("rpc down")}
	c, err := NewChainBalances(ChainConfig{
		TokenContract: "0x036CbD53842c5426634e7929541eC2318f3dCF7e",
	}, WithChainClient(client))
	if err != nil {
		t.Fatalf("new chain balances: %v", err)
	}

	if _, err := c.Balance(context.Background(), testAddr); !errors.Is(err, ErrChainRead) {
		t.Errorf("expected ErrChainRead, got %v", err)
	}
	if client.calls != 3 {
		t.Errorf("expected 3 attempts, got %d", client.calls)
	}
}

func TestChainBalanceRejectsBadAddress(t *testing.T) {
	client := &fakeChainClient{result: big.NewInt(0)}
	c, err := NewChainBalances(ChainConfig{
		TokenContract: "0x036CbD53842c5426634e7929541eC2318f3dCF7e",
	}, WithChainClient(client))
	if err != nil {
		t.Fatalf("new chain balances: %v", err)
	}

	if _, err := c.Balance(context.Background(), "not-an-address"); err == nil {
		t.Error("expected error for invalid address")
	}
	if client.calls != 0 {
		t.Errorf("invalid address should not hit RPC, got %d calls", client.calls)
	}
}

func TestFormatUnits(t *testing.T) {
	cases := []struct {
		raw  int64
		want string
	}{
		{0, "0"},
		{1_000_000, "1"},
		{1_500_000, "1.5"},
		{10_000, "0.01"},
		{123_456_789, "123.456789"},
	}
	for _, tc := range cases {
		if got := formatUnits(big.NewInt(tc.raw), TokenDecimals); got != tc.want {
			t.Errorf("formatUnits(%d) = %s, want %s", tc.raw, got, tc.want)
		}
	}
}
