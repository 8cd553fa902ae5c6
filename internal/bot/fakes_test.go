package bot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"botcontrol/pkg/chain"
)

// fakeProvider serves canned chain facts keyed by token address.
type fakeProvider struct {
	mu        sync.Mutex
	facts     map[string]*chain.TokenFacts
	liquidity map[string]*chain.Liquidity
	prices    map[string]float64
	walletTxs map[string][]chain.WalletTransaction

	factsErr  error
	liqErr    error
	priceErr  error
	walletErr error

	factsCalls int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		facts:     make(map[string]*chain.TokenFacts),
		liquidity: make(map[string]*chain.Liquidity),
		prices:    make(map[string]float64),
		walletTxs: make(map[string][]chain.WalletTransaction),
	}
}

func (p *fakeProvider) setToken(token string, facts chain.TokenFacts, liq chain.Liquidity, price float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	facts.Address = token
	p.facts[token] = &facts
	p.liquidity[token] = &liq
	p.prices[token] = price
}

func (p *fakeProvider) setPrice(token string, price float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prices[token] = price
}

func (p *fakeProvider) factsCallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.factsCalls
}

func (p *fakeProvider) GetTokenFacts(_ context.Context, address, _ string) (*chain.TokenFacts, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.factsCalls++
	if p.factsErr != nil {
		return nil, p.factsErr
	}
	if f, ok := p.facts[address]; ok {
		cp := *f
		return &cp, nil
	}
	return &chain.TokenFacts{Address: address}, nil
}

func (p *fakeProvider) GetPrice(_ context.Context, address, _ string) (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.priceErr != nil {
		return 0, p.priceErr
	}
	price, ok := p.prices[address]
	if !ok {
		return 0, fmt.Errorf("no price for %s", address)
	}
	return price, nil
}

func (p *fakeProvider) GetLiquidity(_ context.Context, address, _ string) (*chain.Liquidity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.liqErr != nil {
		return nil, p.liqErr
	}
	if l, ok := p.liquidity[address]; ok {
		cp := *l
		return &cp, nil
	}
	return &chain.Liquidity{}, nil
}

func (p *fakeProvider) GetWalletTransactionsSince(_ context.Context, wallet, _ string, since time.Time) ([]chain.WalletTransaction, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.walletErr != nil {
		return nil, p.walletErr
	}
	var out []chain.WalletTransaction
	for _, tx := range p.walletTxs[wallet] {
		if tx.Timestamp.After(since) {
			out = append(out, tx)
		}
	}
	return out, nil
}

// fakeExecutor fills trades at the provider price and records every call.
type fakeExecutor struct {
	mu       sync.Mutex
	provider *fakeProvider
	calls    []string
	err      error
	// fillFraction < 1 simulates a partial fill
	fillFraction float64
}

func newFakeExecutor(provider *fakeProvider) *fakeExecutor {
	return &fakeExecutor{provider: provider, fillFraction: 1}
}

func (e *fakeExecutor) Buy(ctx context.Context, token string, amount float64, chainName string, _ chain.TradeParams) (*chain.TransactionResult, error) {
	return e.fill(ctx, chain.DirectionBuy, token, amount, chainName)
}

func (e *fakeExecutor) Sell(ctx context.Context, token string, amount float64, chainName string, _ chain.TradeParams) (*chain.TransactionResult, error) {
	return e.fill(ctx, chain.DirectionSell, token, amount, chainName)
}

func (e *fakeExecutor) fill(ctx context.Context, direction, token string, amount float64, chainName string) (*chain.TransactionResult, error) {
	e.mu.Lock()
	e.calls = append(e.calls, fmt.Sprintf("%s %s", direction, token))
	err := e.err
	fraction := e.fillFraction
	e.mu.Unlock()
	if err != nil {
		return nil, err
	}

	price, perr := e.provider.GetPrice(ctx, token, chainName)
	if perr != nil {
		return nil, perr
	}

	return &chain.TransactionResult{
		TxHash:    fmt.Sprintf("fake_%d", time.Now().UnixNano()),
		Token:     token,
		Direction: direction,
		Amount:    amount * fraction,
		Price:     price,
		Status:    "completed",
		Timestamp: time.Now().UTC(),
	}, nil
}

func (e *fakeExecutor) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.calls)
}

// fakeNotifier records published notifications.
type fakeNotifier struct {
	mu       sync.Mutex
	messages []interface{}
}

func (n *fakeNotifier) Publish(_ string, message interface{}) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
	return nil
}

func sniperConfig() Config {
	return Config{
		Type:          TypeSniper,
		Name:          "test sniper",
		Blockchain:    "solana",
		WalletAddress: "wallet1",
		Sniper: &SniperConfig{
			TokenAddress:   "tok1",
			MaxPrice:       0.02,
			AmountUSD:      100,
			MinLiquidity:   50000,
			MaxSlippage:    5,
			SinglePurchase: true,
		},
	}
}
