package chain

import (
	"context"
	"fmt"
	"time"
)

// Mux routes DataProvider calls to the provider registered for each
// blockchain. The chain argument of every call selects the backend.
type Mux struct {
	providers map[string]DataProvider
}

func NewMux() *Mux {
	return &Mux{providers: make(map[string]DataProvider)}
}

// Register wires a provider for a blockchain name.
func (m *Mux) Register(chain string, p DataProvider) {
	m.providers[chain] = p
}

// Supports reports whether a provider is registered for the blockchain.
func (m *Mux) Supports(chain string) bool {
	_, ok := m.providers[chain]
	return ok
}

func (m *Mux) provider(chain string) (DataProvider, error) {
	p, ok := m.providers[chain]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedChain, chain)
	}
	return p, nil
}

func (m *Mux) GetTokenFacts(ctx context.Context, address, chain string) (*TokenFacts, error) {
	p, err := m.provider(chain)
	if err != nil {
		return nil, err
	}
	return p.GetTokenFacts(ctx, address, chain)
}

func (m *Mux) GetPrice(ctx context.Context, address, chain string) (float64, error) {
	p, err := m.provider(chain)
	if err != nil {
		return 0, err
	}
	return p.GetPrice(ctx, address, chain)
}

func (m *Mux) GetLiquidity(ctx context.Context, address, chain string) (*Liquidity, error) {
	p, err := m.provider(chain)
	if err != nil {
		return nil, err
	}
	return p.GetLiquidity(ctx, address, chain)
}

func (m *Mux) GetWalletTransactionsSince(ctx context.Context, wallet, chain string, since time.Time) ([]WalletTransaction, error) {
	p, err := m.provider(chain)
	if err != nil {
		return nil, err
	}
	return p.GetWalletTransactionsSince(ctx, wallet, chain, since)
}
