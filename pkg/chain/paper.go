package chain

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	paperNetworkFee  = 0.001
	paperPlatformFee = 0.0005
)

// PaperExecutor fills every trade immediately at the provider's current
// price without touching a chain. It is the default executor for dry runs
// and for tests; a signing executor plugs in behind the same interface.
type PaperExecutor struct {
	provider DataProvider
	now      func() time.Time
}

func NewPaperExecutor(provider DataProvider) *PaperExecutor {
	return &PaperExecutor{provider: provider, now: time.Now}
}

func (e *PaperExecutor) Buy(ctx context.Context, token string, amount float64, chain string, params TradeParams) (*TransactionResult, error) {
	return e.fill(ctx, DirectionBuy, token, amount, chain, params)
}

func (e *PaperExecutor) Sell(ctx context.Context, token string, amount float64, chain string, params TradeParams) (*TransactionResult, error) {
	return e.fill(ctx, DirectionSell, token, amount, chain, params)
}

func (e *PaperExecutor) fill(ctx context.Context, direction, token string, amount float64, chain string, params TradeParams) (*TransactionResult, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("invalid trade amount: %f", amount)
	}

	price, err := e.provider.GetPrice(ctx, token, chain)
	if err != nil {
		return nil, fmt.Errorf("price lookup for fill failed: %w", err)
	}
	if price <= 0 {
		return nil, fmt.Errorf("no price available for %s on %s", token, chain)
	}

	gas := params.GasMultiplier
	if gas <= 0 {
		gas = 1
	}

	now := e.now()
	result := &TransactionResult{
		TxHash:      fmt.Sprintf("paper_%d", now.UnixNano()),
		Token:       token,
		Direction:   direction,
		Amount:      amount,
		Price:       price,
		NetworkFee:  paperNetworkFee * gas,
		PlatformFee: paperPlatformFee,
		Status:      "completed",
		Timestamp:   now,
	}

	log.WithFields(log.Fields{
		"tx_hash":   result.TxHash,
		"token":     token,
		"direction": direction,
		"amount":    amount,
		"price":     price,
		"chain":     chain,
	}).Info("Paper trade filled")

	return result, nil
}
