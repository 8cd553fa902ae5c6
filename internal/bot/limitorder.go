package bot

import (
	"context"
	"fmt"

	"botcontrol/pkg/chain"
)

// LimitOrderEvaluator fires a single order when the current price crosses
// the configured limit. An order reaching its expiry unfilled completes the
// bot without a trade (expired, not failed).
type LimitOrderEvaluator struct{}

func (LimitOrderEvaluator) Evaluate(ctx context.Context, b *Bot, deps EvalDeps) (EvalResult, error) {
	cfg := b.Config.LimitOrder

	if cfg.ExpiryTime != nil && deps.Now.After(*cfg.ExpiryTime) {
		return EvalResult{Done: true}, nil
	}

	price, err := deps.Provider.GetPrice(ctx, cfg.TokenAddress, b.Blockchain)
	if err != nil {
		return EvalResult{}, fmt.Errorf("%w: price: %v", ErrProvider, err)
	}
	if price <= 0 {
		return EvalResult{}, nil
	}

	crossed := (cfg.Direction == chain.DirectionBuy && price <= cfg.LimitPrice) ||
		(cfg.Direction == chain.DirectionSell && price >= cfg.LimitPrice)
	if !crossed {
		return EvalResult{}, nil
	}

	return EvalResult{
		Intent: &TradeIntent{
			Direction:      cfg.Direction,
			Token:          cfg.TokenAddress,
			Amount:         cfg.Amount,
			AmountUSD:      cfg.Amount * price,
			Reason:         fmt.Sprintf("limit %s: price=%f limit=%f", cfg.Direction, price, cfg.LimitPrice),
			AllowPartial:   cfg.Partial,
			CompleteOnFill: true,
			General:        b.Config.General,
		},
	}, nil
}
