package bot

import (
	"context"
	"fmt"

	"botcontrol/internal/risk"
	"botcontrol/pkg/chain"
)

// SniperEvaluator buys a target token the moment its listing satisfies the
// configured liquidity, price and slippage gates. Missing chain data is
// never treated as a met condition.
type SniperEvaluator struct{}

func (SniperEvaluator) Evaluate(ctx context.Context, b *Bot, deps EvalDeps) (EvalResult, error) {
	cfg := b.Config.Sniper

	if cfg.StartTime != nil && deps.Now.Before(*cfg.StartTime) {
		return EvalResult{}, nil
	}
	if cfg.EndTime != nil && deps.Now.After(*cfg.EndTime) {
		// Window elapsed without a buy: the bot is done, not failed.
		return EvalResult{Done: true}, nil
	}
	if cfg.SinglePurchase && hasCompletedBuy(b.Transactions, cfg.TokenAddress) {
		return EvalResult{Done: true}, nil
	}

	facts, err := deps.Provider.GetTokenFacts(ctx, cfg.TokenAddress, b.Blockchain)
	if err != nil {
		return EvalResult{}, fmt.Errorf("%w: token facts: %v", ErrProvider, err)
	}
	if facts == nil || !facts.Exists {
		return EvalResult{}, nil
	}

	liq, err := deps.Provider.GetLiquidity(ctx, cfg.TokenAddress, b.Blockchain)
	if err != nil {
		return EvalResult{}, fmt.Errorf("%w: liquidity: %v", ErrProvider, err)
	}
	if liq == nil || !liq.HasLiquidity || liq.LiquidityUSD < cfg.MinLiquidity {
		return EvalResult{}, nil
	}

	if deps.Risk != nil {
		if assessment := deps.Risk.Score(facts, liq); assessment.Level == risk.LevelVeryHigh {
			return EvalResult{}, nil
		}
	}

	price, err := deps.Provider.GetPrice(ctx, cfg.TokenAddress, b.Blockchain)
	if err != nil {
		return EvalResult{}, fmt.Errorf("%w: price: %v", ErrProvider, err)
	}
	if price <= 0 || price > cfg.MaxPrice {
		return EvalResult{}, nil
	}

	amount := cfg.Amount
	spendUSD := cfg.AmountUSD
	if amount <= 0 {
		amount = spendUSD / price
	}
	if spendUSD <= 0 {
		spendUSD = amount * price
	}

	// Projected slippage from the spend's share of pool depth.
	if cfg.MaxSlippage > 0 {
		projected := spendUSD / liq.LiquidityUSD * 100
		if projected > cfg.MaxSlippage {
			return EvalResult{}, nil
		}
	}

	return EvalResult{
		Intent: &TradeIntent{
			Direction:      chain.DirectionBuy,
			Token:          cfg.TokenAddress,
			Amount:         amount,
			AmountUSD:      spendUSD,
			Reason:         fmt.Sprintf("snipe: price=%f max=%f liquidity=%f", price, cfg.MaxPrice, liq.LiquidityUSD),
			CompleteOnFill: cfg.SinglePurchase,
			General:        b.Config.General,
		},
	}, nil
}

func hasCompletedBuy(txs []Transaction, token string) bool {
	for _, tx := range txs {
		if tx.Token == token && tx.Direction == chain.DirectionBuy && tx.Status == "completed" {
			return true
		}
	}
	return false
}
