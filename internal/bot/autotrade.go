package bot

import (
	"context"
	"fmt"

	"botcontrol/internal/risk"
	"botcontrol/pkg/chain"
)

// Position is an open holding derived from the bot's transaction log: net
// bought amount per token with the volume-weighted entry price.
type Position struct {
	Token      string
	Amount     float64
	EntryPrice float64
}

// AutoTradingEvaluator manages positions against take-profit / stop-loss
// thresholds and opens new positions from the watch list while capacity
// remains. When both thresholds are crossed in one tick, stop-loss wins:
// capital preservation over profit-taking.
type AutoTradingEvaluator struct{}

func (AutoTradingEvaluator) Evaluate(ctx context.Context, b *Bot, deps EvalDeps) (EvalResult, error) {
	cfg := b.Config.AutoTrading
	positions := OpenPositions(b.Transactions)

	// Exits first.
	for _, pos := range positions {
		price, err := deps.Provider.GetPrice(ctx, pos.Token, b.Blockchain)
		if err != nil {
			return EvalResult{}, fmt.Errorf("%w: price for %s: %v", ErrProvider, pos.Token, err)
		}
		if price <= 0 || pos.EntryPrice <= 0 {
			continue
		}
		changePct := (price - pos.EntryPrice) / pos.EntryPrice * 100

		if changePct <= -cfg.StopLossPercentage {
			return sellIntent(b, pos, fmt.Sprintf("stop loss: %.2f%% (threshold -%.2f%%)", changePct, cfg.StopLossPercentage)), nil
		}
		if changePct >= cfg.TakeProfitPercentage {
			return sellIntent(b, pos, fmt.Sprintf("take profit: %.2f%% (threshold %.2f%%)", changePct, cfg.TakeProfitPercentage)), nil
		}
	}

	// Entries while capacity remains. Candidate selection beyond risk and
	// liquidity gating belongs to the configured strategy backend; the
	// default takes the first unheld watch-list token that passes.
	if len(positions) >= cfg.MaxPositions {
		return EvalResult{}, nil
	}
	held := make(map[string]bool, len(positions))
	for _, pos := range positions {
		held[pos.Token] = true
	}

	for _, token := range cfg.WatchTokens {
		if held[token] {
			continue
		}

		facts, err := deps.Provider.GetTokenFacts(ctx, token, b.Blockchain)
		if err != nil {
			return EvalResult{}, fmt.Errorf("%w: token facts for %s: %v", ErrProvider, token, err)
		}
		if facts == nil || !facts.Exists {
			continue
		}
		liq, err := deps.Provider.GetLiquidity(ctx, token, b.Blockchain)
		if err != nil {
			return EvalResult{}, fmt.Errorf("%w: liquidity for %s: %v", ErrProvider, token, err)
		}
		if liq == nil || !liq.HasLiquidity {
			continue
		}
		if deps.Risk != nil {
			if assessment := deps.Risk.Score(facts, liq); assessment.Level == risk.LevelVeryHigh || assessment.Level == risk.LevelHigh {
				continue
			}
		}
		price, err := deps.Provider.GetPrice(ctx, token, b.Blockchain)
		if err != nil {
			return EvalResult{}, fmt.Errorf("%w: price for %s: %v", ErrProvider, token, err)
		}
		if price <= 0 {
			continue
		}

		sizeUSD := cfg.MaxPositionSizeUSD
		return EvalResult{
			Intent: &TradeIntent{
				Direction: chain.DirectionBuy,
				Token:     token,
				Amount:    sizeUSD / price,
				AmountUSD: sizeUSD,
				Reason:    fmt.Sprintf("%s entry: %d/%d positions open", cfg.Strategy, len(positions), cfg.MaxPositions),
				General:   b.Config.General,
			},
		}, nil
	}

	return EvalResult{}, nil
}

func sellIntent(b *Bot, pos Position, reason string) EvalResult {
	return EvalResult{
		Intent: &TradeIntent{
			Direction: chain.DirectionSell,
			Token:     pos.Token,
			Amount:    pos.Amount,
			AmountUSD: pos.Amount * pos.EntryPrice,
			Reason:    reason,
			General:   b.Config.General,
		},
	}
}

// OpenPositions folds the completed transactions into net holdings. Sells
// reduce the oldest cost basis first.
func OpenPositions(txs []Transaction) []Position {
	type basis struct {
		amount float64
		cost   float64
	}
	book := make(map[string]*basis)
	var order []string

	for _, tx := range txs {
		if tx.Status != "completed" {
			continue
		}
		pos, ok := book[tx.Token]
		if !ok {
			pos = &basis{}
			book[tx.Token] = pos
			order = append(order, tx.Token)
		}
		switch tx.Direction {
		case chain.DirectionBuy:
			pos.amount += tx.Amount
			pos.cost += tx.Amount * tx.Price
		case chain.DirectionSell:
			if pos.amount > 0 {
				avg := pos.cost / pos.amount
				sold := tx.Amount
				if sold > pos.amount {
					sold = pos.amount
				}
				pos.amount -= sold
				pos.cost -= sold * avg
			}
		}
	}

	var out []Position
	for _, token := range order {
		pos := book[token]
		if pos.amount > 1e-12 {
			out = append(out, Position{
				Token:      token,
				Amount:     pos.amount,
				EntryPrice: pos.cost / pos.amount,
			})
		}
	}
	return out
}
