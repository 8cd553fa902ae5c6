package bot

import (
	"context"
	"fmt"
	"sort"
	"time"

	"botcontrol/pkg/chain"
)

// CopyTradingEvaluator mirrors trades from the configured target wallets.
// Per tick it copies the oldest eligible feed entry; entries younger than
// the configured delay stay in the feed for a later tick. The watermark
// advances only through EvalResult.LastChecked, which the scheduler applies
// after an error-free tick.
type CopyTradingEvaluator struct{}

func (CopyTradingEvaluator) Evaluate(ctx context.Context, b *Bot, deps EvalDeps) (EvalResult, error) {
	cfg := b.Config.CopyTrading

	since := b.LastCheckedAt
	if since.IsZero() {
		since = b.CreatedAt
	}
	delay := time.Duration(cfg.DelaySeconds) * time.Second

	excluded := make(map[string]bool, len(cfg.ExcludeTokens))
	for _, t := range cfg.ExcludeTokens {
		excluded[t] = true
	}

	var feed []chain.WalletTransaction
	for _, wallet := range cfg.TargetWallets {
		txs, err := deps.Provider.GetWalletTransactionsSince(ctx, wallet, b.Blockchain, since)
		if err != nil {
			return EvalResult{}, fmt.Errorf("%w: wallet feed for %s: %v", ErrProvider, wallet, err)
		}
		feed = append(feed, txs...)
	}
	sort.Slice(feed, func(i, j int) bool { return feed[i].Timestamp.Before(feed[j].Timestamp) })

	var deferred bool
	for _, tx := range feed {
		if !tx.Timestamp.After(since) {
			continue
		}
		if excluded[tx.Token] {
			continue
		}
		if cfg.Direction != CopyBoth && cfg.Direction != "" && tx.Direction != cfg.Direction {
			continue
		}
		if tx.Direction != chain.DirectionBuy && tx.Direction != chain.DirectionSell {
			continue
		}
		if deps.Now.Sub(tx.Timestamp) < delay {
			// Too fresh to copy; a later tick picks it up.
			deferred = true
			continue
		}

		amountUSD := tx.AmountUSD
		if amountUSD > cfg.MaxTransactionUSD {
			amountUSD = cfg.MaxTransactionUSD
		}
		if tx.Price <= 0 || amountUSD <= 0 {
			continue
		}

		return EvalResult{
			Intent: &TradeIntent{
				Direction: tx.Direction,
				Token:     tx.Token,
				Amount:    amountUSD / tx.Price,
				AmountUSD: amountUSD,
				Reason:    fmt.Sprintf("copy %s from %s (%s)", tx.Direction, tx.Wallet, tx.Signature),
				General:   b.Config.General,
			},
			// Advancing only to the copied entry keeps any remaining
			// eligible entries strictly after the watermark.
			LastChecked: tx.Timestamp,
		}, nil
	}

	if deferred {
		// Hold the watermark so deferred entries are re-fetched.
		return EvalResult{}, nil
	}
	// Nothing actionable: advance past everything old enough to have been
	// considered, leaving the delay window untouched.
	watermark := deps.Now.Add(-delay)
	if watermark.Before(since) {
		watermark = since
	}
	return EvalResult{LastChecked: watermark}, nil
}
