package bot

import (
	"context"
	"fmt"
	"time"

	"botcontrol/internal/risk"
	"botcontrol/pkg/chain"
)

// EvalDeps bundles the read-only collaborators an evaluator may consult.
type EvalDeps struct {
	Provider chain.DataProvider
	Risk     *risk.Engine
	Now      time.Time
}

// EvalResult is an evaluator's decision for one tick.
type EvalResult struct {
	// Intent is the zero-or-one trade the evaluator proposes.
	Intent *TradeIntent
	// Done signals the bot's objective is fulfilled without a trade
	// (expired limit order, sniper window elapsed).
	Done bool
	// LastChecked, when non-zero, advances the copy-trading watermark.
	// Applied only after a tick finishes without a provider error.
	LastChecked time.Time
}

// Evaluator is a pure decision function from bot state and chain facts to
// zero-or-one trade intents. Evaluators never perform trades and never
// mutate the bot.
type Evaluator interface {
	Evaluate(ctx context.Context, b *Bot, deps EvalDeps) (EvalResult, error)
}

// evaluatorFor dispatches on the bot type.
func evaluatorFor(t BotType) (Evaluator, error) {
	switch t {
	case TypeSniper:
		return SniperEvaluator{}, nil
	case TypeCopyTrading:
		return CopyTradingEvaluator{}, nil
	case TypeAutoTrading:
		return AutoTradingEvaluator{}, nil
	case TypeLimitOrder:
		return LimitOrderEvaluator{}, nil
	default:
		return nil, fmt.Errorf("unsupported bot type: %s", t)
	}
}
