package bot

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"botcontrol/internal/risk"
	"botcontrol/pkg/chain"
)

func autoBot(cfg AutoTradingConfig, txs []Transaction) *Bot {
	return &Bot{
		ID:           "bot_auto",
		Blockchain:   "solana",
		Status:       StatusActive,
		Type:         TypeAutoTrading,
		Transactions: txs,
		Config: Config{
			Type:        TypeAutoTrading,
			Blockchain:  "solana",
			AutoTrading: &cfg,
		},
	}
}

func completedBuy(token string, amount, price float64) Transaction {
	return Transaction{
		Token: token, Direction: "buy", Amount: amount, Price: price,
		Status: "completed", Timestamp: time.Now().UTC(),
	}
}

func TestAutoTradingTakeProfit(t *testing.T) {
	provider := newFakeProvider()
	provider.setPrice("tokA", 1.25) // +25% from entry 1.0

	b := autoBot(AutoTradingConfig{
		Strategy: "momentum", TakeProfitPercentage: 20, StopLossPercentage: 10,
		MaxPositions: 3, MaxPositionSizeUSD: 100,
	}, []Transaction{completedBuy("tokA", 100, 1.0)})

	res, err := AutoTradingEvaluator{}.Evaluate(context.Background(), b, EvalDeps{Provider: provider, Now: time.Now().UTC()})
	require.NoError(t, err)
	require.NotNil(t, res.Intent)

	assert.Equal(t, chain.DirectionSell, res.Intent.Direction)
	assert.Equal(t, "tokA", res.Intent.Token)
	assert.InDelta(t, 100, res.Intent.Amount, 1e-9)
	assert.Contains(t, res.Intent.Reason, "take profit")
}

func TestAutoTradingStopLoss(t *testing.T) {
	provider := newFakeProvider()
	provider.setPrice("tokA", 0.85) // -15% from entry 1.0

	b := autoBot(AutoTradingConfig{
		Strategy: "momentum", TakeProfitPercentage: 20, StopLossPercentage: 10,
		MaxPositions: 3, MaxPositionSizeUSD: 100,
	}, []Transaction{completedBuy("tokA", 100, 1.0)})

	res, err := AutoTradingEvaluator{}.Evaluate(context.Background(), b, EvalDeps{Provider: provider, Now: time.Now().UTC()})
	require.NoError(t, err)
	require.NotNil(t, res.Intent)

	assert.Equal(t, chain.DirectionSell, res.Intent.Direction)
	assert.Contains(t, res.Intent.Reason, "stop loss")
}

func TestAutoTradingStopLossWinsWhenBothCross(t *testing.T) {
	// Zero thresholds are invalid in live configs; here tiny ones make any
	// move cross both gates at once.
	provider := newFakeProvider()
	provider.setPrice("tokA", 0.99)

	b := autoBot(AutoTradingConfig{
		Strategy: "momentum", TakeProfitPercentage: 0.5, StopLossPercentage: 0.5,
		MaxPositions: 3, MaxPositionSizeUSD: 100,
	}, []Transaction{completedBuy("tokA", 100, 1.0)})

	res, err := AutoTradingEvaluator{}.Evaluate(context.Background(), b, EvalDeps{Provider: provider, Now: time.Now().UTC()})
	require.NoError(t, err)
	require.NotNil(t, res.Intent)
	assert.Contains(t, res.Intent.Reason, "stop loss")
}

func TestAutoTradingHoldsInsideThresholds(t *testing.T) {
	provider := newFakeProvider()
	provider.setPrice("tokA", 1.05) // +5%, inside both gates

	b := autoBot(AutoTradingConfig{
		Strategy: "momentum", TakeProfitPercentage: 20, StopLossPercentage: 10,
		MaxPositions: 1, MaxPositionSizeUSD: 100,
	}, []Transaction{completedBuy("tokA", 100, 1.0)})

	res, err := AutoTradingEvaluator{}.Evaluate(context.Background(), b, EvalDeps{Provider: provider, Now: time.Now().UTC()})
	require.NoError(t, err)
	assert.Nil(t, res.Intent)
}

func TestAutoTradingEntersFromWatchList(t *testing.T) {
	provider := newFakeProvider()
	provider.setToken("tokNew",
		chain.TokenFacts{Exists: true, Verified: true},
		chain.Liquidity{HasLiquidity: true, LiquidityUSD: 100000, Locked: true}, 2.0)

	b := autoBot(AutoTradingConfig{
		Strategy: "momentum", WatchTokens: []string{"tokNew"},
		TakeProfitPercentage: 20, StopLossPercentage: 10,
		MaxPositions: 3, MaxPositionSizeUSD: 300,
	}, nil)

	res, err := AutoTradingEvaluator{}.Evaluate(context.Background(), b, EvalDeps{Provider: provider, Risk: risk.NewEngine(), Now: time.Now().UTC()})
	require.NoError(t, err)
	require.NotNil(t, res.Intent)

	assert.Equal(t, chain.DirectionBuy, res.Intent.Direction)
	assert.Equal(t, "tokNew", res.Intent.Token)
	assert.InDelta(t, 150, res.Intent.Amount, 1e-9) // 300 USD at 2.0
	assert.InDelta(t, 300, res.Intent.AmountUSD, 1e-9)
}

func TestAutoTradingMaxPositionsBlocksEntry(t *testing.T) {
	provider := newFakeProvider()
	provider.setToken("tokNew",
		chain.TokenFacts{Exists: true, Verified: true},
		chain.Liquidity{HasLiquidity: true, LiquidityUSD: 100000, Locked: true}, 2.0)
	provider.setPrice("tokA", 1.0) // flat, no exit

	b := autoBot(AutoTradingConfig{
		Strategy: "momentum", WatchTokens: []string{"tokNew"},
		TakeProfitPercentage: 20, StopLossPercentage: 10,
		MaxPositions: 1, MaxPositionSizeUSD: 300,
	}, []Transaction{completedBuy("tokA", 100, 1.0)})

	res, err := AutoTradingEvaluator{}.Evaluate(context.Background(), b, EvalDeps{Provider: provider, Now: time.Now().UTC()})
	require.NoError(t, err)
	assert.Nil(t, res.Intent)
}

func TestAutoTradingSkipsRiskyWatchTokens(t *testing.T) {
	provider := newFakeProvider()
	// Unverified with mint authority scores below the high-risk gate.
	provider.setToken("tokRisky",
		chain.TokenFacts{Exists: true, HasMintAuthority: true},
		chain.Liquidity{HasLiquidity: true, LiquidityUSD: 100000, Locked: true}, 2.0)

	b := autoBot(AutoTradingConfig{
		Strategy: "momentum", WatchTokens: []string{"tokRisky"},
		TakeProfitPercentage: 20, StopLossPercentage: 10,
		MaxPositions: 3, MaxPositionSizeUSD: 300,
	}, nil)

	res, err := AutoTradingEvaluator{}.Evaluate(context.Background(), b, EvalDeps{Provider: provider, Risk: risk.NewEngine(), Now: time.Now().UTC()})
	require.NoError(t, err)
	assert.Nil(t, res.Intent)
}

func TestAutoTradingPriceErrorIsProviderError(t *testing.T) {
	provider := newFakeProvider()
	provider.priceErr = assert.AnError

	b := autoBot(AutoTradingConfig{
		Strategy: "momentum", TakeProfitPercentage: 20, StopLossPercentage: 10,
		MaxPositions: 3, MaxPositionSizeUSD: 100,
	}, []Transaction{completedBuy("tokA", 100, 1.0)})

	_, err := AutoTradingEvaluator{}.Evaluate(context.Background(), b, EvalDeps{Provider: provider, Now: time.Now().UTC()})
	assert.ErrorIs(t, err, ErrProvider)
}

func TestOpenPositions(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	txs := []Transaction{
		{Token: "tokA", Direction: "buy", Amount: 100, Price: 1.0, Status: "completed", Timestamp: base},
		{Token: "tokA", Direction: "buy", Amount: 100, Price: 2.0, Status: "completed", Timestamp: base.Add(time.Minute)},
		{Token: "tokA", Direction: "sell", Amount: 50, Price: 3.0, Status: "completed", Timestamp: base.Add(2 * time.Minute)},
		{Token: "tokB", Direction: "buy", Amount: 10, Price: 5.0, Status: "completed", Timestamp: base.Add(3 * time.Minute)},
		{Token: "tokB", Direction: "sell", Amount: 10, Price: 6.0, Status: "completed", Timestamp: base.Add(4 * time.Minute)},
		{Token: "tokC", Direction: "buy", Amount: 1, Price: 1.0, Status: "failed", Timestamp: base.Add(5 * time.Minute)},
	}

	positions := OpenPositions(txs)
	require.Len(t, positions, 1)

	// 200 bought at avg 1.5, 50 sold: 150 left at the same average.
	assert.Equal(t, "tokA", positions[0].Token)
	assert.InDelta(t, 150, positions[0].Amount, 1e-9)
	assert.InDelta(t, 1.5, positions[0].EntryPrice, 1e-9)
}
