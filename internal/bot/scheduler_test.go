package bot

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"botcontrol/internal/risk"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met within timeout")
}

func newTestScheduler(r *Registry, provider *fakeProvider, executor *fakeExecutor, opts ...SchedulerOption) *Scheduler {
	base := []SchedulerOption{
		WithIntervals(map[BotType]time.Duration{
			TypeSniper:      10 * time.Millisecond,
			TypeCopyTrading: 10 * time.Millisecond,
			TypeLimitOrder:  10 * time.Millisecond,
			TypeAutoTrading: 10 * time.Millisecond,
		}),
	}
	return NewScheduler(r, provider, executor, risk.NewEngine(), append(base, opts...)...)
}

func TestTickExecutesSniperBuy(t *testing.T) {
	ctx := context.Background()
	provider := newFakeProvider()
	facts, liq := healthyToken()
	provider.setToken("tok1", facts, liq, 0.015)
	executor := newFakeExecutor(provider)

	r := newTestRegistry()
	s := newTestScheduler(r, provider, executor)

	id, err := r.CreateBot(ctx, sniperConfig(), "u1")
	require.NoError(t, err)

	// Single purchase config: the fill completes the bot, ending the loop.
	cont := s.tick(ctx, id)
	assert.False(t, cont)
	assert.Equal(t, 1, executor.callCount())

	b, err := r.GetBot(ctx, id, "u1")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, b.Status)
	require.Len(t, b.Transactions, 1)
	assert.Equal(t, "tok1", b.Transactions[0].Token)
	assert.Equal(t, "completed", b.Transactions[0].Status)
	assert.InDelta(t, 0.015, b.Transactions[0].Price, 1e-9)
}

func TestTickStoppedBotDoesNotTrade(t *testing.T) {
	ctx := context.Background()
	provider := newFakeProvider()
	facts, liq := healthyToken()
	provider.setToken("tok1", facts, liq, 0.015)
	executor := newFakeExecutor(provider)

	r := newTestRegistry()
	s := newTestScheduler(r, provider, executor)

	id, err := r.CreateBot(ctx, sniperConfig(), "u1")
	require.NoError(t, err)
	require.NoError(t, r.Stop(ctx, id, "u1"))

	// A stale timer firing after the stop must exit without trading.
	cont := s.tick(ctx, id)
	assert.False(t, cont)
	assert.Zero(t, executor.callCount())
}

func TestTickProviderErrorIsContained(t *testing.T) {
	ctx := context.Background()
	provider := newFakeProvider()
	provider.factsErr = assert.AnError
	executor := newFakeExecutor(provider)

	r := newTestRegistry()
	s := newTestScheduler(r, provider, executor)

	id, err := r.CreateBot(ctx, sniperConfig(), "u1")
	require.NoError(t, err)

	// The failed tick is recorded but the loop keeps running.
	cont := s.tick(ctx, id)
	assert.True(t, cont)
	assert.Zero(t, executor.callCount())

	b, err := r.GetBot(ctx, id, "u1")
	require.NoError(t, err)
	assert.Equal(t, StatusActive, b.Status)
	require.NotEmpty(t, b.Events)
	assert.Equal(t, "error", b.Events[0].Level)
	assert.Contains(t, b.Events[0].Message, "tick failed")
}

func TestTickExecutionFailureIsContained(t *testing.T) {
	ctx := context.Background()
	provider := newFakeProvider()
	facts, liq := healthyToken()
	provider.setToken("tok1", facts, liq, 0.015)
	executor := newFakeExecutor(provider)
	executor.err = assert.AnError

	r := newTestRegistry()
	s := newTestScheduler(r, provider, executor)

	id, err := r.CreateBot(ctx, sniperConfig(), "u1")
	require.NoError(t, err)

	cont := s.tick(ctx, id)
	assert.True(t, cont)

	b, err := r.GetBot(ctx, id, "u1")
	require.NoError(t, err)
	assert.Equal(t, StatusActive, b.Status)
	assert.Empty(t, b.Transactions)
	require.NotEmpty(t, b.Events)
	assert.Contains(t, b.Events[0].Message, "execution failed")
}

func TestTickDailyCapSkipsTrade(t *testing.T) {
	ctx := context.Background()
	provider := newFakeProvider()
	facts, liq := healthyToken()
	provider.setToken("tok1", facts, liq, 0.015)
	executor := newFakeExecutor(provider)

	r := newTestRegistry()
	s := newTestScheduler(r, provider, executor)

	cfg := sniperConfig()
	cfg.Sniper.SinglePurchase = false
	cfg.General.MaxTransactionsPerDay = 1
	id, err := r.CreateBot(ctx, cfg, "u1")
	require.NoError(t, err)

	require.NoError(t, r.RecordTransaction(ctx, id, Transaction{
		Token: "tok1", Direction: "buy", Amount: 1, Price: 0.015,
		Status: "completed", Timestamp: time.Now().UTC(),
	}))

	cont := s.tick(ctx, id)
	assert.True(t, cont)
	assert.Zero(t, executor.callCount())

	b, err := r.GetBot(ctx, id, "u1")
	require.NoError(t, err)
	found := false
	for _, ev := range b.Events {
		if ev.Level == "error" {
			assert.Contains(t, ev.Message, "daily transaction limit")
			found = true
		}
	}
	assert.True(t, found)
}

func TestTickPartialFillDoesNotComplete(t *testing.T) {
	ctx := context.Background()
	provider := newFakeProvider()
	facts, liq := healthyToken()
	provider.setToken("tok1", facts, liq, 0.015)
	executor := newFakeExecutor(provider)
	executor.fillFraction = 0.5

	r := newTestRegistry()
	s := newTestScheduler(r, provider, executor)

	id, err := r.CreateBot(ctx, sniperConfig(), "u1")
	require.NoError(t, err)

	// Half-filled single purchase: the transaction is recorded but the bot
	// keeps running.
	cont := s.tick(ctx, id)
	assert.True(t, cont)

	b, err := r.GetBot(ctx, id, "u1")
	require.NoError(t, err)
	assert.Equal(t, StatusActive, b.Status)
	require.Len(t, b.Transactions, 1)

	found := false
	for _, ev := range b.Events {
		if ev.Level == "error" {
			assert.Contains(t, ev.Message, "partial fill")
			found = true
		}
	}
	assert.True(t, found)
}

func TestTickAdvancesCopyWatermark(t *testing.T) {
	ctx := context.Background()
	provider := newFakeProvider()
	executor := newFakeExecutor(provider)

	r := newTestRegistry()
	s := newTestScheduler(r, provider, executor)

	id, err := r.CreateBot(ctx, Config{
		Type: TypeCopyTrading, Blockchain: "solana", WalletAddress: "w1",
		CopyTrading: &CopyTradingConfig{TargetWallets: []string{"whale"}, MaxTransactionUSD: 100},
	}, "u1")
	require.NoError(t, err)

	before, err := r.GetBot(ctx, id, "u1")
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	cont := s.tick(ctx, id)
	assert.True(t, cont)

	after, err := r.GetBot(ctx, id, "u1")
	require.NoError(t, err)
	assert.True(t, after.LastCheckedAt.After(before.LastCheckedAt))
}

func TestStartMonitoringIsIdempotent(t *testing.T) {
	ctx := context.Background()
	provider := newFakeProvider()
	// No price data: the sniper never fires and the loop just polls.
	executor := newFakeExecutor(provider)

	r := newTestRegistry()
	s := newTestScheduler(r, provider, executor)
	r.SetMonitor(s)

	id, err := r.CreateBot(ctx, sniperConfig(), "u1")
	require.NoError(t, err)
	defer s.StopAll()

	waitFor(t, time.Second, func() bool { return s.Running(id) })

	// Restarting replaces the existing loop instead of stacking a second one.
	s.StartMonitoring(id)
	s.StartMonitoring(id)
	assert.True(t, s.Running(id))

	s.StopMonitoring(id)
	assert.False(t, s.Running(id))
}

func TestConcurrentRestartLeavesSingleLoop(t *testing.T) {
	ctx := context.Background()
	provider := newFakeProvider()
	// No token data: the sniper loop polls facts every tick without trading.
	executor := newFakeExecutor(provider)

	r := newTestRegistry()
	s := newTestScheduler(r, provider, executor)
	r.SetMonitor(s)

	id, err := r.CreateBot(ctx, sniperConfig(), "u1")
	require.NoError(t, err)
	waitFor(t, time.Second, func() bool { return s.Running(id) })

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.StartMonitoring(id)
		}()
	}
	wg.Wait()
	assert.True(t, s.Running(id))

	// One stop must end everything: if a racing restart left an orphaned
	// loop behind, polling would keep climbing after this.
	s.StopMonitoring(id)
	assert.False(t, s.Running(id))

	waitFor(t, time.Second, func() bool {
		before := provider.factsCallCount()
		time.Sleep(30 * time.Millisecond)
		return provider.factsCallCount() == before
	})
	settled := provider.factsCallCount()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, settled, provider.factsCallCount())
}

func TestStopMonitoringEndsLoop(t *testing.T) {
	ctx := context.Background()
	provider := newFakeProvider()
	executor := newFakeExecutor(provider)

	r := newTestRegistry()
	s := newTestScheduler(r, provider, executor)
	r.SetMonitor(s)

	id, err := r.CreateBot(ctx, sniperConfig(), "u1")
	require.NoError(t, err)
	waitFor(t, time.Second, func() bool { return s.Running(id) })

	s.StopMonitoring(id)
	assert.False(t, s.Running(id))

	// Stopping an unknown bot is a no-op.
	s.StopMonitoring("bot_missing")
}

func TestLoopCompletesSinglePurchaseSniper(t *testing.T) {
	ctx := context.Background()
	provider := newFakeProvider()
	facts, liq := healthyToken()
	provider.setToken("tok1", facts, liq, 0.015)
	executor := newFakeExecutor(provider)

	r := newTestRegistry()
	s := newTestScheduler(r, provider, executor)
	r.SetMonitor(s)
	defer s.StopAll()

	id, err := r.CreateBot(ctx, sniperConfig(), "u1")
	require.NoError(t, err)

	waitFor(t, 2*time.Second, func() bool {
		b, err := r.GetBot(ctx, id, "u1")
		return err == nil && b.Status == StatusCompleted
	})

	// The loop tears itself down once the bot completes.
	waitFor(t, time.Second, func() bool { return !s.Running(id) })
	assert.Equal(t, 1, executor.callCount())
}

func TestStopAll(t *testing.T) {
	ctx := context.Background()
	provider := newFakeProvider()
	executor := newFakeExecutor(provider)

	r := newTestRegistry()
	s := newTestScheduler(r, provider, executor)
	r.SetMonitor(s)

	var ids []string
	for i := 0; i < 3; i++ {
		id, err := r.CreateBot(ctx, sniperConfig(), "u1")
		require.NoError(t, err)
		ids = append(ids, id)
	}

	s.StopAll()
	for _, id := range ids {
		assert.False(t, s.Running(id))
	}
}
