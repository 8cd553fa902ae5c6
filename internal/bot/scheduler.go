package bot

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"botcontrol/internal/risk"
	"botcontrol/pkg/chain"
)

// Default polling cadences per bot type. Snipers race for listings; auto
// trading reacts to slower threshold crossings.
var defaultIntervals = map[BotType]time.Duration{
	TypeSniper:      5 * time.Second,
	TypeCopyTrading: 10 * time.Second,
	TypeLimitOrder:  20 * time.Second,
	TypeAutoTrading: 60 * time.Second,
}

type loopHandle struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Scheduler runs one independent polling loop per active bot. It owns only
// execution handles; bot state stays with the Registry. Cancellation is
// cooperative: an in-flight tick finishes before its loop exits.
type Scheduler struct {
	registry  *Registry
	provider  chain.DataProvider
	executor  chain.TradeExecutor
	risk      *risk.Engine
	intervals map[BotType]time.Duration
	now       func() time.Time

	mu    sync.Mutex
	loops map[string]*loopHandle
}

type SchedulerOption func(*Scheduler)

// WithIntervals overrides polling cadences, mainly for tests.
func WithIntervals(intervals map[BotType]time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		for t, d := range intervals {
			s.intervals[t] = d
		}
	}
}

// WithSchedulerNow injects deterministic time for tests.
func WithSchedulerNow(now func() time.Time) SchedulerOption {
	return func(s *Scheduler) { s.now = now }
}

func NewScheduler(registry *Registry, provider chain.DataProvider, executor chain.TradeExecutor, riskEngine *risk.Engine, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		registry:  registry,
		provider:  provider,
		executor:  executor,
		risk:      riskEngine,
		intervals: make(map[BotType]time.Duration, len(defaultIntervals)),
		now:       func() time.Time { return time.Now().UTC() },
		loops:     make(map[string]*loopHandle),
	}
	for t, d := range defaultIntervals {
		s.intervals[t] = d
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartMonitoring launches the polling loop for a bot. Idempotent: an
// existing loop is cancelled and replaced, so there are never two loops for
// one bot id. The first evaluation runs immediately rather than after a
// full interval.
func (s *Scheduler) StartMonitoring(botID string) {
	b, err := s.registry.Snapshot(botID)
	if err != nil {
		log.WithFields(log.Fields{"bot_id": botID, "error": err.Error()}).Error("Cannot monitor unknown bot")
		return
	}

	interval, ok := s.intervals[b.Type]
	if !ok {
		interval = time.Minute
	}

	s.mu.Lock()
	// Re-check after every wait: a concurrent StartMonitoring may have
	// installed a new handle while the mutex was released.
	for {
		existing, ok := s.loops[botID]
		if !ok {
			break
		}
		existing.cancel()
		s.mu.Unlock()
		<-existing.done
		s.mu.Lock()
	}
	ctx, cancel := context.WithCancel(context.Background())
	handle := &loopHandle{cancel: cancel, done: make(chan struct{})}
	s.loops[botID] = handle
	s.mu.Unlock()

	go s.run(ctx, handle, botID, interval)

	log.WithFields(log.Fields{
		"bot_id":   botID,
		"type":     b.Type,
		"interval": interval.String(),
	}).Info("Bot monitoring started")
}

// StopMonitoring cancels the loop for a bot. No-op when no loop exists.
// The call does not wait for an in-flight tick: it may be issued from
// inside that tick (a terminal evaluator decision) and the tick is allowed
// to finish on its own.
func (s *Scheduler) StopMonitoring(botID string) {
	s.mu.Lock()
	handle, ok := s.loops[botID]
	if ok {
		delete(s.loops, botID)
	}
	s.mu.Unlock()
	if !ok {
		return
	}
	handle.cancel()
	log.WithFields(log.Fields{"bot_id": botID}).Info("Bot monitoring stopped")
}

// StopAll cancels every loop. Used on shutdown.
func (s *Scheduler) StopAll() {
	s.mu.Lock()
	handles := make([]*loopHandle, 0, len(s.loops))
	for id, h := range s.loops {
		handles = append(handles, h)
		delete(s.loops, id)
	}
	s.mu.Unlock()
	for _, h := range handles {
		h.cancel()
		<-h.done
	}
}

// Running reports whether a loop currently exists for the bot id.
func (s *Scheduler) Running(botID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.loops[botID]
	return ok
}

func (s *Scheduler) run(ctx context.Context, handle *loopHandle, botID string, interval time.Duration) {
	defer close(handle.done)
	defer s.forget(botID, handle)

	// Immediate first tick so a fresh bot does not wait a full interval.
	if !s.tick(ctx, botID) {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !s.tick(ctx, botID) {
				return
			}
		}
	}
}

// forget removes the loop entry if it still points at this handle; a
// replacement loop installed by StartMonitoring is left alone.
func (s *Scheduler) forget(botID string, handle *loopHandle) {
	s.mu.Lock()
	if current, ok := s.loops[botID]; ok && current == handle {
		delete(s.loops, botID)
	}
	s.mu.Unlock()
}

// tick runs one evaluation. Returns false when the loop should exit. Any
// error raised inside the tick is recorded and contained: one bad tick
// never kills monitoring.
func (s *Scheduler) tick(ctx context.Context, botID string) bool {
	if ctx.Err() != nil {
		return false
	}

	// Re-read status each tick: a stale timer firing after an external
	// stop must not trade.
	b, err := s.registry.Snapshot(botID)
	if err != nil {
		return false
	}
	if b.Status != StatusActive {
		return false
	}

	eval, err := evaluatorFor(b.Type)
	if err != nil {
		s.registry.RecordFailure(ctx, botID, err.Error())
		return false
	}

	result, err := eval.Evaluate(ctx, b, EvalDeps{Provider: s.provider, Risk: s.risk, Now: s.now()})
	if err != nil {
		s.registry.RecordFailure(ctx, botID, fmt.Sprintf("tick failed: %v", err))
		return true
	}

	completed := result.Done
	if result.Intent != nil {
		filled, err := s.execute(ctx, b, result.Intent)
		if err != nil {
			s.registry.RecordFailure(ctx, botID, fmt.Sprintf("execution failed: %v", err))
		} else if filled && result.Intent.CompleteOnFill {
			completed = true
		}
	}

	if !result.LastChecked.IsZero() {
		s.registry.AdvanceLastChecked(ctx, botID, result.LastChecked)
	}

	if completed {
		if err := s.registry.MarkTerminal(ctx, botID, StatusCompleted); err != nil {
			log.WithFields(log.Fields{"bot_id": botID, "error": err.Error()}).Warn("Failed to mark bot completed")
		}
		return false
	}
	return true
}

// execute submits an intent to the trade executor and records the outcome.
// Returns whether the intent fully settled.
func (s *Scheduler) execute(ctx context.Context, b *Bot, intent *TradeIntent) (bool, error) {
	if cap := b.Config.General.MaxTransactionsPerDay; cap > 0 {
		if s.registry.TransactionsToday(b.ID) >= cap {
			s.registry.RecordFailure(ctx, b.ID, fmt.Sprintf("daily transaction limit of %d reached, skipping %s", cap, intent.Direction))
			return false, nil
		}
	}

	params := chain.TradeParams{
		Slippage:      intent.General.Slippage,
		GasMultiplier: intent.General.GasMultiplier,
		AntiMev:       intent.General.AntiMevEnabled,
	}

	var result *chain.TransactionResult
	var err error
	switch intent.Direction {
	case chain.DirectionBuy:
		result, err = s.executor.Buy(ctx, intent.Token, intent.Amount, b.Blockchain, params)
	case chain.DirectionSell:
		result, err = s.executor.Sell(ctx, intent.Token, intent.Amount, b.Blockchain, params)
	default:
		return false, fmt.Errorf("unknown intent direction %q", intent.Direction)
	}
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrExecutionFailed, err)
	}

	tx := Transaction{
		Token:       result.Token,
		Direction:   result.Direction,
		Amount:      result.Amount,
		Price:       result.Price,
		NetworkFee:  result.NetworkFee,
		PlatformFee: result.PlatformFee,
		Status:      result.Status,
		TxHash:      result.TxHash,
		Timestamp:   result.Timestamp,
	}
	if err := s.registry.RecordTransaction(ctx, b.ID, tx); err != nil {
		return false, err
	}

	if result.Status != "completed" {
		return false, nil
	}
	if result.Amount < intent.Amount && !intent.AllowPartial {
		s.registry.RecordFailure(ctx, b.ID, fmt.Sprintf("partial fill of %f/%f not allowed", result.Amount, intent.Amount))
		return false, nil
	}
	return true, nil
}
