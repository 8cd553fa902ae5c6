package bot

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Monitor is the scheduler hook the registry signals on lifecycle changes.
type Monitor interface {
	StartMonitoring(botID string)
	StopMonitoring(botID string)
}

// Notifier publishes bot events for out-of-process delivery. Matches the
// RabbitMQ publisher in pkg/config.
type Notifier interface {
	Publish(queue string, message interface{}) error
}

// NotificationQueue receives lifecycle and trade notifications.
const NotificationQueue = "bot_notifications"

// Notification is the message shape published to NotificationQueue.
type Notification struct {
	BotID     string    `json:"bot_id"`
	UserID    string    `json:"user_id"`
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type entry struct {
	mu  sync.Mutex
	bot *Bot
}

// Registry owns bot state and the lifecycle state machine. Access is
// serialized per bot id; different bots proceed concurrently. The Scheduler
// owns execution handles and only ever receives bot ids and snapshots.
type Registry struct {
	store    Store
	monitor  Monitor
	notifier Notifier
	now      func() time.Time
	newID    func() string

	supported map[string]bool

	mu   sync.RWMutex
	bots map[string]*entry
}

type RegistryOption func(*Registry)

// WithSupportedChains overrides the blockchains accepted at bot creation.
func WithSupportedChains(chains ...string) RegistryOption {
	return func(r *Registry) {
		r.supported = make(map[string]bool, len(chains))
		for _, c := range chains {
			r.supported[c] = true
		}
	}
}

// WithNotifier attaches an event publisher.
func WithNotifier(n Notifier) RegistryOption {
	return func(r *Registry) { r.notifier = n }
}

// WithNow injects deterministic time for tests.
func WithNow(now func() time.Time) RegistryOption {
	return func(r *Registry) { r.now = now }
}

func NewRegistry(store Store, opts ...RegistryOption) *Registry {
	r := &Registry{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		supported: map[string]bool{
			"solana": true, "ethereum": true, "binance_smart_chain": true,
		},
		bots: make(map[string]*entry),
	}
	r.newID = func() string { return fmt.Sprintf("bot_%d", r.now().UnixNano()) }
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetMonitor wires the scheduler after construction (the scheduler itself
// needs the registry, so the edge is set late).
func (r *Registry) SetMonitor(m Monitor) {
	r.monitor = m
}

// Restore loads every active bot from the store and resumes monitoring.
// Called once at startup.
func (r *Registry) Restore(ctx context.Context) error {
	bots, err := r.store.ListActiveBots(ctx)
	if err != nil {
		return fmt.Errorf("failed to load active bots: %w", err)
	}
	r.mu.Lock()
	for _, b := range bots {
		r.bots[b.ID] = &entry{bot: b}
	}
	r.mu.Unlock()

	for _, b := range bots {
		if r.monitor != nil {
			r.monitor.StartMonitoring(b.ID)
		}
	}
	log.WithFields(log.Fields{"count": len(bots)}).Info("Restored active bots")
	return nil
}

// CreateBot validates the configuration, stores the bot as active and starts
// monitoring. Returns the new bot id.
func (r *Registry) CreateBot(ctx context.Context, cfg Config, userID string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("%w: owner id is required", ErrInvalidConfiguration)
	}
	if err := cfg.Validate(); err != nil {
		return "", err
	}
	if !r.supported[cfg.Blockchain] {
		return "", fmt.Errorf("%w: unsupported blockchain %q", ErrInvalidConfiguration, cfg.Blockchain)
	}

	now := r.now()
	b := &Bot{
		ID:            r.newID(),
		UserID:        userID,
		Name:          cfg.Name,
		Type:          cfg.Type,
		Status:        StatusActive,
		Blockchain:    cfg.Blockchain,
		WalletAddress: cfg.WalletAddress,
		Config:        cfg,
		LastCheckedAt: now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := r.store.SaveBot(ctx, b); err != nil {
		return "", fmt.Errorf("failed to persist bot: %w", err)
	}

	r.mu.Lock()
	r.bots[b.ID] = &entry{bot: b}
	r.mu.Unlock()

	log.WithFields(log.Fields{
		"bot_id":     b.ID,
		"user_id":    userID,
		"type":       b.Type,
		"blockchain": b.Blockchain,
	}).Info("Trading bot created")

	r.notify(b, "created", fmt.Sprintf("%s bot created", b.Type))

	if r.monitor != nil {
		r.monitor.StartMonitoring(b.ID)
	}
	return b.ID, nil
}

// GetBot returns a copy of the bot after an ownership check.
func (r *Registry) GetBot(ctx context.Context, id, callerID string) (*Bot, error) {
	e, err := r.entry(ctx, id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.bot.UserID != callerID {
		return nil, fmt.Errorf("%w: bot %s belongs to another user", ErrUnauthorized, id)
	}
	return e.bot.Clone(), nil
}

// ListBots returns copies of all bots owned by the user. The store is
// consulted as well as the cache: after a restart only active bots are
// re-cached, but stopped and terminal bots still belong in the listing.
func (r *Registry) ListBots(ctx context.Context, ownerID string) []*Bot {
	stored, err := r.store.ListBots(ctx, ownerID)
	if err != nil {
		log.WithFields(log.Fields{"user_id": ownerID, "error": err.Error()}).Error("Failed to list stored bots")
	}

	r.mu.Lock()
	for _, b := range stored {
		if _, ok := r.bots[b.ID]; !ok {
			r.bots[b.ID] = &entry{bot: b}
		}
	}
	entries := make([]*entry, 0, len(r.bots))
	for _, e := range r.bots {
		entries = append(entries, e)
	}
	r.mu.Unlock()

	var out []*Bot
	for _, e := range entries {
		e.mu.Lock()
		if e.bot.UserID == ownerID {
			out = append(out, e.bot.Clone())
		}
		e.mu.Unlock()
	}
	return out
}

// ListAll returns copies of every cached bot regardless of owner. Intended
// for in-process wiring at startup, not for API handlers.
func (r *Registry) ListAll() []*Bot {
	r.mu.RLock()
	entries := make([]*entry, 0, len(r.bots))
	for _, e := range r.bots {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	out := make([]*Bot, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		out = append(out, e.bot.Clone())
		e.mu.Unlock()
	}
	return out
}

// Stop transitions the bot to stopped and cancels its monitoring loop.
// Idempotent on an already-stopped bot.
func (r *Registry) Stop(ctx context.Context, id, callerID string) error {
	e, err := r.entry(ctx, id)
	if err != nil {
		return err
	}

	e.mu.Lock()
	if e.bot.UserID != callerID {
		e.mu.Unlock()
		return fmt.Errorf("%w: bot %s belongs to another user", ErrUnauthorized, id)
	}
	if e.bot.Status == StatusStopped {
		e.mu.Unlock()
		return nil
	}
	switch e.bot.Status {
	case StatusActive, StatusPaused:
	default:
		e.mu.Unlock()
		return fmt.Errorf("%w: cannot stop a %s bot", ErrInvalidTransition, e.bot.Status)
	}
	e.bot.Status = StatusStopped
	e.bot.UpdatedAt = r.now()
	b := e.bot.Clone()
	e.mu.Unlock()

	if r.monitor != nil {
		r.monitor.StopMonitoring(id)
	}
	if err := r.store.SaveBot(ctx, b); err != nil {
		log.WithFields(log.Fields{"bot_id": id, "error": err.Error()}).Error("Failed to persist stop")
	}
	log.WithFields(log.Fields{"bot_id": id}).Info("Bot stopped")
	r.notify(b, "stopped", "bot stopped")
	return nil
}

// Start reactivates a stopped bot and restarts monitoring. Only legal from
// the stopped state.
func (r *Registry) Start(ctx context.Context, id, callerID string) error {
	e, err := r.entry(ctx, id)
	if err != nil {
		return err
	}

	e.mu.Lock()
	if e.bot.UserID != callerID {
		e.mu.Unlock()
		return fmt.Errorf("%w: bot %s belongs to another user", ErrUnauthorized, id)
	}
	switch e.bot.Status {
	case StatusStopped:
	case StatusActive:
		e.mu.Unlock()
		return fmt.Errorf("%w: bot is already active", ErrInvalidTransition)
	case StatusCompleted:
		e.mu.Unlock()
		return fmt.Errorf("%w: cannot restart a completed bot", ErrInvalidTransition)
	default:
		e.mu.Unlock()
		return fmt.Errorf("%w: cannot start a %s bot", ErrInvalidTransition, e.bot.Status)
	}
	e.bot.Status = StatusActive
	e.bot.UpdatedAt = r.now()
	b := e.bot.Clone()
	e.mu.Unlock()

	if err := r.store.SaveBot(ctx, b); err != nil {
		log.WithFields(log.Fields{"bot_id": id, "error": err.Error()}).Error("Failed to persist start")
	}
	log.WithFields(log.Fields{"bot_id": id}).Info("Bot restarted")
	r.notify(b, "started", "bot restarted")

	if r.monitor != nil {
		r.monitor.StartMonitoring(id)
	}
	return nil
}

// Pause moves an active bot to paused without detaching its scheduler loop
// state; the loop self-cancels on its next status check.
func (r *Registry) Pause(ctx context.Context, id, callerID string) error {
	e, err := r.entry(ctx, id)
	if err != nil {
		return err
	}

	e.mu.Lock()
	if e.bot.UserID != callerID {
		e.mu.Unlock()
		return fmt.Errorf("%w: bot %s belongs to another user", ErrUnauthorized, id)
	}
	if e.bot.Status != StatusActive {
		e.mu.Unlock()
		return fmt.Errorf("%w: only an active bot can be paused", ErrInvalidTransition)
	}
	e.bot.Status = StatusPaused
	e.bot.UpdatedAt = r.now()
	b := e.bot.Clone()
	e.mu.Unlock()

	if r.monitor != nil {
		r.monitor.StopMonitoring(id)
	}
	if err := r.store.SaveBot(ctx, b); err != nil {
		log.WithFields(log.Fields{"bot_id": id, "error": err.Error()}).Error("Failed to persist pause")
	}
	return nil
}

// Resume moves a paused bot back to active.
func (r *Registry) Resume(ctx context.Context, id, callerID string) error {
	e, err := r.entry(ctx, id)
	if err != nil {
		return err
	}

	e.mu.Lock()
	if e.bot.UserID != callerID {
		e.mu.Unlock()
		return fmt.Errorf("%w: bot %s belongs to another user", ErrUnauthorized, id)
	}
	if e.bot.Status != StatusPaused {
		e.mu.Unlock()
		return fmt.Errorf("%w: only a paused bot can be resumed", ErrInvalidTransition)
	}
	e.bot.Status = StatusActive
	e.bot.UpdatedAt = r.now()
	b := e.bot.Clone()
	e.mu.Unlock()

	if err := r.store.SaveBot(ctx, b); err != nil {
		log.WithFields(log.Fields{"bot_id": id, "error": err.Error()}).Error("Failed to persist resume")
	}
	if r.monitor != nil {
		r.monitor.StartMonitoring(id)
	}
	return nil
}

// RecordTransaction appends the transaction, recomputes performance and logs
// an info event. Transactions are append-only.
func (r *Registry) RecordTransaction(ctx context.Context, id string, tx Transaction) error {
	e, err := r.entry(ctx, id)
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.bot.Transactions = append(e.bot.Transactions, tx)
	e.bot.Performance = recomputePerformance(e.bot.Transactions)
	ev := Event{
		Timestamp: r.now(),
		Level:     "info",
		Message:   fmt.Sprintf("%s %f %s at %f (%s)", tx.Direction, tx.Amount, tx.Token, tx.Price, tx.Status),
	}
	e.bot.Events = append(e.bot.Events, ev)
	e.bot.UpdatedAt = r.now()
	b := e.bot.Clone()
	e.mu.Unlock()

	if err := r.store.AppendTransaction(ctx, id, tx); err != nil {
		log.WithFields(log.Fields{"bot_id": id, "error": err.Error()}).Error("Failed to persist transaction")
	}
	if err := r.store.AppendEvent(ctx, id, ev); err != nil {
		log.WithFields(log.Fields{"bot_id": id, "error": err.Error()}).Error("Failed to persist event")
	}
	if err := r.store.SaveBot(ctx, b); err != nil {
		log.WithFields(log.Fields{"bot_id": id, "error": err.Error()}).Error("Failed to persist performance")
	}

	log.WithFields(log.Fields{
		"bot_id":    id,
		"token":     tx.Token,
		"direction": tx.Direction,
		"amount":    tx.Amount,
		"price":     tx.Price,
		"status":    tx.Status,
		"tx_hash":   tx.TxHash,
	}).Info("Transaction recorded")

	r.notify(b, "transaction", ev.Message)
	return nil
}

// RecordFailure appends an error-level event. It never changes the bot's
// status; only an explicit stop or a terminal evaluator decision does.
func (r *Registry) RecordFailure(ctx context.Context, id, message string) error {
	e, err := r.entry(ctx, id)
	if err != nil {
		return err
	}

	ev := Event{Timestamp: r.now(), Level: "error", Message: message}
	e.mu.Lock()
	e.bot.Events = append(e.bot.Events, ev)
	e.bot.UpdatedAt = r.now()
	e.mu.Unlock()

	if err := r.store.AppendEvent(ctx, id, ev); err != nil {
		log.WithFields(log.Fields{"bot_id": id, "error": err.Error()}).Error("Failed to persist failure event")
	}
	log.WithFields(log.Fields{"bot_id": id, "message": message}).Warn("Bot tick failed")
	return nil
}

// MarkTerminal moves a bot to completed or failed and cancels its loop. Used
// when a single-shot objective is fulfilled or unrecoverable.
func (r *Registry) MarkTerminal(ctx context.Context, id string, status BotStatus) error {
	if status != StatusCompleted && status != StatusFailed {
		return fmt.Errorf("%w: %s is not a terminal status", ErrInvalidTransition, status)
	}
	e, err := r.entry(ctx, id)
	if err != nil {
		return err
	}

	e.mu.Lock()
	if e.bot.Status != StatusActive && e.bot.Status != StatusPaused {
		e.mu.Unlock()
		return fmt.Errorf("%w: cannot mark a %s bot as %s", ErrInvalidTransition, e.bot.Status, status)
	}
	e.bot.Status = status
	e.bot.UpdatedAt = r.now()
	ev := Event{Timestamp: r.now(), Level: "info", Message: fmt.Sprintf("bot %s", status)}
	e.bot.Events = append(e.bot.Events, ev)
	b := e.bot.Clone()
	e.mu.Unlock()

	if r.monitor != nil {
		r.monitor.StopMonitoring(id)
	}
	if err := r.store.AppendEvent(ctx, id, ev); err != nil {
		log.WithFields(log.Fields{"bot_id": id, "error": err.Error()}).Error("Failed to persist terminal event")
	}
	if err := r.store.SaveBot(ctx, b); err != nil {
		log.WithFields(log.Fields{"bot_id": id, "error": err.Error()}).Error("Failed to persist terminal status")
	}
	log.WithFields(log.Fields{"bot_id": id, "status": status}).Info("Bot reached terminal state")
	r.notify(b, string(status), fmt.Sprintf("bot %s", status))
	return nil
}

// Snapshot returns a copy of the bot without an ownership check. Intended
// for the scheduler, which operates on behalf of the owner.
func (r *Registry) Snapshot(id string) (*Bot, error) {
	e, err := r.entry(context.Background(), id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.bot.Clone(), nil
}

// AdvanceLastChecked moves the copy-trading watermark forward. Never moves
// it backwards, so a failed tick cannot lose feed entries.
func (r *Registry) AdvanceLastChecked(ctx context.Context, id string, to time.Time) {
	e, err := r.entry(ctx, id)
	if err != nil {
		return
	}
	e.mu.Lock()
	if to.After(e.bot.LastCheckedAt) {
		e.bot.LastCheckedAt = to
	}
	b := e.bot.Clone()
	e.mu.Unlock()

	if err := r.store.SaveBot(ctx, b); err != nil {
		log.WithFields(log.Fields{"bot_id": id, "error": err.Error()}).Error("Failed to persist watermark")
	}
}

// TransactionsToday counts completed transactions recorded during the
// current UTC day, for the daily transaction cap.
func (r *Registry) TransactionsToday(id string) int {
	e, err := r.entry(context.Background(), id)
	if err != nil {
		return 0
	}
	dayStart := r.now().Truncate(24 * time.Hour)
	e.mu.Lock()
	defer e.mu.Unlock()
	count := 0
	for _, tx := range e.bot.Transactions {
		if !tx.Timestamp.Before(dayStart) && tx.Status == "completed" {
			count++
		}
	}
	return count
}

func (r *Registry) entry(ctx context.Context, id string) (*entry, error) {
	r.mu.RLock()
	e, ok := r.bots[id]
	r.mu.RUnlock()
	if ok {
		return e, nil
	}

	// Fall back to the store for bots not yet cached in memory.
	b, err := r.store.GetBot(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.bots[id]; ok {
		return e, nil
	}
	e = &entry{bot: b}
	r.bots[id] = e
	return e, nil
}

func (r *Registry) notify(b *Bot, kind, message string) {
	if r.notifier == nil {
		return
	}
	n := Notification{
		BotID:     b.ID,
		UserID:    b.UserID,
		Kind:      kind,
		Message:   message,
		Timestamp: r.now(),
	}
	if err := r.notifier.Publish(NotificationQueue, n); err != nil {
		log.WithFields(log.Fields{"bot_id": b.ID, "error": err.Error()}).Warn("Failed to publish notification")
	}
}
