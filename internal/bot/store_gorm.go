package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"botcontrol/internal/models"
)

// GormStore persists bots in postgres. The bot row carries the config as
// jsonb plus the derived performance columns; transactions and events live
// in their own append-only tables.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) SaveBot(ctx context.Context, b *Bot) error {
	cfg, err := json.Marshal(b.Config)
	if err != nil {
		return fmt.Errorf("failed to marshal bot config: %w", err)
	}

	row := models.TradingBot{
		ID:                b.ID,
		UserID:            b.UserID,
		Name:              b.Name,
		Type:              string(b.Type),
		Status:            string(b.Status),
		Blockchain:        b.Blockchain,
		WalletAddress:     b.WalletAddress,
		Config:            cfg,
		TotalProfitUSD:    b.Performance.TotalProfitUSD,
		TotalTransactions: b.Performance.TotalTransactions,
		SuccessRate:       b.Performance.SuccessRate,
		ROI:               b.Performance.ROI,
		AverageHoldTime:   b.Performance.AverageHoldTime,
		LastCheckedAt:     b.LastCheckedAt,
		CreatedAt:         b.CreatedAt,
	}

	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "status", "config", "total_profit_usd", "total_transactions",
			"success_rate", "roi", "average_hold_time", "last_checked_at", "updated_at",
		}),
	}).Create(&row).Error
}

func (s *GormStore) AppendTransaction(ctx context.Context, botID string, tx Transaction) error {
	row := models.BotTransaction{
		BotID:       botID,
		Token:       tx.Token,
		Direction:   tx.Direction,
		Amount:      tx.Amount,
		Price:       tx.Price,
		NetworkFee:  tx.NetworkFee,
		PlatformFee: tx.PlatformFee,
		Status:      tx.Status,
		TxHash:      tx.TxHash,
		Timestamp:   tx.Timestamp,
	}
	return s.db.WithContext(ctx).Create(&row).Error
}

func (s *GormStore) AppendEvent(ctx context.Context, botID string, ev Event) error {
	row := models.BotEvent{
		BotID:     botID,
		Level:     ev.Level,
		Message:   ev.Message,
		Timestamp: ev.Timestamp,
	}
	return s.db.WithContext(ctx).Create(&row).Error
}

func (s *GormStore) GetBot(ctx context.Context, id string) (*Bot, error) {
	var row models.TradingBot
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s.load(ctx, &row)
}

func (s *GormStore) ListBots(ctx context.Context, userID string) ([]*Bot, error) {
	var rows []models.TradingBot
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return s.loadAll(ctx, rows)
}

func (s *GormStore) ListActiveBots(ctx context.Context) ([]*Bot, error) {
	var rows []models.TradingBot
	if err := s.db.WithContext(ctx).Where("status = ?", string(StatusActive)).Find(&rows).Error; err != nil {
		return nil, err
	}
	return s.loadAll(ctx, rows)
}

func (s *GormStore) loadAll(ctx context.Context, rows []models.TradingBot) ([]*Bot, error) {
	out := make([]*Bot, 0, len(rows))
	for i := range rows {
		b, err := s.load(ctx, &rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func (s *GormStore) load(ctx context.Context, row *models.TradingBot) (*Bot, error) {
	var cfg Config
	if len(row.Config) > 0 {
		if err := json.Unmarshal(row.Config, &cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config for bot %s: %w", row.ID, err)
		}
	}

	b := &Bot{
		ID:            row.ID,
		UserID:        row.UserID,
		Name:          row.Name,
		Type:          BotType(row.Type),
		Status:        BotStatus(row.Status),
		Blockchain:    row.Blockchain,
		WalletAddress: row.WalletAddress,
		Config:        cfg,
		Performance: Performance{
			TotalProfitUSD:    row.TotalProfitUSD,
			TotalTransactions: row.TotalTransactions,
			SuccessRate:       row.SuccessRate,
			ROI:               row.ROI,
			AverageHoldTime:   row.AverageHoldTime,
		},
		LastCheckedAt: row.LastCheckedAt,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}

	var txRows []models.BotTransaction
	if err := s.db.WithContext(ctx).Where("bot_id = ?", row.ID).Order("timestamp ASC, id ASC").Find(&txRows).Error; err != nil {
		return nil, err
	}
	for _, t := range txRows {
		b.Transactions = append(b.Transactions, Transaction{
			Token:       t.Token,
			Direction:   t.Direction,
			Amount:      t.Amount,
			Price:       t.Price,
			NetworkFee:  t.NetworkFee,
			PlatformFee: t.PlatformFee,
			Status:      t.Status,
			TxHash:      t.TxHash,
			Timestamp:   t.Timestamp,
		})
	}

	var evRows []models.BotEvent
	if err := s.db.WithContext(ctx).Where("bot_id = ?", row.ID).Order("timestamp ASC, id ASC").Find(&evRows).Error; err != nil {
		return nil, err
	}
	for _, e := range evRows {
		b.Events = append(b.Events, Event{Timestamp: e.Timestamp, Level: e.Level, Message: e.Message})
	}

	return b, nil
}
