package models

import (
	"encoding/json"
	"time"
)

type TradingBot struct {
	ID                string          `gorm:"primarykey;size:64" json:"id"`
	UserID            string          `gorm:"size:64;not null;index" json:"user_id"`
	Name              string          `gorm:"size:100" json:"name"`
	Type              string          `gorm:"size:20;not null" json:"type"`
	Status            string          `gorm:"size:20;not null" json:"status"`
	Blockchain        string          `gorm:"size:30;not null" json:"blockchain"`
	WalletAddress     string          `gorm:"size:100;not null" json:"wallet_address"`
	Config            json.RawMessage `gorm:"type:jsonb" json:"config"`
	TotalProfitUSD    float64         `json:"total_profit_usd"`
	TotalTransactions int             `json:"total_transactions"`
	SuccessRate       float64         `json:"success_rate"`
	ROI               float64         `json:"roi"`
	AverageHoldTime   float64         `json:"average_hold_time"`
	LastCheckedAt     time.Time       `json:"last_checked_at"`
	CreatedAt         time.Time       `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt         time.Time       `json:"updated_at" gorm:"autoUpdateTime"`
}

func (TradingBot) TableName() string {
	return "trading_bot"
}
