package models

import (
	"time"
)

type PerformanceSnapshot struct {
	ID                uint      `gorm:"primarykey" json:"id"`
	BotID             string    `gorm:"size:64;not null;index" json:"bot_id"`
	TotalProfitUSD    float64   `json:"total_profit_usd"`
	TotalTransactions int       `json:"total_transactions"`
	SuccessRate       float64   `json:"success_rate"`
	ROI               float64   `json:"roi"`
	SnapshotAt        time.Time `gorm:"not null;index" json:"snapshot_at"`
	CreatedAt         time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (PerformanceSnapshot) TableName() string {
	return "performance_snapshot"
}
