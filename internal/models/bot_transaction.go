package models

import (
	"time"
)

type BotTransaction struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	BotID       string    `gorm:"size:64;not null;index" json:"bot_id"`
	Token       string    `gorm:"size:100;not null" json:"token"`
	Direction   string    `gorm:"size:10;not null" json:"direction"`
	Amount      float64   `gorm:"not null" json:"amount"`
	Price       float64   `gorm:"not null" json:"price"`
	NetworkFee  float64   `json:"network_fee"`
	PlatformFee float64   `json:"platform_fee"`
	Status      string    `gorm:"size:20;not null" json:"status"`
	TxHash      string    `gorm:"type:text" json:"tx_hash"`
	Timestamp   time.Time `gorm:"not null" json:"timestamp"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (BotTransaction) TableName() string {
	return "bot_transaction"
}
