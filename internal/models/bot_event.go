package models

import (
	"time"
)

type BotEvent struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	BotID     string    `gorm:"size:64;not null;index" json:"bot_id"`
	Level     string    `gorm:"size:10;not null" json:"level"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	Timestamp time.Time `gorm:"not null" json:"timestamp"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (BotEvent) TableName() string {
	return "bot_event"
}
