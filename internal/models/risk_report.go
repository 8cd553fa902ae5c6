package models

import (
	"encoding/json"
	"time"
)

type RiskReport struct {
	ID             uint            `gorm:"primarykey" json:"id"`
	TokenAddress   string          `gorm:"size:100;not null;uniqueIndex:idx_risk_token_chain" json:"token_address"`
	Blockchain     string          `gorm:"size:30;not null;uniqueIndex:idx_risk_token_chain" json:"blockchain"`
	Score          int             `gorm:"not null" json:"score"`
	Level          string          `gorm:"size:20;not null" json:"level"`
	Factors        json.RawMessage `gorm:"type:jsonb" json:"factors"`
	Recommendation string          `gorm:"type:text" json:"recommendation"`
	AnalyzedAt     time.Time       `gorm:"not null" json:"analyzed_at"`
	CreatedAt      time.Time       `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt      time.Time       `json:"updated_at" gorm:"autoUpdateTime"`
}

func (RiskReport) TableName() string {
	return "risk_report"
}
