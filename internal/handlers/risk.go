package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"botcontrol/internal/models"
	dbconfig "botcontrol/pkg/config"
)

// reportTTL is how long a cached risk report stays fresh
const reportTTL = 30 * time.Minute

// RiskAnalysisQueue receives async analysis requests for the worker
const RiskAnalysisQueue = "risk_analysis"

// RiskAnalysisRequest is the message published for async scoring
type RiskAnalysisRequest struct {
	TokenAddress string `json:"token_address"`
	Blockchain   string `json:"blockchain"`
}

// GetRiskReport returns the risk assessment for a token, using a cached
// report when one is fresh enough
func GetRiskReport(c *gin.Context) {
	chainName := c.Param("chain")
	address := c.Param("address")
	if chainName == "" || address == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "chain and address are required"})
		return
	}

	if dbconfig.DB != nil {
		var report models.RiskReport
		err := dbconfig.DB.Where("token_address = ? AND blockchain = ?", address, chainName).First(&report).Error
		if err == nil && time.Since(report.AnalyzedAt) < reportTTL {
			c.JSON(http.StatusOK, report)
			return
		}
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}

	report, err := AnalyzeToken(c.Request.Context(), address, chainName)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}

// RequestRiskAnalysis queues a token for asynchronous scoring by the worker
func RequestRiskAnalysis(c *gin.Context) {
	var request RiskAnalysisRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	if request.TokenAddress == "" || request.Blockchain == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token_address and blockchain are required"})
		return
	}

	if Publisher == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "message queue not available"})
		return
	}
	if err := Publisher.Publish(RiskAnalysisQueue, request); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "Analysis queued"})
}

// AnalyzeToken fetches token facts and liquidity, scores them and upserts the
// report. Shared by the HTTP handler and the worker.
func AnalyzeToken(ctx context.Context, address, chainName string) (*models.RiskReport, error) {
	facts, err := Provider.GetTokenFacts(ctx, address, chainName)
	if err != nil {
		return nil, err
	}
	liq, err := Provider.GetLiquidity(ctx, address, chainName)
	if err != nil {
		return nil, err
	}

	assessment := RiskEngine.Score(facts, liq)
	factorsJSON, err := json.Marshal(assessment.Factors)
	if err != nil {
		return nil, err
	}

	report := &models.RiskReport{
		TokenAddress:   address,
		Blockchain:     chainName,
		Score:          assessment.Score,
		Level:          string(assessment.Level),
		Factors:        factorsJSON,
		Recommendation: assessment.Recommendation,
		AnalyzedAt:     time.Now().UTC(),
	}

	if dbconfig.DB != nil {
		err = dbconfig.DB.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "token_address"}, {Name: "blockchain"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"score", "level", "factors", "recommendation", "analyzed_at", "updated_at",
			}),
		}).Create(report).Error
		if err != nil {
			log.WithFields(log.Fields{
				"token": address,
				"chain": chainName,
				"error": err.Error(),
			}).Error("Failed to persist risk report")
		}
	}

	log.WithFields(log.Fields{
		"token": address,
		"chain": chainName,
		"score": assessment.Score,
		"level": assessment.Level,
	}).Info("Token risk scored")

	return report, nil
}
