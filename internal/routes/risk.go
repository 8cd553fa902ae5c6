package routes

import (
	"github.com/gin-gonic/gin"

	"botcontrol/internal/handlers"
)

// SetupRiskRoutes sets up all routes related to token risk analysis
func SetupRiskRoutes(r *gin.Engine) {
	risk := r.Group("/risk")
	{
		risk.GET("/:chain/:address", handlers.GetRiskReport)
		risk.POST("/analyze", handlers.RequestRiskAnalysis)
	}
}
