package routes

import (
	"github.com/gin-gonic/gin"

	"botcontrol/internal/handlers"
)

// SetupBotRoutes sets up all routes related to trading bot management
func SetupBotRoutes(r *gin.Engine) {
	bots := r.Group("/bots")
	{
		bots.POST("", handlers.CreateBot)
		bots.GET("", handlers.ListBots)
		bots.GET("/:id", handlers.GetBot)
		bots.POST("/:id/start", handlers.StartBot)
		bots.POST("/:id/stop", handlers.StopBot)
		bots.POST("/:id/pause", handlers.PauseBot)
		bots.POST("/:id/resume", handlers.ResumeBot)
		bots.GET("/:id/transactions", handlers.GetBotTransactions)
		bots.GET("/:id/events", handlers.GetBotEvents)
		bots.GET("/:id/performance", handlers.GetBotPerformance)
	}
}
