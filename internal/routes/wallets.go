package routes

import (
	"github.com/gin-gonic/gin"

	"botcontrol/internal/handlers"
)

// SetupWalletRoutes sets up all routes related to bot wallets and monitoring
func SetupWalletRoutes(r *gin.Engine) {
	wallets := r.Group("/wallets")
	{
		wallets.POST("", handlers.CreateWallet)
		wallets.GET("/watched", handlers.ListWatchedWallets)
	}
}
