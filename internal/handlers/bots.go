package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"botcontrol/internal/bot"
)

// userID extracts the caller identity from the X-User-ID header
func userID(c *gin.Context) (string, bool) {
	id := c.GetHeader("X-User-ID")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "X-User-ID header is required"})
		return "", false
	}
	return id, true
}

// respondBotError maps registry errors to HTTP status codes
func respondBotError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, bot.ErrInvalidConfiguration):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, bot.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, bot.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, bot.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// CreateBot creates a new trading bot from a strategy configuration
func CreateBot(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	var cfg bot.Config
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	id, err := Registry.CreateBot(c.Request.Context(), cfg, uid)
	if err != nil {
		respondBotError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// ListBots returns all bots owned by the caller
func ListBots(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, Registry.ListBots(c.Request.Context(), uid))
}

// GetBot returns a specific bot by ID
func GetBot(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	b, err := Registry.GetBot(c.Request.Context(), c.Param("id"), uid)
	if err != nil {
		respondBotError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// StartBot restarts a stopped bot
func StartBot(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	if err := Registry.Start(c.Request.Context(), c.Param("id"), uid); err != nil {
		respondBotError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Bot started"})
}

// StopBot stops an active or paused bot
func StopBot(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	if err := Registry.Stop(c.Request.Context(), c.Param("id"), uid); err != nil {
		respondBotError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Bot stopped"})
}

// PauseBot pauses an active bot
func PauseBot(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	if err := Registry.Pause(c.Request.Context(), c.Param("id"), uid); err != nil {
		respondBotError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Bot paused"})
}

// ResumeBot resumes a paused bot
func ResumeBot(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	if err := Registry.Resume(c.Request.Context(), c.Param("id"), uid); err != nil {
		respondBotError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Bot resumed"})
}

// GetBotTransactions returns the bot's transaction log
func GetBotTransactions(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	b, err := Registry.GetBot(c.Request.Context(), c.Param("id"), uid)
	if err != nil {
		respondBotError(c, err)
		return
	}
	txs := b.Transactions
	if txs == nil {
		txs = []bot.Transaction{}
	}
	c.JSON(http.StatusOK, txs)
}

// GetBotEvents returns the bot's diagnostic event log
func GetBotEvents(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	b, err := Registry.GetBot(c.Request.Context(), c.Param("id"), uid)
	if err != nil {
		respondBotError(c, err)
		return
	}
	events := b.Events
	if events == nil {
		events = []bot.Event{}
	}
	c.JSON(http.StatusOK, events)
}

// GetBotPerformance returns the bot's performance summary
func GetBotPerformance(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	b, err := Registry.GetBot(c.Request.Context(), c.Param("id"), uid)
	if err != nil {
		respondBotError(c, err)
		return
	}
	c.JSON(http.StatusOK, b.Performance)
}
