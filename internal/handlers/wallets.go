package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// WalletCreateRequest carries the keystore password for a new bot wallet
type WalletCreateRequest struct {
	Password string `json:"password" binding:"required"`
}

// CreateWallet generates a Solana key pair for a bot, stores the encrypted
// keystore entry and returns the public address
func CreateWallet(c *gin.Context) {
	if KeyManager == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "key manager not available"})
		return
	}

	var request WalletCreateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "password is required"})
		return
	}

	account, err := KeyManager.GenerateKeyPair()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := KeyManager.SaveKeyStoreEntry(account, request.Password); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	address := account.PublicKey.ToBase58()
	log.WithFields(log.Fields{
		"address": address,
	}).Info("Bot wallet generated")

	c.JSON(http.StatusCreated, gin.H{"address": address})
}

// ListWatchedWallets returns the connection state of every watched wallet
func ListWatchedWallets(c *gin.Context) {
	if Watcher == nil {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	c.JSON(http.StatusOK, Watcher.ActiveWallets())
}
