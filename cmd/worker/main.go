package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"time"

	logrus "github.com/sirupsen/logrus"

	"botcontrol/internal/handlers"
	"botcontrol/internal/risk"
	"botcontrol/pkg/chain"
	"botcontrol/pkg/config"
	"botcontrol/pkg/solana"
)

func main() {
	// Initialize logger
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetLevel(logrus.InfoLevel)

	// Initialize database
	config.InitDB()

	// Initialize RabbitMQ
	config.InitRabbitMQ()
	defer config.RabbitMQ.Close()

	// Wire the Solana data provider for scoring
	rpcEndpoint := os.Getenv("DEFAULT_SOLANA_RPC")
	if rpcEndpoint == "" {
		rpcEndpoint = "https://api.mainnet-beta.solana.com"
	}
	provider := solana.NewProvider(rpcEndpoint, os.Getenv("HELIUS_API_KEY"))

	mux := chain.NewMux()
	mux.Register(solana.ChainName, provider)
	handlers.Init(nil, risk.NewEngine(), mux)

	// Create consumer for the risk analysis queue
	msgConsumer, err := config.NewConsumer(handlers.RiskAnalysisQueue)
	if err != nil {
		logrus.Fatal("Failed to create consumer: ", err)
	}
	defer msgConsumer.Close()

	logrus.Info("Risk analysis worker started, waiting for messages...")

	err = msgConsumer.Consume(func(msg []byte) error {
		var request handlers.RiskAnalysisRequest
		if err := json.Unmarshal(msg, &request); err != nil {
			logrus.Errorf("Failed to unmarshal message: %v", err)
			return err
		}

		logrus.WithFields(logrus.Fields{
			"token": request.TokenAddress,
			"chain": request.Blockchain,
		}).Info("Received analysis request")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		report, err := handlers.AnalyzeToken(ctx, request.TokenAddress, request.Blockchain)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"token": request.TokenAddress,
				"chain": request.Blockchain,
				"error": err.Error(),
			}).Error("Failed to analyze token")
			return err
		}

		logrus.WithFields(logrus.Fields{
			"token": request.TokenAddress,
			"chain": request.Blockchain,
			"score": report.Score,
			"level": report.Level,
		}).Info("Analysis complete")
		return nil
	})

	if err != nil {
		log.Fatal("Failed to start consumer: ", err)
	}
}
