package main

import (
	"context"
	"log"
	"os"

	logrus "github.com/sirupsen/logrus"

	"botcontrol/internal/bot"
	"botcontrol/internal/handlers"
	"botcontrol/internal/risk"
	"botcontrol/internal/routes"
	"botcontrol/pkg/chain"
	"botcontrol/pkg/config"
	"botcontrol/pkg/solana"
)

func main() {
	// Initialize database
	config.InitDB()

	// Initialize RabbitMQ (optional, will log warning if not configured)
	var notifier bot.Notifier
	if os.Getenv("RABBITMQ_HOST") != "" {
		config.InitRabbitMQ()
		defer func() {
			if config.RabbitMQ != nil {
				config.RabbitMQ.Close()
			}
		}()

		publisher, err := config.NewPublisher()
		if err != nil {
			log.Fatal("Failed to create publisher:", err)
		}
		defer publisher.Close()
		notifier = publisher
		handlers.Publisher = publisher
		log.Println("RabbitMQ initialized successfully")
	} else {
		log.Println("RabbitMQ not configured, skipping initialization")
	}

	// Wire the Solana data provider
	rpcEndpoint := os.Getenv("DEFAULT_SOLANA_RPC")
	if rpcEndpoint == "" {
		rpcEndpoint = "https://api.mainnet-beta.solana.com"
	}
	provider := solana.NewProvider(rpcEndpoint, os.Getenv("HELIUS_API_KEY"))

	mux := chain.NewMux()
	mux.Register(solana.ChainName, provider)

	// Bot engine
	store := bot.NewGormStore(config.DB)
	opts := []bot.RegistryOption{bot.WithSupportedChains(solana.ChainName)}
	if notifier != nil {
		opts = append(opts, bot.WithNotifier(notifier))
	}
	registry := bot.NewRegistry(store, opts...)

	executor := chain.NewPaperExecutor(mux)
	scheduler := bot.NewScheduler(registry, mux, executor, risk.NewEngine())
	registry.SetMonitor(scheduler)

	if err := registry.Restore(context.Background()); err != nil {
		log.Fatal("Failed to restore active bots:", err)
	}

	handlers.Init(registry, risk.NewEngine(), mux)
	handlers.KeyManager = solana.NewKeyManager("")

	// Watch copy-trading target wallets when a WebSocket endpoint is available
	if wsEndpoint := os.Getenv("DEFAULT_SOLANA_WSS"); wsEndpoint != "" {
		watcher := solana.NewWalletWatcher(wsEndpoint)
		handlers.Watcher = watcher
		watchTargetWallets(registry, watcher, notifier)
	}

	// Set up router
	r := routes.SetupRouter()

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	if err := r.Run(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

// watchTargetWallets subscribes to the target wallets of every restored
// copy-trading bot and republishes their activity for downstream consumers
func watchTargetWallets(registry *bot.Registry, watcher *solana.WalletWatcher, notifier bot.Notifier) {
	callback := func(wallet, signature string) {
		logrus.WithFields(logrus.Fields{
			"wallet":    wallet,
			"signature": signature,
		}).Info("Tracked wallet activity")
		if notifier != nil {
			if err := notifier.Publish("wallet_activity", map[string]string{
				"wallet":    wallet,
				"signature": signature,
			}); err != nil {
				logrus.WithFields(logrus.Fields{
					"wallet": wallet,
					"error":  err.Error(),
				}).Warn("Failed to publish wallet activity")
			}
		}
	}

	seen := make(map[string]bool)
	for _, b := range registry.ListAll() {
		if b.Status != bot.StatusActive || b.Config.CopyTrading == nil {
			continue
		}
		for _, wallet := range b.Config.CopyTrading.TargetWallets {
			if seen[wallet] {
				continue
			}
			seen[wallet] = true
			if err := watcher.Watch(wallet, callback); err != nil {
				logrus.WithFields(logrus.Fields{
					"wallet": wallet,
					"error":  err.Error(),
				}).Warn("Failed to watch wallet")
			}
		}
	}
}
