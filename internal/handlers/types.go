package handlers

import (
	"botcontrol/internal/bot"
	"botcontrol/internal/risk"
	"botcontrol/pkg/chain"
	"botcontrol/pkg/solana"
)

// Shared handler dependencies, wired once at startup.
var (
	Registry   *bot.Registry
	RiskEngine *risk.Engine
	Provider   chain.DataProvider
	Publisher  bot.Notifier
	KeyManager *solana.KeyManager
	Watcher    *solana.WalletWatcher
)

// Init wires the handler package dependencies
func Init(registry *bot.Registry, engine *risk.Engine, provider chain.DataProvider) {
	Registry = registry
	RiskEngine = engine
	Provider = provider
}
