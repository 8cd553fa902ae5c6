package chain

import (
	"context"
	"errors"
	"time"
)

// Directions for wallet transactions and trade intents.
const (
	DirectionBuy  = "buy"
	DirectionSell = "sell"
)

// ErrUnsupportedChain is returned when no provider is wired for a blockchain.
var ErrUnsupportedChain = errors.New("unsupported blockchain")

// TokenFacts holds the contract-level observations a provider can extract for
// a token. Fields that do not apply to a chain stay at their zero value; the
// risk engine only scores factors that are present.
type TokenFacts struct {
	Address            string   `json:"address"`
	Chain              string   `json:"chain"`
	Exists             bool     `json:"exists"`
	Verified           bool     `json:"verified"`
	HoneypotSignature  bool     `json:"honeypot_signature"`
	MaliciousPatterns  []string `json:"malicious_patterns"`
	OwnershipFunctions bool     `json:"ownership_functions"`
	HasMintAuthority   bool     `json:"has_mint_authority"`
	HasFreezeAuthority bool     `json:"has_freeze_authority"`
	Supply             string   `json:"supply"`
	Decimals           uint8    `json:"decimals"`
}

// Liquidity summarizes the pool liquidity observed for a token.
type Liquidity struct {
	HasLiquidity bool    `json:"has_liquidity"`
	LiquidityUSD float64 `json:"liquidity_usd"`
	Locked       bool    `json:"locked"`
	LockDays     int     `json:"lock_days"`
}

// WalletTransaction is one observed trade from a tracked wallet's feed.
type WalletTransaction struct {
	Signature string    `json:"signature"`
	Wallet    string    `json:"wallet"`
	Token     string    `json:"token"`
	Direction string    `json:"direction"`
	AmountUSD float64   `json:"amount_usd"`
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}

// DataProvider supplies blockchain and market facts. Implementations own
// their call timeouts; callers treat any returned error as a provider
// failure for the current tick. An empty slice with a nil error is a valid
// "nothing new" result, never an error.
type DataProvider interface {
	GetTokenFacts(ctx context.Context, address, chain string) (*TokenFacts, error)
	GetPrice(ctx context.Context, address, chain string) (float64, error)
	GetLiquidity(ctx context.Context, address, chain string) (*Liquidity, error)
	GetWalletTransactionsSince(ctx context.Context, wallet, chain string, since time.Time) ([]WalletTransaction, error)
}

// TradeParams carries the per-trade knobs from a bot's general configuration.
type TradeParams struct {
	Slippage      float64 `json:"slippage"`
	GasMultiplier float64 `json:"gas_multiplier"`
	AntiMev       bool    `json:"anti_mev"`
}

// TransactionResult is the settlement outcome of a submitted trade.
type TransactionResult struct {
	TxHash      string    `json:"tx_hash"`
	Token       string    `json:"token"`
	Direction   string    `json:"direction"`
	Amount      float64   `json:"amount"`
	Price       float64   `json:"price"`
	NetworkFee  float64   `json:"network_fee"`
	PlatformFee float64   `json:"platform_fee"`
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
}

// TradeExecutor submits buy/sell intents and returns settlement results.
type TradeExecutor interface {
	Buy(ctx context.Context, token string, amount float64, chain string, params TradeParams) (*TransactionResult, error)
	Sell(ctx context.Context, token string, amount float64, chain string, params TradeParams) (*TransactionResult, error)
}
