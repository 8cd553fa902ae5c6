package bot

import (
	"time"
)

// BotType discriminates the strategy configuration variant.
type BotType string

const (
	TypeSniper      BotType = "sniper"
	TypeCopyTrading BotType = "copyTrading"
	TypeAutoTrading BotType = "autoTrading"
	TypeLimitOrder  BotType = "limitOrder"
)

// BotStatus is the lifecycle state of a bot.
type BotStatus string

const (
	StatusActive    BotStatus = "active"
	StatusPaused    BotStatus = "paused"
	StatusStopped   BotStatus = "stopped"
	StatusCompleted BotStatus = "completed"
	StatusFailed    BotStatus = "failed"
)

// Direction filters for copy trading.
const (
	CopyBuyOnly  = "buy"
	CopySellOnly = "sell"
	CopyBoth     = "both"
)

// SniperConfig parameterizes a new-token sniper.
type SniperConfig struct {
	TokenAddress   string     `json:"token_address"`
	MaxPrice       float64    `json:"max_price"`
	Amount         float64    `json:"amount"`
	AmountUSD      float64    `json:"amount_usd"`
	StartTime      *time.Time `json:"start_time,omitempty"`
	EndTime        *time.Time `json:"end_time,omitempty"`
	MinLiquidity   float64    `json:"min_liquidity"`
	MaxSlippage    float64    `json:"max_slippage"`
	SinglePurchase bool       `json:"single_purchase"`
}

// CopyTradingConfig parameterizes wallet mirroring.
type CopyTradingConfig struct {
	TargetWallets      []string `json:"target_wallets"`
	MaxTransactionUSD  float64  `json:"max_transaction_usd"`
	Direction          string   `json:"direction"` // buy | sell | both
	DelaySeconds       int      `json:"delay_seconds"`
	MinHoldTimeMinutes int      `json:"min_hold_time_minutes"`
	ExcludeTokens      []string `json:"exclude_tokens"`
}

// AutoTradingConfig parameterizes threshold-based position management.
type AutoTradingConfig struct {
	Strategy             string   `json:"strategy"` // momentum | trend_following | breakout | custom
	WatchTokens          []string `json:"watch_tokens"`
	TakeProfitPercentage float64  `json:"take_profit_percentage"`
	StopLossPercentage   float64  `json:"stop_loss_percentage"`
	MaxPositions         int      `json:"max_positions"`
	MaxPositionSizeUSD   float64  `json:"max_position_size_usd"`
	Timeframe            string   `json:"timeframe"`
}

// LimitOrderConfig parameterizes a single resting order.
type LimitOrderConfig struct {
	TokenAddress string     `json:"token_address"`
	LimitPrice   float64    `json:"limit_price"`
	Amount       float64    `json:"amount"`
	Direction    string     `json:"direction"` // buy | sell
	ExpiryTime   *time.Time `json:"expiry_time,omitempty"`
	Partial      bool       `json:"partial"`
}

// GeneralConfig applies to every bot type.
type GeneralConfig struct {
	Slippage              float64 `json:"slippage"`
	GasMultiplier         float64 `json:"gas_multiplier"`
	AntiMevEnabled        bool    `json:"anti_mev_enabled"`
	MaxTransactionsPerDay int     `json:"max_transactions_per_day"`
	UseTelegram           bool    `json:"use_telegram"`
}

// Config is the tagged union of strategy configurations. Exactly the variant
// matching Type must be populated.
type Config struct {
	Type          BotType            `json:"type"`
	Name          string             `json:"name"`
	Blockchain    string             `json:"blockchain"`
	WalletAddress string             `json:"wallet_address"`
	Sniper        *SniperConfig      `json:"sniper_config,omitempty"`
	CopyTrading   *CopyTradingConfig `json:"copy_trading_config,omitempty"`
	AutoTrading   *AutoTradingConfig `json:"auto_trading_config,omitempty"`
	LimitOrder    *LimitOrderConfig  `json:"limit_order_config,omitempty"`
	General       GeneralConfig      `json:"general_config"`
}

// Transaction is one settled (or failed) trade appended to a bot's log.
type Transaction struct {
	Token       string    `json:"token"`
	Direction   string    `json:"direction"`
	Amount      float64   `json:"amount"`
	Price       float64   `json:"price"`
	NetworkFee  float64   `json:"network_fee"`
	PlatformFee float64   `json:"platform_fee"`
	Status      string    `json:"status"` // completed | failed
	TxHash      string    `json:"tx_hash"`
	Timestamp   time.Time `json:"timestamp"`
}

// Performance is always a pure recomputation from the transaction log.
type Performance struct {
	TotalProfitUSD    float64 `json:"total_profit_usd"`
	TotalTransactions int     `json:"total_transactions"`
	SuccessRate       float64 `json:"success_rate"`
	ROI               float64 `json:"roi"`
	AverageHoldTime   float64 `json:"average_hold_time_minutes"`
}

// Event is one diagnostic log entry on a bot.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"` // info | warning | error
	Message   string    `json:"message"`
}

// Bot is the full record for one strategy instance. Owned by the Registry;
// the Scheduler only ever holds the ID.
type Bot struct {
	ID            string        `json:"id"`
	UserID        string        `json:"user_id"`
	Name          string        `json:"name"`
	Type          BotType       `json:"type"`
	Status        BotStatus     `json:"status"`
	Blockchain    string        `json:"blockchain"`
	WalletAddress string        `json:"wallet_address"`
	Config        Config        `json:"config"`
	Transactions  []Transaction `json:"transactions"`
	Events        []Event       `json:"events"`
	Performance   Performance   `json:"performance"`
	LastCheckedAt time.Time     `json:"last_checked_at"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// TradeIntent is an evaluator's proposed action. It is never persisted; only
// the resulting Transaction is.
type TradeIntent struct {
	Direction      string        `json:"direction"`
	Token          string        `json:"token"`
	Amount         float64       `json:"amount"`
	AmountUSD      float64       `json:"amount_usd"`
	Reason         string        `json:"reason"`
	AllowPartial   bool          `json:"allow_partial"`
	CompleteOnFill bool          `json:"complete_on_fill"`
	General        GeneralConfig `json:"general_config"`
}

// Clone returns a deep copy safe to hand outside the registry lock.
func (b *Bot) Clone() *Bot {
	cp := *b
	cp.Transactions = append([]Transaction(nil), b.Transactions...)
	cp.Events = append([]Event(nil), b.Events...)
	cp.Config = b.Config.clone()
	return &cp
}

func (c Config) clone() Config {
	cp := c
	if c.Sniper != nil {
		s := *c.Sniper
		cp.Sniper = &s
	}
	if c.CopyTrading != nil {
		ct := *c.CopyTrading
		ct.TargetWallets = append([]string(nil), c.CopyTrading.TargetWallets...)
		ct.ExcludeTokens = append([]string(nil), c.CopyTrading.ExcludeTokens...)
		cp.CopyTrading = &ct
	}
	if c.AutoTrading != nil {
		at := *c.AutoTrading
		at.WatchTokens = append([]string(nil), c.AutoTrading.WatchTokens...)
		cp.AutoTrading = &at
	}
	if c.LimitOrder != nil {
		lo := *c.LimitOrder
		cp.LimitOrder = &lo
	}
	return cp
}

// recomputePerformance derives the summary from the full transaction log.
// Success rate counts completed profitable transactions against the total: a
// completed buy counts on completion, a completed sell counts only when its
// net proceeds beat the unit cost of the oldest preceding buy of the same
// token. Profit nets sell proceeds against buy spend; ROI relates profit to
// cumulative spend. Average hold time uses the same oldest-buy pairing.
func recomputePerformance(txs []Transaction) Performance {
	p := Performance{TotalTransactions: len(txs)}
	if len(txs) == 0 {
		return p
	}

	type openBuy struct {
		at       time.Time
		unitCost float64
	}

	var spent, received float64
	var successful int
	opens := make(map[string][]openBuy)
	var holdMinutes float64
	var holds int

	for _, tx := range txs {
		if tx.Status != "completed" {
			continue
		}
		value := tx.Amount * tx.Price
		switch tx.Direction {
		case "buy":
			successful++
			cost := value + tx.NetworkFee + tx.PlatformFee
			spent += cost
			ob := openBuy{at: tx.Timestamp}
			if tx.Amount > 0 {
				ob.unitCost = cost / tx.Amount
			}
			opens[tx.Token] = append(opens[tx.Token], ob)
		case "sell":
			proceeds := value - tx.NetworkFee - tx.PlatformFee
			received += proceeds
			if queue := opens[tx.Token]; len(queue) > 0 {
				holdMinutes += tx.Timestamp.Sub(queue[0].at).Minutes()
				holds++
				if tx.Amount > 0 && proceeds/tx.Amount > queue[0].unitCost {
					successful++
				}
				opens[tx.Token] = queue[1:]
			} else {
				successful++
			}
		}
	}

	p.TotalProfitUSD = received - spent
	p.SuccessRate = float64(successful) / float64(len(txs)) * 100
	if spent > 0 {
		p.ROI = p.TotalProfitUSD / spent * 100
	}
	if holds > 0 {
		p.AverageHoldTime = holdMinutes / float64(holds)
	}
	return p
}
