package bot

import (
	"fmt"
	"strings"
)

// Validate checks that exactly the variant matching Type is populated and
// that required fields are present. Blockchain support is checked by the
// registry against its wired providers, not here.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Blockchain) == "" {
		return fmt.Errorf("%w: blockchain is required", ErrInvalidConfiguration)
	}
	if strings.TrimSpace(c.WalletAddress) == "" {
		return fmt.Errorf("%w: wallet_address is required", ErrInvalidConfiguration)
	}

	populated := 0
	if c.Sniper != nil {
		populated++
	}
	if c.CopyTrading != nil {
		populated++
	}
	if c.AutoTrading != nil {
		populated++
	}
	if c.LimitOrder != nil {
		populated++
	}
	if populated != 1 {
		return fmt.Errorf("%w: exactly one strategy configuration must be set, got %d", ErrInvalidConfiguration, populated)
	}

	switch c.Type {
	case TypeSniper:
		if c.Sniper == nil {
			return mismatch(c.Type)
		}
		s := c.Sniper
		if s.TokenAddress == "" {
			return fmt.Errorf("%w: sniper token_address is required", ErrInvalidConfiguration)
		}
		if s.Amount <= 0 && s.AmountUSD <= 0 {
			return fmt.Errorf("%w: sniper amount or amount_usd must be positive", ErrInvalidConfiguration)
		}
		if s.MaxPrice <= 0 {
			return fmt.Errorf("%w: sniper max_price must be positive", ErrInvalidConfiguration)
		}
	case TypeCopyTrading:
		if c.CopyTrading == nil {
			return mismatch(c.Type)
		}
		ct := c.CopyTrading
		if len(ct.TargetWallets) == 0 {
			return fmt.Errorf("%w: copy trading requires at least one target wallet", ErrInvalidConfiguration)
		}
		if ct.MaxTransactionUSD <= 0 {
			return fmt.Errorf("%w: copy trading max_transaction_usd must be positive", ErrInvalidConfiguration)
		}
		switch ct.Direction {
		case CopyBuyOnly, CopySellOnly, CopyBoth:
		case "":
			ct.Direction = CopyBoth
		default:
			return fmt.Errorf("%w: copy trading direction must be buy, sell or both", ErrInvalidConfiguration)
		}
	case TypeAutoTrading:
		if c.AutoTrading == nil {
			return mismatch(c.Type)
		}
		at := c.AutoTrading
		if at.TakeProfitPercentage <= 0 || at.StopLossPercentage <= 0 {
			return fmt.Errorf("%w: auto trading take profit and stop loss must be positive", ErrInvalidConfiguration)
		}
		if at.MaxPositions <= 0 {
			return fmt.Errorf("%w: auto trading max_positions must be positive", ErrInvalidConfiguration)
		}
		if at.MaxPositionSizeUSD <= 0 {
			return fmt.Errorf("%w: auto trading max_position_size_usd must be positive", ErrInvalidConfiguration)
		}
	case TypeLimitOrder:
		if c.LimitOrder == nil {
			return mismatch(c.Type)
		}
		lo := c.LimitOrder
		if lo.TokenAddress == "" {
			return fmt.Errorf("%w: limit order token_address is required", ErrInvalidConfiguration)
		}
		if lo.LimitPrice <= 0 || lo.Amount <= 0 {
			return fmt.Errorf("%w: limit order limit_price and amount must be positive", ErrInvalidConfiguration)
		}
		if lo.Direction != "buy" && lo.Direction != "sell" {
			return fmt.Errorf("%w: limit order direction must be buy or sell", ErrInvalidConfiguration)
		}
	default:
		return fmt.Errorf("%w: unsupported bot type %q", ErrInvalidConfiguration, c.Type)
	}

	return nil
}

func mismatch(t BotType) error {
	return fmt.Errorf("%w: configuration variant does not match bot type %q", ErrInvalidConfiguration, t)
}
