package solana

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"botcontrol/pkg/chain"
	"botcontrol/pkg/helius"
)

func TestProviderRejectsOtherChains(t *testing.T) {
	p := NewProvider("http://localhost:8899", "")
	ctx := context.Background()

	_, err := p.GetTokenFacts(ctx, "tok1", "ethereum")
	assert.ErrorIs(t, err, chain.ErrUnsupportedChain)

	_, err = p.GetPrice(ctx, "tok1", "ethereum")
	assert.ErrorIs(t, err, chain.ErrUnsupportedChain)

	_, err = p.GetLiquidity(ctx, "tok1", "ethereum")
	assert.ErrorIs(t, err, chain.ErrUnsupportedChain)
}

func TestGetTokenFactsInvalidAddress(t *testing.T) {
	p := NewProvider("http://localhost:8899", "")

	// Not valid base58: reported as nonexistent, not as an error.
	facts, err := p.GetTokenFacts(context.Background(), "not-a-mint!", ChainName)
	require.NoError(t, err)
	assert.False(t, facts.Exists)
	assert.Equal(t, ChainName, facts.Chain)
}

func TestSwapLeg(t *testing.T) {
	wallet := "walletA"

	t.Run("wallet receives token on a buy", func(t *testing.T) {
		tx := helius.EnhancedTransaction{
			TokenTransfers: []helius.TokenTransfer{
				{Mint: wsolMint, FromUserAccount: wallet, TokenAmount: 1.5},
				{Mint: "tokenMint", ToUserAccount: wallet, TokenAmount: 250},
			},
		}
		token, amount, direction := swapLeg(tx, wallet)
		assert.Equal(t, "tokenMint", token)
		assert.InDelta(t, 250, amount, 1e-9)
		assert.Equal(t, chain.DirectionBuy, direction)
	})

	t.Run("wallet sends token on a sell", func(t *testing.T) {
		tx := helius.EnhancedTransaction{
			TokenTransfers: []helius.TokenTransfer{
				{Mint: "tokenMint", FromUserAccount: wallet, TokenAmount: 100},
			},
		}
		token, amount, direction := swapLeg(tx, wallet)
		assert.Equal(t, "tokenMint", token)
		assert.InDelta(t, 100, amount, 1e-9)
		assert.Equal(t, chain.DirectionSell, direction)
	})

	t.Run("pure SOL transfers have no swap leg", func(t *testing.T) {
		tx := helius.EnhancedTransaction{
			TokenTransfers: []helius.TokenTransfer{
				{Mint: wsolMint, FromUserAccount: wallet, TokenAmount: 1},
			},
		}
		token, _, _ := swapLeg(tx, wallet)
		assert.Empty(t, token)
	})

	t.Run("other wallets are ignored", func(t *testing.T) {
		tx := helius.EnhancedTransaction{
			TokenTransfers: []helius.TokenTransfer{
				{Mint: "tokenMint", FromUserAccount: "someoneElse", ToUserAccount: "alsoNotUs", TokenAmount: 10},
			},
		}
		token, _, _ := swapLeg(tx, wallet)
		assert.Empty(t, token)
	})
}

func TestNativeLeg(t *testing.T) {
	wallet := "walletA"
	tx := helius.EnhancedTransaction{
		NativeTransfers: []helius.NativeTransfer{
			{FromUserAccount: wallet, Amount: 1_000_000_000},
			{ToUserAccount: wallet, Amount: 500_000_000},
			{FromUserAccount: "other", ToUserAccount: "other2", Amount: 42},
		},
	}

	assert.Equal(t, int64(1_500_000_000), nativeLeg(tx, wallet))
	assert.Zero(t, nativeLeg(tx, "stranger"))
}
