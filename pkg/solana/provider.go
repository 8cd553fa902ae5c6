package solana

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	log "github.com/sirupsen/logrus"

	"botcontrol/pkg/chain"
	"botcontrol/pkg/helius"
)

const (
	// ChainName is the blockchain identifier this provider serves
	ChainName = "solana"

	wsolMint = "So11111111111111111111111111111111111111112"

	// SPL mint account layout offsets
	mintAccountSize          = 82
	mintAuthorityOptionOff   = 0
	supplyOff                = 36
	decimalsOff              = 44
	freezeAuthorityOptionOff = 46

	verifiedListURL = "https://tokens.jup.ag/tokens?tags=verified"
	verifiedListTTL = time.Hour
)

// Provider implements chain.DataProvider for Solana. Token facts come from
// the mint account on chain, prices from Jupiter, liquidity from DexScreener
// and wallet activity from the Helius enhanced transaction API.
type Provider struct {
	rpcClient   *rpc.Client
	heliusAPI   *helius.Client
	jupiter     *JupiterClient
	dexScreener *DexScreenerClient
	httpClient  *http.Client

	mu              sync.RWMutex
	verifiedMints   map[string]bool
	verifiedFetched time.Time
}

// NewProvider creates a Solana data provider
func NewProvider(rpcEndpoint, heliusAPIKey string) *Provider {
	return &Provider{
		rpcClient:   rpc.New(rpcEndpoint),
		heliusAPI:   helius.NewClient(heliusAPIKey),
		jupiter:     NewJupiterClient(""),
		dexScreener: NewDexScreenerClient(""),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// GetTokenFacts reads the SPL mint account and combines it with the Jupiter
// verified token list
func (p *Provider) GetTokenFacts(ctx context.Context, address, chainName string) (*chain.TokenFacts, error) {
	if chainName != ChainName {
		return nil, chain.ErrUnsupportedChain
	}

	facts := &chain.TokenFacts{
		Address: address,
		Chain:   chainName,
	}

	mint, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		// Not a valid mint address, report as nonexistent
		return facts, nil
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	info, err := p.rpcClient.GetAccountInfo(ctx, mint)
	if err != nil {
		return nil, fmt.Errorf("get mint account: %w", err)
	}
	if info == nil || info.Value == nil || info.Value.Data == nil {
		return facts, nil
	}

	data := info.Value.Data.GetBinary()
	if len(data) < mintAccountSize {
		return facts, nil
	}

	facts.Exists = true
	facts.HasMintAuthority = binary.LittleEndian.Uint32(data[mintAuthorityOptionOff:]) != 0
	facts.HasFreezeAuthority = binary.LittleEndian.Uint32(data[freezeAuthorityOptionOff:]) != 0
	facts.OwnershipFunctions = facts.HasMintAuthority || facts.HasFreezeAuthority
	facts.Supply = strconv.FormatUint(binary.LittleEndian.Uint64(data[supplyOff:]), 10)
	facts.Decimals = data[decimalsOff]

	verified, err := p.isVerified(ctx, address)
	if err != nil {
		log.WithFields(log.Fields{
			"token": address,
			"error": err.Error(),
		}).Warn("Failed to check verified token list")
	} else {
		facts.Verified = verified
	}

	return facts, nil
}

// GetPrice returns the USD price for a token
func (p *Provider) GetPrice(ctx context.Context, address, chainName string) (float64, error) {
	if chainName != ChainName {
		return 0, chain.ErrUnsupportedChain
	}
	return p.jupiter.GetPrice(ctx, address)
}

// GetLiquidity reports the deepest pool for a token. DexScreener does not
// expose lock information, so Locked stays false.
func (p *Provider) GetLiquidity(ctx context.Context, address, chainName string) (*chain.Liquidity, error) {
	if chainName != ChainName {
		return nil, chain.ErrUnsupportedChain
	}

	best, err := p.dexScreener.BestPair(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("get token pairs: %w", err)
	}
	if best == nil || best.Liquidity == nil || best.Liquidity.USD <= 0 {
		return &chain.Liquidity{}, nil
	}

	return &chain.Liquidity{
		HasLiquidity: true,
		LiquidityUSD: best.Liquidity.USD,
	}, nil
}

// GetWalletTransactionsSince returns the swaps a wallet made after the given
// time, oldest first
func (p *Provider) GetWalletTransactionsSince(ctx context.Context, wallet, chainName string, since time.Time) ([]chain.WalletTransaction, error) {
	if chainName != ChainName {
		return nil, chain.ErrUnsupportedChain
	}

	enhanced, err := p.heliusAPI.GetEnhancedTransactionsByAddress(wallet, &helius.TransactionOptions{
		Limit: helius.IntPtr(100),
		Type:  helius.StringPtr("SWAP"),
	})
	if err != nil {
		return nil, fmt.Errorf("get wallet transactions: %w", err)
	}

	solPrice := 0.0
	txs := make([]chain.WalletTransaction, 0, len(enhanced))
	for _, tx := range enhanced {
		if tx.TransactionError != nil {
			continue
		}
		ts := time.Unix(tx.Timestamp, 0).UTC()
		if !ts.After(since) {
			continue
		}

		token, amount, direction := swapLeg(tx, wallet)
		if token == "" || amount <= 0 {
			continue
		}

		lamports := nativeLeg(tx, wallet)
		if lamports <= 0 {
			continue
		}
		if solPrice == 0 {
			solPrice, err = p.jupiter.GetPrice(ctx, wsolMint)
			if err != nil {
				return nil, fmt.Errorf("get SOL price: %w", err)
			}
		}
		amountUSD := float64(lamports) / 1e9 * solPrice

		txs = append(txs, chain.WalletTransaction{
			Signature: tx.Signature,
			Wallet:    wallet,
			Token:     token,
			Direction: direction,
			AmountUSD: amountUSD,
			Price:     amountUSD / amount,
			Timestamp: ts,
		})
	}

	sort.Slice(txs, func(i, j int) bool {
		return txs[i].Timestamp.Before(txs[j].Timestamp)
	})
	return txs, nil
}

// swapLeg finds the non-SOL side of a swap as seen from the wallet
func swapLeg(tx helius.EnhancedTransaction, wallet string) (token string, amount float64, direction string) {
	for _, transfer := range tx.TokenTransfers {
		if transfer.Mint == "" || transfer.Mint == wsolMint {
			continue
		}
		if transfer.ToUserAccount == wallet {
			return transfer.Mint, transfer.TokenAmount, chain.DirectionBuy
		}
		if transfer.FromUserAccount == wallet {
			return transfer.Mint, transfer.TokenAmount, chain.DirectionSell
		}
	}
	return "", 0, ""
}

// nativeLeg sums the lamports the wallet moved in the transaction
func nativeLeg(tx helius.EnhancedTransaction, wallet string) int64 {
	var total int64
	for _, transfer := range tx.NativeTransfers {
		if transfer.FromUserAccount == wallet || transfer.ToUserAccount == wallet {
			total += transfer.Amount
		}
	}
	return total
}

func (p *Provider) isVerified(ctx context.Context, address string) (bool, error) {
	p.mu.RLock()
	fresh := time.Since(p.verifiedFetched) < verifiedListTTL && p.verifiedMints != nil
	verified := p.verifiedMints[address]
	p.mu.RUnlock()
	if fresh {
		return verified, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, verifiedListURL, nil)
	if err != nil {
		return false, err
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("verified list request failed with status code: %d", resp.StatusCode)
	}

	var tokens []struct {
		Address string `json:"address"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		return false, fmt.Errorf("failed to decode verified list: %w", err)
	}

	mints := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		mints[t.Address] = true
	}

	p.mu.Lock()
	p.verifiedMints = mints
	p.verifiedFetched = time.Now()
	p.mu.Unlock()

	return mints[address], nil
}
