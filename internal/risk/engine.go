package risk

import (
	"fmt"

	"botcontrol/pkg/chain"
)

// Level buckets a numeric risk score for display and gating.
type Level string

const (
	LevelLow      Level = "low"
	LevelMedium   Level = "medium"
	LevelHigh     Level = "high"
	LevelVeryHigh Level = "very_high"
)

// Factor flags contributing to a score deduction.
const (
	FactorUnverifiedContract = "unverified_contract"
	FactorHoneypotSignature  = "honeypot_signature"
	FactorOwnershipFunctions = "ownership_functions"
	FactorNoLiquidity        = "no_liquidity"
	FactorUnlockedLiquidity  = "unlocked_liquidity"
	FactorMintAuthority      = "mint_authority"
	FactorFreezeAuthority    = "freeze_authority"
)

// Fixed deduction weights. These are policy, not configuration, so scores
// stay reproducible and comparable across tokens.
const (
	weightUnverified       = 30
	weightHoneypot         = 40
	weightMaliciousPattern = 10
	weightOwnership        = 10
	weightNoLiquidity      = 20
	weightUnlocked         = 15
	weightMintAuthority    = 25
	weightFreezeAuthority  = 15
)

// Assessment is the bounded, explainable result of scoring one token.
type Assessment struct {
	Score          int      `json:"score"`
	Level          Level    `json:"level"`
	Factors        []string `json:"factors"`
	Recommendation string   `json:"recommendation"`
}

// Engine combines chain observations into a score. It performs no chain I/O;
// fact extraction belongs to the data provider.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// Score starts at 100 and subtracts a fixed weight per observed negative
// factor, clamped to [0,100]. Factors whose facts are absent for a chain
// (e.g. mint authority on EVM chains) simply never fire.
func (e *Engine) Score(facts *chain.TokenFacts, liq *chain.Liquidity) Assessment {
	score := 100
	var factors []string

	if facts != nil {
		if !facts.Verified {
			score -= weightUnverified
			factors = append(factors, FactorUnverifiedContract)
		}
		if facts.HoneypotSignature {
			score -= weightHoneypot
			factors = append(factors, FactorHoneypotSignature)
		}
		for _, p := range facts.MaliciousPatterns {
			score -= weightMaliciousPattern
			factors = append(factors, fmt.Sprintf("malicious_pattern:%s", p))
		}
		if facts.OwnershipFunctions {
			score -= weightOwnership
			factors = append(factors, FactorOwnershipFunctions)
		}
		if facts.HasMintAuthority {
			score -= weightMintAuthority
			factors = append(factors, FactorMintAuthority)
		}
		if facts.HasFreezeAuthority {
			score -= weightFreezeAuthority
			factors = append(factors, FactorFreezeAuthority)
		}
	}

	if liq != nil {
		if !liq.HasLiquidity {
			score -= weightNoLiquidity
			factors = append(factors, FactorNoLiquidity)
		} else if !liq.Locked {
			score -= weightUnlocked
			factors = append(factors, FactorUnlockedLiquidity)
		}
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	level := LevelFromScore(score)
	return Assessment{
		Score:          score,
		Level:          level,
		Factors:        factors,
		Recommendation: recommendation(score),
	}
}

// LevelFromScore maps a score to its risk level bucket.
func LevelFromScore(score int) Level {
	switch {
	case score >= 80:
		return LevelLow
	case score >= 60:
		return LevelMedium
	case score >= 40:
		return LevelHigh
	default:
		return LevelVeryHigh
	}
}

func recommendation(score int) string {
	switch {
	case score >= 80:
		return "This token appears to have a low risk profile. Standard caution advised."
	case score >= 60:
		return "This token has moderate risk. Consider limiting investment and monitoring closely."
	case score >= 40:
		return "High risk detected. Trade with extreme caution and consider small positions only."
	default:
		return "Very high risk. This token has multiple warning signs. NOT RECOMMENDED FOR TRADING."
	}
}
