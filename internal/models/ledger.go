package models

import (
	"math"
	"time"
)

type Game string

const (
	GameDice      Game = "dice"
	GamePlinko    Game = "plinko"
	GameBlackjack Game = "blackjack"
	GameMines     Game = "mines"
	GameTower     Game = "tower"
	GameCases     Game = "cases"
	GameKeno      Game = "keno"
	GameRoulette  Game = "roulette"
	GameCrash     Game = "crash"
)

// SettleRequest carries one game round's outcome into the ledger. Outcome
// generation happens client-side; the ledger only validates and applies
// the money movement.
type SettleRequest struct {
	BetAmount float64        `json:"betAmount" binding:"required"`
	Payout    float64        `json:"payout"`
	Game      Game           `json:"game" binding:"required"`
	Metadata  map[string]any `json:"metadata"`
}

type SettleResult struct {
	Balance float64 `json:"balance"`
	Profit  float64 `json:"profit"`
	Payout  float64 `json:"payout"`
}

type RakebackClaim struct {
	Balance           float64 `json:"balance"`
	RakebackClaimed   float64 `json:"rakebackClaimed"`
	LastRakebackClaim string  `json:"lastRakebackClaim"`
}

// Validate rejects malformed settlements before any transaction starts.
func (r *SettleRequest) Validate() error {
	if math.IsNaN(r.BetAmount) || math.IsInf(r.BetAmount, 0) || r.BetAmount <= 0 {
		return ErrInvalidBet
	}
	if math.IsNaN(r.Payout) || math.IsInf(r.Payout, 0) || r.Payout < 0 {
		return ErrInvalidPayout
	}
	return nil
}

// RoundOutcome is the typed view of the per-game metadata bag. Recognized
// keys vary by game; unrecognized keys are ignored, not rejected.
type RoundOutcome struct {
	Result     string  // "win" | "loss" | "push" (blackjack, roulette)
	Blackjack  bool    // natural blackjack flag
	Cashout    bool    // mines / tower / crash
	Multiplier float64 // round multiplier where the game reports one
}

// ParseOutcome extracts the recognized metadata keys for a settlement.
// Missing keys fall back to values derived from the bet/payout pair.
func ParseOutcome(meta map[string]any, betAmount, payout float64) RoundOutcome {
	out := RoundOutcome{}
	if meta != nil {
		if v, ok := meta["result"].(string); ok {
			out.Result = v
		}
		if v, ok := meta["blackjack"].(bool); ok {
			out.Blackjack = v
		}
		if v, ok := meta["cashout"].(bool); ok {
			out.Cashout = v
		}
		if v, ok := meta["multiplier"].(float64); ok {
			out.Multiplier = v
		}
	}
	if out.Result == "" {
		switch {
		case payout > betAmount:
			out.Result = "win"
		case payout == betAmount:
			out.Result = "push"
		default:
			out.Result = "loss"
		}
	}
	if out.Multiplier == 0 && betAmount > 0 {
		out.Multiplier = payout / betAmount
	}
	return out
}

// ApplyGameStats merges one settled round into the account's per-game
// counters. Unknown game tags are a no-op so new games can settle against
// old ledgers without a schema change.
func (a *Account) ApplyGameStats(game Game, out RoundOutcome, profit, payout float64) {
	won := out.Result == "win"

	switch game {
	case GameDice:
		a.DicePlays++
		if won {
			a.DiceWins++
		}
		if won && out.Multiplier > a.DiceBestMultiplier {
			a.DiceBestMultiplier = out.Multiplier
		}
		a.DiceTotalProfit = Round2(a.DiceTotalProfit + profit)

	case GamePlinko:
		a.PlinkoPlays++
		if won {
			a.PlinkoWins++
		}
		if out.Multiplier > a.PlinkoBestMultiplier {
			a.PlinkoBestMultiplier = out.Multiplier
		}
		a.PlinkoTotalProfit = Round2(a.PlinkoTotalProfit + profit)

	case GameBlackjack:
		a.BlackjackPlays++
		if won {
			a.BlackjackWins++
		}
		if out.Blackjack {
			a.BlackjackNaturals++
		}
		a.BlackjackTotalProfit = Round2(a.BlackjackTotalProfit + profit)

	case GameMines:
		a.MinesPlays++
		if out.Cashout {
			a.MinesCashouts++
			if out.Multiplier > a.MinesBestMultiplier {
				a.MinesBestMultiplier = out.Multiplier
			}
		}
		a.MinesTotalProfit = Round2(a.MinesTotalProfit + profit)

	case GameTower:
		a.TowerPlays++
		if out.Cashout {
			a.TowerCashouts++
			if out.Multiplier > a.TowerBestMultiplier {
				a.TowerBestMultiplier = out.Multiplier
			}
		}
		a.TowerTotalProfit = Round2(a.TowerTotalProfit + profit)

	case GameCases:
		a.CasesOpened++
		if won {
			a.CasesWins++
		}
		if payout > a.CasesBestWin {
			a.CasesBestWin = Round2(payout)
		}
		a.CasesTotalProfit = Round2(a.CasesTotalProfit + profit)

	case GameKeno:
		a.KenoPlays++
		if won {
			a.KenoWins++
		}
		if won && out.Multiplier > a.KenoBestMultiplier {
			a.KenoBestMultiplier = out.Multiplier
		}
		a.KenoTotalProfit = Round2(a.KenoTotalProfit + profit)

	case GameRoulette:
		a.RoulettePlays++
		if won {
			a.RouletteWins++
		}
		if payout > a.RouletteBestWin {
			a.RouletteBestWin = Round2(payout)
		}
		a.RouletteTotalProfit = Round2(a.RouletteTotalProfit + profit)

	case GameCrash:
		a.CrashPlays++
		if out.Cashout {
			a.CrashCashouts++
			if out.Multiplier > a.CrashBestMultiplier {
				a.CrashBestMultiplier = out.Multiplier
			}
		}
		a.CrashTotalProfit = Round2(a.CrashTotalProfit + profit)
	}
}

type JournalType string

const (
	JournalDeposit    JournalType = "deposit"
	JournalSettlement JournalType = "settlement"
	JournalRakeback   JournalType = "rakeback"
	JournalAdjustment JournalType = "adjustment"
)

// JournalEntry is an immutable record of one committed balance mutation.
// The balance at any point is fully explained by the journal.
type JournalEntry struct {
	ID            string      `json:"id"`
	AccountID     string      `json:"accountId"`
	Type          JournalType `json:"type"`
	Game          Game        `json:"game,omitempty"`
	BetAmount     float64     `json:"betAmount,omitempty"`
	Payout        float64     `json:"payout,omitempty"`
	Amount        float64     `json:"amount"`
	BalanceBefore float64     `json:"balanceBefore"`
	BalanceAfter  float64     `json:"balanceAfter"`
	CreatedAt     time.Time   `json:"createdAt"`
}
