package models

import (
	"encoding/json"
	"regexp"
	"time"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,20}$`)

// ValidateUsername enforces the profile username rules: 3-20 word
// characters.
func ValidateUsername(username string) error {
	if !usernamePattern.MatchString(username) {
		return ErrInvalidUsername
	}
	return nil
}

// Account is the persistent per-user ledger record. It is stored as one
// flat JSON document per account id; the json tags are the durable field
// names other tooling depends on. All currency fields are dollars rounded
// to 2 decimal places at every mutation.
type Account struct {
	ID string `json:"-"`

	Balance      float64 `json:"balance"`
	TotalWagered float64 `json:"totalWagered"`
	TotalWon     float64 `json:"totalWon"`
	GamesPlayed  int64   `json:"gamesPlayed"`

	// TotalWager is the VIP wagering volume used for tier lookup. It is
	// updated identically to TotalWagered today but kept separate so one
	// can become resettable without touching the lifetime stat.
	TotalWager          float64 `json:"totalWager"`
	RakebackAvailable   float64 `json:"rakebackAvailable"`
	TotalRakebackEarned float64 `json:"totalRakebackEarned"`
	LastRakebackClaim   *string `json:"lastRakebackClaim"`

	Email     string  `json:"email"`
	Username  *string `json:"username"`
	IsPrivate bool    `json:"isPrivate"`
	Admin     int     `json:"admin"`
	CreatedAt *string `json:"createdAt"`

	DiceStats
	PlinkoStats
	BlackjackStats
	MinesStats
	TowerStats
	CasesStats
	KenoStats
	RouletteStats
	CrashStats
}

type DiceStats struct {
	DicePlays          int64   `json:"dicePlays"`
	DiceWins           int64   `json:"diceWins"`
	DiceBestMultiplier float64 `json:"diceBestMultiplier"`
	DiceTotalProfit    float64 `json:"diceTotalProfit"`
}

type PlinkoStats struct {
	PlinkoPlays          int64   `json:"plinkoPlays"`
	PlinkoWins           int64   `json:"plinkoWins"`
	PlinkoBestMultiplier float64 `json:"plinkoBestMultiplier"`
	PlinkoTotalProfit    float64 `json:"plinkoTotalProfit"`
}

type BlackjackStats struct {
	BlackjackPlays       int64   `json:"blackjackPlays"`
	BlackjackWins        int64   `json:"blackjackWins"`
	BlackjackNaturals    int64   `json:"blackjackNaturals"`
	BlackjackTotalProfit float64 `json:"blackjackTotalProfit"`
}

type MinesStats struct {
	MinesPlays          int64   `json:"minesPlays"`
	MinesCashouts       int64   `json:"minesCashouts"`
	MinesBestMultiplier float64 `json:"minesBestMultiplier"`
	MinesTotalProfit    float64 `json:"minesTotalProfit"`
}

type TowerStats struct {
	TowerPlays          int64   `json:"towerPlays"`
	TowerCashouts       int64   `json:"towerCashouts"`
	TowerBestMultiplier float64 `json:"towerBestMultiplier"`
	TowerTotalProfit    float64 `json:"towerTotalProfit"`
}

type CasesStats struct {
	CasesOpened      int64   `json:"casesOpened"`
	CasesWins        int64   `json:"casesWins"`
	CasesBestWin     float64 `json:"casesBestWin"`
	CasesTotalProfit float64 `json:"casesTotalProfit"`
}

type KenoStats struct {
	KenoPlays          int64   `json:"kenoPlays"`
	KenoWins           int64   `json:"kenoWins"`
	KenoBestMultiplier float64 `json:"kenoBestMultiplier"`
	KenoTotalProfit    float64 `json:"kenoTotalProfit"`
}

type RouletteStats struct {
	RoulettePlays       int64   `json:"roulettePlays"`
	RouletteWins        int64   `json:"rouletteWins"`
	RouletteBestWin     float64 `json:"rouletteBestWin"`
	RouletteTotalProfit float64 `json:"rouletteTotalProfit"`
}

type CrashStats struct {
	CrashPlays          int64   `json:"crashPlays"`
	CrashCashouts       int64   `json:"crashCashouts"`
	CrashBestMultiplier float64 `json:"crashBestMultiplier"`
	CrashTotalProfit    float64 `json:"crashTotalProfit"`
}

// NewAccount returns a fully-initialized account seeded with the given
// starting balance. All other fields carry their schema defaults.
func NewAccount(id string, startingBalance float64) *Account {
	created := time.Now().UTC().Format(time.RFC3339)
	return &Account{
		ID:        id,
		Balance:   Round2(startingBalance),
		CreatedAt: &created,
	}
}

// DecodeAccount unmarshals a raw account document and normalizes it, so
// partially-initialized legacy records always come back complete.
func DecodeAccount(id string, data []byte) (*Account, error) {
	var acc Account
	if err := json.Unmarshal(data, &acc); err != nil {
		return nil, err
	}
	acc.ID = id
	acc.RoundCurrency()
	return &acc, nil
}

// EncodeAccount marshals the account into its flat document form after a
// final rounding pass.
func EncodeAccount(acc *Account) ([]byte, error) {
	acc.RoundCurrency()
	return json.Marshal(acc)
}

// Normalize fills every missing field of a raw document with its default
// and rounds currency fields. Present values are never overwritten, and
// Normalize(Normalize(x)) == Normalize(x).
func Normalize(id string, raw map[string]any) (*Account, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	return DecodeAccount(id, data)
}

// MissingFields diffs a raw document against the full default schema and
// returns only the absent fields with their default values. Used by the
// additive-only migration: present fields are never touched.
func MissingFields(raw map[string]any) (map[string]any, error) {
	data, err := json.Marshal(&Account{})
	if err != nil {
		return nil, err
	}
	var schema map[string]any
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, err
	}

	missing := make(map[string]any)
	for field, def := range schema {
		if _, ok := raw[field]; !ok {
			missing[field] = def
		}
	}
	return missing, nil
}

// RoundCurrency clamps every currency field to 2 decimal places in place.
func (a *Account) RoundCurrency() {
	a.Balance = Round2(a.Balance)
	a.TotalWagered = Round2(a.TotalWagered)
	a.TotalWon = Round2(a.TotalWon)
	a.TotalWager = Round2(a.TotalWager)
	a.RakebackAvailable = Round2(a.RakebackAvailable)
	a.TotalRakebackEarned = Round2(a.TotalRakebackEarned)
	a.DiceTotalProfit = Round2(a.DiceTotalProfit)
	a.PlinkoTotalProfit = Round2(a.PlinkoTotalProfit)
	a.BlackjackTotalProfit = Round2(a.BlackjackTotalProfit)
	a.MinesTotalProfit = Round2(a.MinesTotalProfit)
	a.TowerTotalProfit = Round2(a.TowerTotalProfit)
	a.CasesTotalProfit = Round2(a.CasesTotalProfit)
	a.CasesBestWin = Round2(a.CasesBestWin)
	a.KenoTotalProfit = Round2(a.KenoTotalProfit)
	a.RouletteTotalProfit = Round2(a.RouletteTotalProfit)
	a.RouletteBestWin = Round2(a.RouletteBestWin)
	a.CrashTotalProfit = Round2(a.CrashTotalProfit)
}

// ResetStats zeroes every cumulative statistic while leaving balance,
// identity and rakeback balances untouched. Admin-only operation.
func (a *Account) ResetStats() {
	a.TotalWagered = 0
	a.TotalWon = 0
	a.GamesPlayed = 0
	a.TotalWager = 0
	a.DiceStats = DiceStats{}
	a.PlinkoStats = PlinkoStats{}
	a.BlackjackStats = BlackjackStats{}
	a.MinesStats = MinesStats{}
	a.TowerStats = TowerStats{}
	a.CasesStats = CasesStats{}
	a.KenoStats = KenoStats{}
	a.RouletteStats = RouletteStats{}
	a.CrashStats = CrashStats{}
}

// Clone returns a deep copy. Pointer fields are duplicated so callers can
// mutate the copy freely.
func (a *Account) Clone() *Account {
	cp := *a
	if a.LastRakebackClaim != nil {
		v := *a.LastRakebackClaim
		cp.LastRakebackClaim = &v
	}
	if a.Username != nil {
		v := *a.Username
		cp.Username = &v
	}
	if a.CreatedAt != nil {
		v := *a.CreatedAt
		cp.CreatedAt = &v
	}
	return &cp
}
