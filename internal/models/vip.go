package models

// Tier is one rung of the VIP ladder. Thresholds are strictly ascending
// and distinct.
type Tier struct {
	Name          string  `json:"name"`
	WagerRequired float64 `json:"wagerRequired"`
	RakebackRate  float64 `json:"rakebackRate"`
}

var Tiers = []Tier{
	{Name: "Bronze", WagerRequired: 0, RakebackRate: 0.01},
	{Name: "Silver", WagerRequired: 1000, RakebackRate: 0.02},
	{Name: "Gold", WagerRequired: 5000, RakebackRate: 0.04},
	{Name: "Platinum", WagerRequired: 25000, RakebackRate: 0.06},
	{Name: "Diamond", WagerRequired: 100000, RakebackRate: 0.08},
}

// TierFor returns the highest tier whose threshold is <= totalWager.
// Boundary inclusive: a wager exactly at a threshold earns that tier.
func TierFor(totalWager float64) Tier {
	tier := Tiers[0]
	for _, t := range Tiers {
		if totalWager >= t.WagerRequired {
			tier = t
		}
	}
	return tier
}

// NextTier returns the next rung above totalWager, or false when the
// account already sits at the top of the ladder.
func NextTier(totalWager float64) (Tier, bool) {
	for _, t := range Tiers {
		if totalWager < t.WagerRequired {
			return t, true
		}
	}
	return Tier{}, false
}

// RakebackOnLoss computes the rakeback accrued by one settlement. Only a
// net loss accrues; winning and break-even rounds return 0.
func RakebackOnLoss(betAmount, payout, totalWager float64) float64 {
	loss := betAmount - payout
	if loss <= 0 {
		return 0
	}
	return Round2(loss * TierFor(totalWager).RakebackRate)
}
