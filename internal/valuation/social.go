package valuation

import (
	"math"

	"DealSentinel/internal/calculator"
)

// Per-follower rates.
const (
	rateInstagram = 0.025
	rateTiktok    = 0.04
	rateTwitter   = 0.01
)

const lowTierFloor = 500.0

// followerTier adjusts the raw reach value for audience size. Tiers are listed
// highest first; Above is an exclusive lower bound.
type followerTier struct {
	Above      int64
	Multiplier float64
	Floor      float64
}

var followerTiers = []followerTier{
	{Above: 1_000_000, Multiplier: 0.8},
	{Above: 100_000, Multiplier: 1.0},
	{Above: 10_000, Multiplier: 1.2},
	{Above: -1, Multiplier: 1.5, Floor: lowTierFloor},
}

// reachSum is the unadjusted dollar value of an audience.
func reachSum(f calculator.Followers) float64 {
	return float64(f.Instagram)*rateInstagram +
		float64(f.Tiktok)*rateTiktok +
		float64(f.Twitter)*rateTwitter
}

func (t followerTier) apply(sum float64) float64 {
	return math.Max(t.Floor, calculator.Round(sum*t.Multiplier))
}

// tierFor returns the tier whose band contains total followers.
func tierFor(total int64) followerTier {
	for _, tier := range followerTiers {
		if total > tier.Above {
			return tier
		}
	}
	return followerTiers[len(followerTiers)-1]
}

// socialBase converts follower counts into the dollar base of the estimate:
// the reach value scaled by the tier of the combined audience. Crossing into a
// tier with a smaller multiplier lowers the base just above 10k, 100k and 1M.
func socialBase(f calculator.Followers) float64 {
	return tierFor(f.Total()).apply(reachSum(f))
}
