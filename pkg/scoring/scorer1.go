package scoring

import (
	"fmt"
	"math"
	"math/big"

	"github.com/shopspring/decimal"
)

// Rule constants of the first scoring version.
const (
	competitionWindow = 4
	stddevPenalty     = 0.1
	skipPenalty       = 0.1
)

//nolint:gochecknoglobals // read-only rule constants
var (
	totalWeeklyPool        = decimal.NewFromInt(200_000)
	unitWeeklyPool         = decimal.NewFromInt(200) // reaches the total at 1000 participants
	challengeRewardShare   = decimal.RequireFromString("0.2")
	competitionRewardShare = decimal.RequireFromString("0.6")
	stakeRewardShare       = decimal.RequireFromString("0.2")
	challengeThreshold     = decimal.RequireFromString("0.25")
	competitionThreshold   = decimal.RequireFromString("0.5")
)

// Scorer1 implements the rules active since challenge 0.
type Scorer1 struct{}

var _ Scorer = Scorer1{}

// Version returns 1.
func (Scorer1) Version() int { return 1 }

// ChallengeError returns the root mean square error.
func (Scorer1) ChallengeError(predictions, values []decimal.Decimal) (float64, error) {
	return rootMeanSquareError(predictions, values)
}

// ChallengeScores ranks errors ascending and maps rank r among n ranked
// participants to (n-r)/(n-1). A lone ranked participant scores 1.
func (Scorer1) ChallengeScores(errors []Value) []Value {
	ranks, n := averageRanks(errors)
	if n == 0 {
		return []Value{}
	}
	scores := make([]Value, len(errors))
	for i, r := range ranks {
		rank, ok := r.Get()
		switch {
		case !ok:
			scores[i] = Missing()
		case n == 1:
			scores[i] = Present(1)
		default:
			scores[i] = Present((float64(n) - rank) / float64(n-1))
		}
	}
	return scores
}

// CompetitionScore averages the last four challenge scores and subtracts a
// volatility penalty and a penalty per skipped challenge, floored at 0.
func (Scorer1) CompetitionScore(history []Value) Value {
	window := history[max(len(history)-competitionWindow, 0):]
	skips := competitionWindow - len(window)
	for _, s := range window {
		if s.IsMissing() {
			skips++
		}
	}
	if skips == competitionWindow {
		return Missing()
	}
	mean, std, _ := populationMeanStdDev(window)
	penalty := stddevPenalty*2*std + skipPenalty*float64(skips)/3
	return Present(math.Max(mean-penalty, 0))
}

// ChallengeRewards distributes pool with factor max(score-0.25, 0). Missing
// scores count as 0.
func (Scorer1) ChallengeRewards(scores []Value, pool decimal.Decimal) ([]decimal.Decimal, error) {
	factors := make([]decimal.Decimal, len(scores))
	for i, s := range scores {
		x, err := factorOf(s.Or(0))
		if err != nil {
			return nil, fmt.Errorf("score %d: %w", i, err)
		}
		factors[i] = thresholdFactor(x, challengeThreshold)
	}
	return Distribute(factors, pool)
}

// CompetitionRewards distributes pool with factor max(nr-0.5, 0) where nr is
// the competition score rank scaled to [0,1]. Missing scores get nr = 0.
func (Scorer1) CompetitionRewards(scores []Value, pool decimal.Decimal) ([]decimal.Decimal, error) {
	ranks, n := averageRanks(scores)
	factors := make([]decimal.Decimal, len(scores))
	for i, r := range ranks {
		rank, ok := r.Get()
		var normalized float64
		switch {
		case !ok:
			normalized = 0
		case n == 1:
			normalized = 1
		default:
			normalized = (rank - 1) / float64(n-1)
		}
		x, err := factorOf(normalized)
		if err != nil {
			return nil, fmt.Errorf("score %d: %w", i, err)
		}
		factors[i] = thresholdFactor(x, competitionThreshold)
	}
	return Distribute(factors, pool)
}

// StakeRewards distributes pool proportionally to stakes.
func (Scorer1) StakeRewards(stakes []decimal.Decimal, pool decimal.Decimal) ([]decimal.Decimal, error) {
	return Distribute(stakes, pool)
}

// ChallengePool returns 20% of the unit pool per predictor.
func (Scorer1) ChallengePool(predictors int) (decimal.Decimal, error) {
	return unitPool(challengeRewardShare, predictors)
}

// CompetitionPool returns 60% of the unit pool per predictor.
func (Scorer1) CompetitionPool(predictors int) (decimal.Decimal, error) {
	return unitPool(competitionRewardShare, predictors)
}

// StakePool returns 20% of the unit pool per staker.
func (Scorer1) StakePool(stakers int) (decimal.Decimal, error) {
	return unitPool(stakeRewardShare, stakers)
}

// PoolSurplus returns the weekly total minus the three pools. It goes
// negative past 1000 participants.
func (s Scorer1) PoolSurplus(predictors, stakers int) (decimal.Decimal, error) {
	challenge, err := s.ChallengePool(predictors)
	if err != nil {
		return decimal.Zero, err
	}
	competition, err := s.CompetitionPool(predictors)
	if err != nil {
		return decimal.Zero, err
	}
	stake, err := s.StakePool(stakers)
	if err != nil {
		return decimal.Zero, err
	}
	return totalWeeklyPool.Sub(challenge.Add(competition).Add(stake)), nil
}

func unitPool(share decimal.Decimal, count int) (decimal.Decimal, error) {
	if count < 0 {
		return decimal.Zero, fmt.Errorf("%w: %d", ErrNegativeCount, count)
	}
	return unitWeeklyPool.Mul(share).Mul(decimal.NewFromInt(int64(count))), nil
}

func thresholdFactor(x, threshold decimal.Decimal) decimal.Decimal {
	return decimal.Max(x.Sub(threshold), decimal.Zero)
}

// factorOf converts x to the decimal equal to its exact binary value, so
// 0.3 becomes 0.299999999999999988897769753748434595763683319091796875.
func factorOf(x float64) (decimal.Decimal, error) {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrInvalidValue, x)
	}
	if x == 0 {
		return decimal.Zero, nil
	}
	frac, exp := math.Frexp(x)
	mant := big.NewInt(int64(math.Ldexp(frac, 53)))
	exp -= 53
	if exp >= 0 {
		return decimal.NewFromBigInt(mant.Lsh(mant, uint(exp)), 0), nil
	}
	// m * 2^-k == m * 5^k * 10^-k
	five := new(big.Int).Exp(big.NewInt(5), big.NewInt(int64(-exp)), nil)
	return decimal.NewFromBigInt(mant.Mul(mant, five), int32(exp)), nil
}
