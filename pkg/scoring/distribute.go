package scoring

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// RewardPrecision is the number of decimal places rewards are truncated to.
const RewardPrecision int32 = 10

// Distribute splits pool across factors proportionally. Each share is
// truncated toward zero to RewardPrecision places, so the sum of the shares
// never exceeds pool. When every factor is zero nobody is rewarded and the
// whole pool stays unspent.
func Distribute(factors []decimal.Decimal, pool decimal.Decimal) ([]decimal.Decimal, error) {
	if pool.IsNegative() {
		return nil, fmt.Errorf("%w: pool %s", ErrNegativeFactor, pool)
	}
	total := decimal.Zero
	for i, f := range factors {
		if f.IsNegative() {
			return nil, fmt.Errorf("%w: factor %d is %s", ErrNegativeFactor, i, f)
		}
		total = total.Add(f)
	}

	rewards := make([]decimal.Decimal, len(factors))
	if total.IsZero() {
		for i := range rewards {
			rewards[i] = decimal.Zero
		}
		return rewards, nil
	}
	for i, f := range factors {
		q, _ := pool.Mul(f).QuoRem(total, RewardPrecision)
		rewards[i] = q
	}
	return rewards, nil
}

// Sum adds up amounts exactly.
func Sum(amounts []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
