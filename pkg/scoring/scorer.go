package scoring

import "github.com/shopspring/decimal"

// Scorer computes scores, pools and rewards under one version of the
// competition rules. Implementations are immutable: a rule change is a new
// Scorer registered in the version table, never an edit of an existing one,
// so that past challenges keep scoring the same way.
type Scorer interface {
	// Version identifies the rule set.
	Version() int

	// ChallengeError summarizes how far predictions are from values. Both
	// are ordered by asset.
	ChallengeError(predictions, values []decimal.Decimal) (float64, error)

	// ChallengeScores turns the errors of all participants into scores in
	// [0,1]. Missing errors yield missing scores.
	ChallengeScores(errors []Value) []Value

	// CompetitionScore folds the challenge scores of one participant,
	// oldest first, into a competition score in [0,1].
	CompetitionScore(history []Value) Value

	ChallengeRewards(scores []Value, pool decimal.Decimal) ([]decimal.Decimal, error)
	CompetitionRewards(scores []Value, pool decimal.Decimal) ([]decimal.Decimal, error)
	StakeRewards(stakes []decimal.Decimal, pool decimal.Decimal) ([]decimal.Decimal, error)

	ChallengePool(predictors int) (decimal.Decimal, error)
	CompetitionPool(predictors int) (decimal.Decimal, error)
	StakePool(stakers int) (decimal.Decimal, error)

	// PoolSurplus is the part of the weekly budget left after the three pools.
	PoolSurplus(predictors, stakers int) (decimal.Decimal, error)
}
