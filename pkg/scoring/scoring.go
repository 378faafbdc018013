// Package scoring computes challenge errors, challenge and competition
// scores, reward pools and reward distributions for a recurring prediction
// competition.
//
// Rules are versioned by challenge number: every function takes the
// challenge number first and delegates to the Scorer valid at that number,
// so results for past challenges stay reproducible when rules change.
//
// Approximate quantities (errors, scores, ranks) are float64 wrapped in
// Value, which carries an explicit missing marker. Monetary quantities
// (pools, stakes, rewards) are exact decimals. The only conversions from the
// former to the latter happen when reward factors are derived from scores.
//
// All functions are pure and safe for concurrent use.
package scoring

import "github.com/shopspring/decimal"

// ComputeChallengeError returns the error of one participant's predictions,
// ordered by asset, against the asset values.
func ComputeChallengeError(challengeNumber int, predictions, values []decimal.Decimal) (float64, error) {
	s, err := Get(challengeNumber)
	if err != nil {
		return 0, err
	}
	return s.ChallengeError(predictions, values)
}

// ComputeChallengeScores returns the challenge score of every participant,
// in the order of errors.
func ComputeChallengeScores(challengeNumber int, errors []Value) ([]Value, error) {
	s, err := Get(challengeNumber)
	if err != nil {
		return nil, err
	}
	return s.ChallengeScores(errors), nil
}

// ComputeCompetitionScore returns the competition score of a participant
// from its challenge scores, oldest first, up to the current challenge.
func ComputeCompetitionScore(challengeNumber int, history []Value) (Value, error) {
	s, err := Get(challengeNumber)
	if err != nil {
		return Missing(), err
	}
	return s.CompetitionScore(history), nil
}

// ComputeChallengeRewards splits challengePool according to challenge scores.
func ComputeChallengeRewards(challengeNumber int, scores []Value, challengePool decimal.Decimal) ([]decimal.Decimal, error) {
	s, err := Get(challengeNumber)
	if err != nil {
		return nil, err
	}
	return s.ChallengeRewards(scores, challengePool)
}

// ComputeCompetitionRewards splits competitionPool according to competition scores.
func ComputeCompetitionRewards(challengeNumber int, scores []Value, competitionPool decimal.Decimal) ([]decimal.Decimal, error) {
	s, err := Get(challengeNumber)
	if err != nil {
		return nil, err
	}
	return s.CompetitionRewards(scores, competitionPool)
}

// ComputeStakeRewards splits stakePool according to stakes.
func ComputeStakeRewards(challengeNumber int, stakes []decimal.Decimal, stakePool decimal.Decimal) ([]decimal.Decimal, error) {
	s, err := Get(challengeNumber)
	if err != nil {
		return nil, err
	}
	return s.StakeRewards(stakes, stakePool)
}

// ComputeChallengePool sizes the challenge reward pool for the number of
// participants that sent predictions.
func ComputeChallengePool(challengeNumber, predictors int) (decimal.Decimal, error) {
	s, err := Get(challengeNumber)
	if err != nil {
		return decimal.Zero, err
	}
	return s.ChallengePool(predictors)
}

// ComputeCompetitionPool sizes the competition reward pool.
func ComputeCompetitionPool(challengeNumber, predictors int) (decimal.Decimal, error) {
	s, err := Get(challengeNumber)
	if err != nil {
		return decimal.Zero, err
	}
	return s.CompetitionPool(predictors)
}

// ComputeStakePool sizes the stake reward pool for the number of stakers.
func ComputeStakePool(challengeNumber, stakers int) (decimal.Decimal, error) {
	s, err := Get(challengeNumber)
	if err != nil {
		return decimal.Zero, err
	}
	return s.StakePool(stakers)
}

// ComputePoolSurplus returns what remains of the weekly budget.
func ComputePoolSurplus(challengeNumber, predictors, stakers int) (decimal.Decimal, error) {
	s, err := Get(challengeNumber)
	if err != nil {
		return decimal.Zero, err
	}
	return s.PoolSurplus(predictors, stakers)
}
