// Package service provides the core business service that implements
// the dependencies required by the HTTP API and the CLI.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/okian/rcscore/internal/domain/model"
	"github.com/okian/rcscore/pkg/logger"
	"github.com/okian/rcscore/pkg/metrics"
	"github.com/okian/rcscore/pkg/scoring"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Operation names used in logs and metrics.
const (
	OpValidatePrediction = "validate_prediction"
	OpChallengeError     = "challenge_error"
	OpChallengeScores    = "challenge_scores"
	OpCompetitionScore   = "competition_score"
	OpChallengeRewards   = "challenge_rewards"
	OpCompetitionRewards = "competition_rewards"
	OpStakeRewards       = "stake_rewards"
	OpPools              = "pools"
	OpScoreRound         = "score_round"
)

// Reward categories.
const (
	CategoryChallenge   = "challenge"
	CategoryCompetition = "competition"
	CategoryStake       = "stake"
)

const nanosecondsPerMillisecond = 1e6

// Service runs scoring operations with logging and metrics around them.
// It holds no state about participants or challenges between calls.
type Service struct {
	mu sync.RWMutex

	// Configuration
	errorWorkers    int
	maxParticipants int
	maxAssets       int

	// Counters for GetStats
	rounds     atomic.Int64
	operations atomic.Int64
	failures   atomic.Int64
	lastRunID  string

	logger  logger.Logger
	metrics *metrics.Manager
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithErrorWorkers bounds concurrent error computations within a round.
func WithErrorWorkers(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.errorWorkers = count
		}
	}
}

// WithMaxParticipants caps the participants of one round.
func WithMaxParticipants(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxParticipants = n
		}
	}
}

// WithMaxAssets caps the assets of one round.
func WithMaxAssets(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxAssets = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics records into m instead of the global manager.
func WithMetrics(m *metrics.Manager) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		errorWorkers:    runtime.NumCPU() * 2,
		maxParticipants: 10_000,
		maxAssets:       1_000,
		metrics:         metrics.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.Named("service")
	}

	return s
}

// ValidatePrediction checks one participant's submission.
func (s *Service) ValidatePrediction(ctx context.Context, assets []string, predictions []scoring.Prediction) bool {
	var valid bool
	_ = s.track(ctx, OpValidatePrediction, 0, func() error {
		valid = scoring.ValidatePrediction(assets, predictions)
		return nil
	})
	return valid
}

// ChallengeError computes one participant's error.
func (s *Service) ChallengeError(ctx context.Context, challenge int, predictions, values []decimal.Decimal) (float64, error) {
	var e float64
	err := s.track(ctx, OpChallengeError, challenge, func() (err error) {
		e, err = scoring.ComputeChallengeError(challenge, predictions, values)
		return err
	})
	return e, err
}

// ChallengeScores ranks the errors of all participants.
func (s *Service) ChallengeScores(ctx context.Context, challenge int, errs []scoring.Value) ([]scoring.Value, error) {
	var scores []scoring.Value
	err := s.track(ctx, OpChallengeScores, challenge, func() (err error) {
		scores, err = scoring.ComputeChallengeScores(challenge, errs)
		return err
	})
	return scores, err
}

// CompetitionScore folds one participant's history.
func (s *Service) CompetitionScore(ctx context.Context, challenge int, history []scoring.Value) (scoring.Value, error) {
	var score scoring.Value
	err := s.track(ctx, OpCompetitionScore, challenge, func() (err error) {
		score, err = scoring.ComputeCompetitionScore(challenge, history)
		return err
	})
	return score, err
}

// ChallengeRewards splits a challenge pool.
func (s *Service) ChallengeRewards(ctx context.Context, challenge int, scores []scoring.Value, pool decimal.Decimal) ([]decimal.Decimal, error) {
	var rewards []decimal.Decimal
	err := s.track(ctx, OpChallengeRewards, challenge, func() (err error) {
		rewards, err = scoring.ComputeChallengeRewards(challenge, scores, pool)
		return err
	})
	return rewards, err
}

// CompetitionRewards splits a competition pool.
func (s *Service) CompetitionRewards(ctx context.Context, challenge int, scores []scoring.Value, pool decimal.Decimal) ([]decimal.Decimal, error) {
	var rewards []decimal.Decimal
	err := s.track(ctx, OpCompetitionRewards, challenge, func() (err error) {
		rewards, err = scoring.ComputeCompetitionRewards(challenge, scores, pool)
		return err
	})
	return rewards, err
}

// StakeRewards splits a stake pool.
func (s *Service) StakeRewards(ctx context.Context, challenge int, stakes []decimal.Decimal, pool decimal.Decimal) ([]decimal.Decimal, error) {
	var rewards []decimal.Decimal
	err := s.track(ctx, OpStakeRewards, challenge, func() (err error) {
		rewards, err = scoring.ComputeStakeRewards(challenge, stakes, pool)
		return err
	})
	return rewards, err
}

// Pools sizes all pools and the surplus for the given counts.
func (s *Service) Pools(ctx context.Context, challenge, predictors, stakers int) (model.Pools, error) {
	var p model.Pools
	err := s.track(ctx, OpPools, challenge, func() (err error) {
		if p.Challenge, err = scoring.ComputeChallengePool(challenge, predictors); err != nil {
			return err
		}
		if p.Competition, err = scoring.ComputeCompetitionPool(challenge, predictors); err != nil {
			return err
		}
		if p.Stake, err = scoring.ComputeStakePool(challenge, stakers); err != nil {
			return err
		}
		p.Surplus, err = scoring.ComputePoolSurplus(challenge, predictors, stakers)
		return err
	})
	return p, err
}

// ScoreRound scores a whole challenge: errors, challenge and competition
// scores, pools and the three reward distributions. Invalid or absent
// submissions are scored as missing.
func (s *Service) ScoreRound(ctx context.Context, r model.Round) (model.Result, error) {
	var res model.Result
	err := s.track(ctx, OpScoreRound, r.ChallengeNumber, func() (err error) {
		res, err = s.scoreRound(ctx, r)
		return err
	})
	return res, err
}

func (s *Service) scoreRound(ctx context.Context, r model.Round) (model.Result, error) {
	start := time.Now()

	if err := r.Validate(); err != nil {
		return model.Result{}, err
	}
	if len(r.Participants) > s.maxParticipants {
		return model.Result{}, fmt.Errorf("%w: %d participants, limit %d", ErrRoundTooLarge, len(r.Participants), s.maxParticipants)
	}
	if len(r.Assets) > s.maxAssets {
		return model.Result{}, fmt.Errorf("%w: %d assets, limit %d", ErrRoundTooLarge, len(r.Assets), s.maxAssets)
	}
	sc, err := scoring.Get(r.ChallengeNumber)
	if err != nil {
		return model.Result{}, err
	}

	n := len(r.Participants)
	res := model.Result{
		RunID:           uuid.NewString(),
		ChallengeNumber: r.ChallengeNumber,
		RuleVersion:     sc.Version(),
		Standings:       make([]model.Standing, n),
	}

	errs, err := s.roundErrors(ctx, sc, r, res.Standings)
	if err != nil {
		return model.Result{}, err
	}
	for i := range res.Standings {
		res.Standings[i].Error = errs[i]
		if res.Standings[i].Valid {
			res.Predictors++
		}
	}
	res.Invalid = n - res.Predictors

	scores := sc.ChallengeScores(errs)
	if len(scores) == 0 {
		// nobody to rank
		scores = make([]scoring.Value, n)
	}

	competition := make([]scoring.Value, n)
	stakes := make([]decimal.Decimal, n)
	for i, p := range r.Participants {
		history := append(slices.Clone(p.History), scores[i])
		competition[i] = sc.CompetitionScore(history)
		stakes[i] = p.Stake
		if p.Staking() {
			res.Stakers++
		}
	}

	if res.Pools, err = poolsOf(sc, res.Predictors, res.Stakers); err != nil {
		return model.Result{}, err
	}

	challengeRewards, err := sc.ChallengeRewards(scores, res.Pools.Challenge)
	if err != nil {
		return model.Result{}, err
	}
	competitionRewards, err := sc.CompetitionRewards(competition, res.Pools.Competition)
	if err != nil {
		return model.Result{}, err
	}
	stakeRewards, err := sc.StakeRewards(stakes, res.Pools.Stake)
	if err != nil {
		return model.Result{}, err
	}

	for i := range res.Standings {
		st := &res.Standings[i]
		st.ChallengeScore = scores[i]
		st.CompetitionScore = competition[i]
		st.ChallengeReward = challengeRewards[i]
		st.CompetitionReward = competitionRewards[i]
		st.StakeReward = stakeRewards[i]
		st.TotalReward = challengeRewards[i].Add(competitionRewards[i]).Add(stakeRewards[i])
	}
	res.Challenge = distribution(res.Pools.Challenge, challengeRewards)
	res.Competition = distribution(res.Pools.Competition, competitionRewards)
	res.Stake = distribution(res.Pools.Stake, stakeRewards)

	s.recordRound(ctx, res, time.Since(start))
	return res, nil
}

// roundErrors validates each submission, marks it in standings and computes
// the errors of valid ones concurrently. Invalid submissions stay missing.
func (s *Service) roundErrors(ctx context.Context, sc scoring.Scorer, r model.Round, standings []model.Standing) ([]scoring.Value, error) {
	errs := make([]scoring.Value, len(r.Participants))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.errorWorkers)
	for i, p := range r.Participants {
		standings[i].ID = p.ID
		if !scoring.ValidatePrediction(r.Assets, p.Predictions) {
			if p.Submitted() {
				s.logger.Debug(ctx, "rejected prediction set",
					logger.String("participant", p.ID),
					logger.Int("challenge", r.ChallengeNumber),
				)
			}
			continue
		}
		standings[i].Valid = true
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			e, err := sc.ChallengeError(scoring.AlignPredictions(r.Assets, p.Predictions), r.AssetValues)
			if err != nil {
				return fmt.Errorf("participant %s: %w", p.ID, err)
			}
			errs[i] = scoring.Present(e)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return errs, nil
}

func (s *Service) recordRound(ctx context.Context, res model.Result, elapsed time.Duration) {
	s.rounds.Add(1)
	s.mu.Lock()
	s.lastRunID = res.RunID
	s.mu.Unlock()

	elapsedMs := float64(elapsed.Nanoseconds()) / nanosecondsPerMillisecond
	s.metrics.RecordRound(elapsedMs, len(res.Standings), res.Predictors, res.Stakers)
	s.metrics.RecordInvalidSubmissions(res.Invalid)
	s.metrics.UpdateDistribution(CategoryChallenge, res.Challenge.Distributed, res.Challenge.Undistributed)
	s.metrics.UpdateDistribution(CategoryCompetition, res.Competition.Distributed, res.Competition.Undistributed)
	s.metrics.UpdateDistribution(CategoryStake, res.Stake.Distributed, res.Stake.Undistributed)
	s.metrics.UpdatePoolSurplus(res.Pools.Surplus)

	s.logger.Info(ctx, "round scored",
		logger.String("run_id", res.RunID),
		logger.Int("challenge", res.ChallengeNumber),
		logger.Int("rule_version", res.RuleVersion),
		logger.Int("participants", len(res.Standings)),
		logger.Int("predictors", res.Predictors),
		logger.Int("stakers", res.Stakers),
		logger.Int("invalid", res.Invalid),
		logger.Decimal("distributed", res.Challenge.Distributed.Add(res.Competition.Distributed).Add(res.Stake.Distributed)),
		logger.Decimal("surplus", res.Pools.Surplus),
		logger.Bool("over_budget", res.Pools.Surplus.IsNegative()),
		logger.Float64("duration_ms", elapsedMs),
	)
	if res.Pools.Surplus.IsNegative() {
		s.logger.Warn(ctx, "pools exceed the weekly budget",
			logger.Int("challenge", res.ChallengeNumber),
			logger.Decimal("surplus", res.Pools.Surplus),
		)
	}
}

// track times fn and records it as operation op.
func (s *Service) track(ctx context.Context, op string, challenge int, fn func() error) error {
	start := time.Now()
	s.operations.Add(1)
	if err := fn(); err != nil {
		s.failures.Add(1)
		s.metrics.RecordOperationError(op, Reason(err))
		s.logger.Warn(ctx, "scoring operation failed",
			logger.String("operation", op),
			logger.Int("challenge", challenge),
			logger.Error(err),
		)
		return err
	}

	version := 0
	if sc, err := scoring.Get(challenge); err == nil {
		version = sc.Version()
	}
	s.metrics.RecordOperation(op, version, float64(time.Since(start).Nanoseconds())/nanosecondsPerMillisecond)
	return nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]interface{}{
		"roundsScored":    s.rounds.Load(),
		"operations":      s.operations.Load(),
		"failures":        s.failures.Load(),
		"lastRunID":       s.lastRunID,
		"errorWorkers":    s.errorWorkers,
		"maxParticipants": s.maxParticipants,
		"maxAssets":       s.maxAssets,
	}
}

func poolsOf(sc scoring.Scorer, predictors, stakers int) (model.Pools, error) {
	var (
		p   model.Pools
		err error
	)
	if p.Challenge, err = sc.ChallengePool(predictors); err != nil {
		return p, err
	}
	if p.Competition, err = sc.CompetitionPool(predictors); err != nil {
		return p, err
	}
	if p.Stake, err = sc.StakePool(stakers); err != nil {
		return p, err
	}
	p.Surplus, err = sc.PoolSurplus(predictors, stakers)
	return p, err
}

func distribution(pool decimal.Decimal, rewards []decimal.Decimal) model.Distribution {
	distributed := scoring.Sum(rewards)
	return model.Distribution{
		Pool:          pool,
		Distributed:   distributed,
		Undistributed: pool.Sub(distributed),
	}
}

// Reason maps an error to a short metrics label.
func Reason(err error) string {
	switch {
	case errors.Is(err, scoring.ErrInvalidVersion):
		return "invalid_version"
	case errors.Is(err, scoring.ErrEmptyInput):
		return "empty_input"
	case errors.Is(err, scoring.ErrLengthMismatch):
		return "length_mismatch"
	case errors.Is(err, scoring.ErrNegativeFactor):
		return "negative_factor"
	case errors.Is(err, scoring.ErrNegativeCount):
		return "negative_count"
	case errors.Is(err, scoring.ErrInvalidValue):
		return "invalid_value"
	case errors.Is(err, model.ErrInvalidRound):
		return "invalid_round"
	case errors.Is(err, ErrRoundTooLarge):
		return "round_too_large"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "internal"
	}
}
