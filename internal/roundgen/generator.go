// Package roundgen builds synthetic rounds for demos and load tests.
// Generation is deterministic for a given seed.
package roundgen

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/okian/rcscore/internal/domain/model"
	"github.com/okian/rcscore/pkg/logger"
	"github.com/okian/rcscore/pkg/scoring"
	"github.com/shopspring/decimal"
)

// ErrInvalidConfig is returned for unusable generator settings.
var ErrInvalidConfig = errors.New("invalid generator config")

// Noise scales of the performer profiles. Lower is a better forecaster.
const (
	eliteNoise    = 0.005
	highNoise     = 0.02
	averageNoise  = 0.05
	lowNoise      = 0.15
	wideNoise     = 0.5
	assetValueStd = 0.05
	decimalPlaces = 6
	maxStake      = 1000
)

// profiles is weighted toward average forecasters.
//
//nolint:gochecknoglobals // read-only table
var profiles = []float64{averageNoise, averageNoise, averageNoise, highNoise, lowNoise, eliteNoise, lowNoise, wideNoise}

// Config controls the shape of a generated round.
type Config struct {
	ChallengeNumber int
	Participants    int
	Assets          int
	History         int     // past challenge scores per participant
	SkipRate        float64 // share of participants sending nothing
	InvalidRate     float64 // share sending an incomplete set
	StakeRate       float64 // share with a positive stake
	MissingRate     float64 // share of missing history entries
	Seed            uint64
}

// DefaultConfig returns a small, mixed round.
func DefaultConfig() Config {
	return Config{
		Participants: 100,
		Assets:       10,
		History:      3,
		SkipRate:     0.1,
		InvalidRate:  0.05,
		StakeRate:    0.3,
		MissingRate:  0.1,
		Seed:         1,
	}
}

// Validate checks counts and rates.
func (c Config) Validate() error {
	switch {
	case c.ChallengeNumber < 0:
		return fmt.Errorf("%w: challenge number must not be negative", ErrInvalidConfig)
	case c.Participants < 0:
		return fmt.Errorf("%w: participants must not be negative", ErrInvalidConfig)
	case c.Assets <= 0:
		return fmt.Errorf("%w: assets must be positive", ErrInvalidConfig)
	case c.History < 0:
		return fmt.Errorf("%w: history must not be negative", ErrInvalidConfig)
	}
	for name, rate := range map[string]float64{
		"skip rate":    c.SkipRate,
		"invalid rate": c.InvalidRate,
		"stake rate":   c.StakeRate,
		"missing rate": c.MissingRate,
	} {
		if rate < 0 || rate > 1 {
			return fmt.Errorf("%w: %s must be within [0, 1]", ErrInvalidConfig, name)
		}
	}
	return nil
}

// Generate creates a round from cfg.
func Generate(ctx context.Context, cfg Config) (model.Round, error) {
	if err := cfg.Validate(); err != nil {
		return model.Round{}, err
	}
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))

	r := model.Round{
		ChallengeNumber: cfg.ChallengeNumber,
		Assets:          make([]string, cfg.Assets),
		AssetValues:     make([]decimal.Decimal, cfg.Assets),
		Participants:    make([]model.Participant, cfg.Participants),
	}
	values := make([]float64, cfg.Assets)
	for i := range r.Assets {
		r.Assets[i] = fmt.Sprintf("asset_%03d", i)
		values[i] = rng.NormFloat64() * assetValueStd
		r.AssetValues[i] = decimal.NewFromFloat(values[i]).Round(decimalPlaces)
	}

	for i := range r.Participants {
		if err := ctx.Err(); err != nil {
			return model.Round{}, fmt.Errorf("context cancelled during round generation: %w", err)
		}
		r.Participants[i] = generateParticipant(rng, cfg, i, r.Assets, values)
	}

	logger.Get().Info(ctx, "generated round",
		logger.Int("challenge", cfg.ChallengeNumber),
		logger.Int("participants", cfg.Participants),
		logger.Int("assets", cfg.Assets),
	)
	return r, nil
}

func generateParticipant(rng *rand.Rand, cfg Config, index int, assets []string, values []float64) model.Participant {
	p := model.Participant{
		ID:    fmt.Sprintf("participant_%05d", index),
		Stake: decimal.Zero,
	}

	if cfg.History > 0 {
		p.History = make([]scoring.Value, cfg.History)
		for j := range p.History {
			if rng.Float64() >= cfg.MissingRate {
				p.History[j] = scoring.Present(rng.Float64())
			}
		}
	}
	if rng.Float64() < cfg.StakeRate {
		p.Stake = decimal.NewFromFloat(rng.Float64() * maxStake).Round(2)
	}

	roll := rng.Float64()
	switch {
	case roll < cfg.SkipRate:
		return p
	case roll < cfg.SkipRate+cfg.InvalidRate:
		// drop the last asset
		p.Predictions = predictions(rng, assets[:len(assets)-1], values)
		if len(p.Predictions) == 0 {
			p.Predictions = []scoring.Prediction{{Asset: assets[0]}}
		}
		return p
	default:
		p.Predictions = predictions(rng, assets, values)
		return p
	}
}

func predictions(rng *rand.Rand, assets []string, values []float64) []scoring.Prediction {
	noise := profiles[rng.IntN(len(profiles))]
	out := make([]scoring.Prediction, len(assets))
	for i, asset := range assets {
		v := values[i] + rng.NormFloat64()*noise
		out[i] = scoring.Prediction{
			Asset: asset,
			Value: decimal.NewNullDecimal(decimal.NewFromFloat(v).Round(decimalPlaces)),
		}
	}
	return out
}
