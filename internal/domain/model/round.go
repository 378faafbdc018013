// Package model contains domain models passed between layers: the input of a
// scored challenge round and its result.
package model

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/okian/rcscore/pkg/scoring"
	"github.com/shopspring/decimal"
)

// ErrInvalidRound marks a round that cannot be scored as given.
var ErrInvalidRound = errors.New("invalid round")

// Round is everything needed to score one challenge. Nothing in it is kept
// after scoring.
type Round struct {
	ChallengeNumber int               `json:"challenge_number" yaml:"challenge_number" validate:"gte=0"`
	Assets          []string          `json:"assets" yaml:"assets" validate:"required,min=1,unique,dive,required"`
	AssetValues     []decimal.Decimal `json:"asset_values" yaml:"asset_values" validate:"required"`
	Participants    []Participant     `json:"participants" yaml:"participants" validate:"unique=ID,dive"`
}

// Participant is one competitor in a round.
type Participant struct {
	ID string `json:"id" yaml:"id" validate:"required"`

	// Predictions sent for this challenge; empty when nothing was sent.
	Predictions []scoring.Prediction `json:"predictions,omitempty" yaml:"predictions,omitempty"`

	// History holds the challenge scores of previous challenges, oldest
	// first, with missing entries for skipped ones.
	History []scoring.Value `json:"history,omitempty" yaml:"history,omitempty"`

	// Stake committed by the participant; zero when not staking.
	Stake decimal.Decimal `json:"stake" yaml:"stake"`
}

// Submitted reports whether the participant sent anything.
func (p Participant) Submitted() bool { return len(p.Predictions) > 0 }

// Staking reports whether the participant has a positive stake.
func (p Participant) Staking() bool { return p.Stake.IsPositive() }

// Pools holds the pool sizes and the weekly surplus of a round.
type Pools struct {
	Challenge   decimal.Decimal `json:"challenge" yaml:"challenge"`
	Competition decimal.Decimal `json:"competition" yaml:"competition"`
	Stake       decimal.Decimal `json:"stake" yaml:"stake"`
	Surplus     decimal.Decimal `json:"surplus" yaml:"surplus"`
}

// Distribution sums up one reward category. Undistributed is what
// truncation or an all-zero factor set left in the pool.
type Distribution struct {
	Pool          decimal.Decimal `json:"pool" yaml:"pool"`
	Distributed   decimal.Decimal `json:"distributed" yaml:"distributed"`
	Undistributed decimal.Decimal `json:"undistributed" yaml:"undistributed"`
}

// Standing is the outcome of a round for one participant.
type Standing struct {
	ID                string          `json:"id" yaml:"id"`
	Valid             bool            `json:"valid" yaml:"valid"`
	Error             scoring.Value   `json:"error" yaml:"error"`
	ChallengeScore    scoring.Value   `json:"challenge_score" yaml:"challenge_score"`
	CompetitionScore  scoring.Value   `json:"competition_score" yaml:"competition_score"`
	ChallengeReward   decimal.Decimal `json:"challenge_reward" yaml:"challenge_reward"`
	CompetitionReward decimal.Decimal `json:"competition_reward" yaml:"competition_reward"`
	StakeReward       decimal.Decimal `json:"stake_reward" yaml:"stake_reward"`
	TotalReward       decimal.Decimal `json:"total_reward" yaml:"total_reward"`
}

// Result is the outcome of a scored round.
type Result struct {
	RunID           string       `json:"run_id" yaml:"run_id"`
	ChallengeNumber int          `json:"challenge_number" yaml:"challenge_number"`
	RuleVersion     int          `json:"rule_version" yaml:"rule_version"`
	Predictors      int          `json:"predictors" yaml:"predictors"`
	Stakers         int          `json:"stakers" yaml:"stakers"`
	Invalid         int          `json:"invalid" yaml:"invalid"`
	Pools           Pools        `json:"pools" yaml:"pools"`
	Challenge       Distribution `json:"challenge" yaml:"challenge"`
	Competition     Distribution `json:"competition" yaml:"competition"`
	Stake           Distribution `json:"stake" yaml:"stake"`
	Standings       []Standing   `json:"standings" yaml:"standings"`
}

//nolint:gochecknoglobals // shared validator instance
var validate = newValidator()

// Validator returns the shared struct validator. It is safe for concurrent
// use and reports fields by their JSON names.
func Validator() *validator.Validate { return validate }

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Use JSON tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks the structure of a round. It does not judge individual
// prediction sets; invalid submissions are scored as missing.
func (r Round) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRound, err)
	}
	if len(r.AssetValues) != len(r.Assets) {
		return fmt.Errorf("%w: %d asset values for %d assets", ErrInvalidRound, len(r.AssetValues), len(r.Assets))
	}
	for _, p := range r.Participants {
		if p.Stake.IsNegative() {
			return fmt.Errorf("%w: participant %s has a negative stake", ErrInvalidRound, p.ID)
		}
	}
	return nil
}
