package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/okian/rcscore/internal/domain/model"
	"github.com/okian/rcscore/pkg/scoring"
	"github.com/shopspring/decimal"
)

// Reward kinds accepted by POST /v1/challenges/{number}/rewards/{kind}.
const (
	KindChallenge   = "challenge"
	KindCompetition = "competition"
	KindStake       = "stake"
)

type validateRequest struct {
	Assets      []string             `json:"assets" validate:"required,min=1,dive,required"`
	Predictions []scoring.Prediction `json:"predictions"`
}

type validateResponse struct {
	Valid bool `json:"valid"`
}

type errorRequest struct {
	Predictions []decimal.Decimal `json:"predictions" validate:"required,min=1"`
	Values      []decimal.Decimal `json:"values" validate:"required,min=1"`
}

type errorResult struct {
	Error float64 `json:"error"`
}

type scoresRequest struct {
	Errors []scoring.Value `json:"errors" validate:"required"`
}

type scoresResponse struct {
	Scores []scoring.Value `json:"scores"`
}

type competitionRequest struct {
	History []scoring.Value `json:"history" validate:"required"`
}

type competitionResponse struct {
	Score scoring.Value `json:"score"`
}

type rewardsRequest struct {
	Scores []scoring.Value   `json:"scores" validate:"required_without=Stakes"`
	Stakes []decimal.Decimal `json:"stakes" validate:"required_without=Scores"`
	Pool   decimal.Decimal   `json:"pool"`
}

type rewardsResponse struct {
	Rewards     []decimal.Decimal `json:"rewards"`
	Distributed decimal.Decimal   `json:"distributed"`
}

type poolsQuery struct {
	Predictors int `validate:"gte=0"`
	Stakers    int `validate:"gte=0"`
}

// ScoringHandler serves the scoring operations.
type ScoringHandler struct {
	deps Dependencies
}

// NewScoringHandler creates a new scoring handler.
func NewScoringHandler(deps Dependencies) *ScoringHandler {
	return &ScoringHandler{deps: deps}
}

// HandleValidate handles POST /v1/predictions/validate.
func (h *ScoringHandler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	const op = "api.validate_prediction"
	var req validateRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	writeJSON(w, r, http.StatusOK, validateResponse{
		Valid: h.deps.ValidatePrediction(r.Context(), req.Assets, req.Predictions),
	})
}

// HandleError handles POST /v1/challenges/{number}/error.
func (h *ScoringHandler) HandleError(w http.ResponseWriter, r *http.Request) {
	const op = "api.challenge_error"
	number, err := challengeNumber(r)
	if err != nil {
		writeError(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	var req errorRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	e, err := h.deps.ChallengeError(r.Context(), number, req.Predictions, req.Values)
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, r, http.StatusOK, errorResult{Error: e})
}

// HandleScores handles POST /v1/challenges/{number}/scores.
func (h *ScoringHandler) HandleScores(w http.ResponseWriter, r *http.Request) {
	const op = "api.challenge_scores"
	number, err := challengeNumber(r)
	if err != nil {
		writeError(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	var req scoresRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	scores, err := h.deps.ChallengeScores(r.Context(), number, req.Errors)
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, r, http.StatusOK, scoresResponse{Scores: scores})
}

// HandleCompetitionScore handles POST /v1/challenges/{number}/competition-score.
func (h *ScoringHandler) HandleCompetitionScore(w http.ResponseWriter, r *http.Request) {
	const op = "api.competition_score"
	number, err := challengeNumber(r)
	if err != nil {
		writeError(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	var req competitionRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	score, err := h.deps.CompetitionScore(r.Context(), number, req.History)
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, r, http.StatusOK, competitionResponse{Score: score})
}

// HandleRewards handles POST /v1/challenges/{number}/rewards/{kind}.
func (h *ScoringHandler) HandleRewards(w http.ResponseWriter, r *http.Request) {
	const op = "api.rewards"
	number, err := challengeNumber(r)
	if err != nil {
		writeError(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	kind := chi.URLParam(r, "kind")
	switch kind {
	case KindChallenge, KindCompetition, KindStake:
	default:
		writeError(w, r, NewKind(op, fmt.Errorf("%w: %q", ErrUnknownKind, kind)))
		return
	}
	var req rewardsRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}

	var rewards []decimal.Decimal
	switch kind {
	case KindChallenge:
		rewards, err = h.deps.ChallengeRewards(r.Context(), number, req.Scores, req.Pool)
	case KindCompetition:
		rewards, err = h.deps.CompetitionRewards(r.Context(), number, req.Scores, req.Pool)
	default:
		rewards, err = h.deps.StakeRewards(r.Context(), number, req.Stakes, req.Pool)
	}
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, r, http.StatusOK, rewardsResponse{Rewards: rewards, Distributed: scoring.Sum(rewards)})
}

// HandlePools handles GET /v1/challenges/{number}/pools?predictors=&stakers=.
func (h *ScoringHandler) HandlePools(w http.ResponseWriter, r *http.Request) {
	const op = "api.pools"
	number, err := challengeNumber(r)
	if err != nil {
		writeError(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	var q poolsQuery
	if q.Predictors, err = queryInt(r, "predictors"); err != nil {
		writeError(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	if q.Stakers, err = queryInt(r, "stakers"); err != nil {
		writeError(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := validate.Struct(q); err != nil {
		writeError(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	pools, err := h.deps.Pools(r.Context(), number, q.Predictors, q.Stakers)
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, r, http.StatusOK, pools)
}

// HandleRound handles POST /v1/challenges/{number}/rounds. The path number
// overrides any challenge_number in the body.
func (h *ScoringHandler) HandleRound(w http.ResponseWriter, r *http.Request) {
	const op = "api.score_round"
	number, err := challengeNumber(r)
	if err != nil {
		writeError(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	var round model.Round
	if err := render.DecodeJSON(r.Body, &round); err != nil {
		writeError(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	round.ChallengeNumber = number
	res, err := h.deps.ScoreRound(r.Context(), round)
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}

// decode reads a JSON body into v and validates it.
func decode(r *http.Request, v any) error {
	if err := render.DecodeJSON(r.Body, v); err != nil {
		return err
	}
	return validate.Struct(v)
}

func challengeNumber(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "number")
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errQuoted(raw)
	}
	return n, nil
}

// queryInt parses an optional integer query parameter; absent means 0.
func queryInt(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errQuoted(key + "=" + raw)
	}
	return n, nil
}
