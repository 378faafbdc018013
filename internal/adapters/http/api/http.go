// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/okian/rcscore/internal/domain/model"
	"github.com/okian/rcscore/pkg/logger"
	"github.com/okian/rcscore/pkg/scoring"
	"github.com/shopspring/decimal"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	ValidatePrediction(ctx context.Context, assets []string, predictions []scoring.Prediction) bool
	ChallengeError(ctx context.Context, challenge int, predictions, values []decimal.Decimal) (float64, error)
	ChallengeScores(ctx context.Context, challenge int, errs []scoring.Value) ([]scoring.Value, error)
	CompetitionScore(ctx context.Context, challenge int, history []scoring.Value) (scoring.Value, error)
	ChallengeRewards(ctx context.Context, challenge int, scores []scoring.Value, pool decimal.Decimal) ([]decimal.Decimal, error)
	CompetitionRewards(ctx context.Context, challenge int, scores []scoring.Value, pool decimal.Decimal) ([]decimal.Decimal, error)
	StakeRewards(ctx context.Context, challenge int, stakes []decimal.Decimal, pool decimal.Decimal) ([]decimal.Decimal, error)
	Pools(ctx context.Context, challenge, predictors, stakers int) (model.Pools, error)
	ScoreRound(ctx context.Context, r model.Round) (model.Result, error)
}

const (
	defaultMaxBodyBytes   = 32 << 20
	defaultRequestTimeout = 30 * time.Second
)

// Server wires HTTP routes for the business API.
type Server struct {
	statsHandler   *StatsHandler
	healthHandler  *HealthHandler
	scoringHandler *ScoringHandler

	maxBodyBytes int64
	timeout      time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithMaxBodyBytes limits request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

// WithRequestTimeout bounds the time spent on one request.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		statsHandler:   NewStatsHandler(statsProvider),
		healthHandler:  NewHealthHandler(),
		scoringHandler: NewScoringHandler(deps),
		maxBodyBytes:   defaultMaxBodyBytes,
		timeout:        defaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router returns a chi router with middleware and all routes attached.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	s.Register(r)
	return r
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(r chi.Router) {
	r.Get("/healthz", s.healthHandler.HandleHealth)
	r.Get("/stats", s.statsHandler.HandleStats)

	r.Route("/v1", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(BodyLimit(s.maxBodyBytes))
		r.Use(middleware.Timeout(s.timeout))

		h := s.scoringHandler
		r.Post("/predictions/validate", h.HandleValidate)
		r.Route("/challenges/{number}", func(r chi.Router) {
			r.Post("/error", h.HandleError)
			r.Post("/scores", h.HandleScores)
			r.Post("/competition-score", h.HandleCompetitionScore)
			r.Post("/rewards/{kind}", h.HandleRewards)
			r.Get("/pools", h.HandlePools)
			r.Post("/rounds", h.HandleRound)
		})
	})
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	render.Status(r, status)
	render.JSON(w, r, v)
}

// writeError renders err with the status derived from its kind.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		logger.Get().Error(r.Context(), "request failed",
			logger.String("path", r.URL.Path),
			logger.String("request_id", middleware.GetReqID(r.Context())),
			logger.Error(err),
		)
	}
	writeJSON(w, r, status, errorResponse{Code: code, Message: err.Error()})
}

//nolint:gochecknoglobals // request structs share the model validator
var validate = model.Validator()
