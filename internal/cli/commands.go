package cli

import (
	"github.com/okian/rcscore/internal/roundgen"
	"github.com/okian/rcscore/pkg/scoring"
	urfave "github.com/urfave/cli/v2"
)

var (
	fileFlag = &urfave.StringFlag{
		Name:     "file",
		Aliases:  []string{"f"},
		Usage:    "Round file (YAML or JSON)",
		Required: true,
	}

	challengeFlag = &urfave.IntFlag{
		Name:     "challenge",
		Aliases:  []string{"c"},
		Usage:    "Challenge number",
		Required: true,
	}

	predictorsFlag = &urfave.IntFlag{
		Name:  "predictors",
		Usage: "Number of participants with a valid submission",
	}

	stakersFlag = &urfave.IntFlag{
		Name:  "stakers",
		Usage: "Number of participants with a positive stake",
	}

	roundCmd = &urfave.Command{
		Name:    "round",
		Aliases: []string{"r"},
		Usage:   "Score a round file: errors, scores, pools and rewards",
		Action:  cmdRound,
		Flags: []urfave.Flag{
			fileFlag,
		},
	}

	poolsCmd = &urfave.Command{
		Name:    "pools",
		Aliases: []string{"p"},
		Usage:   "Print pool sizes and the weekly surplus",
		Action:  cmdPools,
		Flags: []urfave.Flag{
			challengeFlag,
			predictorsFlag,
			stakersFlag,
		},
	}

	genDefaults = roundgen.DefaultConfig()

	generateCmd = &urfave.Command{
		Name:    "generate",
		Aliases: []string{"g"},
		Usage:   "Print a synthetic round file for demos and load tests",
		Action:  cmdGenerate,
		Flags: []urfave.Flag{
			&urfave.IntFlag{Name: "challenge", Usage: "Challenge number"},
			&urfave.IntFlag{Name: "participants", Value: genDefaults.Participants, Usage: "Number of participants"},
			&urfave.IntFlag{Name: "assets", Value: genDefaults.Assets, Usage: "Number of assets"},
			&urfave.IntFlag{Name: "history", Value: genDefaults.History, Usage: "Past challenge scores per participant"},
			&urfave.Float64Flag{Name: "skip-rate", Value: genDefaults.SkipRate, Usage: "Share of participants sending nothing"},
			&urfave.Float64Flag{Name: "invalid-rate", Value: genDefaults.InvalidRate, Usage: "Share sending an incomplete set"},
			&urfave.Float64Flag{Name: "stake-rate", Value: genDefaults.StakeRate, Usage: "Share with a positive stake"},
			&urfave.Float64Flag{Name: "missing-rate", Value: genDefaults.MissingRate, Usage: "Share of missing history entries"},
			&urfave.Uint64Flag{Name: "seed", Value: genDefaults.Seed, Usage: "Random seed"},
		},
	}

	validateCmd = &urfave.Command{
		Name:    "validate",
		Aliases: []string{"v"},
		Usage:   "Report which submissions in a round file are invalid",
		Action:  cmdValidate,
		Flags: []urfave.Flag{
			fileFlag,
		},
	}
)

// Reasons reported by the validate command.
const (
	reasonNoSubmission = "no submission"
	reasonInvalidSet   = "invalid prediction set"
)

type invalidSubmission struct {
	ID     string `json:"id" yaml:"id"`
	Reason string `json:"reason" yaml:"reason"`
}

type validationReport struct {
	ChallengeNumber int                 `json:"challenge_number" yaml:"challenge_number"`
	Valid           []string            `json:"valid" yaml:"valid"`
	Invalid         []invalidSubmission `json:"invalid" yaml:"invalid"`
}

func cmdRound(c *urfave.Context) error {
	r, err := readRound(c.String(fileFlag.Name))
	if err != nil {
		return err
	}
	res, err := getService(c).ScoreRound(c.Context, r)
	if err != nil {
		return err
	}
	return encode(c, res)
}

func cmdPools(c *urfave.Context) error {
	pools, err := getService(c).Pools(c.Context, c.Int(challengeFlag.Name), c.Int(predictorsFlag.Name), c.Int(stakersFlag.Name))
	if err != nil {
		return err
	}
	return encode(c, pools)
}

func cmdGenerate(c *urfave.Context) error {
	r, err := roundgen.Generate(c.Context, roundgen.Config{
		ChallengeNumber: c.Int("challenge"),
		Participants:    c.Int("participants"),
		Assets:          c.Int("assets"),
		History:         c.Int("history"),
		SkipRate:        c.Float64("skip-rate"),
		InvalidRate:     c.Float64("invalid-rate"),
		StakeRate:       c.Float64("stake-rate"),
		MissingRate:     c.Float64("missing-rate"),
		Seed:            c.Uint64("seed"),
	})
	if err != nil {
		return err
	}
	return encode(c, r)
}

func cmdValidate(c *urfave.Context) error {
	r, err := readRound(c.String(fileFlag.Name))
	if err != nil {
		return err
	}
	if _, err := scoring.Get(r.ChallengeNumber); err != nil {
		return err
	}

	svc := getService(c)
	report := validationReport{
		ChallengeNumber: r.ChallengeNumber,
		Valid:           []string{},
		Invalid:         []invalidSubmission{},
	}
	for _, p := range r.Participants {
		switch {
		case !p.Submitted():
			report.Invalid = append(report.Invalid, invalidSubmission{ID: p.ID, Reason: reasonNoSubmission})
		case !svc.ValidatePrediction(c.Context, r.Assets, p.Predictions):
			report.Invalid = append(report.Invalid, invalidSubmission{ID: p.ID, Reason: reasonInvalidSet})
		default:
			report.Valid = append(report.Valid, p.ID)
		}
	}
	return encode(c, report)
}
