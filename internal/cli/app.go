// Package cli implements the rcscore command line for scoring round files
// offline.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	service "github.com/okian/rcscore/internal/app"
	"github.com/okian/rcscore/internal/domain/model"
	"github.com/okian/rcscore/pkg/logger"
	urfave "github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

const (
	appServiceKey = "service"

	formatJSON = "json"
	formatYAML = "yaml"
)

var (
	version = "v0.0.1-default"

	debugFlag = &urfave.BoolFlag{
		Name:  "debug",
		Usage: "Prints verbose logs to stderr (optional, default: false)",
	}

	formatFlag = &urfave.StringFlag{
		Name:  "format",
		Usage: "Output format [json, yaml]",
		Value: formatJSON,
	}

	workersFlag = &urfave.IntFlag{
		Name:  "workers",
		Usage: "Concurrent error computations per round (optional, default: 2x CPUs)",
	}
)

// Execute creates and runs the CLI application.
func Execute() {
	if err := NewApp(os.Stdout, os.Stderr).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// NewApp builds the application writing results to out and logs to errOut.
func NewApp(out, errOut io.Writer) *urfave.App {
	return &urfave.App{
		Name:            "rcscore",
		Version:         version,
		Usage:           "Score forecasting challenge rounds and size reward pools",
		HideHelpCommand: true,
		Writer:          out,
		ErrWriter:       errOut,
		Metadata:        map[string]interface{}{},
		Flags: []urfave.Flag{
			debugFlag,
			formatFlag,
			workersFlag,
		},
		Commands: []*urfave.Command{
			roundCmd,
			poolsCmd,
			validateCmd,
			generateCmd,
		},
		Before: func(c *urfave.Context) error {
			if err := logger.Init(logger.WithOutput(c.App.ErrWriter)); err != nil {
				return fmt.Errorf("initializing logger: %w", err)
			}
			level := "warn"
			if c.Bool(debugFlag.Name) {
				level = "debug"
			}
			if err := logger.SetLevelString(level); err != nil {
				return err
			}

			switch f := strings.ToLower(c.String(formatFlag.Name)); f {
			case formatJSON, formatYAML, "yml":
			default:
				return fmt.Errorf("unknown format %q", f)
			}

			c.App.Metadata[appServiceKey] = service.New(
				service.WithLogger(logger.Named("cli")),
				service.WithErrorWorkers(c.Int(workersFlag.Name)),
			)
			return nil
		},
	}
}

func getService(c *urfave.Context) *service.Service {
	return c.App.Metadata[appServiceKey].(*service.Service)
}

// readRound loads a round from a YAML or JSON file.
func readRound(path string) (model.Round, error) {
	var r model.Round
	b, err := os.ReadFile(path)
	if err != nil {
		return r, fmt.Errorf("reading round file: %w", err)
	}
	if err := yaml.Unmarshal(b, &r); err != nil {
		return r, fmt.Errorf("parsing round file %s: %w", path, err)
	}
	return r, nil
}

func encode(c *urfave.Context, v any) error {
	switch strings.ToLower(c.String(formatFlag.Name)) {
	case formatYAML, "yml":
		e := yaml.NewEncoder(c.App.Writer)
		defer e.Close()
		return e.Encode(v)
	default:
		e := json.NewEncoder(c.App.Writer)
		e.SetIndent("", "  ")
		return e.Encode(v)
	}
}
