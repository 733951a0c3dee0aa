package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/jaehong-maker/Smart-Diffuser-Project/internal/classify"
)

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Value:   "./config/config.yaml",
		EnvVars: []string{"CONFIG_PATH"},
		Usage:   "Path to the YAML configuration",
	}
}

// newCLIApp creates the CLI application. Running without a command serves HTTP.
func newCLIApp(out io.Writer) *cli.App {
	app := &cli.App{
		Name:    "diffuserd",
		Usage:   "Smart diffuser decision backend",
		Version: Version,
		Writer:  out,
		Flags:   []cli.Flag{configFlag()},
		Action: func(c *cli.Context) error {
			return serve(c.String("config"))
		},
		Commands: []*cli.Command{
			serveCmd(),
			classifyCmd(),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API",
		Flags: []cli.Flag{configFlag()},
		Action: func(c *cli.Context) error {
			return serve(c.String("config"))
		},
	}
}

// classifyCmd runs the classifiers offline, without state or cooldown.
func classifyCmd() *cli.Command {
	return &cli.Command{
		Name:  "classify",
		Usage: "Show the scent a classifier picks for an input",
		Subcommands: []*cli.Command{
			{
				Name:  "weather",
				Usage: "Classify a weather label and humidity",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "label", Aliases: []string{"l"}, Required: true, Usage: "Weather label, e.g. 맑음"},
					&cli.StringFlag{Name: "humidity", Value: "0", Usage: "Relative humidity"},
					&cli.Float64Flag{Name: "threshold", Value: classify.DefaultHumidityThreshold, Usage: "High humidity threshold"},
				},
				Action: func(c *cli.Context) error {
					out := classify.ClassifyWeather(c.String("label"), c.String("humidity"), c.Float64("threshold"))
					return outputJSON(c.App.Writer, out)
				},
			},
			{
				Name:  "emotion",
				Usage: "Classify a mood code or word",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Required: true, Usage: "1-4 or 신남/편안함/화남/슬픔"},
					&cli.StringFlag{Name: "at", Usage: "RFC 3339 time to classify at (defaults to now)"},
				},
				Action: func(c *cli.Context) error {
					at := time.Now()
					if raw := c.String("at"); raw != "" {
						parsed, err := time.Parse(time.RFC3339, raw)
						if err != nil {
							return cli.Exit(fmt.Sprintf("invalid --at: %v", err), 1)
						}
						at = parsed
					}
					return outputJSON(c.App.Writer, classify.ClassifyEmotion(c.String("input"), at))
				},
			},
			{
				Name:      "voice",
				Usage:     "Classify a transcript",
				ArgsUsage: "<transcript>",
				Action: func(c *cli.Context) error {
					return outputJSON(c.App.Writer, classify.ClassifyVoice(c.Args().First()))
				},
			},
		},
	}
}

type outcomeJSON struct {
	ScentCode int    `json:"spray"`
	Label     string `json:"result_text"`
	Mode      string `json:"mode"`
	Duration  int    `json:"duration"`
}

func outputJSON(w io.Writer, out classify.Outcome) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(outcomeJSON{
		ScentCode: out.ScentCode,
		Label:     out.Label,
		Mode:      out.Mode,
		Duration:  out.Duration,
	})
}
