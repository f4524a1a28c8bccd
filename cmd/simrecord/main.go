// Package main is the simrecord command: it records robots driven by a kinematic physics host
// and inspects recordings persisted to badger.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"go.viam.com/simrecord/logging"
	"go.viam.com/simrecord/robots"
)

const (
	flagConfig    = "config"
	flagDebug     = "debug"
	flagLogFile   = "log-file"
	flagSteps     = "steps"
	flagTrace     = "trace-frames"
	flagDB        = "db"
	flagRecording = "recording"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		logging.Global().Error(err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	var logger logging.Logger
	return &cli.App{
		Name:  "simrecord",
		Usage: "record simulated robots",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool(flagDebug) {
				logger = logging.NewDebugLogger("simrecord")
			} else {
				logger = logging.NewLogger("simrecord")
			}
			logging.ReplaceGlobal(logger)
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "simulate and record the robots of a config file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     flagConfig,
						Aliases:  []string{"c"},
						Usage:    "load configuration from `FILE`",
						Required: true,
					},
					&cli.StringFlag{
						Name:  flagLogFile,
						Usage: "also write logs to rotating `FILE`",
					},
					&cli.BoolFlag{
						Name:  flagTrace,
						Usage: "log per-frame link poses without lowering the log level",
					},
					&cli.Int64Flag{
						Name:  flagSteps,
						Usage: "stop after `N` steps, overriding the config; 0 runs until interrupted",
						Value: -1,
					},
				},
				Action: func(c *cli.Context) error {
					return runAction(c, logger)
				},
			},
			{
				Name:  "replay",
				Usage: "list recordings in a badger store or summarize one",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     flagDB,
						Usage:    "badger store `DIR`",
						Required: true,
					},
					&cli.StringFlag{
						Name:  flagRecording,
						Usage: "recording `ID` to summarize",
					},
				},
				Action: func(c *cli.Context) error {
					return replayAction(c, logger)
				},
			},
			{
				Name:  "robots",
				Usage: "list registered robot types",
				Action: func(c *cli.Context) error {
					for _, t := range robots.RegisteredTypes() {
						fmt.Fprintf(c.App.Writer, "%s\t%s\n", t.Name, t.Description)
					}
					return nil
				},
			},
		},
	}
}
