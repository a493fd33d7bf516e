package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/localrivet/textsummarizer"
	"github.com/localrivet/textsummarizer/internal/config"
	"github.com/localrivet/textsummarizer/internal/errortypes"
	"github.com/localrivet/textsummarizer/internal/logger"
	"github.com/localrivet/textsummarizer/internal/pipeline"
)

func newCLI() *cli.App {
	return &cli.App{
		Name:  "textsummarizer",
		Usage: "Fine-tune, evaluate and serve a dialogue summarization model",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   config.DefaultConfigFilePath,
				Usage:   "pipeline configuration file.",
			},
			&cli.StringFlag{
				Name:  "params",
				Value: config.DefaultParamsFilePath,
				Usage: "training hyperparameters file.",
			},
			&cli.StringFlag{
				Name:  "settings",
				Value: config.DefaultSettingsFilename,
				Usage: "runtime settings file (model backend, trainer command, logging).",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "override the log level: debug, info, warn or error.",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run every pipeline stage in order.",
				Action: func(c *cli.Context) error {
					return withApp(c, os.Stdout, func(ctx context.Context, app *textsummarizer.App) error {
						return app.RunPipeline(ctx)
					})
				},
			},
			{
				Name:      "stage",
				Usage:     "Run a single pipeline stage.",
				ArgsUsage: "<" + strings.Join(pipeline.StageKeys, "|") + ">",
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return cli.Exit("expected exactly one stage name", 2)
					}
					return withApp(c, os.Stdout, func(ctx context.Context, app *textsummarizer.App) error {
						return app.RunStage(ctx, c.Args().First())
					})
				},
			},
			{
				Name:  "predict",
				Usage: "Summarize a dialogue with the fine-tuned model.",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "text",
						Aliases: []string{"t"},
						Usage:   "dialogue to summarize; '-' reads it from stdin.",
					},
				},
				Action: runPredict,
			},
			{
				Name:  "serve",
				Usage: "Serve the summarize, latest_scores and pipeline_runs MCP tools over stdio.",
				Action: func(c *cli.Context) error {
					// stdout carries the MCP protocol
					return withApp(c, os.Stderr, serve)
				},
			},
		},
	}
}

// withApp loads settings, builds the App and closes it once fn returns.
func withApp(c *cli.Context, logOutput io.Writer, fn func(context.Context, *textsummarizer.App) error) (err error) {
	ctx := c.Context

	settings, err := config.LoadSettings(ctx, c.String("settings"))
	if err != nil {
		return err
	}
	if level := c.String("log-level"); level != "" {
		settings.Logging.Level = level
	}

	logCfg := settings.LoggerConfig()
	logCfg.Output = logOutput
	log := logger.New(logCfg)
	defer log.Close()

	app, err := textsummarizer.New(textsummarizer.Options{
		ConfigPath: c.String("config"),
		ParamsPath: c.String("params"),
		Settings:   settings,
		Logger:     log,
	})
	if err != nil {
		errortypes.LogError(log, err)
		return err
	}
	defer func() {
		log.Debug("%s", app.Metrics().GetReport())
		if cerr := app.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	return fn(ctx, app)
}

func runPredict(c *cli.Context) error {
	text := c.String("text")
	if text == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return errortypes.IOError(err, "failed to read stdin")
		}
		text = string(data)
	}
	if strings.TrimSpace(text) == "" {
		return cli.Exit("predict needs --text", 2)
	}

	return withApp(c, os.Stderr, func(ctx context.Context, app *textsummarizer.App) error {
		summary, err := app.Predict(ctx, text)
		if err != nil {
			errortypes.LogError(app.Logger(), err)
			return err
		}
		_, err = fmt.Fprintln(c.App.Writer, summary)
		return err
	})
}

func serve(ctx context.Context, app *textsummarizer.App) error {
	if app.Store() == nil {
		return errortypes.ConfigError(errors.New("tracking.sqlite_path is empty"), "serve needs the tracking store")
	}
	srv, err := app.NewToolServer()
	if err != nil {
		return err
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Start(ctx) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		app.Logger().Info("Received shutdown signal, terminating gracefully...")
		return srv.Stop()
	}
}
