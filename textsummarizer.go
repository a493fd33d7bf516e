// Package textsummarizer assembles the summarization pipeline: stage
// configuration, the model backend client, run tracking and the MCP tool
// server.
package textsummarizer

import (
	"context"
	"sync"
	"time"

	"go.uber.org/multierr"

	"github.com/localrivet/textsummarizer/internal/config"
	"github.com/localrivet/textsummarizer/internal/logger"
	"github.com/localrivet/textsummarizer/internal/model"
	"github.com/localrivet/textsummarizer/internal/pipeline"
	"github.com/localrivet/textsummarizer/internal/prediction"
	"github.com/localrivet/textsummarizer/internal/server"
	"github.com/localrivet/textsummarizer/internal/telemetry"
	"github.com/localrivet/textsummarizer/internal/trainer"
	"github.com/localrivet/textsummarizer/internal/tracking"
)

// Settings are the process-level settings.
type Settings = config.Settings

// Options defines the options for creating an App.
type Options struct {
	ConfigPath string // Pipeline config. Defaults to config/config.yaml.
	ParamsPath string // Training hyperparameters. Defaults to params.yaml.
	Settings   *Settings
	Logger     *logger.Logger // If nil, a logger is built from Settings and closed by Close.
	Metrics    *telemetry.MetricsCollector
}

// App holds the components shared by every command.
type App struct {
	settings  *Settings
	config    *config.ConfigurationManager
	log       *logger.Logger
	ownLog    bool
	metrics   *telemetry.MetricsCollector
	store     tracking.Store
	client    *model.Client
	deps      pipeline.Dependencies
	predictMu sync.Mutex
	predictor *prediction.PredictionPipeline
}

// New loads the pipeline configuration and creates the shared components.
func New(opts Options) (*App, error) {
	settings := opts.Settings
	if settings == nil {
		settings = config.NewSettings()
	}
	if opts.ConfigPath == "" {
		opts.ConfigPath = config.DefaultConfigFilePath
	}
	if opts.ParamsPath == "" {
		opts.ParamsPath = config.DefaultParamsFilePath
	}

	a := &App{settings: settings, log: opts.Logger, metrics: opts.Metrics}
	if a.log == nil {
		a.log = settings.NewLogger()
		a.ownLog = true
	}
	if a.metrics == nil {
		a.metrics = telemetry.NewMetricsCollector()
	}

	cfg, err := config.NewConfigurationManager(a.log, opts.ConfigPath, opts.ParamsPath)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.config = cfg

	if path := settings.Tracking.SQLitePath; path != "" {
		store := tracking.NewSQLiteStore()
		if err := store.Initialize(path); err != nil {
			a.Close()
			return nil, err
		}
		a.store = store
		a.log.Info("tracking runs in %s", path)
	}

	a.client = model.NewClient(model.ClientConfig{
		BaseURL: settings.Model.BaseURL,
		Device:  settings.Model.Device,
		Timeout: time.Duration(settings.Model.TimeoutSeconds) * time.Second,
		Metrics: a.metrics,
	})

	a.deps = pipeline.Dependencies{
		Config:        cfg,
		Log:           a.log,
		Metrics:       a.metrics,
		LoadTokenizer: model.SentencePieceLoader(model.TokenizerOptions{HubToken: settings.Model.HubToken}),
		LoadModel:     a.client.Loader(),
		Trainer:       trainer.NewCommandRunner(settings.TrainerCommand(), a.log),
		Device:        settings.Model.Device,
	}
	if a.store != nil {
		a.deps.Scores = a.store
	}
	return a, nil
}

// Logger returns the application logger.
func (a *App) Logger() *logger.Logger { return a.log }

// Metrics returns the metrics collector.
func (a *App) Metrics() *telemetry.MetricsCollector { return a.metrics }

// Store returns the tracking store, or nil when tracking is disabled.
func (a *App) Store() tracking.Store { return a.store }

// Dependencies returns the stage dependencies.
func (a *App) Dependencies() pipeline.Dependencies { return a.deps }

func (a *App) runner() *pipeline.Runner {
	return pipeline.NewRunner(a.log, a.store, a.metrics)
}

// RunPipeline runs every stage in order.
func (a *App) RunPipeline(ctx context.Context) error {
	return a.runner().Run(ctx, pipeline.Stages(a.deps)...)
}

// RunStage runs the stage registered under key.
func (a *App) RunStage(ctx context.Context, key string) error {
	stage, err := pipeline.StageByKey(a.deps, key)
	if err != nil {
		return err
	}
	return a.runner().Run(ctx, stage)
}

// Predictor returns the prediction pipeline, creating it on first use.
func (a *App) Predictor() (*prediction.PredictionPipeline, error) {
	a.predictMu.Lock()
	defer a.predictMu.Unlock()

	if a.predictor != nil {
		return a.predictor, nil
	}
	cfg, err := a.config.GetModelEvaluationConfig()
	if err != nil {
		return nil, err
	}
	a.predictor = prediction.New(cfg, a.log, a.deps.LoadTokenizer, a.deps.LoadModel, a.settings.Model.Device, a.metrics)
	return a.predictor, nil
}

// Predict summarizes one dialogue.
func (a *App) Predict(ctx context.Context, text string) (string, error) {
	p, err := a.Predictor()
	if err != nil {
		return "", err
	}
	return p.Predict(ctx, text)
}

// NewToolServer creates the MCP tool server over the prediction pipeline
// and the tracking store. Tracking must be enabled.
func (a *App) NewToolServer() (*server.MCPToolServer, error) {
	p, err := a.Predictor()
	if err != nil {
		return nil, err
	}
	srv := server.NewToolServer(p, a.store, a.metrics, a.log)
	if err := srv.Initialize(); err != nil {
		return nil, err
	}
	return srv, nil
}

// Close releases the tracking store and, when the App created it, the logger.
func (a *App) Close() error {
	var err error
	if a.store != nil {
		err = multierr.Append(err, a.store.Close())
		a.store = nil
	}
	if a.ownLog && a.log != nil {
		err = multierr.Append(err, a.log.Close())
		a.ownLog = false
	}
	return err
}
