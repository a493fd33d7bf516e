// Package pipeline wires the stage components into the five training
// stages and runs them in order.
package pipeline

import (
	"context"
	"fmt"
	"sort"

	"github.com/localrivet/textsummarizer/internal/config"
	"github.com/localrivet/textsummarizer/internal/errortypes"
	"github.com/localrivet/textsummarizer/internal/evaluation"
	"github.com/localrivet/textsummarizer/internal/ingestion"
	"github.com/localrivet/textsummarizer/internal/logger"
	"github.com/localrivet/textsummarizer/internal/model"
	"github.com/localrivet/textsummarizer/internal/telemetry"
	"github.com/localrivet/textsummarizer/internal/trainer"
	"github.com/localrivet/textsummarizer/internal/transformation"
	"github.com/localrivet/textsummarizer/internal/validation"
)

// Stage is one step of the training pipeline.
type Stage interface {
	Name() string
	Main(ctx context.Context) error
}

// Dependencies are the capabilities shared by the stage drivers.
type Dependencies struct {
	Config        *config.ConfigurationManager
	Log           *logger.Logger
	Metrics       *telemetry.MetricsCollector
	Downloader    ingestion.Downloader
	LoadTokenizer model.TokenizerLoader
	LoadModel     model.ModelLoader
	Trainer       trainer.Runner
	Device        string
	Scores        evaluation.ScoreRecorder
}

func (d Dependencies) logger() *logger.Logger {
	if d.Log == nil {
		return logger.Discard()
	}
	return d.Log
}

// DataIngestionTrainingPipeline downloads and unpacks the dataset.
type DataIngestionTrainingPipeline struct{ deps Dependencies }

// NewDataIngestionTrainingPipeline creates the ingestion stage.
func NewDataIngestionTrainingPipeline(deps Dependencies) *DataIngestionTrainingPipeline {
	return &DataIngestionTrainingPipeline{deps: deps}
}

// Name implements Stage.
func (p *DataIngestionTrainingPipeline) Name() string { return "Data Ingestion stage" }

// Main implements Stage.
func (p *DataIngestionTrainingPipeline) Main(ctx context.Context) error {
	cfg, err := p.deps.Config.GetDataIngestionConfig()
	if err != nil {
		return err
	}
	ing := ingestion.New(cfg, p.deps.logger(), p.deps.Downloader, p.deps.Metrics)
	if err := ing.DownloadFile(ctx); err != nil {
		return err
	}
	return ing.ExtractZipFile()
}

// DataValidationTrainingPipeline records whether every required file was ingested.
type DataValidationTrainingPipeline struct{ deps Dependencies }

// NewDataValidationTrainingPipeline creates the validation stage.
func NewDataValidationTrainingPipeline(deps Dependencies) *DataValidationTrainingPipeline {
	return &DataValidationTrainingPipeline{deps: deps}
}

// Name implements Stage.
func (p *DataValidationTrainingPipeline) Name() string { return "Data Validation stage" }

// Main implements Stage. A False status is recorded in the status file and
// does not fail the stage.
func (p *DataValidationTrainingPipeline) Main(ctx context.Context) error {
	cfg, err := p.deps.Config.GetDataValidationConfig()
	if err != nil {
		return err
	}
	_, err = validation.New(cfg, p.deps.logger()).ValidateAllFilesExist()
	return err
}

// DataTransformationTrainingPipeline tokenizes the raw splits.
type DataTransformationTrainingPipeline struct{ deps Dependencies }

// NewDataTransformationTrainingPipeline creates the transformation stage.
func NewDataTransformationTrainingPipeline(deps Dependencies) *DataTransformationTrainingPipeline {
	return &DataTransformationTrainingPipeline{deps: deps}
}

// Name implements Stage.
func (p *DataTransformationTrainingPipeline) Name() string { return "Data Transformation stage" }

// Main implements Stage.
func (p *DataTransformationTrainingPipeline) Main(ctx context.Context) error {
	cfg, err := p.deps.Config.GetDataTransformationConfig()
	if err != nil {
		return err
	}
	return transformation.New(cfg, p.deps.logger(), p.deps.LoadTokenizer, p.deps.Metrics).Convert(ctx)
}

// ModelTrainerTrainingPipeline fine-tunes the checkpoint.
type ModelTrainerTrainingPipeline struct{ deps Dependencies }

// NewModelTrainerTrainingPipeline creates the trainer stage.
func NewModelTrainerTrainingPipeline(deps Dependencies) *ModelTrainerTrainingPipeline {
	return &ModelTrainerTrainingPipeline{deps: deps}
}

// Name implements Stage.
func (p *ModelTrainerTrainingPipeline) Name() string { return "Model Trainer stage" }

// Main implements Stage.
func (p *ModelTrainerTrainingPipeline) Main(ctx context.Context) error {
	cfg, err := p.deps.Config.GetModelTrainerConfig()
	if err != nil {
		return err
	}
	return trainer.New(cfg, p.deps.logger(), p.deps.Trainer, p.deps.LoadTokenizer).Train(ctx)
}

// ModelEvaluationTrainingPipeline scores the fine-tuned model.
type ModelEvaluationTrainingPipeline struct{ deps Dependencies }

// NewModelEvaluationTrainingPipeline creates the evaluation stage.
func NewModelEvaluationTrainingPipeline(deps Dependencies) *ModelEvaluationTrainingPipeline {
	return &ModelEvaluationTrainingPipeline{deps: deps}
}

// Name implements Stage.
func (p *ModelEvaluationTrainingPipeline) Name() string { return "Model Evaluation stage" }

// Main implements Stage.
func (p *ModelEvaluationTrainingPipeline) Main(ctx context.Context) error {
	cfg, err := p.deps.Config.GetModelEvaluationConfig()
	if err != nil {
		return err
	}

	opts := []evaluation.Option{
		evaluation.WithDevice(p.deps.Device),
		evaluation.WithMetrics(p.deps.Metrics),
	}
	if p.deps.Scores != nil {
		opts = append(opts, evaluation.WithScoreRecorder(p.deps.Scores))
	}
	_, err = evaluation.New(cfg, p.deps.logger(), p.deps.LoadTokenizer, p.deps.LoadModel, opts...).Evaluate(ctx)
	return err
}

// Stage keys accepted by StageByKey, in run order.
const (
	KeyIngestion      = "ingestion"
	KeyValidation     = "validation"
	KeyTransformation = "transformation"
	KeyTrainer        = "trainer"
	KeyEvaluation     = "evaluation"
)

var stageConstructors = map[string]func(Dependencies) Stage{
	KeyIngestion:      func(d Dependencies) Stage { return NewDataIngestionTrainingPipeline(d) },
	KeyValidation:     func(d Dependencies) Stage { return NewDataValidationTrainingPipeline(d) },
	KeyTransformation: func(d Dependencies) Stage { return NewDataTransformationTrainingPipeline(d) },
	KeyTrainer:        func(d Dependencies) Stage { return NewModelTrainerTrainingPipeline(d) },
	KeyEvaluation:     func(d Dependencies) Stage { return NewModelEvaluationTrainingPipeline(d) },
}

// StageKeys lists the stage keys in run order.
var StageKeys = []string{KeyIngestion, KeyValidation, KeyTransformation, KeyTrainer, KeyEvaluation}

// Stages returns every stage in run order.
func Stages(deps Dependencies) []Stage {
	stages := make([]Stage, len(StageKeys))
	for i, key := range StageKeys {
		stages[i] = stageConstructors[key](deps)
	}
	return stages
}

// StageByKey returns the stage registered under key.
func StageByKey(deps Dependencies, key string) (Stage, error) {
	newStage, ok := stageConstructors[key]
	if !ok {
		keys := make([]string, 0, len(stageConstructors))
		for k := range stageConstructors {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return nil, errortypes.ValidationError(fmt.Errorf("unknown stage %q", key), "invalid stage").
			WithField("valid", keys)
	}
	return newStage(deps), nil
}
