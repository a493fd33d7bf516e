// Package trainer fine-tunes the checkpoint by handing the encoded dataset
// to an external training loop.
package trainer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/localrivet/textsummarizer/internal/dataset"
	"github.com/localrivet/textsummarizer/internal/entity"
	"github.com/localrivet/textsummarizer/internal/errortypes"
	"github.com/localrivet/textsummarizer/internal/logger"
	"github.com/localrivet/textsummarizer/internal/model"
)

// Artifact names under the trainer root.
const (
	JobFileName      = "training_job.json"
	CheckpointDir    = "pegasus-samsum"
	ModelDirName     = "pegasus-samsum-model"
	TokenizerDirName = "tokenizer"
)

// ModelTrainer prepares a TrainingJob, runs it and persists the tokenizer
// next to the fine-tuned model.
type ModelTrainer struct {
	config        entity.ModelTrainerConfig
	log           *logger.Logger
	runner        Runner
	loadTokenizer model.TokenizerLoader
}

// New creates a ModelTrainer.
func New(config entity.ModelTrainerConfig, log *logger.Logger, runner Runner, loadTokenizer model.TokenizerLoader) *ModelTrainer {
	if log == nil {
		log = logger.Discard()
	}
	return &ModelTrainer{
		config:        config,
		log:           log.WithContext("trainer"),
		runner:        runner,
		loadTokenizer: loadTokenizer,
	}
}

// Job builds the TrainingJob for the configured data and hyperparameters.
// The model is trained on the train split and evaluated on validation.
func (t *ModelTrainer) Job() TrainingJob {
	c := t.config
	return TrainingJob{
		ModelCkpt: c.ModelCkpt,
		TrainFile: dataset.EncodedSplitPath(c.DataPath, dataset.SplitTrain),
		EvalFile:  dataset.EncodedSplitPath(c.DataPath, dataset.SplitValidation),
		OutputDir: filepath.Join(c.RootDir, CheckpointDir),
		ModelDir:  filepath.Join(c.RootDir, ModelDirName),
		DataCollator: DataCollator{
			Type:       CollatorSeq2Seq,
			LabelPadID: LabelPadID,
		},
		Arguments: Arguments{
			NumTrainEpochs:            c.NumTrainEpochs,
			WarmupSteps:               c.WarmupSteps,
			PerDeviceTrainBatchSize:   c.PerDeviceTrainBatchSize,
			PerDeviceEvalBatchSize:    c.PerDeviceTrainBatchSize,
			WeightDecay:               c.WeightDecay,
			LoggingSteps:              c.LoggingSteps,
			EvaluationStrategy:        c.EvaluationStrategy,
			EvalSteps:                 c.EvalSteps,
			SaveSteps:                 c.SaveSteps,
			GradientAccumulationSteps: c.GradientAccumulationSteps,
		},
	}
}

// Train runs the external training loop and saves the tokenizer to
// <root_dir>/tokenizer once the fine-tuned model is in place.
func (t *ModelTrainer) Train(ctx context.Context) error {
	tok, err := t.loadTokenizer(t.config.ModelCkpt)
	if err != nil {
		return err
	}

	job := t.Job()
	for _, path := range []string{job.TrainFile, job.EvalFile} {
		if _, err := os.Stat(path); err != nil {
			return errortypes.IOError(err, "encoded split not found").WithField("path", path)
		}
	}

	jobPath := filepath.Join(t.config.RootDir, JobFileName)
	if err := WriteJob(jobPath, job); err != nil {
		return err
	}
	t.log.Info("training %s for %d epoch(s), job written to %s", job.ModelCkpt, job.Arguments.NumTrainEpochs, jobPath)

	if err := t.runner.Run(ctx, jobPath, job); err != nil {
		return err
	}

	if info, err := os.Stat(job.ModelDir); err != nil || !info.IsDir() {
		return errortypes.FrameworkError(fmt.Errorf("model directory %s missing after training", job.ModelDir),
			"training produced no model")
	}

	tokenizerDir := filepath.Join(t.config.RootDir, TokenizerDirName)
	if err := tok.SavePretrained(tokenizerDir); err != nil {
		return err
	}
	t.log.Info("saved model to %s and tokenizer to %s", job.ModelDir, tokenizerDir)
	return nil
}
