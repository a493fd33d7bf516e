package trainer

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/localrivet/textsummarizer/internal/errortypes"
)

// Collator settings for sequence-to-sequence batches.
const (
	CollatorSeq2Seq = "seq2seq"
	LabelPadID      = -100
)

// TrainingJob is everything the external training loop needs. It is written
// as JSON and handed to the runner.
type TrainingJob struct {
	ModelCkpt    string       `json:"model_ckpt"`
	TrainFile    string       `json:"train_file"`
	EvalFile     string       `json:"eval_file"`
	OutputDir    string       `json:"output_dir"`
	ModelDir     string       `json:"model_dir"`
	DataCollator DataCollator `json:"data_collator"`
	Arguments    Arguments    `json:"training_arguments"`
}

// DataCollator describes how the framework pads batches.
type DataCollator struct {
	Type       string `json:"type"`
	LabelPadID int    `json:"label_pad_token_id"`
}

// Arguments are the pass-through hyperparameters.
type Arguments struct {
	NumTrainEpochs            int     `json:"num_train_epochs"`
	WarmupSteps               int     `json:"warmup_steps"`
	PerDeviceTrainBatchSize   int     `json:"per_device_train_batch_size"`
	PerDeviceEvalBatchSize    int     `json:"per_device_eval_batch_size"`
	WeightDecay               float64 `json:"weight_decay"`
	LoggingSteps              int     `json:"logging_steps"`
	EvaluationStrategy        string  `json:"evaluation_strategy"`
	EvalSteps                 int     `json:"eval_steps"`
	SaveSteps                 int     `json:"save_steps"`
	GradientAccumulationSteps int     `json:"gradient_accumulation_steps"`
}

// WriteJob writes job as indented JSON to path.
func WriteJob(path string, job TrainingJob) error {
	data, err := json.MarshalIndent(job, "", "  ")
	if err != nil {
		return errortypes.InternalError(err, "failed to encode training job")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errortypes.IOError(err, "failed to create job directory").WithField("path", path)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errortypes.IOError(err, "failed to write training job").WithField("path", path)
	}
	return nil
}

// ReadJob reads a job written by WriteJob.
func ReadJob(path string) (TrainingJob, error) {
	var job TrainingJob
	data, err := os.ReadFile(path)
	if err != nil {
		return job, errortypes.IOError(err, "failed to read training job").WithField("path", path)
	}
	if err := json.Unmarshal(data, &job); err != nil {
		return job, errortypes.ValidationError(err, "malformed training job").WithField("path", path)
	}
	return job, nil
}
