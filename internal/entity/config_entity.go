// Package entity holds the immutable per-stage configuration records.
//
// Records are built once by config.ConfigurationManager and passed by value.
// Slice fields are copies owned by the record.
package entity

// DataIngestionConfig configures archive download and extraction.
type DataIngestionConfig struct {
	RootDir       string
	SourceURL     string
	LocalDataFile string
	UnzipDir      string
}

// DataValidationConfig configures the required-files check.
type DataValidationConfig struct {
	RootDir          string
	DataDir          string
	StatusFile       string
	AllRequiredFiles []string
}

// DataTransformationConfig configures tokenization of the raw splits.
type DataTransformationConfig struct {
	RootDir       string
	DataPath      string
	TokenizerName string
}

// ModelTrainerConfig configures the external training run. The
// hyperparameters are passed through to the training framework unchanged.
type ModelTrainerConfig struct {
	RootDir   string
	DataPath  string
	ModelCkpt string

	NumTrainEpochs            int
	WarmupSteps               int
	PerDeviceTrainBatchSize   int
	WeightDecay               float64
	LoggingSteps              int
	EvaluationStrategy        string
	EvalSteps                 int
	SaveSteps                 int
	GradientAccumulationSteps int
}

// ModelEvaluationConfig configures scoring of the fine-tuned model.
type ModelEvaluationConfig struct {
	RootDir        string
	DataPath       string
	ModelPath      string
	TokenizerPath  string
	MetricFileName string
}
