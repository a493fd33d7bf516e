package config

// Default locations of the two pipeline documents.
const (
	DefaultConfigFilePath = "config/config.yaml"
	DefaultParamsFilePath = "params.yaml"
)

// PipelineFile mirrors config.yaml.
type PipelineFile struct {
	ArtifactsRoot      string                `yaml:"artifacts_root"`
	DataIngestion      DataIngestionSection  `yaml:"data_ingestion"`
	DataValidation     DataValidationSection `yaml:"data_validation"`
	DataTransformation TransformationSection `yaml:"data_transformation"`
	ModelTrainer       TrainerSection        `yaml:"model_trainer"`
	ModelEvaluation    EvaluationSection     `yaml:"model_evaluation"`
}

// DataIngestionSection is the data_ingestion block.
type DataIngestionSection struct {
	RootDir       string `yaml:"root_dir"`
	SourceURL     string `yaml:"source_URL"`
	LocalDataFile string `yaml:"local_data_file"`
	UnzipDir      string `yaml:"unzip_dir"`
}

// DataValidationSection is the data_validation block.
type DataValidationSection struct {
	RootDir          string   `yaml:"root_dir"`
	DataDir          string   `yaml:"data_dir"`
	StatusFile       string   `yaml:"STATUS_FILE"`
	AllRequiredFiles []string `yaml:"ALL_REQUIRED_FILES"`
}

// TransformationSection is the data_transformation block.
type TransformationSection struct {
	RootDir       string `yaml:"root_dir"`
	DataPath      string `yaml:"data_path"`
	TokenizerName string `yaml:"tokenizer_name"`
}

// TrainerSection is the model_trainer block.
type TrainerSection struct {
	RootDir   string `yaml:"root_dir"`
	DataPath  string `yaml:"data_path"`
	ModelCkpt string `yaml:"model_ckpt"`
}

// EvaluationSection is the model_evaluation block.
type EvaluationSection struct {
	RootDir        string `yaml:"root_dir"`
	DataPath       string `yaml:"data_path"`
	ModelPath      string `yaml:"model_path"`
	TokenizerPath  string `yaml:"tokenizer_path"`
	MetricFileName string `yaml:"metric_file_name"`
}

// ParamsFile mirrors params.yaml.
type ParamsFile struct {
	TrainingArguments TrainingArguments `yaml:"TrainingArguments"`
}

// TrainingArguments are handed to the training framework unchanged.
type TrainingArguments struct {
	NumTrainEpochs            int     `yaml:"num_train_epochs"`
	WarmupSteps               int     `yaml:"warmup_steps"`
	PerDeviceTrainBatchSize   int     `yaml:"per_device_train_batch_size"`
	WeightDecay               float64 `yaml:"weight_decay"`
	LoggingSteps              int     `yaml:"logging_steps"`
	EvaluationStrategy        string  `yaml:"evaluation_strategy"`
	EvalSteps                 int     `yaml:"eval_steps"`
	SaveSteps                 int     `yaml:"save_steps"`
	GradientAccumulationSteps int     `yaml:"gradient_accumulation_steps"`
}
