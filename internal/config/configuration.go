package config

import (
	"github.com/localrivet/textsummarizer/internal/entity"
	"github.com/localrivet/textsummarizer/internal/logger"
	"github.com/localrivet/textsummarizer/internal/util"
)

// ConfigurationManager loads config.yaml and params.yaml once and projects
// them into per-stage records.
type ConfigurationManager struct {
	log        *logger.Logger
	config     PipelineFile
	configKeys Keys
	params     ParamsFile
	paramsKeys Keys
}

// NewConfigurationManager reads both documents and creates artifacts_root.
func NewConfigurationManager(log *logger.Logger, configPath, paramsPath string) (*ConfigurationManager, error) {
	if log == nil {
		log = logger.Discard()
	}
	log = log.WithContext("config")

	m := &ConfigurationManager{log: log}

	var err error
	if m.configKeys, err = ReadYAML(configPath, &m.config); err != nil {
		return nil, err
	}
	log.Info("yaml file: %s loaded successfully", configPath)

	if m.paramsKeys, err = ReadYAML(paramsPath, &m.params); err != nil {
		return nil, err
	}
	log.Info("yaml file: %s loaded successfully", paramsPath)

	if err := m.configKeys.Require("artifacts_root"); err != nil {
		return nil, err
	}
	if err := util.CreateDirectories(log, m.config.ArtifactsRoot); err != nil {
		return nil, err
	}

	return m, nil
}

// GetDataIngestionConfig returns the data_ingestion record.
func (m *ConfigurationManager) GetDataIngestionConfig() (entity.DataIngestionConfig, error) {
	if err := m.configKeys.Require(
		"data_ingestion.root_dir",
		"data_ingestion.source_URL",
		"data_ingestion.local_data_file",
		"data_ingestion.unzip_dir",
	); err != nil {
		return entity.DataIngestionConfig{}, err
	}

	c := m.config.DataIngestion
	if err := util.CreateDirectories(m.log, c.RootDir); err != nil {
		return entity.DataIngestionConfig{}, err
	}

	return entity.DataIngestionConfig{
		RootDir:       c.RootDir,
		SourceURL:     c.SourceURL,
		LocalDataFile: c.LocalDataFile,
		UnzipDir:      c.UnzipDir,
	}, nil
}

// GetDataValidationConfig returns the data_validation record.
// ALL_REQUIRED_FILES may be an empty list but must be present.
func (m *ConfigurationManager) GetDataValidationConfig() (entity.DataValidationConfig, error) {
	if err := m.configKeys.Require(
		"data_validation.root_dir",
		"data_validation.data_dir",
		"data_validation.STATUS_FILE",
		"data_validation.ALL_REQUIRED_FILES",
	); err != nil {
		return entity.DataValidationConfig{}, err
	}

	c := m.config.DataValidation
	if err := util.CreateDirectories(m.log, c.RootDir); err != nil {
		return entity.DataValidationConfig{}, err
	}

	return entity.DataValidationConfig{
		RootDir:          c.RootDir,
		DataDir:          c.DataDir,
		StatusFile:       c.StatusFile,
		AllRequiredFiles: append([]string{}, c.AllRequiredFiles...),
	}, nil
}

// GetDataTransformationConfig returns the data_transformation record.
func (m *ConfigurationManager) GetDataTransformationConfig() (entity.DataTransformationConfig, error) {
	if err := m.configKeys.Require(
		"data_transformation.root_dir",
		"data_transformation.data_path",
		"data_transformation.tokenizer_name",
	); err != nil {
		return entity.DataTransformationConfig{}, err
	}

	c := m.config.DataTransformation
	if err := util.CreateDirectories(m.log, c.RootDir); err != nil {
		return entity.DataTransformationConfig{}, err
	}

	return entity.DataTransformationConfig{
		RootDir:       c.RootDir,
		DataPath:      c.DataPath,
		TokenizerName: c.TokenizerName,
	}, nil
}

// GetModelTrainerConfig merges the model_trainer block with TrainingArguments.
func (m *ConfigurationManager) GetModelTrainerConfig() (entity.ModelTrainerConfig, error) {
	if err := m.configKeys.Require(
		"model_trainer.root_dir",
		"model_trainer.data_path",
		"model_trainer.model_ckpt",
	); err != nil {
		return entity.ModelTrainerConfig{}, err
	}
	if err := m.paramsKeys.Require(
		"TrainingArguments.num_train_epochs",
		"TrainingArguments.warmup_steps",
		"TrainingArguments.per_device_train_batch_size",
		"TrainingArguments.weight_decay",
		"TrainingArguments.logging_steps",
		"TrainingArguments.evaluation_strategy",
		"TrainingArguments.eval_steps",
		"TrainingArguments.save_steps",
		"TrainingArguments.gradient_accumulation_steps",
	); err != nil {
		return entity.ModelTrainerConfig{}, err
	}

	c := m.config.ModelTrainer
	p := m.params.TrainingArguments
	if err := util.CreateDirectories(m.log, c.RootDir); err != nil {
		return entity.ModelTrainerConfig{}, err
	}

	return entity.ModelTrainerConfig{
		RootDir:                   c.RootDir,
		DataPath:                  c.DataPath,
		ModelCkpt:                 c.ModelCkpt,
		NumTrainEpochs:            p.NumTrainEpochs,
		WarmupSteps:               p.WarmupSteps,
		PerDeviceTrainBatchSize:   p.PerDeviceTrainBatchSize,
		WeightDecay:               p.WeightDecay,
		LoggingSteps:              p.LoggingSteps,
		EvaluationStrategy:        p.EvaluationStrategy,
		EvalSteps:                 p.EvalSteps,
		SaveSteps:                 p.SaveSteps,
		GradientAccumulationSteps: p.GradientAccumulationSteps,
	}, nil
}

// GetModelEvaluationConfig returns the model_evaluation record.
func (m *ConfigurationManager) GetModelEvaluationConfig() (entity.ModelEvaluationConfig, error) {
	if err := m.configKeys.Require(
		"model_evaluation.root_dir",
		"model_evaluation.data_path",
		"model_evaluation.model_path",
		"model_evaluation.tokenizer_path",
		"model_evaluation.metric_file_name",
	); err != nil {
		return entity.ModelEvaluationConfig{}, err
	}

	c := m.config.ModelEvaluation
	if err := util.CreateDirectories(m.log, c.RootDir); err != nil {
		return entity.ModelEvaluationConfig{}, err
	}

	return entity.ModelEvaluationConfig{
		RootDir:        c.RootDir,
		DataPath:       c.DataPath,
		ModelPath:      c.ModelPath,
		TokenizerPath:  c.TokenizerPath,
		MetricFileName: c.MetricFileName,
	}, nil
}
