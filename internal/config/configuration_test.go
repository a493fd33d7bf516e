package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localrivet/textsummarizer/internal/errortypes"
	"github.com/localrivet/textsummarizer/internal/logger"
)

const fullConfig = `
artifacts_root: artifacts

data_ingestion:
  root_dir: artifacts/data_ingestion
  source_URL: https://example.com/summarizer-data.zip
  local_data_file: artifacts/data_ingestion/data.zip
  unzip_dir: artifacts/data_ingestion

data_validation:
  root_dir: artifacts/data_validation
  data_dir: artifacts/data_ingestion/samsum_dataset
  STATUS_FILE: artifacts/data_validation/status.txt
  ALL_REQUIRED_FILES: ["train.csv", "test.csv", "validation.csv"]

data_transformation:
  root_dir: artifacts/data_transformation
  data_path: artifacts/data_ingestion/samsum_dataset
  tokenizer_name: google/pegasus-cnn_dailymail

model_trainer:
  root_dir: artifacts/model_trainer
  data_path: artifacts/data_transformation/samsum_dataset
  model_ckpt: google/pegasus-cnn_dailymail

model_evaluation:
  root_dir: artifacts/model_evaluation
  data_path: artifacts/data_transformation/samsum_dataset
  model_path: artifacts/model_trainer/pegasus-samsum-model
  tokenizer_path: artifacts/model_trainer/tokenizer
  metric_file_name: artifacts/model_evaluation/metrics.csv
`

const fullParams = `
TrainingArguments:
  num_train_epochs: 1
  warmup_steps: 500
  per_device_train_batch_size: 1
  weight_decay: 0.01
  logging_steps: 10
  evaluation_strategy: steps
  eval_steps: 500
  save_steps: 1e6
  gradient_accumulation_steps: 16
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func newManager(t *testing.T, config, params string) (*ConfigurationManager, error) {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return NewConfigurationManager(logger.Discard(),
		writeFile(t, dir, "config.yaml", config),
		writeFile(t, dir, "params.yaml", params))
}

func TestDataIngestionConfigLiterals(t *testing.T) {
	m, err := newManager(t, `
artifacts_root: a
data_ingestion:
  root_dir: "a"
  source_URL: "u"
  local_data_file: "a/f.zip"
  unzip_dir: "a/u"
`, fullParams)
	require.NoError(t, err)

	cfg, err := m.GetDataIngestionConfig()
	require.NoError(t, err)
	assert.Equal(t, "a", cfg.RootDir)
	assert.Equal(t, "u", cfg.SourceURL)
	assert.Equal(t, "a/f.zip", cfg.LocalDataFile)
	assert.Equal(t, "a/u", cfg.UnzipDir)

	info, err := os.Stat("a")
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestAllStageConfigs(t *testing.T) {
	m, err := newManager(t, fullConfig, fullParams)
	require.NoError(t, err)
	assert.DirExists(t, "artifacts")

	validation, err := m.GetDataValidationConfig()
	require.NoError(t, err)
	assert.Equal(t, []string{"train.csv", "test.csv", "validation.csv"}, validation.AllRequiredFiles)
	assert.Equal(t, "artifacts/data_validation/status.txt", validation.StatusFile)
	assert.DirExists(t, "artifacts/data_validation")

	// Mutating a returned record leaves the manager untouched.
	validation.AllRequiredFiles[0] = "mutated.csv"
	again, err := m.GetDataValidationConfig()
	require.NoError(t, err)
	assert.Equal(t, "train.csv", again.AllRequiredFiles[0])

	transformation, err := m.GetDataTransformationConfig()
	require.NoError(t, err)
	assert.Equal(t, "google/pegasus-cnn_dailymail", transformation.TokenizerName)

	trainer, err := m.GetModelTrainerConfig()
	require.NoError(t, err)
	assert.Equal(t, 1, trainer.NumTrainEpochs)
	assert.Equal(t, 500, trainer.WarmupSteps)
	assert.Equal(t, 0.01, trainer.WeightDecay)
	assert.Equal(t, "steps", trainer.EvaluationStrategy)
	assert.Equal(t, 1000000, trainer.SaveSteps)
	assert.Equal(t, 16, trainer.GradientAccumulationSteps)
	assert.DirExists(t, "artifacts/model_trainer")

	evaluation, err := m.GetModelEvaluationConfig()
	require.NoError(t, err)
	assert.Equal(t, "artifacts/model_evaluation/metrics.csv", evaluation.MetricFileName)
	assert.Equal(t, "artifacts/model_trainer/tokenizer", evaluation.TokenizerPath)
}

func TestMissingKey(t *testing.T) {
	m, err := newManager(t, `
artifacts_root: a
data_ingestion:
  root_dir: a
  local_data_file: a/f.zip
  unzip_dir: a/u
`, fullParams)
	require.NoError(t, err)

	_, err = m.GetDataIngestionConfig()
	require.Error(t, err)
	assert.True(t, errortypes.IsConfigError(err))
	assert.Contains(t, err.Error(), "data_ingestion.source_URL")

	_, err = m.GetModelEvaluationConfig()
	assert.True(t, errortypes.IsConfigError(err))
}

func TestLoaderErrors(t *testing.T) {
	tests := []struct {
		name   string
		config string
		params string
	}{
		{"empty config", "", fullParams},
		{"comment only config", "# nothing here\n", fullParams},
		{"empty params", fullConfig, ""},
		{"malformed config", "artifacts_root: [unclosed", fullParams},
		{"unknown key", fullConfig + "\nsurprise: true\n", fullParams},
		{"unknown nested key", "artifacts_root: a\ndata_ingestion:\n  root: a\n", fullParams},
		{"missing artifacts_root", "data_ingestion:\n  root_dir: a\n", fullParams},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := newManager(t, test.config, test.params)
			require.Error(t, err)
			assert.True(t, errortypes.IsConfigError(err), "got %v", err)
		})
	}
}

func TestMissingFile(t *testing.T) {
	_, err := NewConfigurationManager(nil, filepath.Join(t.TempDir(), "nope.yaml"), "params.yaml")
	assert.True(t, errortypes.IsConfigError(err))
}

func TestEmptyRequiredFilesIsPresent(t *testing.T) {
	m, err := newManager(t, `
artifacts_root: a
data_validation:
  root_dir: a/v
  data_dir: a/d
  STATUS_FILE: a/v/status.txt
  ALL_REQUIRED_FILES: []
`, fullParams)
	require.NoError(t, err)

	cfg, err := m.GetDataValidationConfig()
	require.NoError(t, err)
	assert.Empty(t, cfg.AllRequiredFiles)
}

func TestKeysHas(t *testing.T) {
	keys := Keys{
		"a": map[string]interface{}{
			"b": "x",
			"c": nil,
		},
		"d": "scalar",
	}

	assert.True(t, keys.Has("a"))
	assert.True(t, keys.Has("a.b"))
	assert.False(t, keys.Has("a.c"))
	assert.False(t, keys.Has("a.b.z"))
	assert.False(t, keys.Has("d.e"))
	assert.False(t, keys.Has("missing"))
}

func TestReadYAMLNestedKeys(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", "artifacts_root: a\ndata_ingestion:\n  root_dir: a\n  source_URL: ~\n")

	var doc PipelineFile
	keys, err := ReadYAML(path, &doc)
	require.NoError(t, err)

	assert.True(t, keys.Has("artifacts_root"))
	assert.True(t, keys.Has("data_ingestion"))
	assert.True(t, keys.Has("data_ingestion.root_dir"))
	assert.False(t, keys.Has("data_ingestion.source_URL"))
	assert.False(t, keys.Has("data_ingestion.local_data_file"))
	assert.NoError(t, keys.Require("artifacts_root", "data_ingestion.root_dir"))
	assert.True(t, errortypes.IsConfigError(keys.Require("data_ingestion.unzip_dir")))
}

func TestShippedConfigBuildsEveryStage(t *testing.T) {
	root, err := filepath.Abs(filepath.Join("..", ".."))
	require.NoError(t, err)
	configPath := filepath.Join(root, "config", "config.yaml")
	paramsPath := filepath.Join(root, "params.yaml")
	t.Chdir(t.TempDir())

	m, err := NewConfigurationManager(logger.Discard(), configPath, paramsPath)
	require.NoError(t, err)

	_, err = m.GetDataIngestionConfig()
	assert.NoError(t, err)
	_, err = m.GetDataValidationConfig()
	assert.NoError(t, err)
	_, err = m.GetDataTransformationConfig()
	assert.NoError(t, err)
	_, err = m.GetModelTrainerConfig()
	assert.NoError(t, err)
	_, err = m.GetModelEvaluationConfig()
	assert.NoError(t, err)
}
