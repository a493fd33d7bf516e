// Package evaluation scores the fine-tuned model on held-out dialogues.
package evaluation

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/localrivet/textsummarizer/internal/dataset"
	"github.com/localrivet/textsummarizer/internal/entity"
	"github.com/localrivet/textsummarizer/internal/errortypes"
	"github.com/localrivet/textsummarizer/internal/logger"
	"github.com/localrivet/textsummarizer/internal/model"
	"github.com/localrivet/textsummarizer/internal/rouge"
	"github.com/localrivet/textsummarizer/internal/telemetry"
)

// Evaluation slice settings
const (
	TestRecords = 10
	BatchSize   = 2
)

// newlineToken is how pegasus spells a line break.
const newlineToken = "<n>"

// Metric accumulates (prediction, reference) pairs and aggregates them once.
type Metric interface {
	AddBatch(predictions, references []string) error
	Compute() (map[string]rouge.AggregateScore, error)
}

// ScoreRecorder persists the scores of an evaluation run.
type ScoreRecorder interface {
	RecordScores(modelName string, scores map[string]float64) error
}

// CalculateMetricOnTestDS generates a summary for every columnText value in
// batches of batchSize, feeds each batch with its columnSummary references
// into metric and returns the aggregate computed once at the end.
func CalculateMetricOnTestDS(
	ctx context.Context,
	examples []dataset.Example,
	metric Metric,
	generator model.Generator,
	tok model.Tokenizer,
	batchSize int,
	device string,
	columnText, columnSummary string,
) (map[string]rouge.AggregateScore, error) {
	if batchSize < 1 {
		return nil, errortypes.ValidationError(fmt.Errorf("batch size %d", batchSize), "batch size must be at least 1")
	}

	texts, err := dataset.Column(examples, columnText)
	if err != nil {
		return nil, err
	}
	summaries, err := dataset.Column(examples, columnSummary)
	if err != nil {
		return nil, err
	}

	inputOptions := model.EncodeOptions{MaxLength: model.MaxInputLength, Truncation: true, PadToMaxLength: true}
	params := model.DefaultGenerateParams()
	params.Device = device

	nextTargets, stop := iter.Pull(GenerateBatchSizedChunks(summaries, batchSize))
	defer stop()

	for articles := range GenerateBatchSizedChunks(texts, batchSize) {
		targets, ok := nextTargets()
		if !ok {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		batch := model.EncodeBatch(tok, articles, inputOptions)
		generated, err := generator.Generate(ctx, batch, params)
		if err != nil {
			return nil, err
		}

		decoded := make([]string, len(generated))
		for i, ids := range generated {
			decoded[i] = strings.ReplaceAll(tok.Decode(ids, true), newlineToken, " ")
		}

		if err := metric.AddBatch(decoded, targets); err != nil {
			return nil, err
		}
	}

	return metric.Compute()
}

// Option configures a ModelEvaluation.
type Option func(e *ModelEvaluation)

// WithDevice sets the compute device passed to generation.
func WithDevice(device string) Option {
	return func(e *ModelEvaluation) { e.device = device }
}

// WithMetrics records evaluation metrics on m.
func WithMetrics(m *telemetry.MetricsCollector) Option {
	return func(e *ModelEvaluation) { e.metrics = m }
}

// WithScoreRecorder persists every evaluation's scores.
func WithScoreRecorder(r ScoreRecorder) Option {
	return func(e *ModelEvaluation) { e.recorder = r }
}

// WithMetricFactory replaces the ROUGE metric.
func WithMetricFactory(f func() (Metric, error)) Option {
	return func(e *ModelEvaluation) { e.newMetric = f }
}

// ModelEvaluation scores the fine-tuned model and writes the score table.
type ModelEvaluation struct {
	config        entity.ModelEvaluationConfig
	log           *logger.Logger
	loadTokenizer model.TokenizerLoader
	loadModel     model.ModelLoader
	device        string
	metrics       *telemetry.MetricsCollector
	recorder      ScoreRecorder
	newMetric     func() (Metric, error)
}

// New creates a ModelEvaluation.
func New(config entity.ModelEvaluationConfig, log *logger.Logger, loadTokenizer model.TokenizerLoader, loadModel model.ModelLoader, opts ...Option) *ModelEvaluation {
	if log == nil {
		log = logger.Discard()
	}
	e := &ModelEvaluation{
		config:        config,
		log:           log.WithContext("evaluation"),
		loadTokenizer: loadTokenizer,
		loadModel:     loadModel,
		newMetric: func() (Metric, error) {
			return rouge.NewMetric(rouge.DefaultTypes)
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate scores the first TestRecords test examples and writes the mid
// f-measure of each ROUGE type to metric_file_name.
func (e *ModelEvaluation) Evaluate(ctx context.Context) (map[string]float64, error) {
	tok, err := e.loadTokenizer(e.config.TokenizerPath)
	if err != nil {
		return nil, err
	}
	generator, err := e.loadModel(ctx, e.config.ModelPath)
	if err != nil {
		return nil, err
	}

	rows, err := dataset.ReadEncoded(dataset.EncodedSplitPath(e.config.DataPath, dataset.SplitTest))
	if err != nil {
		return nil, err
	}
	examples := dataset.Examples(rows[:min(TestRecords, len(rows))])

	metric, err := e.newMetric()
	if err != nil {
		return nil, err
	}
	metric = &countingMetric{Metric: metric, metrics: e.metrics}

	score, err := CalculateMetricOnTestDS(ctx, examples, metric, generator, tok, BatchSize, e.device,
		dataset.ColumnDialogue, dataset.ColumnSummary)
	if err != nil {
		return nil, err
	}

	result := make(map[string]float64, len(rouge.DefaultTypes))
	for _, name := range rouge.DefaultTypes {
		agg, ok := score[name]
		if !ok {
			return nil, errortypes.FrameworkError(errors.New("missing "+name), "incomplete metric result")
		}
		result[name] = agg.Mid.FMeasure
	}

	if err := WriteScores(e.config.MetricFileName, model.Name, result); err != nil {
		return nil, err
	}
	e.metrics.SetGauge(telemetry.MetricRougeLsum, result[rouge.RougeLsum])
	e.log.Info("scores for %d records written to %s: rouge1=%.4f rouge2=%.4f rougeL=%.4f rougeLsum=%.4f",
		len(examples), e.config.MetricFileName,
		result[rouge.Rouge1], result[rouge.Rouge2], result[rouge.RougeL], result[rouge.RougeLsum])

	if e.recorder != nil {
		if err := e.recorder.RecordScores(model.Name, result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// WriteScores writes a one-row table: model name then one column per ROUGE type.
func WriteScores(path, modelName string, scores map[string]float64) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errortypes.IOError(err, "failed to create metric directory").WithField("path", path)
	}

	f, err := os.Create(path)
	if err != nil {
		return errortypes.IOError(err, "failed to create metric file").WithField("path", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := append([]string{"model"}, rouge.DefaultTypes...)
	row := []string{modelName}
	for _, name := range rouge.DefaultTypes {
		row = append(row, strconv.FormatFloat(scores[name], 'f', -1, 64))
	}
	if err := w.WriteAll([][]string{header, row}); err != nil {
		return errortypes.IOError(err, "failed to write metric file").WithField("path", path)
	}
	if err := f.Close(); err != nil {
		return errortypes.IOError(err, "failed to close metric file").WithField("path", path)
	}
	return nil
}

type countingMetric struct {
	Metric
	metrics *telemetry.MetricsCollector
}

func (m *countingMetric) AddBatch(predictions, references []string) error {
	m.metrics.IncrementCounter(telemetry.MetricMetricBatches, 1)
	return m.Metric.AddBatch(predictions, references)
}
