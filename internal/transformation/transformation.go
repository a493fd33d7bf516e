// Package transformation tokenizes the raw splits into model inputs.
package transformation

import (
	"context"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/localrivet/textsummarizer/internal/dataset"
	"github.com/localrivet/textsummarizer/internal/entity"
	"github.com/localrivet/textsummarizer/internal/logger"
	"github.com/localrivet/textsummarizer/internal/model"
	"github.com/localrivet/textsummarizer/internal/telemetry"
)

var (
	dialogueOptions = model.EncodeOptions{MaxLength: model.MaxInputLength, Truncation: true}
	summaryOptions  = model.EncodeOptions{MaxLength: model.MaxTargetLength, Truncation: true}
)

// DataTransformation converts raw CSV splits into encoded parquet splits.
type DataTransformation struct {
	config        entity.DataTransformationConfig
	log           *logger.Logger
	loadTokenizer model.TokenizerLoader
	metrics       *telemetry.MetricsCollector
}

// New creates a DataTransformation.
func New(config entity.DataTransformationConfig, log *logger.Logger, loadTokenizer model.TokenizerLoader, metrics *telemetry.MetricsCollector) *DataTransformation {
	if log == nil {
		log = logger.Discard()
	}
	return &DataTransformation{
		config:        config,
		log:           log.WithContext("transformation"),
		loadTokenizer: loadTokenizer,
		metrics:       metrics,
	}
}

// OutputDir is where the encoded splits are written.
func (d *DataTransformation) OutputDir() string {
	return filepath.Join(d.config.RootDir, dataset.EncodedDirName)
}

// Convert encodes every split found under data_path, one split at a time.
// The first failing split cancels the rest.
func (d *DataTransformation) Convert(ctx context.Context) error {
	tok, err := d.loadTokenizer(d.config.TokenizerName)
	if err != nil {
		return err
	}
	d.log.Info("loaded tokenizer %s", d.config.TokenizerName)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(1)
	for _, split := range dataset.Splits {
		group.Go(func() error {
			return d.convertSplit(groupCtx, tok, split)
		})
	}
	return group.Wait()
}

func (d *DataTransformation) convertSplit(ctx context.Context, tok model.Tokenizer, split string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	examples, err := dataset.ReadRawSplit(dataset.RawSplitPath(d.config.DataPath, split))
	if err != nil {
		return err
	}

	rows := ConvertExamples(tok, examples)
	if err := ctx.Err(); err != nil {
		return err
	}

	path := dataset.EncodedSplitPath(d.OutputDir(), split)
	if err := dataset.WriteEncoded(path, rows); err != nil {
		return err
	}

	d.metrics.IncrementCounter(telemetry.MetricEncodedRecords, int64(len(rows)))
	d.log.Info("encoded %d %s records into %s", len(rows), split, path)
	return nil
}

// ConvertExamples encodes dialogues (up to 1024 tokens) as inputs and
// summaries (up to 128 tokens) as labels. Nothing is padded.
func ConvertExamples(tok model.Tokenizer, examples []dataset.Example) []dataset.EncodedExample {
	rows := make([]dataset.EncodedExample, len(examples))
	for i, e := range examples {
		input := tok.Encode(e.Dialogue, dialogueOptions)
		target := tok.Encode(e.Summary, summaryOptions)
		rows[i] = dataset.EncodedExample{
			ID:            e.ID,
			Dialogue:      e.Dialogue,
			Summary:       e.Summary,
			InputIDs:      toInt32(input.InputIDs),
			AttentionMask: toInt32(input.AttentionMask),
			Labels:        toInt32(target.InputIDs),
		}
	}
	return rows
}

func toInt32(ids []int) []int32 {
	out := make([]int32, len(ids))
	for i, id := range ids {
		out[i] = int32(id)
	}
	return out
}
