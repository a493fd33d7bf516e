// Package prediction summarizes single dialogues with the fine-tuned model.
package prediction

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/localrivet/textsummarizer/internal/entity"
	"github.com/localrivet/textsummarizer/internal/errortypes"
	"github.com/localrivet/textsummarizer/internal/logger"
	"github.com/localrivet/textsummarizer/internal/model"
	"github.com/localrivet/textsummarizer/internal/telemetry"
)

// PredictionPipeline loads the fine-tuned model on first use and keeps it
// for the lifetime of the pipeline. A failed load is retried by the next
// call. It is safe for concurrent use.
type PredictionPipeline struct {
	config        entity.ModelEvaluationConfig
	log           *logger.Logger
	loadTokenizer model.TokenizerLoader
	loadModel     model.ModelLoader
	device        string
	metrics       *telemetry.MetricsCollector

	mu        sync.Mutex
	tokenizer model.Tokenizer
	generator model.Generator
}

// New creates a PredictionPipeline reading the model and tokenizer from the
// evaluation stage's paths.
func New(config entity.ModelEvaluationConfig, log *logger.Logger, loadTokenizer model.TokenizerLoader, loadModel model.ModelLoader, device string, metrics *telemetry.MetricsCollector) *PredictionPipeline {
	if log == nil {
		log = logger.Discard()
	}
	return &PredictionPipeline{
		config:        config,
		log:           log.WithContext("prediction"),
		loadTokenizer: loadTokenizer,
		loadModel:     loadModel,
		device:        device,
		metrics:       metrics,
	}
}

// load returns the loaded pair, loading it if no earlier call succeeded.
func (p *PredictionPipeline) load(ctx context.Context) (model.Tokenizer, model.Generator, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.generator != nil {
		return p.tokenizer, p.generator, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	tok, err := p.loadTokenizer(p.config.TokenizerPath)
	if err != nil {
		p.log.Warn("failed to load tokenizer from %s: %v", p.config.TokenizerPath, err)
		return nil, nil, err
	}
	gen, err := p.loadModel(ctx, p.config.ModelPath)
	if err != nil {
		p.log.Warn("failed to load model from %s: %v", p.config.ModelPath, err)
		return nil, nil, err
	}

	p.tokenizer, p.generator = tok, gen
	p.log.Info("model loaded from %s", p.config.ModelPath)
	return tok, gen, nil
}

// Predict returns the model's summary of text.
func (p *PredictionPipeline) Predict(ctx context.Context, text string) (string, error) {
	p.metrics.IncrementCounter(telemetry.MetricPredictionRequests, 1)

	summary, err := p.predict(ctx, text)
	if err != nil {
		p.metrics.IncrementCounter(telemetry.MetricPredictionFailures, 1)
		return "", err
	}
	return summary, nil
}

func (p *PredictionPipeline) predict(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", errortypes.ValidationError(errors.New("empty text"), "nothing to summarize")
	}
	tok, gen, err := p.load(ctx)
	if err != nil {
		return "", err
	}

	batch := model.EncodeBatch(tok, []string{text}, model.EncodeOptions{
		MaxLength:  model.MaxInputLength,
		Truncation: true,
	})
	params := model.DefaultGenerateParams()
	params.Device = p.device

	generated, err := gen.Generate(ctx, batch, params)
	if err != nil {
		return "", err
	}
	if len(generated) != 1 {
		return "", errortypes.FrameworkError(errors.New("expected one sequence"), "malformed generation result")
	}

	summary := tok.Decode(generated[0], true)
	p.log.Info("Dialogue:\n%s", text)
	p.log.Info("Model Summary:\n%s", summary)
	return summary, nil
}
