package pipeline

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/localrivet/textsummarizer/internal/errortypes"
	"github.com/localrivet/textsummarizer/internal/logger"
	"github.com/localrivet/textsummarizer/internal/telemetry"
	"github.com/localrivet/textsummarizer/internal/tracking"
)

// Runner executes stages strictly in sequence and stops at the first failure.
type Runner struct {
	log     *logger.Logger
	tracker tracking.Store
	metrics *telemetry.MetricsCollector
}

// NewRunner creates a Runner. tracker and metrics may be nil.
func NewRunner(log *logger.Logger, tracker tracking.Store, metrics *telemetry.MetricsCollector) *Runner {
	if log == nil {
		log = logger.Discard()
	}
	return &Runner{log: log, tracker: tracker, metrics: metrics}
}

// Run runs stages in order.
func (r *Runner) Run(ctx context.Context, stages ...Stage) error {
	for _, stage := range stages {
		if err := ctx.Err(); err != nil {
			return errors.Wrapf(err, "stage %s", stage.Name())
		}
		if err := r.runStage(ctx, stage); err != nil {
			return err
		}
	}
	r.metrics.RecordTimestamp(telemetry.MetricLastRun)
	return nil
}

func (r *Runner) runStage(ctx context.Context, stage Stage) error {
	name := stage.Name()
	r.log.Info(">>>>>> stage %s started <<<<<<", name)

	runID := r.startRun(name)
	start := time.Now()
	err := stage.Main(ctx)
	r.metrics.RecordTimer(telemetry.MetricStageDurationPrefix+name, time.Since(start))
	r.finishRun(runID, err)

	if err != nil {
		r.metrics.IncrementCounter(telemetry.MetricStageFailures, 1)
		errortypes.LogError(r.log, err)
		return errors.Wrapf(err, "stage %s", name)
	}

	r.log.Info(">>>>>> stage %s completed <<<<<<\n\nx==========x", name)
	return nil
}

// Tracking is best effort: a broken store is logged and never fails a stage.
func (r *Runner) startRun(name string) string {
	if r.tracker == nil {
		return ""
	}
	id, err := r.tracker.StartRun(name)
	if err != nil {
		r.log.Warn("failed to record start of %s: %v", name, err)
		return ""
	}
	return id
}

func (r *Runner) finishRun(id string, runErr error) {
	if r.tracker == nil || id == "" {
		return
	}
	if err := r.tracker.FinishRun(id, runErr); err != nil {
		r.log.Warn("failed to record end of run %s: %v", id, err)
	}
}
