package server

import (
	"time"

	"github.com/localrivet/textsummarizer/internal/telemetry"
	"github.com/localrivet/textsummarizer/internal/tracking"
)

// HealthStatus represents the health status of a component
type HealthStatus string

const (
	// StatusHealthy indicates a component is fully operational
	StatusHealthy HealthStatus = "healthy"

	// StatusDegraded indicates a component is operational but with reduced capability
	StatusDegraded HealthStatus = "degraded"

	// StatusUnhealthy indicates a component is not operational
	StatusUnhealthy HealthStatus = "unhealthy"
)

// HealthReport describes the serving process: the model backend as seen
// through generate calls so far, and the tracking store.
type HealthReport struct {
	Status           HealthStatus      `json:"status"`
	Timestamp        time.Time         `json:"timestamp"`
	Components       map[string]string `json:"components"`
	Predictions      int64             `json:"predictions"`
	GenerateCalls    int64             `json:"generate_calls"`
	GenerateFailures int64             `json:"generate_failures"`
	SuccessRate      float64           `json:"success_rate"`
	AvgGenerateMs    float64           `json:"avg_generate_ms"`
	P95GenerateMs    float64           `json:"p95_generate_ms"`
	LatestRougeLsum  float64           `json:"latest_rouge_lsum,omitempty"`
}

// CreateHealthReport builds a HealthReport from the collected metrics and
// a probe of the tracking store. The backend is unhealthy when every
// generate call failed and degraded when some did.
func CreateHealthReport(m *telemetry.MetricsCollector, store tracking.Store) *HealthReport {
	calls := m.GetCounter(telemetry.MetricGenerateCalls)
	failures := m.GetCounter(telemetry.MetricGenerateFailures)

	backend := StatusHealthy
	successRate := 100.0
	if calls > 0 {
		successRate = float64(calls-failures) / float64(calls) * 100.0
		switch {
		case failures == calls:
			backend = StatusUnhealthy
		case failures > 0:
			backend = StatusDegraded
		}
	}

	storeStatus := StatusHealthy
	if store == nil {
		storeStatus = StatusUnhealthy
	} else if _, err := store.RecentRuns(1); err != nil {
		storeStatus = StatusUnhealthy
	}

	status := StatusHealthy
	if backend == StatusUnhealthy {
		status = StatusUnhealthy
	} else if backend == StatusDegraded || storeStatus != StatusHealthy {
		status = StatusDegraded
	}

	return &HealthReport{
		Status:    status,
		Timestamp: time.Now(),
		Components: map[string]string{
			"model_backend": string(backend),
			"tracking":      string(storeStatus),
		},
		Predictions:      m.GetCounter(telemetry.MetricPredictionRequests),
		GenerateCalls:    calls,
		GenerateFailures: failures,
		SuccessRate:      successRate,
		AvgGenerateMs:    float64(m.GetTimerAverage(telemetry.MetricGenerateTime)) / float64(time.Millisecond),
		P95GenerateMs:    float64(m.GetTimerP95(telemetry.MetricGenerateTime)) / float64(time.Millisecond),
		LatestRougeLsum:  m.GetGauge(telemetry.MetricRougeLsum),
	}
}
