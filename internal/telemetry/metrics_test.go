package telemetry

import (
	"strings"
	"sync"
	"testing"
	"time"
)

func TestCountersAndGauges(t *testing.T) {
	m := NewMetricsCollector()

	m.IncrementCounter(MetricGenerateCalls, 1)
	m.IncrementCounter(MetricGenerateCalls, 2)
	m.SetGauge(MetricRougeLsum, 0.42)

	if got := m.GetCounter(MetricGenerateCalls); got != 3 {
		t.Errorf("Expected counter 3, got %d", got)
	}
	if got := m.GetGauge(MetricRougeLsum); got != 0.42 {
		t.Errorf("Expected gauge 0.42, got %f", got)
	}
	if got := m.GetCounter("unknown"); got != 0 {
		t.Errorf("Expected unknown counter to be 0, got %d", got)
	}
}

func TestTimers(t *testing.T) {
	m := NewMetricsCollector()
	for i := 1; i <= 20; i++ {
		m.RecordTimer(MetricGenerateTime, time.Duration(i)*time.Millisecond)
	}

	if avg := m.GetTimerAverage(MetricGenerateTime); avg != 10500*time.Microsecond {
		t.Errorf("Unexpected average %v", avg)
	}
	if p := m.GetTimerP95(MetricGenerateTime); p != 20*time.Millisecond {
		t.Errorf("Unexpected p95 %v", p)
	}

	for i := 0; i < 150; i++ {
		m.RecordTimer("bounded", time.Millisecond)
	}
	if !strings.Contains(m.GetReport(), "bounded: avg=1ms p95=1ms count=100") {
		t.Errorf("Expected timer history to be capped at 100:\n%s", m.GetReport())
	}
}

func TestReportIsSorted(t *testing.T) {
	m := NewMetricsCollector()
	m.IncrementCounter("b.counter", 1)
	m.IncrementCounter("a.counter", 1)
	m.RecordTimestamp(MetricLastRun)

	report := m.GetReport()
	if strings.Index(report, "a.counter") > strings.Index(report, "b.counter") {
		t.Errorf("Expected counters sorted by name:\n%s", report)
	}
	if !strings.Contains(report, MetricLastRun) {
		t.Errorf("Expected timestamp in report:\n%s", report)
	}

	m.Reset()
	if m.GetCounter("a.counter") != 0 || m.GetTimeSince(MetricLastRun) != 0 {
		t.Errorf("Expected Reset to clear metrics")
	}
}

func TestNilCollector(t *testing.T) {
	var m *MetricsCollector
	m.IncrementCounter(MetricGenerateCalls, 1)
	m.SetGauge(MetricRougeLsum, 1)
	m.RecordTimer(MetricGenerateTime, time.Second)
	m.RecordTimestamp(MetricLastRun)
	m.Reset()

	if m.GetCounter(MetricGenerateCalls) != 0 || m.GetReport() != "" {
		t.Errorf("Expected nil collector to record nothing")
	}
}

func TestConcurrentUse(t *testing.T) {
	m := NewMetricsCollector()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				m.IncrementCounter(MetricPredictionRequests, 1)
				m.RecordTimer(MetricGenerateTime, time.Millisecond)
				_ = m.GetReport()
			}
		}()
	}
	wg.Wait()

	if got := m.GetCounter(MetricPredictionRequests); got != 1000 {
		t.Errorf("Expected 1000 requests, got %d", got)
	}
}
