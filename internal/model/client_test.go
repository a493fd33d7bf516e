package model

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/localrivet/textsummarizer/internal/errortypes"
	"github.com/localrivet/textsummarizer/internal/telemetry"
)

var okLoad = MockResponseConfig{
	StatusCode:   http.StatusOK,
	ResponseBody: LoadResponse{Model: "artifacts/model_trainer/pegasus-samsum-model"},
}

func TestGenerate(t *testing.T) {
	backend := MockServer(t, map[string]MockResponseConfig{
		loadPath: okLoad,
		generatePath: {
			StatusCode:   http.StatusOK,
			ResponseBody: GenerateResponse{Sequences: [][]int{{0, 5, 6, 1}, {0, 7, 1}}},
		},
	})

	metrics := telemetry.NewMetricsCollector()
	client := NewClient(ClientConfig{BaseURL: backend.URL + "/", Device: "cpu", Metrics: metrics})

	m, err := client.LoadModel(context.Background(), "artifacts/model_trainer/pegasus-samsum-model")
	if err != nil {
		t.Fatalf("LoadModel failed: %v", err)
	}

	batch := Batch{
		InputIDs:      [][]int{{10, 11, 1}, {12, 1, 0}},
		AttentionMask: [][]int{{1, 1, 1}, {1, 1, 0}},
	}
	params := DefaultGenerateParams()
	params.Device = "cuda"

	seqs, err := m.Generate(context.Background(), batch, params)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(seqs) != 2 || len(seqs[0]) != 4 {
		t.Errorf("Unexpected sequences: %v", seqs)
	}

	requests := backend.Requests()
	if len(requests) != 2 {
		t.Fatalf("Expected 2 requests, got %d", len(requests))
	}
	if requests[0].Path != loadPath || requests[0].Body["device"] != "cpu" {
		t.Errorf("Unexpected load request: %+v", requests[0])
	}
	gen := requests[1].Body
	if gen["num_beams"].(float64) != 8 || gen["length_penalty"].(float64) != 0.8 || gen["max_length"].(float64) != 128 {
		t.Errorf("Unexpected generation params: %v", gen)
	}
	if gen["device"] != "cuda" {
		t.Errorf("Expected device override, got %v", gen["device"])
	}
	if metrics.GetCounter(telemetry.MetricGenerateCalls) != 1 {
		t.Errorf("Expected one generate call recorded")
	}
}

func TestGenerateErrors(t *testing.T) {
	tests := []struct {
		name     string
		response MockResponseConfig
		check    func(error) bool
	}{
		{
			name:     "server error",
			response: MockResponseConfig{StatusCode: http.StatusInternalServerError, ResponseBody: "boom"},
			check:    errortypes.IsFrameworkError,
		},
		{
			name: "error payload",
			response: MockResponseConfig{
				StatusCode:   http.StatusOK,
				ResponseBody: GenerateResponse{Error: &BackendError{Type: "OutOfMemoryError", Message: "CUDA out of memory"}},
			},
			check: IsBackendError,
		},
		{
			name:     "wrong sequence count",
			response: MockResponseConfig{StatusCode: http.StatusOK, ResponseBody: GenerateResponse{Sequences: [][]int{{1}}}},
			check:    errortypes.IsFrameworkError,
		},
		{
			name:     "malformed json",
			response: MockResponseConfig{StatusCode: http.StatusOK, ResponseBody: "{not json"},
			check:    errortypes.IsFrameworkError,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			backend := MockServer(t, map[string]MockResponseConfig{loadPath: okLoad, generatePath: test.response})
			metrics := telemetry.NewMetricsCollector()
			client := NewClient(ClientConfig{BaseURL: backend.URL, Metrics: metrics})

			m, err := client.LoadModel(context.Background(), "ckpt")
			if err != nil {
				t.Fatalf("LoadModel failed: %v", err)
			}
			_, err = m.Generate(context.Background(), Batch{InputIDs: [][]int{{1}, {2}}, AttentionMask: [][]int{{1}, {1}}}, DefaultGenerateParams())
			if err == nil || !test.check(err) {
				t.Errorf("Unexpected error: %v", err)
			}
			if metrics.GetCounter(telemetry.MetricGenerateFailures) != 1 {
				t.Errorf("Expected failure to be counted")
			}
		})
	}
}

func TestLoadModelErrors(t *testing.T) {
	backend := MockServer(t, map[string]MockResponseConfig{
		loadPath: {
			StatusCode:   http.StatusNotFound,
			ResponseBody: LoadResponse{Error: &BackendError{Type: "OSError", Message: "checkpoint not found"}},
		},
	})

	_, err := NewClient(ClientConfig{BaseURL: backend.URL}).LoadModel(context.Background(), "missing")
	if !errortypes.IsFrameworkError(err) || !IsBackendError(err) {
		t.Errorf("Expected framework error with backend payload, got %v", err)
	}

	unreachable := NewClient(ClientConfig{BaseURL: "http://127.0.0.1:1", Timeout: time.Second})
	_, err = unreachable.LoadModel(context.Background(), "ckpt")
	if !errortypes.IsNetworkError(err) {
		t.Errorf("Expected network error, got %v", err)
	}
}
