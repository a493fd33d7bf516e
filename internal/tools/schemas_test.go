package tools

import (
	"encoding/json"
	"testing"
)

func TestSummarizeRequestFieldNames(t *testing.T) {
	var req SummarizeRequest
	if err := json.Unmarshal([]byte(`{"text":"Amanda: I baked cookies."}`), &req); err != nil {
		t.Fatalf("Failed to unmarshal SummarizeRequest: %v", err)
	}
	if req.Text != "Amanda: I baked cookies." {
		t.Errorf("Expected text to be decoded, got %q", req.Text)
	}
}

func TestErrorFieldsOmittedOnSuccess(t *testing.T) {
	data, err := json.Marshal(SummarizeResponse{Status: StatusSuccess, Summary: "Amanda baked cookies."})
	if err != nil {
		t.Fatalf("Failed to marshal SummarizeResponse: %v", err)
	}

	var jsonMap map[string]interface{}
	if err := json.Unmarshal(data, &jsonMap); err != nil {
		t.Fatalf("Failed to unmarshal JSON into map: %v", err)
	}
	for _, key := range []string{"code", "error"} {
		if _, ok := jsonMap[key]; ok {
			t.Errorf("Expected %s to be omitted, got %v", key, jsonMap[key])
		}
	}
}

func TestPipelineRunsResponseAlwaysHasRuns(t *testing.T) {
	data, err := json.Marshal(PipelineRunsResponse{Status: StatusSuccess, Runs: []PipelineRun{}})
	if err != nil {
		t.Fatalf("Failed to marshal PipelineRunsResponse: %v", err)
	}
	if string(data) != `{"status":"success","runs":[]}` {
		t.Errorf("Unexpected JSON: %s", data)
	}
}
