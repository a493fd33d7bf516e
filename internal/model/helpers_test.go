package model

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// MockResponseConfig holds configuration for mock backend responses
type MockResponseConfig struct {
	StatusCode   int
	ResponseBody interface{}
	Headers      map[string]string
}

// recordedRequest is one request seen by the mock backend.
type recordedRequest struct {
	Path string
	Body map[string]interface{}
}

// mockBackend records requests and replies with the configured response per path.
type mockBackend struct {
	*httptest.Server
	mu       sync.Mutex
	requests []recordedRequest
}

func (m *mockBackend) Requests() []recordedRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]recordedRequest(nil), m.requests...)
}

// MockServer creates a test server that returns the configured response for each path
func MockServer(t *testing.T, routes map[string]MockResponseConfig) *mockBackend {
	t.Helper()
	backend := &mockBackend{}
	backend.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body map[string]interface{}
		_ = json.Unmarshal(raw, &body)

		backend.mu.Lock()
		backend.requests = append(backend.requests, recordedRequest{Path: r.URL.Path, Body: body})
		backend.mu.Unlock()

		config, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}

		for k, v := range config.Headers {
			w.Header().Set(k, v)
		}
		if _, exists := config.Headers["Content-Type"]; !exists {
			w.Header().Set("Content-Type", "application/json")
		}
		w.WriteHeader(config.StatusCode)

		if config.ResponseBody == nil {
			return
		}
		var respBytes []byte
		switch body := config.ResponseBody.(type) {
		case string:
			respBytes = []byte(body)
		case []byte:
			respBytes = body
		default:
			var err error
			respBytes, err = json.Marshal(body)
			if err != nil {
				t.Errorf("Failed to marshal mock response: %v", err)
				return
			}
		}
		_, _ = w.Write(respBytes)
	}))
	t.Cleanup(backend.Close)
	return backend
}
