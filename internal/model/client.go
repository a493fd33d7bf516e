package model

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/localrivet/textsummarizer/internal/errortypes"
	"github.com/localrivet/textsummarizer/internal/telemetry"
)

// Backend endpoints
const (
	loadPath     = "/v1/models/load"
	generatePath = "/v1/generate"

	DefaultTimeout = 10 * time.Minute
)

// ClientConfig holds the settings for talking to the model-serving backend.
type ClientConfig struct {
	BaseURL string
	Device  string
	Timeout time.Duration
	Metrics *telemetry.MetricsCollector
}

// Client talks to the model-serving backend over HTTP/JSON.
type Client struct {
	ClientConfig
	httpClient *http.Client
}

// LoadRequest asks the backend to load a checkpoint.
type LoadRequest struct {
	Model  string `json:"model"`
	Device string `json:"device,omitempty"`
}

// LoadResponse acknowledges a load.
type LoadResponse struct {
	Model string         `json:"model"`
	Error *BackendError `json:"error,omitempty"`
}

// GenerateRequest is a batch generation call.
type GenerateRequest struct {
	Model         string  `json:"model"`
	InputIDs      [][]int `json:"input_ids"`
	AttentionMask [][]int `json:"attention_mask"`
	NumBeams      int     `json:"num_beams"`
	LengthPenalty float64 `json:"length_penalty"`
	MaxLength     int     `json:"max_length"`
	Device        string  `json:"device,omitempty"`
}

// GenerateResponse carries one id sequence per input.
type GenerateResponse struct {
	Sequences [][]int       `json:"sequences"`
	Error     *BackendError `json:"error,omitempty"`
}

// BackendError is the error payload returned by the backend.
type BackendError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// NewClient creates a new backend client
func NewClient(config ClientConfig) *Client {
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	return &Client{
		ClientConfig: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// LoadModel loads the checkpoint at modelPath on the backend and returns a
// Generator bound to it.
func (c *Client) LoadModel(ctx context.Context, modelPath string) (*RemoteModel, error) {
	var resp LoadResponse
	if err := c.post(ctx, loadPath, LoadRequest{Model: modelPath, Device: c.Device}, &resp, func() *BackendError { return resp.Error }); err != nil {
		return nil, err
	}
	return &RemoteModel{client: c, name: modelPath, device: c.Device}, nil
}

// RemoteModel is a checkpoint loaded on the backend.
type RemoteModel struct {
	client *Client
	name   string
	device string
}

// Name returns the checkpoint the model was loaded from.
func (m *RemoteModel) Name() string { return m.name }

// Generate implements Generator.
func (m *RemoteModel) Generate(ctx context.Context, batch Batch, params GenerateParams) ([][]int, error) {
	device := params.Device
	if device == "" {
		device = m.device
	}

	req := GenerateRequest{
		Model:         m.name,
		InputIDs:      batch.InputIDs,
		AttentionMask: batch.AttentionMask,
		NumBeams:      params.NumBeams,
		LengthPenalty: params.LengthPenalty,
		MaxLength:     params.MaxLength,
		Device:        device,
	}

	metrics := m.client.Metrics
	metrics.IncrementCounter(telemetry.MetricGenerateCalls, 1)
	start := time.Now()

	var resp GenerateResponse
	err := m.client.post(ctx, generatePath, req, &resp, func() *BackendError { return resp.Error })
	metrics.RecordTimer(telemetry.MetricGenerateTime, time.Since(start))
	if err != nil {
		metrics.IncrementCounter(telemetry.MetricGenerateFailures, 1)
		return nil, err
	}

	if len(resp.Sequences) != batch.Len() {
		metrics.IncrementCounter(telemetry.MetricGenerateFailures, 1)
		return nil, errortypes.FrameworkError(
			fmt.Errorf("expected %d sequences, got %d", batch.Len(), len(resp.Sequences)),
			"malformed generate response")
	}
	return resp.Sequences, nil
}

// post sends body as JSON and decodes the reply into out. backendErr reports
// the error payload of the decoded reply, if any.
func (c *Client) post(ctx context.Context, path string, body, out interface{}, backendErr func() *BackendError) error {
	reqJSON, err := json.Marshal(body)
	if err != nil {
		return errortypes.InternalError(err, "error marshaling request")
	}

	url := c.BaseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqJSON))
	if err != nil {
		return errortypes.InternalError(err, "error creating request").WithField("url", url)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errortypes.NetworkError(err, "error sending request to model backend").WithField("url", url)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return errortypes.NetworkError(err, "error reading response body").WithField("url", url)
	}

	decodeErr := json.Unmarshal(respBody, out)
	if decodeErr == nil {
		if be := backendErr(); be != nil {
			return errortypes.FrameworkError(be, "model backend error").
				WithField("url", url).
				WithField("status", resp.StatusCode)
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errortypes.FrameworkError(
			fmt.Errorf("HTTP %d: %s", resp.StatusCode, truncate(string(respBody), 200)),
			"model backend error").WithField("url", url).WithField("status", resp.StatusCode)
	}
	if decodeErr != nil {
		return errortypes.FrameworkError(decodeErr, "error unmarshaling response").WithField("url", url)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// IsBackendError reports whether err carries a backend error payload.
func IsBackendError(err error) bool {
	var be *BackendError
	return errors.As(err, &be)
}
