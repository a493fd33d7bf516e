// Package server provides the MCP server exposing the summarizer's
// prediction pipeline and run history as tools.
package server

import (
	"context"
	"errors"
	"time"

	"github.com/localrivet/gomcp/server"

	"github.com/localrivet/textsummarizer/internal/errortypes"
	"github.com/localrivet/textsummarizer/internal/logger"
	"github.com/localrivet/textsummarizer/internal/model"
	"github.com/localrivet/textsummarizer/internal/telemetry"
	"github.com/localrivet/textsummarizer/internal/tools"
	"github.com/localrivet/textsummarizer/internal/tracking"
)

// Common server error types
var (
	ErrServerNotInitialized = errors.New("server not initialized")
	ErrMissingDependencies  = errors.New("one or more required dependencies are nil")
)

// Summarizer produces a summary for one dialogue.
type Summarizer interface {
	Predict(ctx context.Context, text string) (string, error)
}

// MCPToolServer implements ToolServer over stdio.
type MCPToolServer struct {
	summarizer Summarizer
	store      tracking.Store
	metrics    *telemetry.MetricsCollector
	log        *logger.Logger
	mcpServer  server.Server

	// ctx bounds tool calls; set by Start.
	ctx context.Context
}

// NewToolServer creates a new MCPToolServer instance. metrics may be nil,
// in which case the health tool reports an idle backend.
func NewToolServer(summarizer Summarizer, store tracking.Store, metrics *telemetry.MetricsCollector, log *logger.Logger) *MCPToolServer {
	if log == nil {
		log = logger.Discard()
	}
	return &MCPToolServer{
		summarizer: summarizer,
		store:      store,
		metrics:    metrics,
		log:        log.WithContext("server"),
		ctx:        context.Background(),
	}
}

// Initialize registers the tools.
func (s *MCPToolServer) Initialize() error {
	s.log.Info("Initializing MCP tool server")

	if s.summarizer == nil || s.store == nil {
		return errortypes.ConfigError(ErrMissingDependencies, "server initialization failed")
	}

	srv := server.NewServer("textsummarizer")

	srv = srv.Tool(tools.ToolSummarize, "Summarize a dialogue with the fine-tuned model",
		s.handleSummarize)

	srv = srv.Tool(tools.ToolLatestScores, "Return the most recent ROUGE scores of a model",
		s.handleLatestScores)

	srv = srv.Tool(tools.ToolPipelineRuns, "List recent pipeline stage runs, newest first",
		s.handlePipelineRuns)

	srv = srv.Tool(tools.ToolHealth, "Report the health of the model backend and run tracking",
		s.handleHealth)

	s.mcpServer = srv
	s.log.Info("MCP tool server initialized with %d tools", 4)
	return nil
}

// Start serves tool calls over stdio. It returns when stdin closes.
func (s *MCPToolServer) Start(ctx context.Context) error {
	if s.mcpServer == nil {
		return errortypes.ConfigError(ErrServerNotInitialized, "cannot start server")
	}
	s.ctx = ctx

	s.log.Info("Starting MCP tool server on stdio")
	return s.mcpServer.AsStdio().Run()
}

// Stop gracefully shuts down the MCP server.
func (s *MCPToolServer) Stop() error {
	s.log.Info("Stopping MCP tool server")
	// The stdio transport exits when stdin is closed
	return nil
}

// handleSummarize handles the summarize MCP tool call.
func (s *MCPToolServer) handleSummarize(_ *server.Context, req tools.SummarizeRequest) (tools.SummarizeResponse, error) {
	s.log.Info("Processing summarize request (%d chars)", len(req.Text))

	summary, err := s.summarizer.Predict(s.ctx, req.Text)
	if err != nil {
		code, message := failure(s.log, err)
		return tools.SummarizeResponse{Status: tools.StatusError, Code: code, Error: message}, nil
	}

	return tools.SummarizeResponse{Status: tools.StatusSuccess, Summary: summary}, nil
}

// handleLatestScores handles the latest_scores MCP tool call.
func (s *MCPToolServer) handleLatestScores(_ *server.Context, req tools.LatestScoresRequest) (tools.LatestScoresResponse, error) {
	modelName := req.Model
	if modelName == "" {
		modelName = model.Name
	}
	s.log.Info("Processing latest_scores request for %s", modelName)

	response := tools.LatestScoresResponse{Status: tools.StatusSuccess, Model: modelName}
	scores, err := s.store.LatestScores(modelName)
	if err != nil {
		response.Status = tools.StatusError
		response.Code, response.Error = failure(s.log, err)
		return response, nil
	}

	response.Scores = scores
	return response, nil
}

// handlePipelineRuns handles the pipeline_runs MCP tool call.
func (s *MCPToolServer) handlePipelineRuns(_ *server.Context, req tools.PipelineRunsRequest) (tools.PipelineRunsResponse, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = tools.DefaultRunsLimit
	}
	s.log.Debug("Processing pipeline_runs request with limit %d", limit)

	runs, err := s.store.RecentRuns(limit)
	if err != nil {
		code, message := failure(s.log, err)
		return tools.PipelineRunsResponse{Status: tools.StatusError, Runs: []tools.PipelineRun{}, Code: code, Error: message}, nil
	}

	out := make([]tools.PipelineRun, len(runs))
	for i, run := range runs {
		out[i] = tools.PipelineRun{
			ID:        run.ID,
			Stage:     run.Stage,
			Status:    run.Status,
			Error:     run.Error,
			StartedAt: run.StartedAt.UTC().Format(time.RFC3339),
		}
		if !run.FinishedAt.IsZero() {
			out[i].FinishedAt = run.FinishedAt.UTC().Format(time.RFC3339)
		}
	}
	return tools.PipelineRunsResponse{Status: tools.StatusSuccess, Runs: out}, nil
}

// handleHealth handles the health MCP tool call.
func (s *MCPToolServer) handleHealth(_ *server.Context, _ tools.HealthRequest) (HealthReport, error) {
	report := CreateHealthReport(s.metrics, s.store)
	if report.Status != StatusHealthy {
		s.log.Warn("Health check reports %s: %v", report.Status, report.Components)
	}
	return *report, nil
}
