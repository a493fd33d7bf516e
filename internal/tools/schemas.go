// Package tools defines the request and response schemas of the MCP tools
// exposed by the summarizer service.
package tools

const (
	// ToolSummarize is the name of the summarize MCP tool
	ToolSummarize = "summarize"

	// ToolLatestScores is the name of the latest_scores MCP tool
	ToolLatestScores = "latest_scores"

	// ToolPipelineRuns is the name of the pipeline_runs MCP tool
	ToolPipelineRuns = "pipeline_runs"

	// ToolHealth is the name of the health MCP tool
	ToolHealth = "health"

	// DefaultRunsLimit is the number of runs returned when a
	// pipeline_runs request sets no limit
	DefaultRunsLimit = 10

	// StatusSuccess and StatusError are the values of every response's Status.
	StatusSuccess = "success"
	StatusError   = "error"
)

// SummarizeRequest defines the input schema for summarize tool
type SummarizeRequest struct {
	// Text is the dialogue to summarize
	Text string `json:"text"`
}

// SummarizeResponse defines the output schema for summarize tool
type SummarizeResponse struct {
	// Status indicates the result of the operation ("success" or "error")
	Status string `json:"status"`

	// Summary is the model's summary of the dialogue
	Summary string `json:"summary,omitempty"`

	// Code classifies the failure when Status is "error"
	Code string `json:"code,omitempty"`

	// Error contains an error message if Status is "error"
	Error string `json:"error,omitempty"`
}

// LatestScoresRequest defines the input schema for latest_scores tool
type LatestScoresRequest struct {
	// Model names the evaluated model; empty selects the fine-tuned model
	Model string `json:"model,omitempty"`
}

// LatestScoresResponse defines the output schema for latest_scores tool
type LatestScoresResponse struct {
	Status string             `json:"status"`
	Model  string             `json:"model"`
	Scores map[string]float64 `json:"scores,omitempty"`
	Code   string             `json:"code,omitempty"`
	Error  string             `json:"error,omitempty"`
}

// PipelineRunsRequest defines the input schema for pipeline_runs tool
type PipelineRunsRequest struct {
	// Limit is the maximum number of runs to return, newest first
	Limit int `json:"limit,omitempty"`
}

// PipelineRun is one stage execution in a pipeline_runs response.
type PipelineRun struct {
	ID         string `json:"id"`
	Stage      string `json:"stage"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at,omitempty"`
}

// PipelineRunsResponse defines the output schema for pipeline_runs tool
type PipelineRunsResponse struct {
	Status string        `json:"status"`
	Runs   []PipelineRun `json:"runs"`
	Code   string        `json:"code,omitempty"`
	Error  string        `json:"error,omitempty"`
}

// HealthRequest defines the input schema for health tool. It takes no arguments.
type HealthRequest struct{}
