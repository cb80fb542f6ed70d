package tools

import (
	"time"

	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/internal/apperr"
)

// Envelope carries the metadata every tool response shares
type Envelope struct {
	Success    bool      `json:"success"`
	MCPTool    string    `json:"mcp_tool"`
	Timestamp  time.Time `json:"timestamp"`
	Degraded   bool      `json:"degraded"`
	DataSource string    `json:"data_source"`
}

func (e *Envelope) envelope() *Envelope { return e }

type envelopeCarrier interface {
	envelope() *Envelope
}

// ErrorPayload is the structured body returned when a tool call fails
type ErrorPayload struct {
	Success    bool   `json:"success"`
	Error      string `json:"error"`
	Code       string `json:"code"`
	Suggestion string `json:"suggestion,omitempty"`
	MCPTool    string `json:"mcp_tool"`
}

// NewErrorPayload renders err for the caller of tool
func NewErrorPayload(tool string, err error) ErrorPayload {
	code := apperr.CodeOf(err)
	message := err.Error()
	if code == apperr.CodeInternal {
		message = "tool execution failed"
	}
	return ErrorPayload{
		Success:    false,
		Error:      message,
		Code:       string(code),
		Suggestion: apperr.SuggestionOf(err),
		MCPTool:    tool,
	}
}
