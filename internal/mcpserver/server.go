package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/internal/query"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/internal/tools"
)

const (
	serverName = "health-query"
	// ExamplesURI is the resource listing example questions
	ExamplesURI = "health-query://examples"
)

// Executor runs a registered tool by name
type Executor interface {
	Tools() []*tools.Tool
	Execute(ctx context.Context, name string, rawArgs json.RawMessage) (any, error)
}

// Server exposes the dispatcher's tools over MCP
type Server struct {
	mcp      *mcp.Server
	executor Executor
	caller   *tools.Caller
	logger   *zap.Logger
}

// Options configures a Server
type Options struct {
	Version string
	// Caller, when set, scopes every call to that identity
	Caller *tools.Caller
}

// New registers every dispatcher tool on a fresh MCP server
func New(executor Executor, logger *zap.Logger, opts Options) *Server {
	if opts.Version == "" {
		opts.Version = "dev"
	}

	s := &Server{
		mcp: mcp.NewServer(&mcp.Implementation{
			Name:    serverName,
			Version: opts.Version,
		}, nil),
		executor: executor,
		caller:   opts.Caller,
		logger:   logger,
	}

	registered := 0
	for _, t := range executor.Tools() {
		s.mcp.AddTool(&mcp.Tool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.InputSchema,
		}, s.handler(t.Name))
		registered++
	}

	s.mcp.AddResource(&mcp.Resource{
		URI:         ExamplesURI,
		Name:        "query-examples",
		Description: "Example health questions the parser understands, each with a short description",
		MIMEType:    "application/json",
	}, s.readExamples)

	logger.Info("MCP server initialized", zap.Int("tools_registered", registered))
	return s
}

// MCPServer returns the underlying MCP server
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// Run serves MCP over stdio until ctx is done or the client disconnects
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("MCP server starting")
	defer s.logger.Info("MCP server stopped")
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) handler(name string) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if s.caller != nil {
			ctx = tools.WithCaller(ctx, *s.caller)
		}

		var args json.RawMessage
		if req.Params != nil {
			args = req.Params.Arguments
		}

		result, err := s.executor.Execute(ctx, name, args)
		if err != nil {
			return errorResult(name, err)
		}

		body, err := json.Marshal(result)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s result: %w", name, err)
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(body)}},
		}, nil
	}
}

// errorResult reports a failed tool call in-band so the model can see the code and suggestion
func errorResult(name string, err error) (*mcp.CallToolResult, error) {
	body, merr := json.Marshal(tools.NewErrorPayload(name, err))
	if merr != nil {
		return nil, fmt.Errorf("failed to encode %s error: %w", name, merr)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(body)}},
		IsError: true,
	}, nil
}

func (s *Server) readExamples(_ context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	body, err := json.Marshal(query.Examples)
	if err != nil {
		return nil, fmt.Errorf("failed to encode examples: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(body),
		}},
	}, nil
}
