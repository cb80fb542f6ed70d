package mcpserver

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/internal/query"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/internal/search"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/internal/tools"
)

func connect(t *testing.T, caller *tools.Caller) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	dispatcher, err := tools.NewDispatcher(search.FixtureEngine{}, nil, nil, nil, zap.NewNop(), tools.Options{
		Now: func() time.Time { return time.Date(2024, 6, 28, 9, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)

	srv := New(dispatcher, zap.NewNop(), Options{Version: "test", Caller: caller})
	serverTransport, clientTransport := mcp.NewInMemoryTransports()

	ss, err := srv.MCPServer().Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { ss.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "test"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { cs.Close() })
	return cs
}

func textOf(t *testing.T, res *mcp.CallToolResult) map[string]any {
	t.Helper()
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(text.Text), &body))
	return body
}

func TestServer_ListTools(t *testing.T) {
	cs := connect(t, nil)

	res, err := cs.ListTools(context.Background(), nil)
	require.NoError(t, err)

	names := make([]string, 0, len(res.Tools))
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
		assert.NotEmpty(t, tool.Description)
		assert.NotNil(t, tool.InputSchema)
	}
	assert.ElementsMatch(t, []string{
		tools.ToolSearchHealthData,
		tools.ToolAggregateHealthMetrics,
		tools.ToolGetHealthTrends,
		tools.ToolSearchFamilyHealth,
		tools.ToolGetHealthCorrelations,
	}, names)
}

func TestServer_CallTool(t *testing.T) {
	cs := connect(t, nil)

	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      tools.ToolSearchHealthData,
		Arguments: map[string]any{"query": "show me steps last week", "user_id": "u1"},
	})
	require.NoError(t, err)
	assert.False(t, res.IsError)

	body := textOf(t, res)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, tools.ToolSearchHealthData, body["mcp_tool"])
	assert.Equal(t, "steps", body["metric"])
	assert.Equal(t, "fallback", body["data_source"])
}

func TestServer_ToolErrorsAreInBand(t *testing.T) {
	cs := connect(t, nil)

	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      tools.ToolSearchHealthData,
		Arguments: map[string]any{"query": "how is the weather", "user_id": "u1"},
	})
	require.NoError(t, err)
	assert.True(t, res.IsError)

	body := textOf(t, res)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "UNRECOGNIZED_METRIC", body["code"])
	assert.NotEmpty(t, body["suggestion"])
}

func TestServer_CallerScopesCalls(t *testing.T) {
	cs := connect(t, &tools.Caller{UserID: "u1", FamilyID: "fam-1"})

	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      tools.ToolAggregateHealthMetrics,
		Arguments: map[string]any{"metric_type": "steps", "time_period": "last_week", "user_id": "u2"},
	})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Equal(t, "PRIVACY_VIOLATION", textOf(t, res)["code"])

	res, err = cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      tools.ToolAggregateHealthMetrics,
		Arguments: map[string]any{"metric_type": "steps", "time_period": "last_week"},
	})
	require.NoError(t, err)
	assert.False(t, res.IsError)
}

func TestServer_ReadExamples(t *testing.T) {
	cs := connect(t, nil)

	res, err := cs.ReadResource(context.Background(), &mcp.ReadResourceParams{URI: ExamplesURI})
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	assert.Equal(t, "application/json", res.Contents[0].MIMEType)

	var examples []query.Example
	require.NoError(t, json.Unmarshal([]byte(res.Contents[0].Text), &examples))
	assert.Equal(t, query.Examples, examples)
}

func TestServer_ListResources(t *testing.T) {
	cs := connect(t, nil)

	res, err := cs.ListResources(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, res.Resources, 1)
	assert.Equal(t, ExamplesURI, res.Resources[0].URI)
	assert.NotContains(t, res.Resources[0].Description, "grouped")
}
