package mcp

import (
	"context"
	"encoding/json"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rpggio/voicenotes/internal/domain/note"
	"github.com/rpggio/voicenotes/internal/domain/project"
	"github.com/rpggio/voicenotes/internal/triage"
	"github.com/stretchr/testify/require"
)

func connect(t *testing.T, handler *Handler, metrics *Metrics) *sdkmcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	server := NewServer(Config{Handler: handler, Metrics: metrics, Version: "test"})
	clientTransport, serverTransport := sdkmcp.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = serverSession.Close() })

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "v0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func textOf(t *testing.T, res *sdkmcp.CallToolResult) string {
	t.Helper()
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(*sdkmcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestServer_ListsCatalogTools(t *testing.T) {
	session := connect(t, NewHandler(commandStub{}, queryStub{}), nil)

	res, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)

	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	var want []string
	for _, def := range buildToolCatalog() {
		want = append(want, def.Name)
	}
	require.ElementsMatch(t, want, names)
}

func TestServer_CallToolReturnsJSON(t *testing.T) {
	handler := NewHandler(commandStub{}, queryStub{
		getNoteFn: func(_ context.Context, id string) (*note.Note, error) {
			return &note.Note{ID: id, Transcript: "plant beans", ProjectName: "Garden"}, nil
		},
	})
	session := connect(t, handler, nil)

	res, err := session.CallTool(context.Background(), &sdkmcp.CallToolParams{
		Name:      "read_note",
		Arguments: map[string]any{"note_id": "n1"},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)

	var got note.Note
	require.NoError(t, json.Unmarshal([]byte(textOf(t, res)), &got))
	require.Equal(t, "n1", got.ID)
	require.Equal(t, "plant beans", got.Transcript)
	require.Equal(t, "Garden", got.ProjectName)
}

func TestServer_DomainErrorsBecomeToolErrors(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	handler := NewHandler(commandStub{
		assignFn: func(context.Context, triage.AssignRequest) error { return project.ErrProjectArchived },
	}, queryStub{})
	session := connect(t, handler, metrics)

	res, err := session.CallTool(context.Background(), &sdkmcp.CallToolParams{
		Name:      "assign_note_to_project",
		Arguments: map[string]any{"note_id": "n1", "project_id": "p-old"},
	})
	require.NoError(t, err)
	require.True(t, res.IsError)

	var apiErr APIError
	require.NoError(t, json.Unmarshal([]byte(textOf(t, res)), &apiErr))
	require.Equal(t, "INVALID_STATE", apiErr.Code)

	require.Equal(t, 1.0, testutil.ToFloat64(metrics.requests.WithLabelValues("tools/call", "assign_note_to_project", "tool_error")))
}

func TestServer_ServesDocs(t *testing.T) {
	session := connect(t, NewHandler(commandStub{}, queryStub{}), nil)

	res, err := session.ReadResource(context.Background(), &sdkmcp.ReadResourceParams{URI: "voicenotes://docs/triage"})
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	require.Contains(t, res.Contents[0].Text, "INVALID_STATE")
}
