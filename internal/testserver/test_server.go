// Package testserver runs the full voicenotes stack over an in-memory SQLite
// store behind httptest, for tests that cross package boundaries.
package testserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rpggio/voicenotes/internal/app"
	"github.com/rpggio/voicenotes/internal/domain/note"
	"github.com/rpggio/voicenotes/internal/sqlite"
	"github.com/stretchr/testify/require"
)

type TestServer struct {
	Server   *httptest.Server
	DB       *sqlite.DB
	Store    *sqlite.Store
	App      *app.App
	Registry *prometheus.Registry
}

func New(t *testing.T) *TestServer {
	t.Helper()

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	store := sqlite.NewStore(db)
	registry := prometheus.NewRegistry()
	stack := app.New(app.Options{
		Store:    store,
		CacheTTL: time.Minute,
		Registry: registry,
		Health:   db.PingContext,
	})
	server := httptest.NewServer(stack.HTTPHandler())

	t.Cleanup(func() {
		server.Close()
		_ = db.Close()
	})

	return &TestServer{
		Server:   server,
		DB:       db,
		Store:    store,
		App:      stack,
		Registry: registry,
	}
}

// SeedNote inserts a note directly into the store, as the capture pipeline would.
func (ts *TestServer) SeedNote(t *testing.T, n note.Note) {
	t.Helper()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	require.NoError(t, ts.Store.AddNote(context.Background(), &n))
}

// RPCResponse is a decoded JSON-RPC response from /rpc.
type RPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
	ID      any             `json:"id,omitempty"`
}

type RPCError struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

// RPC posts one JSON-RPC request to /rpc.
func (ts *TestServer) RPC(t *testing.T, method string, params any) RPCResponse {
	t.Helper()

	payload := map[string]any{
		"jsonrpc": "2.0",
		"method":  method,
		"id":      1,
	}
	if params != nil {
		payload["params"] = params
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	resp, err := http.Post(ts.Server.URL+"/rpc", "application/json", bytes.NewBuffer(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		t.Fatalf("Expected status 200, got %d. Body: %s", resp.StatusCode, string(bodyBytes))
	}

	var result RPCResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	return result
}

// Call invokes a tool over /rpc and decodes its result into out. It fails the
// test on any error response.
func (ts *TestServer) Call(t *testing.T, tool string, args any, out any) {
	t.Helper()
	resp := ts.RPC(t, "tools/call", map[string]any{"name": tool, "arguments": args})
	require.Nil(t, resp.Error, "%s failed: %+v", tool, resp.Error)
	if out != nil {
		require.NoError(t, json.Unmarshal(resp.Result, out))
	}
}

// CallError invokes a tool that is expected to fail and returns its API error code.
func (ts *TestServer) CallError(t *testing.T, tool string, args any) string {
	t.Helper()
	resp := ts.RPC(t, "tools/call", map[string]any{"name": tool, "arguments": args})
	require.NotNil(t, resp.Error, "%s unexpectedly succeeded", tool)
	code, _ := resp.Error.Data["code"].(string)
	return code
}

// ConnectMCP opens an MCP client session over the streamable HTTP endpoint.
func (ts *TestServer) ConnectMCP(t *testing.T) *sdkmcp.ClientSession {
	t.Helper()

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(context.Background(), &sdkmcp.StreamableClientTransport{
		Endpoint: ts.Server.URL + "/mcp",
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}
