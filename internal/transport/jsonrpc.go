package transport

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rpggio/voicenotes/internal/mcp"
)

// Error codes returned on /rpc. CodeDomain carries triage failures; its data
// member is the structured mcp.APIError.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternal       = -32603
	CodeDomain         = -32000
)

const (
	methodToolsList = "tools/list"
	methodToolsCall = "tools/call"
)

// Request is one JSON-RPC 2.0 call posted to /rpc.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      any             `json:"id,omitempty"`
}

// Response is the envelope written back; exactly one of Result and Error is set.
type Response struct {
	JSONRPC string `json:"jsonrpc"`
	Result  any    `json:"result,omitempty"`
	Error   *Error `json:"error,omitempty"`
	ID      any    `json:"id,omitempty"`
}

// Error is the error member of a Response.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *Error) Error() string { return e.Message }

// ToolCallParams is the params object of a tools/call request.
type ToolCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// decodeRequest reads one call from body. Malformed JSON and a well-formed
// object that is not a 2.0 call are told apart by code.
func decodeRequest(body io.Reader) (Request, *Error) {
	var req Request
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		return Request{}, &Error{Code: CodeParseError, Message: "body is not valid JSON"}
	}
	if req.JSONRPC != "2.0" || req.Method == "" {
		return Request{}, &Error{Code: CodeInvalidRequest, Message: `expected jsonrpc "2.0" and a method`}
	}
	return req, nil
}

// toolCall resolves the tool a request targets. tools/call names it in params;
// any other method is taken as the tool name with params as its arguments.
func (r Request) toolCall() (string, json.RawMessage, *Error) {
	if r.Method != methodToolsCall {
		return r.Method, r.Params, nil
	}
	var call ToolCallParams
	if err := json.Unmarshal(r.Params, &call); err != nil || call.Name == "" {
		return "", nil, &Error{Code: CodeInvalidParams, Message: "tools/call requires a tool name"}
	}
	return call.Name, call.Arguments, nil
}

// errorFor converts a handler failure into the error member. Failures the
// tool layer does not recognise become CodeInternal without data.
func errorFor(err error) *Error {
	var rpcErr *Error
	if errors.As(err, &rpcErr) {
		return rpcErr
	}
	apiErr := mcp.MapError(err)
	if apiErr == nil {
		return &Error{Code: CodeInternal, Message: err.Error()}
	}
	code := CodeDomain
	switch apiErr.Code {
	case "UNKNOWN_TOOL":
		code = CodeMethodNotFound
	case "VALIDATION_ERROR":
		code = CodeInvalidParams
	}
	return &Error{Code: code, Message: apiErr.Message, Data: apiErr}
}

func writeResult(w http.ResponseWriter, id, result any) {
	writeResponse(w, Response{JSONRPC: "2.0", Result: result, ID: id})
}

func writeError(w http.ResponseWriter, id any, rpcErr *Error) {
	writeResponse(w, Response{JSONRPC: "2.0", Error: rpcErr, ID: id})
}

// Errors travel in the envelope, so the HTTP status is always 200.
func writeResponse(w http.ResponseWriter, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}
