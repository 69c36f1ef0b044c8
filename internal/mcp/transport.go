package mcp

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// JSON-RPC 2.0 message shapes.
type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type JSONRPCResponse struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      interface{}   `json:"id,omitempty"`
	Result  interface{}   `json:"result,omitempty"`
	Error   *JSONRPCError `json:"error,omitempty"`
}

type JSONRPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Standard JSON-RPC error codes.
const (
	ParseError     = -32700
	InvalidRequest = -32600
	MethodNotFound = -32601
	InvalidParams  = -32602
	InternalError  = -32603
)

// Transport speaks line-delimited JSON-RPC 2.0 over stdio, exposing the
// server's commands as MCP tools.
type Transport struct {
	reader *bufio.Reader
	writer io.Writer
	server *Server
	log    *logrus.Logger
	mu     sync.Mutex
}

func NewTransport(server *Server, log *logrus.Logger) *Transport {
	if log == nil {
		log = logrus.New()
	}
	return &Transport{
		reader: bufio.NewReader(os.Stdin),
		writer: os.Stdout,
		server: server,
		log:    log,
	}
}

// Start runs the read loop until the client disconnects.
func (t *Transport) Start() error {
	for {
		line, err := t.reader.ReadBytes('\n')
		if err != nil {
			if err == io.EOF {
				t.log.Info("client disconnected")
				return nil
			}
			return fmt.Errorf("reading from stdin: %w", err)
		}

		if resp := t.processRequest(line); resp != nil {
			if err := t.sendResponse(resp); err != nil {
				return fmt.Errorf("writing response: %w", err)
			}
		}
	}
}

func (t *Transport) processRequest(line []byte) *JSONRPCResponse {
	var req JSONRPCRequest
	if err := json.Unmarshal(line, &req); err != nil {
		return &JSONRPCResponse{
			JSONRPC: "2.0",
			Error:   &JSONRPCError{Code: ParseError, Message: "parse error"},
		}
	}

	// Notifications get no response.
	if req.ID == nil {
		t.handleNotification(req)
		return nil
	}

	result, rpcErr := t.dispatch(req)
	resp := &JSONRPCResponse{JSONRPC: "2.0", ID: req.ID}
	if rpcErr != nil {
		resp.Error = rpcErr
	} else {
		resp.Result = result
	}
	return resp
}

func (t *Transport) handleNotification(req JSONRPCRequest) {
	switch req.Method {
	case "notifications/initialized":
		t.log.Debug("client initialized")
	default:
		t.log.WithField("method", req.Method).Debug("ignoring notification")
	}
}

func (t *Transport) dispatch(req JSONRPCRequest) (interface{}, *JSONRPCError) {
	switch req.Method {
	case "initialize":
		return map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    "tasklens",
				"version": "0.1.0",
			},
		}, nil

	case "ping":
		return map[string]interface{}{}, nil

	case "tools/list":
		return map[string]interface{}{"tools": toolDescriptors()}, nil

	case "tools/call":
		return t.callTool(req.Params)

	default:
		return nil, &JSONRPCError{Code: MethodNotFound, Message: fmt.Sprintf("unknown method: %s", req.Method)}
	}
}

type toolCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

func (t *Transport) callTool(params json.RawMessage) (interface{}, *JSONRPCError) {
	var call toolCallParams
	if err := json.Unmarshal(params, &call); err != nil {
		return nil, &JSONRPCError{Code: InvalidParams, Message: "invalid tool call parameters"}
	}

	method, ok := toolMethods[call.Name]
	if !ok {
		return nil, &JSONRPCError{Code: MethodNotFound, Message: fmt.Sprintf("unknown tool: %s", call.Name)}
	}

	result, err := t.server.HandleCommand(method, call.Arguments)
	if err != nil {
		// Tool-level failures are reported in-band per MCP.
		return map[string]interface{}{
			"content": []map[string]interface{}{
				{"type": "text", "text": err.Error()},
			},
			"isError": true,
		}, nil
	}

	text, marshalErr := json.MarshalIndent(result, "", "  ")
	if marshalErr != nil {
		return nil, &JSONRPCError{Code: InternalError, Message: "failed to encode result"}
	}
	return map[string]interface{}{
		"content": []map[string]interface{}{
			{"type": "text", "text": string(text)},
		},
	}, nil
}

func (t *Transport) sendResponse(resp *JSONRPCResponse) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = t.writer.Write(data)
	return err
}

// toolMethods maps MCP tool names to server command methods.
var toolMethods = map[string]string{
	"task_create":        "tasklens.task.create",
	"task_list":          "tasklens.task.list",
	"task_get":           "tasklens.task.get",
	"task_update":        "tasklens.task.update",
	"task_delete":        "tasklens.task.delete",
	"match_find":         "tasklens.match.find",
	"match_search":       "tasklens.match.search",
	"match_extract":      "tasklens.match.extract",
	"weights_get":        "tasklens.weights.get",
	"weights_update":     "tasklens.weights.update",
	"resolution_open":    "tasklens.resolution.open",
	"resolution_status":  "tasklens.resolution.status",
	"resolution_resolve": "tasklens.resolution.resolve",
	"resolution_cancel":  "tasklens.resolution.cancel",
}

func toolDescriptors() []map[string]interface{} {
	querySchema := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"query":   map[string]interface{}{"type": "string", "description": "Free-form phrase describing a task"},
			"context": map[string]interface{}{"type": "object", "description": "Optional ambient context (current task, recent tasks, filters)"},
		},
		"required": []string{"query"},
	}
	idSchema := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"id": map[string]interface{}{"type": "string"},
		},
		"required": []string{"id"},
	}

	return []map[string]interface{}{
		{
			"name":        "task_create",
			"description": "Create a new task",
			"inputSchema": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"title":       map[string]interface{}{"type": "string"},
					"description": map[string]interface{}{"type": "string"},
					"priority":    map[string]interface{}{"type": "string", "enum": []string{"low", "medium", "high", "urgent"}},
					"tags":        map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
				},
				"required": []string{"title"},
			},
		},
		{
			"name":        "task_list",
			"description": "List tasks, optionally filtered by status or tag",
			"inputSchema": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"status": map[string]interface{}{"type": "string"},
					"tag":    map[string]interface{}{"type": "string"},
				},
			},
		},
		{"name": "task_get", "description": "Get a task by id", "inputSchema": idSchema},
		{
			"name":        "task_update",
			"description": "Update fields of a task",
			"inputSchema": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"id":          map[string]interface{}{"type": "string"},
					"title":       map[string]interface{}{"type": "string"},
					"description": map[string]interface{}{"type": "string"},
					"status":      map[string]interface{}{"type": "string"},
					"priority":    map[string]interface{}{"type": "string"},
					"tags":        map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
				},
				"required": []string{"id"},
			},
		},
		{"name": "task_delete", "description": "Delete a task by id", "inputSchema": idSchema},
		{"name": "match_find", "description": "Match tasks against a free-form description", "inputSchema": querySchema},
		{"name": "match_search", "description": "Intent-aware task search: extracts a task reference and intent first", "inputSchema": querySchema},
		{
			"name":        "match_extract",
			"description": "Extract a task reference and intent from a phrase without matching",
			"inputSchema": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"input": map[string]interface{}{"type": "string"},
				},
				"required": []string{"input"},
			},
		},
		{"name": "weights_get", "description": "Get the current matching weights", "inputSchema": map[string]interface{}{"type": "object"}},
		{
			"name":        "weights_update",
			"description": "Merge a partial update into the matching weights",
			"inputSchema": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"exactTitle":     map[string]interface{}{"type": "number"},
					"fuzzyTitle":     map[string]interface{}{"type": "number"},
					"description":    map[string]interface{}{"type": "number"},
					"tags":           map[string]interface{}{"type": "number"},
					"recentActivity": map[string]interface{}{"type": "number"},
					"contextual":     map[string]interface{}{"type": "number"},
				},
			},
		},
		{
			"name":        "resolution_open",
			"description": "Open a disambiguation request for an ambiguous match list",
			"inputSchema": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"query":   map[string]interface{}{"type": "string"},
					"matches": map[string]interface{}{"type": "array"},
					"context": map[string]interface{}{"type": "object"},
				},
				"required": []string{"query", "matches"},
			},
		},
		{"name": "resolution_status", "description": "Report whether a resolution request is pending", "inputSchema": map[string]interface{}{"type": "object"}},
		{
			"name":        "resolution_resolve",
			"description": "Resolve the pending request with a task choice, a create-new title, or a cancellation",
			"inputSchema": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"taskId":      map[string]interface{}{"type": "string"},
					"createTitle": map[string]interface{}{"type": "string"},
					"cancelled":   map[string]interface{}{"type": "boolean"},
				},
			},
		},
		{"name": "resolution_cancel", "description": "Cancel the pending resolution request", "inputSchema": map[string]interface{}{"type": "object"}},
	}
}
