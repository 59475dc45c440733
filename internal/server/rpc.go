// File: internal/server/rpc.go
// Package server exposes the tool registry over three transports:
// line-delimited JSON-RPC on stdio, an HTTP API, and a websocket.
// All three funnel into the same dispatcher.
package server

import (
	"context"
	"errors"
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/Tamas54/bravectl/internal/tools"
)

const (
	ServerName    = "brave-mcp-server"
	ServerVersion = "2.0.0"

	stdioProtocolVersion = "2024-11-05"
	httpProtocolVersion  = "2025-06-18"
)

const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInternalError  = -32603
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type rpcRequest struct {
	JSONRPC string         `json:"jsonrpc,omitempty"`
	ID      any            `json:"id"`
	Method  string         `json:"method"`
	Params  map[string]any `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type rpcResponse struct {
	JSONRPC string    `json:"jsonrpc,omitempty"`
	ID      any       `json:"id"`
	Result  any       `json:"result,omitempty"`
	Error   *rpcError `json:"error,omitempty"`
}

// contentEnvelope is the wire shape of a tool result: the payload
// rendered as one text block.
type contentEnvelope struct {
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Dispatcher resolves protocol methods against the tool registry. It
// is shared by every transport so they cannot drift apart.
type Dispatcher struct {
	registry *tools.Registry
	logger   *zap.Logger
}

func NewDispatcher(registry *tools.Registry, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		logger:   logger.Named("dispatch"),
	}
}

// InitializeResult answers an initialize request.
func (d *Dispatcher) InitializeResult(protocolVersion string) any {
	return map[string]any{
		"protocolVersion": protocolVersion,
		"capabilities":    map[string]any{"tools": map[string]any{}},
		"serverInfo": map[string]any{
			"name":    ServerName,
			"version": ServerVersion,
		},
	}
}

// ToolList answers a tools/list request.
func (d *Dispatcher) ToolList() any {
	return map[string]any{"tools": d.registry.Descriptors()}
}

// ToolNames lists every registered tool name.
func (d *Dispatcher) ToolNames() []string {
	descs := d.registry.Descriptors()
	names := make([]string, 0, len(descs))
	for _, desc := range descs {
		names = append(names, desc.Name)
	}
	return names
}

// CallTool executes a tools/call request and wraps the result in a
// content envelope. The tool's arguments ride either under
// params.arguments or, as older clients send them, at the top level
// of params next to "name".
func (d *Dispatcher) CallTool(ctx context.Context, params map[string]any) (any, error) {
	name, _ := params["name"].(string)
	if name == "" {
		return nil, fmt.Errorf("%w: missing tool name", tools.ErrToolNotFound)
	}
	args, ok := params["arguments"].(map[string]any)
	if !ok {
		args = params
	}

	result, err := d.registry.Call(ctx, name, args)
	if err != nil {
		return nil, err
	}

	text, ok := result.(string)
	if !ok {
		encoded, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode tool result: %w", err)
		}
		text = string(encoded)
	}
	return contentEnvelope{Content: []contentBlock{{Type: "text", Text: text}}}, nil
}

// errorCode maps a dispatch failure onto its JSON-RPC error code.
func errorCode(err error) int {
	if errors.Is(err, tools.ErrToolNotFound) {
		return codeMethodNotFound
	}
	return codeInternalError
}
