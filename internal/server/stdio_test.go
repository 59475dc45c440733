// File: internal/server/stdio_test.go
package server

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Tamas54/bravectl/internal/tools"
)

// newTestDispatcher builds a dispatcher over a three-tool registry:
// echo returns its params, boom always fails, ping takes no arguments.
func newTestDispatcher(t *testing.T) *Dispatcher {
	t.Helper()

	reg := tools.NewRegistry(zap.NewNop())
	require.NoError(t, reg.Register(tools.Descriptor{
		Name:        "echo",
		Description: "Returns its parameters verbatim",
		InputSchema: tools.Schema{
			Type: "object",
			Properties: map[string]tools.Property{
				"message": {Type: "string", Description: "Text to echo back"},
			},
			Required: []string{"message"},
		},
	}, func(ctx context.Context, params map[string]any) (any, error) {
		return map[string]any{"echo": params["message"]}, nil
	}))
	require.NoError(t, reg.Register(tools.Descriptor{
		Name:        "boom",
		Description: "Always fails",
		InputSchema: tools.Schema{Type: "object"},
	}, func(ctx context.Context, params map[string]any) (any, error) {
		return nil, errors.New("kaboom")
	}))
	require.NoError(t, reg.Register(tools.Descriptor{
		Name:        "ping",
		Description: "Replies pong, takes no arguments",
		InputSchema: tools.Schema{Type: "object"},
	}, func(ctx context.Context, params map[string]any) (any, error) {
		return map[string]any{"pong": true}, nil
	}))

	return NewDispatcher(reg, zap.NewNop())
}

// runStdio feeds the input lines through a stdio server and returns
// the decoded response frames, one per output line.
func runStdio(t *testing.T, input string) []rpcResponse {
	t.Helper()

	var out bytes.Buffer
	srv := NewStdioServer(newTestDispatcher(t), strings.NewReader(input), &out, zap.NewNop())
	require.NoError(t, srv.Run(context.Background()))

	var responses []rpcResponse
	scanner := bufio.NewScanner(&out)
	for scanner.Scan() {
		var resp rpcResponse
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &resp))
		responses = append(responses, resp)
	}
	require.NoError(t, scanner.Err())
	return responses
}

func TestStdioInitialize(t *testing.T) {
	responses := runStdio(t, `{"jsonrpc":"2.0","id":1,"method":"initialize"}`+"\n")
	require.Len(t, responses, 1)

	resp := responses[0]
	assert.EqualValues(t, 1, resp.ID)
	require.Nil(t, resp.Error)

	result, ok := resp.Result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "2024-11-05", result["protocolVersion"])

	info, ok := result["serverInfo"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "brave-mcp-server", info["name"])
	assert.Equal(t, "2.0.0", info["version"])
}

func TestStdioToolsList(t *testing.T) {
	responses := runStdio(t, `{"jsonrpc":"2.0","id":2,"method":"tools/list"}`+"\n")
	require.Len(t, responses, 1)
	require.Nil(t, responses[0].Error)

	result, ok := responses[0].Result.(map[string]any)
	require.True(t, ok)
	list, ok := result["tools"].([]any)
	require.True(t, ok)
	require.Len(t, list, 3)

	first, ok := list[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "echo", first["name"])
}

func TestStdioToolsCall(t *testing.T) {
	responses := runStdio(t, `{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"echo","arguments":{"message":"hello"}}}`+"\n")
	require.Len(t, responses, 1)
	require.Nil(t, responses[0].Error)

	result, ok := responses[0].Result.(map[string]any)
	require.True(t, ok)
	content, ok := result["content"].([]any)
	require.True(t, ok)
	require.Len(t, content, 1)

	block, ok := content[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "text", block["type"])

	text, ok := block["text"].(string)
	require.True(t, ok)
	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(text), &payload))
	assert.Equal(t, "hello", payload["echo"])
}

func TestStdioToolError(t *testing.T) {
	responses := runStdio(t, `{"jsonrpc":"2.0","id":4,"method":"tools/call","params":{"name":"boom","arguments":{}}}`+"\n")
	require.Len(t, responses, 1)

	resp := responses[0]
	require.NotNil(t, resp.Error)
	assert.Equal(t, codeInternalError, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "kaboom")
}

func TestStdioParseError(t *testing.T) {
	responses := runStdio(t, "this is not json\n")
	require.Len(t, responses, 1)

	resp := responses[0]
	assert.Nil(t, resp.ID)
	require.NotNil(t, resp.Error)
	assert.Equal(t, codeParseError, resp.Error.Code)
	assert.Equal(t, "Parse error", resp.Error.Message)
}

func TestStdioUnknownMethod(t *testing.T) {
	responses := runStdio(t, `{"jsonrpc":"2.0","id":5,"method":"resources/list"}`+"\n")
	require.Len(t, responses, 1)

	resp := responses[0]
	require.NotNil(t, resp.Error)
	assert.Equal(t, codeInternalError, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "resources/list")
}

func TestStdioSkipsBlankLines(t *testing.T) {
	input := "\n" + `{"jsonrpc":"2.0","id":1,"method":"tools/list"}` + "\n\n" +
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}` + "\n"
	responses := runStdio(t, input)
	assert.Len(t, responses, 2)
}

func TestCallToolTopLevelArguments(t *testing.T) {
	// Older clients put the tool arguments next to "name" instead of
	// under "arguments".
	d := newTestDispatcher(t)
	result, err := d.CallTool(context.Background(), map[string]any{
		"name":    "echo",
		"message": "direct",
	})
	require.NoError(t, err)

	env, ok := result.(contentEnvelope)
	require.True(t, ok)
	require.Len(t, env.Content, 1)
	assert.Contains(t, env.Content[0].Text, "direct")
}

func TestCallToolUnknownTool(t *testing.T) {
	d := newTestDispatcher(t)
	_, err := d.CallTool(context.Background(), map[string]any{"name": "nope"})
	require.Error(t, err)
	assert.ErrorIs(t, err, tools.ErrToolNotFound)
	assert.Equal(t, codeMethodNotFound, errorCode(err))
}
