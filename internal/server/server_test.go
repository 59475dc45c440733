// File: internal/server/server_test.go
package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Tamas54/bravectl/internal/config"
)

func newTestHTTPServer(t *testing.T) *HTTPServer {
	t.Helper()
	cfg := config.ServerConfig{
		ListenAddr:     ":0",
		RequestTimeout: 10 * time.Second,
	}
	return NewHTTPServer(cfg, newTestDispatcher(t), zap.NewNop())
}

func doJSON(t *testing.T, handler http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec, decoded
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestHTTPServer(t)
	rec, body := doJSON(t, s.Handler(), http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "brave-mcp-server", body["server"])
	assert.Equal(t, "2.0.0", body["version"])
	assert.Equal(t, "optional", body["auth"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestToolListEndpoint(t *testing.T) {
	s := newTestHTTPServer(t)
	rec, body := doJSON(t, s.Handler(), http.MethodGet, "/tools", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	list, ok := body["tools"].([]any)
	require.True(t, ok)
	assert.Len(t, list, 3)
}

func TestToolCallSuccess(t *testing.T) {
	s := newTestHTTPServer(t)
	rec, body := doJSON(t, s.Handler(), http.MethodPost, "/tools/echo", `{"message":"hi"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "echo", body["tool"])
	assert.NotEmpty(t, body["timestamp"])

	result, ok := body["result"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "hi", result["echo"])
}

func TestToolCallUnknownTool(t *testing.T) {
	s := newTestHTTPServer(t)
	rec, body := doJSON(t, s.Handler(), http.MethodPost, "/tools/missing", `{}`)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Tool missing not found", body["error"])

	available, ok := body["availableTools"].([]any)
	require.True(t, ok)
	assert.Len(t, available, 3)
}

func TestToolCallEmptyBody(t *testing.T) {
	s := newTestHTTPServer(t)
	rec, body := doJSON(t, s.Handler(), http.MethodPost, "/tools/ping", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])

	result, ok := body["result"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, result["pong"])
}

func TestToolCallMissingRequiredParam(t *testing.T) {
	s := newTestHTTPServer(t)
	rec, body := doJSON(t, s.Handler(), http.MethodPost, "/tools/echo", `{}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["error"], "message")
}

func TestToolCallExecutionFailure(t *testing.T) {
	s := newTestHTTPServer(t)
	rec, body := doJSON(t, s.Handler(), http.MethodPost, "/tools/boom", `{}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["error"], "kaboom")
}

func TestToolCallMalformedBody(t *testing.T) {
	s := newTestHTTPServer(t)
	rec, body := doJSON(t, s.Handler(), http.MethodPost, "/tools/echo", `not json`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, body["success"])
}

func TestMCPInfoEndpoint(t *testing.T) {
	s := newTestHTTPServer(t)
	rec, body := doJSON(t, s.Handler(), http.MethodGet, "/mcp", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "MCP", body["protocol"])
	assert.Equal(t, "brave-mcp-server", body["server"])

	methods, ok := body["methods"].([]any)
	require.True(t, ok)
	assert.Equal(t, []any{"tools/list", "tools/call"}, methods)
}

func TestMCPInitialize(t *testing.T) {
	s := newTestHTTPServer(t)
	rec, body := doJSON(t, s.Handler(), http.MethodPost, "/mcp", `{"id":1,"method":"initialize"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, body["id"])

	result, ok := body["result"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "2025-06-18", result["protocolVersion"])
}

func TestMCPMissingMethod(t *testing.T) {
	s := newTestHTTPServer(t)
	rec, body := doJSON(t, s.Handler(), http.MethodPost, "/mcp", `{"id":1}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing method parameter", body["error"])
}

func TestMCPToolsCall(t *testing.T) {
	s := newTestHTTPServer(t)
	rec, body := doJSON(t, s.Handler(), http.MethodPost, "/mcp",
		`{"id":7,"method":"tools/call","params":{"name":"echo","arguments":{"message":"over http"}}}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 7, body["id"])

	result, ok := body["result"].(map[string]any)
	require.True(t, ok)
	content, ok := result["content"].([]any)
	require.True(t, ok)
	require.Len(t, content, 1)

	block, ok := content[0].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, block["text"], "over http")
}

func TestMCPToolsCallUnknownTool(t *testing.T) {
	s := newTestHTTPServer(t)
	rec, body := doJSON(t, s.Handler(), http.MethodPost, "/mcp",
		`{"id":8,"method":"tools/call","params":{"name":"missing","arguments":{}}}`)

	assert.Equal(t, http.StatusNotFound, rec.Code)

	rpcErr, ok := body["error"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, codeMethodNotFound, rpcErr["code"])
	assert.Equal(t, "Tool missing not found", rpcErr["message"])
}

func TestMCPUnknownMethod(t *testing.T) {
	s := newTestHTTPServer(t)
	rec, body := doJSON(t, s.Handler(), http.MethodPost, "/mcp", `{"id":9,"method":"resources/list"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rpcErr, ok := body["error"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, codeMethodNotFound, rpcErr["code"])
	assert.Equal(t, "Method not found", rpcErr["message"])
}

func TestOAuthTokenEndpoints(t *testing.T) {
	s := newTestHTTPServer(t)
	for _, path := range []string{"/token", "/oauth/token"} {
		rec, body := doJSON(t, s.Handler(), http.MethodPost, path, `{"grant_type":"authorization_code"}`)

		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, "brave-mcp-access-token", body["access_token"])
		assert.Equal(t, "Bearer", body["token_type"])
		assert.EqualValues(t, 86400, body["expires_in"])
		assert.Equal(t, "read write", body["scope"])
	}
}

func TestOAuthAuthorizeRedirect(t *testing.T) {
	s := newTestHTTPServer(t)
	rec, _ := doJSON(t, s.Handler(), http.MethodGet,
		"/authorize?response_type=code&redirect_uri=https%3A%2F%2Fexample.com%2Fcb&state=xyz", "")

	assert.Equal(t, http.StatusFound, rec.Code)
	location := rec.Header().Get("Location")
	assert.Contains(t, location, "https://example.com/cb?code=brave-auth-code-")
	assert.Contains(t, location, "state=xyz")
}

func TestOAuthAuthorizeUnsupportedResponseType(t *testing.T) {
	s := newTestHTTPServer(t)
	rec, body := doJSON(t, s.Handler(), http.MethodGet, "/oauth/authorize?response_type=token", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "unsupported_response_type", body["error"])
}

func TestOpenIDConfiguration(t *testing.T) {
	s := newTestHTTPServer(t)
	rec, body := doJSON(t, s.Handler(), http.MethodGet, "/.well-known/openid_configuration", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	issuer, ok := body["issuer"].(string)
	require.True(t, ok)
	assert.Equal(t, issuer+"/authorize", body["authorization_endpoint"])
	assert.Equal(t, issuer+"/token", body["token_endpoint"])
}

func TestCORSPreflight(t *testing.T) {
	s := newTestHTTPServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/tools", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestWebsocketToolFlow(t *testing.T) {
	s := newTestHTTPServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(map[string]any{"id": 1, "method": "tools/list"}))
	var listResp rpcResponse
	require.NoError(t, conn.ReadJSON(&listResp))
	assert.EqualValues(t, 1, listResp.ID)
	require.Nil(t, listResp.Error)

	require.NoError(t, conn.WriteJSON(map[string]any{
		"id":     2,
		"method": "tools/call",
		"params": map[string]any{"name": "echo", "arguments": map[string]any{"message": "via ws"}},
	}))
	var callResp rpcResponse
	require.NoError(t, conn.ReadJSON(&callResp))
	assert.EqualValues(t, 2, callResp.ID)
	require.Nil(t, callResp.Error)

	require.NoError(t, conn.WriteJSON(map[string]any{"id": 3, "method": "nope"}))
	var errResp rpcResponse
	require.NoError(t, conn.ReadJSON(&errResp))
	require.NotNil(t, errResp.Error)
	assert.Equal(t, codeMethodNotFound, errResp.Error.Code)
}

func TestWebsocketParseError(t *testing.T) {
	s := newTestHTTPServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("garbage")))
	var resp rpcResponse
	require.NoError(t, conn.ReadJSON(&resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, codeParseError, resp.Error.Code)
	assert.Nil(t, resp.ID)
}
