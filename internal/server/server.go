// File: internal/server/server.go
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Tamas54/bravectl/internal/config"
	"github.com/Tamas54/bravectl/internal/tools"
)

// HTTPServer exposes the dispatcher over a chi router: a REST-ish
// surface under /tools, the JSON-RPC envelope under /mcp, stub OAuth
// endpoints for clients that insist on a token dance, and a websocket
// at /ws.
type HTTPServer struct {
	cfg        config.ServerConfig
	dispatcher *Dispatcher
	logger     *zap.Logger
	httpServer *http.Server
}

func NewHTTPServer(cfg config.ServerConfig, d *Dispatcher, logger *zap.Logger) *HTTPServer {
	s := &HTTPServer{
		cfg:        cfg,
		dispatcher: d,
		logger:     logger.Named("http"),
	}
	s.httpServer = &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: s.routes(),
	}
	return s
}

func (s *HTTPServer) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.cfg.RequestTimeout))
	r.Use(corsMiddleware)

	// Websocket route stays outside the logging group: middleware.Logger
	// wraps the ResponseWriter and breaks the hijack the upgrader needs.
	r.Get("/ws", s.handleWebsocket())

	r.Group(func(r chi.Router) {
		r.Use(middleware.Logger)

		r.Get("/health", s.handleHealth)
		r.Get("/tools", s.handleToolList)
		r.Post("/tools/{toolName}", s.handleToolCall)
		r.Get("/mcp", s.handleMCPInfo)
		r.Post("/mcp", s.handleMCP)

		r.Post("/token", s.handleToken)
		r.Post("/oauth/token", s.handleToken)
		r.Get("/authorize", s.handleAuthorize)
		r.Get("/oauth/authorize", s.handleAuthorize)
		r.Get("/.well-known/openid_configuration", s.handleOpenIDConfiguration)
	})

	return r
}

// Start runs the HTTP listener until it fails or Shutdown is called.
func (s *HTTPServer) Start() error {
	s.logger.Info("HTTP server starting", zap.String("address", s.cfg.ListenAddr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and stops the listener.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.logger.Info("HTTP server shutting down")
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *HTTPServer) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("Failed to encode response body", zap.Error(err))
	}
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"server":    ServerName,
		"version":   ServerVersion,
		"timestamp": time.Now().Format(time.RFC3339),
		"auth":      "optional",
	})
}

func (s *HTTPServer) handleToolList(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.dispatcher.ToolList())
}

// handleToolCall executes one tool with the request body as its
// parameter map and returns the raw result, not the content envelope.
func (s *HTTPServer) handleToolCall(w http.ResponseWriter, r *http.Request) {
	toolName := chi.URLParam(r, "toolName")

	// An absent body means no arguments; parameterless tools are
	// callable with a bare POST.
	var params map[string]any
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil && !errors.Is(err, io.EOF) {
		s.writeJSON(w, http.StatusBadRequest, map[string]any{
			"success":   false,
			"error":     fmt.Sprintf("invalid request body: %v", err),
			"timestamp": time.Now().Format(time.RFC3339),
		})
		return
	}
	if params == nil {
		params = map[string]any{}
	}

	result, err := s.dispatcher.registry.Call(r.Context(), toolName, params)
	if err != nil {
		switch {
		case errors.Is(err, tools.ErrToolNotFound):
			s.writeJSON(w, http.StatusNotFound, map[string]any{
				"error":          fmt.Sprintf("Tool %s not found", toolName),
				"availableTools": s.dispatcher.ToolNames(),
			})
		case errors.Is(err, tools.ErrInvalidParams):
			s.writeJSON(w, http.StatusBadRequest, map[string]any{
				"success":   false,
				"error":     err.Error(),
				"timestamp": time.Now().Format(time.RFC3339),
			})
		default:
			s.logger.Error("Tool execution failed", zap.String("tool", toolName), zap.Error(err))
			s.writeJSON(w, http.StatusInternalServerError, map[string]any{
				"success":   false,
				"error":     err.Error(),
				"timestamp": time.Now().Format(time.RFC3339),
			})
		}
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"tool":      toolName,
		"result":    result,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (s *HTTPServer) handleMCPInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"server":    ServerName,
		"version":   ServerVersion,
		"protocol":  "MCP",
		"methods":   []string{"tools/list", "tools/call"},
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// handleMCP speaks the JSON-RPC envelope over plain HTTP POST.
func (s *HTTPServer) handleMCP(w http.ResponseWriter, r *http.Request) {
	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": fmt.Sprintf("invalid request body: %v", err),
		})
		return
	}

	if req.Method == "" {
		s.writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":    "Missing method parameter",
			"received": req,
		})
		return
	}

	switch req.Method {
	case "initialize":
		s.writeJSON(w, http.StatusOK, rpcResponse{
			ID:     req.ID,
			Result: s.dispatcher.InitializeResult(httpProtocolVersion),
		})

	case "tools/list":
		s.writeJSON(w, http.StatusOK, rpcResponse{
			ID:     req.ID,
			Result: s.dispatcher.ToolList(),
		})

	case "tools/call":
		result, err := s.dispatcher.CallTool(r.Context(), req.Params)
		if err != nil {
			if errors.Is(err, tools.ErrToolNotFound) {
				name, _ := req.Params["name"].(string)
				s.writeJSON(w, http.StatusNotFound, rpcResponse{
					ID: req.ID,
					Error: &rpcError{
						Code:    codeMethodNotFound,
						Message: fmt.Sprintf("Tool %s not found", name),
						Data:    map[string]any{"availableTools": s.dispatcher.ToolNames()},
					},
				})
				return
			}
			s.logger.Error("MCP tool call failed", zap.Error(err))
			s.writeJSON(w, http.StatusInternalServerError, rpcResponse{
				ID:    req.ID,
				Error: &rpcError{Code: codeInternalError, Message: err.Error()},
			})
			return
		}
		s.writeJSON(w, http.StatusOK, rpcResponse{ID: req.ID, Result: result})

	default:
		s.writeJSON(w, http.StatusBadRequest, rpcResponse{
			ID: req.ID,
			Error: &rpcError{
				Code:    codeMethodNotFound,
				Message: "Method not found",
				Data: map[string]any{
					"method":           req.Method,
					"availableMethods": []string{"tools/list", "tools/call"},
				},
			},
		})
	}
}

// handleToken is a stub token endpoint: it hands a static bearer token
// to any client, which is enough to satisfy connectors that refuse to
// talk without completing an OAuth flow.
func (s *HTTPServer) handleToken(w http.ResponseWriter, r *http.Request) {
	s.logger.Debug("OAuth token request", zap.String("remoteAddr", r.RemoteAddr))
	s.writeJSON(w, http.StatusOK, map[string]any{
		"access_token": "brave-mcp-access-token",
		"token_type":   "Bearer",
		"expires_in":   86400,
		"scope":        "read write",
	})
}

func (s *HTTPServer) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("response_type") != "code" {
		s.writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":     "unsupported_response_type",
			"supported": []string{"code"},
		})
		return
	}

	code := fmt.Sprintf("brave-auth-code-%09d", rand.Intn(1_000_000_000))
	redirect := q.Get("redirect_uri") + "?code=" + code
	if state := q.Get("state"); state != "" {
		redirect += "&state=" + url.QueryEscape(state)
	}
	s.logger.Debug("OAuth authorize redirect", zap.String("redirect", redirect))
	http.Redirect(w, r, redirect, http.StatusFound)
}

func (s *HTTPServer) handleOpenIDConfiguration(w http.ResponseWriter, r *http.Request) {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	baseURL := scheme + "://" + r.Host

	s.writeJSON(w, http.StatusOK, map[string]any{
		"issuer":                                baseURL,
		"authorization_endpoint":                baseURL + "/authorize",
		"token_endpoint":                        baseURL + "/token",
		"response_types_supported":              []string{"code"},
		"grant_types_supported":                 []string{"authorization_code"},
		"token_endpoint_auth_methods_supported": []string{"client_secret_post", "client_secret_basic", "none"},
	})
}

// corsMiddleware allows cross-origin access for browser-based clients.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
