// File: internal/server/ws.go
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Tamas54/bravectl/internal/tools"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The HTTP surface already allows "*" via corsMiddleware; the
	// handshake has to match or cross-origin clients cannot connect.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Maximum frame size allowed from peer. Tool calls carry full
	// parameter maps, including scripts, so this is generous.
	maxMessageSize  = 1 * 1024 * 1024
	sendChannelSize = 64
)

// wsClient is a single websocket connection. All writes go through the
// send channel so the writePump is the only goroutine touching the
// connection's write side.
type wsClient struct {
	dispatcher *Dispatcher
	logger     *zap.Logger
	conn       *websocket.Conn
	send       chan rpcResponse
}

// handleWebsocket upgrades the connection and runs the pumps. Frames
// use the same JSON-RPC envelope as the other transports, correlated
// by id.
func (s *HTTPServer) handleWebsocket() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade already wrote an HTTP error response.
			s.logger.Error("Failed to upgrade connection to websocket", zap.Error(err))
			return
		}

		s.logger.Info("Websocket connection established", zap.String("remoteAddr", r.RemoteAddr))

		client := &wsClient{
			dispatcher: s.dispatcher,
			logger:     s.logger.Named("ws"),
			conn:       conn,
			send:       make(chan rpcResponse, sendChannelSize),
		}

		go client.writePump()
		// readPump blocks until the connection closes.
		client.readPump(r.Context())

		s.logger.Debug("Websocket handler finished", zap.String("remoteAddr", r.RemoteAddr))
	}
}

// readPump pumps frames from the connection to the dispatcher.
func (c *wsClient) readPump(ctx context.Context) {
	defer func() {
		close(c.send)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error("Failed to set initial read deadline", zap.Error(err))
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Error("Websocket closed unexpectedly", zap.Error(err))
			} else {
				c.logger.Info("Websocket connection closed")
			}
			return
		}

		var req rpcRequest
		if err := json.Unmarshal(data, &req); err != nil {
			c.send <- rpcResponse{
				ID:    nil,
				Error: &rpcError{Code: codeParseError, Message: "Parse error"},
			}
			continue
		}

		c.send <- c.handle(ctx, req)
	}
}

func (c *wsClient) handle(ctx context.Context, req rpcRequest) rpcResponse {
	switch req.Method {
	case "initialize":
		return rpcResponse{ID: req.ID, Result: c.dispatcher.InitializeResult(httpProtocolVersion)}

	case "tools/list":
		return rpcResponse{ID: req.ID, Result: c.dispatcher.ToolList()}

	case "tools/call":
		result, err := c.dispatcher.CallTool(ctx, req.Params)
		if err != nil {
			if errors.Is(err, tools.ErrToolNotFound) {
				name, _ := req.Params["name"].(string)
				return rpcResponse{
					ID: req.ID,
					Error: &rpcError{
						Code:    codeMethodNotFound,
						Message: fmt.Sprintf("Tool %s not found", name),
					},
				}
			}
			c.logger.Error("Websocket tool call failed", zap.Error(err))
			return rpcResponse{
				ID:    req.ID,
				Error: &rpcError{Code: codeInternalError, Message: err.Error()},
			}
		}
		return rpcResponse{ID: req.ID, Result: result}

	default:
		return rpcResponse{
			ID: req.ID,
			Error: &rpcError{
				Code:    codeMethodNotFound,
				Message: fmt.Sprintf("Unknown method: %s", req.Method),
			},
		}
	}
}

// writePump pumps responses to the connection and keeps it alive with
// periodic pings.
func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case resp, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Error("Failed to set write deadline", zap.Error(err))
				return
			}
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(resp); err != nil {
				c.logger.Error("Failed to write websocket frame", zap.Error(err))
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
