// File: internal/server/stdio.go
package server

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"
)

// maxLineBytes bounds a single stdio frame. Tool results carrying
// screenshots can get large, so this is generous.
const maxLineBytes = 64 * 1024 * 1024

// StdioServer speaks line-delimited JSON-RPC 2.0: one request per
// line in, one response per line out. Logs must go to stderr; stdout
// carries frames only.
type StdioServer struct {
	dispatcher *Dispatcher
	logger     *zap.Logger
	in         io.Reader

	mu  sync.Mutex
	out io.Writer
}

func NewStdioServer(d *Dispatcher, in io.Reader, out io.Writer, logger *zap.Logger) *StdioServer {
	return &StdioServer{
		dispatcher: d,
		logger:     logger.Named("stdio"),
		in:         in,
		out:        out,
	}
}

// Run reads requests until EOF or context cancellation.
func (s *StdioServer) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(s.in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	s.logger.Info("Stdio transport ready")

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req rpcRequest
		if err := json.Unmarshal(line, &req); err != nil {
			s.logger.Warn("Unparseable frame", zap.Error(err))
			// A frame that does not parse has no usable id.
			s.write(rpcResponse{
				JSONRPC: "2.0",
				ID:      nil,
				Error:   &rpcError{Code: codeParseError, Message: "Parse error"},
			})
			continue
		}

		s.write(s.handle(ctx, req))
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}
	return nil
}

func (s *StdioServer) handle(ctx context.Context, req rpcRequest) rpcResponse {
	s.logger.Debug("Request received", zap.String("method", req.Method))
	resp := rpcResponse{JSONRPC: "2.0", ID: req.ID}

	switch req.Method {
	case "initialize":
		resp.Result = s.dispatcher.InitializeResult(stdioProtocolVersion)
	case "tools/list":
		resp.Result = s.dispatcher.ToolList()
	case "tools/call":
		result, err := s.dispatcher.CallTool(ctx, req.Params)
		if err != nil {
			resp.Error = &rpcError{Code: codeInternalError, Message: err.Error()}
			break
		}
		resp.Result = result
	default:
		resp.Error = &rpcError{
			Code:    codeInternalError,
			Message: fmt.Sprintf("Unknown method: %s", req.Method),
		}
	}
	return resp
}

func (s *StdioServer) write(resp rpcResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error("Could not encode response", zap.Error(err))
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.out.Write(append(data, '\n')); err != nil {
		s.logger.Error("Could not write response", zap.Error(err))
	}
}
