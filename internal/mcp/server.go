// Package mcp serves the tool registry to Model Context Protocol clients as
// newline-delimited JSON-RPC 2.0 over stdio.
package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"runtime/debug"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/p-blackswan/google-ads-mcp/internal/adserr"
	"github.com/p-blackswan/google-ads-mcp/internal/requestid"
	"github.com/p-blackswan/google-ads-mcp/internal/response"
	"github.com/p-blackswan/google-ads-mcp/internal/tool"
)

// Tool call statuses passed to Recorder.
const (
	StatusSuccess       = "success"
	StatusFailure       = "failure"
	StatusInvalidInput  = "invalid_input"
	StatusNotConfigured = "not_configured"
	StatusCanceled      = "canceled"
	StatusError         = "error"
)

// Recorder observes tool calls, typically for metrics.
type Recorder interface {
	RecordToolCall(tool, status string, d time.Duration)
	RecordError(errType string, retryable bool)
}

// Options configure a Server.
type Options struct {
	Name    string
	Version string
	// IncludeDocs adds documentation links to error envelopes.
	IncludeDocs bool
	// MaxConcurrent bounds in-flight tool calls (default 4).
	MaxConcurrent int
	Resources     []Resource
	Formatter     *response.Formatter
	Recorder      Recorder
	Logger        zerolog.Logger
}

type handlerFunc func(ctx context.Context, params json.RawMessage) (any, error)

// Server dispatches MCP requests to a tool.Registry.
type Server struct {
	registry  *tool.Registry
	formatter *response.Formatter
	opts      Options
	logger    zerolog.Logger
	methods   map[string]handlerFunc
	resources map[string]Resource

	writeMu sync.Mutex
	enc     *json.Encoder

	inflightMu sync.Mutex
	inflight   map[string]context.CancelFunc
}

// NewServer creates a Server.
func NewServer(reg *tool.Registry, opts Options) *Server {
	if opts.Name == "" {
		opts.Name = "google-ads-mcp"
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 4
	}
	if opts.Resources == nil {
		opts.Resources = DefaultResources()
	}
	if opts.Formatter == nil {
		opts.Formatter = response.NewFormatter(nil)
	}

	s := &Server{
		registry:  reg,
		formatter: opts.Formatter,
		opts:      opts,
		logger:    opts.Logger.With().Str("component", "mcp").Logger(),
		resources: make(map[string]Resource, len(opts.Resources)),
		inflight:  make(map[string]context.CancelFunc),
	}
	for _, r := range opts.Resources {
		s.resources[r.URI] = r
	}
	s.methods = map[string]handlerFunc{
		"initialize":     s.initialize,
		"ping":           func(context.Context, json.RawMessage) (any, error) { return struct{}{}, nil },
		"tools/list":     s.listTools,
		"tools/call":     s.callTool,
		"resources/list": s.listResources,
		"resources/read": s.readResource,
	}
	return s
}

// Serve reads requests from in and writes responses to out until in is
// exhausted or ctx is canceled. Tool calls run concurrently; everything
// else is answered in order.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	s.enc = json.NewEncoder(out)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	// Slots are taken inside each call's goroutine so the read loop keeps
	// serving pings and cancellations when every slot is busy.
	slots := semaphore.NewWeighted(int64(s.opts.MaxConcurrent))

	lines := make(chan []byte)
	readErr := make(chan error, 1)
	go func() {
		readErr <- readLines(ctx, in, lines)
	}()

	for {
		select {
		case <-ctx.Done():
			_ = g.Wait()
			return ctx.Err()
		case err := <-readErr:
			_ = g.Wait()
			if errors.Is(err, io.EOF) {
				s.logger.Info().Msg("client closed input")
				return nil
			}
			return err
		case line := <-lines:
			req, rpcErr := decodeRequest(line)
			if rpcErr != nil {
				s.write(Response{JSONRPC: "2.0", ID: json.RawMessage("null"), Error: rpcErr})
				continue
			}
			if req.IsNotification() {
				s.notify(req)
				continue
			}
			if req.Method == "tools/call" {
				callCtx, done := s.track(gctx, req.ID)
				g.Go(func() error {
					defer done()
					if err := slots.Acquire(callCtx, 1); err != nil {
						s.write(Response{JSONRPC: "2.0", ID: req.ID, Error: &RPCError{Code: codeRequestCancelled, Message: "request cancelled before it started"}})
						return nil
					}
					defer slots.Release(1)
					s.handle(callCtx, req)
					return nil
				})
				continue
			}
			s.handle(ctx, req)
		}
	}
}

func readLines(ctx context.Context, in io.Reader, lines chan<- []byte) error {
	r := bufio.NewReader(in)
	for {
		line, err := r.ReadBytes('\n')
		if len(bytes.TrimSpace(line)) > 0 {
			select {
			case lines <- line:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err != nil {
			return err
		}
	}
}

func decodeRequest(line []byte) (*Request, *RPCError) {
	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		return nil, &RPCError{Code: codeParseError, Message: "parse error: " + err.Error()}
	}
	if req.JSONRPC != "2.0" || req.Method == "" {
		return nil, &RPCError{Code: codeInvalidRequest, Message: "invalid request: jsonrpc must be \"2.0\" and method set"}
	}
	return &req, nil
}

// track registers a cancelable context for an in-flight request so a
// notifications/cancelled can stop it.
func (s *Server) track(ctx context.Context, id json.RawMessage) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)
	key := string(id)
	s.inflightMu.Lock()
	s.inflight[key] = cancel
	s.inflightMu.Unlock()
	return ctx, func() {
		s.inflightMu.Lock()
		delete(s.inflight, key)
		s.inflightMu.Unlock()
		cancel()
	}
}

// handle runs one request and writes its response.
func (s *Server) handle(ctx context.Context, req *Request) {
	resp := Response{JSONRPC: "2.0", ID: req.ID}
	result, err := s.dispatch(ctx, req)
	if err != nil {
		var rpcErr *RPCError
		if !errors.As(err, &rpcErr) {
			rpcErr = &RPCError{Code: codeInternalError, Message: err.Error()}
		}
		resp.Error = rpcErr
	} else {
		resp.Result = result
	}
	s.write(resp)
}

func (s *Server) dispatch(ctx context.Context, req *Request) (result any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error().
				Str("method", req.Method).
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Msg("handler panic recovered")
			err = &RPCError{Code: codeInternalError, Message: fmt.Sprintf("internal error: %v", rec)}
		}
	}()

	h, ok := s.methods[req.Method]
	if !ok {
		return nil, &RPCError{Code: codeMethodNotFound, Message: "method not found: " + req.Method}
	}
	return h(ctx, req.Params)
}

func (s *Server) notify(req *Request) {
	switch req.Method {
	case "notifications/cancelled":
		var p cancelledParams
		if err := json.Unmarshal(req.Params, &p); err != nil || p.RequestID == nil {
			return
		}
		s.inflightMu.Lock()
		cancel, ok := s.inflight[string(p.RequestID)]
		s.inflightMu.Unlock()
		if ok {
			s.logger.Info().RawJSON("request", p.RequestID).Str("reason", p.Reason).Msg("request cancelled by client")
			cancel()
		}
	default:
		s.logger.Debug().Str("method", req.Method).Msg("notification ignored")
	}
}

func (s *Server) write(resp Response) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.enc.Encode(resp); err != nil {
		s.logger.Error().Err(err).Msg("failed to write response")
	}
}

func (s *Server) initialize(context.Context, json.RawMessage) (any, error) {
	return initializeResult{
		ProtocolVersion: ProtocolVersion,
		Capabilities: map[string]any{
			"tools":     map[string]any{"listChanged": false},
			"resources": map[string]any{"listChanged": false, "subscribe": false},
		},
		ServerInfo:   serverInfo{Name: s.opts.Name, Version: s.opts.Version},
		Instructions: "Google Ads tools. Failed calls return classified errors; retryable ones were already retried.",
	}, nil
}

func (s *Server) listTools(context.Context, json.RawMessage) (any, error) {
	return map[string]any{"tools": s.registry.Schemas()}, nil
}

func (s *Server) listResources(context.Context, json.RawMessage) (any, error) {
	return map[string]any{"resources": s.opts.Resources}, nil
}

func (s *Server) readResource(_ context.Context, params json.RawMessage) (any, error) {
	var p readResourceParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, &RPCError{Code: codeInvalidParams, Message: "invalid params: " + err.Error()}
	}
	r, ok := s.resources[p.URI]
	if !ok {
		return nil, &RPCError{Code: codeResourceNotFound, Message: "resource not found", Data: map[string]string{"uri": p.URI}}
	}
	return map[string]any{
		"contents": []resourceContents{{URI: r.URI, MimeType: r.MimeType, Text: r.text}},
	}, nil
}

// toolFailure is the text body of an isError result. Envelope is set when
// the error carried classified Google Ads errors.
type toolFailure struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Tool    string `json:"tool"`
	*response.Envelope
}

func (s *Server) callTool(ctx context.Context, params json.RawMessage) (any, error) {
	var p callToolParams
	if err := json.Unmarshal(params, &p); err != nil || p.Name == "" {
		return nil, &RPCError{Code: codeInvalidParams, Message: "invalid params: tool name required"}
	}

	ctx, id := requestid.New(ctx)
	log := s.logger.With().Str("tool", p.Name).Str("request_id", id).Logger()

	start := time.Now()
	out, err := s.registry.Execute(ctx, p.Name, p.Arguments)
	took := time.Since(start)

	if errors.Is(err, tool.ErrUnknownTool) {
		return nil, &RPCError{Code: codeInvalidParams, Message: err.Error()}
	}
	if err == nil {
		s.record(p.Name, StatusSuccess, took)
		log.Info().Dur("took", took).Msg("tool call completed")
		return callToolResult{Content: []content{{Type: "text", Text: out}}}, nil
	}

	body := toolFailure{Error: err.Error(), Tool: p.Name}
	status := classify(err)
	if env, ok := s.formatter.Format(ctx, err, s.opts.IncludeDocs); ok {
		body.Envelope = &env
		if s.opts.Recorder != nil {
			for _, e := range env.Errors {
				s.opts.Recorder.RecordError(e.Type, e.IsRetryable)
			}
		}
	}
	s.record(p.Name, status, took)
	log.Warn().Err(err).Str("status", status).Dur("took", took).Msg("tool call failed")

	text, mErr := json.MarshalIndent(body, "", "  ")
	if mErr != nil {
		return nil, mErr
	}
	return callToolResult{Content: []content{{Type: "text", Text: string(text)}}, IsError: true}, nil
}

func (s *Server) record(name, status string, d time.Duration) {
	if s.opts.Recorder != nil {
		s.opts.Recorder.RecordToolCall(name, status, d)
	}
}

func classify(err error) string {
	var f *adserr.Failure
	switch {
	case errors.Is(err, context.Canceled):
		return StatusCanceled
	case errors.As(err, &f):
		return StatusFailure
	case errors.Is(err, adserr.ErrInvalidInput):
		return StatusInvalidInput
	case errors.Is(err, adserr.ErrNotConfigured):
		return StatusNotConfigured
	}
	return StatusError
}
