package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/didakt/internal/logger"
)

// Version is reported to clients during initialisation.
const Version = "0.1.0"

const shutdownGrace = 5 * time.Second

const instructions = `didakt works on didactic template documents (JSON).
Use validate_template to check a document, generate_criteria to get search
filters for one resource, enrich_resources to attach matching content from the
WirLernenOnline repository, and search_repository for ad-hoc lookups.`

// Server is the MCP server for didakt.
type Server struct {
	ports  *Ports
	server *mcp.Server
	tools  []string
}

// NewServer creates a new MCP server with the given ports.
// Tools whose backing port is nil are not registered.
func NewServer(ports *Ports) (*Server, error) {
	if ports == nil {
		return nil, ErrMissingValidator
	}
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	impl := &mcp.Implementation{
		Name:    "didakt",
		Version: Version,
	}

	s := &Server{
		ports:  ports,
		server: mcp.NewServer(impl, &mcp.ServerOptions{Instructions: instructions}),
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Tools returns the names of the registered tools in registration order.
func (s *Server) Tools() []string {
	return append([]string(nil), s.tools...)
}

// Run serves one client over stdin/stdout until ctx is done or the client
// disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Handler exposes the streamable HTTP transport on every path except
// GET /healthz, which reports the version and registered tools.
func (s *Server) Handler() http.Handler {
	streamable := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.server
	}, nil)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(health{Status: "ok", Version: Version, Tools: s.Tools()})
	})
	mux.Handle("/", streamable)
	return mux
}

type health struct {
	Status  string   `json:"status"`
	Version string   `json:"version"`
	Tools   []string `json:"tools"`
}

// RunHTTP listens on addr and serves Handler until ctx is done.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves Handler on ln until ctx is done, then drains open requests
// for up to shutdownGrace.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("mcp: shutdown: %v", err)
		}
	}()

	err := httpServer.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		<-stopped
		return nil
	}
	return err
}
