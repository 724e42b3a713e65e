package tools

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/server"

	"github.com/Carrieukie/spotify-mcp-server/internal/shared"
)

// Transport names accepted by [Serve].
const (
	TransportStdio = "stdio"
	TransportSSE   = "sse"
	TransportHTTP  = "http"
)

// Transports lists the supported transports.
var Transports = []string{TransportStdio, TransportSSE, TransportHTTP}

// ServeOptions selects the transport and where it listens.
type ServeOptions struct {
	Transport string
	Addr      string
	BaseURL   string
	Stdin     io.Reader
	Stdout    io.Writer
	Logger    *log.Logger
}

// Serve runs s on the selected transport until ctx is done or the transport fails.
func Serve(ctx context.Context, s *server.MCPServer, opts ServeOptions) error {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	switch strings.ToLower(opts.Transport) {
	case "", TransportStdio:
		in, out := opts.Stdin, opts.Stdout
		if in == nil {
			in = os.Stdin
		}
		if out == nil {
			out = os.Stdout
		}
		logger.Info("serving MCP over stdio")
		err := server.NewStdioServer(s).Listen(ctx, in, out)
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil

	case TransportSSE:
		baseURL := opts.BaseURL
		if baseURL == "" {
			baseURL = "http://" + opts.Addr
		}
		sse := server.NewSSEServer(s,
			server.WithBaseURL(baseURL),
			server.WithSSEEndpoint("/sse"),
			server.WithMessageEndpoint("/message"),
			server.WithKeepAlive(true),
			server.WithKeepAliveInterval(30*time.Second),
		)
		logger.Info("serving MCP over SSE", "addr", opts.Addr, "endpoint", baseURL+"/sse")
		return runHTTP(ctx, logger, func() error { return sse.Start(opts.Addr) }, sse.Shutdown)

	case TransportHTTP:
		streamable := server.NewStreamableHTTPServer(s)
		logger.Info("serving MCP over streamable HTTP", "addr", opts.Addr, "endpoint", "/mcp")
		return runHTTP(ctx, logger, func() error { return streamable.Start(opts.Addr) }, streamable.Shutdown)

	default:
		return fmt.Errorf("%w: unknown transport %q (want %s)", shared.ErrInvalidConfig, opts.Transport, strings.Join(Transports, ", "))
	}
}

func runHTTP(ctx context.Context, logger *log.Logger, start func() error, shutdown func(context.Context) error) error {
	errc := make(chan error, 1)
	go func() { errc <- start() }()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("shutting down MCP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}
