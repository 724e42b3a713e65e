package main

import (
	"cmp"
	"context"

	"github.com/urfave/cli/v3"

	"github.com/Carrieukie/spotify-mcp-server/internal/tools"
)

// Serve builds the tool registry and runs the MCP server on the configured transport.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	a, err := r.wire()
	if err != nil {
		return err
	}
	defer a.close()

	if record, ok := a.store.Load(); !ok || !record.HasAccessToken() {
		r.logger.Warn("no stored Spotify tokens; the first tool call will start browser authorization",
			"hint", "run `spotmcp auth login` first")
	}

	transport := cmp.Or(cmd.String("transport"), r.config.Server.Transport)
	addr := cmp.Or(cmd.String("addr"), r.config.Server.Addr)
	baseURL := r.config.Server.BaseURL
	if cmd.String("addr") != "" {
		baseURL = ""
	}

	r.logger.Info("starting spotify MCP server", "transport", transport, "tools", len(a.registry.Tools()), "storage", a.backend)
	return tools.Serve(ctx, tools.NewServer(a.registry), tools.ServeOptions{
		Transport: transport,
		Addr:      addr,
		BaseURL:   baseURL,
		Stdout:    r.output,
		Logger:    r.logger,
	})
}
