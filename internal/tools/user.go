package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/Carrieukie/spotify-mcp-server/internal/formatter"
)

func (r *Registry) userTools() []Tool {
	return []Tool{
		{
			Definition: mcp.NewTool("get-user-profile-spotify",
				mcp.WithDescription("Show the current user's Spotify profile"),
				mcp.WithReadOnlyHintAnnotation(true),
				mcp.WithBoolean("refresh", mcp.Description("Fetch from Spotify instead of the cached profile")),
			),
			Handler: r.wrap("get-user-profile-spotify", r.profile),
		},
		{
			Definition: mcp.NewTool("auth-status-spotify",
				mcp.WithDescription("Show stored Spotify credentials (redacted) and the token state"),
				mcp.WithReadOnlyHintAnnotation(true),
				mcp.WithBoolean("validate", mcp.Description("Check the token against Spotify, refreshing or authorizing if needed")),
			),
			Handler: r.wrap("auth-status-spotify", r.authStatus),
		},
	}
}

func (r *Registry) profile(ctx context.Context, a args) (string, error) {
	refresh, err := a.boolean("refresh")
	if err != nil {
		return "", err
	}

	load := r.spotify.CurrentUserProfile
	if refresh {
		load = r.spotify.RefreshUserProfile
	}
	user, err := load(ctx)
	if err != nil {
		return "", err
	}
	return formatter.Profile(user), nil
}

func (r *Registry) authStatus(ctx context.Context, a args) (string, error) {
	validate, err := a.boolean("validate")
	if err != nil {
		return "", err
	}

	status := formatter.AuthStatus{Backend: r.backend}
	if validate {
		_, status.Probe = r.tokens.AccessToken(ctx)
		status.Probed = true
	}
	status.Record, status.Present = r.tokens.Record()
	status.State = r.tokens.State()
	return formatter.Auth(status), nil
}
