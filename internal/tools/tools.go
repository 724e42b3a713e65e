package tools

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/Carrieukie/spotify-mcp-server/internal/auth"
	"github.com/Carrieukie/spotify-mcp-server/internal/services"
	"github.com/Carrieukie/spotify-mcp-server/internal/shared"
)

const (
	ServerName    = "spotify-mcp"
	ServerVersion = "1.0.0"
)

// Spotify is the subset of [services.SpotifyService] the tools call.
type Spotify interface {
	Search(ctx context.Context, params services.SearchParams) (*services.SpotifySearchResponse, error)
	Play(ctx context.Context, req services.PlayRequest) error
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
	SkipToNext(ctx context.Context) error
	SkipToPrevious(ctx context.Context) error
	SeekToPosition(ctx context.Context, positionMs int) error
	SetRepeatMode(ctx context.Context, state string) error
	SetVolume(ctx context.Context, percent int) error
	Queue(ctx context.Context) (*services.SpotifyQueue, error)

	CurrentUserProfile(ctx context.Context) (*services.SpotifyUser, error)
	RefreshUserProfile(ctx context.Context) (*services.SpotifyUser, error)

	CurrentUserPlaylists(ctx context.Context, limit, offset int) (*services.Page[services.SpotifySimplePlaylist], error)
	PlaylistItems(ctx context.Context, playlistID string, limit, offset int) (*services.Page[services.SpotifyPlaylistTrack], error)
	AddPlaylistTracks(ctx context.Context, playlistID string, uris []string, position *int) (string, error)
	RemovePlaylistTracks(ctx context.Context, playlistID string, uris []string, snapshotID string) (string, error)
	CreatePlaylist(ctx context.Context, userID string, req services.CreatePlaylistRequest) (*services.SpotifyPlaylist, error)
}

// TokenStatus reports on the credential lifecycle. [auth.Manager] implements it.
type TokenStatus interface {
	State() auth.State
	Record() (auth.TokenRecord, bool)
	AccessToken(ctx context.Context) (string, error)
}

// Tool pairs a tool definition with its handler.
type Tool struct {
	Definition mcp.Tool
	Handler    server.ToolHandlerFunc
}

// Options configures a [Registry].
type Options struct {
	Backend string // storage backend name shown by auth-status-spotify
	Logger  *log.Logger
}

// Registry builds the Spotify tool set.
type Registry struct {
	spotify Spotify
	tokens  TokenStatus
	backend string
	logger  *log.Logger
	tools   []Tool
}

func NewRegistry(spotify Spotify, tokens TokenStatus, opts Options) (*Registry, error) {
	if spotify == nil || tokens == nil {
		return nil, fmt.Errorf("%w: tools need a spotify service and a token manager", shared.ErrInvalidConfig)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	r := &Registry{spotify: spotify, tokens: tokens, backend: opts.Backend, logger: logger}
	r.tools = append(r.tools, r.playerTools()...)
	r.tools = append(r.tools, r.playlistTools()...)
	r.tools = append(r.tools, r.userTools()...)
	return r, nil
}

// Tools returns the registered tools sorted by name.
func (r *Registry) Tools() []Tool {
	out := make([]Tool, len(r.tools))
	copy(out, r.tools)
	sort.Slice(out, func(i, j int) bool { return out[i].Definition.Name < out[j].Definition.Name })
	return out
}

// Lookup returns the tool called name.
func (r *Registry) Lookup(name string) (Tool, bool) {
	for _, t := range r.tools {
		if t.Definition.Name == name {
			return t, true
		}
	}
	return Tool{}, false
}

// Register adds every tool to s.
func (r *Registry) Register(s *server.MCPServer) {
	for _, t := range r.tools {
		s.AddTool(t.Definition, t.Handler)
	}
}

// NewServer returns an MCP server with every tool of r registered.
func NewServer(r *Registry) *server.MCPServer {
	s := server.NewMCPServer(
		ServerName,
		ServerVersion,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	r.Register(s)
	return s
}

// handlerFunc is a tool body that either renders text or fails.
type handlerFunc func(ctx context.Context, a args) (string, error)

// wrap logs each call and turns a failure into an error result.
func (r *Registry) wrap(name string, fn handlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := fn(ctx, args(req.GetArguments()))
		if err != nil {
			r.logger.Warn("tool failed", "tool", name, "error", err)
			return mcp.NewToolResultError(errorText(err)), nil
		}
		r.logger.Debug("tool called", "tool", name)
		return mcp.NewToolResultText(text), nil
	}
}

// errorText renders err, adding a hint when the user has to act.
func errorText(err error) string {
	msg := "Error: " + err.Error()
	switch {
	case errors.Is(err, shared.ErrNoRefreshToken):
		return msg + "\nRe-authorize with `spotmcp auth login`."
	case errors.Is(err, shared.ErrMissingCredentials):
		return msg + "\nSet SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET."
	case errors.Is(err, shared.ErrPlaylistNotFound):
		return msg + "\nUse get-playlists-spotify to list playlist IDs."
	}
	switch auth.StatusOf(err) {
	case http.StatusForbidden:
		return msg + "\nThe account may need Spotify Premium or a missing scope."
	case http.StatusNotFound:
		return msg + "\nNo active device or item was found. Start Spotify on a device and retry."
	case http.StatusTooManyRequests:
		return msg + "\nRate limited by Spotify. Retry shortly."
	}
	return msg
}

// limitOffset reads the common paging arguments.
func limitOffset(a args) (int, int, error) {
	limit, err := a.intOr("limit", 0)
	if err != nil {
		return 0, 0, err
	}
	offset, err := a.intOr("offset", 0)
	if err != nil {
		return 0, 0, err
	}
	if offset < 0 {
		return 0, 0, fmt.Errorf("%w: offset must not be negative", shared.ErrInvalidArgument)
	}
	return limit, offset, nil
}

func pagingOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithNumber("limit", mcp.Description("Maximum number of items to return (1-50, default 20)"), mcp.Min(1), mcp.Max(50)),
		mcp.WithNumber("offset", mcp.Description("Index of the first item to return"), mcp.Min(0)),
	}
}
