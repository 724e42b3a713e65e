package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/Carrieukie/spotify-mcp-server/internal/formatter"
	"github.com/Carrieukie/spotify-mcp-server/internal/services"
)

func (r *Registry) playlistTools() []Tool {
	listOpts := append([]mcp.ToolOption{
		mcp.WithDescription("List the current user's playlists"),
		mcp.WithReadOnlyHintAnnotation(true),
	}, pagingOptions()...)

	itemOpts := append([]mcp.ToolOption{
		mcp.WithDescription("List the tracks of a playlist"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("playlist_id", mcp.Required(), mcp.Description("Spotify playlist ID")),
		mcp.WithString("format", mcp.Description("Output format"), mcp.Enum(formatter.Formats...)),
	}, pagingOptions()...)

	uriItems := mcp.Items(map[string]any{"type": "string"})

	return []Tool{
		{
			Definition: mcp.NewTool("get-playlists-spotify", listOpts...),
			Handler:    r.wrap("get-playlists-spotify", r.playlists),
		},
		{
			Definition: mcp.NewTool("get-playlist-items-spotify", itemOpts...),
			Handler:    r.wrap("get-playlist-items-spotify", r.playlistItems),
		},
		{
			Definition: mcp.NewTool("add-tracks-to-playlist-spotify",
				mcp.WithDescription("Add tracks to a playlist (at most 100 per call)"),
				mcp.WithString("playlist_id", mcp.Required(), mcp.Description("Spotify playlist ID")),
				mcp.WithArray("uris", mcp.Required(), mcp.Description("Track URIs to add"), uriItems),
				mcp.WithNumber("position", mcp.Description("Zero-based insert position (default append)"), mcp.Min(0)),
			),
			Handler: r.wrap("add-tracks-to-playlist-spotify", r.addTracks),
		},
		{
			Definition: mcp.NewTool("remove-tracks-from-playlist-spotify",
				mcp.WithDescription("Remove every occurrence of the given tracks from a playlist"),
				mcp.WithDestructiveHintAnnotation(true),
				mcp.WithString("playlist_id", mcp.Required(), mcp.Description("Spotify playlist ID")),
				mcp.WithArray("uris", mcp.Required(), mcp.Description("Track URIs to remove"), uriItems),
				mcp.WithString("snapshot_id", mcp.Description("Playlist version to apply the change to")),
			),
			Handler: r.wrap("remove-tracks-from-playlist-spotify", r.removeTracks),
		},
		{
			Definition: mcp.NewTool("create-playlist-spotify",
				mcp.WithDescription("Create a playlist for the current user"),
				mcp.WithString("name", mcp.Required(), mcp.Description("Playlist name")),
				mcp.WithString("description", mcp.Description("Playlist description")),
				mcp.WithBoolean("public", mcp.Description("Whether the playlist is public")),
				mcp.WithBoolean("collaborative", mcp.Description("Whether others can edit the playlist")),
			),
			Handler: r.wrap("create-playlist-spotify", r.createPlaylist),
		},
	}
}

func (r *Registry) playlists(ctx context.Context, a args) (string, error) {
	limit, offset, err := limitOffset(a)
	if err != nil {
		return "", err
	}
	page, err := r.spotify.CurrentUserPlaylists(ctx, limit, offset)
	if err != nil {
		return "", err
	}
	return formatter.Playlists(page), nil
}

func (r *Registry) playlistItems(ctx context.Context, a args) (string, error) {
	id, err := a.requireText("playlist_id")
	if err != nil {
		return "", err
	}
	name, err := a.text("format")
	if err != nil {
		return "", err
	}
	format, err := formatter.ParseFormat(name)
	if err != nil {
		return "", err
	}
	limit, offset, err := limitOffset(a)
	if err != nil {
		return "", err
	}

	page, err := r.spotify.PlaylistItems(ctx, id, limit, offset)
	if err != nil {
		return "", err
	}
	data, err := formatter.PlaylistItems(id, page, format)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (r *Registry) addTracks(ctx context.Context, a args) (string, error) {
	id, err := a.requireText("playlist_id")
	if err != nil {
		return "", err
	}
	uris, err := a.requireList("uris")
	if err != nil {
		return "", err
	}
	position, err := a.optionalInt("position")
	if err != nil {
		return "", err
	}

	snapshot, err := r.spotify.AddPlaylistTracks(ctx, id, uris, position)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Added %d track(s) to playlist %s.\nSnapshot: %s", len(uris), id, snapshot), nil
}

func (r *Registry) removeTracks(ctx context.Context, a args) (string, error) {
	id, err := a.requireText("playlist_id")
	if err != nil {
		return "", err
	}
	uris, err := a.requireList("uris")
	if err != nil {
		return "", err
	}
	snapshotID, err := a.text("snapshot_id")
	if err != nil {
		return "", err
	}

	snapshot, err := r.spotify.RemovePlaylistTracks(ctx, id, uris, snapshotID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Removed %d track(s) from playlist %s.\nSnapshot: %s", len(uris), id, snapshot), nil
}

func (r *Registry) createPlaylist(ctx context.Context, a args) (string, error) {
	var req services.CreatePlaylistRequest
	var err error

	if req.Name, err = a.requireText("name"); err != nil {
		return "", err
	}
	if req.Description, err = a.text("description"); err != nil {
		return "", err
	}
	if req.Public, err = a.optionalBool("public"); err != nil {
		return "", err
	}
	if req.Collaborative, err = a.boolean("collaborative"); err != nil {
		return "", err
	}

	playlist, err := r.spotify.CreatePlaylist(ctx, "", req)
	if err != nil {
		return "", err
	}
	return "Created playlist.\n" + formatter.Playlist(playlist), nil
}
