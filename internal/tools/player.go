package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/Carrieukie/spotify-mcp-server/internal/formatter"
	"github.com/Carrieukie/spotify-mcp-server/internal/services"
	"github.com/Carrieukie/spotify-mcp-server/internal/shared"
)

func (r *Registry) playerTools() []Tool {
	searchOpts := []mcp.ToolOption{
		mcp.WithDescription("Search the Spotify catalog for tracks, albums, artists or playlists"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search keywords")),
		mcp.WithString("type",
			mcp.Description("Comma separated item types: "+strings.Join(services.SearchTypes, ", ")+" (default track)"),
		),
		mcp.WithString("market", mcp.Description("ISO 3166-1 alpha-2 country code")),
	}
	searchOpts = append(searchOpts, pagingOptions()...)

	return []Tool{
		{
			Definition: mcp.NewTool("search-spotify", searchOpts...),
			Handler:    r.wrap("search-spotify", r.search),
		},
		{
			Definition: mcp.NewTool("play-spotify",
				mcp.WithDescription("Start playback of tracks or a context (album, artist, playlist). Without arguments resumes"),
				mcp.WithArray("uris", mcp.Description("Track or episode URIs to play"), mcp.Items(map[string]any{"type": "string"})),
				mcp.WithString("context_uri", mcp.Description("Album, artist or playlist URI to play")),
				mcp.WithNumber("offset_position", mcp.Description("Zero-based position in the context to start from"), mcp.Min(0)),
				mcp.WithString("offset_uri", mcp.Description("URI of the context item to start from")),
				mcp.WithNumber("position_ms", mcp.Description("Position in the first item to start from"), mcp.Min(0)),
				mcp.WithString("device_id", mcp.Description("Device to play on (default the active device)")),
			),
			Handler: r.wrap("play-spotify", r.play),
		},
		{
			Definition: mcp.NewTool("pause-playback-spotify", mcp.WithDescription("Pause playback on the active device")),
			Handler: r.wrap("pause-playback-spotify", func(ctx context.Context, _ args) (string, error) {
				return "Playback paused.", r.spotify.Pause(ctx)
			}),
		},
		{
			Definition: mcp.NewTool("resume-playback-spotify", mcp.WithDescription("Resume playback of the current context")),
			Handler: r.wrap("resume-playback-spotify", func(ctx context.Context, _ args) (string, error) {
				return "Playback resumed.", r.spotify.Resume(ctx)
			}),
		},
		{
			Definition: mcp.NewTool("skip-to-next-spotify", mcp.WithDescription("Skip to the next item in the queue")),
			Handler: r.wrap("skip-to-next-spotify", func(ctx context.Context, _ args) (string, error) {
				return "Skipped to next track.", r.spotify.SkipToNext(ctx)
			}),
		},
		{
			Definition: mcp.NewTool("skip-to-previous-spotify", mcp.WithDescription("Skip to the previous item")),
			Handler: r.wrap("skip-to-previous-spotify", func(ctx context.Context, _ args) (string, error) {
				return "Skipped to previous track.", r.spotify.SkipToPrevious(ctx)
			}),
		},
		{
			Definition: mcp.NewTool("seek-to-position-spotify",
				mcp.WithDescription("Seek to a position in the currently playing item"),
				mcp.WithNumber("position_ms", mcp.Required(), mcp.Description("Position in milliseconds"), mcp.Min(0)),
			),
			Handler: r.wrap("seek-to-position-spotify", r.seek),
		},
		{
			Definition: mcp.NewTool("set-repeat-mode-spotify",
				mcp.WithDescription("Set the repeat mode"),
				mcp.WithString("state", mcp.Required(), mcp.Description("Repeat mode"), mcp.Enum(services.RepeatModes...)),
			),
			Handler: r.wrap("set-repeat-mode-spotify", r.repeat),
		},
		{
			Definition: mcp.NewTool("set-volume-spotify",
				mcp.WithDescription("Set the volume of the active device"),
				mcp.WithNumber("volume_percent", mcp.Required(), mcp.Description("Volume from 0 to 100"), mcp.Min(0), mcp.Max(100)),
			),
			Handler: r.wrap("set-volume-spotify", r.volume),
		},
		{
			Definition: mcp.NewTool("get-queue-spotify",
				mcp.WithDescription("Show the currently playing item and the upcoming queue"),
				mcp.WithReadOnlyHintAnnotation(true),
			),
			Handler: r.wrap("get-queue-spotify", r.queue),
		},
	}
}

func (r *Registry) search(ctx context.Context, a args) (string, error) {
	query, err := a.requireText("query")
	if err != nil {
		return "", err
	}
	kind, err := a.text("type")
	if err != nil {
		return "", err
	}
	market, err := a.text("market")
	if err != nil {
		return "", err
	}
	limit, offset, err := limitOffset(a)
	if err != nil {
		return "", err
	}

	results, err := r.spotify.Search(ctx, services.SearchParams{
		Query:  query,
		Type:   kind,
		Limit:  limit,
		Offset: offset,
		Market: market,
	})
	if err != nil {
		return "", err
	}
	return formatter.SearchResults(query, results), nil
}

func (r *Registry) play(ctx context.Context, a args) (string, error) {
	var req services.PlayRequest
	var err error

	if req.URIs, err = a.list("uris"); err != nil {
		return "", err
	}
	if req.ContextURI, err = a.text("context_uri"); err != nil {
		return "", err
	}
	if req.DeviceID, err = a.text("device_id"); err != nil {
		return "", err
	}
	if req.PositionMs, err = a.intOr("position_ms", 0); err != nil {
		return "", err
	}

	position, err := a.optionalInt("offset_position")
	if err != nil {
		return "", err
	}
	offsetURI, err := a.text("offset_uri")
	if err != nil {
		return "", err
	}
	if position != nil && offsetURI != "" {
		return "", fmt.Errorf("%w: offset_position and offset_uri cannot be combined", shared.ErrInvalidArgument)
	}
	if position != nil || offsetURI != "" {
		req.Offset = &services.PlayOffset{Position: position, URI: offsetURI}
	}

	if err := r.spotify.Play(ctx, req); err != nil {
		return "", err
	}
	switch {
	case req.ContextURI != "":
		return fmt.Sprintf("Playing %s.", req.ContextURI), nil
	case len(req.URIs) > 0:
		return fmt.Sprintf("Playing %d item(s).", len(req.URIs)), nil
	default:
		return "Playback resumed.", nil
	}
}

func (r *Registry) seek(ctx context.Context, a args) (string, error) {
	ms, err := a.requireInt("position_ms")
	if err != nil {
		return "", err
	}
	if err := r.spotify.SeekToPosition(ctx, ms); err != nil {
		return "", err
	}
	return fmt.Sprintf("Seeked to %s.", shared.FormatDuration(ms)), nil
}

func (r *Registry) repeat(ctx context.Context, a args) (string, error) {
	state, err := a.requireText("state")
	if err != nil {
		return "", err
	}
	if err := r.spotify.SetRepeatMode(ctx, state); err != nil {
		return "", err
	}
	return fmt.Sprintf("Repeat mode set to %s.", strings.ToLower(state)), nil
}

func (r *Registry) volume(ctx context.Context, a args) (string, error) {
	percent, err := a.requireInt("volume_percent")
	if err != nil {
		return "", err
	}
	if err := r.spotify.SetVolume(ctx, percent); err != nil {
		return "", err
	}
	return fmt.Sprintf("Volume set to %d%%.", percent), nil
}

func (r *Registry) queue(ctx context.Context, _ args) (string, error) {
	q, err := r.spotify.Queue(ctx)
	if err != nil {
		return "", err
	}
	return formatter.Queue(q), nil
}
