package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/Carrieukie/spotify-mcp-server/internal/shared"
)

// PlayOffset selects where in a context playback starts: by zero-based position or by item URI.
type PlayOffset struct {
	Position *int  `json:"position,omitempty"`
	URI      string `json:"uri,omitempty"`
}

// PlayRequest describes what to start playing. The zero value resumes the current context.
//
// URIs and ContextURI are mutually exclusive; Offset only applies to ContextURI.
type PlayRequest struct {
	URIs       []string
	ContextURI string
	Offset     *PlayOffset
	PositionMs int
	DeviceID   string
}

type playBody struct {
	ContextURI string      `json:"context_uri,omitempty"`
	URIs       []string    `json:"uris,omitempty"`
	Offset     *PlayOffset `json:"offset,omitempty"`
	PositionMs int         `json:"position_ms,omitempty"`
}

func (r PlayRequest) validate() error {
	if len(r.URIs) > 0 && r.ContextURI != "" {
		return fmt.Errorf("%w: uris and context_uri cannot be combined", shared.ErrInvalidArgument)
	}
	if r.Offset != nil && r.ContextURI == "" {
		return fmt.Errorf("%w: offset requires context_uri", shared.ErrInvalidArgument)
	}
	if r.PositionMs < 0 {
		return fmt.Errorf("%w: position_ms must not be negative", shared.ErrInvalidArgument)
	}
	return nil
}

func (r PlayRequest) body() any {
	if len(r.URIs) == 0 && r.ContextURI == "" && r.PositionMs == 0 {
		return nil
	}
	return playBody{ContextURI: r.ContextURI, URIs: r.URIs, Offset: r.Offset, PositionMs: r.PositionMs}
}

func deviceQuery(deviceID string) url.Values {
	if deviceID == "" {
		return nil
	}
	return url.Values{"device_id": {deviceID}}
}

// Play starts or resumes playback (PUT /me/player/play).
func (s *SpotifyService) Play(ctx context.Context, req PlayRequest) error {
	if err := req.validate(); err != nil {
		return err
	}
	return s.doRequest(ctx, http.MethodPut, "/me/player/play", deviceQuery(req.DeviceID), req.body(), nil)
}

// Resume continues the current context without changing it.
func (s *SpotifyService) Resume(ctx context.Context) error {
	return s.Play(ctx, PlayRequest{})
}

// Pause pauses playback on the active device.
func (s *SpotifyService) Pause(ctx context.Context) error {
	return s.doRequest(ctx, http.MethodPut, "/me/player/pause", nil, nil, nil)
}

func (s *SpotifyService) SkipToNext(ctx context.Context) error {
	return s.doRequest(ctx, http.MethodPost, "/me/player/next", nil, nil, nil)
}

func (s *SpotifyService) SkipToPrevious(ctx context.Context) error {
	return s.doRequest(ctx, http.MethodPost, "/me/player/previous", nil, nil, nil)
}

// SeekToPosition moves playback to positionMs in the current item.
func (s *SpotifyService) SeekToPosition(ctx context.Context, positionMs int) error {
	if positionMs < 0 {
		return fmt.Errorf("%w: position_ms must not be negative", shared.ErrInvalidArgument)
	}
	q := url.Values{"position_ms": {fmt.Sprint(positionMs)}}
	return s.doRequest(ctx, http.MethodPut, "/me/player/seek", q, nil, nil)
}

// RepeatModes lists the accepted values for [SpotifyService.SetRepeatMode].
var RepeatModes = []string{"track", "context", "off"}

func (s *SpotifyService) SetRepeatMode(ctx context.Context, state string) error {
	state = strings.ToLower(strings.TrimSpace(state))
	if !slices.Contains(RepeatModes, state) {
		return fmt.Errorf("%w: repeat state must be one of %s", shared.ErrInvalidArgument, strings.Join(RepeatModes, ", "))
	}
	return s.doRequest(ctx, http.MethodPut, "/me/player/repeat", url.Values{"state": {state}}, nil, nil)
}

// SetVolume sets the active device volume in percent (0..100).
func (s *SpotifyService) SetVolume(ctx context.Context, percent int) error {
	if percent < 0 || percent > 100 {
		return fmt.Errorf("%w: volume must be between 0 and 100, got %d", shared.ErrInvalidArgument, percent)
	}
	q := url.Values{"volume_percent": {fmt.Sprint(percent)}}
	return s.doRequest(ctx, http.MethodPut, "/me/player/volume", q, nil, nil)
}

// Queue returns the currently playing item and the upcoming queue.
func (s *SpotifyService) Queue(ctx context.Context) (*SpotifyQueue, error) {
	var queue SpotifyQueue
	if err := s.doRequest(ctx, http.MethodGet, "/me/player/queue", nil, nil, &queue); err != nil {
		return nil, err
	}
	return &queue, nil
}

// SearchTypes lists the item types accepted by [SpotifyService.Search].
var SearchTypes = []string{"album", "artist", "playlist", "track", "show", "episode", "audiobook"}

// SearchParams are the query parameters of GET /search.
type SearchParams struct {
	Query           string
	Type            string // comma separated; defaults to "track"
	Limit           int
	Offset          int
	Market          string
	IncludeExternal string // "audio" or empty
}

func (p SearchParams) values() (url.Values, error) {
	if strings.TrimSpace(p.Query) == "" {
		return nil, fmt.Errorf("%w: query", shared.ErrMissingArgument)
	}

	kind := strings.ReplaceAll(strings.ToLower(p.Type), " ", "")
	if kind == "" {
		kind = "track"
	}
	for _, t := range strings.Split(kind, ",") {
		if !slices.Contains(SearchTypes, t) {
			return nil, fmt.Errorf("%w: unknown search type %q", shared.ErrInvalidArgument, t)
		}
	}

	q := pageQuery(p.Limit, p.Offset)
	q.Set("q", p.Query)
	q.Set("type", kind)
	if p.Market != "" {
		q.Set("market", p.Market)
	}
	if p.IncludeExternal != "" {
		q.Set("include_external", p.IncludeExternal)
	}
	return q, nil
}

// Search looks up catalog items matching params.
func (s *SpotifyService) Search(ctx context.Context, params SearchParams) (*SpotifySearchResponse, error) {
	q, err := params.values()
	if err != nil {
		return nil, err
	}

	var response SpotifySearchResponse
	if err := s.doRequest(ctx, http.MethodGet, "/search", q, nil, &response); err != nil {
		return nil, err
	}
	return &response, nil
}
