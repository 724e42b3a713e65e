package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/Carrieukie/spotify-mcp-server/internal/shared"
)

// maxPlaylistItems is the per-request cap on added or removed items.
const maxPlaylistItems = 100

// CreatePlaylistRequest is the body of POST /users/{id}/playlists.
type CreatePlaylistRequest struct {
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	Public        *bool  `json:"public,omitempty"`
	Collaborative bool   `json:"collaborative,omitempty"`
}

type addTracksBody struct {
	URIs     []string `json:"uris"`
	Position *int     `json:"position,omitempty"`
}

type trackURI struct {
	URI string `json:"uri"`
}

type removeTracksBody struct {
	Tracks     []trackURI `json:"tracks"`
	SnapshotID string     `json:"snapshot_id,omitempty"`
}

func playlistPath(id string, suffix string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("%w: playlist_id", shared.ErrMissingArgument)
	}
	return "/playlists/" + url.PathEscape(id) + suffix, nil
}

func checkURIs(uris []string) error {
	if len(uris) == 0 {
		return fmt.Errorf("%w: uris", shared.ErrMissingArgument)
	}
	if len(uris) > maxPlaylistItems {
		return fmt.Errorf("%w: at most %d uris per request, got %d", shared.ErrInvalidArgument, maxPlaylistItems, len(uris))
	}
	return nil
}

// playlistNotFound tags 404 responses with [shared.ErrPlaylistNotFound].
func playlistNotFound(id string, err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
		return fmt.Errorf("%w: %s: %w", shared.ErrPlaylistNotFound, id, err)
	}
	return err
}

// CurrentUserPlaylists retrieves the current user's playlists with pagination.
func (s *SpotifyService) CurrentUserPlaylists(ctx context.Context, limit, offset int) (*Page[SpotifySimplePlaylist], error) {
	var response Page[SpotifySimplePlaylist]
	if err := s.doRequest(ctx, http.MethodGet, "/me/playlists", pageQuery(limit, offset), nil, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// PlaylistItems retrieves one page of a playlist's tracks.
func (s *SpotifyService) PlaylistItems(ctx context.Context, playlistID string, limit, offset int) (*Page[SpotifyPlaylistTrack], error) {
	endpoint, err := playlistPath(playlistID, "/tracks")
	if err != nil {
		return nil, err
	}

	var response Page[SpotifyPlaylistTrack]
	if err := s.doRequest(ctx, http.MethodGet, endpoint, pageQuery(limit, offset), nil, &response); err != nil {
		return nil, playlistNotFound(playlistID, err)
	}
	return &response, nil
}

// AddPlaylistTracks inserts uris at position (nil appends) and returns the new snapshot id.
func (s *SpotifyService) AddPlaylistTracks(ctx context.Context, playlistID string, uris []string, position *int) (string, error) {
	endpoint, err := playlistPath(playlistID, "/tracks")
	if err != nil {
		return "", err
	}
	if err := checkURIs(uris); err != nil {
		return "", err
	}
	if position != nil && *position < 0 {
		return "", fmt.Errorf("%w: position must not be negative", shared.ErrInvalidArgument)
	}

	var response snapshotResponse
	body := addTracksBody{URIs: uris, Position: position}
	if err := s.doRequest(ctx, http.MethodPost, endpoint, nil, body, &response); err != nil {
		return "", playlistNotFound(playlistID, err)
	}
	return response.SnapshotID, nil
}

// RemovePlaylistTracks removes every occurrence of uris. snapshotID may be empty.
func (s *SpotifyService) RemovePlaylistTracks(ctx context.Context, playlistID string, uris []string, snapshotID string) (string, error) {
	endpoint, err := playlistPath(playlistID, "/tracks")
	if err != nil {
		return "", err
	}
	if err := checkURIs(uris); err != nil {
		return "", err
	}

	body := removeTracksBody{SnapshotID: snapshotID}
	for _, u := range uris {
		body.Tracks = append(body.Tracks, trackURI{URI: u})
	}

	var response snapshotResponse
	if err := s.doRequest(ctx, http.MethodDelete, endpoint, nil, body, &response); err != nil {
		return "", playlistNotFound(playlistID, err)
	}
	return response.SnapshotID, nil
}

// CreatePlaylist creates a playlist owned by userID, or by the current user when userID is empty.
func (s *SpotifyService) CreatePlaylist(ctx context.Context, userID string, req CreatePlaylistRequest) (*SpotifyPlaylist, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: name", shared.ErrMissingArgument)
	}
	if req.Collaborative && req.Public != nil && *req.Public {
		return nil, fmt.Errorf("%w: collaborative playlists cannot be public", shared.ErrInvalidArgument)
	}

	if userID == "" {
		profile, err := s.CurrentUserProfile(ctx)
		if err != nil {
			return nil, err
		}
		userID = profile.ID
	}

	var playlist SpotifyPlaylist
	endpoint := "/users/" + url.PathEscape(userID) + "/playlists"
	if err := s.doRequest(ctx, http.MethodPost, endpoint, nil, req, &playlist); err != nil {
		return nil, err
	}
	return &playlist, nil
}
