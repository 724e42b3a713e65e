package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/Carrieukie/spotify-mcp-server/internal/auth"
	"github.com/Carrieukie/spotify-mcp-server/internal/shared"
	th "github.com/Carrieukie/spotify-mcp-server/internal/testing"
)

type staticTokens struct {
	token string
	err   error
	mu    sync.Mutex
	calls int
}

func (s *staticTokens) AccessToken(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.token, s.err
}

type recordedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Body   []byte
	Auth   string
}

type fakeAPI struct {
	*httptest.Server
	mu       sync.Mutex
	requests []recordedRequest
	status   int
	body     string
}

func newFakeAPI(t *testing.T, status int, body string) *fakeAPI {
	t.Helper()
	api := &fakeAPI{status: status, body: body}
	api.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		api.mu.Lock()
		api.requests = append(api.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
			Body:   data,
			Auth:   r.Header.Get("Authorization"),
		})
		api.mu.Unlock()

		if api.body != "" {
			w.Header().Set("Content-Type", "application/json")
		}
		w.WriteHeader(api.status)
		_, _ = w.Write([]byte(api.body))
	}))
	t.Cleanup(api.Close)
	return api
}

func (a *fakeAPI) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.requests)
}

func (a *fakeAPI) last(t *testing.T) recordedRequest {
	t.Helper()
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.requests) == 0 {
		t.Fatal("expected a request to the API")
	}
	return a.requests[len(a.requests)-1]
}

func (a *fakeAPI) service(t *testing.T, profiles ProfileStore) (*SpotifyService, *staticTokens) {
	t.Helper()
	tokens := &staticTokens{token: "tok"}
	srv, err := NewSpotifyService(tokens, profiles, ClientOptions{BaseURL: a.URL, HTTPClient: a.Client()})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	return srv, tokens
}

func decodeBody(t *testing.T, data []byte) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("decode body %q: %v", data, err)
	}
	return m
}

func TestSpotifyService(t *testing.T) {
	t.Run("NewSpotifyService Requires Tokens", func(t *testing.T) {
		if _, err := NewSpotifyService(nil, nil, ClientOptions{}); !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("Sends Bearer Token", func(t *testing.T) {
		api := newFakeAPI(t, http.StatusOK, `{"id":"u1","display_name":"Test User"}`)
		srv, _ := api.service(t, nil)

		user, err := srv.UserProfile(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if user.ID != "u1" || user.DisplayName != "Test User" {
			t.Errorf("unexpected user %+v", user)
		}

		req := api.last(t)
		if req.Auth != "Bearer tok" {
			t.Errorf("expected bearer header, got %q", req.Auth)
		}
		if req.Method != http.MethodGet || req.Path != "/me" {
			t.Errorf("unexpected request %s %s", req.Method, req.Path)
		}
	})

	t.Run("Token Failure Skips Request", func(t *testing.T) {
		api := newFakeAPI(t, http.StatusOK, `{}`)
		srv, tokens := api.service(t, nil)
		tokens.err = auth.NoRefreshTokenError()

		err := srv.Pause(context.Background())
		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("expected APIError, got %v", err)
		}
		if apiErr.Status != http.StatusUnauthorized {
			t.Errorf("expected status copied from auth error, got %d", apiErr.Status)
		}
		if !errors.Is(err, shared.ErrNoRefreshToken) {
			t.Error("expected auth error in chain")
		}
		if api.count() != 0 {
			t.Errorf("expected no API request, got %d", api.count())
		}
	})

	t.Run("401 Is Not Retried", func(t *testing.T) {
		api := newFakeAPI(t, http.StatusUnauthorized, `{"error":{"status":401,"message":"The access token expired"}}`)
		srv, tokens := api.service(t, nil)

		err := srv.SkipToNext(context.Background())
		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("expected APIError, got %v", err)
		}
		if apiErr.Status != http.StatusUnauthorized || apiErr.Message != "The access token expired" {
			t.Errorf("unexpected error %+v", apiErr)
		}
		if api.count() != 1 || tokens.calls != 1 {
			t.Errorf("expected one request and one token lookup, got %d and %d", api.count(), tokens.calls)
		}
	})

	t.Run("Non JSON Error Body", func(t *testing.T) {
		api := newFakeAPI(t, http.StatusBadGateway, "")
		srv, _ := api.service(t, nil)

		err := srv.Pause(context.Background())
		var apiErr *APIError
		if !errors.As(err, &apiErr) || apiErr.Message != http.StatusText(http.StatusBadGateway) {
			t.Errorf("expected status text fallback, got %v", err)
		}
		if auth.StatusOf(err) != http.StatusBadGateway {
			t.Errorf("expected StatusCode 502, got %d", auth.StatusOf(err))
		}
	})
}

func TestPlayer(t *testing.T) {
	t.Run("Play URIs", func(t *testing.T) {
		api := newFakeAPI(t, http.StatusNoContent, "")
		srv, _ := api.service(t, nil)

		err := srv.Play(context.Background(), PlayRequest{URIs: []string{"spotify:track:1"}, DeviceID: "dev"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		req := api.last(t)
		if req.Method != http.MethodPut || req.Path != "/me/player/play" {
			t.Errorf("unexpected request %s %s", req.Method, req.Path)
		}
		if req.Query.Get("device_id") != "dev" {
			t.Errorf("expected device_id, got %v", req.Query)
		}
		body := decodeBody(t, req.Body)
		if uris, ok := body["uris"].([]any); !ok || len(uris) != 1 || uris[0] != "spotify:track:1" {
			t.Errorf("unexpected body %s", req.Body)
		}
		if _, ok := body["context_uri"]; ok {
			t.Error("expected context_uri to be omitted")
		}
	})

	t.Run("Play Context With Offset", func(t *testing.T) {
		api := newFakeAPI(t, http.StatusNoContent, "")
		srv, _ := api.service(t, nil)

		pos := 2
		err := srv.Play(context.Background(), PlayRequest{
			ContextURI: "spotify:playlist:p1",
			Offset:     &PlayOffset{Position: &pos},
			PositionMs: 1500,
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		body := decodeBody(t, api.last(t).Body)
		if body["context_uri"] != "spotify:playlist:p1" {
			t.Errorf("unexpected body %v", body)
		}
		offset, _ := body["offset"].(map[string]any)
		if offset["position"] != float64(2) {
			t.Errorf("expected offset position 2, got %v", body["offset"])
		}
		if body["position_ms"] != float64(1500) {
			t.Errorf("expected position_ms 1500, got %v", body["position_ms"])
		}
	})

	t.Run("Play Validation", func(t *testing.T) {
		tests := []struct {
			name string
			req  PlayRequest
		}{
			{"uris and context", PlayRequest{URIs: []string{"a"}, ContextURI: "b"}},
			{"offset without context", PlayRequest{Offset: &PlayOffset{URI: "a"}, URIs: []string{"a"}}},
			{"negative position", PlayRequest{PositionMs: -1}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				api := newFakeAPI(t, http.StatusNoContent, "")
				srv, _ := api.service(t, nil)

				err := srv.Play(context.Background(), tt.req)
				if !errors.Is(err, shared.ErrInvalidArgument) {
					t.Errorf("expected ErrInvalidArgument, got %v", err)
				}
				if api.count() != 0 {
					t.Error("expected no request")
				}
			})
		}
	})

	t.Run("Resume Sends No Body", func(t *testing.T) {
		api := newFakeAPI(t, http.StatusNoContent, "")
		srv, _ := api.service(t, nil)

		if err := srv.Resume(context.Background()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if req := api.last(t); len(req.Body) != 0 || req.Path != "/me/player/play" {
			t.Errorf("expected empty play request, got %s %q", req.Path, req.Body)
		}
	})

	t.Run("Simple Commands", func(t *testing.T) {
		tests := []struct {
			name   string
			call   func(*SpotifyService) error
			method string
			path   string
			query  url.Values
		}{
			{"pause", func(s *SpotifyService) error { return s.Pause(context.Background()) }, http.MethodPut, "/me/player/pause", nil},
			{"next", func(s *SpotifyService) error { return s.SkipToNext(context.Background()) }, http.MethodPost, "/me/player/next", nil},
			{"previous", func(s *SpotifyService) error { return s.SkipToPrevious(context.Background()) }, http.MethodPost, "/me/player/previous", nil},
			{"seek", func(s *SpotifyService) error { return s.SeekToPosition(context.Background(), 30000) }, http.MethodPut, "/me/player/seek", url.Values{"position_ms": {"30000"}}},
			{"repeat", func(s *SpotifyService) error { return s.SetRepeatMode(context.Background(), "Context") }, http.MethodPut, "/me/player/repeat", url.Values{"state": {"context"}}},
			{"volume", func(s *SpotifyService) error { return s.SetVolume(context.Background(), 0) }, http.MethodPut, "/me/player/volume", url.Values{"volume_percent": {"0"}}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				api := newFakeAPI(t, http.StatusNoContent, "")
				srv, _ := api.service(t, nil)

				if err := tt.call(srv); err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				req := api.last(t)
				if req.Method != tt.method || req.Path != tt.path {
					t.Errorf("expected %s %s, got %s %s", tt.method, tt.path, req.Method, req.Path)
				}
				for key := range tt.query {
					if req.Query.Get(key) != tt.query.Get(key) {
						t.Errorf("expected %s=%s, got %q", key, tt.query.Get(key), req.Query.Get(key))
					}
				}
			})
		}
	})

	t.Run("Argument Validation", func(t *testing.T) {
		tests := []struct {
			name string
			call func(*SpotifyService) error
		}{
			{"negative seek", func(s *SpotifyService) error { return s.SeekToPosition(context.Background(), -5) }},
			{"bad repeat", func(s *SpotifyService) error { return s.SetRepeatMode(context.Background(), "shuffle") }},
			{"volume too high", func(s *SpotifyService) error { return s.SetVolume(context.Background(), 101) }},
			{"volume negative", func(s *SpotifyService) error { return s.SetVolume(context.Background(), -1) }},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				api := newFakeAPI(t, http.StatusNoContent, "")
				srv, _ := api.service(t, nil)

				if err := tt.call(srv); !errors.Is(err, shared.ErrInvalidArgument) {
					t.Errorf("expected ErrInvalidArgument, got %v", err)
				}
				if api.count() != 0 {
					t.Error("expected no request")
				}
			})
		}
	})

	t.Run("Queue", func(t *testing.T) {
		api := newFakeAPI(t, http.StatusOK, `{
			"currently_playing": {"name": "Now", "uri": "spotify:track:0", "artists": [{"name": "A"}]},
			"queue": [{"name": "Next", "uri": "spotify:track:1"}, {"name": "Later", "uri": "spotify:track:2"}]
		}`)
		srv, _ := api.service(t, nil)

		queue, err := srv.Queue(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if queue.CurrentlyPlaying == nil || queue.CurrentlyPlaying.Name != "Now" {
			t.Errorf("unexpected currently playing %+v", queue.CurrentlyPlaying)
		}
		if len(queue.Queue) != 2 || queue.Queue[1].Name != "Later" {
			t.Errorf("unexpected queue %+v", queue.Queue)
		}
	})
}

func TestSearch(t *testing.T) {
	t.Run("Parameters", func(t *testing.T) {
		api := newFakeAPI(t, http.StatusOK, `{"tracks":{"items":[{"name":"Song","uri":"spotify:track:1","artists":[{"name":"A"},{"name":"B"}]}],"total":1}}`)
		srv, _ := api.service(t, nil)

		resp, err := srv.Search(context.Background(), SearchParams{
			Query: "daft punk", Type: "track, artist", Limit: 100, Offset: 5, Market: "US", IncludeExternal: "audio",
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if resp.Tracks == nil || len(resp.Tracks.Items) != 1 {
			t.Fatalf("unexpected response %+v", resp)
		}
		if got := resp.Tracks.Items[0].ArtistNames(); got != "A, B" {
			t.Errorf("expected joined artists, got %q", got)
		}

		q := api.last(t).Query
		want := map[string]string{
			"q": "daft punk", "type": "track,artist", "limit": "50", "offset": "5",
			"market": "US", "include_external": "audio",
		}
		for key, v := range want {
			if q.Get(key) != v {
				t.Errorf("expected %s=%q, got %q", key, v, q.Get(key))
			}
		}
	})

	t.Run("Defaults", func(t *testing.T) {
		api := newFakeAPI(t, http.StatusOK, `{}`)
		srv, _ := api.service(t, nil)

		if _, err := srv.Search(context.Background(), SearchParams{Query: "x"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		q := api.last(t).Query
		if q.Get("type") != "track" || q.Get("limit") != "20" || q.Get("offset") != "0" {
			t.Errorf("unexpected defaults %v", q)
		}
		if q.Has("market") {
			t.Error("expected market to be omitted")
		}
	})

	t.Run("Validation", func(t *testing.T) {
		api := newFakeAPI(t, http.StatusOK, `{}`)
		srv, _ := api.service(t, nil)

		if _, err := srv.Search(context.Background(), SearchParams{Query: "  "}); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
		if _, err := srv.Search(context.Background(), SearchParams{Query: "x", Type: "song"}); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
		if api.count() != 0 {
			t.Error("expected no request")
		}
	})
}

func TestPlaylists(t *testing.T) {
	t.Run("CurrentUserPlaylists", func(t *testing.T) {
		api := newFakeAPI(t, http.StatusOK, `{"items":[{"id":"p1","name":"Mix","tracks":{"total":12}}],"total":1,"limit":20,"next":null}`)
		srv, _ := api.service(t, nil)

		page, err := srv.CurrentUserPlaylists(context.Background(), 0, -3)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(page.Items) != 1 || page.Items[0].Tracks.Total != 12 || page.HasNext() {
			t.Errorf("unexpected page %+v", page)
		}
		q := api.last(t).Query
		if q.Get("limit") != "20" || q.Get("offset") != "0" {
			t.Errorf("expected clamped paging, got %v", q)
		}
	})

	t.Run("PlaylistItems Not Found", func(t *testing.T) {
		api := newFakeAPI(t, http.StatusNotFound, `{"error":{"status":404,"message":"Not found."}}`)
		srv, _ := api.service(t, nil)

		_, err := srv.PlaylistItems(context.Background(), "missing", 10, 0)
		if !errors.Is(err, shared.ErrPlaylistNotFound) {
			t.Errorf("expected ErrPlaylistNotFound, got %v", err)
		}
		if auth.StatusOf(err) != http.StatusNotFound {
			t.Errorf("expected status 404 to survive wrapping, got %d", auth.StatusOf(err))
		}
		if api.last(t).Path != "/playlists/missing/tracks" {
			t.Errorf("unexpected path %s", api.last(t).Path)
		}
	})

	t.Run("PlaylistItems Requires ID", func(t *testing.T) {
		api := newFakeAPI(t, http.StatusOK, `{}`)
		srv, _ := api.service(t, nil)

		if _, err := srv.PlaylistItems(context.Background(), "", 10, 0); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("AddPlaylistTracks", func(t *testing.T) {
		api := newFakeAPI(t, http.StatusCreated, `{"snapshot_id":"snap2"}`)
		srv, _ := api.service(t, nil)

		pos := 0
		snap, err := srv.AddPlaylistTracks(context.Background(), "p1", []string{"spotify:track:1"}, &pos)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if snap != "snap2" {
			t.Errorf("expected snapshot snap2, got %q", snap)
		}

		req := api.last(t)
		body := decodeBody(t, req.Body)
		if req.Method != http.MethodPost || body["position"] != float64(0) {
			t.Errorf("unexpected request %s %s", req.Method, req.Body)
		}
	})

	t.Run("AddPlaylistTracks Validation", func(t *testing.T) {
		api := newFakeAPI(t, http.StatusCreated, `{}`)
		srv, _ := api.service(t, nil)

		if _, err := srv.AddPlaylistTracks(context.Background(), "p1", nil, nil); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
		tooMany := make([]string, maxPlaylistItems+1)
		if _, err := srv.AddPlaylistTracks(context.Background(), "p1", tooMany, nil); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("RemovePlaylistTracks", func(t *testing.T) {
		api := newFakeAPI(t, http.StatusOK, `{"snapshot_id":"snap3"}`)
		srv, _ := api.service(t, nil)

		snap, err := srv.RemovePlaylistTracks(context.Background(), "p1", []string{"spotify:track:1", "spotify:track:2"}, "snap2")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if snap != "snap3" {
			t.Errorf("expected snap3, got %q", snap)
		}

		req := api.last(t)
		var body removeTracksBody
		if err := json.Unmarshal(req.Body, &body); err != nil {
			t.Fatal(err)
		}
		if req.Method != http.MethodDelete || len(body.Tracks) != 2 || body.SnapshotID != "snap2" {
			t.Errorf("unexpected request %s %s", req.Method, req.Body)
		}
	})

	t.Run("CreatePlaylist For Current User", func(t *testing.T) {
		api := newFakeAPI(t, http.StatusCreated, `{"id":"new","name":"Road Trip"}`)
		profiles := NewFileProfileStore(filepath.Join(t.TempDir(), "profile.json"), nil)
		if err := profiles.SaveProfile(SpotifyUser{ID: "u1"}); err != nil {
			t.Fatal(err)
		}
		srv, _ := api.service(t, profiles)

		public := false
		playlist, err := srv.CreatePlaylist(context.Background(), "", CreatePlaylistRequest{Name: "Road Trip", Public: &public})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if playlist.ID != "new" {
			t.Errorf("unexpected playlist %+v", playlist)
		}

		req := api.last(t)
		if req.Path != "/users/u1/playlists" {
			t.Errorf("expected cached user id in path, got %s", req.Path)
		}
		if body := decodeBody(t, req.Body); body["public"] != false || body["name"] != "Road Trip" {
			t.Errorf("unexpected body %s", req.Body)
		}
		if api.count() != 1 {
			t.Errorf("expected profile to come from cache, got %d requests", api.count())
		}
	})

	t.Run("CreatePlaylist Validation", func(t *testing.T) {
		api := newFakeAPI(t, http.StatusCreated, `{}`)
		srv, _ := api.service(t, nil)

		if _, err := srv.CreatePlaylist(context.Background(), "u1", CreatePlaylistRequest{}); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
		public := true
		req := CreatePlaylistRequest{Name: "x", Public: &public, Collaborative: true}
		if _, err := srv.CreatePlaylist(context.Background(), "u1", req); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestUserProfile(t *testing.T) {
	t.Run("Cached Profile Skips Request", func(t *testing.T) {
		api := newFakeAPI(t, http.StatusOK, `{"id":"fresh"}`)
		profiles := NewFileProfileStore(filepath.Join(t.TempDir(), "profile.json"), nil)
		_ = profiles.SaveProfile(SpotifyUser{ID: "cached"})
		srv, tokens := api.service(t, profiles)

		user, err := srv.CurrentUserProfile(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if user.ID != "cached" || api.count() != 0 || tokens.calls != 0 {
			t.Errorf("expected cached profile without network, got %q after %d requests", user.ID, api.count())
		}
	})

	t.Run("Fetches And Caches", func(t *testing.T) {
		api := newFakeAPI(t, http.StatusOK, `{"id":"fresh","display_name":"Fresh"}`)
		profiles := NewFileProfileStore(filepath.Join(t.TempDir(), "profile.json"), nil)
		srv, _ := api.service(t, profiles)

		user, err := srv.CurrentUserProfile(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if user.ID != "fresh" {
			t.Errorf("expected fetched profile, got %+v", user)
		}
		if cached, ok := profiles.LoadProfile(); !ok || cached.DisplayName != "Fresh" {
			t.Errorf("expected profile to be cached, got %+v", cached)
		}
	})

	t.Run("Refresh Ignores Cache", func(t *testing.T) {
		api := newFakeAPI(t, http.StatusOK, `{"id":"fresh"}`)
		profiles := NewFileProfileStore(filepath.Join(t.TempDir(), "profile.json"), nil)
		_ = profiles.SaveProfile(SpotifyUser{ID: "stale"})
		srv, _ := api.service(t, profiles)

		user, err := srv.RefreshUserProfile(context.Background())
		if err != nil || user.ID != "fresh" {
			t.Fatalf("expected fresh profile, got %+v (%v)", user, err)
		}
		if cached, _ := profiles.LoadProfile(); cached.ID != "fresh" {
			t.Errorf("expected cache to be replaced, got %q", cached.ID)
		}
	})
}

func TestFileProfileStore(t *testing.T) {
	t.Run("Missing File", func(t *testing.T) {
		store := NewFileProfileStore(filepath.Join(t.TempDir(), "none.json"), nil)
		if _, ok := store.LoadProfile(); ok {
			t.Error("expected absent profile")
		}
	})

	t.Run("Corrupt File", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "profile.json")
		if err := os.WriteFile(path, []byte("[]"), 0o600); err != nil {
			t.Fatal(err)
		}
		if _, ok := NewFileProfileStore(path, nil).LoadProfile(); ok {
			t.Error("expected corrupt profile to be ignored")
		}
	})
}

func TestProber(t *testing.T) {
	t.Run("Accepted", func(t *testing.T) {
		api := newFakeAPI(t, http.StatusOK, `{"id":"u1"}`)
		p := NewProber(ClientOptions{BaseURL: api.URL, HTTPClient: api.Client()})

		if err := p.Probe(context.Background(), "good"); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
		if api.last(t).Auth != "Bearer good" {
			t.Error("expected probe to use the given token")
		}
	})

	t.Run("Rejected", func(t *testing.T) {
		api := newFakeAPI(t, http.StatusUnauthorized, `{"error":{"status":401,"message":"Invalid access token"}}`)
		p := NewProber(ClientOptions{BaseURL: api.URL, HTTPClient: api.Client()})

		err := p.Probe(context.Background(), "bad")
		if auth.StatusOf(err) != http.StatusUnauthorized {
			t.Errorf("expected 401 to be visible to the manager, got %v", err)
		}
	})

	t.Run("Implements auth.Prober", func(t *testing.T) {
		var _ auth.Prober = NewProber(ClientOptions{})
	})
}

func TestTransportFailures(t *testing.T) {
	t.Run("Request Error", func(t *testing.T) {
		client := &http.Client{Transport: th.NewMockRoundTripper(nil, errors.New("dial tcp: refused"))}
		srv, err := NewSpotifyService(&th.MockTokens{Token: "tok"}, nil, ClientOptions{BaseURL: "http://spotify.invalid", HTTPClient: client})
		if err != nil {
			t.Fatal(err)
		}

		err = srv.Pause(context.Background())
		var apiErr *APIError
		if !errors.As(err, &apiErr) || apiErr.Status != 0 {
			t.Errorf("expected APIError without status, got %v", err)
		}
	})

	t.Run("Body Read Error", func(t *testing.T) {
		resp := &http.Response{StatusCode: http.StatusOK, Header: http.Header{}, Body: &th.FCloser{}}
		client := &http.Client{Transport: th.NewMockRoundTripper(resp, nil)}
		p := NewProber(ClientOptions{BaseURL: "http://spotify.invalid", HTTPClient: client})

		if err := p.Probe(context.Background(), "tok"); auth.StatusOf(err) != http.StatusOK {
			t.Errorf("expected read failure carrying status 200, got %v", err)
		}
	})

	t.Run("Error Envelope", func(t *testing.T) {
		client := &http.Client{Transport: th.NewMockRoundTripper(th.NewSpotifyError(http.StatusForbidden, "Player command failed: Premium required"), nil)}
		srv, _ := NewSpotifyService(&th.MockTokens{Token: "tok"}, nil, ClientOptions{BaseURL: "http://spotify.invalid", HTTPClient: client})

		err := srv.Pause(context.Background())
		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("expected APIError, got %v", err)
		}
		if apiErr.Status != http.StatusForbidden || !strings.Contains(apiErr.Message, "Premium required") {
			t.Errorf("unexpected error: %+v", apiErr)
		}
	})

	t.Run("Decode Error", func(t *testing.T) {
		client := &http.Client{Transport: th.NewMockRoundTripper(th.NewJSONResponse(http.StatusOK, "{not json"), nil)}
		tokens := &th.MockTokens{Token: "tok"}
		srv, _ := NewSpotifyService(tokens, nil, ClientOptions{BaseURL: "http://spotify.invalid", HTTPClient: client})

		if _, err := srv.Queue(context.Background()); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
		if tokens.Calls() != 1 {
			t.Errorf("expected one token lookup, got %d", tokens.Calls())
		}
	})
}

func TestParseAPIError(t *testing.T) {
	t.Run("Envelope With Reason", func(t *testing.T) {
		err := parseAPIError(http.StatusForbidden, []byte(`{"error":{"status":403,"message":"Player command failed","reason":"PREMIUM_REQUIRED"}}`))
		if err.Message != "Player command failed (PREMIUM_REQUIRED)" {
			t.Errorf("unexpected message %q", err.Message)
		}
	})

	t.Run("Empty Body", func(t *testing.T) {
		err := parseAPIError(http.StatusBadGateway, nil)
		if err.Message != http.StatusText(http.StatusBadGateway) {
			t.Errorf("unexpected message %q", err.Message)
		}
	})

	t.Run("Long Body Keeps Runes Whole", func(t *testing.T) {
		body := "x" + strings.Repeat("é", 150)
		err := parseAPIError(http.StatusInternalServerError, []byte(body))

		if !utf8.ValidString(err.Message) {
			t.Errorf("message is not valid UTF-8: %q", err.Message)
		}
		if !strings.HasSuffix(err.Message, "...") {
			t.Errorf("expected truncation marker, got %q", err.Message)
		}
		if got := len(strings.TrimSuffix(err.Message, "...")); got > maxErrorBody {
			t.Errorf("expected at most %d bytes, got %d", maxErrorBody, got)
		}
	})

	t.Run("Short Body Untouched", func(t *testing.T) {
		if got := truncate("héllo", 10); got != "héllo" {
			t.Errorf("truncate = %q", got)
		}
	})
}
