// Package services wraps the Spotify Web API for the MCP tools.
//
// # Authentication
//
// [SpotifyService] never handles OAuth itself. Each call asks a [TokenProvider] (the auth
// package's token manager) for a token, then sends exactly one request with it. A 401 from
// that request is returned as an ordinary [*APIError]; the manager has already validated and
// refreshed the token before handing it out.
//
// [Prober] is the manager's view of the API: GET /me with an explicit token.
//
// # Operations
//
// Player: [SpotifyService.Play], Pause, Resume, SkipToNext, SkipToPrevious, SeekToPosition,
// SetRepeatMode, SetVolume, Queue and Search.
//
// Playlists: CurrentUserPlaylists, PlaylistItems, AddPlaylistTracks, RemovePlaylistTracks and
// CreatePlaylist. Page sizes clamp to 1..50 with a default of 20.
//
// User: [SpotifyService.CurrentUserProfile] serves the profile from a [ProfileStore] when one is
// cached; RefreshUserProfile always fetches and re-caches.
//
// # Error Handling
//
// Every failure from the API is an [*APIError] carrying the HTTP status and Spotify's message.
// It unwraps to [shared.ErrAPIRequest] and, when a token could not be obtained, to the auth error.
// Argument validation fails before any request with [shared.ErrMissingArgument] or
// [shared.ErrInvalidArgument]; playlist 404s also match [shared.ErrPlaylistNotFound].
package services
