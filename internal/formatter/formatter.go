// package formatter renders Spotify API results as plain text, Markdown or CSV for tool output
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/Carrieukie/spotify-mcp-server/internal/auth"
	"github.com/Carrieukie/spotify-mcp-server/internal/services"
	"github.com/Carrieukie/spotify-mcp-server/internal/shared"
)

// Format selects the rendering used for list results.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatCSV      Format = "csv"
)

// Formats lists the accepted [Format] names.
var Formats = []string{string(FormatText), string(FormatMarkdown), string(FormatCSV)}

// ParseFormat maps a name to a [Format]; empty means [FormatText].
func ParseFormat(name string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(name))) {
	case "", FormatText:
		return FormatText, nil
	case FormatMarkdown, "md":
		return FormatMarkdown, nil
	case FormatCSV:
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q (want %s)", shared.ErrInvalidArgument, name, strings.Join(Formats, ", "))
	}
}

func trackLine(t services.SpotifyTrack) string {
	line := t.Name
	if artists := t.ArtistNames(); artists != "" {
		line = artists + " - " + line
	}
	if t.Album.Name != "" {
		line += fmt.Sprintf(" (%s)", t.Album.Name)
	}
	if t.DurationMS > 0 {
		line += fmt.Sprintf(" [%s]", shared.FormatDuration(t.DurationMS))
	}
	return line + " " + t.URI
}

func pageFooter(buf *bytes.Buffer, shown, offset, total int, hasNext bool) {
	if total == 0 {
		return
	}
	fmt.Fprintf(buf, "\nShowing %d-%d of %d", offset+1, offset+shown, total)
	if hasNext {
		fmt.Fprintf(buf, " (more available, use offset %d)", offset+shown)
	}
	buf.WriteString("\n")
}

// Profile renders the current user's profile.
func Profile(u *services.SpotifyUser) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "User: %s\n", u.DisplayName)
	fmt.Fprintf(&buf, "ID: %s\n", u.ID)
	if u.Email != "" {
		fmt.Fprintf(&buf, "Email: %s\n", u.Email)
	}
	if u.Country != "" {
		fmt.Fprintf(&buf, "Country: %s\n", u.Country)
	}
	if u.Product != "" {
		fmt.Fprintf(&buf, "Subscription: %s\n", u.Product)
	}
	fmt.Fprintf(&buf, "Followers: %d\n", u.Followers.Total)
	if u.URI != "" {
		fmt.Fprintf(&buf, "URI: %s\n", u.URI)
	}
	return buf.String()
}

// SearchResults renders every non-empty result page.
func SearchResults(query string, r *services.SpotifySearchResponse) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Search results for %q\n", query)
	found := false

	if r.Tracks != nil && len(r.Tracks.Items) > 0 {
		found = true
		buf.WriteString("\nTracks:\n")
		for i, t := range r.Tracks.Items {
			fmt.Fprintf(&buf, "%d. %s\n", i+1, trackLine(t))
		}
	}
	if r.Artists != nil && len(r.Artists.Items) > 0 {
		found = true
		buf.WriteString("\nArtists:\n")
		for i, a := range r.Artists.Items {
			fmt.Fprintf(&buf, "%d. %s", i+1, a.Name)
			if len(a.Genres) > 0 {
				fmt.Fprintf(&buf, " (%s)", strings.Join(a.Genres, ", "))
			}
			fmt.Fprintf(&buf, " %s\n", a.URI)
		}
	}
	if r.Albums != nil && len(r.Albums.Items) > 0 {
		found = true
		buf.WriteString("\nAlbums:\n")
		for i, a := range r.Albums.Items {
			artists := make([]string, 0, len(a.Artists))
			for _, ar := range a.Artists {
				artists = append(artists, ar.Name)
			}
			fmt.Fprintf(&buf, "%d. %s - %s", i+1, strings.Join(artists, ", "), a.Name)
			if a.ReleaseDate != "" {
				fmt.Fprintf(&buf, " (%s)", a.ReleaseDate)
			}
			fmt.Fprintf(&buf, " %s\n", a.URI)
		}
	}
	if r.Playlists != nil {
		n := 0
		for _, p := range r.Playlists.Items {
			if p == nil {
				continue
			}
			if n == 0 {
				found = true
				buf.WriteString("\nPlaylists:\n")
			}
			n++
			fmt.Fprintf(&buf, "%d. %s by %s (%d tracks) %s\n", n, p.Name, p.Owner.DisplayName, p.Tracks.Total, p.URI)
		}
	}

	if !found {
		buf.WriteString("No results.\n")
	}
	return buf.String()
}

// Queue renders the currently playing item and what follows.
func Queue(q *services.SpotifyQueue) string {
	var buf bytes.Buffer
	if q.CurrentlyPlaying == nil {
		buf.WriteString("Nothing is playing.\n")
	} else {
		fmt.Fprintf(&buf, "Now playing: %s\n", trackLine(*q.CurrentlyPlaying))
	}

	if len(q.Queue) == 0 {
		buf.WriteString("Queue is empty.\n")
		return buf.String()
	}
	buf.WriteString("\nUp next:\n")
	for i, t := range q.Queue {
		fmt.Fprintf(&buf, "%d. %s\n", i+1, trackLine(t))
	}
	return buf.String()
}

// Playlists renders one page of the user's playlists.
func Playlists(page *services.Page[services.SpotifySimplePlaylist]) string {
	var buf bytes.Buffer
	if len(page.Items) == 0 {
		buf.WriteString("No playlists found.\n")
		return buf.String()
	}

	buf.WriteString("Playlists:\n")
	for i, p := range page.Items {
		fmt.Fprintf(&buf, "%d. %s [%s] (%d tracks, %s)\n", page.Offset+i+1, p.Name, p.ID, p.Tracks.Total, shared.VisibilityString(p.Public))
	}
	pageFooter(&buf, len(page.Items), page.Offset, page.Total, page.HasNext())
	return buf.String()
}

// Playlist renders a newly created playlist.
func Playlist(p *services.SpotifyPlaylist) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Playlist: %s\n", p.Name)
	fmt.Fprintf(&buf, "ID: %s\n", p.ID)
	if p.Description != "" {
		fmt.Fprintf(&buf, "Description: %s\n", p.Description)
	}
	fmt.Fprintf(&buf, "Visibility: %s\n", shared.VisibilityString(p.Public))
	if p.Collaborative {
		buf.WriteString("Collaborative: yes\n")
	}
	if p.ExternalURLs.Spotify != "" {
		fmt.Fprintf(&buf, "URL: %s\n", p.ExternalURLs.Spotify)
	}
	return buf.String()
}

// PlaylistItems renders one page of a playlist's tracks in format.
func PlaylistItems(playlistID string, page *services.Page[services.SpotifyPlaylistTrack], format Format) ([]byte, error) {
	switch format {
	case FormatCSV:
		return playlistItemsCSV(page.Items)
	case FormatMarkdown:
		return playlistItemsMarkdown(playlistID, page), nil
	default:
		return playlistItemsText(playlistID, page), nil
	}
}

// playlistItemsCSV writes columns: Position, Title, Artist, Album, Duration, ISRC, URI
func playlistItemsCSV(items []services.SpotifyPlaylistTrack) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Position", "Title", "Artist", "Album", "Duration", "ISRC", "URI"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, item := range items {
		if item.Track == nil {
			continue
		}
		t := item.Track
		record := []string{
			strconv.Itoa(i + 1),
			t.Name,
			t.ArtistNames(),
			t.Album.Name,
			shared.FormatDuration(t.DurationMS),
			t.ExternalIDs.ISRC,
			t.URI,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

func playlistItemsMarkdown(playlistID string, page *services.Page[services.SpotifyPlaylistTrack]) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# Playlist %s\n\n", playlistID)
	fmt.Fprintf(&buf, "**Tracks**: %d\n\n", page.Total)

	buf.WriteString("## Tracks\n\n")
	for i, item := range page.Items {
		if item.Track == nil {
			fmt.Fprintf(&buf, "%d. _unavailable_\n", page.Offset+i+1)
			continue
		}
		t := item.Track
		albumPart := ""
		if t.Album.Name != "" {
			albumPart = fmt.Sprintf(" (%s)", t.Album.Name)
		}
		fmt.Fprintf(&buf, "%d. %s - %s%s [%s]\n", page.Offset+i+1, t.ArtistNames(), t.Name, albumPart, shared.FormatDuration(t.DurationMS))
	}
	return buf.Bytes()
}

func playlistItemsText(playlistID string, page *services.Page[services.SpotifyPlaylistTrack]) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Playlist: %s\n", playlistID)
	if len(page.Items) == 0 {
		buf.WriteString("No tracks.\n")
		return buf.Bytes()
	}

	buf.WriteString("\n")
	for i, item := range page.Items {
		if item.Track == nil {
			fmt.Fprintf(&buf, "%d. (unavailable)\n", page.Offset+i+1)
			continue
		}
		fmt.Fprintf(&buf, "%d. %s\n", page.Offset+i+1, trackLine(*item.Track))
	}
	pageFooter(&buf, len(page.Items), page.Offset, page.Total, page.HasNext())
	return buf.Bytes()
}

// AuthStatus describes the stored credentials and the last lifecycle state.
type AuthStatus struct {
	Record  auth.TokenRecord
	Present bool
	State   auth.State
	Backend string
	Probe   error // nil when the probe succeeded or was not run
	Probed  bool
}

// Auth renders an [AuthStatus] with secrets redacted.
func Auth(s AuthStatus) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Storage: %s\n", s.Backend)
	if !s.Present {
		buf.WriteString("Credentials: none stored\n")
	} else {
		fmt.Fprintf(&buf, "Access token: %s\n", shared.Redact(s.Record.AccessToken))
		fmt.Fprintf(&buf, "Refresh token: %s\n", shared.Redact(s.Record.RefreshToken))
		if s.Record.Scope != "" {
			fmt.Fprintf(&buf, "Scope: %s\n", s.Record.Scope)
		}
	}
	fmt.Fprintf(&buf, "State: %s\n", s.State)

	if s.Probed {
		if s.Probe == nil {
			buf.WriteString("Token check: accepted\n")
		} else {
			fmt.Fprintf(&buf, "Token check: %v\n", s.Probe)
		}
	}
	return buf.String()
}
