// package services wraps the Spotify Web API behind typed methods
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/Carrieukie/spotify-mcp-server/internal/shared"
)

// TokenProvider hands out an access token the API currently accepts.
//
// [auth.Manager] is the production implementation.
type TokenProvider interface {
	AccessToken(ctx context.Context) (string, error)
}

// ProfileStore caches the current user's profile between runs.
type ProfileStore interface {
	SaveProfile(profile SpotifyUser) error
	LoadProfile() (*SpotifyUser, bool)
}

// APIError is returned for every failed Web API call, including failures to obtain a token.
//
// Status is 0 when the request never produced an HTTP response.
type APIError struct {
	Status  int
	Message string
	Err     error
}

func (e *APIError) Error() string {
	var b strings.Builder
	b.WriteString("spotify API error")
	if e.Status > 0 {
		fmt.Fprintf(&b, " (status %d)", e.Status)
	}
	if e.Message != "" {
		b.WriteString(": " + e.Message)
	}
	if e.Err != nil {
		b.WriteString(": " + e.Err.Error())
	}
	return b.String()
}

func (e *APIError) Unwrap() []error {
	errs := []error{shared.ErrAPIRequest}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func (e *APIError) StatusCode() int {
	return e.Status
}

// errorBody is the envelope Spotify uses for Web API errors.
type errorBody struct {
	Error struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
		Reason  string `json:"reason"`
	} `json:"error"`
}

const maxErrorBody = 200

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}

// parseAPIError turns a non-2xx response into an [*APIError], falling back to the raw body.
func parseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil && eb.Error.Message != "" {
		apiErr.Message = eb.Error.Message
		if eb.Error.Reason != "" {
			apiErr.Message += " (" + eb.Error.Reason + ")"
		}
		return apiErr
	}

	msg := truncate(strings.TrimSpace(string(body)), maxErrorBody)
	if msg == "" {
		msg = http.StatusText(status)
	}
	apiErr.Message = msg
	return apiErr
}
