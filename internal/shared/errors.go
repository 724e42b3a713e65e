package shared

import "errors"

// Sentinels matched with [errors.Is]. The auth package wraps them in its typed Error.
var (
	ErrInvalidConfig      = errors.New("invalid configuration")
	ErrMissingCredentials = errors.New("missing spotify client credentials")

	// Authorization flow
	ErrAuthFailed     = errors.New("spotify authorization failed")
	ErrAuthInProgress = errors.New("authorization already in progress")
	ErrMissingCode    = errors.New("callback carried no authorization code")
	ErrInvalidState   = errors.New("callback state does not match")
	ErrTimeout        = errors.New("timed out waiting for authorization")

	// Token endpoint
	ErrTokenExchange  = errors.New("token exchange failed")
	ErrNoRefreshToken = errors.New("no refresh token stored")

	// Web API
	ErrAPIRequest       = errors.New("spotify api request failed")
	ErrPlaylistNotFound = errors.New("playlist not found")

	// Tool arguments
	ErrMissingArgument = errors.New("missing required argument")
	ErrInvalidArgument = errors.New("invalid argument")
)
