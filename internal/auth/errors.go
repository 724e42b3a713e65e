package auth

import (
	"errors"
	"fmt"

	"github.com/Carrieukie/spotify-mcp-server/internal/shared"
)

// Kind classifies an [Error]. The set is closed.
type Kind int

const (
	KindConfig         Kind = iota + 1 // credentials missing or unusable
	KindAuthFlow                       // interactive authorization failed
	KindTokenExchange                  // token endpoint rejected a code or refresh exchange
	KindNoRefreshToken                 // access token rejected and nothing to refresh with
	KindUpstream                       // the API answered the probe with something other than 2xx or 401
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindAuthFlow:
		return "auth flow"
	case KindTokenExchange:
		return "token exchange"
	case KindNoRefreshToken:
		return "no refresh token"
	case KindUpstream:
		return "upstream"
	default:
		return "unknown"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindConfig:
		return shared.ErrMissingCredentials
	case KindAuthFlow:
		return shared.ErrAuthFailed
	case KindTokenExchange:
		return shared.ErrTokenExchange
	case KindNoRefreshToken:
		return shared.ErrNoRefreshToken
	default:
		return shared.ErrAPIRequest
	}
}

// Error is the single failure type returned by the token lifecycle.
//
// Status is the HTTP status that produced the failure, or 0 when none was involved.
type Error struct {
	Kind    Kind
	Message string
	Status  int
	Err     error
}

func (e *Error) Error() string {
	msg := e.Kind.String() + ": " + e.Message
	if e.Status > 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the cause and the sentinel for the error's kind.
func (e *Error) Unwrap() []error {
	errs := []error{e.Kind.sentinel()}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// StatusCode returns the HTTP status attached to the error.
func (e *Error) StatusCode() int {
	return e.Status
}

func ConfigError(message string, err error) *Error {
	return &Error{Kind: KindConfig, Message: message, Err: err}
}

func AuthFlowError(message string, err error) *Error {
	return &Error{Kind: KindAuthFlow, Message: message, Err: err}
}

func TokenExchangeError(message string, status int, err error) *Error {
	return &Error{Kind: KindTokenExchange, Message: message, Status: status, Err: err}
}

func NoRefreshTokenError() *Error {
	return &Error{
		Kind:    KindNoRefreshToken,
		Message: "access token was rejected and no refresh token is stored; run `spotmcp auth login`",
		Status:  401,
	}
}

func UpstreamError(message string, status int, err error) *Error {
	return &Error{Kind: KindUpstream, Message: message, Status: status, Err: err}
}

// AsError extracts an [*Error] from err's chain.
func AsError(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// StatusOf returns the HTTP status carried anywhere in err's chain, or 0.
func StatusOf(err error) int {
	var sc interface{ StatusCode() int }
	if errors.As(err, &sc) {
		return sc.StatusCode()
	}
	return 0
}

// coerce keeps an existing [*Error] and wraps anything else as kind.
func coerce(err error, kind Kind, message string) *Error {
	if ae, ok := AsError(err); ok {
		return ae
	}
	return &Error{Kind: kind, Message: message, Status: StatusOf(err), Err: err}
}
