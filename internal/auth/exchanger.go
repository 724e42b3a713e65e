package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"

	"github.com/Carrieukie/spotify-mcp-server/internal/shared"
)

const DefaultTokenURL = "https://accounts.spotify.com/api/token"

// ExchangerConfig configures an [Exchanger].
type ExchangerConfig struct {
	Credentials shared.SpotifyConfig
	TokenURL    string       // defaults to [DefaultTokenURL]
	HTTPClient  *http.Client // defaults to [http.DefaultClient] through x/oauth2
	Logger      *log.Logger
}

// RefreshResult is what a refresh-token grant returned.
//
// RefreshToken is empty when the server did not rotate it.
type RefreshResult struct {
	AccessToken  string
	RefreshToken string
	Scope        string
	ExpiresIn    time.Duration
}

// Exchanger trades authorization codes and refresh tokens for access tokens at the token endpoint.
//
// Code exchanges send the client credentials in the form body; refreshes send them as HTTP Basic auth.
type Exchanger struct {
	code    *oauth2.Config
	refresh *oauth2.Config
	client  *http.Client
	logger  *log.Logger
}

func NewExchanger(cfg ExchangerConfig) (*Exchanger, error) {
	creds := cfg.Credentials
	if creds.ClientID == "" || creds.ClientSecret == "" {
		return nil, ConfigError("spotify client id and secret are required", shared.ErrMissingCredentials)
	}

	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	newConfig := func(style oauth2.AuthStyle) *oauth2.Config {
		return &oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			RedirectURL:  creds.RedirectURI,
			Endpoint: oauth2.Endpoint{
				AuthURL:   DefaultAuthorizeURL,
				TokenURL:  tokenURL,
				AuthStyle: style,
			},
		}
	}

	return &Exchanger{
		code:    newConfig(oauth2.AuthStyleInParams),
		refresh: newConfig(oauth2.AuthStyleInHeader),
		client:  cfg.HTTPClient,
		logger:  logger,
	}, nil
}

func (e *Exchanger) withClient(ctx context.Context) context.Context {
	if e.client == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, e.client)
}

// ExchangeCode performs the authorization_code grant.
func (e *Exchanger) ExchangeCode(ctx context.Context, code string) (TokenRecord, error) {
	tok, err := e.code.Exchange(e.withClient(ctx), code)
	if err != nil {
		return TokenRecord{}, exchangeError("authorization code exchange failed", err)
	}

	e.logger.Debug("exchanged authorization code", "expires_in", expiresIn(tok))
	return TokenRecord{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Scope:        scopeOf(tok),
	}, nil
}

// Refresh performs the refresh_token grant.
func (e *Exchanger) Refresh(ctx context.Context, refreshToken string) (RefreshResult, error) {
	if refreshToken == "" {
		return RefreshResult{}, NoRefreshTokenError()
	}

	src := e.refresh.TokenSource(e.withClient(ctx), &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return RefreshResult{}, exchangeError("refresh token exchange failed", err)
	}

	ttl := expiresIn(tok)
	e.logger.Debug("refreshed access token", "expires_in", ttl)
	return RefreshResult{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Scope:        scopeOf(tok),
		ExpiresIn:    ttl,
	}, nil
}

func scopeOf(tok *oauth2.Token) string {
	if s, ok := tok.Extra("scope").(string); ok {
		return s
	}
	return ""
}

func expiresIn(tok *oauth2.Token) time.Duration {
	if tok.Expiry.IsZero() {
		return 0
	}
	return time.Until(tok.Expiry).Round(time.Second)
}

func exchangeError(message string, err error) *Error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.Response != nil {
		return TokenExchangeError(message, re.Response.StatusCode, re)
	}
	return TokenExchangeError(message, 0, err)
}
