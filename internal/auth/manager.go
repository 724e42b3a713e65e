package auth

import (
	"cmp"
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/Carrieukie/spotify-mcp-server/internal/shared"
)

// refreshTimeout bounds a refresh flight once it no longer follows its caller's context.
const refreshTimeout = 30 * time.Second

// State is the manager's position in the token lifecycle.
type State int32

const (
	StateNoToken State = iota
	StateAuthenticating
	StateHaveToken
	StateValidating
	StateValid
	StateRefreshing
	StateUnrecoverable
)

func (s State) String() string {
	switch s {
	case StateNoToken:
		return "no-token"
	case StateAuthenticating:
		return "authenticating"
	case StateHaveToken:
		return "have-token"
	case StateValidating:
		return "validating"
	case StateValid:
		return "valid"
	case StateRefreshing:
		return "refreshing"
	case StateUnrecoverable:
		return "unrecoverable"
	default:
		return "unknown"
	}
}

// CodeAcquirer obtains an authorization code interactively.
type CodeAcquirer interface {
	AcquireCode(ctx context.Context, scopes []string) (string, error)
}

// TokenExchanger talks to the token endpoint.
type TokenExchanger interface {
	ExchangeCode(ctx context.Context, code string) (TokenRecord, error)
	Refresh(ctx context.Context, refreshToken string) (RefreshResult, error)
}

// Prober checks an access token against the API.
//
// A rejected token must surface as an error whose chain carries StatusCode() == 401.
type Prober interface {
	Probe(ctx context.Context, accessToken string) error
}

// ManagerOptions holds the collaborators of a [Manager].
type ManagerOptions struct {
	Credentials shared.SpotifyConfig
	Scopes      []string
	Store       Store
	Acquirer    CodeAcquirer
	Exchanger   TokenExchanger
	Prober      Prober
	Logger      *log.Logger
}

// Manager hands out an access token that the API currently accepts.
//
// It keeps no token in memory: every call starts from the [Store].
type Manager struct {
	scopes    []string
	store     Store
	acquirer  CodeAcquirer
	exchanger TokenExchanger
	prober    Prober
	logger    *log.Logger
	state     atomic.Int32
	group     singleflight.Group
}

func NewManager(opts ManagerOptions) (*Manager, error) {
	if opts.Credentials.ClientID == "" || opts.Credentials.ClientSecret == "" {
		return nil, ConfigError("spotify client id and secret are required", shared.ErrMissingCredentials)
	}
	if opts.Store == nil || opts.Acquirer == nil || opts.Exchanger == nil || opts.Prober == nil {
		return nil, ConfigError("token manager is missing a collaborator", shared.ErrInvalidConfig)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Manager{
		scopes:    opts.Scopes,
		store:     opts.Store,
		acquirer:  opts.Acquirer,
		exchanger: opts.Exchanger,
		prober:    opts.Prober,
		logger:    logger,
	}, nil
}

// State returns the most recent lifecycle state.
func (m *Manager) State() State {
	return State(m.state.Load())
}

func (m *Manager) setState(s State) {
	if prev := State(m.state.Swap(int32(s))); prev != s {
		m.logger.Debug("token state", "from", prev, "to", s)
	}
}

// Record returns the currently stored credentials.
func (m *Manager) Record() (TokenRecord, bool) {
	return m.store.Load()
}

// AccessToken returns a token the API accepted just now.
//
// Without a stored token it runs the interactive authorization. With one it probes the API,
// refreshing once on 401. Every error is an [*Error].
func (m *Manager) AccessToken(ctx context.Context) (string, error) {
	record, ok := m.store.Load()
	if !ok || !record.HasAccessToken() {
		m.setState(StateNoToken)
		return m.authorize(ctx)
	}

	m.setState(StateValidating)
	err := m.prober.Probe(ctx, record.AccessToken)
	if err == nil {
		m.setState(StateValid)
		return record.AccessToken, nil
	}

	status := StatusOf(err)
	if status != http.StatusUnauthorized {
		m.setState(StateHaveToken)
		return "", UpstreamError("could not validate access token", status, err)
	}

	m.logger.Info("access token rejected, refreshing")
	return m.refresh(ctx, record)
}

// Authorize runs the interactive flow regardless of what is stored.
func (m *Manager) Authorize(ctx context.Context) (string, error) {
	return m.authorize(ctx)
}

// Refresh exchanges the stored refresh token without probing first.
func (m *Manager) Refresh(ctx context.Context) (string, error) {
	record, _ := m.store.Load()
	return m.refresh(ctx, record)
}

func (m *Manager) authorize(ctx context.Context) (string, error) {
	return m.join(ctx, "authorize", KindAuthFlow, func(ctx context.Context) (string, error) {
		m.setState(StateAuthenticating)

		code, err := m.acquirer.AcquireCode(ctx, m.scopes)
		if err != nil {
			m.setState(StateNoToken)
			return "", coerce(err, KindAuthFlow, "authorization failed")
		}

		record, err := m.exchanger.ExchangeCode(ctx, code)
		if err != nil {
			m.setState(StateNoToken)
			return "", coerce(err, KindTokenExchange, "authorization code exchange failed")
		}
		if !record.HasAccessToken() {
			m.setState(StateNoToken)
			return "", TokenExchangeError("token endpoint returned no access token", 0, nil)
		}

		m.save(record)
		m.setState(StateHaveToken)
		m.logger.Info("authorized with spotify", "scope", record.Scope)
		return record.AccessToken, nil
	})
}

func (m *Manager) refresh(ctx context.Context, record TokenRecord) (string, error) {
	if !record.HasRefreshToken() {
		m.setState(StateUnrecoverable)
		return "", NoRefreshTokenError()
	}

	return m.join(ctx, "refresh", KindTokenExchange, func(ctx context.Context) (string, error) {
		// A flight that finished before this one started may already have replaced the rejected token.
		if current, ok := m.store.Load(); ok && current.HasAccessToken() && current.AccessToken != record.AccessToken {
			return current.AccessToken, nil
		}
		m.setState(StateRefreshing)

		ctx, cancel := context.WithTimeout(ctx, refreshTimeout)
		defer cancel()

		result, err := m.exchanger.Refresh(ctx, record.RefreshToken)
		if err != nil {
			switch StatusOf(err) {
			case http.StatusBadRequest, http.StatusUnauthorized:
				m.setState(StateUnrecoverable)
			default:
				m.setState(StateHaveToken)
			}
			return "", coerce(err, KindTokenExchange, "refresh token exchange failed")
		}
		if result.AccessToken == "" {
			m.setState(StateHaveToken)
			return "", TokenExchangeError("token endpoint returned no access token", 0, nil)
		}

		m.save(TokenRecord{
			AccessToken:  result.AccessToken,
			RefreshToken: cmp.Or(result.RefreshToken, record.RefreshToken),
			Scope:        cmp.Or(result.Scope, record.Scope),
		})
		m.setState(StateHaveToken)
		return result.AccessToken, nil
	})
}

// join runs fn once per key for all concurrent callers. The flight is detached from
// the caller that started it; each caller stops waiting when its own ctx is done.
func (m *Manager) join(ctx context.Context, key string, kind Kind, fn func(context.Context) (string, error)) (string, error) {
	detached := context.WithoutCancel(ctx)
	ch := m.group.DoChan(key, func() (any, error) {
		return fn(detached)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", &Error{Kind: kind, Message: "cancelled while waiting for " + key, Err: ctx.Err()}
	}
}

// save never fails the caller: the exchanged token is still good for this process.
func (m *Manager) save(record TokenRecord) {
	if err := m.store.Save(record); err != nil {
		m.logger.Error("could not persist tokens", "error", err)
	}
}
