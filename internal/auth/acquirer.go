package auth

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"

	"github.com/Carrieukie/spotify-mcp-server/internal/server"
	"github.com/Carrieukie/spotify-mcp-server/internal/shared"
)

const (
	DefaultAuthorizeURL     = "https://accounts.spotify.com/authorize"
	DefaultAuthorizeTimeout = 5 * time.Minute
)

// URLNotifier receives the authorization URL when the browser could not be opened.
type URLNotifier func(authURL string)

// AcquirerConfig configures an [Acquirer].
type AcquirerConfig struct {
	Credentials  shared.SpotifyConfig
	AuthorizeURL string              // defaults to [DefaultAuthorizeURL]
	Timeout      time.Duration       // defaults to [DefaultAuthorizeTimeout]
	Browser      shared.BrowserOpener // nil skips the launch and goes straight to Notify
	Notify       URLNotifier
	Logger       *log.Logger
}

// Acquirer runs the interactive authorization-code flow: it binds the redirect listener,
// sends the user to the consent page and waits for the single callback.
type Acquirer struct {
	clientID     string
	redirectURI  string
	authorizeURL string
	addr         string
	path         string
	timeout      time.Duration
	browser      shared.BrowserOpener
	notify       URLNotifier
	logger       *log.Logger
	active       atomic.Bool
}

func NewAcquirer(cfg AcquirerConfig) (*Acquirer, error) {
	if cfg.Credentials.ClientID == "" {
		return nil, ConfigError("spotify client id is not set", shared.ErrMissingCredentials)
	}
	addr, err := cfg.Credentials.CallbackAddr()
	if err != nil {
		return nil, ConfigError("redirect uri cannot be served locally", err)
	}

	a := &Acquirer{
		clientID:     cfg.Credentials.ClientID,
		redirectURI:  cfg.Credentials.RedirectURI,
		authorizeURL: cfg.AuthorizeURL,
		addr:         addr,
		path:         cfg.Credentials.CallbackPath(),
		timeout:      cfg.Timeout,
		browser:      cfg.Browser,
		notify:       cfg.Notify,
		logger:       cfg.Logger,
	}
	if a.authorizeURL == "" {
		a.authorizeURL = DefaultAuthorizeURL
	}
	if a.timeout <= 0 {
		a.timeout = DefaultAuthorizeTimeout
	}
	if a.logger == nil {
		a.logger = log.Default()
	}
	return a, nil
}

// AuthorizeURL builds the consent page URL for scopes and state.
func (a *Acquirer) AuthorizeURL(scopes []string, state string) string {
	cfg := oauth2.Config{
		ClientID:    a.clientID,
		RedirectURL: a.redirectURI,
		Scopes:      scopes,
		Endpoint:    oauth2.Endpoint{AuthURL: a.authorizeURL},
	}
	return cfg.AuthCodeURL(state)
}

// AcquireCode blocks until the user approves (or refuses) access and returns the authorization code.
//
// Only one flow runs at a time; a concurrent call fails with [shared.ErrAuthInProgress].
// The listener is closed before AcquireCode returns on every path.
func (a *Acquirer) AcquireCode(ctx context.Context, scopes []string) (string, error) {
	if !a.active.CompareAndSwap(false, true) {
		return "", AuthFlowError("another authorization is already waiting for the browser", shared.ErrAuthInProgress)
	}
	defer a.active.Store(false)

	state, err := shared.GenerateState()
	if err != nil {
		return "", AuthFlowError("could not generate state", err)
	}

	ln, err := net.Listen("tcp", a.addr)
	if err != nil {
		return "", AuthFlowError("could not listen on "+a.addr, err)
	}

	handler := server.NewCallbackHandler(a.path, state)
	router := server.NewBasicRouter()
	router.Use(server.RequestLogger(a.logger))
	router.Handler(handler)

	srv := &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("callback listener stopped", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			srv.Close()
		}
	}()

	authURL := a.AuthorizeURL(scopes, state)
	a.launch(authURL)
	a.logger.Info("waiting for spotify authorization", "callback", a.redirectURI, "timeout", a.timeout)

	timer := time.NewTimer(a.timeout)
	defer timer.Stop()

	select {
	case result := <-handler.Result():
		if err := result.Error(); err != nil {
			return "", AuthFlowError("authorization was not granted", err)
		}
		return result.Code, nil
	case <-timer.C:
		return "", AuthFlowError("no callback received within "+a.timeout.String(), shared.ErrTimeout)
	case <-ctx.Done():
		return "", AuthFlowError("authorization cancelled", ctx.Err())
	}
}

func (a *Acquirer) launch(authURL string) {
	if a.browser != nil {
		err := a.browser(authURL)
		if err == nil {
			return
		}
		a.logger.Warn("could not open browser", "error", err)
	}

	a.logger.Warn("open this URL to authorize", "url", authURL)
	if a.notify != nil {
		a.notify(authURL)
	}
}
