package auth

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/Carrieukie/spotify-mcp-server/internal/shared"
)

// freeRedirectURI reserves a loopback port long enough to learn its number.
func freeRedirectURI(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()
	return "http://" + addr + "/callback"
}

// callbackBrowser pretends to be the user approving the consent page by
// requesting the redirect URI with the extra query values.
func callbackBrowser(t *testing.T, extra url.Values, keepState bool) shared.BrowserOpener {
	return func(authURL string) error {
		u, err := url.Parse(authURL)
		if err != nil {
			return err
		}
		q := u.Query()
		values := url.Values{}
		for k, v := range extra {
			values[k] = v
		}
		if keepState {
			values.Set("state", q.Get("state"))
		}
		target := q.Get("redirect_uri") + "?" + values.Encode()

		go func() {
			resp, err := http.Get(target)
			if err != nil {
				t.Errorf("callback request: %v", err)
				return
			}
			resp.Body.Close()
		}()
		return nil
	}
}

func newTestAcquirer(t *testing.T, cfg AcquirerConfig) *Acquirer {
	t.Helper()
	if cfg.Credentials.ClientID == "" {
		cfg.Credentials = testCredentials
		cfg.Credentials.RedirectURI = freeRedirectURI(t)
	}
	a, err := NewAcquirer(cfg)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	return a
}

func TestAcquirer(t *testing.T) {
	t.Run("AuthorizeURL", func(t *testing.T) {
		a := newTestAcquirer(t, AcquirerConfig{})
		raw := a.AuthorizeURL([]string{"user-read-private", "playlist-read-private"}, "st8")

		u, err := url.Parse(raw)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.HasPrefix(raw, DefaultAuthorizeURL+"?") {
			t.Errorf("expected default authorize endpoint, got %s", raw)
		}

		q := u.Query()
		checks := map[string]string{
			"client_id":     testCredentials.ClientID,
			"response_type": "code",
			"redirect_uri":  a.redirectURI,
			"scope":         "user-read-private playlist-read-private",
			"state":         "st8",
		}
		for key, want := range checks {
			if got := q.Get(key); got != want {
				t.Errorf("expected %s=%q, got %q", key, want, got)
			}
		}
	})

	t.Run("Invalid Redirect URI", func(t *testing.T) {
		creds := testCredentials
		creds.RedirectURI = "http://localhost/callback"
		_, err := NewAcquirer(AcquirerConfig{Credentials: creds})
		if ae, ok := AsError(err); !ok || ae.Kind != KindConfig {
			t.Errorf("expected config error, got %v", err)
		}
	})

	t.Run("Captures Code", func(t *testing.T) {
		a := newTestAcquirer(t, AcquirerConfig{})
		a.browser = callbackBrowser(t, url.Values{"code": {"abc123"}}, true)

		code, err := a.AcquireCode(context.Background(), []string{"user-read-private"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if code != "abc123" {
			t.Errorf("expected code abc123, got %q", code)
		}

		if conn, err := net.DialTimeout("tcp", a.addr, 200*time.Millisecond); err == nil {
			conn.Close()
			t.Error("expected listener to be closed after the flow")
		}
	})

	t.Run("Denied", func(t *testing.T) {
		a := newTestAcquirer(t, AcquirerConfig{})
		a.browser = callbackBrowser(t, url.Values{"error": {"access_denied"}}, true)

		_, err := a.AcquireCode(context.Background(), nil)
		ae, ok := AsError(err)
		if !ok || ae.Kind != KindAuthFlow {
			t.Fatalf("expected auth flow error, got %v", err)
		}
		if !errors.Is(err, shared.ErrMissingCode) {
			t.Errorf("expected ErrMissingCode, got %v", err)
		}
		if !strings.Contains(err.Error(), "access_denied") {
			t.Errorf("expected provider error in message, got %v", err)
		}
	})

	t.Run("State Mismatch", func(t *testing.T) {
		a := newTestAcquirer(t, AcquirerConfig{})
		a.browser = callbackBrowser(t, url.Values{"code": {"abc"}, "state": {"forged"}}, false)

		_, err := a.AcquireCode(context.Background(), nil)
		if !errors.Is(err, shared.ErrInvalidState) {
			t.Errorf("expected ErrInvalidState, got %v", err)
		}
	})

	t.Run("Timeout", func(t *testing.T) {
		var notified string
		a := newTestAcquirer(t, AcquirerConfig{
			Timeout: 50 * time.Millisecond,
			Notify:  func(u string) { notified = u },
		})

		_, err := a.AcquireCode(context.Background(), nil)
		if !errors.Is(err, shared.ErrTimeout) {
			t.Errorf("expected ErrTimeout, got %v", err)
		}
		if !strings.Contains(notified, "response_type=code") {
			t.Errorf("expected notifier to receive the authorize URL, got %q", notified)
		}
	})

	t.Run("Browser Failure Falls Back To Notify", func(t *testing.T) {
		a := newTestAcquirer(t, AcquirerConfig{})
		approve := callbackBrowser(t, url.Values{"code": {"from-notify"}}, true)
		a.browser = func(string) error { return errors.New("no display") }
		a.notify = func(u string) { _ = approve(u) }

		code, err := a.AcquireCode(context.Background(), nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if code != "from-notify" {
			t.Errorf("expected code from-notify, got %q", code)
		}
	})

	t.Run("Context Cancelled", func(t *testing.T) {
		a := newTestAcquirer(t, AcquirerConfig{})
		ctx, cancel := context.WithCancel(context.Background())
		a.browser = func(string) error { cancel(); return nil }

		_, err := a.AcquireCode(ctx, nil)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("Port In Use", func(t *testing.T) {
		a := newTestAcquirer(t, AcquirerConfig{Timeout: time.Minute})
		ln, err := net.Listen("tcp", a.addr)
		if err != nil {
			t.Fatalf("listen: %v", err)
		}
		defer ln.Close()

		start := time.Now()
		_, err = a.AcquireCode(context.Background(), nil)
		if ae, ok := AsError(err); !ok || ae.Kind != KindAuthFlow {
			t.Errorf("expected auth flow error, got %v", err)
		}
		if time.Since(start) > 5*time.Second {
			t.Error("expected bind failure to fail fast")
		}
	})

	t.Run("Second Flow Rejected", func(t *testing.T) {
		started := make(chan struct{})
		a := newTestAcquirer(t, AcquirerConfig{})
		a.browser = func(string) error { close(started); return nil }

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() {
			_, err := a.AcquireCode(ctx, nil)
			done <- err
		}()
		<-started

		_, err := a.AcquireCode(context.Background(), nil)
		if !errors.Is(err, shared.ErrAuthInProgress) {
			t.Errorf("expected ErrAuthInProgress, got %v", err)
		}

		cancel()
		if err := <-done; !errors.Is(err, context.Canceled) {
			t.Errorf("expected first flow to be cancelled, got %v", err)
		}
	})
}
