// Package testing holds doubles and assertions shared by the package tests.
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"testing"
)

// MockTokens is a test double for services.TokenProvider that counts lookups.
type MockTokens struct {
	Token string
	Err   error

	mu    sync.Mutex
	calls int
}

func (m *MockTokens) AccessToken(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.Token, m.Err
}

// Calls returns how many times AccessToken was called.
func (m *MockTokens) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// NewJSONResponse builds a canned response for [RoundTripper].
func NewJSONResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": {"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

// NewSpotifyError builds a response in the Web API error envelope.
func NewSpotifyError(status int, message string) *http.Response {
	return NewJSONResponse(status, fmt.Sprintf(`{"error":{"status":%d,"message":%q}}`, status, message))
}

// RoundTripper answers every request with the same response or error.
type RoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *RoundTripper {
	return &RoundTripper{response: r, err: e}
}

func (m *RoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FWriter fails every write.
type FWriter struct{}

func (*FWriter) Write([]byte) (int, error) {
	return 0, errors.New("write failed")
}

// LimitedWriter passes writes to target until maxWrites is reached.
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

func (l *LimitedWriter) Write(p []byte) (int, error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

// FCloser is a response body whose reads fail.
type FCloser struct{}

func (*FCloser) Read([]byte) (int, error) { return 0, errors.New("read failed") }
func (*FCloser) Close() error             { return nil }

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		t.Errorf("file does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(content)
}
