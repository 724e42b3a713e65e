package server

import (
	"fmt"
	"html"
	"net/http"
	"sync"

	"github.com/Carrieukie/spotify-mcp-server/internal/shared"
)

// CallbackResult is what the redirect listener captured from the authorization server.
type CallbackResult struct {
	Code string
	err  error
}

func (c CallbackResult) Error() error {
	return c.err
}

// CallbackHandler captures the authorization code delivered to the redirect URI.
//
// Only the first request is processed. Later requests are rejected without touching the result.
type CallbackHandler struct {
	path       string
	state      string
	resultChan chan CallbackResult
	once       sync.Once
	hit        bool
	mu         sync.Mutex
}

// NewCallbackHandler creates a handler for path that expects the given state value.
//
// An empty state disables the state check.
func NewCallbackHandler(path, state string) *CallbackHandler {
	if path == "" {
		path = "/callback"
	}
	return &CallbackHandler{
		path:       path,
		state:      state,
		resultChan: make(chan CallbackResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *CallbackHandler) Routes() []string {
	return []string{h.path}
}

// ServeHTTP reads code or error from the query string and reports it on the result channel.
//
// Both outcomes get a 200 HTML page so the browser shows a readable message.
func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.hit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.hit = true
	h.mu.Unlock()

	query := r.URL.Query()
	if h.state != "" && query.Get("state") != h.state {
		h.Send(CallbackResult{err: shared.ErrInvalidState})
		writePage(w, "Authorization Failed", "The response did not match this login attempt. Please try again.", false)
		return
	}

	code := query.Get("code")
	if code == "" {
		reason := query.Get("error")
		if reason == "" {
			reason = "no authorization code received"
		}
		h.Send(CallbackResult{err: fmt.Errorf("%w: %s", shared.ErrMissingCode, reason)})
		writePage(w, "Authorization Failed", "Spotify returned: "+reason, false)
		return
	}

	h.Send(CallbackResult{Code: code})
	writePage(w, "Authorization Successful", "You can close this window and return to your MCP client.", true)
}

// Send sends the result through the channel (only once).
func (h *CallbackHandler) Send(result CallbackResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the result channel.
//
// Channel will receive exactly one result and then be closed.
func (h *CallbackHandler) Result() <-chan CallbackResult {
	return h.resultChan
}

func writePage(w http.ResponseWriter, title, message string, ok bool) {
	color := "#1DB954"
	mark := "✓"
	if !ok {
		color = "#E22134"
		mark = "✗"
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<head>
    <title>%[1]s</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: %[3]s; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>%[4]s %[1]s</h1>
        <p>%[2]s</p>
    </div>
</body>
</html>
`, html.EscapeString(title), html.EscapeString(message), color, mark)
}
