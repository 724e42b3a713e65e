// Spotify API implementation
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/Carrieukie/spotify-mcp-server/internal/auth"
	"github.com/Carrieukie/spotify-mcp-server/internal/shared"
)

const (
	DefaultBaseURL = "https://api.spotify.com/v1"

	defaultLimit = 20
	maxLimit     = 50
)

// ClientOptions configures the HTTP side shared by [SpotifyService] and [Prober].
type ClientOptions struct {
	BaseURL    string       // defaults to [DefaultBaseURL]
	HTTPClient *http.Client // defaults to [http.DefaultClient]
	RateLimit  float64      // requests per second; 0 disables limiting
	Logger     *log.Logger
}

type apiClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
}

func newAPIClient(opts ClientOptions) apiClient {
	c := apiClient{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: opts.HTTPClient,
		limiter:    rate.NewLimiter(rate.Inf, 1),
		logger:     opts.Logger,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.httpClient == nil {
		c.httpClient = http.DefaultClient
	}
	if opts.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}
	if c.logger == nil {
		c.logger = log.Default()
	}
	return c
}

// send performs exactly one request with the given bearer token.
func (c apiClient) send(ctx context.Context, token, method, endpoint string, query url.Values, body, result any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &APIError{Message: "rate limiter", Err: err}
	}

	apiURL := c.baseURL + endpoint
	if len(query) > 0 {
		apiURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &APIError{Message: "failed to encode request body", Err: err}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reader)
	if err != nil {
		return &APIError{Message: "failed to create request", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &APIError{Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Status: resp.StatusCode, Message: "failed to read response", Err: err}
	}
	c.logger.Debug("spotify request", "method", method, "endpoint", endpoint, "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseAPIError(resp.StatusCode, data)
	}

	if result != nil && len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, result); err != nil {
			return &APIError{Status: resp.StatusCode, Message: "failed to decode response", Err: err}
		}
	}
	return nil
}

// Prober checks an access token with GET /me. It implements [auth.Prober].
type Prober struct {
	client apiClient
}

func NewProber(opts ClientOptions) *Prober {
	return &Prober{client: newAPIClient(opts)}
}

// Probe returns nil when the API accepts token and an [*APIError] carrying the status otherwise.
func (p *Prober) Probe(ctx context.Context, token string) error {
	return p.client.send(ctx, token, http.MethodGet, "/me", nil, nil, nil)
}

// SpotifyService provides the Web API operations used by the MCP tools.
//
// Every method asks its [TokenProvider] for a token first and sends a single request.
// A 401 from that request is returned as-is.
type SpotifyService struct {
	client   apiClient
	tokens   TokenProvider
	profiles ProfileStore
}

// NewSpotifyService creates a service that authenticates through tokens.
//
// profiles may be nil, which disables profile caching.
func NewSpotifyService(tokens TokenProvider, profiles ProfileStore, opts ClientOptions) (*SpotifyService, error) {
	if tokens == nil {
		return nil, fmt.Errorf("%w: token provider is required", shared.ErrInvalidConfig)
	}
	return &SpotifyService{
		client:   newAPIClient(opts),
		tokens:   tokens,
		profiles: profiles,
	}, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// doRequest performs an authenticated HTTP request to the Spotify API.
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string, query url.Values, body, result any) error {
	token, err := s.tokens.AccessToken(ctx)
	if err != nil {
		return &APIError{Status: auth.StatusOf(err), Message: "could not obtain access token", Err: err}
	}
	return s.client.send(ctx, token, method, endpoint, query, body, result)
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	return min(limit, maxLimit)
}

func pageQuery(limit, offset int) url.Values {
	q := url.Values{}
	q.Set("limit", fmt.Sprint(clampLimit(limit)))
	q.Set("offset", fmt.Sprint(max(offset, 0)))
	return q
}
