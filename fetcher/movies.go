package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/pithecene-io/lookahead/iox"
	"github.com/pithecene-io/lookahead/types"
)

// DefaultBaseURL is the movie search API root.
const DefaultBaseURL = "https://api.themoviedb.org/3"

// DefaultLanguage is the result language requested when none is configured.
const DefaultLanguage = "en-US"

// DefaultTimeout is the default per-request timeout.
const DefaultTimeout = 10 * time.Second

// DefaultMaxQueryLength is the longest query, in runes, accepted before
// ErrInvalidQuery.
const DefaultMaxQueryLength = 500

// DefaultMaxBodyBytes bounds how much of a response body is decoded.
const DefaultMaxBodyBytes int64 = 8 * 1024 * 1024

const searchPath = "/search/movie"

var errMissingResults = errors.New("response has no results array")

// Config configures a MovieClient.
type Config struct {
	// BaseURL is the API root (default DefaultBaseURL).
	BaseURL string
	// Token is the static bearer credential (required).
	Token string
	// Language is sent as the language parameter (default en-US).
	Language string
	// IncludeAdult is sent as the include_adult parameter.
	IncludeAdult bool
	// Timeout is the per-request timeout (default 10s).
	Timeout time.Duration
	// MaxQueryLength bounds the trimmed query length in runes (default 500).
	MaxQueryLength int
	// MaxBodyBytes bounds the decoded body size (default 8 MiB).
	MaxBodyBytes int64
	// HTTPClient overrides the client built from Timeout.
	HTTPClient *http.Client
}

// MovieClient fetches movie search results over HTTP.
// Safe for concurrent use.
type MovieClient struct {
	config   Config
	endpoint *url.URL
	client   *http.Client
}

// New creates a MovieClient from the given config.
// Returns an error if the token is empty or the base URL is unusable.
func New(cfg Config) (*MovieClient, error) {
	if cfg.Token == "" {
		return nil, errors.New("movie client requires a token")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Language == "" {
		cfg.Language = DefaultLanguage
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxQueryLength <= 0 {
		cfg.MaxQueryLength = DefaultMaxQueryLength
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}

	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("movie client: invalid base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("movie client: base URL must be http or https, got %q", cfg.BaseURL)
	}
	endpoint := base.JoinPath(searchPath)

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	return &MovieClient{
		config:   cfg,
		endpoint: endpoint,
		client:   client,
	}, nil
}

// Endpoint returns the search URL without query parameters.
func (c *MovieClient) Endpoint() string {
	return c.endpoint.String()
}

// Fetch performs one GET for query and decodes the results array.
func (c *MovieClient) Fetch(ctx context.Context, query string) ([]types.Movie, error) {
	trimmed, err := NormalizeQuery(query, c.config.MaxQueryLength)
	if err != nil {
		return nil, newError(ErrInvalidQuery, query, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, c.contextError(query, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.requestURL(trimmed), nil)
	if err != nil {
		return nil, newError(ErrInvalidQuery, query, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.Token)
	req.Header.Set("User-Agent", "lookahead/"+types.Version)

	resp, err := c.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, c.contextError(query, ctxErr)
		}
		return nil, newError(ErrTransport, query, err)
	}
	defer iox.DrainClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, newError(ErrTransport, query, &StatusError{Code: resp.StatusCode})
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.config.MaxBodyBytes+1))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, c.contextError(query, ctxErr)
		}
		return nil, newError(ErrTransport, query, fmt.Errorf("read body: %w", err))
	}
	if int64(len(body)) > c.config.MaxBodyBytes {
		return nil, newError(ErrDecode, query, fmt.Errorf("body exceeds %d bytes", c.config.MaxBodyBytes))
	}

	var decoded types.MovieSearchResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, newError(ErrDecode, query, err)
	}
	if decoded.Results == nil {
		return nil, newError(ErrDecode, query, errMissingResults)
	}

	// A cancelled fetch must never report success.
	if err := ctx.Err(); err != nil {
		return nil, c.contextError(query, err)
	}

	return *decoded.Results, nil
}

// Close releases idle connections.
func (c *MovieClient) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

// contextError returns cancellation as-is and maps an expired deadline to a
// transport failure.
func (c *MovieClient) contextError(query string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return newError(ErrTransport, query, err)
	}
	return err
}

func (c *MovieClient) requestURL(trimmed string) string {
	u := *c.endpoint
	params := url.Values{}
	params.Set("query", trimmed)
	params.Set("include_adult", strconv.FormatBool(c.config.IncludeAdult))
	params.Set("language", c.config.Language)
	params.Set("page", "1")
	u.RawQuery = params.Encode()
	return u.String()
}

// NormalizeQuery trims raw and checks that it can be sent as a query parameter.
// It rejects blank text, invalid UTF-8, control characters, and text longer
// than maxLen runes (maxLen <= 0 disables the length check).
func NormalizeQuery(raw string, maxLen int) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", errors.New("query is blank")
	}
	if !utf8.ValidString(trimmed) {
		return "", errors.New("query is not valid UTF-8")
	}
	if strings.IndexFunc(trimmed, unicode.IsControl) >= 0 {
		return "", errors.New("query contains control characters")
	}
	if maxLen > 0 && utf8.RuneCountInString(trimmed) > maxLen {
		return "", fmt.Errorf("query longer than %d characters", maxLen)
	}
	return trimmed, nil
}

// Verify MovieClient implements the Fetcher interface.
var _ Fetcher[types.Movie] = (*MovieClient)(nil)
