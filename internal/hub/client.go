package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// EntriesFetcher retrieves pages of historical entries.
// This interface is implemented by *Client and can be used for testing.
type EntriesFetcher interface {
	FetchEntries(ctx context.Context, query FetchQuery) (*EntriesPage, error)
}

// Ensure Client implements EntriesFetcher at compile time.
var _ EntriesFetcher = (*Client)(nil)

// Client talks to the hub HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
}

const (
	defaultHubURL    = "127.0.0.1:8898"
	defaultUserAgent = "trawl/0.1"
	requestTimeout   = 10 * time.Second
)

// Direction values for FetchQuery.
const (
	DirectionOlder = -1
	DirectionNewer = 1
)

// FetchQuery configures /entries requests.
//
// LeftOff is the exclusive boundary id. With DirectionOlder the hub returns
// entries below it, newest first.
type FetchQuery struct {
	LeftOff   int64
	Direction int
	Query     string
	Limit     int
	Timeout   time.Duration
}

// NewClient builds a Client for the hub at hubURL (host:port or full URL).
func NewClient(hubURL string) (*Client, error) {
	base, err := parseBaseURL(hubURL)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: requestTimeout,
		},
		userAgent: defaultUserAgent,
	}, nil
}

// BaseURL returns the normalized hub address.
func (c *Client) BaseURL() *url.URL {
	u := *c.baseURL
	return &u
}

// FetchEntries retrieves one page of entries around query.LeftOff.
func (c *Client) FetchEntries(ctx context.Context, query FetchQuery) (*EntriesPage, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	direction := query.Direction
	if direction == 0 {
		direction = DirectionOlder
	}
	values := url.Values{}
	values.Set("leftOff", strconv.FormatInt(query.LeftOff, 10))
	values.Set("direction", strconv.Itoa(direction))
	values.Set("query", strings.TrimSpace(query.Query))
	if query.Limit > 0 {
		values.Set("limit", strconv.Itoa(query.Limit))
	}
	if query.Timeout > 0 {
		values.Set("timeoutMs", strconv.FormatInt(query.Timeout.Milliseconds(), 10))
	}
	rel := &url.URL{Path: "/entries/", RawQuery: values.Encode()}
	var payload EntriesPage
	if err := c.doURL(ctx, http.MethodGet, rel, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func (c *Client) doURL(ctx context.Context, method string, rel *url.URL, dest any) error {
	reqURL := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("api %s returned status %d", rel.Path, resp.StatusCode)
	}
	if dest == nil {
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func parseBaseURL(hubURL string) (*url.URL, error) {
	trimmed := strings.TrimSpace(hubURL)
	if trimmed == "" {
		trimmed = defaultHubURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse hub url %q: %w", hubURL, err)
	}
	switch u.Scheme {
	case "ws":
		u.Scheme = "http"
	case "wss":
		u.Scheme = "https"
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

// websocketURL derives the live feed address from the HTTP base.
func websocketURL(base *url.URL) *url.URL {
	u := *base
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	u.Path = "/ws"
	return &u
}
