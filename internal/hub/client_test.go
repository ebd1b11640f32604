package hub

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestParseBaseURL_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseBaseURL("")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Scheme != "http" {
		t.Fatalf("scheme = %q, want http", u.Scheme)
	}
	if u.Host != defaultHubURL {
		t.Fatalf("host = %q, want %q", u.Host, defaultHubURL)
	}

	u, err = parseBaseURL("http://example.com:1234/path?x=1#frag")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Path != "" || u.RawQuery != "" || u.Fragment != "" {
		t.Fatalf("url not normalized: %q", u.String())
	}

	u, err = parseBaseURL("wss://hub.example.com")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Scheme != "https" {
		t.Fatalf("scheme = %q, want https", u.Scheme)
	}
	if got := websocketURL(u).String(); got != "wss://hub.example.com/ws" {
		t.Fatalf("websocketURL = %q, want wss://hub.example.com/ws", got)
	}
}

func TestClient_FetchEntriesEncodesQuery(t *testing.T) {
	t.Parallel()

	var gotQuery url.Values
	var gotPath string
	var gotUserAgent string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		gotUserAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"data": [{"id": 41, "timestamp": 1700000000000, "proto": "http", "method": "GET", "path": "/a", "status": 200, "extra": {"k": "v"}},
			         {"id": 40}],
			"meta": {"leftOff": 40, "total": 1234, "truncatedTimestamp": 1699999999000}
		}`))
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)

	page, err := c.FetchEntries(ctx, FetchQuery{
		LeftOff:   41,
		Direction: DirectionOlder,
		Query:     " http and response.status == 200 ",
		Limit:     100,
		Timeout:   3 * time.Second,
	})
	if err != nil {
		t.Fatalf("FetchEntries returned error: %v", err)
	}
	if gotPath != "/entries/" {
		t.Fatalf("path = %q, want /entries/", gotPath)
	}
	if gotQuery.Get("leftOff") != "41" ||
		gotQuery.Get("direction") != "-1" ||
		gotQuery.Get("query") != "http and response.status == 200" ||
		gotQuery.Get("limit") != "100" ||
		gotQuery.Get("timeoutMs") != "3000" {
		t.Fatalf("FetchEntries query = %v, want params encoded", gotQuery)
	}
	if !strings.HasPrefix(gotUserAgent, "trawl/") {
		t.Fatalf("User-Agent = %q, want trawl/*", gotUserAgent)
	}

	if page.Meta == nil || page.Meta.LeftOff != 40 || page.Meta.Total != 1234 {
		t.Fatalf("meta = %#v, want leftOff=40 total=1234", page.Meta)
	}
	if len(page.Data) != 2 || page.Data[0].ID != 41 || page.Data[1].ID != 40 {
		t.Fatalf("data = %#v, want ids 41,40", page.Data)
	}
	first := page.Data[0]
	if first.Method != "GET" || first.Status != 200 || first.Time().UnixMilli() != 1700000000000 {
		t.Fatalf("first entry = %#v, want decoded display fields", first)
	}
	var raw map[string]any
	if err := json.Unmarshal(first.Raw, &raw); err != nil {
		t.Fatalf("raw payload not retained: %v", err)
	}
	if _, ok := raw["extra"]; !ok {
		t.Fatalf("raw payload = %v, want unknown fields preserved", raw)
	}
}

func TestClient_FetchEntriesDefaultsDirection(t *testing.T) {
	t.Parallel()

	var gotDirection string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotDirection = r.URL.Query().Get("direction")
		_, _ = w.Write([]byte(`{"data": null, "meta": null}`))
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	page, err := c.FetchEntries(context.Background(), FetchQuery{LeftOff: 5})
	if err != nil {
		t.Fatalf("FetchEntries returned error: %v", err)
	}
	if gotDirection != "-1" {
		t.Fatalf("direction = %q, want -1", gotDirection)
	}
	if page.Meta != nil || page.Data != nil {
		t.Fatalf("page = %#v, want empty page", page)
	}
}

func TestClient_HTTPErrorAndDecodeError(t *testing.T) {
	t.Parallel()

	var fail atomic.Bool
	fail.Store(true)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			http.Error(w, "nope", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("{not-json"))
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	_, err = c.FetchEntries(context.Background(), FetchQuery{LeftOff: 1})
	if err == nil || !strings.Contains(err.Error(), "returned status 500") {
		t.Fatalf("FetchEntries error = %v, want status 500 error", err)
	}

	fail.Store(false)
	_, err = c.FetchEntries(context.Background(), FetchQuery{LeftOff: 1})
	if err == nil || !strings.Contains(err.Error(), "decode response") {
		t.Fatalf("FetchEntries error = %v, want decode response error", err)
	}
}

func TestEndpointString(t *testing.T) {
	tests := []struct {
		name string
		in   Endpoint
		want string
	}{
		{"name and port", Endpoint{Name: "api", IP: "10.0.0.1", Port: "80"}, "api:80"},
		{"ip fallback", Endpoint{IP: "10.0.0.1", Port: "443"}, "10.0.0.1:443"},
		{"no port", Endpoint{Name: "db"}, "db"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}
