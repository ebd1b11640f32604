package hub

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Feed is one open live-feed connection.
type Feed interface {
	// ReadFrame blocks until the next text frame arrives or the feed closes.
	ReadFrame() ([]byte, error)
	Close() error
}

// Dialer opens live-feed connections filtered by query.
type Dialer interface {
	Dial(ctx context.Context, query string) (Feed, error)
}

// ErrFeedClosed is returned by ReadFrame after Close.
var ErrFeedClosed = errors.New("feed closed")

// Ensure WSDialer implements Dialer at compile time.
var _ Dialer = (*WSDialer)(nil)

const (
	handshakeTimeout = 5 * time.Second
	closeGrace       = time.Second
)

// WSDialer dials the hub's /ws endpoint.
type WSDialer struct {
	url    *url.URL
	dialer *websocket.Dialer
	header http.Header
}

// NewWSDialer builds a dialer for the hub at hubURL.
func NewWSDialer(hubURL string) (*WSDialer, error) {
	base, err := parseBaseURL(hubURL)
	if err != nil {
		return nil, err
	}
	header := http.Header{}
	header.Set("User-Agent", defaultUserAgent)
	return &WSDialer{
		url: websocketURL(base),
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: handshakeTimeout,
		},
		header: header,
	}, nil
}

// URL returns the websocket address used by Dial.
func (d *WSDialer) URL() string {
	return d.url.String()
}

// Dial connects and sends query as the first frame, which the hub treats as
// the stream filter.
func (d *WSDialer) Dial(ctx context.Context, query string) (Feed, error) {
	conn, resp, err := d.dialer.DialContext(ctx, d.url.String(), d.header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", d.url.Redacted(), err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, []byte(query)); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("send query: %w", err)
	}
	return &wsFeed{conn: conn}, nil
}

type wsFeed struct {
	conn      *websocket.Conn
	closeOnce sync.Once
	mu        sync.Mutex
	closed    bool
}

func (f *wsFeed) ReadFrame() ([]byte, error) {
	_, data, err := f.conn.ReadMessage()
	if err != nil {
		f.mu.Lock()
		closed := f.closed
		f.mu.Unlock()
		if closed {
			return nil, ErrFeedClosed
		}
		return nil, err
	}
	return data, nil
}

func (f *wsFeed) Close() error {
	var err error
	f.closeOnce.Do(func() {
		f.mu.Lock()
		f.closed = true
		f.mu.Unlock()
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = f.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGrace))
		err = f.conn.Close()
	})
	return err
}
