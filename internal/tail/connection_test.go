package tail

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/five82/trawl/internal/hub"
	"github.com/five82/trawl/internal/logging"
)

type ctxDialer struct {
	err  error
	ctxs chan context.Context
}

func (d *ctxDialer) Dial(ctx context.Context, _ string) (hub.Feed, error) {
	d.ctxs <- ctx
	if d.err != nil {
		return nil, d.err
	}
	return newFakeFeed(), nil
}

func newTestConnection(t *testing.T, dialErr error) (*ConnectionController, *ctxDialer, chan event) {
	t.Helper()
	d := &ctxDialer{err: dialErr, ctxs: make(chan context.Context, 1)}
	events := make(chan event, 8)
	cc := newConnectionController(d, logging.Discard(), func(ev event) bool {
		events <- ev
		return true
	})
	return cc, d, events
}

func nextDialed(t *testing.T, events chan event) dialedEvent {
	t.Helper()
	for {
		select {
		case ev := <-events:
			if dialed, ok := ev.(dialedEvent); ok {
				return dialed
			}
		case <-time.After(waitFor):
			t.Fatal("dial never finished")
			return dialedEvent{}
		}
	}
}

func TestConnection_FailedDialReleasesContext(t *testing.T) {
	t.Parallel()

	cc, d, events := newTestConnection(t, errors.New("refused"))
	cc.Open(context.Background(), "dns")
	dialCtx := <-d.ctxs

	require.False(t, cc.established(nextDialed(t, events)))
	require.Equal(t, Disconnected, cc.State())
	require.ErrorIs(t, dialCtx.Err(), context.Canceled)
}

func TestConnection_DialContextLivesUntilClose(t *testing.T) {
	t.Parallel()

	cc, d, events := newTestConnection(t, nil)
	cc.Open(context.Background(), "dns")
	dialCtx := <-d.ctxs

	require.True(t, cc.established(nextDialed(t, events)))
	require.Equal(t, Connected, cc.State())
	require.NoError(t, dialCtx.Err())

	cc.Close()
	require.Equal(t, Disconnected, cc.State())
	require.ErrorIs(t, dialCtx.Err(), context.Canceled)
}
