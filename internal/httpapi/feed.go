package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

const (
	feedWriteTimeout = 5 * time.Second
	feedPingInterval = 30 * time.Second
)

// FeedMessage is sent on /api/feed: once on connect, then after every
// applied mutation. Revisions may skip when the client reads slowly.
type FeedMessage struct {
	Type        string `json:"type"` // "hello" or "changed"
	Revision    uint64 `json:"revision"`
	Fingerprint string `json:"fingerprint"`
}

func (a *api) handleFeed(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, nil)
	if err != nil {
		slog.Warn("feed upgrade failed", "request_id", requestID(r.Context()), "error", err)
		return
	}
	defer c.CloseNow()

	revisions, cancel := a.tr.Subscribe()
	defer cancel()

	// The feed is one-way; CloseRead handles control frames and cancels ctx
	// when the client goes away.
	ctx := c.CloseRead(r.Context())

	if err := a.send(ctx, c, "hello", a.tr.Revision()); err != nil {
		return
	}

	ping := time.NewTicker(feedPingInterval)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case rev, ok := <-revisions:
			if !ok {
				c.Close(websocket.StatusGoingAway, "feed closed")
				return
			}
			if err := a.send(ctx, c, "changed", rev); err != nil {
				return
			}
		case <-ping.C:
			pctx, pcancel := context.WithTimeout(ctx, feedWriteTimeout)
			err := c.Ping(pctx)
			pcancel()
			if err != nil {
				slog.Debug("feed ping failed", "error", err)
				return
			}
		}
	}
}

func (a *api) send(ctx context.Context, c *websocket.Conn, typ string, rev uint64) error {
	wctx, cancel := context.WithTimeout(ctx, feedWriteTimeout)
	defer cancel()
	msg := FeedMessage{Type: typ, Revision: rev, Fingerprint: a.tr.Fingerprint()}
	if err := wsjson.Write(wctx, c, msg); err != nil {
		if !errors.Is(err, context.Canceled) {
			slog.Debug("feed write failed", "type", typ, "error", err)
		}
		return err
	}
	return nil
}
