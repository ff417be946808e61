package realtime

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dmitrijs2005/jigsawhub/internal/logging"
	"github.com/dmitrijs2005/jigsawhub/internal/server/events"
	"github.com/google/uuid"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const (
	writeTimeout = 10 * time.Second
	pingTimeout  = 5 * time.Second
)

// Conn is one websocket client. Reads happen on the serving goroutine;
// writes go through a bounded queue drained by a single writer, so a slow
// client loses events instead of stalling the sender.
type Conn struct {
	id   string
	ws   *websocket.Conn
	out  chan events.Envelope
	done chan struct{}
	log  logging.Logger
}

func newConn(ws *websocket.Conn, queueSize int, log logging.Logger) *Conn {
	id := uuid.NewString()
	return &Conn{
		id:   id,
		ws:   ws,
		out:  make(chan events.Envelope, queueSize),
		done: make(chan struct{}),
		log:  log.With("conn_id", id),
	}
}

func (c *Conn) ID() string { return c.id }

// Send queues the event. It never blocks.
func (c *Conn) Send(event string, payload any) bool {
	env, err := events.Encode(event, payload)
	if err != nil {
		c.log.Error(context.Background(), "encoding event failed", "event", event, "error", err)
		return false
	}

	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.out <- env:
		return true
	default:
		return false
	}
}

func (c *Conn) writeLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case env := <-c.out:
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := wsjson.Write(wctx, c.ws, env)
			cancel()
			if err != nil {
				return err
			}
		}
	}
}

// readLoop hands every inbound envelope to handle, one at a time. Frames
// that are not JSON envelopes are answered with an error event.
func (c *Conn) readLoop(ctx context.Context, handle func(ctx context.Context, connID string, env events.Envelope)) error {
	for {
		_, data, err := c.ws.Read(ctx)
		if err != nil {
			return err
		}

		var env events.Envelope
		if err := json.Unmarshal(data, &env); err != nil || env.Event == "" {
			c.log.Debug(ctx, "malformed frame", "error", err)
			c.Send(events.Error, events.ErrorPayload{Message: "malformed message"})
			continue
		}
		handle(ctx, c.id, env)
	}
}

func (c *Conn) pingLoop(ctx context.Context, interval time.Duration) error {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			pctx, cancel := context.WithTimeout(ctx, pingTimeout)
			err := c.ws.Ping(pctx)
			cancel()
			if err != nil {
				return err
			}
		}
	}
}

func (c *Conn) close() {
	close(c.done)
}
