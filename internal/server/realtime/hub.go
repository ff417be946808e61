package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/jigsawhub/internal/common"
	"github.com/dmitrijs2005/jigsawhub/internal/logging"
	"github.com/dmitrijs2005/jigsawhub/internal/server/auth"
	"github.com/dmitrijs2005/jigsawhub/internal/server/events"
	"github.com/dmitrijs2005/jigsawhub/internal/server/models"
	"github.com/dmitrijs2005/jigsawhub/internal/server/services"
	"golang.org/x/sync/errgroup"
	"nhooyr.io/websocket"
)

const (
	defaultQueueSize    = 64
	defaultPingInterval = 30 * time.Second
	disconnectTimeout   = 5 * time.Second
)

// MatchController is the part of the match service the hub drives.
type MatchController interface {
	Invite(ctx context.Context, challenger auth.Principal, opponentID int64, difficulty, imageSource string) (*models.Match, error)
	Respond(ctx context.Context, responder auth.Principal, matchID int64, response string) (*models.Match, error)
	ReportProgress(ctx context.Context, userID, matchID int64, progress json.RawMessage) error
	Finish(ctx context.Context, userID, matchID, timeMs int64) (*models.Match, error)
}

// Hub accepts websocket connections on /ws and dispatches their events.
// Events of one connection are handled in order; connections run
// concurrently.
type Hub struct {
	base         context.Context
	registry     *Registry
	matches      MatchController
	log          logging.Logger
	queueSize    int
	pingInterval time.Duration
	origins      []string
}

type HubOption func(*Hub)

func WithQueueSize(n int) HubOption {
	return func(h *Hub) {
		if n > 0 {
			h.queueSize = n
		}
	}
}

func WithPingInterval(d time.Duration) HubOption {
	return func(h *Hub) {
		if d > 0 {
			h.pingInterval = d
		}
	}
}

// WithOriginPatterns restricts which Origin hosts may open a connection.
// Patterns use path.Match syntax, e.g. "*.example.com".
func WithOriginPatterns(patterns ...string) HubOption {
	return func(h *Hub) {
		if len(patterns) > 0 {
			h.origins = patterns
		}
	}
}

// NewHub returns a hub whose connections are closed with StatusGoingAway
// once base is cancelled.
func NewHub(base context.Context, registry *Registry, matches MatchController, log logging.Logger, opts ...HubOption) *Hub {
	h := &Hub{
		base:         base,
		registry:     registry,
		matches:      matches,
		log:          log.With("module", "hub"),
		queueSize:    defaultQueueSize,
		pingInterval: defaultPingInterval,
		origins:      []string{"*"},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.origins})
	if err != nil {
		h.log.Warn(r.Context(), "websocket upgrade failed", "error", err)
		return
	}

	c := newConn(ws, h.queueSize, h.log)
	ctx := r.Context()

	h.registry.Attach(c.ID(), c)
	h.log.Info(ctx, "client connected", "conn_id", c.ID())

	stop := context.AfterFunc(h.base, func() {
		_ = ws.Close(websocket.StatusGoingAway, "server shutting down")
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.writeLoop(gctx) })
	g.Go(func() error { return c.pingLoop(gctx, h.pingInterval) })
	g.Go(func() error { return c.readLoop(gctx, h.dispatch) })
	err = g.Wait()

	stop()
	c.close()
	_ = ws.Close(websocket.StatusNormalClosure, "")

	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), disconnectTimeout)
	defer cancel()
	h.registry.Disconnect(dctx, c.ID())

	h.log.Info(ctx, "client disconnected", "conn_id", c.ID(), "status", websocket.CloseStatus(err))
}

// dispatch handles one inbound event. It never panics and never returns an
// error: failures are reported to the client as events.
func (h *Hub) dispatch(ctx context.Context, connID string, env events.Envelope) {
	defer func() {
		if p := recover(); p != nil {
			h.log.Error(ctx, "event handler panicked", "conn_id", connID, "event", env.Event, "panic", p)
			h.registry.NotifyConn(ctx, connID, events.Error, events.ErrorPayload{Message: "operation failed"})
		}
	}()

	h.log.Debug(ctx, "event received", "conn_id", connID, "event", env.Event)

	if env.Event == events.Authenticate {
		var p events.AuthenticatePayload
		if err := decode(env.Data, &p); err != nil {
			h.report(ctx, connID, env.Event, err)
			return
		}
		// failures are already reported to the client by the registry
		_, _ = h.registry.Authenticate(ctx, connID, p.Token)
		return
	}

	sess, ok := h.registry.Session(connID)
	if !ok {
		h.registry.NotifyConn(ctx, connID, events.AuthenticationFailed,
			events.AuthenticationFailedPayload{Error: "session not authenticated"})
		return
	}

	h.report(ctx, connID, env.Event, h.handle(ctx, sess, env))
}

func (h *Hub) handle(ctx context.Context, sess Session, env events.Envelope) error {
	switch env.Event {
	case events.InviteToMatch:
		var p events.InviteToMatchPayload
		if err := decode(env.Data, &p); err != nil {
			return err
		}
		_, err := h.matches.Invite(ctx, sess.Principal, p.OpponentID, p.Difficulty, p.ImageSource)
		return err

	case events.RespondToInvite:
		var p events.RespondToInvitePayload
		if err := decode(env.Data, &p); err != nil {
			return err
		}
		_, err := h.matches.Respond(ctx, sess.Principal, p.MatchID, p.Response)
		return err

	case events.PlayerProgressUpdate:
		var p events.PlayerProgressPayload
		if err := decode(env.Data, &p); err != nil {
			return err
		}
		return h.matches.ReportProgress(ctx, sess.UserID, p.MatchID, p.Progress)

	case events.PlayerFinished:
		var p events.PlayerFinishedPayload
		if err := decode(env.Data, &p); err != nil {
			return err
		}
		if p.TimeMs == nil {
			return fmt.Errorf("%w: time_ms is required", common.ErrValidation)
		}
		_, err := h.matches.Finish(ctx, sess.UserID, p.MatchID, *p.TimeMs)
		return err
	}

	return fmt.Errorf("%w: unknown event %s", common.ErrValidation, env.Event)
}

// report maps a handler error to the event the client gets.
func (h *Hub) report(ctx context.Context, connID, event string, err error) {
	switch {
	case err == nil:
		return
	case errors.Is(err, common.ErrTransitionRejected):
		h.log.Debug(ctx, "stale event ignored", "conn_id", connID, "event", event)
	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired):
		h.registry.NotifyConn(ctx, connID, events.AuthenticationFailed,
			events.AuthenticationFailedPayload{Error: "session not authenticated"})
	case errors.Is(err, services.ErrOpponentOffline):
		h.send(ctx, connID, err.Error())
	case errors.Is(err, common.ErrValidation):
		h.send(ctx, connID, common.Message(err, common.ErrValidation))
	case errors.Is(err, common.ErrorNotFound):
		h.send(ctx, connID, common.Message(err, common.ErrorNotFound))
	case errors.Is(err, common.ErrConflict):
		h.send(ctx, connID, common.Message(err, common.ErrConflict))
	default:
		h.log.Error(ctx, "event handling failed", "conn_id", connID, "event", event, "error", err)
		h.send(ctx, connID, "operation failed")
	}
}

func (h *Hub) send(ctx context.Context, connID, msg string) {
	h.registry.NotifyConn(ctx, connID, events.Error, events.ErrorPayload{Message: msg})
}

func decode(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: payload is required", common.ErrValidation)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: malformed payload", common.ErrValidation)
	}
	return nil
}
