// Package realtime implements the websocket side of the server: the session
// registry that tracks who is online, and the hub that dispatches inbound
// events to the match controller.
package realtime

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/jigsawhub/internal/common"
	"github.com/dmitrijs2005/jigsawhub/internal/logging"
	"github.com/dmitrijs2005/jigsawhub/internal/server/auth"
	"github.com/dmitrijs2005/jigsawhub/internal/server/events"
	"github.com/dmitrijs2005/jigsawhub/internal/server/models"
)

// TokenVerifier turns a session token into the principal it was issued for.
type TokenVerifier interface {
	Verify(token string) (auth.Principal, error)
}

// FriendLister returns the accepted friends of a user.
type FriendLister interface {
	FriendIDs(ctx context.Context, userID int64) ([]int64, error)
}

// Sender queues an outbound event on one connection. It reports false when
// the event was dropped.
type Sender interface {
	Send(event string, payload any) bool
}

// Session binds an authenticated user to a connection.
type Session struct {
	ConnID string
	auth.Principal
}

// Registry is the single source of truth for presence. Every connection
// joins a private room keyed by its user id once it authenticates; events
// addressed to a user go to every connection in that room.
type Registry struct {
	verifier TokenVerifier
	friends  FriendLister
	log      logging.Logger

	mu        sync.RWMutex
	conns     map[string]Sender
	sessions  map[string]Session
	online    map[int64]string
	rooms     map[int64]map[string]struct{}
	announced map[int64]bool

	presence userLocks
}

func NewRegistry(verifier TokenVerifier, friends FriendLister, log logging.Logger) *Registry {
	return &Registry{
		verifier: verifier,
		friends:  friends,
		log:      log.With("module", "registry"),
		conns:    make(map[string]Sender),
		sessions: make(map[string]Session),
		online:   make(map[int64]string),
		rooms:    make(map[int64]map[string]struct{}),

		announced: make(map[int64]bool),
		presence:  userLocks{locks: make(map[int64]*userLock)},
	}
}

// Attach registers a live connection that has not authenticated yet.
func (r *Registry) Attach(connID string, s Sender) {
	r.mu.Lock()
	r.conns[connID] = s
	r.mu.Unlock()
}

// Authenticate verifies token and binds the connection to its user. A
// connection that was already bound to someone leaves that user's room first.
func (r *Registry) Authenticate(ctx context.Context, connID, token string) (*Session, error) {
	p, err := r.verifier.Verify(token)
	if err != nil {
		msg := "invalid token"
		if errors.Is(err, common.ErrTokenExpired) {
			msg = "token expired"
		}
		r.log.Info(ctx, "authentication failed", "conn_id", connID, "error", err)
		r.NotifyConn(ctx, connID, events.AuthenticationFailed, events.AuthenticationFailedPayload{Error: msg})
		return nil, fmt.Errorf("%w: %s", common.ErrorUnauthorized, msg)
	}

	sess := Session{ConnID: connID, Principal: p}

	r.mu.Lock()
	if _, ok := r.conns[connID]; !ok {
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: connection is closed", common.ErrorUnauthorized)
	}
	prevUser, prevOffline := r.unbindLocked(connID)
	r.sessions[connID] = sess
	r.online[p.UserID] = connID
	room, ok := r.rooms[p.UserID]
	if !ok {
		room = make(map[string]struct{})
		r.rooms[p.UserID] = room
	}
	room[connID] = struct{}{}
	r.mu.Unlock()

	if prevOffline && prevUser != p.UserID {
		r.publishPresence(ctx, prevUser)
	}

	r.log.Info(ctx, "user authenticated", "conn_id", connID, "user_id", p.UserID)
	r.publishPresence(ctx, p.UserID)
	r.NotifyConn(ctx, connID, events.AuthenticationSuccess, events.AuthenticationSuccessPayload{UserID: p.UserID})
	return &sess, nil
}

// unbindLocked drops the session of connID, if any. It returns the user that
// was bound and whether that user has no connections left.
func (r *Registry) unbindLocked(connID string) (int64, bool) {
	sess, ok := r.sessions[connID]
	if !ok {
		return 0, false
	}
	delete(r.sessions, connID)

	uid := sess.UserID
	room := r.rooms[uid]
	delete(room, connID)
	if len(room) == 0 {
		delete(r.rooms, uid)
	}

	if r.online[uid] != connID {
		return uid, false
	}
	for other := range room {
		r.online[uid] = other
		return uid, false
	}
	delete(r.online, uid)
	return uid, true
}

// Disconnect forgets the connection. When it was the user's last one, online
// friends get a single offline status update.
func (r *Registry) Disconnect(ctx context.Context, connID string) {
	r.mu.Lock()
	_, known := r.conns[connID]
	delete(r.conns, connID)
	uid, offline := r.unbindLocked(connID)
	r.mu.Unlock()

	if !known {
		r.log.Debug(ctx, "disconnect of unknown connection", "conn_id", connID)
		return
	}
	if offline {
		r.log.Info(ctx, "user went offline", "user_id", uid)
		r.publishPresence(ctx, uid)
	}
}

// Session returns the session bound to connID.
func (r *Registry) Session(connID string) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[connID]
	return s, ok
}

func (r *Registry) IsOnline(userID int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.online[userID]
	return ok
}

func (r *Registry) OnlineCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.online)
}

// NotifyUser sends the event to every connection in the user's room.
func (r *Registry) NotifyUser(ctx context.Context, userID int64, event string, payload any) {
	r.mu.RLock()
	targets := make([]Sender, 0, len(r.rooms[userID]))
	for connID := range r.rooms[userID] {
		if s, ok := r.conns[connID]; ok {
			targets = append(targets, s)
		}
	}
	r.mu.RUnlock()

	for _, s := range targets {
		if !s.Send(event, payload) {
			r.log.Warn(ctx, "event dropped", "user_id", userID, "event", event)
		}
	}
}

func (r *Registry) NotifyConn(ctx context.Context, connID, event string, payload any) {
	r.mu.RLock()
	s, ok := r.conns[connID]
	r.mu.RUnlock()

	if !ok {
		return
	}
	if !s.Send(event, payload) {
		r.log.Warn(ctx, "event dropped", "conn_id", connID, "event", event)
	}
}

// publishPresence tells online friends the user's current status. Calls for
// one user are serialized and the status is read after the lock is taken, so
// the last update a friend receives always matches the registry. A status
// that was already announced is not sent again.
func (r *Registry) publishPresence(ctx context.Context, userID int64) {
	unlock := r.presence.lock(userID)
	defer unlock()

	r.mu.RLock()
	_, online := r.online[userID]
	announced := r.announced[userID]
	r.mu.RUnlock()

	if online == announced {
		return
	}

	status := models.PresenceOffline
	if online {
		status = models.PresenceOnline
	}

	ids, err := r.friends.FriendIDs(ctx, userID)
	if err != nil {
		r.log.Error(ctx, "presence fan-out failed", "user_id", userID, "error", err)
		return
	}

	payload := events.FriendStatusPayload{UserID: userID, Status: status}
	for _, id := range ids {
		if r.IsOnline(id) {
			r.NotifyUser(ctx, id, events.FriendStatusUpdate, payload)
		}
	}

	r.mu.Lock()
	if online {
		r.announced[userID] = true
	} else {
		delete(r.announced, userID)
	}
	r.mu.Unlock()
}

type userLock struct {
	sync.Mutex
	refs int
}

// userLocks hands out one mutex per user id and forgets it once unused.
type userLocks struct {
	mu    sync.Mutex
	locks map[int64]*userLock
}

func (l *userLocks) lock(id int64) func() {
	l.mu.Lock()
	ul, ok := l.locks[id]
	if !ok {
		ul = &userLock{}
		l.locks[id] = ul
	}
	ul.refs++
	l.mu.Unlock()

	ul.Lock()
	return func() {
		ul.Unlock()
		l.mu.Lock()
		ul.refs--
		if ul.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}
