package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/dmitrijs2005/jigsawhub/internal/common"
	"github.com/dmitrijs2005/jigsawhub/internal/server/auth"
	"github.com/dmitrijs2005/jigsawhub/internal/server/models"
)

type fakeVerifier map[string]auth.Principal

func (f fakeVerifier) Verify(token string) (auth.Principal, error) {
	if token == "expired" {
		return auth.Principal{}, common.ErrTokenExpired
	}
	p, ok := f[token]
	if !ok {
		return auth.Principal{}, common.ErrInvalidToken
	}
	return p, nil
}

type fakeFriends map[int64][]int64

func (f fakeFriends) FriendIDs(_ context.Context, userID int64) ([]int64, error) {
	return f[userID], nil
}

// gatedFriends parks the next FriendIDs call after arm until release.
type gatedFriends struct {
	fakeFriends
	armed   atomic.Bool
	entered chan struct{}
	release chan struct{}
}

func newGatedFriends(g fakeFriends) *gatedFriends {
	return &gatedFriends{fakeFriends: g, entered: make(chan struct{}), release: make(chan struct{})}
}

func (f *gatedFriends) arm() { f.armed.Store(true) }

func (f *gatedFriends) FriendIDs(ctx context.Context, userID int64) ([]int64, error) {
	if f.armed.CompareAndSwap(true, false) {
		close(f.entered)
		<-f.release
	}
	return f.fakeFriends.FriendIDs(ctx, userID)
}

type frame struct {
	event   string
	payload any
}

type recSender struct {
	mu     sync.Mutex
	frames []frame
	full   bool
}

func (s *recSender) Send(event string, payload any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.full {
		return false
	}
	s.frames = append(s.frames, frame{event: event, payload: payload})
	return true
}

func (s *recSender) all() []frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]frame(nil), s.frames...)
}

func (s *recSender) last() frame {
	f := s.all()
	if len(f) == 0 {
		return frame{}
	}
	return f[len(f)-1]
}

func (s *recSender) count(event string) int {
	n := 0
	for _, f := range s.all() {
		if f.event == event {
			n++
		}
	}
	return n
}

type call struct {
	method string
	user   int64
	args   []any
}

type fakeController struct {
	mu    sync.Mutex
	calls []call
	err   error
	panic bool
}

func (f *fakeController) record(method string, user int64, args ...any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panic {
		panic("boom")
	}
	f.calls = append(f.calls, call{method: method, user: user, args: args})
	return f.err
}

func (f *fakeController) Invite(_ context.Context, c auth.Principal, opponentID int64, difficulty, imageSource string) (*models.Match, error) {
	return &models.Match{}, f.record("invite", c.UserID, opponentID, difficulty, imageSource)
}

func (f *fakeController) Respond(_ context.Context, r auth.Principal, matchID int64, response string) (*models.Match, error) {
	return &models.Match{}, f.record("respond", r.UserID, matchID, response)
}

func (f *fakeController) ReportProgress(_ context.Context, userID, matchID int64, progress json.RawMessage) error {
	return f.record("progress", userID, matchID, string(progress))
}

func (f *fakeController) Finish(_ context.Context, userID, matchID, timeMs int64) (*models.Match, error) {
	return &models.Match{}, f.record("finish", userID, matchID, timeMs)
}

func (f *fakeController) recorded() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}
