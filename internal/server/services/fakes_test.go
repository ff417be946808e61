package services

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/jigsawhub/internal/common"
	"github.com/dmitrijs2005/jigsawhub/internal/dbx"
	"github.com/dmitrijs2005/jigsawhub/internal/server/models"
	"github.com/dmitrijs2005/jigsawhub/internal/server/repositories/achievements"
	"github.com/dmitrijs2005/jigsawhub/internal/server/repositories/friendships"
	"github.com/dmitrijs2005/jigsawhub/internal/server/repositories/matches"
	"github.com/dmitrijs2005/jigsawhub/internal/server/repositories/saves"
	"github.com/dmitrijs2005/jigsawhub/internal/server/repositories/scores"
	"github.com/dmitrijs2005/jigsawhub/internal/server/repositories/users"
)

// --- repo manager ---

type fakeRepoManager struct {
	users        *fakeUsers
	matches      *memMatches
	friendships  *memFriendships
	scores       *fakeScores
	achievements *fakeAchievements
	saves        *fakeSaves
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		users:        &fakeUsers{byID: map[int64]*models.User{}},
		matches:      &memMatches{rows: map[int64]*models.Match{}},
		friendships:  &memFriendships{rows: map[int64]*models.Friendship{}},
		scores:       &fakeScores{},
		achievements: &fakeAchievements{unlocked: map[string]bool{}},
		saves:        &fakeSaves{},
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository              { return m.users }
func (m *fakeRepoManager) Matches(dbx.DBTX) matches.Repository          { return m.matches }
func (m *fakeRepoManager) Friendships(dbx.DBTX) friendships.Repository  { return m.friendships }
func (m *fakeRepoManager) Scores(dbx.DBTX) scores.Repository            { return m.scores }
func (m *fakeRepoManager) Saves(dbx.DBTX) saves.Repository              { return m.saves }

func (m *fakeRepoManager) Achievements(dbx.DBTX) achievements.Repository {
	return m.achievements
}

// --- users ---

type fakeUsers struct {
	mu     sync.Mutex
	byID   map[int64]*models.User
	nextID int64
	err    error
}

func (f *fakeUsers) add(u *models.User) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u.ID == 0 {
		f.nextID++
		u.ID = f.nextID
	} else if u.ID > f.nextID {
		f.nextID = u.ID
	}
	f.byID[u.ID] = u
	return u
}

func (f *fakeUsers) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	ok, _ := f.ExistsByUsernameOrEmail(ctx, u.Username, u.Email)
	if ok {
		return nil, common.ErrConflict
	}
	return f.add(u), nil
}

func (f *fakeUsers) find(match func(*models.User) bool) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if match(u) {
			return u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsers) GetByID(_ context.Context, id int64) (*models.User, error) {
	return f.find(func(u *models.User) bool { return u.ID == id })
}

func (f *fakeUsers) GetByLogin(_ context.Context, login string) (*models.User, error) {
	return f.find(func(u *models.User) bool { return u.Username == login || u.Email == strings.ToLower(login) })
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return f.find(func(u *models.User) bool { return u.Email == email })
}

func (f *fakeUsers) ExistsByUsernameOrEmail(_ context.Context, username, email string) (bool, error) {
	u, err := f.find(func(u *models.User) bool { return u.Username == username || u.Email == email })
	if err != nil && err != common.ErrorNotFound {
		return false, err
	}
	return u != nil, nil
}

func (f *fakeUsers) Search(_ context.Context, callerID int64, query string, limit int) ([]models.UserSearchResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.UserSearchResult{}
	for _, u := range f.byID {
		if u.ID != callerID && strings.Contains(strings.ToLower(u.Username), strings.ToLower(query)) {
			out = append(out, models.UserSearchResult{ID: u.ID, Username: u.Username})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// --- matches: conditional updates under a mutex, like the SQL ones ---

type memMatches struct {
	mu     sync.Mutex
	rows   map[int64]*models.Match
	nextID int64
	err    error
}

func (r *memMatches) clone(m *models.Match) *models.Match {
	c := *m
	return &c
}

func (r *memMatches) Create(_ context.Context, m *models.Match) (*models.Match, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	m.ID = r.nextID
	m.Status = models.MatchPending
	m.CreatedAt = time.Now()
	r.rows[m.ID] = r.clone(m)
	return r.clone(m), nil
}

func (r *memMatches) GetByID(_ context.Context, id int64) (*models.Match, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.rows[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return r.clone(m), nil
}

func (r *memMatches) update(id int64, cond func(*models.Match) bool, apply func(*models.Match)) (*models.Match, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.rows[id]
	if !ok || !cond(m) {
		return nil, common.ErrTransitionRejected
	}
	apply(m)
	return r.clone(m), nil
}

func (r *memMatches) Accept(_ context.Context, id, opponentID int64) (*models.Match, error) {
	return r.update(id,
		func(m *models.Match) bool { return m.OpponentID == opponentID && m.Status == models.MatchPending },
		func(m *models.Match) {
			now := time.Now()
			m.Status = models.MatchInProgress
			m.StartedAt = &now
		})
}

func (r *memMatches) Decline(_ context.Context, id, opponentID int64) (*models.Match, error) {
	return r.update(id,
		func(m *models.Match) bool { return m.OpponentID == opponentID && m.Status == models.MatchPending },
		func(m *models.Match) { m.Status = models.MatchDeclined })
}

func (r *memMatches) Finish(_ context.Context, id, userID, timeMs int64) (*models.Match, error) {
	return r.update(id,
		func(m *models.Match) bool { return m.Status == models.MatchInProgress && m.IsParticipant(userID) },
		func(m *models.Match) {
			now := time.Now()
			winner, t := userID, timeMs
			m.Status = models.MatchCompleted
			m.WinnerID = &winner
			m.CompletedAt = &now
			if m.ChallengerID == userID {
				m.ChallengerTimeMs = &t
			} else {
				m.OpponentTimeMs = &t
			}
		})
}

func (r *memMatches) ExpireIdle(_ context.Context, cutoff time.Time) ([]*models.Match, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Match
	for _, m := range r.rows {
		stale := (m.Status == models.MatchPending && m.CreatedAt.Before(cutoff)) ||
			(m.Status == models.MatchInProgress && m.StartedAt != nil && m.StartedAt.Before(cutoff))
		if stale {
			m.Status = models.MatchExpired
			out = append(out, r.clone(m))
		}
	}
	return out, nil
}

func (r *memMatches) History(_ context.Context, userID int64, limit int) ([]models.MatchHistoryEntry, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.MatchHistoryEntry{}
	for _, m := range r.rows {
		if m.Status == models.MatchCompleted && m.IsParticipant(userID) {
			out = append(out, models.MatchHistoryEntry{
				ID: m.ID, OpponentID: m.OpponentOf(userID), WinnerID: m.WinnerID,
				Result: models.ResultFor(m.WinnerID, userID),
			})
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memMatches) Stats(_ context.Context, userID int64) (models.MatchStats, error) {
	return models.MatchStats{}, r.err
}

// --- friendships ---

type memFriendships struct {
	mu     sync.Mutex
	rows   map[int64]*models.Friendship
	nextID int64
	err    error
}

func (r *memFriendships) Create(_ context.Context, f *models.Friendship) (*models.Friendship, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.UserOneID == f.UserOneID && row.UserTwoID == f.UserTwoID {
			return nil, common.ErrConflict
		}
	}
	r.nextID++
	f.ID = r.nextID
	f.Status = models.FriendshipPending
	c := *f
	r.rows[f.ID] = &c
	return f, nil
}

func (r *memFriendships) pendingFor(id, userID int64) (*models.Friendship, bool) {
	f, ok := r.rows[id]
	if !ok || f.Status != models.FriendshipPending || f.ActionUserID == userID ||
		(f.UserOneID != userID && f.UserTwoID != userID) {
		return nil, false
	}
	return f, true
}

func (r *memFriendships) GetPendingForResponder(_ context.Context, id, userID int64) (*models.Friendship, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.pendingFor(id, userID)
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *f
	return &c, nil
}

func (r *memFriendships) Accept(_ context.Context, id, responderID int64) (*models.Friendship, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.pendingFor(id, responderID)
	if !ok {
		return nil, common.ErrTransitionRejected
	}
	f.Status = models.FriendshipAccepted
	f.ActionUserID = responderID
	c := *f
	return &c, nil
}

func (r *memFriendships) Decline(_ context.Context, id, responderID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.pendingFor(id, responderID); !ok {
		return common.ErrTransitionRejected
	}
	delete(r.rows, id)
	return nil
}

func (r *memFriendships) accepted(userID int64) []int64 {
	var ids []int64
	for _, f := range r.rows {
		if f.Status == models.FriendshipAccepted && (f.UserOneID == userID || f.UserTwoID == userID) {
			ids = append(ids, f.Other(userID))
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (r *memFriendships) ListFriends(_ context.Context, userID int64) ([]models.Friend, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Friend{}
	for _, id := range r.accepted(userID) {
		out = append(out, models.Friend{ID: id})
	}
	return out, nil
}

func (r *memFriendships) FriendIDs(_ context.Context, userID int64) ([]int64, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.accepted(userID), nil
}

func (r *memFriendships) ListIncoming(_ context.Context, userID int64) ([]models.FriendRequest, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.FriendRequest{}
	for _, f := range r.rows {
		if _, ok := r.pendingFor(f.ID, userID); ok {
			out = append(out, models.FriendRequest{FriendshipID: f.ID, UserID: f.ActionUserID, Status: f.Status})
		}
	}
	return out, nil
}

// --- scores / achievements / saves ---

type fakeScores struct {
	created      []*models.Score
	createErr    error
	gotLimit     int
	gotDiff      string
	profileStats models.ProfileStats
}

func (f *fakeScores) Create(_ context.Context, s *models.Score) (*models.Score, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	s.ID = int64(len(f.created) + 1)
	f.created = append(f.created, s)
	return s, nil
}

func (f *fakeScores) Leaderboard(_ context.Context, difficulty string, limit int) ([]models.LeaderboardEntry, error) {
	f.gotDiff, f.gotLimit = difficulty, limit
	return []models.LeaderboardEntry{}, nil
}

func (f *fakeScores) ProfileStats(context.Context, int64) (models.ProfileStats, error) {
	return f.profileStats, nil
}

func (f *fakeScores) ScoreStats(context.Context, int64) (models.ScoreStats, error) {
	return models.ScoreStats{TotalGames: 3}, nil
}

type fakeAchievements struct {
	unlocked map[string]bool
}

func (f *fakeAchievements) List(context.Context, int64) ([]models.UserAchievement, error) {
	out := []models.UserAchievement{}
	for id := range f.unlocked {
		out = append(out, models.UserAchievement{AchievementID: id})
	}
	return out, nil
}

func (f *fakeAchievements) Unlock(_ context.Context, _ int64, id string) (*models.UserAchievement, error) {
	if f.unlocked[id] {
		return nil, common.ErrConflict
	}
	f.unlocked[id] = true
	return &models.UserAchievement{AchievementID: id, CompletedAt: time.Now()}, nil
}

type fakeSaves struct {
	upserted      *models.SaveGame
	list          []models.SaveGame
	latest        *models.SaveGame
	gotFilter     models.SaveFilter
	deleted       int64
	deletedByDiff []string
	deleteDiffErr error
}

func (f *fakeSaves) Upsert(_ context.Context, s *models.SaveGame) (*models.SaveGame, error) {
	s.ID = 1
	f.upserted = s
	return s, nil
}

func (f *fakeSaves) List(context.Context, int64) ([]models.SaveGame, error) { return f.list, nil }

func (f *fakeSaves) FindLatest(_ context.Context, _ int64, filter models.SaveFilter) (*models.SaveGame, error) {
	f.gotFilter = filter
	if f.latest == nil {
		return nil, common.ErrorNotFound
	}
	return f.latest, nil
}

func (f *fakeSaves) Delete(context.Context, int64, string, string) (int64, error) {
	return f.deleted, nil
}

func (f *fakeSaves) DeleteByDifficulty(_ context.Context, _ int64, difficulty string) error {
	if f.deleteDiffErr != nil {
		return f.deleteDiffErr
	}
	f.deletedByDiff = append(f.deletedByDiff, difficulty)
	return nil
}

// --- notifier ---

type sent struct {
	userID  int64
	event   string
	payload any
}

type recordingNotifier struct {
	mu     sync.Mutex
	online map[int64]bool
	sent   []sent
}

func newRecordingNotifier(online ...int64) *recordingNotifier {
	n := &recordingNotifier{online: map[int64]bool{}}
	for _, id := range online {
		n.online[id] = true
	}
	return n
}

func (n *recordingNotifier) IsOnline(userID int64) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.online[userID]
}

func (n *recordingNotifier) NotifyUser(_ context.Context, userID int64, event string, payload any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sent{userID: userID, event: event, payload: payload})
}

func (n *recordingNotifier) events() []sent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sent(nil), n.sent...)
}

func (n *recordingNotifier) count(event string) int {
	c := 0
	for _, s := range n.events() {
		if s.event == event {
			c++
		}
	}
	return c
}
