package votesession

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/hicham-zad/pikonote-backend/internal/common/apperr"
	common_models "github.com/hicham-zad/pikonote-backend/internal/common/models"
	"github.com/hicham-zad/pikonote-backend/internal/features/group"
	"github.com/hicham-zad/pikonote-backend/internal/features/live"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// MockVoteSessionRepo serializes writes per repository the way the
// conditional Mongo updates serialize them per document.
type MockVoteSessionRepo struct {
	mu       sync.Mutex
	sessions map[primitive.ObjectID]*VoteSession
	finished []primitive.ObjectID
}

func NewMockVoteSessionRepo() *MockVoteSessionRepo {
	return &MockVoteSessionRepo{sessions: map[primitive.ObjectID]*VoteSession{}}
}

func cloneSession(s *VoteSession) *VoteSession {
	c := *s
	c.MovieIDs = slices.Clone(s.MovieIDs)
	c.MovieMetadata = slices.Clone(s.MovieMetadata)
	c.Votes = slices.Clone(s.Votes)
	return &c
}

func (m *MockVoteSessionRepo) Create(ctx context.Context, session *VoteSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.ID] = cloneSession(session)
	return nil
}

func (m *MockVoteSessionRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*VoteSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, apperr.NotFound("vote session")
	}
	return cloneSession(s), nil
}

func (m *MockVoteSessionRepo) FindActiveByGroup(ctx context.Context, groupID primitive.ObjectID, now time.Time) ([]VoteSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []VoteSession{}
	for _, s := range m.sessions {
		if s.GroupID == groupID && s.IsActive(now) {
			out = append(out, *cloneSession(s))
		}
	}
	return out, nil
}

func (m *MockVoteSessionRepo) FindByCreator(ctx context.Context, userID string) ([]VoteSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []VoteSession{}
	for _, s := range m.sessions {
		if s.CreatedBy == userID {
			out = append(out, *cloneSession(s))
		}
	}
	return out, nil
}

func (m *MockVoteSessionRepo) UpsertVote(ctx context.Context, id primitive.ObjectID, userID, userName string, movieID int, now time.Time) (*VoteSession, *CastResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, nil, apperr.NotFound("vote session")
	}
	res, err := s.CastVote(userID, userName, movieID, now)
	if err != nil {
		return nil, nil, err
	}
	return cloneSession(s), res, nil
}

func (m *MockVoteSessionRepo) Finish(ctx context.Context, id primitive.ObjectID, now time.Time) (*VoteSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, apperr.NotFound("vote session")
	}
	s.Finish(now)
	m.finished = append(m.finished, id)
	return cloneSession(s), nil
}

func (m *MockVoteSessionRepo) CleanupExpired(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, s := range m.sessions {
		if s.Status == StatusActive && now.After(s.EndTime) {
			s.Status = StatusFinished
			n++
		}
	}
	return n, nil
}

func (m *MockVoteSessionRepo) EnsureIndexes(ctx context.Context) error { return nil }

// MockGroups applies the real group lifecycle rules to an in-memory group.
type MockGroups struct {
	mu             sync.Mutex
	group          *group.Group
	startVotingErr error
	lookups        int
	history        [][]string
}

func (m *MockGroups) GetGroupByID(ctx context.Context, id primitive.ObjectID) (*group.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups++
	if m.group == nil || m.group.ID != id {
		return nil, apperr.NotFound("group")
	}
	g := *m.group
	return &g, nil
}

func (m *MockGroups) StartVoting(ctx context.Context, id primitive.ObjectID, sessionID string) (*group.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.startVotingErr != nil {
		return nil, m.startVotingErr
	}
	if err := m.group.StartVoting(sessionID); err != nil {
		return nil, err
	}
	return m.group, nil
}

func (m *MockGroups) checkSession(sessionID string) error {
	if m.group.ActiveVoteSessionID == nil || *m.group.ActiveVoteSessionID != sessionID {
		return apperr.Conflict("vote session is no longer the group's active session")
	}
	return nil
}

func (m *MockGroups) CommitChosenMovie(ctx context.Context, id primitive.ObjectID, sessionID string, movie group.ChosenMovie, voters []string) (*group.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkSession(sessionID); err != nil {
		return nil, err
	}
	if err := m.group.CommitChosenMovie(movie, testNow); err != nil {
		return nil, err
	}
	m.history = append(m.history, voters)
	return m.group, m.group.SetHistoryVoters(movie.ID, voters)
}

func (m *MockGroups) ClearActiveVote(ctx context.Context, id primitive.ObjectID, sessionID string) (*group.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkSession(sessionID); err != nil {
		return nil, err
	}
	m.group.ClearActiveVote()
	return m.group, nil
}

type MockPublisher struct {
	mu     sync.Mutex
	events []live.Event
}

func (m *MockPublisher) Publish(ctx context.Context, event live.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *MockPublisher) types() []live.EventType {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []live.EventType{}
	for _, e := range m.events {
		out = append(out, e.Type)
	}
	return out
}

type MockAuditService struct {
	mu      sync.Mutex
	actions []common_models.AuditAction
}

func (m *MockAuditService) LogChange(ctx context.Context, action common_models.AuditAction, module string, recordID string, changes map[string]common_models.Change) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.actions = append(m.actions, action)
	return nil
}

func (m *MockAuditService) ListLogs(ctx context.Context, filters map[string]interface{}, page, limit int64) ([]common_models.AuditLog, error) {
	return []common_models.AuditLog{}, nil
}

type fixture struct {
	svc       *VoteSessionServiceImpl
	repo      *MockVoteSessionRepo
	groups    *MockGroups
	publisher *MockPublisher
	audit     *MockAuditService
	clock     time.Time
}

var (
	admin  = common_models.Identity{UserID: "creator", Name: "Carol"}
	member = common_models.Identity{UserID: "u1", Name: "Alice"}
	other  = common_models.Identity{UserID: "stranger", Name: "Sam"}
)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	g := &group.Group{ID: primitive.NewObjectID(), Name: "Movie Night", Status: group.StatusActive, CreatedBy: "creator"}
	_, err := g.AddMember("creator", "Carol", nil, group.RoleAdmin, testNow)
	require.NoError(t, err)
	_, err = g.AddMember("u1", "Alice", nil, group.RoleMember, testNow)
	require.NoError(t, err)

	f := &fixture{
		repo:      NewMockVoteSessionRepo(),
		groups:    &MockGroups{group: g},
		publisher: &MockPublisher{},
		audit:     &MockAuditService{},
		clock:     testNow,
	}
	f.svc = newVoteSessionService(f.repo, f.groups, f.publisher, f.audit, zap.NewNop(), func() time.Time { return f.clock })
	return f
}

func (f *fixture) createSession(t *testing.T, metadata []MovieMetadata) *VoteSession {
	t.Helper()
	s, err := f.svc.CreateSession(context.Background(), member, CreateSessionRequest{
		GroupID:       f.groups.group.ID.Hex(),
		MovieIDs:      []int{1, 2, 3},
		MovieMetadata: metadata,
		Duration:      30,
	})
	require.NoError(t, err)
	return s
}

func TestCreateSession(t *testing.T) {
	f := newFixture(t)
	s := f.createSession(t, nil)

	assert.Equal(t, "Movie Night", s.GroupName)
	assert.Equal(t, "u1", s.CreatedBy)
	assert.Equal(t, testNow.Add(30*time.Minute), s.EndTime)

	assert.Equal(t, group.StatusVoting, f.groups.group.Status)
	require.NotNil(t, f.groups.group.ActiveVoteSessionID)
	assert.Equal(t, s.ID.Hex(), *f.groups.group.ActiveVoteSessionID)
	assert.Contains(t, f.audit.actions, common_models.AuditActionCreate)
}

func TestCreateSession_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		caller  common_models.Identity
		req     func(gid string) CreateSessionRequest
		voting  bool
		wantErr error
		lookups int
	}{
		{
			name:    "invalid duration is rejected before any lookup",
			caller:  member,
			req:     func(gid string) CreateSessionRequest { return CreateSessionRequest{GroupID: gid, MovieIDs: []int{1}, Duration: 0} },
			wantErr: apperr.ErrValidation,
		},
		{
			name:    "bad group id",
			caller:  member,
			req:     func(string) CreateSessionRequest { return CreateSessionRequest{GroupID: "nope", MovieIDs: []int{1}, Duration: 5} },
			wantErr: apperr.ErrValidation,
		},
		{
			name:    "not a member",
			caller:  other,
			req:     func(gid string) CreateSessionRequest { return CreateSessionRequest{GroupID: gid, MovieIDs: []int{1}, Duration: 5} },
			wantErr: apperr.ErrForbidden,
			lookups: 1,
		},
		{
			name:    "group already voting",
			caller:  member,
			req:     func(gid string) CreateSessionRequest { return CreateSessionRequest{GroupID: gid, MovieIDs: []int{1}, Duration: 5} },
			voting:  true,
			wantErr: apperr.ErrConflict,
			lookups: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.voting {
				require.NoError(t, f.groups.group.StartVoting("existing"))
			}

			_, err := f.svc.CreateSession(context.Background(), tt.caller, tt.req(f.groups.group.ID.Hex()))
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.lookups, f.groups.lookups)
			assert.Empty(t, f.repo.sessions)
		})
	}
}

func TestCreateSession_LostRaceFinishesOrphan(t *testing.T) {
	f := newFixture(t)
	f.groups.startVotingErr = apperr.Conflict("group already has an active vote session")

	_, err := f.svc.CreateSession(context.Background(), member, CreateSessionRequest{
		GroupID:  f.groups.group.ID.Hex(),
		MovieIDs: []int{1},
		Duration: 10,
	})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	require.Len(t, f.repo.finished, 1)
	orphan := f.repo.sessions[f.repo.finished[0]]
	assert.Equal(t, StatusFinished, orphan.Status)
}

func TestCastVote_ConcurrentDistinctUsersAllPersist(t *testing.T) {
	f := newFixture(t)
	const n = 25
	for i := 0; i < n; i++ {
		_, err := f.groups.group.AddMember(fmt.Sprintf("voter-%d", i), fmt.Sprintf("Voter %d", i), nil, group.RoleMember, testNow)
		require.NoError(t, err)
	}
	s := f.createSession(t, nil)

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			caller := common_models.Identity{UserID: fmt.Sprintf("voter-%d", i)}
			_, err := f.svc.CastVote(context.Background(), caller, s.ID, i%3+1)
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	stored, err := f.repo.FindByID(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Votes, n)
	assert.Len(t, f.publisher.types(), n)
}

func TestCastVote_SameUserKeepsSingleVote(t *testing.T) {
	f := newFixture(t)
	s := f.createSession(t, nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.svc.CastVote(context.Background(), member, s.ID, i%3+1)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	stored, err := f.repo.FindByID(context.Background(), s.ID)
	require.NoError(t, err)
	require.Len(t, stored.Votes, 1)
	assert.Equal(t, "Alice", stored.Votes[0].UserName)
}

func TestCastVote(t *testing.T) {
	f := newFixture(t)
	s := f.createSession(t, nil)
	ctx := context.Background()

	resp, err := f.svc.CastVote(ctx, member, s.ID, 2)
	require.NoError(t, err)
	assert.False(t, resp.IsUpdate)
	assert.Equal(t, 2, resp.Results[0].MovieID)
	assert.Equal(t, 100, resp.Results[0].Percentage)

	resp, err = f.svc.CastVote(ctx, member, s.ID, 3)
	require.NoError(t, err)
	assert.True(t, resp.IsUpdate)

	_, err = f.svc.CastVote(ctx, other, s.ID, 1)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = f.svc.CastVote(ctx, member, s.ID, 9)
	assert.ErrorIs(t, err, apperr.ErrInvalidSelection)

	f.clock = s.EndTime
	_, err = f.svc.CastVote(ctx, member, s.ID, 1)
	assert.ErrorIs(t, err, apperr.ErrSessionEnded)

	assert.Equal(t, []live.EventType{live.EventVoteCast, live.EventVoteCast}, f.publisher.types())
}

func TestFinishSession_CommitsWinner(t *testing.T) {
	f := newFixture(t)
	bob := common_models.Identity{UserID: "u2", Name: "Bob"}
	_, err := f.groups.group.AddMember("u2", "Bob", nil, group.RoleMember, testNow)
	require.NoError(t, err)

	metadata := []MovieMetadata{{ID: 2, Title: "Heat", Poster: "heat.jpg"}}
	s := f.createSession(t, metadata)
	ctx := context.Background()

	for _, v := range []struct {
		caller common_models.Identity
		movie  int
	}{{member, 2}, {bob, 2}, {admin, 1}} {
		_, err := f.svc.CastVote(ctx, v.caller, s.ID, v.movie)
		require.NoError(t, err)
	}

	// Admin finishes a session someone else created.
	resp, err := f.svc.FinishSession(ctx, admin, s.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFinished, resp.Session.Status)
	require.NotNil(t, resp.Winner)
	assert.Equal(t, 2, resp.Winner.MovieID)

	g := f.groups.group
	assert.Equal(t, group.StatusMovieChosen, g.Status)
	assert.Nil(t, g.ActiveVoteSessionID)
	require.NotNil(t, g.ChosenMovie)
	assert.Equal(t, "Heat", g.ChosenMovie.Title)
	assert.Equal(t, "heat.jpg", g.ChosenMovie.Poster)
	assert.Equal(t, 3, g.ChosenMovie.TotalVotes)
	assert.Equal(t, 67, g.ChosenMovie.VotePercentage)
	require.Len(t, g.VoteHistory, 1)
	assert.Equal(t, []string{"Alice", "Bob"}, g.VoteHistory[0].Voters)

	assert.Contains(t, f.publisher.types(), live.EventSessionFinished)
	assert.Contains(t, f.audit.actions, common_models.AuditActionVoteFinished)
}

// lateBallotRepo lands one more ballot right before the session is closed.
type lateBallotRepo struct {
	*MockVoteSessionRepo
	late func()
}

func (r *lateBallotRepo) Finish(ctx context.Context, id primitive.ObjectID, now time.Time) (*VoteSession, error) {
	r.late()
	return r.MockVoteSessionRepo.Finish(ctx, id, now)
}

func TestFinishSession_CountsBallotCastBeforeClose(t *testing.T) {
	f := newFixture(t)
	_, err := f.groups.group.AddMember("u2", "Bob", nil, group.RoleMember, testNow)
	require.NoError(t, err)
	s := f.createSession(t, []MovieMetadata{{ID: 2, Title: "Heat"}})
	ctx := context.Background()

	_, err = f.svc.CastVote(ctx, member, s.ID, 2)
	require.NoError(t, err)

	f.svc.repo = &lateBallotRepo{MockVoteSessionRepo: f.repo, late: func() {
		_, _, err := f.repo.UpsertVote(ctx, s.ID, "u2", "Bob", 2, testNow)
		require.NoError(t, err)
	}}

	resp, err := f.svc.FinishSession(ctx, admin, s.ID)
	require.NoError(t, err)

	stored, err := f.repo.FindByID(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, stored.Votes, 2)

	require.NotNil(t, resp.Winner)
	assert.Equal(t, 2, resp.Winner.Votes)
	assert.Len(t, resp.Session.Votes, 2)
	require.NotNil(t, f.groups.group.ChosenMovie)
	assert.Equal(t, 2, f.groups.group.ChosenMovie.TotalVotes)
	assert.Equal(t, []string{"Alice", "Bob"}, f.groups.group.VoteHistory[0].Voters)
}

func TestFinishSession_NoVotesClearsGroup(t *testing.T) {
	f := newFixture(t)
	s := f.createSession(t, nil)

	resp, err := f.svc.FinishSession(context.Background(), member, s.ID)
	require.NoError(t, err)
	assert.Nil(t, resp.Winner)
	assert.Equal(t, group.StatusActive, f.groups.group.Status)
	assert.True(t, f.groups.group.StatusConsistent())
}

func TestFinishSession_GroupAlreadyMovedOn(t *testing.T) {
	f := newFixture(t)
	s := f.createSession(t, nil)
	f.groups.group.ClearActiveVote()

	resp, err := f.svc.FinishSession(context.Background(), member, s.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFinished, resp.Session.Status)
	assert.Equal(t, group.StatusActive, f.groups.group.Status)
}

func TestFinishSession_Forbidden(t *testing.T) {
	f := newFixture(t)
	_, err := f.groups.group.AddMember("u2", "Bob", nil, group.RoleMember, testNow)
	require.NoError(t, err)
	s := f.createSession(t, nil)

	_, err = f.svc.FinishSession(context.Background(), common_models.Identity{UserID: "u2"}, s.ID)
	assert.True(t, errors.Is(err, apperr.ErrForbidden))
	assert.Empty(t, f.repo.finished)
}

func TestGetSessionView(t *testing.T) {
	f := newFixture(t)
	s := f.createSession(t, nil)
	ctx := context.Background()

	_, err := f.svc.CastVote(ctx, member, s.ID, 1)
	require.NoError(t, err)

	f.clock = testNow.Add(10 * time.Minute)
	view, err := f.svc.GetSession(ctx, member, s.ID)
	require.NoError(t, err)
	assert.True(t, view.IsActive)
	assert.Equal(t, int64(20*60), view.RemainingSeconds)
	assert.Equal(t, "20 minutes from now", view.EndsIn)
	assert.True(t, view.HasVoted)
	require.NotNil(t, view.UserVote)
	assert.Equal(t, 1, view.UserVote.MovieID)

	view, err = f.svc.GetSession(ctx, admin, s.ID)
	require.NoError(t, err)
	assert.False(t, view.HasVoted)
	assert.Nil(t, view.UserVote)

	_, err = f.svc.GetSession(ctx, other, s.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestGetActiveSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	gid := f.groups.group.ID

	_, err := f.svc.GetActiveSession(ctx, member, gid)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	s := f.createSession(t, nil)
	view, err := f.svc.GetActiveSession(ctx, member, gid)
	require.NoError(t, err)
	assert.Equal(t, s.ID, view.Session.ID)

	f.clock = s.EndTime
	_, err = f.svc.GetActiveSession(ctx, member, gid)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCleanupExpired(t *testing.T) {
	f := newFixture(t)
	s := f.createSession(t, nil)

	n, err := f.svc.CleanupExpired(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)

	f.clock = s.EndTime.Add(time.Second)
	n, err = f.svc.CleanupExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = f.svc.CleanupExpired(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}
