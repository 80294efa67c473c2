package user

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hicham-zad/pikonote-backend/internal/common/apperr"
	"github.com/hicham-zad/pikonote-backend/internal/common/models"
	"github.com/hicham-zad/pikonote-backend/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type MockUserRepo struct {
	profiles  map[string]*Profile
	upserted  []models.Identity
	upsertErr error
}

func NewMockUserRepo() *MockUserRepo {
	return &MockUserRepo{profiles: map[string]*Profile{}}
}

func (m *MockUserRepo) FindByID(ctx context.Context, id string) (*Profile, error) {
	p, ok := m.profiles[id]
	if !ok {
		return nil, apperr.NotFound("user")
	}
	return p, nil
}

func (m *MockUserRepo) FindByIDs(ctx context.Context, ids []string) ([]Profile, error) {
	out := []Profile{}
	for _, id := range ids {
		if p, ok := m.profiles[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *MockUserRepo) DisplayNames(ctx context.Context, ids []string) (map[string]string, error) {
	return map[string]string{}, nil
}

func (m *MockUserRepo) Upsert(ctx context.Context, identity models.Identity, now time.Time) (*Profile, error) {
	if m.upsertErr != nil {
		return nil, m.upsertErr
	}
	m.upserted = append(m.upserted, identity)
	p, ok := m.profiles[identity.UserID]
	if !ok {
		p = &Profile{ID: identity.UserID, JoinedGroups: []primitive.ObjectID{}, CreatedAt: now}
		m.profiles[identity.UserID] = p
	}
	if identity.Name != "" {
		p.Name = identity.Name
	}
	p.Email = identity.Email
	p.LastActive = now
	return p, nil
}

func (m *MockUserRepo) AddGroup(ctx context.Context, userID string, groupID primitive.ObjectID) error {
	return nil
}

func (m *MockUserRepo) RemoveGroup(ctx context.Context, userID string, groupID primitive.ObjectID) error {
	return nil
}

func (m *MockUserRepo) AddGroupToUsers(ctx context.Context, userIDs []string, groupID primitive.ObjectID) error {
	return nil
}

func (m *MockUserRepo) PullGroupFromUsers(ctx context.Context, userIDs []string, groupID primitive.ObjectID) error {
	return nil
}

func (m *MockUserRepo) EnsureIndexes(ctx context.Context) error { return nil }

type MockProfileSource struct {
	profile *ExternalProfile
	err     error
	calls   int
}

func (m *MockProfileSource) Lookup(ctx context.Context, userID string) (*ExternalProfile, error) {
	m.calls++
	return m.profile, m.err
}

func strPtr(s string) *string { return &s }

func TestResolve(t *testing.T) {
	tests := []struct {
		name       string
		identity   models.Identity
		source     *MockProfileSource
		stored     *Profile
		wantName   string
		wantAvatar *string
		wantLookup bool
	}{
		{
			name:       "complete token skips lookup",
			identity:   models.Identity{UserID: "u1", Name: "Alice", Avatar: strPtr("a.png")},
			source:     &MockProfileSource{},
			wantName:   "Alice",
			wantAvatar: strPtr("a.png"),
		},
		{
			name:       "profile table fills gaps",
			identity:   models.Identity{UserID: "u1"},
			source:     &MockProfileSource{profile: &ExternalProfile{FullName: " Alice A ", AvatarURL: "b.png"}},
			wantName:   "Alice A",
			wantAvatar: strPtr("b.png"),
			wantLookup: true,
		},
		{
			name:       "lookup failure falls back to stored profile",
			identity:   models.Identity{UserID: "u1"},
			source:     &MockProfileSource{err: errors.New("pg down")},
			stored:     &Profile{ID: "u1", Name: "Stored"},
			wantName:   "Stored",
			wantLookup: true,
		},
		{
			name:       "token name kept when only avatar missing",
			identity:   models.Identity{UserID: "u1", Name: "Token"},
			source:     &MockProfileSource{profile: &ExternalProfile{FullName: "Other"}},
			wantName:   "Token",
			wantLookup: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewMockUserRepo()
			if tt.stored != nil {
				repo.profiles[tt.stored.ID] = tt.stored
			}
			svc := NewUserService(repo, tt.source, zap.NewNop())

			got := svc.Resolve(context.Background(), tt.identity)
			assert.Equal(t, tt.wantName, got.Name)
			assert.Equal(t, tt.wantAvatar, got.Avatar)
			assert.Equal(t, tt.wantLookup, tt.source.calls > 0)
		})
	}
}

func TestTouch(t *testing.T) {
	repo := NewMockUserRepo()
	svc := NewUserService(repo, &MockProfileSource{profile: &ExternalProfile{FullName: "Alice Liddell"}}, zap.NewNop())

	got := svc.Touch(context.Background(), models.Identity{UserID: "u1", Email: "alice@example.com"})
	assert.Equal(t, "Alice Liddell", got.Name)
	require.Len(t, repo.upserted, 1)
	assert.Equal(t, "Alice Liddell", repo.upserted[0].Name)
	assert.False(t, repo.profiles["u1"].LastActive.IsZero())

	repo.upsertErr = apperr.Storage("upsert user", errors.New("network"))
	got = svc.Touch(context.Background(), models.Identity{UserID: "u2", Name: "Bob", Avatar: strPtr("b.png")})
	assert.Equal(t, "Bob", got.Name, "a failed write still returns the identity")
}

func TestGetMe_SyncsProfile(t *testing.T) {
	repo := NewMockUserRepo()
	svc := NewUserService(repo, &MockProfileSource{}, zap.NewNop())
	api := NewUserApi(NewUserController(svc, zap.NewNop()), &config.Config{SkipAuth: true})

	app := fiber.New()
	api.Setup(app)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/users/me", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var profile Profile
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&profile))
	assert.Equal(t, "dev-user-id", profile.ID)
	assert.Equal(t, "Dev User", profile.Name)
	require.Len(t, repo.upserted, 1)
}

func TestGetMe_RequiresToken(t *testing.T) {
	svc := NewUserService(NewMockUserRepo(), &MockProfileSource{}, zap.NewNop())
	api := NewUserApi(NewUserController(svc, zap.NewNop()), &config.Config{})

	app := fiber.New()
	api.Setup(app)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/users/me", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestPostgresProfileSource_Disabled(t *testing.T) {
	src := &PostgresProfileSource{}
	p, err := src.Lookup(context.Background(), "u1")
	assert.NoError(t, err)
	assert.Nil(t, p)
}
