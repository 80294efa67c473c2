package audit

import (
	"context"
	"errors"
	"testing"

	common_models "github.com/hicham-zad/pikonote-backend/internal/common/models"
	"github.com/hicham-zad/pikonote-backend/pkg/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockAuditRepo struct {
	created []common_models.AuditLog
	listed  []common_models.AuditLog
	limit   int64
	offset  int64
}

func (m *MockAuditRepo) Create(ctx context.Context, log common_models.AuditLog) error {
	m.created = append(m.created, log)
	return nil
}

func (m *MockAuditRepo) List(ctx context.Context, filters map[string]interface{}, limit, offset int64) ([]common_models.AuditLog, error) {
	m.limit, m.offset = limit, offset
	return m.listed, nil
}

func (m *MockAuditRepo) EnsureIndexes(ctx context.Context) error { return nil }

type MockUserFinder struct {
	names map[string]string
	err   error
}

func (m *MockUserFinder) DisplayNames(ctx context.Context, ids []string) (map[string]string, error) {
	return m.names, m.err
}

func TestLogChange_ActorFromClaims(t *testing.T) {
	repo := &MockAuditRepo{}
	svc := NewAuditService(repo, &MockUserFinder{})

	claims := &utils.UserClaims{RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"}}
	ctx := context.WithValue(context.Background(), utils.UserClaimsKey, claims)

	require.NoError(t, svc.LogChange(ctx, common_models.AuditActionJoin, ModuleGroups, "g1", nil))
	require.NoError(t, svc.LogChange(context.Background(), common_models.AuditActionVoteCleared, ModuleGroups, "g1", nil))

	require.Len(t, repo.created, 2)
	assert.Equal(t, "user-1", repo.created[0].ActorID)
	assert.Equal(t, systemActor, repo.created[1].ActorID)
	assert.False(t, repo.created[0].ID.IsZero())
}

func TestListLogs_PopulatesActorNames(t *testing.T) {
	repo := &MockAuditRepo{listed: []common_models.AuditLog{
		{ActorID: "u1"},
		{ActorID: systemActor},
		{ActorID: "ghost"},
		{ActorID: "u1"},
	}}
	svc := NewAuditService(repo, &MockUserFinder{names: map[string]string{"u1": "Alice"}})

	logs, err := svc.ListLogs(context.Background(), nil, 2, 10)
	require.NoError(t, err)

	assert.Equal(t, int64(10), repo.limit)
	assert.Equal(t, int64(10), repo.offset)
	assert.Equal(t, "Alice", logs[0].ActorName)
	assert.Equal(t, "System", logs[1].ActorName)
	assert.Equal(t, "Unknown User", logs[2].ActorName)
	assert.Equal(t, "Alice", logs[3].ActorName)
}

func TestListLogs_UserLookupFailureIsNotFatal(t *testing.T) {
	repo := &MockAuditRepo{listed: []common_models.AuditLog{{ActorID: "u1"}}}
	svc := NewAuditService(repo, &MockUserFinder{err: errors.New("down")})

	logs, err := svc.ListLogs(context.Background(), nil, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(20), repo.limit)
	assert.Equal(t, "Unknown User", logs[0].ActorName)
}
