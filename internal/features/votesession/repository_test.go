package votesession

import (
	"context"
	"testing"
	"time"

	"github.com/hicham-zad/pikonote-backend/internal/common/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func sessionDoc(t *testing.T, s *VoteSession) bson.D {
	t.Helper()
	raw, err := bson.Marshal(s)
	require.NoError(t, err)
	var doc bson.D
	require.NoError(t, bson.Unmarshal(raw, &doc))
	return doc
}

// found answers a findAndModify with the document after the write.
func found(t *testing.T, s *VoteSession) bson.D {
	return mtest.CreateSuccessResponse(bson.E{Key: "value", Value: sessionDoc(t, s)})
}

// unmatched answers a findAndModify whose filter matched nothing.
func unmatched() bson.D {
	return mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil})
}

func findOne(t *testing.T, mt *mtest.T, s *VoteSession) bson.D {
	ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
	return mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, sessionDoc(t, s))
}

func openSession(t *testing.T) *VoteSession {
	t.Helper()
	s, err := NewVoteSession(primitive.NewObjectID(), "Movie Night", []int{1, 2, 3}, nil, 30, "creator", testNow)
	require.NoError(t, err)
	return s
}

func TestUpsertVote(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	now := testNow.Add(time.Minute)

	mt.Run("replaces the user's existing ballot in place", func(mt *mtest.T) {
		t := mt.T
		repo := &VoteSessionRepositoryImpl{collection: mt.Coll}
		s := openSession(t)
		_, err := s.CastVote("u1", "Alice", 2, now)
		require.NoError(t, err)
		mt.AddMockResponses(found(t, s))

		updated, res, err := repo.UpsertVote(context.Background(), s.ID, "u1", "Alice", 2, now)
		require.NoError(t, err)
		assert.True(t, res.IsUpdate)
		assert.Equal(t, 2, res.Vote.MovieID)
		assert.Len(t, updated.Votes, 1)

		started := mt.GetAllStartedEvents()
		require.Len(t, started, 1)
		assert.Equal(t, "findAndModify", started[0].CommandName)
	})

	mt.Run("pushes a first ballot", func(mt *mtest.T) {
		t := mt.T
		repo := &VoteSessionRepositoryImpl{collection: mt.Coll}
		s := openSession(t)
		after := *s
		after.Votes = []Vote{{ID: primitive.NewObjectID(), UserID: "u1", UserName: "Alice", MovieID: 3, Timestamp: now}}
		mt.AddMockResponses(unmatched(), found(t, &after))

		updated, res, err := repo.UpsertVote(context.Background(), s.ID, "u1", "Alice", 3, now)
		require.NoError(t, err)
		assert.False(t, res.IsUpdate)
		assert.Equal(t, "u1", res.Vote.UserID)
		assert.Equal(t, 3, res.Vote.MovieID)
		assert.Len(t, updated.Votes, 1)
		assert.Len(t, mt.GetAllStartedEvents(), 2)
	})

	mt.Run("classifies a rejected ballot from the stored session", func(mt *mtest.T) {
		t := mt.T
		tests := []struct {
			name    string
			movieID int
			mutate  func(s *VoteSession)
			wantErr error
		}{
			{
				name:    "ended",
				movieID: 1,
				mutate:  func(s *VoteSession) { s.EndTime = now.Add(-time.Second) },
				wantErr: apperr.ErrSessionEnded,
			},
			{
				name:    "finished",
				movieID: 1,
				mutate:  func(s *VoteSession) { s.Status = StatusFinished },
				wantErr: apperr.ErrSessionEnded,
			},
			{
				name:    "movie not on the ballot",
				movieID: 99,
				mutate:  func(s *VoteSession) {},
				wantErr: apperr.ErrInvalidSelection,
			},
		}
		for _, tt := range tests {
			s := openSession(t)
			tt.mutate(s)
			mt.AddMockResponses(unmatched(), unmatched(), findOne(t, mt, s))
			repo := &VoteSessionRepositoryImpl{collection: mt.Coll}

			_, _, err := repo.UpsertVote(context.Background(), s.ID, "u1", "Alice", tt.movieID, now)
			assert.ErrorIs(t, err, tt.wantErr, tt.name)
		}
	})

	mt.Run("gives up after repeated races", func(mt *mtest.T) {
		t := mt.T
		repo := &VoteSessionRepositoryImpl{collection: mt.Coll}
		s := openSession(t)
		for i := 0; i < maxCastRounds; i++ {
			mt.AddMockResponses(unmatched(), unmatched(), findOne(t, mt, s))
		}

		_, _, err := repo.UpsertVote(context.Background(), s.ID, "u1", "Alice", 1, now)
		assert.ErrorIs(t, err, apperr.ErrConflict)
		assert.Len(t, mt.GetAllStartedEvents(), 3*maxCastRounds)
	})
}

func TestFinish_ReturnsStoredSession(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	now := testNow.Add(time.Minute)

	mt.Run("returns every ballot stored at close", func(mt *mtest.T) {
		t := mt.T
		repo := &VoteSessionRepositoryImpl{collection: mt.Coll}
		s := openSession(t)
		_, err := s.CastVote("u1", "Alice", 1, now)
		require.NoError(t, err)
		_, err = s.CastVote("u2", "Bob", 1, now)
		require.NoError(t, err)
		s.Finish(now)
		mt.AddMockResponses(found(t, s))

		finished, err := repo.Finish(context.Background(), s.ID, now)
		require.NoError(t, err)
		assert.Equal(t, StatusFinished, finished.Status)
		assert.Len(t, finished.Votes, 2)
	})

	mt.Run("missing session", func(mt *mtest.T) {
		t := mt.T
		repo := &VoteSessionRepositoryImpl{collection: mt.Coll}
		mt.AddMockResponses(unmatched())

		_, err := repo.Finish(context.Background(), primitive.NewObjectID(), now)
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})
}
