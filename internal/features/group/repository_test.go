package group

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestRepositoryRejectsInconsistentStatus(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("nothing is written", func(mt *mtest.T) {
		t := mt.T
		repo := &GroupRepositoryImpl{collection: mt.Coll}
		sessionID := "s1"

		tests := map[string]*Group{
			"voting without a session":     {ID: primitive.NewObjectID(), Status: StatusVoting},
			"active with a session":        {ID: primitive.NewObjectID(), Status: StatusActive, ActiveVoteSessionID: &sessionID},
			"movie chosen without a movie": {ID: primitive.NewObjectID(), Status: StatusMovieChosen},
		}
		for name, g := range tests {
			assert.ErrorIs(t, repo.Update(context.Background(), g), ErrInconsistentStatus, name)
			assert.ErrorIs(t, repo.Create(context.Background(), g), ErrInconsistentStatus, name)
		}
		assert.Empty(t, mt.GetAllStartedEvents())
	})
}
