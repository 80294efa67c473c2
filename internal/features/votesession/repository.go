package votesession

import (
	"context"
	"errors"
	"time"

	"github.com/hicham-zad/pikonote-backend/internal/common/apperr"
	"github.com/hicham-zad/pikonote-backend/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Each round tries the in-place update then the guarded push. A round only
// fails without a rule violation when a concurrent cast by the same user
// moved the document between the two writes.
const maxCastRounds = 3

type VoteSessionRepository interface {
	Create(ctx context.Context, session *VoteSession) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*VoteSession, error)
	FindActiveByGroup(ctx context.Context, groupID primitive.ObjectID, now time.Time) ([]VoteSession, error)
	FindByCreator(ctx context.Context, userID string) ([]VoteSession, error)
	UpsertVote(ctx context.Context, id primitive.ObjectID, userID, userName string, movieID int, now time.Time) (*VoteSession, *CastResult, error)
	Finish(ctx context.Context, id primitive.ObjectID, now time.Time) (*VoteSession, error)
	CleanupExpired(ctx context.Context, now time.Time) (int64, error)
	EnsureIndexes(ctx context.Context) error
}

type VoteSessionRepositoryImpl struct {
	collection *mongo.Collection
}

func NewVoteSessionRepository(db *database.MongodbDB) VoteSessionRepository {
	return &VoteSessionRepositoryImpl{
		collection: db.DB.Collection("vote_sessions"),
	}
}

func (r *VoteSessionRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "group_id", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "end_time", Value: 1}}},
		{Keys: bson.D{{Key: "created_by", Value: 1}}},
		{Keys: bson.D{{Key: "votes.user_id", Value: 1}}},
	})
	return err
}

func (r *VoteSessionRepositoryImpl) Create(ctx context.Context, session *VoteSession) error {
	if session.ID.IsZero() {
		session.ID = primitive.NewObjectID()
	}
	if _, err := r.collection.InsertOne(ctx, session); err != nil {
		return apperr.Storage("insert vote session", err)
	}
	return nil
}

func (r *VoteSessionRepositoryImpl) FindByID(ctx context.Context, id primitive.ObjectID) (*VoteSession, error) {
	var session VoteSession
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&session); err != nil {
		return nil, database.WrapError("vote session", "find vote session", err)
	}
	return &session, nil
}

func (r *VoteSessionRepositoryImpl) FindActiveByGroup(ctx context.Context, groupID primitive.ObjectID, now time.Time) ([]VoteSession, error) {
	filter := bson.M{
		"group_id": groupID,
		"status":   StatusActive,
		"end_time": bson.M{"$gt": now},
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return r.find(ctx, filter, opts)
}

func (r *VoteSessionRepositoryImpl) FindByCreator(ctx context.Context, userID string) ([]VoteSession, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return r.find(ctx, bson.M{"created_by": userID}, opts)
}

func (r *VoteSessionRepositoryImpl) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]VoteSession, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, apperr.Storage("find vote sessions", err)
	}
	defer cursor.Close(ctx)

	sessions := []VoteSession{}
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, apperr.Storage("decode vote sessions", err)
	}
	return sessions, nil
}

// openFor matches the session only while it still accepts a ballot for movieID.
func openFor(id primitive.ObjectID, movieID int, now time.Time) bson.M {
	return bson.M{
		"_id":       id,
		"status":    StatusActive,
		"end_time":  bson.M{"$gt": now},
		"movie_ids": movieID,
	}
}

// UpsertVote casts the ballot with conditional writes so concurrent casts on
// one session never overwrite each other. The activity check runs inside the
// write filter against now.
func (r *VoteSessionRepositoryImpl) UpsertVote(ctx context.Context, id primitive.ObjectID, userID, userName string, movieID int, now time.Time) (*VoteSession, *CastResult, error) {
	after := options.After

	for round := 0; round < maxCastRounds; round++ {
		// Replace the user's existing ballot.
		filter := openFor(id, movieID, now)
		filter["votes.user_id"] = userID
		update := bson.M{"$set": bson.M{
			"votes.$[v].movie_id":  movieID,
			"votes.$[v].timestamp": now,
			"updated_at":           now,
		}}
		opts := options.FindOneAndUpdate().
			SetArrayFilters(options.ArrayFilters{Filters: []interface{}{bson.M{"v.user_id": userID}}}).
			SetReturnDocument(after)

		var session VoteSession
		err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&session)
		if err == nil {
			return &session, &CastResult{IsUpdate: true, Vote: *session.UserVote(userID)}, nil
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil, apperr.Storage("update vote", err)
		}

		// First ballot of this user.
		vote := Vote{
			ID:        primitive.NewObjectID(),
			UserID:    userID,
			UserName:  userName,
			MovieID:   movieID,
			Timestamp: now,
		}
		filter = openFor(id, movieID, now)
		filter["votes.user_id"] = bson.M{"$ne": userID}
		update = bson.M{
			"$push": bson.M{"votes": vote},
			"$set":  bson.M{"updated_at": now},
		}

		err = r.collection.FindOneAndUpdate(ctx, filter, update, options.FindOneAndUpdate().SetReturnDocument(after)).Decode(&session)
		if err == nil {
			return &session, &CastResult{IsUpdate: false, Vote: vote}, nil
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil, apperr.Storage("push vote", err)
		}

		// Neither write matched: find out which rule the ballot breaks.
		current, err := r.FindByID(ctx, id)
		if err != nil {
			return nil, nil, err
		}
		if _, err := current.CastVote(userID, userName, movieID, now); err != nil {
			return nil, nil, err
		}
	}

	return nil, nil, apperr.Conflict("vote session is busy, try again")
}

// Finish closes the session and returns the document as stored afterwards,
// so the tally includes every ballot that landed before the close.
func (r *VoteSessionRepositoryImpl) Finish(ctx context.Context, id primitive.ObjectID, now time.Time) (*VoteSession, error) {
	var session VoteSession
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": StatusFinished, "updated_at": now}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&session)
	if err != nil {
		return nil, database.WrapError("vote session", "finish vote session", err)
	}
	return &session, nil
}

// CleanupExpired is safe to run repeatedly and alongside casts.
func (r *VoteSessionRepositoryImpl) CleanupExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.collection.UpdateMany(ctx,
		bson.M{"status": StatusActive, "end_time": bson.M{"$lt": now}},
		bson.M{"$set": bson.M{"status": StatusFinished, "updated_at": now}},
	)
	if err != nil {
		return 0, apperr.Storage("cleanup expired vote sessions", err)
	}
	return result.ModifiedCount, nil
}
