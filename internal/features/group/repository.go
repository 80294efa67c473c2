package group

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hicham-zad/pikonote-backend/internal/common/apperr"
	"github.com/hicham-zad/pikonote-backend/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrVersionConflict means another writer updated the group since it was read.
var ErrVersionConflict = fmt.Errorf("%w: group was modified concurrently", apperr.ErrConflict)

// ErrDuplicateCode is returned by Create when the join code is already taken.
var ErrDuplicateCode = fmt.Errorf("%w: group code already in use", apperr.ErrConflict)

// ErrInconsistentStatus rejects a write whose status disagrees with its
// active session and chosen movie.
var ErrInconsistentStatus = errors.New("group status does not match its vote state")

type GroupRepository interface {
	Create(ctx context.Context, group *Group) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*Group, error)
	FindByCode(ctx context.Context, code string) (*Group, error)
	FindByMember(ctx context.Context, userID string) ([]Group, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	Update(ctx context.Context, group *Group) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	EnsureIndexes(ctx context.Context) error
}

type GroupRepositoryImpl struct {
	collection *mongo.Collection
}

func NewGroupRepository(db *database.MongodbDB) GroupRepository {
	return &GroupRepositoryImpl{
		collection: db.DB.Collection("groups"),
	}
}

func (r *GroupRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "code", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "members.user_ref", Value: 1}},
		},
	})
	return err
}

func (r *GroupRepositoryImpl) Create(ctx context.Context, group *Group) error {
	if !group.StatusConsistent() {
		return ErrInconsistentStatus
	}
	now := time.Now()
	group.CreatedAt = now
	group.UpdatedAt = now
	group.Version = 0

	if group.Members == nil {
		group.Members = []Member{}
	}
	if group.VoteHistory == nil {
		group.VoteHistory = []VoteHistoryEntry{}
	}

	result, err := r.collection.InsertOne(ctx, group)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateCode
		}
		return apperr.Storage("insert group", err)
	}

	group.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *GroupRepositoryImpl) FindByID(ctx context.Context, id primitive.ObjectID) (*Group, error) {
	var group Group
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&group)
	if err != nil {
		return nil, database.WrapError("group", "find group", err)
	}
	return &group, nil
}

func (r *GroupRepositoryImpl) FindByCode(ctx context.Context, code string) (*Group, error) {
	var group Group
	err := r.collection.FindOne(ctx, bson.M{"code": NormalizeCode(code)}).Decode(&group)
	if err != nil {
		return nil, database.WrapError("group", "find group by code", err)
	}
	return &group, nil
}

func (r *GroupRepositoryImpl) FindByMember(ctx context.Context, userID string) ([]Group, error) {
	opts := options.Find().SetSort(bson.M{"updated_at": -1})
	cursor, err := r.collection.Find(ctx, bson.M{"members.user_ref": userID}, opts)
	if err != nil {
		return nil, apperr.Storage("find groups by member", err)
	}
	defer cursor.Close(ctx)

	groups := []Group{}
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, apperr.Storage("decode groups", err)
	}

	return groups, nil
}

func (r *GroupRepositoryImpl) CodeExists(ctx context.Context, code string) (bool, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{"code": code}, options.Count().SetLimit(1))
	if err != nil {
		return false, apperr.Storage("check group code", err)
	}
	return n > 0, nil
}

// Update replaces the group if nobody else wrote it since it was read. On
// success group.Version is bumped; on ErrVersionConflict the caller re-reads.
func (r *GroupRepositoryImpl) Update(ctx context.Context, group *Group) error {
	if !group.StatusConsistent() {
		return ErrInconsistentStatus
	}
	prev := group.Version
	group.VoteHistory = NormalizeHistory(group.VoteHistory)
	group.Version = prev + 1
	group.UpdatedAt = time.Now()

	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": group.ID, "version": prev}, group)
	if err != nil {
		group.Version = prev
		return apperr.Storage("update group", err)
	}
	if res.MatchedCount == 0 {
		group.Version = prev
		if _, err := r.FindByID(ctx, group.ID); err != nil {
			return err
		}
		return ErrVersionConflict
	}
	return nil
}

func (r *GroupRepositoryImpl) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return apperr.Storage("delete group", err)
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound("group")
	}
	return nil
}

// IsVersionConflict is a convenience for retry loops.
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrVersionConflict)
}
