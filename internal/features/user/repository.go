package user

import (
	"context"
	"time"

	"github.com/hicham-zad/pikonote-backend/internal/common/apperr"
	"github.com/hicham-zad/pikonote-backend/internal/common/models"
	"github.com/hicham-zad/pikonote-backend/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type UserRepository interface {
	FindByID(ctx context.Context, id string) (*Profile, error)
	FindByIDs(ctx context.Context, ids []string) ([]Profile, error)
	DisplayNames(ctx context.Context, ids []string) (map[string]string, error)
	Upsert(ctx context.Context, identity models.Identity, now time.Time) (*Profile, error)
	AddGroup(ctx context.Context, userID string, groupID primitive.ObjectID) error
	RemoveGroup(ctx context.Context, userID string, groupID primitive.ObjectID) error
	AddGroupToUsers(ctx context.Context, userIDs []string, groupID primitive.ObjectID) error
	PullGroupFromUsers(ctx context.Context, userIDs []string, groupID primitive.ObjectID) error
	EnsureIndexes(ctx context.Context) error
}

type UserRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewUserRepository(mongodb *database.MongodbDB) UserRepository {
	return &UserRepositoryImpl{
		Collection: mongodb.DB.Collection("users"),
	}
}

func (r *UserRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.Collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "joined_groups", Value: 1}},
	})
	return err
}

func (r *UserRepositoryImpl) FindByID(ctx context.Context, id string) (*Profile, error) {
	var profile Profile
	err := r.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&profile)
	if err != nil {
		return nil, database.WrapError("user", "find user", err)
	}
	return &profile, nil
}

func (r *UserRepositoryImpl) FindByIDs(ctx context.Context, ids []string) ([]Profile, error) {
	cursor, err := r.Collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, apperr.Storage("find users", err)
	}
	defer cursor.Close(ctx)

	profiles := []Profile{}
	if err := cursor.All(ctx, &profiles); err != nil {
		return nil, apperr.Storage("decode users", err)
	}
	return profiles, nil
}

func (r *UserRepositoryImpl) DisplayNames(ctx context.Context, ids []string) (map[string]string, error) {
	profiles, err := r.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(profiles))
	for _, p := range profiles {
		names[p.ID] = p.Name
	}
	return names, nil
}

// Upsert records the identity and bumps last_active. Empty token fields never
// overwrite stored values.
func (r *UserRepositoryImpl) Upsert(ctx context.Context, identity models.Identity, now time.Time) (*Profile, error) {
	set := bson.M{
		"last_active": now,
		"updated_at":  now,
	}
	if identity.Email != "" {
		set["email"] = identity.Email
	}
	if identity.Name != "" {
		set["name"] = identity.Name
	}
	if identity.Avatar != nil {
		set["avatar"] = identity.Avatar
	}

	update := bson.M{
		"$set": set,
		"$setOnInsert": bson.M{
			"created_at":    now,
			"joined_groups": []primitive.ObjectID{},
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var profile Profile
	err := r.Collection.FindOneAndUpdate(ctx, bson.M{"_id": identity.UserID}, update, opts).Decode(&profile)
	if err != nil {
		return nil, apperr.Storage("upsert user", err)
	}
	return &profile, nil
}

func (r *UserRepositoryImpl) AddGroup(ctx context.Context, userID string, groupID primitive.ObjectID) error {
	update := bson.M{
		"$addToSet":    bson.M{"joined_groups": groupID},
		"$set":         bson.M{"updated_at": time.Now()},
		"$setOnInsert": bson.M{"created_at": time.Now()},
	}
	_, err := r.Collection.UpdateOne(ctx, bson.M{"_id": userID}, update, options.Update().SetUpsert(true))
	return apperr.Storage("link group to user", err)
}

func (r *UserRepositoryImpl) RemoveGroup(ctx context.Context, userID string, groupID primitive.ObjectID) error {
	update := bson.M{
		"$pull": bson.M{"joined_groups": groupID},
		"$set":  bson.M{"updated_at": time.Now()},
	}
	_, err := r.Collection.UpdateOne(ctx, bson.M{"_id": userID}, update)
	return apperr.Storage("unlink group from user", err)
}

func (r *UserRepositoryImpl) AddGroupToUsers(ctx context.Context, userIDs []string, groupID primitive.ObjectID) error {
	if len(userIDs) == 0 {
		return nil
	}
	update := bson.M{
		"$addToSet": bson.M{"joined_groups": groupID},
		"$set":      bson.M{"updated_at": time.Now()},
	}
	_, err := r.Collection.UpdateMany(ctx, bson.M{"_id": bson.M{"$in": userIDs}}, update)
	return apperr.Storage("link group to users", err)
}

func (r *UserRepositoryImpl) PullGroupFromUsers(ctx context.Context, userIDs []string, groupID primitive.ObjectID) error {
	if len(userIDs) == 0 {
		return nil
	}
	update := bson.M{
		"$pull": bson.M{"joined_groups": groupID},
		"$set":  bson.M{"updated_at": time.Now()},
	}
	_, err := r.Collection.UpdateMany(ctx, bson.M{"_id": bson.M{"$in": userIDs}}, update)
	return apperr.Storage("unlink group from users", err)
}
