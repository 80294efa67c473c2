package user

import (
	"context"
	"strings"
	"time"

	"github.com/hicham-zad/pikonote-backend/internal/common/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type UserService interface {
	// Resolve fills in name and avatar when the token carries none.
	Resolve(ctx context.Context, identity models.Identity) models.Identity
	Sync(ctx context.Context, identity models.Identity) (*Profile, error)
	// Touch is Sync for callers that only need the resolved identity.
	Touch(ctx context.Context, identity models.Identity) models.Identity
	LinkGroup(ctx context.Context, userID string, groupID primitive.ObjectID) error
	UnlinkGroup(ctx context.Context, userID string, groupID primitive.ObjectID) error
	UnlinkGroupFromUsers(ctx context.Context, userIDs []string, groupID primitive.ObjectID) error
	LinkGroupToUsers(ctx context.Context, userIDs []string, groupID primitive.ObjectID) error
}

type UserServiceImpl struct {
	repo     UserRepository
	profiles ProfileSource
	logger   *zap.Logger
	now      func() time.Time
}

func NewUserService(repo UserRepository, profiles ProfileSource, logger *zap.Logger) UserService {
	return &UserServiceImpl{
		repo:     repo,
		profiles: profiles,
		logger:   logger.Named("user"),
		now:      time.Now,
	}
}

func (s *UserServiceImpl) Resolve(ctx context.Context, identity models.Identity) models.Identity {
	if strings.TrimSpace(identity.Name) != "" && identity.Avatar != nil {
		return identity
	}

	if ext, err := s.profiles.Lookup(ctx, identity.UserID); err != nil {
		s.logger.Warn("profile lookup failed", zap.String("user_id", identity.UserID), zap.Error(err))
	} else if ext != nil {
		if strings.TrimSpace(identity.Name) == "" && ext.FullName != "" {
			identity.Name = strings.TrimSpace(ext.FullName)
		}
		if identity.Avatar == nil && ext.AvatarURL != "" {
			avatar := ext.AvatarURL
			identity.Avatar = &avatar
		}
	}

	if strings.TrimSpace(identity.Name) == "" {
		if stored, err := s.repo.FindByID(ctx, identity.UserID); err == nil && stored.Name != "" {
			identity.Name = stored.Name
			if identity.Avatar == nil {
				identity.Avatar = stored.Avatar
			}
		}
	}
	return identity
}

func (s *UserServiceImpl) Sync(ctx context.Context, identity models.Identity) (*Profile, error) {
	return s.repo.Upsert(ctx, s.Resolve(ctx, identity), s.now())
}

func (s *UserServiceImpl) Touch(ctx context.Context, identity models.Identity) models.Identity {
	identity = s.Resolve(ctx, identity)
	if _, err := s.repo.Upsert(ctx, identity, s.now()); err != nil {
		s.logger.Warn("failed to record user activity", zap.String("user_id", identity.UserID), zap.Error(err))
	}
	return identity
}

func (s *UserServiceImpl) LinkGroup(ctx context.Context, userID string, groupID primitive.ObjectID) error {
	return s.repo.AddGroup(ctx, userID, groupID)
}

func (s *UserServiceImpl) UnlinkGroup(ctx context.Context, userID string, groupID primitive.ObjectID) error {
	return s.repo.RemoveGroup(ctx, userID, groupID)
}

func (s *UserServiceImpl) UnlinkGroupFromUsers(ctx context.Context, userIDs []string, groupID primitive.ObjectID) error {
	return s.repo.PullGroupFromUsers(ctx, userIDs, groupID)
}

func (s *UserServiceImpl) LinkGroupToUsers(ctx context.Context, userIDs []string, groupID primitive.ObjectID) error {
	return s.repo.AddGroupToUsers(ctx, userIDs, groupID)
}
