package audit

import (
	"context"
	"time"

	common_models "github.com/hicham-zad/pikonote-backend/internal/common/models"
	"github.com/hicham-zad/pikonote-backend/pkg/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	ModuleGroups       = "groups"
	ModuleVoteSessions = "vote_sessions"

	systemActor = "system"
)

// UserFinder resolves actor ids to display names.
type UserFinder interface {
	DisplayNames(ctx context.Context, ids []string) (map[string]string, error)
}

type AuditService interface {
	LogChange(ctx context.Context, action common_models.AuditAction, module string, recordID string, changes map[string]common_models.Change) error
	ListLogs(ctx context.Context, filters map[string]interface{}, page, limit int64) ([]common_models.AuditLog, error)
}

type AuditServiceImpl struct {
	Repo     AuditRepository
	UserRepo UserFinder
}

func NewAuditService(repo AuditRepository, userRepo UserFinder) AuditService {
	return &AuditServiceImpl{
		Repo:     repo,
		UserRepo: userRepo,
	}
}

func (s *AuditServiceImpl) LogChange(ctx context.Context, action common_models.AuditAction, module string, recordID string, changes map[string]common_models.Change) error {
	// Extract Actor from Context
	actorID := systemActor
	if claims, ok := ctx.Value(utils.UserClaimsKey).(*utils.UserClaims); ok && claims != nil {
		actorID = claims.UserID()
	}

	log := common_models.AuditLog{
		ID:        primitive.NewObjectID(),
		Action:    action,
		Module:    module,
		RecordID:  recordID,
		ActorID:   actorID,
		Changes:   changes,
		Timestamp: time.Now(),
	}

	return s.Repo.Create(ctx, log)
}

func (s *AuditServiceImpl) ListLogs(ctx context.Context, filters map[string]interface{}, page, limit int64) ([]common_models.AuditLog, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := (page - 1) * limit
	logs, err := s.Repo.List(ctx, filters, limit, offset)
	if err != nil {
		return nil, err
	}

	// Collect Actor IDs
	actorIDs := make([]string, 0)
	uniqueIDs := make(map[string]bool)
	for _, log := range logs {
		if log.ActorID != systemActor && log.ActorID != "" && !uniqueIDs[log.ActorID] {
			uniqueIDs[log.ActorID] = true
			actorIDs = append(actorIDs, log.ActorID)
		}
	}

	// Batch Fetch Users
	names := map[string]string{}
	if len(actorIDs) > 0 {
		if found, err := s.UserRepo.DisplayNames(ctx, actorIDs); err == nil {
			names = found
		}
	}

	// Populate Actor Names
	for i, log := range logs {
		switch {
		case log.ActorID == systemActor || log.ActorID == "":
			logs[i].ActorName = "System"
		case names[log.ActorID] != "":
			logs[i].ActorName = names[log.ActorID]
		default:
			logs[i].ActorName = "Unknown User"
		}
	}

	return logs, nil
}
