package group

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"time"

	"github.com/hicham-zad/pikonote-backend/internal/common/apperr"
	common_models "github.com/hicham-zad/pikonote-backend/internal/common/models"
	"github.com/hicham-zad/pikonote-backend/internal/database"
	"github.com/hicham-zad/pikonote-backend/internal/features/audit"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	maxUpdateAttempts = 5
	maxCreateAttempts = 3
)

// UserDirectory keeps users' joined-groups lists in step with membership.
// Touch fills in profile details missing from the token and records the
// caller's activity.
type UserDirectory interface {
	Touch(ctx context.Context, identity common_models.Identity) common_models.Identity
	LinkGroup(ctx context.Context, userID string, groupID primitive.ObjectID) error
	UnlinkGroup(ctx context.Context, userID string, groupID primitive.ObjectID) error
	UnlinkGroupFromUsers(ctx context.Context, userIDs []string, groupID primitive.ObjectID) error
	LinkGroupToUsers(ctx context.Context, userIDs []string, groupID primitive.ObjectID) error
}

type GroupService interface {
	CreateGroup(ctx context.Context, caller common_models.Identity, req CreateGroupRequest) (*Group, error)
	GetGroup(ctx context.Context, caller common_models.Identity, id primitive.ObjectID) (*Group, error)
	GetGroupByID(ctx context.Context, id primitive.ObjectID) (*Group, error)
	GetUserGroups(ctx context.Context, userID string) ([]Group, error)
	JoinByCode(ctx context.Context, caller common_models.Identity, code string) (*Group, error)
	LeaveGroup(ctx context.Context, caller common_models.Identity, id primitive.ObjectID) error
	RemoveMember(ctx context.Context, caller common_models.Identity, id primitive.ObjectID, userID string) (*Group, error)
	RemoveMemberByID(ctx context.Context, caller common_models.Identity, id, memberID primitive.ObjectID) (*Group, error)
	UpdateMemberRole(ctx context.Context, caller common_models.Identity, id primitive.ObjectID, userID string, role Role) (*Group, error)
	UpdateGroup(ctx context.Context, caller common_models.Identity, id primitive.ObjectID, req UpdateGroupRequest) (*Group, error)
	DeleteGroup(ctx context.Context, caller common_models.Identity, id primitive.ObjectID) error

	// Lifecycle transitions driven by vote sessions. A non-empty sessionID
	// must still be the group's active session.
	StartVoting(ctx context.Context, id primitive.ObjectID, sessionID string) (*Group, error)
	CommitChosenMovie(ctx context.Context, id primitive.ObjectID, sessionID string, movie ChosenMovie, voters []string) (*Group, error)
	ClearActiveVote(ctx context.Context, id primitive.ObjectID, sessionID string) (*Group, error)

	ChooseMovie(ctx context.Context, caller common_models.Identity, id primitive.ObjectID, movie ChosenMovie) (*Group, error)
	AbandonVote(ctx context.Context, caller common_models.Identity, id primitive.ObjectID) (*Group, error)
	SetHistoryVoters(ctx context.Context, caller common_models.Identity, id primitive.ObjectID, movieID int, voters []string) (*Group, error)

	SaveRecommendations(ctx context.Context, caller common_models.Identity, id primitive.ObjectID, recs []Recommendation) (*Group, error)
	GetRecommendations(ctx context.Context, caller common_models.Identity, id primitive.ObjectID) (*LastRecommendations, error)
	GetHistory(ctx context.Context, caller common_models.Identity, id primitive.ObjectID) ([]VoteHistoryEntry, error)
	ExportHistory(ctx context.Context, caller common_models.Identity, id primitive.ObjectID) (*bytes.Buffer, string, error)
	GetActivity(ctx context.Context, caller common_models.Identity, id primitive.ObjectID, page, limit int64) ([]common_models.AuditLog, error)
}

type GroupServiceImpl struct {
	repo         GroupRepository
	users        UserDirectory
	auditService audit.AuditService
	tx           database.Transactor
	logger       *zap.Logger
	codes        *CodeGenerator
	rand         RandSource
	now          func() time.Time
}

func NewGroupService(repo GroupRepository, users UserDirectory, auditService audit.AuditService, tx database.Transactor, logger *zap.Logger) GroupService {
	return newGroupService(repo, users, auditService, tx, logger, DefaultRand(), time.Now)
}

func newGroupService(repo GroupRepository, users UserDirectory, auditService audit.AuditService, tx database.Transactor, logger *zap.Logger, rnd RandSource, now func() time.Time) *GroupServiceImpl {
	return &GroupServiceImpl{
		repo:         repo,
		users:        users,
		auditService: auditService,
		tx:           tx,
		logger:       logger.Named("group"),
		codes:        &CodeGenerator{Rand: rnd, Exists: repo.CodeExists},
		rand:         rnd,
		now:          now,
	}
}

func displayName(identity common_models.Identity) string {
	if name := strings.TrimSpace(identity.Name); name != "" {
		return name
	}
	if local, _, ok := strings.Cut(identity.Email, "@"); ok && local != "" {
		return local
	}
	return "Member"
}

func (s *GroupServiceImpl) CreateGroup(ctx context.Context, caller common_models.Identity, req CreateGroupRequest) (*Group, error) {
	name, err := NormalizeName(req.Name)
	if err != nil {
		return nil, err
	}
	if caller.UserID == "" {
		return nil, apperr.Validation("creator is required")
	}
	caller = s.users.Touch(ctx, caller)

	group := &Group{
		Name:      name,
		HeroImage: strings.TrimSpace(req.HeroImage),
		Status:    StatusActive,
		CreatedBy: caller.UserID,
	}
	if group.HeroImage == "" {
		group.HeroImage = HeroImageURL(s.rand.IntN(len(heroImageIDs)))
	}
	if _, err := group.AddMember(caller.UserID, displayName(caller), caller.Avatar, RoleAdmin, s.now()); err != nil {
		return nil, err
	}

	// CodeExists and the insert can race; the unique index decides.
	for attempt := 1; ; attempt++ {
		code, err := s.codes.Generate(ctx)
		if err != nil {
			return nil, err
		}
		group.Code = code
		err = s.repo.Create(ctx, group)
		if err == nil {
			break
		}
		if !errors.Is(err, ErrDuplicateCode) || attempt == maxCreateAttempts {
			return nil, err
		}
	}

	if err := s.users.LinkGroup(ctx, caller.UserID, group.ID); err != nil {
		s.logger.Warn("failed to link group to creator", zap.String("group_id", group.ID.Hex()), zap.String("user_id", caller.UserID), zap.Error(err))
	}
	s.record(ctx, common_models.AuditActionCreate, group.ID, map[string]common_models.Change{
		"name": {New: group.Name},
		"code": {New: group.Code},
	})
	return group, nil
}

func (s *GroupServiceImpl) GetGroupByID(ctx context.Context, id primitive.ObjectID) (*Group, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *GroupServiceImpl) GetGroup(ctx context.Context, caller common_models.Identity, id primitive.ObjectID) (*Group, error) {
	return s.loadAsMember(ctx, caller, id)
}

func (s *GroupServiceImpl) GetUserGroups(ctx context.Context, userID string) ([]Group, error) {
	return s.repo.FindByMember(ctx, userID)
}

func (s *GroupServiceImpl) JoinByCode(ctx context.Context, caller common_models.Identity, code string) (*Group, error) {
	code = NormalizeCode(code)
	if !ValidCode(code) {
		return nil, apperr.Validation("group code must be 6 alphanumeric characters")
	}
	found, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	caller = s.users.Touch(ctx, caller)

	group, err := s.mutate(ctx, found.ID, func(g *Group) error {
		_, err := g.AddMember(caller.UserID, displayName(caller), caller.Avatar, RoleMember, s.now())
		return err
	})
	if err != nil {
		return nil, err
	}

	if err := s.users.LinkGroup(ctx, caller.UserID, group.ID); err != nil {
		s.logger.Warn("failed to link joined group", zap.String("group_id", group.ID.Hex()), zap.String("user_id", caller.UserID), zap.Error(err))
	}
	s.record(ctx, common_models.AuditActionJoin, group.ID, map[string]common_models.Change{
		"member": {New: caller.UserID},
	})
	return group, nil
}

// LeaveGroup removes the caller. The last member leaving deletes the group.
func (s *GroupServiceImpl) LeaveGroup(ctx context.Context, caller common_models.Identity, id primitive.ObjectID) error {
	s.users.Touch(ctx, caller)
	group, err := s.mutate(ctx, id, func(g *Group) error {
		if !g.RemoveMember(caller.UserID) {
			return apperr.ErrMemberNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.users.UnlinkGroup(ctx, caller.UserID, id); err != nil {
		s.logger.Warn("failed to unlink left group", zap.String("group_id", id.Hex()), zap.String("user_id", caller.UserID), zap.Error(err))
	}
	s.record(ctx, common_models.AuditActionLeave, id, map[string]common_models.Change{
		"member": {Old: caller.UserID},
	})

	if len(group.Members) == 0 {
		return s.deleteGroup(ctx, group)
	}
	return nil
}

func (s *GroupServiceImpl) RemoveMember(ctx context.Context, caller common_models.Identity, id primitive.ObjectID, userID string) (*Group, error) {
	if _, err := s.loadAsAdmin(ctx, caller, id); err != nil {
		return nil, err
	}

	removed := false
	group, err := s.mutate(ctx, id, func(g *Group) error {
		if userID == g.CreatedBy {
			return apperr.Forbidden("the group creator cannot be removed")
		}
		removed = g.RemoveMember(userID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if removed {
		s.afterRemoval(ctx, id, userID)
	}
	return group, nil
}

func (s *GroupServiceImpl) RemoveMemberByID(ctx context.Context, caller common_models.Identity, id, memberID primitive.ObjectID) (*Group, error) {
	if _, err := s.loadAsAdmin(ctx, caller, id); err != nil {
		return nil, err
	}

	var userID string
	group, err := s.mutate(ctx, id, func(g *Group) error {
		userID = ""
		m := g.GetMemberByID(memberID)
		if m == nil {
			return nil
		}
		if m.UserRef == g.CreatedBy {
			return apperr.Forbidden("the group creator cannot be removed")
		}
		userID = m.UserRef
		g.RemoveMemberByID(memberID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if userID != "" {
		s.afterRemoval(ctx, id, userID)
	}
	return group, nil
}

func (s *GroupServiceImpl) afterRemoval(ctx context.Context, id primitive.ObjectID, userID string) {
	if err := s.users.UnlinkGroup(ctx, userID, id); err != nil {
		s.logger.Warn("failed to unlink removed member", zap.String("group_id", id.Hex()), zap.String("user_id", userID), zap.Error(err))
	}
	s.record(ctx, common_models.AuditActionMemberRemoved, id, map[string]common_models.Change{
		"member": {Old: userID},
	})
}

func (s *GroupServiceImpl) UpdateMemberRole(ctx context.Context, caller common_models.Identity, id primitive.ObjectID, userID string, role Role) (*Group, error) {
	if _, err := s.loadAsAdmin(ctx, caller, id); err != nil {
		return nil, err
	}

	var old Role
	group, err := s.mutate(ctx, id, func(g *Group) error {
		if m := g.GetMember(userID); m != nil {
			old = m.Role
		}
		return g.UpdateMemberRole(userID, role)
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, common_models.AuditActionRoleChanged, id, map[string]common_models.Change{
		"role:" + userID: {Old: old, New: role},
	})
	return group, nil
}

func (s *GroupServiceImpl) UpdateGroup(ctx context.Context, caller common_models.Identity, id primitive.ObjectID, req UpdateGroupRequest) (*Group, error) {
	if _, err := s.loadAsAdmin(ctx, caller, id); err != nil {
		return nil, err
	}
	var name string
	if req.Name != nil {
		n, err := NormalizeName(*req.Name)
		if err != nil {
			return nil, err
		}
		name = n
	}

	changes := map[string]common_models.Change{}
	group, err := s.mutate(ctx, id, func(g *Group) error {
		if req.Name != nil && name != g.Name {
			changes["name"] = common_models.Change{Old: g.Name, New: name}
			g.Name = name
		}
		if req.HeroImage != nil {
			hero := strings.TrimSpace(*req.HeroImage)
			if hero != "" && hero != g.HeroImage {
				changes["hero_image"] = common_models.Change{Old: g.HeroImage, New: hero}
				g.HeroImage = hero
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(changes) > 0 {
		s.record(ctx, common_models.AuditActionUpdate, id, changes)
	}
	return group, nil
}

func (s *GroupServiceImpl) DeleteGroup(ctx context.Context, caller common_models.Identity, id primitive.ObjectID) error {
	group, err := s.loadAsAdmin(ctx, caller, id)
	if err != nil {
		return err
	}
	return s.deleteGroup(ctx, group)
}

// deleteGroup pulls the group from every member's joined groups and deletes
// it as one unit. A group already gone counts as deleted. Without transaction
// support a failed delete is compensated by re-linking the members.
func (s *GroupServiceImpl) deleteGroup(ctx context.Context, group *Group) error {
	memberIDs := group.MemberUserIDs()

	alreadyGone := false
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		alreadyGone = false
		if err := s.users.UnlinkGroupFromUsers(ctx, memberIDs, group.ID); err != nil {
			return err
		}
		err := s.repo.Delete(ctx, group.ID)
		if errors.Is(err, apperr.ErrNotFound) {
			alreadyGone = true
			return nil
		}
		return err
	})
	if err != nil {
		if !s.tx.Atomic() {
			if cerr := s.users.LinkGroupToUsers(ctx, memberIDs, group.ID); cerr != nil {
				s.logger.Error("failed to restore joined groups after failed delete",
					zap.String("group_id", group.ID.Hex()), zap.Error(cerr))
			}
		}
		return err
	}
	if alreadyGone {
		s.logger.Debug("group already deleted", zap.String("group_id", group.ID.Hex()))
		return nil
	}

	s.record(ctx, common_models.AuditActionDelete, group.ID, map[string]common_models.Change{
		"name": {Old: group.Name, New: "DELETED"},
	})
	return nil
}

func (s *GroupServiceImpl) StartVoting(ctx context.Context, id primitive.ObjectID, sessionID string) (*Group, error) {
	group, err := s.mutate(ctx, id, func(g *Group) error {
		return g.StartVoting(sessionID)
	})
	if err != nil {
		return nil, err
	}
	s.record(ctx, common_models.AuditActionVoteStarted, id, map[string]common_models.Change{
		"active_vote_session_id": {New: sessionID},
	})
	return group, nil
}

func (s *GroupServiceImpl) CommitChosenMovie(ctx context.Context, id primitive.ObjectID, sessionID string, movie ChosenMovie, voters []string) (*Group, error) {
	group, err := s.mutate(ctx, id, func(g *Group) error {
		if err := requireActiveSession(g, sessionID); err != nil {
			return err
		}
		if err := g.CommitChosenMovie(movie, s.now()); err != nil {
			return err
		}
		if len(voters) > 0 {
			return g.SetHistoryVoters(movie.ID, voters)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.record(ctx, common_models.AuditActionMovieChosen, id, map[string]common_models.Change{
		"chosen_movie": {New: movie},
	})
	return group, nil
}

func (s *GroupServiceImpl) ClearActiveVote(ctx context.Context, id primitive.ObjectID, sessionID string) (*Group, error) {
	group, err := s.mutate(ctx, id, func(g *Group) error {
		if err := requireActiveSession(g, sessionID); err != nil {
			return err
		}
		g.ClearActiveVote()
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.record(ctx, common_models.AuditActionVoteCleared, id, nil)
	return group, nil
}

func requireActiveSession(g *Group, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if g.ActiveVoteSessionID == nil || *g.ActiveVoteSessionID != sessionID {
		return apperr.Conflict("vote session is no longer the group's active session")
	}
	return nil
}

func (s *GroupServiceImpl) ChooseMovie(ctx context.Context, caller common_models.Identity, id primitive.ObjectID, movie ChosenMovie) (*Group, error) {
	if _, err := s.loadAsAdmin(ctx, caller, id); err != nil {
		return nil, err
	}
	return s.CommitChosenMovie(ctx, id, "", movie, nil)
}

func (s *GroupServiceImpl) AbandonVote(ctx context.Context, caller common_models.Identity, id primitive.ObjectID) (*Group, error) {
	if _, err := s.loadAsAdmin(ctx, caller, id); err != nil {
		return nil, err
	}
	return s.ClearActiveVote(ctx, id, "")
}

func (s *GroupServiceImpl) SetHistoryVoters(ctx context.Context, caller common_models.Identity, id primitive.ObjectID, movieID int, voters []string) (*Group, error) {
	if _, err := s.loadAsAdmin(ctx, caller, id); err != nil {
		return nil, err
	}
	return s.mutate(ctx, id, func(g *Group) error {
		return g.SetHistoryVoters(movieID, voters)
	})
}

func (s *GroupServiceImpl) SaveRecommendations(ctx context.Context, caller common_models.Identity, id primitive.ObjectID, recs []Recommendation) (*Group, error) {
	if _, err := s.loadAsMember(ctx, caller, id); err != nil {
		return nil, err
	}
	s.users.Touch(ctx, caller)
	return s.mutate(ctx, id, func(g *Group) error {
		return g.SaveRecommendations(recs, s.now())
	})
}

func (s *GroupServiceImpl) GetRecommendations(ctx context.Context, caller common_models.Identity, id primitive.ObjectID) (*LastRecommendations, error) {
	group, err := s.loadAsMember(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	last := group.GetLastRecommendations(s.now())
	if last == nil {
		return nil, apperr.NotFound("recommendations")
	}
	return last, nil
}

func (s *GroupServiceImpl) GetHistory(ctx context.Context, caller common_models.Identity, id primitive.ObjectID) ([]VoteHistoryEntry, error) {
	group, err := s.loadAsMember(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if group.VoteHistory == nil {
		return []VoteHistoryEntry{}, nil
	}
	return group.VoteHistory, nil
}

func (s *GroupServiceImpl) ExportHistory(ctx context.Context, caller common_models.Identity, id primitive.ObjectID) (*bytes.Buffer, string, error) {
	group, err := s.loadAsMember(ctx, caller, id)
	if err != nil {
		return nil, "", err
	}
	buf, err := ExportHistoryToExcel(group)
	if err != nil {
		return nil, "", err
	}
	return buf, HistoryExportFilename(group, s.now()), nil
}

func (s *GroupServiceImpl) GetActivity(ctx context.Context, caller common_models.Identity, id primitive.ObjectID, page, limit int64) ([]common_models.AuditLog, error) {
	if _, err := s.loadAsMember(ctx, caller, id); err != nil {
		return nil, err
	}
	return s.auditService.ListLogs(ctx, map[string]interface{}{
		"module":    audit.ModuleGroups,
		"record_id": id.Hex(),
	}, page, limit)
}

func (s *GroupServiceImpl) loadAsMember(ctx context.Context, caller common_models.Identity, id primitive.ObjectID) (*Group, error) {
	group, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !group.IsMember(caller.UserID) {
		return nil, apperr.Forbidden("not a member of this group")
	}
	return group, nil
}

func (s *GroupServiceImpl) loadAsAdmin(ctx context.Context, caller common_models.Identity, id primitive.ObjectID) (*Group, error) {
	group, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !group.IsAdmin(caller.UserID) {
		return nil, apperr.Forbidden("only group admins can do this")
	}
	// Every admin operation is a write.
	s.users.Touch(ctx, caller)
	return group, nil
}

// mutate applies fn to a fresh copy of the group and writes it back,
// re-reading and re-applying on version conflicts.
func (s *GroupServiceImpl) mutate(ctx context.Context, id primitive.ObjectID, fn func(g *Group) error) (*Group, error) {
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		group, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := fn(group); err != nil {
			return nil, err
		}
		err = s.repo.Update(ctx, group)
		if err == nil {
			return group, nil
		}
		if !IsVersionConflict(err) {
			return nil, err
		}
		s.logger.Debug("group version conflict, retrying", zap.String("group_id", id.Hex()), zap.Int("attempt", attempt+1))
	}
	return nil, apperr.Conflict("group is busy, try again")
}

func (s *GroupServiceImpl) record(ctx context.Context, action common_models.AuditAction, id primitive.ObjectID, changes map[string]common_models.Change) {
	if err := s.auditService.LogChange(ctx, action, audit.ModuleGroups, id.Hex(), changes); err != nil {
		s.logger.Warn("failed to write audit log", zap.String("action", string(action)), zap.String("group_id", id.Hex()), zap.Error(err))
	}
}
