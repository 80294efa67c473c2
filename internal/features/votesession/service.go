package votesession

import (
	"context"
	"errors"
	"time"

	"github.com/hicham-zad/pikonote-backend/internal/common/apperr"
	common_models "github.com/hicham-zad/pikonote-backend/internal/common/models"
	"github.com/hicham-zad/pikonote-backend/internal/features/audit"
	"github.com/hicham-zad/pikonote-backend/internal/features/group"
	"github.com/hicham-zad/pikonote-backend/internal/features/live"
	"github.com/hicham-zad/pikonote-backend/internal/metrics"

	"github.com/dustin/go-humanize"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Groups is the part of the group service a vote session drives.
type Groups interface {
	GetGroupByID(ctx context.Context, id primitive.ObjectID) (*group.Group, error)
	StartVoting(ctx context.Context, id primitive.ObjectID, sessionID string) (*group.Group, error)
	CommitChosenMovie(ctx context.Context, id primitive.ObjectID, sessionID string, movie group.ChosenMovie, voters []string) (*group.Group, error)
	ClearActiveVote(ctx context.Context, id primitive.ObjectID, sessionID string) (*group.Group, error)
}

type VoteSessionService interface {
	CreateSession(ctx context.Context, caller common_models.Identity, req CreateSessionRequest) (*VoteSession, error)
	GetSession(ctx context.Context, caller common_models.Identity, id primitive.ObjectID) (*SessionView, error)
	GetActiveSession(ctx context.Context, caller common_models.Identity, groupID primitive.ObjectID) (*SessionView, error)
	GetMySessions(ctx context.Context, caller common_models.Identity) ([]VoteSession, error)
	CastVote(ctx context.Context, caller common_models.Identity, id primitive.ObjectID, movieID int) (*CastResponse, error)
	GetResults(ctx context.Context, caller common_models.Identity, id primitive.ObjectID) ([]Result, error)
	FinishSession(ctx context.Context, caller common_models.Identity, id primitive.ObjectID) (*FinishResponse, error)
	AuthorizeViewer(ctx context.Context, caller common_models.Identity, id primitive.ObjectID) error
	CleanupExpired(ctx context.Context) (int64, error)
}

type VoteSessionServiceImpl struct {
	repo         VoteSessionRepository
	groups       Groups
	publisher    live.Publisher
	auditService audit.AuditService
	logger       *zap.Logger
	now          func() time.Time
}

func NewVoteSessionService(repo VoteSessionRepository, groups Groups, publisher live.Publisher, auditService audit.AuditService, logger *zap.Logger) VoteSessionService {
	return newVoteSessionService(repo, groups, publisher, auditService, logger, time.Now)
}

func newVoteSessionService(repo VoteSessionRepository, groups Groups, publisher live.Publisher, auditService audit.AuditService, logger *zap.Logger, now func() time.Time) *VoteSessionServiceImpl {
	return &VoteSessionServiceImpl{
		repo:         repo,
		groups:       groups,
		publisher:    publisher,
		auditService: auditService,
		logger:       logger.Named("votesession"),
		now:          now,
	}
}

func (s *VoteSessionServiceImpl) CreateSession(ctx context.Context, caller common_models.Identity, req CreateSessionRequest) (*VoteSession, error) {
	if err := ValidateInput(req.MovieIDs, req.Duration); err != nil {
		return nil, err
	}
	groupID, err := primitive.ObjectIDFromHex(req.GroupID)
	if err != nil {
		return nil, apperr.Validation("invalid group ID")
	}

	g, err := s.groups.GetGroupByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !g.IsMember(caller.UserID) {
		return nil, apperr.Forbidden("not a member of this group")
	}
	if g.Status == group.StatusVoting {
		return nil, apperr.Conflict("group already has an active vote session")
	}

	session, err := NewVoteSession(g.ID, g.Name, req.MovieIDs, req.MovieMetadata, req.Duration, caller.UserID, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, session); err != nil {
		return nil, err
	}

	if _, err := s.groups.StartVoting(ctx, g.ID, session.ID.Hex()); err != nil {
		// Another session won the race; this one must not stay open.
		if _, finishErr := s.repo.Finish(ctx, session.ID, s.now()); finishErr != nil {
			s.logger.Error("failed to finish orphaned vote session",
				zap.String("session_id", session.ID.Hex()), zap.Error(finishErr))
		}
		return nil, err
	}

	metrics.SessionsCreated.Inc()
	s.record(ctx, common_models.AuditActionCreate, session.ID, map[string]common_models.Change{
		"group_id":  {New: g.ID.Hex()},
		"movie_ids": {New: session.MovieIDs},
		"duration":  {New: session.Duration},
	})
	return session, nil
}

func (s *VoteSessionServiceImpl) GetSession(ctx context.Context, caller common_models.Identity, id primitive.ObjectID) (*SessionView, error) {
	session, _, err := s.loadAsMember(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	return s.view(session, caller.UserID), nil
}

func (s *VoteSessionServiceImpl) GetActiveSession(ctx context.Context, caller common_models.Identity, groupID primitive.ObjectID) (*SessionView, error) {
	g, err := s.groups.GetGroupByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !g.IsMember(caller.UserID) {
		return nil, apperr.Forbidden("not a member of this group")
	}

	sessions, err := s.repo.FindActiveByGroup(ctx, groupID, s.now())
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, apperr.NotFound("active vote session")
	}
	return s.view(&sessions[0], caller.UserID), nil
}

func (s *VoteSessionServiceImpl) GetMySessions(ctx context.Context, caller common_models.Identity) ([]VoteSession, error) {
	return s.repo.FindByCreator(ctx, caller.UserID)
}

func (s *VoteSessionServiceImpl) CastVote(ctx context.Context, caller common_models.Identity, id primitive.ObjectID, movieID int) (*CastResponse, error) {
	session, g, err := s.loadAsMember(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	userName := caller.Name
	if member := g.GetMember(caller.UserID); member != nil && member.Name != "" {
		userName = member.Name
	}

	updated, result, err := s.repo.UpsertVote(ctx, session.ID, caller.UserID, userName, movieID, s.now())
	if err != nil {
		return nil, err
	}

	kind := metrics.KindNew
	if result.IsUpdate {
		kind = metrics.KindUpdate
	}
	metrics.VotesCast.WithLabelValues(kind).Inc()

	results := updated.Results()
	s.publish(ctx, live.EventVoteCast, updated.ID, map[string]interface{}{
		"session_id": updated.ID.Hex(),
		"user_name":  userName,
		"is_update":  result.IsUpdate,
		"results":    results,
	})

	return &CastResponse{CastResult: *result, Results: results}, nil
}

func (s *VoteSessionServiceImpl) GetResults(ctx context.Context, caller common_models.Identity, id primitive.ObjectID) ([]Result, error) {
	session, _, err := s.loadAsMember(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	return session.Results(), nil
}

// FinishSession closes the session and commits its winner to the group, or
// clears the group's active vote when nobody voted for an unwatched movie.
func (s *VoteSessionServiceImpl) FinishSession(ctx context.Context, caller common_models.Identity, id primitive.ObjectID) (*FinishResponse, error) {
	session, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	g, err := s.groups.GetGroupByID(ctx, session.GroupID)
	if err != nil {
		return nil, err
	}
	if !g.IsAdmin(caller.UserID) && session.CreatedBy != caller.UserID {
		return nil, apperr.Forbidden("only group admins or the session creator can finish it")
	}

	// Tally from the stored document: casts that landed after the read above
	// are part of the result.
	session, err = s.repo.Finish(ctx, session.ID, s.now())
	if err != nil {
		return nil, err
	}

	results := session.Results()
	winner := session.Winner()
	sessionID := session.ID.Hex()

	if winner != nil {
		meta := session.MovieByID(winner.MovieID)
		movie := group.ChosenMovie{
			ID:             winner.MovieID,
			Title:          meta.Title,
			Poster:         meta.Poster,
			VotePercentage: winner.Percentage,
			TotalVotes:     len(session.Votes),
		}
		_, err = s.groups.CommitChosenMovie(ctx, g.ID, sessionID, movie, winner.Voters)
		metrics.SessionsFinished.WithLabelValues(metrics.OutcomeChosen).Inc()
	} else {
		_, err = s.groups.ClearActiveVote(ctx, g.ID, sessionID)
		metrics.SessionsFinished.WithLabelValues(metrics.OutcomeCleared).Inc()
	}
	if err != nil {
		if !errors.Is(err, apperr.ErrConflict) {
			return nil, err
		}
		// The group moved on already (cleared by an admin or finished twice).
		s.logger.Warn("group no longer tracks this vote session",
			zap.String("session_id", sessionID),
			zap.String("group_id", g.ID.Hex()),
			zap.Error(err))
	}

	s.record(ctx, common_models.AuditActionVoteFinished, session.ID, map[string]common_models.Change{
		"status": {Old: StatusActive, New: StatusFinished},
	})
	s.publish(ctx, live.EventSessionFinished, session.ID, map[string]interface{}{
		"session_id": sessionID,
		"winner":     winner,
		"results":    results,
	})

	return &FinishResponse{Session: session, Results: results, Winner: winner}, nil
}

func (s *VoteSessionServiceImpl) AuthorizeViewer(ctx context.Context, caller common_models.Identity, id primitive.ObjectID) error {
	_, _, err := s.loadAsMember(ctx, caller, id)
	return err
}

func (s *VoteSessionServiceImpl) CleanupExpired(ctx context.Context) (int64, error) {
	return s.repo.CleanupExpired(ctx, s.now())
}

func (s *VoteSessionServiceImpl) view(session *VoteSession, userID string) *SessionView {
	now := s.now()
	return &SessionView{
		Session:          session,
		IsActive:         session.IsActive(now),
		RemainingSeconds: session.RemainingTime(now),
		EndsIn:           humanize.RelTime(session.EndTime, now, "ago", "from now"),
		HasVoted:         session.HasUserVoted(userID),
		UserVote:         session.UserVote(userID),
	}
}

func (s *VoteSessionServiceImpl) loadAsMember(ctx context.Context, caller common_models.Identity, id primitive.ObjectID) (*VoteSession, *group.Group, error) {
	session, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	g, err := s.groups.GetGroupByID(ctx, session.GroupID)
	if err != nil {
		return nil, nil, err
	}
	if !g.IsMember(caller.UserID) {
		return nil, nil, apperr.Forbidden("not a member of this group")
	}
	return session, g, nil
}

func (s *VoteSessionServiceImpl) publish(ctx context.Context, eventType live.EventType, id primitive.ObjectID, data map[string]interface{}) {
	event, err := live.NewEvent(eventType, id.Hex(), data, s.now())
	if err != nil {
		s.logger.Error("failed to build live event", zap.Error(err))
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish live event", zap.String("type", string(eventType)), zap.Error(err))
	}
}

func (s *VoteSessionServiceImpl) record(ctx context.Context, action common_models.AuditAction, id primitive.ObjectID, changes map[string]common_models.Change) {
	if err := s.auditService.LogChange(ctx, action, audit.ModuleVoteSessions, id.Hex(), changes); err != nil {
		s.logger.Warn("failed to write audit log", zap.String("action", string(action)), zap.String("session_id", id.Hex()), zap.Error(err))
	}
}
