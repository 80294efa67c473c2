package votesession

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"time"

	"github.com/hicham-zad/pikonote-backend/internal/common/apperr"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ValidateInput checks the parameters of a new session before anything is
// read or written.
func ValidateInput(movieIDs []int, duration int) error {
	if duration < MinDuration || duration > MaxDuration {
		return apperr.Validationf("duration must be between %d and %d minutes", MinDuration, MaxDuration)
	}
	if len(movieIDs) == 0 {
		return apperr.Validation("at least one movie is required")
	}
	for _, id := range movieIDs {
		if id <= 0 {
			return apperr.Validation("movie ID must be a positive number")
		}
	}
	return nil
}

// NewVoteSession builds an active session. EndTime is fixed here and never
// recomputed.
func NewVoteSession(groupID primitive.ObjectID, groupName string, movieIDs []int, metadata []MovieMetadata, duration int, creator string, now time.Time) (*VoteSession, error) {
	if err := ValidateInput(movieIDs, duration); err != nil {
		return nil, err
	}

	if metadata == nil {
		metadata = []MovieMetadata{}
	}
	for i := range metadata {
		if metadata[i].WatchedBy == nil {
			metadata[i].WatchedBy = []WatchedBy{}
		}
	}

	return &VoteSession{
		ID:            primitive.NewObjectID(),
		GroupID:       groupID,
		GroupName:     groupName,
		MovieIDs:      slices.Clone(movieIDs),
		MovieMetadata: metadata,
		Duration:      duration,
		StartTime:     now,
		EndTime:       now.Add(time.Duration(duration) * time.Minute),
		Votes:         []Vote{},
		Status:        StatusActive,
		CreatedBy:     creator,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

func (s *VoteSession) IsExpired(now time.Time) bool {
	return !now.Before(s.EndTime)
}

func (s *VoteSession) IsActive(now time.Time) bool {
	return s.Status == StatusActive && !s.IsExpired(now)
}

func (s *VoteSession) HasMovie(movieID int) bool {
	return slices.Contains(s.MovieIDs, movieID)
}

// CastVote records the user's ballot, replacing an earlier one.
func (s *VoteSession) CastVote(userID, userName string, movieID int, now time.Time) (*CastResult, error) {
	if !s.HasMovie(movieID) {
		return nil, apperr.ErrInvalidSelection
	}
	if !s.IsActive(now) {
		return nil, apperr.ErrSessionEnded
	}

	for i := range s.Votes {
		if s.Votes[i].UserID == userID {
			s.Votes[i].MovieID = movieID
			s.Votes[i].Timestamp = now
			s.UpdatedAt = now
			return &CastResult{IsUpdate: true, Vote: s.Votes[i]}, nil
		}
	}

	vote := Vote{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		UserName:  userName,
		MovieID:   movieID,
		Timestamp: now,
	}
	s.Votes = append(s.Votes, vote)
	s.UpdatedAt = now
	return &CastResult{IsUpdate: false, Vote: vote}, nil
}

func (s *VoteSession) metadata(movieID int) *MovieMetadata {
	for i := range s.MovieMetadata {
		if s.MovieMetadata[i].ID == movieID {
			return &s.MovieMetadata[i]
		}
	}
	return nil
}

// Results tallies every candidate nobody has watched yet. Percentages are
// shares of all votes cast, watched candidates included.
func (s *VoteSession) Results() []Result {
	total := len(s.Votes)
	results := make([]Result, 0, len(s.MovieIDs))

	for _, movieID := range s.MovieIDs {
		meta := s.metadata(movieID)
		if meta != nil && len(meta.WatchedBy) > 0 {
			continue
		}

		voters := []string{}
		for _, v := range s.Votes {
			if v.MovieID == movieID {
				voters = append(voters, v.UserName)
			}
		}

		percentage := 0
		if total > 0 {
			percentage = int(math.Round(float64(len(voters)) / float64(total) * 100))
		}

		result := Result{
			MovieID:    movieID,
			Votes:      len(voters),
			Percentage: percentage,
			Voters:     voters,
		}
		if meta != nil {
			result.MovieDetails = &MovieDetails{
				Title:    meta.Title,
				Year:     meta.Year,
				Poster:   meta.Poster,
				Genre:    meta.Genre,
				Rating:   meta.Rating,
				Director: meta.Director,
				Plot:     meta.Plot,
				Reason:   meta.Reason,
				Duration: meta.Duration,
			}
		}
		results = append(results, result)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Votes > results[j].Votes
	})
	return results
}

// Winner is the top result with at least one vote.
func (s *VoteSession) Winner() *Result {
	results := s.Results()
	if len(results) == 0 || results[0].Votes == 0 {
		return nil
	}
	return &results[0]
}

func (s *VoteSession) UserVote(userID string) *Vote {
	for i := range s.Votes {
		if s.Votes[i].UserID == userID {
			v := s.Votes[i]
			return &v
		}
	}
	return nil
}

func (s *VoteSession) HasUserVoted(userID string) bool {
	return s.UserVote(userID) != nil
}

func (s *VoteSession) MovieByID(movieID int) MovieMetadata {
	if meta := s.metadata(movieID); meta != nil {
		return *meta
	}
	return MovieMetadata{ID: movieID, Title: fmt.Sprintf("Movie %d", movieID), WatchedBy: []WatchedBy{}}
}

// Finish is idempotent.
func (s *VoteSession) Finish(now time.Time) {
	if s.Status == StatusFinished {
		return
	}
	s.Status = StatusFinished
	s.UpdatedAt = now
}

// RemainingTime is in whole seconds.
func (s *VoteSession) RemainingTime(now time.Time) int64 {
	if s.Status != StatusActive {
		return 0
	}
	remaining := int64(s.EndTime.Sub(now) / time.Second)
	if remaining < 0 {
		return 0
	}
	return remaining
}
