package group

import (
	"strings"
	"time"

	"github.com/hicham-zad/pikonote-backend/internal/common/apperr"
)

// StartVoting moves the group into voting on sessionID. Only one session can
// be active per group.
func (g *Group) StartVoting(sessionID string) error {
	if g.Status == StatusVoting {
		return apperr.Conflict("group already has an active vote session")
	}
	if sessionID == "" {
		return apperr.Validation("vote session id is required")
	}
	g.Status = StatusVoting
	g.ActiveVoteSessionID = &sessionID
	g.ChosenMovie = nil
	return nil
}

func (m ChosenMovie) Validate() error {
	if m.ID <= 0 {
		return apperr.Validation("chosen movie id must be a positive number")
	}
	if strings.TrimSpace(m.Title) == "" {
		return apperr.Validation("chosen movie title is required")
	}
	if m.VotePercentage < 0 || m.VotePercentage > 100 {
		return apperr.Validation("vote percentage must be between 0 and 100")
	}
	if m.TotalVotes < 0 {
		return apperr.Validation("total votes cannot be negative")
	}
	return nil
}

// CommitChosenMovie records the winner and prepends a history entry with an
// empty voter list. SetHistoryVoters fills the voters in.
func (g *Group) CommitChosenMovie(movie ChosenMovie, now time.Time) error {
	if err := movie.Validate(); err != nil {
		return err
	}
	movie.Title = strings.TrimSpace(movie.Title)
	g.ChosenMovie = &movie
	g.Status = StatusMovieChosen
	g.ActiveVoteSessionID = nil
	g.VoteHistory = AppendHistory(g.VoteHistory, VoteHistoryEntry{
		MovieID:        movie.ID,
		MovieTitle:     movie.Title,
		MoviePoster:    movie.Poster,
		VotePercentage: movie.VotePercentage,
		TotalVotes:     movie.TotalVotes,
		VotedAt:        now,
		Voters:         []string{},
	})
	return nil
}

// ClearActiveVote abandons the current session without recording a winner.
func (g *Group) ClearActiveVote() {
	g.Status = StatusActive
	g.ActiveVoteSessionID = nil
	g.ChosenMovie = nil
}

// StatusConsistent reports whether Status agrees with ActiveVoteSessionID and
// ChosenMovie.
func (g *Group) StatusConsistent() bool {
	hasSession := g.ActiveVoteSessionID != nil
	hasMovie := g.ChosenMovie != nil
	switch g.Status {
	case StatusActive:
		return !hasSession && !hasMovie
	case StatusVoting:
		return hasSession && !hasMovie
	case StatusMovieChosen:
		return hasMovie && !hasSession
	default:
		return false
	}
}
