package group

import (
	"errors"
	"testing"
	"time"

	"github.com/hicham-zad/pikonote-backend/internal/common/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLifecycleTransitionsKeepStatusConsistent(t *testing.T) {
	g := newTestGroup()
	require.True(t, g.StatusConsistent())

	require.NoError(t, g.StartVoting("s1"))
	assert.Equal(t, StatusVoting, g.Status)
	assert.Equal(t, "s1", *g.ActiveVoteSessionID)
	assert.True(t, g.StatusConsistent())

	err := g.StartVoting("s2")
	assert.True(t, errors.Is(err, apperr.ErrConflict))
	assert.Equal(t, "s1", *g.ActiveVoteSessionID)

	movie := ChosenMovie{ID: 42, Title: "Heat", Poster: "p.jpg", VotePercentage: 60, TotalVotes: 5}
	require.NoError(t, g.CommitChosenMovie(movie, testNow))
	assert.Equal(t, StatusMovieChosen, g.Status)
	assert.Nil(t, g.ActiveVoteSessionID)
	assert.Equal(t, 42, g.ChosenMovie.ID)
	assert.True(t, g.StatusConsistent())

	require.Len(t, g.VoteHistory, 1)
	entry := g.VoteHistory[0]
	assert.Equal(t, 42, entry.MovieID)
	assert.Equal(t, "Heat", entry.MovieTitle)
	assert.Equal(t, 60, entry.VotePercentage)
	assert.Equal(t, 5, entry.TotalVotes)
	assert.Equal(t, testNow, entry.VotedAt)
	assert.Empty(t, entry.Voters)

	// A new vote can start from movie_chosen and drops the old pick.
	require.NoError(t, g.StartVoting("s3"))
	assert.Nil(t, g.ChosenMovie)
	assert.True(t, g.StatusConsistent())

	g.ClearActiveVote()
	assert.Equal(t, StatusActive, g.Status)
	assert.True(t, g.StatusConsistent())
}

func TestCommitChosenMovie_Validation(t *testing.T) {
	tests := []struct {
		name  string
		movie ChosenMovie
	}{
		{"non-positive id", ChosenMovie{ID: 0, Title: "X"}},
		{"missing title", ChosenMovie{ID: 1, Title: " "}},
		{"percentage over 100", ChosenMovie{ID: 1, Title: "X", VotePercentage: 101}},
		{"negative percentage", ChosenMovie{ID: 1, Title: "X", VotePercentage: -1}},
		{"negative total", ChosenMovie{ID: 1, Title: "X", TotalVotes: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGroup()
			_ = g.StartVoting("s1")
			err := g.CommitChosenMovie(tt.movie, testNow)
			assert.True(t, errors.Is(err, apperr.ErrValidation))
			assert.Equal(t, StatusVoting, g.Status)
			assert.Empty(t, g.VoteHistory)
		})
	}
}

func TestStatusConsistent_DetectsDrift(t *testing.T) {
	sid := "s1"
	tests := []struct {
		name string
		g    Group
		want bool
	}{
		{"voting without session", Group{Status: StatusVoting}, false},
		{"active with session", Group{Status: StatusActive, ActiveVoteSessionID: &sid}, false},
		{"chosen without movie", Group{Status: StatusMovieChosen}, false},
		{"chosen with both", Group{Status: StatusMovieChosen, ActiveVoteSessionID: &sid, ChosenMovie: &ChosenMovie{ID: 1}}, false},
		{"unknown status", Group{Status: "archived"}, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.g.StatusConsistent(), tt.name)
	}
}

func TestRecommendationsCache(t *testing.T) {
	g := newTestGroup()
	assert.Nil(t, g.GetLastRecommendations(testNow))

	recs := []Recommendation{{Title: "Arrival", GroupCompatibility: 8.5}}
	require.NoError(t, g.SaveRecommendations(recs, testNow))
	assert.Equal(t, testNow.Add(24*time.Hour), g.LastRecommendations.ExpiresAt)

	got := g.GetLastRecommendations(testNow.Add(23 * time.Hour))
	require.NotNil(t, got)
	assert.Equal(t, "Arrival", got.Recommendations[0].Title)

	assert.Nil(t, g.GetLastRecommendations(testNow.Add(25*time.Hour)))

	err := g.SaveRecommendations([]Recommendation{{Title: "Bad", GroupCompatibility: 11}}, testNow)
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}
