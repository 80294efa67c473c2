package group

import (
	"errors"
	"testing"
	"time"

	"github.com/hicham-zad/pikonote-backend/internal/common/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entryAt(movieID int, at time.Time) VoteHistoryEntry {
	return VoteHistoryEntry{MovieID: movieID, VotedAt: at}
}

func TestAppendHistory_KeepsTwentyMostRecent(t *testing.T) {
	var history []VoteHistoryEntry
	for i := 1; i <= 21; i++ {
		history = AppendHistory(history, entryAt(i, testNow.Add(time.Duration(i)*time.Minute)))
		assert.LessOrEqual(t, len(history), MaxHistory)
	}

	require.Len(t, history, MaxHistory)
	assert.Equal(t, 21, history[0].MovieID)
	assert.Equal(t, 2, history[MaxHistory-1].MovieID)
	for i := 1; i < len(history); i++ {
		assert.True(t, history[i-1].VotedAt.After(history[i].VotedAt))
	}
}

func TestAppendHistory_DoesNotAliasInput(t *testing.T) {
	original := []VoteHistoryEntry{entryAt(1, testNow)}
	_ = AppendHistory(original, entryAt(2, testNow.Add(time.Minute)))
	assert.Equal(t, 1, original[0].MovieID)
}

func TestNormalizeHistory(t *testing.T) {
	short := []VoteHistoryEntry{entryAt(1, testNow), entryAt(2, testNow.Add(time.Hour))}
	assert.Equal(t, short, NormalizeHistory(short), "lists within bounds are left alone")

	// 25 entries in ascending order, as if appended wrongly.
	var long []VoteHistoryEntry
	for i := 0; i < 25; i++ {
		long = append(long, entryAt(i, testNow.Add(time.Duration(i)*time.Hour)))
	}
	got := NormalizeHistory(long)
	require.Len(t, got, MaxHistory)
	assert.Equal(t, 24, got[0].MovieID)
	assert.Equal(t, 5, got[MaxHistory-1].MovieID)
	assert.Equal(t, 0, long[0].MovieID, "input is not reordered in place")
}

func TestSetHistoryVoters(t *testing.T) {
	g := newTestGroup()
	g.VoteHistory = []VoteHistoryEntry{entryAt(7, testNow.Add(time.Hour)), entryAt(7, testNow), entryAt(3, testNow)}

	require.NoError(t, g.SetHistoryVoters(7, []string{"Alice", "Bob"}))
	assert.Equal(t, []string{"Alice", "Bob"}, g.VoteHistory[0].Voters)
	assert.Nil(t, g.VoteHistory[1].Voters, "only the newest entry for the movie is touched")

	require.NoError(t, g.SetHistoryVoters(3, nil))
	assert.Equal(t, []string{}, g.VoteHistory[2].Voters)

	err := g.SetHistoryVoters(99, []string{"x"})
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}
