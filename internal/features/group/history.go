package group

import (
	"slices"

	"github.com/hicham-zad/pikonote-backend/internal/common/apperr"
)

const MaxHistory = 20

// AppendHistory prepends entry and keeps the MaxHistory most recent entries.
func AppendHistory(history []VoteHistoryEntry, entry VoteHistoryEntry) []VoteHistoryEntry {
	out := make([]VoteHistoryEntry, 0, min(len(history)+1, MaxHistory))
	out = append(out, entry)
	for _, h := range history {
		if len(out) == MaxHistory {
			break
		}
		out = append(out, h)
	}
	return out
}

// NormalizeHistory re-sorts newest first and truncates when the list grew past
// MaxHistory by some other path. Lists within bounds are returned untouched.
func NormalizeHistory(history []VoteHistoryEntry) []VoteHistoryEntry {
	if len(history) <= MaxHistory {
		return history
	}
	sorted := slices.Clone(history)
	slices.SortStableFunc(sorted, func(a, b VoteHistoryEntry) int {
		return b.VotedAt.Compare(a.VotedAt)
	})
	return sorted[:MaxHistory]
}

// SetHistoryVoters fills in the voters of the most recent entry for movieID.
func (g *Group) SetHistoryVoters(movieID int, voters []string) error {
	for i := range g.VoteHistory {
		if g.VoteHistory[i].MovieID == movieID {
			g.VoteHistory[i].Voters = slices.Clone(voters)
			if g.VoteHistory[i].Voters == nil {
				g.VoteHistory[i].Voters = []string{}
			}
			return nil
		}
	}
	return apperr.NotFound("vote history entry")
}
