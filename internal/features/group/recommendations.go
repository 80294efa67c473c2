package group

import (
	"strings"
	"time"

	"github.com/hicham-zad/pikonote-backend/internal/common/apperr"
)

const recommendationsTTL = 24 * time.Hour

func (r Recommendation) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return apperr.Validation("recommendation title is required")
	}
	if r.GroupCompatibility < 0 || r.GroupCompatibility > 10 {
		return apperr.Validation("group compatibility must be between 0 and 10")
	}
	return nil
}

// SaveRecommendations replaces the cached batch; it expires after a day.
func (g *Group) SaveRecommendations(recs []Recommendation, now time.Time) error {
	for _, r := range recs {
		if err := r.Validate(); err != nil {
			return err
		}
	}
	if recs == nil {
		recs = []Recommendation{}
	}
	g.LastRecommendations = &LastRecommendations{
		Recommendations: recs,
		GeneratedAt:     now,
		ExpiresAt:       now.Add(recommendationsTTL),
	}
	return nil
}

// GetLastRecommendations returns nil when nothing is cached or the batch expired.
func (g *Group) GetLastRecommendations(now time.Time) *LastRecommendations {
	last := g.LastRecommendations
	if last == nil || last.Recommendations == nil {
		return nil
	}
	if !last.ExpiresAt.IsZero() && now.After(last.ExpiresAt) {
		return nil
	}
	return last
}
