package user

import (
	"context"
	"database/sql"
	"errors"

	"github.com/hicham-zad/pikonote-backend/internal/common/apperr"
	"github.com/hicham-zad/pikonote-backend/internal/database"
)

// ProfileSource looks up display details the access token may lack.
type ProfileSource interface {
	Lookup(ctx context.Context, userID string) (*ExternalProfile, error)
}

type PostgresProfileSource struct {
	db *sql.DB
}

func NewPostgresProfileSource(profiles *database.ProfilesDB) ProfileSource {
	return &PostgresProfileSource{db: profiles.DB}
}

const profileQuery = `SELECT COALESCE(full_name, ''), COALESCE(avatar_url, '') FROM user_profiles WHERE id = $1`

// Lookup returns nil without error when the source is disabled or the user
// has no profile row.
func (s *PostgresProfileSource) Lookup(ctx context.Context, userID string) (*ExternalProfile, error) {
	if s.db == nil {
		return nil, nil
	}

	var p ExternalProfile
	err := s.db.QueryRowContext(ctx, profileQuery, userID).Scan(&p.FullName, &p.AvatarURL)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Storage("query user profile", err)
	}
	return &p, nil
}
