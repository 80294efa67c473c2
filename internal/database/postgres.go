package database

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/hicham-zad/pikonote-backend/internal/config"

	_ "github.com/lib/pq"
	"go.uber.org/fx"
)

// ProfilesDB is the identity provider's Postgres database, read for profile
// details. DB is nil when PROFILES_DSN is not configured.
type ProfilesDB struct {
	DB *sql.DB
}

func NewProfilesDB(lc fx.Lifecycle, cfg *config.Config) (*ProfilesDB, error) {
	if cfg.ProfilesDSN == "" {
		log.Println("PROFILES_DSN not set, profile lookups disabled")
		return &ProfilesDB{}, nil
	}

	db, err := sql.Open("postgres", cfg.ProfilesDSN)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return db.Close()
		},
	})

	return &ProfilesDB{DB: db}, nil
}
