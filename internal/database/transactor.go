package database

import (
	"context"

	"github.com/hicham-zad/pikonote-backend/internal/config"

	"go.mongodb.org/mongo-driver/mongo"
)

// Transactor runs fn as one unit of work. Repositories called with the ctx
// handed to fn take part in the transaction.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
	// Atomic reports whether a failed fn is rolled back.
	Atomic() bool
}

type MongoTransactor struct {
	client  *mongo.Client
	enabled bool
}

// NewTransactor returns a transactor backed by a Mongo session. Standalone
// servers cannot run transactions; with MONGO_TRANSACTIONS=false fn runs
// directly and callers rely on their own compensation.
func NewTransactor(db *MongodbDB, cfg *config.Config) Transactor {
	return &MongoTransactor{
		client:  db.Client,
		enabled: cfg.MongoTransactions,
	}
}

func (t *MongoTransactor) Atomic() bool { return t.enabled }

func (t *MongoTransactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if !t.enabled {
		return fn(ctx)
	}

	session, err := t.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

// NoopTransactor runs fn without any isolation.
type NoopTransactor struct{}

func (NoopTransactor) Atomic() bool { return false }

func (NoopTransactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
