package database

import (
	"errors"

	"github.com/hicham-zad/pikonote-backend/internal/common/apperr"

	"go.mongodb.org/mongo-driver/mongo"
)

// WrapError turns driver errors into the apperr taxonomy: a missing document
// becomes ErrNotFound for the given entity, anything else ErrStorage.
func WrapError(entity, op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return apperr.NotFound(entity)
	}
	return apperr.Storage(op, err)
}
