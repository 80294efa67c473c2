package user

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Profile is the local copy of an identity-provider user. ID is the token
// subject.
type Profile struct {
	ID           string               `json:"id" bson:"_id"`
	Email        string               `json:"email" bson:"email"`
	Name         string               `json:"name" bson:"name"`
	Avatar       *string              `json:"avatar" bson:"avatar"`
	JoinedGroups []primitive.ObjectID `json:"joined_groups" bson:"joined_groups"`
	LastActive   time.Time            `json:"last_active" bson:"last_active"`
	CreatedAt    time.Time            `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at" bson:"updated_at"`
}

// ExternalProfile is what the identity provider's profile table knows.
type ExternalProfile struct {
	FullName  string
	AvatarURL string
}
